package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// StatsConfig holds configuration for the stats command.
type StatsConfig struct {
	Config
	Window        string
	BatchSize     int
	StateFile     string
	RecomputeFrom string
	Pools         []string
}

// LoadStats merges config file, environment variables, and flags into StatsConfig.
func LoadStats(cfgFile string, flags *pflag.FlagSet) (StatsConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return StatsConfig{}, err
	}
	v.SetDefault("window", "1h")
	v.SetDefault("batch-size", 1000)

	return StatsConfig{
		Config:        baseConfig(v),
		Window:        v.GetString("window"),
		BatchSize:     v.GetInt("batch-size"),
		StateFile:     v.GetString("state-file"),
		RecomputeFrom: v.GetString("recompute-from"),
		Pools:         getStringSlice(v, "pool"),
	}, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	if strings.TrimSpace(input) == "" {
		return 0, nil
	}

	if isNumeric(input) {
		return strconv.ParseUint(input, 10, 64)
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
