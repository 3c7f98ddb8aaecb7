package config

import (
	"time"

	"github.com/spf13/pflag"
)

// ReplayConfig holds configuration for the replay command.
type ReplayConfig struct {
	Config
	From              uint64
	To                uint64
	BatchSize         uint64
	Checkpoint        string
	CheckpointEnabled bool
	Strict            bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ReplayConfig{}, err
	}
	v.SetDefault("batch-size", uint64(500))
	v.SetDefault("checkpoint", "./data/replay.checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)

	return ReplayConfig{
		Config:            baseConfig(v),
		From:              v.GetUint64("from"),
		To:                v.GetUint64("to"),
		BatchSize:         v.GetUint64("batch-size"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		Strict:            v.GetBool("strict"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
	}, nil
}
