package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ammCore/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "ammctl",
		Short:        "Constant-product AMM on a local token ledger",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("state-db", "./data/state.db", "bbolt state file")
	flags.String("journal", "./data/journal.jsonl", "instruction journal JSONL path")
	flags.String("pg-dsn", "", "optional Postgres DSN mirroring the journal")
	flags.String("program-id", config.DefaultProgramID, "AMM program address")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newTokenCmd(), newPoolCmd(), newReplayCmd(), newStatsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
