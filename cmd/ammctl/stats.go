package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammCore/internal/aggregate"
	"ammCore/internal/config"
	"ammCore/internal/ledger"
	"ammCore/internal/replay"
	"ammCore/internal/storage/bolt"
	"ammCore/internal/storage/postgres"
)

func newStatsCmd() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate the journal into per-pool window metrics",
		RunE:  runStats,
	}

	statsCmd.Flags().String("window", "1h", "aggregation window (e.g. 1m, 5m, 1h)")
	statsCmd.Flags().Int("batch-size", 1000, "batch size for sink writes")
	statsCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	statsCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	statsCmd.Flags().StringSlice("pool", nil, "only aggregate these pool config addresses (comma-separated)")
	return statsCmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadStats(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	windowDuration, err := time.ParseDuration(cfg.Window)
	if err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}
	if windowDuration <= 0 {
		return fmt.Errorf("window must be positive")
	}
	windowSeconds := uint64(windowDuration.Seconds())
	if windowSeconds == 0 {
		return fmt.Errorf("window must be at least 1s")
	}

	recomputeFrom, err := config.ParseTimestamp(cfg.RecomputeFrom)
	if err != nil {
		return fmt.Errorf("parse recompute-from: %w", err)
	}
	pools, err := replay.ParsePublicKeys(cfg.Pools)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mints, err := loadMints(cfg.StateDB)
	if err != nil {
		return err
	}

	var sink aggregate.Sink = aggregate.LogSink{Logger: logger}
	var stateStore aggregate.StateStore
	if cfg.StateFile != "" {
		stateStore = &aggregate.FileStateStore{Path: cfg.StateFile}
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sink = store
		if stateStore == nil {
			stateStore = aggregate.NewDBStateStore(store, windowSeconds)
		}
	}

	agg := aggregate.NewAggregator(aggregate.Config{
		WindowSeconds: windowSeconds,
		BatchSize:     cfg.BatchSize,
		RecomputeFrom: recomputeFrom,
		StateStore:    stateStore,
		Pools:         pools,
	}, sink, mints, logger)

	logger.Info("stats start",
		zap.String("journal", cfg.Journal),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("window_seconds", windowSeconds),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Uint64("recompute_from", recomputeFrom),
		zap.Int("pools", len(pools)),
	)

	return agg.Run(ctx, cfg.Journal)
}

// loadMints returns a ledger holding the persisted mints, used to resolve
// decimals. A missing state file yields an empty ledger.
func loadMints(path string) (aggregate.MintSource, error) {
	l := ledger.New(nil)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return l, nil
	}
	state, err := bolt.Open(path)
	if err != nil {
		return nil, err
	}
	defer state.Close()

	snap, ok, err := state.Load()
	if err != nil {
		return nil, err
	}
	if ok {
		l.Restore(snap.Ledger)
	}
	return l, nil
}
