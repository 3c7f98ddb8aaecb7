package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammCore/internal/config"
	"ammCore/internal/replay"
	"ammCore/internal/runtime"
	"ammCore/internal/storage"
	"ammCore/internal/storage/bolt"
	"ammCore/internal/storage/postgres"
)

func newReplayCmd() *cobra.Command {
	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild --state-db by re-executing the journal",
		RunE:  runReplay,
	}

	replayCmd.Flags().Uint64("from", 0, "first seq to replay (inclusive), 0 means the start")
	replayCmd.Flags().Uint64("to", 0, "last seq to replay (inclusive), 0 means the end of the journal")
	replayCmd.Flags().Uint64("batch-size", 500, "records per batch")
	replayCmd.Flags().String("checkpoint", "./data/replay.checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().Bool("strict", false, "stop at the first divergence")
	replayCmd.Flags().Int("max-retries", 5, "maximum retry attempts for the Postgres mirror")
	replayCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	return replayCmd
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return fmt.Errorf("parse program id: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dir := filepath.Dir(cfg.StateDB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	state, err := bolt.Open(cfg.StateDB)
	if err != nil {
		return err
	}
	defer state.Close()

	rt := runtime.New(runtime.Options{ProgramID: programID, Logger: logger})
	snap, ok, err := state.Load()
	if err != nil {
		return err
	}
	if ok {
		rt.Restore(snap)
	}

	var output storage.Storage
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		output = store
	}

	runner := replay.NewRunner(replay.RunConfig{
		JournalPath:       cfg.Journal,
		FromSeq:           cfg.From,
		ToSeq:             cfg.To,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		Strict:            cfg.Strict,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, rt, output, state, logger)

	logger.Info("replay start",
		zap.String("journal", cfg.Journal),
		zap.String("state_db", cfg.StateDB),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("state_seq", rt.Seq()),
		zap.Uint64("from", cfg.From),
		zap.Uint64("to", cfg.To),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("strict", cfg.Strict),
	)

	result, err := runner.Run(ctx)
	logger.Info("replay finished",
		zap.Uint64("replayed", result.Replayed),
		zap.Uint64("failed", result.Failed),
		zap.Uint64("last_seq", result.LastSeq),
		zap.Int("divergences", len(result.Divergences)),
	)
	if err != nil {
		return err
	}
	if len(result.Divergences) > 0 {
		return fmt.Errorf("%w: %d fields differ", replay.ErrDiverged, len(result.Divergences))
	}
	return nil
}
