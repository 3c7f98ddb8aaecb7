package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammCore/internal/config"
	"ammCore/internal/runtime"
	"ammCore/internal/storage"
	"ammCore/internal/storage/bolt"
	"ammCore/internal/storage/postgres"
)

// session is one CLI invocation against the persisted runtime.
type session struct {
	ctx    context.Context
	stop   context.CancelFunc
	cfg    config.Config
	logger *zap.Logger
	state  *bolt.StateDB
	pg     *postgres.Store
	rt     *runtime.Runtime
	out    *json.Encoder
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("parse program id: %w", err)
	}

	s := &session{cfg: cfg, logger: logger}
	s.ctx, s.stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	s.out = json.NewEncoder(cmd.OutOrStdout())
	s.out.SetIndent("", "  ")

	if dir := filepath.Dir(cfg.StateDB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.close()
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	if s.state, err = bolt.Open(cfg.StateDB); err != nil {
		s.close()
		return nil, err
	}

	journal := storage.NewJsonlStorage(cfg.Journal)
	sinks := storage.Multi{journal}
	if cfg.PGDSN != "" {
		if s.pg, err = postgres.NewStore(s.ctx, cfg.PGDSN); err != nil {
			s.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := s.pg.EnsureSchema(s.ctx); err != nil {
			s.close()
			return nil, err
		}
		sinks = append(sinks, s.pg)
	}

	s.rt = runtime.New(runtime.Options{
		ProgramID: programID,
		Journal:   sinks,
		Logger:    logger,
	})
	snap, ok, err := s.state.Load()
	if err != nil {
		s.close()
		return nil, err
	}
	if ok {
		s.rt.Restore(snap)
	}

	last, err := journal.LastSeq()
	if err != nil {
		s.close()
		return nil, err
	}
	if last != s.rt.Seq() {
		logger.Warn("journal and state disagree; run replay to rebuild state",
			zap.Uint64("journal_seq", last),
			zap.Uint64("state_seq", s.rt.Seq()),
		)
	}

	logger.Debug("session open",
		zap.String("state_db", cfg.StateDB),
		zap.String("journal", cfg.Journal),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("program_id", programID.String()),
		zap.Uint64("seq", s.rt.Seq()),
	)
	return s, nil
}

// execute runs ix, persists the resulting state and prints the record.
// Failed instructions are journaled and persisted before the error returns.
func (s *session) execute(ix solana.Instruction, buildErr error) error {
	if buildErr != nil {
		return buildErr
	}
	record, execErr := s.rt.Execute(s.ctx, ix)
	if record.Seq != 0 {
		if err := s.state.Save(s.rt.Snapshot()); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
		if err := s.print(record); err != nil {
			return err
		}
	}
	if execErr != nil {
		return execErr
	}
	s.logger.Info("instruction committed",
		zap.Uint64("seq", record.Seq),
		zap.String("instruction", record.Instruction),
	)
	return nil
}

func (s *session) print(v any) error {
	if err := s.out.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (s *session) close() {
	if s.pg != nil {
		s.pg.Close()
	}
	if s.state != nil {
		if err := s.state.Close(); err != nil {
			s.logger.Warn("close state db", zap.Error(err))
		}
	}
	if s.stop != nil {
		s.stop()
	}
	_ = s.logger.Sync()
}

// keyFlag parses a base58 public key flag.
func keyFlag(cmd *cobra.Command, name string) (solana.PublicKey, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", name)
	}
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("parse --%s: %w", name, err)
	}
	return key, nil
}
