package aggregate

import (
	"context"
	"fmt"
)

// ProgressStore is the progress_state table of postgres.Store.
type ProgressStore interface {
	LoadState(ctx context.Context, name string) (uint64, bool, error)
	SaveState(ctx context.Context, name string, value uint64) error
}

// DBStateStore keeps stats progress in the database. Window boundaries depend
// on the window size, so each size resumes from its own row.
type DBStateStore struct {
	store ProgressStore
	name  string
}

func NewDBStateStore(store ProgressStore, windowSeconds uint64) *DBStateStore {
	return &DBStateStore{store: store, name: fmt.Sprintf("stats:%ds", windowSeconds)}
}

// Name is the progress_state row this store reads and writes.
func (s *DBStateStore) Name() string {
	return s.name
}

func (s *DBStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.store == nil {
		return 0, false, nil
	}
	ts, ok, err := s.store.LoadState(ctx, s.name)
	if err != nil {
		return 0, false, fmt.Errorf("load stats progress %s: %w", s.name, err)
	}
	return ts, ok, nil
}

func (s *DBStateStore) Save(ctx context.Context, ts uint64) error {
	if s == nil || s.store == nil {
		return nil
	}
	if err := s.store.SaveState(ctx, s.name, ts); err != nil {
		return fmt.Errorf("save stats progress %s: %w", s.name, err)
	}
	return nil
}
