// Package replay rebuilds runtime state by re-executing an instruction
// journal, checking every outcome against what was recorded.
package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ammCore/internal/model"
	"ammCore/internal/runtime"
	"ammCore/internal/storage"
)

// ErrDiverged is returned in strict mode when a replayed outcome differs
// from the journal.
var ErrDiverged = errors.New("replay diverged from journal")

// RunConfig holds settings for a replay.
type RunConfig struct {
	JournalPath       string
	FromSeq           uint64
	ToSeq             uint64
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	Strict            bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// StateSaver persists the runtime after each batch.
type StateSaver interface {
	Save(runtime.Snapshot) error
}

// Result summarizes a replay.
type Result struct {
	Replayed    uint64       `json:"replayed"`
	Failed      uint64       `json:"failed"`
	LastSeq     uint64       `json:"last_seq"`
	Divergences []Divergence `json:"divergences,omitempty"`
}

// Runner re-executes journal records against a runtime.
type Runner struct {
	cfg        RunConfig
	rt         *runtime.Runtime
	output     storage.Storage
	state      StateSaver
	logger     *zap.Logger
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner. rt must not journal on its own; replayed
// records are forwarded to output instead. output and state may be nil.
func NewRunner(cfg RunConfig, rt *runtime.Runtime, output storage.Storage, state StateSaver, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		rt:         rt,
		output:     output,
		state:      state,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run replays the configured range. The runtime must already hold the state
// as of the sequence number preceding the first replayed record.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var result Result
	if r.rt == nil {
		return result, fmt.Errorf("runtime is nil")
	}
	if r.cfg.BatchSize == 0 {
		return result, fmt.Errorf("batch size must be greater than zero")
	}

	from := r.cfg.FromSeq
	if from == 0 {
		from = 1
	}
	last, err := storage.NewJsonlStorage(r.cfg.JournalPath).LastSeq()
	if err != nil {
		return result, fmt.Errorf("scan journal: %w", err)
	}
	to := r.cfg.ToSeq
	if to == 0 {
		to = last
	}
	// Batches never extend past the journal; a larger --to still fails below.
	end := to
	if end > last {
		end = last
	}

	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return result, err
	}
	if ok && cp.Journal != "" && cp.Journal != r.cfg.JournalPath {
		r.logger.Warn("checkpoint belongs to another journal, ignoring", zap.String("checkpoint_journal", cp.Journal))
	} else if ok && cp.LastProcessedSeq >= from {
		from = cp.LastProcessedSeq + 1
		r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedSeq), zap.Uint64("from", from))
	}
	result.LastSeq = r.rt.Seq()

	if from > to {
		r.logger.Info("nothing to replay", zap.Uint64("from", from), zap.Uint64("to", to))
		return result, nil
	}
	if from > end {
		return result, fmt.Errorf("journal ends at seq %d, expected %d", last, to)
	}
	if r.rt.Seq()+1 != from {
		return result, fmt.Errorf("runtime is at seq %d, replay starts at %d", r.rt.Seq(), from)
	}

	records, err := readRange(r.cfg.JournalPath, from, end)
	if err != nil {
		return result, err
	}

	ranges, err := SplitRange(from, end, r.cfg.BatchSize)
	if err != nil {
		return result, err
	}

	retry := newRetryPolicy(r.cfg.MaxRetries, r.cfg.RetryBackoff, r.logger)
	next := 0
	for _, seqRange := range ranges {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		batch := make([]model.InstructionRecord, 0, seqRange.To-seqRange.From+1)
		for next < len(records) && seqRange.Contains(records[next].Seq) {
			replayed, err := r.replayOne(ctx, records[next], &result)
			if err != nil {
				return result, err
			}
			batch = append(batch, replayed)
			next++
		}
		if len(batch) == 0 {
			continue
		}

		if r.output != nil {
			err := retry.do(ctx, seqRange, func(ctx context.Context) error {
				return r.output.PutRecordBatch(ctx, batch)
			})
			if err != nil {
				return result, fmt.Errorf("store replayed records: %w", err)
			}
		}
		if r.state != nil {
			if err := r.state.Save(r.rt.Snapshot()); err != nil {
				return result, fmt.Errorf("save state: %w", err)
			}
		}
		if err := r.checkpoint.Save(result.LastSeq, r.cfg.JournalPath); err != nil {
			return result, err
		}

		r.logger.Info("batch complete",
			zap.Int("records", len(batch)),
			zap.Uint64("from", seqRange.From),
			zap.Uint64("to", seqRange.To),
			zap.Int("divergences", len(result.Divergences)),
		)
	}

	if result.LastSeq < to {
		return result, fmt.Errorf("journal ends at seq %d, expected %d", result.LastSeq, to)
	}
	return result, nil
}

func (r *Runner) replayOne(ctx context.Context, record model.InstructionRecord, result *Result) (model.InstructionRecord, error) {
	if want := r.rt.Seq() + 1; record.Seq != want {
		return model.InstructionRecord{}, fmt.Errorf("journal gap: got seq %d, want %d", record.Seq, want)
	}
	ix, err := buildInstruction(record)
	if err != nil {
		return model.InstructionRecord{}, err
	}

	replayed, execErr := r.rt.ExecuteAt(ctx, ix, time.Unix(int64(record.Timestamp), 0))
	if replayed.Seq == 0 {
		return model.InstructionRecord{}, fmt.Errorf("replay seq %d: %w", record.Seq, execErr)
	}
	replayed.ExecutedAt = record.ExecutedAt

	result.Replayed++
	result.LastSeq = replayed.Seq
	if !replayed.OK() {
		result.Failed++
	}

	diffs := compareRecords(record, replayed)
	for _, d := range diffs {
		r.logger.Warn("replay divergence",
			zap.Uint64("seq", d.Seq),
			zap.String("field", d.Field),
			zap.String("journal", d.Journal),
			zap.String("replayed", d.Replayed),
		)
	}
	result.Divergences = append(result.Divergences, diffs...)
	if len(diffs) > 0 && r.cfg.Strict {
		return model.InstructionRecord{}, fmt.Errorf("%w: %s", ErrDiverged, diffs[0])
	}
	return replayed, nil
}

// readRange loads the journal records with seq in [from, to].
func readRange(path string, from, to uint64) ([]model.InstructionRecord, error) {
	var records []model.InstructionRecord
	err := storage.ReadRecords(path, func(record model.InstructionRecord) error {
		if record.Seq > to {
			return storage.ErrStop
		}
		if record.Seq >= from {
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return records, nil
}
