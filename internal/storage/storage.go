package storage

import (
	"context"

	"ammCore/internal/model"
)

// Storage defines a sink for journaled instructions.
type Storage interface {
	PutRecordBatch(ctx context.Context, records []model.InstructionRecord) error
}

// Multi fans a batch out to every sink in order, stopping at the first error.
type Multi []Storage

func (m Multi) PutRecordBatch(ctx context.Context, records []model.InstructionRecord) error {
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.PutRecordBatch(ctx, records); err != nil {
			return err
		}
	}
	return nil
}
