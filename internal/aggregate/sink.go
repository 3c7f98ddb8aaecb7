package aggregate

import (
	"context"

	"go.uber.org/zap"

	"ammCore/internal/model"
)

// Sink receives pool registry rows and window metrics. *postgres.Store
// satisfies it.
type Sink interface {
	UpsertPools(ctx context.Context, pools []model.Pool) error
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// LogSink writes rows to a logger instead of a database.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) UpsertPools(_ context.Context, pools []model.Pool) error {
	for _, p := range pools {
		s.logger().Info("pool",
			zap.String("pool", p.Address),
			zap.Uint64("seed", p.Seed),
			zap.String("mint_x", p.MintX),
			zap.String("mint_y", p.MintY),
			zap.Uint16("fee_bps", p.FeeBps),
			zap.Uint64("first_seen_seq", p.FirstSeenSeq),
		)
	}
	return nil
}

func (s LogSink) UpsertWindowMetrics(_ context.Context, metrics []model.PoolWindowMetrics) error {
	for _, m := range metrics {
		fields := []zap.Field{
			zap.String("pool", m.PoolAddress),
			zap.Time("window_start", m.WindowStart),
			zap.Int64("window_secs", m.WindowSizeSecs),
			zap.Uint64("swaps", m.SwapCount),
			zap.Uint64("deposits", m.DepositCount),
			zap.Uint64("withdraws", m.WithdrawCount),
			zap.Uint64("failed", m.FailedCount),
			zap.String("volume_x", m.VolumeX),
			zap.String("volume_y", m.VolumeY),
			zap.String("fee_x", m.FeeX),
			zap.String("fee_y", m.FeeY),
		}
		if m.APR != nil {
			fields = append(fields, zap.String("apr", *m.APR))
		}
		s.logger().Info("pool window", fields...)
	}
	return nil
}

func (s LogSink) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
