// Package aggregate rolls the instruction journal up into per-pool window
// metrics: activity counts, swap volume, fees and fee yield on reserves.
package aggregate

import (
	"context"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammCore/internal/amm"
	"ammCore/internal/model"
	"ammCore/internal/storage"
)

const (
	feeMethodSettled   = "settled_fee"
	tvlMethodReserves  = "reserves_at_last_instruction"
	tvlMethodNone      = "unavailable"
	defaultBatchSize   = 1000
	initializeAccounts = 7
)

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
	Pools         []solana.PublicKey
}

// Aggregator aggregates journaled AMM instructions into pool window metrics.
type Aggregator struct {
	cfg          Config
	sink         Sink
	logger       *zap.Logger
	decimals     *DecimalsCache
	filter       map[string]struct{}
	accumulators map[string]*Accumulator
	poolSeen     map[string]model.Pool
}

func NewAggregator(cfg Config, sink Sink, mints MintSource, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	var filter map[string]struct{}
	if len(cfg.Pools) > 0 {
		filter = make(map[string]struct{}, len(cfg.Pools))
		for _, p := range cfg.Pools {
			filter[p.String()] = struct{}{}
		}
	}

	return &Aggregator{
		cfg:          cfg,
		sink:         sink,
		logger:       logger,
		decimals:     NewDecimalsCache(mints),
		filter:       filter,
		accumulators: make(map[string]*Accumulator),
		poolSeen:     make(map[string]model.Pool),
	}
}

// Run aggregates the records of a JSONL instruction journal.
func (a *Aggregator) Run(ctx context.Context, journalPath string) error {
	if a.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = defaultBatchSize
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	pools := make([]model.Pool, 0, 16)
	maxTs := startTs
	var total, windows, skipped int

	err = storage.ReadRecords(journalPath, func(record model.InstructionRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		total++
		if record.Program != model.ProgramAMM || record.Pool == nil || !a.tracked(record.Pool.Address) {
			skipped++
			return nil
		}

		if pool := a.registerPool(record); pool != nil {
			pools = append(pools, *pool)
		}
		if record.Timestamp <= startTs {
			skipped++
			return nil
		}

		start := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		end := start + a.cfg.WindowSeconds

		acc := a.accumulators[record.Pool.Address]
		if acc == nil {
			acc = NewAccumulator(record, start, end)
			a.accumulators[record.Pool.Address] = acc
		} else if acc.WindowStart != start {
			batch = append(batch, a.flushAccumulator(acc))
			windows++
			acc = NewAccumulator(record, start, end)
			a.accumulators[record.Pool.Address] = acc
		}
		acc.AddRecord(record)

		if record.Timestamp > maxTs {
			maxTs = record.Timestamp
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.flushBatches(ctx, batch, pools); err != nil {
				return err
			}
			batch = batch[:0]
			pools = pools[:0]
			if err := a.saveState(ctx, closedBefore(minOpenWindowStart(a.accumulators))); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("aggregate journal: %w", err)
	}

	for _, acc := range a.accumulators {
		batch = append(batch, a.flushAccumulator(acc))
		windows++
	}
	a.accumulators = make(map[string]*Accumulator)

	if len(batch) > 0 || len(pools) > 0 {
		if err := a.flushBatches(ctx, batch, pools); err != nil {
			return err
		}
	}

	// The window holding maxTs can still receive records, so the next run
	// rebuilds it in full.
	resume := startTs
	if maxTs > startTs {
		resume = closedBefore(windowStart(maxTs, a.cfg.WindowSeconds))
	}
	if err := a.saveState(ctx, resume); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", windows),
		zap.Int("skipped", skipped),
		zap.Int("pools", len(a.poolSeen)),
	)
	return nil
}

func (a *Aggregator) tracked(pool string) bool {
	if a.filter == nil {
		return true
	}
	_, ok := a.filter[pool]
	return ok
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

// saveState records ts as the newest timestamp whose windows are all final.
func (a *Aggregator) saveState(ctx context.Context, ts uint64) error {
	if a.cfg.StateStore == nil {
		return nil
	}
	return a.cfg.StateStore.Save(ctx, ts)
}

func closedBefore(start uint64) uint64 {
	if start == 0 {
		return 0
	}
	return start - 1
}

func (a *Aggregator) flushBatches(ctx context.Context, batch []model.PoolWindowMetrics, pools []model.Pool) error {
	if len(pools) > 0 {
		if err := a.sink.UpsertPools(ctx, pools); err != nil {
			return err
		}
	}
	if len(batch) > 0 {
		if err := a.sink.UpsertWindowMetrics(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) flushAccumulator(acc *Accumulator) model.PoolWindowMetrics {
	decimalsX, err := a.decimals.Get(acc.MintX)
	if err != nil {
		a.logger.Warn("mint x decimals", zap.String("mint", acc.MintX), zap.Error(err))
	}
	decimalsY, err := a.decimals.Get(acc.MintY)
	if err != nil {
		a.logger.Warn("mint y decimals", zap.String("mint", acc.MintY), zap.Error(err))
	}

	tvlMethod := tvlMethodReserves
	if acc.ReserveX == nil || acc.ReserveY == nil {
		tvlMethod = tvlMethodNone
	}
	rateX, rateY := computeFeeRates(acc.FeeX, acc.FeeY, acc.ReserveX, acc.ReserveY)

	return model.PoolWindowMetrics{
		PoolAddress:    acc.PoolAddress,
		WindowSizeSecs: int64(a.cfg.WindowSeconds),
		WindowStart:    time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:      acc.SwapCount,
		DepositCount:   acc.DepositCount,
		WithdrawCount:  acc.WithdrawCount,
		FailedCount:    acc.FailedCount,
		VolumeX:        formatTokenAmount(acc.VolumeX, decimalsX),
		VolumeY:        formatTokenAmount(acc.VolumeY, decimalsY),
		FeeX:           formatTokenAmount(acc.FeeX, decimalsX),
		FeeY:           formatTokenAmount(acc.FeeY, decimalsY),
		FeeRateX:       rateX,
		FeeRateY:       rateY,
		ReserveX:       formatReserve(acc.ReserveX, decimalsX),
		ReserveY:       formatReserve(acc.ReserveY, decimalsY),
		LPSupply:       acc.LPSupply,
		APR:            computeAPR(rateX, rateY, a.cfg.WindowSeconds),
		FeeMethod:      feeMethodSettled,
		TVLMethod:      tvlMethod,
	}
}

// registerPool returns a registry row the first time a successful initialize
// for a pool is seen.
func (a *Aggregator) registerPool(record model.InstructionRecord) *model.Pool {
	if record.Instruction != amm.InstructionInitialize || !record.OK() {
		return nil
	}
	if _, ok := a.poolSeen[record.Pool.Address]; ok {
		return nil
	}
	pool, err := poolFromInitialize(record)
	if err != nil {
		a.logger.Warn("decode initialize", zap.Uint64("seq", record.Seq), zap.Error(err))
		return nil
	}
	a.poolSeen[pool.Address] = pool
	return &pool
}

func poolFromInitialize(record model.InstructionRecord) (model.Pool, error) {
	if len(record.Accounts) != initializeAccounts {
		return model.Pool{}, fmt.Errorf("initialize has %d accounts", len(record.Accounts))
	}
	data, err := record.DataBytes()
	if err != nil {
		return model.Pool{}, err
	}
	if name, ok := amm.InstructionName(data); !ok || name != amm.InstructionInitialize {
		return model.Pool{}, fmt.Errorf("data is not an initialize instruction")
	}
	var args amm.InitializeArgs
	if err := args.UnmarshalWithDecoder(bin.NewBorshDecoder(data[8:])); err != nil {
		return model.Pool{}, fmt.Errorf("decode initialize args: %w", err)
	}

	pool := model.Pool{
		Address:      record.Accounts[6].Address,
		Seed:         args.Seed,
		MintX:        record.Accounts[1].Address,
		MintY:        record.Accounts[2].Address,
		LPMint:       record.Accounts[3].Address,
		VaultX:       record.Accounts[4].Address,
		VaultY:       record.Accounts[5].Address,
		FeeBps:       args.FeeBps,
		FirstSeenSeq: record.Seq,
	}
	if args.Authority != nil {
		pool.Authority = args.Authority.String()
	}
	return pool, nil
}

func minOpenWindowStart(acc map[string]*Accumulator) uint64 {
	var min uint64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.WindowStart < min {
			min = entry.WindowStart
		}
	}
	return min
}
