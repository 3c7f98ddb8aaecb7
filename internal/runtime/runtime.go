// Package runtime executes AMM and token instructions in sequence against one
// ledger and journals every outcome, committed or failed.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammCore/internal/amm"
	"ammCore/internal/ledger"
	"ammCore/internal/model"
	"ammCore/internal/storage"
)

// Options configures a Runtime. A nil Journal disables journaling.
type Options struct {
	ProgramID solana.PublicKey
	Journal   storage.Storage
	Clock     func() time.Time
	Logger    *zap.Logger
}

// Runtime owns the ledger, the pool configs and the AMM program bound to them.
type Runtime struct {
	mu      sync.Mutex
	ledger  *ledger.Ledger
	configs *amm.MemoryStore
	program *amm.Program
	journal storage.Storage
	clock   func() time.Time
	seq     uint64
	logger  *zap.Logger
}

// Snapshot is the full state of a Runtime.
type Snapshot struct {
	Seq    uint64             `json:"seq"`
	Ledger ledger.State       `json:"ledger"`
	Pools  []amm.StoredConfig `json:"pools"`
}

func New(opts Options) *Runtime {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	bank := ledger.New(logger.Named("ledger"))
	configs := amm.NewMemoryStore()
	return &Runtime{
		ledger:  bank,
		configs: configs,
		program: amm.NewProgram(opts.ProgramID, configs, bank, logger.Named("amm")),
		journal: opts.Journal,
		clock:   clock,
		logger:  logger,
	}
}

func (r *Runtime) Program() *amm.Program {
	return r.program
}

func (r *Runtime) Ledger() *ledger.Ledger {
	return r.ledger
}

// Seq returns the sequence number of the last executed instruction.
func (r *Runtime) Seq() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Execute runs ix stamped with the current clock.
func (r *Runtime) Execute(ctx context.Context, ix solana.Instruction) (model.InstructionRecord, error) {
	return r.ExecuteAt(ctx, ix, r.clock())
}

// ExecuteAt runs ix and journals its record with timestamp at. Instructions
// for unknown programs are rejected without consuming a sequence number; any
// other failure is journaled and returned.
func (r *Runtime) ExecuteAt(ctx context.Context, ix solana.Instruction, at time.Time) (model.InstructionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, err := r.newRecord(ix, at)
	if err != nil {
		return model.InstructionRecord{}, err
	}

	var execErr error
	switch record.Program {
	case model.ProgramAMM:
		out, err := r.program.Process(ix)
		execErr = err
		record.Instruction = out.Instruction
		record.Settlement = settlementOf(out)
		record.Pool = r.poolSnapshot(out.Pool)
	case model.ProgramToken:
		record.Instruction, execErr = r.ledger.Process(ix)
	}
	if record.Instruction == "" {
		record.Instruction = "unknown"
	}

	if execErr != nil {
		record.Status = model.StatusFailed
		record.Codespace, record.Code = amm.ErrorCode(execErr)
		record.Error = execErr.Error()
		record.Settlement = nil
	}
	r.seq = record.Seq

	if r.journal != nil {
		if err := r.journal.PutRecordBatch(ctx, []model.InstructionRecord{record}); err != nil {
			return record, fmt.Errorf("journal record %d: %w", record.Seq, err)
		}
	}

	r.logger.Debug("instruction executed",
		zap.Uint64("seq", record.Seq),
		zap.String("program", record.Program),
		zap.String("instruction", record.Instruction),
		zap.String("status", record.Status),
		zap.Uint32("code", record.Code),
	)
	return record, execErr
}

func (r *Runtime) newRecord(ix solana.Instruction, at time.Time) (model.InstructionRecord, error) {
	programID := ix.ProgramID()
	var program string
	switch {
	case programID.Equals(r.program.ID()):
		program = model.ProgramAMM
	case programID.Equals(ledger.ProgramID):
		program = model.ProgramToken
	default:
		return model.InstructionRecord{}, fmt.Errorf("unknown program %s", programID)
	}

	data, err := ix.Data()
	if err != nil {
		return model.InstructionRecord{}, fmt.Errorf("instruction data: %w", err)
	}
	metas := ix.Accounts()
	accounts := make([]model.AccountRef, 0, len(metas))
	for _, m := range metas {
		accounts = append(accounts, model.AccountRef{
			Address:  m.PublicKey.String(),
			Signer:   m.IsSigner,
			Writable: m.IsWritable,
		})
	}

	return model.InstructionRecord{
		Seq:        r.seq + 1,
		Program:    program,
		ProgramID:  programID.String(),
		Accounts:   accounts,
		Data:       model.EncodeData(data),
		Status:     model.StatusOK,
		Timestamp:  uint64(at.Unix()),
		ExecutedAt: at.UTC().Format(time.RFC3339Nano),
	}, nil
}

func (r *Runtime) poolSnapshot(addr solana.PublicKey) *model.PoolSnapshot {
	if addr.IsZero() {
		return nil
	}
	state, err := r.program.Pool(addr)
	if err != nil {
		return &model.PoolSnapshot{Address: addr.String()}
	}
	return &model.PoolSnapshot{
		Address:  state.Address.String(),
		MintX:    state.Config.MintX.String(),
		MintY:    state.Config.MintY.String(),
		FeeBps:   state.Config.FeeBps,
		Locked:   state.Config.Locked,
		ReserveX: state.ReserveX,
		ReserveY: state.ReserveY,
		LPSupply: state.LPSupply,
	}
}

func settlementOf(out amm.Outcome) *model.Settlement {
	switch {
	case out.Deposit != nil:
		return &model.Settlement{AmountX: out.Deposit.AmountX, AmountY: out.Deposit.AmountY, LP: out.Deposit.LPMinted}
	case out.Withdraw != nil:
		return &model.Settlement{AmountX: out.Withdraw.AmountX, AmountY: out.Withdraw.AmountY, LP: out.Withdraw.LPBurned}
	case out.Swap != nil:
		return &model.Settlement{
			IsX:       out.Swap.IsX,
			AmountIn:  out.Swap.AmountIn,
			AmountOut: out.Swap.AmountOut,
			Fee:       out.Swap.Fee,
		}
	}
	return nil
}

// Snapshot copies the current state.
func (r *Runtime) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Seq:    r.seq,
		Ledger: r.ledger.Snapshot(),
		Pools:  r.configs.List(),
	}
}

// Restore replaces the current state with s.
func (r *Runtime) Restore(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledger.Restore(s.Ledger)
	r.configs.Restore(s.Pools)
	r.seq = s.Seq
}
