package aggregate

import (
	"math/big"

	"ammCore/internal/amm"
	"ammCore/internal/model"
)

// Accumulator holds aggregate values for one pool window.
type Accumulator struct {
	PoolAddress   string
	MintX         string
	MintY         string
	WindowStart   uint64
	WindowEnd     uint64
	SwapCount     uint64
	DepositCount  uint64
	WithdrawCount uint64
	FailedCount   uint64
	VolumeX       *big.Int
	VolumeY       *big.Int
	FeeX          *big.Int
	FeeY          *big.Int
	ReserveX      *big.Int
	ReserveY      *big.Int
	LPSupply      uint64
	FirstSeq      uint64
	LastSeq       uint64
}

func NewAccumulator(record model.InstructionRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress: record.Pool.Address,
		MintX:       record.Pool.MintX,
		MintY:       record.Pool.MintY,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		VolumeX:     big.NewInt(0),
		VolumeY:     big.NewInt(0),
		FeeX:        big.NewInt(0),
		FeeY:        big.NewInt(0),
		FirstSeq:    record.Seq,
		LastSeq:     record.Seq,
	}
}

// AddRecord folds one journaled instruction on the accumulator's pool into
// the window. Failed instructions are only counted.
func (a *Accumulator) AddRecord(record model.InstructionRecord) {
	if record.Seq < a.FirstSeq {
		a.FirstSeq = record.Seq
	}
	if !record.OK() {
		a.FailedCount++
		return
	}

	if record.Seq >= a.LastSeq && record.Pool.MintX != "" {
		a.LastSeq = record.Seq
		a.MintX = record.Pool.MintX
		a.MintY = record.Pool.MintY
		a.ReserveX = new(big.Int).SetUint64(record.Pool.ReserveX)
		a.ReserveY = new(big.Int).SetUint64(record.Pool.ReserveY)
		a.LPSupply = record.Pool.LPSupply
	}

	s := record.Settlement
	switch record.Instruction {
	case amm.InstructionDeposit:
		a.DepositCount++
	case amm.InstructionWithdraw:
		a.WithdrawCount++
	case amm.InstructionSwap:
		a.SwapCount++
		if s == nil {
			return
		}
		in, out := new(big.Int).SetUint64(s.AmountIn), new(big.Int).SetUint64(s.AmountOut)
		fee := new(big.Int).SetUint64(s.Fee)
		if s.IsX {
			a.VolumeX.Add(a.VolumeX, in)
			a.VolumeY.Add(a.VolumeY, out)
			a.FeeX.Add(a.FeeX, fee)
		} else {
			a.VolumeY.Add(a.VolumeY, in)
			a.VolumeX.Add(a.VolumeX, out)
			a.FeeY.Add(a.FeeY, fee)
		}
	}
}
