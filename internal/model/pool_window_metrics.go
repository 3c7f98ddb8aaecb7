package model

import "time"

// PoolWindowMetrics stores aggregated metrics for a pool window.
type PoolWindowMetrics struct {
	PoolAddress    string
	WindowSizeSecs int64
	WindowStart    time.Time
	WindowEnd      time.Time
	SwapCount      uint64
	DepositCount   uint64
	WithdrawCount  uint64
	FailedCount    uint64
	VolumeX        string
	VolumeY        string
	FeeX           string
	FeeY           string
	FeeRateX       *string
	FeeRateY       *string
	ReserveX       *string
	ReserveY       *string
	LPSupply       uint64
	APR            *string
	FeeMethod      string
	TVLMethod      string
}
