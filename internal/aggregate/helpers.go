package aggregate

import (
	"math/big"
	"time"
)

const ratioScale = 18

func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(abs, denom)
	text := rat.FloatString(int(decimals))
	if sign < 0 {
		return "-" + text
	}
	return text
}

func formatReserve(value *big.Int, decimals uint8) *string {
	if value == nil {
		return nil
	}
	text := formatTokenAmount(value, decimals)
	return &text
}

// computeFeeRates returns the fees of each side as a fraction of that side's
// reserve at window close.
func computeFeeRates(feeX, feeY, reserveX, reserveY *big.Int) (*string, *string) {
	var rateX, rateY *string
	if rate := computeRateFromInt(feeX, reserveX); rate != "" {
		rateX = &rate
	}
	if rate := computeRateFromInt(feeY, reserveY); rate != "" {
		rateY = &rate
	}
	return rateX, rateY
}

func computeRateFromInt(fee, reserve *big.Int) string {
	if fee == nil || fee.Sign() == 0 || reserve == nil || reserve.Sign() == 0 {
		return ""
	}
	return new(big.Rat).SetFrac(fee, reserve).FloatString(ratioScale)
}

// computeAPR annualizes the window's fee yield on pool value. A
// constant-product pool holds equal value on both sides at its marginal
// price, so the yield is the mean of the two per-side rates.
func computeAPR(rateX, rateY *string, windowSeconds uint64) *string {
	if windowSeconds == 0 || (rateX == nil && rateY == nil) {
		return nil
	}

	yield := new(big.Rat)
	for _, rate := range []*string{rateX, rateY} {
		if rate == nil {
			continue
		}
		r, ok := new(big.Rat).SetString(*rate)
		if !ok {
			return nil
		}
		yield.Add(yield, r)
	}
	yield.Quo(yield, big.NewRat(2, 1))

	yearSeconds := big.NewRat(int64(365*24*time.Hour/time.Second), 1)
	apr := new(big.Rat).Mul(yield, yearSeconds)
	apr.Quo(apr, big.NewRat(int64(windowSeconds), 1))
	val := apr.FloatString(ratioScale)
	return &val
}

func windowStart(ts, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}
