package aggregate

import (
	"math/big"
	"testing"
)

func bigU64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

func TestFormatTokenAmount(t *testing.T) {
	cases := []struct {
		value    *big.Int
		decimals uint8
		want     string
	}{
		{nil, 6, "0"},
		{big.NewInt(1234567), 0, "1234567"},
		{big.NewInt(1234567), 6, "1.234567"},
		{big.NewInt(-5), 2, "-0.05"},
	}
	for _, tc := range cases {
		if got := formatTokenAmount(tc.value, tc.decimals); got != tc.want {
			t.Fatalf("formatTokenAmount(%v, %d) = %s, want %s", tc.value, tc.decimals, got, tc.want)
		}
	}
}

func TestComputeAPR(t *testing.T) {
	rateX, rateY := computeFeeRates(big.NewInt(1), big.NewInt(0), big.NewInt(1000), big.NewInt(1000))
	if rateX == nil || *rateX != "0.001000000000000000" || rateY != nil {
		t.Fatalf("rates = %v/%v", rateX, rateY)
	}

	// 0.1% on one side of a one-day window is 0.05% of pool value per day.
	apr := computeAPR(rateX, rateY, 86400)
	if apr == nil || *apr != "0.182500000000000000" {
		t.Fatalf("apr = %v", apr)
	}

	both := computeAPR(rateX, rateX, 86400)
	if both == nil || *both != "0.365000000000000000" {
		t.Fatalf("apr = %v", both)
	}

	if computeAPR(nil, nil, 86400) != nil || computeAPR(rateX, nil, 0) != nil {
		t.Fatalf("expected nil apr")
	}
}

func TestWindowStart(t *testing.T) {
	if got := windowStart(1_700_000_123, 60); got != 1_700_000_100 {
		t.Fatalf("windowStart = %d", got)
	}
}
