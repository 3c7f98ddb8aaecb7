package amm

import (
	"github.com/holiman/uint256"
)

// Rounding selects the direction of an integer division.
type Rounding int

const (
	RoundDown Rounding = iota
	RoundUp
)

// SwapQuote is the outcome of pricing a swap against the curve.
type SwapQuote struct {
	AmountIn         uint64 `json:"amount_in"`
	AmountInAfterFee uint64 `json:"amount_in_after_fee"`
	Fee              uint64 `json:"fee"`
	AmountOut        uint64 `json:"amount_out"`
}

// MulDiv computes x*y/d with 256-bit intermediates.
func MulDiv(x, y, d uint64, rounding Rounding) (uint64, error) {
	if d == 0 {
		return 0, ErrZeroLiquidity.Wrap("division by zero")
	}
	product := new(uint256.Int).Mul(uint256.NewInt(x), uint256.NewInt(y))
	return divide(product, uint256.NewInt(d), rounding)
}

func divide(num, den *uint256.Int, rounding Rounding) (uint64, error) {
	quo := new(uint256.Int).Div(num, den)
	if rounding == RoundUp && !new(uint256.Int).Mod(num, den).IsZero() {
		quo.AddUint64(quo, 1)
	}
	if !quo.IsUint64() {
		return 0, ErrOverflow.Wrapf("%s does not fit in u64", quo.ToBig().String())
	}
	return quo.Uint64(), nil
}

// DepositAmounts returns the assets required to mint lp against a pool that
// already has supply. Amounts round up so existing holders are not diluted.
func DepositAmounts(lp, reserveX, reserveY, supply uint64) (uint64, uint64, error) {
	if supply == 0 {
		return 0, 0, ErrZeroLiquidity.Wrap("lp supply is zero")
	}
	x, err := MulDiv(lp, reserveX, supply, RoundUp)
	if err != nil {
		return 0, 0, err
	}
	y, err := MulDiv(lp, reserveY, supply, RoundUp)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// WithdrawAmounts returns the assets paid out for burning lp. Amounts round
// down so the pool never pays more than the exact share.
func WithdrawAmounts(lp, reserveX, reserveY, supply uint64) (uint64, uint64, error) {
	if supply == 0 {
		return 0, 0, ErrZeroLiquidity.Wrap("lp supply is zero")
	}
	if lp > supply {
		return 0, 0, ErrInvalidAmount.Wrapf("burn %d exceeds supply %d", lp, supply)
	}
	x, err := MulDiv(lp, reserveX, supply, RoundDown)
	if err != nil {
		return 0, 0, err
	}
	y, err := MulDiv(lp, reserveY, supply, RoundDown)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// QuoteExactIn prices amountIn against (reserveIn, reserveOut). Only the
// fee-reduced input moves along the curve and the post-trade output reserve
// rounds up, so reserveIn'*reserveOut' never falls below reserveIn*reserveOut.
func QuoteExactIn(amountIn, reserveIn, reserveOut uint64, feeBps uint16) (SwapQuote, error) {
	if feeBps >= MaxFeeBps {
		return SwapQuote{}, ErrInvalidFee.Wrapf("fee %d bps", feeBps)
	}
	if amountIn == 0 {
		return SwapQuote{}, ErrInvalidAmount.Wrap("amount in is zero")
	}
	if reserveIn == 0 || reserveOut == 0 {
		return SwapQuote{}, ErrInsufficientLiquidity.Wrapf("reserves %d/%d", reserveIn, reserveOut)
	}

	afterFee, err := MulDiv(amountIn, uint64(MaxFeeBps-feeBps), MaxFeeBps, RoundDown)
	if err != nil {
		return SwapQuote{}, err
	}

	k := new(uint256.Int).Mul(uint256.NewInt(reserveIn), uint256.NewInt(reserveOut))
	den := new(uint256.Int).AddUint64(uint256.NewInt(reserveIn), afterFee)
	newReserveOut, err := divide(k, den, RoundUp)
	if err != nil {
		return SwapQuote{}, err
	}

	amountOut := reserveOut - newReserveOut
	if amountOut >= reserveOut {
		return SwapQuote{}, ErrInsufficientLiquidity.Wrapf("output %d drains reserve %d", amountOut, reserveOut)
	}
	if amountOut == 0 {
		return SwapQuote{}, ErrInvalidAmount.Wrapf("output for %d rounds to zero", amountIn)
	}

	return SwapQuote{
		AmountIn:         amountIn,
		AmountInAfterFee: afterFee,
		Fee:              amountIn - afterFee,
		AmountOut:        amountOut,
	}, nil
}
