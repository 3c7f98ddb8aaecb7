package amm

import (
	"go.uber.org/zap"

	"ammCore/internal/ledger"
)

func quoteSwap(pool PoolState, args SwapArgs) (SwapResult, error) {
	reserveIn, reserveOut := pool.ReserveX, pool.ReserveY
	if !args.IsX {
		reserveIn, reserveOut = reserveOut, reserveIn
	}
	q, err := QuoteExactIn(args.Amount, reserveIn, reserveOut, pool.Config.FeeBps)
	if err != nil {
		return SwapResult{}, err
	}
	if q.AmountOut < args.Min {
		return SwapResult{}, ErrSlippageExceeded.Wrapf("swap pays %d, min %d", q.AmountOut, args.Min)
	}
	return SwapResult{SwapQuote: q, IsX: args.IsX}, nil
}

// Swap exchanges the user's input asset for the other one along the curve.
// LP supply is untouched.
func (p *Program) Swap(accts SwapAccounts, args SwapArgs) (SwapResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool, err := p.checkSwapAccounts(accts)
	if err != nil {
		return SwapResult{}, err
	}
	res, err := quoteSwap(pool, args)
	if err != nil {
		return SwapResult{}, err
	}

	userIn, vaultIn, vaultOut, userOut := accts.UserX, pool.VaultX, pool.VaultY, accts.UserY
	if !args.IsX {
		userIn, vaultIn, vaultOut, userOut = accts.UserY, pool.VaultY, pool.VaultX, accts.UserX
	}
	if err := p.bank.Apply(
		ledger.Transfer{From: userIn, To: vaultIn, Authority: accts.User, Amount: res.AmountIn},
		ledger.Transfer{From: vaultOut, To: userOut, Authority: pool.Address, Amount: res.AmountOut},
	); err != nil {
		return SwapResult{}, err
	}

	p.logger.Info("swap",
		zap.String("config", pool.Address.String()),
		zap.String("user", accts.User.String()),
		zap.Bool("is_x", res.IsX),
		zap.Uint64("amount_in", res.AmountIn),
		zap.Uint64("fee", res.Fee),
		zap.Uint64("amount_out", res.AmountOut),
	)
	return res, nil
}
