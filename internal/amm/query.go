package amm

import (
	"github.com/gagliardetto/solana-go"
)

// QuoteDeposit prices a deposit against the current pool without moving funds.
func (p *Program) QuoteDeposit(configAddr solana.PublicKey, args DepositArgs) (DepositResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool, err := p.loadPool(configAddr)
	if err != nil {
		return DepositResult{}, err
	}
	return quoteDeposit(pool, args)
}

// QuoteWithdraw prices a withdraw against the current pool without moving funds.
func (p *Program) QuoteWithdraw(configAddr solana.PublicKey, args WithdrawArgs) (WithdrawResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool, err := p.loadPool(configAddr)
	if err != nil {
		return WithdrawResult{}, err
	}
	return quoteWithdraw(pool, args)
}

// QuoteSwap prices a swap against the current pool without moving funds.
func (p *Program) QuoteSwap(configAddr solana.PublicKey, args SwapArgs) (SwapResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool, err := p.loadPool(configAddr)
	if err != nil {
		return SwapResult{}, err
	}
	return quoteSwap(pool, args)
}
