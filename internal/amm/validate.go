package amm

import (
	"github.com/gagliardetto/solana-go"
)

func expectAccount(role string, got, want solana.PublicKey) error {
	if !got.Equals(want) {
		return ErrAccountMismatch.Wrapf("%s: got %s, want %s", role, got, want)
	}
	return nil
}

// checkOwned verifies that addr is a token account of mint held by owner.
func (p *Program) checkOwned(role string, addr, owner, mint solana.PublicKey) error {
	acc, err := p.bank.Account(addr)
	if err != nil {
		return ErrAccountMismatch.Wrapf("%s: %v", role, err)
	}
	if !acc.Owner.Equals(owner) {
		return ErrAccountMismatch.Wrapf("%s: owned by %s, not %s", role, acc.Owner, owner)
	}
	if !acc.Mint.Equals(mint) {
		return ErrAccountMismatch.Wrapf("%s: holds %s, not %s", role, acc.Mint, mint)
	}
	return nil
}

// checkLiquidityAccounts validates a deposit/withdraw account set and returns
// the pool it refers to. The user's LP account may be absent when allowNewLP
// is set, provided its address is the derived one.
func (p *Program) checkLiquidityAccounts(accts LiquidityAccounts, allowNewLP bool) (PoolState, error) {
	pool, err := p.loadPool(accts.Config)
	if err != nil {
		return PoolState{}, err
	}
	cfg := pool.Config

	checks := []struct {
		role      string
		got, want solana.PublicKey
	}{
		{"mint_x", accts.MintX, cfg.MintX},
		{"mint_y", accts.MintY, cfg.MintY},
		{"lp_mint", accts.LPMint, pool.LPMint},
		{"vault_x", accts.VaultX, pool.VaultX},
		{"vault_y", accts.VaultY, pool.VaultY},
	}
	for _, c := range checks {
		if err := expectAccount(c.role, c.got, c.want); err != nil {
			return PoolState{}, err
		}
	}

	if err := p.checkOwned("user_x", accts.UserX, accts.User, cfg.MintX); err != nil {
		return PoolState{}, err
	}
	if err := p.checkOwned("user_y", accts.UserY, accts.User, cfg.MintY); err != nil {
		return PoolState{}, err
	}
	if allowNewLP && !p.bank.Exists(accts.UserLP) {
		want, err := DeriveVault(accts.User, pool.LPMint)
		if err != nil {
			return PoolState{}, err
		}
		if err := expectAccount("user_lp", accts.UserLP, want); err != nil {
			return PoolState{}, err
		}
	} else if err := p.checkOwned("user_lp", accts.UserLP, accts.User, pool.LPMint); err != nil {
		return PoolState{}, err
	}

	if cfg.Locked {
		return PoolState{}, ErrLocked.Wrap(accts.Config.String())
	}
	return pool, nil
}

// checkSwapAccounts validates a swap account set and returns its pool.
func (p *Program) checkSwapAccounts(accts SwapAccounts) (PoolState, error) {
	pool, err := p.loadPool(accts.Config)
	if err != nil {
		return PoolState{}, err
	}
	if err := expectAccount("vault_x", accts.VaultX, pool.VaultX); err != nil {
		return PoolState{}, err
	}
	if err := expectAccount("vault_y", accts.VaultY, pool.VaultY); err != nil {
		return PoolState{}, err
	}
	if err := p.checkOwned("user_x", accts.UserX, accts.User, pool.Config.MintX); err != nil {
		return PoolState{}, err
	}
	if err := p.checkOwned("user_y", accts.UserY, accts.User, pool.Config.MintY); err != nil {
		return PoolState{}, err
	}
	if pool.Config.Locked {
		return PoolState{}, ErrLocked.Wrap(accts.Config.String())
	}
	return pool, nil
}
