package amm

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammCore/internal/ledger"
)

// Initialize creates a pool: its Config, LP mint and both vaults.
func (p *Program) Initialize(accts InitializeAccounts, args InitializeArgs) (Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if args.FeeBps >= MaxFeeBps {
		return Config{}, ErrInvalidFee.Wrapf("fee %d bps must be below %d", args.FeeBps, MaxFeeBps)
	}
	if accts.MintX.Equals(accts.MintY) {
		return Config{}, ErrAccountMismatch.Wrapf("mint_x and mint_y are both %s", accts.MintX)
	}
	if _, err := p.bank.Mint(accts.MintX); err != nil {
		return Config{}, ErrAccountMismatch.Wrapf("mint_x: %v", err)
	}
	if _, err := p.bank.Mint(accts.MintY); err != nil {
		return Config{}, ErrAccountMismatch.Wrapf("mint_y: %v", err)
	}

	addrs, err := DerivePool(p.id, args.Seed, accts.MintX, accts.MintY)
	if err != nil {
		return Config{}, err
	}
	if err := expectAccount("config", accts.Config, addrs.Config); err != nil {
		return Config{}, err
	}
	if err := expectAccount("lp_mint", accts.LPMint, addrs.LPMint); err != nil {
		return Config{}, err
	}
	if err := expectAccount("vault_x", accts.VaultX, addrs.VaultX); err != nil {
		return Config{}, err
	}
	if err := expectAccount("vault_y", accts.VaultY, addrs.VaultY); err != nil {
		return Config{}, err
	}

	if _, ok := p.store.Get(addrs.Config); ok {
		return Config{}, ErrPoolExists.Wrapf("seed %d", args.Seed)
	}
	for _, addr := range []solana.PublicKey{addrs.LPMint, addrs.VaultX, addrs.VaultY} {
		if p.bank.Exists(addr) {
			return Config{}, ErrPoolExists.Wrapf("account %s already in use", addr)
		}
	}

	cfg := Config{
		Seed:       args.Seed,
		Authority:  args.Authority,
		MintX:      accts.MintX,
		MintY:      accts.MintY,
		FeeBps:     args.FeeBps,
		ConfigBump: addrs.ConfigBump,
		LPBump:     addrs.LPBump,
	}

	if err := p.bank.Apply(
		ledger.CreateMint{Address: addrs.LPMint, Authority: addrs.Config, Decimals: LPDecimals},
		ledger.CreateAccount{Owner: addrs.Config, Mint: accts.MintX},
		ledger.CreateAccount{Owner: addrs.Config, Mint: accts.MintY},
	); err != nil {
		return Config{}, err
	}
	p.store.Put(addrs.Config, cfg)

	p.logger.Info("pool initialized",
		zap.String("config", addrs.Config.String()),
		zap.Uint64("seed", cfg.Seed),
		zap.Uint16("fee_bps", cfg.FeeBps),
		zap.String("mint_x", cfg.MintX.String()),
		zap.String("mint_y", cfg.MintY.String()),
		zap.Bool("has_authority", cfg.Authority != nil),
	)
	return cfg, nil
}

// SetLocked sets the lock flag. Only the pool authority may do so; a pool
// created without an authority can never be locked.
func (p *Program) SetLocked(accts AuthorityAccounts, locked bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg, ok := p.store.Get(accts.Config)
	if !ok {
		return ErrPoolNotFound.Wrap(accts.Config.String())
	}
	if !cfg.HasAuthority(accts.Authority) {
		return ErrUnauthorized.Wrapf("%s may not change lock of %s", accts.Authority, accts.Config)
	}
	if cfg.Locked == locked {
		return nil
	}

	cfg.Locked = locked
	p.store.Put(accts.Config, cfg)
	p.logger.Info("pool lock changed", zap.String("config", accts.Config.String()), zap.Bool("locked", locked))
	return nil
}
