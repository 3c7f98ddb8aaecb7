// Package amm implements the constant-product AMM program: pool configs,
// liquidity accounting, swaps, and the instruction dispatcher in front of them.
package amm

import (
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammCore/internal/ledger"
)

// LPDecimals is the decimal count of every LP mint.
const LPDecimals = 6

// Bank is the token capability the program moves assets through.
type Bank interface {
	Mint(address solana.PublicKey) (ledger.Mint, error)
	Account(address solana.PublicKey) (ledger.Account, error)
	Exists(address solana.PublicKey) bool
	Apply(effects ...ledger.Effect) error
}

// Program executes AMM instructions against a ConfigStore and a Bank.
//
// Invocations are serialized: the mutex stands in for the runtime's
// exclusive account locks, so each call validates and mutates as one step.
type Program struct {
	mu     sync.Mutex
	id     solana.PublicKey
	store  ConfigStore
	bank   Bank
	logger *zap.Logger
}

func NewProgram(id solana.PublicKey, store ConfigStore, bank Bank, logger *zap.Logger) *Program {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Program{
		id:     id,
		store:  store,
		bank:   bank,
		logger: logger.With(zap.String("program", id.String())),
	}
}

// ID returns the program identity used for address derivation.
func (p *Program) ID() solana.PublicKey {
	return p.id
}

// DepositResult reports the assets collected and LP minted by a deposit.
type DepositResult struct {
	AmountX  uint64 `json:"amount_x"`
	AmountY  uint64 `json:"amount_y"`
	LPMinted uint64 `json:"lp_minted"`
}

// WithdrawResult reports the assets paid out and LP burned by a withdraw.
type WithdrawResult struct {
	AmountX  uint64 `json:"amount_x"`
	AmountY  uint64 `json:"amount_y"`
	LPBurned uint64 `json:"lp_burned"`
}

// SwapResult reports a settled swap.
type SwapResult struct {
	SwapQuote
	IsX bool `json:"is_x"`
}

// PoolState is a Config together with the balances it governs.
type PoolState struct {
	Address  solana.PublicKey `json:"address"`
	Config   Config           `json:"config"`
	LPMint   solana.PublicKey `json:"lp_mint"`
	VaultX   solana.PublicKey `json:"vault_x"`
	VaultY   solana.PublicKey `json:"vault_y"`
	ReserveX uint64           `json:"reserve_x"`
	ReserveY uint64           `json:"reserve_y"`
	LPSupply uint64           `json:"lp_supply"`
}

// loadPool resolves a Config and its current balances.
func (p *Program) loadPool(configAddr solana.PublicKey) (PoolState, error) {
	cfg, ok := p.store.Get(configAddr)
	if !ok {
		return PoolState{}, ErrPoolNotFound.Wrap(configAddr.String())
	}
	addrs, err := poolAddresses(p.id, cfg)
	if err != nil {
		return PoolState{}, ErrAccountMismatch.Wrap(err.Error())
	}
	if !addrs.Config.Equals(configAddr) {
		return PoolState{}, ErrAccountMismatch.Wrapf("config %s is not derived from seed %d", configAddr, cfg.Seed)
	}

	vaultX, err := p.bank.Account(addrs.VaultX)
	if err != nil {
		return PoolState{}, err
	}
	vaultY, err := p.bank.Account(addrs.VaultY)
	if err != nil {
		return PoolState{}, err
	}
	lpMint, err := p.bank.Mint(addrs.LPMint)
	if err != nil {
		return PoolState{}, err
	}

	return PoolState{
		Address:  configAddr,
		Config:   cfg,
		LPMint:   addrs.LPMint,
		VaultX:   addrs.VaultX,
		VaultY:   addrs.VaultY,
		ReserveX: vaultX.Amount,
		ReserveY: vaultY.Amount,
		LPSupply: lpMint.Supply,
	}, nil
}

// Pool returns the current state of the pool at configAddr.
func (p *Program) Pool(configAddr solana.PublicKey) (PoolState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadPool(configAddr)
}

// Pools returns the state of every known pool.
func (p *Program) Pools() ([]PoolState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored := p.store.List()
	out := make([]PoolState, 0, len(stored))
	for _, s := range stored {
		state, err := p.loadPool(s.Address)
		if err != nil {
			return nil, err
		}
		out = append(out, state)
	}
	return out, nil
}
