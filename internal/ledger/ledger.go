package ledger

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Mint is a fungible asset definition with its outstanding supply.
type Mint struct {
	Address   solana.PublicKey `json:"address"`
	Authority solana.PublicKey `json:"authority"`
	Decimals  uint8            `json:"decimals"`
	Supply    uint64           `json:"supply"`
}

// Account holds a balance of one mint for one owner.
type Account struct {
	Address solana.PublicKey `json:"address"`
	Owner   solana.PublicKey `json:"owner"`
	Mint    solana.PublicKey `json:"mint"`
	Amount  uint64           `json:"amount"`
}

// State is a point-in-time copy of every mint and account in the ledger.
type State struct {
	Mints    []Mint    `json:"mints"`
	Accounts []Account `json:"accounts"`
}

// Ledger is an in-process token ledger. All mutation goes through Apply,
// which commits a batch of effects atomically.
type Ledger struct {
	mu       sync.RWMutex
	mints    map[solana.PublicKey]Mint
	accounts map[solana.PublicKey]Account
	logger   *zap.Logger
}

func New(logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		mints:    make(map[solana.PublicKey]Mint),
		accounts: make(map[solana.PublicKey]Account),
		logger:   logger,
	}
}

// AccountAddress returns the associated token account address for (owner, mint).
func AccountAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive token account: %w", err)
	}
	return addr, nil
}

// Mint returns the mint at address.
func (l *Ledger) Mint(address solana.PublicKey) (Mint, error) {
	l.mu.RLock()
	mint, ok := l.mints[address]
	l.mu.RUnlock()
	if !ok {
		return Mint{}, ErrMintNotFound.Wrap(address.String())
	}
	return mint, nil
}

// Account returns the token account at address.
func (l *Ledger) Account(address solana.PublicKey) (Account, error) {
	l.mu.RLock()
	acc, ok := l.accounts[address]
	l.mu.RUnlock()
	if !ok {
		return Account{}, ErrAccountNotFound.Wrap(address.String())
	}
	return acc, nil
}

// Supply returns the total supply of a mint.
func (l *Ledger) Supply(mint solana.PublicKey) (uint64, error) {
	m, err := l.Mint(mint)
	if err != nil {
		return 0, err
	}
	return m.Supply, nil
}

// Balance returns the amount held by a token account.
func (l *Ledger) Balance(address solana.PublicKey) (uint64, error) {
	acc, err := l.Account(address)
	if err != nil {
		return 0, err
	}
	return acc.Amount, nil
}

// Exists reports whether address is a known mint or token account.
func (l *Ledger) Exists(address solana.PublicKey) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if _, ok := l.mints[address]; ok {
		return true
	}
	_, ok := l.accounts[address]
	return ok
}

// Apply validates every effect against a staged view and commits them
// together. On error nothing is written.
func (l *Ledger) Apply(effects ...Effect) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := newView(l)
	for i, effect := range effects {
		if err := effect.apply(v); err != nil {
			l.logger.Debug("ledger batch rejected", zap.Int("index", i), zap.Error(err))
			return err
		}
	}

	for addr, mint := range v.mints {
		l.mints[addr] = mint
	}
	for addr, acc := range v.accounts {
		l.accounts[addr] = acc
	}
	l.logger.Debug("ledger batch committed",
		zap.Int("effects", len(effects)),
		zap.Int("mints", len(v.mints)),
		zap.Int("accounts", len(v.accounts)),
	)
	return nil
}

// Snapshot copies the ledger contents in address order.
func (l *Ledger) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()

	state := State{
		Mints:    make([]Mint, 0, len(l.mints)),
		Accounts: make([]Account, 0, len(l.accounts)),
	}
	for _, m := range l.mints {
		state.Mints = append(state.Mints, m)
	}
	for _, a := range l.accounts {
		state.Accounts = append(state.Accounts, a)
	}
	sort.Slice(state.Mints, func(i, j int) bool {
		return bytes.Compare(state.Mints[i].Address[:], state.Mints[j].Address[:]) < 0
	})
	sort.Slice(state.Accounts, func(i, j int) bool {
		return bytes.Compare(state.Accounts[i].Address[:], state.Accounts[j].Address[:]) < 0
	})
	return state
}

// Restore replaces the ledger contents with state.
func (l *Ledger) Restore(state State) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.mints = make(map[solana.PublicKey]Mint, len(state.Mints))
	for _, m := range state.Mints {
		l.mints[m.Address] = m
	}
	l.accounts = make(map[solana.PublicKey]Account, len(state.Accounts))
	for _, a := range state.Accounts {
		l.accounts[a.Address] = a
	}
}
