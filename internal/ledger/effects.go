package ledger

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"
)

// Effect is a single ledger mutation applied as part of an atomic batch.
type Effect interface {
	apply(v *view) error
}

// view stages writes on top of the committed ledger. The ledger lock is held
// by Apply for the lifetime of a view.
type view struct {
	base     *Ledger
	mints    map[solana.PublicKey]Mint
	accounts map[solana.PublicKey]Account
}

func newView(base *Ledger) *view {
	return &view{
		base:     base,
		mints:    make(map[solana.PublicKey]Mint),
		accounts: make(map[solana.PublicKey]Account),
	}
}

func (v *view) mint(addr solana.PublicKey) (Mint, bool) {
	if m, ok := v.mints[addr]; ok {
		return m, true
	}
	m, ok := v.base.mints[addr]
	return m, ok
}

func (v *view) account(addr solana.PublicKey) (Account, bool) {
	if a, ok := v.accounts[addr]; ok {
		return a, true
	}
	a, ok := v.base.accounts[addr]
	return a, ok
}

func (v *view) exists(addr solana.PublicKey) bool {
	if _, ok := v.mint(addr); ok {
		return true
	}
	_, ok := v.account(addr)
	return ok
}

// CreateMint registers a new mint with zero supply.
type CreateMint struct {
	Address   solana.PublicKey
	Authority solana.PublicKey
	Decimals  uint8
}

func (e CreateMint) apply(v *view) error {
	if v.exists(e.Address) {
		return ErrAlreadyExists.Wrapf("mint %s", e.Address)
	}
	v.mints[e.Address] = Mint{
		Address:   e.Address,
		Authority: e.Authority,
		Decimals:  e.Decimals,
	}
	return nil
}

// CreateAccount opens the associated token account of (Owner, Mint).
type CreateAccount struct {
	Owner solana.PublicKey
	Mint  solana.PublicKey
}

func (e CreateAccount) apply(v *view) error {
	if _, ok := v.mint(e.Mint); !ok {
		return ErrMintNotFound.Wrap(e.Mint.String())
	}
	addr, err := AccountAddress(e.Owner, e.Mint)
	if err != nil {
		return err
	}
	if v.exists(addr) {
		return ErrAlreadyExists.Wrapf("token account %s", addr)
	}
	v.accounts[addr] = Account{Address: addr, Owner: e.Owner, Mint: e.Mint}
	return nil
}

// Transfer moves Amount between two accounts of the same mint. Authority
// must own the source account.
type Transfer struct {
	From      solana.PublicKey
	To        solana.PublicKey
	Authority solana.PublicKey
	Amount    uint64
}

func (e Transfer) apply(v *view) error {
	from, ok := v.account(e.From)
	if !ok {
		return ErrAccountNotFound.Wrap(e.From.String())
	}
	to, ok := v.account(e.To)
	if !ok {
		return ErrAccountNotFound.Wrap(e.To.String())
	}
	if !from.Owner.Equals(e.Authority) {
		return ErrOwnerMismatch.Wrapf("transfer from %s signed by %s", e.From, e.Authority)
	}
	if !from.Mint.Equals(to.Mint) {
		return ErrMintMismatch.Wrapf("%s -> %s", e.From, e.To)
	}
	if e.From.Equals(e.To) {
		return nil
	}

	left, underflow := math.SafeSub(from.Amount, e.Amount)
	if underflow {
		return ErrInsufficientFunds.Wrapf("account %s holds %d, need %d", e.From, from.Amount, e.Amount)
	}
	right, overflow := math.SafeAdd(to.Amount, e.Amount)
	if overflow {
		return ErrOverflow.Wrapf("account %s", e.To)
	}
	from.Amount = left
	to.Amount = right
	v.accounts[e.From] = from
	v.accounts[e.To] = to
	return nil
}

// MintTo creates Amount new units into To. Authority must be the mint authority.
type MintTo struct {
	Mint      solana.PublicKey
	To        solana.PublicKey
	Authority solana.PublicKey
	Amount    uint64
}

func (e MintTo) apply(v *view) error {
	mint, ok := v.mint(e.Mint)
	if !ok {
		return ErrMintNotFound.Wrap(e.Mint.String())
	}
	to, ok := v.account(e.To)
	if !ok {
		return ErrAccountNotFound.Wrap(e.To.String())
	}
	if !mint.Authority.Equals(e.Authority) {
		return ErrOwnerMismatch.Wrapf("mint authority of %s is not %s", e.Mint, e.Authority)
	}
	if !to.Mint.Equals(e.Mint) {
		return ErrMintMismatch.Wrapf("account %s", e.To)
	}

	supply, overflow := math.SafeAdd(mint.Supply, e.Amount)
	if overflow {
		return ErrOverflow.Wrapf("supply of %s", e.Mint)
	}
	balance, overflow := math.SafeAdd(to.Amount, e.Amount)
	if overflow {
		return ErrOverflow.Wrapf("account %s", e.To)
	}
	mint.Supply = supply
	to.Amount = balance
	v.mints[e.Mint] = mint
	v.accounts[e.To] = to
	return nil
}

// Burn destroys Amount units held by From. Authority must own From.
type Burn struct {
	Mint      solana.PublicKey
	From      solana.PublicKey
	Authority solana.PublicKey
	Amount    uint64
}

func (e Burn) apply(v *view) error {
	mint, ok := v.mint(e.Mint)
	if !ok {
		return ErrMintNotFound.Wrap(e.Mint.String())
	}
	from, ok := v.account(e.From)
	if !ok {
		return ErrAccountNotFound.Wrap(e.From.String())
	}
	if !from.Owner.Equals(e.Authority) {
		return ErrOwnerMismatch.Wrapf("burn from %s signed by %s", e.From, e.Authority)
	}
	if !from.Mint.Equals(e.Mint) {
		return ErrMintMismatch.Wrapf("account %s", e.From)
	}

	balance, underflow := math.SafeSub(from.Amount, e.Amount)
	if underflow {
		return ErrInsufficientFunds.Wrapf("account %s holds %d, burn %d", e.From, from.Amount, e.Amount)
	}
	supply, underflow := math.SafeSub(mint.Supply, e.Amount)
	if underflow {
		return ErrInsufficientFunds.Wrapf("supply of %s", e.Mint)
	}
	from.Amount = balance
	mint.Supply = supply
	v.accounts[e.From] = from
	v.mints[e.Mint] = mint
	return nil
}
