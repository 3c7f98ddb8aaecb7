package amm

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"ammCore/internal/ledger"
)

type fixture struct {
	t         *testing.T
	ledger    *ledger.Ledger
	program   *Program
	mintX     solana.PublicKey
	mintY     solana.PublicKey
	issuer    solana.PublicKey
	authority solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		t:         t,
		ledger:    ledger.New(nil),
		mintX:     solana.NewWallet().PublicKey(),
		mintY:     solana.NewWallet().PublicKey(),
		issuer:    solana.NewWallet().PublicKey(),
		authority: solana.NewWallet().PublicKey(),
	}
	f.program = NewProgram(solana.NewWallet().PublicKey(), NewMemoryStore(), f.ledger, nil)
	require.NoError(t, f.ledger.Apply(
		ledger.CreateMint{Address: f.mintX, Authority: f.issuer, Decimals: 6},
		ledger.CreateMint{Address: f.mintY, Authority: f.issuer, Decimals: 6},
	))
	return f
}

// fund opens the user's X and Y accounts and mints into them.
func (f *fixture) fund(user solana.PublicKey, x, y uint64) {
	f.t.Helper()

	userX, err := ledger.AccountAddress(user, f.mintX)
	require.NoError(f.t, err)
	userY, err := ledger.AccountAddress(user, f.mintY)
	require.NoError(f.t, err)

	var effects []ledger.Effect
	if !f.ledger.Exists(userX) {
		effects = append(effects, ledger.CreateAccount{Owner: user, Mint: f.mintX})
	}
	if !f.ledger.Exists(userY) {
		effects = append(effects, ledger.CreateAccount{Owner: user, Mint: f.mintY})
	}
	effects = append(effects,
		ledger.MintTo{Mint: f.mintX, To: userX, Authority: f.issuer, Amount: x},
		ledger.MintTo{Mint: f.mintY, To: userY, Authority: f.issuer, Amount: y},
	)
	require.NoError(f.t, f.ledger.Apply(effects...))
}

func (f *fixture) initAccounts(seed uint64) InitializeAccounts {
	f.t.Helper()

	addrs, err := DerivePool(f.program.ID(), seed, f.mintX, f.mintY)
	require.NoError(f.t, err)
	return InitializeAccounts{
		Initializer: f.authority,
		MintX:       f.mintX,
		MintY:       f.mintY,
		LPMint:      addrs.LPMint,
		VaultX:      addrs.VaultX,
		VaultY:      addrs.VaultY,
		Config:      addrs.Config,
	}
}

func (f *fixture) initialize(seed uint64, feeBps uint16) Config {
	f.t.Helper()

	authority := f.authority
	cfg, err := f.program.Initialize(f.initAccounts(seed), InitializeArgs{Seed: seed, FeeBps: feeBps, Authority: &authority})
	require.NoError(f.t, err)
	return cfg
}

func (f *fixture) liquidityAccounts(user solana.PublicKey, cfg Config) LiquidityAccounts {
	f.t.Helper()

	accts, err := LiquidityAccountsFor(f.program.ID(), user, cfg)
	require.NoError(f.t, err)
	return accts
}

func (f *fixture) swapAccounts(user solana.PublicKey, cfg Config) SwapAccounts {
	f.t.Helper()

	accts, err := SwapAccountsFor(f.program.ID(), user, cfg)
	require.NoError(f.t, err)
	return accts
}

func (f *fixture) pool(cfg Config) PoolState {
	f.t.Helper()

	addr, _, err := DeriveConfig(f.program.ID(), cfg.Seed)
	require.NoError(f.t, err)
	state, err := f.program.Pool(addr)
	require.NoError(f.t, err)
	return state
}

func (f *fixture) balance(addr solana.PublicKey) uint64 {
	f.t.Helper()

	amount, err := f.ledger.Balance(addr)
	require.NoError(f.t, err)
	return amount
}
