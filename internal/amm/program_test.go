package amm

import (
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"ammCore/internal/ledger"
)

const unit = 1_000_000

func TestEndToEnd(t *testing.T) {
	f := newFixture(t)
	cfg := f.initialize(7, 30)
	require.False(t, cfg.Locked)

	lp := solana.NewWallet().PublicKey()
	f.fund(lp, 2000*unit, 2000*unit)
	accts := f.liquidityAccounts(lp, cfg)

	dep, err := f.program.Deposit(accts, DepositArgs{Amount: 1_000_000 * unit, MaxX: 1000 * unit, MaxY: 1000 * unit})
	require.NoError(t, err)
	require.Equal(t, DepositResult{AmountX: 1000 * unit, AmountY: 1000 * unit, LPMinted: 1_000_000 * unit}, dep)

	pool := f.pool(cfg)
	require.Equal(t, uint64(1000*unit), pool.ReserveX)
	require.Equal(t, uint64(1000*unit), pool.ReserveY)
	require.Equal(t, uint64(1_000_000*unit), pool.LPSupply)
	require.Equal(t, uint64(1_000_000*unit), f.balance(accts.UserLP))

	swap, err := f.program.Swap(f.swapAccounts(lp, cfg), SwapArgs{IsX: true, Amount: 100 * unit, Min: 90 * unit})
	require.NoError(t, err)
	require.Equal(t, uint64(90_661_089), swap.AmountOut)

	after := f.pool(cfg)
	require.Equal(t, pool.ReserveX+100*unit, after.ReserveX)
	require.Less(t, after.ReserveY, pool.ReserveY)
	require.Greater(t, after.ReserveY, pool.ReserveY-100*unit)
	require.Equal(t, pool.LPSupply, after.LPSupply)

	// Burning 1% of supply pays 11 X and ~9.09 Y, below minimums of 100 each.
	_, err = f.program.Withdraw(accts, WithdrawArgs{Amount: 100 * 100 * unit, MinX: 100 * unit, MinY: 100 * unit})
	require.ErrorIs(t, err, ErrSlippageExceeded)
	require.Equal(t, after, f.pool(cfg))

	userX, userY := f.balance(accts.UserX), f.balance(accts.UserY)
	res, err := f.program.Withdraw(accts, WithdrawArgs{Amount: 100 * 100 * unit, MinX: 11 * unit, MinY: 9_093_389})
	require.NoError(t, err)
	require.Equal(t, WithdrawResult{AmountX: 11 * unit, AmountY: 9_093_389, LPBurned: 100 * 100 * unit}, res)
	require.Equal(t, userX+res.AmountX, f.balance(accts.UserX))
	require.Equal(t, userY+res.AmountY, f.balance(accts.UserY))
	require.Equal(t, after.LPSupply-100*100*unit, f.pool(cfg).LPSupply)
}

func TestSwapSlippageLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	cfg := f.initialize(1, 30)
	user := solana.NewWallet().PublicKey()
	f.fund(user, 20_000*unit, 20_000*unit)

	_, err := f.program.Deposit(f.liquidityAccounts(user, cfg), DepositArgs{Amount: 1000 * unit, MaxX: 1000 * unit, MaxY: 1000 * unit})
	require.NoError(t, err)
	before := f.pool(cfg)
	accts := f.swapAccounts(user, cfg)
	userX := f.balance(accts.UserX)

	_, err = f.program.Swap(accts, SwapArgs{IsX: true, Amount: 10_000 * unit, Min: 1_000_000 * unit})
	require.ErrorIs(t, err, ErrSlippageExceeded)
	require.Equal(t, before, f.pool(cfg))
	require.Equal(t, userX, f.balance(accts.UserX))
}

func TestSwapBothDirectionsKeepsSupply(t *testing.T) {
	f := newFixture(t)
	cfg := f.initialize(2, 25)
	user := solana.NewWallet().PublicKey()
	f.fund(user, 5000*unit, 5000*unit)

	_, err := f.program.Deposit(f.liquidityAccounts(user, cfg), DepositArgs{Amount: 500 * unit, MaxX: 1000 * unit, MaxY: 4000 * unit})
	require.NoError(t, err)
	accts := f.swapAccounts(user, cfg)

	for i, isX := range []bool{true, false, false, true} {
		before := f.pool(cfg)
		_, err := f.program.Swap(accts, SwapArgs{IsX: isX, Amount: uint64(i+1) * 37 * unit})
		require.NoError(t, err)
		after := f.pool(cfg)

		require.Equal(t, before.LPSupply, after.LPSupply)
		require.GreaterOrEqual(t, product(after).Cmp(product(before)), 0, "swap %d lowered the product", i)
	}
}

func product(pool PoolState) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(pool.ReserveX), new(big.Int).SetUint64(pool.ReserveY))
}

func TestSecondDepositIsProportional(t *testing.T) {
	f := newFixture(t)
	cfg := f.initialize(3, 30)
	first := solana.NewWallet().PublicKey()
	second := solana.NewWallet().PublicKey()
	f.fund(first, 1000*unit, 1000*unit)
	f.fund(second, 1000*unit, 1000*unit)

	_, err := f.program.Deposit(f.liquidityAccounts(first, cfg), DepositArgs{Amount: 300, MaxX: 100 * unit, MaxY: 200 * unit})
	require.NoError(t, err)

	res, err := f.program.Deposit(f.liquidityAccounts(second, cfg), DepositArgs{Amount: 100, MaxX: 1000 * unit, MaxY: 1000 * unit})
	require.NoError(t, err)
	require.Equal(t, uint64(33_333_334), res.AmountX)
	require.Equal(t, uint64(66_666_667), res.AmountY)

	_, err = f.program.Deposit(f.liquidityAccounts(second, cfg), DepositArgs{Amount: 100, MaxX: 33_333_333, MaxY: 1000 * unit})
	require.ErrorIs(t, err, ErrSlippageExceeded)
}

func TestDepositErrors(t *testing.T) {
	f := newFixture(t)
	cfg := f.initialize(4, 30)
	user := solana.NewWallet().PublicKey()
	f.fund(user, 10*unit, 10*unit)
	accts := f.liquidityAccounts(user, cfg)

	_, err := f.program.Deposit(accts, DepositArgs{Amount: 10, MaxX: 0, MaxY: unit})
	require.ErrorIs(t, err, ErrZeroLiquidity)

	_, err = f.program.Deposit(accts, DepositArgs{Amount: 0, MaxX: unit, MaxY: unit})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.program.Deposit(accts, DepositArgs{Amount: 10, MaxX: 20 * unit, MaxY: unit})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	require.False(t, f.ledger.Exists(accts.UserLP))
	require.Zero(t, f.pool(cfg).LPSupply)
}

func TestWithdrawBeyondBalance(t *testing.T) {
	f := newFixture(t)
	cfg := f.initialize(5, 30)
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()
	f.fund(alice, 100*unit, 100*unit)
	f.fund(bob, 100*unit, 100*unit)

	_, err := f.program.Deposit(f.liquidityAccounts(alice, cfg), DepositArgs{Amount: 1000, MaxX: 10 * unit, MaxY: 10 * unit})
	require.NoError(t, err)
	bobAccts := f.liquidityAccounts(bob, cfg)
	_, err = f.program.Deposit(bobAccts, DepositArgs{Amount: 10, MaxX: 10 * unit, MaxY: 10 * unit})
	require.NoError(t, err)

	_, err = f.program.Withdraw(bobAccts, WithdrawArgs{Amount: 11})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	_, err = f.program.Withdraw(bobAccts, WithdrawArgs{Amount: 0})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSwapEmptyPool(t *testing.T) {
	f := newFixture(t)
	cfg := f.initialize(6, 30)
	user := solana.NewWallet().PublicKey()
	f.fund(user, unit, unit)

	_, err := f.program.Swap(f.swapAccounts(user, cfg), SwapArgs{IsX: true, Amount: unit})
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestInitializeErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.program.Initialize(f.initAccounts(1), InitializeArgs{Seed: 1, FeeBps: MaxFeeBps})
	require.ErrorIs(t, err, ErrInvalidFee)

	_, err = f.program.Initialize(f.initAccounts(1), InitializeArgs{Seed: 2, FeeBps: 30})
	require.ErrorIs(t, err, ErrAccountMismatch)

	same := f.initAccounts(1)
	same.MintY = same.MintX
	_, err = f.program.Initialize(same, InitializeArgs{Seed: 1, FeeBps: 30})
	require.ErrorIs(t, err, ErrAccountMismatch)

	unknown := f.initAccounts(1)
	unknown.MintX = solana.NewWallet().PublicKey()
	_, err = f.program.Initialize(unknown, InitializeArgs{Seed: 1, FeeBps: 30})
	require.ErrorIs(t, err, ErrAccountMismatch)

	f.initialize(1, 9_999)
	_, err = f.program.Initialize(f.initAccounts(1), InitializeArgs{Seed: 1, FeeBps: 30})
	require.ErrorIs(t, err, ErrPoolExists)

	pools, err := f.program.Pools()
	require.NoError(t, err)
	require.Len(t, pools, 1)
	require.Equal(t, uint16(9_999), pools[0].Config.FeeBps)
}

func TestLockGatesOperations(t *testing.T) {
	f := newFixture(t)
	cfg := f.initialize(8, 30)
	user := solana.NewWallet().PublicKey()
	f.fund(user, 100*unit, 100*unit)
	liq := f.liquidityAccounts(user, cfg)
	_, err := f.program.Deposit(liq, DepositArgs{Amount: 50, MaxX: 10 * unit, MaxY: 10 * unit})
	require.NoError(t, err)

	stranger := AuthorityAccounts{Authority: user, Config: liq.Config}
	require.ErrorIs(t, f.program.SetLocked(stranger, true), ErrUnauthorized)

	owner := AuthorityAccounts{Authority: f.authority, Config: liq.Config}
	require.NoError(t, f.program.SetLocked(owner, true))
	require.True(t, f.pool(cfg).Config.Locked)

	_, err = f.program.Deposit(liq, DepositArgs{Amount: 5, MaxX: 10 * unit, MaxY: 10 * unit})
	require.ErrorIs(t, err, ErrLocked)
	_, err = f.program.Withdraw(liq, WithdrawArgs{Amount: 5})
	require.ErrorIs(t, err, ErrLocked)
	_, err = f.program.Swap(f.swapAccounts(user, cfg), SwapArgs{IsX: true, Amount: unit})
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, f.program.SetLocked(owner, false))
	_, err = f.program.Swap(f.swapAccounts(user, cfg), SwapArgs{IsX: true, Amount: unit})
	require.NoError(t, err)
}

func TestLockWithoutAuthority(t *testing.T) {
	f := newFixture(t)
	accts := f.initAccounts(9)
	_, err := f.program.Initialize(accts, InitializeArgs{Seed: 9, FeeBps: 30})
	require.NoError(t, err)

	err = f.program.SetLocked(AuthorityAccounts{Authority: f.authority, Config: accts.Config}, true)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAccountMismatch(t *testing.T) {
	f := newFixture(t)
	cfg := f.initialize(10, 30)
	alice := solana.NewWallet().PublicKey()
	mallory := solana.NewWallet().PublicKey()
	f.fund(alice, 100*unit, 100*unit)
	f.fund(mallory, 100*unit, 100*unit)
	_, err := f.program.Deposit(f.liquidityAccounts(alice, cfg), DepositArgs{Amount: 50, MaxX: 10 * unit, MaxY: 10 * unit})
	require.NoError(t, err)

	other := f.initialize(11, 30)
	otherPool := f.pool(other)

	liq := f.liquidityAccounts(mallory, cfg)
	liq.VaultX = otherPool.VaultX
	_, err = f.program.Deposit(liq, DepositArgs{Amount: 5, MaxX: 10 * unit, MaxY: 10 * unit})
	require.ErrorIs(t, err, ErrAccountMismatch)

	stolen := f.swapAccounts(mallory, cfg)
	stolen.UserX = f.swapAccounts(alice, cfg).UserX
	_, err = f.program.Swap(stolen, SwapArgs{IsX: true, Amount: unit})
	require.ErrorIs(t, err, ErrAccountMismatch)

	swapped := f.swapAccounts(mallory, cfg)
	swapped.UserX, swapped.UserY = swapped.UserY, swapped.UserX
	_, err = f.program.Swap(swapped, SwapArgs{IsX: true, Amount: unit})
	require.ErrorIs(t, err, ErrAccountMismatch)

	_, err = f.program.Pool(solana.NewWallet().PublicKey())
	require.ErrorIs(t, err, ErrPoolNotFound)
}

func TestQuotesDoNotMoveFunds(t *testing.T) {
	f := newFixture(t)
	cfg := f.initialize(12, 30)
	user := solana.NewWallet().PublicKey()
	f.fund(user, 2000*unit, 2000*unit)
	_, err := f.program.Deposit(f.liquidityAccounts(user, cfg), DepositArgs{Amount: 1_000_000 * unit, MaxX: 1000 * unit, MaxY: 1000 * unit})
	require.NoError(t, err)
	before := f.pool(cfg)

	q, err := f.program.QuoteSwap(before.Address, SwapArgs{IsX: true, Amount: 100 * unit})
	require.NoError(t, err)
	require.Equal(t, uint64(90_661_089), q.AmountOut)

	d, err := f.program.QuoteDeposit(before.Address, DepositArgs{Amount: 1_000 * unit, MaxX: 1000 * unit, MaxY: 1000 * unit})
	require.NoError(t, err)
	require.Equal(t, uint64(unit), d.AmountX)

	w, err := f.program.QuoteWithdraw(before.Address, WithdrawArgs{Amount: 1_000 * unit})
	require.NoError(t, err)
	require.Equal(t, uint64(unit), w.AmountY)

	require.Equal(t, before, f.pool(cfg))
}
