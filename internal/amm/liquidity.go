package amm

import (
	"go.uber.org/zap"

	"ammCore/internal/ledger"
)

func quoteDeposit(pool PoolState, args DepositArgs) (DepositResult, error) {
	if args.Amount == 0 {
		return DepositResult{}, ErrInvalidAmount.Wrap("lp amount is zero")
	}
	if pool.LPSupply == 0 {
		if args.MaxX == 0 || args.MaxY == 0 {
			return DepositResult{}, ErrZeroLiquidity.Wrapf("first deposit of %d/%d", args.MaxX, args.MaxY)
		}
		return DepositResult{AmountX: args.MaxX, AmountY: args.MaxY, LPMinted: args.Amount}, nil
	}

	x, y, err := DepositAmounts(args.Amount, pool.ReserveX, pool.ReserveY, pool.LPSupply)
	if err != nil {
		return DepositResult{}, err
	}
	if x > args.MaxX || y > args.MaxY {
		return DepositResult{}, ErrSlippageExceeded.Wrapf("deposit needs %d/%d, max %d/%d", x, y, args.MaxX, args.MaxY)
	}
	return DepositResult{AmountX: x, AmountY: y, LPMinted: args.Amount}, nil
}

func quoteWithdraw(pool PoolState, args WithdrawArgs) (WithdrawResult, error) {
	if args.Amount == 0 {
		return WithdrawResult{}, ErrInvalidAmount.Wrap("lp amount is zero")
	}
	x, y, err := WithdrawAmounts(args.Amount, pool.ReserveX, pool.ReserveY, pool.LPSupply)
	if err != nil {
		return WithdrawResult{}, err
	}
	if x < args.MinX || y < args.MinY {
		return WithdrawResult{}, ErrSlippageExceeded.Wrapf("withdraw pays %d/%d, min %d/%d", x, y, args.MinX, args.MinY)
	}
	return WithdrawResult{AmountX: x, AmountY: y, LPBurned: args.Amount}, nil
}

// Deposit collects assets from the user into the vaults and mints LP. The
// user's LP account is created when it does not exist yet.
func (p *Program) Deposit(accts LiquidityAccounts, args DepositArgs) (DepositResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool, err := p.checkLiquidityAccounts(accts, true)
	if err != nil {
		return DepositResult{}, err
	}
	res, err := quoteDeposit(pool, args)
	if err != nil {
		return DepositResult{}, err
	}

	effects := make([]ledger.Effect, 0, 4)
	if !p.bank.Exists(accts.UserLP) {
		effects = append(effects, ledger.CreateAccount{Owner: accts.User, Mint: pool.LPMint})
	}
	effects = append(effects,
		ledger.Transfer{From: accts.UserX, To: pool.VaultX, Authority: accts.User, Amount: res.AmountX},
		ledger.Transfer{From: accts.UserY, To: pool.VaultY, Authority: accts.User, Amount: res.AmountY},
		ledger.MintTo{Mint: pool.LPMint, To: accts.UserLP, Authority: pool.Address, Amount: res.LPMinted},
	)
	if err := p.bank.Apply(effects...); err != nil {
		return DepositResult{}, err
	}

	p.logger.Info("deposit",
		zap.String("config", pool.Address.String()),
		zap.String("user", accts.User.String()),
		zap.Uint64("amount_x", res.AmountX),
		zap.Uint64("amount_y", res.AmountY),
		zap.Uint64("lp_minted", res.LPMinted),
	)
	return res, nil
}

// Withdraw burns the user's LP and pays out the proportional reserves.
func (p *Program) Withdraw(accts LiquidityAccounts, args WithdrawArgs) (WithdrawResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool, err := p.checkLiquidityAccounts(accts, false)
	if err != nil {
		return WithdrawResult{}, err
	}
	holding, err := p.bank.Account(accts.UserLP)
	if err != nil {
		return WithdrawResult{}, err
	}
	if args.Amount > holding.Amount {
		return WithdrawResult{}, ledger.ErrInsufficientFunds.Wrapf("burn %d exceeds lp balance %d", args.Amount, holding.Amount)
	}
	res, err := quoteWithdraw(pool, args)
	if err != nil {
		return WithdrawResult{}, err
	}

	if err := p.bank.Apply(
		ledger.Burn{Mint: pool.LPMint, From: accts.UserLP, Authority: accts.User, Amount: res.LPBurned},
		ledger.Transfer{From: pool.VaultX, To: accts.UserX, Authority: pool.Address, Amount: res.AmountX},
		ledger.Transfer{From: pool.VaultY, To: accts.UserY, Authority: pool.Address, Amount: res.AmountY},
	); err != nil {
		return WithdrawResult{}, err
	}

	p.logger.Info("withdraw",
		zap.String("config", pool.Address.String()),
		zap.String("user", accts.User.String()),
		zap.Uint64("amount_x", res.AmountX),
		zap.Uint64("amount_y", res.AmountY),
		zap.Uint64("lp_burned", res.LPBurned),
	)
	return res, nil
}
