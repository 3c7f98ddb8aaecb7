package main

import (
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"ammCore/internal/amm"
)

func newPoolCmd() *cobra.Command {
	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Create, trade against, and inspect pools",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a pool for a mint pair",
		RunE:  runPoolInit,
	}
	initCmd.Flags().String("signer", "", "initializer (signer)")
	initCmd.Flags().String("mint-x", "", "mint of asset X")
	initCmd.Flags().String("mint-y", "", "mint of asset Y")
	initCmd.Flags().Uint64("seed", 0, "pool seed")
	initCmd.Flags().Uint16("fee-bps", 30, "swap fee in basis points")
	initCmd.Flags().String("authority", "", "optional lock authority")

	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Mint LP by depositing both assets",
		RunE:  runPoolDeposit,
	}
	addLiquidityFlags(depositCmd)
	depositCmd.Flags().Uint64("max-x", 0, "most X to deposit")
	depositCmd.Flags().Uint64("max-y", 0, "most Y to deposit")

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Burn LP for a share of both reserves",
		RunE:  runPoolWithdraw,
	}
	addLiquidityFlags(withdrawCmd)
	withdrawCmd.Flags().Uint64("min-x", 0, "least X to receive")
	withdrawCmd.Flags().Uint64("min-y", 0, "least Y to receive")

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap an exact input amount",
		RunE:  runPoolSwap,
	}
	addPoolFlags(swapCmd)
	addSwapFlags(swapCmd)

	lockCmd := &cobra.Command{
		Use:   "lock",
		Short: "Reject deposits, withdrawals and swaps",
		RunE:  func(cmd *cobra.Command, _ []string) error { return runPoolLock(cmd, true) },
	}
	addPoolFlags(lockCmd)

	unlockCmd := &cobra.Command{
		Use:   "unlock",
		Short: "Accept deposits, withdrawals and swaps again",
		RunE:  func(cmd *cobra.Command, _ []string) error { return runPoolLock(cmd, false) },
	}
	addPoolFlags(unlockCmd)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show one pool, or every pool when --pool is empty",
		RunE:  runPoolShow,
	}
	showCmd.Flags().String("pool", "", "pool config address")

	poolCmd.AddCommand(initCmd, depositCmd, withdrawCmd, swapCmd, lockCmd, unlockCmd, showCmd, newQuoteCmd())
	return poolCmd
}

func newQuoteCmd() *cobra.Command {
	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price an operation without executing it",
	}

	deposit := &cobra.Command{
		Use:  "deposit",
		RunE: runQuoteDeposit,
	}
	deposit.Flags().String("pool", "", "pool config address")
	deposit.Flags().Uint64("lp", 0, "LP amount")
	deposit.Flags().Uint64("max-x", 0, "most X to deposit (required for a first deposit)")
	deposit.Flags().Uint64("max-y", 0, "most Y to deposit (required for a first deposit)")

	withdraw := &cobra.Command{
		Use:  "withdraw",
		RunE: runQuoteWithdraw,
	}
	withdraw.Flags().String("pool", "", "pool config address")
	withdraw.Flags().Uint64("lp", 0, "LP amount")

	swap := &cobra.Command{
		Use:  "swap",
		RunE: runQuoteSwap,
	}
	swap.Flags().String("pool", "", "pool config address")
	addSwapFlags(swap)

	quoteCmd.AddCommand(deposit, withdraw, swap)
	return quoteCmd
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().String("signer", "", "user or authority (signer)")
	cmd.Flags().String("pool", "", "pool config address")
}

func addLiquidityFlags(cmd *cobra.Command) {
	addPoolFlags(cmd)
	cmd.Flags().Uint64("lp", 0, "LP amount")
}

func addSwapFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("x-to-y", true, "sell X for Y; false sells Y for X")
	cmd.Flags().Uint64("amount", 0, "exact input amount")
	cmd.Flags().Uint64("min", 0, "least output to accept")
}

func swapArgs(cmd *cobra.Command) amm.SwapArgs {
	isX, _ := cmd.Flags().GetBool("x-to-y")
	amount, _ := cmd.Flags().GetUint64("amount")
	min, _ := cmd.Flags().GetUint64("min")
	return amm.SwapArgs{IsX: isX, Amount: amount, Min: min}
}

func runPoolInit(cmd *cobra.Command, _ []string) error {
	signer, err := keyFlag(cmd, "signer")
	if err != nil {
		return err
	}
	mintX, err := keyFlag(cmd, "mint-x")
	if err != nil {
		return err
	}
	mintY, err := keyFlag(cmd, "mint-y")
	if err != nil {
		return err
	}
	seed, _ := cmd.Flags().GetUint64("seed")
	fee, _ := cmd.Flags().GetUint16("fee-bps")
	args := amm.InitializeArgs{Seed: seed, FeeBps: fee}
	if raw, _ := cmd.Flags().GetString("authority"); raw != "" {
		authority, err := keyFlag(cmd, "authority")
		if err != nil {
			return err
		}
		args.Authority = &authority
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	programID := s.rt.Program().ID()
	addrs, err := amm.DerivePool(programID, seed, mintX, mintY)
	if err != nil {
		return err
	}
	return s.execute(amm.NewInitializeInstruction(programID, amm.InitializeAccounts{
		Initializer: signer,
		MintX:       mintX,
		MintY:       mintY,
		LPMint:      addrs.LPMint,
		VaultX:      addrs.VaultX,
		VaultY:      addrs.VaultY,
		Config:      addrs.Config,
	}, args))
}

// poolSession opens a session and resolves the --signer and --pool flags.
func poolSession(cmd *cobra.Command) (*session, solana.PublicKey, amm.PoolState, error) {
	signer, err := keyFlag(cmd, "signer")
	if err != nil {
		return nil, solana.PublicKey{}, amm.PoolState{}, err
	}
	poolAddr, err := keyFlag(cmd, "pool")
	if err != nil {
		return nil, solana.PublicKey{}, amm.PoolState{}, err
	}
	s, err := openSession(cmd)
	if err != nil {
		return nil, solana.PublicKey{}, amm.PoolState{}, err
	}
	pool, err := s.rt.Program().Pool(poolAddr)
	if err != nil {
		s.close()
		return nil, solana.PublicKey{}, amm.PoolState{}, err
	}
	return s, signer, pool, nil
}

func runPoolDeposit(cmd *cobra.Command, _ []string) error {
	s, signer, pool, err := poolSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	lp, _ := cmd.Flags().GetUint64("lp")
	maxX, _ := cmd.Flags().GetUint64("max-x")
	maxY, _ := cmd.Flags().GetUint64("max-y")
	programID := s.rt.Program().ID()
	accts, err := amm.LiquidityAccountsFor(programID, signer, pool.Config)
	if err != nil {
		return err
	}
	return s.execute(amm.NewDepositInstruction(programID, accts, amm.DepositArgs{Amount: lp, MaxX: maxX, MaxY: maxY}))
}

func runPoolWithdraw(cmd *cobra.Command, _ []string) error {
	s, signer, pool, err := poolSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	lp, _ := cmd.Flags().GetUint64("lp")
	minX, _ := cmd.Flags().GetUint64("min-x")
	minY, _ := cmd.Flags().GetUint64("min-y")
	programID := s.rt.Program().ID()
	accts, err := amm.LiquidityAccountsFor(programID, signer, pool.Config)
	if err != nil {
		return err
	}
	return s.execute(amm.NewWithdrawInstruction(programID, accts, amm.WithdrawArgs{Amount: lp, MinX: minX, MinY: minY}))
}

func runPoolSwap(cmd *cobra.Command, _ []string) error {
	s, signer, pool, err := poolSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	programID := s.rt.Program().ID()
	accts, err := amm.SwapAccountsFor(programID, signer, pool.Config)
	if err != nil {
		return err
	}
	return s.execute(amm.NewSwapInstruction(programID, accts, swapArgs(cmd)))
}

func runPoolLock(cmd *cobra.Command, locked bool) error {
	s, signer, pool, err := poolSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	accts := amm.AuthorityAccounts{Authority: signer, Config: pool.Address}
	return s.execute(amm.NewLockInstruction(s.rt.Program().ID(), accts, locked))
}

func runPoolShow(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if raw, _ := cmd.Flags().GetString("pool"); raw != "" {
		addr, err := keyFlag(cmd, "pool")
		if err != nil {
			return err
		}
		pool, err := s.rt.Program().Pool(addr)
		if err != nil {
			return err
		}
		return s.print(pool)
	}
	pools, err := s.rt.Program().Pools()
	if err != nil {
		return err
	}
	return s.print(pools)
}

// quoteSession opens a session and resolves --pool for the read-only quotes.
func quoteSession(cmd *cobra.Command) (*session, solana.PublicKey, error) {
	addr, err := keyFlag(cmd, "pool")
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	s, err := openSession(cmd)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	return s, addr, nil
}

func runQuoteDeposit(cmd *cobra.Command, _ []string) error {
	s, addr, err := quoteSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	pool, err := s.rt.Program().Pool(addr)
	if err != nil {
		return err
	}
	lp, _ := cmd.Flags().GetUint64("lp")
	maxX, _ := cmd.Flags().GetUint64("max-x")
	maxY, _ := cmd.Flags().GetUint64("max-y")
	args, err := depositQuoteArgs(pool.LPSupply, lp, maxX, maxY)
	if err != nil {
		return err
	}
	res, err := s.rt.Program().QuoteDeposit(addr, args)
	if err != nil {
		return fmt.Errorf("quote deposit: %w", err)
	}
	return s.print(res)
}

// depositQuoteArgs treats a zero maximum as unbounded. A first deposit takes
// exactly its maxima, so both are required there.
func depositQuoteArgs(lpSupply, lp, maxX, maxY uint64) (amm.DepositArgs, error) {
	if lpSupply == 0 {
		if maxX == 0 || maxY == 0 {
			return amm.DepositArgs{}, fmt.Errorf("first deposit quote needs --max-x and --max-y")
		}
		return amm.DepositArgs{Amount: lp, MaxX: maxX, MaxY: maxY}, nil
	}
	if maxX == 0 {
		maxX = math.MaxUint64
	}
	if maxY == 0 {
		maxY = math.MaxUint64
	}
	return amm.DepositArgs{Amount: lp, MaxX: maxX, MaxY: maxY}, nil
}

func runQuoteWithdraw(cmd *cobra.Command, _ []string) error {
	s, addr, err := quoteSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	lp, _ := cmd.Flags().GetUint64("lp")
	res, err := s.rt.Program().QuoteWithdraw(addr, amm.WithdrawArgs{Amount: lp})
	if err != nil {
		return fmt.Errorf("quote withdraw: %w", err)
	}
	return s.print(res)
}

func runQuoteSwap(cmd *cobra.Command, _ []string) error {
	s, addr, err := quoteSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.rt.Program().QuoteSwap(addr, swapArgs(cmd))
	if err != nil {
		return fmt.Errorf("quote swap: %w", err)
	}
	return s.print(res)
}
