package main

import (
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"ammCore/internal/ledger"
)

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage mints and token accounts on the local ledger",
	}

	createMint := &cobra.Command{
		Use:   "create-mint",
		Short: "Create a mint (a fresh address is generated when --mint is empty)",
		RunE:  runCreateMint,
	}
	createMint.Flags().String("mint", "", "mint address")
	createMint.Flags().String("authority", "", "mint authority (signer)")
	createMint.Flags().Uint8("decimals", 6, "mint decimals")

	createAccount := &cobra.Command{
		Use:   "create-account",
		Short: "Open the token account of (owner, mint)",
		RunE:  runCreateAccount,
	}
	createAccount.Flags().String("owner", "", "account owner (signer)")
	createAccount.Flags().String("mint", "", "mint address")

	mintTo := &cobra.Command{
		Use:   "mint-to",
		Short: "Issue tokens into an owner's account",
		RunE:  runMintTo,
	}
	mintTo.Flags().String("mint", "", "mint address")
	mintTo.Flags().String("owner", "", "receiving owner")
	mintTo.Flags().String("authority", "", "mint authority (signer)")
	mintTo.Flags().Uint64("amount", 0, "base units to issue")

	transfer := &cobra.Command{
		Use:   "transfer",
		Short: "Move tokens between two owners' accounts",
		RunE:  runTransfer,
	}
	transfer.Flags().String("mint", "", "mint address")
	transfer.Flags().String("from", "", "sending owner (signer)")
	transfer.Flags().String("to", "", "receiving owner")
	transfer.Flags().Uint64("amount", 0, "base units to move")

	balance := &cobra.Command{
		Use:   "balance",
		Short: "Show an owner's balance of a mint",
		RunE:  runBalance,
	}
	balance.Flags().String("owner", "", "account owner")
	balance.Flags().String("mint", "", "mint address")

	tokenCmd.AddCommand(createMint, createAccount, mintTo, transfer, balance)
	return tokenCmd
}

func runCreateMint(cmd *cobra.Command, _ []string) error {
	authority, err := keyFlag(cmd, "authority")
	if err != nil {
		return err
	}
	mint := solana.NewWallet().PublicKey()
	if raw, _ := cmd.Flags().GetString("mint"); raw != "" {
		if mint, err = keyFlag(cmd, "mint"); err != nil {
			return err
		}
	}
	decimals, _ := cmd.Flags().GetUint8("decimals")

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	return s.execute(ledger.NewCreateMintInstruction(mint, authority, decimals))
}

func runCreateAccount(cmd *cobra.Command, _ []string) error {
	owner, err := keyFlag(cmd, "owner")
	if err != nil {
		return err
	}
	mint, err := keyFlag(cmd, "mint")
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	return s.execute(ledger.NewCreateAccountInstruction(owner, mint))
}

func runMintTo(cmd *cobra.Command, _ []string) error {
	mint, err := keyFlag(cmd, "mint")
	if err != nil {
		return err
	}
	owner, err := keyFlag(cmd, "owner")
	if err != nil {
		return err
	}
	authority, err := keyFlag(cmd, "authority")
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetUint64("amount")
	to, err := ledger.AccountAddress(owner, mint)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	return s.execute(ledger.NewMintToInstruction(mint, to, authority, amount))
}

func runTransfer(cmd *cobra.Command, _ []string) error {
	mint, err := keyFlag(cmd, "mint")
	if err != nil {
		return err
	}
	from, err := keyFlag(cmd, "from")
	if err != nil {
		return err
	}
	to, err := keyFlag(cmd, "to")
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetUint64("amount")
	fromAccount, err := ledger.AccountAddress(from, mint)
	if err != nil {
		return err
	}
	toAccount, err := ledger.AccountAddress(to, mint)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	return s.execute(ledger.NewTransferInstruction(fromAccount, toAccount, from, amount))
}

func runBalance(cmd *cobra.Command, _ []string) error {
	owner, err := keyFlag(cmd, "owner")
	if err != nil {
		return err
	}
	mint, err := keyFlag(cmd, "mint")
	if err != nil {
		return err
	}
	address, err := ledger.AccountAddress(owner, mint)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	account, err := s.rt.Ledger().Account(address)
	if err != nil {
		return err
	}
	return s.print(account)
}
