package amm

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Instruction names as they appear in journals and discriminators.
const (
	InstructionInitialize = "initialize"
	InstructionDeposit    = "deposit"
	InstructionWithdraw   = "withdraw"
	InstructionSwap       = "swap"
	InstructionLock       = "lock"
	InstructionUnlock     = "unlock"
)

var instructionDiscriminators = map[string][8]byte{
	InstructionInitialize: discriminator("global", InstructionInitialize),
	InstructionDeposit:    discriminator("global", InstructionDeposit),
	InstructionWithdraw:   discriminator("global", InstructionWithdraw),
	InstructionSwap:       discriminator("global", InstructionSwap),
	InstructionLock:       discriminator("global", InstructionLock),
	InstructionUnlock:     discriminator("global", InstructionUnlock),
}

// InstructionName resolves the instruction named by the leading 8 bytes of data.
func InstructionName(data []byte) (string, bool) {
	if len(data) < 8 {
		return "", false
	}
	for name, disc := range instructionDiscriminators {
		if bytes.Equal(data[:8], disc[:]) {
			return name, true
		}
	}
	return "", false
}

// InitializeArgs are the arguments of initialize.
type InitializeArgs struct {
	Seed      uint64
	FeeBps    uint16
	Authority *solana.PublicKey
}

func (a InitializeArgs) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint64(a.Seed, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteUint16(a.FeeBps, binary.LittleEndian); err != nil {
		return err
	}
	return writeOptionalKey(enc, a.Authority)
}

func (a *InitializeArgs) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if a.Seed, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return err
	}
	if a.FeeBps, err = dec.ReadUint16(binary.LittleEndian); err != nil {
		return err
	}
	a.Authority, err = readOptionalKey(dec)
	return err
}

// DepositArgs are the arguments of deposit. Amount is the LP to mint.
type DepositArgs struct {
	Amount uint64
	MaxX   uint64
	MaxY   uint64
}

func (a DepositArgs) MarshalWithEncoder(enc *bin.Encoder) error {
	return writeU64s(enc, a.Amount, a.MaxX, a.MaxY)
}

func (a *DepositArgs) UnmarshalWithDecoder(dec *bin.Decoder) error {
	return readU64s(dec, &a.Amount, &a.MaxX, &a.MaxY)
}

// WithdrawArgs are the arguments of withdraw. Amount is the LP to burn.
type WithdrawArgs struct {
	Amount uint64
	MinX   uint64
	MinY   uint64
}

func (a WithdrawArgs) MarshalWithEncoder(enc *bin.Encoder) error {
	return writeU64s(enc, a.Amount, a.MinX, a.MinY)
}

func (a *WithdrawArgs) UnmarshalWithDecoder(dec *bin.Decoder) error {
	return readU64s(dec, &a.Amount, &a.MinX, &a.MinY)
}

// SwapArgs are the arguments of swap. IsX selects asset X as the input.
type SwapArgs struct {
	IsX    bool
	Amount uint64
	Min    uint64
}

func (a SwapArgs) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteBool(a.IsX); err != nil {
		return err
	}
	return writeU64s(enc, a.Amount, a.Min)
}

func (a *SwapArgs) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if a.IsX, err = dec.ReadBool(); err != nil {
		return err
	}
	return readU64s(dec, &a.Amount, &a.Min)
}

func writeU64s(enc *bin.Encoder, values ...uint64) error {
	for _, v := range values {
		if err := enc.WriteUint64(v, binary.LittleEndian); err != nil {
			return err
		}
	}
	return nil
}

func readU64s(dec *bin.Decoder, targets ...*uint64) (err error) {
	for _, t := range targets {
		if *t, err = dec.ReadUint64(binary.LittleEndian); err != nil {
			return err
		}
	}
	return nil
}

// InitializeAccounts is the account set of initialize.
type InitializeAccounts struct {
	Initializer solana.PublicKey
	MintX       solana.PublicKey
	MintY       solana.PublicKey
	LPMint      solana.PublicKey
	VaultX      solana.PublicKey
	VaultY      solana.PublicKey
	Config      solana.PublicKey
}

// LiquidityAccounts is the account set shared by deposit and withdraw.
type LiquidityAccounts struct {
	User   solana.PublicKey
	Config solana.PublicKey
	MintX  solana.PublicKey
	MintY  solana.PublicKey
	LPMint solana.PublicKey
	VaultX solana.PublicKey
	VaultY solana.PublicKey
	UserX  solana.PublicKey
	UserY  solana.PublicKey
	UserLP solana.PublicKey
}

// SwapAccounts is the account set of swap.
type SwapAccounts struct {
	User   solana.PublicKey
	Config solana.PublicKey
	VaultX solana.PublicKey
	VaultY solana.PublicKey
	UserX  solana.PublicKey
	UserY  solana.PublicKey
}

// AuthorityAccounts is the account set of lock and unlock.
type AuthorityAccounts struct {
	Authority solana.PublicKey
	Config    solana.PublicKey
}

func (a InitializeAccounts) metas() solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.Meta(a.Initializer).SIGNER().WRITE(),
		solana.Meta(a.MintX),
		solana.Meta(a.MintY),
		solana.Meta(a.LPMint).WRITE(),
		solana.Meta(a.VaultX).WRITE(),
		solana.Meta(a.VaultY).WRITE(),
		solana.Meta(a.Config).WRITE(),
	}
}

func (a LiquidityAccounts) metas() solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.Meta(a.User).SIGNER().WRITE(),
		solana.Meta(a.Config),
		solana.Meta(a.MintX),
		solana.Meta(a.MintY),
		solana.Meta(a.LPMint).WRITE(),
		solana.Meta(a.VaultX).WRITE(),
		solana.Meta(a.VaultY).WRITE(),
		solana.Meta(a.UserX).WRITE(),
		solana.Meta(a.UserY).WRITE(),
		solana.Meta(a.UserLP).WRITE(),
	}
}

func (a SwapAccounts) metas() solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.Meta(a.User).SIGNER().WRITE(),
		solana.Meta(a.Config),
		solana.Meta(a.VaultX).WRITE(),
		solana.Meta(a.VaultY).WRITE(),
		solana.Meta(a.UserX).WRITE(),
		solana.Meta(a.UserY).WRITE(),
	}
}

func (a AuthorityAccounts) metas() solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.Meta(a.Authority).SIGNER(),
		solana.Meta(a.Config).WRITE(),
	}
}

// LiquidityAccountsFor fills the deposit/withdraw account set of user for an
// existing pool.
func LiquidityAccountsFor(programID, user solana.PublicKey, cfg Config) (LiquidityAccounts, error) {
	addrs, err := poolAddresses(programID, cfg)
	if err != nil {
		return LiquidityAccounts{}, err
	}
	userX, err := DeriveVault(user, cfg.MintX)
	if err != nil {
		return LiquidityAccounts{}, err
	}
	userY, err := DeriveVault(user, cfg.MintY)
	if err != nil {
		return LiquidityAccounts{}, err
	}
	userLP, err := DeriveVault(user, addrs.LPMint)
	if err != nil {
		return LiquidityAccounts{}, err
	}
	return LiquidityAccounts{
		User:   user,
		Config: addrs.Config,
		MintX:  cfg.MintX,
		MintY:  cfg.MintY,
		LPMint: addrs.LPMint,
		VaultX: addrs.VaultX,
		VaultY: addrs.VaultY,
		UserX:  userX,
		UserY:  userY,
		UserLP: userLP,
	}, nil
}

// SwapAccountsFor fills the swap account set of user for an existing pool.
func SwapAccountsFor(programID, user solana.PublicKey, cfg Config) (SwapAccounts, error) {
	liq, err := LiquidityAccountsFor(programID, user, cfg)
	if err != nil {
		return SwapAccounts{}, err
	}
	return SwapAccounts{
		User:   user,
		Config: liq.Config,
		VaultX: liq.VaultX,
		VaultY: liq.VaultY,
		UserX:  liq.UserX,
		UserY:  liq.UserY,
	}, nil
}

// NewInitializeInstruction builds an initialize instruction.
func NewInitializeInstruction(programID solana.PublicKey, accounts InitializeAccounts, args InitializeArgs) (solana.Instruction, error) {
	return newInstruction(programID, InstructionInitialize, accounts.metas(), args)
}

// NewDepositInstruction builds a deposit instruction.
func NewDepositInstruction(programID solana.PublicKey, accounts LiquidityAccounts, args DepositArgs) (solana.Instruction, error) {
	return newInstruction(programID, InstructionDeposit, accounts.metas(), args)
}

// NewWithdrawInstruction builds a withdraw instruction.
func NewWithdrawInstruction(programID solana.PublicKey, accounts LiquidityAccounts, args WithdrawArgs) (solana.Instruction, error) {
	return newInstruction(programID, InstructionWithdraw, accounts.metas(), args)
}

// NewSwapInstruction builds a swap instruction.
func NewSwapInstruction(programID solana.PublicKey, accounts SwapAccounts, args SwapArgs) (solana.Instruction, error) {
	return newInstruction(programID, InstructionSwap, accounts.metas(), args)
}

// NewLockInstruction builds a lock (locked=true) or unlock instruction.
func NewLockInstruction(programID solana.PublicKey, accounts AuthorityAccounts, locked bool) (solana.Instruction, error) {
	name := InstructionUnlock
	if locked {
		name = InstructionLock
	}
	return newInstruction(programID, name, accounts.metas(), nil)
}

func newInstruction(programID solana.PublicKey, name string, metas solana.AccountMetaSlice, args bin.BinaryMarshaler) (solana.Instruction, error) {
	disc := instructionDiscriminators[name]
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBytes(disc[:], false); err != nil {
		return nil, fmt.Errorf("write discriminator: %w", err)
	}
	if args != nil {
		if err := args.MarshalWithEncoder(enc); err != nil {
			return nil, fmt.Errorf("encode %s args: %w", name, err)
		}
	}
	return solana.NewInstruction(programID, metas, buf.Bytes()), nil
}
