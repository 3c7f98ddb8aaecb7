package ledger

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ProgramID addresses token instructions.
var ProgramID = solana.TokenProgramID

// Token instruction names, indexed by their one-byte tag.
const (
	InstructionCreateMint    = "create_mint"
	InstructionCreateAccount = "create_account"
	InstructionMintTo        = "mint_to"
	InstructionTransfer      = "transfer"
)

var instructionTags = [...]string{
	InstructionCreateMint,
	InstructionCreateAccount,
	InstructionMintTo,
	InstructionTransfer,
}

var instructionAccounts = map[string]int{
	InstructionCreateMint:    2,
	InstructionCreateAccount: 3,
	InstructionMintTo:        3,
	InstructionTransfer:      3,
}

// NewCreateMintInstruction registers mint with the given authority.
func NewCreateMintInstruction(mint, authority solana.PublicKey, decimals uint8) (solana.Instruction, error) {
	return newInstruction(0, solana.AccountMetaSlice{
		solana.Meta(mint).WRITE(),
		solana.Meta(authority).SIGNER(),
	}, func(enc *bin.Encoder) error {
		return enc.WriteUint8(decimals)
	})
}

// NewCreateAccountInstruction opens the associated account of (owner, mint).
func NewCreateAccountInstruction(owner, mint solana.PublicKey) (solana.Instruction, error) {
	account, err := AccountAddress(owner, mint)
	if err != nil {
		return nil, err
	}
	return newInstruction(1, solana.AccountMetaSlice{
		solana.Meta(owner).SIGNER(),
		solana.Meta(account).WRITE(),
		solana.Meta(mint),
	}, nil)
}

// NewMintToInstruction issues amount of mint into the account to.
func NewMintToInstruction(mint, to, authority solana.PublicKey, amount uint64) (solana.Instruction, error) {
	return newInstruction(2, solana.AccountMetaSlice{
		solana.Meta(mint).WRITE(),
		solana.Meta(to).WRITE(),
		solana.Meta(authority).SIGNER(),
	}, func(enc *bin.Encoder) error {
		return enc.WriteUint64(amount, binary.LittleEndian)
	})
}

// NewTransferInstruction moves amount between two accounts of one mint.
func NewTransferInstruction(from, to, owner solana.PublicKey, amount uint64) (solana.Instruction, error) {
	return newInstruction(3, solana.AccountMetaSlice{
		solana.Meta(from).WRITE(),
		solana.Meta(to).WRITE(),
		solana.Meta(owner).SIGNER(),
	}, func(enc *bin.Encoder) error {
		return enc.WriteUint64(amount, binary.LittleEndian)
	})
}

func newInstruction(tag uint8, metas solana.AccountMetaSlice, args func(*bin.Encoder) error) (solana.Instruction, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint8(tag); err != nil {
		return nil, fmt.Errorf("write tag: %w", err)
	}
	if args != nil {
		if err := args(enc); err != nil {
			return nil, fmt.Errorf("encode %s args: %w", instructionTags[tag], err)
		}
	}
	return solana.NewInstruction(ProgramID, metas, buf.Bytes()), nil
}

// InstructionName resolves the token instruction named by data's tag.
func InstructionName(data []byte) (string, bool) {
	if len(data) == 0 || int(data[0]) >= len(instructionTags) {
		return "", false
	}
	return instructionTags[data[0]], true
}

// Process decodes a token instruction and applies it. The signer of every
// instruction is checked against the authority the effect requires.
func (l *Ledger) Process(ix solana.Instruction) (string, error) {
	if !ix.ProgramID().Equals(ProgramID) {
		return "", ErrInvalidInstruction.Wrapf("program %s", ix.ProgramID())
	}
	data, err := ix.Data()
	if err != nil {
		return "", ErrInvalidInstruction.Wrap(err.Error())
	}
	name, ok := InstructionName(data)
	if !ok {
		return "", ErrInvalidInstruction.Wrap("unknown tag")
	}
	metas := ix.Accounts()
	if len(metas) != instructionAccounts[name] {
		return name, ErrInvalidInstruction.Wrapf("%s takes %d accounts, got %d", name, instructionAccounts[name], len(metas))
	}

	dec := bin.NewBorshDecoder(data[1:])
	var effect Effect
	switch name {
	case InstructionCreateMint:
		if !metas[1].IsSigner {
			return name, ErrOwnerMismatch.Wrap("mint authority must sign")
		}
		decimals, err := dec.ReadUint8()
		if err != nil {
			return name, ErrInvalidInstruction.Wrapf("decimals: %v", err)
		}
		effect = CreateMint{Address: metas[0].PublicKey, Authority: metas[1].PublicKey, Decimals: decimals}

	case InstructionCreateAccount:
		if !metas[0].IsSigner {
			return name, ErrOwnerMismatch.Wrap("owner must sign")
		}
		want, err := AccountAddress(metas[0].PublicKey, metas[2].PublicKey)
		if err != nil {
			return name, err
		}
		if !want.Equals(metas[1].PublicKey) {
			return name, ErrInvalidInstruction.Wrapf("account %s is not derived from owner and mint", metas[1].PublicKey)
		}
		effect = CreateAccount{Owner: metas[0].PublicKey, Mint: metas[2].PublicKey}

	case InstructionMintTo, InstructionTransfer:
		if !metas[2].IsSigner {
			return name, ErrOwnerMismatch.Wrap("authority must sign")
		}
		amount, err := dec.ReadUint64(binary.LittleEndian)
		if err != nil {
			return name, ErrInvalidInstruction.Wrapf("amount: %v", err)
		}
		if name == InstructionMintTo {
			effect = MintTo{Mint: metas[0].PublicKey, To: metas[1].PublicKey, Authority: metas[2].PublicKey, Amount: amount}
		} else {
			effect = Transfer{From: metas[0].PublicKey, To: metas[1].PublicKey, Authority: metas[2].PublicKey, Amount: amount}
		}
	}

	if dec.Remaining() != 0 {
		return name, ErrInvalidInstruction.Wrapf("%d trailing bytes", dec.Remaining())
	}
	return name, l.Apply(effect)
}
