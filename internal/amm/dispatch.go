package amm

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Outcome describes a processed instruction. Exactly one of the result
// pointers is set for deposit, withdraw and swap; Config is set for
// initialize, lock and unlock.
type Outcome struct {
	Instruction string           `json:"instruction"`
	Pool        solana.PublicKey `json:"pool"`
	Signer      solana.PublicKey `json:"signer"`
	Config      *Config          `json:"config,omitempty"`
	Deposit     *DepositResult   `json:"deposit,omitempty"`
	Withdraw    *WithdrawResult  `json:"withdraw,omitempty"`
	Swap        *SwapResult      `json:"swap,omitempty"`
}

var accountCounts = map[string]int{
	InstructionInitialize: 7,
	InstructionDeposit:    10,
	InstructionWithdraw:   10,
	InstructionSwap:       6,
	InstructionLock:       2,
	InstructionUnlock:     2,
}

// Process decodes ix and routes it to the matching operation. Account
// layout and signer checks happen before any state is read.
func (p *Program) Process(ix solana.Instruction) (Outcome, error) {
	out, err := p.process(ix)
	if err != nil {
		p.logger.Debug("instruction rejected", zap.String("instruction", out.Instruction), zap.Error(err))
	}
	return out, err
}

func (p *Program) process(ix solana.Instruction) (Outcome, error) {
	if !ix.ProgramID().Equals(p.id) {
		return Outcome{}, ErrInvalidInstruction.Wrapf("program %s is not %s", ix.ProgramID(), p.id)
	}
	data, err := ix.Data()
	if err != nil {
		return Outcome{}, ErrInvalidInstruction.Wrap(err.Error())
	}
	name, ok := InstructionName(data)
	if !ok {
		return Outcome{}, ErrInvalidInstruction.Wrap("unknown discriminator")
	}
	out := Outcome{Instruction: name}

	metas := ix.Accounts()
	if len(metas) != accountCounts[name] {
		return out, ErrAccountMismatch.Wrapf("%s takes %d accounts, got %d", name, accountCounts[name], len(metas))
	}
	if !metas[0].IsSigner {
		return out, ErrAccountMismatch.Wrapf("%s is not a signer", metas[0].PublicKey)
	}
	keys := make([]solana.PublicKey, len(metas))
	for i, m := range metas {
		keys[i] = m.PublicKey
	}
	out.Signer = keys[0]
	dec := bin.NewBorshDecoder(data[8:])

	switch name {
	case InstructionInitialize:
		var args InitializeArgs
		if err := decodeArgs(dec, &args); err != nil {
			return out, err
		}
		accts := InitializeAccounts{
			Initializer: keys[0],
			MintX:       keys[1],
			MintY:       keys[2],
			LPMint:      keys[3],
			VaultX:      keys[4],
			VaultY:      keys[5],
			Config:      keys[6],
		}
		out.Pool = accts.Config
		cfg, err := p.Initialize(accts, args)
		if err != nil {
			return out, err
		}
		out.Config = &cfg

	case InstructionDeposit, InstructionWithdraw:
		accts := LiquidityAccounts{
			User:   keys[0],
			Config: keys[1],
			MintX:  keys[2],
			MintY:  keys[3],
			LPMint: keys[4],
			VaultX: keys[5],
			VaultY: keys[6],
			UserX:  keys[7],
			UserY:  keys[8],
			UserLP: keys[9],
		}
		out.Pool = accts.Config
		if name == InstructionDeposit {
			var args DepositArgs
			if err := decodeArgs(dec, &args); err != nil {
				return out, err
			}
			res, err := p.Deposit(accts, args)
			if err != nil {
				return out, err
			}
			out.Deposit = &res
		} else {
			var args WithdrawArgs
			if err := decodeArgs(dec, &args); err != nil {
				return out, err
			}
			res, err := p.Withdraw(accts, args)
			if err != nil {
				return out, err
			}
			out.Withdraw = &res
		}

	case InstructionSwap:
		var args SwapArgs
		if err := decodeArgs(dec, &args); err != nil {
			return out, err
		}
		accts := SwapAccounts{
			User:   keys[0],
			Config: keys[1],
			VaultX: keys[2],
			VaultY: keys[3],
			UserX:  keys[4],
			UserY:  keys[5],
		}
		out.Pool = accts.Config
		res, err := p.Swap(accts, args)
		if err != nil {
			return out, err
		}
		out.Swap = &res

	case InstructionLock, InstructionUnlock:
		if dec.Remaining() != 0 {
			return out, ErrInvalidInstruction.Wrapf("%s takes no arguments", name)
		}
		accts := AuthorityAccounts{Authority: keys[0], Config: keys[1]}
		out.Pool = accts.Config
		if err := p.SetLocked(accts, name == InstructionLock); err != nil {
			return out, err
		}
		cfg, _ := p.store.Get(accts.Config)
		out.Config = &cfg
	}
	return out, nil
}

func decodeArgs(dec *bin.Decoder, args bin.BinaryUnmarshaler) error {
	if err := args.UnmarshalWithDecoder(dec); err != nil {
		return ErrInvalidInstruction.Wrapf("decode arguments: %v", err)
	}
	if dec.Remaining() != 0 {
		return ErrInvalidInstruction.Wrapf("%d trailing bytes", dec.Remaining())
	}
	return nil
}
