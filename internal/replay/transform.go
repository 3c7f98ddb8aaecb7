package replay

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"ammCore/internal/model"
)

// buildInstruction reconstructs the instruction a journal record was
// produced from.
func buildInstruction(record model.InstructionRecord) (solana.Instruction, error) {
	programID, err := solana.PublicKeyFromBase58(record.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("record %d program id: %w", record.Seq, err)
	}
	data, err := record.DataBytes()
	if err != nil {
		return nil, fmt.Errorf("record %d data: %w", record.Seq, err)
	}

	metas := make(solana.AccountMetaSlice, 0, len(record.Accounts))
	for i, ref := range record.Accounts {
		key, err := solana.PublicKeyFromBase58(ref.Address)
		if err != nil {
			return nil, fmt.Errorf("record %d account %d: %w", record.Seq, i, err)
		}
		metas = append(metas, &solana.AccountMeta{
			PublicKey:  key,
			IsSigner:   ref.Signer,
			IsWritable: ref.Writable,
		})
	}
	return solana.NewInstruction(programID, metas, data), nil
}

// ParsePublicKeys converts base58 strings into public keys, skipping blanks.
func ParsePublicKeys(inputs []string) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(inputs))
	for _, input := range inputs {
		if input == "" {
			continue
		}
		key, err := solana.PublicKeyFromBase58(input)
		if err != nil {
			return nil, fmt.Errorf("invalid public key %q: %w", input, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
