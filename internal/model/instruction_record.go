package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Journal program names.
const (
	ProgramAMM   = "amm"
	ProgramToken = "token"
)

// Instruction outcomes.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// AccountRef is one account reference of a journaled instruction.
type AccountRef struct {
	Address  string `json:"address"`
	Signer   bool   `json:"signer,omitempty"`
	Writable bool   `json:"writable,omitempty"`
}

// Settlement carries the amounts an instruction moved.
type Settlement struct {
	AmountX   uint64 `json:"amount_x,omitempty"`
	AmountY   uint64 `json:"amount_y,omitempty"`
	LP        uint64 `json:"lp,omitempty"`
	IsX       bool   `json:"is_x,omitempty"`
	AmountIn  uint64 `json:"amount_in,omitempty"`
	AmountOut uint64 `json:"amount_out,omitempty"`
	Fee       uint64 `json:"fee,omitempty"`
}

// InstructionRecord is the journal representation of an executed instruction.
// Failed instructions are journaled too, with their error code.
type InstructionRecord struct {
	Seq         uint64        `json:"seq"`
	Program     string        `json:"program"`
	ProgramID   string        `json:"program_id"`
	Instruction string        `json:"instruction"`
	Accounts    []AccountRef  `json:"accounts"`
	Data        string        `json:"data"`
	Status      string        `json:"status"`
	Codespace   string        `json:"codespace,omitempty"`
	Code        uint32        `json:"code,omitempty"`
	Error       string        `json:"error,omitempty"`
	Pool        *PoolSnapshot `json:"pool,omitempty"`
	Settlement  *Settlement   `json:"settlement,omitempty"`
	Timestamp   uint64        `json:"timestamp"`
	ExecutedAt  string        `json:"executed_at"`
}

// DataBytes decodes the hex instruction data.
func (r InstructionRecord) DataBytes() ([]byte, error) {
	if r.Data == "" || r.Data == "0x" {
		return nil, nil
	}
	data, err := hexutil.Decode(r.Data)
	if err != nil {
		return nil, fmt.Errorf("decode data of record %d: %w", r.Seq, err)
	}
	return data, nil
}

// EncodeData renders instruction data for a record.
func EncodeData(data []byte) string {
	return hexutil.Encode(data)
}

// OK reports whether the instruction committed.
func (r InstructionRecord) OK() bool {
	return r.Status == StatusOK
}
