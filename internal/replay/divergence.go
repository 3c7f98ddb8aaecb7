package replay

import (
	"fmt"
	"reflect"

	"ammCore/internal/model"
)

// Divergence is one field where a replayed instruction disagrees with its
// journal record.
type Divergence struct {
	Seq      uint64 `json:"seq"`
	Field    string `json:"field"`
	Journal  string `json:"journal"`
	Replayed string `json:"replayed"`
}

func (d Divergence) String() string {
	return fmt.Sprintf("seq %d %s: journal %s, replayed %s", d.Seq, d.Field, d.Journal, d.Replayed)
}

// compareRecords lists every outcome field that differs between the journal
// and the replay. Timestamps and error text are not compared.
func compareRecords(journal, replayed model.InstructionRecord) []Divergence {
	var out []Divergence
	add := func(field string, a, b any) {
		if !reflect.DeepEqual(a, b) {
			out = append(out, Divergence{
				Seq:      journal.Seq,
				Field:    field,
				Journal:  fmt.Sprintf("%+v", a),
				Replayed: fmt.Sprintf("%+v", b),
			})
		}
	}

	add("seq", journal.Seq, replayed.Seq)
	add("instruction", journal.Instruction, replayed.Instruction)
	add("status", journal.Status, replayed.Status)
	add("codespace", journal.Codespace, replayed.Codespace)
	add("code", journal.Code, replayed.Code)
	add("settlement", derefSettlement(journal.Settlement), derefSettlement(replayed.Settlement))
	add("pool", derefPool(journal.Pool), derefPool(replayed.Pool))
	return out
}

func derefSettlement(s *model.Settlement) model.Settlement {
	if s == nil {
		return model.Settlement{}
	}
	return *s
}

func derefPool(p *model.PoolSnapshot) model.PoolSnapshot {
	if p == nil {
		return model.PoolSnapshot{}
	}
	return *p
}
