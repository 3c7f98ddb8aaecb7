package model

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestInstructionRecordData(t *testing.T) {
	raw := []byte{0xf2, 0x23, 0xc6, 0x89, 0x52, 0xe1, 0xf2, 0xb6, 0x01}
	record := InstructionRecord{Seq: 3, Data: EncodeData(raw)}

	if record.Data != "0xf223c68952e1f2b601" {
		t.Fatalf("data = %s", record.Data)
	}
	got, err := record.DataBytes()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("data mismatch: %x != %x", got, raw)
	}

	record.Data = "0xzz"
	if _, err := record.DataBytes(); err == nil {
		t.Fatalf("expected error for invalid hex")
	}
}

func TestInstructionRecordOmitsEmptyOutcome(t *testing.T) {
	record := InstructionRecord{
		Seq:         1,
		Program:     ProgramToken,
		Instruction: "create_mint",
		Status:      StatusOK,
	}

	b, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"pool", "settlement", "code", "error"} {
		if _, ok := decoded[key]; ok {
			t.Fatalf("%s should be omitted", key)
		}
	}
	if !record.OK() {
		t.Fatalf("record should be ok")
	}
}
