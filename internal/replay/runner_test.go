package replay

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"ammCore/internal/amm"
	"ammCore/internal/ledger"
	"ammCore/internal/model"
	"ammCore/internal/runtime"
	"ammCore/internal/storage"
)

// writeJournal runs a short pool lifecycle and journals it to a JSONL file.
// It returns the journal path and the runtime that produced it.
func writeJournal(t *testing.T, programID solana.PublicKey) (string, *runtime.Runtime) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	now := time.Unix(1_700_000_000, 0)
	rt := runtime.New(runtime.Options{
		ProgramID: programID,
		Journal:   storage.NewJsonlStorage(path),
		Clock: func() time.Time {
			now = now.Add(time.Minute)
			return now
		},
	})
	ctx := context.Background()

	exec := func(ix solana.Instruction, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if _, err := rt.Execute(ctx, ix); err != nil && !errors.Is(err, amm.ErrSlippageExceeded) {
			t.Fatalf("execute: %v", err)
		}
	}

	issuer := solana.NewWallet().PublicKey()
	user := solana.NewWallet().PublicKey()
	mintX := solana.NewWallet().PublicKey()
	mintY := solana.NewWallet().PublicKey()
	for _, mint := range []solana.PublicKey{mintX, mintY} {
		exec(ledger.NewCreateMintInstruction(mint, issuer, 6))
		exec(ledger.NewCreateAccountInstruction(user, mint))
		to, err := ledger.AccountAddress(user, mint)
		if err != nil {
			t.Fatalf("derive: %v", err)
		}
		exec(ledger.NewMintToInstruction(mint, to, issuer, 1_000_000_000))
	}

	addrs, err := amm.DerivePool(programID, 7, mintX, mintY)
	if err != nil {
		t.Fatalf("derive pool: %v", err)
	}
	exec(amm.NewInitializeInstruction(programID, amm.InitializeAccounts{
		Initializer: user,
		MintX:       mintX,
		MintY:       mintY,
		LPMint:      addrs.LPMint,
		VaultX:      addrs.VaultX,
		VaultY:      addrs.VaultY,
		Config:      addrs.Config,
	}, amm.InitializeArgs{Seed: 7, FeeBps: 30}))

	pool, err := rt.Program().Pool(addrs.Config)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	liq, err := amm.LiquidityAccountsFor(programID, user, pool.Config)
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	swap, err := amm.SwapAccountsFor(programID, user, pool.Config)
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	exec(amm.NewDepositInstruction(programID, liq, amm.DepositArgs{Amount: 500_000_000, MaxX: 500_000_000, MaxY: 500_000_000}))
	exec(amm.NewSwapInstruction(programID, swap, amm.SwapArgs{IsX: true, Amount: 10_000_000}))
	exec(amm.NewSwapInstruction(programID, swap, amm.SwapArgs{IsX: false, Amount: 10_000_000, Min: 1_000_000_000}))
	exec(amm.NewWithdrawInstruction(programID, liq, amm.WithdrawArgs{Amount: 100_000_000}))
	return path, rt
}

func TestReplayRebuildsState(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	path, source := writeJournal(t, programID)

	rt := runtime.New(runtime.Options{ProgramID: programID})
	runner := NewRunner(RunConfig{JournalPath: path, BatchSize: 4}, rt, nil, nil, nil)
	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Divergences) != 0 {
		t.Fatalf("unexpected divergences: %v", result.Divergences)
	}
	if result.Replayed != 11 || result.Failed != 1 || result.LastSeq != 11 {
		t.Fatalf("result = %+v", result)
	}

	want := source.Snapshot()
	got := rt.Snapshot()
	if got.Seq != want.Seq {
		t.Fatalf("seq = %d, want %d", got.Seq, want.Seq)
	}
	if len(got.Ledger.Accounts) != len(want.Ledger.Accounts) {
		t.Fatalf("accounts = %d, want %d", len(got.Ledger.Accounts), len(want.Ledger.Accounts))
	}
	for i := range want.Ledger.Accounts {
		if got.Ledger.Accounts[i] != want.Ledger.Accounts[i] {
			t.Fatalf("account %d = %+v, want %+v", i, got.Ledger.Accounts[i], want.Ledger.Accounts[i])
		}
	}
	if len(got.Pools) != 1 || got.Pools[0].Address != want.Pools[0].Address {
		t.Fatalf("pools = %+v", got.Pools)
	}
}

func TestReplayDetectsDivergence(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	path, _ := writeJournal(t, programID)

	var records []model.InstructionRecord
	if err := storage.ReadRecords(path, func(r model.InstructionRecord) error {
		if r.Instruction == amm.InstructionSwap && r.OK() {
			r.Settlement.AmountOut++
		}
		records = append(records, r)
		return nil
	}); err != nil {
		t.Fatalf("read: %v", err)
	}
	tampered := filepath.Join(t.TempDir(), "tampered.jsonl")
	if err := storage.NewJsonlStorage(tampered).PutRecordBatch(context.Background(), records); err != nil {
		t.Fatalf("write: %v", err)
	}

	runner := NewRunner(RunConfig{JournalPath: tampered, BatchSize: 100}, runtime.New(runtime.Options{ProgramID: programID}), nil, nil, nil)
	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Divergences) != 1 || result.Divergences[0].Field != "settlement" || result.Divergences[0].Seq != 9 {
		t.Fatalf("divergences = %+v", result.Divergences)
	}

	strict := NewRunner(RunConfig{JournalPath: tampered, BatchSize: 100, Strict: true}, runtime.New(runtime.Options{ProgramID: programID}), nil, nil, nil)
	result, err = strict.Run(context.Background())
	if !errors.Is(err, ErrDiverged) {
		t.Fatalf("strict run: %v", err)
	}
	if result.LastSeq != 9 {
		t.Fatalf("strict stopped at %d, want 9", result.LastSeq)
	}
}

type flakySink struct {
	failures int
	records  []model.InstructionRecord
}

func (f *flakySink) PutRecordBatch(_ context.Context, records []model.InstructionRecord) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	f.records = append(f.records, records...)
	return nil
}

type snapshotRecorder struct {
	saved []runtime.Snapshot
}

func (s *snapshotRecorder) Save(snap runtime.Snapshot) error {
	s.saved = append(s.saved, snap)
	return nil
}

func TestReplayResumesFromCheckpoint(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	path, _ := writeJournal(t, programID)
	cpPath := filepath.Join(t.TempDir(), "replay.checkpoint.json")

	sink := &flakySink{failures: 1}
	states := &snapshotRecorder{}
	rt := runtime.New(runtime.Options{ProgramID: programID})
	first := NewRunner(RunConfig{
		JournalPath:       path,
		ToSeq:             6,
		BatchSize:         3,
		CheckpointPath:    cpPath,
		CheckpointEnabled: true,
		MaxRetries:        2,
		RetryBackoff:      time.Millisecond,
	}, rt, sink, states, nil)
	if _, err := first.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(sink.records) != 6 || len(states.saved) != 2 {
		t.Fatalf("records = %d, snapshots = %d", len(sink.records), len(states.saved))
	}

	cp, ok, err := NewCheckpointStore(cpPath, true).Load()
	if err != nil || !ok || cp.LastProcessedSeq != 6 || cp.Journal != path {
		t.Fatalf("checkpoint = %+v ok=%v err=%v", cp, ok, err)
	}

	second := NewRunner(RunConfig{
		JournalPath:       path,
		BatchSize:         3,
		CheckpointPath:    cpPath,
		CheckpointEnabled: true,
	}, rt, sink, states, nil)
	result, err := second.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Replayed != 5 || result.LastSeq != 11 {
		t.Fatalf("result = %+v", result)
	}
	if len(sink.records) != 11 || sink.records[6].Seq != 7 {
		t.Fatalf("sink holds %d records", len(sink.records))
	}
}

func TestReplayRejectsMisalignedRuntime(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	path, _ := writeJournal(t, programID)

	runner := NewRunner(RunConfig{JournalPath: path, FromSeq: 5, BatchSize: 10}, runtime.New(runtime.Options{ProgramID: programID}), nil, nil, nil)
	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatalf("expected error replaying from 5 into an empty runtime")
	}

	other := NewRunner(RunConfig{JournalPath: path, BatchSize: 10}, runtime.New(runtime.Options{ProgramID: solana.NewWallet().PublicKey()}), nil, nil, nil)
	if _, err := other.Run(context.Background()); err == nil {
		t.Fatalf("expected error replaying under a different program id")
	}
}

func TestReplayPastJournalEnd(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	path, _ := writeJournal(t, programID)

	rt := runtime.New(runtime.Options{ProgramID: programID})
	runner := NewRunner(RunConfig{JournalPath: path, ToSeq: 1_000_000_000_000_000, BatchSize: 1}, rt, nil, nil, nil)
	result, err := runner.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "journal ends at seq 11") {
		t.Fatalf("err = %v", err)
	}
	if result.Replayed != 11 || result.LastSeq != 11 || rt.Seq() != 11 {
		t.Fatalf("result = %+v, runtime seq %d", result, rt.Seq())
	}

	beyond := NewRunner(RunConfig{JournalPath: path, FromSeq: 12, ToSeq: 1_000_000_000_000_000, BatchSize: 1}, rt, nil, nil, nil)
	if _, err := beyond.Run(context.Background()); err == nil {
		t.Fatalf("expected error starting past the journal end")
	}
	if rt.Seq() != 11 {
		t.Fatalf("runtime seq = %d", rt.Seq())
	}
}

func TestParsePublicKeys(t *testing.T) {
	key := solana.NewWallet().PublicKey()
	got, err := ParsePublicKeys([]string{"", key.String()})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 1 || got[0] != key {
		t.Fatalf("got %v", got)
	}
	if _, err := ParsePublicKeys([]string{"not-a-key"}); err == nil {
		t.Fatalf("expected error")
	}
}
