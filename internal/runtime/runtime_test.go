package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"ammCore/internal/amm"
	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

type memoryJournal struct {
	records []model.InstructionRecord
}

func (m *memoryJournal) PutRecordBatch(_ context.Context, records []model.InstructionRecord) error {
	m.records = append(m.records, records...)
	return nil
}

type scenario struct {
	t       *testing.T
	rt      *Runtime
	journal *memoryJournal
	mintX   solana.PublicKey
	mintY   solana.PublicKey
	issuer  solana.PublicKey
	user    solana.PublicKey
}

func newScenario(t *testing.T) *scenario {
	t.Helper()

	journal := &memoryJournal{}
	now := time.Unix(1_700_000_000, 0)
	s := &scenario{
		t:       t,
		journal: journal,
		rt: New(Options{
			ProgramID: solana.NewWallet().PublicKey(),
			Journal:   journal,
			Clock: func() time.Time {
				now = now.Add(time.Second)
				return now
			},
		}),
		mintX:  solana.NewWallet().PublicKey(),
		mintY:  solana.NewWallet().PublicKey(),
		issuer: solana.NewWallet().PublicKey(),
		user:   solana.NewWallet().PublicKey(),
	}

	for _, mint := range []solana.PublicKey{s.mintX, s.mintY} {
		s.exec(ledger.NewCreateMintInstruction(mint, s.issuer, 6))
		s.exec(ledger.NewCreateAccountInstruction(s.user, mint))
		to, err := ledger.AccountAddress(s.user, mint)
		require.NoError(t, err)
		s.exec(ledger.NewMintToInstruction(mint, to, s.issuer, 5_000_000_000))
	}
	return s
}

func (s *scenario) exec(ix solana.Instruction, err error) model.InstructionRecord {
	s.t.Helper()
	require.NoError(s.t, err)
	record, err := s.rt.Execute(context.Background(), ix)
	require.NoError(s.t, err)
	return record
}

func (s *scenario) initPool(seed uint64) amm.Config {
	s.t.Helper()

	id := s.rt.Program().ID()
	addrs, err := amm.DerivePool(id, seed, s.mintX, s.mintY)
	require.NoError(s.t, err)
	accts := amm.InitializeAccounts{
		Initializer: s.user,
		MintX:       s.mintX,
		MintY:       s.mintY,
		LPMint:      addrs.LPMint,
		VaultX:      addrs.VaultX,
		VaultY:      addrs.VaultY,
		Config:      addrs.Config,
	}
	authority := s.user
	record := s.exec(amm.NewInitializeInstruction(id, accts, amm.InitializeArgs{Seed: seed, FeeBps: 30, Authority: &authority}))
	require.Equal(s.t, amm.InstructionInitialize, record.Instruction)

	state, err := s.rt.Program().Pool(addrs.Config)
	require.NoError(s.t, err)
	return state.Config
}

func TestExecuteJournalsEveryInstruction(t *testing.T) {
	s := newScenario(t)
	require.Len(t, s.journal.records, 6)
	require.Equal(t, model.ProgramToken, s.journal.records[0].Program)
	require.Equal(t, ledger.InstructionCreateMint, s.journal.records[0].Instruction)

	cfg := s.initPool(1)
	id := s.rt.Program().ID()
	liq, err := amm.LiquidityAccountsFor(id, s.user, cfg)
	require.NoError(t, err)

	dep := s.exec(amm.NewDepositInstruction(id, liq, amm.DepositArgs{Amount: 1_000_000_000_000, MaxX: 1_000_000_000, MaxY: 1_000_000_000}))
	require.Equal(t, model.StatusOK, dep.Status)
	require.Equal(t, &model.Settlement{AmountX: 1_000_000_000, AmountY: 1_000_000_000, LP: 1_000_000_000_000}, dep.Settlement)
	require.Equal(t, uint64(1_000_000_000), dep.Pool.ReserveX)
	require.Equal(t, liq.Config.String(), dep.Pool.Address)

	swapAccts, err := amm.SwapAccountsFor(id, s.user, cfg)
	require.NoError(t, err)
	swap := s.exec(amm.NewSwapInstruction(id, swapAccts, amm.SwapArgs{IsX: true, Amount: 100_000_000, Min: 90_000_000}))
	require.Equal(t, uint64(90_661_089), swap.Settlement.AmountOut)
	require.Equal(t, uint64(300_000), swap.Settlement.Fee)
	require.Equal(t, uint64(1_100_000_000), swap.Pool.ReserveX)

	ix, err := amm.NewWithdrawInstruction(id, liq, amm.WithdrawArgs{Amount: 10_000_000_000, MinX: 100_000_000, MinY: 100_000_000})
	require.NoError(t, err)
	failed, err := s.rt.Execute(context.Background(), ix)
	require.ErrorIs(t, err, amm.ErrSlippageExceeded)
	require.Equal(t, model.StatusFailed, failed.Status)
	require.Equal(t, amm.Codespace, failed.Codespace)
	require.Equal(t, uint32(6002), failed.Code)
	require.Nil(t, failed.Settlement)
	require.Equal(t, swap.Pool.ReserveY, failed.Pool.ReserveY)

	require.Equal(t, uint64(10), s.rt.Seq())
	for i, record := range s.journal.records {
		require.Equal(t, uint64(i+1), record.Seq)
		require.NotEmpty(t, record.Accounts)
	}
	require.Greater(t, failed.Timestamp, dep.Timestamp)
}

func TestExecuteRejectsUnknownProgram(t *testing.T) {
	s := newScenario(t)
	before := s.rt.Seq()

	ix := solana.NewInstruction(solana.SystemProgramID, nil, []byte{1})
	_, err := s.rt.Execute(context.Background(), ix)
	require.Error(t, err)
	require.Equal(t, before, s.rt.Seq())
	require.Len(t, s.journal.records, int(before))
}

func TestTokenFailureIsJournaled(t *testing.T) {
	s := newScenario(t)
	stranger := solana.NewWallet().PublicKey()
	to, err := ledger.AccountAddress(s.user, s.mintX)
	require.NoError(t, err)

	ix, err := ledger.NewMintToInstruction(s.mintX, to, stranger, 1)
	require.NoError(t, err)
	record, err := s.rt.Execute(context.Background(), ix)
	require.ErrorIs(t, err, ledger.ErrOwnerMismatch)
	require.Equal(t, ledger.Codespace, record.Codespace)
	require.Equal(t, uint32(104), record.Code)
	require.Equal(t, ledger.InstructionMintTo, record.Instruction)
}

func TestSnapshotRestore(t *testing.T) {
	s := newScenario(t)
	cfg := s.initPool(3)
	snap := s.rt.Snapshot()
	require.Len(t, snap.Pools, 1)
	require.Equal(t, uint64(7), snap.Seq)

	other := New(Options{ProgramID: s.rt.Program().ID()})
	other.Restore(snap)
	require.Equal(t, snap.Seq, other.Seq())
	require.Equal(t, snap.Ledger, other.Ledger().Snapshot())

	pools, err := other.Program().Pools()
	require.NoError(t, err)
	require.Len(t, pools, 1)
	require.Equal(t, cfg, pools[0].Config)
}
