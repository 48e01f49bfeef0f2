package node

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xlc/dotpal-ctf/consensus"
	"github.com/xlc/dotpal-ctf/crypto"
	"github.com/xlc/dotpal-ctf/node/store"
)

var alice = consensus.AccountID{1}

func workFromCounter(i uint64) consensus.Work {
	var w consensus.Work
	binary.LittleEndian.PutUint64(w[:8], i)
	return w
}

// Known solutions for alice: (challenge nonce, difficulty) -> counter.
var (
	aliceD20Nonce1 = workFromCounter(2022802)
	aliceD21Nonce2 = workFromCounter(697643)
)

func newTestLedger(t *testing.T) (*ScoreLedger, *store.MemDB) {
	t.Helper()
	return NewScoreLedger(crypto.Blake2b256{}, zaptest.NewLogger(t)), store.NewMemDB()
}

func TestScoreLedger_SubmitSolution(t *testing.T) {
	l, db := newTestLedger(t)
	sink := &MemorySink{}

	require.NoError(t, db.Update(func(st store.State) error {
		points, err := l.SubmitSolution(st, sink, alice, 1, 20, aliceD20Nonce1)
		require.NoError(t, err)
		require.Equal(t, uint64(640), points)

		points, err = l.SubmitSolution(st, sink, alice, 2, 21, aliceD21Nonce2)
		require.NoError(t, err)
		require.Equal(t, uint64(640+672), points)
		return nil
	}))
	require.Equal(t, []Event{
		SolutionAccepted{Who: alice, Difficulty: 20, NewScore: 640},
		SolutionAccepted{Who: alice, Difficulty: 21, NewScore: 1312},
	}, sink.Events())
}

func TestScoreLedger_SubmitRejects(t *testing.T) {
	l, db := newTestLedger(t)
	sink := &MemorySink{}
	require.NoError(t, db.Update(func(st store.State) error {
		_, err := l.SubmitSolution(st, sink, alice, 1, 0, aliceD20Nonce1)
		require.ErrorIs(t, err, consensus.ErrInvalidDifficulty)
		_, err = l.SubmitSolution(st, sink, alice, 1, 257, aliceD20Nonce1)
		require.ErrorIs(t, err, consensus.ErrInvalidDifficulty)

		// Right work, wrong challenge nonce.
		_, err = l.SubmitSolution(st, sink, alice, 2, 20, aliceD20Nonce1)
		require.ErrorIs(t, err, consensus.ErrBadProof)

		_, err = l.SubmitSolution(st, sink, alice, math.MaxUint32+1, 1, consensus.Work{})
		require.ErrorIs(t, err, consensus.ErrBadProof)

		s, err := l.Get(st, alice)
		require.NoError(t, err)
		require.Equal(t, consensus.Enabled(0), s)
		return nil
	}))
	require.Empty(t, sink.Events())
}

func TestScoreLedger_SubmitSaturates(t *testing.T) {
	l, db := newTestLedger(t)
	require.NoError(t, db.Update(func(st store.State) error {
		require.NoError(t, st.PutScore(alice, consensus.Enabled(math.MaxUint64-10)))
		points, err := l.SubmitSolution(st, nopSink{}, alice, 1, 20, aliceD20Nonce1)
		require.NoError(t, err)
		require.Equal(t, uint64(math.MaxUint64), points)
		return nil
	}))
}

func TestScoreLedger_Withdraw(t *testing.T) {
	l, db := newTestLedger(t)
	sink := &MemorySink{}
	require.NoError(t, db.Update(func(st store.State) error {
		_, err := l.SubmitSolution(st, sink, alice, 1, 20, aliceD20Nonce1)
		require.NoError(t, err)

		points, err := l.Withdraw(st, sink, alice)
		require.NoError(t, err)
		require.Equal(t, uint64(640), points)

		s, err := l.Get(st, alice)
		require.NoError(t, err)
		require.True(t, s.IsDisabled())

		_, err = l.Withdraw(st, sink, alice)
		require.ErrorIs(t, err, consensus.ErrAlreadyWithdrawn)

		_, err = l.SubmitSolution(st, sink, alice, 2, 21, aliceD21Nonce2)
		require.ErrorIs(t, err, consensus.ErrScoreDisabled)

		_, err = l.AwardBonus(st, alice, consensus.LOTTERY_BONUS)
		require.ErrorIs(t, err, consensus.ErrAlreadyWithdrawn)
		return nil
	}))
	require.Equal(t, []Event{
		SolutionAccepted{Who: alice, Difficulty: 20, NewScore: 640},
		Withdrawn{Who: alice, Points: 640},
	}, sink.Events())
}

func TestScoreLedger_WithdrawFreshAccount(t *testing.T) {
	l, db := newTestLedger(t)
	require.NoError(t, db.Update(func(st store.State) error {
		points, err := l.Withdraw(st, nopSink{}, consensus.AccountID{9})
		require.NoError(t, err)
		require.Zero(t, points)
		return nil
	}))
}

func TestScoreLedger_AwardBonus(t *testing.T) {
	l, db := newTestLedger(t)
	require.NoError(t, db.Update(func(st store.State) error {
		points, err := l.AwardBonus(st, alice, consensus.LOTTERY_BONUS)
		require.NoError(t, err)
		require.Equal(t, uint64(800), points)
		return nil
	}))
}
