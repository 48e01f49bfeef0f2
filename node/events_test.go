package node

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xlc/dotpal-ctf/consensus"
)

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSink(zap.New(core))
	s.Deposit(SolutionAccepted{Who: alice, Difficulty: 20, NewScore: 640})
	s.Deposit(LotteryWinnerSelected{Who: alice, PointsAwarded: 800})

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	require.Equal(t, "SolutionAccepted", entries[0].Message)
	require.Equal(t, "events", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	require.Equal(t, alice.String(), fields["who"])
	require.Equal(t, uint64(640), fields["new_score"])
	require.Equal(t, uint64(800), entries[1].ContextMap()["points_awarded"])
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &MemorySink{}, &MemorySink{}
	m := MultiSink{a, b, NewLogSink(nil)}
	ev := Withdrawn{Who: consensus.AccountID{3}, Points: 9}
	m.Deposit(ev)
	require.Equal(t, []Event{ev}, a.Events())
	require.Equal(t, []Event{ev}, b.Events())

	a.Reset()
	require.Empty(t, a.Events())
}

func TestEventBufferFlush(t *testing.T) {
	buf := &eventBuffer{}
	buf.Deposit(LotteryEntryAdded{Who: alice})
	out := &MemorySink{}
	buf.flush(out)
	require.Len(t, out.Events(), 1)
	require.Empty(t, buf.events)
}
