package node

import (
	"sync"

	"go.uber.org/zap"

	"github.com/xlc/dotpal-ctf/consensus"
)

//go:generate mockgen -destination=mock/event_sink.go -package=mock github.com/xlc/dotpal-ctf/node EventSink

// Event is an observable notification emitted by a committed operation.
type Event interface {
	EventName() string
}

type SolutionAccepted struct {
	Who        consensus.AccountID
	Difficulty uint32
	NewScore   uint64
}

type Withdrawn struct {
	Who    consensus.AccountID
	Points uint64
}

type LotteryEntryAdded struct {
	Who         consensus.AccountID
	EntryNumber uint32
}

type LotteryWinnerSelected struct {
	Who           consensus.AccountID
	PointsAwarded uint64
}

func (SolutionAccepted) EventName() string      { return "SolutionAccepted" }
func (Withdrawn) EventName() string             { return "Withdrawn" }
func (LotteryEntryAdded) EventName() string     { return "LotteryEntryAdded" }
func (LotteryWinnerSelected) EventName() string { return "LotteryWinnerSelected" }

type EventSink interface {
	Deposit(ev Event)
}

type nopSink struct{}

func (nopSink) Deposit(Event) {}

// MemorySink records events in order. Safe for concurrent use.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func (s *MemorySink) Deposit(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func (s *MemorySink) Reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}

// LogSink writes every event to a zap logger at info level.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSink{log: log.Named("events")}
}

func (s *LogSink) Deposit(ev Event) {
	s.log.Info(ev.EventName(), eventFields(ev)...)
}

func eventFields(ev Event) []zap.Field {
	switch e := ev.(type) {
	case SolutionAccepted:
		return []zap.Field{
			zap.Stringer("who", e.Who),
			zap.Uint32("difficulty", e.Difficulty),
			zap.Uint64("new_score", e.NewScore),
		}
	case Withdrawn:
		return []zap.Field{zap.Stringer("who", e.Who), zap.Uint64("points", e.Points)}
	case LotteryEntryAdded:
		return []zap.Field{zap.Stringer("who", e.Who), zap.Uint32("entry_number", e.EntryNumber)}
	case LotteryWinnerSelected:
		return []zap.Field{zap.Stringer("who", e.Who), zap.Uint64("points_awarded", e.PointsAwarded)}
	default:
		return []zap.Field{zap.Any("event", ev)}
	}
}

// MultiSink fans each event out to every sink in order.
type MultiSink []EventSink

func (m MultiSink) Deposit(ev Event) {
	for _, s := range m {
		s.Deposit(ev)
	}
}

// eventBuffer holds events raised inside a storage transaction until it commits.
type eventBuffer struct {
	events []Event
}

func (b *eventBuffer) Deposit(ev Event) { b.events = append(b.events, ev) }

func (b *eventBuffer) flush(to EventSink) {
	for _, ev := range b.events {
		to.Deposit(ev)
	}
	b.events = nil
}
