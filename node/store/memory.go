package store

import (
	"maps"
	"sync"

	"github.com/google/btree"

	"github.com/xlc/dotpal-ctf/consensus"
)

const memEntriesDegree = 8

var _ Backend = (*MemDB)(nil)

// MemDB is an in-memory Backend. Each Update works on a copy that replaces
// the live state only when fn succeeds.
type MemDB struct {
	mu  sync.RWMutex
	cur *memState
}

func NewMemDB() *MemDB {
	return &MemDB{cur: newMemState()}
}

func (m *MemDB) Update(fn func(State) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.cur.clone()
	next.writable = true
	if err := fn(next); err != nil {
		return err
	}
	next.writable = false
	m.cur = next
	return nil
}

func (m *MemDB) View(fn func(State) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m.cur)
}

func (m *MemDB) Close() error { return nil }

type memState struct {
	writable bool

	nonces  map[consensus.AccountID]uint64
	scores  map[consensus.AccountID]consensus.ScoreState
	entries *btree.BTreeG[memEntry]

	entryCount    uint32
	randomness    [32]byte
	hasRandomness bool
	height        uint64
	hasHeight     bool
}

type memEntry struct {
	who    consensus.AccountID
	number uint32
}

func memEntryLess(a, b memEntry) bool { return a.who.Less(b.who) }

func newMemState() *memState {
	return &memState{
		nonces:  make(map[consensus.AccountID]uint64),
		scores:  make(map[consensus.AccountID]consensus.ScoreState),
		entries: btree.NewG(memEntriesDegree, memEntryLess),
	}
}

func (s *memState) clone() *memState {
	c := *s
	c.nonces = maps.Clone(s.nonces)
	c.scores = maps.Clone(s.scores)
	c.entries = s.entries.Clone()
	return &c
}

func (s *memState) AccountNonce(who consensus.AccountID) (uint64, error) {
	return s.nonces[who], nil
}

func (s *memState) SetAccountNonce(who consensus.AccountID, nonce uint64) error {
	if !s.writable {
		return ErrReadOnly
	}
	s.nonces[who] = nonce
	return nil
}

func (s *memState) Score(who consensus.AccountID) (consensus.ScoreState, error) {
	st, ok := s.scores[who]
	if !ok {
		return consensus.Enabled(0), nil
	}
	return st, nil
}

func (s *memState) PutScore(who consensus.AccountID, st consensus.ScoreState) error {
	if !s.writable {
		return ErrReadOnly
	}
	s.scores[who] = st
	return nil
}

func (s *memState) HasLotteryEntry(who consensus.AccountID) (bool, error) {
	return s.entries.Has(memEntry{who: who}), nil
}

func (s *memState) PutLotteryEntry(who consensus.AccountID, entryNumber uint32) error {
	if !s.writable {
		return ErrReadOnly
	}
	s.entries.ReplaceOrInsert(memEntry{who: who, number: entryNumber})
	return nil
}

func (s *memState) DeleteLotteryEntry(who consensus.AccountID) error {
	if !s.writable {
		return ErrReadOnly
	}
	s.entries.Delete(memEntry{who: who})
	return nil
}

func (s *memState) LotteryEntries() ([]consensus.AccountID, error) {
	out := make([]consensus.AccountID, 0, s.entries.Len())
	s.entries.Ascend(func(e memEntry) bool {
		out = append(out, e.who)
		return true
	})
	return out, nil
}

func (s *memState) LotteryEntryCount() (uint32, error) { return s.entryCount, nil }

func (s *memState) SetLotteryEntryCount(n uint32) error {
	if !s.writable {
		return ErrReadOnly
	}
	s.entryCount = n
	return nil
}

func (s *memState) LotteryRandomness() ([32]byte, bool, error) {
	return s.randomness, s.hasRandomness, nil
}

func (s *memState) SetLotteryRandomness(r [32]byte) error {
	if !s.writable {
		return ErrReadOnly
	}
	s.randomness = r
	s.hasRandomness = true
	return nil
}

func (s *memState) Height() (uint64, bool, error) { return s.height, s.hasHeight, nil }

func (s *memState) SetHeight(h uint64) error {
	if !s.writable {
		return ErrReadOnly
	}
	s.height = h
	s.hasHeight = true
	return nil
}
