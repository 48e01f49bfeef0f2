package store

import (
	"errors"

	"github.com/xlc/dotpal-ctf/consensus"
)

var ErrReadOnly = errors.New("store: write in read-only transaction")

// State is the persisted surface seen by one transaction.
//
// Reads of absent keys return defaults: nonce 0, Enabled(0), no entry, count 0.
type State interface {
	AccountNonce(who consensus.AccountID) (uint64, error)
	SetAccountNonce(who consensus.AccountID, nonce uint64) error

	Score(who consensus.AccountID) (consensus.ScoreState, error)
	PutScore(who consensus.AccountID, s consensus.ScoreState) error

	HasLotteryEntry(who consensus.AccountID) (bool, error)
	PutLotteryEntry(who consensus.AccountID, entryNumber uint32) error
	DeleteLotteryEntry(who consensus.AccountID) error
	// LotteryEntries returns live entries in ascending account byte order.
	LotteryEntries() ([]consensus.AccountID, error)
	LotteryEntryCount() (uint32, error)
	SetLotteryEntryCount(n uint32) error
	LotteryRandomness() ([32]byte, bool, error)
	SetLotteryRandomness(r [32]byte) error

	Height() (uint64, bool, error)
	SetHeight(h uint64) error
}

// Backend runs State transactions. Update commits only when fn returns nil.
type Backend interface {
	Update(fn func(State) error) error
	View(fn func(State) error) error
	Close() error
}
