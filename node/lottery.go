package node

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/xlc/dotpal-ctf/consensus"
	"github.com/xlc/dotpal-ctf/crypto"
	"github.com/xlc/dotpal-ctf/node/store"
)

// Lottery accumulates entries and pays LOTTERY_BONUS to one of them once
// LOTTERY_THRESHOLD entries are live.
type Lottery struct {
	hasher crypto.Hasher
	ledger *ScoreLedger
	log    *zap.Logger
}

// Draw describes a winner selection.
type Draw struct {
	Index    uint32
	Entrants int
	// Winner is nil when no entry sat at Index.
	Winner *consensus.AccountID
	// Paid is false when the winner had withdrawn and the bonus was forfeited.
	Paid   bool
	Points uint64
}

func NewLottery(h crypto.Hasher, ledger *ScoreLedger, log *zap.Logger) *Lottery {
	if h == nil {
		h = crypto.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if ledger == nil {
		ledger = NewScoreLedger(h, log)
	}
	return &Lottery{hasher: h, ledger: ledger, log: log.Named("lottery")}
}

// Enter records who for the current round. The returned entry number is the
// count before the insert.
func (lt *Lottery) Enter(st store.State, ev EventSink, who consensus.AccountID, nonce uint64, work consensus.Work) (uint32, error) {
	cur, err := lt.ledger.Get(st, who)
	if err != nil {
		return 0, err
	}
	if cur.IsDisabled() {
		return 0, consensus.ErrScoreDisabled
	}
	challenge, err := consensus.ChallengeNonce(nonce)
	if err != nil {
		return 0, err
	}
	if !consensus.VerifyPow(lt.hasher, who, challenge, consensus.LOTTERY_DIFFICULTY, work) {
		return 0, consensus.NewTxError(consensus.CTF_ERR_BAD_PROOF, "lottery work rejected")
	}
	has, err := st.HasLotteryEntry(who)
	if err != nil {
		return 0, fmt.Errorf("read entry: %w", err)
	}
	if has {
		return 0, consensus.NewTxError(consensus.CTF_ERR_LOTTERY_ENTRY_FAILED, "already entered")
	}
	count, err := st.LotteryEntryCount()
	if err != nil {
		return 0, fmt.Errorf("read entry count: %w", err)
	}
	if count == math.MaxUint32 {
		return 0, consensus.NewTxError(consensus.CTF_ERR_LOTTERY_ENTRY_FAILED, "entry count overflow")
	}
	if err := st.PutLotteryEntry(who, count); err != nil {
		return 0, fmt.Errorf("write entry: %w", err)
	}
	if err := st.SetLotteryEntryCount(count + 1); err != nil {
		return 0, fmt.Errorf("write entry count: %w", err)
	}
	ev.Deposit(LotteryEntryAdded{Who: who, EntryNumber: count})
	return count, nil
}

// Seed installs the initial randomness accumulator. It refuses to overwrite an existing one.
func (lt *Lottery) Seed(st store.State, seed [32]byte) error {
	_, ok, err := st.LotteryRandomness()
	if err != nil {
		return err
	}
	if ok {
		return errors.New("lottery randomness already seeded")
	}
	return st.SetLotteryRandomness(seed)
}

// OnTick advances the accumulator and draws once the threshold is reached.
// A withdrawn winner forfeits the bonus without failing the tick.
func (lt *Lottery) OnTick(st store.State, ev EventSink, tick uint64) (*Draw, error) {
	r, ok, err := st.LotteryRandomness()
	if err != nil {
		return nil, fmt.Errorf("read randomness: %w", err)
	}
	if ok {
		if err := st.SetLotteryRandomness(consensus.EvolveRandomness(lt.hasher, r, tick)); err != nil {
			return nil, fmt.Errorf("write randomness: %w", err)
		}
	}

	count, err := st.LotteryEntryCount()
	if err != nil {
		return nil, fmt.Errorf("read entry count: %w", err)
	}
	if count < consensus.LOTTERY_THRESHOLD {
		return nil, nil
	}

	draw, err := lt.SelectWinner(st, ev)
	if errors.Is(err, consensus.ErrAlreadyWithdrawn) {
		lt.log.Warn("lottery bonus forfeited",
			zap.Uint64("tick", tick),
			zap.Stringer("winner", draw.Winner),
			zap.Error(err),
		)
		return draw, nil
	}
	if err != nil {
		return nil, err
	}
	return draw, nil
}

// SelectWinner picks the entry at WinnerIndex in ascending account order, clears
// every entry and resets the count. When the winner has withdrawn the cleanup is
// still applied to st and ErrAlreadyWithdrawn is returned alongside the draw.
func (lt *Lottery) SelectWinner(st store.State, ev EventSink) (*Draw, error) {
	count, err := st.LotteryEntryCount()
	if err != nil {
		return nil, fmt.Errorf("read entry count: %w", err)
	}
	var rp *[32]byte
	r, ok, err := st.LotteryRandomness()
	if err != nil {
		return nil, fmt.Errorf("read randomness: %w", err)
	}
	if ok {
		rp = &r
	}
	entries, err := st.LotteryEntries()
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}

	draw := &Draw{Index: consensus.WinnerIndex(rp, count), Entrants: len(entries)}
	for i, who := range entries {
		if uint32(i) == draw.Index { // #nosec G115 -- entries are bounded by the u32 count.
			w := who
			draw.Winner = &w
		}
		if err := st.DeleteLotteryEntry(who); err != nil {
			return nil, fmt.Errorf("delete entry: %w", err)
		}
	}
	if err := st.SetLotteryEntryCount(0); err != nil {
		return nil, fmt.Errorf("reset entry count: %w", err)
	}

	if draw.Winner == nil {
		lt.log.Warn("no entry at winner index",
			zap.Uint32("index", draw.Index),
			zap.Int("entrants", draw.Entrants),
		)
		return draw, nil
	}
	points, err := lt.ledger.AwardBonus(st, *draw.Winner, consensus.LOTTERY_BONUS)
	if err != nil {
		return draw, err
	}
	draw.Paid = true
	draw.Points = points
	ev.Deposit(LotteryWinnerSelected{Who: *draw.Winner, PointsAwarded: consensus.LOTTERY_BONUS})
	return draw, nil
}
