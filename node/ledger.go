package node

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xlc/dotpal-ctf/consensus"
	"github.com/xlc/dotpal-ctf/crypto"
	"github.com/xlc/dotpal-ctf/node/store"
)

// ScoreLedger owns per-account score state. Disabled is terminal.
type ScoreLedger struct {
	hasher crypto.Hasher
	log    *zap.Logger
}

func NewScoreLedger(h crypto.Hasher, log *zap.Logger) *ScoreLedger {
	if h == nil {
		h = crypto.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ScoreLedger{hasher: h, log: log.Named("ledger")}
}

func (l *ScoreLedger) Get(st store.State, who consensus.AccountID) (consensus.ScoreState, error) {
	s, err := st.Score(who)
	if err != nil {
		return consensus.ScoreState{}, fmt.Errorf("read score: %w", err)
	}
	return s, nil
}

// SubmitSolution credits Award(difficulty) when work solves the challenge for (who, nonce).
// nonce is the account nonce seen at dispatch.
func (l *ScoreLedger) SubmitSolution(
	st store.State,
	ev EventSink,
	who consensus.AccountID,
	nonce uint64,
	difficulty uint32,
	work consensus.Work,
) (uint64, error) {
	if err := consensus.ValidateDifficulty(difficulty); err != nil {
		return 0, err
	}
	cur, err := l.Get(st, who)
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
	if !consensus.VerifyPow(l.hasher, who, challenge, difficulty, work) {
		return 0, consensus.NewTxError(consensus.CTF_ERR_BAD_PROOF,
			fmt.Sprintf("work %s does not meet difficulty %d", work, difficulty))
	}

	points := consensus.SaturatingAdd(cur.Points(), consensus.Award(difficulty))
	if err := st.PutScore(who, consensus.Enabled(points)); err != nil {
		return 0, fmt.Errorf("write score: %w", err)
	}
	ev.Deposit(SolutionAccepted{Who: who, Difficulty: difficulty, NewScore: points})
	l.log.Debug("solution accepted",
		zap.Stringer("who", who),
		zap.Uint32("difficulty", difficulty),
		zap.Uint64("score", points),
	)
	return points, nil
}

// Withdraw freezes the account and returns its final points.
func (l *ScoreLedger) Withdraw(st store.State, ev EventSink, who consensus.AccountID) (uint64, error) {
	cur, err := l.Get(st, who)
	if err != nil {
		return 0, err
	}
	if cur.IsDisabled() {
		return 0, consensus.ErrAlreadyWithdrawn
	}
	if err := st.PutScore(who, consensus.Disabled()); err != nil {
		return 0, fmt.Errorf("write score: %w", err)
	}
	points := cur.Points()
	ev.Deposit(Withdrawn{Who: who, Points: points})
	return points, nil
}

// AwardBonus adds amount to an enabled account.
func (l *ScoreLedger) AwardBonus(st store.State, who consensus.AccountID, amount uint64) (uint64, error) {
	cur, err := l.Get(st, who)
	if err != nil {
		return 0, err
	}
	if cur.IsDisabled() {
		return 0, consensus.ErrAlreadyWithdrawn
	}
	points := consensus.SaturatingAdd(cur.Points(), amount)
	if err := st.PutScore(who, consensus.Enabled(points)); err != nil {
		return 0, fmt.Errorf("write score: %w", err)
	}
	return points, nil
}
