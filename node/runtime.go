package node

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/xlc/dotpal-ctf/consensus"
	"github.com/xlc/dotpal-ctf/crypto"
	"github.com/xlc/dotpal-ctf/node/store"
)

// Runtime is the single writer over a store.Backend. It threads every
// transaction through CheckNonce and the call, and runs the per-tick hook.
type Runtime struct {
	mu      sync.Mutex
	backend store.Backend

	hasher  crypto.Hasher
	sink    EventSink
	log     *zap.Logger
	metrics *Metrics

	ledger  *ScoreLedger
	lottery *Lottery
}

type Option func(*Runtime)

func WithHasher(h crypto.Hasher) Option {
	return func(r *Runtime) { r.hasher = h }
}

func WithEventSink(s EventSink) Option {
	return func(r *Runtime) { r.sink = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) { r.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Runtime) { r.metrics = m }
}

// Receipt is the outcome of an included transaction. Err is the dispatch
// error; the nonce was consumed either way.
type Receipt struct {
	TxID   [32]byte
	Signer *consensus.AccountID
	Nonce  uint64
	Call   string
	Err    error
	Events []Event
}

func New(backend store.Backend, opts ...Option) (*Runtime, error) {
	if backend == nil {
		return nil, errors.New("nil backend")
	}
	r := &Runtime{backend: backend}
	for _, opt := range opts {
		opt(r)
	}
	if r.hasher == nil {
		r.hasher = crypto.Default()
	}
	if r.sink == nil {
		r.sink = nopSink{}
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.metrics == nil {
		r.metrics = newNopMetrics()
	}
	r.ledger = NewScoreLedger(r.hasher, r.log)
	r.lottery = NewLottery(r.hasher, r.ledger, r.log)
	return r, nil
}

func (r *Runtime) Hasher() crypto.Hasher { return r.hasher }

func (r *Runtime) Ledger() *ScoreLedger { return r.ledger }

func (r *Runtime) Lottery() *Lottery { return r.lottery }

// ValidateTx is read-only and may run concurrently with ApplyTx.
func (r *Runtime) ValidateTx(tx *consensus.Tx) (ValidTransaction, error) {
	if err := checkTxShape(tx); err != nil {
		return ValidTransaction{}, err
	}
	var vt ValidTransaction
	err := r.backend.View(func(st store.State) error {
		var err error
		vt, _, err = CheckNonce{Nonce: tx.Nonce}.Validate(st, tx.Signer)
		return err
	})
	return vt, err
}

// ApplyTx includes tx. Validity errors (stale or future nonce) are returned
// with no state change. Otherwise the nonce is committed first and the call
// runs in its own storage transaction, so a failed call keeps the nonce bump.
func (r *Runtime) ApplyTx(tx *consensus.Tx) (*Receipt, error) {
	if err := checkTxShape(tx); err != nil {
		return nil, err
	}
	txid, err := consensus.TxID(r.hasher, tx)
	if err != nil {
		return nil, err
	}
	callName := tx.Call.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	guard := CheckNonce{Nonce: tx.Nonce}
	var pre Pre
	if err := r.backend.Update(func(st store.State) error {
		_, val, err := guard.Validate(st, tx.Signer)
		if err != nil {
			return err
		}
		pre, err = guard.Prepare(st, val)
		return err
	}); err != nil {
		r.metrics.markTx(callName, resultOf(err))
		return nil, err
	}

	buf := &eventBuffer{}
	dispatchErr := r.backend.Update(func(st store.State) error {
		return r.dispatch(st, buf, tx)
	})
	_ = guard.PostDispatch(pre)

	rcpt := &Receipt{
		TxID:   txid,
		Signer: tx.Signer,
		Nonce:  tx.Nonce,
		Call:   callName,
		Err:    dispatchErr,
	}
	r.metrics.markTx(callName, resultOf(dispatchErr))
	if dispatchErr != nil {
		r.log.Debug("dispatch failed",
			zap.String("call", callName),
			zap.Uint64("nonce", tx.Nonce),
			zap.Error(dispatchErr),
		)
		return rcpt, nil
	}
	rcpt.Events = append([]Event(nil), buf.events...)
	for _, ev := range buf.events {
		r.observe(ev)
	}
	buf.flush(r.sink)
	return rcpt, nil
}

func (r *Runtime) dispatch(st store.State, ev EventSink, tx *consensus.Tx) error {
	if tx.Signer == nil {
		return consensus.ErrBadOrigin
	}
	who := *tx.Signer
	nonce, err := st.AccountNonce(who)
	if err != nil {
		return fmt.Errorf("read nonce: %w", err)
	}

	switch c := tx.Call.(type) {
	case consensus.SubmitSolution:
		_, err = r.ledger.SubmitSolution(st, ev, who, nonce, c.Difficulty, c.Work)
	case *consensus.SubmitSolution:
		_, err = r.ledger.SubmitSolution(st, ev, who, nonce, c.Difficulty, c.Work)
	case consensus.Withdraw, *consensus.Withdraw:
		_, err = r.ledger.Withdraw(st, ev, who)
	case consensus.EnterLottery:
		_, err = r.lottery.Enter(st, ev, who, nonce, c.Work)
	case *consensus.EnterLottery:
		_, err = r.lottery.Enter(st, ev, who, nonce, c.Work)
	default:
		err = fmt.Errorf("unknown call %T", tx.Call)
	}
	return err
}

// OnTick runs the lottery hook for height and records the height. A failing
// hook is rolled back, logged and counted; the height is still recorded.
func (r *Runtime) OnTick(height uint64) *Draw {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf := &eventBuffer{}
	var draw *Draw
	err := r.backend.Update(func(st store.State) error {
		var err error
		draw, err = r.lottery.OnTick(st, buf, height)
		if err != nil {
			return err
		}
		return st.SetHeight(height)
	})
	if err != nil {
		r.metrics.tickFailures.Inc()
		r.log.Error("lottery tick failed", zap.Uint64("height", height), zap.Error(err))
		if err := r.backend.Update(func(st store.State) error {
			return st.SetHeight(height)
		}); err != nil {
			r.log.Error("record height failed", zap.Uint64("height", height), zap.Error(err))
		}
		r.metrics.height.Set(float64(height))
		return nil
	}

	r.metrics.height.Set(float64(height))
	if draw != nil {
		r.metrics.lotteryEntries.Set(0)
		if draw.Paid {
			r.metrics.lotteryWinners.Inc()
		} else if draw.Winner != nil {
			r.metrics.lotteryForfeits.Inc()
		}
	}
	buf.flush(r.sink)
	return draw
}

// SeedRandomness installs the lottery accumulator on a backend that has none.
func (r *Runtime) SeedRandomness(seed [32]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.Update(func(st store.State) error {
		return r.lottery.Seed(st, seed)
	})
}

func (r *Runtime) observe(ev Event) {
	switch ev.(type) {
	case SolutionAccepted:
		r.metrics.solutions.Inc()
	case Withdrawn:
		r.metrics.withdrawals.Inc()
	case LotteryEntryAdded:
		r.metrics.lotteryEntries.Inc()
	}
}

func (r *Runtime) Score(who consensus.AccountID) (consensus.ScoreState, error) {
	var out consensus.ScoreState
	err := r.backend.View(func(st store.State) error {
		var err error
		out, err = r.ledger.Get(st, who)
		return err
	})
	return out, err
}

func (r *Runtime) Nonce(who consensus.AccountID) (uint64, error) {
	var out uint64
	err := r.backend.View(func(st store.State) error {
		var err error
		out, err = st.AccountNonce(who)
		return err
	})
	return out, err
}

func (r *Runtime) LotteryEntryCount() (uint32, error) {
	var out uint32
	err := r.backend.View(func(st store.State) error {
		var err error
		out, err = st.LotteryEntryCount()
		return err
	})
	return out, err
}

func (r *Runtime) LotteryEntries() ([]consensus.AccountID, error) {
	var out []consensus.AccountID
	err := r.backend.View(func(st store.State) error {
		var err error
		out, err = st.LotteryEntries()
		return err
	})
	return out, err
}

func (r *Runtime) LotteryRandomness() ([32]byte, bool, error) {
	var (
		out [32]byte
		ok  bool
	)
	err := r.backend.View(func(st store.State) error {
		var err error
		out, ok, err = st.LotteryRandomness()
		return err
	})
	return out, ok, err
}

func (r *Runtime) Height() (uint64, bool, error) {
	var (
		out uint64
		ok  bool
	)
	err := r.backend.View(func(st store.State) error {
		var err error
		out, ok, err = st.Height()
		return err
	})
	return out, ok, err
}

func checkTxShape(tx *consensus.Tx) error {
	if tx == nil {
		return errors.New("nil tx")
	}
	if tx.Call == nil {
		return errors.New("tx without call")
	}
	return nil
}

func resultOf(err error) string {
	if err == nil {
		return "ok"
	}
	if code, ok := consensus.CodeOf(err); ok {
		return string(code)
	}
	return "internal"
}
