package node

import (
	"context"
	"errors"

	"github.com/xlc/dotpal-ctf/consensus"
	"github.com/xlc/dotpal-ctf/crypto"
)

var ErrSolverExhausted = errors.New("solver: attempt budget exhausted")

const solverCtxCheckEvery = 1 << 12

// Solver searches work values off-chain. Verification never depends on it.
type Solver struct {
	hasher crypto.Hasher
	// MaxAttempts bounds a single Solve; zero means unbounded.
	MaxAttempts uint64
	metrics     *Metrics
}

func NewSolver(h crypto.Hasher, m *Metrics) *Solver {
	if h == nil {
		h = crypto.Default()
	}
	if m == nil {
		m = newNopMetrics()
	}
	return &Solver{hasher: h, metrics: m}
}

// Solve treats work as a little-endian counter starting at start and returns the
// first value that verifies, along with the number of candidates hashed.
func (s *Solver) Solve(
	ctx context.Context,
	who consensus.AccountID,
	nonce uint32,
	difficulty uint32,
	start consensus.Work,
) (consensus.Work, uint64, error) {
	if err := consensus.ValidateDifficulty(difficulty); err != nil {
		return consensus.Work{}, 0, err
	}
	work := start
	var attempts uint64
	defer func() { s.metrics.solverIterations.Add(float64(attempts)) }()
	for {
		if attempts%solverCtxCheckEvery == 0 && ctx != nil {
			select {
			case <-ctx.Done():
				return consensus.Work{}, attempts, ctx.Err()
			default:
			}
		}
		if s.MaxAttempts != 0 && attempts >= s.MaxAttempts {
			return consensus.Work{}, attempts, ErrSolverExhausted
		}
		attempts++
		if consensus.VerifyPow(s.hasher, who, nonce, difficulty, work) {
			return work, attempts, nil
		}
		incrementWork(&work)
	}
}

func incrementWork(w *consensus.Work) {
	for i := range w {
		w[i]++
		if w[i] != 0 {
			return
		}
	}
}
