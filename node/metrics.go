package node

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	callLabel   = "call"
	resultLabel = "result"
)

type Metrics struct {
	txs              *prometheus.CounterVec
	solutions        prometheus.Counter
	withdrawals      prometheus.Counter
	lotteryEntries   prometheus.Gauge
	lotteryWinners   prometheus.Counter
	lotteryForfeits  prometheus.Counter
	tickFailures     prometheus.Counter
	height           prometheus.Gauge
	poolSize         prometheus.Gauge
	poolRejected     prometheus.Counter
	solverIterations prometheus.Counter
}

// NewMetrics registers the node collectors on registerer. A nil registerer leaves
// the collectors unregistered.
func NewMetrics(namespace string, registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		txs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_applied",
			Help:      "number of transactions applied, by call and result code",
		}, []string{callLabel, resultLabel}),
		solutions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solutions_accepted",
			Help:      "number of accepted PoW solutions",
		}),
		withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "withdrawals",
			Help:      "number of accounts that withdrew",
		}),
		lotteryEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lottery_entries",
			Help:      "entries in the current lottery round",
		}),
		lotteryWinners: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lottery_winners",
			Help:      "number of lottery rounds paid out",
		}),
		lotteryForfeits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lottery_forfeits",
			Help:      "number of lottery rounds whose winner had withdrawn",
		}),
		tickFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_failures",
			Help:      "number of per-tick hooks that failed and were rolled back",
		}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "height",
			Help:      "last produced tick",
		}),
		poolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "txpool_size",
			Help:      "transactions waiting in the pool",
		}),
		poolRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txpool_rejected",
			Help:      "transactions rejected on admission",
		}),
		solverIterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solver_iterations",
			Help:      "work candidates hashed by the local solver",
		}),
	}
	if registerer == nil {
		return m, nil
	}
	var errs []error
	for _, c := range []prometheus.Collector{
		m.txs,
		m.solutions,
		m.withdrawals,
		m.lotteryEntries,
		m.lotteryWinners,
		m.lotteryForfeits,
		m.tickFailures,
		m.height,
		m.poolSize,
		m.poolRejected,
		m.solverIterations,
	} {
		errs = append(errs, registerer.Register(c))
	}
	return m, errors.Join(errs...)
}

func newNopMetrics() *Metrics {
	m, _ := NewMetrics("", nil)
	return m
}

func (m *Metrics) markTx(call string, result string) {
	m.txs.With(prometheus.Labels{callLabel: call, resultLabel: result}).Inc()
}
