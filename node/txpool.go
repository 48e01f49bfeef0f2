package node

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/xlc/dotpal-ctf/consensus"
)

var (
	ErrTxDuplicate        = errors.New("tx already in pool")
	ErrTxRecentlyRejected = errors.New("tx recently rejected")
	ErrTxPoolFull         = errors.New("tx pool full")
)

type TxPoolConfig struct {
	MaxSize         int
	RejectCacheSize int
}

func DefaultTxPoolConfig() TxPoolConfig {
	return TxPoolConfig{
		MaxSize:         4096,
		RejectCacheSize: 1024,
	}
}

// TxPool orders pending transactions by the requires/provides tags of CheckNonce.
type TxPool struct {
	mu       sync.Mutex
	rt       *Runtime
	cfg      TxPoolConfig
	metrics  *Metrics
	txs      map[[32]byte]*consensus.Tx
	rejected *lru.Cache
}

func NewTxPool(rt *Runtime, cfg TxPoolConfig) (*TxPool, error) {
	if rt == nil {
		return nil, errors.New("nil runtime")
	}
	def := DefaultTxPoolConfig()
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = def.MaxSize
	}
	if cfg.RejectCacheSize <= 0 {
		cfg.RejectCacheSize = def.RejectCacheSize
	}
	rejected, err := lru.New(cfg.RejectCacheSize)
	if err != nil {
		return nil, fmt.Errorf("reject cache: %w", err)
	}
	return &TxPool{
		rt:       rt,
		cfg:      cfg,
		metrics:  rt.metrics,
		txs:      make(map[[32]byte]*consensus.Tx),
		rejected: rejected,
	}, nil
}

// Add admits tx after validating it against current state.
func (p *TxPool) Add(tx *consensus.Tx) ([32]byte, error) {
	if err := checkTxShape(tx); err != nil {
		return [32]byte{}, err
	}
	id, err := consensus.TxID(p.rt.Hasher(), tx)
	if err != nil {
		return [32]byte{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.rejected.Get(id); ok {
		p.metrics.poolRejected.Inc()
		return id, fmt.Errorf("%w: %v", ErrTxRecentlyRejected, v)
	}
	if _, ok := p.txs[id]; ok {
		return id, ErrTxDuplicate
	}
	if len(p.txs) >= p.cfg.MaxSize {
		p.metrics.poolRejected.Inc()
		return id, ErrTxPoolFull
	}
	if _, err := p.rt.ValidateTx(tx); err != nil {
		p.rejected.Add(id, err)
		p.metrics.poolRejected.Inc()
		return id, err
	}
	p.txs[id] = tx
	p.metrics.poolSize.Set(float64(len(p.txs)))
	return id, nil
}

type poolItem struct {
	id  [32]byte
	tx  *consensus.Tx
	req [][]byte
	pro [][]byte
}

// Ready revalidates the pool and returns transactions whose requirements are
// met, in release order. Stale transactions are evicted.
func (p *TxPool) Ready() []*consensus.Tx {
	p.mu.Lock()
	defer p.mu.Unlock()

	items := make([]poolItem, 0, len(p.txs))
	for id, tx := range p.txs {
		vt, err := p.rt.ValidateTx(tx)
		if err != nil {
			delete(p.txs, id)
			p.rejected.Add(id, err)
			continue
		}
		items = append(items, poolItem{id: id, tx: tx, req: vt.Requires, pro: vt.Provides})
	}
	p.metrics.poolSize.Set(float64(len(p.txs)))
	sort.Slice(items, func(i, j int) bool { return txLess(items[i], items[j]) })

	provided := make(map[string]struct{})
	out := make([]*consensus.Tx, 0, len(items))
	for _, it := range items {
		ok := true
		for _, tag := range it.req {
			if _, has := provided[string(tag)]; !has {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for _, tag := range it.pro {
			provided[string(tag)] = struct{}{}
		}
		out = append(out, it.tx)
	}
	return out
}

// Unsigned first, then by signer bytes, nonce and id.
func txLess(a, b poolItem) bool {
	as, bs := a.tx.Signer, b.tx.Signer
	switch {
	case as == nil && bs != nil:
		return true
	case as != nil && bs == nil:
		return false
	case as != nil && bs != nil:
		if c := bytes.Compare(as[:], bs[:]); c != 0 {
			return c < 0
		}
	}
	if a.tx.Nonce != b.tx.Nonce {
		return a.tx.Nonce < b.tx.Nonce
	}
	return bytes.Compare(a.id[:], b.id[:]) < 0
}

func (p *TxPool) Remove(ids ...[32]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ids {
		delete(p.txs, id)
	}
	p.metrics.poolSize.Set(float64(len(p.txs)))
}

func (p *TxPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.txs)
}
