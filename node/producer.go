package node

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xlc/dotpal-ctf/consensus"
)

var unixNow = func() int64 { return time.Now().Unix() }

type ProducerConfig struct {
	TimestampSource func() uint64
	MaxTxPerBlock   int
}

// ProducedBlock summarizes one tick.
type ProducedBlock struct {
	Height    uint64
	Timestamp uint64
	Applied   int
	Failed    int
	Dropped   int
	Receipts  []*Receipt
	Draw      *Draw
}

// Producer drives the runtime one block (tick) at a time: ready pool
// transactions first, then the tick hook exactly once.
type Producer struct {
	rt   *Runtime
	pool *TxPool
	cfg  ProducerConfig
	log  *zap.Logger
}

func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		TimestampSource: unixNowU64,
		MaxTxPerBlock:   1024,
	}
}

func NewProducer(rt *Runtime, pool *TxPool, cfg ProducerConfig) (*Producer, error) {
	if rt == nil {
		return nil, errors.New("nil runtime")
	}
	if pool == nil {
		return nil, errors.New("nil tx pool")
	}
	if cfg.TimestampSource == nil {
		cfg.TimestampSource = unixNowU64
	}
	if cfg.MaxTxPerBlock <= 0 {
		cfg.MaxTxPerBlock = 1024
	}
	return &Producer{rt: rt, pool: pool, cfg: cfg, log: rt.log.Named("producer")}, nil
}

func (p *Producer) ProduceN(ctx context.Context, blocks int) ([]ProducedBlock, error) {
	if blocks < 0 {
		return nil, errors.New("blocks must be >= 0")
	}
	out := make([]ProducedBlock, 0, blocks)
	for i := 0; i < blocks; i++ {
		pb, err := p.ProduceOne(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, *pb)
	}
	return out, nil
}

func (p *Producer) ProduceOne(ctx context.Context) (*ProducedBlock, error) {
	if p == nil || p.rt == nil || p.pool == nil {
		return nil, errors.New("producer is not initialized")
	}
	if ctx != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}

	height, err := p.nextHeight()
	if err != nil {
		return nil, err
	}
	pb := &ProducedBlock{Height: height, Timestamp: p.cfg.TimestampSource()}

	ready := p.pool.Ready()
	if len(ready) > p.cfg.MaxTxPerBlock {
		ready = ready[:p.cfg.MaxTxPerBlock]
	}
	for _, tx := range ready {
		id, err := consensus.TxID(p.rt.Hasher(), tx)
		if err != nil {
			return nil, err
		}
		rcpt, err := p.rt.ApplyTx(tx)
		p.pool.Remove(id)
		if err != nil {
			if !consensus.IsValidityError(err) {
				return nil, err
			}
			pb.Dropped++
			p.log.Debug("dropped tx", zap.Uint64("height", height), zap.Error(err))
			continue
		}
		pb.Receipts = append(pb.Receipts, rcpt)
		if rcpt.Err != nil {
			pb.Failed++
		} else {
			pb.Applied++
		}
	}

	pb.Draw = p.rt.OnTick(height)
	p.log.Debug("produced block",
		zap.Uint64("height", height),
		zap.Int("applied", pb.Applied),
		zap.Int("failed", pb.Failed),
		zap.Int("dropped", pb.Dropped),
	)
	return pb, nil
}

// Run produces a block every interval until ctx is done.
func (p *Producer) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("interval must be > 0")
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := p.ProduceOne(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func (p *Producer) nextHeight() (uint64, error) {
	h, ok, err := p.rt.Height()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return h + 1, nil
}

func unixNowU64() uint64 {
	now := unixNow()
	if now <= 0 {
		return 0
	}
	return uint64(now)
}
