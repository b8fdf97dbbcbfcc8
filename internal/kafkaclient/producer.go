// Package kafkaclient wraps sarama with the producer-pool, admin, and
// position-query primitives the Topic Repository needs: per-item
// callback-driven publish, topic lifecycle, and short-lived client-backed
// position queries. Grounded on the teacher-adjacent
// series-kafka-SDK-Go's producer/consumer wrappers, generalized from a
// synchronous single-message Produce into the batch/callback shape
// syncPostBatch requires.
package kafkaclient

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/IBM/sarama"

	"github.com/rzbill/flo/pkg/log"
)

// ErrPoolClosed is returned by Take after the pool has been closed.
var ErrPoolClosed = errors.New("kafkaclient: producer pool closed")

// PooledProducer is one borrowed sarama.AsyncProducer plus the bookkeeping
// that turns its Successes()/Errors() channels into per-message futures.
type PooledProducer struct {
	producer sarama.AsyncProducer
	logger   log.Logger

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan error
	closed  bool
}

func newPooledProducer(producer sarama.AsyncProducer, logger log.Logger) *PooledProducer {
	p := &PooledProducer{
		producer: producer,
		logger:   logger,
		pending:  make(map[uint64]chan error),
	}
	go p.drainSuccesses()
	go p.drainErrors()
	return p
}

func (p *PooledProducer) drainSuccesses() {
	for msg := range p.producer.Successes() {
		p.complete(msg.Metadata, nil)
	}
}

func (p *PooledProducer) drainErrors() {
	for perr := range p.producer.Errors() {
		p.complete(perr.Msg.Metadata, perr.Err)
	}
}

func (p *PooledProducer) complete(metadata interface{}, err error) {
	id, ok := metadata.(uint64)
	if !ok {
		return
	}
	p.mu.Lock()
	ch, ok := p.pending[id]
	if ok {
		delete(p.pending, id)
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	ch <- err
}

// Submit hands payload to the producer for partition, returning a future
// that resolves with nil on success or the completion error on failure. The
// partition is pinned explicitly (sarama.ProducerMessage.Partition), since
// partition assignment already happened before syncPostBatch submits items.
func (p *PooledProducer) Submit(topic string, partition int32, payload []byte) <-chan error {
	ch := make(chan error, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		ch <- ErrPoolClosed
		return ch
	}
	id := p.nextID
	p.nextID++
	p.pending[id] = ch
	p.mu.Unlock()

	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Partition: partition,
		Value:     sarama.ByteEncoder(payload),
		Metadata:  id,
	}
	p.producer.Input() <- msg
	return ch
}

func (p *PooledProducer) close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()
	for _, ch := range pending {
		ch <- ErrPoolClosed
	}
	return p.producer.Close()
}

// ProducerPool hands out and reclaims PooledProducers. A producer that
// observed a needs-reset error is terminated rather than returned, so the
// pool replaces it with a fresh one on the next Take.
type ProducerPool struct {
	brokers []string
	config  *sarama.Config
	logger  log.Logger

	mu     sync.Mutex
	idle   []*PooledProducer
	closed atomic.Bool
}

// NewProducerPool builds a pool that lazily creates sarama.AsyncProducers
// against brokers as needed.
func NewProducerPool(brokers []string, config *sarama.Config, logger log.Logger) *ProducerPool {
	cfg := config
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	return &ProducerPool{brokers: brokers, config: cfg, logger: logger}
}

// Take returns an idle producer or creates one if none are idle.
func (pp *ProducerPool) Take() (*PooledProducer, error) {
	if pp.closed.Load() {
		return nil, ErrPoolClosed
	}
	pp.mu.Lock()
	if n := len(pp.idle); n > 0 {
		p := pp.idle[n-1]
		pp.idle = pp.idle[:n-1]
		pp.mu.Unlock()
		return p, nil
	}
	pp.mu.Unlock()

	ap, err := sarama.NewAsyncProducer(pp.brokers, pp.config)
	if err != nil {
		return nil, err
	}
	return newPooledProducer(ap, pp.logger), nil
}

// Release returns a still-healthy producer to the idle pool.
func (pp *ProducerPool) Release(p *PooledProducer) {
	if p == nil || pp.closed.Load() {
		return
	}
	pp.mu.Lock()
	pp.idle = append(pp.idle, p)
	pp.mu.Unlock()
}

// Terminate closes p and does not return it to the pool; the next Take
// creates a fresh producer with current metadata.
func (pp *ProducerPool) Terminate(p *PooledProducer) {
	if p == nil {
		return
	}
	if err := p.close(); err != nil && pp.logger != nil {
		pp.logger.Warn("producer terminate: close error", log.Err(err))
	}
}

// Close closes the pool and every idle producer in it.
func (pp *ProducerPool) Close() error {
	pp.closed.Store(true)
	pp.mu.Lock()
	idle := pp.idle
	pp.idle = nil
	pp.mu.Unlock()
	var firstErr error
	for _, p := range idle {
		if err := p.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
