// Package circuitbreaker implements a per-broker-id three-state failure
// suppression device protecting batched publish calls from a broker that is
// timing out or unreachable.
package circuitbreaker

import (
	"sync"
	"time"
)

// State is one of the three circuit breaker states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Open:
		return "OPEN"
	case HalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Settings configures every breaker created by a Registry.
type Settings struct {
	// WindowSize is the number of recent outcomes a breaker remembers.
	WindowSize int
	// FailureThreshold is the number of failures within the window that
	// trips CLOSED -> OPEN.
	FailureThreshold int
	// OpenTimeout is how long a breaker stays OPEN before the next
	// AllowRequest moves it to HALF_OPEN.
	OpenTimeout time.Duration
}

// DefaultSettings mirror the original Kafka-facing defaults: a short window,
// a handful of failures, and a brief cooldown, since a tripped broker is
// retried aggressively once requests start succeeding again.
func DefaultSettings() Settings {
	return Settings{
		WindowSize:       20,
		FailureThreshold: 5,
		OpenTimeout:      10 * time.Second,
	}
}

// Breaker is one broker's state machine. Safe for concurrent use.
type Breaker struct {
	mu       sync.Mutex
	settings Settings
	state    State
	outcomes []bool // true = failure, ring buffer
	next     int
	failures int
	openedAt time.Time
	inFlight int
	now      func() time.Time
}

func newBreaker(settings Settings) *Breaker {
	return &Breaker{
		settings: settings,
		state:    Closed,
		outcomes: make([]bool, 0, settings.WindowSize),
		now:      time.Now,
	}
}

// AllowRequest returns true in CLOSED/HALF_OPEN. In OPEN it returns false
// until the cooldown elapses, at which point it transitions to HALF_OPEN and
// allows the request that observed the transition. Every request is allowed
// while HALF_OPEN, until the next recorded outcome closes or reopens it.
func (b *Breaker) AllowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Closed, HalfOpen:
		return true
	case Open:
		if b.now().Sub(b.openedAt) >= b.settings.OpenTimeout {
			b.state = HalfOpen
			return true
		}
		return false
	default:
		return true
	}
}

// MarkStart records a request in flight.
func (b *Breaker) MarkStart() {
	b.mu.Lock()
	b.inFlight++
	b.mu.Unlock()
}

// MarkSuccessfully records a success. In HALF_OPEN this closes the breaker
// and resets its failure history.
func (b *Breaker) MarkSuccessfully() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.decInFlight()
	b.record(false)
	if b.state == HalfOpen {
		b.reset()
	}
}

// MarkFailure records a connection-class failure. Tripping to OPEN happens
// once FailureThreshold failures are present in the current window, or
// immediately from HALF_OPEN since a probe failure means the broker is
// still unhealthy.
func (b *Breaker) MarkFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.decInFlight()
	b.record(true)
	if b.state == HalfOpen {
		b.trip()
		return
	}
	if b.failures >= b.settings.FailureThreshold {
		b.trip()
	}
}

// State returns the breaker's current state, for diagnostics/tests.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) decInFlight() {
	if b.inFlight > 0 {
		b.inFlight--
	}
}

func (b *Breaker) record(failure bool) {
	if len(b.outcomes) < b.settings.WindowSize {
		b.outcomes = append(b.outcomes, failure)
	} else {
		evicted := b.outcomes[b.next]
		if evicted {
			b.failures--
		}
		b.outcomes[b.next] = failure
		b.next = (b.next + 1) % b.settings.WindowSize
	}
	if failure {
		b.failures++
	}
}

func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
}

func (b *Breaker) reset() {
	b.state = Closed
	b.failures = 0
	b.outcomes = b.outcomes[:0]
	b.next = 0
}

// Registry is a get-or-create keyed map of Breakers, one per broker id. The
// Topic Repository owns exactly one Registry for its process lifetime.
type Registry struct {
	settings Settings
	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// NewRegistry creates an empty registry using settings for every breaker it
// lazily creates.
func NewRegistry(settings Settings) *Registry {
	return &Registry{settings: settings, breakers: make(map[string]*Breaker)}
}

// Get returns the breaker for brokerID, creating it on first reference. A
// failure recorded against one broker id never affects another's state: each
// key owns an independent *Breaker instance and mutex.
func (r *Registry) Get(brokerID string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[brokerID]
	r.mu.RUnlock()
	if ok {
		return b
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok = r.breakers[brokerID]; ok {
		return b
	}
	b = newBreaker(r.settings)
	r.breakers[brokerID] = b
	return b
}
