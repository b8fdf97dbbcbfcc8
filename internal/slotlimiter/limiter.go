// Package slotlimiter implements per-(event-type, partition) admission
// control so that no more than a configured number of concurrent streams
// hold a reservation for the same partition. The ceiling is shared by all
// clients: the client id does not partition it.
package slotlimiter

import (
	"errors"
	"sync"
)

// ErrNoSlots is returned when acquiring a slot would exceed the configured
// ceiling for at least one requested partition.
var ErrNoSlots = errors.New("slotlimiter: no connection slots available")

// Slot is an opaque handle whose lifetime represents one client holding one
// reservation for (event type, partition). Release is idempotent: releasing
// the same Slot, or an empty list, more than once is a no-op.
type Slot struct {
	key      string
	released bool
}

// Limiter tracks, per (eventType, partition) key, how many slots are
// currently held, independent of which client holds them; the admission
// ceiling applies per key.
type Limiter struct {
	maxPerKey int

	mu     sync.Mutex
	counts map[string]int
}

// New creates a Limiter admitting at most maxPerKey concurrent slots per
// (eventType, partition) key.
func New(maxPerKey int) *Limiter {
	if maxPerKey <= 0 {
		maxPerKey = 1
	}
	return &Limiter{maxPerKey: maxPerKey, counts: make(map[string]int)}
}

func slotKey(eventTypeName, partition string) string {
	return eventTypeName + "|" + partition
}

// AcquireConnectionSlots acquires one slot per partition for clientID on
// eventTypeName. It is atomic across the partition list: either every
// partition is admitted or none are, and on partial failure anything already
// taken in this call is released before ErrNoSlots is returned. clientID is
// accepted for interface symmetry with the original per-client admission
// model; the ceiling enforced here is per (eventTypeName, partition), matching
// the teacher's per-stream (not per-subscriber) subscriber counters.
func (l *Limiter) AcquireConnectionSlots(clientID, eventTypeName string, partitions []string) ([]*Slot, error) {
	if len(partitions) == 0 {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	acquired := make([]*Slot, 0, len(partitions))
	for _, p := range partitions {
		key := slotKey(eventTypeName, p)
		if l.counts[key] >= l.maxPerKey {
			for _, s := range acquired {
				l.counts[s.key]--
				if l.counts[s.key] <= 0 {
					delete(l.counts, s.key)
				}
				s.released = true
			}
			return nil, ErrNoSlots
		}
		l.counts[key]++
		acquired = append(acquired, &Slot{key: key})
	}
	return acquired, nil
}

// ReleaseConnectionSlots releases every slot in slots. It tolerates an empty
// or nil list and is idempotent per Slot.
func (l *Limiter) ReleaseConnectionSlots(slots []*Slot) {
	if len(slots) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range slots {
		if s == nil || s.released {
			continue
		}
		s.released = true
		if l.counts[s.key] > 1 {
			l.counts[s.key]--
		} else {
			delete(l.counts, s.key)
		}
	}
}
