// Package publishing holds the mutable per-event state tracked across one
// batched publish call: the publishing step and the final (status, detail)
// every caller inspects once the batch completes.
package publishing

import "sync"

// Step is where a BatchItem is in the per-item publish lifecycle.
type Step int

const (
	StepNone Step = iota
	StepPublishing
	StepPublished
)

// Status is the terminal outcome recorded on a BatchItem's Response.
type Status int

const (
	// StatusUnspecified is the zero value: a BatchItem that has not yet had
	// any outcome recorded against it. It is distinct from every terminal
	// status on purpose, so UpdateStatusAndDetail's "never downgrade a
	// submitted item" guard cannot mistake an untouched item for one that
	// already succeeded.
	StatusUnspecified Status = iota
	StatusSubmitted
	StatusFailed
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusUnspecified:
		return "UNSPECIFIED"
	case StatusSubmitted:
		return "SUBMITTED"
	case StatusFailed:
		return "FAILED"
	case StatusAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Response is the per-item publish outcome.
type Response struct {
	Status Status
	Detail string
}

// BatchItem is one event in a publish batch. It is exclusively owned by the
// publish call for its duration, but its Response is written concurrently
// from producer callback goroutines racing the aggregate wait, so every
// mutation goes through UpdateStatusAndDetail.
type BatchItem struct {
	Payload   string
	Partition string
	BrokerID  string

	mu       sync.Mutex
	step     Step
	response Response
}

// NewBatchItem constructs an item at StepNone with a not-yet-submitted
// partition assignment. Partition must be set by the caller before the item
// enters syncPostBatch; an empty Partition is a programming error the
// Topic Repository asserts against, not a runtime condition this type
// recovers from.
func NewBatchItem(payload, partition string) *BatchItem {
	return &BatchItem{Payload: payload, Partition: partition}
}

// Step returns the item's current publishing step.
func (i *BatchItem) Step() Step {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.step
}

// SetStep advances the publishing step. Callers are expected to only move
// it forward (NONE -> PUBLISHING -> PUBLISHED); this type does not itself
// reject a backward transition since the only caller is the single
// publishing goroutine driving one item at a time.
func (i *BatchItem) SetStep(step Step) {
	i.mu.Lock()
	i.step = step
	i.mu.Unlock()
}

// Response returns a copy of the item's current response.
func (i *BatchItem) Response() Response {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.response
}

// UpdateStatusAndDetail is the only mutator of Response. It enforces the two
// invariants callers rely on after a batch completes:
//   - once Status is SUBMITTED it is never downgraded;
//   - a non-empty Detail is never overwritten by a later, less specific one.
func (i *BatchItem) UpdateStatusAndDetail(status Status, detail string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.response.Status == StatusSubmitted {
		return
	}
	if i.response.Detail != "" && detail == "" {
		i.response.Status = status
		return
	}
	i.response.Status = status
	if detail != "" {
		i.response.Detail = detail
	}
}

// EnsureFailedDetail fills in a default detail for any item that ended up
// FAILED with no detail recorded, used by syncPostBatch's fail-sweep closure.
func (i *BatchItem) EnsureFailedDetail(defaultDetail string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.response.Status == StatusFailed && i.response.Detail == "" {
		i.response.Detail = defaultDetail
	}
}
