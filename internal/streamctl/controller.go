// Package streamctl implements the Streaming Controller: cursor parsing,
// admission control, and the request lifecycle serving
// GET /event-types/{name}/events.
package streamctl

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rzbill/flo/internal/blacklist"
	"github.com/rzbill/flo/internal/cursor"
	"github.com/rzbill/flo/internal/eventstream"
	"github.com/rzbill/flo/internal/eventtype"
	"github.com/rzbill/flo/internal/problem"
	"github.com/rzbill/flo/internal/slotlimiter"
	"github.com/rzbill/flo/internal/telemetry"
	"github.com/rzbill/flo/internal/topicrepo"
	"github.com/rzbill/flo/internal/watcher"
	"github.com/rzbill/flo/pkg/log"
)

// ScopeError means the requesting principal lacks a required read scope.
type ScopeError struct{ EventType string }

func (e *ScopeError) Error() string {
	return "streamctl: principal lacks read scope for " + e.EventType
}

// Principal is the authenticated caller; extraction (authentication itself)
// is out of scope and left to PrincipalFromRequest.
type Principal struct {
	ClientID string
	Scopes   []string
}

// PrincipalFromRequest extracts the caller's identity. Authentication
// policy is out of scope for the core; this default reads plain headers,
// adequate for a single-binary deployment behind a trusted proxy.
func PrincipalFromRequest(r *http.Request) Principal {
	scopesHeader := r.Header.Get("X-Flo-Scopes")
	var scopes []string
	if scopesHeader != "" {
		scopes = strings.Split(scopesHeader, ",")
	}
	return Principal{ClientID: r.Header.Get("X-Flo-Client-Id"), Scopes: scopes}
}

// counters tracks the per-event-type active consumers count the controller
// increments on admission and decrements on cleanup.
type counters struct {
	mu     sync.Mutex
	active map[string]int
}

func newCounters() *counters { return &counters{active: make(map[string]int)} }

func (c *counters) inc(eventType string) {
	c.mu.Lock()
	c.active[eventType]++
	c.mu.Unlock()
}

func (c *counters) dec(eventType string) {
	c.mu.Lock()
	if v := c.active[eventType]; v > 1 {
		c.active[eventType] = v - 1
	} else {
		delete(c.active, eventType)
	}
	c.mu.Unlock()
}

// ActiveConsumers returns the number of currently streaming consumers for
// eventType, for diagnostics.
func (c *counters) ActiveConsumers(eventType string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active[eventType]
}

// Controller serves GET /event-types/{name}/events.
type Controller struct {
	Repo       *topicrepo.Repository
	EventTypes *eventtype.Repository
	Limiter    *slotlimiter.Limiter
	Blacklist  *blacklist.List
	Logger     log.Logger

	// LimitConsumersNumber gates whether admission via Limiter is enforced,
	// mirroring the original's LIMIT_CONSUMERS_NUMBER feature toggle.
	LimitConsumersNumber bool

	counters *counters
}

// NewController wires a Controller over its collaborators.
func NewController(repo *topicrepo.Repository, eventTypes *eventtype.Repository, limiter *slotlimiter.Limiter, bl *blacklist.List, logger log.Logger) *Controller {
	return &Controller{
		Repo:                 repo,
		EventTypes:           eventTypes,
		Limiter:              limiter,
		Blacklist:            bl,
		Logger:               logger,
		LimitConsumersNumber: true,
		counters:             newCounters(),
	}
}

// ActiveConsumers exposes the per-event-type counter for diagnostics.
func (c *Controller) ActiveConsumers(eventType string) int {
	return c.counters.ActiveConsumers(eventType)
}

func queryDuration(r *http.Request, name string) time.Duration {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func queryInt(r *http.Request, name string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// ServeEvents implements the full request lifecycle of §4.4: admission,
// watcher installation, event-type/scope/topic checks, slot acquisition,
// streaming, and unconditional cleanup.
func (c *Controller) ServeEvents(w http.ResponseWriter, r *http.Request, eventTypeName string) {
	principal := PrincipalFromRequest(r)

	// 1. Admission check via blacklist.
	if c.Blacklist.Blocked(principal.ClientID, eventTypeName) {
		problem.Write(w, problem.New(http.StatusForbidden, "client is blocked"))
		return
	}

	// 2. Install the closed-connection watcher.
	ready := watcher.Watch(r.Context())
	defer ready.Disarm()

	// 3. Resolve the event type; check scopes.
	meta, err := c.EventTypes.Get(eventTypeName)
	if err != nil {
		problem.Write(w, problem.New(http.StatusNotFound, "topic not found"))
		return
	}
	if !meta.HasReadScope(principal.Scopes) {
		problem.Write(w, problem.New(http.StatusForbidden, (&ScopeError{EventType: eventTypeName}).Error()))
		return
	}

	// 4. Verify the topic exists.
	exists, err := c.Repo.TopicExists(meta.Topic)
	if err != nil || !exists {
		problem.Write(w, problem.New(http.StatusInternalServerError, "topic not found"))
		return
	}

	// 5. Build the stream configuration and resolve starting cursors.
	cfg := eventstream.Config{
		BatchLimit:           queryInt(r, "batch_limit"),
		BatchFlushTimeout:    queryDuration(r, "batch_flush_timeout"),
		StreamLimit:          queryInt(r, "stream_limit"),
		StreamTimeout:        queryDuration(r, "stream_timeout"),
		StreamKeepAliveLimit: queryInt(r, "stream_keep_alive_limit"),
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = eventstream.DefaultConfig().BatchLimit
	}
	if cfg.BatchFlushTimeout <= 0 {
		cfg.BatchFlushTimeout = eventstream.DefaultConfig().BatchFlushTimeout
	}

	start, err := getStreamingStart(c.Repo, meta.Topic, r.Header.Get("X-nakadi-cursors"))
	if err != nil {
		c.writeError(w, err)
		return
	}
	// Check the cursors against the partition bounds while an error status
	// can still be written.
	if _, err := c.Repo.ValidateCursors(start); err != nil {
		c.writeError(w, err)
		return
	}

	// 6. Acquire a connection slot per partition, if enabled.
	var slots []*slotlimiter.Slot
	if c.LimitConsumersNumber {
		partitions := make([]string, 0, len(start))
		for _, p := range start {
			partitions = append(partitions, p.Partition)
		}
		slots, err = c.Limiter.AcquireConnectionSlots(principal.ClientID, eventTypeName, partitions)
		if err != nil {
			problem.Write(w, problem.New(http.StatusServiceUnavailable, err.Error()))
			return
		}
	}
	// 7. Increment the per-event-type consumers counter.
	c.counters.inc(eventTypeName)
	telemetry.IncStreamConsumers(r.Context(), eventTypeName, 1)

	// 10. Cleanup, always.
	defer func() {
		ready.Disarm()
		c.Limiter.ReleaseConnectionSlots(slots)
		c.counters.dec(eventTypeName)
		telemetry.IncStreamConsumers(r.Context(), eventTypeName, -1)
	}()

	// 8. Write HTTP 200 and flush headers immediately.
	w.Header().Set("Content-Type", "application/x-json-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	// 9. Create the consumer, construct the EventStream, and drive it.
	consumer, err := c.Repo.CreateEventConsumer(start)
	if err != nil {
		c.Logger.Error("failed to create event consumer", log.Err(err), log.Str("event_type", eventTypeName))
		return
	}
	defer consumer.Close()

	ctx, span := telemetry.StartStreamSpan(r.Context(), eventTypeName)
	defer span.End()

	sink := httpSink{w: w}
	stream := eventstream.New(consumer, sink, cfg, c.Blacklist, principal.ClientID, eventTypeName)
	if err := stream.StreamEvents(ctx, ready); err != nil {
		span.RecordError(err)
		c.Logger.Warn("stream ended with error", log.Err(err), log.Str("event_type", eventTypeName))
	}
}

// writeError implements §4.4's error mapping table.
func (c *Controller) writeError(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *UnparseableCursorError:
		problem.Write(w, problem.New(http.StatusBadRequest, "incorrect syntax of X-nakadi-cursors header"))
	case *cursor.FormatError:
		problem.Write(w, problem.New(http.StatusPreconditionFailed, "cursor "+e.Kind.String()))
	case *topicrepo.PartitionNotFoundError:
		problem.Write(w, problem.New(http.StatusPreconditionFailed, e.Error()))
	case *topicrepo.UnavailableError:
		problem.Write(w, problem.New(http.StatusPreconditionFailed, "cursor UNAVAILABLE"))
	case *ScopeError:
		problem.Write(w, problem.New(http.StatusForbidden, e.Error()))
	default:
		problem.Write(w, problem.New(http.StatusInternalServerError, err.Error()))
	}
}

type httpSink struct {
	w http.ResponseWriter
}

func (s httpSink) Write(frame []byte) error {
	_, err := s.w.Write(frame)
	return err
}

func (s httpSink) Flush() {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}
