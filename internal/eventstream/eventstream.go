// Package eventstream implements the EventStream producer: it pulls
// delivered records from an EventConsumer and writes framed batches to an
// HTTP response, honoring batch/stream limits and the controller's
// connectionReady cancellation flag. The specification treats this
// component's internal batching/flushing policy as a separate, externally
// specified concern; what follows is the minimal concrete policy needed to
// drive a runnable streaming controller.
package eventstream

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/rzbill/flo/internal/blacklist"
	"github.com/rzbill/flo/internal/cursor"
	"github.com/rzbill/flo/internal/kafkaclient"
	"github.com/rzbill/flo/internal/watcher"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config mirrors the GET /event-types/{name}/events query parameters that
// shape the streaming policy.
type Config struct {
	BatchLimit           int
	BatchFlushTimeout    time.Duration
	StreamLimit          int
	StreamTimeout        time.Duration
	StreamKeepAliveLimit int
}

// DefaultConfig matches the original's documented defaults: small batches
// flushed quickly, no stream limit, and occasional keepalives on an
// otherwise idle partition set.
func DefaultConfig() Config {
	return Config{
		BatchLimit:           1,
		BatchFlushTimeout:    30 * time.Second,
		StreamLimit:          0,
		StreamTimeout:        0,
		StreamKeepAliveLimit: 0,
	}
}

// Sink is the output side of a stream: a framed writer plus a flush hook,
// abstracting over the concrete HTTP response writer.
type Sink interface {
	Write(frame []byte) error
	Flush()
}

// wireBatch is one framed batch line: the cursor to resume after it, and the
// event payloads delivered in this batch ("" events on a keepalive frame).
type wireBatch struct {
	Cursor cursor.TopicPosition `json:"cursor"`
	Events []string             `json:"events,omitempty"`
}

// EventStream drives one streaming session from a consumer to a sink.
type EventStream struct {
	consumer  *kafkaclient.EventConsumer
	sink      Sink
	cfg       Config
	blacklist *blacklist.List
	clientID  string
	eventType string
}

// New builds an EventStream. blacklist may be nil, meaning no per-event
// filtering beyond the controller's admission check.
func New(consumer *kafkaclient.EventConsumer, sink Sink, cfg Config, bl *blacklist.List, clientID, eventTypeName string) *EventStream {
	return &EventStream{consumer: consumer, sink: sink, cfg: cfg, blacklist: bl, clientID: clientID, eventType: eventTypeName}
}

// StreamEvents runs until ready goes false, the stream limit/timeout is
// reached, or a consumer error occurs. It is the controller's one long-lived
// blocking call per request.
func (s *EventStream) StreamEvents(ctx context.Context, ready *watcher.ConnectionWatcher) error {
	var streamDeadline <-chan time.Time
	if s.cfg.StreamTimeout > 0 {
		timer := time.NewTimer(s.cfg.StreamTimeout)
		defer timer.Stop()
		streamDeadline = timer.C
	}

	delivered := 0
	var batch []string
	var lastCursor cursor.TopicPosition
	idleBatches := 0

	flush := func() error {
		if len(batch) == 0 {
			idleBatches++
			if s.cfg.StreamKeepAliveLimit > 0 && idleBatches < s.cfg.StreamKeepAliveLimit {
				return nil
			}
			idleBatches = 0
		} else {
			idleBatches = 0
		}
		frame, err := json.Marshal(wireBatch{Cursor: lastCursor, Events: batch})
		if err != nil {
			return err
		}
		frame = append(frame, '\n')
		if err := s.sink.Write(frame); err != nil {
			return err
		}
		s.sink.Flush()
		batch = batch[:0]
		return nil
	}

	for {
		if !ready.Ready() {
			return flush()
		}
		if s.cfg.StreamLimit > 0 && delivered >= s.cfg.StreamLimit {
			return flush()
		}
		select {
		case <-streamDeadline:
			return flush()
		case <-ctx.Done():
			return flush()
		default:
		}

		ev, ok, err := s.consumer.Next(ctx)
		if err != nil {
			_ = flush()
			return err
		}
		if !ok {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		if s.blacklist.Blocked(s.clientID, s.eventType) {
			continue
		}

		batch = append(batch, ev.Payload)
		lastCursor = ev.NextPosition
		delivered++

		if len(batch) >= s.cfg.BatchLimit {
			if err := flush(); err != nil {
				return err
			}
		}
	}
}
