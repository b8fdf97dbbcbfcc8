package topicrepo

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rzbill/flo/internal/circuitbreaker"
	"github.com/rzbill/flo/internal/kafkaclient"
	"github.com/rzbill/flo/internal/publishing"
	"github.com/rzbill/flo/internal/telemetry"
	"github.com/rzbill/flo/pkg/log"
)

type pendingPublish struct {
	item    *publishing.BatchItem
	future  <-chan error
	breaker *circuitbreaker.Breaker
}

// SyncPostBatch publishes batch to topicID. Preconditions: every item has a
// non-empty Partition; violating this is a programming error the caller is
// responsible for, so it panics rather than returning an error.
//
// An empty batch is a no-op returning nil. On return (success or error)
// every item's status is SUBMITTED or FAILED with a non-empty detail.
func (r *Repository) SyncPostBatch(ctx context.Context, topicID string, batch []*publishing.BatchItem) error {
	if len(batch) == 0 {
		return nil
	}
	for _, item := range batch {
		if item.Partition == "" {
			panic("topicrepo: BatchItem.Partition must be set before SyncPostBatch")
		}
	}

	ctx, span := telemetry.StartPublishSpan(ctx, topicID, len(batch))
	defer span.End()

	var retErr error
	defer func() {
		submitted, failed := 0, 0
		for _, item := range batch {
			switch item.Response().Status {
			case publishing.StatusSubmitted:
				submitted++
			case publishing.StatusFailed:
				failed++
			}
		}
		telemetry.RecordPublishOutcome(ctx, span, submitted, failed, retErr)
	}()

	producer, err := r.pool.Take()
	if err != nil {
		failUnsubmitted(batch, "internal error")
		retErr = err
		return err
	}
	var needsReset atomic.Bool
	defer func() {
		if needsReset.Load() {
			r.pool.Terminate(producer)
		} else {
			r.pool.Release(producer)
		}
	}()

	r.assignBrokers(topicID, batch)

	futures := r.submitBatch(producer, topicID, batch)

	deadline := r.settings.KafkaSendTimeout + r.settings.RequestTimeout
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, p := range futures {
			wg.Add(1)
			go func(p pendingPublish) {
				defer wg.Done()
				r.awaitOne(p, &needsReset)
			}(p)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-timer.C:
		failUnsubmitted(batch, "timed out")
		retErr = &EventPublishingError{Reason: "timed out"}
		return retErr
	case <-ctx.Done():
		failUnsubmitted(batch, "interrupted")
		retErr = &EventPublishingError{Reason: "interrupted"}
		return retErr
	}

	retErr = sweep(batch)
	return retErr
}

// assignBrokers resolves each item's leader broker id, caching the lookup
// per partition since a batch commonly targets few distinct partitions.
// An item whose partition cannot be resolved is failed immediately and
// excluded from submission.
func (r *Repository) assignBrokers(topicID string, batch []*publishing.BatchItem) {
	brokerByPartition := make(map[string]string)
	for _, item := range batch {
		if brokerID, ok := brokerByPartition[item.Partition]; ok {
			item.BrokerID = brokerID
			continue
		}
		partInt, perr := strconv.ParseInt(item.Partition, 10, 32)
		if perr != nil {
			item.UpdateStatusAndDetail(publishing.StatusFailed, "internal error")
			continue
		}
		brokerID, err := kafkaclient.LeaderBrokerID(r.brokers, r.config, topicID, int32(partInt))
		if err != nil {
			item.UpdateStatusAndDetail(publishing.StatusFailed, "internal error")
			continue
		}
		brokerByPartition[item.Partition] = brokerID
		item.BrokerID = brokerID
	}
}

// submitBatch moves every still-eligible item to PUBLISHING, gates it
// through its broker's circuit breaker, and submits it to producer.
func (r *Repository) submitBatch(producer *kafkaclient.PooledProducer, topicID string, batch []*publishing.BatchItem) []pendingPublish {
	var futures []pendingPublish
	for _, item := range batch {
		if item.Response().Status == publishing.StatusFailed {
			continue // already failed during broker resolution
		}
		item.SetStep(publishing.StepPublishing)
		breaker := r.breakers.Get(item.BrokerID)
		if !breaker.AllowRequest() {
			item.UpdateStatusAndDetail(publishing.StatusFailed, "short circuited")
			continue
		}
		breaker.MarkStart()
		partInt, _ := strconv.ParseInt(item.Partition, 10, 32)
		future := producer.Submit(topicID, int32(partInt), []byte(item.Payload))
		futures = append(futures, pendingPublish{item: item, future: future, breaker: breaker})
	}
	return futures
}

// awaitOne waits for one item's producer callback and applies the per-item
// callback semantics: success marks SUBMITTED and the breaker healthy;
// failure marks FAILED/"internal error", classifies the error against the
// breaker, and flags the producer for termination on a needs-reset error.
func (r *Repository) awaitOne(p pendingPublish, needsReset *atomic.Bool) {
	err := <-p.future
	p.item.SetStep(publishing.StepPublished)
	if err == nil {
		p.item.UpdateStatusAndDetail(publishing.StatusSubmitted, "")
		p.breaker.MarkSuccessfully()
		return
	}
	p.item.UpdateStatusAndDetail(publishing.StatusFailed, "internal error")
	if kafkaclient.IsConnectionClassError(err) {
		p.breaker.MarkFailure()
	} else {
		p.breaker.MarkSuccessfully()
	}
	if kafkaclient.NeedsProducerReset(err) {
		needsReset.Store(true)
		if r.logger != nil {
			r.logger.Warn("publish observed needs-reset error, terminating producer", log.Err(err))
		}
	}
}

// failUnsubmitted marks every item that has not reached SUBMITTED as FAILED
// with detail, used on timeout and interrupt paths.
func failUnsubmitted(batch []*publishing.BatchItem, detail string) {
	for _, item := range batch {
		if item.Response().Status != publishing.StatusSubmitted {
			item.UpdateStatusAndDetail(publishing.StatusFailed, detail)
		}
	}
}

// sweep enforces the fail-sweep closure invariant: every item ends in
// SUBMITTED or FAILED with a non-empty detail, and returns an
// EventPublishingError if any item failed.
func sweep(batch []*publishing.BatchItem) error {
	failed := false
	for _, item := range batch {
		if item.Response().Status == publishing.StatusFailed {
			failed = true
			item.EnsureFailedDetail("internal error")
		}
	}
	if failed {
		return &EventPublishingError{Reason: "publish failed"}
	}
	return nil
}
