package kafkaclient

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/rzbill/flo/internal/cursor"
)

// EventConsumer streams records from a fixed set of starting cursors,
// merging every assigned partition's messages into a single channel ordered
// by arrival (per-partition order is preserved, cross-partition order is
// not, matching §5's ordering guarantees for the publish side and mirrored
// here for symmetry).
type EventConsumer struct {
	consumer    sarama.Consumer
	partConsumers []sarama.PartitionConsumer
	topic       string
	pollTimeout time.Duration

	events chan cursor.ConsumedEvent
	errs   chan error

	closeOnce sync.Once
}

// LeaderBrokerID returns the id of the broker currently leading partition on
// topic, used to assign each BatchItem its brokerID before publish.
func LeaderBrokerID(brokers []string, config *sarama.Config, topic string, partition int32) (string, error) {
	cfg := config
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	client, err := sarama.NewClient(brokers, cfg)
	if err != nil {
		return "", &ErrServiceUnavailable{Op: "leaderBroker", Err: err}
	}
	defer client.Close()
	broker, err := client.Leader(topic, partition)
	if err != nil {
		return "", &ErrServiceUnavailable{Op: "leaderBroker", Err: err}
	}
	return strconv.FormatInt(int64(broker.ID()), 10), nil
}

// NewEventConsumer opens partition consumers for topic seeded at cursors,
// each resuming immediately after its given offset, and applies pollTimeout
// as the bound on each poll iteration.
func NewEventConsumer(brokers []string, config *sarama.Config, topic string, cursors []cursor.InternalCursor, pollTimeout time.Duration) (*EventConsumer, error) {
	cfg := config
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	consumer, err := sarama.NewConsumer(brokers, cfg)
	if err != nil {
		return nil, &ErrServiceUnavailable{Op: "createEventConsumer", Err: err}
	}

	ec := &EventConsumer{
		consumer:    consumer,
		topic:       topic,
		pollTimeout: pollTimeout,
		events:      make(chan cursor.ConsumedEvent, 256),
		errs:        make(chan error, 1),
	}

	for _, c := range cursors {
		pc, err := consumer.ConsumePartition(topic, c.Partition, c.Offset+1)
		if err != nil {
			ec.Close()
			return nil, &ErrServiceUnavailable{Op: "createEventConsumer", Err: err}
		}
		ec.partConsumers = append(ec.partConsumers, pc)
		go ec.pump(pc, c.Partition)
	}
	return ec, nil
}

func (ec *EventConsumer) pump(pc sarama.PartitionConsumer, partition int32) {
	for {
		select {
		case msg, ok := <-pc.Messages():
			if !ok {
				return
			}
			ec.events <- cursor.ConsumedEvent{
				Payload: string(msg.Value),
				NextPosition: cursor.TopicPosition{
					Topic:     ec.topic,
					Partition: strconv.FormatInt(int64(partition), 10),
					Offset:    strconv.FormatInt(msg.Offset, 10),
				},
			}
		case err, ok := <-pc.Errors():
			if !ok {
				return
			}
			select {
			case ec.errs <- err.Err:
			default:
			}
		}
	}
}

// Next blocks up to the configured poll timeout for the next event across
// all assigned partitions. It returns (event, true, nil) on delivery,
// (zero, false, nil) on a poll timeout with nothing available, or a non-nil
// error if a partition consumer failed.
func (ec *EventConsumer) Next(ctx context.Context) (cursor.ConsumedEvent, bool, error) {
	timer := time.NewTimer(ec.pollTimeout)
	defer timer.Stop()
	select {
	case ev := <-ec.events:
		return ev, true, nil
	case err := <-ec.errs:
		return cursor.ConsumedEvent{}, false, err
	case <-ctx.Done():
		return cursor.ConsumedEvent{}, false, ctx.Err()
	case <-timer.C:
		return cursor.ConsumedEvent{}, false, nil
	}
}

// Close tears down every partition consumer and the underlying consumer.
func (ec *EventConsumer) Close() error {
	var firstErr error
	ec.closeOnce.Do(func() {
		for _, pc := range ec.partConsumers {
			if err := pc.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if err := ec.consumer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	return firstErr
}
