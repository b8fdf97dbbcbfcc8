package kafkaclient

import (
	"context"
	"errors"
	"net"

	"github.com/IBM/sarama"
)

// IsConnectionClassError classifies an error as timeout/network/unknown-server
// class, per spec: only these outcomes count against a broker's circuit
// breaker. Every other failure means the broker accepted the request and
// the individual record failed for its own reasons.
func IsConnectionClassError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	switch {
	case errors.Is(err, sarama.ErrRequestTimedOut),
		errors.Is(err, sarama.ErrBrokerNotAvailable),
		errors.Is(err, sarama.ErrNotEnoughReplicas),
		errors.Is(err, sarama.ErrNotEnoughReplicasAfterAppend),
		errors.Is(err, sarama.ErrOutOfBrokers),
		errors.Is(err, sarama.ErrNotConnected):
		return true
	}
	return false
}

// NeedsProducerReset classifies an error as indicating the producer itself
// is poisoned against stale metadata and should be terminated so the pool
// replaces it with a fresh one: leader-not-available or
// unknown-topic-or-partition.
func NeedsProducerReset(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, sarama.ErrLeaderNotAvailable) || errors.Is(err, sarama.ErrUnknownTopicOrPartition)
}
