package kafkaclient

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"
)

func TestIsConnectionClassError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, true},
		{"net error", &net.DNSError{IsTimeout: true}, true},
		{"request timed out", sarama.ErrRequestTimedOut, true},
		{"broker not available", sarama.ErrBrokerNotAvailable, true},
		{"not enough replicas", sarama.ErrNotEnoughReplicas, true},
		{"not enough replicas after append", sarama.ErrNotEnoughReplicasAfterAppend, true},
		{"out of brokers", sarama.ErrOutOfBrokers, true},
		{"not connected", sarama.ErrNotConnected, true},
		{"unrelated", errors.New("boom"), false},
		{"message too large is not connection class", sarama.ErrMessageTooLarge, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsConnectionClassError(tc.err))
		})
	}
}

func TestNeedsProducerReset(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"leader not available", sarama.ErrLeaderNotAvailable, true},
		{"unknown topic or partition", sarama.ErrUnknownTopicOrPartition, true},
		{"request timed out is not a reset condition", sarama.ErrRequestTimedOut, false},
		{"unrelated", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NeedsProducerReset(tc.err))
		})
	}
}
