package topicrepo_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/flo/internal/cursor"
	"github.com/rzbill/flo/internal/publishing"
	"github.com/rzbill/flo/internal/topicrepo"
	"github.com/rzbill/flo/pkg/log"
)

// TestPublishThenStreamAgainstRealBroker publishes a batch and streams it
// back end to end. It requires a live Kafka cluster and is skipped by
// default, mirroring the original acceptance suite that separated
// mocked unit coverage from a real-cluster smoke test.
func TestPublishThenStreamAgainstRealBroker(t *testing.T) {
	addr := os.Getenv("FLO_KAFKA_ADDR")
	if addr == "" {
		t.Skip("FLO_KAFKA_ADDR not set; skipping broker-backed acceptance test")
	}
	brokers := strings.Split(addr, ",")

	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Version = sarama.V2_6_0_0

	repo := topicrepo.New(brokers, sc, topicrepo.Settings{
		KafkaSendTimeout:   5 * time.Second,
		RequestTimeout:     5 * time.Second,
		KafkaPollTimeout:   time.Second,
		ReplicationFactor:  1,
		DefaultRetentionMs: int64(time.Hour / time.Millisecond),
	}, log.NewLogger())
	defer repo.Close()

	topicID, err := repo.CreateTopic(1, 0)
	require.NoError(t, err)

	batch := []*publishing.BatchItem{
		publishing.NewBatchItem(`{"hello":"world"}`, "0"),
	}
	err = repo.SyncPostBatch(context.Background(), topicID, batch)
	require.NoError(t, err)
	require.Equal(t, publishing.StatusSubmitted, batch[0].Response().Status)

	oldest, err := repo.LoadOldestPosition([]string{topicID}, false)
	require.NoError(t, err)
	require.Len(t, oldest, 1)

	consumer, err := repo.CreateEventConsumer([]cursor.TopicPosition{oldest[0]})
	require.NoError(t, err)
	defer consumer.Close()

	ev, ok, err := consumer.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"hello":"world"}`, ev.Payload)
}
