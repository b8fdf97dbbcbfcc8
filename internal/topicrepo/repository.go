// Package topicrepo implements the Topic Repository: topic lifecycle,
// position queries, cursor validation, batched publish, and the consumer
// factory backing the streaming controller. It is the 45%-share core of the
// system: every other publish-path component (circuit breaker, producer
// pool) is exercised from here, and every consume-path component other than
// the streaming controller itself (cursor validation, consumer factory)
// lives here too.
package topicrepo

import (
	"time"

	"github.com/IBM/sarama"

	"github.com/rzbill/flo/internal/circuitbreaker"
	"github.com/rzbill/flo/internal/kafkaclient"
	"github.com/rzbill/flo/pkg/log"
)

// Settings configures timeouts and defaults used across the Topic
// Repository's operations, sourced from the process Config.
type Settings struct {
	KafkaSendTimeout    time.Duration
	RequestTimeout      time.Duration
	KafkaPollTimeout    time.Duration
	ReplicationFactor   int16
	TopicRotationMs     int64
	DefaultRetentionMs  int64
}

// Repository is the Topic Repository. It owns the circuit-breaker registry
// exclusively; the producer pool, admin client, and position reader are its
// collaborators over the shared broker list.
type Repository struct {
	brokers  []string
	config   *sarama.Config
	settings Settings
	logger   log.Logger

	pool      *kafkaclient.ProducerPool
	admin     *kafkaclient.Admin
	positions *kafkaclient.PositionReader
	breakers  *circuitbreaker.Registry
}

// New builds a Repository dialing brokers for every collaborator it owns.
func New(brokers []string, config *sarama.Config, settings Settings, logger log.Logger) *Repository {
	cfg := config
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	return &Repository{
		brokers:   brokers,
		config:    cfg,
		settings:  settings,
		logger:    logger,
		pool:      kafkaclient.NewProducerPool(brokers, cfg, logger),
		admin:     kafkaclient.NewAdmin(brokers, cfg, settings.ReplicationFactor),
		positions: kafkaclient.NewPositionReader(brokers, cfg),
		breakers:  circuitbreaker.NewRegistry(circuitbreaker.DefaultSettings()),
	}
}

// Close releases the repository's producer pool.
func (r *Repository) Close() error {
	return r.pool.Close()
}

// CreateTopic creates a topic with partitionCount partitions and retentionMs
// retention, returning its randomly generated id. Fails with
// kafkaclient.ErrTopicExists when the topic is already present.
func (r *Repository) CreateTopic(partitionCount int32, retentionMs int64) (string, error) {
	if retentionMs <= 0 {
		retentionMs = r.settings.DefaultRetentionMs
	}
	topicID, err := r.admin.CreateTopic(partitionCount, retentionMs)
	if err != nil {
		return "", &TopicCreationError{Err: err}
	}
	return topicID, nil
}

// DeleteTopic issues an asynchronous deletion request for topic.
func (r *Repository) DeleteTopic(topic string) error {
	return r.admin.DeleteTopic(topic)
}

// TopicExists reports whether topic is present.
func (r *Repository) TopicExists(topic string) (bool, error) {
	return r.admin.TopicExists(topic)
}
