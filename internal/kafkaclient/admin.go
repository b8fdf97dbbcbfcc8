package kafkaclient

import (
	"errors"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// ErrTopicExists is returned by CreateTopic when the topic is already
// present (including pending deletion).
var ErrTopicExists = errors.New("kafkaclient: topic already exists")

// ErrServiceUnavailable wraps any coordination-service/broker failure
// encountered by the admin or position-query helpers.
type ErrServiceUnavailable struct {
	Op  string
	Err error
}

func (e *ErrServiceUnavailable) Error() string {
	return "kafkaclient: service unavailable during " + e.Op + ": " + e.Err.Error()
}

func (e *ErrServiceUnavailable) Unwrap() error { return e.Err }

// Admin performs topic lifecycle operations. Each call opens a scoped
// sarama.ClusterAdmin, uses it, and closes it, mirroring the original's
// isolated coordination-service session per admin action rather than
// holding one open for the process lifetime.
type Admin struct {
	brokers           []string
	config            *sarama.Config
	replicationFactor int16
}

// NewAdmin builds an Admin dialing brokers with the given replication
// factor applied to every created topic.
func NewAdmin(brokers []string, config *sarama.Config, replicationFactor int16) *Admin {
	cfg := config
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	return &Admin{brokers: brokers, config: cfg, replicationFactor: replicationFactor}
}

func (a *Admin) withAdmin(op string, fn func(sarama.ClusterAdmin) error) error {
	admin, err := sarama.NewClusterAdmin(a.brokers, a.config)
	if err != nil {
		return &ErrServiceUnavailable{Op: op, Err: err}
	}
	defer admin.Close()
	if err := fn(admin); err != nil {
		return err
	}
	return nil
}

// CreateTopic creates a new topic with partitionCount partitions and
// retentionMs retention, returning the randomly generated topic id used as
// its name. Fails with ErrTopicExists if the topic is already present.
func (a *Admin) CreateTopic(partitionCount int32, retentionMs int64) (string, error) {
	topicID := uuid.NewString()
	retention := strconv.FormatInt(retentionMs, 10)
	err := a.withAdmin("createTopic", func(admin sarama.ClusterAdmin) error {
		existing, err := admin.ListTopics()
		if err != nil {
			return &ErrServiceUnavailable{Op: "createTopic", Err: err}
		}
		if _, ok := existing[topicID]; ok {
			return ErrTopicExists
		}
		detail := &sarama.TopicDetail{
			NumPartitions:     partitionCount,
			ReplicationFactor: a.replicationFactor,
			ConfigEntries: map[string]*string{
				"retention.ms": &retention,
			},
		}
		if err := admin.CreateTopic(topicID, detail, false); err != nil {
			if errors.Is(err, sarama.ErrTopicAlreadyExists) {
				return ErrTopicExists
			}
			return &ErrServiceUnavailable{Op: "createTopic", Err: err}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return topicID, nil
}

// DeleteTopic issues an asynchronous deletion request for topic.
func (a *Admin) DeleteTopic(topic string) error {
	return a.withAdmin("deleteTopic", func(admin sarama.ClusterAdmin) error {
		if err := admin.DeleteTopic(topic); err != nil {
			return &ErrServiceUnavailable{Op: "deleteTopic", Err: err}
		}
		return nil
	})
}

// TopicExists reports whether topic is present, via listing.
func (a *Admin) TopicExists(topic string) (bool, error) {
	var exists bool
	err := a.withAdmin("topicExists", func(admin sarama.ClusterAdmin) error {
		topics, err := admin.ListTopics()
		if err != nil {
			return &ErrServiceUnavailable{Op: "topicExists", Err: err}
		}
		_, exists = topics[topic]
		return nil
	})
	return exists, err
}

// ListPartitionNames returns the decimal partition-id strings for topic,
// used by commit-cursor validation to check partition existence without
// loading full position data.
func (a *Admin) ListPartitionNames(topic string) ([]string, error) {
	var names []string
	err := a.withAdmin("listPartitionNames", func(admin sarama.ClusterAdmin) error {
		metas, err := admin.DescribeTopics([]string{topic})
		if err != nil {
			return &ErrServiceUnavailable{Op: "listPartitionNames", Err: err}
		}
		for _, m := range metas {
			if m.Err != sarama.ErrNoError {
				return &ErrServiceUnavailable{Op: "listPartitionNames", Err: m.Err}
			}
			for _, p := range m.Partitions {
				names = append(names, strconv.FormatInt(int64(p.ID), 10))
			}
		}
		return nil
	})
	return names, err
}
