package topicrepo

import "fmt"

// PartitionNotFoundError is returned by ValidateCursors when a cursor names
// a partition absent from the topic's current newest-position map.
type PartitionNotFoundError struct {
	Topic     string
	Partition string
}

func (e *PartitionNotFoundError) Error() string {
	return fmt.Sprintf("topicrepo: partition %s not found in topic %s", e.Partition, e.Topic)
}

// UnavailableError is returned by ValidateCursors when a cursor falls
// outside the currently retained window for its partition.
type UnavailableError struct {
	Topic     string
	Partition string
	Offset    string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("topicrepo: cursor (%s,%s,%s) is UNAVAILABLE", e.Topic, e.Partition, e.Offset)
}

// TopicCreationError wraps an administrative failure to create a topic.
type TopicCreationError struct {
	Err error
}

func (e *TopicCreationError) Error() string { return "topicrepo: topic creation failed: " + e.Err.Error() }
func (e *TopicCreationError) Unwrap() error  { return e.Err }

// EventPublishingError is returned by SyncPostBatch when one or more items
// in the batch could not be published. Callers must inspect each BatchItem's
// Response for per-item detail; Reason is a short human summary of the
// overall failure mode (e.g. "timed out", "publish failed", "interrupted").
type EventPublishingError struct {
	Reason string
}

func (e *EventPublishingError) Error() string { return "topicrepo: publish failed: " + e.Reason }
