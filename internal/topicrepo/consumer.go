package topicrepo

import (
	"github.com/rzbill/flo/internal/cursor"
	"github.com/rzbill/flo/internal/kafkaclient"
)

// CreateEventConsumer validates cursors (reusing ValidateCursors) and
// returns an EventConsumer seeded with them, polling at the configured
// Kafka poll timeout.
func (r *Repository) CreateEventConsumer(cursors []cursor.TopicPosition) (*kafkaclient.EventConsumer, error) {
	validated, err := r.ValidateCursors(cursors)
	if err != nil {
		return nil, err
	}
	if len(validated) == 0 {
		return nil, nil
	}
	topic := validated[0].Topic
	return kafkaclient.NewEventConsumer(r.brokers, r.config, topic, validated, r.settings.KafkaPollTimeout)
}
