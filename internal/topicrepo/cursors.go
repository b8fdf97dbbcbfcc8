package topicrepo

import (
	"strconv"

	"github.com/rzbill/flo/internal/cursor"
	"github.com/rzbill/flo/internal/kafkaclient"
)

// LoadNewestPosition returns, for every partition of every given topic, the
// next-to-be-written position.
func (r *Repository) LoadNewestPosition(topics []string) ([]cursor.TopicPosition, error) {
	return r.positions.LoadNewestPositions(topics)
}

// LoadOldestPosition returns, per partition, the oldest available position;
// see kafkaclient.PositionReader.LoadOldestPositions for the
// positionOnExisting semantics.
func (r *Repository) LoadOldestPosition(topics []string, positionOnExisting bool) ([]cursor.TopicPosition, error) {
	return r.positions.LoadOldestPositions(topics, positionOnExisting)
}

// MaterializePositions returns a partition -> offset map suitable for
// initializing subscriptions at either boundary of topic.
func (r *Repository) MaterializePositions(topic string, boundary kafkaclient.Boundary) (map[string]string, error) {
	return r.positions.MaterializePositions(topic, boundary)
}

// ListPartitionNames returns the decimal partition-id strings for topic.
func (r *Repository) ListPartitionNames(topic string) ([]string, error) {
	return r.admin.ListPartitionNames(topic)
}

func distinctTopics(cursors []cursor.TopicPosition) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range cursors {
		if _, ok := seen[c.Topic]; ok {
			continue
		}
		seen[c.Topic] = struct{}{}
		out = append(out, c.Topic)
	}
	return out
}

func positionKey(topic, partition string) string { return topic + "|" + partition }

func toInternalMap(positions []cursor.TopicPosition) (map[string]cursor.InternalCursor, error) {
	m := make(map[string]cursor.InternalCursor, len(positions))
	for _, p := range positions {
		ic, err := p.ToInternal()
		if err != nil {
			return nil, err
		}
		m[positionKey(p.Topic, p.Partition)] = ic
	}
	return m, nil
}

// ValidateCursors validates cursors before streaming begins: it loads both
// the oldest and newest positions for every topic referenced, then checks
// each input cursor's partition exists and its offset lies within
// [oldest, newest]. It fails fast on the first invalid cursor.
func (r *Repository) ValidateCursors(cursors []cursor.TopicPosition) ([]cursor.InternalCursor, error) {
	topics := distinctTopics(cursors)
	oldestPositions, err := r.LoadOldestPosition(topics, false)
	if err != nil {
		return nil, err
	}
	newestPositions, err := r.LoadNewestPosition(topics)
	if err != nil {
		return nil, err
	}
	oldest, err := toInternalMap(oldestPositions)
	if err != nil {
		return nil, err
	}
	newest, err := toInternalMap(newestPositions)
	if err != nil {
		return nil, err
	}

	validated := make([]cursor.InternalCursor, 0, len(cursors))
	for _, c := range cursors {
		ic, err := c.ToInternal()
		if err != nil {
			return nil, err
		}
		key := positionKey(c.Topic, c.Partition)
		newestForPartition, ok := newest[key]
		if !ok {
			return nil, &PartitionNotFoundError{Topic: c.Topic, Partition: c.Partition}
		}
		if oldestForPartition, ok := oldest[key]; ok && ic.Compare(oldestForPartition) < 0 {
			return nil, &UnavailableError{Topic: c.Topic, Partition: c.Partition, Offset: c.Offset}
		}
		if ic.Compare(newestForPartition) > 0 {
			return nil, &UnavailableError{Topic: c.Topic, Partition: c.Partition, Offset: c.Offset}
		}
		validated = append(validated, ic)
	}
	return validated, nil
}

// ValidateCommitCursor verifies that c's partition exists on its topic and
// that c parses. It does not check the offset lies within the currently
// retained window: commits may legitimately reference records now aged out.
func (r *Repository) ValidateCommitCursor(c cursor.TopicPosition) error {
	if _, err := c.ToInternal(); err != nil {
		return err
	}
	names, err := r.ListPartitionNames(c.Topic)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == c.Partition {
			return nil
		}
	}
	return &PartitionNotFoundError{Topic: c.Topic, Partition: c.Partition}
}

// CompareOffsets orders two TopicPositions by their parsed offset value,
// without requiring they share a partition. Kept for commit-cursor ack/nack
// ordering callers that only need a numeric comparison.
func (r *Repository) CompareOffsets(a, b cursor.TopicPosition) (int, error) {
	ao, err := strconv.ParseInt(a.Offset, 10, 64)
	if err != nil {
		return 0, &cursor.FormatError{Kind: cursor.InvalidFormat}
	}
	bo, err := strconv.ParseInt(b.Offset, 10, 64)
	if err != nil {
		return 0, &cursor.FormatError{Kind: cursor.InvalidFormat}
	}
	switch {
	case ao < bo:
		return -1, nil
	case ao > bo:
		return 1, nil
	default:
		return 0, nil
	}
}
