package streamctl

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/rzbill/flo/internal/cursor"
	"github.com/rzbill/flo/internal/topicrepo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// UnparseableCursorError means the X-nakadi-cursors header was present but
// was not valid JSON in the expected shape.
type UnparseableCursorError struct{ Err error }

func (e *UnparseableCursorError) Error() string {
	return "streamctl: unparseable cursor header: " + e.Err.Error()
}
func (e *UnparseableCursorError) Unwrap() error { return e.Err }

type wireCursor struct {
	Partition string `json:"partition"`
	Offset    string `json:"offset"`
}

// getStreamingStart implements §4.4's cursor parse: absent header starts
// from the newest position of every partition; BEGIN entries are resolved
// to the topic's oldest position (loaded at most once); everything else is
// taken as an explicit position.
func getStreamingStart(repo *topicrepo.Repository, topic string, header string) ([]cursor.TopicPosition, error) {
	if header == "" {
		return repo.LoadNewestPosition([]string{topic})
	}

	var entries []wireCursor
	if err := json.Unmarshal([]byte(header), &entries); err != nil {
		return nil, &UnparseableCursorError{Err: err}
	}

	var oldest map[string]string // partition -> offset, lazily loaded
	resolveOldest := func(partition string) (string, error) {
		if oldest == nil {
			positions, err := repo.LoadOldestPosition([]string{topic}, false)
			if err != nil {
				return "", err
			}
			oldest = make(map[string]string, len(positions))
			for _, p := range positions {
				oldest[p.Partition] = p.Offset
			}
		}
		offset, ok := oldest[partition]
		if !ok {
			return "", &topicrepo.PartitionNotFoundError{Topic: topic, Partition: partition}
		}
		return offset, nil
	}

	positions := make([]cursor.TopicPosition, 0, len(entries))
	for _, e := range entries {
		pos := cursor.TopicPosition{Topic: topic, Partition: e.Partition, Offset: e.Offset}
		if pos.IsBegin() {
			offset, err := resolveOldest(e.Partition)
			if err != nil {
				return nil, err
			}
			pos.Offset = offset
		} else if pos.Partition == "" {
			return nil, &cursor.FormatError{Kind: cursor.NullPartition}
		} else if pos.Offset == "" {
			return nil, &cursor.FormatError{Kind: cursor.NullOffset}
		}
		positions = append(positions, pos)
	}

	if len(positions) == 0 {
		return nil, &cursor.FormatError{Kind: cursor.InvalidFormat}
	}
	return positions, nil
}
