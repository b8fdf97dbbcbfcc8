package kafkaclient

import (
	"strconv"

	"github.com/IBM/sarama"

	"github.com/rzbill/flo/internal/cursor"
)

// PositionReader answers position queries by opening a short-lived
// sarama.Client, reading broker-reported watermarks, and closing it. All
// three query shapes open, use, and close exactly one client per call.
type PositionReader struct {
	brokers []string
	config  *sarama.Config
}

// NewPositionReader builds a PositionReader dialing brokers per call.
func NewPositionReader(brokers []string, config *sarama.Config) *PositionReader {
	cfg := config
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	return &PositionReader{brokers: brokers, config: cfg}
}

func (r *PositionReader) withClient(op string, fn func(sarama.Client) error) error {
	client, err := sarama.NewClient(r.brokers, r.config)
	if err != nil {
		return &ErrServiceUnavailable{Op: op, Err: err}
	}
	defer client.Close()
	if err := fn(client); err != nil {
		return err
	}
	return nil
}

// LoadNewestPositions returns, for every partition of every topic given,
// the next-to-be-written position: one past the last committed offset.
func (r *PositionReader) LoadNewestPositions(topics []string) ([]cursor.TopicPosition, error) {
	var out []cursor.TopicPosition
	err := r.withClient("loadNewestPosition", func(client sarama.Client) error {
		for _, topic := range topics {
			partitions, err := client.Partitions(topic)
			if err != nil {
				return &ErrServiceUnavailable{Op: "loadNewestPosition", Err: err}
			}
			for _, part := range partitions {
				offset, err := client.GetOffset(topic, part, sarama.OffsetNewest)
				if err != nil {
					return &ErrServiceUnavailable{Op: "loadNewestPosition", Err: err}
				}
				out = append(out, cursor.TopicPosition{
					Topic:     topic,
					Partition: strconv.FormatInt(int64(part), 10),
					Offset:    strconv.FormatInt(offset, 10),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadOldestPositions returns, per partition, the oldest available position.
// When positionOnExisting is true, the returned offset is the first
// existing record; when false, it denotes "before the oldest" (one less).
func (r *PositionReader) LoadOldestPositions(topics []string, positionOnExisting bool) ([]cursor.TopicPosition, error) {
	var out []cursor.TopicPosition
	err := r.withClient("loadOldestPosition", func(client sarama.Client) error {
		for _, topic := range topics {
			partitions, err := client.Partitions(topic)
			if err != nil {
				return &ErrServiceUnavailable{Op: "loadOldestPosition", Err: err}
			}
			for _, part := range partitions {
				earliest, err := client.GetOffset(topic, part, sarama.OffsetOldest)
				if err != nil {
					return &ErrServiceUnavailable{Op: "loadOldestPosition", Err: err}
				}
				beforeOldest := earliest - 1
				offset := beforeOldest
				if positionOnExisting {
					offset = beforeOldest + 1
				}
				out = append(out, cursor.TopicPosition{
					Topic:     topic,
					Partition: strconv.FormatInt(int64(part), 10),
					Offset:    strconv.FormatInt(offset, 10),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Boundary selects which end of the partition MaterializePositions resolves.
type Boundary int

const (
	Begin Boundary = iota
	End
)

// MaterializePositions returns a partition -> offset map suitable for
// initializing subscriptions: Begin resolves to the oldest boundary
// (positionOnExisting=false), End resolves to the newest.
func (r *PositionReader) MaterializePositions(topic string, boundary Boundary) (map[string]string, error) {
	var positions []cursor.TopicPosition
	var err error
	switch boundary {
	case Begin:
		positions, err = r.LoadOldestPositions([]string{topic}, false)
	default:
		positions, err = r.LoadNewestPositions([]string{topic})
	}
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(positions))
	for _, p := range positions {
		out[p.Partition] = p.Offset
	}
	return out, nil
}
