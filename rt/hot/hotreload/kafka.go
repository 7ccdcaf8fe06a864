package hotreload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the subset of *kafka.Reader used by ConsumeKafka.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaReader returns a consumer-group reader for a config topic.
//
// Config topics are usually compacted: the latest record of the key is the current value.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// ConsumeKafka publishes every record read from mr until ctx is done.
//
// Records that fail to decode are logged, counted and committed (skipped), so a
// poison record cannot wedge the consumer. Tombstones (nil values) are skipped.
// ConsumeKafka returns nil when ctx is done, or an error wrapping ErrFetch if the
// reader fails.
func (r *Reloader[T]) ConsumeKafka(ctx context.Context, mr MessageReader) error {
	if mr == nil {
		return fmt.Errorf("%w: nil MessageReader", ErrInvalidConfig)
	}
	for {
		msg, err := mr.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: kafka fetch: %w", ErrFetch, err)
		}

		if msg.Value != nil {
			if _, err := r.apply(msg.Value, originKafka, true); err != nil {
				r.cfg.logger.Warn("hot reload: skipping kafka record",
					slog.String("reloader", r.cfg.name),
					slog.String("topic", msg.Topic),
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
			}
		}

		if err := mr.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: kafka commit: %w", ErrFetch, err)
		}
	}
}
