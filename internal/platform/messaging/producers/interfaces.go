// Package producers publishes posted-transaction events onto Kafka: the main
// topic fed by the outbox poller, and a dead-letter topic for events the
// archiver cannot process.
package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes an event to the primary topic. The key decides
// the partition, which decides ordering.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// DeadLetterPublisher parks a message that could not be processed, together
// with the reason it failed
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter is the slice of kafka.Writer the producers use; tests swap in
// a recording implementation.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
