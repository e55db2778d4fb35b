package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/andesbank-core-ledger/internal/config"
)

// PostedTxProducer publishes posted-transaction events for the statement
// archiver. Writes are synchronous: the outbox poller must know the publish
// succeeded before it marks a message processed.
type PostedTxProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewPostedTxProducer creates the producer and ensures the topic exists
func NewPostedTxProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*PostedTxProducer, error) {
	if cfg.PostedTopic == "" {
		return nil, fmt.Errorf("kafka posted-transaction topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for posted-transaction producer: %w", err)
	}
	defer conn.Close()

	err = ensureTopic(conn, cfg.PostedTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure topic %s exists for posted-transaction producer: %w", cfg.PostedTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.PostedTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &PostedTxProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.PostedTopic,
	}, nil
}

// Publish writes one event keyed by the source account ID so all movements
// of an account land on the same partition, preserving order.
func (p *PostedTxProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal posted-transaction event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish posted-transaction event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish posted-transaction event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published posted-transaction event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *PostedTxProducer) Close() error {
	p.logger.Info("Closing posted-transaction Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
