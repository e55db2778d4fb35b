package archiver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/andesbank-core-ledger/internal/domain/shared"
	"github.com/andesbank-core-ledger/internal/platform/messaging/producers"
)

// PostedEventHandler handles posted-transaction messages from Kafka
type PostedEventHandler struct {
	archivingService ArchivingService
	producer         producers.DeadLetterPublisher
	logger           *slog.Logger
}

// NewPostedEventHandler creates a new handler
func NewPostedEventHandler(
	logger *slog.Logger,
	archivingService ArchivingService,
	producer producers.DeadLetterPublisher,
) *PostedEventHandler {
	return &PostedEventHandler{
		archivingService: archivingService,
		producer:         producer,
		logger:           logger,
	}
}

// HandleMessage processes Kafka messages
func (h *PostedEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.PostedTransactionEvent
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal posted-transaction event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received posted transaction for archiving",
		"transaction_id", event.TransactionID.String(),
		"source_account_id", event.SourceAccountID.String(),
		"type", event.Type,
		"amount", event.Amount,
	)

	if err := h.archivingService.ArchiveEvent(ctx, &event); err != nil {
		logger.Error("Failed to archive posted transaction",
			"transaction_id", event.TransactionID.String(),
			"source_account_id", event.SourceAccountID.String(),
			"error", err,
		)
		return fmt.Errorf("archiving transaction %s failed: %w", event.TransactionID.String(), err)
	}

	logger.Info("Successfully archived posted transaction", "transaction_id", event.TransactionID.String())
	return nil // Success, commit offset
}
