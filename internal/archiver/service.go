// Package archiver consumes posted-transaction events and materializes them
// as per-account statement entries in MongoDB. The archive is derived state:
// Postgres stays authoritative and the archiver can always be replayed from
// the topic.
package archiver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/andesbank-core-ledger/internal/domain/shared"
	"github.com/andesbank-core-ledger/internal/domain/statement"
)

// ArchivingService writes the statement entries for one posted transaction
type ArchivingService interface {
	ArchiveEvent(ctx context.Context, event *shared.PostedTransactionEvent) error
}

// StatementArchivingService implements ArchivingService
type StatementArchivingService struct {
	statementRepo statement.Repository
	logger        *slog.Logger
}

func NewStatementArchivingService(
	statementRepo statement.Repository,
	logger *slog.Logger,
) *StatementArchivingService {
	return &StatementArchivingService{
		statementRepo: statementRepo,
		logger:        logger,
	}
}

// ArchiveEvent projects the event into debit/credit entries and persists
// each one. Duplicate entries are expected under at-least-once delivery and
// are skipped, so a redelivered event never double-writes a statement line.
func (s *StatementArchivingService) ArchiveEvent(ctx context.Context, event *shared.PostedTransactionEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	entries := statement.EntriesFromEvent(event)
	for _, entry := range entries {
		err := s.statementRepo.Create(ctx, entry)
		if err != nil {
			if errors.Is(err, statement.ErrDuplicateEntry{}) {
				logger.Info("Statement entry already archived, skipping",
					"transaction_id", entry.TransactionID, "account_id", entry.AccountID,
				)
				continue
			}
			logger.Error("Failed to archive statement entry",
				"transaction_id", entry.TransactionID, "account_id", entry.AccountID, "error", err,
			)
			return fmt.Errorf("failed to archive statement entry for transaction %s: %w", entry.TransactionID, err)
		}
	}

	logger.Info("Archived posted transaction",
		"transaction_id", event.TransactionID,
		"type", event.Type,
		"entries", len(entries),
	)
	return nil
}
