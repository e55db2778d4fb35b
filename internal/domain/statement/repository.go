package statement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository manages statement entry persistence in the archive store
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByAccountID(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Entry, error)
	CountByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)
	GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*Entry, error)
}

// ErrDuplicateEntry indicates the account side of a transaction was already
// archived. Redelivered events hit this and are safe to drop.
type ErrDuplicateEntry struct {
	TransactionID uuid.UUID
	AccountID     uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "statement entry already archived for transaction " + e.TransactionID.String() + " and account " + e.AccountID.String()
}

// Is enables errors.Is comparison by type
func (e ErrDuplicateEntry) Is(target error) bool {
	_, ok := target.(ErrDuplicateEntry)
	return ok
}

// ErrEntryNotFound indicates a missing statement entry
type ErrEntryNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "statement entry not found for transaction: " + e.TransactionID.String()
}

// Is enables errors.Is comparison by type
func (e ErrEntryNotFound) Is(target error) bool {
	_, ok := target.(ErrEntryNotFound)
	return ok
}
