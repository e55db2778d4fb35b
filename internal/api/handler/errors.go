package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/andesbank-core-ledger/internal/domain/account"
	"github.com/andesbank-core-ledger/internal/domain/shared"
	"github.com/andesbank-core-ledger/internal/domain/transaction"
	"github.com/andesbank-core-ledger/internal/exchange"
)

// respondDomainError translates the ledger's error taxonomy into HTTP
// responses. Unknown errors become a 500 and are logged; domain errors are
// the caller's problem and are not.
func respondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		notFound      account.ErrAccountNotFound
		txnNotFound   transaction.ErrTransactionNotFound
		inactive      account.ErrAccountInactive
		alreadyExists account.ErrAccountAlreadyExists
		duplicateKey  transaction.ErrDuplicateIdempotencyKey
		badTransition transaction.ErrInvalidStatusTransition
		concurrentMod account.ErrConcurrentModification
		badPair       exchange.ErrUnsupportedCurrencyPair
	)

	switch {
	case errors.As(err, &notFound):
		RespondNotFound(c, "Account not found")
	case errors.As(err, &txnNotFound):
		RespondNotFound(c, "Transaction not found")
	case errors.As(err, &inactive):
		RespondUnprocessable(c, "ACCOUNT_INACTIVE", "Account cannot take part in money movements")
	case errors.Is(err, account.ErrInsufficientFunds):
		RespondUnprocessable(c, "INSUFFICIENT_FUNDS", "Insufficient funds")
	case errors.As(err, &alreadyExists):
		RespondConflict(c, "ACCOUNT_ALREADY_EXISTS", "Owner already holds an account in this currency")
	case errors.As(err, &duplicateKey):
		RespondConflict(c, "DUPLICATE_IDEMPOTENCY_KEY", "Idempotency key already used")
	case errors.As(err, &badTransition):
		RespondConflict(c, "INVALID_STATUS_TRANSITION", err.Error())
	case errors.As(err, &concurrentMod):
		RespondConflict(c, "CONCURRENCY_CONFLICT", "Account was modified concurrently, retry the request")
	case errors.As(err, &badPair):
		RespondBadRequest(c, "Unsupported currency pair")
	case errors.Is(err, shared.ErrInvalidCurrency):
		RespondBadRequest(c, "Unsupported currency")
	case errors.Is(err, transaction.ErrInvalidAmount):
		RespondBadRequest(c, "Amount must be positive")
	case errors.Is(err, transaction.ErrMissingIdempotency):
		RespondBadRequest(c, "Idempotency key is required")
	case errors.Is(err, transaction.ErrMissingDestination):
		RespondBadRequest(c, "Transfer requires a destination account")
	default:
		logger.Error("Unhandled service error", "error", err)
		RespondInternalError(c)
	}
}
