package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/andesbank-core-ledger/internal/service"
)

// TransactionHandler handles HTTP requests for transaction log and statement
// reads
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// GetByID retrieves transaction details by its ID, returns 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid transaction ID")
	if !ok {
		return
	}

	txn, err := h.transactionService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// Reverse marks a posted transaction REVERSED. Balances are untouched.
func (h *TransactionHandler) Reverse(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid transaction ID")
	if !ok {
		return
	}

	txn, err := h.transactionService.Reverse(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// ListByAccount retrieves paginated transaction history for an account
func (h *TransactionHandler) ListByAccount(c *gin.Context) {
	accountID, ok := parseIDParam(c, "Invalid account ID")
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	records, total, err := h.transactionService.ListByAccount(
		c.Request.Context(),
		accountID,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	responses := make([]TransactionResponse, 0, len(records))
	for _, txn := range records {
		responses = append(responses, mapTransactionToResponse(txn))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// ListByOwner retrieves paginated movements across all of an owner's accounts
func (h *TransactionHandler) ListByOwner(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Query("owner_id"))
	if err != nil {
		RespondBadRequest(c, "Invalid or missing owner_id")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	records, err := h.transactionService.ListByOwner(
		c.Request.Context(),
		ownerID,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	responses := make([]TransactionResponse, 0, len(records))
	for _, txn := range records {
		responses = append(responses, mapTransactionToResponse(txn))
	}

	RespondOK(c, responses)
}

// GetStatement retrieves the archived statement projection for an account
func (h *TransactionHandler) GetStatement(c *gin.Context) {
	accountID, ok := parseIDParam(c, "Invalid account ID")
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.transactionService.GetStatement(
		c.Request.Context(),
		accountID,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, entries, pagination.Page, pagination.PerPage, int(total))
}

// GetStatementByTimeRange retrieves archived entries posted inside a window
func (h *TransactionHandler) GetStatementByTimeRange(c *gin.Context) {
	var window TimeRangeParams
	if err := c.ShouldBindQuery(&window); err != nil {
		RespondBadRequest(c, "Invalid time range: start and end are required RFC3339 timestamps")
		return
	}
	if !window.End.After(window.Start) {
		RespondBadRequest(c, "Time range end must be after start")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, err := h.transactionService.GetStatementByTimeRange(
		c.Request.Context(),
		window.Start,
		window.End,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, entries)
}
