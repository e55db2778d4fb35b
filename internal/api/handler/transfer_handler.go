package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andesbank-core-ledger/internal/api/middleware"
	"github.com/andesbank-core-ledger/internal/domain/transaction"
	"github.com/andesbank-core-ledger/internal/service"
)

// TransferHandler handles HTTP requests for money movements
type TransferHandler struct {
	transferService service.TransferService
	logger          *slog.Logger
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(logger *slog.Logger, transferService service.TransferService) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		logger:          logger,
	}
}

// Transfer posts a transfer between two accounts. A replayed idempotency key
// returns the original record with 200 instead of 201.
func (h *TransferHandler) Transfer(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sourceID, err := parseUUIDField(c, req.SourceAccountID, "Invalid source account ID")
	if err != nil {
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	cmd := &service.TransferCommand{
		IdempotencyKey:    middleware.ResolveIdempotencyKey(c, req.IdempotencyKey),
		SourceAccountID:   sourceID,
		DestinationNumber: req.DestinationNumber,
		Amount:            amount,
		Description:       req.Description,
		CorrelationID:     middleware.GetCorrelationID(c),
	}

	txn, replayed, err := h.transferService.Transfer(c.Request.Context(), cmd)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	respondMovement(c, txn, replayed)
}

// Deposit posts a one-sided credit to an account
func (h *TransferHandler) Deposit(c *gin.Context) {
	h.movement(c, h.transferService.Deposit)
}

// Withdraw posts a one-sided debit from an account
func (h *TransferHandler) Withdraw(c *gin.Context) {
	h.movement(c, h.transferService.Withdraw)
}

func (h *TransferHandler) movement(c *gin.Context, post func(ctx context.Context, cmd *service.MovementCommand) (*transaction.Transaction, bool, error)) {
	accountID, ok := parseIDParam(c, "Invalid account ID")
	if !ok {
		return
	}

	var req CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	cmd := &service.MovementCommand{
		IdempotencyKey: middleware.ResolveIdempotencyKey(c, req.IdempotencyKey),
		AccountID:      accountID,
		Amount:         amount,
		Description:    req.Description,
		CorrelationID:  middleware.GetCorrelationID(c),
	}

	txn, replayed, err := post(c.Request.Context(), cmd)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	respondMovement(c, txn, replayed)
}

func respondMovement(c *gin.Context, txn *transaction.Transaction, replayed bool) {
	resp := mapTransactionToResponse(txn)
	resp.Replayed = replayed
	if replayed {
		RespondOK(c, resp)
		return
	}
	RespondCreated(c, resp)
}

func parseUUIDField(c *gin.Context, raw, message string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondBadRequest(c, message)
		return uuid.Nil, err
	}
	return id, nil
}

func parseAmount(c *gin.Context, raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return decimal.Zero, false
	}
	return amount, true
}

// mapTransactionToResponse maps a transaction record to a response DTO
func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:             txn.ID.String(),
		IdempotencyKey: txn.IdempotencyKey,
		AccountID:      txn.AccountID.String(),
		Type:           string(txn.Type),
		Amount:         txn.Amount.StringFixed(2),
		Status:         string(txn.Status),
		Description:    txn.Description,
		CreatedAt:      txn.CreatedAt.Format(time.RFC3339),
	}
	if txn.DestinationAccountID != nil {
		resp.DestinationAccountID = txn.DestinationAccountID.String()
	}
	if txn.ExchangeRate != nil {
		resp.ExchangeRate = txn.ExchangeRate.String()
	}
	return resp
}
