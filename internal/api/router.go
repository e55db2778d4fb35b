package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andesbank-core-ledger/internal/api/handler"
	"github.com/andesbank-core-ledger/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	transferHandler *handler.TransferHandler,
	transactionHandler *handler.TransactionHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Account operations
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("", accountHandler.ListByOwner)
			accounts.GET("/pending", accountHandler.ListPending)
			accounts.GET("/number/:number", accountHandler.GetByNumber)
			accounts.GET("/:id", accountHandler.GetByID)
			accounts.GET("/:id/transactions", transactionHandler.ListByAccount)
			accounts.GET("/:id/statement", transactionHandler.GetStatement)

			// Money movements on a single account
			accounts.POST("/:id/deposits", transferHandler.Deposit)
			accounts.POST("/:id/withdrawals", transferHandler.Withdraw)

			// Lifecycle (admin) actions
			accounts.POST("/:id/activate", accountHandler.Approve)
			accounts.POST("/:id/deactivate", accountHandler.Deactivate)
			accounts.POST("/:id/block", accountHandler.Block)
			accounts.POST("/:id/request-unlock", accountHandler.RequestUnlock)
			accounts.POST("/:id/unblock", accountHandler.Unblock)
		}

		// Transfers between accounts
		v1.POST("/transfers", transferHandler.Transfer)

		// Transaction log operations
		transactions := v1.Group("/transactions")
		{
			transactions.GET("", transactionHandler.ListByOwner)
			transactions.GET("/:id", transactionHandler.GetByID)
			transactions.POST("/:id/reverse", transactionHandler.Reverse)
		}

		// Archived statement entries across accounts
		v1.GET("/statements", transactionHandler.GetStatementByTimeRange)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
