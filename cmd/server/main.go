package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/andesbank-core-ledger/internal/api"
	"github.com/andesbank-core-ledger/internal/archiver"
	"github.com/andesbank-core-ledger/internal/config"
	"github.com/andesbank-core-ledger/internal/data/mongo"
	"github.com/andesbank-core-ledger/internal/data/postgres"
	"github.com/andesbank-core-ledger/internal/exchange"
	"github.com/andesbank-core-ledger/internal/logger"
	"github.com/andesbank-core-ledger/internal/outbox_poller"
	"github.com/andesbank-core-ledger/internal/platform/messaging/consumers"
	"github.com/andesbank-core-ledger/internal/platform/messaging/producers"
	"github.com/andesbank-core-ledger/internal/platform/persistence"
	"github.com/andesbank-core-ledger/internal/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("server")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting ledger service",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	statementRepo := mongo.NewStatementRepository(log, mongoDB.Database())

	if err = statementRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create statement indexes", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for posted-transaction events
	postedTxProducer, err := producers.NewPostedTxProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize posted-transaction Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler is nil-safe.

	// Initialize Kafka consumer for the statement archiver
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize services
	converter := exchange.NewConverter(exchange.NewFixedRateSource())

	accountService, err := service.NewAccountService(log, accountRepo, &cfg.Ledger)
	if err != nil {
		log.Error("Failed to initialize account service", "error", err)
		os.Exit(1)
	}
	transferService := service.NewTransferService(log, postgresDB, accountRepo, transactionRepo, outboxRepo, converter)
	transactionService := service.NewTransactionService(log, transactionRepo, statementRepo)

	// Initialize statement archiver with worker pool
	archivingService := archiver.NewStatementArchivingService(statementRepo, log)
	workerPool, err := archiver.NewWorkerPoolArchivingService(
		archivingService,
		archiver.WorkerPoolConfig{Size: cfg.Archiver.WorkerPoolSize},
		log,
	)
	if err != nil {
		log.Error("Failed to initialize archiver worker pool", "error", err)
		os.Exit(1)
	}
	postedEventHandler := archiver.NewPostedEventHandler(log, workerPool, dlqProducer)

	// Initialize outbox poller
	eventPublisher := outbox_poller.NewEventPublisher(outboxRepo, postedTxProducer, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, eventPublisher, log)

	// Initialize REST server
	server := api.NewServer(log, cfg, accountService, transferService, transactionService)
	log.Info("REST server initialized")

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown of background services
	var wg sync.WaitGroup

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.PostedTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.PostedTopic, cfg.Kafka.ConsumerGroup, postedEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Outbox Poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Stop accepting HTTP requests first so no new transfers enter the outbox
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Wait for the consumer and poller goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Drain the archiver worker pool
	log.Info("Shutting down archiver worker pool", "running_workers", workerPool.Running())
	workerPool.Shutdown()

	// Close Kafka producers
	if err = postedTxProducer.Close(); err != nil {
		log.Error("Error closing posted-transaction Kafka producer", "error", err)
	}
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	// Close Kafka consumer
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Ledger service shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Ledger service shutdown completed with errors")
	} else {
		log.Info("Ledger service shutdown completed successfully")
	}
}
