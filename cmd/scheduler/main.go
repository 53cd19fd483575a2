package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/panjf2000/ants/v2"

	"github.com/homeplanner/settlement-scheduler/internal/admin"
	"github.com/homeplanner/settlement-scheduler/internal/config"
	"github.com/homeplanner/settlement-scheduler/internal/data/mongo"
	"github.com/homeplanner/settlement-scheduler/internal/data/postgres"
	"github.com/homeplanner/settlement-scheduler/internal/logger"
	"github.com/homeplanner/settlement-scheduler/internal/platform/messaging/producers"
	"github.com/homeplanner/settlement-scheduler/internal/platform/metrics"
	"github.com/homeplanner/settlement-scheduler/internal/platform/persistence"
	"github.com/homeplanner/settlement-scheduler/internal/scheduler"
	"github.com/homeplanner/settlement-scheduler/internal/settlement"
	"github.com/homeplanner/settlement-scheduler/internal/settlement/locker"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("scheduler")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

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

	// Initialize Kafka producer for settlement run events
	eventProducer, err := producers.NewSettlementEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize settlement event producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	participantRepo := postgres.NewParticipantRepository(log, postgresDB)
	userSavingsRepo := postgres.NewUserSavingsRepository(log, postgresDB)
	paymentScheduleRepo := postgres.NewPaymentScheduleRepository(log, postgresDB)
	loanContractRepo := postgres.NewLoanContractRepository(log, postgresDB)
	loanScheduleRepo := postgres.NewLoanScheduleRepository(log, postgresDB)
	historyRepo := mongo.NewHistoryRepository(log, mongoDB.Database())

	// Initialize the settlement core
	accountLocks := locker.New()
	workerPool, err := ants.NewPool(cfg.WorkerPool.Size)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}
	defer workerPool.Release()

	executor := settlement.NewTransferExecutor(log, postgresDB, accountRepo, historyRepo, cfg.Retry)

	savingsEngine := settlement.NewSavingsEngine(
		log, accountRepo, userSavingsRepo, paymentScheduleRepo, executor, accountLocks, workerPool)
	jointEngine := settlement.NewJointSavingsEngine(
		log, accountRepo, participantRepo, userSavingsRepo, paymentScheduleRepo, executor, accountLocks, workerPool)
	loanEngine := settlement.NewLoanEngine(
		log, accountRepo, loanContractRepo, loanScheduleRepo, executor, accountLocks, workerPool)

	appMetrics := metrics.NewMetrics()
	runner := settlement.NewRunner(log, eventProducer, appMetrics, savingsEngine, jointEngine, loanEngine)

	// Initialize REST server
	server := admin.NewServer(log, cfg, runner, historyRepo, appMetrics.Registry)
	log.Info("Admin server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start the daily trigger in goroutine when enabled
	if cfg.Scheduler.Enabled {
		trigger := scheduler.NewDailyTrigger(log, &cfg.Scheduler, runner)
		go trigger.Start(appCtx)
	} else {
		log.Info("Daily settlement trigger disabled, runs happen via the admin API only")
	}

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so no new runs can be triggered
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
