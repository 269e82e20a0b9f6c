package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"bobiz-backend/internal/config"
	"bobiz-backend/internal/jobs"
	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/notify"
	"bobiz-backend/internal/repository/postgres"
	"bobiz-backend/internal/scheduler"
	"bobiz-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'expire-stale-exchanges', 'reconcile-ledger', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting BOBIZ cronjob runner...", "log_level", cfg.Log.Level)

	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatalf("The cronjob runner needs the postgres driver; use the server's -with-jobs flag with %q", cfg.Database.Driver)
	}

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Expiry cancellations notify participants through the in-app inbox.
	dispatcher := notify.NewDispatcher(notify.Options{
		Workers:    cfg.Notification.Workers,
		QueueSize:  cfg.Notification.QueueSize,
		MaxRetries: cfg.Notification.MaxRetries,
	}, notify.NewInboxSink(store.Notifications()))
	dispatcher.Start(ctx)

	engine := service.NewEngine(store, service.Options{
		Notifier:        dispatcher,
		HistoryPageSize: cfg.Engine.HistoryPageSize,
	})

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store, engine, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		stop()
		dispatcher.Wait()
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	dispatcher.Wait()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "expire-stale-exchanges":
		jobRunner.ExpireStaleExchanges()
	case "reconcile-ledger":
		jobRunner.ReconcileLedger()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - expire-stale-exchanges\n")
		fmt.Printf("  - reconcile-ledger\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
