package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	api "bobiz-backend/internal/api/grpc"
	"bobiz-backend/internal/api/grpc/interceptor"
	httpapi "bobiz-backend/internal/api/http"
	"bobiz-backend/internal/config"
	"bobiz-backend/internal/jobs"
	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/notify"
	"bobiz-backend/internal/repository"
	"bobiz-backend/internal/repository/memory"
	"bobiz-backend/internal/repository/postgres"
	"bobiz-backend/internal/scheduler"
	"bobiz-backend/internal/security"
	"bobiz-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	withJobs := flag.Bool("with-jobs", false, "Run the cron jobs inside the server process")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting BOBIZ exchange engine...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "grpc_address", cfg.GetServerAddress(), "http_address", cfg.GetHTTPAddress())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	// Initialize notifications
	sender, err := pushSender(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize push notifications", "error", err)
		log.Fatalf("Failed to initialize push notifications: %v", err)
	}
	dispatcher := notify.NewDispatcher(notify.Options{
		Workers:    cfg.Notification.Workers,
		QueueSize:  cfg.Notification.QueueSize,
		MaxRetries: cfg.Notification.MaxRetries,
	}, notify.NewInboxSink(store.Notifications()), notify.NewPushSink(sender))

	// Initialize services
	engine := service.NewEngine(store, service.Options{
		Notifier:        dispatcher,
		HistoryPageSize: cfg.Engine.HistoryPageSize,
	})

	// Initialize security
	tokenManager := security.NewTokenManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Minute,
	)
	authInterceptor := interceptor.NewAuthInterceptor(tokenManager)

	// Set up gRPC server
	lis, err := net.Listen("tcp", cfg.GetServerAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetServerAddress())
		log.Fatalf("Failed to listen: %v", err)
	}
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptor.Logging(), authInterceptor.Unary()),
	)
	api.RegisterEngineServer(grpcServer, api.NewHandler(engine, tokenManager))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// Register reflection service for grpcurl
	reflection.Register(grpcServer)

	// Set up HTTP server for ops and read-only routes
	router := mux.NewRouter()
	httpapi.RegisterOpsRoutes(router, httpapi.NewOpsHandler(engine.Catalog, store))
	httpServer := &http.Server{
		Addr:              cfg.GetHTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	dispatcher.Start(gctx)

	if *withJobs {
		cronScheduler, err := scheduler.NewScheduler(jobs.NewJobRunner(store, engine, cfg))
		if err != nil {
			log.Fatalf("Failed to initialize scheduler: %v", err)
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	g.Go(func() error {
		logger.Info("gRPC server listening", "address", cfg.GetServerAddress())
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("HTTP server listening", "address", cfg.GetHTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down servers...")
		healthServer.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
	}
	dispatcher.Wait()
	logger.Info("Server stopped. Goodbye!")
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	store := postgres.NewStore(db)
	if err := store.Ping(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.Migrate {
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("Database schema applied")
	}
	return store, func() { db.Close() }, nil
}

func pushSender(ctx context.Context, cfg *config.Config) (notify.MessageSender, error) {
	if cfg.Notification.FirebaseCredentials == "" {
		logger.Info("Using log-only push notifications")
		return notify.LogSender{}, nil
	}
	logger.Info("Using Firebase Cloud Messaging", "credentials", cfg.Notification.FirebaseCredentials)
	return notify.NewFirebaseSender(ctx, cfg.Notification.FirebaseCredentials)
}
