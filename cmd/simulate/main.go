// Command simulate runs a reproducible random scenario against an in-memory
// engine and prints balances and need statuses.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bobiz-backend/internal/logger"
	"bobiz-backend/internal/repository/memory"
	"bobiz-backend/internal/security"
	"bobiz-backend/internal/service"
	"bobiz-backend/internal/simulation"
)

func main() {
	cfg := simulation.DefaultConfig()
	var logLevel string

	flag.Int64Var(&cfg.Seed, "seed", 0, "random seed for reproducibility (0 = random)")
	flag.IntVar(&cfg.Users, "users", cfg.Users, "number of simulated users")
	flag.IntVar(&cfg.Events, "events", cfg.Events, "number of events")
	flag.IntVar(&cfg.NeedsPerEvent, "needs", cfg.NeedsPerEvent, "needs per event")
	flag.IntVar(&cfg.Steps, "steps", cfg.Steps, "number of random actions")
	flag.StringVar(&logLevel, "log-level", "warn", "log level")
	flag.Parse()

	logger.InitializeWithWriter(os.Stderr, logLevel, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rng, seed := simulation.NewSeededRNG(cfg.Seed, os.Stderr)
	cfg.Seed = seed

	store := memory.NewStore()
	engine := service.NewEngine(store, service.Options{})
	tokens := security.NewTokenManager(fmt.Sprintf("simulation-secret-%032d", seed), time.Hour, time.Hour)

	sim, err := simulation.New(engine, tokens, rng, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	report, err := sim.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	report.Write(os.Stdout)
}
