package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kroma-labs/dbprobe-go/example/internal/config"
	"github.com/kroma-labs/dbprobe-go/example/internal/database"
	"github.com/kroma-labs/dbprobe-go/example/internal/telemetry"
	"github.com/kroma-labs/dbprobe-go/probe"
	"github.com/kroma-labs/dbprobe-go/sinks/otelsink"
	"github.com/kroma-labs/dbprobe-go/sinks/promsink"
	"github.com/kroma-labs/dbprobe-go/sinks/redissink"
	"github.com/kroma-labs/dbprobe-go/sinks/ringsink"
	"github.com/kroma-labs/dbprobe-go/sinks/zerologsink"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

func main() {
	ctx := context.Background()
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// 1. Setup OpenTelemetry (Tracing + Metrics)
	shutdownTracing, shutdownMetrics, err := telemetry.Setup(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to setup OTel")
	}
	defer func() {
		shutdownTracing(ctx)
		shutdownMetrics(ctx)
	}()

	// 2. Assemble the probe sinks
	ring := ringsink.New(config.RingCapacity)
	sinks := []probe.Sink{
		otelsink.New(
			otelsink.WithDBSystem(config.DefaultDBSystem),
			otelsink.WithDBName(config.DefaultDBName),
			otelsink.WithInstanceName(config.DefaultInstance),
		),
		promsink.New(),
		zerologsink.New(
			zerologsink.WithLogger(logger),
			zerologsink.WithLevel(zerolog.DebugLevel),
		),
		ring,
	}

	// Stream events to Redis when it is reachable; the app runs without it.
	client := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	err = client.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, event stream disabled")
		client.Close()
	} else {
		stream := redissink.New(client,
			redissink.WithStream(config.RedisStream),
			redissink.WithLogger(logger),
		)
		defer stream.Close()
		sinks = append(sinks, stream)
	}

	// 3. Start the metrics and debug server
	http.Handle("/debug/dbprobe", ring.Handler())
	metricsServer := &http.Server{Addr: config.MetricsPort}
	go func() {
		logger.Info().Str("addr", config.MetricsPort).Msg("starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("metrics server failed")
		}
	}()

	// 4. Open the instrumented database connection
	db, err := database.New(ctx, logger, probe.Multi(sinks...))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.CreateTables(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to create tables")
	}
	if err := db.SeedAccounts(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to seed accounts")
	}

	// 5. Perform database operations in a loop
	// This generates continuous traces, metrics and events for demonstration
	tracer := otel.Tracer("dbprobe-example")

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(config.OperationInterval) * time.Second)
	defer ticker.Stop()

	fmt.Println("✅ dbprobe example app started!")
	fmt.Println("📊 Prometheus metrics: http://localhost:2112/metrics")
	fmt.Println("🔍 Recent probe events: http://localhost:2112/debug/dbprobe")
	fmt.Println("Press Ctrl+C to stop...")

	for {
		select {
		case <-ticker.C:
			opCtx, span := tracer.Start(ctx, "db-operations")

			accounts, err := db.ListAccounts(opCtx)
			if err != nil {
				logger.Error().Err(err).Msg("failed to list accounts")
			} else {
				logger.Info().Int("accounts", len(accounts)).Msg("listed accounts")
			}

			// A committed transfer with a nested audit transaction
			if err := db.Transfer(opCtx, "alice", "bob", 5); err != nil {
				logger.Warn().Err(err).Msg("transfer failed")
			}

			// A transfer that always rolls back
			if err := db.Transfer(opCtx, "carol", "alice", 1_000_000); err != nil {
				logger.Info().Err(err).Msg("oversized transfer rejected")
			}

			if balance, err := db.Balance(opCtx, "alice"); err != nil {
				logger.Error().Err(err).Msg("failed to read balance")
			} else {
				logger.Info().Int64("balance", balance).Msg("alice balance")
			}

			span.End()

		case <-sigChan:
			fmt.Println("\n🛑 Shutting down gracefully...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("metrics server shutdown error")
			}
			return
		}
	}
}
