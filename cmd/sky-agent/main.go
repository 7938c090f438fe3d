package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saaga0h/jeeves-sky/internal/skyagent"
	"github.com/saaga0h/jeeves-sky/pkg/config"
	"github.com/saaga0h/jeeves-sky/pkg/health"
	"github.com/saaga0h/jeeves-sky/pkg/mqtt"
	"github.com/saaga0h/jeeves-sky/pkg/postgres"
	"github.com/saaga0h/jeeves-sky/pkg/redis"
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting J.E.E.V.E.S. Sky Agent",
		"version", "1.0",
		"service_name", cfg.ServiceName,
		"mqtt_broker", cfg.MQTTAddress(),
		"redis_host", cfg.RedisAddress(),
		"archive", cfg.EnableArchive,
		"log_level", cfg.LogLevel)

	locations, err := skyagent.LoadLocations(cfg.LocationsFile, skyagent.DefaultLocation(cfg))
	if err != nil {
		logger.Error("Failed to load locations", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	mqttClient := mqtt.NewClient(cfg, logger)
	redisClient := redis.NewClient(cfg, logger)

	storage := skyagent.NewStorage(redisClient, cfg.SampleRetention(), logger)
	provider := skyagent.NewRedisEnvironmentProvider(storage, cfg.SampleRetention(), logger)
	service := skyagent.NewService(provider, cfg.ApplySecondOrder, logger)

	// Archive is optional; nil interfaces keep it out of the agent and API
	var (
		pgClient postgres.Client
		archiver skyagent.Archiver
		finder   skyagent.SnapshotFinder
	)
	if cfg.EnableArchive {
		pgClient = postgres.NewClient(cfg, logger)
		archive, err := connectArchive(ctx, pgClient, logger)
		if err != nil {
			logger.Error("Failed to initialise sky archive", "error", err)
			os.Exit(1)
		}
		archiver, finder = archive, archive
	}

	agent := skyagent.NewAgent(mqttClient, redisClient, storage, service, locations, archiver, cfg, logger)

	healthChecker := health.NewChecker(mqttClient, redisClient, pgClient, logger)
	handler := skyagent.NewHandler(service, locations, finder, logger)
	httpServer := startAPIServer(cfg.APIPort, skyagent.NewRouter(handler, healthChecker, logger), logger)

	agentErr := make(chan error, 1)
	go func() {
		if err := agent.Start(ctx); err != nil {
			logger.Error("Agent error", "error", err)
			agentErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-agentErr:
		logger.Error("Agent failed", "error", err)
	}

	logger.Info("Initiating graceful shutdown")
	cancel()

	if err := agent.Stop(); err != nil {
		logger.Error("Error stopping agent", "error", err)
	}

	if pgClient != nil {
		if err := pgClient.Disconnect(); err != nil {
			logger.Error("Error closing Postgres connection", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down API server", "error", err)
	}

	logger.Info("Sky agent shutdown complete")
}

func connectArchive(ctx context.Context, pg postgres.Client, logger *slog.Logger) (*skyagent.Archive, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := pg.Connect(connectCtx); err != nil {
		return nil, err
	}

	archive := skyagent.NewArchive(pg, logger)
	if err := archive.EnsureSchema(connectCtx); err != nil {
		return nil, err
	}
	return archive, nil
}

func startAPIServer(port int, router http.Handler, logger *slog.Logger) *http.Server {
	server := skyagent.NewServer(port, router)

	go func() {
		logger.Info("Starting API server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	return server
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
