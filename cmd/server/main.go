package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Skufu/medicheck/internal/api"
	"github.com/Skufu/medicheck/internal/app"
	"github.com/Skufu/medicheck/internal/config"
	"github.com/Skufu/medicheck/internal/gate"
	"github.com/Skufu/medicheck/internal/logging"
	"github.com/Skufu/medicheck/internal/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stderr)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()
	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      version,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telemetry init failed")
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	var db api.HealthChecker
	if cfg.EnableDB {
		pool, err := connectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("database connection failed")
		}
		defer pool.Close()
		db = pool
	}

	deps, err := buildDeps(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("setup failed")
	}
	deps.DB = db
	deps.StaticRoot = api.DetectStaticRoot()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Must outlast the model timeout plus the gate's GitHub calls.
		WriteTimeout: cfg.Model.Timeout + 2*gate.DefaultGitHubTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	logger.Info().Str("port", cfg.Port).Str("version", version).Msg("server listening")
	waitForShutdown(server, logger)
}

func buildDeps(cfg *config.Config, logger zerolog.Logger) (api.Deps, error) {
	a, err := app.New(cfg, logger)
	if err != nil {
		return api.Deps{}, err
	}
	return api.Deps{Analyzer: a.Analyzer, Gate: a.Gate, Logger: logger}, nil
}

func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

func waitForShutdown(server *http.Server, logger zerolog.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
