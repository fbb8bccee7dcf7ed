package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/nutritrack-backend/api/controllers"
	"github.com/angelmondragon/nutritrack-backend/api/routes"
	"github.com/angelmondragon/nutritrack-backend/internal/notifications"
	"github.com/angelmondragon/nutritrack-backend/internal/nutrition"
	"github.com/angelmondragon/nutritrack-backend/pkg/config"
	"github.com/angelmondragon/nutritrack-backend/pkg/db"
	"github.com/angelmondragon/nutritrack-backend/pkg/env"
	"github.com/angelmondragon/nutritrack-backend/pkg/instance"
	"github.com/angelmondragon/nutritrack-backend/pkg/kv"
	"github.com/angelmondragon/nutritrack-backend/pkg/logger"
	"github.com/angelmondragon/nutritrack-backend/pkg/metrics"
	"github.com/angelmondragon/nutritrack-backend/pkg/migrate"
	"github.com/angelmondragon/nutritrack-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	pingers := map[string]controllers.Pinger{"db": dbClient}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		pingers["redis"] = redisClient
	}

	store, err := kv.Open(cfg.Notifications, dbClient.DB(), redisClient)
	if err != nil {
		return err
	}
	loc, err := cfg.Notifications.Location()
	if err != nil {
		return err
	}

	toasters := notifications.NewToasterFactory(logg, nil)
	if cfg.FeatureFlags.RedisToasts && redisClient != nil {
		toasters = notifications.NewToasterFactory(logg, redisClient)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hub, err := notifications.NewHub(notifications.HubParams{
		Reader:     nutrition.NewRepository(dbClient.DB()),
		KV:         store,
		StorageKey: cfg.Notifications.StorageKey,
		Logger:     logg,
		Metrics:    metrics.NewNotificationMetrics(registry),
		Toasters:   toasters,
		Location:   loc,
		Interval:   cfg.Notifications.Interval,
	})
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, hub.Close())
	}()

	addr := ":" + env.Get("PORT", cfg.App.Port)
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"backend":  cfg.Notifications.Backend,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, routes.Dependencies{Hub: hub, Pingers: pingers, Registry: registry}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.Duration("SHUTDOWN_TIMEOUT", shutdownTimeout))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
