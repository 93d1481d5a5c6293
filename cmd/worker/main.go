package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aferreira-dev/socialio-backend/internal/events/consumer"
	"github.com/aferreira-dev/socialio-backend/internal/projections"
	"github.com/aferreira-dev/socialio-backend/pkg/config"
	"github.com/aferreira-dev/socialio-backend/pkg/instance"
	"github.com/aferreira-dev/socialio-backend/pkg/kafka"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
	"github.com/aferreira-dev/socialio-backend/pkg/metrics"
	"github.com/aferreira-dev/socialio-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	eventingMetrics := metrics.NewEventingMetrics(registry)
	go serveMetrics(cfg.App.MetricsPort, registry, logg)

	reader := kafka.NewGroupReader(cfg.Kafka)
	store := projections.NewStore(redisClient)
	eventConsumer, err := consumer.New(consumer.Params{
		Reader:   reader,
		Store:    store,
		Logger:   logg,
		Metrics:  eventingMetrics,
		DedupTTL: cfg.Eventing.IdempotencyTTL(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create event consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logg,
		Redis:         redisClient,
		EventConsumer: eventConsumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "worker",
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting event consumer worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}

func serveMetrics(port string, registry *prometheus.Registry, logg *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logg.Error(context.Background(), "metrics server stopped", err)
	}
}
