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

	"github.com/aferreira-dev/socialio-backend/pkg/config"
	"github.com/aferreira-dev/socialio-backend/pkg/db"
	"github.com/aferreira-dev/socialio-backend/pkg/instance"
	"github.com/aferreira-dev/socialio-backend/pkg/kafka"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
	"github.com/aferreira-dev/socialio-backend/pkg/metrics"
	"github.com/aferreira-dev/socialio-backend/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "outbox-dispatcher"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "outbox-dispatcher"

	logg = logger.New(logger.Options{
		ServiceName: "outbox-dispatcher",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	producer := kafka.NewProducer(cfg.Kafka, logg)
	defer func() {
		if err := producer.Stop(context.Background()); err != nil {
			logg.Error(context.Background(), "error stopping producer", err)
		}
	}()

	registry := prometheus.NewRegistry()
	eventingMetrics := metrics.NewEventingMetrics(registry)
	go serveMetrics(cfg.App.MetricsPort, registry, logg)

	repo := outbox.NewRepository(dbClient.DB())
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Repository: repo,
		Producer:   producer,
		Metrics:    eventingMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox dispatcher", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "outbox-dispatcher",
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting outbox dispatcher")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox dispatcher stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "outbox dispatcher shutting down gracefully")
}

func serveMetrics(port string, registry *prometheus.Registry, logg *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logg.Error(context.Background(), "metrics server stopped", err)
	}
}
