package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/aferreira-dev/socialio-backend/api/routes"
	"github.com/aferreira-dev/socialio-backend/internal/auth"
	"github.com/aferreira-dev/socialio-backend/internal/comments"
	"github.com/aferreira-dev/socialio-backend/internal/feed"
	"github.com/aferreira-dev/socialio-backend/internal/follows"
	"github.com/aferreira-dev/socialio-backend/internal/posts"
	"github.com/aferreira-dev/socialio-backend/internal/projections"
	"github.com/aferreira-dev/socialio-backend/internal/users"
	"github.com/aferreira-dev/socialio-backend/pkg/config"
	"github.com/aferreira-dev/socialio-backend/pkg/db"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
	"github.com/aferreira-dev/socialio-backend/pkg/migrate"
	"github.com/aferreira-dev/socialio-backend/pkg/outbox"
	"github.com/aferreira-dev/socialio-backend/pkg/redis"
)

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

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

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	projectionStore := projections.NewStore(redisClient)

	usersRepo := users.NewRepository(dbClient.DB())
	postsRepo := posts.NewRepository(dbClient.DB())
	commentsRepo := comments.NewRepository(dbClient.DB())
	followsRepo := follows.NewRepository(dbClient.DB())

	authService, err := auth.NewService(dbClient, usersRepo, outboxService, cfg.Password, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	postsService, err := posts.NewService(dbClient, postsRepo, outboxService, projectionStore, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create posts service", err)
		os.Exit(1)
	}

	commentsService, err := comments.NewService(dbClient, commentsRepo, postsRepo, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create comments service", err)
		os.Exit(1)
	}

	followsService, err := follows.NewService(dbClient, followsRepo, usersRepo, outboxService, projectionStore)
	if err != nil {
		logg.Error(context.Background(), "failed to create follows service", err)
		os.Exit(1)
	}

	feedService, err := feed.NewService(followsRepo, postsRepo, projectionStore, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create feed service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			authService,
			usersService,
			postsService,
			commentsService,
			followsService,
			feedService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
