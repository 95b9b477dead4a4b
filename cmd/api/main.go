package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/swapmarket/backend/api/routes"
	"github.com/swapmarket/backend/internal/categories"
	"github.com/swapmarket/backend/internal/listings"
	"github.com/swapmarket/backend/internal/media"
	"github.com/swapmarket/backend/internal/notifications"
	"github.com/swapmarket/backend/internal/notify"
	"github.com/swapmarket/backend/internal/users"
	"github.com/swapmarket/backend/pkg/auth/session"
	"github.com/swapmarket/backend/pkg/config"
	"github.com/swapmarket/backend/pkg/db"
	"github.com/swapmarket/backend/pkg/logger"
	"github.com/swapmarket/backend/pkg/metrics"
	"github.com/swapmarket/backend/pkg/migrate"
	"github.com/swapmarket/backend/pkg/redis"
	"github.com/swapmarket/backend/pkg/storage/s3"
	"github.com/swapmarket/backend/pkg/telegram"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	storageClient, err := s3.NewClient(context.Background(), cfg.Storage)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}

	sessionChecker, err := session.NewChecker(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create session checker", err)
		os.Exit(1)
	}

	telegramClient := telegram.NewClient(cfg.Telegram, logg)
	if !telegramClient.Enabled() {
		logg.Warn(context.Background(), "telegram bot token not configured, channel sends disabled")
	}

	listingsRepo := listings.NewRepository(dbClient.DB())
	mediaRepo := media.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())
	usersRepo := users.NewRepository(dbClient.DB())
	categoriesRepo := categories.NewRepository(dbClient.DB())

	reconciler, err := media.NewReconciler(mediaRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create image reconciler", err)
		os.Exit(1)
	}

	dispatcher, err := notify.NewDispatcher(usersRepo, categoriesRepo, notificationsRepo, telegramClient, logg, cfg.Moderation.ReviewURLBase)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification dispatcher", err)
		os.Exit(1)
	}

	listingsService, err := listings.NewService(listingsRepo, dbClient, reconciler, dispatcher, storageClient, storageClient, logg, cfg.Moderation.AfterChanges)
	if err != nil {
		logg.Error(context.Background(), "failed to create listings service", err)
		os.Exit(1)
	}

	mediaService, err := media.NewService(mediaRepo, listingsRepo, storageClient, logg, cfg.Media.MaxUploadBytes())
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	categoriesService, err := categories.NewService(categoriesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create categories service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics()

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
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:            dbClient,
			Redis:         redisClient,
			Storage:       storageClient,
			Sessions:      sessionChecker,
			Metrics:       httpMetrics,
			Listings:      listingsService,
			Media:         mediaService,
			Notifications: notificationsService,
			Categories:    categoriesService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
