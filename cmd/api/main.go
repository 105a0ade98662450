package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"taskboard/configs"
	v1 "taskboard/internal/api/v1"
	"taskboard/internal/api/v1/handlers"
	"taskboard/internal/cache"
	"taskboard/internal/events"
	"taskboard/internal/middleware"
	"taskboard/internal/repository/postgres"
	"taskboard/internal/token"
	"taskboard/pkg/database"
	"taskboard/pkg/logger"
)

func main() {
	if err := logger.Init("logs"); err != nil {
		log.Fatalf("Cannot initialize loggers: %v", err)
	}
	defer logger.Sync()
	logger.SystemLogger.Info("Starting application",
		zap.String("time", time.Now().Format(time.RFC3339)))

	cfg := configs.LoadConfig()
	ctx := context.Background()

	db, err := database.ConnectDB(cfg)
	if err != nil {
		logger.ErrorLogger.Error("Database connection failed", zap.Error(err))
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()
	logger.SystemLogger.Info("Database connected")

	if err := postgres.CreateTablesIfNotExist(db); err != nil {
		log.Fatalf("Schema setup failed: %v", err)
	}
	store := postgres.NewStore(db)
	if err := postgres.EnsureSuperAdmin(ctx, store,
		cfg.SuperAdminUsername, cfg.SuperAdminEmail, cfg.SuperAdminPassword); err != nil {
		log.Fatalf("Superadmin bootstrap failed: %v", err)
	}

	redisClient, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.ErrorLogger.Error("Redis connection failed", zap.Error(err))
		log.Fatalf("Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	logger.SystemLogger.Info("Redis connected")

	tokens := token.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	hub := events.NewHub()
	go hub.Run()

	h := handlers.New(store, store, tokens).
		WithCache(cache.New(redisClient, cfg.CacheKey)).
		WithEvents(hub)

	app := fiber.New()
	app.Use(middleware.ErrorHandler())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	v1.RegisterRoutes(app, h, middleware.Auth(tokens, store), hub)

	logger.SystemLogger.Info("Application ready", zap.String("addr", cfg.ListenAddr))
	if err := app.Listen(cfg.ListenAddr); err != nil {
		logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
	}
}
