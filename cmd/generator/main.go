package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyloop-generation/internal/api"
	"studyloop-generation/internal/config"
	"studyloop-generation/internal/courses"
	"studyloop-generation/internal/database"
	"studyloop-generation/internal/features"
	"studyloop-generation/internal/generation"
	"studyloop-generation/internal/jobs"
	"studyloop-generation/internal/logger"
	"studyloop-generation/internal/metadata"
	"studyloop-generation/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// @title StudyLoop Generation API
// @version 1.0.0
// @description Orchestration de la génération de contenus d'étude par semaine de cours
// @BasePath /
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.Load()

	appLog, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer appLog.Sync()

	// Initialize storage
	storageBackend, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		appLog.Fatal("Failed to initialize storage", "error", err)
	}
	storageService := storage.NewStorageService(storageBackend)

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, cfg.LogLevel, appLog)
	if err != nil {
		appLog.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		appLog.Fatal("Failed to run migrations", "error", err)
	}

	// Job runner
	temporalClient, err := jobs.Dial(cfg.Temporal, appLog)
	if err != nil {
		appLog.Fatal("Failed to connect to Temporal", "error", err)
	}
	defer temporalClient.Close()

	// Initialize services
	weekService := courses.NewWeekService(courses.NewWeekRepository(db.DB), storageService, appLog)
	configService := features.NewConfigService(features.NewFeaturesRepository(db.DB), appLog)
	runService := jobs.NewRunService(jobs.NewTemporalRunClient(temporalClient, cfg.Temporal), jobs.NewRunRepository(db.DB), appLog)
	metadataUpdater := metadata.NewUpdater(metadata.NewWeekRepository(db.DB), appLog)
	tokens := generation.NewTokenIssuer(cfg.Token)
	generationService := generation.NewService(weekService, storageService, configService, runService, tokens, appLog)

	var limiter *api.RateLimiter
	if cfg.Redis.TriggerRateEnabled {
		var redisClient *redis.Client
		if cfg.Redis.Addr != "" {
			redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer redisClient.Close()
		}
		limiter = api.NewRateLimiter(redisClient, cfg.Redis.TriggerRatePerMin, time.Minute, appLog)
	}

	// Start cleanup service
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupService := jobs.NewCleanupService(runService, cfg.CleanupInterval, cfg.CleanupMaxAge, appLog)
	go cleanupService.Start(ctx)

	router := api.SetupRouter(api.RouterConfig{
		Generation:     generationService,
		Runs:           runService,
		Weeks:          weekService,
		Metadata:       metadataUpdater,
		Storage:        storageService,
		Tokens:         tokens,
		RateLimiter:    limiter,
		DB:             db,
		Logger:         appLog,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Environment:    cfg.Environment,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	appLog.Info("Starting studyloop-generation",
		"port", cfg.Port,
		"storage_type", cfg.Storage.Type,
		"task_queue", cfg.Temporal.TaskQueue,
		"rate_limit_enabled", limiter != nil)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		appLog.Fatal("Server failed to start", "error", err)
	case sig := <-quit:
		appLog.Info("Received signal, shutting down...", "signal", sig.String())
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server shutdown failed", "error", err)
	}
	appLog.Info("Server shutdown complete")
}
