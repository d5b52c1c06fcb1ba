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
	"studyloop-generation/internal/database"
	"studyloop-generation/internal/features"
	"studyloop-generation/internal/jobs"
	"studyloop-generation/internal/logger"
	"studyloop-generation/internal/metadata"
	"studyloop-generation/internal/storage"
	"studyloop-generation/internal/worker"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.Load()

	appLog, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer appLog.Sync()

	storageBackend, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		appLog.Fatal("Failed to initialize storage", "error", err)
	}
	storageService := storage.NewStorageService(storageBackend)

	db, err := database.Connect(cfg.DatabaseURL, cfg.LogLevel, appLog)
	if err != nil {
		appLog.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	temporalClient, err := jobs.Dial(cfg.Temporal, appLog)
	if err != nil {
		appLog.Fatal("Failed to connect to Temporal", "error", err)
	}
	defer temporalClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	generator, err := worker.NewGeminiGenerator(ctx, cfg.Gemini)
	if err != nil {
		appLog.Fatal("Failed to initialize generator", "error", err)
	}

	// Le worker ne déclenche rien, il enregistre seulement l'issue des exécutions
	runService := jobs.NewRunService(jobs.NewTemporalRunClient(temporalClient, cfg.Temporal), jobs.NewRunRepository(db.DB), appLog)

	activities := &worker.Activities{
		Configs:          features.NewConfigService(features.NewFeaturesRepository(db.DB), appLog),
		Materials:        storageService,
		Generator:        generator,
		Metadata:         metadata.NewUpdater(metadata.NewWeekRepository(db.DB), appLog),
		Runs:             runService,
		Log:              appLog.With("component", "activities"),
		MaxMaterialBytes: cfg.Gemini.MaxMaterial,
	}

	pool := worker.NewWorkerPool(temporalClient, activities, worker.PoolConfigFrom(cfg), appLog)
	if err := pool.Start(ctx); err != nil {
		appLog.Fatal("Failed to start worker", "error", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Worker.HealthPort,
		Handler:           api.SetupWorkerRouter(pool, db, appLog, cfg.Environment),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	appLog.Info("studyloop-generation worker running",
		"health_port", cfg.Worker.HealthPort,
		"task_queue", cfg.Temporal.TaskQueue,
		"model", cfg.Gemini.Model)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		appLog.Error("Health server failed", "error", err)
	case sig := <-quit:
		appLog.Info("Received signal, shutting down...", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Health server shutdown failed", "error", err)
	}

	if err := pool.Stop(); err != nil {
		appLog.Error("Worker stop failed", "error", err)
	}
	cancel()
	appLog.Info("Worker shutdown complete")
}
