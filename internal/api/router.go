package api

import (
	"studyloop-generation/internal/courses"
	"studyloop-generation/internal/generation"
	"studyloop-generation/internal/jobs"
	"studyloop-generation/internal/logger"
	"studyloop-generation/internal/metadata"
	"studyloop-generation/internal/metrics"
	"studyloop-generation/internal/storage"
	"studyloop-generation/internal/validation"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RouterConfig regroupe les dépendances du routeur HTTP
type RouterConfig struct {
	Generation     *generation.Service
	Runs           jobs.RunService
	Weeks          courses.WeekService
	Metadata       metadata.Updater
	Storage        *storage.StorageService
	Tokens         *generation.TokenIssuer
	RateLimiter    *RateLimiter // nil désactive la limite sur le déclenchement
	DB             Pinger
	Logger         *logger.Logger
	CORSOrigins    []string
	TrustedProxies []string // vide: X-Forwarded-For n'est jamais pris en compte
	Environment    string
}

func SetupRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		cfg.Logger.Warn("Invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("studyloop-generation"))
	r.Use(RequestLogger(cfg.Logger))
	r.Use(SecurityHeadersMiddleware())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(ValidationMiddleware(validation.NewAPIValidator(validation.DefaultValidationConfig())))

	metrics.MustRegister()

	handlers := NewHandlers(cfg.Generation, cfg.Runs, cfg.DB, cfg.Logger, cfg.Environment)
	courseHandlers := NewCourseHandlers(cfg.Weeks, cfg.Metadata, cfg.Logger)
	storageHandlers := NewStorageHandlers(cfg.Storage, cfg.Weeks, cfg.Logger)

	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	SetupSwagger(r, cfg.Environment)

	api := r.Group("/api")

	gen := api.Group("/generation")
	{
		trigger := []gin.HandlerFunc{}
		if cfg.RateLimiter != nil {
			trigger = append(trigger, cfg.RateLimiter.Middleware())
		}
		trigger = append(trigger,
			validation.ParseTriggerRequest(),
			validation.ValidateRequest(validation.ValidateTriggerRequest),
			handlers.TriggerGeneration,
		)
		gen.POST("/trigger", trigger...)

		gen.GET("/status",
			validation.ValidateRequest(validation.ValidateCourseWeekQuery),
			handlers.GetGenerationStatus)

		gen.GET("/runs",
			validation.ValidateRequest(validation.ValidateListRunsParams),
			handlers.ListRuns)
		gen.GET("/runs/:runId",
			validation.ValidateRequest(validation.ValidateRunIDParam("runId")),
			RunTokenAuth(cfg.Tokens, generation.ActionRead),
			handlers.GetRunStatus)
		gen.POST("/runs/:runId/cancel",
			validation.ValidateRequest(validation.ValidateRunIDParam("runId")),
			RunTokenAuth(cfg.Tokens, generation.ActionWrite),
			handlers.CancelRun)
	}

	weeks := api.Group("/courses/:courseId/weeks")
	{
		weeks.GET("", courseHandlers.ListWeeks)

		week := weeks.Group("/:weekId", validation.ValidateRequest(validation.ValidateCourseWeekParams))
		week.PUT("", courseHandlers.PutWeek)
		week.GET("", courseHandlers.GetWeek)
		week.DELETE("", courseHandlers.DeleteWeek)
		week.GET("/metadata", courseHandlers.GetWeekMetadata)

		week.POST("/materials",
			validation.ValidateRequest(validation.ValidateFileUpload),
			storageHandlers.UploadMaterials)
		week.GET("/materials", storageHandlers.ListMaterials)
		week.GET("/content/:contentType", storageHandlers.GetGeneratedContent)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}
