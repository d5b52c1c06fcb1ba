package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"studyloop-generation/internal/courses"
	"studyloop-generation/internal/generation"
	"studyloop-generation/internal/jobs"
	"studyloop-generation/internal/logger"
	"studyloop-generation/internal/metadata"
	"studyloop-generation/internal/validation"
	"studyloop-generation/pkg/models"

	"github.com/gin-gonic/gin"
)

// Version est la version publiée de l'API
const Version = "1.0.0"

// Pinger vérifie une dépendance (base de données)
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	generation  *generation.Service
	runs        jobs.RunService
	db          Pinger
	log         *logger.Logger
	environment string
}

func NewHandlers(gen *generation.Service, runs jobs.RunService, db Pinger, log *logger.Logger, environment string) *Handlers {
	return &Handlers{
		generation:  gen,
		runs:        runs,
		db:          db,
		log:         log.With("component", "api"),
		environment: environment,
	}
}

// Health vérifie l'état du service
// @Summary Health check
// @Description Vérifie que le service et sa base de données répondent
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse "Service en bonne santé"
// @Failure 503 {object} models.HealthResponse "Base de données injoignable"
// @Router /health [get]
func (h *Handlers) Health(c *gin.Context) {
	resp := models.HealthResponse{
		Status:      "healthy",
		Service:     "studyloop-generation",
		Version:     Version,
		Timestamp:   time.Now().UTC(),
		Environment: h.environment,
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.log.Warn("Health check: database unreachable", "error", err)
			resp.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}

	c.JSON(http.StatusOK, resp)
}

// TriggerGeneration déclenche la génération de contenus pour une semaine
// @Summary Déclencher une génération
// @Description Enregistre la configuration sélective de la semaine, lance une exécution sur le job runner
// @Description et retourne un jeton d'accès public pour suivre l'exécution.
// @Tags Generation
// @Accept json
// @Produce json
// @Param request body models.TriggerRequest true "Demande de génération"
// @Success 200 {object} models.TriggerResponse "Exécution déclenchée"
// @Failure 400 {object} models.ValidationErrorResponse "Requête invalide ou aucun support"
// @Failure 404 {object} models.ErrorResponse "Semaine inconnue"
// @Failure 429 {object} models.ErrorResponse "Trop de déclenchements"
// @Failure 500 {object} models.ErrorResponse "Erreur interne"
// @Router /api/generation/trigger [post]
func (h *Handlers) TriggerGeneration(c *gin.Context) {
	req := c.MustGet("validated_trigger").(validation.ValidatedTrigger)

	resp, err := h.generation.Trigger(c.Request.Context(), generation.TriggerCommand{
		CourseID:     req.CourseID,
		WeekID:       req.WeekID,
		ContentTypes: req.ContentTypes,
		Config:       req.Config,
	})
	if err != nil {
		h.respondError(c, err, "Failed to trigger generation")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetGenerationStatus retourne la disponibilité des contenus d'une semaine
// @Summary Statut de génération d'une semaine
// @Tags Generation
// @Produce json
// @Param courseId query string true "Identifiant du cours"
// @Param weekId query string true "Identifiant de la semaine"
// @Success 200 {object} models.StatusResponse "Statut de la semaine"
// @Failure 400 {object} models.ValidationErrorResponse "Paramètres invalides"
// @Failure 404 {object} models.ErrorResponse "Semaine inconnue"
// @Router /api/generation/status [get]
func (h *Handlers) GetGenerationStatus(c *gin.Context) {
	status, err := h.generation.GetStatus(c.Request.Context(), c.Query("courseId"), c.Query("weekId"))
	if err != nil {
		h.respondError(c, err, "Failed to get generation status")
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetRunStatus interroge le job runner sur une exécution
// @Summary Statut d'une exécution
// @Description Le statut est relu auprès du job runner à chaque appel.
// @Tags Runs
// @Produce json
// @Security RunToken
// @Param runId path string true "Identifiant de l'exécution (run_<uuid>)"
// @Success 200 {object} models.RunStatusResult "Statut de l'exécution"
// @Failure 401 {object} models.ErrorResponse "Jeton absent ou invalide"
// @Failure 404 {object} models.RunStatusResult "Exécution inconnue"
// @Router /api/generation/runs/{runId} [get]
func (h *Handlers) GetRunStatus(c *gin.Context) {
	result, err := h.runs.CheckRunStatus(c.Request.Context(), c.GetString("validated_run_id"))
	if err != nil {
		h.respondError(c, err, "Failed to retrieve run")
		return
	}
	if !result.Success {
		c.JSON(http.StatusNotFound, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CancelRun annule une exécution encore active
// @Summary Annuler une exécution
// @Tags Runs
// @Produce json
// @Security RunToken
// @Param runId path string true "Identifiant de l'exécution (run_<uuid>)"
// @Success 200 {object} models.CancelRunResult "Exécution annulée"
// @Failure 404 {object} models.CancelRunResult "Exécution inconnue"
// @Failure 409 {object} models.CancelRunResult "Exécution non annulable"
// @Failure 502 {object} models.ErrorResponse "Le job runner a refusé l'annulation"
// @Router /api/generation/runs/{runId}/cancel [post]
func (h *Handlers) CancelRun(c *gin.Context) {
	runID := c.GetString("validated_run_id")
	result, err := h.runs.CancelRun(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, jobs.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, models.CancelRunResult{Success: false, Error: "Run not found", RunID: runID})
			return
		}
		h.log.Error("Run cancellation failed", "run_id", runID, "error", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	switch {
	case result.Success:
		c.JSON(http.StatusOK, result)
	case result.Status == "":
		c.JSON(http.StatusNotFound, result)
	default:
		c.JSON(http.StatusConflict, result)
	}
}

// ListRuns liste les exécutions d'une semaine, les plus récentes d'abord
// @Summary Lister les exécutions d'une semaine
// @Tags Runs
// @Produce json
// @Param courseId query string true "Identifiant du cours"
// @Param weekId query string true "Identifiant de la semaine"
// @Param status query string false "Filtre de statut"
// @Param limit query int false "Nombre max de résultats" default(50)
// @Param offset query int false "Décalage" default(0)
// @Success 200 {object} models.RunListResponse "Exécutions"
// @Failure 400 {object} models.ValidationErrorResponse "Paramètres invalides"
// @Router /api/generation/runs [get]
func (h *Handlers) ListRuns(c *gin.Context) {
	params := c.MustGet("validated_list_params").(validation.ListRunsParams)

	runs, total, err := h.runs.ListRuns(c.Request.Context(), jobs.RunFilters{
		CourseID: params.CourseID,
		WeekID:   params.WeekID,
		Status:   params.Status,
		Limit:    params.Pagination.Limit,
		Offset:   params.Pagination.Offset,
	})
	if err != nil {
		h.respondError(c, err, "Failed to list runs")
		return
	}

	responses := make([]*models.RunResponse, len(runs))
	for i, run := range runs {
		responses[i] = run.ToResponse()
	}

	c.JSON(http.StatusOK, models.RunListResponse{
		Runs:   responses,
		Total:  total,
		Limit:  params.Pagination.Limit,
		Offset: params.Pagination.Offset,
	})
}

// respondError traduit les erreurs des services en statut HTTP avec l'enveloppe {success:false,error}
func (h *Handlers) respondError(c *gin.Context, err error, msg string) {
	respondError(c, h.log, err, msg)
}

func respondError(c *gin.Context, log *logger.Logger, err error, msg string) {
	status := http.StatusInternalServerError
	message := msg

	switch {
	case errors.Is(err, courses.ErrWeekNotFound), errors.Is(err, metadata.ErrWeekNotFound):
		status, message = http.StatusNotFound, "Course week not found"
	case errors.Is(err, courses.ErrCourseMismatch):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, generation.ErrNoMaterials):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, jobs.ErrRunNotFound):
		status, message = http.StatusNotFound, "Run not found"
	default:
		log.Error(msg, "path", c.FullPath(), "error", err)
	}

	c.JSON(status, models.ErrorResponse{Success: false, Error: message})
}
