package generation

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"studyloop-generation/internal/courses"
	"studyloop-generation/internal/features"
	"studyloop-generation/internal/jobs"
	"studyloop-generation/internal/logger"
	"studyloop-generation/internal/metrics"
	"studyloop-generation/pkg/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoMaterials est retourné quand aucun support n'a été téléversé pour la semaine
var ErrNoMaterials = errors.New("no course materials uploaded for this week")

// WeekLookup retourne courses.ErrWeekNotFound pour une semaine inconnue
type WeekLookup interface {
	GetWeek(ctx context.Context, courseID, weekID string) (*models.CourseWeek, error)
}

type MaterialCounter interface {
	CountMaterials(ctx context.Context, courseID, weekID string) (int, error)
}

// TriggerCommand est une demande de génération déjà validée
type TriggerCommand struct {
	CourseID     string
	WeekID       string
	ContentTypes []models.ContentType
	Config       *models.SelectiveGenerationConfig
}

// Service orchestre le déclenchement des générations et l'état par semaine
type Service struct {
	weeks     WeekLookup
	materials MaterialCounter
	configs   features.ConfigService
	runs      jobs.RunService
	tokens    *TokenIssuer
	log       *logger.Logger
	tracer    trace.Tracer
}

func NewService(weeks WeekLookup, materials MaterialCounter, configs features.ConfigService, runs jobs.RunService, tokens *TokenIssuer, log *logger.Logger) *Service {
	return &Service{
		weeks:     weeks,
		materials: materials,
		configs:   configs,
		runs:      runs,
		tokens:    tokens,
		log:       log.With("component", "generation"),
		tracer:    otel.Tracer("studyloop/generation"),
	}
}

// Trigger persiste la configuration effective, déclenche l'exécution et retourne
// le jeton d'accès public qui permet au client de suivre le run
func (s *Service) Trigger(ctx context.Context, cmd TriggerCommand) (*models.TriggerResponse, error) {
	ctx, span := s.tracer.Start(ctx, "GenerationService.Trigger")
	defer span.End()
	span.SetAttributes(
		attribute.String("course_id", cmd.CourseID),
		attribute.String("week_id", cmd.WeekID),
		attribute.StringSlice("content_types", models.ContentTypeStrings(cmd.ContentTypes)),
	)

	if len(cmd.ContentTypes) == 0 {
		metrics.IncTrigger("invalid")
		return nil, errors.New("at least one content type is required")
	}

	if _, err := s.weeks.GetWeek(ctx, cmd.CourseID, cmd.WeekID); err != nil {
		if errors.Is(err, courses.ErrWeekNotFound) {
			metrics.IncTrigger("not_found")
			return nil, err
		}
		span.RecordError(err)
		metrics.IncTrigger("error")
		return nil, fmt.Errorf("failed to load week %s: %w", cmd.WeekID, err)
	}

	materialCount, err := s.materials.CountMaterials(ctx, cmd.CourseID, cmd.WeekID)
	if err != nil {
		span.RecordError(err)
		metrics.IncTrigger("error")
		return nil, err
	}
	if materialCount == 0 {
		metrics.IncTrigger("no_materials")
		return nil, ErrNoMaterials
	}

	cfg := effectiveConfig(cmd.Config, cmd.ContentTypes)
	configID, err := s.configs.SaveGenerationConfig(ctx, cfg, cmd.WeekID, cmd.CourseID)
	if err != nil {
		span.RecordError(err)
		metrics.IncTrigger("error")
		return nil, err
	}

	runID := jobs.NewRunID()
	token, err := s.tokens.Mint(runID, cmd.CourseID, cmd.WeekID)
	if err != nil {
		span.RecordError(err)
		metrics.IncTrigger("error")
		return nil, err
	}

	run, err := s.runs.StartRun(ctx, models.GenerationRunInput{
		RunID:        runID,
		CourseID:     cmd.CourseID,
		WeekID:       cmd.WeekID,
		ConfigID:     configID,
		ContentTypes: cmd.ContentTypes,
	}, materialCount)
	if err != nil {
		span.RecordError(err)
		metrics.IncTrigger("error")
		return nil, err
	}

	if err := s.configs.SetLastRun(ctx, configID, run.RunID); err != nil {
		s.log.Warn("Failed to record last run on features", "config_id", configID, "run_id", run.RunID, "error", err)
	}

	metrics.IncTrigger("dispatched")
	s.log.Info("Generation triggered",
		"run_id", run.RunID, "config_id", configID, "course_id", cmd.CourseID, "week_id", cmd.WeekID,
		"content_types", models.ContentTypeStrings(cmd.ContentTypes), "material_count", materialCount)

	return &models.TriggerResponse{
		Success:           true,
		RunID:             run.RunID,
		PublicAccessToken: token,
		ConfigID:          configID,
		ContentTypes:      models.ContentTypeStrings(cmd.ContentTypes),
		MaterialCount:     materialCount,
	}, nil
}

// effectiveConfig force la sélection à exactement les types demandés, sans modifier
// la configuration reçue
func effectiveConfig(requested *models.SelectiveGenerationConfig, types []models.ContentType) *models.SelectiveGenerationConfig {
	if requested == nil {
		return models.NewSelectiveGenerationConfig(types)
	}
	cfg := &models.SelectiveGenerationConfig{
		Version:          requested.Version,
		SelectedFeatures: maps.Clone(requested.SelectedFeatures),
		FeatureConfigs:   maps.Clone(requested.FeatureConfigs),
	}
	if cfg.FeatureConfigs == nil {
		cfg.FeatureConfigs = map[models.ContentType]models.FeatureConfig{}
	}
	cfg.Restrict(types)
	return cfg
}

// GetStatus agrège l'état des six types de contenu d'une semaine
func (s *Service) GetStatus(ctx context.Context, courseID, weekID string) (*models.StatusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "GenerationService.GetStatus")
	defer span.End()

	week, err := s.weeks.GetWeek(ctx, courseID, weekID)
	if err != nil {
		if !errors.Is(err, courses.ErrWeekNotFound) {
			span.RecordError(err)
		}
		return nil, err
	}

	row, err := s.configs.GetByCourseWeek(ctx, courseID, weekID)
	if err != nil && !errors.Is(err, features.ErrNotFound) {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load features of %s/%s: %w", courseID, weekID, err)
	}

	run, err := s.runs.LatestRun(ctx, courseID, weekID)
	if err != nil && !errors.Is(err, jobs.ErrRunNotFound) {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load latest run of %s/%s: %w", courseID, weekID, err)
	}

	status := BuildStatus(courseID, weekID, row, run, week.UpdatedAt)
	metrics.IncStatusQuery(string(status.OverallStatus))
	return status, nil
}

// BuildStatus calcule la réponse de statut. row et run peuvent être nil.
func BuildStatus(courseID, weekID string, row *models.CourseWeekFeatures, run *models.GenerationRun, fallback time.Time) *models.StatusResponse {
	resp := &models.StatusResponse{
		Success:             true,
		CourseID:            courseID,
		WeekID:              weekID,
		ContentAvailability: make(map[models.ContentType]models.ContentAvailability, len(models.AllContentTypes())),
	}

	runActive := run != nil && run.Status.IsActive()
	var available, failed int
	for _, ct := range models.AllContentTypes() {
		var state models.FeatureState
		if row != nil {
			state = row.Feature(ct)
		}

		entry := models.ContentAvailability{
			Status:       models.AvailabilityNone,
			Count:        state.Count,
			IsGenerating: runActive && run.Includes(ct),
			Error:        state.Error,
		}
		switch {
		case state.Available():
			entry.Status = models.AvailabilityAvailable
			available++
		case state.Error != "":
			entry.Status = models.AvailabilityError
			failed++
		}
		if entry.IsGenerating {
			resp.IsGenerating = true
		}
		resp.ContentAvailability[ct] = entry
	}

	switch {
	case resp.IsGenerating:
		resp.OverallStatus = models.OverallGenerating
	case available == 0 && failed == 0:
		resp.OverallStatus = models.OverallNone
	case available == 0:
		resp.OverallStatus = models.OverallError
	case failed > 0:
		resp.OverallStatus = models.OverallPartial
	default:
		resp.OverallStatus = models.OverallAvailable
	}

	lastUpdated := fallback
	if row != nil && row.LastUpdated().After(lastUpdated) {
		lastUpdated = row.LastUpdated()
	}
	resp.LastUpdated = lastUpdated.UTC().Format(time.RFC3339)
	return resp
}
