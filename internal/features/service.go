package features

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studyloop-generation/internal/logger"
	"studyloop-generation/pkg/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ErrConfigNotSaved est retourné quand l'upsert ne produit aucune ligne
var ErrConfigNotSaved = errors.New("failed to save generation config")

// ConfigService gère la configuration sélective et l'état des contenus d'une semaine
type ConfigService interface {
	SaveGenerationConfig(ctx context.Context, cfg *models.SelectiveGenerationConfig, weekID, courseID string) (uuid.UUID, error)
	GetGenerationConfig(ctx context.Context, configID uuid.UUID) (*models.SelectiveGenerationConfig, error)
	GetFeatureGenerationConfig(ctx context.Context, configID uuid.UUID, ct models.ContentType) (*models.FeatureConfig, error)
	GetByCourseWeek(ctx context.Context, courseID, weekID string) (*models.CourseWeekFeatures, error)
	MarkFeatureGenerated(ctx context.Context, courseID, weekID string, ct models.ContentType, count int) error
	MarkFeatureFailed(ctx context.Context, courseID, weekID string, ct models.ContentType, message string) error
	SetLastRun(ctx context.Context, configID uuid.UUID, runID string) error
}

type configService struct {
	repo   FeaturesRepository
	log    *logger.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func NewConfigService(repo FeaturesRepository, log *logger.Logger) ConfigService {
	return &configService{
		repo:   repo,
		log:    log.With("component", "features"),
		tracer: otel.Tracer("studyloop/features"),
		now:    time.Now,
	}
}

func (s *configService) SaveGenerationConfig(ctx context.Context, cfg *models.SelectiveGenerationConfig, weekID, courseID string) (uuid.UUID, error) {
	ctx, span := s.tracer.Start(ctx, "ConfigService.SaveGenerationConfig")
	defer span.End()

	row, err := s.repo.UpsertConfig(ctx, courseID, weekID, cfg)
	if errors.Is(err, ErrNotFound) || (err == nil && row == nil) {
		span.RecordError(ErrConfigNotSaved)
		s.log.Error("Generation config upsert returned no row", "course_id", courseID, "week_id", weekID)
		return uuid.Nil, ErrConfigNotSaved
	}
	if err != nil {
		span.RecordError(err)
		s.log.Error("Failed to save generation config", "course_id", courseID, "week_id", weekID, "error", err)
		return uuid.Nil, fmt.Errorf("%w: %v", ErrConfigNotSaved, err)
	}

	s.log.Info("Generation config saved",
		"config_id", row.ID, "course_id", courseID, "week_id", weekID, "config_version", row.ConfigVersion)
	return row.ID, nil
}

// GetGenerationConfig retourne nil, nil si la configuration n'existe pas
func (s *configService) GetGenerationConfig(ctx context.Context, configID uuid.UUID) (*models.SelectiveGenerationConfig, error) {
	ctx, span := s.tracer.Start(ctx, "ConfigService.GetGenerationConfig")
	defer span.End()

	row, err := s.repo.GetByID(ctx, configID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get generation config %s: %w", configID, err)
	}

	return row.Config(), nil
}

// GetFeatureGenerationConfig retourne nil si la configuration est absente ou si le
// type n'est pas sélectionné, l'entrée explicite si elle existe, sinon les valeurs par défaut
func (s *configService) GetFeatureGenerationConfig(ctx context.Context, configID uuid.UUID, ct models.ContentType) (*models.FeatureConfig, error) {
	ctx, span := s.tracer.Start(ctx, "ConfigService.GetFeatureGenerationConfig")
	defer span.End()

	cfg, err := s.GetGenerationConfig(ctx, configID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if cfg == nil {
		return nil, nil
	}

	return cfg.FeatureConfigFor(ct), nil
}

func (s *configService) GetByCourseWeek(ctx context.Context, courseID, weekID string) (*models.CourseWeekFeatures, error) {
	ctx, span := s.tracer.Start(ctx, "ConfigService.GetByCourseWeek")
	defer span.End()

	row, err := s.repo.GetByCourseWeek(ctx, courseID, weekID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
		}
		return nil, err
	}
	return row, nil
}

func (s *configService) MarkFeatureGenerated(ctx context.Context, courseID, weekID string, ct models.ContentType, count int) error {
	ctx, span := s.tracer.Start(ctx, "ConfigService.MarkFeatureGenerated")
	defer span.End()

	if count < 0 {
		return fmt.Errorf("generated count must not be negative: %d", count)
	}

	now := s.now()
	state := models.FeatureState{
		Generated:   count > 0,
		Count:       count,
		GeneratedAt: &now,
	}
	if err := s.repo.UpdateFeature(ctx, courseID, weekID, ct, state); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mark %s generated for %s/%s: %w", ct, courseID, weekID, err)
	}

	s.log.Info("Feature generated", "course_id", courseID, "week_id", weekID, "content_type", ct, "count", count)
	return nil
}

func (s *configService) MarkFeatureFailed(ctx context.Context, courseID, weekID string, ct models.ContentType, message string) error {
	ctx, span := s.tracer.Start(ctx, "ConfigService.MarkFeatureFailed")
	defer span.End()

	if message == "" {
		message = "generation failed"
	}
	if err := s.repo.SetFeatureError(ctx, courseID, weekID, ct, message); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mark %s failed for %s/%s: %w", ct, courseID, weekID, err)
	}

	s.log.Warn("Feature generation failed", "course_id", courseID, "week_id", weekID, "content_type", ct, "error", message)
	return nil
}

func (s *configService) SetLastRun(ctx context.Context, configID uuid.UUID, runID string) error {
	ctx, span := s.tracer.Start(ctx, "ConfigService.SetLastRun")
	defer span.End()

	if err := s.repo.SetLastRun(ctx, configID, runID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to record run %s on config %s: %w", runID, configID, err)
	}
	return nil
}
