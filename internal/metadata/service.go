package metadata

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"studyloop-generation/internal/logger"
	"studyloop-generation/internal/metrics"
	"studyloop-generation/pkg/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxAttempts borne les relectures après un conflit de version
const DefaultMaxAttempts = 8

// ErrMetadataConflict est retourné quand toutes les tentatives ont perdu la course
var ErrMetadataConflict = errors.New("week metadata update conflict")

// Updater maintient l'agrégat des compteurs de génération d'une semaine
type Updater interface {
	UpdateWeekContentGenerationMetadata(ctx context.Context, weekID string, ct models.ContentType, generatedCount int) (models.WeekContentGenerationMetadata, error)
	GetWeekMetadata(ctx context.Context, weekID string) (models.WeekContentGenerationMetadata, error)
}

type Option func(*updater)

// WithMaxAttempts change le nombre de tentatives d'écriture
func WithMaxAttempts(n int) Option {
	return func(u *updater) {
		if n > 0 {
			u.maxAttempts = n
		}
	}
}

// WithBackoff change l'attente de base entre deux tentatives
func WithBackoff(d time.Duration) Option {
	return func(u *updater) { u.backoff = d }
}

type updater struct {
	repo        WeekRepository
	log         *logger.Logger
	tracer      trace.Tracer
	now         func() time.Time
	maxAttempts int
	backoff     time.Duration
}

func NewUpdater(repo WeekRepository, log *logger.Logger, opts ...Option) Updater {
	u := &updater{
		repo:        repo,
		log:         log.With("component", "metadata"),
		tracer:      otel.Tracer("studyloop/metadata"),
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
		backoff:     5 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// UpdateWeekContentGenerationMetadata remplace le compteur d'un type, recalcule le
// total sur les six types et réécrit l'agrégat sous contrôle de metadata_version
func (u *updater) UpdateWeekContentGenerationMetadata(ctx context.Context, weekID string, ct models.ContentType, generatedCount int) (models.WeekContentGenerationMetadata, error) {
	ctx, span := u.tracer.Start(ctx, "MetadataUpdater.UpdateWeekContentGenerationMetadata")
	defer span.End()
	span.SetAttributes(
		attribute.String("week_id", weekID),
		attribute.String("content_type", string(ct)),
		attribute.Int("generated_count", generatedCount),
	)

	if !ct.IsValid() {
		return models.WeekContentGenerationMetadata{}, fmt.Errorf("unknown content type: %q", ct)
	}
	if generatedCount < 0 {
		return models.WeekContentGenerationMetadata{}, fmt.Errorf("generated count must not be negative: %d", generatedCount)
	}

	for attempt := 1; attempt <= u.maxAttempts; attempt++ {
		week, err := u.repo.GetWeek(ctx, weekID)
		if err != nil {
			span.RecordError(err)
			return models.WeekContentGenerationMetadata{}, err
		}

		meta := week.Metadata()
		if err := meta.ContentCounts.Set(ct, generatedCount); err != nil {
			return models.WeekContentGenerationMetadata{}, err
		}
		meta.Recompute()
		now := u.now().UTC()
		meta.GeneratedAt = &now

		swapped, err := u.repo.SwapMetadata(ctx, weekID, week.MetadataVersion, meta)
		if err != nil {
			span.RecordError(err)
			return models.WeekContentGenerationMetadata{}, fmt.Errorf("failed to write metadata for week %s: %w", weekID, err)
		}
		if swapped {
			metrics.IncMetadataUpdate(string(ct))
			u.log.Info("Week metadata updated",
				"week_id", weekID, "content_type", ct, "count", generatedCount,
				"total", meta.TotalGenerated, "attempt", attempt)
			return meta, nil
		}

		metrics.IncMetadataConflict()
		u.log.Debug("Week metadata version conflict", "week_id", weekID, "content_type", ct, "attempt", attempt)
		if err := u.wait(ctx, attempt); err != nil {
			return models.WeekContentGenerationMetadata{}, err
		}
	}

	span.RecordError(ErrMetadataConflict)
	u.log.Warn("Week metadata update gave up", "week_id", weekID, "content_type", ct, "attempts", u.maxAttempts)
	return models.WeekContentGenerationMetadata{}, fmt.Errorf("%w: week %s after %d attempts", ErrMetadataConflict, weekID, u.maxAttempts)
}

// wait applique un backoff linéaire avec gigue
func (u *updater) wait(ctx context.Context, attempt int) error {
	if u.backoff <= 0 {
		return ctx.Err()
	}
	d := u.backoff*time.Duration(attempt) + time.Duration(rand.Int64N(int64(u.backoff)))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (u *updater) GetWeekMetadata(ctx context.Context, weekID string) (models.WeekContentGenerationMetadata, error) {
	ctx, span := u.tracer.Start(ctx, "MetadataUpdater.GetWeekMetadata")
	defer span.End()

	week, err := u.repo.GetWeek(ctx, weekID)
	if err != nil {
		if !errors.Is(err, ErrWeekNotFound) {
			span.RecordError(err)
		}
		return models.WeekContentGenerationMetadata{}, err
	}
	return week.Metadata(), nil
}
