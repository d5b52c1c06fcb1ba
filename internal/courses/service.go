package courses

import (
	"context"
	"errors"
	"fmt"

	"studyloop-generation/internal/logger"
	"studyloop-generation/pkg/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// MaterialCleaner supprime les fichiers rattachés à une semaine
type MaterialCleaner interface {
	CleanupWeek(ctx context.Context, courseID, weekID string) error
}

type WeekService interface {
	RegisterWeek(ctx context.Context, courseID, weekID string, req *models.CourseWeekRequest) (*models.CourseWeek, bool, error)
	GetWeek(ctx context.Context, courseID, weekID string) (*models.CourseWeek, error)
	ListWeeks(ctx context.Context, courseID string) ([]models.CourseWeek, error)
	DeleteWeek(ctx context.Context, courseID, weekID string) error
	WeekExists(ctx context.Context, courseID, weekID string) (bool, error)
}

type weekService struct {
	repo      WeekRepository
	materials MaterialCleaner
	log       *logger.Logger
	tracer    trace.Tracer
}

func NewWeekService(repo WeekRepository, materials MaterialCleaner, log *logger.Logger) WeekService {
	return &weekService{
		repo:      repo,
		materials: materials,
		log:       log.With("component", "courses"),
		tracer:    otel.Tracer("studyloop/courses"),
	}
}

// RegisterWeek crée ou met à jour une semaine; le booléen indique une création
func (s *weekService) RegisterWeek(ctx context.Context, courseID, weekID string, req *models.CourseWeekRequest) (*models.CourseWeek, bool, error) {
	ctx, span := s.tracer.Start(ctx, "WeekService.RegisterWeek")
	defer span.End()

	week := &models.CourseWeek{
		ID:         weekID,
		CourseID:   courseID,
		WeekNumber: req.WeekNumber,
		Title:      req.Title,
	}
	created, err := s.repo.Save(ctx, week)
	if err != nil {
		if !errors.Is(err, ErrCourseMismatch) {
			span.RecordError(err)
		}
		return nil, false, fmt.Errorf("failed to save week %s: %w", weekID, err)
	}

	s.log.Info("Course week registered", "course_id", courseID, "week_id", weekID, "created", created)
	return week, created, nil
}

func (s *weekService) GetWeek(ctx context.Context, courseID, weekID string) (*models.CourseWeek, error) {
	ctx, span := s.tracer.Start(ctx, "WeekService.GetWeek")
	defer span.End()

	week, err := s.repo.Get(ctx, courseID, weekID)
	if err != nil && !errors.Is(err, ErrWeekNotFound) {
		span.RecordError(err)
	}
	return week, err
}

func (s *weekService) ListWeeks(ctx context.Context, courseID string) ([]models.CourseWeek, error) {
	ctx, span := s.tracer.Start(ctx, "WeekService.ListWeeks")
	defer span.End()

	weeks, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list weeks of course %s: %w", courseID, err)
	}
	return weeks, nil
}

// DeleteWeek supprime la semaine, ses lignes dépendantes (cascade) et ses fichiers
func (s *weekService) DeleteWeek(ctx context.Context, courseID, weekID string) error {
	ctx, span := s.tracer.Start(ctx, "WeekService.DeleteWeek")
	defer span.End()

	if err := s.repo.Delete(ctx, courseID, weekID); err != nil {
		if !errors.Is(err, ErrWeekNotFound) {
			span.RecordError(err)
		}
		return err
	}

	if s.materials != nil {
		if err := s.materials.CleanupWeek(ctx, courseID, weekID); err != nil {
			s.log.Warn("Failed to cleanup week files", "course_id", courseID, "week_id", weekID, "error", err)
		}
	}

	s.log.Info("Course week deleted", "course_id", courseID, "week_id", weekID)
	return nil
}

func (s *weekService) WeekExists(ctx context.Context, courseID, weekID string) (bool, error) {
	_, err := s.GetWeek(ctx, courseID, weekID)
	if errors.Is(err, ErrWeekNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
