package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studyloop-generation/internal/logger"
	"studyloop-generation/internal/metrics"
	"studyloop-generation/pkg/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const runNotFoundMessage = "Run not found"

type runService struct {
	runner RunClient
	repo   RunRepository
	log    *logger.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func NewRunService(runner RunClient, repo RunRepository, log *logger.Logger) RunService {
	return &runService{
		runner: runner,
		repo:   repo,
		log:    log.With("component", "jobs"),
		tracer: otel.Tracer("studyloop/jobs"),
		now:    time.Now,
	}
}

// StartRun déclenche l'exécution puis l'enregistre localement. Si l'enregistrement
// échoue, l'exécution est annulée pour ne pas laisser de run orphelin.
func (s *runService) StartRun(ctx context.Context, input models.GenerationRunInput, materialCount int) (*models.GenerationRun, error) {
	ctx, span := s.tracer.Start(ctx, "RunService.StartRun")
	defer span.End()

	if input.RunID == "" {
		input.RunID = NewRunID()
	}
	span.SetAttributes(attribute.String("run_id", input.RunID))

	handle, err := s.runner.Trigger(ctx, input)
	if err != nil {
		span.RecordError(err)
		s.log.Error("Failed to dispatch run", "run_id", input.RunID, "course_id", input.CourseID, "week_id", input.WeekID, "error", err)
		return nil, fmt.Errorf("failed to dispatch run: %w", err)
	}

	status := handle.Status
	if status == "" {
		status = models.RunQueued
	}
	run := &models.GenerationRun{
		RunID:         handle.ID,
		CourseID:      input.CourseID,
		WeekID:        input.WeekID,
		ConfigID:      input.ConfigID,
		ContentTypes:  models.StringSlice(models.ContentTypeStrings(input.ContentTypes)),
		Status:        status,
		MaterialCount: materialCount,
	}
	if err := s.repo.Create(ctx, run); err != nil {
		span.RecordError(err)
		s.log.Error("Failed to record run, cancelling it", "run_id", handle.ID, "error", err)
		if cancelErr := s.runner.Cancel(ctx, handle.ID); cancelErr != nil {
			s.log.Error("Failed to cancel unrecorded run", "run_id", handle.ID, "error", cancelErr)
		}
		return nil, fmt.Errorf("failed to record run %s: %w", handle.ID, err)
	}

	s.log.Info("Run dispatched",
		"run_id", run.RunID, "course_id", run.CourseID, "week_id", run.WeekID,
		"content_types", []string(run.ContentTypes), "material_count", materialCount)
	return run, nil
}

func (s *runService) CheckRunStatus(ctx context.Context, runID string) (*models.RunStatusResult, error) {
	ctx, span := s.tracer.Start(ctx, "RunService.CheckRunStatus")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", runID))

	if !IsRunID(runID) {
		return &models.RunStatusResult{Success: false, Error: runNotFoundMessage}, nil
	}

	handle, err := s.runner.Retrieve(ctx, runID)
	if errors.Is(err, ErrRunNotFound) {
		return &models.RunStatusResult{Success: false, Error: runNotFoundMessage}, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to retrieve run %s: %w", runID, err)
	}

	s.mirror(ctx, runID, handle.Status)

	createdAt, updatedAt := handle.CreatedAt, handle.UpdatedAt
	active := handle.Status.CanCancel()
	return &models.RunStatusResult{
		Success:    true,
		RunID:      handle.ID,
		Status:     handle.Status,
		CreatedAt:  &createdAt,
		UpdatedAt:  &updatedAt,
		StartedAt:  handle.StartedAt,
		FinishedAt: handle.FinishedAt,
		IsActive:   active,
		CanCancel:  active,
	}, nil
}

// CancelRun n'appelle le job runner que si le statut courant est annulable.
// Les erreurs d'annulation du job runner sont retournées telles quelles.
func (s *runService) CancelRun(ctx context.Context, runID string) (*models.CancelRunResult, error) {
	ctx, span := s.tracer.Start(ctx, "RunService.CancelRun")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", runID))

	if !IsRunID(runID) {
		metrics.IncCancellation("not_found")
		return &models.CancelRunResult{Success: false, Error: runNotFoundMessage}, nil
	}

	handle, err := s.runner.Retrieve(ctx, runID)
	if errors.Is(err, ErrRunNotFound) {
		metrics.IncCancellation("not_found")
		return &models.CancelRunResult{Success: false, Error: runNotFoundMessage}, nil
	}
	if err != nil {
		span.RecordError(err)
		metrics.IncCancellation("error")
		return nil, fmt.Errorf("failed to retrieve run %s: %w", runID, err)
	}

	if !handle.Status.CanCancel() {
		metrics.IncCancellation("not_cancellable")
		s.mirror(ctx, runID, handle.Status)
		return &models.CancelRunResult{
			Success:   false,
			RunID:     runID,
			CanCancel: false,
			Status:    handle.Status,
			Error:     fmt.Sprintf("Run cannot be cancelled in status %s", handle.Status),
		}, nil
	}

	if err := s.runner.Cancel(ctx, runID); err != nil {
		span.RecordError(err)
		metrics.IncCancellation("error")
		s.log.Error("Run cancellation failed", "run_id", runID, "status", handle.Status, "error", err)
		return nil, err
	}

	cancelledAt := s.now()
	s.mirror(ctx, runID, models.RunCanceled)
	metrics.IncCancellation("cancelled")
	s.log.Info("Run cancelled", "run_id", runID, "previous_status", handle.Status)

	return &models.CancelRunResult{
		Success:        true,
		RunID:          runID,
		CanCancel:      true,
		PreviousStatus: handle.Status,
		Status:         models.RunCanceled,
		CancelledAt:    &cancelledAt,
	}, nil
}

// mirror recopie le statut du job runner sur l'enregistrement local, au mieux
func (s *runService) mirror(ctx context.Context, runID string, status models.RunStatus) {
	err := s.repo.UpdateStatus(ctx, runID, status, "")
	if err != nil && !errors.Is(err, ErrRunNotFound) {
		s.log.Warn("Failed to mirror run status", "run_id", runID, "status", status, "error", err)
	}
}

func (s *runService) GetRun(ctx context.Context, runID string) (*models.GenerationRun, error) {
	ctx, span := s.tracer.Start(ctx, "RunService.GetRun")
	defer span.End()

	run, err := s.repo.GetByRunID(ctx, runID)
	if err != nil && !errors.Is(err, ErrRunNotFound) {
		span.RecordError(err)
	}
	return run, err
}

// LatestRun retourne la dernière exécution de la semaine; un statut non terminal
// est rafraîchi auprès du job runner à chaque appel
func (s *runService) LatestRun(ctx context.Context, courseID, weekID string) (*models.GenerationRun, error) {
	ctx, span := s.tracer.Start(ctx, "RunService.LatestRun")
	defer span.End()

	run, err := s.repo.Latest(ctx, courseID, weekID)
	if err != nil {
		if !errors.Is(err, ErrRunNotFound) {
			span.RecordError(err)
		}
		return nil, err
	}

	if run.Status.IsTerminal() {
		return run, nil
	}

	handle, err := s.runner.Retrieve(ctx, run.RunID)
	switch {
	case errors.Is(err, ErrRunNotFound):
		run.SetStatus(models.RunSystemFailure)
		run.Error = "run no longer known by the job runner"
		if err := s.repo.UpdateStatus(ctx, run.RunID, run.Status, run.Error); err != nil {
			s.log.Warn("Failed to mark vanished run", "run_id", run.RunID, "error", err)
		}
	case err != nil:
		// statut local conservé, la prochaine requête retentera
		s.log.Warn("Failed to refresh run status", "run_id", run.RunID, "error", err)
	case handle.Status != run.Status:
		run.SetStatus(handle.Status)
		s.mirror(ctx, run.RunID, handle.Status)
	}
	return run, nil
}

func (s *runService) ListRuns(ctx context.Context, filters RunFilters) ([]*models.GenerationRun, int64, error) {
	ctx, span := s.tracer.Start(ctx, "RunService.ListRuns")
	defer span.End()

	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	runs, total, err := s.repo.List(ctx, filters)
	if err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, total, nil
}

// RecordOutcome enregistre le statut final rapporté par le worker
func (s *runService) RecordOutcome(ctx context.Context, runID string, status models.RunStatus, errorMsg string) error {
	ctx, span := s.tracer.Start(ctx, "RunService.RecordOutcome")
	defer span.End()

	if err := s.repo.UpdateStatus(ctx, runID, status, errorMsg); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to record outcome of run %s: %w", runID, err)
	}

	s.log.Info("Run finished", "run_id", runID, "status", status, "error", errorMsg)
	return nil
}

func (s *runService) CleanupOldRuns(ctx context.Context, maxAge time.Duration) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "RunService.CleanupOldRuns")
	defer span.End()

	cutoffTime := s.now().Add(-maxAge)
	deleted, err := s.repo.DeleteOldRuns(ctx, cutoffTime)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to cleanup old runs: %w", err)
	}

	if deleted > 0 {
		s.log.Info("Cleaned up old runs", "deleted", deleted, "max_age", maxAge.String())
	}

	return deleted, nil
}
