package jobs

import (
	"context"
	"time"

	"studyloop-generation/pkg/models"
)

// RunService relaie l'état et l'annulation des exécutions du job runner et
// en garde une trace locale
type RunService interface {
	StartRun(ctx context.Context, input models.GenerationRunInput, materialCount int) (*models.GenerationRun, error)
	CheckRunStatus(ctx context.Context, runID string) (*models.RunStatusResult, error)
	CancelRun(ctx context.Context, runID string) (*models.CancelRunResult, error)
	GetRun(ctx context.Context, runID string) (*models.GenerationRun, error)
	LatestRun(ctx context.Context, courseID, weekID string) (*models.GenerationRun, error)
	ListRuns(ctx context.Context, filters RunFilters) ([]*models.GenerationRun, int64, error)
	RecordOutcome(ctx context.Context, runID string, status models.RunStatus, errorMsg string) error
	CleanupOldRuns(ctx context.Context, maxAge time.Duration) (int64, error)
}
