package jobs_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"studyloop-generation/internal/database"
	"studyloop-generation/internal/jobs"
	"studyloop-generation/internal/jobs/jobstest"
	"studyloop-generation/internal/logger"
	"studyloop-generation/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRuns(t *testing.T) (jobs.RunService, *jobstest.FakeRunClient, *gorm.DB) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	runner := jobstest.NewFakeRunClient()
	return jobs.NewRunService(runner, jobs.NewRunRepository(db), logger.NewNop()), runner, db
}

func allStatuses() []models.RunStatus {
	return append(append([]models.RunStatus{}, models.CancellableStatuses...), models.TerminalRunStatuses()...)
}

func TestCheckRunStatusActiveMatchesCancellable(t *testing.T) {
	svc, runner, _ := setupRuns(t)

	for _, status := range allStatuses() {
		t.Run(string(status), func(t *testing.T) {
			runID := jobs.NewRunID()
			runner.Put(runID, status)

			res, err := svc.CheckRunStatus(context.Background(), runID)
			require.NoError(t, err)
			require.True(t, res.Success)

			expected := status == models.RunQueued || status == models.RunExecuting || status == models.RunWaitingForDeploy
			assert.Equal(t, status, res.Status)
			assert.Equal(t, expected, res.IsActive)
			assert.Equal(t, res.IsActive, res.CanCancel)
			assert.NotNil(t, res.CreatedAt)
			assert.Equal(t, status.IsTerminal(), res.FinishedAt != nil)
		})
	}
}

func TestCheckRunStatusNotFound(t *testing.T) {
	svc, _, _ := setupRuns(t)

	for _, runID := range []string{jobs.NewRunID(), "not-a-run"} {
		res, err := svc.CheckRunStatus(context.Background(), runID)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "Run not found", res.Error)
	}
}

func TestCheckRunStatusRunnerFailure(t *testing.T) {
	svc, runner, _ := setupRuns(t)
	runner.RetrieveErr = errors.New("connection refused")

	_, err := svc.CheckRunStatus(context.Background(), jobs.NewRunID())
	assert.ErrorContains(t, err, "connection refused")
}

func TestCancelRunOnlyCancelsActiveRuns(t *testing.T) {
	for _, status := range allStatuses() {
		t.Run(string(status), func(t *testing.T) {
			svc, runner, _ := setupRuns(t)
			runID := jobs.NewRunID()
			runner.Put(runID, status)

			res, err := svc.CancelRun(context.Background(), runID)
			require.NoError(t, err)

			if status.CanCancel() {
				assert.True(t, res.Success)
				assert.True(t, res.CanCancel)
				assert.Equal(t, status, res.PreviousStatus)
				assert.Equal(t, models.RunCanceled, res.Status)
				assert.NotNil(t, res.CancelledAt)
				assert.Equal(t, []string{runID}, runner.Cancelled())
				return
			}

			assert.False(t, res.Success)
			assert.False(t, res.CanCancel)
			assert.Equal(t, status, res.Status)
			assert.Equal(t, "Run cannot be cancelled in status "+string(status), res.Error)
			assert.Empty(t, runner.Cancelled(), "the runner is not asked to cancel a finished run")
		})
	}
}

func TestCancelRunNotFound(t *testing.T) {
	svc, runner, _ := setupRuns(t)

	res, err := svc.CancelRun(context.Background(), jobs.NewRunID())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Run not found", res.Error)
	assert.Empty(t, runner.Cancelled())
}

func TestCancelRunPropagatesRunnerError(t *testing.T) {
	svc, runner, _ := setupRuns(t)
	runID := jobs.NewRunID()
	runner.Put(runID, models.RunExecuting)
	boom := errors.New("runner unavailable")
	runner.CancelErr = boom

	res, err := svc.CancelRun(context.Background(), runID)
	assert.Nil(t, res)
	assert.Same(t, boom, err)
}

func TestStartRunRecordsRun(t *testing.T) {
	svc, runner, _ := setupRuns(t)
	ctx := context.Background()
	configID := uuid.New()

	run, err := svc.StartRun(ctx, models.GenerationRunInput{
		CourseID:     "c1",
		WeekID:       "w1",
		ConfigID:     configID,
		ContentTypes: []models.ContentType{models.ContentCuecards, models.ContentSummaries},
	}, 3)
	require.NoError(t, err)
	assert.True(t, jobs.IsRunID(run.RunID))
	assert.Equal(t, models.RunQueued, run.Status)

	input, ok := runner.Input(run.RunID)
	require.True(t, ok)
	assert.Equal(t, run.RunID, input.RunID)
	assert.Equal(t, configID, input.ConfigID)

	stored, err := svc.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, []models.ContentType{models.ContentCuecards, models.ContentSummaries}, stored.Types())
	assert.Equal(t, 3, stored.MaterialCount)
}

func TestStartRunDispatchFailure(t *testing.T) {
	svc, runner, db := setupRuns(t)
	runner.TriggerErr = errors.New("no route to host")

	_, err := svc.StartRun(context.Background(), models.GenerationRunInput{CourseID: "c1", WeekID: "w1"}, 1)
	assert.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.GenerationRun{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStartRunCancelsUnrecordedRun(t *testing.T) {
	svc, runner, db := setupRuns(t)
	runID := jobs.NewRunID()
	// un enregistrement existant avec le même runId fait échouer l'insertion
	require.NoError(t, db.Create(&models.GenerationRun{RunID: runID, CourseID: "c1", WeekID: "w1"}).Error)

	_, err := svc.StartRun(context.Background(), models.GenerationRunInput{RunID: runID, CourseID: "c1", WeekID: "w1"}, 1)
	assert.Error(t, err)
	assert.Equal(t, []string{runID}, runner.Cancelled())
}

func TestLatestRunRefreshesActiveStatus(t *testing.T) {
	svc, runner, _ := setupRuns(t)
	ctx := context.Background()

	run, err := svc.StartRun(ctx, models.GenerationRunInput{CourseID: "c1", WeekID: "w1"}, 1)
	require.NoError(t, err)

	runner.SetStatus(run.RunID, models.RunExecuting)
	latest, err := svc.LatestRun(ctx, "c1", "w1")
	require.NoError(t, err)
	assert.Equal(t, models.RunExecuting, latest.Status)

	runner.SetStatus(run.RunID, models.RunCompleted)
	latest, err = svc.LatestRun(ctx, "c1", "w1")
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, latest.Status)

	stored, err := svc.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, stored.Status)
	assert.NotNil(t, stored.StartedAt)
	assert.NotNil(t, stored.CompletedAt)

	_, err = svc.LatestRun(ctx, "c1", "w2")
	assert.ErrorIs(t, err, jobs.ErrRunNotFound)
}

func TestLatestRunMarksVanishedRun(t *testing.T) {
	svc, _, db := setupRuns(t)
	ctx := context.Background()

	runID := jobs.NewRunID()
	require.NoError(t, db.Create(&models.GenerationRun{RunID: runID, CourseID: "c1", WeekID: "w1", Status: models.RunExecuting}).Error)

	latest, err := svc.LatestRun(ctx, "c1", "w1")
	require.NoError(t, err)
	assert.Equal(t, models.RunSystemFailure, latest.Status)
	assert.NotEmpty(t, latest.Error)
}

func TestListRunsAndCleanup(t *testing.T) {
	svc, _, db := setupRuns(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	for i, status := range []models.RunStatus{models.RunCompleted, models.RunExecuting, models.RunCanceled} {
		run := &models.GenerationRun{RunID: jobs.NewRunID(), CourseID: "c1", WeekID: "w1", Status: status}
		require.NoError(t, db.Create(run).Error)
		if i < 2 {
			require.NoError(t, db.Model(run).UpdateColumn("created_at", old).Error)
		}
	}

	runs, total, err := svc.ListRuns(ctx, jobs.RunFilters{CourseID: "c1", WeekID: "w1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, runs, 3)

	active, total, err := svc.ListRuns(ctx, jobs.RunFilters{CourseID: "c1", WeekID: "w1", Status: models.RunExecuting})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, models.RunExecuting, active[0].Status)

	cleanup := jobs.NewCleanupService(svc, time.Hour, 24*time.Hour, logger.NewNop())
	assert.Equal(t, int64(1), cleanup.RunOnce(ctx), "only the old finished run is removed")

	_, total, err = svc.ListRuns(ctx, jobs.RunFilters{CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestRecordOutcome(t *testing.T) {
	svc, _, _ := setupRuns(t)
	ctx := context.Background()

	run, err := svc.StartRun(ctx, models.GenerationRunInput{CourseID: "c1", WeekID: "w1"}, 1)
	require.NoError(t, err)

	require.NoError(t, svc.RecordOutcome(ctx, run.RunID, models.RunCrashed, "cuecards: model timeout"))
	stored, err := svc.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunCrashed, stored.Status)
	assert.Equal(t, "cuecards: model timeout", stored.Error)

	assert.ErrorIs(t, svc.RecordOutcome(ctx, jobs.NewRunID(), models.RunCompleted, ""), jobs.ErrRunNotFound)
}
