package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"studyloop-generation/internal/jobs"
	"studyloop-generation/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

type recorder struct {
	mu       sync.Mutex
	failures []ContentFailure
	outcomes []RunOutcome
}

func (r *recorder) recordFailure(_ context.Context, f ContentFailure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, f)
	return nil
}

func (r *recorder) finalize(_ context.Context, o RunOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	return nil
}

type generateFunc func(context.Context, models.ContentTypeTask) (models.ContentTypeResult, error)

func newWorkflowEnv(t *testing.T, generate generateFunc) (*testsuite.TestWorkflowEnvironment, *recorder) {
	t.Helper()
	return newWorkflowEnvFor(t, &Workflow{MaxAttempts: 1}, generate)
}

func newWorkflowEnvFor(t *testing.T, wf *Workflow, generate generateFunc) (*testsuite.TestWorkflowEnvironment, *recorder) {
	t.Helper()
	var s testsuite.WorkflowTestSuite
	env := s.NewTestWorkflowEnvironment()

	Register(env, wf, &Activities{})

	rec := &recorder{}
	env.OnActivity(ActivityGenerateContentType, mock.Anything, mock.Anything).Return(generate)
	env.OnActivity(ActivityRecordContentFailure, mock.Anything, mock.Anything).Return(rec.recordFailure)
	env.OnActivity(ActivityFinalizeRun, mock.Anything, mock.Anything).Return(rec.finalize)
	return env, rec
}

func runInput(types ...models.ContentType) models.GenerationRunInput {
	return models.GenerationRunInput{
		RunID:        "run_0b8f5c1e-2d3a-4f7b-9c1d-5e6f7a8b9c0d",
		CourseID:     "c1",
		WeekID:       "w1",
		ConfigID:     uuid.MustParse("4b0c1a62-8f57-4f0e-9a43-1d6f0e2b7c11"),
		ContentTypes: types,
	}
}

func TestWorkflowGeneratesEveryType(t *testing.T) {
	counts := map[models.ContentType]int{
		models.ContentCuecards:       20,
		models.ContentMultipleChoice: 10,
	}
	env, rec := newWorkflowEnv(t, func(_ context.Context, task models.ContentTypeTask) (models.ContentTypeResult, error) {
		return models.ContentTypeResult{ContentType: task.ContentType, Count: counts[task.ContentType]}, nil
	})

	env.ExecuteWorkflow(jobs.WorkflowName, runInput(models.ContentCuecards, models.ContentMultipleChoice))

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out models.GenerationRunOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, counts, out.Counts)
	assert.Empty(t, out.Errors)

	require.Len(t, rec.outcomes, 1)
	assert.Equal(t, models.RunCompleted, rec.outcomes[0].Status)
	assert.Empty(t, rec.outcomes[0].Error)
	assert.Empty(t, rec.failures)
}

func TestWorkflowLeavesSkippedTypesOutOfCounts(t *testing.T) {
	env, _ := newWorkflowEnv(t, func(_ context.Context, task models.ContentTypeTask) (models.ContentTypeResult, error) {
		if task.ContentType == models.ContentSummaries {
			return models.ContentTypeResult{ContentType: task.ContentType, Skipped: true}, nil
		}
		return models.ContentTypeResult{ContentType: task.ContentType, Count: 5}, nil
	})

	env.ExecuteWorkflow(jobs.WorkflowName, runInput(models.ContentOpenQuestions, models.ContentSummaries))
	require.NoError(t, env.GetWorkflowError())

	var out models.GenerationRunOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, map[models.ContentType]int{models.ContentOpenQuestions: 5}, out.Counts)
}

func TestWorkflowPartialFailureCompletes(t *testing.T) {
	env, rec := newWorkflowEnv(t, func(_ context.Context, task models.ContentTypeTask) (models.ContentTypeResult, error) {
		if task.ContentType == models.ContentConceptMaps {
			return models.ContentTypeResult{}, errors.New("model overloaded")
		}
		return models.ContentTypeResult{ContentType: task.ContentType, Count: 8}, nil
	})

	env.ExecuteWorkflow(jobs.WorkflowName, runInput(models.ContentGoldenNotes, models.ContentConceptMaps))
	require.NoError(t, env.GetWorkflowError())

	var out models.GenerationRunOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	assert.Equal(t, map[models.ContentType]int{models.ContentGoldenNotes: 8}, out.Counts)
	assert.Equal(t, "model overloaded", out.Errors[models.ContentConceptMaps])

	require.Len(t, rec.failures, 1)
	assert.Equal(t, models.ContentConceptMaps, rec.failures[0].ContentType)
	assert.Equal(t, "w1", rec.failures[0].WeekID)

	require.Len(t, rec.outcomes, 1)
	assert.Equal(t, models.RunCompleted, rec.outcomes[0].Status)
	assert.Equal(t, "conceptMaps: model overloaded", rec.outcomes[0].Error)
}

func TestWorkflowFailsWhenEveryTypeFails(t *testing.T) {
	env, rec := newWorkflowEnv(t, func(_ context.Context, task models.ContentTypeTask) (models.ContentTypeResult, error) {
		return models.ContentTypeResult{}, temporal.NewNonRetryableApplicationError("no readable course materials for this week", "NoReadableMaterials", nil)
	})

	env.ExecuteWorkflow(jobs.WorkflowName, runInput(models.ContentCuecards, models.ContentSummaries))

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "GenerationFailed", appErr.Type())

	assert.Len(t, rec.failures, 2)
	require.Len(t, rec.outcomes, 1)
	assert.Equal(t, models.RunCrashed, rec.outcomes[0].Status)
	assert.Equal(t,
		"cuecards: no readable course materials for this week; summaries: no readable course materials for this week",
		rec.outcomes[0].Error)
}

func TestWorkflowZeroAttemptsStillGivesUp(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	env, rec := newWorkflowEnvFor(t, &Workflow{MaxAttempts: 0}, func(_ context.Context, task models.ContentTypeTask) (models.ContentTypeResult, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return models.ContentTypeResult{}, errors.New("model overloaded")
	})

	env.ExecuteWorkflow(jobs.WorkflowName, runInput(models.ContentCuecards))

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	assert.Equal(t, 1, calls)
	assert.Len(t, rec.failures, 1)
	require.Len(t, rec.outcomes, 1)
	assert.Equal(t, models.RunCrashed, rec.outcomes[0].Status)
}
