package worker

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"studyloop-generation/pkg/models"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Workflow porte les réglages des activités du workflow de génération
type Workflow struct {
	ActivityTimeout time.Duration
	MaxAttempts     int32
}

// GenerateWeekContent génère en parallèle chaque type demandé. Un échec
// partiel termine l'exécution en COMPLETED avec les erreurs par type, l'échec
// de tous les types la termine en erreur.
func (w *Workflow) GenerateWeekContent(ctx workflow.Context, input models.GenerationRunInput) (*models.GenerationRunOutput, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Generation run started", "run_id", input.RunID, "content_types", len(input.ContentTypes))

	timeout := w.ActivityTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	attempts := w.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    attempts,
		},
	})

	futures := make([]workflow.Future, len(input.ContentTypes))
	for i, ct := range input.ContentTypes {
		futures[i] = workflow.ExecuteActivity(ctx, ActivityGenerateContentType, models.ContentTypeTask{
			RunID:       input.RunID,
			CourseID:    input.CourseID,
			WeekID:      input.WeekID,
			ConfigID:    input.ConfigID,
			ContentType: ct,
		})
	}

	out := &models.GenerationRunOutput{
		RunID:  input.RunID,
		Counts: make(map[models.ContentType]int),
		Errors: make(map[models.ContentType]string),
	}

	canceled := false
	for i, f := range futures {
		ct := input.ContentTypes[i]

		var res models.ContentTypeResult
		err := f.Get(ctx, &res)
		if err == nil {
			if !res.Skipped {
				out.Counts[ct] = res.Count
			}
			continue
		}

		if temporal.IsCanceledError(err) {
			canceled = true
			continue
		}

		msg := failureMessage(err)
		out.Errors[ct] = msg
		logger.Warn("Content type failed", "run_id", input.RunID, "content_type", ct, "error", msg)

		failure := ContentFailure{
			RunID:       input.RunID,
			CourseID:    input.CourseID,
			WeekID:      input.WeekID,
			ContentType: ct,
			Message:     msg,
		}
		if err := workflow.ExecuteActivity(ctx, ActivityRecordContentFailure, failure).Get(ctx, nil); err != nil {
			logger.Error("Failed to record content failure", "run_id", input.RunID, "content_type", ct, "error", err)
		}
	}

	// La finalisation doit survivre à l'annulation du workflow
	finalCtx, cancel := workflow.NewDisconnectedContext(ctx)
	defer cancel()
	outcome := RunOutcome{RunID: input.RunID, Status: models.RunCompleted}

	var runErr error
	switch {
	case canceled:
		outcome.Status = models.RunCanceled
		runErr = temporal.NewCanceledError()
	case len(input.ContentTypes) > 0 && len(out.Errors) == len(input.ContentTypes):
		outcome.Status = models.RunCrashed
		outcome.Error = joinErrors(out.Errors)
		runErr = temporal.NewApplicationError("all content types failed: "+outcome.Error, "GenerationFailed")
	case len(out.Errors) > 0:
		outcome.Error = joinErrors(out.Errors)
	}

	if err := workflow.ExecuteActivity(finalCtx, ActivityFinalizeRun, outcome).Get(finalCtx, nil); err != nil {
		logger.Error("Failed to finalize run", "run_id", input.RunID, "error", err)
	}

	logger.Info("Generation run finished", "run_id", input.RunID, "status", outcome.Status)
	if runErr != nil {
		return nil, runErr
	}
	return out, nil
}

func failureMessage(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message()
	}
	var timeoutErr *temporal.TimeoutError
	if errors.As(err, &timeoutErr) {
		return fmt.Sprintf("generation timed out (%s)", timeoutErr.TimeoutType())
	}
	return err.Error()
}

// joinErrors produit "type: message; ..." dans l'ordre des types
func joinErrors(errs map[models.ContentType]string) string {
	types := make([]string, 0, len(errs))
	for ct := range errs {
		types = append(types, string(ct))
	}
	sort.Strings(types)

	parts := make([]string, len(types))
	for i, ct := range types {
		parts[i] = ct + ": " + errs[models.ContentType(ct)]
	}
	return strings.Join(parts, "; ")
}
