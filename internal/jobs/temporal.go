package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studyloop-generation/internal/config"
	"studyloop-generation/internal/logger"
	"studyloop-generation/pkg/models"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// WorkflowName est le nom sous lequel le worker enregistre le workflow de génération
const WorkflowName = "GenerateWeekContent"

// Dial ouvre la connexion au serveur Temporal avec quelques tentatives
func Dial(cfg config.TemporalConfig, log *logger.Logger) (temporalsdkclient.Client, error) {
	opts := temporalsdkclient.Options{
		HostPort:  cfg.Address,
		Namespace: cfg.Namespace,
		Logger:    log,
	}

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		c, err := temporalsdkclient.DialContext(ctx, opts)
		cancel()
		if err == nil {
			log.Info("Connected to Temporal", "address", cfg.Address, "namespace", cfg.Namespace, "attempts", attempt)
			return c, nil
		}
		lastErr = err
		log.Warn("Temporal not reachable; retrying", "address", cfg.Address, "attempt", attempt, "error", err)
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	return nil, fmt.Errorf("temporal dial failed (address=%s namespace=%s): %w", cfg.Address, cfg.Namespace, lastErr)
}

// TemporalRunClient pilote les exécutions comme des workflows Temporal dont
// l'identifiant de workflow est le runId
type TemporalRunClient struct {
	client     temporalsdkclient.Client
	taskQueue  string
	deployWait time.Duration
	runTimeout time.Duration
	now        func() time.Time
}

func NewTemporalRunClient(c temporalsdkclient.Client, cfg config.TemporalConfig) *TemporalRunClient {
	return &TemporalRunClient{
		client:     c,
		taskQueue:  cfg.TaskQueue,
		deployWait: cfg.DeployWait,
		runTimeout: cfg.RunTimeout,
		now:        time.Now,
	}
}

func (t *TemporalRunClient) Trigger(ctx context.Context, input models.GenerationRunInput) (*models.RunHandle, error) {
	if input.RunID == "" {
		input.RunID = NewRunID()
	}

	opts := temporalsdkclient.StartWorkflowOptions{
		ID:                       input.RunID,
		TaskQueue:                t.taskQueue,
		WorkflowExecutionTimeout: t.runTimeout,
		WorkflowIDReusePolicy:    enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}

	if _, err := t.client.ExecuteWorkflow(ctx, opts, WorkflowName, input); err != nil {
		return nil, fmt.Errorf("start temporal workflow: %w", err)
	}

	now := t.now()
	return &models.RunHandle{
		ID:        input.RunID,
		Status:    models.RunQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (t *TemporalRunClient) Retrieve(ctx context.Context, runID string) (*models.RunHandle, error) {
	resp, err := t.client.DescribeWorkflowExecution(ctx, runID, "")
	if err != nil {
		return nil, translateTemporalError(err)
	}
	return describeToHandle(runID, resp, t.now(), t.deployWait), nil
}

// Cancel demande l'annulation du workflow, sans idempotence propre
func (t *TemporalRunClient) Cancel(ctx context.Context, runID string) error {
	if err := t.client.CancelWorkflow(ctx, runID, ""); err != nil {
		return translateTemporalError(err)
	}
	return nil
}

func translateTemporalError(err error) error {
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, notFound.Error())
	}
	return err
}

// describeToHandle traduit l'état d'un workflow en statut d'exécution
func describeToHandle(runID string, resp *workflowservice.DescribeWorkflowExecutionResponse, now time.Time, deployWait time.Duration) *models.RunHandle {
	info := resp.GetWorkflowExecutionInfo()

	handle := &models.RunHandle{
		ID:        runID,
		CreatedAt: protoTime(info.GetStartTime()),
	}
	handle.UpdatedAt = handle.CreatedAt

	switch info.GetStatus() {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		handle.Status = runningStatus(resp, handle.CreatedAt, now, deployWait)
	case enumspb.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		handle.Status = models.RunExecuting
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		handle.Status = models.RunCompleted
	case enumspb.WORKFLOW_EXECUTION_STATUS_FAILED:
		handle.Status = models.RunCrashed
	case enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED:
		handle.Status = models.RunCanceled
	case enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		handle.Status = models.RunInterrupted
	case enumspb.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		handle.Status = models.RunTimedOut
	default:
		handle.Status = models.RunSystemFailure
	}

	if handle.Status != models.RunQueued && handle.Status != models.RunWaitingForDeploy {
		started := handle.CreatedAt
		handle.StartedAt = &started
	}

	if closed := info.GetCloseTime(); closed != nil {
		at := closed.AsTime()
		handle.FinishedAt = &at
		handle.UpdatedAt = at
		return handle
	}

	if task := resp.GetPendingWorkflowTask(); task != nil {
		for _, ts := range []*timestamppb.Timestamp{task.GetScheduledTime(), task.GetStartedTime()} {
			if at := protoTime(ts); at.After(handle.UpdatedAt) {
				handle.UpdatedAt = at
			}
		}
	}
	for _, activity := range resp.GetPendingActivities() {
		for _, ts := range []*timestamppb.Timestamp{activity.GetLastStartedTime(), activity.GetLastHeartbeatTime()} {
			if at := protoTime(ts); at.After(handle.UpdatedAt) {
				handle.UpdatedAt = at
			}
		}
	}
	return handle
}

// runningStatus distingue un workflow qu'aucun worker n'a encore pris en charge
// (premier workflow task jamais démarré) d'un workflow en cours d'exécution
func runningStatus(resp *workflowservice.DescribeWorkflowExecutionResponse, startedAt, now time.Time, deployWait time.Duration) models.RunStatus {
	task := resp.GetPendingWorkflowTask()
	neverPicked := resp.GetWorkflowExecutionInfo().GetHistoryLength() <= 2 &&
		task != nil &&
		task.GetState() == enumspb.PENDING_WORKFLOW_TASK_STATE_SCHEDULED &&
		len(resp.GetPendingActivities()) == 0
	if !neverPicked {
		return models.RunExecuting
	}
	if deployWait > 0 && now.Sub(startedAt) > deployWait {
		return models.RunWaitingForDeploy
	}
	return models.RunQueued
}

func protoTime(ts *timestamppb.Timestamp) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.AsTime()
}
