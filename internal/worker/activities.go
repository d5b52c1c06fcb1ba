package worker

import (
	"context"
	"time"

	"studyloop-generation/internal/features"
	"studyloop-generation/internal/logger"
	"studyloop-generation/internal/metadata"
	"studyloop-generation/internal/metrics"
	"studyloop-generation/internal/storage"
	"studyloop-generation/pkg/models"

	"go.opentelemetry.io/otel"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

// Noms des activités enregistrées sur le worker
const (
	ActivityGenerateContentType  = "GenerateContentType"
	ActivityRecordContentFailure = "RecordContentFailure"
	ActivityFinalizeRun          = "FinalizeRun"
)

// MaterialStore lit les supports et range les artefacts générés
type MaterialStore interface {
	ReadMaterials(ctx context.Context, courseID, weekID string, maxBytes int) ([]storage.Material, error)
	SaveArtifact(ctx context.Context, courseID, weekID string, ct models.ContentType, artifact any) (string, error)
}

// OutcomeRecorder enregistre le statut final d'une exécution
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, runID string, status models.RunStatus, errorMsg string) error
}

// ContentFailure décrit l'échec définitif d'un type de contenu
type ContentFailure struct {
	RunID       string             `json:"runId"`
	CourseID    string             `json:"courseId"`
	WeekID      string             `json:"weekId"`
	ContentType models.ContentType `json:"contentType"`
	Message     string             `json:"message"`
}

// RunOutcome est le statut final rapporté par le workflow
type RunOutcome struct {
	RunID  string           `json:"runId"`
	Status models.RunStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

// Activities regroupe les activités du workflow de génération
type Activities struct {
	Configs          features.ConfigService
	Materials        MaterialStore
	Generator        Generator
	Metadata         metadata.Updater
	Runs             OutcomeRecorder
	Log              *logger.Logger
	MaxMaterialBytes int
	Stats            *Stats
}

// GenerateContentType produit un type de contenu puis met à jour l'état de la
// semaine. Un type absent de la configuration est ignoré.
func (a *Activities) GenerateContentType(ctx context.Context, task models.ContentTypeTask) (models.ContentTypeResult, error) {
	ctx, span := otel.Tracer("studyloop/worker").Start(ctx, "Activities.GenerateContentType")
	defer span.End()

	result := models.ContentTypeResult{ContentType: task.ContentType}
	log := a.Log.With("run_id", task.RunID, "content_type", task.ContentType)

	fc, err := a.Configs.GetFeatureGenerationConfig(ctx, task.ConfigID, task.ContentType)
	if err != nil {
		span.RecordError(err)
		return result, err
	}
	if fc == nil {
		log.Info("Content type not selected, skipping")
		a.Stats.recordSkipped(task.ContentType)
		result.Skipped = true
		return result, nil
	}

	materials, err := a.Materials.ReadMaterials(ctx, task.CourseID, task.WeekID, a.MaxMaterialBytes)
	if err != nil {
		span.RecordError(err)
		return result, err
	}
	if len(materials) == 0 {
		return result, temporal.NewNonRetryableApplicationError(
			"no readable course materials for this week", "NoReadableMaterials", nil)
	}

	activity.RecordHeartbeat(ctx, "generating")

	start := time.Now()
	content, err := a.Generator.Generate(ctx, GenerateRequest{
		CourseID:    task.CourseID,
		WeekID:      task.WeekID,
		ContentType: task.ContentType,
		Feature:     *fc,
		Materials:   materials,
	})
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		metrics.ObserveGeneration(string(task.ContentType), elapsed.Milliseconds(), false)
		log.Warn("Generation attempt failed", "error", err, "duration", elapsed)
		return result, err
	}

	count := len(content.Items)
	key, err := a.Materials.SaveArtifact(ctx, task.CourseID, task.WeekID, task.ContentType, content)
	if err != nil {
		span.RecordError(err)
		return result, err
	}

	if err := a.Configs.MarkFeatureGenerated(ctx, task.CourseID, task.WeekID, task.ContentType, count); err != nil {
		span.RecordError(err)
		return result, err
	}
	if _, err := a.Metadata.UpdateWeekContentGenerationMetadata(ctx, task.WeekID, task.ContentType, count); err != nil {
		span.RecordError(err)
		return result, err
	}

	metrics.ObserveGeneration(string(task.ContentType), elapsed.Milliseconds(), true)
	metrics.AddGeneratedItems(string(task.ContentType), count)
	a.Stats.recordSuccess(task.ContentType, count, elapsed)

	log.Info("Content generated", "count", count, "artifact", key, "duration", elapsed)

	result.Count = count
	result.ArtifactKey = key
	return result, nil
}

// RecordContentFailure marque le type comme en erreur une fois les tentatives épuisées
func (a *Activities) RecordContentFailure(ctx context.Context, failure ContentFailure) error {
	a.Stats.recordFailure(failure.ContentType, failure.Message)
	return a.Configs.MarkFeatureFailed(ctx, failure.CourseID, failure.WeekID, failure.ContentType, failure.Message)
}

func (a *Activities) FinalizeRun(ctx context.Context, outcome RunOutcome) error {
	a.Log.Info("Run finished", "run_id", outcome.RunID, "status", outcome.Status, "error", outcome.Error)
	return a.Runs.RecordOutcome(ctx, outcome.RunID, outcome.Status, outcome.Error)
}
