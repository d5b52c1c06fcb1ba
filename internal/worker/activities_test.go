package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"studyloop-generation/internal/courses"
	"studyloop-generation/internal/database"
	"studyloop-generation/internal/features"
	"studyloop-generation/internal/jobs"
	"studyloop-generation/internal/jobs/jobstest"
	"studyloop-generation/internal/logger"
	"studyloop-generation/internal/metadata"
	"studyloop-generation/internal/storage"
	"studyloop-generation/internal/storage/filesystem"
	"studyloop-generation/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

type fakeGenerator struct {
	mu       sync.Mutex
	items    int
	err      error
	requests []GenerateRequest
}

func (g *fakeGenerator) Generate(_ context.Context, req GenerateRequest) (*GeneratedContent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}

	items := make([]json.RawMessage, g.items)
	for i := range items {
		items[i] = json.RawMessage(fmt.Sprintf(`{"front":"q%d","back":"a%d"}`, i, i))
	}
	return &GeneratedContent{
		ContentType: req.ContentType,
		CourseID:    req.CourseID,
		WeekID:      req.WeekID,
		GeneratedAt: time.Now().UTC(),
		Items:       items,
	}, nil
}

type activityFixture struct {
	acts      *Activities
	gen       *fakeGenerator
	configs   features.ConfigService
	materials *storage.StorageService
	meta      metadata.Updater
	runs      jobs.RunService
	configID  uuid.UUID
}

func setupActivities(t *testing.T, selected ...models.ContentType) *activityFixture {
	t.Helper()
	log := logger.NewNop()
	ctx := context.Background()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	backend, err := filesystem.NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	materials := storage.NewStorageService(backend)
	weeks := courses.NewWeekService(courses.NewWeekRepository(db), materials, log)
	_, _, err = weeks.RegisterWeek(ctx, "c1", "w1", &models.CourseWeekRequest{WeekNumber: 3, Title: "Thermodynamics"})
	require.NoError(t, err)

	configs := features.NewConfigService(features.NewFeaturesRepository(db), log)
	configID, err := configs.SaveGenerationConfig(ctx, models.NewSelectiveGenerationConfig(selected), "w1", "c1")
	require.NoError(t, err)

	runs := jobs.NewRunService(jobstest.NewFakeRunClient(), jobs.NewRunRepository(db), log)
	meta := metadata.NewUpdater(metadata.NewWeekRepository(db), log)
	gen := &fakeGenerator{items: 12}

	return &activityFixture{
		acts: &Activities{
			Configs:          configs,
			Materials:        materials,
			Generator:        gen,
			Metadata:         meta,
			Runs:             runs,
			Log:              log,
			MaxMaterialBytes: 1 << 20,
			Stats:            NewStats("studyloop-generation"),
		},
		gen:       gen,
		configs:   configs,
		materials: materials,
		meta:      meta,
		runs:      runs,
		configID:  configID,
	}
}

func (f *activityFixture) upload(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, f.materials.UploadMaterial(context.Background(), "c1", "w1", name, strings.NewReader("content of "+name)))
	}
}

func (f *activityFixture) task(ct models.ContentType) models.ContentTypeTask {
	return models.ContentTypeTask{
		RunID:       "run_0b8f5c1e-2d3a-4f7b-9c1d-5e6f7a8b9c0d",
		CourseID:    "c1",
		WeekID:      "w1",
		ConfigID:    f.configID,
		ContentType: ct,
	}
}

func (f *activityFixture) generate(t *testing.T, ct models.ContentType) (models.ContentTypeResult, error) {
	t.Helper()
	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	env.RegisterActivity(f.acts)

	var res models.ContentTypeResult
	val, err := env.ExecuteActivity(ActivityGenerateContentType, f.task(ct))
	if err != nil {
		return res, err
	}
	require.NoError(t, val.Get(&res))
	return res, nil
}

func TestGenerateContentTypeStoresArtifactAndCounts(t *testing.T) {
	f := setupActivities(t, models.ContentCuecards)
	f.upload(t, "lecture.md", "slides.pdf")
	ctx := context.Background()

	res, err := f.generate(t, models.ContentCuecards)
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.Equal(t, 12, res.Count)
	assert.Equal(t, storage.ArtifactKey("c1", "w1", models.ContentCuecards), res.ArtifactKey)

	require.Len(t, f.gen.requests, 1)
	req := f.gen.requests[0]
	require.Len(t, req.Materials, 1, "binary materials are not sent to the model")
	assert.Equal(t, "lecture.md", req.Materials[0].Name)
	assert.Equal(t, models.DefaultFeatureConfig(models.ContentCuecards), req.Feature)

	raw, err := f.materials.LoadArtifact(ctx, "c1", "w1", models.ContentCuecards)
	require.NoError(t, err)
	var stored GeneratedContent
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Len(t, stored.Items, 12)
	assert.Equal(t, models.ContentCuecards, stored.ContentType)

	row, err := f.configs.GetByCourseWeek(ctx, "c1", "w1")
	require.NoError(t, err)
	assert.True(t, row.Cuecards.Available())
	assert.Equal(t, 12, row.Cuecards.Count)

	meta, err := f.meta.GetWeekMetadata(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 12, meta.ContentCounts.Cuecards)
	assert.Equal(t, 12, meta.TotalGenerated)

	stats := f.acts.Stats.Snapshot()
	assert.Equal(t, int64(1), stats.Tasks.Success)
	assert.Equal(t, int64(12), stats.PerType[models.ContentCuecards].ItemsGenerated)
}

func TestGenerateContentTypeSkipsUnselectedType(t *testing.T) {
	f := setupActivities(t, models.ContentCuecards)
	f.upload(t, "lecture.md")

	res, err := f.generate(t, models.ContentSummaries)
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.Zero(t, res.Count)
	assert.Empty(t, f.gen.requests)
	assert.Equal(t, int64(1), f.acts.Stats.Snapshot().Tasks.Skipped)
}

func TestGenerateContentTypeWithoutReadableMaterials(t *testing.T) {
	f := setupActivities(t, models.ContentCuecards)
	f.upload(t, "slides.pdf")

	_, err := f.generate(t, models.ContentCuecards)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no readable course materials")
	assert.Empty(t, f.gen.requests)
}

func TestGenerateContentTypeGeneratorFailureLeavesStateUntouched(t *testing.T) {
	f := setupActivities(t, models.ContentCuecards)
	f.upload(t, "lecture.md")
	f.gen.err = errors.New("model overloaded")

	_, err := f.generate(t, models.ContentCuecards)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")

	row, err := f.configs.GetByCourseWeek(context.Background(), "c1", "w1")
	require.NoError(t, err)
	assert.False(t, row.Cuecards.Available())

	_, err = f.materials.LoadArtifact(context.Background(), "c1", "w1", models.ContentCuecards)
	assert.Error(t, err)
}

func TestRecordContentFailure(t *testing.T) {
	f := setupActivities(t, models.ContentCuecards)

	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	env.RegisterActivity(f.acts)

	_, err := env.ExecuteActivity(ActivityRecordContentFailure, ContentFailure{
		CourseID:    "c1",
		WeekID:      "w1",
		ContentType: models.ContentCuecards,
		Message:     "model overloaded",
	})
	require.NoError(t, err)

	row, err := f.configs.GetByCourseWeek(context.Background(), "c1", "w1")
	require.NoError(t, err)
	assert.Equal(t, "model overloaded", row.FeatureError(models.ContentCuecards))

	stats := f.acts.Stats.Snapshot()
	assert.Equal(t, int64(1), stats.Tasks.Failed)
	assert.Equal(t, "model overloaded", stats.PerType[models.ContentCuecards].LastError)
}

func TestFinalizeRunRecordsOutcome(t *testing.T) {
	f := setupActivities(t, models.ContentCuecards)
	ctx := context.Background()

	run, err := f.runs.StartRun(ctx, models.GenerationRunInput{CourseID: "c1", WeekID: "w1", ConfigID: f.configID}, 1)
	require.NoError(t, err)

	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	env.RegisterActivity(f.acts)

	_, err = env.ExecuteActivity(ActivityFinalizeRun, RunOutcome{
		RunID:  run.RunID,
		Status: models.RunCompleted,
		Error:  "summaries: model overloaded",
	})
	require.NoError(t, err)

	stored, err := f.runs.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunCompleted, stored.Status)
	assert.Equal(t, "summaries: model overloaded", stored.Error)
}
