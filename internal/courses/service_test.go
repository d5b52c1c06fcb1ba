package courses

import (
	"context"
	"path/filepath"
	"testing"

	"studyloop-generation/internal/database"
	"studyloop-generation/internal/logger"
	"studyloop-generation/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingCleaner struct {
	calls []string
}

func (c *recordingCleaner) CleanupWeek(_ context.Context, courseID, weekID string) error {
	c.calls = append(c.calls, courseID+"/"+weekID)
	return nil
}

func setupWeeks(t *testing.T) (WeekService, *recordingCleaner, *gorm.DB) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "courses.db"))
	require.NoError(t, err)
	cleaner := &recordingCleaner{}
	return NewWeekService(NewWeekRepository(db), cleaner, logger.NewNop()), cleaner, db
}

func TestRegisterWeekCreatesThenUpdates(t *testing.T) {
	svc, _, _ := setupWeeks(t)
	ctx := context.Background()

	week, created, err := svc.RegisterWeek(ctx, "c1", "w1", &models.CourseWeekRequest{WeekNumber: 1, Title: "Intro"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Intro", week.Title)

	week, created, err = svc.RegisterWeek(ctx, "c1", "w1", &models.CourseWeekRequest{WeekNumber: 2, Title: "Entropy"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 2, week.WeekNumber)
	assert.Equal(t, "Entropy", week.Title)

	stored, err := svc.GetWeek(ctx, "c1", "w1")
	require.NoError(t, err)
	assert.Equal(t, "Entropy", stored.Title)
}

func TestRegisterWeekKeepsMetadata(t *testing.T) {
	svc, _, db := setupWeeks(t)
	ctx := context.Background()

	_, _, err := svc.RegisterWeek(ctx, "c1", "w1", &models.CourseWeekRequest{WeekNumber: 1})
	require.NoError(t, err)

	meta := models.NewWeekContentGenerationMetadata()
	meta.ContentCounts.Cuecards = 5
	meta.Recompute()
	require.NoError(t, db.Model(&models.CourseWeek{}).Where("id = ?", "w1").Updates(map[string]interface{}{
		"content_metadata": models.NewWeekMetadataColumn(meta),
		"metadata_version": 1,
	}).Error)

	week, _, err := svc.RegisterWeek(ctx, "c1", "w1", &models.CourseWeekRequest{WeekNumber: 1, Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, 5, week.Metadata().TotalGenerated)
	assert.Equal(t, int64(1), week.MetadataVersion)
}

func TestRegisterWeekRejectsOtherCourse(t *testing.T) {
	svc, _, _ := setupWeeks(t)
	ctx := context.Background()

	_, _, err := svc.RegisterWeek(ctx, "c1", "w1", &models.CourseWeekRequest{WeekNumber: 1})
	require.NoError(t, err)

	_, _, err = svc.RegisterWeek(ctx, "c2", "w1", &models.CourseWeekRequest{WeekNumber: 1})
	assert.ErrorIs(t, err, ErrCourseMismatch)
}

func TestWeekExistsAndList(t *testing.T) {
	svc, _, _ := setupWeeks(t)
	ctx := context.Background()

	for i, id := range []string{"w2", "w1"} {
		_, _, err := svc.RegisterWeek(ctx, "c1", id, &models.CourseWeekRequest{WeekNumber: 2 - i})
		require.NoError(t, err)
	}

	ok, err := svc.WeekExists(ctx, "c1", "w1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.WeekExists(ctx, "c2", "w1")
	require.NoError(t, err)
	assert.False(t, ok, "a week is scoped to its course")

	weeks, err := svc.ListWeeks(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, weeks, 2)
	assert.Equal(t, "w1", weeks[0].ID)
}

func TestDeleteWeekCascadesAndCleansFiles(t *testing.T) {
	svc, cleaner, db := setupWeeks(t)
	ctx := context.Background()

	_, _, err := svc.RegisterWeek(ctx, "c1", "w1", &models.CourseWeekRequest{WeekNumber: 1})
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.CourseWeekFeatures{CourseID: "c1", WeekID: "w1"}).Error)

	require.NoError(t, svc.DeleteWeek(ctx, "c1", "w1"))
	assert.Equal(t, []string{"c1/w1"}, cleaner.calls)

	var count int64
	require.NoError(t, db.Model(&models.CourseWeekFeatures{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, svc.DeleteWeek(ctx, "c1", "w1"), ErrWeekNotFound)
}
