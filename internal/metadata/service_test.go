package metadata

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"studyloop-generation/internal/database"
	"studyloop-generation/internal/logger"
	"studyloop-generation/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.CourseWeek{ID: "w1", CourseID: "c1", WeekNumber: 1}).Error)
	return db
}

func TestUpdateOverwritesCountAndRecomputesTotal(t *testing.T) {
	db := setupDB(t)
	u := NewUpdater(NewWeekRepository(db), logger.NewNop())
	ctx := context.Background()

	meta, err := u.UpdateWeekContentGenerationMetadata(ctx, "w1", models.ContentCuecards, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, meta.ContentCounts.Cuecards)
	assert.Equal(t, 20, meta.TotalGenerated)
	require.NotNil(t, meta.GeneratedAt)

	_, err = u.UpdateWeekContentGenerationMetadata(ctx, "w1", models.ContentSummaries, 3)
	require.NoError(t, err)

	// réécriture du même type: remplacement, pas addition
	meta, err = u.UpdateWeekContentGenerationMetadata(ctx, "w1", models.ContentCuecards, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, meta.ContentCounts.Cuecards)
	assert.Equal(t, 3, meta.ContentCounts.Summaries)
	assert.Equal(t, 15, meta.TotalGenerated)

	stored, err := u.GetWeekMetadata(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, meta.ContentCounts, stored.ContentCounts)
	assert.Equal(t, stored.ContentCounts.Sum(), stored.TotalGenerated)

	var week models.CourseWeek
	require.NoError(t, db.First(&week, "id = ?", "w1").Error)
	assert.Equal(t, int64(3), week.MetadataVersion)
}

func TestUpdateRejectsInvalidInput(t *testing.T) {
	u := NewUpdater(NewWeekRepository(setupDB(t)), logger.NewNop())
	ctx := context.Background()

	_, err := u.UpdateWeekContentGenerationMetadata(ctx, "w1", models.ContentCuecards, -1)
	assert.Error(t, err)

	_, err = u.UpdateWeekContentGenerationMetadata(ctx, "w1", models.ContentType("flashcards"), 1)
	assert.Error(t, err)

	_, err = u.UpdateWeekContentGenerationMetadata(ctx, "missing", models.ContentCuecards, 1)
	assert.ErrorIs(t, err, ErrWeekNotFound)

	_, err = u.GetWeekMetadata(ctx, "missing")
	assert.ErrorIs(t, err, ErrWeekNotFound)
}

func TestGetWeekMetadataDefaultsToZero(t *testing.T) {
	u := NewUpdater(NewWeekRepository(setupDB(t)), logger.NewNop())

	meta, err := u.GetWeekMetadata(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t, models.ContentCounts{}, meta.ContentCounts)
	assert.Zero(t, meta.TotalGenerated)
	assert.Nil(t, meta.GeneratedAt)
}

// racingRepo intercale une écriture concurrente juste avant le premier swap
type racingRepo struct {
	WeekRepository
	once  sync.Once
	other func()
}

func (r *racingRepo) SwapMetadata(ctx context.Context, weekID string, expected int64, meta models.WeekContentGenerationMetadata) (bool, error) {
	r.once.Do(r.other)
	return r.WeekRepository.SwapMetadata(ctx, weekID, expected, meta)
}

func TestInterleavedUpdatesForDifferentTypesAreBothKept(t *testing.T) {
	db := setupDB(t)
	base := NewWeekRepository(db)
	plain := NewUpdater(base, logger.NewNop(), WithBackoff(0))
	ctx := context.Background()

	repo := &racingRepo{WeekRepository: base}
	repo.other = func() {
		_, err := plain.UpdateWeekContentGenerationMetadata(ctx, "w1", models.ContentSummaries, 3)
		require.NoError(t, err)
	}
	racing := NewUpdater(repo, logger.NewNop(), WithBackoff(0))

	_, err := racing.UpdateWeekContentGenerationMetadata(ctx, "w1", models.ContentCuecards, 20)
	require.NoError(t, err)

	meta, err := plain.GetWeekMetadata(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 20, meta.ContentCounts.Cuecards)
	assert.Equal(t, 3, meta.ContentCounts.Summaries)
	assert.Equal(t, 23, meta.TotalGenerated)
}

func TestConcurrentUpdatesForAllTypes(t *testing.T) {
	db := setupDB(t)
	u := NewUpdater(NewWeekRepository(db), logger.NewNop(), WithMaxAttempts(20), WithBackoff(time.Millisecond))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, len(models.AllContentTypes()))
	for i, ct := range models.AllContentTypes() {
		wg.Add(1)
		go func(ct models.ContentType, n int) {
			defer wg.Done()
			_, err := u.UpdateWeekContentGenerationMetadata(ctx, "w1", ct, n)
			errs <- err
		}(ct, i+1)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	meta, err := u.GetWeekMetadata(ctx, "w1")
	require.NoError(t, err)
	for i, ct := range models.AllContentTypes() {
		assert.Equal(t, i+1, meta.ContentCounts.Get(ct), ct)
	}
	assert.Equal(t, 21, meta.TotalGenerated)
}

// staleRepo perd systématiquement la course
type staleRepo struct {
	WeekRepository
	swaps int
}

func (r *staleRepo) SwapMetadata(context.Context, string, int64, models.WeekContentGenerationMetadata) (bool, error) {
	r.swaps++
	return false, nil
}

func TestUpdateGivesUpAfterMaxAttempts(t *testing.T) {
	repo := &staleRepo{WeekRepository: NewWeekRepository(setupDB(t))}
	u := NewUpdater(repo, logger.NewNop(), WithMaxAttempts(3), WithBackoff(0))

	_, err := u.UpdateWeekContentGenerationMetadata(context.Background(), "w1", models.ContentCuecards, 1)

	assert.ErrorIs(t, err, ErrMetadataConflict)
	assert.Equal(t, 3, repo.swaps)
}
