package database

import (
	"path/filepath"
	"testing"

	"studyloop-generation/internal/logger"
	"studyloop-generation/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	for _, table := range []string{"course_weeks", "course_week_features", "generation_runs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.CourseWeekFeatures{}, "idx_course_week_features_pair"))
}

func TestFeaturesRowsCascadeWithWeek(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	week := &models.CourseWeek{ID: "w1", CourseID: "c1"}
	require.NoError(t, db.Create(week).Error)
	require.NoError(t, db.Create(&models.CourseWeekFeatures{CourseID: "c1", WeekID: "w1"}).Error)

	require.NoError(t, db.Delete(week).Error)

	var count int64
	require.NoError(t, db.Model(&models.CourseWeekFeatures{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestConnectSQLiteURL(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "dev.db")

	db, err := Connect(url, "info", logger.NewNop())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	assert.Equal(t, "sqlite", db.Dialector.Name())
}
