package metadata

import (
	"context"
	"errors"
	"time"

	"studyloop-generation/pkg/models"

	"gorm.io/gorm"
)

// ErrWeekNotFound est retourné quand la semaine de cours n'existe pas
var ErrWeekNotFound = errors.New("course week not found")

type WeekRepository interface {
	GetWeek(ctx context.Context, weekID string) (*models.CourseWeek, error)
	// SwapMetadata n'écrit que si metadata_version vaut encore expected.
	// Retourne false quand une autre écriture est passée entre-temps.
	SwapMetadata(ctx context.Context, weekID string, expected int64, meta models.WeekContentGenerationMetadata) (bool, error)
}

type weekRepository struct {
	db *gorm.DB
}

func NewWeekRepository(db *gorm.DB) WeekRepository {
	return &weekRepository{db: db}
}

func (r *weekRepository) GetWeek(ctx context.Context, weekID string) (*models.CourseWeek, error) {
	var week models.CourseWeek
	err := r.db.WithContext(ctx).Where("id = ?", weekID).First(&week).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWeekNotFound
	}
	if err != nil {
		return nil, err
	}
	return &week, nil
}

func (r *weekRepository) SwapMetadata(ctx context.Context, weekID string, expected int64, meta models.WeekContentGenerationMetadata) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.CourseWeek{}).
		Where("id = ? AND metadata_version = ?", weekID, expected).
		Updates(map[string]interface{}{
			"content_metadata": models.NewWeekMetadataColumn(meta),
			"metadata_version": expected + 1,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
