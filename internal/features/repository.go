package features

import (
	"context"
	"errors"
	"time"

	"studyloop-generation/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound est retourné quand aucune ligne ne correspond
var ErrNotFound = errors.New("course week features not found")

type FeaturesRepository interface {
	UpsertConfig(ctx context.Context, courseID, weekID string, cfg *models.SelectiveGenerationConfig) (*models.CourseWeekFeatures, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.CourseWeekFeatures, error)
	GetByCourseWeek(ctx context.Context, courseID, weekID string) (*models.CourseWeekFeatures, error)
	UpdateFeature(ctx context.Context, courseID, weekID string, ct models.ContentType, state models.FeatureState) error
	SetFeatureError(ctx context.Context, courseID, weekID string, ct models.ContentType, message string) error
	SetLastRun(ctx context.Context, id uuid.UUID, runID string) error
}

type featuresRepository struct {
	db *gorm.DB
}

func NewFeaturesRepository(db *gorm.DB) FeaturesRepository {
	return &featuresRepository{db: db}
}

// UpsertConfig insère ou remplace la configuration du couple (course, week) en une
// seule instruction, puis relit la ligne pour obtenir l'id persistant
func (r *featuresRepository) UpsertConfig(ctx context.Context, courseID, weekID string, cfg *models.SelectiveGenerationConfig) (*models.CourseWeekFeatures, error) {
	column := models.GenerationConfigColumn{}
	if cfg != nil {
		column = models.NewGenerationConfigColumn(*cfg)
	}

	row := &models.CourseWeekFeatures{
		CourseID:      courseID,
		WeekID:        weekID,
		ConfigData:    &column,
		ConfigVersion: 1,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "course_id"}, {Name: "week_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"config_data":    column,
			"config_version": gorm.Expr("course_week_features.config_version + 1"),
			"updated_at":     time.Now(),
		}),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}

	return r.GetByCourseWeek(ctx, courseID, weekID)
}

func (r *featuresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CourseWeekFeatures, error) {
	var row models.CourseWeekFeatures
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *featuresRepository) GetByCourseWeek(ctx context.Context, courseID, weekID string) (*models.CourseWeekFeatures, error) {
	var row models.CourseWeekFeatures
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND week_id = ?", courseID, weekID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateFeature écrit uniquement les colonnes du type concerné
func (r *featuresRepository) UpdateFeature(ctx context.Context, courseID, weekID string, ct models.ContentType, state models.FeatureState) error {
	prefix := models.FeatureColumnPrefix(ct)
	if prefix == "" {
		return errors.New("unknown content type: " + string(ct))
	}

	updates := map[string]interface{}{
		prefix + "generated":    state.Generated,
		prefix + "count":        state.Count,
		prefix + "generated_at": state.GeneratedAt,
		prefix + "error":        state.Error,
		"updated_at":            time.Now(),
	}

	result := r.db.WithContext(ctx).Model(&models.CourseWeekFeatures{}).
		Where("course_id = ? AND week_id = ?", courseID, weekID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFeatureError enregistre un échec sans toucher au contenu déjà généré
func (r *featuresRepository) SetFeatureError(ctx context.Context, courseID, weekID string, ct models.ContentType, message string) error {
	prefix := models.FeatureColumnPrefix(ct)
	if prefix == "" {
		return errors.New("unknown content type: " + string(ct))
	}

	result := r.db.WithContext(ctx).Model(&models.CourseWeekFeatures{}).
		Where("course_id = ? AND week_id = ?", courseID, weekID).
		Updates(map[string]interface{}{
			prefix + "error": message,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *featuresRepository) SetLastRun(ctx context.Context, id uuid.UUID, runID string) error {
	return r.db.WithContext(ctx).Model(&models.CourseWeekFeatures{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_run_id": runID,
			"updated_at":  time.Now(),
		}).Error
}
