package courses

import (
	"context"
	"errors"
	"time"

	"studyloop-generation/pkg/models"

	"gorm.io/gorm"
)

var (
	// ErrWeekNotFound est retourné quand la semaine n'existe pas pour ce cours
	ErrWeekNotFound = errors.New("course week not found")
	// ErrCourseMismatch est retourné quand l'identifiant de semaine appartient à un autre cours
	ErrCourseMismatch = errors.New("week belongs to another course")
)

type WeekRepository interface {
	Save(ctx context.Context, week *models.CourseWeek) (created bool, err error)
	Get(ctx context.Context, courseID, weekID string) (*models.CourseWeek, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.CourseWeek, error)
	Delete(ctx context.Context, courseID, weekID string) error
}

type weekRepository struct {
	db *gorm.DB
}

func NewWeekRepository(db *gorm.DB) WeekRepository {
	return &weekRepository{db: db}
}

// Save crée la semaine ou met à jour son numéro et son titre, sans toucher aux métadonnées
func (r *weekRepository) Save(ctx context.Context, week *models.CourseWeek) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.CourseWeek
		err := tx.Where("id = ?", week.ID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return tx.Create(week).Error
		}
		if err != nil {
			return err
		}
		if existing.CourseID != week.CourseID {
			return ErrCourseMismatch
		}

		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"week_number": week.WeekNumber,
			"title":       week.Title,
			"updated_at":  time.Now(),
		}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", week.ID).First(week).Error
	})
	return created, err
}

func (r *weekRepository) Get(ctx context.Context, courseID, weekID string) (*models.CourseWeek, error) {
	var week models.CourseWeek
	err := r.db.WithContext(ctx).
		Where("id = ? AND course_id = ?", weekID, courseID).
		First(&week).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWeekNotFound
	}
	if err != nil {
		return nil, err
	}
	return &week, nil
}

func (r *weekRepository) ListByCourse(ctx context.Context, courseID string) ([]models.CourseWeek, error) {
	var weeks []models.CourseWeek
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("week_number ASC, id ASC").
		Find(&weeks).Error
	return weeks, err
}

func (r *weekRepository) Delete(ctx context.Context, courseID, weekID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND course_id = ?", weekID, courseID).
		Delete(&models.CourseWeek{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWeekNotFound
	}
	return nil
}
