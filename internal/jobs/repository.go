package jobs

import (
	"context"
	"errors"
	"time"

	"studyloop-generation/pkg/models"

	"gorm.io/gorm"
)

type RunRepository interface {
	Create(ctx context.Context, run *models.GenerationRun) error
	GetByRunID(ctx context.Context, runID string) (*models.GenerationRun, error)
	Latest(ctx context.Context, courseID, weekID string) (*models.GenerationRun, error)
	List(ctx context.Context, filters RunFilters) ([]*models.GenerationRun, int64, error)
	UpdateStatus(ctx context.Context, runID string, status models.RunStatus, errorMsg string) error
	DeleteOldRuns(ctx context.Context, olderThan time.Time) (int64, error)
}

type RunFilters struct {
	CourseID string
	WeekID   string
	Status   models.RunStatus
	Limit    int
	Offset   int
}

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(ctx context.Context, run *models.GenerationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *runRepository) GetByRunID(ctx context.Context, runID string) (*models.GenerationRun, error) {
	var run models.GenerationRun
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Latest retourne la dernière exécution déclenchée pour la semaine
func (r *runRepository) Latest(ctx context.Context, courseID, weekID string) (*models.GenerationRun, error) {
	var run models.GenerationRun
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND week_id = ?", courseID, weekID).
		Order("created_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) List(ctx context.Context, filters RunFilters) ([]*models.GenerationRun, int64, error) {
	var runs []*models.GenerationRun

	query := r.db.WithContext(ctx).Model(&models.GenerationRun{})

	if filters.CourseID != "" {
		query = query.Where("course_id = ?", filters.CourseID)
	}

	if filters.WeekID != "" {
		query = query.Where("week_id = ?", filters.WeekID)
	}

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	err := query.Order("created_at DESC").Find(&runs).Error
	return runs, total, err
}

func (r *runRepository) UpdateStatus(ctx context.Context, runID string, status models.RunStatus, errorMsg string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}

	if errorMsg != "" {
		updates["error"] = errorMsg
	}

	if status == models.RunExecuting {
		updates["started_at"] = gorm.Expr("COALESCE(started_at, ?)", now)
	}

	if status.IsTerminal() {
		updates["completed_at"] = gorm.Expr("COALESCE(completed_at, ?)", now)
	}

	result := r.db.WithContext(ctx).Model(&models.GenerationRun{}).Where("run_id = ?", runID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRunNotFound
	}
	return nil
}

// DeleteOldRuns ne supprime que les exécutions terminées
func (r *runRepository) DeleteOldRuns(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ? AND status IN ?", olderThan,
		models.TerminalRunStatuses()).
		Delete(&models.GenerationRun{})

	return result.RowsAffected, result.Error
}
