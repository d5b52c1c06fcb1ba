package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunStatus est le statut d'une exécution sur le job runner externe
type RunStatus string

const (
	RunQueued           RunStatus = "QUEUED"
	RunExecuting        RunStatus = "EXECUTING"
	RunWaitingForDeploy RunStatus = "WAITING_FOR_DEPLOY"
	RunCompleted        RunStatus = "COMPLETED"
	RunCrashed          RunStatus = "CRASHED"
	RunCanceled         RunStatus = "CANCELED"
	RunSystemFailure    RunStatus = "SYSTEM_FAILURE"
	RunInterrupted      RunStatus = "INTERRUPTED"
	RunTimedOut         RunStatus = "TIMED_OUT"
)

// CancellableStatuses est la liste fixe des statuts dans lesquels une annulation est possible
var CancellableStatuses = []RunStatus{RunQueued, RunExecuting, RunWaitingForDeploy}

// CanCancel retourne true si le statut fait partie des statuts annulables
func (s RunStatus) CanCancel() bool {
	for _, st := range CancellableStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// IsActive retourne true tant que l'exécution n'est pas terminée
func (s RunStatus) IsActive() bool {
	return s.CanCancel()
}

// IsTerminal retourne true si le job runner ne fera plus évoluer ce statut
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunCompleted, RunCrashed, RunCanceled, RunSystemFailure, RunInterrupted, RunTimedOut:
		return true
	}
	return false
}

// TerminalRunStatuses retourne les statuts finaux, utilisés par le nettoyage
func TerminalRunStatuses() []RunStatus {
	return []RunStatus{RunCompleted, RunCrashed, RunCanceled, RunSystemFailure, RunInterrupted, RunTimedOut}
}

// StringSlice type for JSON arrays
type StringSlice []string

func (ss StringSlice) Value() (driver.Value, error) {
	if ss == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(ss)
}

func (ss *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*ss = []string{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}

	if len(bytes) == 0 {
		*ss = []string{}
		return nil
	}

	return json.Unmarshal(bytes, ss)
}

// RunHandle est la vue d'une exécution telle que rapportée par le job runner
type RunHandle struct {
	ID         string
	Status     RunStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// GenerationRun garde la trace locale d'une exécution déclenchée pour une semaine
type GenerationRun struct {
	ID            uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	RunID         string      `json:"run_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	CourseID      string      `json:"course_id" gorm:"type:varchar(128);not null;index:idx_generation_runs_course_week"`
	WeekID        string      `json:"week_id" gorm:"type:varchar(128);not null;index:idx_generation_runs_course_week"`
	ConfigID      uuid.UUID   `json:"config_id" gorm:"type:uuid;not null"`
	ContentTypes  StringSlice `json:"content_types" gorm:"type:text"`
	Status        RunStatus   `json:"status" gorm:"type:varchar(32);not null;default:'QUEUED';index"`
	MaterialCount int         `json:"material_count" gorm:"not null;default:0"`
	Error         string      `json:"error,omitempty" gorm:"type:text"`
	CreatedAt     time.Time   `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time   `json:"updated_at"`
	StartedAt     *time.Time  `json:"started_at,omitempty"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty" gorm:"index"`
}

// TableName spécifie le nom de la table
func (GenerationRun) TableName() string {
	return "generation_runs"
}

// BeforeCreate hook GORM pour initialiser l'ID et les timestamps
func (r *GenerationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now

	if r.ContentTypes == nil {
		r.ContentTypes = StringSlice{}
	}
	if r.Status == "" {
		r.Status = RunQueued
	}
	return nil
}

// Types retourne les types de contenu de l'exécution
func (r *GenerationRun) Types() []ContentType {
	out := make([]ContentType, 0, len(r.ContentTypes))
	for _, s := range r.ContentTypes {
		if ct := ContentType(s); ct.IsValid() {
			out = append(out, ct)
		}
	}
	return out
}

// Includes retourne true si l'exécution couvre ce type de contenu
func (r *GenerationRun) Includes(ct ContentType) bool {
	for _, s := range r.ContentTypes {
		if s == string(ct) {
			return true
		}
	}
	return false
}

// SetStatus met à jour le statut avec les timestamps appropriés
func (r *GenerationRun) SetStatus(status RunStatus) {
	r.Status = status
	r.UpdatedAt = time.Now()

	if status == RunExecuting && r.StartedAt == nil {
		now := time.Now()
		r.StartedAt = &now
	}

	if status.IsTerminal() && r.CompletedAt == nil {
		now := time.Now()
		r.CompletedAt = &now
	}
}

// RunResponse représente une exécution enregistrée
// @Description Exécution de génération enregistrée
type RunResponse struct {
	RunID         string     `json:"runId" example:"run_5f0c8a3e"`
	CourseID      string     `json:"courseId"`
	WeekID        string     `json:"weekId"`
	ConfigID      uuid.UUID  `json:"configId"`
	ContentTypes  []string   `json:"contentTypes"`
	Status        RunStatus  `json:"status" example:"EXECUTING"`
	MaterialCount int        `json:"materialCount"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
} // @name RunResponse

// ToResponse convertit un GenerationRun en RunResponse
func (r *GenerationRun) ToResponse() *RunResponse {
	return &RunResponse{
		RunID:         r.RunID,
		CourseID:      r.CourseID,
		WeekID:        r.WeekID,
		ConfigID:      r.ConfigID,
		ContentTypes:  []string(r.ContentTypes),
		Status:        r.Status,
		MaterialCount: r.MaterialCount,
		Error:         r.Error,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
	}
}

// RunStatusResult est le résultat d'une vérification de statut
// @Description Statut d'une exécution sur le job runner
type RunStatusResult struct {
	Success    bool       `json:"success"`
	Error      string     `json:"error,omitempty"`
	RunID      string     `json:"runId,omitempty"`
	Status     RunStatus  `json:"status,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	IsActive   bool       `json:"isActive"`
	CanCancel  bool       `json:"canCancel"`
} // @name RunStatusResult

// CancelRunResult est le résultat d'une demande d'annulation
// @Description Résultat d'une annulation d'exécution
type CancelRunResult struct {
	Success        bool       `json:"success"`
	Error          string     `json:"error,omitempty"`
	RunID          string     `json:"runId,omitempty"`
	CanCancel      bool       `json:"canCancel"`
	Status         RunStatus  `json:"status,omitempty"`
	PreviousStatus RunStatus  `json:"previousStatus,omitempty"`
	CancelledAt    *time.Time `json:"cancelledAt,omitempty"`
} // @name CancelRunResult
