package models

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilityStatus est la disponibilité d'un type de contenu pour une semaine
type AvailabilityStatus string

const (
	AvailabilityAvailable AvailabilityStatus = "available"
	AvailabilityNone      AvailabilityStatus = "none"
	AvailabilityError     AvailabilityStatus = "error"
)

// OverallStatus agrège la disponibilité de tous les types d'une semaine
type OverallStatus string

const (
	OverallGenerating OverallStatus = "generating"
	OverallAvailable  OverallStatus = "available"
	OverallPartial    OverallStatus = "partial"
	OverallError      OverallStatus = "error"
	OverallNone       OverallStatus = "none"
)

// TriggerRequest représente une demande de génération pour une semaine
// @Description Requête de déclenchement de génération
type TriggerRequest struct {
	CourseID     string                     `json:"courseId" binding:"required" example:"c1"`
	WeekID       string                     `json:"weekId" binding:"required" example:"w1"`
	ContentTypes []string                   `json:"contentTypes" binding:"required" example:"cuecards"`
	Config       *SelectiveGenerationConfig `json:"config,omitempty"`
} // @name TriggerRequest

// TriggerResponse est la réponse à un déclenchement réussi
// @Description Exécution déclenchée
type TriggerResponse struct {
	Success           bool      `json:"success" example:"true"`
	RunID             string    `json:"runId" example:"run_123"`
	PublicAccessToken string    `json:"publicAccessToken"`
	ConfigID          uuid.UUID `json:"configId"`
	ContentTypes      []string  `json:"contentTypes"`
	MaterialCount     int       `json:"materialCount" example:"4"`
} // @name TriggerResponse

// ContentAvailability est l'état d'un type de contenu dans une réponse de statut
// @Description Disponibilité d'un type de contenu
type ContentAvailability struct {
	Status       AvailabilityStatus `json:"status" enums:"available,none,error"`
	Count        int                `json:"count" example:"12"`
	IsGenerating bool               `json:"isGenerating"`
	Error        string             `json:"error,omitempty"`
} // @name ContentAvailability

// StatusResponse est la réponse d'une requête de statut de génération
// @Description Statut de génération d'une semaine
type StatusResponse struct {
	Success             bool                                `json:"success" example:"true"`
	CourseID            string                              `json:"courseId"`
	WeekID              string                              `json:"weekId"`
	ContentAvailability map[ContentType]ContentAvailability `json:"contentAvailability"`
	OverallStatus       OverallStatus                       `json:"overallStatus" enums:"generating,available,partial,error,none"`
	IsGenerating        bool                                `json:"isGenerating"`
	LastUpdated         string                              `json:"lastUpdated" example:"2025-01-17T10:30:00Z"`
} // @name StatusResponse

// GenerationStatus est la forme décodée côté client, avec lastUpdated en time.Time
type GenerationStatus struct {
	CourseID            string
	WeekID              string
	ContentAvailability map[ContentType]ContentAvailability
	OverallStatus       OverallStatus
	IsGenerating        bool
	LastUpdated         time.Time
}

// ErrorResponse est l'enveloppe d'erreur commune des endpoints de génération
// @Description Réponse d'erreur
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"Run not found"`
} // @name ErrorResponse

// Result est un résultat étiqueté: Success indique lequel de Data ou Error est renseigné
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok construit un résultat réussi
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail construit un résultat en échec
func Fail[T any](msg string) Result[T] {
	return Result[T]{Success: false, Error: msg}
}

// GenerationRunInput est l'entrée du workflow de génération
type GenerationRunInput struct {
	RunID        string        `json:"runId"`
	CourseID     string        `json:"courseId"`
	WeekID       string        `json:"weekId"`
	ConfigID     uuid.UUID     `json:"configId"`
	ContentTypes []ContentType `json:"contentTypes"`
}

// ContentTypeTask est l'entrée de l'activité de génération d'un type
type ContentTypeTask struct {
	RunID       string      `json:"runId"`
	CourseID    string      `json:"courseId"`
	WeekID      string      `json:"weekId"`
	ConfigID    uuid.UUID   `json:"configId"`
	ContentType ContentType `json:"contentType"`
}

// ContentTypeResult est la sortie de l'activité de génération d'un type
type ContentTypeResult struct {
	ContentType ContentType `json:"contentType"`
	Count       int         `json:"count"`
	Skipped     bool        `json:"skipped,omitempty"`
	ArtifactKey string      `json:"artifactKey,omitempty"`
}

// GenerationRunOutput est la sortie du workflow
type GenerationRunOutput struct {
	RunID  string                 `json:"runId"`
	Counts map[ContentType]int    `json:"counts"`
	Errors map[ContentType]string `json:"errors,omitempty"`
}
