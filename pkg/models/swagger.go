// pkg/models/swagger.go
package models

import (
	"time"
)

// ValidationErrorResponse représente une réponse d'erreur de validation
// @Description Réponse d'erreur de validation de l'API
type ValidationErrorResponse struct {
	Success          bool              `json:"success" example:"false"`
	Error            string            `json:"error" example:"Validation failed"`
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
} // @name ValidationErrorResponse

// ValidationError représente une erreur de validation spécifique
// @Description Détail d'une erreur de validation
type ValidationError struct {
	Field   string `json:"field" example:"weekId"`
	Value   string `json:"value" example:"../w1"`
	Message string `json:"message" example:"week ID contains invalid characters"`
	Code    string `json:"code" example:"INVALID_FORMAT"`
} // @name ValidationError

// HealthResponse représente la réponse du health check
// @Description Statut de santé du service
type HealthResponse struct {
	Status      string    `json:"status" example:"healthy" enums:"healthy,degraded,unhealthy"`
	Service     string    `json:"service" example:"studyloop-generation"`
	Version     string    `json:"version" example:"1.0.0"`
	Timestamp   time.Time `json:"timestamp" example:"2025-01-17T10:30:00Z"`
	Environment string    `json:"environment,omitempty" example:"development"`
} // @name HealthResponse

// MaterialListResponse liste les supports de cours d'une semaine
// @Description Supports de cours téléversés pour une semaine
type MaterialListResponse struct {
	CourseID  string   `json:"courseId" example:"c1"`
	WeekID    string   `json:"weekId" example:"w1"`
	Materials []string `json:"materials"`
	Count     int      `json:"count" example:"4"`
} // @name MaterialListResponse

// MaterialUploadResponse est la réponse d'un téléversement de supports
// @Description Résultat d'un téléversement de supports
type MaterialUploadResponse struct {
	Message string   `json:"message" example:"Materials uploaded successfully"`
	Count   int      `json:"count" example:"2"`
	Files   []string `json:"files"`
} // @name MaterialUploadResponse

// RunListResponse liste les exécutions d'une semaine
// @Description Exécutions de génération d'une semaine
type RunListResponse struct {
	Runs   []*RunResponse `json:"runs"`
	Total  int64          `json:"total" example:"3"`
	Limit  int            `json:"limit" example:"50"`
	Offset int            `json:"offset" example:"0"`
} // @name RunListResponse

// WeekMetadataResponse expose l'agrégat des compteurs d'une semaine
// @Description Métadonnées de génération d'une semaine
type WeekMetadataResponse struct {
	CourseID string                        `json:"courseId" example:"c1"`
	WeekID   string                        `json:"weekId" example:"w1"`
	Metadata WeekContentGenerationMetadata `json:"metadata"`
} // @name WeekMetadataResponse
