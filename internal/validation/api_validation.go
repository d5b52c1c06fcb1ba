// internal/validation/api_validation.go - Validation spécifique à l'API

package validation

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"studyloop-generation/pkg/models"
)

var (
	dotRunPattern        = regexp.MustCompile(`\.\.+`)
	dangerousPattern     = regexp.MustCompile(`[\/\\:*?"<>|]+`)
	dotsPattern          = regexp.MustCompile(`^\.+|\.+`)
	underscoreRunPattern = regexp.MustCompile(`_+`)
)

// APIValidator gère la validation des requêtes API
type APIValidator struct {
	validationService *ValidationService
}

// PaginationParams contient les paramètres de pagination validés
type PaginationParams struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ValidatedTrigger est une demande de génération validée et normalisée
type ValidatedTrigger struct {
	CourseID     string
	WeekID       string
	ContentTypes []models.ContentType
	Config       *models.SelectiveGenerationConfig
}

// ListRunsParams contient les filtres validés du listage des exécutions
type ListRunsParams struct {
	CourseID   string           `json:"courseId"`
	WeekID     string           `json:"weekId"`
	Status     models.RunStatus `json:"status,omitempty"`
	Pagination PaginationParams `json:"pagination"`
}

// NewAPIValidator crée un nouveau validateur d'API
func NewAPIValidator(config *ValidationConfig) *APIValidator {
	return &APIValidator{
		validationService: NewValidationService(config),
	}
}

// ValidateTriggerRequest valide une demande de génération et normalise ses types
func (av *APIValidator) ValidateTriggerRequest(req *models.TriggerRequest) (*ValidatedTrigger, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	result.Merge(av.validationService.ValidateIdentifier("courseId", req.CourseID))
	result.Merge(av.validationService.ValidateIdentifier("weekId", req.WeekID))

	types, typesResult := av.validationService.ValidateContentTypes(req.ContentTypes)
	result.Merge(typesResult)
	result.Merge(av.validationService.ValidateGenerationConfig(req.Config))

	if !result.Valid {
		return nil, result
	}

	return &ValidatedTrigger{
		CourseID:     req.CourseID,
		WeekID:       req.WeekID,
		ContentTypes: types,
		Config:       req.Config,
	}, result
}

// ValidateCourseWeekParams valide un couple (courseId, weekId)
func (av *APIValidator) ValidateCourseWeekParams(courseID, weekID string) *ValidationResult {
	result := &ValidationResult{Valid: true}
	result.Merge(av.validationService.ValidateIdentifier("courseId", courseID))
	result.Merge(av.validationService.ValidateIdentifier("weekId", weekID))
	return result
}

// ValidateRunIDParam valide un paramètre runId depuis l'URL
func (av *APIValidator) ValidateRunIDParam(runID string) *ValidationResult {
	return av.validationService.ValidateRunID(runID)
}

// ValidateWeekRequest valide l'enregistrement d'une semaine
func (av *APIValidator) ValidateWeekRequest(req *models.CourseWeekRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if req.WeekNumber < 0 || req.WeekNumber > 104 {
		result.AddError("weekNumber", strconv.Itoa(req.WeekNumber), "week number must be between 0 and 104", "OUT_OF_RANGE")
	}
	if len(req.Title) > 500 {
		result.AddError("title", "", "title too long (max 500 characters)", "TOO_LONG")
	}

	return result
}

// ValidateFileUpload valide un upload de fichiers
func (av *APIValidator) ValidateFileUpload(files []*multipart.FileHeader) *ValidationResult {
	return av.validationService.ValidateFiles(files)
}

// ValidateStatusParam valide un filtre de statut d'exécution (optionnel)
func (av *APIValidator) ValidateStatusParam(status string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if status == "" {
		return result
	}

	known := append(append([]models.RunStatus{}, models.CancellableStatuses...), models.TerminalRunStatuses()...)
	for _, s := range known {
		if models.RunStatus(status) == s {
			return result
		}
	}

	names := make([]string, len(known))
	for i, s := range known {
		names[i] = string(s)
	}
	result.AddError("status", status,
		"invalid status (must be: "+strings.Join(names, ", ")+")",
		"INVALID_STATUS")
	return result
}

// ValidatePaginationParams valide les paramètres de pagination avec valeurs par défaut
func (av *APIValidator) ValidatePaginationParams(limitStr, offsetStr string) (*PaginationParams, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	limit := 50
	offset := 0

	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err != nil {
			result.AddError("limit", limitStr, "limit must be a valid integer", "INVALID_LIMIT")
		} else if parsedLimit < 0 {
			result.AddError("limit", limitStr, "limit cannot be negative", "NEGATIVE_LIMIT")
		} else if parsedLimit > 500 {
			result.AddError("limit", limitStr, "limit too large (max 500)", "LIMIT_TOO_LARGE")
		} else {
			limit = parsedLimit
		}
	}

	if offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err != nil {
			result.AddError("offset", offsetStr, "offset must be a valid integer", "INVALID_OFFSET")
		} else if parsedOffset < 0 {
			result.AddError("offset", offsetStr, "offset cannot be negative", "NEGATIVE_OFFSET")
		} else {
			offset = parsedOffset
		}
	}

	return &PaginationParams{Limit: limit, Offset: offset}, result
}

// ValidateListRunsParams valide tous les paramètres du listage des exécutions
func (av *APIValidator) ValidateListRunsParams(courseID, weekID, status, limit, offset string) (*ListRunsParams, *ValidationResult) {
	result := av.ValidateCourseWeekParams(courseID, weekID)
	result.Merge(av.ValidateStatusParam(status))

	pagination, paginationResult := av.ValidatePaginationParams(limit, offset)
	result.Merge(paginationResult)

	return &ListRunsParams{
		CourseID:   courseID,
		WeekID:     weekID,
		Status:     models.RunStatus(status),
		Pagination: *pagination,
	}, result
}

// SanitizeFilename nettoie un nom de fichier en supprimant les caractères dangereux
func (av *APIValidator) SanitizeFilename(filename string) string {
	// Séparer l'extension du nom de base pour la protéger
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	if base == "" && ext != "" {
		base = "hidden_file"
	}

	base = dotRunPattern.ReplaceAllString(base, "_")
	base = dangerousPattern.ReplaceAllString(base, "_")
	base = dotsPattern.ReplaceAllString(base, "_")
	base = underscoreRunPattern.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")

	ext = strings.Trim(ext, "_")
	if len(ext) < 2 {
		ext = ""
	}

	if base == "" {
		base = "unnamed_file"
	}
	if base == "hidden_file" {
		base = ""
	}

	sanitized := base + ext

	if len(sanitized) > 200 {
		if len(ext) < 200 {
			maxBaseLen := 200 - len(ext)
			if len(base) > maxBaseLen {
				base = base[:maxBaseLen]
			}
			sanitized = base + ext
		} else {
			sanitized = sanitized[:200]
		}
	}

	return sanitized
}

// ValidateContentSafety vérifie le contenu des supports textuels
func (av *APIValidator) ValidateContentSafety(content []byte, filename string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if int64(len(content)) > av.validationService.config.MaxFileSize {
		result.AddError("content", filename, "content too large", "CONTENT_TOO_LARGE")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".html":
		if strings.Contains(strings.ToLower(string(content)), "<script") {
			result.AddError("content", filename,
				"HTML content contains script tags",
				"SCRIPT_TAGS_NOT_ALLOWED")
		}
	case ".md":
		if strings.Contains(string(content), "javascript:") {
			result.AddError("content", filename,
				"Markdown content contains javascript: links",
				"JAVASCRIPT_LINKS_NOT_ALLOWED")
		}
	}

	// Les formats binaires (pdf, docx, pptx) ne sont pas inspectés
	if !isTextExtension(ext) {
		return result
	}

	for i, b := range content {
		if b < 32 && b != 9 && b != 10 && b != 13 {
			result.AddError("content", filename,
				fmt.Sprintf("content contains control character at position %d", i),
				"CONTROL_CHARACTERS")
			break
		}
	}

	return result
}

func isTextExtension(ext string) bool {
	switch ext {
	case ".txt", ".md", ".html", ".json":
		return true
	}
	return false
}
