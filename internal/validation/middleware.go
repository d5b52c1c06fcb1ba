// internal/validation/middleware.go
package validation

import (
	"net/http"

	"studyloop-generation/pkg/models"

	"github.com/gin-gonic/gin"
)

// RequestValidator définit une fonction de validation pour une requête
type RequestValidator func(*gin.Context, *APIValidator) *ValidationResult

// ValidateRequest est le middleware principal qui exécute une liste de validators
func ValidateRequest(validators ...RequestValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		validator := GetValidator(c)
		if validator == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "Validation service unavailable",
			})
			return
		}

		for _, validate := range validators {
			if result := validate(c, validator); !result.Valid {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"success":           false,
					"error":             result.FirstMessage(),
					"validation_errors": result.Errors,
				})
				return
			}
		}

		c.Next()
	}
}

// GetValidator récupère le validator posé dans le contexte par le router
func GetValidator(c *gin.Context) *APIValidator {
	if validator, exists := c.Get("validator"); exists {
		if apiValidator, ok := validator.(*APIValidator); ok {
			return apiValidator
		}
	}
	return nil
}

func ParseJSONRequest[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req T
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Invalid JSON format: " + err.Error(),
			})
			return
		}

		c.Set("parsed_request", req)
		c.Next()
	}
}

// ParseTriggerRequest décode le corps d'une demande de génération
func ParseTriggerRequest() gin.HandlerFunc {
	return ParseJSONRequest[models.TriggerRequest]()
}

// ValidateTriggerRequest valide la demande décodée et stocke la version normalisée
func ValidateTriggerRequest(c *gin.Context, v *APIValidator) *ValidationResult {
	raw, exists := c.Get("parsed_request")
	req, ok := raw.(models.TriggerRequest)
	if !exists || !ok {
		result := &ValidationResult{Valid: true}
		result.AddError("json", "", "request body is missing", "JSON_PARSE_ERROR")
		return result
	}

	validated, result := v.ValidateTriggerRequest(&req)
	if result.Valid {
		c.Set("validated_trigger", *validated)
	}
	return result
}

// ValidateRunIDParam valide le paramètre d'URL portant l'identifiant d'exécution
func ValidateRunIDParam(paramName string) RequestValidator {
	return func(c *gin.Context, v *APIValidator) *ValidationResult {
		runID := c.Param(paramName)
		result := v.ValidateRunIDParam(runID)
		if result.Valid {
			c.Set("validated_run_id", runID)
		}
		return result
	}
}

// ValidateCourseWeekParams valide courseId et weekId dans l'URL
func ValidateCourseWeekParams(c *gin.Context, v *APIValidator) *ValidationResult {
	return v.ValidateCourseWeekParams(c.Param("courseId"), c.Param("weekId"))
}

// ValidateCourseWeekQuery valide courseId et weekId passés en query
func ValidateCourseWeekQuery(c *gin.Context, v *APIValidator) *ValidationResult {
	return v.ValidateCourseWeekParams(c.Query("courseId"), c.Query("weekId"))
}

// ValidateFileUpload valide un upload de supports multipart (champ "files")
func ValidateFileUpload(c *gin.Context, v *APIValidator) *ValidationResult {
	result := &ValidationResult{Valid: true}

	form, err := c.MultipartForm()
	if err != nil {
		result.AddError("files", "", "Failed to parse multipart form: "+err.Error(), "MULTIPART_PARSE_ERROR")
		return result
	}

	files := form.File["files"]
	if len(files) == 0 {
		result.AddError("files", "", "No files provided", "NO_FILES")
		return result
	}

	result = v.ValidateFileUpload(files)
	if result.Valid {
		c.Set("validated_files", files)
	}

	return result
}

// ValidateListRunsParams valide les filtres de l'endpoint de listage des exécutions
func ValidateListRunsParams(c *gin.Context, v *APIValidator) *ValidationResult {
	params, result := v.ValidateListRunsParams(
		c.Query("courseId"), c.Query("weekId"), c.Query("status"), c.Query("limit"), c.Query("offset"))

	if result.Valid {
		c.Set("validated_list_params", *params)
	}

	return result
}
