package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"studyloop-generation/internal/courses"
	"studyloop-generation/internal/logger"
	"studyloop-generation/internal/storage"
	"studyloop-generation/internal/validation"
	"studyloop-generation/pkg/models"
	pkgstorage "studyloop-generation/pkg/storage"

	"github.com/gin-gonic/gin"
)

// StorageHandlers expose les supports de cours et les contenus générés d'une semaine
type StorageHandlers struct {
	storageService *storage.StorageService
	weeks          courses.WeekService
	log            *logger.Logger
}

func NewStorageHandlers(storageService *storage.StorageService, weeks courses.WeekService, log *logger.Logger) *StorageHandlers {
	return &StorageHandlers{
		storageService: storageService,
		weeks:          weeks,
		log:            log.With("component", "api.storage"),
	}
}

// UploadMaterials téléverse des supports de cours pour une semaine
// @Summary Téléverser des supports de cours
// @Description Les noms de fichiers sont assainis et le contenu textuel est contrôlé avant stockage.
// @Tags Materials
// @Accept multipart/form-data
// @Produce json
// @Param courseId path string true "Identifiant du cours"
// @Param weekId path string true "Identifiant de la semaine"
// @Param files formData file true "Supports (pdf, txt, md, html, docx, pptx, json)"
// @Success 201 {object} models.MaterialUploadResponse "Supports enregistrés"
// @Failure 400 {object} models.ValidationErrorResponse "Fichiers invalides"
// @Failure 404 {object} models.ErrorResponse "Semaine inconnue"
// @Router /api/courses/{courseId}/weeks/{weekId}/materials [post]
func (h *StorageHandlers) UploadMaterials(c *gin.Context) {
	validator := validation.GetValidator(c)
	courseID, weekID := c.Param("courseId"), c.Param("weekId")
	files := c.MustGet("validated_files").([]*multipart.FileHeader)

	if _, err := h.weeks.GetWeek(c.Request.Context(), courseID, weekID); err != nil {
		respondError(c, h.log, err, "Failed to load course week")
		return
	}

	processed := make([]*multipart.FileHeader, 0, len(files))
	for _, fileHeader := range files {
		sanitized := validator.SanitizeFilename(fileHeader.Filename)

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: "failed to open file: " + fileHeader.Filename})
			return
		}
		content := make([]byte, min(fileHeader.Size, 1024*1024))
		n, _ := file.Read(content)
		file.Close()

		if result := validator.ValidateContentSafety(content[:n], sanitized); !result.Valid {
			c.JSON(http.StatusBadRequest, gin.H{
				"success":           false,
				"error":             "Content validation failed for file: " + fileHeader.Filename,
				"validation_errors": result.Errors,
			})
			return
		}

		if sanitized != fileHeader.Filename {
			renamed := *fileHeader
			renamed.Filename = sanitized
			fileHeader = &renamed
		}
		processed = append(processed, fileHeader)
	}

	stored, err := h.storageService.UploadMaterials(c.Request.Context(), courseID, weekID, processed)
	if err != nil {
		respondError(c, h.log, err, "Failed to store materials")
		return
	}

	h.log.Info("Materials uploaded", "course_id", courseID, "week_id", weekID, "count", len(stored))
	c.JSON(http.StatusCreated, models.MaterialUploadResponse{
		Message: "Materials uploaded successfully",
		Count:   len(stored),
		Files:   stored,
	})
}

// ListMaterials liste les supports d'une semaine
// @Summary Lister les supports de cours
// @Tags Materials
// @Produce json
// @Param courseId path string true "Identifiant du cours"
// @Param weekId path string true "Identifiant de la semaine"
// @Success 200 {object} models.MaterialListResponse "Supports de la semaine"
// @Router /api/courses/{courseId}/weeks/{weekId}/materials [get]
func (h *StorageHandlers) ListMaterials(c *gin.Context) {
	courseID, weekID := c.Param("courseId"), c.Param("weekId")

	names, err := h.storageService.ListMaterials(c.Request.Context(), courseID, weekID)
	if err != nil {
		respondError(c, h.log, err, "Failed to list materials")
		return
	}

	c.JSON(http.StatusOK, models.MaterialListResponse{
		CourseID:  courseID,
		WeekID:    weekID,
		Materials: names,
		Count:     len(names),
	})
}

// GetGeneratedContent retourne le contenu généré d'un type
// @Summary Contenu généré d'un type
// @Tags Materials
// @Produce json
// @Param courseId path string true "Identifiant du cours"
// @Param weekId path string true "Identifiant de la semaine"
// @Param contentType path string true "Type de contenu" Enums(cuecards, summaries, goldenNotes, openQuestions, conceptMaps, multipleChoice)
// @Success 200 {object} object "Contenu généré"
// @Failure 400 {object} models.ErrorResponse "Type inconnu"
// @Failure 404 {object} models.ErrorResponse "Aucun contenu généré"
// @Router /api/courses/{courseId}/weeks/{weekId}/content/{contentType} [get]
func (h *StorageHandlers) GetGeneratedContent(c *gin.Context) {
	ct, err := models.ParseContentType(c.Param("contentType"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	content, err := h.storageService.LoadArtifact(c.Request.Context(), c.Param("courseId"), c.Param("weekId"), ct)
	if err != nil {
		if errors.Is(err, pkgstorage.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Success: false, Error: "No generated content for " + string(ct)})
			return
		}
		respondError(c, h.log, err, "Failed to load generated content")
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", content)
}
