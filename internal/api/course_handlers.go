package api

import (
	"net/http"

	"studyloop-generation/internal/courses"
	"studyloop-generation/internal/logger"
	"studyloop-generation/internal/metadata"
	"studyloop-generation/internal/validation"
	"studyloop-generation/pkg/models"

	"github.com/gin-gonic/gin"
)

// CourseHandlers gère les semaines de cours et leurs métadonnées de génération
type CourseHandlers struct {
	weeks    courses.WeekService
	metadata metadata.Updater
	log      *logger.Logger
}

func NewCourseHandlers(weeks courses.WeekService, meta metadata.Updater, log *logger.Logger) *CourseHandlers {
	return &CourseHandlers{
		weeks:    weeks,
		metadata: meta,
		log:      log.With("component", "api.courses"),
	}
}

// PutWeek enregistre ou met à jour une semaine de cours
// @Summary Enregistrer une semaine de cours
// @Tags Courses
// @Accept json
// @Produce json
// @Param courseId path string true "Identifiant du cours"
// @Param weekId path string true "Identifiant de la semaine"
// @Param request body models.CourseWeekRequest true "Semaine"
// @Success 200 {object} models.CourseWeekResponse "Semaine mise à jour"
// @Success 201 {object} models.CourseWeekResponse "Semaine créée"
// @Failure 400 {object} models.ValidationErrorResponse "Requête invalide"
// @Failure 409 {object} models.ErrorResponse "La semaine appartient à un autre cours"
// @Router /api/courses/{courseId}/weeks/{weekId} [put]
func (h *CourseHandlers) PutWeek(c *gin.Context) {
	var req models.CourseWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Error: "Invalid JSON format: " + err.Error()})
		return
	}
	if result := validation.GetValidator(c).ValidateWeekRequest(&req); !result.Valid {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":           false,
			"error":             result.FirstMessage(),
			"validation_errors": result.Errors,
		})
		return
	}

	week, created, err := h.weeks.RegisterWeek(c.Request.Context(), c.Param("courseId"), c.Param("weekId"), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to register course week")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, week.ToResponse())
}

// GetWeek retourne une semaine de cours
// @Summary Lire une semaine de cours
// @Tags Courses
// @Produce json
// @Param courseId path string true "Identifiant du cours"
// @Param weekId path string true "Identifiant de la semaine"
// @Success 200 {object} models.CourseWeekResponse "Semaine"
// @Failure 404 {object} models.ErrorResponse "Semaine inconnue"
// @Router /api/courses/{courseId}/weeks/{weekId} [get]
func (h *CourseHandlers) GetWeek(c *gin.Context) {
	week, err := h.weeks.GetWeek(c.Request.Context(), c.Param("courseId"), c.Param("weekId"))
	if err != nil {
		respondError(c, h.log, err, "Failed to load course week")
		return
	}
	c.JSON(http.StatusOK, week.ToResponse())
}

// ListWeeks liste les semaines d'un cours
// @Summary Lister les semaines d'un cours
// @Tags Courses
// @Produce json
// @Param courseId path string true "Identifiant du cours"
// @Success 200 {array} models.CourseWeekResponse "Semaines"
// @Router /api/courses/{courseId}/weeks [get]
func (h *CourseHandlers) ListWeeks(c *gin.Context) {
	weeks, err := h.weeks.ListWeeks(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		respondError(c, h.log, err, "Failed to list course weeks")
		return
	}

	responses := make([]*models.CourseWeekResponse, len(weeks))
	for i := range weeks {
		responses[i] = weeks[i].ToResponse()
	}
	c.JSON(http.StatusOK, responses)
}

// DeleteWeek supprime une semaine, sa configuration et ses fichiers
// @Summary Supprimer une semaine de cours
// @Tags Courses
// @Param courseId path string true "Identifiant du cours"
// @Param weekId path string true "Identifiant de la semaine"
// @Success 204 "Semaine supprimée"
// @Failure 404 {object} models.ErrorResponse "Semaine inconnue"
// @Router /api/courses/{courseId}/weeks/{weekId} [delete]
func (h *CourseHandlers) DeleteWeek(c *gin.Context) {
	if err := h.weeks.DeleteWeek(c.Request.Context(), c.Param("courseId"), c.Param("weekId")); err != nil {
		respondError(c, h.log, err, "Failed to delete course week")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetWeekMetadata retourne l'agrégat des compteurs de génération d'une semaine
// @Summary Métadonnées de génération d'une semaine
// @Tags Courses
// @Produce json
// @Param courseId path string true "Identifiant du cours"
// @Param weekId path string true "Identifiant de la semaine"
// @Success 200 {object} models.WeekMetadataResponse "Métadonnées"
// @Failure 404 {object} models.ErrorResponse "Semaine inconnue"
// @Router /api/courses/{courseId}/weeks/{weekId}/metadata [get]
func (h *CourseHandlers) GetWeekMetadata(c *gin.Context) {
	courseID, weekID := c.Param("courseId"), c.Param("weekId")

	// vérifie l'appartenance de la semaine au cours
	if _, err := h.weeks.GetWeek(c.Request.Context(), courseID, weekID); err != nil {
		respondError(c, h.log, err, "Failed to load course week")
		return
	}

	meta, err := h.metadata.GetWeekMetadata(c.Request.Context(), weekID)
	if err != nil {
		respondError(c, h.log, err, "Failed to load week metadata")
		return
	}

	c.JSON(http.StatusOK, models.WeekMetadataResponse{CourseID: courseID, WeekID: weekID, Metadata: meta})
}
