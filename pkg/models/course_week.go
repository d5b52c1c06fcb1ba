package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WeekMetadataVersion est la version courante du schéma des métadonnées de semaine
const WeekMetadataVersion = 1

// ContentCounts contient le nombre d'éléments générés par type de contenu
// @Description Compteurs par type de contenu
type ContentCounts struct {
	Cuecards       int `json:"cuecards"`
	MultipleChoice int `json:"multipleChoice"`
	OpenQuestions  int `json:"openQuestions"`
	Summaries      int `json:"summaries"`
	GoldenNotes    int `json:"goldenNotes"`
	ConceptMaps    int `json:"conceptMaps"`
} // @name ContentCounts

// Get retourne le compteur d'un type
func (cc ContentCounts) Get(ct ContentType) int {
	switch ct {
	case ContentCuecards:
		return cc.Cuecards
	case ContentMultipleChoice:
		return cc.MultipleChoice
	case ContentOpenQuestions:
		return cc.OpenQuestions
	case ContentSummaries:
		return cc.Summaries
	case ContentGoldenNotes:
		return cc.GoldenNotes
	case ContentConceptMaps:
		return cc.ConceptMaps
	}
	return 0
}

// Set remplace le compteur d'un type
func (cc *ContentCounts) Set(ct ContentType, count int) error {
	switch ct {
	case ContentCuecards:
		cc.Cuecards = count
	case ContentMultipleChoice:
		cc.MultipleChoice = count
	case ContentOpenQuestions:
		cc.OpenQuestions = count
	case ContentSummaries:
		cc.Summaries = count
	case ContentGoldenNotes:
		cc.GoldenNotes = count
	case ContentConceptMaps:
		cc.ConceptMaps = count
	default:
		return fmt.Errorf("unknown content type: %q", ct)
	}
	return nil
}

// Sum additionne les six compteurs
func (cc ContentCounts) Sum() int {
	total := 0
	for _, ct := range AllContentTypes() {
		total += cc.Get(ct)
	}
	return total
}

// WeekContentGenerationMetadata agrège les compteurs de génération d'une semaine.
// TotalGenerated est toujours recalculé depuis ContentCounts.
// @Description Métadonnées de génération d'une semaine de cours
type WeekContentGenerationMetadata struct {
	Version        int           `json:"version" example:"1"`
	ContentCounts  ContentCounts `json:"contentCounts"`
	TotalGenerated int           `json:"totalGenerated" example:"12"`
	GeneratedAt    *time.Time    `json:"generatedAt,omitempty"`
} // @name WeekContentGenerationMetadata

// NewWeekContentGenerationMetadata retourne une structure à zéro
func NewWeekContentGenerationMetadata() WeekContentGenerationMetadata {
	return WeekContentGenerationMetadata{Version: WeekMetadataVersion}
}

// Recompute recalcule le total à partir des compteurs
func (m *WeekContentGenerationMetadata) Recompute() {
	m.Version = WeekMetadataVersion
	m.TotalGenerated = m.ContentCounts.Sum()
}

// WeekMetadataColumn est la colonne JSON typée des métadonnées de semaine
type WeekMetadataColumn = datatypes.JSONType[WeekContentGenerationMetadata]

// NewWeekMetadataColumn enveloppe des métadonnées pour la persistance
func NewWeekMetadataColumn(meta WeekContentGenerationMetadata) WeekMetadataColumn {
	return datatypes.NewJSONType(meta)
}

// CourseWeek est l'entité semaine de cours à laquelle sont rattachés les supports
// et les contenus générés
type CourseWeek struct {
	ID              string              `json:"id" gorm:"type:varchar(128);primaryKey"`
	CourseID        string              `json:"course_id" gorm:"type:varchar(128);not null;index"`
	WeekNumber      int                 `json:"week_number" gorm:"not null;default:0"`
	Title           string              `json:"title" gorm:"type:text"`
	ContentMetadata *WeekMetadataColumn `json:"content_metadata,omitempty"`
	MetadataVersion int64               `json:"metadata_version" gorm:"not null;default:0"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func (CourseWeek) TableName() string {
	return "course_weeks"
}

// BeforeCreate initialise les timestamps
func (w *CourseWeek) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	return nil
}

// Metadata retourne les métadonnées stockées ou une structure à zéro si absentes
func (w *CourseWeek) Metadata() WeekContentGenerationMetadata {
	if w.ContentMetadata == nil {
		return NewWeekContentGenerationMetadata()
	}
	meta := w.ContentMetadata.Data()
	meta.Recompute()
	return meta
}

// CourseWeekRequest représente l'enregistrement d'une semaine de cours
// @Description Requête de création ou mise à jour d'une semaine
type CourseWeekRequest struct {
	WeekNumber int    `json:"weekNumber" example:"3"`
	Title      string `json:"title" example:"Thermodynamics"`
} // @name CourseWeekRequest

// CourseWeekResponse représente une semaine de cours
// @Description Semaine de cours et ses métadonnées de génération
type CourseWeekResponse struct {
	ID         string                        `json:"id"`
	CourseID   string                        `json:"courseId"`
	WeekNumber int                           `json:"weekNumber"`
	Title      string                        `json:"title"`
	Metadata   WeekContentGenerationMetadata `json:"metadata"`
	UpdatedAt  time.Time                     `json:"updatedAt"`
} // @name CourseWeekResponse

// ToResponse convertit une CourseWeek en CourseWeekResponse
func (w *CourseWeek) ToResponse() *CourseWeekResponse {
	return &CourseWeekResponse{
		ID:         w.ID,
		CourseID:   w.CourseID,
		WeekNumber: w.WeekNumber,
		Title:      w.Title,
		Metadata:   w.Metadata(),
		UpdatedAt:  w.UpdatedAt,
	}
}
