package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GenerationConfigColumn est la colonne JSON typée de la configuration persistée
type GenerationConfigColumn = datatypes.JSONType[SelectiveGenerationConfig]

// NewGenerationConfigColumn enveloppe une configuration pour la persistance
func NewGenerationConfigColumn(cfg SelectiveGenerationConfig) GenerationConfigColumn {
	return datatypes.NewJSONType(cfg)
}

// FeatureState contient l'état de génération d'un type de contenu pour une semaine
// @Description État de génération d'un type de contenu
type FeatureState struct {
	Generated   bool       `json:"generated" gorm:"not null;default:false"`
	Count       int        `json:"count" gorm:"not null;default:0"`
	GeneratedAt *time.Time `json:"generatedAt,omitempty"`
	Error       string     `json:"error,omitempty" gorm:"type:text"`
} // @name FeatureState

// Available retourne true si du contenu a été généré pour ce type
func (s FeatureState) Available() bool {
	return s.Generated && s.Count > 0
}

// CourseWeekFeatures est l'unique ligne par (course, week) qui garde la dernière
// configuration persistée et l'état de chaque type de contenu
type CourseWeekFeatures struct {
	ID             uuid.UUID               `json:"id" gorm:"type:uuid;primaryKey"`
	CourseID       string                  `json:"course_id" gorm:"type:varchar(128);not null;uniqueIndex:idx_course_week_features_pair"`
	WeekID         string                  `json:"week_id" gorm:"type:varchar(128);not null;uniqueIndex:idx_course_week_features_pair;index"`
	ConfigData     *GenerationConfigColumn `json:"config_data,omitempty"`
	ConfigVersion  int64                   `json:"config_version" gorm:"not null;default:0"`
	LastRunID      string                  `json:"last_run_id,omitempty" gorm:"type:varchar(64)"`
	Cuecards       FeatureState            `json:"cuecards" gorm:"embedded;embeddedPrefix:cuecards_"`
	MultipleChoice FeatureState            `json:"multipleChoice" gorm:"embedded;embeddedPrefix:multiple_choice_"`
	OpenQuestions  FeatureState            `json:"openQuestions" gorm:"embedded;embeddedPrefix:open_questions_"`
	Summaries      FeatureState            `json:"summaries" gorm:"embedded;embeddedPrefix:summaries_"`
	GoldenNotes    FeatureState            `json:"goldenNotes" gorm:"embedded;embeddedPrefix:golden_notes_"`
	ConceptMaps    FeatureState            `json:"conceptMaps" gorm:"embedded;embeddedPrefix:concept_maps_"`
	Week           *CourseWeek             `json:"-" gorm:"foreignKey:WeekID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at" gorm:"index"`
}

func (CourseWeekFeatures) TableName() string {
	return "course_week_features"
}

// BeforeCreate hook GORM pour initialiser l'ID et les timestamps
func (f *CourseWeekFeatures) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now
	return nil
}

// FeatureColumnPrefix retourne le préfixe des colonnes d'un type de contenu
func FeatureColumnPrefix(ct ContentType) string {
	switch ct {
	case ContentCuecards:
		return "cuecards_"
	case ContentMultipleChoice:
		return "multiple_choice_"
	case ContentOpenQuestions:
		return "open_questions_"
	case ContentSummaries:
		return "summaries_"
	case ContentGoldenNotes:
		return "golden_notes_"
	case ContentConceptMaps:
		return "concept_maps_"
	}
	return ""
}

// Feature retourne l'état d'un type de contenu
func (f *CourseWeekFeatures) Feature(ct ContentType) FeatureState {
	switch ct {
	case ContentCuecards:
		return f.Cuecards
	case ContentMultipleChoice:
		return f.MultipleChoice
	case ContentOpenQuestions:
		return f.OpenQuestions
	case ContentSummaries:
		return f.Summaries
	case ContentGoldenNotes:
		return f.GoldenNotes
	case ContentConceptMaps:
		return f.ConceptMaps
	}
	return FeatureState{}
}

// Config retourne la configuration persistée, nil si absente
func (f *CourseWeekFeatures) Config() *SelectiveGenerationConfig {
	if f.ConfigData == nil {
		return nil
	}
	cfg := f.ConfigData.Data()
	return &cfg
}

// FeatureError retourne le dernier message d'erreur d'un type, vide sinon
func (f *CourseWeekFeatures) FeatureError(ct ContentType) string {
	return f.Feature(ct).Error
}

// LastUpdated retourne la date la plus récente entre la ligne et les générations
func (f *CourseWeekFeatures) LastUpdated() time.Time {
	latest := f.UpdatedAt
	for _, ct := range AllContentTypes() {
		if at := f.Feature(ct).GeneratedAt; at != nil && at.After(latest) {
			latest = *at
		}
	}
	return latest
}
