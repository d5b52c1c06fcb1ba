package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// GenerationConfigVersion est la version courante du schéma de configuration
const GenerationConfigVersion = 1

// MaxFeatureCount borne le nombre d'éléments demandés par type de contenu
const MaxFeatureCount = 100

// MaxFocusLength borne la consigne libre "focus"
const MaxFocusLength = 500

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyMixed  Difficulty = "mixed"
)

type SummaryLength string

const (
	LengthShort  SummaryLength = "short"
	LengthMedium SummaryLength = "medium"
	LengthLong   SummaryLength = "long"
)

// FeatureConfig contient les paramètres d'un type de contenu
// @Description Paramètres de génération pour un type de contenu
type FeatureConfig struct {
	Count      int           `json:"count,omitempty" example:"12"`
	Difficulty Difficulty    `json:"difficulty,omitempty" enums:"easy,medium,hard,mixed"`
	Length     SummaryLength `json:"length,omitempty" enums:"short,medium,long"`
	Focus      string        `json:"focus,omitempty"`
} // @name FeatureConfig

// DefaultFeatureConfig retourne la configuration utilisée quand aucune n'a été fournie
func DefaultFeatureConfig(ct ContentType) FeatureConfig {
	switch ct {
	case ContentCuecards:
		return FeatureConfig{Count: 20, Difficulty: DifficultyMixed}
	case ContentMultipleChoice:
		return FeatureConfig{Count: 10, Difficulty: DifficultyMedium}
	case ContentOpenQuestions:
		return FeatureConfig{Count: 5, Difficulty: DifficultyMedium}
	case ContentSummaries:
		return FeatureConfig{Count: 1, Length: LengthMedium}
	case ContentGoldenNotes:
		return FeatureConfig{Count: 10}
	case ContentConceptMaps:
		return FeatureConfig{Count: 1}
	default:
		return FeatureConfig{}
	}
}

// WithDefaults complète les champs vides avec les valeurs par défaut du type
func (fc FeatureConfig) WithDefaults(ct ContentType) FeatureConfig {
	def := DefaultFeatureConfig(ct)
	if fc.Count == 0 {
		fc.Count = def.Count
	}
	if fc.Difficulty == "" {
		fc.Difficulty = def.Difficulty
	}
	if fc.Length == "" {
		fc.Length = def.Length
	}
	return fc
}

// Validate vérifie les bornes des paramètres
func (fc FeatureConfig) Validate() error {
	if fc.Count < 0 || fc.Count > MaxFeatureCount {
		return fmt.Errorf("count must be between 0 and %d", MaxFeatureCount)
	}
	switch fc.Difficulty {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed:
	default:
		return fmt.Errorf("unknown difficulty %q", fc.Difficulty)
	}
	switch fc.Length {
	case "", LengthShort, LengthMedium, LengthLong:
	default:
		return fmt.Errorf("unknown length %q", fc.Length)
	}
	if utf8.RuneCountInString(fc.Focus) > MaxFocusLength {
		return fmt.Errorf("focus must be at most %d characters", MaxFocusLength)
	}
	return nil
}

// SelectiveGenerationConfig décrit les types de contenu demandés pour une semaine
// et leurs paramètres. Le schéma est versionné: les anciennes formes sont migrées
// au décodage.
// @Description Configuration de génération sélective
type SelectiveGenerationConfig struct {
	Version          int                           `json:"version" example:"1"`
	SelectedFeatures map[ContentType]bool          `json:"selectedFeatures"`
	FeatureConfigs   map[ContentType]FeatureConfig `json:"featureConfigs,omitempty"`
} // @name SelectiveGenerationConfig

// NewSelectiveGenerationConfig crée une configuration qui sélectionne exactement les types donnés
func NewSelectiveGenerationConfig(types []ContentType) *SelectiveGenerationConfig {
	cfg := &SelectiveGenerationConfig{
		Version:          GenerationConfigVersion,
		SelectedFeatures: make(map[ContentType]bool, len(AllContentTypes())),
		FeatureConfigs:   map[ContentType]FeatureConfig{},
	}
	for _, ct := range AllContentTypes() {
		cfg.SelectedFeatures[ct] = false
	}
	for _, ct := range types {
		cfg.SelectedFeatures[ct] = true
	}
	return cfg
}

// IsSelected retourne true si le type a été demandé
func (c *SelectiveGenerationConfig) IsSelected(ct ContentType) bool {
	if c == nil {
		return false
	}
	return c.SelectedFeatures[ct]
}

// SelectedTypes retourne les types sélectionnés dans l'ordre canonique
func (c *SelectiveGenerationConfig) SelectedTypes() []ContentType {
	var out []ContentType
	for _, ct := range AllContentTypes() {
		if c.IsSelected(ct) {
			out = append(out, ct)
		}
	}
	return out
}

// FeatureConfigFor retourne la configuration d'un type: nil si le type n'est pas
// sélectionné (même si featureConfigs contient une entrée), l'entrée explicite
// sinon, ou la configuration par défaut.
func (c *SelectiveGenerationConfig) FeatureConfigFor(ct ContentType) *FeatureConfig {
	if !c.IsSelected(ct) {
		return nil
	}
	if fc, ok := c.FeatureConfigs[ct]; ok {
		fc = fc.WithDefaults(ct)
		return &fc
	}
	def := DefaultFeatureConfig(ct)
	return &def
}

// Restrict force la sélection à exactement les types donnés et retire les
// configurations des types non sélectionnés
func (c *SelectiveGenerationConfig) Restrict(types []ContentType) {
	keep := make(map[ContentType]bool, len(types))
	for _, ct := range types {
		keep[ct] = true
	}
	c.SelectedFeatures = make(map[ContentType]bool, len(AllContentTypes()))
	for _, ct := range AllContentTypes() {
		c.SelectedFeatures[ct] = keep[ct]
	}
	for ct := range c.FeatureConfigs {
		if !keep[ct] {
			delete(c.FeatureConfigs, ct)
		}
	}
	c.Version = GenerationConfigVersion
}

// Validate vérifie la configuration complète
func (c *SelectiveGenerationConfig) Validate() error {
	if len(c.SelectedTypes()) == 0 {
		return fmt.Errorf("at least one content type must be selected")
	}
	for ct, fc := range c.FeatureConfigs {
		if !ct.IsValid() {
			return fmt.Errorf("unknown content type %q in featureConfigs", ct)
		}
		if err := fc.Validate(); err != nil {
			return fmt.Errorf("invalid config for %s: %w", ct, err)
		}
	}
	return nil
}

// rawGenerationConfig est la forme décodée avant migration
type rawGenerationConfig struct {
	Version          int                      `json:"version"`
	SelectedFeatures json.RawMessage          `json:"selectedFeatures"`
	FeatureConfigs   map[string]FeatureConfig `json:"featureConfigs"`

	selected map[string]bool
}

// generationConfigMigrations fait passer une configuration de la version N à N+1
var generationConfigMigrations = map[int]func(*rawGenerationConfig) error{
	// v0: blobs non versionnés, selectedFeatures en tableau ou en objet,
	// clés snake_case héritées
	0: func(raw *rawGenerationConfig) error {
		selected := make(map[string]bool, len(raw.selected))
		for key, on := range raw.selected {
			ct, err := ParseContentType(key)
			if err != nil {
				continue
			}
			selected[string(ct)] = selected[string(ct)] || on
		}
		raw.selected = selected

		configs := make(map[string]FeatureConfig, len(raw.FeatureConfigs))
		for key, fc := range raw.FeatureConfigs {
			ct, err := ParseContentType(key)
			if err != nil {
				continue
			}
			if fc.Count > MaxFeatureCount {
				fc.Count = MaxFeatureCount
			}
			configs[string(ct)] = fc
		}
		raw.FeatureConfigs = configs
		return nil
	},
}

// MigrateGenerationConfig décode un blob JSON de n'importe quelle version connue
// et le ramène à la version courante
func MigrateGenerationConfig(data []byte) (*SelectiveGenerationConfig, error) {
	var raw rawGenerationConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode generation config: %w", err)
	}
	if raw.Version < 0 || raw.Version > GenerationConfigVersion {
		return nil, fmt.Errorf("unsupported generation config version %d", raw.Version)
	}

	selected, err := decodeSelectedFeatures(raw.SelectedFeatures)
	if err != nil {
		return nil, err
	}
	raw.selected = selected

	for v := raw.Version; v < GenerationConfigVersion; v++ {
		migrate, ok := generationConfigMigrations[v]
		if !ok {
			return nil, fmt.Errorf("no migration from generation config version %d", v)
		}
		if err := migrate(&raw); err != nil {
			return nil, fmt.Errorf("generation config migration v%d: %w", v, err)
		}
	}

	cfg := &SelectiveGenerationConfig{
		Version:          GenerationConfigVersion,
		SelectedFeatures: make(map[ContentType]bool, len(AllContentTypes())),
		FeatureConfigs:   make(map[ContentType]FeatureConfig, len(raw.FeatureConfigs)),
	}
	for _, ct := range AllContentTypes() {
		cfg.SelectedFeatures[ct] = raw.selected[string(ct)]
	}
	for key, fc := range raw.FeatureConfigs {
		ct := ContentType(key)
		if ct.IsValid() {
			cfg.FeatureConfigs[ct] = fc
		}
	}
	return cfg, nil
}

// UnmarshalJSON applique la migration de schéma à chaque décodage, y compris
// à la lecture de la colonne config_data
func (c *SelectiveGenerationConfig) UnmarshalJSON(data []byte) error {
	cfg, err := MigrateGenerationConfig(data)
	if err != nil {
		return err
	}
	*c = *cfg
	return nil
}

func decodeSelectedFeatures(raw json.RawMessage) (map[string]bool, error) {
	out := map[string]bool{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out, nil
	}

	if trimmed[0] == '[' {
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("invalid selectedFeatures list: %w", err)
		}
		for _, name := range list {
			out[name] = true
		}
		return out, nil
	}

	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("invalid selectedFeatures object: %w", err)
	}
	return out, nil
}
