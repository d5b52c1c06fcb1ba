package models

import (
	"fmt"
	"strings"
)

// ContentType identifie une catégorie de support d'étude généré par l'IA
type ContentType string

const (
	ContentCuecards       ContentType = "cuecards"
	ContentMultipleChoice ContentType = "multipleChoice"
	ContentOpenQuestions  ContentType = "openQuestions"
	ContentSummaries      ContentType = "summaries"
	ContentGoldenNotes    ContentType = "goldenNotes"
	ContentConceptMaps    ContentType = "conceptMaps"
)

var allContentTypes = []ContentType{
	ContentCuecards,
	ContentMultipleChoice,
	ContentOpenQuestions,
	ContentSummaries,
	ContentGoldenNotes,
	ContentConceptMaps,
}

// AllContentTypes retourne les six types de contenu dans l'ordre canonique
func AllContentTypes() []ContentType {
	out := make([]ContentType, len(allContentTypes))
	copy(out, allContentTypes)
	return out
}

// IsValid retourne true si le type fait partie des six types connus
func (ct ContentType) IsValid() bool {
	for _, known := range allContentTypes {
		if ct == known {
			return true
		}
	}
	return false
}

func (ct ContentType) String() string {
	return string(ct)
}

// ParseContentType accepte le nom exact ou une variante snake_case / kebab-case
func ParseContentType(raw string) (ContentType, error) {
	trimmed := strings.TrimSpace(raw)
	if ct := ContentType(trimmed); ct.IsValid() {
		return ct, nil
	}

	normalized := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(trimmed))
	for _, known := range allContentTypes {
		if strings.ToLower(string(known)) == normalized {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown content type: %q", raw)
}

// NormalizeContentTypes parse, dédoublonne et trie les types selon l'ordre canonique
func NormalizeContentTypes(raw []string) ([]ContentType, error) {
	seen := make(map[ContentType]bool, len(raw))
	for _, r := range raw {
		ct, err := ParseContentType(r)
		if err != nil {
			return nil, err
		}
		seen[ct] = true
	}

	out := make([]ContentType, 0, len(seen))
	for _, ct := range allContentTypes {
		if seen[ct] {
			out = append(out, ct)
		}
	}
	return out, nil
}

// ContentTypeStrings convertit une liste de types en chaînes
func ContentTypeStrings(types []ContentType) []string {
	out := make([]string, len(types))
	for i, ct := range types {
		out[i] = string(ct)
	}
	return out
}
