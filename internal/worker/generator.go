package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"studyloop-generation/internal/storage"
	"studyloop-generation/pkg/models"
)

// ErrEmptyResponse est retourné quand le modèle ne renvoie aucun texte exploitable
var ErrEmptyResponse = errors.New("model returned an empty response")

// GenerateRequest décrit un contenu à produire pour une semaine
type GenerateRequest struct {
	CourseID    string
	WeekID      string
	ContentType models.ContentType
	Feature     models.FeatureConfig
	Materials   []storage.Material
}

// GeneratedContent est l'artefact JSON sauvegardé dans le stockage
type GeneratedContent struct {
	ContentType models.ContentType `json:"contentType"`
	CourseID    string             `json:"courseId"`
	WeekID      string             `json:"weekId"`
	Model       string             `json:"model,omitempty"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Items       []json.RawMessage  `json:"items"`
}

// Generator produit les éléments d'un type de contenu à partir des supports
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GeneratedContent, error)
}

var itemShapes = map[models.ContentType]string{
	models.ContentCuecards:       `{"front": string, "back": string}`,
	models.ContentMultipleChoice: `{"question": string, "options": [string], "answerIndex": number, "explanation": string}`,
	models.ContentOpenQuestions:  `{"question": string, "modelAnswer": string, "keyPoints": [string]}`,
	models.ContentSummaries:      `{"title": string, "summary": string}`,
	models.ContentGoldenNotes:    `{"title": string, "note": string}`,
	models.ContentConceptMaps:    `{"concept": string, "relations": [{"target": string, "label": string}]}`,
}

var itemLabels = map[models.ContentType]string{
	models.ContentCuecards:       "flashcards (question on the front, answer on the back)",
	models.ContentMultipleChoice: "multiple choice questions with exactly one correct option",
	models.ContentOpenQuestions:  "open questions with a model answer",
	models.ContentSummaries:      "section summaries",
	models.ContentGoldenNotes:    "golden notes capturing the key takeaways",
	models.ContentConceptMaps:    "concept map nodes with their relations",
}

// SystemInstruction cadre le modèle pour toutes les générations
const SystemInstruction = "You are a study assistant. You only use the provided course materials. " +
	"You always answer with a single JSON object of the form {\"items\": [...]} and nothing else."

// BuildPrompt construit la consigne pour un type de contenu
func BuildPrompt(req GenerateRequest) string {
	var b strings.Builder

	fc := req.Feature
	fmt.Fprintf(&b, "Generate %d %s from the course materials below.\n", fc.Count, itemLabels[req.ContentType])
	if fc.Difficulty != "" {
		fmt.Fprintf(&b, "Difficulty: %s.\n", fc.Difficulty)
	}
	if fc.Length != "" {
		fmt.Fprintf(&b, "Length of each item: %s.\n", fc.Length)
	}
	if fc.Focus != "" {
		fmt.Fprintf(&b, "Focus on: %s.\n", fc.Focus)
	}
	fmt.Fprintf(&b, "Each item must have the shape %s.\n", itemShapes[req.ContentType])

	for _, m := range req.Materials {
		fmt.Fprintf(&b, "\n--- %s ---\n", m.Name)
		b.Write(m.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseItems extrait les éléments d'une réponse du modèle. Les blocs ```json
// sont tolérés, ainsi qu'un tableau JSON nu.
func ParseItems(text string) ([]json.RawMessage, error) {
	raw := bytes.TrimSpace([]byte(stripFences(text)))
	if len(raw) == 0 {
		return nil, ErrEmptyResponse
	}

	if raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("invalid items array: %w", err)
		}
		return items, nil
	}

	var envelope struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("invalid model response: %w", err)
	}
	if envelope.Items == nil {
		return nil, errors.New("model response has no items field")
	}
	return envelope.Items, nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}
