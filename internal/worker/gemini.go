package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studyloop-generation/internal/config"

	"google.golang.org/genai"
)

// GeminiGenerator génère les contenus via l'API Gemini
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, cfg config.GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiGenerator{client: client, model: cfg.Model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (*GeneratedContent, error) {
	temperature := float32(0.4)
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: BuildPrompt(req)}},
	}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SystemInstruction}}},
		ResponseMIMEType:  "application/json",
		Temperature:       &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate %s: %w", req.ContentType, err)
	}

	items, err := ParseItems(responseText(resp))
	if err != nil {
		return nil, err
	}

	return &GeneratedContent{
		ContentType: req.ContentType,
		CourseID:    req.CourseID,
		WeekID:      req.WeekID,
		Model:       g.model,
		GeneratedAt: time.Now().UTC(),
		Items:       items,
	}, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
