// Package client est le client Go de l'API de génération
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"studyloop-generation/pkg/models"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// APIError est retourné pour toute réponse hors 2xx. Message porte le corps de la réponse.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation api: HTTP %d", e.StatusCode)
	}
	return e.Message
}

type GenerationClient struct {
	baseURL string
	http    *http.Client
}

type Option func(*GenerationClient)

// WithHTTPClient remplace le client HTTP instrumenté par défaut
func WithHTTPClient(c *http.Client) Option {
	return func(gc *GenerationClient) { gc.http = c }
}

func New(baseURL string, opts ...Option) *GenerationClient {
	gc := &GenerationClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(gc)
	}
	return gc
}

// TriggerGeneration déclenche la génération des types demandés pour une semaine
func (gc *GenerationClient) TriggerGeneration(ctx context.Context, req models.TriggerRequest) (*models.TriggerResponse, error) {
	var resp models.TriggerResponse
	if err := gc.do(ctx, http.MethodPost, "/api/generation/trigger", req, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetGenerationStatus retourne l'état de génération d'une semaine, lastUpdated décodé
func (gc *GenerationClient) GetGenerationStatus(ctx context.Context, courseID, weekID string) (*models.GenerationStatus, error) {
	q := url.Values{}
	q.Set("courseId", courseID)
	q.Set("weekId", weekID)

	var raw models.StatusResponse
	if err := gc.do(ctx, http.MethodGet, "/api/generation/status?"+q.Encode(), nil, "", &raw); err != nil {
		return nil, err
	}

	lastUpdated, err := time.Parse(time.RFC3339, raw.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("invalid lastUpdated %q: %w", raw.LastUpdated, err)
	}

	return &models.GenerationStatus{
		CourseID:            raw.CourseID,
		WeekID:              raw.WeekID,
		ContentAvailability: raw.ContentAvailability,
		OverallStatus:       raw.OverallStatus,
		IsGenerating:        raw.IsGenerating,
		LastUpdated:         lastUpdated,
	}, nil
}

// GetRunStatus interroge une exécution avec son jeton d'accès public
func (gc *GenerationClient) GetRunStatus(ctx context.Context, runID, token string) (*models.RunStatusResult, error) {
	var resp models.RunStatusResult
	if err := gc.do(ctx, http.MethodGet, "/api/generation/runs/"+url.PathEscape(runID), nil, token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelRun annule une exécution avec son jeton d'accès public
func (gc *GenerationClient) CancelRun(ctx context.Context, runID, token string) (*models.CancelRunResult, error) {
	var resp models.CancelRunResult
	if err := gc.do(ctx, http.MethodPost, "/api/generation/runs/"+url.PathEscape(runID)+"/cancel", nil, token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (gc *GenerationClient) do(ctx context.Context, method, path string, body interface{}, token string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, gc.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := gc.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(text))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
