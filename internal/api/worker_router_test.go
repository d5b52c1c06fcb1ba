package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"studyloop-generation/internal/logger"
	"studyloop-generation/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticStats models.WorkerStats

func (s staticStats) GetStats() models.WorkerStats { return models.WorkerStats(s) }

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestWorkerHealth(t *testing.T) {
	running := staticStats{TaskQueue: "studyloop-generation", Running: true, Tasks: models.TaskCounters{Total: 3, Success: 3}}
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name   string
		stats  staticStats
		db     Pinger
		status int
		health string
	}{
		{"running", running, ok, http.StatusOK, "healthy"},
		{"stopped", staticStats{TaskQueue: "studyloop-generation"}, ok, http.StatusServiceUnavailable, "unhealthy"},
		{"database down", running, down, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SetupWorkerRouter(tt.stats, tt.db, logger.NewNop(), "test")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.status, w.Code)
			var resp models.WorkerHealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.health, resp.Status)
			assert.Equal(t, "studyloop-generation", resp.Worker.TaskQueue)
		})
	}
}

func TestWorkerMetrics(t *testing.T) {
	r := SetupWorkerRouter(staticStats{Running: true}, nil, logger.NewNop(), "test")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
