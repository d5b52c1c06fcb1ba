// Package jobstest fournit un job runner en mémoire pour les tests
package jobstest

import (
	"context"
	"sync"
	"time"

	"studyloop-generation/internal/jobs"
	"studyloop-generation/pkg/models"
)

// FakeRunClient garde les exécutions en mémoire
type FakeRunClient struct {
	mu        sync.Mutex
	runs      map[string]*models.RunHandle
	inputs    map[string]models.GenerationRunInput
	cancelled []string

	// TriggerErr, RetrieveErr et CancelErr forcent une erreur sur l'appel correspondant
	TriggerErr  error
	RetrieveErr error
	CancelErr   error
}

func NewFakeRunClient() *FakeRunClient {
	return &FakeRunClient{
		runs:   map[string]*models.RunHandle{},
		inputs: map[string]models.GenerationRunInput{},
	}
}

func (f *FakeRunClient) Trigger(_ context.Context, input models.GenerationRunInput) (*models.RunHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.TriggerErr != nil {
		return nil, f.TriggerErr
	}
	if input.RunID == "" {
		input.RunID = jobs.NewRunID()
	}
	now := time.Now()
	handle := &models.RunHandle{ID: input.RunID, Status: models.RunQueued, CreatedAt: now, UpdatedAt: now}
	f.runs[input.RunID] = handle
	f.inputs[input.RunID] = input

	out := *handle
	return &out, nil
}

func (f *FakeRunClient) Retrieve(_ context.Context, runID string) (*models.RunHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.RetrieveErr != nil {
		return nil, f.RetrieveErr
	}
	handle, ok := f.runs[runID]
	if !ok {
		return nil, jobs.ErrRunNotFound
	}
	out := *handle
	return &out, nil
}

func (f *FakeRunClient) Cancel(_ context.Context, runID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancelled = append(f.cancelled, runID)
	if f.CancelErr != nil {
		return f.CancelErr
	}
	handle, ok := f.runs[runID]
	if !ok {
		return jobs.ErrRunNotFound
	}
	now := time.Now()
	handle.Status = models.RunCanceled
	handle.UpdatedAt = now
	handle.FinishedAt = &now
	return nil
}

// Put enregistre ou remplace une exécution
func (f *FakeRunClient) Put(runID string, status models.RunStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	handle := &models.RunHandle{ID: runID, Status: status, CreatedAt: now, UpdatedAt: now}
	if status.IsTerminal() {
		handle.FinishedAt = &now
	}
	f.runs[runID] = handle
}

// SetStatus change le statut d'une exécution existante
func (f *FakeRunClient) SetStatus(runID string, status models.RunStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if handle, ok := f.runs[runID]; ok {
		handle.Status = status
		handle.UpdatedAt = time.Now()
	}
}

// Input retourne l'entrée d'une exécution déclenchée
func (f *FakeRunClient) Input(runID string) (models.GenerationRunInput, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.inputs[runID]
	return in, ok
}

// Cancelled retourne les runId passés à Cancel, dans l'ordre
func (f *FakeRunClient) Cancelled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancelled...)
}

// Triggered retourne le nombre d'exécutions déclenchées
func (f *FakeRunClient) Triggered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}
