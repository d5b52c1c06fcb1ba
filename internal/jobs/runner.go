package jobs

import (
	"context"
	"errors"
	"strings"

	"studyloop-generation/pkg/models"

	"github.com/google/uuid"
)

// ErrRunNotFound est retourné quand le job runner ne connaît pas l'exécution
var ErrRunNotFound = errors.New("run not found")

// RunIDPrefix préfixe les identifiants d'exécution
const RunIDPrefix = "run_"

// RunClient est l'accès au job runner externe
type RunClient interface {
	// Trigger démarre une exécution avec input.RunID comme identifiant
	Trigger(ctx context.Context, input models.GenerationRunInput) (*models.RunHandle, error)
	Retrieve(ctx context.Context, runID string) (*models.RunHandle, error)
	Cancel(ctx context.Context, runID string) error
}

// NewRunID génère un identifiant d'exécution run_<uuid>
func NewRunID() string {
	return RunIDPrefix + uuid.New().String()
}

// IsRunID vérifie la forme run_<uuid>
func IsRunID(s string) bool {
	rest, ok := strings.CutPrefix(s, RunIDPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil && len(rest) == 36
}
