// internal/worker/pool.go
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"studyloop-generation/internal/config"
	"studyloop-generation/internal/jobs"
	"studyloop-generation/internal/logger"
	"studyloop-generation/pkg/models"

	temporalsdkclient "go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// WorkerPool héberge le workflow et les activités de génération sur une task queue
type WorkerPool struct {
	worker  sdkworker.Worker
	config  *PoolConfig
	stats   *Stats
	log     *logger.Logger
	running bool
	mu      sync.RWMutex
}

// PoolConfig contient la configuration du worker Temporal
type PoolConfig struct {
	TaskQueue               string        // Task queue écoutée
	MaxConcurrentActivities int           // Générations simultanées
	ActivityTimeout         time.Duration // Timeout d'une tentative de génération
	MaxAttempts             int           // Tentatives par type de contenu
}

// DefaultPoolConfig retourne une configuration par défaut
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		TaskQueue:               "studyloop-generation",
		MaxConcurrentActivities: 6,
		ActivityTimeout:         10 * time.Minute,
		MaxAttempts:             3,
	}
}

// PoolConfigFrom construit la configuration du pool depuis la configuration du service
// MaxAttempts vaut au moins 1: Temporal lit 0 comme des tentatives illimitées.
func PoolConfigFrom(cfg *config.Config) *PoolConfig {
	attempts := cfg.Worker.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &PoolConfig{
		TaskQueue:               cfg.Temporal.TaskQueue,
		MaxConcurrentActivities: cfg.Worker.MaxConcurrentActivities,
		ActivityTimeout:         cfg.Worker.ActivityTimeout,
		MaxAttempts:             attempts,
	}
}

// Registry est la partie commune au worker Temporal et à l'environnement de test
type Registry interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivity(a interface{})
}

// Register enregistre le workflow sous le nom attendu par le job runner
func Register(r Registry, wf *Workflow, acts *Activities) {
	r.RegisterWorkflowWithOptions(wf.GenerateWeekContent, workflow.RegisterOptions{Name: jobs.WorkflowName})
	r.RegisterActivity(acts)
}

// NewWorkerPool crée le worker Temporal et y enregistre la génération
func NewWorkerPool(c temporalsdkclient.Client, acts *Activities, cfg *PoolConfig, log *logger.Logger) *WorkerPool {
	if cfg == nil {
		cfg = DefaultPoolConfig()
	}

	stats := NewStats(cfg.TaskQueue)
	acts.Stats = stats

	w := sdkworker.New(c, cfg.TaskQueue, sdkworker.Options{
		MaxConcurrentActivityExecutionSize: cfg.MaxConcurrentActivities,
	})
	Register(w, &Workflow{
		ActivityTimeout: cfg.ActivityTimeout,
		MaxAttempts:     int32(cfg.MaxAttempts),
	}, acts)

	return &WorkerPool{
		worker: w,
		config: cfg,
		stats:  stats,
		log:    log.With("component", "worker_pool"),
	}
}

// Start démarre l'écoute de la task queue. Le worker s'arrête avec le contexte.
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.New("worker pool is already running")
	}

	p.log.Info("Starting generation worker",
		"task_queue", p.config.TaskQueue,
		"max_concurrent_activities", p.config.MaxConcurrentActivities)

	if err := p.worker.Start(); err != nil {
		return err
	}
	p.running = true
	p.stats.setRunning(true)

	go func() {
		<-ctx.Done()
		_ = p.Stop()
	}()

	p.log.Info("Generation worker started")
	return nil
}

// Stop arrête le worker en laissant les activités en cours se terminer
func (p *WorkerPool) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}

	p.log.Info("Stopping generation worker...")
	p.worker.Stop()
	p.running = false
	p.stats.setRunning(false)
	p.log.Info("Generation worker stopped")
	return nil
}

// GetStats retourne les statistiques courantes du worker
func (p *WorkerPool) GetStats() models.WorkerStats {
	return p.stats.Snapshot()
}
