package worker

import (
	"sync"
	"time"

	"studyloop-generation/pkg/models"
)

type typeCounters struct {
	total, success, failed, skipped int64
	items                           int64
	totalDuration                   time.Duration
	lastError                       string
}

// Stats agrège l'activité du worker depuis son démarrage. Les méthodes
// acceptent un receveur nil.
type Stats struct {
	mu        sync.Mutex
	taskQueue string
	startedAt *time.Time
	running   bool
	perType   map[models.ContentType]*typeCounters
}

func NewStats(taskQueue string) *Stats {
	return &Stats{
		taskQueue: taskQueue,
		perType:   make(map[models.ContentType]*typeCounters),
	}
}

func (s *Stats) counters(ct models.ContentType) *typeCounters {
	c, ok := s.perType[ct]
	if !ok {
		c = &typeCounters{}
		s.perType[ct] = c
	}
	return c
}

func (s *Stats) setRunning(running bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = running
	if running {
		now := time.Now()
		s.startedAt = &now
	}
}

func (s *Stats) recordSuccess(ct models.ContentType, items int, d time.Duration) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.counters(ct)
	c.total++
	c.success++
	c.items += int64(items)
	c.totalDuration += d
}

func (s *Stats) recordSkipped(ct models.ContentType) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.counters(ct)
	c.total++
	c.skipped++
}

func (s *Stats) recordFailure(ct models.ContentType, message string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.counters(ct)
	c.total++
	c.failed++
	c.lastError = message
}

// Snapshot retourne une copie des compteurs
func (s *Stats) Snapshot() models.WorkerStats {
	if s == nil {
		return models.WorkerStats{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := models.WorkerStats{
		TaskQueue: s.taskQueue,
		Running:   s.running,
		StartedAt: s.startedAt,
		PerType:   make(map[models.ContentType]models.ContentTypeStats, len(s.perType)),
	}

	for ct, c := range s.perType {
		var avg time.Duration
		if c.success > 0 {
			avg = c.totalDuration / time.Duration(c.success)
		}
		out.PerType[ct] = models.ContentTypeStats{
			TaskCounters: models.TaskCounters{
				Total:   c.total,
				Success: c.success,
				Failed:  c.failed,
				Skipped: c.skipped,
			},
			ItemsGenerated:  c.items,
			AverageDuration: avg.Round(time.Millisecond).String(),
			LastError:       c.lastError,
		}
		out.Tasks.Total += c.total
		out.Tasks.Success += c.success
		out.Tasks.Failed += c.failed
		out.Tasks.Skipped += c.skipped
	}

	if done := out.Tasks.Success + out.Tasks.Failed; done > 0 {
		out.SuccessRate = float64(out.Tasks.Success) / float64(done) * 100
	}
	return out
}
