package worker

import (
	"testing"

	"studyloop-generation/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestPoolConfigFrom(t *testing.T) {
	tests := []struct {
		name     string
		attempts int
		expected int
	}{
		{"configured", 5, 5},
		{"zero means one attempt", 0, 1},
		{"negative means one attempt", -2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Temporal: config.TemporalConfig{TaskQueue: "studyloop-generation"},
				Worker:   config.WorkerConfig{MaxConcurrentActivities: 4, MaxAttempts: tt.attempts},
			}

			pc := PoolConfigFrom(cfg)
			assert.Equal(t, tt.expected, pc.MaxAttempts)
			assert.Equal(t, "studyloop-generation", pc.TaskQueue)
			assert.Equal(t, 4, pc.MaxConcurrentActivities)
		})
	}
}
