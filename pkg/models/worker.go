package models

import "time"

// WorkerStats représente l'activité du worker de génération
// @Description Statistiques du worker de génération
type WorkerStats struct {
	TaskQueue   string                            `json:"task_queue" example:"studyloop-generation"`
	Running     bool                              `json:"running" example:"true"`
	StartedAt   *time.Time                        `json:"started_at,omitempty"`
	Tasks       TaskCounters                      `json:"tasks"`
	SuccessRate float64                           `json:"success_rate_percent" example:"95.2"`
	PerType     map[ContentType]ContentTypeStats  `json:"per_type"`
} // @name WorkerStats

// TaskCounters compte les tâches de génération par issue
// @Description Compteurs de tâches
type TaskCounters struct {
	Total   int64 `json:"total" example:"150"`
	Success int64 `json:"success" example:"140"`
	Failed  int64 `json:"failed" example:"5"`
	Skipped int64 `json:"skipped" example:"5"`
} // @name TaskCounters

// ContentTypeStats contient les compteurs d'un type de contenu
// @Description Statistiques d'un type de contenu
type ContentTypeStats struct {
	TaskCounters
	ItemsGenerated  int64  `json:"items_generated" example:"1200"`
	AverageDuration string `json:"average_duration" example:"12.5s"`
	LastError       string `json:"last_error,omitempty"`
} // @name ContentTypeStats

// WorkerHealthResponse est la réponse du health check du worker
// @Description Santé du worker de génération
type WorkerHealthResponse struct {
	Status    string      `json:"status" example:"healthy" enums:"healthy,unhealthy"`
	Service   string      `json:"service" example:"studyloop-generation-worker"`
	Timestamp time.Time   `json:"timestamp"`
	Worker    WorkerStats `json:"worker"`
} // @name WorkerHealthResponse
