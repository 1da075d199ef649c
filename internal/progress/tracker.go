// Package progress keeps the in-memory status snapshots of import tasks.
package progress

import (
	"sync"
	"time"

	"product-importer-service/internal/models"
)

// Tracker maps task ids to their latest progress snapshot. The importer is
// the only writer; any number of polling readers may call Get concurrently.
// State is process-local: it does not survive restarts and is not shared
// across instances.
type Tracker struct {
	mu    sync.Mutex
	tasks map[string]models.ProgressSnapshot
}

func NewTracker() *Tracker {
	return &Tracker{tasks: make(map[string]models.ProgressSnapshot)}
}

// Set replaces the whole snapshot for taskID, creating it on first write.
func (t *Tracker) Set(taskID string, progress float64, status models.ImportStatus, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tasks[taskID] = models.ProgressSnapshot{
		TaskID:    taskID,
		Status:    status,
		Progress:  progress,
		Message:   message,
		UpdatedAt: time.Now(),
	}
}

// Get returns the snapshot for taskID. An unknown task id is not an error:
// it reads as a pending task with zero progress.
func (t *Tracker) Get(taskID string) models.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	if snap, ok := t.tasks[taskID]; ok {
		return snap
	}
	return models.ProgressSnapshot{
		TaskID:   taskID,
		Status:   models.ImportStatusPending,
		Progress: 0,
		Message:  "",
	}
}
