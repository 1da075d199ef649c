package progress

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-importer-service/internal/models"
)

func TestGetUnknownTaskReadsAsPending(t *testing.T) {
	tracker := NewTracker()

	snap := tracker.Get("no-such-task")

	assert.Equal(t, "no-such-task", snap.TaskID)
	assert.Equal(t, models.ImportStatusPending, snap.Status)
	assert.Equal(t, float64(0), snap.Progress)
	assert.Empty(t, snap.Message)
}

func TestSetReplacesWholeSnapshot(t *testing.T) {
	tracker := NewTracker()

	tracker.Set("task-1", 40, models.ImportStatusImporting, "Processed 1000 rows")
	tracker.Set("task-1", 100, models.ImportStatusCompleted, "Import complete: 2500 rows")

	snap := tracker.Get("task-1")
	require.Equal(t, models.ImportStatusCompleted, snap.Status)
	assert.Equal(t, float64(100), snap.Progress)
	assert.Equal(t, "Import complete: 2500 rows", snap.Message)
	assert.False(t, snap.UpdatedAt.IsZero())
}

func TestTasksAreIndependent(t *testing.T) {
	tracker := NewTracker()

	tracker.Set("task-a", 50, models.ImportStatusImporting, "Processed 500 rows")
	tracker.Set("task-b", 0, models.ImportStatusFailed, "failed to read CSV header")

	assert.Equal(t, models.ImportStatusImporting, tracker.Get("task-a").Status)
	assert.Equal(t, models.ImportStatusFailed, tracker.Get("task-b").Status)
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			taskID := fmt.Sprintf("task-%d", n%2)
			for j := 0; j < 100; j++ {
				tracker.Set(taskID, float64(j), models.ImportStatusImporting, "working")
				_ = tracker.Get(taskID)
			}
		}(i)
	}
	wg.Wait()

	snap := tracker.Get("task-0")
	assert.Equal(t, models.ImportStatusImporting, snap.Status)
}
