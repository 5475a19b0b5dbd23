package certgen

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryTracker stores run history in memory (test/dev only).
type MemoryTracker struct {
	mu      sync.RWMutex
	records map[string]RunRecord
	counter uint64
	Now     func() time.Time
}

// NewMemoryTracker creates an in-memory tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{records: make(map[string]RunRecord), Now: time.Now}
}

// Start creates a new run record.
func (t *MemoryTracker) Start(ctx context.Context, record RunRecord) (string, error) {
	_ = ctx
	t.mu.Lock()
	defer t.mu.Unlock()

	if record.ID == "" {
		t.counter++
		record.ID = fmt.Sprintf("run-%d", t.counter)
	}
	if record.State == "" {
		record.State = RunRunning
	}
	if record.StartedAt.IsZero() {
		record.StartedAt = t.now()
	}
	t.records[record.ID] = record
	return record.ID, nil
}

// Artifact appends a produced artifact to a run.
func (t *MemoryTracker) Artifact(ctx context.Context, runID string, artifact ArtifactRecord) error {
	_ = ctx
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[runID]
	if !ok {
		return NewError(KindNotFound, fmt.Sprintf("run %q not found", runID), nil)
	}
	artifact.RunID = runID
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = t.now()
	}
	record.Artifacts = append(record.Artifacts, artifact)
	record.Count = len(record.Artifacts)
	t.records[runID] = record
	return nil
}

// Complete marks a run as completed.
func (t *MemoryTracker) Complete(ctx context.Context, runID string, count int) error {
	_ = ctx
	return t.finish(runID, RunCompleted, count, "")
}

// Fail marks a run as failed.
func (t *MemoryTracker) Fail(ctx context.Context, runID string, err error) error {
	_ = ctx
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return t.finish(runID, RunFailed, -1, msg)
}

// Status returns a run by ID.
func (t *MemoryTracker) Status(ctx context.Context, runID string) (RunRecord, error) {
	_ = ctx
	t.mu.RLock()
	defer t.mu.RUnlock()
	record, ok := t.records[runID]
	if !ok {
		return RunRecord{}, NewError(KindNotFound, fmt.Sprintf("run %q not found", runID), nil)
	}
	return record, nil
}

// List returns the most recent runs first.
func (t *MemoryTracker) List(ctx context.Context, limit int) ([]RunRecord, error) {
	_ = ctx
	t.mu.RLock()
	records := make([]RunRecord, 0, len(t.records))
	for _, record := range t.records {
		records = append(records, record)
	}
	t.mu.RUnlock()

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].StartedAt.Equal(records[j].StartedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (t *MemoryTracker) finish(runID string, state RunState, count int, msg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, ok := t.records[runID]
	if !ok {
		return NewError(KindNotFound, fmt.Sprintf("run %q not found", runID), nil)
	}
	record.State = state
	if count >= 0 {
		record.Count = count
	}
	record.Error = msg
	record.CompletedAt = t.now()
	t.records[runID] = record
	return nil
}

func (t *MemoryTracker) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}
