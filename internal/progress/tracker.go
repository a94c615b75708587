package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Tracker tracks a fixed set of concurrent tasks within one stage of a
// job. Counter mutation happens under a mutex so parallel completions
// never race; task failures are reported and re-returned, never
// swallowed.
type Tracker struct {
	sink  Sink
	jobID string
	stage string
	total int
	store Recorder

	mu        sync.Mutex
	completed int
	failed    int
	results   map[string]any
	errs      map[string]string
}

// Unit is one named unit of work for Gather.
type Unit struct {
	Name string
	Run  func(ctx context.Context) (any, error)
}

// StageSummary reports the terminal state of one stage.
type StageSummary struct {
	Stage       string            `json:"stage"`
	Total       int               `json:"total_tasks"`
	Completed   int               `json:"completed_tasks"`
	Failed      int               `json:"failed_tasks"`
	SuccessRate float64           `json:"success_rate"`
	TaskErrors  map[string]string `json:"task_errors"`
}

// NewTracker builds a Tracker for a stage with a fixed task count. store
// may be nil when no job-state mirroring is wanted.
func NewTracker(sink Sink, jobID, stage string, total int, store Recorder) *Tracker {
	return &Tracker{
		sink:    sink,
		jobID:   jobID,
		stage:   stage,
		total:   total,
		store:   store,
		results: make(map[string]any),
		errs:    make(map[string]string),
	}
}

// Track registers the named task as started, runs fn, and records the
// outcome. The task's started event always precedes its terminal event,
// and the original error is returned to the caller unchanged.
func (t *Tracker) Track(ctx context.Context, name string, fn func(ctx context.Context) (any, error)) (any, error) {
	t.emit(name, TaskStarted, "")

	result, err := fn(ctx)
	if err != nil {
		t.mu.Lock()
		t.failed++
		t.errs[name] = err.Error()
		t.mu.Unlock()
		t.emit(name, TaskFailed, err.Error())
		return nil, err
	}

	t.mu.Lock()
	t.completed++
	t.results[name] = result
	t.mu.Unlock()
	t.emit(name, TaskCompleted, "")
	return result, nil
}

// Gather tracks every unit concurrently and waits for all of them.
// Results are returned in argument order regardless of completion order.
// The first error is returned after every sibling has finished; siblings
// are never cancelled on failure.
func (t *Tracker) Gather(ctx context.Context, units ...Unit) ([]any, error) {
	results := make([]any, len(units))
	var g errgroup.Group
	for i, u := range units {
		g.Go(func() error {
			res, err := t.Track(ctx, u.Name, u.Run)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Progress returns the stage's fractional progress: completed/total,
// 0 for an empty stage.
func (t *Tracker) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progressLocked()
}

func (t *Tracker) progressLocked() float64 {
	if t.total <= 0 {
		return 0
	}
	return float64(t.completed) / float64(t.total)
}

// Counts returns the completed and failed counters.
func (t *Tracker) Counts() (completed, failed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed, t.failed
}

// Total returns the fixed task count established at construction.
func (t *Tracker) Total() int {
	return t.total
}

// Result returns the recorded result of a completed task.
func (t *Tracker) Result(name string) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	res, ok := t.results[name]
	return res, ok
}

// Summary snapshots the stage counters and collected task errors.
func (t *Tracker) Summary() StageSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	rate := 0.0
	if t.total > 0 {
		rate = float64(t.completed) / float64(t.total)
	}
	errs := make(map[string]string, len(t.errs))
	for k, v := range t.errs {
		errs[k] = v
	}
	return StageSummary{
		Stage:       t.stage,
		Total:       t.total,
		Completed:   t.completed,
		Failed:      t.failed,
		SuccessRate: rate,
		TaskErrors:  errs,
	}
}

func (t *Tracker) emit(task string, status TaskStatus, errText string) {
	t.mu.Lock()
	evt := Event{
		Type:      TypeProgress,
		JobID:     t.jobID,
		Stage:     t.stage,
		Task:      task,
		Status:    string(status),
		Progress:  t.progressLocked(),
		Completed: t.completed,
		Total:     t.total,
		Failed:    t.failed,
		Error:     errText,
		Timestamp: time.Now().UTC(),
	}
	t.mu.Unlock()

	if t.sink != nil {
		t.sink.Publish(t.jobID, evt)
	}
	if t.store != nil {
		t.store.RecordStep(t.jobID, evt.Progress, fmt.Sprintf("%s: %s - %s", t.stage, task, status))
	}
}
