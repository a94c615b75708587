package progress

import (
	"sync"
	"time"
)

// MultiStage owns the sequence of stage trackers for one job and
// aggregates overall progress across them.
type MultiStage struct {
	sink  Sink
	jobID string
	store Recorder

	mu      sync.Mutex
	order   []string
	stages  map[string]*Tracker
	current string
}

// Summary aggregates every stage of a job.
type Summary struct {
	OverallProgress float64                 `json:"overall_progress"`
	CurrentStage    string                  `json:"current_stage"`
	Stages          map[string]StageSummary `json:"stages"`
}

// NewMultiStage builds a MultiStage tracker for one job.
func NewMultiStage(sink Sink, jobID string, store Recorder) *MultiStage {
	return &MultiStage{
		sink:   sink,
		jobID:  jobID,
		store:  store,
		stages: make(map[string]*Tracker),
	}
}

// Stage registers a new tracker for the named stage, makes it current,
// and emits a stage_start event. Reusing a stage name replaces the
// earlier tracker (last writer wins; reuse is not expected).
func (m *MultiStage) Stage(name string, total int) *Tracker {
	t := NewTracker(m.sink, m.jobID, name, total, m.store)

	m.mu.Lock()
	if _, exists := m.stages[name]; !exists {
		m.order = append(m.order, name)
	}
	m.stages[name] = t
	m.current = name
	m.mu.Unlock()

	if m.sink != nil {
		m.sink.Publish(m.jobID, Event{
			Type:      TypeStageStart,
			JobID:     m.jobID,
			Stage:     name,
			Total:     total,
			Timestamp: time.Now().UTC(),
		})
	}
	return t
}

// FinishStage emits the stage_complete event for a registered stage with
// its terminal counters. Unknown names are ignored.
func (m *MultiStage) FinishStage(name string) {
	m.mu.Lock()
	t := m.stages[name]
	m.mu.Unlock()
	if t == nil || m.sink == nil {
		return
	}
	completed, failed := t.Counts()
	m.sink.Publish(m.jobID, Event{
		Type:      TypeStageComplete,
		JobID:     m.jobID,
		Stage:     name,
		Progress:  t.Progress(),
		Completed: completed,
		Total:     t.Total(),
		Failed:    failed,
		Timestamp: time.Now().UTC(),
	})
}

// OverallProgress is the arithmetic mean of per-stage fractions,
// deliberately unweighted by task count: a 2-task stage counts the same
// as a 50-task stage. Stages with zero tasks contribute nothing to the
// sum but still appear in the divisor.
func (m *MultiStage) OverallProgress() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.stages) == 0 {
		return 0
	}
	var sum float64
	for _, t := range m.stages {
		if t.Total() > 0 {
			sum += t.Progress()
		}
	}
	return sum / float64(len(m.stages))
}

// CurrentStage returns the name of the most recently begun stage.
func (m *MultiStage) CurrentStage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Summary aggregates every registered stage.
func (m *MultiStage) Summary() Summary {
	overall := m.OverallProgress()
	m.mu.Lock()
	defer m.mu.Unlock()
	stages := make(map[string]StageSummary, len(m.stages))
	for _, name := range m.order {
		stages[name] = m.stages[name].Summary()
	}
	return Summary{
		OverallProgress: overall,
		CurrentStage:    m.current,
		Stages:          stages,
	}
}
