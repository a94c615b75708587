package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a job id is unknown to the store.
var ErrNotFound = errors.New("jobs: not found")

// Store keeps every job for the process lifetime in memory. All methods
// are safe for concurrent use; reads return copies so callers never see a
// record mid-update.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore returns an empty in-memory job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a new pending job and returns its id.
func (s *Store) Create(typ Type, params any) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.jobs[id] = &Job{
		ID:        id,
		Type:      typ,
		Status:    StatusPending,
		Params:    params,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Unlock()
	return id
}

// Get returns a snapshot of the job, or ErrNotFound.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *j, nil
}

// SetStatus transitions the job. Entering a terminal state stamps
// CompletedAt. Unknown ids are ignored.
func (s *Store) SetStatus(id string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return
	}
	j.Status = status
	if status.Terminal() && j.CompletedAt == nil {
		now := time.Now().UTC()
		j.CompletedAt = &now
	}
}

// RecordStep overwrites the live progress snapshot. Progress is a fraction
// in [0,1]; step is a short human-readable description of what is running.
func (s *Store) RecordStep(id string, progress float64, step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		j.Progress = progress
		j.CurrentStep = step
	}
}

// SetResult stores the terminal payload and marks the job completed.
func (s *Store) SetResult(id string, result Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return
	}
	j.Result = result
	j.Status = StatusCompleted
	if j.CompletedAt == nil {
		now := time.Now().UTC()
		j.CompletedAt = &now
	}
}

// SetError records the failure reason verbatim and marks the job failed.
func (s *Store) SetError(id string, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return
	}
	j.Error = msg
	j.Status = StatusFailed
	if j.CompletedAt == nil {
		now := time.Now().UTC()
		j.CompletedAt = &now
	}
}
