// Package ws fans progress events out to WebSocket observers, keyed by
// job id. The manager implements progress.Sink so workflows stay unaware
// of how events leave the process.
package ws

import (
	"sync"

	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/progress"
)

// Conn is the write side of one observer connection. *Socket satisfies
// it; tests substitute in-memory fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Manager tracks the observers of each job and broadcasts events to them.
// Observers whose writes fail are detached and closed; a failed write is
// never surfaced to the publisher.
type Manager struct {
	log *zap.Logger

	mu    sync.Mutex
	conns map[string][]Conn
}

// NewManager returns an empty manager. A nil logger disables logging.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{log: log, conns: make(map[string][]Conn)}
}

// Attach registers c as an observer of jobID.
func (m *Manager) Attach(jobID string, c Conn) {
	m.mu.Lock()
	m.conns[jobID] = append(m.conns[jobID], c)
	m.mu.Unlock()
	m.log.Debug("observer attached", zap.String("job_id", jobID))
}

// Detach removes c from jobID's observers. The entry for the job is
// dropped once its last observer leaves.
func (m *Manager) Detach(jobID string, c Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.conns[jobID]
	for i, have := range list {
		if have == c {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(m.conns, jobID)
	} else {
		m.conns[jobID] = list
	}
}

// Publish implements progress.Sink. Events go to every current observer
// of the job; jobs with no observers drop the event silently.
func (m *Manager) Publish(jobID string, evt progress.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, ok := m.conns[jobID]
	if !ok {
		return
	}

	var alive []Conn
	for _, c := range list {
		if err := c.WriteJSON(evt); err != nil {
			m.log.Debug("dropping dead observer",
				zap.String("job_id", jobID), zap.Error(err))
			_ = c.Close()
			continue
		}
		alive = append(alive, c)
	}
	if len(alive) == 0 {
		delete(m.conns, jobID)
		return
	}
	m.conns[jobID] = alive
}

// Observers reports how many connections are watching jobID.
func (m *Manager) Observers(jobID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns[jobID])
}
