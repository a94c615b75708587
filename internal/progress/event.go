// Package progress tracks concurrent units of work within named job
// stages and emits change events to registered sinks.
package progress

import "time"

// EventType denotes the kind of progress event.
type EventType string

// Supported event types.
const (
	TypeStatus        EventType = "status"
	TypeProgress      EventType = "progress"
	TypeStageStart    EventType = "stage_start"
	TypeStageComplete EventType = "stage_complete"
	TypeError         EventType = "error"
	TypePing          EventType = "ping"
)

// TaskStatus is the lifecycle state of one tracked task. A task moves
// from Started to exactly one of Completed or Failed.
type TaskStatus string

// Task lifecycle states.
const (
	TaskStarted   TaskStatus = "started"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Event is the immutable envelope delivered to observers. Field names
// match the JSON wire format pushed over the streaming channel.
type Event struct {
	Type      EventType         `json:"type"`
	JobID     string            `json:"job_id,omitempty"`
	Stage     string            `json:"stage,omitempty"`
	Task      string            `json:"task,omitempty"`
	Status    string            `json:"status,omitempty"`
	Message   string            `json:"message,omitempty"`
	Progress  float64           `json:"progress"`
	Completed int               `json:"completed,omitempty"`
	Total     int               `json:"total,omitempty"`
	Failed    int               `json:"failed,omitempty"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
