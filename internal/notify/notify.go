// Package notify delivers terminal job notifications to downstream
// consumers (alerting pipelines, CRM syncs) outside the WebSocket path.
package notify

import "context"

// Publisher delivers one notification payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Notification is the payload published when a job reaches a terminal
// state.
type Notification struct {
	JobID   string `json:"job_id"`
	JobType string `json:"job_type"`
	Status  string `json:"status"`
	Client  string `json:"client,omitempty"`
	Signals int    `json:"signals,omitempty"`
	Error   string `json:"error,omitempty"`
}
