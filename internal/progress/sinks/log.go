// Package sinks contains progress.Sink implementations that observe the
// event stream without owning observers of their own.
package sinks

import (
	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/progress"
)

// LogSink emits structured logs for debugging progress streams. It is
// useful during development or audits where no observer is attached.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Publish logs the event using structured fields.
func (s *LogSink) Publish(jobID string, evt progress.Event) {
	s.logger.Debug("progress event",
		zap.String("job_id", jobID),
		zap.String("type", string(evt.Type)),
		zap.String("stage", evt.Stage),
		zap.String("task", evt.Task),
		zap.String("status", evt.Status),
		zap.Float64("progress", evt.Progress),
		zap.Int("completed", evt.Completed),
		zap.Int("total", evt.Total),
		zap.Int("failed", evt.Failed),
		zap.String("error", evt.Error),
	)
}
