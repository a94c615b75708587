package sinks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tamaghna-docket/tickertape/internal/progress"
)

func TestLogSinkEmitsStructuredFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewLogSink(zap.New(core))

	sink.Publish("job-1", progress.Event{
		Type:     progress.TypeProgress,
		Stage:    "discovery",
		Task:     "enterprise_list",
		Status:   string(progress.TaskCompleted),
		Progress: 0.5,
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "job-1", fields["job_id"])
	assert.Equal(t, "discovery", fields["stage"])
	assert.Equal(t, "enterprise_list", fields["task"])
}

func TestLogSinkToleratesNilLogger(t *testing.T) {
	t.Parallel()

	sink := NewLogSink(nil)
	sink.Publish("job-1", progress.Event{Type: progress.TypeStatus})
}
