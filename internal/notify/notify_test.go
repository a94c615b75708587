package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecordsPublishes(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	id, err := m.Publish(context.Background(), "intel-events", Notification{
		JobID:   "job-1",
		JobType: "monitor",
		Status:  "completed",
		Client:  "Datadog",
		Signals: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "memory-1", id)

	msgs := m.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "intel-events", msgs[0].Topic)
	note, ok := msgs[0].Payload.(Notification)
	require.True(t, ok)
	assert.Equal(t, "Datadog", note.Client)
}

func TestMemoryMessagesReturnsCopy(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	_, err := m.Publish(context.Background(), "a", Notification{JobID: "1"})
	require.NoError(t, err)

	first := m.Messages()
	first[0].Topic = "mutated"
	assert.Equal(t, "a", m.Messages()[0].Topic)
}

func TestPubSubWithoutPublisherFails(t *testing.T) {
	t.Parallel()

	p := NewPubSub(nil)
	_, err := p.Publish(context.Background(), "topic", Notification{})
	assert.Error(t, err)
}
