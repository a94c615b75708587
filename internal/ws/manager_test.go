package ws

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamaghna-docket/tickertape/internal/progress"
)

type fakeConn struct {
	events []progress.Event
	fail   bool
	closed bool
}

func (f *fakeConn) WriteJSON(v any) error {
	if f.fail {
		return errors.New("broken pipe")
	}
	f.events = append(f.events, v.(progress.Event))
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestManagerPublishFansOut(t *testing.T) {
	m := NewManager(nil)
	a, b := &fakeConn{}, &fakeConn{}
	m.Attach("job-1", a)
	m.Attach("job-1", b)

	m.Publish("job-1", progress.Event{Type: progress.TypeProgress, JobID: "job-1"})

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, progress.TypeProgress, a.events[0].Type)
}

func TestManagerPublishNoObservers(t *testing.T) {
	m := NewManager(nil)
	// must not panic or block
	m.Publish("nobody", progress.Event{Type: progress.TypeStatus})
}

func TestManagerDetachesDeadObservers(t *testing.T) {
	m := NewManager(nil)
	dead := &fakeConn{fail: true}
	live := &fakeConn{}
	m.Attach("job-1", dead)
	m.Attach("job-1", live)

	m.Publish("job-1", progress.Event{Type: progress.TypeStatus})

	assert.True(t, dead.closed)
	assert.Equal(t, 1, m.Observers("job-1"))

	m.Publish("job-1", progress.Event{Type: progress.TypeStatus})
	assert.Len(t, live.events, 2)
}

func TestManagerDetachRemovesEmptyEntry(t *testing.T) {
	m := NewManager(nil)
	c := &fakeConn{}
	m.Attach("job-1", c)
	m.Detach("job-1", c)

	assert.Equal(t, 0, m.Observers("job-1"))

	// detach of an unknown conn is a no-op
	m.Detach("job-1", &fakeConn{})
}

func TestManagerIsolatesJobs(t *testing.T) {
	m := NewManager(nil)
	a, b := &fakeConn{}, &fakeConn{}
	m.Attach("job-1", a)
	m.Attach("job-2", b)

	m.Publish("job-1", progress.Event{Type: progress.TypeStatus})

	assert.Len(t, a.events, 1)
	assert.Empty(t, b.events)
}
