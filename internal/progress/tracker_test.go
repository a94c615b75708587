package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Publish(_ string, evt Event) {
	c.mu.Lock()
	c.events = append(c.events, evt)
	c.mu.Unlock()
}

func (c *captureSink) byStatus(status TaskStatus) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, evt := range c.events {
		if evt.Status == string(status) {
			out = append(out, evt)
		}
	}
	return out
}

type captureRecorder struct {
	mu    sync.Mutex
	steps []string
	last  float64
}

func (c *captureRecorder) RecordStep(_ string, progress float64, step string) {
	c.mu.Lock()
	c.steps = append(c.steps, step)
	c.last = progress
	c.mu.Unlock()
}

func TestTrackCountsSuccessAndFailure(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	tr := NewTracker(sink, "job-1", "research", 2, nil)

	res, err := tr.Track(context.Background(), "pricing", func(context.Context) (any, error) {
		return "answer", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "answer", res)

	boom := errors.New("rate limited")
	_, err = tr.Track(context.Background(), "competitors", func(context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	completed, failed := tr.Counts()
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, failed)

	stored, ok := tr.Result("pricing")
	require.True(t, ok)
	assert.Equal(t, "answer", stored)
	_, ok = tr.Result("competitors")
	assert.False(t, ok)

	failures := sink.byStatus(TaskFailed)
	require.Len(t, failures, 1)
	assert.Equal(t, "rate limited", failures[0].Error)
}

func TestTrackEmitsStartedBeforeTerminal(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	tr := NewTracker(sink, "job-1", "research", 1, nil)

	_, err := tr.Track(context.Background(), "icp", func(context.Context) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	require.Len(t, sink.events, 2)
	assert.Equal(t, string(TaskStarted), sink.events[0].Status)
	assert.Equal(t, string(TaskCompleted), sink.events[1].Status)
}

func TestGatherPreservesArgumentOrder(t *testing.T) {
	t.Parallel()

	tr := NewTracker(nil, "job-1", "discovery", 3, nil)

	// The slowest unit comes first so completion order differs from
	// argument order.
	results, err := tr.Gather(context.Background(),
		Unit{Name: "slow", Run: func(context.Context) (any, error) {
			time.Sleep(50 * time.Millisecond)
			return "slow", nil
		}},
		Unit{Name: "mid", Run: func(context.Context) (any, error) {
			time.Sleep(10 * time.Millisecond)
			return "mid", nil
		}},
		Unit{Name: "fast", Run: func(context.Context) (any, error) {
			return "fast", nil
		}},
	)
	require.NoError(t, err)
	assert.Equal(t, []any{"slow", "mid", "fast"}, results)
}

func TestGatherRunsSiblingsToCompletionOnFailure(t *testing.T) {
	t.Parallel()

	tr := NewTracker(nil, "job-1", "discovery", 2, nil)
	var siblingRan bool

	results, err := tr.Gather(context.Background(),
		Unit{Name: "broken", Run: func(context.Context) (any, error) {
			return nil, errors.New("no results")
		}},
		Unit{Name: "healthy", Run: func(context.Context) (any, error) {
			time.Sleep(20 * time.Millisecond)
			siblingRan = true
			return "leads", nil
		}},
	)
	require.Error(t, err)
	assert.True(t, siblingRan, "sibling must finish even when another unit fails")
	assert.Equal(t, "leads", results[1])
}

func TestProgressFractions(t *testing.T) {
	t.Parallel()

	tr := NewTracker(nil, "job-1", "ticker_mapping", 4, nil)
	assert.Zero(t, tr.Progress())

	for i := 0; i < 3; i++ {
		_, err := tr.Track(context.Background(), fmt.Sprintf("t%d", i), func(context.Context) (any, error) {
			return nil, nil
		})
		require.NoError(t, err)
	}
	assert.InDelta(t, 0.75, tr.Progress(), 1e-9)

	empty := NewTracker(nil, "job-1", "empty", 0, nil)
	assert.Zero(t, empty.Progress())
}

func TestRecorderMirrorsSteps(t *testing.T) {
	t.Parallel()

	rec := &captureRecorder{}
	tr := NewTracker(nil, "job-1", "research", 1, rec)

	_, err := tr.Track(context.Background(), "pricing", func(context.Context) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	require.Len(t, rec.steps, 2)
	assert.Equal(t, "research: pricing - started", rec.steps[0])
	assert.Equal(t, "research: pricing - completed", rec.steps[1])
	assert.InDelta(t, 1.0, rec.last, 1e-9)
}

func TestSummaryCollectsTaskErrors(t *testing.T) {
	t.Parallel()

	tr := NewTracker(nil, "job-1", "research", 2, nil)
	_, _ = tr.Track(context.Background(), "ok", func(context.Context) (any, error) { return nil, nil })
	_, _ = tr.Track(context.Background(), "bad", func(context.Context) (any, error) {
		return nil, errors.New("timeout")
	})

	sum := tr.Summary()
	assert.Equal(t, "research", sum.Stage)
	assert.Equal(t, 1, sum.Completed)
	assert.Equal(t, 1, sum.Failed)
	assert.InDelta(t, 0.5, sum.SuccessRate, 1e-9)
	assert.Equal(t, map[string]string{"bad": "timeout"}, sum.TaskErrors)
}
