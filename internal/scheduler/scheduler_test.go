package scheduler

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/jobs"
)

type recordingSubmitter struct {
	mu     sync.Mutex
	params []jobs.MonitorParams
}

func (r *recordingSubmitter) SubmitMonitoring(p jobs.MonitorParams) (string, <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params = append(r.params, p)
	done := make(chan struct{})
	close(done)
	return "job-1", done
}

func TestSweepSubmitsOneJobPerClient(t *testing.T) {
	t.Parallel()

	sub := &recordingSubmitter{}
	s := New(zap.NewNop(), sub, []string{"Datadog", "Snowflake"}, 30)

	s.Sweep()

	require.Len(t, sub.params, 2)
	assert.Equal(t, "Datadog", sub.params[0].SaaSClientName)
	assert.Equal(t, "Snowflake", sub.params[1].SaaSClientName)
	assert.Equal(t, 30, sub.params[0].CustomerAgeDays)
}

func TestStartWithoutClientsIsIdle(t *testing.T) {
	t.Parallel()

	sub := &recordingSubmitter{}
	s := New(nil, sub, nil, 90)

	require.NoError(t, s.Start("@daily"))
	s.Stop()
	assert.Empty(t, sub.params)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	s := New(zap.NewNop(), &recordingSubmitter{}, []string{"Datadog"}, 90)
	err := s.Start("not a cron expression")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register monitoring schedule")
}
