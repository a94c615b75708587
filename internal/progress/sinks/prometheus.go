package sinks

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamaghna-docket/tickertape/internal/progress"
)

// PrometheusSink exports progress metrics. It owns the collectors for
// task completions, stage transitions, and job failures.
type PrometheusSink struct {
	tasks          *prometheus.CounterVec
	stagesStarted  *prometheus.CounterVec
	stagesFinished *prometheus.CounterVec
	jobErrors      prometheus.Counter
	jobProgress    *prometheus.GaugeVec
}

// NewPrometheusSink registers the collectors against the provided
// registry. A nil registry falls back to the default registerer.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickertape_tasks_total",
			Help: "Tracked task transitions partitioned by stage and status.",
		}, []string{"stage", "status"}),
		stagesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickertape_stages_started_total",
			Help: "Stages begun partitioned by stage name.",
		}, []string{"stage"}),
		stagesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickertape_stages_completed_total",
			Help: "Stages finished partitioned by stage name.",
		}, []string{"stage"}),
		jobErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tickertape_job_errors_total",
			Help: "Jobs that ended with an error event.",
		}),
		jobProgress: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tickertape_stage_progress",
			Help: "Latest fractional progress per stage.",
		}, []string{"stage"}),
	}
	for _, collector := range []prometheus.Collector{
		s.tasks,
		s.stagesStarted,
		s.stagesFinished,
		s.jobErrors,
		s.jobProgress,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Publish updates the collectors from one event. Safe for concurrent use.
func (s *PrometheusSink) Publish(_ string, evt progress.Event) {
	switch evt.Type {
	case progress.TypeProgress:
		if evt.Status != "" {
			s.tasks.WithLabelValues(evt.Stage, evt.Status).Inc()
		}
		s.jobProgress.WithLabelValues(evt.Stage).Set(evt.Progress)
	case progress.TypeStageStart:
		s.stagesStarted.WithLabelValues(evt.Stage).Inc()
	case progress.TypeStageComplete:
		s.stagesFinished.WithLabelValues(evt.Stage).Inc()
	case progress.TypeError:
		s.jobErrors.Inc()
	}
}
