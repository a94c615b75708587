// Package scheduler runs periodic monitoring sweeps for configured
// SaaS clients on a cron schedule.
package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/jobs"
)

// Submitter starts a monitoring job and returns its ID.
type Submitter interface {
	SubmitMonitoring(params jobs.MonitorParams) (string, <-chan struct{})
}

// Scheduler triggers monitoring jobs for each configured client.
type Scheduler struct {
	log       *zap.Logger
	cron      *cron.Cron
	submitter Submitter
	clients   []string
	ageDays   int
}

// New builds a Scheduler. clients is the list of SaaS client names to
// sweep; ageDays bounds customer recency per sweep.
func New(log *zap.Logger, submitter Submitter, clients []string, ageDays int) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		log:       log,
		cron:      cron.New(),
		submitter: submitter,
		clients:   clients,
		ageDays:   ageDays,
	}
}

// Start registers the sweep on the given cron expression and starts the
// scheduler. It is a no-op when no clients are configured.
func (s *Scheduler) Start(schedule string) error {
	if len(s.clients) == 0 {
		s.log.Info("no monitoring clients configured, scheduler idle")
		return nil
	}
	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return fmt.Errorf("register monitoring schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.log.Info("monitoring schedule registered",
		zap.String("schedule", schedule),
		zap.Int("clients", len(s.clients)),
	)
	return nil
}

// Sweep submits one monitoring job per configured client. Exposed so an
// operator entry point can force a sweep outside the schedule.
func (s *Scheduler) Sweep() {
	for _, client := range s.clients {
		jobID, _ := s.submitter.SubmitMonitoring(jobs.MonitorParams{
			SaaSClientName:  client,
			CustomerAgeDays: s.ageDays,
		})
		s.log.Info("scheduled monitoring job",
			zap.String("client", client),
			zap.String("job_id", jobID),
		)
	}
}

// Stop halts the scheduler and waits for in-flight trigger functions.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
