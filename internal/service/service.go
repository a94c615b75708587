// Package service orchestrates the platform's background workflows:
// onboarding a SaaS client and monitoring its customers for buying
// signals. Each submission runs in its own goroutine, streams progress
// through the configured sink, and lands its terminal state in the job
// store.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/intel"
	"github.com/tamaghna-docket/tickertape/internal/jobs"
	"github.com/tamaghna-docket/tickertape/internal/notify"
	"github.com/tamaghna-docket/tickertape/internal/progress"
	"github.com/tamaghna-docket/tickertape/internal/store"
)

// Discovery keeps at most this many unique customer leads per run.
const maxCustomers = 30

// defaultCustomerAgeDays bounds monitoring to recently confirmed
// customers when the request does not say otherwise.
const defaultCustomerAgeDays = 90

// Collaborators are the external capabilities the workflows depend on.
type Collaborators struct {
	Researcher intel.Researcher
	Extractor  intel.Extractor
	Tickers    intel.TickerResolver
	Filings    intel.FilingSource
	Detector   intel.SignalDetector
	Analyzer   intel.Analyzer
}

// Service runs the platform workflows.
type Service struct {
	log      *zap.Logger
	store    store.Store
	jobs     *jobs.Store
	sink     progress.Sink
	notifier notify.Publisher
	collab   Collaborators
}

// New wires a Service. The notifier is optional; everything else is
// required.
func New(log *zap.Logger, st store.Store, jobStore *jobs.Store, sink progress.Sink, notifier notify.Publisher, collab Collaborators) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch {
	case st == nil:
		return nil, errors.New("service: store is required")
	case jobStore == nil:
		return nil, errors.New("service: job store is required")
	case collab.Researcher == nil, collab.Extractor == nil, collab.Tickers == nil:
		return nil, errors.New("service: onboarding collaborators are required")
	case collab.Filings == nil, collab.Detector == nil, collab.Analyzer == nil:
		return nil, errors.New("service: monitoring collaborators are required")
	}
	return &Service{
		log:      log,
		store:    st,
		jobs:     jobStore,
		sink:     sink,
		notifier: notifier,
		collab:   collab,
	}, nil
}

// Jobs exposes the job store for the API layer.
func (s *Service) Jobs() *jobs.Store { return s.jobs }

// Store exposes the persistence layer for the API layer.
func (s *Service) Store() store.Store { return s.store }

// SubmitOnboarding starts an onboarding job and returns immediately. The
// returned channel closes when the job reaches a terminal state.
func (s *Service) SubmitOnboarding(params jobs.OnboardParams) (string, <-chan struct{}) {
	jobID := s.jobs.Create(jobs.TypeOnboard, params)
	done := make(chan struct{})
	go s.run(jobID, params.CompanyName, done, func(ctx context.Context) (jobs.Result, error) {
		return s.onboard(ctx, jobID, params)
	})
	return jobID, done
}

// SubmitMonitoring starts a monitoring job and returns immediately. The
// returned channel closes when the job reaches a terminal state.
func (s *Service) SubmitMonitoring(params jobs.MonitorParams) (string, <-chan struct{}) {
	if params.CustomerAgeDays <= 0 {
		params.CustomerAgeDays = defaultCustomerAgeDays
	}
	jobID := s.jobs.Create(jobs.TypeMonitor, params)
	done := make(chan struct{})
	go s.run(jobID, params.SaaSClientName, done, func(ctx context.Context) (jobs.Result, error) {
		return s.monitor(ctx, jobID, params)
	})
	return jobID, done
}

// run executes one workflow end to end: running status, the workflow,
// then exactly one terminal transition. Failures carry the workflow's
// error text verbatim.
func (s *Service) run(jobID, client string, done chan struct{}, work func(ctx context.Context) (jobs.Result, error)) {
	defer close(done)
	ctx := context.Background()

	s.jobs.SetStatus(jobID, jobs.StatusRunning)
	s.publish(jobID, progress.Event{
		Type:      progress.TypeStatus,
		JobID:     jobID,
		Status:    string(jobs.StatusRunning),
		Timestamp: time.Now().UTC(),
	})

	result, err := work(ctx)
	if err != nil {
		s.log.Error("job failed", zap.String("job_id", jobID), zap.Error(err))
		s.jobs.SetError(jobID, err.Error())
		s.publish(jobID, progress.Event{
			Type:      progress.TypeError,
			JobID:     jobID,
			Status:    string(jobs.StatusFailed),
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		})
		s.notify(jobID, client, string(jobs.StatusFailed), 0, err.Error())
		return
	}

	s.jobs.SetResult(jobID, result)
	s.jobs.RecordStep(jobID, 1.0, "Completed")
	s.publish(jobID, progress.Event{
		Type:      progress.TypeStatus,
		JobID:     jobID,
		Status:    string(jobs.StatusCompleted),
		Progress:  1.0,
		Timestamp: time.Now().UTC(),
	})

	signals := 0
	if mr, ok := result.(*jobs.MonitorResult); ok {
		signals = mr.SignalsFound
	}
	s.notify(jobID, client, string(jobs.StatusCompleted), signals, "")
	s.log.Info("job completed", zap.String("job_id", jobID))
}

func (s *Service) publish(jobID string, evt progress.Event) {
	if s.sink != nil {
		s.sink.Publish(jobID, evt)
	}
}

func (s *Service) notify(jobID, client, status string, signals int, errText string) {
	if s.notifier == nil {
		return
	}
	job, err := s.jobs.Get(jobID)
	if err != nil {
		return
	}
	_, err = s.notifier.Publish(context.Background(), "jobs", notify.Notification{
		JobID:   jobID,
		JobType: string(job.Type),
		Status:  status,
		Client:  client,
		Signals: signals,
		Error:   errText,
	})
	if err != nil {
		s.log.Warn("job notification failed", zap.String("job_id", jobID), zap.Error(err))
	}
}
