package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/intel"
	"github.com/tamaghna-docket/tickertape/internal/jobs"
	"github.com/tamaghna-docket/tickertape/internal/progress"
	"github.com/tamaghna-docket/tickertape/internal/store"
)

// monitor walks every recently seen customer of the client, pulls their
// latest filings, and turns detected signals into intelligence records.
// Filing and detection problems are tolerated per customer; an analysis
// failure aborts the whole job.
func (s *Service) monitor(ctx context.Context, jobID string, params jobs.MonitorParams) (jobs.Result, error) {
	profile, err := s.store.GetClientProfile(ctx, params.SaaSClientName)
	if errors.Is(err, store.ErrNotFound) {
		// Nothing onboarded under this name yet; an empty run, not a
		// failure.
		s.log.Warn("monitoring unknown client", zap.String("client", params.SaaSClientName))
		return &jobs.MonitorResult{SaaSClient: params.SaaSClientName, Signals: []jobs.SignalSummary{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load client profile: %w", err)
	}

	customers, err := s.store.CustomersFor(ctx, params.SaaSClientName, params.CustomerAgeDays)
	if err != nil {
		return nil, fmt.Errorf("load customers: %w", err)
	}

	s.log.Info("monitoring customers",
		zap.String("client", params.SaaSClientName),
		zap.Int("customers", len(customers)),
		zap.Int("age_days", params.CustomerAgeDays))

	ms := progress.NewMultiStage(s.sink, jobID, s.jobs)
	tracker := ms.Stage("monitoring", len(customers))

	summaries := []jobs.SignalSummary{}
	for _, customer := range customers {
		task := fmt.Sprintf("%s_%s", customer.CompanyName, customer.Ticker)
		res, err := tracker.Track(ctx, task, func(ctx context.Context) (any, error) {
			return s.monitorCustomer(ctx, customer, profile)
		})
		if err != nil {
			return nil, err
		}
		batch, _ := res.([]jobs.SignalSummary)
		summaries = append(summaries, batch...)
	}
	ms.FinishStage("monitoring")

	return &jobs.MonitorResult{
		SaaSClient:   params.SaaSClientName,
		SignalsFound: len(summaries),
		Signals:      summaries,
	}, nil
}

// monitorCustomer analyzes one customer's recent filings. Source and
// detector errors degrade to "no signals here"; analyzer and persistence
// errors propagate.
func (s *Service) monitorCustomer(ctx context.Context, customer intel.Customer, profile intel.CompanyProfile) ([]jobs.SignalSummary, error) {
	filings, err := s.collab.Filings.RecentFilings(ctx, customer.Ticker)
	if err != nil {
		s.log.Warn("filing retrieval failed",
			zap.String("ticker", customer.Ticker), zap.Error(err))
		return nil, nil
	}

	var summaries []jobs.SignalSummary
	for _, filing := range filings {
		signals, err := s.collab.Detector.Detect(ctx, filing)
		if err != nil {
			s.log.Warn("signal detection failed",
				zap.String("ticker", customer.Ticker),
				zap.String("filing", filing.URL), zap.Error(err))
			continue
		}

		for _, signal := range signals {
			analysis, err := s.collab.Analyzer.Analyze(ctx, signal, customer, profile)
			if err != nil {
				return nil, err
			}

			rec := store.IntelligenceRecord{
				Ticker:       customer.Ticker,
				CompanyName:  customer.CompanyName,
				SaaSClient:   profile.Name,
				SignalType:   signal.Type,
				Summary:      signal.Summary,
				FilingDate:   signal.FilingDate.Format("2006-01-02"),
				Intelligence: analysis,
				GeneratedAt:  analysis.GeneratedAt,
			}
			if err := s.store.SaveIntelligence(ctx, rec); err != nil {
				return nil, fmt.Errorf("save intelligence: %w", err)
			}

			summaries = append(summaries, jobs.SignalSummary{
				Ticker:          customer.Ticker,
				CompanyName:     customer.CompanyName,
				SignalType:      signal.Type,
				SignalSummary:   signal.Summary,
				FilingDate:      signal.FilingDate.Format("2006-01-02"),
				OpportunityType: analysis.OpportunityType,
				UrgencyScore:    analysis.UrgencyScore,
				EstimatedValue:  analysis.EstimatedValue,
				GeneratedAt:     analysis.GeneratedAt.Format("2006-01-02 15:04"),
			})
		}
	}
	return summaries, nil
}
