package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/jobs"
	"github.com/tamaghna-docket/tickertape/internal/report"
	"github.com/tamaghna-docket/tickertape/internal/store"
)

const serviceUnavailableMsg = "platform service not initialized: OPENAI_API_KEY is required"

type onboardRequest struct {
	CompanyName  string `json:"company_name"`
	Website      string `json:"website"`
	DeepResearch bool   `json:"deep_research"`
}

type monitorRequest struct {
	SaaSClientName  string `json:"saas_client_name"`
	CustomerAgeDays int    `json:"customer_age_days"`
}

type submitResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) submitOnboard(w http.ResponseWriter, r *http.Request) {
	if s.svc == nil {
		writeError(w, http.StatusServiceUnavailable, serviceUnavailableMsg)
		return
	}
	// Deep research is opt-out: an omitted field means true.
	req := onboardRequest{DeepResearch: true}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	if req.CompanyName == "" {
		writeError(w, http.StatusBadRequest, "company_name is required")
		return
	}
	jobID, _ := s.svc.SubmitOnboarding(jobs.OnboardParams{
		CompanyName:  req.CompanyName,
		Website:      req.Website,
		DeepResearch: req.DeepResearch,
	})
	writeJSON(w, http.StatusAccepted, submitResponse{
		JobID:   jobID,
		Status:  string(jobs.StatusPending),
		Message: fmt.Sprintf("Onboarding started for %s", req.CompanyName),
	})
}

func (s *Server) submitMonitor(w http.ResponseWriter, r *http.Request) {
	if s.svc == nil {
		writeError(w, http.StatusServiceUnavailable, serviceUnavailableMsg)
		return
	}
	var req monitorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.SaaSClientName = strings.TrimSpace(req.SaaSClientName)
	if req.SaaSClientName == "" {
		writeError(w, http.StatusBadRequest, "saas_client_name is required")
		return
	}
	jobID, _ := s.svc.SubmitMonitoring(jobs.MonitorParams{
		SaaSClientName:  req.SaaSClientName,
		CustomerAgeDays: req.CustomerAgeDays,
	})
	writeJSON(w, http.StatusAccepted, submitResponse{
		JobID:   jobID,
		Status:  string(jobs.StatusPending),
		Message: fmt.Sprintf("Monitoring started for %s", req.SaaSClientName),
	})
}

func (s *Server) jobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":       job.ID,
		"job_type":     job.Type,
		"status":       job.Status,
		"progress":     job.Progress,
		"current_step": job.CurrentStep,
		"error":        job.Error,
		"created_at":   job.CreatedAt,
		"completed_at": job.CompletedAt,
	})
}

func (s *Server) onboardResult(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupCompletedJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":       job.ID,
		"status":       job.Status,
		"result":       job.Result,
		"completed_at": job.CompletedAt,
	})
}

func (s *Server) monitorSignals(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupCompletedJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":       job.ID,
		"status":       job.Status,
		"result":       job.Result,
		"completed_at": job.CompletedAt,
	})
}

// lookupJob resolves the job_id path parameter, writing a 404 when the
// job does not exist.
func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) (jobs.Job, bool) {
	if s.jobs == nil {
		writeError(w, http.StatusServiceUnavailable, serviceUnavailableMsg)
		return jobs.Job{}, false
	}
	jobID := chi.URLParam(r, "job_id")
	job, err := s.jobs.Get(jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return jobs.Job{}, false
	}
	return job, true
}

// lookupCompletedJob additionally enforces the 409 not-ready contract on
// result endpoints: a known but unfinished job is a conflict, not an error.
func (s *Server) lookupCompletedJob(w http.ResponseWriter, r *http.Request) (jobs.Job, bool) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return jobs.Job{}, false
	}
	if job.Status != jobs.StatusCompleted {
		writeError(w, http.StatusConflict,
			fmt.Sprintf("Job not completed. Current status: %s", job.Status))
		return jobs.Job{}, false
	}
	return job, true
}

func (s *Server) clientSignals(w http.ResponseWriter, r *http.Request) {
	st, ok := s.requireStore(w)
	if !ok {
		return
	}
	client := chi.URLParam(r, "client")
	records, err := st.SignalsFor(r.Context(), client)
	if err != nil {
		s.log.Error("query signals", zap.String("client", client), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to query signals")
		return
	}
	signals := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		signals = append(signals, map[string]any{
			"ticker":       rec.Ticker,
			"company_name": rec.CompanyName,
			"signal_type":  rec.SignalType,
			"summary":      rec.Summary,
			"filing_date":  rec.FilingDate,
			"generated_at": rec.GeneratedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"saas_client":   client,
		"signals_found": len(signals),
		"signals":       signals,
	})
}

func (s *Server) intelligenceReport(w http.ResponseWriter, r *http.Request) {
	st, ok := s.requireStore(w)
	if !ok {
		return
	}
	ticker := strings.ToUpper(chi.URLParam(r, "ticker"))
	client := chi.URLParam(r, "client")
	records, err := st.IntelligenceFor(r.Context(), ticker, client)
	if err != nil {
		s.log.Error("query intelligence",
			zap.String("ticker", ticker), zap.String("client", client), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to query intelligence")
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("no intelligence found for %s / %s", ticker, client))
		return
	}
	latest := records[0]
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(report.Render(latest.Intelligence)))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ticker":       latest.Ticker,
		"company_name": latest.CompanyName,
		"saas_client":  latest.SaaSClient,
		"filing_date":  latest.FilingDate,
		"generated_at": latest.GeneratedAt,
		"intelligence": latest.Intelligence,
	})
}

func (s *Server) clientCustomers(w http.ResponseWriter, r *http.Request) {
	st, ok := s.requireStore(w)
	if !ok {
		return
	}
	client := chi.URLParam(r, "client")
	customers, err := st.AllCustomers(r.Context(), client)
	if err != nil {
		s.log.Error("query customers", zap.String("client", client), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to query customers")
		return
	}
	rows := make([]map[string]any, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, map[string]any{
			"ticker":       c.Ticker,
			"company_name": c.CompanyName,
			"industry":     c.Industry,
			"last_seen":    c.LastSeen,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"saas_client":    client,
		"customer_count": len(rows),
		"customers":      rows,
	})
}

func (s *Server) customerStats(w http.ResponseWriter, r *http.Request) {
	st, ok := s.requireStore(w)
	if !ok {
		return
	}
	client := chi.URLParam(r, "client")
	stats, err := st.Stats(r.Context(), client)
	if err != nil {
		s.log.Error("query customer stats", zap.String("client", client), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to query customer stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"saas_client": client,
		"stats":       stats,
	})
}

func (s *Server) companies(w http.ResponseWriter, r *http.Request) {
	st, ok := s.requireStore(w)
	if !ok {
		return
	}
	clients, err := st.ListClients(r.Context())
	if err != nil {
		s.log.Error("list companies", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list companies")
		return
	}
	companies := make([]map[string]any, 0, len(clients))
	for _, c := range clients {
		companies = append(companies, map[string]any{
			"name":           c.Name,
			"product_count":  c.ProductCount,
			"customer_count": c.CustomerCount,
			"onboarded_at":   c.OnboardedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_companies": len(companies),
		"companies":       companies,
	})
}

func (s *Server) requireStore(w http.ResponseWriter) (store.Store, bool) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, serviceUnavailableMsg)
		return nil, false
	}
	return s.store, true
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
