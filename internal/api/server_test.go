package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/config"
	"github.com/tamaghna-docket/tickertape/internal/intel"
	"github.com/tamaghna-docket/tickertape/internal/jobs"
	"github.com/tamaghna-docket/tickertape/internal/service"
	"github.com/tamaghna-docket/tickertape/internal/store"
	"github.com/tamaghna-docket/tickertape/internal/ws"
)

type fakeStore struct {
	profiles  map[string]intel.CompanyProfile
	customers map[string][]intel.Customer
	records   []store.IntelligenceRecord
	clients   []store.ClientSummary
	stats     store.CustomerStats
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:  make(map[string]intel.CompanyProfile),
		customers: make(map[string][]intel.Customer),
	}
}

func (f *fakeStore) SaveClientProfile(_ context.Context, p intel.CompanyProfile) error {
	f.profiles[p.Name] = p
	return nil
}

func (f *fakeStore) GetClientProfile(_ context.Context, name string) (intel.CompanyProfile, error) {
	p, ok := f.profiles[name]
	if !ok {
		return intel.CompanyProfile{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) ListClients(_ context.Context) ([]store.ClientSummary, error) {
	return f.clients, nil
}

func (f *fakeStore) UpsertCustomers(_ context.Context, client string, customers []intel.Customer) error {
	f.customers[client] = append(f.customers[client], customers...)
	return nil
}

func (f *fakeStore) CustomersFor(_ context.Context, client string, _ int) ([]intel.Customer, error) {
	var out []intel.Customer
	for _, c := range f.customers[client] {
		if c.Ticker != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) AllCustomers(_ context.Context, client string) ([]intel.Customer, error) {
	return f.customers[client], nil
}

func (f *fakeStore) Stats(_ context.Context, _ string) (store.CustomerStats, error) {
	return f.stats, nil
}

func (f *fakeStore) SaveIntelligence(_ context.Context, rec store.IntelligenceRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeStore) IntelligenceFor(_ context.Context, ticker, client string) ([]store.IntelligenceRecord, error) {
	var out []store.IntelligenceRecord
	for _, r := range f.records {
		if r.Ticker == ticker && r.SaaSClient == client {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) SignalsFor(_ context.Context, client string) ([]store.IntelligenceRecord, error) {
	var out []store.IntelligenceRecord
	for _, r := range f.records {
		if r.SaaSClient == client {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Close() error { return nil }

type noopResearcher struct{}

func (noopResearcher) Research(context.Context, string) (string, error) { return "", nil }

type noopExtractor struct{}

func (noopExtractor) Extract(context.Context, string, map[string]string) intel.CompanyResearch {
	return intel.CompanyResearch{}
}

type noopTickers struct{}

func (noopTickers) Resolve(context.Context, string) (string, bool, error) { return "", false, nil }

type noopFilings struct{}

func (noopFilings) RecentFilings(context.Context, string) ([]intel.Filing, error) { return nil, nil }

type noopDetector struct{}

func (noopDetector) Detect(context.Context, intel.Filing) ([]intel.Signal, error) { return nil, nil }

type noopAnalyzer struct{}

func (noopAnalyzer) Analyze(context.Context, intel.Signal, intel.Customer, intel.CompanyProfile) (intel.Intelligence, error) {
	return intel.Intelligence{}, nil
}

type serverFixture struct {
	srv   *Server
	jobs  *jobs.Store
	store *fakeStore
	ws    *ws.Manager
}

func newTestServer(t *testing.T, cfg config.Config, withService bool) serverFixture {
	t.Helper()

	jobStore := jobs.NewStore()
	st := newFakeStore()
	manager := ws.NewManager(zap.NewNop())

	var svc *service.Service
	if withService {
		var err error
		svc, err = service.New(zap.NewNop(), st, jobStore, manager, nil, service.Collaborators{
			Researcher: noopResearcher{},
			Extractor:  noopExtractor{},
			Tickers:    noopTickers{},
			Filings:    noopFilings{},
			Detector:   noopDetector{},
			Analyzer:   noopAnalyzer{},
		})
		require.NoError(t, err)
	}

	srv := NewServer(zap.NewNop(), svc, jobStore, st, manager, prometheus.NewRegistry(), cfg)
	return serverFixture{srv: srv, jobs: jobStore, store: st, ws: manager}
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	payload := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestRootAndMetrics(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, false)

	rec, payload := doJSON(t, fx.srv.Handler(), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", payload["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRec := httptest.NewRecorder()
	fx.srv.Handler().ServeHTTP(metricsRec, req)
	assert.Equal(t, http.StatusOK, metricsRec.Code)
}

func TestSubmitOnboardWithoutServiceIsUnavailable(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, false)

	rec, payload := doJSON(t, fx.srv.Handler(), http.MethodPost, "/api/onboard",
		`{"company_name":"Datadog"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, payload["error"], "OPENAI_API_KEY")
}

func TestSubmitOnboardValidatesInput(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, true)

	rec, payload := doJSON(t, fx.srv.Handler(), http.MethodPost, "/api/onboard", `{"website":"datadog.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "company_name is required", payload["error"])

	rec, _ = doJSON(t, fx.srv.Handler(), http.MethodPost, "/api/onboard", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitOnboardAcceptedAndStatusVisible(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, true)

	rec, payload := doJSON(t, fx.srv.Handler(), http.MethodPost, "/api/onboard",
		`{"company_name":"Datadog","website":"datadog.com"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	jobID, _ := payload["job_id"].(string)
	require.NotEmpty(t, jobID)
	assert.Equal(t, "pending", payload["status"])

	rec, payload = doJSON(t, fx.srv.Handler(), http.MethodGet, "/api/onboard/"+jobID+"/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jobID, payload["job_id"])
	assert.Equal(t, "onboard", payload["job_type"])
}

func TestSubmitOnboardDefaultsDeepResearch(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, true)

	rec, payload := doJSON(t, fx.srv.Handler(), http.MethodPost, "/api/onboard",
		`{"company_name":"Datadog","website":"datadog.com"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	job, err := fx.jobs.Get(payload["job_id"].(string))
	require.NoError(t, err)
	params, ok := job.Params.(jobs.OnboardParams)
	require.True(t, ok)
	assert.True(t, params.DeepResearch, "omitted deep_research must default to true")

	rec, payload = doJSON(t, fx.srv.Handler(), http.MethodPost, "/api/onboard",
		`{"company_name":"Datadog","deep_research":false}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	job, err = fx.jobs.Get(payload["job_id"].(string))
	require.NoError(t, err)
	params = job.Params.(jobs.OnboardParams)
	assert.False(t, params.DeepResearch, "an explicit false must stick")
}

func TestJobStatusUnknownIs404(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, false)

	rec, payload := doJSON(t, fx.srv.Handler(), http.MethodGet, "/api/onboard/nope/status", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "job not found", payload["error"])
}

func TestResultNotReadyIsConflict(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, false)
	jobID := fx.jobs.Create(jobs.TypeOnboard, jobs.OnboardParams{CompanyName: "Datadog"})
	fx.jobs.SetStatus(jobID, jobs.StatusRunning)

	rec, payload := doJSON(t, fx.srv.Handler(), http.MethodGet, "/api/onboard/"+jobID+"/result", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Job not completed. Current status: running", payload["error"])
}

func TestResultForCompletedJob(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, false)
	jobID := fx.jobs.Create(jobs.TypeOnboard, jobs.OnboardParams{CompanyName: "Datadog"})
	fx.jobs.SetResult(jobID, &jobs.OnboardResult{
		CompanyName:         "Datadog",
		CustomersDiscovered: 12,
		EnterpriseCustomers: 4,
	})

	rec, payload := doJSON(t, fx.srv.Handler(), http.MethodGet, "/api/onboard/"+jobID+"/result", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", payload["status"])
	result, ok := payload["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(12), result["customers_discovered"])
}

func TestClientSignals(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, false)
	fx.store.records = []store.IntelligenceRecord{
		{
			Ticker:      "SHOP",
			CompanyName: "Shopify",
			SaaSClient:  "Datadog",
			SignalType:  "expansion",
			Summary:     "New fulfillment network",
			FilingDate:  "2026-08-20",
		},
	}

	rec, payload := doJSON(t, fx.srv.Handler(), http.MethodGet, "/api/signals/Datadog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Datadog", payload["saas_client"])
	assert.Equal(t, float64(1), payload["signals_found"])
	signals, ok := payload["signals"].([]any)
	require.True(t, ok)
	first := signals[0].(map[string]any)
	assert.Equal(t, "SHOP", first["ticker"])
	assert.Equal(t, "expansion", first["signal_type"])
}

func TestIntelligenceReport(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, false)

	rec, payload := doJSON(t, fx.srv.Handler(), http.MethodGet, "/api/intelligence/SHOP/Datadog", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, payload["error"], "no intelligence found")

	fx.store.records = []store.IntelligenceRecord{
		{
			Ticker:     "SHOP",
			SaaSClient: "Datadog",
			SignalType: "expansion",
			Intelligence: intel.Intelligence{
				OpportunityType: "upsell",
				UrgencyScore:    0.8,
			},
		},
	}

	// Ticker is uppercased by the handler.
	rec, payload = doJSON(t, fx.srv.Handler(), http.MethodGet, "/api/intelligence/shop/Datadog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body, ok := payload["intelligence"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "upsell", body["opportunity_type"])
}

func TestIntelligenceReportTextFormat(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, false)
	fx.store.records = []store.IntelligenceRecord{
		{
			Ticker:     "SHOP",
			SaaSClient: "Datadog",
			Intelligence: intel.Intelligence{
				Customer:          intel.Customer{CompanyName: "Shopify", Ticker: "SHOP"},
				RecommendedAction: "Book an expansion review call",
			},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/intelligence/SHOP/Datadog?format=text", nil)
	rec := httptest.NewRecorder()
	fx.srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "YOUR CUSTOMER: Shopify (SHOP)")
	assert.Contains(t, rec.Body.String(), "Book an expansion review call")
}

func TestClientCustomersAndStats(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, false)
	fx.store.customers["Datadog"] = []intel.Customer{
		{CompanyName: "Shopify", Ticker: "SHOP", Industry: "E-commerce"},
		{CompanyName: "Acme", Industry: "Unknown"},
	}
	fx.store.stats = store.CustomerStats{Total: 2, Last7Days: 1, Older: 1}

	rec, payload := doJSON(t, fx.srv.Handler(), http.MethodGet, "/api/customers/Datadog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), payload["customer_count"])

	rec, payload = doJSON(t, fx.srv.Handler(), http.MethodGet, "/api/customers/Datadog/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats, ok := payload["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), stats["total"])
	assert.Equal(t, float64(1), stats["last_7_days"])
}

func TestCompanies(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, false)
	fx.store.clients = []store.ClientSummary{
		{Name: "Datadog", ProductCount: 5, CustomerCount: 12},
	}

	rec, payload := doJSON(t, fx.srv.Handler(), http.MethodGet, "/api/companies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), payload["total_companies"])
	companies := payload["companies"].([]any)
	first := companies[0].(map[string]any)
	assert.Equal(t, "Datadog", first["name"])
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "secret"
	fx := newTestServer(t, cfg, false)

	rec, _ := doJSON(t, fx.srv.Handler(), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "secret")
	okRec := httptest.NewRecorder()
	fx.srv.Handler().ServeHTTP(okRec, req)
	assert.Equal(t, http.StatusOK, okRec.Code)

	queryReq := httptest.NewRequest(http.MethodGet, "/?api_key=secret", nil)
	queryRec := httptest.NewRecorder()
	fx.srv.Handler().ServeHTTP(queryRec, queryReq)
	assert.Equal(t, http.StatusOK, queryRec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, false)
	rec, _ := doJSON(t, fx.srv.Handler(), http.MethodGet, "/", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSubmittedJobEventuallyCompletes(t *testing.T) {
	t.Parallel()

	fx := newTestServer(t, config.Config{}, true)

	rec, payload := doJSON(t, fx.srv.Handler(), http.MethodPost, "/api/monitor",
		`{"saas_client_name":"Datadog"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	jobID := payload["job_id"].(string)

	// The noop collaborators make the monitoring run a no-op that
	// completes quickly (no client profile means an empty result).
	require.Eventually(t, func() bool {
		job, err := fx.jobs.Get(jobID)
		return err == nil && job.Status == jobs.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)
}
