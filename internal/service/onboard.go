package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/intel"
	"github.com/tamaghna-docket/tickertape/internal/jobs"
	"github.com/tamaghna-docket/tickertape/internal/progress"
)

// researchQueries are the ten research angles covered during deep
// research. Order is fixed so results line up with query names.
var researchQueries = []struct {
	Name     string
	Template string
}{
	{"products", "%[1]s products features capabilities site:%[2]s"},
	{"product_details", "%[1]s product suite key features benefits use cases"},
	{"pricing", "%[1]s pricing tiers plans packages site:%[2]s"},
	{"pricing_details", "%[1]s enterprise pricing professional starter plans"},
	{"icp", "%[1]s ideal customer profile target market customer segments"},
	{"icp_details", "%[1]s typical customer company size industry verticals"},
	{"gtm_personas", "%[1]s buyer personas decision makers purchasing roles"},
	{"gtm_roles", "%[1]s who buys sales process stakeholders champions"},
	{"customer_pain_points", "%[1]s customer challenges problems solves pain points"},
	{"buying_triggers", "%[1]s buying signals when customers buy implementation triggers"},
}

// discoveryQueries locate enterprise customers of the client.
var discoveryQueries = []struct {
	Name     string
	Template string
}{
	{"enterprise_list", "%[1]s enterprise customers list"},
	{"case_studies", "%[1]s customer case studies Fortune 500"},
	{"website_search", `site:%[2]s "customer" OR "case study"`},
}

// onboard researches the client, discovers its enterprise customers, and
// maps them to tickers. Research and discovery failures are absorbed as
// empty results; onboarding itself only fails on persistence errors.
func (s *Service) onboard(ctx context.Context, jobID string, params jobs.OnboardParams) (jobs.Result, error) {
	ms := progress.NewMultiStage(s.sink, jobID, s.jobs)
	profile := intel.CompanyProfile{Name: params.CompanyName, Website: params.Website}

	if params.DeepResearch {
		profile = s.researchStage(ctx, ms, params)
	}

	if err := s.store.SaveClientProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("save client profile: %w", err)
	}

	leads := s.discoveryStage(ctx, ms, params)
	customers := s.tickerStage(ctx, ms, params.CompanyName, leads)

	if len(customers) > 0 {
		if err := s.store.UpsertCustomers(ctx, params.CompanyName, customers); err != nil {
			return nil, fmt.Errorf("save customers: %w", err)
		}
	}

	s.log.Info("onboarding finished",
		zap.String("client", params.CompanyName),
		zap.Int("leads", len(leads)),
		zap.Int("public_customers", len(customers)))

	return &jobs.OnboardResult{
		CompanyName:         params.CompanyName,
		CustomersDiscovered: len(leads),
		EnterpriseCustomers: len(customers),
		ProductsFound:       len(profile.Products),
		PricingTiersFound:   len(profile.PricingTiers),
		ICPsFound:           len(profile.ICPs),
		PersonasFound:       len(profile.Personas),
	}, nil
}

// researchStage runs the research queries concurrently, extracts the
// structured profile from whatever came back, and fills the profile.
// A failed query contributes an empty corpus entry, not a failed task.
func (s *Service) researchStage(ctx context.Context, ms *progress.MultiStage, params jobs.OnboardParams) intel.CompanyProfile {
	tracker := ms.Stage("research", len(researchQueries))

	units := make([]progress.Unit, len(researchQueries))
	for i, q := range researchQueries {
		query := fmt.Sprintf(q.Template, params.CompanyName, params.Website)
		units[i] = progress.Unit{
			Name: q.Name,
			Run: func(ctx context.Context) (any, error) {
				out, err := s.collab.Researcher.Research(ctx, query)
				if err != nil {
					s.log.Warn("research query failed",
						zap.String("query", q.Name), zap.Error(err))
					return "", nil
				}
				return out, nil
			},
		}
	}
	results, _ := tracker.Gather(ctx, units...)

	corpus := make(map[string]string, len(researchQueries))
	for i, q := range researchQueries {
		if text, ok := results[i].(string); ok {
			corpus[q.Name] = text
		}
	}

	research := s.collab.Extractor.Extract(ctx, params.CompanyName, corpus)
	ms.FinishStage("research")

	profile := intel.CompanyProfile{
		Name:                   params.CompanyName,
		Website:                params.Website,
		Industry:               research.Metadata.Industry,
		ProductDescription:     research.Metadata.ProductDescription,
		TypicalCustomerProfile: research.Metadata.TypicalCustomerProfile,
		PricingModel:           research.Metadata.PricingModel,
		Products:               research.Products,
		PricingTiers:           research.PricingTiers,
		ICPs:                   research.ICPs,
		Personas:               research.Personas,
		ExpansionOpportunities: research.ExpansionOpportunities,
		ChurnIndicators:        research.ChurnIndicators,
	}
	for _, p := range profile.Products {
		if len(profile.KeyProducts) == 5 {
			break
		}
		profile.KeyProducts = append(profile.KeyProducts, p.Name)
	}
	return profile
}

// discoveryStage runs the discovery queries concurrently and merges their
// leads: caller order, case-insensitive first-wins dedup, capped.
func (s *Service) discoveryStage(ctx context.Context, ms *progress.MultiStage, params jobs.OnboardParams) []intel.CustomerLead {
	tracker := ms.Stage("discovery", len(discoveryQueries))

	units := make([]progress.Unit, len(discoveryQueries))
	for i, q := range discoveryQueries {
		query := fmt.Sprintf(q.Template, params.CompanyName, params.Website)
		units[i] = progress.Unit{
			Name: q.Name,
			Run: func(ctx context.Context) (any, error) {
				out, err := s.collab.Researcher.Research(ctx, query)
				if err != nil {
					s.log.Warn("discovery query failed",
						zap.String("query", q.Name), zap.Error(err))
					return []intel.CustomerLead(nil), nil
				}
				return parseCustomerList(out), nil
			},
		}
	}
	results, _ := tracker.Gather(ctx, units...)
	ms.FinishStage("discovery")

	seen := make(map[string]bool)
	var leads []intel.CustomerLead
	for _, res := range results {
		batch, _ := res.([]intel.CustomerLead)
		for _, lead := range batch {
			key := strings.ToLower(lead.CompanyName)
			if seen[key] {
				continue
			}
			seen[key] = true
			leads = append(leads, lead)
			if len(leads) == maxCustomers {
				return leads
			}
		}
	}
	return leads
}

// tickerStage resolves leads to tickers one at a time. Leads that fail to
// resolve, or whose lookup errors, are dropped without failing the task.
func (s *Service) tickerStage(ctx context.Context, ms *progress.MultiStage, client string, leads []intel.CustomerLead) []intel.Customer {
	tracker := ms.Stage("ticker_mapping", len(leads))
	now := time.Now().UTC()

	var customers []intel.Customer
	for _, lead := range leads {
		res, _ := tracker.Track(ctx, lead.CompanyName, func(ctx context.Context) (any, error) {
			ticker, ok, err := s.collab.Tickers.Resolve(ctx, lead.CompanyName)
			if err != nil || !ok {
				return "", nil
			}
			return ticker, nil
		})
		ticker, _ := res.(string)
		if ticker == "" {
			continue
		}
		customers = append(customers, intel.Customer{
			CompanyName: lead.CompanyName,
			Ticker:      ticker,
			Industry:    "Unknown",
			SaaSClient:  client,
			Evidence:    lead.Evidence,
			LastSeen:    now,
		})
	}
	ms.FinishStage("ticker_mapping")
	return customers
}

// parseCustomerList pulls company names out of the researcher's bulleted
// answer. Only dash or bullet lines count; anything under three
// characters is noise.
func parseCustomerList(text string) []intel.CustomerLead {
	var leads []intel.CustomerLead
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "•") {
			continue
		}
		name := strings.TrimSpace(strings.TrimLeft(line, "-•"))
		if len(name) > 2 {
			leads = append(leads, intel.CustomerLead{CompanyName: name, Evidence: "web_search"})
		}
	}
	return leads
}
