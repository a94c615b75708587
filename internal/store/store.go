// Package store persists the platform's durable state: SaaS client
// profiles, discovered enterprise customers, and generated intelligence.
// Two backends exist; sqlite is the default and postgres is opt-in via
// configuration.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tamaghna-docket/tickertape/internal/intel"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// CustomerStats buckets a client's customers by how recently they were
// last confirmed. Buckets are exclusive: a customer seen 3 days ago counts
// in Last7Days only.
type CustomerStats struct {
	Total      int `json:"total"`
	Last7Days  int `json:"last_7_days"`
	Last30Days int `json:"last_30_days"`
	Last90Days int `json:"last_90_days"`
	Older      int `json:"older"`
}

// IntelligenceRecord is one persisted analysis, addressable by the
// (ticker, client) pair it was generated for.
type IntelligenceRecord struct {
	Ticker       string            `json:"ticker"`
	CompanyName  string            `json:"company_name"`
	SaaSClient   string            `json:"saas_client"`
	SignalType   string            `json:"signal_type"`
	Summary      string            `json:"signal_summary"`
	FilingDate   string            `json:"filing_date"`
	Intelligence intel.Intelligence `json:"intelligence"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// ClientSummary is the list view of an onboarded client.
type ClientSummary struct {
	Name          string    `json:"name"`
	ProductCount  int       `json:"product_count"`
	CustomerCount int       `json:"customer_count"`
	OnboardedAt   time.Time `json:"onboarded_at"`
}

// Store is the persistence boundary used by the service and API layers.
type Store interface {
	// SaveClientProfile upserts the onboarding research for a client.
	SaveClientProfile(ctx context.Context, profile intel.CompanyProfile) error
	// GetClientProfile returns a saved profile or ErrNotFound.
	GetClientProfile(ctx context.Context, name string) (intel.CompanyProfile, error)
	// ListClients returns every onboarded client.
	ListClients(ctx context.Context) ([]ClientSummary, error)

	// UpsertCustomers inserts or refreshes customers for a client. An
	// existing (client, company) pair gets a fresh LastSeen.
	UpsertCustomers(ctx context.Context, client string, customers []intel.Customer) error
	// CustomersFor returns the client's customers with a ticker whose
	// LastSeen falls within maxAgeDays. maxAgeDays <= 0 disables the
	// window.
	CustomersFor(ctx context.Context, client string, maxAgeDays int) ([]intel.Customer, error)
	// AllCustomers returns every customer of the client, ticker or not.
	AllCustomers(ctx context.Context, client string) ([]intel.Customer, error)
	// Stats buckets the client's customers by recency.
	Stats(ctx context.Context, client string) (CustomerStats, error)

	// SaveIntelligence appends one analysis record.
	SaveIntelligence(ctx context.Context, rec IntelligenceRecord) error
	// IntelligenceFor returns records for a ticker scoped to a client,
	// newest first.
	IntelligenceFor(ctx context.Context, ticker, client string) ([]IntelligenceRecord, error)
	// SignalsFor returns every record generated for a client, newest
	// first.
	SignalsFor(ctx context.Context, client string) ([]IntelligenceRecord, error)

	Close() error
}
