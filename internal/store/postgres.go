package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tamaghna-docket/tickertape/internal/intel"
)

// PgxIface is the subset of pgxpool.Pool the store uses; pgxmock
// implements it for tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS saas_clients (
	name        TEXT PRIMARY KEY,
	website     TEXT NOT NULL DEFAULT '',
	industry    TEXT NOT NULL DEFAULT '',
	profile     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS enterprise_customers (
	id           BIGSERIAL PRIMARY KEY,
	saas_client  TEXT NOT NULL,
	company_name TEXT NOT NULL,
	ticker       TEXT NOT NULL DEFAULT '',
	industry     TEXT NOT NULL DEFAULT '',
	evidence     TEXT NOT NULL DEFAULT '',
	last_seen    TIMESTAMPTZ NOT NULL,
	UNIQUE (saas_client, company_name)
);
CREATE TABLE IF NOT EXISTS intelligence (
	id           BIGSERIAL PRIMARY KEY,
	ticker       TEXT NOT NULL,
	company_name TEXT NOT NULL,
	saas_client  TEXT NOT NULL,
	signal_type  TEXT NOT NULL,
	summary      TEXT NOT NULL,
	filing_date  TEXT NOT NULL,
	payload      JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_intelligence_client ON intelligence (saas_client);
CREATE INDEX IF NOT EXISTS idx_intelligence_ticker ON intelligence (ticker);
`

// Postgres backs the store with a pgx connection pool.
type Postgres struct {
	db    PgxIface
	close func()
}

var _ Store = (*Postgres)(nil)

// OpenPostgres connects to dsn and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &Postgres{db: pool, close: pool.Close}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure postgres schema: %w", err)
	}
	return s, nil
}

// NewPostgresWithDB wires an existing connection; used by tests.
func NewPostgresWithDB(db PgxIface) *Postgres {
	return &Postgres{db: db, close: func() {}}
}

func (s *Postgres) SaveClientProfile(ctx context.Context, profile intel.CompanyProfile) error {
	doc, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO saas_clients (name, website, industry, profile)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET website = EXCLUDED.website,
		    industry = EXCLUDED.industry,
		    profile = EXCLUDED.profile,
		    updated_at = now()`,
		profile.Name, profile.Website, profile.Industry, doc)
	if err != nil {
		return fmt.Errorf("save client %q: %w", profile.Name, err)
	}
	return nil
}

func (s *Postgres) GetClientProfile(ctx context.Context, name string) (intel.CompanyProfile, error) {
	var doc []byte
	err := s.db.QueryRow(ctx,
		`SELECT profile FROM saas_clients WHERE name = $1`, name).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return intel.CompanyProfile{}, ErrNotFound
	}
	if err != nil {
		return intel.CompanyProfile{}, fmt.Errorf("load client %q: %w", name, err)
	}
	var profile intel.CompanyProfile
	if err := json.Unmarshal(doc, &profile); err != nil {
		return intel.CompanyProfile{}, fmt.Errorf("decode client %q: %w", name, err)
	}
	return profile, nil
}

func (s *Postgres) ListClients(ctx context.Context) ([]ClientSummary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.name, c.profile, c.created_at,
		       (SELECT count(*) FROM enterprise_customers e WHERE e.saas_client = c.name)
		FROM saas_clients c
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []ClientSummary
	for rows.Next() {
		var (
			summary ClientSummary
			doc     []byte
			count   int64
		)
		if err := rows.Scan(&summary.Name, &doc, &summary.OnboardedAt, &count); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		var profile intel.CompanyProfile
		_ = json.Unmarshal(doc, &profile)
		summary.ProductCount = len(profile.Products)
		summary.CustomerCount = int(count)
		out = append(out, summary)
	}
	return out, rows.Err()
}

func (s *Postgres) UpsertCustomers(ctx context.Context, client string, customers []intel.Customer) error {
	for _, c := range customers {
		lastSeen := c.LastSeen
		if lastSeen.IsZero() {
			lastSeen = time.Now().UTC()
		}
		_, err := s.db.Exec(ctx, `
			INSERT INTO enterprise_customers
				(saas_client, company_name, ticker, industry, evidence, last_seen)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (saas_client, company_name) DO UPDATE
			SET ticker = EXCLUDED.ticker,
			    industry = EXCLUDED.industry,
			    evidence = EXCLUDED.evidence,
			    last_seen = EXCLUDED.last_seen`,
			client, c.CompanyName, c.Ticker, c.Industry, c.Evidence, lastSeen)
		if err != nil {
			return fmt.Errorf("upsert customer %q: %w", c.CompanyName, err)
		}
	}
	return nil
}

func (s *Postgres) CustomersFor(ctx context.Context, client string, maxAgeDays int) ([]intel.Customer, error) {
	query := `
		SELECT company_name, ticker, industry, saas_client, evidence, last_seen
		FROM enterprise_customers
		WHERE saas_client = $1 AND ticker <> ''`
	args := []any{client}
	if maxAgeDays > 0 {
		query += ` AND last_seen >= $2`
		args = append(args, time.Now().UTC().AddDate(0, 0, -maxAgeDays))
	}
	query += ` ORDER BY company_name`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load customers for %q: %w", client, err)
	}
	return scanCustomers(rows)
}

func (s *Postgres) AllCustomers(ctx context.Context, client string) ([]intel.Customer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT company_name, ticker, industry, saas_client, evidence, last_seen
		FROM enterprise_customers
		WHERE saas_client = $1
		ORDER BY company_name`, client)
	if err != nil {
		return nil, fmt.Errorf("load customers for %q: %w", client, err)
	}
	return scanCustomers(rows)
}

func (s *Postgres) Stats(ctx context.Context, client string) (CustomerStats, error) {
	customers, err := s.AllCustomers(ctx, client)
	if err != nil {
		return CustomerStats{}, err
	}
	return bucketByRecency(customers, time.Now().UTC()), nil
}

func (s *Postgres) SaveIntelligence(ctx context.Context, rec IntelligenceRecord) error {
	doc, err := json.Marshal(rec.Intelligence)
	if err != nil {
		return fmt.Errorf("encode intelligence: %w", err)
	}
	generatedAt := rec.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO intelligence
			(ticker, company_name, saas_client, signal_type, summary, filing_date, payload, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.Ticker, rec.CompanyName, rec.SaaSClient, rec.SignalType,
		rec.Summary, rec.FilingDate, doc, generatedAt)
	if err != nil {
		return fmt.Errorf("save intelligence for %q: %w", rec.Ticker, err)
	}
	return nil
}

func (s *Postgres) IntelligenceFor(ctx context.Context, ticker, client string) ([]IntelligenceRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ticker, company_name, saas_client, signal_type, summary, filing_date, payload, generated_at
		FROM intelligence
		WHERE ticker = $1 AND saas_client = $2
		ORDER BY generated_at DESC`, ticker, client)
	if err != nil {
		return nil, fmt.Errorf("load intelligence for %q: %w", ticker, err)
	}
	return scanRecords(rows)
}

func (s *Postgres) SignalsFor(ctx context.Context, client string) ([]IntelligenceRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ticker, company_name, saas_client, signal_type, summary, filing_date, payload, generated_at
		FROM intelligence
		WHERE saas_client = $1
		ORDER BY generated_at DESC`, client)
	if err != nil {
		return nil, fmt.Errorf("load signals for %q: %w", client, err)
	}
	return scanRecords(rows)
}

func (s *Postgres) Close() error {
	s.close()
	return nil
}

func scanCustomers(rows pgx.Rows) ([]intel.Customer, error) {
	defer rows.Close()
	var out []intel.Customer
	for rows.Next() {
		var c intel.Customer
		err := rows.Scan(&c.CompanyName, &c.Ticker, &c.Industry,
			&c.SaaSClient, &c.Evidence, &c.LastSeen)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanRecords(rows pgx.Rows) ([]IntelligenceRecord, error) {
	defer rows.Close()
	var out []IntelligenceRecord
	for rows.Next() {
		var (
			rec IntelligenceRecord
			doc []byte
		)
		err := rows.Scan(&rec.Ticker, &rec.CompanyName, &rec.SaaSClient,
			&rec.SignalType, &rec.Summary, &rec.FilingDate, &doc, &rec.GeneratedAt)
		if err != nil {
			return nil, fmt.Errorf("scan intelligence: %w", err)
		}
		_ = json.Unmarshal(doc, &rec.Intelligence)
		out = append(out, rec)
	}
	return out, rows.Err()
}
