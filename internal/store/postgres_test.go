package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamaghna-docket/tickertape/internal/intel"
)

func TestPostgresSaveClientProfile(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresWithDB(mock)

	profile := intel.CompanyProfile{Name: "Stripe", Website: "https://stripe.com", Industry: "Fintech"}
	doc, err := json.Marshal(profile)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO saas_clients").
		WithArgs(profile.Name, profile.Website, profile.Industry, doc).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveClientProfile(context.Background(), profile))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetClientProfileNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresWithDB(mock)

	mock.ExpectQuery("SELECT profile FROM saas_clients").
		WithArgs("Unknown").
		WillReturnRows(pgxmock.NewRows([]string{"profile"}))

	_, err = s.GetClientProfile(context.Background(), "Unknown")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertCustomers(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresWithDB(mock)
	seen := time.Unix(1700000000, 0).UTC()

	mock.ExpectExec("INSERT INTO enterprise_customers").
		WithArgs("Stripe", "Shopify", "SHOP", "E-commerce", "case study", seen).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = s.UpsertCustomers(context.Background(), "Stripe", []intel.Customer{
		{CompanyName: "Shopify", Ticker: "SHOP", Industry: "E-commerce", Evidence: "case study", LastSeen: seen},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCustomersForScansRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresWithDB(mock)
	seen := time.Unix(1700000000, 0).UTC()

	rows := pgxmock.NewRows([]string{
		"company_name", "ticker", "industry", "saas_client", "evidence", "last_seen",
	}).AddRow("Shopify", "SHOP", "E-commerce", "Stripe", "case study", seen)

	mock.ExpectQuery("SELECT company_name, ticker").
		WithArgs("Stripe").
		WillReturnRows(rows)

	customers, err := s.CustomersFor(context.Background(), "Stripe", 0)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "SHOP", customers[0].Ticker)
	assert.Equal(t, seen, customers[0].LastSeen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSignalsFor(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresWithDB(mock)
	now := time.Unix(1700000000, 0).UTC()

	payload, err := json.Marshal(intel.Intelligence{OpportunityType: "upsell"})
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{
		"ticker", "company_name", "saas_client", "signal_type",
		"summary", "filing_date", "payload", "generated_at",
	}).AddRow("SHOP", "Shopify", "Stripe", "expansion", "new DC", "2026-08-01", payload, now)

	mock.ExpectQuery("SELECT ticker, company_name").
		WithArgs("Stripe").
		WillReturnRows(rows)

	recs, err := s.SignalsFor(context.Background(), "Stripe")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "upsell", recs[0].Intelligence.OpportunityType)
	require.NoError(t, mock.ExpectationsWereMet())
}
