package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tamaghna-docket/tickertape/internal/intel"
)

// clientRow persists one onboarded SaaS client. The full profile is kept
// as a JSON document; only the columns used for lookups are split out.
type clientRow struct {
	Name      string `gorm:"primaryKey"`
	Website   string
	Industry  string
	Profile   string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (clientRow) TableName() string { return "saas_clients" }

type customerRow struct {
	ID          uint   `gorm:"primaryKey"`
	SaaSClient  string `gorm:"column:saas_client;uniqueIndex:idx_client_company"`
	CompanyName string `gorm:"uniqueIndex:idx_client_company"`
	Ticker      string
	Industry    string
	Evidence    string `gorm:"type:text"`
	LastSeen    time.Time
}

func (customerRow) TableName() string { return "enterprise_customers" }

type intelligenceRow struct {
	ID          uint   `gorm:"primaryKey"`
	Ticker      string `gorm:"index"`
	CompanyName string
	SaaSClient  string `gorm:"column:saas_client;index"`
	SignalType  string
	Summary     string `gorm:"type:text"`
	FilingDate  string
	Payload     string `gorm:"type:text"`
	GeneratedAt time.Time
}

func (intelligenceRow) TableName() string { return "intelligence" }

// SQLite is the default single-file backend.
type SQLite struct {
	db *gorm.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at path and migrates
// the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if err := db.AutoMigrate(&clientRow{}, &customerRow{}, &intelligenceRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) SaveClientProfile(ctx context.Context, profile intel.CompanyProfile) error {
	doc, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	row := clientRow{
		Name:     profile.Name,
		Website:  profile.Website,
		Industry: profile.Industry,
		Profile:  string(doc),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"website", "industry", "profile", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("save client %q: %w", profile.Name, err)
	}
	return nil
}

func (s *SQLite) GetClientProfile(ctx context.Context, name string) (intel.CompanyProfile, error) {
	var row clientRow
	err := s.db.WithContext(ctx).First(&row, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return intel.CompanyProfile{}, ErrNotFound
	}
	if err != nil {
		return intel.CompanyProfile{}, fmt.Errorf("load client %q: %w", name, err)
	}
	var profile intel.CompanyProfile
	if err := json.Unmarshal([]byte(row.Profile), &profile); err != nil {
		return intel.CompanyProfile{}, fmt.Errorf("decode client %q: %w", name, err)
	}
	return profile, nil
}

func (s *SQLite) ListClients(ctx context.Context) ([]ClientSummary, error) {
	var rows []clientRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out := make([]ClientSummary, 0, len(rows))
	for _, row := range rows {
		var profile intel.CompanyProfile
		_ = json.Unmarshal([]byte(row.Profile), &profile)
		var count int64
		s.db.WithContext(ctx).Model(&customerRow{}).
			Where("saas_client = ?", row.Name).Count(&count)
		out = append(out, ClientSummary{
			Name:          row.Name,
			ProductCount:  len(profile.Products),
			CustomerCount: int(count),
			OnboardedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

func (s *SQLite) UpsertCustomers(ctx context.Context, client string, customers []intel.Customer) error {
	for _, c := range customers {
		row := customerRow{
			SaaSClient:  client,
			CompanyName: c.CompanyName,
			Ticker:      c.Ticker,
			Industry:    c.Industry,
			Evidence:    c.Evidence,
			LastSeen:    c.LastSeen,
		}
		if row.LastSeen.IsZero() {
			row.LastSeen = time.Now().UTC()
		}
		err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "saas_client"}, {Name: "company_name"}},
				DoUpdates: clause.AssignmentColumns([]string{"ticker", "industry", "evidence", "last_seen"}),
			}).
			Create(&row).Error
		if err != nil {
			return fmt.Errorf("upsert customer %q: %w", c.CompanyName, err)
		}
	}
	return nil
}

func (s *SQLite) CustomersFor(ctx context.Context, client string, maxAgeDays int) ([]intel.Customer, error) {
	q := s.db.WithContext(ctx).
		Where("saas_client = ? AND ticker <> ''", client)
	if maxAgeDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays)
		q = q.Where("last_seen >= ?", cutoff)
	}
	var rows []customerRow
	if err := q.Order("company_name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load customers for %q: %w", client, err)
	}
	return customersFromRows(rows), nil
}

func (s *SQLite) AllCustomers(ctx context.Context, client string) ([]intel.Customer, error) {
	var rows []customerRow
	err := s.db.WithContext(ctx).
		Where("saas_client = ?", client).
		Order("company_name").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load customers for %q: %w", client, err)
	}
	return customersFromRows(rows), nil
}

func (s *SQLite) Stats(ctx context.Context, client string) (CustomerStats, error) {
	rows, err := s.AllCustomers(ctx, client)
	if err != nil {
		return CustomerStats{}, err
	}
	return bucketByRecency(rows, time.Now().UTC()), nil
}

func (s *SQLite) SaveIntelligence(ctx context.Context, rec IntelligenceRecord) error {
	doc, err := json.Marshal(rec.Intelligence)
	if err != nil {
		return fmt.Errorf("encode intelligence: %w", err)
	}
	row := intelligenceRow{
		Ticker:      rec.Ticker,
		CompanyName: rec.CompanyName,
		SaaSClient:  rec.SaaSClient,
		SignalType:  rec.SignalType,
		Summary:     rec.Summary,
		FilingDate:  rec.FilingDate,
		Payload:     string(doc),
		GeneratedAt: rec.GeneratedAt,
	}
	if row.GeneratedAt.IsZero() {
		row.GeneratedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save intelligence for %q: %w", rec.Ticker, err)
	}
	return nil
}

func (s *SQLite) IntelligenceFor(ctx context.Context, ticker, client string) ([]IntelligenceRecord, error) {
	var rows []intelligenceRow
	err := s.db.WithContext(ctx).
		Where("ticker = ? AND saas_client = ?", ticker, client).
		Order("generated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load intelligence for %q: %w", ticker, err)
	}
	return recordsFromRows(rows), nil
}

func (s *SQLite) SignalsFor(ctx context.Context, client string) ([]IntelligenceRecord, error) {
	var rows []intelligenceRow
	err := s.db.WithContext(ctx).
		Where("saas_client = ?", client).
		Order("generated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load signals for %q: %w", client, err)
	}
	return recordsFromRows(rows), nil
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func customersFromRows(rows []customerRow) []intel.Customer {
	out := make([]intel.Customer, 0, len(rows))
	for _, row := range rows {
		out = append(out, intel.Customer{
			CompanyName: row.CompanyName,
			Ticker:      row.Ticker,
			Industry:    row.Industry,
			SaaSClient:  row.SaaSClient,
			Evidence:    row.Evidence,
			LastSeen:    row.LastSeen,
		})
	}
	return out
}

func recordsFromRows(rows []intelligenceRow) []IntelligenceRecord {
	out := make([]IntelligenceRecord, 0, len(rows))
	for _, row := range rows {
		rec := IntelligenceRecord{
			Ticker:      row.Ticker,
			CompanyName: row.CompanyName,
			SaaSClient:  row.SaaSClient,
			SignalType:  row.SignalType,
			Summary:     row.Summary,
			FilingDate:  row.FilingDate,
			GeneratedAt: row.GeneratedAt,
		}
		_ = json.Unmarshal([]byte(row.Payload), &rec.Intelligence)
		out = append(out, rec)
	}
	return out
}

// bucketByRecency is shared by both backends; postgres computes the same
// buckets in SQL but tests exercise this path.
func bucketByRecency(customers []intel.Customer, now time.Time) CustomerStats {
	stats := CustomerStats{Total: len(customers)}
	for _, c := range customers {
		age := now.Sub(c.LastSeen)
		switch {
		case age <= 7*24*time.Hour:
			stats.Last7Days++
		case age <= 30*24*time.Hour:
			stats.Last30Days++
		case age <= 90*24*time.Hour:
			stats.Last90Days++
		default:
			stats.Older++
		}
	}
	return stats
}
