package research

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/intel"
)

// EDGAR limits how many recent filings we process per ticker; older 8-Ks
// rarely carry actionable signals.
const maxFilingsPerTicker = 5

// EdgarConfig configures the SEC EDGAR client. Identity is required by
// the SEC fair-access policy and is sent as the User-Agent.
type EdgarConfig struct {
	Identity string
	// FilesBaseURL and DataBaseURL override the SEC endpoints; tests
	// point them at a local server.
	FilesBaseURL string
	DataBaseURL  string
	Timeout      time.Duration
}

// Edgar retrieves recent 8-K filings for a ticker from SEC EDGAR. It
// satisfies intel.FilingSource.
type Edgar struct {
	http         *resty.Client
	filesBaseURL string
	dataBaseURL  string
	log          *zap.Logger

	mu   sync.Mutex
	ciks map[string]string // ticker -> zero-padded CIK
}

// NewEdgar builds a client for the SEC endpoints.
func NewEdgar(cfg EdgarConfig, log *zap.Logger) *Edgar {
	if log == nil {
		log = zap.NewNop()
	}
	filesBaseURL := strings.TrimRight(cfg.FilesBaseURL, "/")
	if filesBaseURL == "" {
		filesBaseURL = "https://www.sec.gov"
	}
	dataBaseURL := strings.TrimRight(cfg.DataBaseURL, "/")
	if dataBaseURL == "" {
		dataBaseURL = "https://data.sec.gov"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	http := resty.New().
		SetHeader("User-Agent", cfg.Identity).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})

	return &Edgar{
		http:         http,
		filesBaseURL: filesBaseURL,
		dataBaseURL:  dataBaseURL,
		log:          log,
		ciks:         make(map[string]string),
	}
}

// RecentFilings implements intel.FilingSource. It returns up to five of
// the most recent 8-K filings with their extracted text. Filings whose
// documents cannot be fetched are skipped.
func (e *Edgar) RecentFilings(ctx context.Context, ticker string) ([]intel.Filing, error) {
	ticker = strings.ToUpper(ticker)
	cik, err := e.lookupCIK(ctx, ticker)
	if err != nil {
		return nil, err
	}

	resp, err := e.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s/submissions/CIK%s.json", e.dataBaseURL, cik))
	if err != nil {
		return nil, fmt.Errorf("fetch submissions for %s: %w", ticker, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("fetch submissions for %s: status %d", ticker, resp.StatusCode())
	}

	var doc struct {
		Name    string `json:"name"`
		Filings struct {
			Recent struct {
				AccessionNumber []string `json:"accessionNumber"`
				FilingDate      []string `json:"filingDate"`
				Form            []string `json:"form"`
				PrimaryDocument []string `json:"primaryDocument"`
				Items           []string `json:"items"`
			} `json:"recent"`
		} `json:"filings"`
	}
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("decode submissions for %s: %w", ticker, err)
	}

	recent := doc.Filings.Recent
	var filings []intel.Filing
	for i := range recent.Form {
		if len(filings) == maxFilingsPerTicker {
			break
		}
		if recent.Form[i] != "8-K" {
			continue
		}

		filedAt, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil {
			continue
		}
		accession := strings.ReplaceAll(recent.AccessionNumber[i], "-", "")
		docURL := fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s",
			e.filesBaseURL, strings.TrimLeft(cik, "0"), accession, recent.PrimaryDocument[i])

		text, err := e.fetchDocument(ctx, docURL)
		if err != nil {
			e.log.Debug("skipping unreadable filing",
				zap.String("ticker", ticker), zap.String("url", docURL), zap.Error(err))
			continue
		}

		var items []string
		if i < len(recent.Items) && recent.Items[i] != "" {
			items = strings.Split(recent.Items[i], ",")
		}

		filings = append(filings, intel.Filing{
			Company: doc.Name,
			Ticker:  ticker,
			FiledAt: filedAt,
			URL:     docURL,
			Items:   items,
			Text:    text,
		})
	}
	return filings, nil
}

// lookupCIK resolves a ticker to its zero-padded CIK, caching the SEC's
// full company-ticker table on first use.
func (e *Edgar) lookupCIK(ctx context.Context, ticker string) (string, error) {
	key := strings.ToUpper(ticker)

	e.mu.Lock()
	cik, ok := e.ciks[key]
	e.mu.Unlock()
	if ok {
		return cik, nil
	}

	resp, err := e.http.R().
		SetContext(ctx).
		Get(e.filesBaseURL + "/files/company_tickers.json")
	if err != nil {
		return "", fmt.Errorf("fetch ticker table: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("fetch ticker table: status %d", resp.StatusCode())
	}

	var table map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal(resp.Body(), &table); err != nil {
		return "", fmt.Errorf("decode ticker table: %w", err)
	}

	e.mu.Lock()
	for _, entry := range table {
		e.ciks[strings.ToUpper(entry.Ticker)] = fmt.Sprintf("%010d", entry.CIK)
	}
	cik, ok = e.ciks[key]
	e.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("unknown ticker %q", ticker)
	}
	return cik, nil
}

func (e *Edgar) fetchDocument(ctx context.Context, url string) (string, error) {
	resp, err := e.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("status %d", resp.StatusCode())
	}
	return StripHTML(string(resp.Body())), nil
}

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]+>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// StripHTML flattens an HTML document to whitespace-normalized text.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}
	text := scriptRe.ReplaceAllString(html, " ")
	text = tagRe.ReplaceAllString(text, " ")
	text = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&#160;", " ").Replace(text)
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}
