package intel

import "context"

// Researcher answers a free-text research query with free-text prose.
type Researcher interface {
	Research(ctx context.Context, query string) (string, error)
}

// Extractor parses an unstructured research corpus into a fixed-shape
// record. It never fails the caller: on any error it returns a zero-value
// CompanyResearch.
type Extractor interface {
	Extract(ctx context.Context, company string, corpus map[string]string) CompanyResearch
}

// TickerResolver maps a company name to a public stock ticker. ok is
// false when the company is private or the symbol cannot be resolved.
type TickerResolver interface {
	Resolve(ctx context.Context, companyName string) (ticker string, ok bool, err error)
}

// FilingSource returns the most recent filings for a ticker, newest
// first, with text already extracted. Implementations cap the count.
type FilingSource interface {
	RecentFilings(ctx context.Context, ticker string) ([]Filing, error)
}

// SignalDetector extracts zero or more buying signals from a filing.
type SignalDetector interface {
	Detect(ctx context.Context, filing Filing) ([]Signal, error)
}

// Analyzer produces an intelligence record for one signal in the context
// of the customer relationship. It may fail; callers do not retry.
type Analyzer interface {
	Analyze(ctx context.Context, signal Signal, customer Customer, client CompanyProfile) (Intelligence, error)
}
