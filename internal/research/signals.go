package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/intel"
)

const (
	// Filings shorter than this carry no analyzable narrative.
	minFilingTextLen = 100
	// Filing text is truncated before prompting to bound token cost.
	maxFilingTextLen = 50000
)

const detectorSystem = `Extract B2B buying signals from SEC filing.

Signal types: executive_hire, funding_round, acquisition, expansion, partnership, ipo, revenue_growth, product_launch, technology_investment, restructuring

Return JSON:
{
  "signals": [
    {
      "signal_type": "executive_hire",
      "confidence": 0.85,
      "summary": "Brief description",
      "key_details": {"names": "...", "amount": "..."}
    }
  ]
}

Return {"signals": []} if none found.`

// SignalDetector extracts buying signals from filing text via the LLM.
// It satisfies intel.SignalDetector.
type SignalDetector struct {
	chat *ChatClient
	log  *zap.Logger
}

// NewSignalDetector wraps a chat client.
func NewSignalDetector(chat *ChatClient, log *zap.Logger) *SignalDetector {
	if log == nil {
		log = zap.NewNop()
	}
	return &SignalDetector{chat: chat, log: log}
}

// Detect returns the buying signals found in one filing. Filings with too
// little text yield no signals and no error.
func (d *SignalDetector) Detect(ctx context.Context, filing intel.Filing) ([]intel.Signal, error) {
	text := filing.Text
	if len(text) < minFilingTextLen {
		return nil, nil
	}
	if len(text) > maxFilingTextLen {
		text = text[:maxFilingTextLen]
	}

	prompt := fmt.Sprintf(`Company: %s (%s)
Date: %s
Items: %s

%s

Extract signals:`,
		filing.Company, filing.Ticker,
		filing.FiledAt.Format("2006-01-02"),
		strings.Join(filing.Items, ", "),
		text)

	content, err := d.chat.Complete(ctx, detectorSystem, prompt, true)
	if err != nil {
		return nil, fmt.Errorf("detect signals in %s filing: %w", filing.Ticker, err)
	}

	var parsed struct {
		Signals []struct {
			SignalType string            `json:"signal_type"`
			Confidence float64           `json:"confidence"`
			Summary    string            `json:"summary"`
			KeyDetails map[string]string `json:"key_details"`
		} `json:"signals"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil {
		return nil, fmt.Errorf("decode signals for %s: %w", filing.Ticker, err)
	}

	signals := make([]intel.Signal, 0, len(parsed.Signals))
	for _, sig := range parsed.Signals {
		signals = append(signals, intel.Signal{
			Type:       sig.SignalType,
			Confidence: sig.Confidence,
			Summary:    sig.Summary,
			KeyDetails: sig.KeyDetails,
			FilingDate: filing.FiledAt,
			Company:    filing.Company,
			Ticker:     filing.Ticker,
			FilingURL:  filing.URL,
		})
	}
	d.log.Debug("signals detected",
		zap.String("ticker", filing.Ticker), zap.Int("count", len(signals)))
	return signals, nil
}
