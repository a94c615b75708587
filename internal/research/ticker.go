package research

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

const tickerInstructions = `Find stock ticker for company name.

Search: "[Company Name] stock ticker"
Return: Ticker symbol (e.g., TSLA) or NOT_PUBLIC if private.`

// TickerResolver maps company names to stock tickers via the LLM. It
// satisfies intel.TickerResolver.
type TickerResolver struct {
	chat *ChatClient
	log  *zap.Logger
}

// NewTickerResolver wraps a chat client.
func NewTickerResolver(chat *ChatClient, log *zap.Logger) *TickerResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &TickerResolver{chat: chat, log: log}
}

// Resolve returns the ticker for a company, or ok=false when the company
// is private or the answer does not look like a ticker symbol.
func (t *TickerResolver) Resolve(ctx context.Context, company string) (string, bool, error) {
	query := fmt.Sprintf("Stock ticker for %s? Return ONLY ticker or NOT_PUBLIC", company)
	answer, err := t.chat.Complete(ctx, tickerInstructions, query, false)
	if err != nil {
		return "", false, err
	}

	ticker := strings.ToUpper(strings.TrimSpace(answer))
	if strings.Contains(ticker, "NOT") || strings.Contains(ticker, "PRIVATE") || len(ticker) > 6 {
		return "", false, nil
	}
	if len(ticker) >= 1 && len(ticker) <= 5 && isAlpha(ticker) {
		t.log.Debug("resolved ticker", zap.String("company", company), zap.String("ticker", ticker))
		return ticker, true, nil
	}
	return "", false, nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
