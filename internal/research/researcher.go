package research

import (
	"context"

	"go.uber.org/zap"
)

const researcherInstructions = `You are a B2B SaaS market research analyst.

Search for detailed information about SaaS companies including:
- Product features, capabilities, and use cases
- Pricing tiers and packaging
- Target customer profiles and ICPs
- GTM personas and their priorities
- Competitive positioning

Focus on factual, recent information from company websites, press releases,
analyst reports, and industry publications.`

// Researcher answers free-form research queries with prose. It satisfies
// intel.Researcher.
type Researcher struct {
	chat *ChatClient
	log  *zap.Logger
}

// NewResearcher wraps a chat client.
func NewResearcher(chat *ChatClient, log *zap.Logger) *Researcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Researcher{chat: chat, log: log}
}

// Research runs one query and returns the model's prose answer.
func (r *Researcher) Research(ctx context.Context, query string) (string, error) {
	r.log.Debug("research query", zap.String("query", query))
	return r.chat.Complete(ctx, researcherInstructions, query, false)
}
