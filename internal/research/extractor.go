package research

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/intel"
)

const extractorSystem = "You are a B2B SaaS market research analyst. Parse research data into structured JSON."

const extractorShape = `Return JSON with this EXACT structure:
{
  "company_metadata": {
    "industry": "Industry category (e.g., CRM, Marketing Automation)",
    "product_description": "One-sentence description of what the company does",
    "typical_customer_profile": "Typical customer (e.g., Enterprise 1000+ employees)",
    "pricing_model": "General pricing range (e.g., $50k-$500k ARR)"
  },
  "products": [
    {
      "name": "Product Name",
      "description": "What it does",
      "key_features": ["Feature 1", "Feature 2"],
      "use_cases": ["Use case 1", "Use case 2"],
      "target_personas": ["Persona 1", "Persona 2"]
    }
  ],
  "pricing_tiers": [
    {
      "name": "Tier Name (e.g., Professional, Enterprise)",
      "price_range": "$X-Y per user/month or $Xk-Yk ARR",
      "target_segment": "SMB/Mid-market/Enterprise",
      "key_features": ["Feature 1", "Feature 2"],
      "limitations": ["Limitation 1", "Limitation 2"]
    }
  ],
  "ideal_customer_profiles": [
    {
      "segment_name": "Segment name",
      "company_size": "Employee count range",
      "industry_verticals": ["Industry 1", "Industry 2"],
      "key_pain_points": ["Pain 1", "Pain 2"],
      "buying_triggers": ["Trigger 1", "Trigger 2"],
      "decision_makers": ["Role 1", "Role 2"]
    }
  ],
  "gtm_personas": [
    {
      "role_title": "e.g., VP of Sales, CTO",
      "department": "e.g., Sales, Engineering",
      "seniority_level": "C-level/VP/Director/Manager",
      "core_focus_areas": ["Focus 1", "Focus 2"],
      "key_metrics": ["Metric 1", "Metric 2"],
      "pain_points": ["Pain 1", "Pain 2"],
      "buying_signals_they_care_about": ["Signal 1", "Signal 2"]
    }
  ],
  "expansion_opportunities": ["Opportunity 1", "Opportunity 2"],
  "churn_indicators": ["Indicator 1", "Indicator 2"]
}

Extract as much detail as possible. If information is not found, provide best estimates based on typical B2B SaaS patterns.`

// Extractor parses a raw research corpus into structured company data.
// Extraction is best-effort: any failure yields an empty result, never an
// error, so onboarding always proceeds.
type Extractor struct {
	chat *ChatClient
	log  *zap.Logger
}

// NewExtractor wraps a chat client.
func NewExtractor(chat *ChatClient, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{chat: chat, log: log}
}

// Extract implements intel.Extractor.
func (e *Extractor) Extract(ctx context.Context, company string, corpus map[string]string) intel.CompanyResearch {
	doc, err := json.MarshalIndent(corpus, "", "  ")
	if err != nil {
		return intel.CompanyResearch{}
	}

	prompt := fmt.Sprintf(`Parse this B2B SaaS company research into structured JSON.

Company: %s

RESEARCH DATA:
%s

%s`, company, doc, extractorShape)

	content, err := e.chat.Complete(ctx, extractorSystem, prompt, true)
	if err != nil {
		e.log.Warn("research extraction failed", zap.String("company", company), zap.Error(err))
		return intel.CompanyResearch{}
	}

	var parsed intel.CompanyResearch
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		e.log.Warn("research extraction returned malformed JSON",
			zap.String("company", company), zap.Error(err))
		return intel.CompanyResearch{}
	}
	return parsed
}
