package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tamaghna-docket/tickertape/internal/intel"
)

const analyzerSystem = "You are an elite B2B SaaS account strategist with deep knowledge of product positioning, ICP targeting, and persona-based selling."

// Analyzer synthesizes an intelligence record from one signal, the
// customer it concerns, and the SaaS client's researched profile. It
// satisfies intel.Analyzer. Unlike detection, analysis failures propagate:
// a monitoring run must not silently lose intelligence.
type Analyzer struct {
	chat *ChatClient
}

// NewAnalyzer wraps a chat client.
func NewAnalyzer(chat *ChatClient) *Analyzer {
	return &Analyzer{chat: chat}
}

// Analyze implements intel.Analyzer.
func (a *Analyzer) Analyze(ctx context.Context, signal intel.Signal, customer intel.Customer, client intel.CompanyProfile) (intel.Intelligence, error) {
	details, _ := json.MarshalIndent(signal.KeyDetails, "", "  ")

	prompt := fmt.Sprintf(`Analyze this buying signal for a B2B SaaS account team with DEEP contextual insights.

YOUR CUSTOMER (SaaS company):
%s - %s

PRODUCTS & FEATURES:
%s

PRICING TIERS:
%s

IDEAL CUSTOMER PROFILES:
%s

GTM PERSONAS (Decision Makers):
%s

THEIR CUSTOMER (you're analyzing):
%s (%s)
Industry: %s

BUYING SIGNAL:
Type: %s
Date: %s
Summary: %s
Key Details: %s

YOUR TASK:
Analyze this signal with DEEP understanding of products, features, ICP fit, and personas.
For EACH GTM persona, explain WHY this signal matters to THEM specifically.

Return JSON with this EXACT structure:
{
  "signal_implications": "What this signal means for the business",
  "relationship_impact": "How this impacts the SaaS relationship",
  "opportunity_type": "expansion|retention|cross_sell|renewal|at_risk",
  "urgency_score": 0.0-1.0,
  "estimated_opportunity_value": "$XXk-YYk ARR",

  "relevant_products": ["Product names that fit this signal/situation"],
  "relevant_pricing_tiers": ["Pricing tier names that match the signal"],
  "matching_icp_segments": ["ICP segment names that this customer matches"],

  "persona_insights": [
    {
      "persona_role": "Role title from GTM personas",
      "relevance_score": 0.0-1.0,
      "why_this_matters": "Why THIS specific signal matters to THIS persona",
      "specific_talking_points": ["Point 1 tailored for this persona", "Point 2"],
      "recommended_products": ["Products to pitch to this persona"],
      "suggested_approach": "How to approach this persona given the signal",
      "key_metrics_to_highlight": ["Metrics this persona cares about"]
    }
  ],

  "recommended_action": "Specific action for account manager",
  "suggested_products": ["Overall product recommendations"],
  "suggested_email": "Email template for account manager",
  "talking_points": ["General talking points"],
  "confidence_score": 0.0-1.0
}

CRITICAL: Generate persona_insights for ALL relevant GTM personas. Make each insight HIGHLY specific to:
1. The persona's role and focus areas
2. The specific signal type and details
3. The product features that solve their pain points
4. The buying triggers that match this signal`,
		client.Name, client.ProductDescription,
		productsContext(client),
		pricingContext(client),
		icpContext(client),
		personasContext(client),
		customer.CompanyName, customer.Ticker, customer.Industry,
		signal.Type, signal.FilingDate.Format("2006-01-02"), signal.Summary, details)

	content, err := a.chat.Complete(ctx, analyzerSystem, prompt, true)
	if err != nil {
		return intel.Intelligence{}, fmt.Errorf("analyze %s signal for %s: %w", signal.Type, customer.CompanyName, err)
	}

	var analysis intel.Intelligence
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return intel.Intelligence{}, fmt.Errorf("decode analysis for %s: %w", customer.CompanyName, err)
	}

	analysis.Signal = signal
	analysis.Customer = customer
	analysis.SaaSClient = client.Name
	analysis.GeneratedAt = time.Now().UTC()
	return analysis, nil
}

func productsContext(client intel.CompanyProfile) string {
	if len(client.Products) == 0 {
		return "Products: " + strings.Join(client.KeyProducts, ", ")
	}
	var lines []string
	for _, p := range client.Products {
		lines = append(lines, fmt.Sprintf("• %s: %s", p.Name, p.Description))
		lines = append(lines, "  Features: "+strings.Join(head(p.KeyFeatures, 5), ", "))
		lines = append(lines, "  Use cases: "+strings.Join(head(p.UseCases, 3), ", "))
	}
	return strings.Join(lines, "\n")
}

func pricingContext(client intel.CompanyProfile) string {
	if len(client.PricingTiers) == 0 {
		return "Pricing: " + client.PricingModel
	}
	var lines []string
	for _, tier := range client.PricingTiers {
		lines = append(lines, fmt.Sprintf("• %s (%s) - Target: %s", tier.Name, tier.PriceRange, tier.TargetSegment))
		lines = append(lines, "  Features: "+strings.Join(head(tier.KeyFeatures, 3), ", "))
	}
	return strings.Join(lines, "\n")
}

func icpContext(client intel.CompanyProfile) string {
	if len(client.ICPs) == 0 {
		return "Typical Customer: " + client.TypicalCustomerProfile
	}
	var lines []string
	for _, icp := range client.ICPs {
		lines = append(lines, fmt.Sprintf("• %s (%s)", icp.SegmentName, icp.CompanySize))
		lines = append(lines, "  Industries: "+strings.Join(head(icp.IndustryVerticals, 3), ", "))
		lines = append(lines, "  Pain points: "+strings.Join(head(icp.KeyPainPoints, 3), ", "))
		lines = append(lines, "  Buying triggers: "+strings.Join(head(icp.BuyingTriggers, 3), ", "))
	}
	return strings.Join(lines, "\n")
}

func personasContext(client intel.CompanyProfile) string {
	if len(client.Personas) == 0 {
		return "GTM Personas: Not yet researched"
	}
	var lines []string
	for _, persona := range client.Personas {
		lines = append(lines, fmt.Sprintf("• %s (%s, %s)", persona.RoleTitle, persona.Department, persona.SeniorityLevel))
		lines = append(lines, "  Focus areas: "+strings.Join(head(persona.CoreFocusAreas, 3), ", "))
		lines = append(lines, "  Key metrics: "+strings.Join(head(persona.KeyMetrics, 3), ", "))
		lines = append(lines, "  Cares about signals: "+strings.Join(head(persona.BuyingSignals, 3), ", "))
	}
	return strings.Join(lines, "\n")
}

func head(list []string, n int) []string {
	if len(list) <= n {
		return list
	}
	return list[:n]
}
