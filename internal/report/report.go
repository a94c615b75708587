// Package report renders intelligence records as plain-text reports for
// account teams.
package report

import (
	"fmt"
	"strings"

	"github.com/tamaghna-docket/tickertape/internal/intel"
)

const rule = "================================================================================"

// Render formats one intelligence record as a human-readable report.
func Render(in intel.Intelligence) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\nCUSTOMER INTELLIGENCE REPORT\nFor: %s\n%s\n\n", rule, in.SaaSClient, rule)
	fmt.Fprintf(&b, "YOUR CUSTOMER: %s (%s)\n\n", in.Customer.CompanyName, in.Customer.Ticker)

	fmt.Fprintf(&b, "SIGNAL: %s\n", strings.ToUpper(strings.ReplaceAll(in.Signal.Type, "_", " ")))
	fmt.Fprintf(&b, "Date: %s\n", in.Signal.FilingDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Summary: %s\n\n", in.Signal.Summary)

	fmt.Fprintf(&b, "ANALYSIS:\n%s\n\n", in.SignalImplications)
	fmt.Fprintf(&b, "RELATIONSHIP IMPACT:\n%s\n\n", in.RelationshipImpact)

	fmt.Fprintf(&b, "OPPORTUNITY: %s\n", strings.ToUpper(in.OpportunityType))
	fmt.Fprintf(&b, "Urgency: %s\n", urgencyLabel(in.UrgencyScore))
	fmt.Fprintf(&b, "Value: %s\n", in.EstimatedValue)

	if len(in.RelevantProducts) > 0 || len(in.MatchingICPSegments) > 0 {
		fmt.Fprintf(&b, "\n%s\nCONTEXT & FIT ANALYSIS\n%s\n", rule, rule)
		if len(in.RelevantProducts) > 0 {
			fmt.Fprintf(&b, "\nRelevant Products: %s\n", strings.Join(in.RelevantProducts, ", "))
		}
		if len(in.RelevantPricingTiers) > 0 {
			fmt.Fprintf(&b, "Suggested Pricing Tiers: %s\n", strings.Join(in.RelevantPricingTiers, ", "))
		}
		if len(in.MatchingICPSegments) > 0 {
			fmt.Fprintf(&b, "Matching ICP Segments: %s\n", strings.Join(in.MatchingICPSegments, ", "))
		}
	}

	if len(in.PersonaInsights) > 0 {
		fmt.Fprintf(&b, "\n%s\nPERSONA-SPECIFIC INSIGHTS\n%s\n", rule, rule)
		for _, insight := range in.PersonaInsights {
			fmt.Fprintf(&b, "\n%s (Relevance: %.1f/1.0)\n", insight.PersonaRole, insight.RelevanceScore)
			fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 80))
			fmt.Fprintf(&b, "\nWhy This Matters:\n%s\n", insight.WhyThisMatters)
			if len(insight.TalkingPoints) > 0 {
				fmt.Fprintf(&b, "\nTalking Points:\n")
				for i, point := range insight.TalkingPoints {
					fmt.Fprintf(&b, "  %d. %s\n", i+1, point)
				}
			}
			fmt.Fprintf(&b, "\nRecommended Products: %s\n", strings.Join(insight.RecommendedProducts, ", "))
			fmt.Fprintf(&b, "\nKey Metrics to Highlight: %s\n", strings.Join(insight.KeyMetrics, ", "))
			fmt.Fprintf(&b, "\nSuggested Approach:\n%s\n", insight.SuggestedApproach)
		}
	}

	fmt.Fprintf(&b, "\n%s\nRECOMMENDED ACTION\n%s\n%s\n", rule, rule, in.RecommendedAction)
	fmt.Fprintf(&b, "\nSUGGESTED EMAIL:\n%s\n", in.SuggestedEmail)

	if len(in.TalkingPoints) > 0 {
		fmt.Fprintf(&b, "\nGENERAL TALKING POINTS:\n")
		for _, point := range in.TalkingPoints {
			fmt.Fprintf(&b, "  - %s\n", point)
		}
	}

	fmt.Fprintf(&b, "\nFiling: %s\n", in.Signal.FilingURL)
	fmt.Fprintf(&b, "Generated: %s\n", in.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Confidence: %.0f%%\n", in.ConfidenceScore*100)

	return b.String()
}

func urgencyLabel(score float64) string {
	switch {
	case score > 0.7:
		return "HIGH"
	case score > 0.4:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
