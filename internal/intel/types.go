// Package intel defines the domain model of the customer intelligence
// platform: SaaS client profiles, their enterprise customers, buying
// signals detected in regulatory filings, and the synthesized intelligence
// records account teams consume.
package intel

import "time"

// Product is one product offered by a SaaS client.
type Product struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	KeyFeatures    []string `json:"key_features"`
	UseCases       []string `json:"use_cases"`
	TargetPersonas []string `json:"target_personas"`
}

// PricingTier describes one pricing package.
type PricingTier struct {
	Name          string   `json:"name"`
	PriceRange    string   `json:"price_range"`
	TargetSegment string   `json:"target_segment"`
	KeyFeatures   []string `json:"key_features"`
	Limitations   []string `json:"limitations"`
}

// ICP is an ideal customer profile segment.
type ICP struct {
	SegmentName       string   `json:"segment_name"`
	CompanySize       string   `json:"company_size"`
	IndustryVerticals []string `json:"industry_verticals"`
	KeyPainPoints     []string `json:"key_pain_points"`
	BuyingTriggers    []string `json:"buying_triggers"`
	DecisionMakers    []string `json:"decision_makers"`
}

// Persona is a go-to-market buyer persona.
type Persona struct {
	RoleTitle      string   `json:"role_title"`
	Department     string   `json:"department"`
	SeniorityLevel string   `json:"seniority_level"`
	CoreFocusAreas []string `json:"core_focus_areas"`
	KeyMetrics     []string `json:"key_metrics"`
	PainPoints     []string `json:"pain_points"`
	BuyingSignals  []string `json:"buying_signals_they_care_about"`
}

// CompanyProfile is the structured record of an onboarded SaaS client.
// All research-derived fields are best-effort and may be empty.
type CompanyProfile struct {
	Name                   string        `json:"name"`
	Website                string        `json:"website"`
	Industry               string        `json:"industry"`
	ProductDescription     string        `json:"product_description"`
	TypicalCustomerProfile string        `json:"typical_customer_profile"`
	PricingModel           string        `json:"pricing_model"`
	KeyProducts            []string      `json:"key_products"`
	Products               []Product     `json:"products"`
	PricingTiers           []PricingTier `json:"pricing_tiers"`
	ICPs                   []ICP         `json:"ideal_customer_profiles"`
	Personas               []Persona     `json:"gtm_personas"`
	ExpansionOpportunities []string      `json:"expansion_opportunities"`
	ChurnIndicators        []string      `json:"churn_indicators"`
}

// CompanyMetadata is the scalar half of extracted research.
type CompanyMetadata struct {
	Industry               string `json:"industry"`
	ProductDescription     string `json:"product_description"`
	TypicalCustomerProfile string `json:"typical_customer_profile"`
	PricingModel           string `json:"pricing_model"`
}

// CompanyResearch is the fixed-shape result of parsing a research corpus.
// A zero value is a valid "nothing found" result.
type CompanyResearch struct {
	Metadata               CompanyMetadata `json:"company_metadata"`
	Products               []Product       `json:"products"`
	PricingTiers           []PricingTier   `json:"pricing_tiers"`
	ICPs                   []ICP           `json:"ideal_customer_profiles"`
	Personas               []Persona       `json:"gtm_personas"`
	ExpansionOpportunities []string        `json:"expansion_opportunities"`
	ChurnIndicators        []string        `json:"churn_indicators"`
}

// CustomerLead is a customer candidate produced by discovery, before
// ticker resolution.
type CustomerLead struct {
	CompanyName string `json:"company_name"`
	Evidence    string `json:"evidence"`
}

// Customer is an enterprise customer of a SaaS client that resolved to a
// public ticker. LastSeen is refreshed on every onboarding run that
// rediscovers it and drives the monitoring recency filter.
type Customer struct {
	CompanyName string    `json:"company_name"`
	Ticker      string    `json:"ticker"`
	Industry    string    `json:"industry"`
	SaaSClient  string    `json:"saas_client"`
	Evidence    string    `json:"evidence"`
	LastSeen    time.Time `json:"last_seen"`
}

// Filing is one regulatory filing with its extracted text.
type Filing struct {
	Company string    `json:"company"`
	Ticker  string    `json:"ticker"`
	FiledAt time.Time `json:"filed_at"`
	URL     string    `json:"url"`
	Items   []string  `json:"items"`
	Text    string    `json:"text"`
}

// Signal is a buying signal detected in a filing.
type Signal struct {
	Type       string            `json:"signal_type"`
	Confidence float64           `json:"confidence"`
	Summary    string            `json:"summary"`
	KeyDetails map[string]string `json:"key_details"`
	FilingDate time.Time         `json:"filing_date"`
	Company    string            `json:"company"`
	Ticker     string            `json:"ticker"`
	FilingURL  string            `json:"filing_url"`
}

// PersonaInsight is the slice of an intelligence record tailored to one
// buyer persona.
type PersonaInsight struct {
	PersonaRole         string   `json:"persona_role"`
	RelevanceScore      float64  `json:"relevance_score"`
	WhyThisMatters      string   `json:"why_this_matters"`
	TalkingPoints       []string `json:"specific_talking_points"`
	RecommendedProducts []string `json:"recommended_products"`
	SuggestedApproach   string   `json:"suggested_approach"`
	KeyMetrics          []string `json:"key_metrics_to_highlight"`
}

// Intelligence is the synthesized, persona-aware analysis of one signal in
// the context of one customer relationship.
type Intelligence struct {
	Signal     Signal   `json:"signal"`
	Customer   Customer `json:"enterprise_customer"`
	SaaSClient string   `json:"saas_client"`

	SignalImplications string  `json:"signal_implications"`
	RelationshipImpact string  `json:"relationship_impact"`
	OpportunityType    string  `json:"opportunity_type"`
	UrgencyScore       float64 `json:"urgency_score"`
	EstimatedValue     string  `json:"estimated_opportunity_value"`

	RelevantProducts     []string `json:"relevant_products"`
	RelevantPricingTiers []string `json:"relevant_pricing_tiers"`
	MatchingICPSegments  []string `json:"matching_icp_segments"`

	PersonaInsights []PersonaInsight `json:"persona_insights"`

	RecommendedAction string   `json:"recommended_action"`
	SuggestedProducts []string `json:"suggested_products"`
	SuggestedEmail    string   `json:"suggested_email"`
	TalkingPoints     []string `json:"talking_points"`

	GeneratedAt     time.Time `json:"generated_at"`
	ConfidenceScore float64   `json:"confidence_score"`
}
