package model

import "time"

// LeadStatus represents the processing state of a scraped lead.
type LeadStatus string

const (
	LeadStatusNew                LeadStatus = "new_raw_lead"
	LeadStatusAnalyzed           LeadStatus = "analyzed"
	LeadStatusAnalysisFailed     LeadStatus = "analysis_failed"
	LeadStatusOpportunityCreated LeadStatus = "opportunity_created"
	LeadStatusThemingFailed      LeadStatus = "theming_failed"
)

// leadTransitions is the allowed status transition table for leads.
var leadTransitions = map[LeadStatus][]LeadStatus{
	LeadStatusNew:      {LeadStatusAnalyzed, LeadStatusAnalysisFailed},
	LeadStatusAnalyzed: {LeadStatusOpportunityCreated, LeadStatusThemingFailed},
}

// CanTransitionLead reports whether a lead may move from one status to another.
func CanTransitionLead(from, to LeadStatus) bool {
	for _, allowed := range leadTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// RawItem is one scraped forum post or comment plus any AI-derived analysis.
type RawItem struct {
	ID               string        `json:"id"`
	ExternalID       string        `json:"external_id"`
	ParentExternalID string        `json:"parent_external_id,omitempty"`
	Permalink        string        `json:"permalink,omitempty"`
	Subreddit        string        `json:"subreddit"`
	Title            string        `json:"title"`
	Body             string        `json:"body"`
	IsComment        bool          `json:"is_comment"`
	Author           string        `json:"author,omitempty"`
	Score            int           `json:"score"`
	NumComments      int           `json:"num_comments"`
	CreatedUTC       int64         `json:"created_utc"`
	Status           LeadStatus    `json:"status"`
	SessionID        string        `json:"session_id,omitempty"`
	Analysis         *LeadAnalysis `json:"analysis,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Quote is a verbatim excerpt supporting an extracted pain point.
type Quote struct {
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
}

// FinancialIndicators captures money signals found in a lead's text.
type FinancialIndicators struct {
	AmountsMentioned []string `json:"amounts_mentioned,omitempty"`
	WillingToPay     string   `json:"willing_to_pay,omitempty"` // Yes, No, Maybe, Unknown
	CostOfProblem    string   `json:"cost_of_problem,omitempty"`
}

// LeadAnalysis is the structured payload produced by problem extraction.
type LeadAnalysis struct {
	ProblemSummary      string              `json:"problem_summary"`
	ProblemDomain       string              `json:"problem_domain"`
	SupportingQuotes    []Quote             `json:"supporting_quotes,omitempty"`
	UrgencyLevel        string              `json:"urgency_level,omitempty"` // Low, Medium, High
	FinancialIndicators FinancialIndicators `json:"financial_indicators,omitempty"`
	SaaSPotential       string              `json:"saas_potential_flag,omitempty"` // Yes, No, Uncertain
	SourceURL           string              `json:"source_url,omitempty"`
}

// HasProblem reports whether the analysis found a concrete pain point.
// The extraction prompt instructs the model to answer "No clear problem"
// when nothing actionable is present.
func (a *LeadAnalysis) HasProblem() bool {
	if a == nil {
		return false
	}
	return a.ProblemSummary != "" && a.ProblemSummary != "No clear problem"
}

// DomainGroup is an in-memory grouping of analyzed leads sharing a
// problem domain. It is never persisted.
type DomainGroup struct {
	Domain string
	Items  []RawItem
}

// Theme is a consolidated merge of one or more domain groups whose
// domains were judged semantically equivalent. Transient between theme
// consolidation and opportunity creation.
type Theme struct {
	Title   string
	Summary string
	Items   []RawItem
}

// ItemIDs returns the IDs of the theme's member items.
func (t Theme) ItemIDs() []string {
	ids := make([]string, len(t.Items))
	for i, item := range t.Items {
		ids[i] = item.ID
	}
	return ids
}
