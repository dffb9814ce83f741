package model

import "time"

// OpportunityStatus represents the lifecycle state of an opportunity.
type OpportunityStatus string

const (
	OpportunityStatusDefined          OpportunityStatus = "opportunity_defined"
	OpportunityStatusValidated        OpportunityStatus = "validated"
	OpportunityStatusRejected         OpportunityStatus = "rejected"
	OpportunityStatusValidationFailed OpportunityStatus = "validation_failed"
	OpportunityStatusSolutionsReady   OpportunityStatus = "solutions_ready"
	OpportunityStatusSolutionFailed   OpportunityStatus = "solution_failed"
	OpportunityStatusCompleted        OpportunityStatus = "completed"
)

// opportunityTransitions is the allowed status transition table.
var opportunityTransitions = map[OpportunityStatus][]OpportunityStatus{
	OpportunityStatusDefined:        {OpportunityStatusValidated, OpportunityStatusRejected, OpportunityStatusValidationFailed},
	OpportunityStatusValidated:      {OpportunityStatusSolutionsReady, OpportunityStatusSolutionFailed},
	OpportunityStatusSolutionsReady: {OpportunityStatusCompleted},
}

// CanTransitionOpportunity reports whether an opportunity may move from
// one status to another.
func CanTransitionOpportunity(from, to OpportunityStatus) bool {
	for _, allowed := range opportunityTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Recommendation verdicts returned by validation.
const (
	RecommendationGo   = "Go"
	RecommendationNoGo = "No-Go"
)

// Score bounds for validation sub-scores. Out-of-range model output is
// clamped into this range.
const (
	ScoreMin = 1
	ScoreMax = 10
)

// ClampScore forces a validation sub-score into [ScoreMin, ScoreMax].
func ClampScore(n int) int {
	if n < ScoreMin {
		return ScoreMin
	}
	if n > ScoreMax {
		return ScoreMax
	}
	return n
}

// Opportunity is a scored, evidence-backed candidate business idea
// derived from a theme of related leads.
type Opportunity struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	ProblemSummary     string            `json:"problem_summary"`
	Description        string            `json:"description"`
	TargetUser         string            `json:"target_user"`
	ValueProposition   string            `json:"value_proposition"`
	BasedOnLeadIDs     []string          `json:"based_on_lead_ids"`
	Status             OpportunityStatus `json:"status"`
	MonetizationScore  int               `json:"monetization_score,omitempty"`
	MarketSizeScore    int               `json:"market_size_score,omitempty"`
	FeasibilityScore   int               `json:"feasibility_score,omitempty"`
	Recommendation     string            `json:"recommendation,omitempty"`
	Justification      string            `json:"justification,omitempty"`
	Evidence           *Evidence         `json:"evidence,omitempty"`
	TotalPostsAnalyzed int               `json:"total_posts_analyzed,omitempty"`
	PainPointFrequency int               `json:"pain_point_frequency,omitempty"`
	SelectedConcept    *SolutionConcept  `json:"selected_concept,omitempty"`
	SessionID          string            `json:"session_id,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Validation holds the scores and verdict produced by the validation stage.
type Validation struct {
	MonetizationScore int    `json:"monetization_score"`
	MarketSizeScore   int    `json:"market_size_score"`
	FeasibilityScore  int    `json:"feasibility_score"`
	Recommendation    string `json:"recommendation"`
	Justification     string `json:"justification"`
}
