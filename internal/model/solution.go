package model

import "time"

// SolutionConcept is one candidate product design for an opportunity.
// At most one concept per opportunity is marked selected.
type SolutionConcept struct {
	ID            string    `json:"id"`
	OpportunityID string    `json:"opportunity_id"`
	Name          string    `json:"concept_name"`
	CoreFeatures  []string  `json:"core_features"`
	Selected      bool      `json:"selected"`
	CreatedAt     time.Time `json:"created_at"`
}
