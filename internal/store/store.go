package store

import (
	"context"

	"github.com/pitchforge/pitchforge/internal/model"
)

// LeadFilter specifies criteria for listing raw items.
type LeadFilter struct {
	Status    model.LeadStatus `json:"status,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Limit     int              `json:"limit,omitempty"`
	Offset    int              `json:"offset,omitempty"`
}

// OpportunityFilter specifies criteria for listing opportunities.
type OpportunityFilter struct {
	Status    model.OpportunityStatus `json:"status,omitempty"`
	SessionID string                  `json:"session_id,omitempty"`
	Limit     int                     `json:"limit,omitempty"`
	Offset    int                     `json:"offset,omitempty"`
}

// Store defines the persistence interface for the pipeline.
type Store interface {
	// Raw items
	UpsertRawItem(ctx context.Context, item *model.RawItem) (bool, error)
	UpsertRawItems(ctx context.Context, items []*model.RawItem) (int, error)
	GetRawItem(ctx context.Context, id string) (*model.RawItem, error)
	ListRawItems(ctx context.Context, filter LeadFilter) ([]model.RawItem, error)
	UpdateRawItemAnalysis(ctx context.Context, id string, analysis *model.LeadAnalysis, status model.LeadStatus) error
	UpdateRawItemStatus(ctx context.Context, ids []string, status model.LeadStatus) error
	CountLeadsByStatus(ctx context.Context, sessionID string) (map[model.LeadStatus]int, error)

	// Opportunities
	CreateOpportunity(ctx context.Context, opp *model.Opportunity) (*model.Opportunity, error)
	GetOpportunity(ctx context.Context, id string) (*model.Opportunity, error)
	ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.Opportunity, error)
	UpdateOpportunityValidation(ctx context.Context, id string, v *model.Validation, status model.OpportunityStatus) error
	UpdateOpportunityStatus(ctx context.Context, id string, status model.OpportunityStatus) error
	CountOpportunitiesByStatus(ctx context.Context, sessionID string) (map[model.OpportunityStatus]int, error)

	// Solution concepts
	CreateSolutionConcepts(ctx context.Context, opportunityID string, concepts []model.SolutionConcept) ([]model.SolutionConcept, error)
	ListSolutionConcepts(ctx context.Context, opportunityID string) ([]model.SolutionConcept, error)
	SelectSolutionConcept(ctx context.Context, opportunityID, conceptID string) error

	// Documents
	CreateDocument(ctx context.Context, doc *model.Document) (*model.Document, error)
	NextDocumentVersion(ctx context.Context, opportunityID string, docType model.DocumentType) (int, error)
	ListDocuments(ctx context.Context, opportunityID string) ([]model.Document, error)
	UpdateDocumentPath(ctx context.Context, docID, path string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
