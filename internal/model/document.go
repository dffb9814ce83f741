package model

import "time"

// DocumentType identifies one of the generated artifact kinds.
type DocumentType string

const (
	DocumentTypeBRD       DocumentType = "BRD"
	DocumentTypePRD       DocumentType = "PRD"
	DocumentTypeAgilePlan DocumentType = "AGILE_PLAN"
)

// AllDocumentTypes returns the document kinds in generation order:
// the PRD is drafted from the BRD and the agile plan from the PRD.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{DocumentTypeBRD, DocumentTypePRD, DocumentTypeAgilePlan}
}

// Document is a generated markdown artifact for an opportunity.
// (opportunity_id, type, version) is unique; regeneration bumps the
// version rather than overwriting.
type Document struct {
	ID            string       `json:"id"`
	OpportunityID string       `json:"opportunity_id"`
	Type          DocumentType `json:"document_type"`
	Markdown      string       `json:"content_markdown"`
	Version       int          `json:"version"`
	LocalPath     string       `json:"local_file_path,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
