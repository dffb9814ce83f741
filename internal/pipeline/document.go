package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pitchforge/pitchforge/internal/model"
	"github.com/pitchforge/pitchforge/pkg/anthropic"
)

// generateDocuments writes the three planning documents for an
// opportunity in order: the BRD from the opportunity itself, the PRD from
// the BRD, and the agile plan from the PRD. Each document gets the next
// version for its type, is exported to disk, and has its path recorded.
// Returns the number of documents written before any failure.
func (p *Pipeline) generateDocuments(ctx context.Context, opp *model.Opportunity, concept model.SolutionConcept) (int, error) {
	written := 0
	var prev string

	for _, docType := range model.AllDocumentTypes() {
		req, err := p.documentRequest(docType, opp, concept, prev)
		if err != nil {
			return written, err
		}

		markdown, err := p.completeMarkdown(ctx, strings.ToLower(string(docType)), req)
		if err != nil {
			return written, eris.Wrapf(err, "document: generate %s", docType)
		}

		version, err := p.store.NextDocumentVersion(ctx, opp.ID, docType)
		if err != nil {
			return written, eris.Wrapf(err, "document: version %s", docType)
		}

		doc, err := p.store.CreateDocument(ctx, &model.Document{
			OpportunityID: opp.ID,
			Type:          docType,
			Markdown:      markdown,
			Version:       version,
		})
		if err != nil {
			return written, eris.Wrapf(err, "document: persist %s", docType)
		}

		path, err := p.exporter.SaveDocument(opp, doc)
		if err != nil {
			return written, eris.Wrapf(err, "document: export %s", docType)
		}
		if err := p.store.UpdateDocumentPath(ctx, doc.ID, path); err != nil {
			return written, eris.Wrapf(err, "document: record path %s", docType)
		}

		zap.L().Info("document: written",
			zap.String("opportunity", opp.ID),
			zap.String("type", string(docType)),
			zap.Int("version", version),
			zap.String("path", path),
		)

		written++
		prev = markdown
	}
	return written, nil
}

func (p *Pipeline) documentRequest(docType model.DocumentType, opp *model.Opportunity, concept model.SolutionConcept, prev string) (anthropic.MessageRequest, error) {
	var system, user string

	switch docType {
	case model.DocumentTypeBRD:
		evidenceJSON, err := json.MarshalIndent(opp.Evidence, "", "  ")
		if err != nil {
			return anthropic.MessageRequest{}, eris.Wrap(err, "document: marshal evidence")
		}
		system = brdSystemPrompt
		user = fmt.Sprintf(brdUserPrompt,
			opp.Title, opp.ProblemSummary, opp.Description, opp.TargetUser, opp.ValueProposition,
			opp.MonetizationScore, opp.MarketSizeScore, opp.FeasibilityScore, opp.Recommendation,
			opp.Justification, concept.Name, strings.Join(concept.CoreFeatures, ", "),
			string(evidenceJSON))
	case model.DocumentTypePRD:
		system = prdSystemPrompt
		user = fmt.Sprintf(prdUserPrompt, concept.Name, strings.Join(concept.CoreFeatures, ", "), prev)
	case model.DocumentTypeAgilePlan:
		system = agileSystemPrompt
		user = fmt.Sprintf(agileUserPrompt, prev)
	default:
		return anthropic.MessageRequest{}, eris.Errorf("document: unknown type %s", docType)
	}

	return anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.QualityModel,
		MaxTokens: int64(p.cfg.Anthropic.MaxTokens),
		System:    []anthropic.SystemBlock{{Text: system}},
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	}, nil
}
