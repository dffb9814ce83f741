package pipeline

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchforge/pitchforge/internal/model"
	"github.com/pitchforge/pitchforge/pkg/anthropic"
)

const conceptsJSON = `{"concepts": [
	{"concept_name": "NudgeBot", "core_features": ["email reminders", "tone escalation"]},
	{"concept_name": "PayChase", "core_features": ["payment links", "aging dashboard", "auto-escalation"]},
	{"concept_name": "LedgerPing", "core_features": ["sms nudges", "weekly digest", "snooze rules"]}
]}`

// stage6Router answers the solution and document stages of a run.
func stage6Router() *routerAI {
	return newRouterAI(func(req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		switch systemKey(req) {
		case "solution":
			return textResponse(conceptsJSON), nil
		case "brd":
			return textResponse("# Business Requirements\n\nEvidence-backed."), nil
		case "prd":
			return textResponse("# Product Requirements\n\nDerived from the BRD."), nil
		case "agile":
			return textResponse("# Delivery Plan\n\nSprint 1."), nil
		default:
			return textResponse("{}"), nil
		}
	})
}

func seedValidatedOpportunity(t *testing.T, p *Pipeline, sessionID string) *model.Opportunity {
	t.Helper()
	opp := seedOpportunity(t, p, sessionID)
	v := &model.Validation{
		MonetizationScore: 8, MarketSizeScore: 7, FeasibilityScore: 9,
		Recommendation: model.RecommendationGo, Justification: "solid",
	}
	require.NoError(t, p.store.UpdateOpportunityValidation(context.Background(), opp.ID, v, model.OpportunityStatusValidated))
	return opp
}

func TestGenerateSolutions_CompletesOpportunity(t *testing.T) {
	ai := stage6Router()
	p, st, _ := newTestPipeline(t, ai)
	opp := seedValidatedOpportunity(t, p, "sess-1")

	completed, failed, documents := p.generateSolutions(context.Background(), "sess-1")
	assert.Equal(t, 1, completed)
	assert.Zero(t, failed)
	assert.Equal(t, 3, documents)

	got, err := st.GetOpportunity(context.Background(), opp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OpportunityStatusCompleted, got.Status)

	// Selection: most core features wins, ties broken by generation
	// order. PayChase and LedgerPing both have 3; PayChase came first.
	require.NotNil(t, got.SelectedConcept)
	assert.Equal(t, "PayChase", got.SelectedConcept.Name)

	concepts, err := st.ListSolutionConcepts(context.Background(), opp.ID)
	require.NoError(t, err)
	assert.Len(t, concepts, 3)
}

func TestGenerateSolutions_WritesVersionedDocumentsToDisk(t *testing.T) {
	ai := stage6Router()
	p, st, _ := newTestPipeline(t, ai)
	opp := seedValidatedOpportunity(t, p, "sess-1")

	p.generateSolutions(context.Background(), "sess-1")

	docs, err := st.ListDocuments(context.Background(), opp.ID)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	types := make(map[model.DocumentType]model.Document)
	for _, d := range docs {
		types[d.Type] = d
	}
	for _, dt := range model.AllDocumentTypes() {
		doc, ok := types[dt]
		require.True(t, ok, "missing document %s", dt)
		assert.Equal(t, 1, doc.Version)
		require.NotEmpty(t, doc.LocalPath)

		content, err := os.ReadFile(doc.LocalPath)
		require.NoError(t, err)
		assert.Equal(t, doc.Markdown, string(content))
	}
}

func TestGenerateSolutions_ConceptFailureMarksSolutionFailed(t *testing.T) {
	ai := newRouterAI(func(req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		if systemKey(req) == "solution" {
			return textResponse(`{"concepts": []}`), nil
		}
		return textResponse("# Doc"), nil
	})

	p, st, _ := newTestPipeline(t, ai)
	opp := seedValidatedOpportunity(t, p, "sess-1")

	completed, failed, documents := p.generateSolutions(context.Background(), "sess-1")
	assert.Zero(t, completed)
	assert.Equal(t, 1, failed)
	assert.Zero(t, documents)

	got, err := st.GetOpportunity(context.Background(), opp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OpportunityStatusSolutionFailed, got.Status)
}

func TestGenerateSolutions_DocumentFailureLeavesSolutionsReady(t *testing.T) {
	// BRD succeeds, PRD returns empty output until retries exhaust. The
	// opportunity keeps its BRD and stays at solutions_ready.
	ai := newRouterAI(func(req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		switch systemKey(req) {
		case "solution":
			return textResponse(conceptsJSON), nil
		case "brd":
			return textResponse("# Business Requirements"), nil
		case "prd":
			return textResponse(""), nil
		default:
			return textResponse("# Doc"), nil
		}
	})

	p, st, _ := newTestPipeline(t, ai)
	opp := seedValidatedOpportunity(t, p, "sess-1")

	completed, failed, documents := p.generateSolutions(context.Background(), "sess-1")
	assert.Zero(t, completed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, documents)

	got, err := st.GetOpportunity(context.Background(), opp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OpportunityStatusSolutionsReady, got.Status)

	docs, err := st.ListDocuments(context.Background(), opp.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, model.DocumentTypeBRD, docs[0].Type)
}

func TestDocumentRequest_FixesTechnologyStack(t *testing.T) {
	p, _, _ := newTestPipeline(t, stage6Router())

	opp := &model.Opportunity{ID: "opp-1", Title: "Invoice Chaser"}
	concept := model.SolutionConcept{Name: "PayChase", CoreFeatures: []string{"payment links"}}

	for _, docType := range model.AllDocumentTypes() {
		req, err := p.documentRequest(docType, opp, concept, "# Prior document")
		require.NoError(t, err)
		require.NotEmpty(t, req.System)

		system := req.System[0].Text
		assert.Contains(t, system, "Next.js", "%s should pin the framework", docType)
		assert.Contains(t, system, "Supabase PostgreSQL", "%s should pin the database", docType)
		assert.Contains(t, system, "Clerk", "%s should pin authentication", docType)
		assert.Contains(t, system, "Vercel", "%s should pin deployment", docType)
	}
}
