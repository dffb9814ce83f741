package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pitchforge/pitchforge/internal/config"
	"github.com/pitchforge/pitchforge/internal/export"
	"github.com/pitchforge/pitchforge/internal/model"
	"github.com/pitchforge/pitchforge/internal/store"
	"github.com/pitchforge/pitchforge/pkg/anthropic"
)

// --- Anthropic Mocks ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// routerAI answers each request based on its system prompt, so one fake
// can serve every stage of an end-to-end run.
type routerAI struct {
	mu      sync.Mutex
	calls   map[string]int
	respond func(req anthropic.MessageRequest) (*anthropic.MessageResponse, error)
}

func newRouterAI(respond func(req anthropic.MessageRequest) (*anthropic.MessageResponse, error)) *routerAI {
	return &routerAI{calls: make(map[string]int), respond: respond}
}

func (r *routerAI) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	r.mu.Lock()
	r.calls[systemKey(req)]++
	r.mu.Unlock()
	return r.respond(req)
}

func (r *routerAI) callCount(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[key]
}

// systemKey identifies a request's stage by a distinctive phrase in its
// system prompt.
func systemKey(req anthropic.MessageRequest) string {
	if len(req.System) == 0 {
		return "none"
	}
	text := req.System[0].Text
	switch {
	case strings.Contains(text, "business analyst reviewing posts"):
		return "extract"
	case strings.Contains(text, "consolidating problem-domain labels"):
		return "themes"
	case strings.Contains(text, "define a business opportunity"):
		return "opportunity"
	case strings.Contains(text, "investor evaluating"):
		return "validate"
	case strings.Contains(text, "product strategist"):
		return "solution"
	case strings.Contains(text, "Business Requirements Document"):
		return "brd"
	case strings.Contains(text, "Product Requirements Document"):
		return "prd"
	case strings.Contains(text, "agile coach"):
		return "agile"
	default:
		return "unknown"
	}
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content:    []anthropic.ContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
		Usage:      anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}
}

// --- Pipeline test fixture ---

func testConfig() *config.Config {
	return &config.Config{
		Anthropic: config.AnthropicConfig{
			FastModel:    "fast-model",
			QualityModel: "quality-model",
			MaxTokens:    1024,
			TimeoutSecs:  5,
		},
		Pipeline: config.PipelineConfig{
			Workers:          2,
			MinThemeSize:     3,
			MinGroupSize:     1,
			SmallGroupPolicy: config.SmallGroupDrop,
			ThemeBatchSize:   50,
		},
		Retry: config.RetryConfig{
			MaxAttempts:      2,
			InitialBackoffMs: 1,
			MaxBackoffMs:     5,
			Multiplier:       2.0,
			JitterFraction:   0,
		},
	}
}

func newTestPipeline(t *testing.T, ai anthropic.Client) (*Pipeline, store.Store, string) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	outDir := t.TempDir()
	p := New(testConfig(), st, ai, export.NewExporter(outDir))
	return p, st, outDir
}

func seedLead(t *testing.T, st store.Store, externalID, sessionID, domain string) *model.RawItem {
	t.Helper()
	item := &model.RawItem{
		ExternalID: externalID,
		Permalink:  "/r/smallbusiness/comments/" + externalID,
		Subreddit:  "smallbusiness",
		Title:      "Problem with " + domain,
		Body:       "We struggle with " + domain + " every week.",
		Author:     "owner",
		SessionID:  sessionID,
	}
	created, err := st.UpsertRawItem(context.Background(), item)
	require.NoError(t, err)
	require.True(t, created)
	return item
}

func seedAnalyzedLead(t *testing.T, st store.Store, externalID, sessionID, domain string) *model.RawItem {
	t.Helper()
	item := seedLead(t, st, externalID, sessionID, domain)
	analysis := &model.LeadAnalysis{
		ProblemSummary: "Manual " + domain + " work wastes hours",
		ProblemDomain:  domain,
		SupportingQuotes: []model.Quote{
			{Text: "we struggle with " + domain},
		},
		UrgencyLevel: "High",
		FinancialIndicators: model.FinancialIndicators{
			AmountsMentioned: []string{"$500/mo"},
			WillingToPay:     "Yes",
			CostOfProblem:    "a day per week",
		},
		SaaSPotential: "Yes",
		SourceURL:     "https://www.reddit.com" + item.Permalink,
	}
	require.NoError(t, st.UpdateRawItemAnalysis(context.Background(), item.ID, analysis, model.LeadStatusAnalyzed))
	item.Analysis = analysis
	item.Status = model.LeadStatusAnalyzed
	return item
}
