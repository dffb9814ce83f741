package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchforge/pitchforge/internal/model"
	"github.com/pitchforge/pitchforge/internal/resilience"
	"github.com/pitchforge/pitchforge/internal/store"
	"github.com/pitchforge/pitchforge/pkg/anthropic"
)

const extractionJSON = `{
	"problem_summary": "Manual bookkeeping wastes hours weekly",
	"problem_domain": "accounting",
	"supporting_quotes": [{"text": "we struggle with accounting"}],
	"urgency_level": "High",
	"financial_indicators": {"amounts_mentioned": ["$500/mo"], "willing_to_pay": "Yes"},
	"saas_potential_flag": "Yes"
}`

func TestExtractProblems_Conservation(t *testing.T) {
	// One lead always returns malformed output; the rest succeed. The
	// failing lead must end analysis_failed without blocking siblings,
	// and nothing may remain new_raw_lead.
	ai := newRouterAI(func(req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		if len(req.Messages) > 0 && strings.Contains(req.Messages[0].Content, "badlead") {
			return textResponse("I could not produce JSON for this one."), nil
		}
		return textResponse(extractionJSON), nil
	})

	p, st, _ := newTestPipeline(t, ai)
	ctx := context.Background()

	seedLead(t, st, "t3_good1", "sess-1", "accounting")
	seedLead(t, st, "t3_good2", "sess-1", "accounting")
	bad := seedLead(t, st, "t3_bad", "sess-1", "badlead")

	leads, err := st.ListRawItems(ctx, store.LeadFilter{Status: model.LeadStatusNew, SessionID: "sess-1"})
	require.NoError(t, err)
	require.Len(t, leads, 3)

	analyzed, failed := p.extractProblems(ctx, leads)
	assert.Equal(t, 2, analyzed)
	assert.Equal(t, 1, failed)

	remaining, err := st.ListRawItems(ctx, store.LeadFilter{Status: model.LeadStatusNew, SessionID: "sess-1"})
	require.NoError(t, err)
	assert.Empty(t, remaining)

	failedLead, err := st.GetRawItem(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusAnalysisFailed, failedLead.Status)
	assert.Nil(t, failedLead.Analysis)
}

func TestExtractProblems_SetsSourceURL(t *testing.T) {
	ai := newRouterAI(func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		return textResponse(extractionJSON), nil
	})

	p, st, _ := newTestPipeline(t, ai)
	ctx := context.Background()

	lead := seedLead(t, st, "t3_abc", "sess-1", "accounting")

	leads, err := st.ListRawItems(ctx, store.LeadFilter{Status: model.LeadStatusNew})
	require.NoError(t, err)
	p.extractProblems(ctx, leads)

	got, err := st.GetRawItem(ctx, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, "https://www.reddit.com"+lead.Permalink, got.Analysis.SourceURL)
	assert.Equal(t, "accounting", got.Analysis.ProblemDomain)
}

func TestExtractProblems_Empty(t *testing.T) {
	p, _, _ := newTestPipeline(t, newRouterAI(func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		t.Fatal("no calls expected")
		return nil, nil
	}))

	analyzed, failed := p.extractProblems(context.Background(), nil)
	assert.Zero(t, analyzed)
	assert.Zero(t, failed)
}

func TestExtractProblems_PrimerRetriesTransientFailure(t *testing.T) {
	// The cache-warming request goes through the same retry wrapper as
	// every other model call: a transient failure costs a retry, not the
	// warm cache.
	var mu sync.Mutex
	n := 0
	ai := newRouterAI(func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		if n == 1 {
			return nil, resilience.NewTransientError(errors.New("overloaded"), 529)
		}
		return textResponse(extractionJSON), nil
	})

	p, st, _ := newTestPipeline(t, ai)
	ctx := context.Background()
	seedLead(t, st, "t3_abc", "sess-1", "accounting")

	leads, err := st.ListRawItems(ctx, store.LeadFilter{Status: model.LeadStatusNew})
	require.NoError(t, err)

	analyzed, failed := p.extractProblems(ctx, leads)
	assert.Equal(t, 1, analyzed)
	assert.Zero(t, failed)
	// Primer attempt, primer retry, then the lead's own call.
	assert.Equal(t, 3, ai.callCount("extract"))
}

func TestExtractRequest_TruncatesOnRuneBoundary(t *testing.T) {
	p, _, _ := newTestPipeline(t, newRouterAI(func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		t.Fatal("no calls expected")
		return nil, nil
	}))

	// A multi-byte rune straddling the cap must be dropped whole, never
	// split into an invalid byte sequence.
	lead := model.RawItem{
		Subreddit: "smallbusiness",
		Title:     "long post",
		Body:      strings.Repeat("a", maxLeadBody-1) + "é" + strings.Repeat("z", 50),
	}

	req := p.extractRequest(anthropic.BuildCachedSystemBlocks(extractSystemPrompt), lead)
	require.Len(t, req.Messages, 1)

	content := req.Messages[0].Content
	assert.True(t, utf8.ValidString(content))
	assert.NotContains(t, content, "é")
	assert.NotContains(t, content, "z")
}

func TestExtractProblems_UsesFastModelWithCachedSystem(t *testing.T) {
	var seenModel string
	var cached bool
	ai := newRouterAI(func(req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		seenModel = req.Model
		if len(req.System) > 0 && req.System[0].CacheControl != nil {
			cached = true
		}
		return textResponse(extractionJSON), nil
	})

	p, st, _ := newTestPipeline(t, ai)
	seedLead(t, st, "t3_abc", "sess-1", "accounting")

	leads, err := st.ListRawItems(context.Background(), store.LeadFilter{Status: model.LeadStatusNew})
	require.NoError(t, err)
	p.extractProblems(context.Background(), leads)

	assert.Equal(t, "fast-model", seenModel)
	assert.True(t, cached)
}
