package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchforge/pitchforge/internal/model"
	"github.com/pitchforge/pitchforge/pkg/anthropic"
)

func themeGroup(domain string, size int) model.DomainGroup {
	g := model.DomainGroup{Domain: domain}
	for i := 0; i < size; i++ {
		g.Items = append(g.Items, analyzedItem(domain+string(rune('a'+i)), domain))
	}
	return g
}

func TestConsolidateThemes_MergesDomains(t *testing.T) {
	ai := newRouterAI(func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		return textResponse(`{"themes": [
			{"title": "Back-office automation", "summary": "Manual admin work", "domains": ["accounting", "bookkeeping"]},
			{"title": "Hiring", "summary": "Finding staff", "domains": ["hiring"]}
		]}`), nil
	})

	p, _, _ := newTestPipeline(t, ai)
	groups := []model.DomainGroup{
		themeGroup("accounting", 2),
		themeGroup("bookkeeping", 2),
		themeGroup("hiring", 3),
	}

	themes := p.consolidateThemes(context.Background(), groups)
	require.Len(t, themes, 2)
	assert.Equal(t, "Back-office automation", themes[0].Title)
	assert.Len(t, themes[0].Items, 4)
	assert.Equal(t, "Hiring", themes[1].Title)
	assert.Len(t, themes[1].Items, 3)
}

func TestConsolidateThemes_MinSizeBoundary(t *testing.T) {
	// MinThemeSize is 3: a theme of 2 is discarded, 3 and 4 are kept.
	ai := newRouterAI(func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		return textResponse(`{"themes": [
			{"title": "Small", "summary": "s", "domains": ["alpha"]},
			{"title": "Exact", "summary": "e", "domains": ["beta"]},
			{"title": "Large", "summary": "l", "domains": ["gamma"]}
		]}`), nil
	})

	p, _, _ := newTestPipeline(t, ai)
	groups := []model.DomainGroup{
		themeGroup("alpha", 2),
		themeGroup("beta", 3),
		themeGroup("gamma", 4),
	}

	themes := p.consolidateThemes(context.Background(), groups)
	require.Len(t, themes, 2)
	assert.Equal(t, "Exact", themes[0].Title)
	assert.Equal(t, "Large", themes[1].Title)
}

func TestConsolidateThemes_UnassignedDomainCarriesThrough(t *testing.T) {
	// The model forgets "hiring"; its group becomes a single-domain theme.
	ai := newRouterAI(func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		return textResponse(`{"themes": [
			{"title": "Accounting", "summary": "a", "domains": ["accounting"]}
		]}`), nil
	})

	p, _, _ := newTestPipeline(t, ai)
	groups := []model.DomainGroup{
		themeGroup("accounting", 3),
		themeGroup("hiring", 3),
	}

	themes := p.consolidateThemes(context.Background(), groups)
	require.Len(t, themes, 2)
	assert.Equal(t, "Accounting", themes[0].Title)
	assert.Equal(t, "hiring", themes[1].Title)
}

func TestConsolidateThemes_BatchFailureLosesGroups(t *testing.T) {
	calls := 0
	ai := newRouterAI(func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		calls++
		return nil, eris.New("api: invalid request")
	})

	p, _, _ := newTestPipeline(t, ai)
	themes := p.consolidateThemes(context.Background(), []model.DomainGroup{themeGroup("accounting", 3)})

	assert.Empty(t, themes)
	// Non-retryable failure: exactly one call.
	assert.Equal(t, 1, calls)
}

func TestConsolidateThemes_Empty(t *testing.T) {
	p, _, _ := newTestPipeline(t, newRouterAI(func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		t.Fatal("no calls expected")
		return nil, nil
	}))
	assert.Empty(t, p.consolidateThemes(context.Background(), nil))
}
