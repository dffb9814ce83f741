package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchforge/pitchforge/internal/config"
	"github.com/pitchforge/pitchforge/internal/model"
)

func analyzedItem(id, domain string) model.RawItem {
	return model.RawItem{
		ID:     id,
		Status: model.LeadStatusAnalyzed,
		Analysis: &model.LeadAnalysis{
			ProblemSummary: "problem in " + domain,
			ProblemDomain:  domain,
		},
	}
}

func TestGroupByDomain(t *testing.T) {
	items := []model.RawItem{
		analyzedItem("a", "accounting"),
		analyzedItem("b", "Accounting"),
		analyzedItem("c", "  hiring "),
		analyzedItem("d", "hiring"),
		analyzedItem("e", "marketing"),
	}

	groups := GroupByDomain(items, 1, config.SmallGroupDrop)
	require.Len(t, groups, 3)
	// Sorted by domain.
	assert.Equal(t, "accounting", groups[0].Domain)
	assert.Len(t, groups[0].Items, 2)
	assert.Equal(t, "hiring", groups[1].Domain)
	assert.Len(t, groups[1].Items, 2)
	assert.Equal(t, "marketing", groups[2].Domain)
}

func TestGroupByDomain_SkipsNoProblem(t *testing.T) {
	noProblem := model.RawItem{
		ID:       "x",
		Analysis: &model.LeadAnalysis{ProblemSummary: "No clear problem"},
	}
	nilAnalysis := model.RawItem{ID: "y"}

	groups := GroupByDomain([]model.RawItem{noProblem, nilAnalysis, analyzedItem("a", "ops")}, 1, config.SmallGroupDrop)
	require.Len(t, groups, 1)
	assert.Equal(t, "ops", groups[0].Domain)
}

func TestGroupByDomain_DropPolicy(t *testing.T) {
	items := []model.RawItem{
		analyzedItem("a", "accounting"),
		analyzedItem("b", "accounting"),
		analyzedItem("c", "hiring"),
	}

	groups := GroupByDomain(items, 2, config.SmallGroupDrop)
	require.Len(t, groups, 1)
	assert.Equal(t, "accounting", groups[0].Domain)
}

func TestGroupByDomain_MiscPolicy(t *testing.T) {
	items := []model.RawItem{
		analyzedItem("a", "accounting"),
		analyzedItem("b", "accounting"),
		analyzedItem("c", "hiring"),
		analyzedItem("d", "marketing"),
	}

	groups := GroupByDomain(items, 2, config.SmallGroupMisc)
	require.Len(t, groups, 2)
	assert.Equal(t, "accounting", groups[0].Domain)
	assert.Equal(t, MiscDomain, groups[1].Domain)
	assert.Len(t, groups[1].Items, 2)
}

func TestGroupByDomain_EmptyDomainGoesToMisc(t *testing.T) {
	item := analyzedItem("a", "")
	groups := GroupByDomain([]model.RawItem{item}, 1, config.SmallGroupDrop)
	require.Len(t, groups, 1)
	assert.Equal(t, MiscDomain, groups[0].Domain)
}
