package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchforge/pitchforge/internal/model"
)

func TestBuildEvidence(t *testing.T) {
	items := []model.RawItem{
		{
			Author:    "alice",
			Subreddit: "smallbusiness",
			Title:     "Bookkeeping pain",
			Body:      "We switched from QuickBooks because it was too expensive.",
			Analysis: &model.LeadAnalysis{
				ProblemSummary:   "Bookkeeping takes too long",
				SupportingQuotes: []model.Quote{{Text: "it takes me all weekend"}},
				UrgencyLevel:     "High",
				FinancialIndicators: model.FinancialIndicators{
					AmountsMentioned: []string{"$200/mo"},
					WillingToPay:     "Yes",
					CostOfProblem:    "one weekend per month",
				},
				SourceURL: "https://www.reddit.com/r/smallbusiness/comments/a",
			},
		},
		{
			Author:    "bob",
			Subreddit: "Entrepreneur",
			Title:     "Invoices",
			Body:      "Looking for an alternative to QuickBooks honestly.",
			Analysis: &model.LeadAnalysis{
				ProblemSummary:   "Chasing invoices by hand",
				SupportingQuotes: []model.Quote{{Text: "nobody pays on time"}},
				UrgencyLevel:     "Medium",
				FinancialIndicators: model.FinancialIndicators{
					WillingToPay: "Maybe",
				},
			},
		},
	}

	ev := BuildEvidence(items, 10)

	assert.Equal(t, 10, ev.TotalPostsAnalyzed)
	assert.Equal(t, 2, ev.PainPointFrequency)
	assert.InDelta(t, 20.0, ev.PainPointPercentage, 0.001)

	require.Len(t, ev.SupportingQuotes, 2)
	assert.Equal(t, "alice", ev.SupportingQuotes[0].Author)
	assert.Equal(t, "smallbusiness", ev.SupportingQuotes[0].Subreddit)

	assert.Equal(t, map[string]int{"High": 1, "Medium": 1}, ev.UrgencyDistribution)
	assert.Equal(t, map[string]int{"Yes": 1, "Maybe": 1}, ev.Financial.WillingToPayCounts)
	assert.Equal(t, []string{"$200/mo"}, ev.Financial.AmountsMentioned)
	assert.Equal(t, []string{"one weekend per month"}, ev.Financial.CostsOfProblem)

	assert.Equal(t, 2, ev.CompetitorMentions["QuickBooks"])

	require.Len(t, ev.SourcePosts, 2)
	assert.Equal(t, "Bookkeeping pain", ev.SourcePosts[0].Title)
	assert.Equal(t, "one weekend per month", ev.SourcePosts[0].FinancialImpact)
}

func TestBuildEvidence_ZeroTotal(t *testing.T) {
	ev := BuildEvidence(nil, 0)
	assert.Zero(t, ev.PainPointPercentage)
	assert.Zero(t, ev.PainPointFrequency)
}

func TestBuildEvidence_QuoteCap(t *testing.T) {
	var items []model.RawItem
	for range 8 {
		items = append(items, model.RawItem{
			Analysis: &model.LeadAnalysis{
				ProblemSummary:   "p",
				SupportingQuotes: []model.Quote{{Text: "q1"}, {Text: "q2"}},
			},
		})
	}

	ev := BuildEvidence(items, 8)
	assert.Len(t, ev.SupportingQuotes, maxEvidenceQuotes)
}
