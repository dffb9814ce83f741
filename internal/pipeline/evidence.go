package pipeline

import (
	"regexp"

	"github.com/pitchforge/pitchforge/internal/model"
)

// maxEvidenceQuotes caps the quotes carried onto an opportunity.
const maxEvidenceQuotes = 10

// competitorPattern catches product names mentioned as existing tools,
// e.g. "switched from QuickBooks" or "alternative to Gusto".
var competitorPattern = regexp.MustCompile(`(?:switched from|alternative to|instead of|moved off|vs\.?) ([A-Z][A-Za-z0-9]{2,})`)

// BuildEvidence aggregates market-validation evidence from a theme's
// member leads. Everything here is computed locally from stored analyses;
// nothing comes from a model response.
func BuildEvidence(items []model.RawItem, totalAnalyzed int) *model.Evidence {
	ev := &model.Evidence{
		TotalPostsAnalyzed: totalAnalyzed,
		PainPointFrequency: len(items),
	}
	if totalAnalyzed > 0 {
		ev.PainPointPercentage = float64(len(items)) / float64(totalAnalyzed) * 100
	}

	urgency := make(map[string]int)
	competitors := make(map[string]int)
	willingToPay := make(map[string]int)

	for _, item := range items {
		a := item.Analysis
		if a == nil {
			continue
		}

		for _, q := range a.SupportingQuotes {
			if len(ev.SupportingQuotes) >= maxEvidenceQuotes {
				break
			}
			ev.SupportingQuotes = append(ev.SupportingQuotes, model.SourcedQuote{
				Text:      q.Text,
				Context:   q.Context,
				SourceURL: a.SourceURL,
				Author:    item.Author,
				Subreddit: item.Subreddit,
			})
		}

		if a.UrgencyLevel != "" {
			urgency[a.UrgencyLevel]++
		}
		if a.FinancialIndicators.WillingToPay != "" {
			willingToPay[a.FinancialIndicators.WillingToPay]++
		}
		ev.Financial.AmountsMentioned = append(ev.Financial.AmountsMentioned, a.FinancialIndicators.AmountsMentioned...)
		if a.FinancialIndicators.CostOfProblem != "" {
			ev.Financial.CostsOfProblem = append(ev.Financial.CostsOfProblem, a.FinancialIndicators.CostOfProblem)
		}

		for _, m := range competitorPattern.FindAllStringSubmatch(item.Title+" "+item.Body, -1) {
			competitors[m[1]]++
		}

		ev.SourcePosts = append(ev.SourcePosts, model.SourcePost{
			URL:             a.SourceURL,
			Title:           item.Title,
			Subreddit:       item.Subreddit,
			Author:          item.Author,
			IsComment:       item.IsComment,
			ProblemSummary:  a.ProblemSummary,
			UrgencyLevel:    a.UrgencyLevel,
			FinancialImpact: a.FinancialIndicators.CostOfProblem,
		})
	}

	if len(urgency) > 0 {
		ev.UrgencyDistribution = urgency
	}
	if len(willingToPay) > 0 {
		ev.Financial.WillingToPayCounts = willingToPay
	}
	if len(competitors) > 0 {
		ev.CompetitorMentions = competitors
	}
	return ev
}
