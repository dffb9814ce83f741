package model

// SourcedQuote is a supporting quote annotated with provenance.
type SourcedQuote struct {
	Text      string `json:"text"`
	Context   string `json:"context,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	Author    string `json:"author,omitempty"`
	Subreddit string `json:"subreddit,omitempty"`
}

// SourcePost summarizes one contributing lead for evidence reporting.
type SourcePost struct {
	URL             string `json:"url"`
	Title           string `json:"title"`
	Subreddit       string `json:"subreddit"`
	Author          string `json:"author,omitempty"`
	IsComment       bool   `json:"is_comment"`
	ProblemSummary  string `json:"problem_summary"`
	UrgencyLevel    string `json:"urgency_level,omitempty"`
	FinancialImpact string `json:"financial_impact,omitempty"`
}

// FinancialRollup aggregates money signals across a theme's leads.
type FinancialRollup struct {
	AmountsMentioned   []string       `json:"amounts_mentioned,omitempty"`
	WillingToPayCounts map[string]int `json:"willing_to_pay_counts,omitempty"`
	CostsOfProblem     []string       `json:"costs_of_problem,omitempty"`
}

// Evidence is the locally-computed market validation payload attached to
// an opportunity. None of these fields come from the model; they are
// aggregated from the member leads' stored analyses.
type Evidence struct {
	TotalPostsAnalyzed  int             `json:"total_posts_analyzed"`
	PainPointFrequency  int             `json:"pain_point_frequency"`
	PainPointPercentage float64         `json:"pain_point_percentage"`
	SupportingQuotes    []SourcedQuote  `json:"supporting_quotes,omitempty"`
	Financial           FinancialRollup `json:"financial_indicators"`
	UrgencyDistribution map[string]int  `json:"urgency_distribution,omitempty"`
	CompetitorMentions  map[string]int  `json:"competitor_mentions,omitempty"`
	SourcePosts         []SourcePost    `json:"source_posts,omitempty"`
}
