// Package pipeline orchestrates the six-stage analysis run that turns
// scraped forum leads into validated, documented business opportunities.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pitchforge/pitchforge/internal/config"
	"github.com/pitchforge/pitchforge/internal/export"
	"github.com/pitchforge/pitchforge/internal/model"
	"github.com/pitchforge/pitchforge/internal/resilience"
	"github.com/pitchforge/pitchforge/internal/store"
	"github.com/pitchforge/pitchforge/pkg/anthropic"
)

// Pipeline coordinates the six stages over a session of leads.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	ai       anthropic.Client
	exporter *export.Exporter
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, aiClient anthropic.Client, exporter *export.Exporter) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		ai:       aiClient,
		exporter: exporter,
	}
}

// RunSummary reports per-stage outcomes of one coordinator run.
type RunSummary struct {
	SessionID            string        `json:"session_id,omitempty"`
	LeadsAnalyzed        int           `json:"leads_analyzed"`
	LeadsFailed          int           `json:"leads_failed"`
	DomainGroups         int           `json:"domain_groups"`
	Themes               int           `json:"themes"`
	OpportunitiesCreated int           `json:"opportunities_created"`
	ThemesFailed         int           `json:"themes_failed"`
	Validated            int           `json:"validated"`
	Rejected             int           `json:"rejected"`
	ValidationFailed     int           `json:"validation_failed"`
	Completed            int           `json:"completed"`
	SolutionsFailed      int           `json:"solutions_failed"`
	DocumentsWritten     int           `json:"documents_written"`
	Duration             time.Duration `json:"duration_ns"`
}

// Run executes all six stages for one session. Each stage fully drains
// before the next queries the store, so a lead's status is settled by the
// time downstream stages read it.
func (p *Pipeline) Run(ctx context.Context, sessionID string) (*RunSummary, error) {
	log := zap.L().With(zap.String("session", sessionID))
	log.Info("pipeline: starting run")

	start := time.Now()
	summary := &RunSummary{SessionID: sessionID}

	// Stage 1: extract problems from new leads.
	newLeads, err := p.store.ListRawItems(ctx, store.LeadFilter{
		Status:    model.LeadStatusNew,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list new leads")
	}
	summary.LeadsAnalyzed, summary.LeadsFailed = p.extractProblems(ctx, newLeads)
	log.Info("pipeline: extraction complete",
		zap.Int("analyzed", summary.LeadsAnalyzed),
		zap.Int("failed", summary.LeadsFailed),
	)

	// Stage 2: group analyzed leads by problem domain (local, no LLM).
	analyzed, err := p.store.ListRawItems(ctx, store.LeadFilter{
		Status:    model.LeadStatusAnalyzed,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list analyzed leads")
	}
	groups := GroupByDomain(analyzed, p.cfg.Pipeline.MinGroupSize, p.cfg.Pipeline.SmallGroupPolicy)
	summary.DomainGroups = len(groups)
	log.Info("pipeline: grouping complete", zap.Int("groups", len(groups)))

	// Stage 3: consolidate domains into themes.
	themes := p.consolidateThemes(ctx, groups)
	summary.Themes = len(themes)
	log.Info("pipeline: theme consolidation complete", zap.Int("themes", len(themes)))

	// Stage 4: create opportunities from themes.
	summary.OpportunitiesCreated, summary.ThemesFailed = p.createOpportunities(ctx, themes, len(analyzed), sessionID)
	log.Info("pipeline: opportunity creation complete",
		zap.Int("created", summary.OpportunitiesCreated),
		zap.Int("failed", summary.ThemesFailed),
	)

	// Stage 5: validate opportunities.
	summary.Validated, summary.Rejected, summary.ValidationFailed = p.validateOpportunities(ctx, sessionID)
	log.Info("pipeline: validation complete",
		zap.Int("validated", summary.Validated),
		zap.Int("rejected", summary.Rejected),
		zap.Int("failed", summary.ValidationFailed),
	)

	// Stage 6: solutions and documents for validated opportunities.
	summary.Completed, summary.SolutionsFailed, summary.DocumentsWritten = p.generateSolutions(ctx, sessionID)
	log.Info("pipeline: solution generation complete",
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.SolutionsFailed),
		zap.Int("documents", summary.DocumentsWritten),
	)

	summary.Duration = time.Since(start)
	log.Info("pipeline: run complete", zap.Duration("duration", summary.Duration))
	return summary, nil
}

// retry builds the shared retry policy for one stage's remote calls.
func (p *Pipeline) retry(stage string) resilience.RetryConfig {
	cfg := resilience.FromRetryConfig(
		p.cfg.Retry.MaxAttempts,
		p.cfg.Retry.InitialBackoffMs,
		p.cfg.Retry.MaxBackoffMs,
		p.cfg.Retry.Multiplier,
		p.cfg.Retry.JitterFraction,
	)
	cfg.OnRetry = resilience.RetryLogger("anthropic", stage)
	return cfg
}

// timeout returns the per-call deadline for model requests.
func (p *Pipeline) timeout() time.Duration {
	secs := p.cfg.Anthropic.TimeoutSecs
	if secs <= 0 {
		secs = 120
	}
	return time.Duration(secs) * time.Second
}

// completeJSON sends a model request and decodes the JSON response into T.
// The call and the decode sit inside one retry loop: transient API failures
// and malformed output both trigger a fresh attempt.
func completeJSON[T any](ctx context.Context, p *Pipeline, stage string, req anthropic.MessageRequest) (T, error) {
	return resilience.DoVal(ctx, p.retry(stage), func(ctx context.Context) (T, error) {
		var zero T
		callCtx, cancel := context.WithTimeout(ctx, p.timeout())
		defer cancel()

		resp, err := p.ai.CreateMessage(callCtx, req)
		if err != nil {
			return zero, eris.Wrapf(err, "%s: create message", stage)
		}
		resp.Usage.LogCost(req.Model, stage)
		return decodeJSON[T](resp.Text())
	})
}

// completeMarkdown sends a model request expecting a markdown document.
// An empty response is treated as a parse failure and retried.
func (p *Pipeline) completeMarkdown(ctx context.Context, stage string, req anthropic.MessageRequest) (string, error) {
	return resilience.DoVal(ctx, p.retry(stage), func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout())
		defer cancel()

		resp, err := p.ai.CreateMessage(callCtx, req)
		if err != nil {
			return "", eris.Wrapf(err, "%s: create message", stage)
		}
		resp.Usage.LogCost(req.Model, stage)

		text := resp.Text()
		if len(text) == 0 {
			return "", resilience.NewParseError(eris.New("empty document"), "")
		}
		return text, nil
	})
}

func (p *Pipeline) workers() int {
	if p.cfg.Pipeline.Workers > 0 {
		return p.cfg.Pipeline.Workers
	}
	return 8
}
