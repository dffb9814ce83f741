package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pitchforge/pitchforge/internal/model"
	"github.com/pitchforge/pitchforge/internal/resilience"
	"github.com/pitchforge/pitchforge/pkg/anthropic"
)

// maxLeadBody caps the text sent per lead; forum posts past this length
// add tokens without adding signal.
const maxLeadBody = 6000

// extractProblems runs stage 1: one fast-model call per new lead, fanned
// out over a bounded worker group. A lead that fails extraction is marked
// analysis_failed and never aborts its siblings. On return no lead in the
// input remains in new_raw_lead.
func (p *Pipeline) extractProblems(ctx context.Context, leads []model.RawItem) (analyzed, failed int) {
	if len(leads) == 0 {
		return 0, 0
	}

	systemBlocks := anthropic.BuildCachedSystemBlocks(extractSystemPrompt)

	// Warm the prompt cache with one serial request so concurrent workers
	// hit the cached system prompt instead of racing to write it.
	primer := p.extractRequest(systemBlocks, leads[0])
	if err := resilience.Do(ctx, p.retry("extract"), func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout())
		defer cancel()
		_, err := anthropic.PrimerRequest(callCtx, p.ai, primer)
		return err
	}); err != nil {
		zap.L().Warn("extract: primer request failed", zap.Error(err))
	}

	var analyzedCount, failedCount atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())

	for _, lead := range leads {
		g.Go(func() error {
			req := p.extractRequest(systemBlocks, lead)
			analysis, err := completeJSON[model.LeadAnalysis](gCtx, p, "extract", req)
			if err != nil {
				zap.L().Warn("extract: lead failed",
					zap.String("lead", lead.ID),
					zap.String("external_id", lead.ExternalID),
					zap.Error(err),
				)
				failedCount.Add(1)
				if updateErr := p.store.UpdateRawItemAnalysis(gCtx, lead.ID, nil, model.LeadStatusAnalysisFailed); updateErr != nil {
					zap.L().Error("extract: failed to mark lead failed", zap.String("lead", lead.ID), zap.Error(updateErr))
				}
				return nil
			}

			if lead.Permalink != "" {
				analysis.SourceURL = "https://www.reddit.com" + lead.Permalink
			}

			if updateErr := p.store.UpdateRawItemAnalysis(gCtx, lead.ID, &analysis, model.LeadStatusAnalyzed); updateErr != nil {
				zap.L().Error("extract: failed to save analysis", zap.String("lead", lead.ID), zap.Error(updateErr))
				failedCount.Add(1)
				return nil
			}
			analyzedCount.Add(1)
			return nil
		})
	}

	_ = g.Wait()
	return int(analyzedCount.Load()), int(failedCount.Load())
}

func (p *Pipeline) extractRequest(system []anthropic.SystemBlock, lead model.RawItem) anthropic.MessageRequest {
	body := lead.Body
	if len(body) > maxLeadBody {
		cut := maxLeadBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}

	return anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.FastModel,
		MaxTokens: int64(p.cfg.Anthropic.MaxTokens),
		System:    system,
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(extractUserPrompt, lead.Subreddit, lead.Title, body)},
		},
	}
}
