package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pitchforge/pitchforge/internal/model"
	"github.com/pitchforge/pitchforge/internal/resilience"
	"github.com/pitchforge/pitchforge/internal/store"
	"github.com/pitchforge/pitchforge/pkg/anthropic"
)

type validationPayload struct {
	MonetizationScore int    `json:"monetization_score"`
	MarketSizeScore   int    `json:"market_size_score"`
	FeasibilityScore  int    `json:"feasibility_score"`
	Recommendation    string `json:"recommendation"`
	Justification     string `json:"justification"`
}

// validateOpportunities runs stage 5: one quality-model call per defined
// opportunity in parallel, producing three 1-10 scores and a Go/No-Go
// verdict. Out-of-range integer scores are clamped; a non-integer score
// or unrecognized verdict is a parse failure and retried. Exhausted
// retries move the opportunity to validation_failed.
func (p *Pipeline) validateOpportunities(ctx context.Context, sessionID string) (validated, rejected, failed int) {
	opps, err := p.store.ListOpportunities(ctx, store.OpportunityFilter{
		Status:    model.OpportunityStatusDefined,
		SessionID: sessionID,
	})
	if err != nil {
		zap.L().Error("validate: list opportunities", zap.Error(err))
		return 0, 0, 0
	}
	if len(opps) == 0 {
		return 0, 0, 0
	}

	var validatedCount, rejectedCount, failedCount atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())

	for _, opp := range opps {
		g.Go(func() error {
			payload, err := p.scoreOpportunity(gCtx, opp)
			if err != nil {
				zap.L().Error("validate: opportunity failed",
					zap.String("opportunity", opp.ID),
					zap.String("title", opp.Title),
					zap.Error(err),
				)
				failedCount.Add(1)
				if updateErr := p.store.UpdateOpportunityStatus(gCtx, opp.ID, model.OpportunityStatusValidationFailed); updateErr != nil {
					zap.L().Error("validate: failed to mark opportunity", zap.Error(updateErr))
				}
				return nil
			}

			v := &model.Validation{
				MonetizationScore: model.ClampScore(payload.MonetizationScore),
				MarketSizeScore:   model.ClampScore(payload.MarketSizeScore),
				FeasibilityScore:  model.ClampScore(payload.FeasibilityScore),
				Recommendation:    payload.Recommendation,
				Justification:     payload.Justification,
			}

			status := model.OpportunityStatusValidated
			if payload.Recommendation == model.RecommendationNoGo {
				status = model.OpportunityStatusRejected
			}

			if err := p.store.UpdateOpportunityValidation(gCtx, opp.ID, v, status); err != nil {
				zap.L().Error("validate: failed to persist", zap.String("opportunity", opp.ID), zap.Error(err))
				failedCount.Add(1)
				return nil
			}

			if status == model.OpportunityStatusValidated {
				validatedCount.Add(1)
			} else {
				rejectedCount.Add(1)
			}
			return nil
		})
	}

	_ = g.Wait()
	return int(validatedCount.Load()), int(rejectedCount.Load()), int(failedCount.Load())
}

func (p *Pipeline) scoreOpportunity(ctx context.Context, opp model.Opportunity) (validationPayload, error) {
	freq, total := opp.PainPointFrequency, opp.TotalPostsAnalyzed
	pct := 0.0
	if total > 0 {
		pct = float64(freq) / float64(total) * 100
	}

	req := anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.QualityModel,
		MaxTokens: int64(p.cfg.Anthropic.MaxTokens),
		System:    []anthropic.SystemBlock{{Text: validateSystemPrompt}},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(validateUserPrompt,
				opp.Title, opp.ProblemSummary, opp.Description, opp.TargetUser,
				opp.ValueProposition, freq, total, pct)},
		},
	}

	return resilience.DoVal(ctx, p.retry("validate"), func(ctx context.Context) (validationPayload, error) {
		var zero validationPayload
		callCtx, cancel := context.WithTimeout(ctx, p.timeout())
		defer cancel()

		resp, err := p.ai.CreateMessage(callCtx, req)
		if err != nil {
			return zero, eris.Wrap(err, "validate: create message")
		}
		resp.Usage.LogCost(req.Model, "validate")

		payload, err := decodeJSON[validationPayload](resp.Text())
		if err != nil {
			return zero, err
		}
		if payload.Recommendation != model.RecommendationGo && payload.Recommendation != model.RecommendationNoGo {
			return zero, resilience.NewParseError(
				eris.Errorf("unrecognized recommendation %q", payload.Recommendation), resp.Text())
		}
		return payload, nil
	})
}
