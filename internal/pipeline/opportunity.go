package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pitchforge/pitchforge/internal/model"
	"github.com/pitchforge/pitchforge/pkg/anthropic"
)

// maxSampleProblems limits the per-theme problem summaries included in
// the opportunity prompt.
const maxSampleProblems = 15

type opportunityPayload struct {
	Title            string `json:"title"`
	ProblemSummary   string `json:"problem_summary"`
	Description      string `json:"description"`
	TargetUser       string `json:"target_user"`
	ValueProposition string `json:"value_proposition"`
}

// createOpportunities runs stage 4: one quality-model call per theme in
// parallel, synthesizing the opportunity definition. Evidence is
// aggregated locally from the member leads. Member leads advance to
// opportunity_created on success and theming_failed when the theme's
// call exhausts its retries.
func (p *Pipeline) createOpportunities(ctx context.Context, themes []model.Theme, totalAnalyzed int, sessionID string) (created, failed int) {
	if len(themes) == 0 {
		return 0, 0
	}

	var createdCount, failedCount atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())

	for _, theme := range themes {
		g.Go(func() error {
			payload, err := p.defineOpportunity(gCtx, theme)
			if err != nil {
				zap.L().Error("opportunity: theme failed",
					zap.String("theme", theme.Title),
					zap.Int("members", len(theme.Items)),
					zap.Error(err),
				)
				failedCount.Add(1)
				if updateErr := p.store.UpdateRawItemStatus(gCtx, theme.ItemIDs(), model.LeadStatusThemingFailed); updateErr != nil {
					zap.L().Error("opportunity: failed to mark leads", zap.Error(updateErr))
				}
				return nil
			}

			evidence := BuildEvidence(theme.Items, totalAnalyzed)
			opp := &model.Opportunity{
				Title:              payload.Title,
				ProblemSummary:     payload.ProblemSummary,
				Description:        payload.Description,
				TargetUser:         payload.TargetUser,
				ValueProposition:   payload.ValueProposition,
				BasedOnLeadIDs:     theme.ItemIDs(),
				Evidence:           evidence,
				TotalPostsAnalyzed: totalAnalyzed,
				PainPointFrequency: evidence.PainPointFrequency,
				SessionID:          sessionID,
			}
			if opp.Title == "" {
				opp.Title = theme.Title
			}

			if _, err := p.store.CreateOpportunity(gCtx, opp); err != nil {
				zap.L().Error("opportunity: failed to persist",
					zap.String("theme", theme.Title),
					zap.Error(err),
				)
				failedCount.Add(1)
				return nil
			}
			if err := p.store.UpdateRawItemStatus(gCtx, theme.ItemIDs(), model.LeadStatusOpportunityCreated); err != nil {
				zap.L().Error("opportunity: failed to advance leads", zap.Error(err))
			}
			createdCount.Add(1)
			return nil
		})
	}

	_ = g.Wait()
	return int(createdCount.Load()), int(failedCount.Load())
}

func (p *Pipeline) defineOpportunity(ctx context.Context, theme model.Theme) (opportunityPayload, error) {
	var samples []string
	for _, item := range theme.Items {
		if len(samples) >= maxSampleProblems {
			break
		}
		if item.Analysis == nil {
			continue
		}
		samples = append(samples, "- "+item.Analysis.ProblemSummary)
	}

	req := anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.QualityModel,
		MaxTokens: int64(p.cfg.Anthropic.MaxTokens),
		System:    []anthropic.SystemBlock{{Text: opportunitySystemPrompt}},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(opportunityUserPrompt,
				theme.Title, theme.Summary, len(theme.Items), strings.Join(samples, "\n"))},
		},
	}
	return completeJSON[opportunityPayload](ctx, p, "opportunity", req)
}
