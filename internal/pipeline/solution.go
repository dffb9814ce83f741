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

type solutionPayload struct {
	Concepts []struct {
		ConceptName  string   `json:"concept_name"`
		CoreFeatures []string `json:"core_features"`
	} `json:"concepts"`
}

// generateSolutions runs stage 6: for each validated opportunity in
// parallel, brainstorm 1-3 solution concepts, select one, then generate
// and export the BRD, PRD, and agile plan in order. Concept failure moves
// the opportunity to solution_failed; document failure leaves it at
// solutions_ready so a later run can finish the documents.
func (p *Pipeline) generateSolutions(ctx context.Context, sessionID string) (completed, failed, documents int) {
	opps, err := p.store.ListOpportunities(ctx, store.OpportunityFilter{
		Status:    model.OpportunityStatusValidated,
		SessionID: sessionID,
	})
	if err != nil {
		zap.L().Error("solution: list opportunities", zap.Error(err))
		return 0, 0, 0
	}
	if len(opps) == 0 {
		return 0, 0, 0
	}

	var completedCount, failedCount, docCount atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())

	for _, opp := range opps {
		g.Go(func() error {
			concept, err := p.brainstormConcepts(gCtx, opp)
			if err != nil {
				zap.L().Error("solution: brainstorm failed",
					zap.String("opportunity", opp.ID),
					zap.Error(err),
				)
				failedCount.Add(1)
				if updateErr := p.store.UpdateOpportunityStatus(gCtx, opp.ID, model.OpportunityStatusSolutionFailed); updateErr != nil {
					zap.L().Error("solution: failed to mark opportunity", zap.Error(updateErr))
				}
				return nil
			}

			if err := p.store.UpdateOpportunityStatus(gCtx, opp.ID, model.OpportunityStatusSolutionsReady); err != nil {
				zap.L().Error("solution: failed to advance opportunity", zap.Error(err))
				failedCount.Add(1)
				return nil
			}

			written, err := p.generateDocuments(gCtx, &opp, concept)
			docCount.Add(int64(written))
			if err != nil {
				zap.L().Error("solution: document generation failed",
					zap.String("opportunity", opp.ID),
					zap.Int("documents_written", written),
					zap.Error(err),
				)
				failedCount.Add(1)
				return nil
			}

			if err := p.store.UpdateOpportunityStatus(gCtx, opp.ID, model.OpportunityStatusCompleted); err != nil {
				zap.L().Error("solution: failed to complete opportunity", zap.Error(err))
				failedCount.Add(1)
				return nil
			}
			completedCount.Add(1)
			return nil
		})
	}

	_ = g.Wait()
	return int(completedCount.Load()), int(failedCount.Load()), int(docCount.Load())
}

// brainstormConcepts generates 1-3 concepts, persists them, and selects
// the winner: the concept with the most core features, ties broken by
// generation order.
func (p *Pipeline) brainstormConcepts(ctx context.Context, opp model.Opportunity) (model.SolutionConcept, error) {
	var zero model.SolutionConcept

	req := anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.QualityModel,
		MaxTokens: int64(p.cfg.Anthropic.MaxTokens),
		System:    []anthropic.SystemBlock{{Text: solutionSystemPrompt}},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(solutionUserPrompt,
				opp.Title, opp.ProblemSummary, opp.TargetUser, opp.ValueProposition)},
		},
	}

	payload, err := resilience.DoVal(ctx, p.retry("solution"), func(ctx context.Context) (solutionPayload, error) {
		var zeroPayload solutionPayload
		callCtx, cancel := context.WithTimeout(ctx, p.timeout())
		defer cancel()

		resp, err := p.ai.CreateMessage(callCtx, req)
		if err != nil {
			return zeroPayload, eris.Wrap(err, "solution: create message")
		}
		resp.Usage.LogCost(req.Model, "solution")

		decoded, err := decodeJSON[solutionPayload](resp.Text())
		if err != nil {
			return zeroPayload, err
		}
		if len(decoded.Concepts) == 0 {
			return zeroPayload, resilience.NewParseError(eris.New("no concepts in response"), resp.Text())
		}
		return decoded, nil
	})
	if err != nil {
		return zero, err
	}

	concepts := make([]model.SolutionConcept, 0, len(payload.Concepts))
	for _, c := range payload.Concepts {
		concepts = append(concepts, model.SolutionConcept{
			Name:         c.ConceptName,
			CoreFeatures: c.CoreFeatures,
		})
	}

	stored, err := p.store.CreateSolutionConcepts(ctx, opp.ID, concepts)
	if err != nil {
		return zero, eris.Wrap(err, "solution: persist concepts")
	}

	winner := stored[0]
	for _, c := range stored[1:] {
		if len(c.CoreFeatures) > len(winner.CoreFeatures) {
			winner = c
		}
	}
	if err := p.store.SelectSolutionConcept(ctx, opp.ID, winner.ID); err != nil {
		return zero, eris.Wrap(err, "solution: select concept")
	}
	winner.Selected = true
	return winner, nil
}
