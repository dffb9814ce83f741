package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pitchforge/pitchforge/internal/model"
	"github.com/pitchforge/pitchforge/pkg/anthropic"
)

type themePayload struct {
	Themes []struct {
		Title   string   `json:"title"`
		Summary string   `json:"summary"`
		Domains []string `json:"domains"`
	} `json:"themes"`
}

// consolidateThemes runs stage 3: domain labels are sent to the quality
// model in batches; the response maps canonical themes to their member
// domains. A batch whose call exhausts its retries loses its groups for
// this run. Domains the model leaves unassigned carry through as
// single-domain themes. Themes with fewer members than MinThemeSize are
// discarded.
func (p *Pipeline) consolidateThemes(ctx context.Context, groups []model.DomainGroup) []model.Theme {
	if len(groups) == 0 {
		return nil
	}

	groupByDomain := make(map[string]model.DomainGroup, len(groups))
	for _, g := range groups {
		groupByDomain[g.Domain] = g
	}

	batchSize := p.cfg.Pipeline.ThemeBatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	var themes []model.Theme
	for start := 0; start < len(groups); start += batchSize {
		end := min(start+batchSize, len(groups))
		batch := groups[start:end]

		payload, err := p.consolidateBatch(ctx, batch)
		if err != nil {
			zap.L().Error("themes: batch failed, groups left unconsolidated",
				zap.Int("groups", len(batch)),
				zap.Error(err),
			)
			continue
		}

		assigned := make(map[string]bool)
		for _, t := range payload.Themes {
			var items []model.RawItem
			for _, domain := range t.Domains {
				key := strings.ToLower(strings.TrimSpace(domain))
				g, ok := groupByDomain[key]
				if !ok || assigned[key] {
					continue
				}
				assigned[key] = true
				items = append(items, g.Items...)
			}
			if len(items) == 0 {
				continue
			}
			themes = append(themes, model.Theme{Title: t.Title, Summary: t.Summary, Items: items})
		}

		// Unassigned domains carry through on their own.
		for _, g := range batch {
			if !assigned[g.Domain] {
				themes = append(themes, model.Theme{Title: g.Domain, Items: g.Items})
			}
		}
	}

	minSize := p.cfg.Pipeline.MinThemeSize
	if minSize <= 0 {
		minSize = 3
	}
	var kept []model.Theme
	for _, t := range themes {
		if len(t.Items) < minSize {
			zap.L().Debug("themes: discarding undersized theme",
				zap.String("theme", t.Title),
				zap.Int("members", len(t.Items)),
			)
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

func (p *Pipeline) consolidateBatch(ctx context.Context, batch []model.DomainGroup) (themePayload, error) {
	labels := make([]string, len(batch))
	for i, g := range batch {
		labels[i] = fmt.Sprintf("- %s (%d posts)", g.Domain, len(g.Items))
	}

	req := anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.QualityModel,
		MaxTokens: int64(p.cfg.Anthropic.MaxTokens),
		System:    []anthropic.SystemBlock{{Text: themeSystemPrompt}},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(themeUserPrompt, strings.Join(labels, "\n"))},
		},
	}
	return completeJSON[themePayload](ctx, p, "themes", req)
}
