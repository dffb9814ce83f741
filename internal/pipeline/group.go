package pipeline

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pitchforge/pitchforge/internal/config"
	"github.com/pitchforge/pitchforge/internal/model"
)

// MiscDomain is the carry-forward label for undersized groups when the
// small-group policy is "misc".
const MiscDomain = "miscellaneous"

// GroupByDomain runs stage 2: a pure in-memory grouping of analyzed leads
// by their extracted problem domain. Leads whose analysis found no clear
// problem are excluded. Groups smaller than minGroupSize are dropped or
// merged into a miscellaneous group depending on policy. Output is sorted
// by domain for deterministic downstream batching.
func GroupByDomain(items []model.RawItem, minGroupSize int, policy string) []model.DomainGroup {
	byDomain := make(map[string][]model.RawItem)
	for _, item := range items {
		if !item.Analysis.HasProblem() {
			continue
		}
		domain := strings.ToLower(strings.TrimSpace(item.Analysis.ProblemDomain))
		if domain == "" {
			domain = MiscDomain
		}
		byDomain[domain] = append(byDomain[domain], item)
	}

	var groups []model.DomainGroup
	var misc []model.RawItem
	dropped := 0

	for domain, members := range byDomain {
		if minGroupSize > 1 && len(members) < minGroupSize && domain != MiscDomain {
			if policy == config.SmallGroupMisc {
				misc = append(misc, members...)
			} else {
				dropped += len(members)
			}
			continue
		}
		groups = append(groups, model.DomainGroup{Domain: domain, Items: members})
	}

	if len(misc) > 0 {
		merged := false
		for i := range groups {
			if groups[i].Domain == MiscDomain {
				groups[i].Items = append(groups[i].Items, misc...)
				merged = true
				break
			}
		}
		if !merged {
			groups = append(groups, model.DomainGroup{Domain: MiscDomain, Items: misc})
		}
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Domain < groups[j].Domain })

	if dropped > 0 {
		zap.L().Info("group: dropped undersized groups", zap.Int("leads", dropped))
	}
	return groups
}
