package selection

import (
	"sort"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
)

// Ranker orders qualifying candidates (S3)
// ⭐ SSOT: S3 排序邏輯只在這裡
type Ranker struct{}

// NewRanker creates a new ranker
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank sorts by conditions met, then breakout ratio, both descending.
// Equal keys keep their input order. Ranks are 1-based.
func (r *Ranker) Rank(candidates []contracts.Candidate) []contracts.Candidate {
	ranked := make([]contracts.Candidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ConditionsMet != ranked[j].ConditionsMet {
			return ranked[i].ConditionsMet > ranked[j].ConditionsMet
		}
		return ranked[i].BreakoutRatio > ranked[j].BreakoutRatio
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
