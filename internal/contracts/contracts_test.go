package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionSet(t *testing.T) {
	all := ConditionSet{true, true, true, true, true, true, true, true}
	assert.True(t, all.All())
	assert.Equal(t, ConditionCount, all.Count())
	assert.Empty(t, all.Failed())

	partial := all
	partial.GenuineBreakout = false
	partial.VolumeExpansion = false
	assert.False(t, partial.All())
	assert.Equal(t, 6, partial.Count())
	assert.Equal(t, []int{4, 8}, partial.Failed())
	assert.Len(t, partial.Slice(), ConditionCount)
}

func TestScreeningResultCounts(t *testing.T) {
	r := &ScreeningResult{
		Results: []InstrumentResult{
			{Symbol: "2330", Outcome: OutcomePassed},
			{Symbol: "2317", Outcome: OutcomeRejected},
			{Symbol: "1101", Outcome: OutcomeFailed, Reason: "boom"},
			{Symbol: "2603", Outcome: OutcomeRejected},
		},
		Candidates: []Candidate{{Symbol: "2330", Rank: 1}},
	}

	counts := r.Counts()
	assert.Equal(t, 1, counts["passed"])
	assert.Equal(t, 2, counts["rejected"])
	assert.Equal(t, 0, counts["skipped"])
	assert.Equal(t, 1, counts["failed"])

	failures := r.Failures()
	assert.Len(t, failures, 1)
	assert.Equal(t, "1101", failures[0].Symbol)

	assert.Len(t, r.Top(10), 1)
	assert.True(t, r.Candidates[0].IsTopRanked(1))
}

func TestUniverse(t *testing.T) {
	u := &Universe{
		Stocks: []string{"2330", "2317"},
		Excluded: map[string]string{
			"1101": ReasonPriceFloor,
			"9999": ReasonPriceFloor,
			"8888": ReasonLowLiquidity,
		},
	}

	assert.True(t, u.Contains("2330"))
	assert.False(t, u.Contains("1101"))
	excluded, reason := u.IsExcluded("8888")
	assert.True(t, excluded)
	assert.Equal(t, ReasonLowLiquidity, reason)
	assert.Equal(t, 2, u.Count())
	assert.Equal(t, map[string]int{ReasonPriceFloor: 2, ReasonLowLiquidity: 1}, u.ExclusionCounts())
}

func TestStages(t *testing.T) {
	assert.Len(t, AllStages(), 5)
	assert.Equal(t, "S3", StageRanker.ShortName())
	assert.True(t, IsValidStage("S4_REPORT"))
	assert.False(t, IsValidStage("S7_AUDIT"))
}

func TestDataQualitySnapshot(t *testing.T) {
	d := &DataQualitySnapshot{Passed: true, ValidStocks: 3, Coverage: map[string]float64{"close": 1, "volume": 0.5}}
	assert.True(t, d.IsValid())
	assert.InDelta(t, 0.75, d.CoverageRate(), 1e-9)
}
