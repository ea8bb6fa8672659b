package contracts

import "time"

// Outcome classifies what happened to one instrument in S2
type Outcome string

const (
	OutcomePassed   Outcome = "passed"   // all eight conditions hold
	OutcomeRejected Outcome = "rejected" // evaluated, at least one condition false
	OutcomeSkipped  Outcome = "skipped"  // not enough history to evaluate
	OutcomeFailed   Outcome = "failed"   // computation error or panic, excluded
)

// InstrumentResult is the S2 verdict for one instrument
type InstrumentResult struct {
	Symbol     string       `json:"symbol"`
	Outcome    Outcome      `json:"outcome"`
	Reason     string       `json:"reason,omitempty"`
	Conditions ConditionSet `json:"conditions"`
}

// ScreeningResult is the output of S2 + S3
// ⭐ SSOT: S3 → S4 hand-off
type ScreeningResult struct {
	Date       time.Time          `json:"date"`
	Evaluated  int                `json:"evaluated"`
	Results    []InstrumentResult `json:"results"`    // universe order
	Candidates []Candidate        `json:"candidates"` // ranked
}

// Counts returns the number of instruments per outcome
func (r *ScreeningResult) Counts() map[string]int {
	counts := map[string]int{
		string(OutcomePassed):   0,
		string(OutcomeRejected): 0,
		string(OutcomeSkipped):  0,
		string(OutcomeFailed):   0,
	}
	for _, res := range r.Results {
		counts[string(res.Outcome)]++
	}
	return counts
}

// Failures returns the instruments whose evaluation failed
func (r *ScreeningResult) Failures() []InstrumentResult {
	var out []InstrumentResult
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			out = append(out, res)
		}
	}
	return out
}

// Top returns at most n ranked candidates
func (r *ScreeningResult) Top(n int) []Candidate {
	if n <= 0 || n >= len(r.Candidates) {
		return r.Candidates
	}
	return r.Candidates[:n]
}
