package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/s2_signals"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/strategyconfig"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/metrics"
)

// Screener evaluates every universe member and ranks the qualifiers (S2 + S3)
// ⭐ SSOT: 8 條件篩選只在這裡
type Screener struct {
	evaluator  *s2_signals.ConditionEvaluator
	calculator *s2_signals.MetricsCalculator
	ranker     *Ranker
	workers    int
	recorder   *metrics.Recorder
	logger     *logger.Logger
}

// NewScreener creates a new screener. recorder may be nil.
func NewScreener(cfg strategyconfig.Config, recorder *metrics.Recorder, log *logger.Logger) *Screener {
	workers := cfg.Runtime.Workers
	if workers < 1 {
		workers = 1
	}
	return &Screener{
		evaluator:  s2_signals.NewConditionEvaluator(cfg.Conditions),
		calculator: s2_signals.NewMetricsCalculator(cfg.Metrics, cfg.Conditions),
		ranker:     NewRanker(),
		workers:    workers,
		recorder:   recorder,
		logger:     log,
	}
}

// evaluation is the outcome of one worker job
type evaluation struct {
	result    contracts.InstrumentResult
	candidate *contracts.Candidate
}

// Screen evaluates the universe concurrently. Panels are read-only; each
// worker writes only its own slot, so results keep universe order.
func (s *Screener) Screen(ctx context.Context, universe *contracts.Universe, panels panel.Set) (*contracts.ScreeningResult, error) {
	result := &contracts.ScreeningResult{
		Date:       panels.AsOf(),
		Results:    []contracts.InstrumentResult{},
		Candidates: []contracts.Candidate{},
	}
	if universe == nil || universe.Count() == 0 {
		s.logger.Info("Empty universe, nothing to screen")
		return result, nil
	}

	symbols := universe.Stocks
	slots := make([]evaluation, len(symbols))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := s.workers
	if workers > len(symbols) {
		workers = len(symbols)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				slots[i] = s.evaluate(symbols[i], panels)
			}
		}()
	}

dispatch:
	for i := range symbols {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("screening cancelled: %w", err)
	}

	passed := make([]contracts.Candidate, 0)
	result.Results = make([]contracts.InstrumentResult, len(slots))
	for i, slot := range slots {
		result.Results[i] = slot.result
		if slot.candidate != nil {
			passed = append(passed, *slot.candidate)
		}
	}
	result.Evaluated = len(slots)
	result.Candidates = s.ranker.Rank(passed)

	counts := result.Counts()
	s.recorder.RecordOutcomes(counts)

	fields := map[string]interface{}{
		"evaluated":  result.Evaluated,
		"candidates": len(result.Candidates),
		"workers":    workers,
	}
	for outcome, n := range counts {
		fields[outcome] = n
	}
	s.logger.WithFields(fields).Info("Screening completed")

	for _, f := range result.Failures() {
		s.logger.WithFields(map[string]interface{}{
			"symbol": f.Symbol,
			"reason": f.Reason,
		}).Warn("Instrument evaluation failed")
	}

	return result, nil
}

// evaluate runs both calculators for one symbol. A panic is confined to
// the symbol and reported as OutcomeFailed.
func (s *Screener) evaluate(symbol string, panels panel.Set) (out evaluation) {
	out.result = contracts.InstrumentResult{Symbol: symbol}

	defer func() {
		if r := recover(); r != nil {
			out = evaluation{result: contracts.InstrumentResult{
				Symbol:  symbol,
				Outcome: contracts.OutcomeFailed,
				Reason:  fmt.Sprintf("panic: %v", r),
			}}
		}
	}()

	h := s2_signals.HistoryFromPanels(symbol, panels)
	ev, err := s.evaluator.Evaluate(h)
	switch {
	case errors.Is(err, contracts.ErrInsufficientHistory):
		out.result.Outcome = contracts.OutcomeSkipped
		out.result.Reason = err.Error()
		return out
	case err != nil:
		out.result.Outcome = contracts.OutcomeFailed
		out.result.Reason = err.Error()
		return out
	}

	out.result.Conditions = ev.Conditions
	if !ev.Passes {
		out.result.Outcome = contracts.OutcomeRejected
		out.result.Reason = fmt.Sprintf("failed conditions %v", ev.Conditions.Failed())
		return out
	}

	m := s.calculator.Calculate(h)
	if m.Neutral {
		s.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  fmt.Sprint(m.Err),
		}).Warn("Metrics fell back to neutral values")
	}

	candidate := s2_signals.NewCandidate(h, ev, m)
	out.result.Outcome = contracts.OutcomePassed
	out.candidate = &candidate
	return out
}
