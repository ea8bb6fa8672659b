package brain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/report"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/metrics"
)

// Orchestrator coordinates the 5-stage screening pipeline
// ⭐ SSOT: pipeline 協調只在這裡
type Orchestrator struct {
	source    contracts.PanelSource
	gate      contracts.QualityGate
	filter    contracts.UniverseFilter
	screener  contracts.Screener
	formatter *report.Formatter

	// optional collaborators
	notifier contracts.Notifier
	stocks   contracts.StockRepository
	recorder *metrics.Recorder

	messagePause time.Duration
	execution    Execution
	logger       *logger.Logger
}

// Execution identifies where runs are triggered from
type Execution struct {
	Mode   string
	RunURL string
}

// Deps bundles the orchestrator collaborators. Notifier, Stocks and
// Recorder may be nil.
type Deps struct {
	Source    contracts.PanelSource
	Gate      contracts.QualityGate
	Filter    contracts.UniverseFilter
	Screener  contracts.Screener
	Formatter *report.Formatter
	Notifier  contracts.Notifier
	Stocks    contracts.StockRepository
	Recorder  *metrics.Recorder

	MessagePause time.Duration // between report messages
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	AsOf   time.Time // zero: latest stored session
	RunID  string    // generated when empty
	DryRun bool      // if true, the report is built but not sent
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID           string
	AsOf            time.Time
	Success         bool
	Error           error
	FailedStage     contracts.Stage
	CompletedStages []string
	Stages          []contracts.StageResult
	QualitySnapshot *contracts.DataQualitySnapshot
	Universe        *contracts.Universe
	Screening       *contracts.ScreeningResult
	Messages        []string
	Delivered       bool
	Duration        time.Duration
}

// Candidates returns the ranked candidates (nil before S3)
func (r *RunResult) Candidates() []contracts.Candidate {
	if r.Screening == nil {
		return nil
	}
	return r.Screening.Candidates
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(deps Deps, execution Execution, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		source:    deps.Source,
		gate:      deps.Gate,
		filter:    deps.Filter,
		screener:  deps.Screener,
		formatter: deps.Formatter,
		notifier:  deps.Notifier,
		stocks:    deps.Stocks,
		recorder:  deps.Recorder,

		messagePause: deps.MessagePause,
		execution:    execution,
		logger:       log,
	}
}

// Run executes S0 → S1 → S2 → S3 → S4.
// Any stage error aborts the run; a failure notice is sent when a notifier
// is configured.
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	startTime := time.Now()

	if config.RunID == "" {
		config.RunID = uuid.New().String()
	}

	result := &RunResult{
		RunID:           config.RunID,
		AsOf:            config.AsOf,
		CompletedStages: make([]string, 0),
	}
	log := o.logger.WithRun(config.RunID)

	asOf := "latest"
	if !config.AsOf.IsZero() {
		asOf = config.AsOf.Format(panel.DateLayout)
	}
	log.WithFields(map[string]interface{}{
		"as_of":          asOf,
		"dry_run":        config.DryRun,
		"execution_mode": o.execution.Mode,
	}).Info("Starting pipeline run")

	// S0: panels + quality gate
	var panels panel.Set
	err := o.stage(ctx, result, contracts.StageData, func(sr *contracts.StageResult) error {
		var err error
		panels, err = o.source.Load(ctx, config.AsOf)
		if err != nil {
			return fmt.Errorf("load panels: %w", err)
		}
		snapshot, err := o.gate.Check(ctx, panels)
		if err != nil {
			return fmt.Errorf("quality gate: %w", err)
		}
		result.QualitySnapshot = snapshot
		result.AsOf = panels.AsOf()
		sr.InputCount = snapshot.TotalStocks
		sr.OutputCount = snapshot.ValidStocks
		sr.Metadata = map[string]interface{}{
			"trading_days":  snapshot.TradingDays,
			"quality_score": snapshot.QualityScore,
			"passed":        snapshot.Passed,
		}
		return nil
	})
	if err != nil {
		return o.fail(ctx, result, startTime, err)
	}

	// S1: basic filter
	err = o.stage(ctx, result, contracts.StageUniverse, func(sr *contracts.StageResult) error {
		universe, filtered, err := o.filter.Apply(ctx, panels)
		if err != nil {
			return err
		}
		panels.Close = filtered
		result.Universe = universe
		sr.InputCount = universe.TotalCount
		sr.OutputCount = universe.Count()
		exclusions := universe.ExclusionCounts()
		o.recorder.RecordExclusions(exclusions)
		sr.Metadata = map[string]interface{}{"excluded": exclusions}
		return nil
	})
	if err != nil {
		return o.fail(ctx, result, startTime, err)
	}

	// S2: eight conditions + metrics, fanned out per instrument
	err = o.stage(ctx, result, contracts.StageSignals, func(sr *contracts.StageResult) error {
		screening, err := o.screener.Screen(ctx, result.Universe, panels)
		if err != nil {
			return err
		}
		result.Screening = screening
		sr.InputCount = screening.Evaluated
		sr.OutputCount = len(screening.Candidates)
		sr.Metadata = map[string]interface{}{"outcomes": screening.Counts()}
		return nil
	})
	if err != nil {
		return o.fail(ctx, result, startTime, err)
	}

	// S3: ranked by the screener; attach display names
	err = o.stage(ctx, result, contracts.StageRanker, func(sr *contracts.StageResult) error {
		sr.InputCount = len(result.Screening.Candidates)
		o.attachNames(ctx, log, result.Screening.Candidates)
		sr.OutputCount = len(result.Screening.Candidates)
		if sr.OutputCount > 0 {
			top := result.Screening.Candidates[0]
			sr.Metadata = map[string]interface{}{
				"top_symbol":         top.Symbol,
				"top_breakout_ratio": top.BreakoutRatio,
			}
		}
		return nil
	})
	if err != nil {
		return o.fail(ctx, result, startTime, err)
	}

	// S4: report + delivery
	err = o.stage(ctx, result, contracts.StageReport, func(sr *contracts.StageResult) error {
		result.Messages = o.formatter.Format(result.Screening)
		sr.InputCount = len(result.Screening.Candidates)
		sr.OutputCount = len(result.Messages)

		if config.DryRun || o.notifier == nil {
			sr.Skipped = true
			log.WithField("dry_run", config.DryRun).Info("Skipping report delivery")
			return nil
		}
		return o.deliver(ctx, log, result)
	})
	if err != nil {
		return o.fail(ctx, result, startTime, err)
	}

	result.Success = true
	result.Duration = time.Since(startTime)
	o.recorder.RecordRun("success", len(result.Screening.Candidates))

	log.WithFields(map[string]interface{}{
		"as_of":       result.AsOf.Format(panel.DateLayout),
		"duration_ms": result.Duration.Milliseconds(),
		"stages":      len(result.CompletedStages),
		"candidates":  len(result.Screening.Candidates),
		"delivered":   result.Delivered,
	}).Info("Pipeline run completed successfully")

	return result, nil
}

// deliver sends every report message, paced by messagePause. It fails
// only when no message got through.
func (o *Orchestrator) deliver(ctx context.Context, log *logger.Logger, result *RunResult) error {
	sent := 0
	var errs []error
	for i, msg := range result.Messages {
		if i > 0 && o.messagePause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(o.messagePause):
			}
		}

		if err := o.notifier.Send(ctx, msg); err != nil {
			log.WithError(err).WithFields(map[string]interface{}{
				"message": i + 1,
				"total":   len(result.Messages),
			}).Warn("Failed to send report message")
			errs = append(errs, fmt.Errorf("message %d/%d: %w", i+1, len(result.Messages), err))
			continue
		}
		sent++
	}

	if sent == 0 && len(result.Messages) > 0 {
		return fmt.Errorf("send report: %w", errors.Join(errs...))
	}
	result.Delivered = sent > 0
	if len(errs) > 0 {
		log.WithFields(map[string]interface{}{
			"sent":   sent,
			"failed": len(errs),
		}).Warn("Report partially delivered")
	}
	return nil
}

// stage runs fn as one pipeline stage and records its StageResult
func (o *Orchestrator) stage(ctx context.Context, result *RunResult, stage contracts.Stage, fn func(*contracts.StageResult) error) error {
	if err := ctx.Err(); err != nil {
		result.FailedStage = stage
		return fmt.Errorf("%s: %w", stage.ShortName(), err)
	}

	log := o.logger.WithRun(result.RunID).WithStage(string(stage))
	log.Infof("Running %s: %s", stage.ShortName(), stage.Description())

	start := time.Now()
	sr := contracts.StageResult{Stage: stage}
	err := fn(&sr)
	elapsed := time.Since(start)

	sr.Duration = elapsed.Milliseconds()
	sr.Success = err == nil
	if err != nil {
		sr.Error = err.Error()
	}
	result.Stages = append(result.Stages, sr)
	o.recorder.RecordStage(string(stage), elapsed)

	if err != nil {
		result.FailedStage = stage
		return fmt.Errorf("%s failed: %w", stage.ShortName(), err)
	}

	result.CompletedStages = append(result.CompletedStages, string(stage))
	log.WithFields(map[string]interface{}{
		"input":       sr.InputCount,
		"output":      sr.OutputCount,
		"skipped":     sr.Skipped,
		"duration_ms": sr.Duration,
	}).Infof("%s completed", stage.ShortName())
	return nil
}

// fail finalises a failed run and sends the failure notice
func (o *Orchestrator) fail(ctx context.Context, result *RunResult, startTime time.Time, err error) (*RunResult, error) {
	result.Error = err
	result.Duration = time.Since(startTime)
	o.recorder.RecordRun("failed", 0)
	o.recorder.RecordError(errorKind(err))

	log := o.logger.WithRun(result.RunID)
	log.WithError(err).WithField("stage", string(result.FailedStage)).Error("Pipeline run failed")

	if o.notifier != nil && o.formatter != nil {
		notice := o.formatter.FailureNotice(err, report.RunMeta{
			RunID:  result.RunID,
			Mode:   o.execution.Mode,
			RunURL: o.execution.RunURL,
			Stage:  string(result.FailedStage),
		})
		// the run context may already be cancelled
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if nerr := o.notifier.Send(notifyCtx, notice); nerr != nil {
			log.WithError(nerr).Warn("Failed to send failure notice")
		}
	}

	return result, err
}

// attachNames fills candidate names from the stock master; lookup
// failures leave the symbol as the display name
func (o *Orchestrator) attachNames(ctx context.Context, log *logger.Logger, candidates []contracts.Candidate) {
	if o.stocks == nil || len(candidates) == 0 {
		return
	}

	stocks, err := o.stocks.ListActive(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to load stock names")
		return
	}

	names := make(map[string]string, len(stocks))
	for _, s := range stocks {
		names[s.Code] = s.Name
	}
	for i := range candidates {
		if name, ok := names[candidates[i].Symbol]; ok {
			candidates[i].Name = name
		}
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, contracts.ErrInputUnavailable):
		return "input_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "pipeline"
	}
}
