package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/brain"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/scheduler"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
)

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context, config brain.RunConfig) (*brain.RunResult, error)
}

// ScreeningJob runs the second-high screening after the close
// ⭐ SSOT: 篩選排程只在這個 Job
type ScreeningJob struct {
	runner   Runner
	gate     *TradingDayGate
	schedule string
	timeout  time.Duration
	logger   *logger.Logger
}

// NewScreeningJob creates a new screening job; see WeekdaySchedule
func NewScreeningJob(runner Runner, gate *TradingDayGate, schedule string, log *logger.Logger) *ScreeningJob {
	return &ScreeningJob{
		runner:   runner,
		gate:     gate,
		schedule: schedule,
		timeout:  30 * time.Minute,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScreeningJob) Name() string {
	return "second_high_screening"
}

// Schedule returns the cron schedule (21:00 Taipei, Mon-Fri by default)
func (j *ScreeningJob) Schedule() string {
	return j.schedule
}

// Run executes the pipeline for the latest stored session.
// Pipeline failures are permanent: the run already sent its failure notice.
func (j *ScreeningJob) Run(ctx context.Context) error {
	if err := j.gate.Check(); err != nil {
		return err
	}

	j.logger.Info("Starting scheduled screening")

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	result, err := j.runner.Run(ctx, brain.RunConfig{})
	if err != nil {
		return fmt.Errorf("screening run: %w: %w", scheduler.ErrPermanent, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":     result.RunID,
		"candidates": len(result.Candidates()),
		"delivered":  result.Delivered,
	}).Info("Scheduled screening completed")

	return nil
}
