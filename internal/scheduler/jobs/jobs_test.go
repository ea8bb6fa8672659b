package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/brain"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/s0_data/collector"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/scheduler"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
)

func taipei(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)
	return loc
}

// gateAt returns a gate frozen at the given Taipei wall clock
func gateAt(t *testing.T, force bool, y int, m time.Month, d, hh int) *TradingDayGate {
	loc := taipei(t)
	g := NewTradingDayGate(loc, force)
	g.now = func() time.Time { return time.Date(y, m, d, hh, 0, 0, 0, loc) }
	return g
}

func TestTradingDayGate(t *testing.T) {
	tests := []struct {
		name    string
		day     int
		force   bool
		skipped bool
	}{
		{"friday", 14, false, false},
		{"saturday", 15, false, true},
		{"sunday", 16, false, true},
		{"forced saturday", 15, true, false},
		{"monday", 17, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gateAt(t, tt.force, 2025, 3, tt.day, 21).Check()
			assert.Equal(t, tt.skipped, errors.Is(err, scheduler.ErrSkipped))
		})
	}
}

func TestTradingDayGate_UsesStrategyTimezone(t *testing.T) {
	loc := taipei(t)
	g := NewTradingDayGate(loc, false)
	// Friday 17:00 UTC is already Saturday 01:00 in Taipei
	g.now = func() time.Time { return time.Date(2025, 3, 14, 17, 0, 0, 0, time.UTC) }

	assert.ErrorIs(t, g.Check(), scheduler.ErrSkipped)
	assert.Equal(t, 15, g.Today().Day())
}

type fakeRunner struct {
	calls int
	err   error
}

func (f *fakeRunner) Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("expected a deadline")
	}
	if f.err != nil {
		return &brain.RunResult{Error: f.err}, f.err
	}
	return &brain.RunResult{RunID: "r1", Success: true}, nil
}

func TestWeekdaySchedule(t *testing.T) {
	loc := taipei(t)

	spec, err := WeekdaySchedule(loc, "21:00")
	require.NoError(t, err)
	assert.Equal(t, "CRON_TZ=Asia/Taipei 0 0 21 * * 1-5", spec)

	spec, err = WeekdaySchedule(loc, "18:05")
	require.NoError(t, err)
	assert.Equal(t, "CRON_TZ=Asia/Taipei 0 5 18 * * 1-5", spec)

	_, err = WeekdaySchedule(loc, "9pm")
	assert.Error(t, err)
}

func TestScreeningJob(t *testing.T) {
	loc := taipei(t)
	schedule, err := WeekdaySchedule(loc, "21:00")
	require.NoError(t, err)

	runner := &fakeRunner{}
	job := NewScreeningJob(runner, gateAt(t, false, 2025, 3, 14, 21), schedule, logger.Nop())
	assert.Equal(t, "second_high_screening", job.Name())
	assert.Equal(t, "CRON_TZ=Asia/Taipei 0 0 21 * * 1-5", job.Schedule())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, runner.calls)

	weekend := NewScreeningJob(runner, gateAt(t, false, 2025, 3, 15, 21), schedule, logger.Nop())
	assert.ErrorIs(t, weekend.Run(context.Background()), scheduler.ErrSkipped)
	assert.Equal(t, 1, runner.calls)

	failing := &fakeRunner{err: errors.New("S0 failed")}
	err = NewScreeningJob(failing, gateAt(t, false, 2025, 3, 14, 21), schedule, logger.Nop()).Run(context.Background())
	assert.ErrorIs(t, err, scheduler.ErrPermanent)
	assert.ErrorContains(t, err, "S0 failed")
}

type fakeCollector struct {
	asOf time.Time
	cfg  collector.Config
	err  error
}

func (f *fakeCollector) CollectAll(_ context.Context, asOf time.Time, cfg collector.Config) error {
	f.asOf, f.cfg = asOf, cfg
	return f.err
}

type fakeCache struct {
	deleted []string
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func TestDataCollectionJob(t *testing.T) {
	col := &fakeCollector{}
	cache := &fakeCache{}

	job := NewDataCollectionJob(col, cache, gateAt(t, false, 2025, 3, 14, 18), "CRON_TZ=Asia/Taipei 0 0 18 * * 1-5", 4, logger.Nop())
	assert.Equal(t, "market_data_collection", job.Name())
	assert.Equal(t, "CRON_TZ=Asia/Taipei 0 0 18 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 14, col.asOf.Day())
	assert.Equal(t, 4, col.cfg.Workers)
	assert.Equal(t, []string{"panels:2025-03-14"}, cache.deleted)
}

func TestDataCollectionJob_Failure(t *testing.T) {
	col := &fakeCollector{err: errors.New("no active stocks")}
	cache := &fakeCache{}

	job := NewDataCollectionJob(col, cache, gateAt(t, false, 2025, 3, 14, 18), "@daily", 1, logger.Nop())
	assert.Error(t, job.Run(context.Background()))
	assert.Empty(t, cache.deleted)
}
