package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/strategyconfig"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/config"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
)

func TestCommandTree(t *testing.T) {
	want := [][]string{
		{"run"},
		{"scheduler", "start"},
		{"scheduler", "list"},
		{"scheduler", "run"},
		{"fetcher", "collect"},
		{"api"},
		{"status"},
		{"config", "show"},
	}

	for _, path := range want {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestCollectArgs(t *testing.T) {
	assert.NoError(t, collectCmd.Args(collectCmd, []string{"prices"}))
	assert.Error(t, collectCmd.Args(collectCmd, []string{"investor"}))
	assert.Error(t, collectCmd.Args(collectCmd, []string{}))
}

func TestParseAsOf(t *testing.T) {
	d, err := parseAsOf("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = parseAsOf("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), d)

	_, err = parseAsOf("20250314")
	assert.Error(t, err)
}

func TestRevenueMonth(t *testing.T) {
	now := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

	m, err := revenueMonth("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), m)

	m, err = revenueMonth("2024-11", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), m)

	_, err = revenueMonth("2024/11", now)
	assert.Error(t, err)
}

func TestRenderStrategy_RoundTrips(t *testing.T) {
	cfg := strategyconfig.Default()

	out, err := renderStrategy(cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "# second_high_v2 v2.0")

	parsed, err := strategyconfig.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}

func TestRegisterJobs(t *testing.T) {
	cfg := &config.Config{
		Strategy: config.StrategyConfig{Timezone: "Asia/Taipei", Workers: 2},
	}

	sched, err := registerJobs(cfg, strategyconfig.Default(), jobDeps{}, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{"market_data_collection", "second_high_screening"}, sched.GetAllJobs())
	stats := sched.GetJobStats()
	assert.Equal(t, "CRON_TZ=Asia/Taipei 0 0 18 * * 1-5", stats["market_data_collection"].Schedule)
	assert.Equal(t, "CRON_TZ=Asia/Taipei 0 0 21 * * 1-5", stats["second_high_screening"].Schedule)

	// Saturday 2025-03-15 10:00 Taipei -> Monday 18:00
	next, err := sched.NextRun("market_data_collection", time.Date(2025, 3, 15, 2, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, next.Equal(time.Date(2025, 3, 17, 10, 0, 0, 0, time.UTC)), next.String())
}

func TestRegisterJobs_BadTime(t *testing.T) {
	cfg := &config.Config{Strategy: config.StrategyConfig{Timezone: "Asia/Taipei", Workers: 1}}
	strategy := strategyconfig.Default()
	strategy.Meta.DecisionTimeLocal = "late"

	_, err := registerJobs(cfg, strategy, jobDeps{}, logger.Nop())
	assert.Error(t, err)
}

func TestTableRow(t *testing.T) {
	assert.Equal(t, "ab    c", tableRow([]string{"ab", "c"}, []int{4, 4}))
	assert.Equal(t, "台積電  x", tableRow([]string{"台積電", "x"}, []int{3, 2}))
}
