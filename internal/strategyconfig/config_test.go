package strategyconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "second_high_v2", cfg.Meta.StrategyID)
	assert.Equal(t, "Asia/Taipei", cfg.Meta.Timezone)
	assert.Equal(t, 250, cfg.Filter.MinHistoryDays)
	assert.Equal(t, 0.8, cfg.Filter.MinHistoryRatio)
	assert.Equal(t, 10.0, cfg.Filter.MinPrice)
	assert.Equal(t, 1000.0, cfg.Filter.MinAvgVolume)
	assert.Equal(t, 60, cfg.Conditions.Lookback)
	assert.Equal(t, 30, cfg.Conditions.Gap)
	assert.Equal(t, 25, cfg.Conditions.Confirmation)
	assert.Equal(t, 130, cfg.Conditions.MinHistory())
	assert.Equal(t, 1.2, cfg.Conditions.VolumeExpansion)
	assert.Equal(t, 14, cfg.Metrics.RSIPeriod)
	assert.Equal(t, 10, cfg.Report.MaxCandidates)
	assert.Equal(t, time.Second, cfg.Report.FragmentPause)
	assert.Equal(t, 2*time.Second, cfg.Report.MessagePause)
	assert.Equal(t, 4, cfg.Runtime.Workers)

	require.NoError(t, Validate(cfg))
}

func TestLoadRepositoryConfig(t *testing.T) {
	cfg, raw, err := Load("../../config/strategy/second_high_v2.yaml")
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	// the shipped file restates the defaults
	assert.Equal(t, Default(), cfg)
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("filter:\n  min_price: 20\nreport:\n  fragment_pause: 250ms\n"))
	require.NoError(t, err)

	assert.Equal(t, 20.0, cfg.Filter.MinPrice)
	assert.Equal(t, 250*time.Millisecond, cfg.Report.FragmentPause)
	assert.Equal(t, 250, cfg.Filter.MinHistoryDays)
	assert.Equal(t, 60, cfg.Conditions.Lookback)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte("filter:\n  min_prise: 20\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidFileReturnsRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runtime:\n  workers: 0\n"), 0o644))

	_, raw, err := Load(path)
	require.Error(t, err)
	assert.NotEmpty(t, raw)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero workers", func(c *Config) { c.Runtime.Workers = 0 }, "runtime.workers"},
		{"ratio above one", func(c *Config) { c.Filter.MinHistoryRatio = 1.5 }, "filter.min_history_ratio"},
		{"negative price", func(c *Config) { c.Filter.MinPrice = -1 }, "filter.min_price"},
		{"missing strategy id", func(c *Config) { c.Meta.StrategyID = "" }, "meta.strategy_id"},
		{"bad timezone", func(c *Config) { c.Meta.Timezone = "Mars/Olympus" }, "meta.timezone"},
		{"bad decision time", func(c *Config) { c.Meta.DecisionTimeLocal = "9pm" }, "meta.decision_time_local"},
		{"revenue windows", func(c *Config) { c.Conditions.RevenueShort = 12 }, "conditions.revenue_short"},
		{"volume windows", func(c *Config) { c.Conditions.VolumeShort = 20 }, "conditions.volume_short"},
		{"medium beyond long", func(c *Config) { c.Conditions.MediumTerm = 200 }, "conditions.medium_term"},
		{"confirmation outside history", func(c *Config) { c.Conditions.Confirmation = 60 }, "conditions.history_buffer"},
		{"message limit", func(c *Config) { c.Report.MaxMessageChars = 5000 }, "report.max_message_chars"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var verr ValidationError
			require.True(t, errors.As(err, &verr), "got %T: %v", err, err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestHashDeterministic(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	assert.Len(t, a, 64)

	b, _ := Hash(Default())
	assert.Equal(t, a, b)

	changed := Default()
	changed.Filter.MinPrice = 11
	c, _ := Hash(changed)
	assert.NotEqual(t, a, c)
}
