package quality

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel/paneltest"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
)

func TestGate_FullCoveragePasses(t *testing.T) {
	gate := NewGate(DefaultConfig(), logger.Nop())

	snap, err := gate.Check(context.Background(), paneltest.BreakoutSet("A", "B"))
	require.NoError(t, err)

	assert.True(t, snap.Passed)
	assert.True(t, snap.IsValid())
	assert.Equal(t, 2, snap.TotalStocks)
	assert.Equal(t, 2, snap.ValidStocks)
	assert.Equal(t, paneltest.Sessions, snap.TradingDays)
	assert.Equal(t, 1.0, snap.Coverage["close"])
	assert.Equal(t, 0.0, snap.Coverage["high"])
	// high panel absent
	assert.InDelta(t, 0.75, snap.QualityScore, 1e-9)
}

func TestGate_LowCoverageWarns(t *testing.T) {
	n := paneltest.Sessions
	missing := paneltest.Const(n, 100)
	missing[n-1] = math.NaN()

	set := panel.Set{
		Close: paneltest.Build(paneltest.TradingDays(n), []string{"A", "B", "C"},
			paneltest.Const(n, 100), missing, missing),
	}

	snap, err := NewGate(DefaultConfig(), logger.Nop()).Check(context.Background(), set)
	require.NoError(t, err)

	assert.False(t, snap.Passed)
	assert.Equal(t, 1, snap.ValidStocks)
	assert.NotEmpty(t, snap.Warnings)
}

func TestGate_ShortHistoryWarns(t *testing.T) {
	set := panel.Set{
		Close: paneltest.Build(paneltest.TradingDays(20), []string{"A"}, paneltest.Const(20, 100)),
	}

	snap, err := NewGate(DefaultConfig(), logger.Nop()).Check(context.Background(), set)
	require.NoError(t, err)
	assert.False(t, snap.Passed)
}

func TestGate_Unavailable(t *testing.T) {
	gate := NewGate(DefaultConfig(), logger.Nop())

	_, err := gate.Check(context.Background(), panel.Set{})
	assert.True(t, errors.Is(err, contracts.ErrInputUnavailable))

	set := panel.Set{
		Close: paneltest.Build(paneltest.TradingDays(3), []string{"A"}, []float64{1, 2, math.NaN()}),
	}
	_, err = gate.Check(context.Background(), set)
	assert.True(t, errors.Is(err, contracts.ErrInputUnavailable))
}
