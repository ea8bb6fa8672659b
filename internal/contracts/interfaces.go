package contracts

import (
	"context"
	"time"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
)

// PanelSource loads the panels of one run (S0)
// ⭐ SSOT: S0 panel loading interface
type PanelSource interface {
	Load(ctx context.Context, asOf time.Time) (panel.Set, error)
}

// QualityGate checks data quality (S0)
// ⭐ SSOT: S0 data quality interface
type QualityGate interface {
	Check(ctx context.Context, panels panel.Set) (*DataQualitySnapshot, error)
}

// UniverseFilter applies the basic filter (S1)
// ⭐ SSOT: S1 universe interface
type UniverseFilter interface {
	Apply(ctx context.Context, panels panel.Set) (*Universe, *panel.Panel, error)
}

// Screener evaluates the universe and ranks qualifiers (S2 + S3)
// ⭐ SSOT: S2/S3 screening interface
type Screener interface {
	Screen(ctx context.Context, universe *Universe, panels panel.Set) (*ScreeningResult, error)
}

// Notifier delivers report messages (S4)
// ⭐ SSOT: S4 delivery interface
type Notifier interface {
	Send(ctx context.Context, text string) error
}
