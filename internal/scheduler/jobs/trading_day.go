package jobs

import (
	"fmt"
	"time"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/scheduler"
)

// TradingDayGate keeps scheduled jobs off weekends in the strategy timezone
// ⭐ SSOT: 交易日判斷只在這裡
type TradingDayGate struct {
	loc   *time.Location
	force bool
	now   func() time.Time
}

// NewTradingDayGate creates a gate; force opens it on weekends too
func NewTradingDayGate(loc *time.Location, force bool) *TradingDayGate {
	return &TradingDayGate{loc: loc, force: force, now: time.Now}
}

// Today returns the current date in the strategy timezone
func (g *TradingDayGate) Today() time.Time {
	return g.now().In(g.loc)
}

// Check returns scheduler.ErrSkipped on Saturdays and Sundays unless forced.
// Exchange holidays are not known here; those runs find no new session.
func (g *TradingDayGate) Check() error {
	today := g.Today()
	switch today.Weekday() {
	case time.Saturday, time.Sunday:
		if g.force {
			return nil
		}
		return fmt.Errorf("%s is %s: %w", today.Format("2006-01-02"), today.Weekday(), scheduler.ErrSkipped)
	}
	return nil
}

// WeekdaySchedule builds a Mon-Fri seconds schedule at hhmm ("21:00") in loc
func WeekdaySchedule(loc *time.Location, hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("invalid time of day %q: %w", hhmm, err)
	}
	return fmt.Sprintf("CRON_TZ=%s 0 %d %d * * 1-5", loc.String(), t.Minute(), t.Hour()), nil
}
