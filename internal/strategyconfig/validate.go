package strategyconfig

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a fatal config problem; the run must not start
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	validate = newValidator()
	hhmm     = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	// report yaml names (filter.min_price) instead of Go names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field ranges (struct tags) and cross-field rules
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			field := strings.TrimPrefix(e.Namespace(), "Config.")
			return ValidationError{field, describe(e)}
		}
		return err
	}

	// === Meta ===
	if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
		return ValidationError{"meta.timezone", err.Error()}
	}
	if err := validateHHMM(cfg.Meta.DecisionTimeLocal); err != nil {
		return ValidationError{"meta.decision_time_local", err.Error()}
	}
	if err := validateHHMM(cfg.Meta.CollectionTimeLocal); err != nil {
		return ValidationError{"meta.collection_time_local", err.Error()}
	}

	// === Conditions ===
	c := cfg.Conditions
	if c.RevenueShort >= c.RevenueLong {
		return ValidationError{"conditions.revenue_short", "must be < revenue_long"}
	}
	if c.VolumeShort >= c.VolumeLong {
		return ValidationError{"conditions.volume_short", "must be < volume_long"}
	}
	if c.MediumTerm > c.LongTerm {
		return ValidationError{"conditions.medium_term", "must be <= long_term"}
	}
	// the oldest confirmation session still needs a full lookback window
	if need := c.Gap + c.Confirmation + c.Lookback - 1; need > c.MinHistory() {
		return ValidationError{"conditions.history_buffer",
			fmt.Sprintf("long_term+history_buffer=%d must cover gap+confirmation+lookback-1=%d", c.MinHistory(), need)}
	}
	if c.Lookback > c.MinHistory() {
		return ValidationError{"conditions.lookback", "must fit inside the history precondition"}
	}

	// === Metrics ===
	if cfg.Metrics.RSIPeriod+1 > c.MinHistory() {
		return ValidationError{"metrics.rsi_period", "needs rsi_period+1 closes inside the history precondition"}
	}

	return nil
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "required"
	case "gt":
		return "must be > " + e.Param()
	case "gte":
		return "must be >= " + e.Param()
	case "lte":
		return "must be <= " + e.Param()
	default:
		return fmt.Sprintf("failed %s=%s", e.Tag(), e.Param())
	}
}

func validateHHMM(s string) error {
	if !hhmm.MatchString(s) {
		return errors.New("must be HH:MM format")
	}
	_, err := time.Parse("15:04", s)
	return err
}
