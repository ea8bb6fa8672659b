package scheduler

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSkipped marks a run that decided not to do anything (holiday,
	// gate closed). It is recorded but never retried.
	ErrSkipped = errors.New("job skipped")

	// ErrPermanent marks a failure that another attempt cannot fix
	ErrPermanent = errors.New("permanent job failure")
)

// Job represents a scheduled job
// ⭐ SSOT: 排程工作介面只在這裡定義
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron expression with a seconds field.
	// A CRON_TZ= prefix overrides the scheduler location.
	// Examples: "CRON_TZ=Asia/Taipei 0 0 21 * * 1-5", "@daily"
	Schedule() string
}

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Skipped   bool          `json:"skipped"`
	Attempts  int           `json:"attempts"`
	Error     string        `json:"error,omitempty"`
}

// maxHistory bounds the results kept per job
const maxHistory = 100

// JobHistory stores job execution history
type JobHistory struct {
	Results []JobResult
}

// AddResult adds a job result to history
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)

	if len(h.Results) > maxHistory {
		h.Results = h.Results[len(h.Results)-maxHistory:]
	}
}

// GetLatestResults returns the latest N results
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}

	if n <= 0 {
		return []JobResult{}
	}

	return h.Results[len(h.Results)-n:]
}

// GetFailedResults returns all failed results; skips are not failures
func (h *JobHistory) GetFailedResults() []JobResult {
	failed := make([]JobResult, 0)
	for _, result := range h.Results {
		if !result.Success && !result.Skipped {
			failed = append(failed, result)
		}
	}
	return failed
}

// GetSuccessRate returns the success rate (0.0 - 1.0) over runs that
// were not skipped
func (h *JobHistory) GetSuccessRate() float64 {
	ran := len(h.Results) - h.count(func(r JobResult) bool { return r.Skipped })
	if ran == 0 {
		return 0.0
	}

	return float64(h.count(func(r JobResult) bool { return r.Success })) / float64(ran)
}

func (h *JobHistory) count(match func(JobResult) bool) int {
	n := 0
	for _, r := range h.Results {
		if match(r) {
			n++
		}
	}
	return n
}
