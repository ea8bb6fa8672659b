package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordOutcomes(map[string]int{"passed": 2, "rejected": 5})
	r.RecordOutcomes(map[string]int{"passed": 1})
	r.RecordExclusions(map[string]int{"price_floor": 3})
	r.RecordRun("success", 3)
	r.RecordNotification(true)
	r.RecordNotification(false)
	r.RecordCollected("prices", 40)
	r.RecordStage("S2", 150*time.Millisecond)
	r.RecordError("load")

	assert.Equal(t, 3.0, testutil.ToFloat64(r.outcomesTotal.WithLabelValues("passed")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.outcomesTotal.WithLabelValues("rejected")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.filterExcluded.WithLabelValues("price_floor")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.candidates))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notifications.WithLabelValues("failed")))
	assert.Equal(t, 40.0, testutil.ToFloat64(r.collectedTotal.WithLabelValues("prices")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("load")))
}

func TestFailedRunKeepsCandidateGauge(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordRun("success", 4)
	r.RecordRun("failed", 0)

	assert.Equal(t, 4.0, testutil.ToFloat64(r.candidates))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("failed")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordRun("success", 1)
		r.RecordStage("S0", time.Second)
		r.RecordOutcomes(map[string]int{"passed": 1})
		r.RecordExclusions(map[string]int{"low_liquidity": 1})
		r.RecordNotification(true)
		r.RecordCollected("revenue", 1)
		r.RecordError("x")
	})
}

func TestHandlerServesMetrics(t *testing.T) {
	r := New(prometheus.NewRegistry())
	r.RecordRun("success", 2)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "second_high_runs_total")
}
