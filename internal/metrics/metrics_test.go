package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	r := New()
	r.ReviewScheduled("card", "good")
	r.ReviewScheduled("card", "good")
	r.ReviewFailed("quiz", "invalid_argument")
	r.QueueBuilt("priority", 12)
	r.ReminderSent(true)
	r.ReminderSent(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.reviews.WithLabelValues("card", "good")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.reviewErrors.WithLabelValues("quiz", "invalid_argument")))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.queueSize.WithLabelValues("priority")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.reminders.WithLabelValues("failed")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ReviewScheduled("card", "good")
		r.ReviewFailed("card", "x")
		r.QueueBuilt("priority", 1)
		r.ReminderSent(true)
	})
}

func TestHandler(t *testing.T) {
	r := New()
	r.ReviewScheduled("quiz", "easy")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `wordsrs_reviews_total{kind="quiz",outcome="easy"} 1`))
}
