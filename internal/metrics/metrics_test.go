package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCountersAndGauge(t *testing.T) {
	m := New(func() int { return 3 })

	m.ObserveReply("ok")
	m.ObserveReply("ok")
	m.ObserveReply("error")
	m.ObserveSubmission("invalid")
	m.ObserveDictation("empty")
	m.ObserveRateLimited()

	require.Equal(t, 2.0, testutil.ToFloat64(m.replies.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.replies.WithLabelValues("error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("invalid")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.dictations.WithLabelValues("empty")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	require.Contains(t, string(body), "agency_widget_sessions 3")
	require.Contains(t, string(body), `agency_chat_replies_total{outcome="ok"} 2`)
}
