package prom

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkCountersAccumulate(t *testing.T) {
	s := New("guardlink")

	s.Count("roster.cycle", 1, map[string]string{"result": "success"})
	s.Count("roster.cycle", 2, map[string]string{"result": "success"})
	s.Count("roster.cycle", 1, map[string]string{"result": "error", "unknown": "x"})

	c := s.counters["roster.cycle"]
	require.NotNil(t, c)
	assert.Equal(t, []string{"result"}, c.labels)
	assert.InDelta(t, 3, testutil.ToFloat64(c.v.WithLabelValues("success")), 0.0001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.v.WithLabelValues("error")), 0.0001)
}

func TestSinkGaugeAndTiming(t *testing.T) {
	s := New("guardlink")

	s.Gauge("link.sessions_live", 4, nil)
	s.Gauge("link.sessions_live", 2, nil)
	s.Timing("roster.cycle", 1500*time.Millisecond, map[string]string{"result": "success"})

	g := s.gauges["link.sessions_live"]
	require.NotNil(t, g)
	assert.InDelta(t, 2, testutil.ToFloat64(g.v.WithLabelValues()), 0.0001)
	assert.Equal(t, 1, testutil.CollectAndCount(s.histograms["roster.cycle"].v))
}

func TestHandlerExposesMetrics(t *testing.T) {
	s := New("guardlink")
	s.Count("link.session_terminal", 1, map[string]string{"state": "timed_out"})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `guardlink_link_session_terminal_total{state="timed_out"} 1`)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "roster_page_fetch", sanitize("roster.page/fetch"))
	assert.Equal(t, "a_b", sanitize("  a-b. "))
}
