package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.Polls.Inc()
	a.Polls.Inc()
	b.Polls.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(a.Polls))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.Polls))
}

func TestHandler_ExposesCounters(t *testing.T) {
	m := New()
	m.NewAlerts.Add(3)
	m.AlertsHeld.Set(7)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	assert.True(t, strings.Contains(text, "thirdeye_new_alerts_total 3"), text)
	assert.True(t, strings.Contains(text, "thirdeye_alerts_held 7"), text)
	assert.True(t, strings.Contains(text, "go_goroutines"), "go collector missing")
}
