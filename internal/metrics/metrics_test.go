package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	// Vectors only show up once a label set has been used.
	m.ObserveRequest("GET", "/", "200", time.Millisecond)
	m.ObserveLogin(ResultSuccess)
	m.ObserveRegistration(ResultSuccess)
	m.ObserveTokenCheck("ok")

	families, err := reg.Gather()
	require.NoError(t, err)

	registered := make(map[string]bool)
	for _, family := range families {
		registered[family.GetName()] = true
	}
	for _, name := range []string{
		"classroom_http_requests_total",
		"classroom_http_request_duration_seconds",
		"classroom_logins_total",
		"classroom_registrations_total",
		"classroom_token_checks_total",
	} {
		assert.True(t, registered[name], "metric %q should be registered", name)
	}
}

func TestObserve_IncrementsCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveLogin(ResultRejected)
	m.ObserveLogin(ResultRejected)
	m.ObserveTokenCheck("expired")
	m.ObserveRequest("POST", "/api/class", "201", 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Logins.WithLabelValues(ResultRejected)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Logins.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenChecks.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/class", "201")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", "200", time.Second)
		m.ObserveLogin(ResultSuccess)
		m.ObserveRegistration(ResultError)
		m.ObserveTokenCheck("missing")
	})
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)
	m.ObserveLogin(ResultSuccess)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `classroom_logins_total{result="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
