package telemetry

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_HTTPRequests(t *testing.T) {
	m := NewMetrics(false)

	m.RequestStarted()
	m.RequestStarted()
	m.RequestFinished("get", "/conversations/:id/messages", http.StatusOK, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))
	m.RequestFinished("GET", "/conversations/:id/messages", http.StatusOK, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/conversations/:id/messages", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "marketplace_http_requests_total")
}

func TestMetrics_Observers(t *testing.T) {
	m := NewMetrics(false)

	m.ObserveEventHandler("MessageSent", time.Millisecond, nil)
	m.ObserveEventHandler("MessageSent", time.Millisecond, errors.New("x"))
	m.ObservePush(true)
	m.ObservePush(false)
	m.ObservePush(false)
	m.StreamOpened()
	m.StreamOpened()
	m.StreamClosed()
	m.ObserveDocumentRender("pdf", errors.New("disabled"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsHandled.WithLabelValues("MessageSent", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsHandled.WithLabelValues("MessageSent", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.pushDeliveries.WithLabelValues("dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.liveSubscribers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documentRenders.WithLabelValues("pdf", "error")))
}

func TestNewMetrics_WithRuntime(t *testing.T) {
	m := NewMetrics(true)
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "go_goroutines")
}

func TestMetrics_WatchDBPool(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := NewMetrics(false)
	m.WatchDBPool(db)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() == "go_sql_open_connections" {
			found = true
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, "marketplace", mf.GetMetric()[0].GetLabel()[0].GetValue())
		}
	}
	assert.True(t, found, "pool gauges registered")
}
