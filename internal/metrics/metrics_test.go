package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ShoppingTransition("start")
	m.ShoppingTransition("start")
	m.ShoppingTransition("complete")
	m.InventoryStatusChanged("OUT_OF_STOCK")
	m.BackupRun("completed")
	m.SetWebsocketClients(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.shoppingTransitions.WithLabelValues("start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shoppingTransitions.WithLabelValues("complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inventoryChanges.WithLabelValues("OUT_OF_STOCK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backups.WithLabelValues("completed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.wsClients))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ShoppingTransition("start")
		m.InventoryStatusChanged("IN_STOCK")
		m.ObserveRequest("GET", "/api/tasks", 200, time.Millisecond)
		m.SetWebsocketClients(1)
		m.BackupRun("failed")
	})
}

func TestHandlerExposesRequests(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "GET /api/tasks", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `homekeep_http_requests_total{method="GET",route="GET /api/tasks",status="200"} 1`))
}
