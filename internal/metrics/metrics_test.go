package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizille/dashboard/internal/actions"
)

func TestMetrics(t *testing.T) {
	m := New()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.datasetStatus.WithLabelValues(StatusLoading)))

	m.SetDatasetStatus(StatusReady)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.datasetStatus.WithLabelValues(StatusLoading)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.datasetStatus.WithLabelValues(StatusReady)))

	m.SetDataset([]*actions.Action{
		{ID: "1", Status: actions.StatusDone},
		{ID: "2", Status: actions.StatusDone},
		{ID: "3", Status: "Abandonné"},
	})
	assert.Equal(t, 3.0, testutil.ToFloat64(m.records))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recordsStatus.WithLabelValues("Réalisé")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.recordsStatus.WithLabelValues("En cours")))

	m.CommandApplied("open")
	m.CommandApplied("open")
	m.SetSessions(4)
	m.RequestServed("/api/view", "200")
	m.RateLimited()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("open")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.sessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `vizille_commands_total{type="open"} 2`)
	assert.Contains(t, string(body), `vizille_http_requests_total{code="200",route="/api/view"} 1`)
}
