package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Uploads.WithLabelValues("ok").Inc()
	m.CellsFilled.Add(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dataprep_uploads_total{outcome="ok"} 1`)
	assert.Contains(t, string(body), "dataprep_cells_filled_total 3")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RowsRemoved.Add(5)
	fams, err := b.Registry().Gather()
	require.NoError(t, err)
	for _, f := range fams {
		if f.GetName() == "dataprep_rows_removed_total" {
			assert.Zero(t, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
}
