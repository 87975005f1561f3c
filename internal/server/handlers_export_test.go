package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ashita-ai/runexport/internal/model"
)

type staticStore struct{ rows []model.ExportRow }

func (s staticStore) ExportRuns(context.Context, model.ExportParams) ([]model.ExportRow, error) {
	return s.rows, nil
}

func (staticStore) Ping(context.Context) error { return nil }

func exportRowsTotal(t *testing.T, reader *sdkmetric.ManualReader) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "runexport.export.rows" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestHandleExport_CountsExportedRows(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	prev := exportRows
	exportRows = newExportRowsCounter(provider.Meter("test"))
	t.Cleanup(func() { exportRows = prev })

	rows := []model.ExportRow{
		{Time: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), Model: "a", Tags: []string{}},
		{Time: time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC), Model: "b", Tags: []string{}},
	}
	h := NewHandlers(HandlersDeps{
		Store:  staticStore{rows: rows},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	for range 3 {
		rec := httptest.NewRecorder()
		h.HandleExport(rec, httptest.NewRequest(http.MethodGet, "/export?appId=x&exportType=csv", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, int64(6), exportRowsTotal(t, reader))

	rec := httptest.NewRecorder()
	h.HandleExport(rec, httptest.NewRequest(http.MethodGet, "/export?appId=x&exportType=xml", nil))
	assert.Equal(t, int64(6), exportRowsTotal(t, reader), "unsupported formats export nothing")
}
