package server

import (
	"errors"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/ashita-ai/runexport/internal/export"
)

// exportRows counts rows written by successful exports, labeled by format.
var exportRows = newExportRowsCounter(httpMeter)

func newExportRowsCounter(m otelmetric.Meter) otelmetric.Int64Counter {
	c, err := m.Int64Counter("runexport.export.rows",
		otelmetric.WithDescription("Rows written by successful exports"))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

// HandleExport handles GET /export.
//
// Validation failures answer 422 before any database access. Store failures
// answer 500. An exportType other than csv or jsonl yields an empty 200 with
// no content headers.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	params, err := parseExportParams(r.URL.Query())
	if err != nil {
		var invalid *invalidInputError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusUnprocessableEntity, invalid.Error())
			return
		}
		h.writeInternalError(w, r, "export: parse params", err)
		return
	}

	rows, err := h.store.ExportRuns(r.Context(), params)
	if err != nil {
		h.writeInternalError(w, r, "export query failed", err)
		return
	}

	payload, ok, err := export.Render(params.ExportType, rows)
	if err != nil {
		h.writeInternalError(w, r, "export render failed", err)
		return
	}
	if !ok {
		h.logger.Debug("export: unsupported exportType, empty response",
			"export_type", params.ExportType,
			"request_id", RequestIDFromContext(r.Context()),
		)
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", payload.ContentType)
	w.Header().Set("Content-Disposition", payload.ContentDisposition())
	w.Header().Set("Content-Length", strconv.Itoa(len(payload.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload.Body); err != nil {
		h.logger.Debug("export: write body", "error", err) // client went away
		return
	}

	exportRows.Add(r.Context(), int64(len(rows)),
		otelmetric.WithAttributes(attribute.String("runexport.format", params.ExportType)))
}
