package storage

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// RegisterPoolMetrics exposes pgxpool statistics as OTEL gauges. Call after
// telemetry.Init so the global meter provider is in place. Registration
// failures are logged and otherwise ignored.
func (db *DB) RegisterPoolMetrics() {
	meter := otel.GetMeterProvider().Meter("runexport/storage")

	total, err1 := meter.Int64ObservableGauge("db.pool.total_conns",
		metric.WithDescription("Total connections in the pool"))
	idle, err2 := meter.Int64ObservableGauge("db.pool.idle_conns",
		metric.WithDescription("Idle connections in the pool"))
	acquired, err3 := meter.Int64ObservableGauge("db.pool.acquired_conns",
		metric.WithDescription("Connections currently checked out"))
	maxConns, err4 := meter.Int64ObservableGauge("db.pool.max_conns",
		metric.WithDescription("Configured pool size"))
	for _, err := range []error{err1, err2, err3, err4} {
		if err != nil {
			db.logger.Warn("storage: pool metrics unavailable", "error", err)
			return
		}
	}

	_, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := db.pool.Stat()
		o.ObserveInt64(total, int64(s.TotalConns()))
		o.ObserveInt64(idle, int64(s.IdleConns()))
		o.ObserveInt64(acquired, int64(s.AcquiredConns()))
		o.ObserveInt64(maxConns, int64(s.MaxConns()))
		return nil
	}, total, idle, acquired, maxConns)
	if err != nil {
		db.logger.Warn("storage: register pool metrics callback", "error", err)
	}
}
