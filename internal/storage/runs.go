package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ashita-ai/runexport/internal/model"
)

var tracer = otel.Tracer("runexport/storage")

// exportSelect projects run rows into the exported shape. The WHERE clause is
// appended by ExportRuns.
const exportSelect = `SELECT
  r.created_at,
  COALESCE(r.name, ''),
  CASE
    WHEN r.ended_at IS NOT NULL THEN EXTRACT(EPOCH FROM (r.ended_at - r.created_at))::float8
    ELSE NULL
  END,
  (COALESCE(r.completion_tokens, 0) + COALESCE(r.prompt_tokens, 0))::bigint,
  COALESCE(array_remove(r.tags, NULL), '{}'::text[]),
  r.input,
  COALESCE(r.output, r.error)
FROM run r
WHERE `

// ExportQuery builds the export SQL and its bound arguments for p.
func ExportQuery(p model.ExportParams) (string, pgx.NamedArgs) {
	where := And(
		basePredicate(p.AppID),
		ModelsPredicate(p.Models),
		TagsPredicate(p.Tags),
		SearchPredicate(p.Search),
	)
	return exportSelect + where.SQL + "\nORDER BY r.created_at DESC", where.Args
}

// ExportRuns returns every LLM run of p.AppID matching the optional filters,
// newest first. An empty result is an empty slice, not an error.
func (db *DB) ExportRuns(ctx context.Context, p model.ExportParams) ([]model.ExportRow, error) {
	ctx, span := tracer.Start(ctx, "storage.ExportRuns",
		trace.WithAttributes(
			attribute.Int("runexport.filter.models", len(p.Models)),
			attribute.Int("runexport.filter.tags", len(p.Tags)),
			attribute.Bool("runexport.filter.search", p.Search != ""),
		),
	)
	defer span.End()

	query, args := ExportQuery(p)
	rows, err := db.pool.Query(ctx, query, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("storage: export runs: %w", err)
	}
	defer rows.Close()

	out := []model.ExportRow{}
	for rows.Next() {
		var (
			r              model.ExportRow
			createdAt      time.Time
			prompt, result []byte
		)
		if err := rows.Scan(&createdAt, &r.Model, &r.Duration, &r.Tokens, &r.Tags, &prompt, &result); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "scan failed")
			return nil, fmt.Errorf("storage: scan export row: %w", err)
		}
		r.Time = createdAt.UTC()
		if r.Tags == nil {
			r.Tags = []string{}
		}
		r.Prompt = rawJSON(prompt)
		r.Result = rawJSON(result)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rows failed")
		return nil, fmt.Errorf("storage: export runs: %w", err)
	}

	span.SetAttributes(attribute.Int("runexport.rows", len(out)))
	return out, nil
}

// rawJSON turns a scanned jsonb value into a RawMessage; SQL NULL stays nil
// and encodes as JSON null.
func rawJSON(b []byte) json.RawMessage {
	if b == nil {
		return nil
	}
	return json.RawMessage(b)
}
