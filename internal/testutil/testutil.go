// Package testutil provides shared test infrastructure for integration tests
// that require a PostgreSQL container holding the run table.
//
// Usage in TestMain:
//
//	func TestMain(m *testing.M) {
//	    tc := testutil.MustStartPostgres()
//	    defer tc.Terminate()
//	    testDB, _ = tc.NewTestDB(context.Background(), testutil.TestLogger())
//	    os.Exit(m.Run())
//	}
package testutil

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ashita-ai/runexport/internal/storage"
)

// Schema creates the run table. The production table is owned by the writer
// service; tests create the same shape.
//
//go:embed schema.sql
var Schema string

// TestContainer wraps a testcontainers container with a DSN for connecting.
type TestContainer struct {
	Container testcontainers.Container
	DSN       string
}

// MustStartPostgres starts a PostgreSQL container. Calls os.Exit(1) on
// failure (suitable for TestMain).
func MustStartPostgres() *TestContainer {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "runexport",
			"POSTGRES_PASSWORD": "runexport",
			"POSTGRES_DB":       "runexport",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "testutil: failed to start container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "testutil: failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		fmt.Fprintf(os.Stderr, "testutil: failed to get container port: %v\n", err)
		os.Exit(1)
	}

	dsn := fmt.Sprintf("postgres://runexport:runexport@%s:%s/runexport?sslmode=disable", host, port.Port())
	return &TestContainer{Container: container, DSN: dsn}
}

// NewTestDB creates a storage.DB connected to this container and creates the
// run table.
func (tc *TestContainer) NewTestDB(ctx context.Context, logger *slog.Logger) (*storage.DB, error) {
	db, err := storage.New(ctx, tc.DSN, logger)
	if err != nil {
		return nil, fmt.Errorf("testutil: create DB: %w", err)
	}
	if _, err := db.Pool().Exec(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("testutil: create schema: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container.
func (tc *TestContainer) Terminate() {
	_ = tc.Container.Terminate(context.Background())
}

// TestLogger returns a logger configured for test output (warns only).
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// Run is a run table row for seeding tests. Nil pointers and nil values are
// stored as SQL NULL.
type Run struct {
	CreatedAt        time.Time
	EndedAt          *time.Time
	App              string
	Type             string // defaults to "llm"
	Name             string
	PromptTokens     *int
	CompletionTokens *int
	Tags             []string
	Input            any
	Output           any
	Error            any
}

// InsertRuns seeds runs into the run table.
func InsertRuns(ctx context.Context, db *storage.DB, runs ...Run) error {
	for i, r := range runs {
		if r.Type == "" {
			r.Type = "llm"
		}
		input, err := jsonArg(r.Input)
		if err != nil {
			return fmt.Errorf("testutil: run %d input: %w", i, err)
		}
		output, err := jsonArg(r.Output)
		if err != nil {
			return fmt.Errorf("testutil: run %d output: %w", i, err)
		}
		errVal, err := jsonArg(r.Error)
		if err != nil {
			return fmt.Errorf("testutil: run %d error: %w", i, err)
		}
		if _, err := db.Pool().Exec(ctx,
			`INSERT INTO run (created_at, ended_at, app, type, name, prompt_tokens, completion_tokens, tags, input, output, error)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10::jsonb, $11::jsonb)`,
			r.CreatedAt, r.EndedAt, r.App, r.Type, r.Name, r.PromptTokens, r.CompletionTokens,
			r.Tags, input, output, errVal,
		); err != nil {
			return fmt.Errorf("testutil: insert run %d: %w", i, err)
		}
	}
	return nil
}

// TruncateRuns empties the run table between tests.
func TruncateRuns(ctx context.Context, db *storage.DB) error {
	_, err := db.Pool().Exec(ctx, `TRUNCATE run`)
	return err
}

// jsonArg encodes v as JSON text for a jsonb parameter; nil maps to NULL.
func jsonArg(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
