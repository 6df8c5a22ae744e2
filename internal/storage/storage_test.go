package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisavvy/aisavvy/internal/config"
	apperrors "github.com/aisavvy/aisavvy/internal/errors"
	"github.com/aisavvy/aisavvy/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := config.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxConnections:  2,
		MaxIdleConns:    1,
		ConnMaxLifetime: "30m",
		ConnMaxIdleTime: "5m",
		QueryTimeout:    "10s",
	}

	store, err := Open(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Initialize(context.Background()))

	return store
}

func TestInitialize_Idempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Initialize(context.Background()))
}

func TestExecute(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.DB().ExecContext(ctx,
		`CREATE TABLE employees (employee_id INTEGER, name VARCHAR, department_id INTEGER)`)
	require.NoError(t, err)

	_, err = store.DB().ExecContext(ctx,
		`INSERT INTO employees VALUES (1, 'Ada', 10), (2, 'Grace', 10), (3, 'Edsger', 20)`)
	require.NoError(t, err)

	result, err := store.Execute(ctx, `SELECT name, department_id FROM employees ORDER BY employee_id`)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "department_id"}, result.Columns)
	require.Len(t, result.Rows, 3)
	assert.Equal(t, "Ada", result.Rows[0]["name"])
}

func TestExecute_EmptyResult(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.DB().ExecContext(ctx, `CREATE TABLE sales (amount INTEGER)`)
	require.NoError(t, err)

	result, err := store.Execute(ctx, `SELECT * FROM sales WHERE amount > 100`)
	require.NoError(t, err)

	assert.Equal(t, []string{"amount"}, result.Columns)
	assert.Empty(t, result.Rows)
	assert.NotNil(t, result.Rows)
}

func TestExecute_InvalidSQL(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Execute(context.Background(), `SELECT nope FROM missing_table`)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExecution))
}

func TestResponseCache_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	cache := store.Cache()
	ctx := context.Background()

	response := types.NewSuccess(
		"SELECT count(*) FROM employees",
		"There are 42 employees.",
		[]map[string]any{{"count": float64(42)}},
		&types.ChartSpec{ChartNeeded: false},
	)

	require.NoError(t, cache.Put(ctx, "key-1", response))

	got, ok, err := cache.Get(ctx, "key-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, response, got)
}

func TestResponseCache_Miss(t *testing.T) {
	store := newTestStore(t)

	got, ok, err := store.Cache().Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestResponseCache_Upsert(t *testing.T) {
	store := newTestStore(t)
	cache := store.Cache()
	ctx := context.Background()

	first := types.NewSuccess("SELECT 1", "one", []map[string]any{{"n": float64(1)}}, nil)
	second := types.NewSuccess("SELECT 2", "two", []map[string]any{{"n": float64(2)}}, nil)

	require.NoError(t, cache.Put(ctx, "key-1", first))
	require.NoError(t, cache.Put(ctx, "key-1", second))

	got, ok, err := cache.Get(ctx, "key-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "SELECT 2", got.SQLQuery)
}

func TestAuditLog_AppendAndList(t *testing.T) {
	store := newTestStore(t)
	audit := store.Audit()
	ctx := context.Background()

	require.NoError(t, audit.Append(ctx, types.AuditRecord{
		Question: "how many employees?",
		SQLQuery: "SELECT count(*) FROM employees",
		Success:  true,
	}))

	// DuckDB timestamps are microsecond precision; keep ordering unambiguous
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, audit.Append(ctx, types.AuditRecord{
		Question:     "show salaries",
		SQLQuery:     "SELECT salry FROM employees",
		Success:      false,
		ErrorMessage: `column "salry" does not exist`,
	}))

	entries, err := audit.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	assert.Equal(t, "show salaries", entries[0].Question)
	assert.False(t, entries[0].Success)
	assert.Contains(t, entries[0].ErrorMessage, "salry")

	assert.Equal(t, "how many employees?", entries[1].Question)
	assert.True(t, entries[1].Success)
	assert.Empty(t, entries[1].ErrorMessage)
}

func TestAuditLog_ListLimit(t *testing.T) {
	store := newTestStore(t)
	audit := store.Audit()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, audit.Append(ctx, types.AuditRecord{
			Question: "q",
			SQLQuery: "SELECT 1",
			Success:  true,
		}))
	}

	entries, err := audit.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// Non-positive limits fall back to the default instead of returning nothing
	entries, err = audit.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestInternalTablesExcludedFromUserSchema(t *testing.T) {
	assert.ElementsMatch(t, []string{"response_cache", "query_audit"}, InternalTables())
}
