package schema

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("duckdb", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestLoad(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, statement := range []string{
		`CREATE TABLE departments (department_id INTEGER, department_name VARCHAR, manager VARCHAR)`,
		`CREATE TABLE employees (employee_id INTEGER, name VARCHAR, department_id INTEGER)`,
		`CREATE TABLE response_cache (cache_key VARCHAR, payload VARCHAR)`,
		`INSERT INTO departments VALUES (1, 'Engineering', 'Ada'), (2, 'Sales', 'Grace')`,
	} {
		_, err := db.ExecContext(ctx, statement)
		require.NoError(t, err)
	}

	snapshot, err := Load(ctx, db, Config{
		Namespace:      "main",
		HintColumns:    []string{"departments.department_name", "departments.bogus_column", "nope"},
		HintSampleSize: 10,
		ExcludeTables:  []string{"response_cache"},
	})
	require.NoError(t, err)

	// Tables are alphabetical, service tables excluded
	require.Len(t, snapshot.Tables, 2)
	assert.Equal(t, "departments", snapshot.Tables[0].Name)
	assert.Equal(t, []string{"department_id", "department_name", "manager"}, snapshot.Tables[0].Columns)
	assert.Equal(t, "employees", snapshot.Tables[1].Name)

	assert.NotContains(t, snapshot.SchemaString, "response_cache")

	// Unknown hint entries are skipped rather than failing the load
	require.Len(t, snapshot.Hints, 1)
	assert.Equal(t, []string{"Engineering", "Sales"}, snapshot.Hints[0].Values)
	assert.Contains(t, snapshot.HintsString, "departments.department_name: Engineering, Sales")

	assert.Len(t, snapshot.Hash, 64)
	assert.Equal(t, ComputeHash(snapshot.SchemaString, snapshot.HintsString), snapshot.Hash)
}

func TestLoad_HintSampleSizeCapsValues(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE items (label VARCHAR)`)
	require.NoError(t, err)

	for _, label := range []string{"a", "b", "c", "d", "e"} {
		_, err := db.ExecContext(ctx, `INSERT INTO items VALUES (?)`, label)
		require.NoError(t, err)
	}

	snapshot, err := Load(ctx, db, Config{
		Namespace:      "main",
		HintColumns:    []string{"items.label"},
		HintSampleSize: 3,
	})
	require.NoError(t, err)

	require.Len(t, snapshot.Hints, 1)
	assert.Len(t, snapshot.Hints[0].Values, 3)
}
