package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver

	"github.com/aisavvy/aisavvy/internal/config"
	apperrors "github.com/aisavvy/aisavvy/internal/errors"
	"github.com/aisavvy/aisavvy/internal/types"
)

// Store owns the pooled database connection shared by the query executor,
// the response cache, and the audit log
type Store struct {
	db           *sql.DB
	path         string
	queryTimeout time.Duration
}

// InternalTables lists the service's own tables, excluded from the schema
// snapshot so the assistant never queries its own bookkeeping
func InternalTables() []string {
	return []string{"response_cache", "query_audit"}
}

// Open opens the database with connection pooling configured from cfg
func Open(cfg config.DatabaseConfig) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(parseDurationOr(cfg.ConnMaxLifetime, 30*time.Minute))
	db.SetConnMaxIdleTime(parseDurationOr(cfg.ConnMaxIdleTime, 5*time.Minute))

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		db:           db,
		path:         cfg.Path,
		queryTimeout: parseDurationOr(cfg.QueryTimeout, 30*time.Second),
	}, nil
}

// parseDurationOr parses a duration string, falling back to a default
func parseDurationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}

	return d
}

// Initialize creates the service's own tables if they do not exist
func (s *Store) Initialize(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS response_cache (
			cache_key  VARCHAR PRIMARY KEY,
			payload    VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS query_audit (
			id            VARCHAR PRIMARY KEY,
			question      VARCHAR NOT NULL,
			sql_query     VARCHAR NOT NULL,
			success       BOOLEAN NOT NULL,
			error_message VARCHAR,
			created_at    TIMESTAMP NOT NULL
		)`,
	}

	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return nil
}

// DB exposes the underlying pool for the schema snapshot loader
func (s *Store) DB() *sql.DB {
	return s.db
}

// Cache returns the response cache backed by this store
func (s *Store) Cache() *ResponseCache {
	return &ResponseCache{store: s}
}

// Audit returns the audit log backed by this store
func (s *Store) Audit() *AuditLog {
	return &AuditLog{store: s}
}

// Execute runs one generated SQL statement under the configured query
// timeout and materializes the full result set. The connection is leased
// from the pool for the duration of the call and released on every exit
// path.
func (s *Store) Execute(ctx context.Context, sqlQuery string) (*types.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, sqlQuery)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeExecution, "query execution failed")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeExecution, "failed to read result columns")
	}

	result := &types.QueryResult{Columns: columns, Rows: []map[string]any{}}

	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrTypeExecution, "failed to scan result row")
		}

		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(values[i])
		}

		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeExecution, "failed to read result rows")
	}

	return result, nil
}

// normalizeValue converts driver values into JSON-friendly types
func normalizeValue(value any) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return v
	}
}

// Close releases the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}
