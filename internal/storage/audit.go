package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/aisavvy/aisavvy/internal/errors"
	"github.com/aisavvy/aisavvy/internal/types"
)

// AuditLog is the append-only record of executed-or-failed SQL attempts
type AuditLog struct {
	store *Store
}

// AuditEntry is one audit row as served by the history endpoint
type AuditEntry struct {
	Question     string    `json:"question"`
	SQLQuery     string    `json:"sql_query"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Append records one execution attempt
func (a *AuditLog) Append(ctx context.Context, record types.AuditRecord) error {
	ctx, cancel := context.WithTimeout(ctx, a.store.queryTimeout)
	defer cancel()

	var errorMessage any
	if record.ErrorMessage != "" {
		errorMessage = record.ErrorMessage
	}

	_, err := a.store.db.ExecContext(ctx, `
		INSERT INTO query_audit (id, question, sql_query, success, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(),
		record.Question,
		record.SQLQuery,
		record.Success,
		errorMessage,
		time.Now().UTC())
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeDatabase, "audit append failed")
	}

	return nil
}

// List returns audit entries newest first
func (a *AuditLog) List(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	ctx, cancel := context.WithTimeout(ctx, a.store.queryTimeout)
	defer cancel()

	rows, err := a.store.db.QueryContext(ctx, `
		SELECT question, sql_query, success, error_message, created_at
		FROM query_audit
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "audit list failed")
	}
	defer rows.Close()

	entries := []AuditEntry{}

	for rows.Next() {
		var (
			entry        AuditEntry
			errorMessage sql.NullString
		)

		if err := rows.Scan(&entry.Question, &entry.SQLQuery, &entry.Success, &errorMessage, &entry.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "audit scan failed")
		}

		entry.ErrorMessage = errorMessage.String
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeDatabase, "audit read failed")
	}

	return entries, nil
}
