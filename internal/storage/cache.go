package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	apperrors "github.com/aisavvy/aisavvy/internal/errors"
	"github.com/aisavvy/aisavvy/internal/types"
)

// ResponseCache is the persisted key-value store for completed pipeline
// outcomes. Writes are unconditional upserts with last-writer-wins
// semantics; there is no eviction and no TTL.
type ResponseCache struct {
	store *Store
}

// Get retrieves a memoized response by key. A missing key is not an error.
func (c *ResponseCache) Get(ctx context.Context, key string) (*types.Response, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.store.queryTimeout)
	defer cancel()

	var payload string

	err := c.store.db.QueryRowContext(ctx,
		`SELECT payload FROM response_cache WHERE cache_key = ?`, key,
	).Scan(&payload)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.ErrTypeCache, "cache read failed")
	}

	var response types.Response
	if err := json.Unmarshal([]byte(payload), &response); err != nil {
		return nil, false, apperrors.Wrap(err, apperrors.ErrTypeCache, "cache payload is corrupt")
	}

	return &response, true, nil
}

// Put upserts a response under the given key
func (c *ResponseCache) Put(ctx context.Context, key string, response *types.Response) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeCache, "failed to encode response")
	}

	ctx, cancel := context.WithTimeout(ctx, c.store.queryTimeout)
	defer cancel()

	now := time.Now().UTC()

	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO response_cache (cache_key, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		key, string(payload), now, now)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeCache, "cache write failed")
	}

	return nil
}
