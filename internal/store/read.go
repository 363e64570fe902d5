package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Get returns the value stored under key in this store's scope.
// Returns ok=false (and no error) if the key is absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM kv WHERE scope = ? AND key = ?
	`, s.scope, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Keys returns every key in scope that starts with prefix.
// Ordered by key ASC COLLATE BINARY so listings are deterministic.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM kv
		WHERE scope = ? AND substr(key, 1, length(?)) = ?
		ORDER BY key COLLATE BINARY ASC
	`, s.scope, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}

	return keys, nil
}
