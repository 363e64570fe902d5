package store

import (
	"context"
	"fmt"
	"time"
)

// Set stores value under key, replacing any previous value.
// Uses ON CONFLICT(scope, key) DO UPDATE so repeated writes are idempotent.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (scope, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scope, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, s.scope, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key from this store's scope. Removing an absent key is a no-op.
func (s *Store) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM kv WHERE scope = ? AND key = ?
	`, s.scope, key)
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}
