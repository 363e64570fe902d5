package store

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// Bolt is a KeyValueStore backed by a bbolt file. Each scope is a
// top-level bucket.
type Bolt struct {
	bdb    *bbolt.DB
	bucket []byte
}

var _ KeyValueStore = (*Bolt)(nil)

// OpenBolt opens (creating if needed) the bbolt file at path and ensures the
// scope bucket exists.
func OpenBolt(path, scope string) (*Bolt, error) {
	if scope == "" {
		scope = DefaultScope
	}

	bdb, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	b := &Bolt{bdb: bdb, bucket: []byte(scope)}
	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(b.bucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, fmt.Errorf("failed to create scope bucket: %w", err)
	}

	return b, nil
}

// Get returns the value stored under key.
func (b *Bolt) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := b.bdb.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(b.bucket).Get([]byte(key))
		if v != nil {
			// bbolt values are only valid for the life of the transaction.
			value, ok = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, ok, nil
}

// Set stores value under key.
func (b *Bolt) Set(_ context.Context, key, value string) error {
	err := b.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Deleting an absent key is a no-op in bbolt.
func (b *Bolt) Remove(_ context.Context, key string) error {
	err := b.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(b.bucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// Keys returns the keys starting with prefix in byte order.
func (b *Bolt) Keys(_ context.Context, prefix string) ([]string, error) {
	keys := []string{}
	p := []byte(prefix)
	err := b.bdb.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(b.bucket).Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// Close closes the bbolt file.
func (b *Bolt) Close() error {
	return b.bdb.Close()
}
