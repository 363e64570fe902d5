package store

import (
	"context"
	"fmt"
)

// Backend names a KeyValueStore implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
	BackendBolt   Backend = "bolt"
	BackendRedis  Backend = "redis"
)

// Backends lists the accepted backend names.
var Backends = []Backend{BackendSQLite, BackendBolt, BackendMemory, BackendRedis}

// Options selects and addresses a backend.
type Options struct {
	Backend Backend

	// Path is the database file for sqlite and bolt, or host:port for redis.
	Path string

	// Scope partitions the store into independent sessions.
	Scope string
}

// OpenBackend opens the store described by opts.
func OpenBackend(ctx context.Context, opts Options) (KeyValueStore, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendSQLite, "":
		return Open(opts.Path, opts.Scope)
	case BackendBolt:
		return OpenBolt(opts.Path, opts.Scope)
	case BackendRedis:
		return OpenRedis(ctx, opts.Path, opts.Scope)
	default:
		return nil, fmt.Errorf("unknown store backend %q (want one of %v)", opts.Backend, Backends)
	}
}
