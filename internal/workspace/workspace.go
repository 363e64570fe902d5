// Package workspace wires the registry, schema manager, record store and
// connection binder over one key-value store.
package workspace

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/dbsim/internal/connect"
	"github.com/roach88/dbsim/internal/model"
	"github.com/roach88/dbsim/internal/records"
	"github.com/roach88/dbsim/internal/registry"
	"github.com/roach88/dbsim/internal/schema"
	"github.com/roach88/dbsim/internal/store"
)

// Workspace is the entry point used by the CLI and the scenario harness.
type Workspace struct {
	Store    store.KeyValueStore
	Projects *registry.Registry
	Schema   *schema.Manager
	Records  *records.Store
	Connect  *connect.Binder
}

// Options configures a Workspace. Zero values select production defaults.
type Options struct {
	IDs       registry.IDGenerator
	Clock     registry.Clock
	Connector connect.SimulatedConnector
	Logger    *slog.Logger
}

// New builds a Workspace over kv. The caller keeps ownership of kv.
func New(kv store.KeyValueStore, opts Options) *Workspace {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	regOpts := []registry.Option{registry.WithLogger(logger.With("component", "registry"))}
	if opts.IDs != nil {
		regOpts = append(regOpts, registry.WithIDGenerator(opts.IDs))
	}
	if opts.Clock != nil {
		regOpts = append(regOpts, registry.WithClock(opts.Clock))
	}
	reg := registry.New(kv, regOpts...)

	sm := schema.New(kv, reg, schema.WithLogger(logger.With("component", "schema")))
	reg.SetCascader(sm)

	binderOpts := []connect.Option{connect.WithLogger(logger.With("component", "connect"))}
	if opts.Connector != nil {
		binderOpts = append(binderOpts, connect.WithConnector(opts.Connector))
	}

	return &Workspace{
		Store:    kv,
		Projects: reg,
		Schema:   sm,
		Records:  records.New(kv, sm, records.WithLogger(logger.With("component", "records"))),
		Connect:  connect.NewBinder(reg, binderOpts...),
	}
}

// Ref builds a table reference.
func Ref(projectID, table string) model.TableRef {
	return model.TableRef{ProjectID: projectID, Table: table}
}

// Close closes the underlying store.
func (w *Workspace) Close() error {
	return w.Store.Close()
}

// Snapshot returns every key of the store with its value, for diagnostics
// and scenario snapshots.
func (w *Workspace) Snapshot(ctx context.Context) (map[string]string, error) {
	keys, err := w.Store.Keys(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok, err := w.Store.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}
