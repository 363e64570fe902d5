package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/dbsim/internal/codec"
	"github.com/roach88/dbsim/internal/dberr"
	"github.com/roach88/dbsim/internal/model"
	"github.com/roach88/dbsim/internal/store"
)

// Cascader deletes everything a project owns. Implemented by schema.Manager.
type Cascader interface {
	DropAll(ctx context.Context, projectID string) error
}

// Registry creates, lists, finds and removes projects.
type Registry struct {
	kv      store.KeyValueStore
	ids     IDGenerator
	clock   Clock
	cascade Cascader
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithIDGenerator overrides the default UUIDv7 id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Registry) { r.ids = g }
}

// WithClock overrides the wall clock used for createdAt.
func WithClock(c Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithCascader sets the component that deletes a removed project's tables.
func WithCascader(c Cascader) Option {
	return func(r *Registry) { r.cascade = c }
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// SetCascader sets the cascade after construction, for components that
// themselves need the registry.
func (r *Registry) SetCascader(c Cascader) {
	r.cascade = c
}

// New creates a Registry over kv.
func New(kv store.KeyValueStore, opts ...Option) *Registry {
	r := &Registry{
		kv:     kv,
		ids:    UUIDv7Generator{},
		clock:  SystemClock{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns all projects in creation order, seeding the demo set into an
// empty store first.
func (r *Registry) List(ctx context.Context) ([]model.Project, error) {
	s, ok, err := r.kv.Get(ctx, codec.ProjectsKey)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if !ok {
		return r.seed(ctx)
	}
	return codec.DecodeProjects(s)
}

func (r *Registry) seed(ctx context.Context) ([]model.Project, error) {
	projects := DemoProjects()
	if err := r.save(ctx, projects); err != nil {
		return nil, fmt.Errorf("seed projects: %w", err)
	}
	r.logger.Info("seeded demo projects", "count", len(projects))
	return projects, nil
}

// Create adds a project named name. The name is trimmed; an empty result is
// a validation error.
func (r *Registry) Create(ctx context.Context, name string) (model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Project{}, dberr.Validation("project", "project name is required")
	}

	projects, err := r.List(ctx)
	if err != nil {
		return model.Project{}, err
	}

	id := r.ids.Generate()
	if slices.ContainsFunc(projects, func(p model.Project) bool { return p.ID == id }) {
		return model.Project{}, fmt.Errorf("create project: generated id %q already in use", id)
	}

	p := model.Project{
		ID:        id,
		Name:      name,
		CreatedAt: model.NewDay(r.clock.Now()),
		Color:     ColorFor(id),
	}
	if err := r.save(ctx, append(projects, p)); err != nil {
		return model.Project{}, fmt.Errorf("create project: %w", err)
	}

	r.logger.Info("project created", "id", p.ID, "name", p.Name)
	return p, nil
}

// FindByID returns the project with the given id.
func (r *Registry) FindByID(ctx context.Context, id string) (model.Project, error) {
	projects, err := r.List(ctx)
	if err != nil {
		return model.Project{}, err
	}
	i := indexOf(projects, id)
	if i < 0 {
		return model.Project{}, dberr.NotFound("project", id)
	}
	return projects[i], nil
}

// Rename changes a project's name under the same rules as Create.
func (r *Registry) Rename(ctx context.Context, id, name string) (model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Project{}, dberr.Validation("project", "project name is required")
	}

	projects, err := r.List(ctx)
	if err != nil {
		return model.Project{}, err
	}
	i := indexOf(projects, id)
	if i < 0 {
		return model.Project{}, dberr.NotFound("project", id)
	}

	projects[i].Name = name
	if err := r.save(ctx, projects); err != nil {
		return model.Project{}, fmt.Errorf("rename project: %w", err)
	}
	return projects[i], nil
}

// Save replaces the stored project with the same id.
func (r *Registry) Save(ctx context.Context, p model.Project) error {
	projects, err := r.List(ctx)
	if err != nil {
		return err
	}
	i := indexOf(projects, p.ID)
	if i < 0 {
		return dberr.NotFound("project", p.ID)
	}

	projects[i] = p.Clone()
	if err := r.save(ctx, projects); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// Remove deletes a project and everything it owns. Removing an unknown id
// is a no-op.
func (r *Registry) Remove(ctx context.Context, id string) error {
	projects, err := r.List(ctx)
	if err != nil {
		return err
	}
	i := indexOf(projects, id)
	if i < 0 {
		r.logger.Debug("remove of unknown project ignored", "id", id)
		return nil
	}

	if r.cascade != nil {
		if err := r.cascade.DropAll(ctx, id); err != nil {
			return fmt.Errorf("remove project %s: %w", id, err)
		}
	}

	if err := r.save(ctx, slices.Delete(projects, i, i+1)); err != nil {
		return fmt.Errorf("remove project: %w", err)
	}

	r.logger.Info("project removed", "id", id)
	return nil
}

func (r *Registry) save(ctx context.Context, projects []model.Project) error {
	s, err := codec.EncodeProjects(projects)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, codec.ProjectsKey, s)
}

func indexOf(projects []model.Project, id string) int {
	return slices.IndexFunc(projects, func(p model.Project) bool { return p.ID == id })
}
