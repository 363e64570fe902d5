package connect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/dbsim/internal/dberr"
	"github.com/roach88/dbsim/internal/model"
)

// ProjectStore loads and saves projects. Implemented by registry.Registry.
type ProjectStore interface {
	FindByID(ctx context.Context, id string) (model.Project, error)
	Save(ctx context.Context, p model.Project) error
}

// Binder validates connection parameters and records them on projects.
type Binder struct {
	projects  ProjectStore
	catalog   *Catalog
	connector SimulatedConnector
	validate  *validator.Validate
	logger    *slog.Logger
}

// Option configures a Binder.
type Option func(*Binder)

// WithCatalog replaces the default catalog.
func WithCatalog(c *Catalog) Option {
	return func(b *Binder) { b.catalog = c }
}

// WithConnector sets the connector used by Connect. Defaults to a
// DelayConnector with DefaultDelay.
func WithConnector(c SimulatedConnector) Option {
	return func(b *Binder) { b.connector = c }
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Binder) { b.logger = l }
}

// NewBinder creates a Binder.
func NewBinder(projects ProjectStore, opts ...Option) *Binder {
	b := &Binder{
		projects:  projects,
		catalog:   DefaultCatalog(),
		connector: DelayConnector{Delay: DefaultDelay},
		validate:  validator.New(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Catalog returns the kinds this binder accepts.
func (b *Binder) Catalog() *Catalog {
	return b.catalog
}

// Validate checks params against the fields kind requires. It returns the
// resolved kind.
func (b *Binder) Validate(kind model.Kind, params map[string]string) (KindSpec, error) {
	spec, ok := b.catalog.Lookup(kind)
	if !ok {
		return KindSpec{}, &dberr.Error{Code: dberr.CodeValidation, Message: "unknown database kind", Entity: "connection", Key: string(kind)}
	}

	data := make(map[string]any, len(params))
	for k, v := range params {
		data[k] = strings.TrimSpace(v)
	}
	rules := make(map[string]any, len(spec.Fields))
	for _, f := range spec.Fields {
		rules[f.Name] = f.Rule
	}

	errs := b.validate.ValidateMap(data, rules)
	if len(errs) == 0 {
		return spec, nil
	}

	var missing, invalid []string
	for _, f := range spec.Fields {
		err, failed := errs[f.Name]
		if !failed {
			continue
		}
		if isRequiredFailure(err) {
			missing = append(missing, f.Name)
		} else {
			invalid = append(invalid, f.Name)
		}
	}
	if len(missing) > 0 {
		return KindSpec{}, dberr.MissingFields("connection", string(spec.Kind), missing)
	}
	return KindSpec{}, &dberr.Error{
		Code:    dberr.CodeValidation,
		Message: fmt.Sprintf("invalid fields %v", invalid),
		Entity:  "connection",
		Key:     string(spec.Kind),
		Fields:  invalid,
	}
}

func isRequiredFailure(err any) bool {
	e, ok := err.(error)
	if !ok {
		return false
	}
	var verrs validator.ValidationErrors
	if errors.As(e, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				return true
			}
		}
	}
	return false
}

// Bind records kind and params on the project after validating them.
// Nothing is written when validation fails.
func (b *Binder) Bind(ctx context.Context, projectID string, kind model.Kind, params map[string]string) (model.Project, error) {
	spec, err := b.Validate(kind, params)
	if err != nil {
		return model.Project{}, err
	}
	return b.bind(ctx, projectID, spec, params)
}

// Connect validates params, runs the simulated connector and binds on
// success. A connector failure leaves the project unchanged.
func (b *Binder) Connect(ctx context.Context, projectID string, kind model.Kind, params map[string]string) (model.Project, error) {
	spec, err := b.Validate(kind, params)
	if err != nil {
		return model.Project{}, err
	}
	if _, err := b.projects.FindByID(ctx, projectID); err != nil {
		return model.Project{}, err
	}

	b.logger.Info("connecting", "project", projectID, "kind", spec.Kind)
	if err := b.connector.Connect(ctx, spec, params); err != nil {
		b.logger.Warn("connection failed", "project", projectID, "kind", spec.Kind, "error", err)
		return model.Project{}, err
	}
	return b.bind(ctx, projectID, spec, params)
}

func (b *Binder) bind(ctx context.Context, projectID string, spec KindSpec, params map[string]string) (model.Project, error) {
	p, err := b.projects.FindByID(ctx, projectID)
	if err != nil {
		return model.Project{}, err
	}

	p.Kind = spec.Kind
	p.ConnectionParams = maps.Clone(params)
	if err := b.projects.Save(ctx, p); err != nil {
		return model.Project{}, fmt.Errorf("bind connection: %w", err)
	}

	b.logger.Info("connection bound", "project", projectID, "kind", spec.Kind, "fields", len(params))
	return p, nil
}
