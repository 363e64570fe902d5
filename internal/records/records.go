package records

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/roach88/dbsim/internal/codec"
	"github.com/roach88/dbsim/internal/dberr"
	"github.com/roach88/dbsim/internal/model"
	"github.com/roach88/dbsim/internal/store"
)

// TableLookup resolves table definitions. Implemented by schema.Manager.
type TableLookup interface {
	Table(ctx context.Context, ref model.TableRef) (model.Table, error)
}

// Store reads and writes the rows of tables.
type Store struct {
	kv     store.KeyValueStore
	tables TableLookup
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a record Store over kv.
func New(kv store.KeyValueStore, tables TableLookup, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		tables: tables,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the rows of a table in insertion order.
func (s *Store) List(ctx context.Context, ref model.TableRef) ([]model.Row, error) {
	_, data, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	return data.Rows, nil
}

// Data returns the full row data of a table, including the id high-water mark.
func (s *Store) Data(ctx context.Context, ref model.TableRef) (model.TableData, error) {
	_, data, err := s.load(ctx, ref)
	return data, err
}

// Get returns one row by id.
func (s *Store) Get(ctx context.Context, ref model.TableRef, id int64) (model.Row, error) {
	_, data, err := s.load(ctx, ref)
	if err != nil {
		return model.Row{}, err
	}
	i := data.IndexOf(id)
	if i < 0 {
		return model.Row{}, rowNotFound(ref, id)
	}
	return data.Rows[i], nil
}

// Insert appends a row with a fresh id. Declared columns missing from fields
// are left absent.
func (s *Store) Insert(ctx context.Context, ref model.TableRef, fields map[string]model.Value) (model.Row, error) {
	t, data, err := s.load(ctx, ref)
	if err != nil {
		return model.Row{}, err
	}
	if err := checkFields(t, fields); err != nil {
		return model.Row{}, err
	}

	data.LastInsertID = max(data.LastInsertID, data.MaxID()) + 1
	row := model.NewRow(data.LastInsertID, cloneFields(fields))
	data.Rows = append(data.Rows, row)

	if err := s.save(ctx, ref, t, data); err != nil {
		return model.Row{}, fmt.Errorf("insert row: %w", err)
	}

	s.logger.Debug("row inserted", "table", ref.String(), "id", row.ID)
	return row.Clone(), nil
}

// Update replaces the editable payload of a row. The id never changes and
// extra keys carried over from an import are dropped.
func (s *Store) Update(ctx context.Context, ref model.TableRef, id int64, fields map[string]model.Value) (model.Row, error) {
	t, data, err := s.load(ctx, ref)
	if err != nil {
		return model.Row{}, err
	}
	i := data.IndexOf(id)
	if i < 0 {
		return model.Row{}, rowNotFound(ref, id)
	}
	if err := checkFields(t, fields); err != nil {
		return model.Row{}, err
	}

	data.Rows[i] = model.NewRow(id, cloneFields(fields))
	if err := s.save(ctx, ref, t, data); err != nil {
		return model.Row{}, fmt.Errorf("update row: %w", err)
	}

	s.logger.Debug("row updated", "table", ref.String(), "id", id)
	return data.Rows[i].Clone(), nil
}

// Delete removes the row with id. Deleting an absent id is a no-op.
func (s *Store) Delete(ctx context.Context, ref model.TableRef, id int64) error {
	t, data, err := s.load(ctx, ref)
	if err != nil {
		return err
	}
	i := data.IndexOf(id)
	if i < 0 {
		return nil
	}

	data.LastInsertID = max(data.LastInsertID, data.MaxID())
	data.Rows = slices.DeleteFunc(data.Rows, func(r model.Row) bool { return r.ID == id })
	if err := s.save(ctx, ref, t, data); err != nil {
		return fmt.Errorf("delete row: %w", err)
	}

	s.logger.Debug("row deleted", "table", ref.String(), "id", id)
	return nil
}

// Truncate removes every row. Ids issued before are not reissued.
func (s *Store) Truncate(ctx context.Context, ref model.TableRef) error {
	t, data, err := s.load(ctx, ref)
	if err != nil {
		return err
	}

	data.LastInsertID = max(data.LastInsertID, data.MaxID())
	data.Rows = []model.Row{}
	if err := s.save(ctx, ref, t, data); err != nil {
		return fmt.Errorf("truncate table: %w", err)
	}

	s.logger.Info("table truncated", "table", ref.String())
	return nil
}

// ReplaceAll stores rows verbatim in place of the current row set. Values
// are not checked against the columns. Rows with ID 0 are given fresh ids;
// any other id may appear only once.
func (s *Store) ReplaceAll(ctx context.Context, ref model.TableRef, rows []model.Row) error {
	t, data, err := s.load(ctx, ref)
	if err != nil {
		return err
	}
	if err := checkUniqueIDs(rows); err != nil {
		return err
	}

	next := model.TableData{Columns: data.Columns, Rows: make([]model.Row, len(rows))}
	for i, r := range rows {
		next.Rows[i] = r.Clone()
	}
	next.LastInsertID = max(data.LastInsertID, data.MaxID(), next.MaxID())
	for i := range next.Rows {
		if next.Rows[i].ID == 0 {
			next.LastInsertID++
			next.Rows[i].ID = next.LastInsertID
		}
	}

	if err := s.save(ctx, ref, t, next); err != nil {
		return fmt.Errorf("replace rows: %w", err)
	}

	s.logger.Info("rows replaced", "table", ref.String(), "count", len(rows))
	return nil
}

// Clone inserts a copy of a row under a fresh id, placed at the end.
func (s *Store) Clone(ctx context.Context, ref model.TableRef, id int64) (model.Row, error) {
	t, data, err := s.load(ctx, ref)
	if err != nil {
		return model.Row{}, err
	}
	i := data.IndexOf(id)
	if i < 0 {
		return model.Row{}, rowNotFound(ref, id)
	}

	row := data.Rows[i].Clone()
	data.LastInsertID = max(data.LastInsertID, data.MaxID()) + 1
	row.ID = data.LastInsertID
	data.Rows = append(data.Rows, row)

	if err := s.save(ctx, ref, t, data); err != nil {
		return model.Row{}, fmt.Errorf("clone row: %w", err)
	}
	return row.Clone(), nil
}

func (s *Store) load(ctx context.Context, ref model.TableRef) (model.Table, model.TableData, error) {
	t, err := s.tables.Table(ctx, ref)
	if err != nil {
		return model.Table{}, model.TableData{}, err
	}

	raw, ok, err := s.kv.Get(ctx, codec.DataKey(ref))
	if err != nil {
		return model.Table{}, model.TableData{}, fmt.Errorf("read rows: %w", err)
	}
	if !ok {
		return t, model.TableData{Columns: t.ColumnNames(), Rows: []model.Row{}}, nil
	}

	data, err := codec.DecodeTableData(raw, t.Columns)
	if err != nil {
		return model.Table{}, model.TableData{}, err
	}
	return t, data, nil
}

func (s *Store) save(ctx context.Context, ref model.TableRef, t model.Table, data model.TableData) error {
	data.Columns = t.ColumnNames()
	raw, err := codec.EncodeTableData(data)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, codec.DataKey(ref), raw)
}

// checkFields validates an insert or update payload against the table.
func checkFields(t model.Table, fields map[string]model.Value) error {
	if len(t.Columns) == 0 {
		return dberr.Validation("table", "table %s has no columns", t.Name)
	}
	for name, v := range fields {
		if name == model.IDField {
			return &dberr.Error{Code: dberr.CodeValidation, Message: "id is assigned automatically", Entity: "column", Key: name}
		}
		c, ok := t.Column(name)
		if !ok {
			return &dberr.Error{Code: dberr.CodeValidation, Message: "unknown column", Entity: "column", Key: name}
		}
		if v == nil {
			v = model.Null{}
		}
		if v.Type() == model.TypeNull {
			if !c.Nullable {
				return &dberr.Error{Code: dberr.CodeValidation, Message: "column is not nullable", Entity: "column", Key: name}
			}
			continue
		}
		if v.Type() != c.Type {
			return &dberr.Error{
				Code:    dberr.CodeValidation,
				Message: fmt.Sprintf("expected %s value, got %s", c.Type, v.Type()),
				Entity:  "column",
				Key:     name,
			}
		}
		if n, ok := v.(model.Number); ok && !model.IsFinite(float64(n)) {
			return &dberr.Error{Code: dberr.CodeValidation, Message: "number must be finite", Entity: "column", Key: name}
		}
	}
	return nil
}

func checkUniqueIDs(rows []model.Row) error {
	seen := make(map[int64]bool, len(rows))
	for _, r := range rows {
		if r.ID == 0 {
			continue
		}
		if seen[r.ID] {
			return &dberr.Error{
				Code:    dberr.CodeValidation,
				Message: "duplicate row id",
				Entity:  "row",
				Key:     strconv.FormatInt(r.ID, 10),
			}
		}
		seen[r.ID] = true
	}
	return nil
}

func cloneFields(fields map[string]model.Value) map[string]model.Value {
	out := make(map[string]model.Value, len(fields))
	for k, v := range fields {
		if v == nil {
			v = model.Null{}
		}
		out[k] = v
	}
	return out
}

func rowNotFound(ref model.TableRef, id int64) *dberr.Error {
	return dberr.NotFound("row", ref.String()+"#"+strconv.FormatInt(id, 10))
}
