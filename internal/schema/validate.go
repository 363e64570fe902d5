package schema

import (
	"slices"
	"strings"

	"github.com/roach88/dbsim/internal/dberr"
	"github.com/roach88/dbsim/internal/model"
)

// normalizeColumn trims the name and checks type and key. A declared id
// column mirrors the row id, so it must be a number.
func normalizeColumn(c model.Column) (model.Column, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return c, dberr.Validation("column", "column name is required")
	}
	if !slices.Contains(model.ColumnTypes, c.Type) {
		t, err := model.ParseType(string(c.Type))
		if err != nil {
			return c, &dberr.Error{Code: dberr.CodeValidation, Message: err.Error(), Entity: "column", Key: c.Name}
		}
		c.Type = t
	}
	if c.Name == model.IDField && c.Type != model.TypeNumber {
		return c, &dberr.Error{
			Code:    dberr.CodeValidation,
			Message: "the id column holds the row id and must be a number",
			Entity:  "column",
			Key:     c.Name,
		}
	}
	switch c.Key {
	case model.KeyNone, model.KeyPrimary, model.KeyForeign:
	default:
		return c, &dberr.Error{
			Code:    dberr.CodeValidation,
			Message: "column key must be PK, FK or empty, got " + string(c.Key),
			Entity:  "column",
			Key:     c.Name,
		}
	}
	return c, nil
}

// normalizeColumns validates a full column list for a new table.
func normalizeColumns(columns []model.Column) ([]model.Column, error) {
	if len(columns) == 0 {
		return nil, dberr.Validation("table", "at least one column is required")
	}
	out := make([]model.Column, 0, len(columns))
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		nc, err := normalizeColumn(c)
		if err != nil {
			return nil, err
		}
		if seen[nc.Name] {
			return nil, &dberr.Error{Code: dberr.CodeValidation, Message: "duplicate column name", Entity: "column", Key: nc.Name}
		}
		seen[nc.Name] = true
		out = append(out, nc)
	}
	return out, nil
}

// ParseColumnSpec parses the "name:type[:nullable][:PK|FK]" shorthand used
// on the command line and in scenario files.
func ParseColumnSpec(spec string) (model.Column, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 {
		return model.Column{}, dberr.Validation("column", "column %q must be name:type", spec)
	}

	t, err := model.ParseType(parts[1])
	if err != nil {
		return model.Column{}, dberr.Validation("column", "%v", err)
	}
	c := model.Column{Name: strings.TrimSpace(parts[0]), Type: t}

	for _, flag := range parts[2:] {
		switch strings.ToLower(strings.TrimSpace(flag)) {
		case "nullable", "null":
			c.Nullable = true
		case "pk":
			c.Key = model.KeyPrimary
		case "fk":
			c.Key = model.KeyForeign
		default:
			return model.Column{}, dberr.Validation("column", "unknown column flag %q in %q", flag, spec)
		}
	}
	return c, nil
}
