package query

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/dbsim/internal/model"
)

// Predicate is a row condition.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Contains: one field's text contains a value
//   - AnyField: the id or any field's text contains a query
//   - And: all predicates must be true
type Predicate interface {
	match(r model.Row, f *folder) bool
}

// Contains matches rows whose field text contains Value, ignoring case.
// An empty Field or Value matches every row. A row lacking Field never
// matches a non-empty Value.
type Contains struct {
	Field string
	Value string
}

// AnyField matches rows where the id or any field contains Query, ignoring
// case. An empty Query matches every row.
type AnyField struct {
	Query string
}

// And matches rows that satisfy every predicate. An empty And matches all.
type And []Predicate

func (p Contains) match(r model.Row, f *folder) bool {
	if p.Field == "" || p.Value == "" {
		return true
	}
	v, ok := r.Lookup(p.Field)
	if !ok {
		return false
	}
	return strings.Contains(f.fold(v.Text()), f.fold(p.Value))
}

func (p AnyField) match(r model.Row, f *folder) bool {
	if p.Query == "" {
		return true
	}
	q := f.fold(p.Query)
	if strings.Contains(f.fold(model.Number(r.ID).Text()), q) {
		return true
	}
	for _, k := range r.Keys() {
		if v, ok := r.Lookup(k); ok && strings.Contains(f.fold(v.Text()), q) {
			return true
		}
	}
	return false
}

func (p And) match(r model.Row, f *folder) bool {
	for _, sub := range p {
		if sub != nil && !sub.match(r, f) {
			return false
		}
	}
	return true
}

// folder applies Unicode case folding. A cases.Caser keeps state between
// calls, so one folder is used per query and never shared.
type folder struct {
	c cases.Caser
}

func newFolder() *folder {
	return &folder{c: cases.Fold()}
}

func (f *folder) fold(s string) string {
	return f.c.String(s)
}
