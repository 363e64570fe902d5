package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/dbsim/internal/model"
)

// Filter returns the rows matching p, in input order. A nil predicate keeps
// every row.
func Filter(rows []model.Row, p Predicate) []model.Row {
	out := make([]model.Row, 0, len(rows))
	if p == nil {
		return append(out, rows...)
	}
	f := newFolder()
	for _, r := range rows {
		if p.match(r, f) {
			out = append(out, r)
		}
	}
	return out
}

// Search returns the rows where the id or any field contains q.
func Search(rows []model.Row, q string) []model.Row {
	return Filter(rows, AnyField{Query: q})
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts "asc", "desc" and "" (asc).
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(s)) {
	case "", Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q (want asc or desc)", s)
	}
}

// Sort orders rows by column. The sort is stable: rows with equal values
// keep their input order in both directions. An empty column returns the
// rows unchanged.
//
// Values of the same type compare natively. Mixed types order by type:
// absent, null, boolean, number, date, string.
func Sort(rows []model.Row, column string, dir Direction) []model.Row {
	out := slices.Clone(rows)
	if out == nil {
		out = []model.Row{}
	}
	if column == "" {
		return out
	}

	sign := 1
	if dir == Desc {
		sign = -1
	}
	slices.SortStableFunc(out, func(a, b model.Row) int {
		av, aok := a.Lookup(column)
		bv, bok := b.Lookup(column)
		return sign * compareValues(av, aok, bv, bok)
	})
	return out
}

func rank(v model.Value, ok bool) int {
	if !ok {
		return 0
	}
	switch v.(type) {
	case model.Null:
		return 1
	case model.Boolean:
		return 2
	case model.Number:
		return 3
	case model.Date:
		return 4
	default:
		return 5
	}
}

func compareValues(a model.Value, aok bool, b model.Value, bok bool) int {
	ra, rb := rank(a, aok), rank(b, bok)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch av := a.(type) {
	case model.Boolean:
		bv := b.(model.Boolean)
		switch {
		case av == bv:
			return 0
		case !bool(av):
			return -1
		default:
			return 1
		}
	case model.Number:
		return cmp.Compare(float64(av), float64(b.(model.Number)))
	case model.Date:
		return time.Time(av).Compare(time.Time(b.(model.Date)))
	case model.String:
		return strings.Compare(string(av), string(b.(model.String)))
	default:
		return 0
	}
}

// SortState is the current sort of a table view. An empty Column means
// unsorted.
type SortState struct {
	Column    string
	Direction Direction
}

// Toggle returns the sort state after clicking column: the same column
// flips direction, a different column starts ascending.
func Toggle(s SortState, column string) SortState {
	if s.Column == column && s.Direction == Asc {
		return SortState{Column: column, Direction: Desc}
	}
	return SortState{Column: column, Direction: Asc}
}

// View is the full set of controls of a table view.
type View struct {
	Search string
	Filter Contains
	Sort   SortState
}

// Apply searches, filters and then sorts rows as a table view does.
func Apply(rows []model.Row, v View) []model.Row {
	out := Filter(rows, And{AnyField{Query: v.Search}, v.Filter})
	return Sort(out, v.Sort.Column, v.Sort.Direction)
}
