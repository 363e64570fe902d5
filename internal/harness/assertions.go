package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/dbsim/internal/model"
	"github.com/roach88/dbsim/internal/workspace"
)

// AssertionContext provides the final workspace to state assertions.
type AssertionContext struct {
	Ctx       context.Context
	Workspace *workspace.Workspace
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %v -> %s\n", event.Seq, event.Op, event.Args, event.Case)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertRows:
		return assertRows(actx, a)
	case AssertTables:
		return assertTables(actx, a)
	case AssertKeys:
		return assertKeys(actx, a)
	case AssertProject:
		return assertProject(actx, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceCount checks that the op was executed exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == a.Op {
			count++
		}
	}
	if count != *a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s executed %d times", a.Op, *a.Count),
			Actual:   fmt.Sprintf("executed %d times", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that ops first appear in the given order.
// Intervening steps are allowed.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for _, event := range trace {
		if positions[event.Op] == 0 {
			positions[event.Op] = event.Seq
		}
	}

	for _, op := range a.Ops {
		if positions[op] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all ops present: %v", a.Ops),
				Actual:   fmt.Sprintf("missing op: %s", op),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(a.Ops); i++ {
		prev, curr := a.Ops[i-1], a.Ops[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", a.Ops),
				Actual: fmt.Sprintf("%s (seq %d) should be before %s (seq %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertRows checks a table's rows: the ids in order, or the number of
// rows matching Where.
func assertRows(actx *AssertionContext, a Assertion) error {
	rows, err := actx.Workspace.Records.List(actx.Ctx, workspace.Ref(a.Project, a.Table))
	if err != nil {
		return fmt.Errorf("list rows of %s/%s: %w", a.Project, a.Table, err)
	}

	matched := rows
	if len(a.Where) > 0 {
		matched = nil
		for _, r := range rows {
			if rowMatches(r, a.Where) {
				matched = append(matched, r)
			}
		}
	}

	if a.Count != nil && len(matched) != *a.Count {
		return &AssertionError{
			Type:     AssertRows,
			Expected: fmt.Sprintf("%d rows in %s/%s matching %v", *a.Count, a.Project, a.Table, a.Where),
			Actual:   fmt.Sprintf("%d rows", len(matched)),
		}
	}
	if a.IDs != nil {
		got := rowIDs(matched)
		if !slices.Equal(got, a.IDs) {
			return &AssertionError{
				Type:     AssertRows,
				Expected: fmt.Sprintf("ids %v", a.IDs),
				Actual:   fmt.Sprintf("ids %v", got),
			}
		}
	}
	return nil
}

// rowMatches compares row values with expected scalars by their text form.
// A nil expectation matches an explicit null.
func rowMatches(r model.Row, where map[string]any) bool {
	for name, want := range where {
		v, ok := r.Lookup(name)
		if !ok {
			return false
		}
		wantText := "null"
		if want != nil {
			wantText = fmt.Sprint(want)
		}
		if v.Text() != wantText {
			return false
		}
	}
	return true
}

// assertTables checks a project's table names in order.
func assertTables(actx *AssertionContext, a Assertion) error {
	tables, err := actx.Workspace.Schema.Tables(actx.Ctx, a.Project)
	if err != nil {
		return fmt.Errorf("list tables of %s: %w", a.Project, err)
	}
	got := tableNames(tables)
	want := a.Names
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     AssertTables,
			Expected: fmt.Sprintf("tables %v", want),
			Actual:   fmt.Sprintf("tables %v", got),
		}
	}
	return nil
}

// assertKeys counts the store keys starting with Prefix.
func assertKeys(actx *AssertionContext, a Assertion) error {
	keys, err := actx.Workspace.Store.Keys(actx.Ctx, a.Prefix)
	if err != nil {
		return fmt.Errorf("list keys %q: %w", a.Prefix, err)
	}
	if len(keys) != *a.Count {
		return &AssertionError{
			Type:     AssertKeys,
			Expected: fmt.Sprintf("%d keys with prefix %q", *a.Count, a.Prefix),
			Actual:   fmt.Sprintf("%d keys %v", len(keys), keys),
		}
	}
	return nil
}

// assertProject subset-matches the stored project JSON.
func assertProject(actx *AssertionContext, a Assertion) error {
	p, err := actx.Workspace.Projects.FindByID(actx.Ctx, a.Project)
	if err != nil {
		return fmt.Errorf("find project %s: %w", a.Project, err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	var actual map[string]any
	if err := json.Unmarshal(data, &actual); err != nil {
		return err
	}
	if msgs := subsetMismatches("project", actual, a.Expect); len(msgs) > 0 {
		return &AssertionError{
			Type:     AssertProject,
			Expected: fmt.Sprintf("%v", a.Expect),
			Actual:   strings.Join(msgs, "; "),
		}
	}
	return nil
}

// subsetMismatches reports every key of expected whose value differs from
// actual. Values are compared after a JSON round trip so YAML integers
// equal Go int64 and float64 results. A nil expected value requires the
// key to be absent or null.
func subsetMismatches(label string, actual, expected map[string]any) []string {
	var msgs []string
	for _, k := range slices.Sorted(maps.Keys(expected)) {
		want := normalize(expected[k])
		got, ok := actual[k]
		if !ok {
			if want != nil {
				msgs = append(msgs, fmt.Sprintf("%s.%s: missing, want %v", label, k, want))
			}
			continue
		}
		if g := normalize(got); !reflect.DeepEqual(g, want) {
			msgs = append(msgs, fmt.Sprintf("%s.%s: got %v, want %v", label, k, g, want))
		}
	}
	return msgs
}

func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
