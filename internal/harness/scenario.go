package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a workspace scenario: steps to execute and the state
// they must leave behind.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// IDs are handed out, in order, to the projects the scenario creates.
	// Further projects get "p-<n>".
	IDs []string `yaml:"ids,omitempty"`

	// Connector selects the simulated connector: "instant" (default) or
	// "failing".
	Connector string `yaml:"connector,omitempty"`

	// Setup steps establish initial state and must all succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the main sequence of steps.
	Flow []Step `yaml:"flow"`

	// Assertions are evaluated against the final workspace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one workspace operation.
type Step struct {
	// Op names the operation, e.g. "row.insert". See Ops.
	Op string `yaml:"op"`

	// Args are the operation's arguments.
	Args map[string]any `yaml:"args"`

	// Expect is the expected outcome. Nil means the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected step behavior.
type ExpectClause struct {
	// Case is "ok" or an error code such as "VALIDATION".
	Case string `yaml:"case"`

	// Result is a subset match against the step's result fields.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates the trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Op is the operation name (trace_count).
	Op string `yaml:"op,omitempty"`

	// Ops is the expected operation order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Project and Table address the state being checked.
	Project string `yaml:"project,omitempty"`
	Table   string `yaml:"table,omitempty"`

	// Prefix selects store keys (keys).
	Prefix string `yaml:"prefix,omitempty"`

	// Count is the expected number of rows, keys or trace entries.
	Count *int `yaml:"count,omitempty"`

	// IDs is the expected row id order (rows).
	IDs []int64 `yaml:"ids,omitempty"`

	// Names is the expected table order (tables).
	Names []string `yaml:"names,omitempty"`

	// Where selects rows whose fields equal these values (rows).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect is a subset match against the project (project).
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount = "trace_count"
	AssertTraceOrder = "trace_order"
	AssertRows       = "rows"
	AssertTables     = "tables"
	AssertKeys       = "keys"
	AssertProject    = "project"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	switch s.Connector {
	case "", "instant", "failing":
	default:
		return fmt.Errorf("unknown connector %q", s.Connector)
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: setup steps cannot have expect", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	if step.Op == "" {
		return fmt.Errorf("op is required")
	}
	if !slices.Contains(Ops(), step.Op) {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if step.Args == nil {
		return fmt.Errorf("args is required (use empty map if no args)")
	}
	if step.Expect != nil && step.Expect.Case == "" {
		return fmt.Errorf("expect: case is required")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertTraceCount:
		if a.Op == "" || a.Count == nil {
			return fmt.Errorf("op and count are required for trace_count")
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("ops list is required for trace_order")
		}
	case AssertRows:
		if a.Project == "" || a.Table == "" {
			return fmt.Errorf("project and table are required for rows")
		}
	case AssertTables, AssertProject:
		if a.Project == "" {
			return fmt.Errorf("project is required for %s", a.Type)
		}
	case AssertKeys:
		if a.Count == nil {
			return fmt.Errorf("count is required for keys")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	if a.Count != nil && *a.Count < 0 {
		return fmt.Errorf("count must be non-negative")
	}
	return nil
}
