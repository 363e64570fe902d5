package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/inventory_filter.yaml")
	require.NoError(t, err)

	assert.Equal(t, "inventory_filter", s.Name)
	assert.Equal(t, []string{"inv"}, s.IDs)
	require.Len(t, s.Flow, 4)
	assert.Equal(t, "table.create", s.Flow[1].Op)
	assert.Equal(t, "items", s.Flow[1].Args["name"])
	require.NotNil(t, s.Flow[3].Expect)
	assert.Equal(t, CaseOK, s.Flow[3].Expect.Case)
	require.Len(t, s.Assertions, 1)
	assert.Equal(t, 1, *s.Assertions[0].Count)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "missing name",
			src:  "description: d\nflow:\n  - op: project.list\n    args: {}\n",
			want: "name is required",
		},
		{
			name: "missing description",
			src:  "name: n\nflow:\n  - op: project.list\n    args: {}\n",
			want: "description is required",
		},
		{
			name: "empty flow",
			src:  "name: n\ndescription: d\nflow: []\n",
			want: "flow list is required",
		},
		{
			name: "unknown field",
			src:  "name: n\ndescription: d\nasserts: []\nflow:\n  - op: project.list\n    args: {}\n",
			want: "failed to parse YAML",
		},
		{
			name: "unknown op",
			src:  "name: n\ndescription: d\nflow:\n  - op: table.explode\n    args: {}\n",
			want: `unknown op "table.explode"`,
		},
		{
			name: "missing args",
			src:  "name: n\ndescription: d\nflow:\n  - op: project.list\n",
			want: "args is required",
		},
		{
			name: "expect without case",
			src:  "name: n\ndescription: d\nflow:\n  - op: project.list\n    args: {}\n    expect: {result: {count: 5}}\n",
			want: "expect: case is required",
		},
		{
			name: "setup with expect",
			src:  "name: n\ndescription: d\nsetup:\n  - op: project.list\n    args: {}\n    expect: {case: ok}\nflow:\n  - op: project.list\n    args: {}\n",
			want: "setup steps cannot have expect",
		},
		{
			name: "unknown connector",
			src:  "name: n\ndescription: d\nconnector: slow\nflow:\n  - op: project.list\n    args: {}\n",
			want: `unknown connector "slow"`,
		},
		{
			name: "unknown assertion",
			src:  "name: n\ndescription: d\nflow:\n  - op: project.list\n    args: {}\nassertions:\n  - type: vibes\n",
			want: `unknown assertion type "vibes"`,
		},
		{
			name: "rows without table",
			src:  "name: n\ndescription: d\nflow:\n  - op: project.list\n    args: {}\nassertions:\n  - type: rows\n    project: p\n",
			want: "project and table are required",
		},
		{
			name: "keys without count",
			src:  "name: n\ndescription: d\nflow:\n  - op: project.list\n    args: {}\nassertions:\n  - type: keys\n    prefix: x\n",
			want: "count is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadDir_SortedAndStrict(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("b.yaml", "name: b\ndescription: d\nflow:\n  - op: project.list\n    args: {}\n")
	write("a.yml", "name: a\ndescription: d\nflow:\n  - op: project.list\n    args: {}\n")
	write("notes.txt", "ignored")

	scenarios, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "a", scenarios[0].Name)
	assert.Equal(t, "b", scenarios[1].Name)

	write("c.yaml", "name: c\n")
	_, err = LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c.yaml")
}

func TestOps(t *testing.T) {
	names := Ops()
	assert.Contains(t, names, "row.insert")
	assert.Contains(t, names, "connect.connect")
	assert.IsNonDecreasing(t, names)
}
