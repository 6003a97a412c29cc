package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provgraph/internal/capture"
)

func TestGolden_Scenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		name := strings.TrimSuffix(filepath.Base(f), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(f)
			require.NoError(t, err)
			require.Equal(t, name, scenario.Name, "scenario name must match file name")

			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestGolden_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/out_of_order.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := MarshalSnapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := MarshalSnapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAssertGolden_MatchesRunWithGolden(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/indexed_window.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, "indexed_window", result))
}

func TestMarshalSnapshot_Shape(t *testing.T) {
	scenario := &Scenario{
		Name:        "shape",
		Description: "Snapshot layout",
		Window:      1,
		Records: []capture.Entry{
			{Node: &capture.NodeEntry{ID: "a"}},
			{Edge: &capture.EdgeEntry{Relation: 18446744073709551615, Source: "a", Destination: "a", Payload: "hi"}},
		},
	}
	result, err := Run(scenario)
	require.NoError(t, err)

	data, err := MarshalSnapshot(scenario.Name, result)
	require.NoError(t, err)

	s := string(data)
	assert.True(t, strings.HasPrefix(s, `{"pending":[],"scenario_name":"shape","stats":{"batches":1,`))
	assert.Contains(t, s, `"relation_id":"18446744073709551615"`)
	assert.Contains(t, s, `"payload":"6869"`)
	assert.True(t, strings.HasSuffix(s, `"window":1}`))
	assert.NotContains(t, s, " ")
}

func TestGolden_FilesHaveNoTrailingNewline(t *testing.T) {
	files, err := filepath.Glob("testdata/golden/*.golden")
	require.NoError(t, err)

	for _, f := range files {
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.False(t, strings.HasSuffix(string(data), "\n"), f)
	}
}
