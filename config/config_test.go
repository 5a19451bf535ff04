package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimimvp/CausalProb/config"
	"github.com/jimimvp/CausalProb/dag"
	"github.com/jimimvp/CausalProb/matrix"
)

func TestDefault_BuildsReferenceModel(t *testing.T) {
	m := config.Default()
	require.NoError(t, m.Validate())
	assert.Equal(t, 2, m.Dim)
	assert.Equal(t, int64(42), m.FlowSeed)
	assert.Equal(t, int64(43), m.ConditionerSeed)

	reg, err := m.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"V1", "X", "Y"}, reg.Order())

	theta, err := reg.InitAll(0)
	require.NoError(t, err)
	u, err := matrix.NewFromRows([][]float64{{1, 2}})
	require.NoError(t, err)
	score, err := reg.Score(dag.Outcome, u, theta)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0}}, score.ToRows())
}

func TestParse_OverridesAndKeepsDefaults(t *testing.T) {
	m, err := config.Parse([]byte(`
dim: 1
hidden: [4]
init_std: {weight: 0.2, bias: 0.05}
scores:
  Y: base
`))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Dim)
	assert.Equal(t, []int{4}, m.Hidden)
	assert.Equal(t, 4, m.CouplingLayers)
	require.NotNil(t, m.InitStd)
	assert.InDelta(t, 0.2, m.InitStd.Weight, 0)

	reg, err := m.Build(nil)
	require.NoError(t, err)
	theta, err := reg.InitAll(0)
	require.NoError(t, err)
	u, err := matrix.NewFromRows([][]float64{{1.5}})
	require.NoError(t, err)
	score, err := reg.Score(dag.Outcome, u, theta)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{-1.5}}, score.ToRows())
}

func TestParse_CustomGraph(t *testing.T) {
	m, err := config.Parse([]byte(`
dim: 2
nodes:
  - name: A
    dim: 1
  - name: B
    parents: [A]
`))
	require.NoError(t, err)
	g, err := m.Graph()
	require.NoError(t, err)
	b, err := g.Node("B")
	require.NoError(t, err)
	assert.Equal(t, 2, b.Dim)

	reg, err := m.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "A->B", "U_B->B"}, reg.ParamKeys())
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"dim":          "dim: 0",
		"hidden":       "hidden: [8, -1]",
		"empty hidden": "hidden: []",
		"layers":       "coupling_layers: 0",
		"init std":     "init_std: {weight: -1, bias: 0}",
		"policy":       "scores: {Y: gauss}",
		"node name":    "nodes: [{name: ''}]",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse([]byte(doc))
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}

	_, err := config.Parse([]byte("dim: ["))
	assert.Error(t, err)
}

func TestGraph_CycleIsInvalidConfig(t *testing.T) {
	m, err := config.Parse([]byte(`
nodes:
  - {name: A, parents: [B]}
  - {name: B, parents: [A]}
`))
	require.NoError(t, err)
	_, err = m.Build(nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.ErrorIs(t, err, dag.ErrCycleDetected)
}

func TestLoad(t *testing.T) {
	m, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), m)

	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dim: 3\n"), 0o600))
	m, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Dim)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEncode_RoundTrip(t *testing.T) {
	m := config.Default()
	m.Scores = map[string]string{"X": "zero"}
	data, err := m.Encode()
	require.NoError(t, err)

	back, err := config.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, m, back)
}
