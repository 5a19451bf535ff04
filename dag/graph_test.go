package dag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimimvp/CausalProb/dag"
)

// position returns index of v in slice or -1 if not found
func position(order []string, v string) int {
	for i, x := range order {
		if x == v {
			return i
		}
	}

	return -1
}

// TestDefaultGraph verifies the confounded mediator graph and its order.
func TestDefaultGraph(t *testing.T) {
	g, err := dag.DefaultGraph(2)
	require.NoError(t, err)

	assert.Equal(t, []string{"V1", "X", "Y"}, g.Order())

	y, err := g.Node(dag.Outcome)
	require.NoError(t, err)
	assert.Equal(t, []string{"V1", "X"}, y.Parents)
	assert.False(t, y.IsRoot())

	pd, err := g.ParentDim(dag.Outcome)
	require.NoError(t, err)
	assert.Equal(t, 4, pd)

	ch, err := g.Children(dag.Confounder)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, ch)

	desc, err := g.Descendants(dag.Mediator)
	require.NoError(t, err)
	assert.Equal(t, []string{"Y"}, desc)
}

// TestOrder_DeclaredChildFirst ensures parents precede children regardless of declaration order.
func TestOrder_DeclaredChildFirst(t *testing.T) {
	g, err := dag.NewGraph(
		dag.Node{Name: "C", Dim: 1, Parents: []string{"B"}},
		dag.Node{Name: "B", Dim: 1, Parents: []string{"A"}},
		dag.Node{Name: "A", Dim: 1},
		dag.Node{Name: "Z", Dim: 1},
	)
	require.NoError(t, err)

	order := g.Order()
	assert.Less(t, position(order, "A"), position(order, "B"))
	assert.Less(t, position(order, "B"), position(order, "C"))
	assert.ElementsMatch(t, []string{"A", "B", "C", "Z"}, order)
}

func TestNewGraph_Errors(t *testing.T) {
	cases := []struct {
		name  string
		nodes []dag.Node
		want  error
	}{
		{"empty name", []dag.Node{{Name: "", Dim: 1}}, dag.ErrEmptyName},
		{"bad dim", []dag.Node{{Name: "A", Dim: 0}}, dag.ErrInvalidDim},
		{"duplicate", []dag.Node{{Name: "A", Dim: 1}, {Name: "A", Dim: 1}}, dag.ErrDuplicateNode},
		{"unknown parent", []dag.Node{{Name: "A", Dim: 1, Parents: []string{"B"}}}, dag.ErrUnknownParent},
		{"duplicate parent", []dag.Node{{Name: "A", Dim: 1}, {Name: "B", Dim: 1, Parents: []string{"A", "A"}}}, dag.ErrDuplicateParent},
		{"self loop", []dag.Node{{Name: "A", Dim: 1, Parents: []string{"A"}}}, dag.ErrCycleDetected},
		{"cycle", []dag.Node{
			{Name: "A", Dim: 1, Parents: []string{"C"}},
			{Name: "B", Dim: 1, Parents: []string{"A"}},
			{Name: "C", Dim: 1, Parents: []string{"B"}},
		}, dag.ErrCycleDetected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := dag.NewGraph(tc.nodes...)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLookups_UnknownNode(t *testing.T) {
	g, err := dag.DefaultGraph(1)
	require.NoError(t, err)

	_, err = g.Node("nope")
	assert.ErrorIs(t, err, dag.ErrUnknownNode)
	_, err = g.Children("nope")
	assert.ErrorIs(t, err, dag.ErrUnknownNode)
	_, err = g.Descendants("nope")
	assert.ErrorIs(t, err, dag.ErrUnknownNode)
	_, err = g.ParentDim("nope")
	assert.ErrorIs(t, err, dag.ErrUnknownNode)
	assert.False(t, g.Has("nope"))
}

// TestNodes_ReturnsCopies checks that callers cannot mutate the graph.
func TestNodes_ReturnsCopies(t *testing.T) {
	g, err := dag.DefaultGraph(1)
	require.NoError(t, err)

	nodes := g.Nodes()
	nodes[2].Parents[0] = "mutated"

	y, err := g.Node(dag.Outcome)
	require.NoError(t, err)
	assert.Equal(t, "V1", y.Parents[0])
}
