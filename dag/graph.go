package dag

import "fmt"

// Graph is a validated, immutable set of node descriptors.
// Safe for concurrent reads; no method mutates it after NewGraph.
type Graph struct {
	nodes    []Node         // declaration order
	index    map[string]int // name → position in nodes
	order    []string       // topological order (parents before children)
	children map[string][]string
}

// NewGraph validates nodes and computes a topological order.
//
// Implementation:
//   - Stage 1: per-node checks (name, dim, duplicate names).
//   - Stage 2: parent checks (declared, not repeated).
//   - Stage 3: DFS over parent links in declaration order; a Gray hit is a cycle.
//
// Determinism:
//   - The order depends only on declaration order: for independent nodes the
//     earlier-declared one comes first.
//
// Complexity:
//   - Time O(V + E), Space O(V + E).
func NewGraph(nodes ...Node) (*Graph, error) {
	g := &Graph{
		nodes:    make([]Node, 0, len(nodes)),
		index:    make(map[string]int, len(nodes)),
		children: make(map[string][]string, len(nodes)),
	}
	for _, n := range nodes {
		if n.Name == "" {
			return nil, ErrEmptyName
		}
		if n.Dim <= 0 {
			return nil, fmt.Errorf("%w: node %q has dim %d", ErrInvalidDim, n.Name, n.Dim)
		}
		if _, dup := g.index[n.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, n.Name)
		}
		n.Parents = append([]string(nil), n.Parents...)
		g.index[n.Name] = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}

	for _, n := range g.nodes {
		seen := make(map[string]struct{}, len(n.Parents))
		for _, p := range n.Parents {
			if _, ok := g.index[p]; !ok {
				return nil, fmt.Errorf("%w: %q (parent of %q)", ErrUnknownParent, p, n.Name)
			}
			if _, dup := seen[p]; dup {
				return nil, fmt.Errorf("%w: %q listed twice for %q", ErrDuplicateParent, p, n.Name)
			}
			seen[p] = struct{}{}
			g.children[p] = append(g.children[p], n.Name)
		}
	}

	order, err := g.topologicalOrder()
	if err != nil {
		return nil, err
	}
	g.order = order

	return g, nil
}

// topologicalOrder runs a post-order DFS along parent links: a node is
// emitted only after all of its parents, so no reversal is needed.
func (g *Graph) topologicalOrder() ([]string, error) {
	state := make(map[string]int, len(g.nodes))
	order := make([]string, 0, len(g.nodes))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case Gray:
			return fmt.Errorf("%w: through %q", ErrCycleDetected, name)
		case Black:
			return nil
		}
		state[name] = Gray
		for _, p := range g.nodes[g.index[name]].Parents {
			if err := visit(p); err != nil {
				return err
			}
		}
		state[name] = Black
		order = append(order, name)

		return nil
	}

	for _, n := range g.nodes {
		if state[n.Name] == White {
			if err := visit(n.Name); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// Nodes returns a copy of the descriptors in declaration order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	for i, n := range g.nodes {
		n.Parents = append([]string(nil), n.Parents...)
		out[i] = n
	}

	return out
}

// Node returns the descriptor for name.
func (g *Graph) Node(name string) (Node, error) {
	i, ok := g.index[name]
	if !ok {
		return Node{}, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	n := g.nodes[i]
	n.Parents = append([]string(nil), n.Parents...)

	return n, nil
}

// Has reports whether name is a declared node.
func (g *Graph) Has(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Order returns the topological order (parents before children).
func (g *Graph) Order() []string {
	return append([]string(nil), g.order...)
}

// Children returns the direct children of name in declaration order.
func (g *Graph) Children(name string) ([]string, error) {
	if !g.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}

	return append([]string(nil), g.children[name]...), nil
}

// Descendants returns every node reachable from name along child links,
// in topological order, excluding name itself.
func (g *Graph) Descendants(name string) ([]string, error) {
	if !g.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}
	reach := map[string]bool{}
	stack := append([]string(nil), g.children[name]...)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reach[top] {
			continue
		}
		reach[top] = true
		stack = append(stack, g.children[top]...)
	}
	out := make([]string, 0, len(reach))
	for _, n := range g.order {
		if reach[n] {
			out = append(out, n)
		}
	}

	return out, nil
}

// ParentDim returns the width of the concatenated parent vector of name.
func (g *Graph) ParentDim(name string) (int, error) {
	n, err := g.Node(name)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, p := range n.Parents {
		total += g.nodes[g.index[p]].Dim
	}

	return total, nil
}

// DefaultGraph returns the confounded mediator graph
// {V1: ∅, X: {V1}, Y: {V1, X}} with every variable of width dim.
func DefaultGraph(dim int) (*Graph, error) {
	return NewGraph(
		Node{Name: Confounder, Dim: dim},
		Node{Name: Mediator, Dim: dim, Parents: []string{Confounder}},
		Node{Name: Outcome, Dim: dim, Parents: []string{Confounder, Mediator}},
	)
}
