// Package dag describes the causal graph an SCM is built over: an ordered
// list of node descriptors (name, variable dimension, parent names) that is
// validated once and then iterated in topological order.
//
// The three-node confounded graph used throughout the module is
// DefaultGraph(dim):
//
//	V1 ──► X
//	 │     │
//	 └──►  Y ◄┘
//
// V1 is the latent confounder, X the mediator, Y the outcome.
//
// Errors:
//
//	ErrEmptyName       - node name is "".
//	ErrDuplicateNode   - two descriptors share a name.
//	ErrInvalidDim      - dimension <= 0.
//	ErrUnknownParent   - a parent name is not declared.
//	ErrDuplicateParent - a parent is listed twice for one node.
//	ErrCycleDetected   - the parent relation is not acyclic (self-loops included).
//	ErrUnknownNode     - lookup of an undeclared node.
package dag

import "errors"

// Sentinel errors for graph construction and lookup.
var (
	// ErrEmptyName indicates a node descriptor with an empty name.
	ErrEmptyName = errors.New("dag: node name is empty")

	// ErrDuplicateNode indicates two descriptors with the same name.
	ErrDuplicateNode = errors.New("dag: duplicate node")

	// ErrInvalidDim indicates a non-positive variable dimension.
	ErrInvalidDim = errors.New("dag: dimension must be > 0")

	// ErrUnknownParent indicates a parent name that is not a declared node.
	ErrUnknownParent = errors.New("dag: unknown parent")

	// ErrDuplicateParent indicates the same parent listed twice.
	ErrDuplicateParent = errors.New("dag: duplicate parent")

	// ErrCycleDetected indicates that the parent relation contains a cycle.
	ErrCycleDetected = errors.New("dag: cycle detected")

	// ErrUnknownNode indicates a lookup of an undeclared node.
	ErrUnknownNode = errors.New("dag: unknown node")
)

// Names of the nodes in DefaultGraph.
const (
	Confounder = "V1"
	Mediator   = "X"
	Outcome    = "Y"
)

// Visitation states of the topological DFS.
const (
	White = iota // not visited yet
	Gray         // on the recursion stack
	Black        // fully explored
)

// Node is one variable of the SCM.
//
// Parents are ordered: a multi-parent conditioner consumes the parents'
// values concatenated in exactly this order.
type Node struct {
	// Name uniquely identifies the node.
	Name string

	// Dim is the variable dimension (columns of every value of this node).
	Dim int

	// Parents lists the direct causes, in concatenation order.
	Parents []string
}

// IsRoot reports whether n has no parents.
func (n Node) IsRoot() bool { return len(n.Parents) == 0 }
