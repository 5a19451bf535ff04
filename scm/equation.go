package scm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jimimvp/CausalProb/dag"
	"github.com/jimimvp/CausalProb/flow"
	"github.com/jimimvp/CausalProb/matrix"
	"github.com/jimimvp/CausalProb/nn"
	"github.com/jimimvp/CausalProb/params"
)

// Values maps node names to batched values (rows = batch, cols = node dim).
type Values map[string]*matrix.Dense

// ScoreFunc returns ∇_u log p_U(u) per row.
type ScoreFunc func(u *matrix.Dense, theta params.Set) (*matrix.Dense, error)

// CrossScoreFunc returns the derivative of a node's structural map with
// respect to its exogenous noise, evaluated at (u, x).
type CrossScoreFunc func(u, x *matrix.Dense, theta params.Set) (*matrix.Dense, error)

// StructuralEquation is the uniform per-node contract.
type StructuralEquation interface {
	// Node returns the descriptor this equation was built for.
	Node() dag.Node
	// ParamKeys lists the parameter groups the equation reads from θ.
	ParamKeys() []string
	// Forward maps exogenous noise to the node's value.
	Forward(u *matrix.Dense, theta params.Set, parents Values) (*matrix.Dense, error)
	// Inverse recovers exogenous noise from the node's value (abduction).
	Inverse(v *matrix.Dense, theta params.Set, parents Values) (*matrix.Dense, error)
	// LogDetJacobianInverse returns log|det ∂Inverse/∂v| per row.
	LogDetJacobianInverse(v *matrix.Dense, theta params.Set, parents Values) ([]float64, error)
	// BaseLogDensity returns log p_U(u) per row; θ is accepted but unused by the shared base.
	BaseLogDensity(u *matrix.Dense, theta params.Set) ([]float64, error)
	// SampleBase draws size exogenous samples from a source seeded with seed.
	SampleBase(size int, theta params.Set, seed int64) (*matrix.Dense, error)
	// Score returns the exogenous score under the node's score policy.
	Score(u *matrix.Dense, theta params.Set) (*matrix.Dense, error)
	// InitParams initialises the parameter group key.
	InitParams(key string, seed int64) (params.Blob, error)
}

// OwnFlowKey returns the parameter-group key of a node's base flow.
// Root nodes use their bare name; conditioned nodes "U_<n>-><n>".
func OwnFlowKey(n dag.Node) string {
	if n.IsRoot() {
		return n.Name
	}

	return "U_" + n.Name + "->" + n.Name
}

// ConditionerKey returns the parameter-group key of a node's conditioner:
// parents joined with "--", then "-><n>". Empty for root nodes.
func ConditionerKey(n dag.Node) string {
	if n.IsRoot() {
		return ""
	}

	return strings.Join(n.Parents, "--") + "->" + n.Name
}

// exogenous holds what every equation shares: the node, its base flow and
// the score policy of its exogenous noise.
type exogenous struct {
	node   dag.Node
	flow   flow.Flow
	ownKey string
	score  ScoreFunc
}

func (e *exogenous) Node() dag.Node {
	n := e.node
	n.Parents = append([]string(nil), n.Parents...)

	return n
}

func (e *exogenous) BaseLogDensity(u *matrix.Dense, _ params.Set) ([]float64, error) {
	if err := matrix.ValidateCols(u, e.node.Dim); err != nil {
		return nil, shapeErrorf(e.node.Name, "BaseLogDensity", err)
	}
	lp, err := e.flow.BaseLogPDF(u)
	if err != nil {
		return nil, e.wrap("BaseLogDensity", err)
	}

	return lp, nil
}

func (e *exogenous) SampleBase(size int, _ params.Set, seed int64) (*matrix.Dense, error) {
	u, err := e.flow.SampleBase(size, seed)
	if err != nil {
		return nil, e.wrap("SampleBase", err)
	}

	return u, nil
}

func (e *exogenous) Score(u *matrix.Dense, theta params.Set) (*matrix.Dense, error) {
	if err := matrix.ValidateCols(u, e.node.Dim); err != nil {
		return nil, shapeErrorf(e.node.Name, "Score", err)
	}

	return e.score(u, theta)
}

// ownParams fetches the base-flow blob from θ.
func (e *exogenous) ownParams(theta params.Set) (params.Blob, error) {
	b, ok := theta[e.ownKey]
	if !ok {
		return nil, nodeErrorf(e.node.Name, "params", fmt.Errorf("%w: %q", ErrUnknownParamGroup, e.ownKey))
	}

	return b, nil
}

// wrap classifies err: dimension problems become ErrShapeMismatch.
func (e *exogenous) wrap(op string, err error) error {
	if errors.Is(err, matrix.ErrDimensionMismatch) {
		return shapeErrorf(e.node.Name, op, err)
	}

	return nodeErrorf(e.node.Name, op, err)
}

// RootEquation is the structural equation of a parentless node:
// v = Flow.Forward(u, θ_own).
type RootEquation struct {
	exogenous
}

var _ StructuralEquation = (*RootEquation)(nil)

// NewRootEquation builds the equation of a root node. A nil score selects
// the base distribution's score.
func NewRootEquation(n dag.Node, f flow.Flow, score ScoreFunc) (*RootEquation, error) {
	if !n.IsRoot() {
		return nil, fmt.Errorf("scm: %q has parents; use NewConditionedEquation", n.Name)
	}
	if f == nil || f.Dim() != n.Dim {
		return nil, shapeErrorf(n.Name, "NewRootEquation", matrix.ErrDimensionMismatch)
	}
	if score == nil {
		score = BaseScore(f)
	}

	return &RootEquation{exogenous{node: n, flow: f, ownKey: OwnFlowKey(n), score: score}}, nil
}

// ParamKeys implements StructuralEquation.
func (r *RootEquation) ParamKeys() []string { return []string{r.ownKey} }

// Forward implements StructuralEquation. Parents are ignored.
func (r *RootEquation) Forward(u *matrix.Dense, theta params.Set, _ Values) (*matrix.Dense, error) {
	if err := matrix.ValidateCols(u, r.node.Dim); err != nil {
		return nil, shapeErrorf(r.node.Name, "Forward", err)
	}
	p, err := r.ownParams(theta)
	if err != nil {
		return nil, err
	}
	v, err := r.flow.Forward(u, p)
	if err != nil {
		return nil, r.wrap("Forward", err)
	}

	return v, nil
}

// Inverse implements StructuralEquation.
func (r *RootEquation) Inverse(v *matrix.Dense, theta params.Set, parents Values) (*matrix.Dense, error) {
	u, _, err := r.backward(v, theta)
	return u, err
}

// LogDetJacobianInverse implements StructuralEquation.
func (r *RootEquation) LogDetJacobianInverse(v *matrix.Dense, theta params.Set, _ Values) ([]float64, error) {
	_, ld, err := r.backward(v, theta)
	return ld, err
}

func (r *RootEquation) backward(v *matrix.Dense, theta params.Set) (*matrix.Dense, []float64, error) {
	if err := matrix.ValidateCols(v, r.node.Dim); err != nil {
		return nil, nil, shapeErrorf(r.node.Name, "Inverse", err)
	}
	p, err := r.ownParams(theta)
	if err != nil {
		return nil, nil, err
	}
	u, ld, err := r.flow.Backward(v, p)
	if err != nil {
		return nil, nil, r.wrap("Inverse", err)
	}

	return u, ld, nil
}

// InitParams implements StructuralEquation.
func (r *RootEquation) InitParams(key string, seed int64) (params.Blob, error) {
	if key != r.ownKey {
		return nil, nodeErrorf(r.node.Name, "InitParams", fmt.Errorf("%w: %q", ErrUnknownParamGroup, key))
	}

	return r.flow.InitParams(seed)
}

// ConditionedEquation is the structural equation of a node with parents:
// v = exp(ls)·Flow.Forward(u, θ_base) + shift, (shift, ls) = C(parents).
type ConditionedEquation struct {
	exogenous
	cond       nn.Conditioner
	condKey    string
	parentDims []int
}

var _ StructuralEquation = (*ConditionedEquation)(nil)

// NewConditionedEquation builds the equation of a node with parents.
// parentDims lists the dimension of each parent in n.Parents order; the
// conditioner must accept their sum and emit n.Dim.
func NewConditionedEquation(n dag.Node, parentDims []int, f flow.Flow, c nn.Conditioner, score ScoreFunc) (*ConditionedEquation, error) {
	if n.IsRoot() {
		return nil, fmt.Errorf("scm: %q has no parents; use NewRootEquation", n.Name)
	}
	if len(parentDims) != len(n.Parents) {
		return nil, shapeErrorf(n.Name, "NewConditionedEquation", matrix.ErrDimensionMismatch)
	}
	in := 0
	for _, d := range parentDims {
		in += d
	}
	if f == nil || f.Dim() != n.Dim || c == nil || c.InputDim() != in || c.TargetDim() != n.Dim {
		return nil, shapeErrorf(n.Name, "NewConditionedEquation", matrix.ErrDimensionMismatch)
	}
	if score == nil {
		score = BaseScore(f)
	}

	return &ConditionedEquation{
		exogenous:  exogenous{node: n, flow: f, ownKey: OwnFlowKey(n), score: score},
		cond:       c,
		condKey:    ConditionerKey(n),
		parentDims: append([]int(nil), parentDims...),
	}, nil
}

// ParamKeys implements StructuralEquation: conditioner first, then own flow.
func (c *ConditionedEquation) ParamKeys() []string { return []string{c.condKey, c.ownKey} }

// parentInput gathers parent values in declaration order, applies the
// single-row broadcast rule and concatenates them along columns.
func (c *ConditionedEquation) parentInput(parents Values) (*matrix.Dense, error) {
	vals := make([]*matrix.Dense, len(c.node.Parents))
	batch := 1
	for i, name := range c.node.Parents {
		v, ok := parents[name]
		if !ok || v == nil {
			return nil, nodeErrorf(c.node.Name, "parents", fmt.Errorf("%w: %q", ErrMissingParent, name))
		}
		if err := matrix.ValidateCols(v, c.parentDims[i]); err != nil {
			return nil, shapeErrorf(c.node.Name, "parents["+name+"]", err)
		}
		rows, ok := matrix.BroadcastRowCount(batch, v.Rows())
		if !ok {
			return nil, shapeErrorf(c.node.Name, "parents["+name+"]",
				fmt.Errorf("%w: batch %d vs %d rows", matrix.ErrDimensionMismatch, batch, v.Rows()))
		}
		batch = rows
		vals[i] = v
	}
	if len(vals) == 1 {
		return vals[0], nil
	}
	for i, v := range vals {
		if v.Rows() == batch {
			continue
		}
		b, err := matrix.BroadcastRows(v, batch)
		if err != nil {
			return nil, shapeErrorf(c.node.Name, "parents", err)
		}
		vals[i] = b
	}
	in, err := matrix.ConcatCols(vals...)
	if err != nil {
		return nil, c.wrap("parents", err)
	}

	return in, nil
}

// affine evaluates the conditioner on the parents.
func (c *ConditionedEquation) affine(theta params.Set, parents Values) (shift, logScale *matrix.Dense, err error) {
	in, err := c.parentInput(parents)
	if err != nil {
		return nil, nil, err
	}
	cp, ok := theta[c.condKey]
	if !ok {
		return nil, nil, nodeErrorf(c.node.Name, "params", fmt.Errorf("%w: %q", ErrUnknownParamGroup, c.condKey))
	}
	shift, logScale, err = c.cond.Apply(in, cp)
	if err != nil {
		return nil, nil, c.wrap("conditioner", err)
	}

	return shift, logScale, nil
}

// Forward implements StructuralEquation.
func (c *ConditionedEquation) Forward(u *matrix.Dense, theta params.Set, parents Values) (*matrix.Dense, error) {
	if err := matrix.ValidateCols(u, c.node.Dim); err != nil {
		return nil, shapeErrorf(c.node.Name, "Forward", err)
	}
	shift, logScale, err := c.affine(theta, parents)
	if err != nil {
		return nil, err
	}
	p, err := c.ownParams(theta)
	if err != nil {
		return nil, err
	}
	base, err := c.flow.Forward(u, p)
	if err != nil {
		return nil, c.wrap("Forward", err)
	}
	scale, err := matrix.Exp(logScale)
	if err != nil {
		return nil, c.wrap("Forward", err)
	}
	scaled, err := matrix.Hadamard(scale, base)
	if err != nil {
		return nil, c.wrap("Forward", err)
	}
	v, err := matrix.Add(scaled, shift)
	if err != nil {
		return nil, c.wrap("Forward", err)
	}

	return v, nil
}

// Inverse implements StructuralEquation: undo the affine map, then the flow.
func (c *ConditionedEquation) Inverse(v *matrix.Dense, theta params.Set, parents Values) (*matrix.Dense, error) {
	u, _, err := c.backward(v, theta, parents)
	return u, err
}

// LogDetJacobianInverse implements StructuralEquation:
// −Σ ls + log|det ∂Flow⁻¹/∂z| at z = (v − shift)·exp(−ls).
func (c *ConditionedEquation) LogDetJacobianInverse(v *matrix.Dense, theta params.Set, parents Values) ([]float64, error) {
	_, ld, err := c.backward(v, theta, parents)
	return ld, err
}

func (c *ConditionedEquation) backward(v *matrix.Dense, theta params.Set, parents Values) (*matrix.Dense, []float64, error) {
	if err := matrix.ValidateCols(v, c.node.Dim); err != nil {
		return nil, nil, shapeErrorf(c.node.Name, "Inverse", err)
	}
	shift, logScale, err := c.affine(theta, parents)
	if err != nil {
		return nil, nil, err
	}
	p, err := c.ownParams(theta)
	if err != nil {
		return nil, nil, err
	}
	centered, err := matrix.Sub(v, shift)
	if err != nil {
		return nil, nil, c.wrap("Inverse", err)
	}
	negLogScale, err := matrix.Scale(logScale, -1)
	if err != nil {
		return nil, nil, c.wrap("Inverse", err)
	}
	invScale, err := matrix.Exp(negLogScale)
	if err != nil {
		return nil, nil, c.wrap("Inverse", err)
	}
	z, err := matrix.Hadamard(centered, invScale)
	if err != nil {
		return nil, nil, c.wrap("Inverse", err)
	}
	u, flowLogDet, err := c.flow.Backward(z, p)
	if err != nil {
		return nil, nil, c.wrap("Inverse", err)
	}
	affineLogDet, err := matrix.RowSums(negLogScale)
	if err != nil {
		return nil, nil, c.wrap("Inverse", err)
	}
	ld, err := matrix.AddVecs(affineLogDet, flowLogDet)
	if err != nil {
		return nil, nil, c.wrap("Inverse", err)
	}

	return u, ld, nil
}

// InitParams implements StructuralEquation.
func (c *ConditionedEquation) InitParams(key string, seed int64) (params.Blob, error) {
	switch key {
	case c.condKey:
		return c.cond.Init(seed)
	case c.ownKey:
		return c.flow.InitParams(seed)
	default:
		return nil, nodeErrorf(c.node.Name, "InitParams", fmt.Errorf("%w: %q", ErrUnknownParamGroup, key))
	}
}
