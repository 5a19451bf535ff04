package scm

import (
	"fmt"

	"github.com/jimimvp/CausalProb/dag"
	"github.com/jimimvp/CausalProb/matrix"
	"github.com/jimimvp/CausalProb/params"
)

// Function shapes stored in the Registry maps.
type (
	ForwardFunc    func(u *matrix.Dense, theta params.Set, parents Values) (*matrix.Dense, error)
	InverseFunc    func(v *matrix.Dense, theta params.Set, parents Values) (*matrix.Dense, error)
	LogDetFunc     func(v *matrix.Dense, theta params.Set, parents Values) ([]float64, error)
	LogDensityFunc func(u *matrix.Dense, theta params.Set) ([]float64, error)
	SampleFunc     func(size int, theta params.Set, seed int64) (*matrix.Dense, error)
	InitFunc       func(seed int64) (params.Blob, error)
)

// Registry is the builder's output: one StructuralEquation per node plus
// the operation maps downstream code indexes by node name (InitParams by
// parameter-group key).
//
// The maps are populated once by Build and must be treated as read-only.
// The checked accessors below return ErrUnknownNode / ErrUnknownParamGroup
// instead of a nil function on a bad key.
type Registry struct {
	Graph     *dag.Graph
	Equations map[string]StructuralEquation

	F          map[string]ForwardFunc
	Finv       map[string]InverseFunc
	LDIJ       map[string]LogDetFunc
	LPU        map[string]LogDensityFunc
	DrawU      map[string]SampleFunc
	InitParams map[string]InitFunc
	DLPUDU     map[string]ScoreFunc
	DFYDU      map[string]CrossScoreFunc // conditioned nodes only

	order []string
	keys  []string
}

func newRegistry(g *dag.Graph) *Registry {
	n := len(g.Order())

	return &Registry{
		Graph:      g,
		Equations:  make(map[string]StructuralEquation, n),
		F:          make(map[string]ForwardFunc, n),
		Finv:       make(map[string]InverseFunc, n),
		LDIJ:       make(map[string]LogDetFunc, n),
		LPU:        make(map[string]LogDensityFunc, n),
		DrawU:      make(map[string]SampleFunc, n),
		InitParams: make(map[string]InitFunc, 2*n),
		DLPUDU:     make(map[string]ScoreFunc, n),
		DFYDU:      make(map[string]CrossScoreFunc, n),
		order:      g.Order(),
	}
}

// register binds eq's methods into every map.
func (r *Registry) register(eq StructuralEquation, cross CrossScoreFunc) {
	name := eq.Node().Name
	r.Equations[name] = eq
	r.F[name] = eq.Forward
	r.Finv[name] = eq.Inverse
	r.LDIJ[name] = eq.LogDetJacobianInverse
	r.LPU[name] = eq.BaseLogDensity
	r.DrawU[name] = eq.SampleBase
	r.DLPUDU[name] = eq.Score
	if cross != nil {
		r.DFYDU[name] = cross
	}
	for _, key := range eq.ParamKeys() {
		r.InitParams[key] = func(seed int64) (params.Blob, error) { return eq.InitParams(key, seed) }
		r.keys = append(r.keys, key)
	}
}

// Order returns node names in topological order.
func (r *Registry) Order() []string { return append([]string(nil), r.order...) }

// ParamKeys returns every parameter-group key, grouped by node in
// topological order.
func (r *Registry) ParamKeys() []string { return append([]string(nil), r.keys...) }

// Equation returns the structural equation of node.
func (r *Registry) Equation(node string) (StructuralEquation, error) {
	eq, ok := r.Equations[node]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, node)
	}

	return eq, nil
}

// Forward evaluates f[node].
func (r *Registry) Forward(node string, u *matrix.Dense, theta params.Set, parents Values) (*matrix.Dense, error) {
	eq, err := r.Equation(node)
	if err != nil {
		return nil, err
	}

	return eq.Forward(u, theta, parents)
}

// Inverse evaluates finv[node].
func (r *Registry) Inverse(node string, v *matrix.Dense, theta params.Set, parents Values) (*matrix.Dense, error) {
	eq, err := r.Equation(node)
	if err != nil {
		return nil, err
	}

	return eq.Inverse(v, theta, parents)
}

// LogDet evaluates ldij[node].
func (r *Registry) LogDet(node string, v *matrix.Dense, theta params.Set, parents Values) ([]float64, error) {
	eq, err := r.Equation(node)
	if err != nil {
		return nil, err
	}

	return eq.LogDetJacobianInverse(v, theta, parents)
}

// LogDensity evaluates lpu[node].
func (r *Registry) LogDensity(node string, u *matrix.Dense, theta params.Set) ([]float64, error) {
	eq, err := r.Equation(node)
	if err != nil {
		return nil, err
	}

	return eq.BaseLogDensity(u, theta)
}

// Draw evaluates draw_u[node].
func (r *Registry) Draw(node string, size int, theta params.Set, seed int64) (*matrix.Dense, error) {
	eq, err := r.Equation(node)
	if err != nil {
		return nil, err
	}

	return eq.SampleBase(size, theta, seed)
}

// Score evaluates dlpu_du[node].
func (r *Registry) Score(node string, u *matrix.Dense, theta params.Set) (*matrix.Dense, error) {
	eq, err := r.Equation(node)
	if err != nil {
		return nil, err
	}

	return eq.Score(u, theta)
}

// Init evaluates init_params[key].
func (r *Registry) Init(key string, seed int64) (params.Blob, error) {
	fn, ok := r.InitParams[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParamGroup, key)
	}

	return fn(seed)
}

// InitAll initialises every parameter group with the same seed and
// returns the resulting θ.
func (r *Registry) InitAll(seed int64) (params.Set, error) {
	theta := make(params.Set, len(r.keys))
	for _, key := range r.keys {
		b, err := r.Init(key, seed)
		if err != nil {
			return nil, fmt.Errorf("scm: init %q: %w", key, err)
		}
		theta[key] = b
	}

	return theta, nil
}

// Validate reports the first parameter group missing from theta or whose
// blob does not match what the owning primitive produces.
func (r *Registry) Validate(theta params.Set) error {
	for _, key := range r.keys {
		b, ok := theta[key]
		if !ok {
			return fmt.Errorf("%w: %q missing from θ", ErrUnknownParamGroup, key)
		}
		ref, err := r.Init(key, 0)
		if err != nil {
			return err
		}
		if err := b.Expect(len(ref)); err != nil {
			return fmt.Errorf("scm: θ[%q]: %w", key, err)
		}
		for i, m := range b {
			if m.Rows() != ref[i].Rows() || m.Cols() != ref[i].Cols() {
				return fmt.Errorf("scm: θ[%q][%d]: %w: %w", key, i, ErrShapeMismatch, matrix.ErrDimensionMismatch)
			}
		}
	}

	return nil
}

// Parents selects the parent values of node from values, in declaration
// order. Absent parents are left out; the equation reports them.
func (r *Registry) Parents(node string, values Values) (Values, error) {
	n, err := r.Graph.Node(node)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, node)
	}
	out := make(Values, len(n.Parents))
	for _, p := range n.Parents {
		if v, ok := values[p]; ok {
			out[p] = v
		}
	}

	return out, nil
}
