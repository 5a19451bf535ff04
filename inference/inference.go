// Package inference runs the generic downstream algorithms of a structural
// causal model over an scm.Registry: ancestral sampling, joint abduction,
// log-likelihood, do-interventions and counterfactuals.
//
// Every function here indexes the Registry only by node name and never
// inspects which kind of equation sits behind it.
package inference

import (
	"errors"
	"fmt"

	"github.com/jimimvp/CausalProb/matrix"
	"github.com/jimimvp/CausalProb/params"
	"github.com/jimimvp/CausalProb/scm"
)

var (
	// ErrMissingValue indicates that a node's observed value was not supplied.
	ErrMissingValue = errors.New("inference: missing node value")

	// ErrUnknownIntervention indicates a do-target that is not a graph node.
	ErrUnknownIntervention = errors.New("inference: intervention on unknown node")

	// ErrInvalidSize indicates a non-positive sample size.
	ErrInvalidSize = errors.New("inference: size must be > 0")
)

// Trace is one joint draw: exogenous noise and observed value per node.
// Intervened nodes have a value but no noise.
type Trace struct {
	U scm.Values
	V scm.Values
}

// Sample draws size joint samples by ancestral sampling. Node i of the
// topological order draws its noise with seed + i.
//
// Complexity:
//   - Time O(V · size · cost(f)), Space O(V · size · dim).
func Sample(reg *scm.Registry, theta params.Set, size int, seed int64) (Trace, error) {
	return Intervene(reg, theta, nil, size, seed)
}

// Intervene samples from the model under do(node := value) for every entry
// of do. Intervened equations are replaced by their fixed value; a single
// fixed row broadcasts against the sampled batch downstream.
func Intervene(reg *scm.Registry, theta params.Set, do scm.Values, size int, seed int64) (Trace, error) {
	if size <= 0 {
		return Trace{}, ErrInvalidSize
	}
	if err := checkTargets(reg, do); err != nil {
		return Trace{}, err
	}
	tr := Trace{U: scm.Values{}, V: scm.Values{}}
	for i, name := range reg.Order() {
		if v, ok := do[name]; ok {
			tr.V[name] = v
			continue
		}
		u, err := reg.Draw(name, size, theta, seed+int64(i))
		if err != nil {
			return Trace{}, err
		}
		v, err := forward(reg, theta, name, u, tr.V)
		if err != nil {
			return Trace{}, err
		}
		tr.U[name], tr.V[name] = u, v
	}

	return tr, nil
}

// Abduct recovers the exogenous noise of every node from observed values.
// Each node needs only its own value and its parents', so no ordering is
// required.
func Abduct(reg *scm.Registry, theta params.Set, values scm.Values) (scm.Values, error) {
	us := make(scm.Values, len(values))
	for _, name := range reg.Order() {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingValue, name)
		}
		parents, err := reg.Parents(name, values)
		if err != nil {
			return nil, err
		}
		u, err := reg.Inverse(name, v, theta, parents)
		if err != nil {
			return nil, err
		}
		us[name] = u
	}

	return us, nil
}

// LogLikelihood returns log p(values) per row:
// Σ_n lpu[n](finv[n](v_n)) + ldij[n](v_n).
func LogLikelihood(reg *scm.Registry, theta params.Set, values scm.Values) ([]float64, error) {
	var total []float64
	for _, name := range reg.Order() {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingValue, name)
		}
		parents, err := reg.Parents(name, values)
		if err != nil {
			return nil, err
		}
		u, err := reg.Inverse(name, v, theta, parents)
		if err != nil {
			return nil, err
		}
		lp, err := reg.LogDensity(name, u, theta)
		if err != nil {
			return nil, err
		}
		ld, err := reg.LogDet(name, v, theta, parents)
		if err != nil {
			return nil, err
		}
		node, err := matrix.AddVecs(lp, ld)
		if err != nil {
			return nil, fmt.Errorf("inference: %s: %w", name, err)
		}
		if total == nil {
			total = node
			continue
		}
		if total, err = matrix.AddVecs(total, node); err != nil {
			return nil, fmt.Errorf("inference: %s: %w", name, err)
		}
	}

	return total, nil
}

// Counterfactual answers "what would the values have been under do":
// abduct noise from factual, replace the intervened equations and push the
// recovered noise forward again. Non-descendants of the targets keep their
// factual values up to round-off.
func Counterfactual(reg *scm.Registry, theta params.Set, factual, do scm.Values) (scm.Values, error) {
	if err := checkTargets(reg, do); err != nil {
		return nil, err
	}
	us, err := Abduct(reg, theta, factual)
	if err != nil {
		return nil, err
	}
	out := make(scm.Values, len(factual))
	for _, name := range reg.Order() {
		if v, ok := do[name]; ok {
			out[name] = v
			continue
		}
		v, err := forward(reg, theta, name, us[name], out)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}

	return out, nil
}

func forward(reg *scm.Registry, theta params.Set, name string, u *matrix.Dense, values scm.Values) (*matrix.Dense, error) {
	parents, err := reg.Parents(name, values)
	if err != nil {
		return nil, err
	}

	return reg.Forward(name, u, theta, parents)
}

func checkTargets(reg *scm.Registry, do scm.Values) error {
	for name, v := range do {
		node, err := reg.Graph.Node(name)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrUnknownIntervention, name)
		}
		if err := matrix.ValidateCols(v, node.Dim); err != nil {
			return fmt.Errorf("inference: do(%s): %w: %w", name, scm.ErrShapeMismatch, err)
		}
	}

	return nil
}
