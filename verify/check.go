package verify

import (
	"fmt"

	"github.com/jimimvp/CausalProb/inference"
	"github.com/jimimvp/CausalProb/params"
	"github.com/jimimvp/CausalProb/scm"
)

// Default tolerances used by Check.
const (
	DefaultInverseTol = 1e-8
	DefaultLogDetTol  = 1e-5
	DefaultEps        = 1e-6
)

// NodeResult is the outcome of Check for one node.
type NodeResult struct {
	Node       string  `json:"node"`
	InverseErr float64 `json:"inverse_err"`
	LogDetErr  float64 `json:"logdet_err"`
	InverseOK  bool    `json:"inverse_ok"`
	LogDetOK   bool    `json:"logdet_ok"`
}

// Report collects per-node results in topological order.
type Report struct {
	Size    int          `json:"size"`
	Seed    int64        `json:"seed"`
	Results []NodeResult `json:"results"`
}

// OK reports whether every node passed both checks.
func (r Report) OK() bool {
	for _, n := range r.Results {
		if !n.InverseOK || !n.LogDetOK {
			return false
		}
	}

	return true
}

// Check draws size ancestral samples and, for every node, measures the
// round-trip error of finv∘f and the deviation of ldij from a
// finite-difference Jacobian.
func Check(reg *scm.Registry, theta params.Set, size int, seed int64) (Report, error) {
	tr, err := inference.Sample(reg, theta, size, seed)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Size: size, Seed: seed, Results: make([]NodeResult, 0, len(tr.V))}
	for _, name := range reg.Order() {
		parents, err := reg.Parents(name, tr.V)
		if err != nil {
			return Report{}, err
		}
		inv, err := Invertibility(reg, theta, name, tr.U[name], parents)
		if err != nil {
			return Report{}, fmt.Errorf("verify: %s: %w", name, err)
		}
		ld, err := LogDetError(reg, theta, name, tr.V[name], parents, DefaultEps)
		if err != nil {
			return Report{}, fmt.Errorf("verify: %s: %w", name, err)
		}
		rep.Results = append(rep.Results, NodeResult{
			Node:       name,
			InverseErr: inv,
			LogDetErr:  ld,
			InverseOK:  inv <= DefaultInverseTol,
			LogDetOK:   ld <= DefaultLogDetTol,
		})
	}

	return rep, nil
}
