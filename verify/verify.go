// SPDX-License-Identifier: MIT
// Package verify holds numeric checks of the structural-equation contract:
// exact invertibility, agreement of the reported inverse log-det with a
// finite-difference Jacobian, and normalisation of the implied density.
//
// Contract:
//   • Checks never mutate the registry or θ.
//   • Results are returned as errors (max abs deviation) and a verdict is
//     left to the caller, except Check which applies tolerances.
//
// AI-Hints:
//   • JacobianLogDet perturbs a whole batch column at once; this is exact
//     only because every structural map acts row-wise.

package verify

import (
	"errors"
	"fmt"
	"math"

	"github.com/jimimvp/CausalProb/matrix"
	"github.com/jimimvp/CausalProb/params"
	"github.com/jimimvp/CausalProb/scm"
)

var (
	// ErrInvalidGrid indicates a quadrature grid with hi <= lo or n < 2.
	ErrInvalidGrid = errors.New("verify: invalid quadrature grid")

	// ErrNotScalar indicates DensityIntegral1D on a node with dim != 1.
	ErrNotScalar = errors.New("verify: node is not one-dimensional")

	// ErrInvalidEps indicates a non-positive finite-difference step.
	ErrInvalidEps = errors.New("verify: eps must be > 0")
)

// RowMap is a batched map that acts independently on each row.
type RowMap func(v *matrix.Dense) (*matrix.Dense, error)

// Invertibility returns max |finv(f(u)) − u| over every entry.
func Invertibility(reg *scm.Registry, theta params.Set, node string, u *matrix.Dense, parents scm.Values) (float64, error) {
	v, err := reg.Forward(node, u, theta, parents)
	if err != nil {
		return 0, err
	}
	back, err := reg.Inverse(node, v, theta, parents)
	if err != nil {
		return 0, err
	}
	if u.Rows() == 1 && back.Rows() > 1 {
		if u, err = matrix.BroadcastRows(u, back.Rows()); err != nil {
			return 0, err
		}
	}

	return matrix.MaxAbsDiff(u, back)
}

// JacobianLogDet returns log|det ∂fn/∂v| per row of v by central
// differences with step eps.
//
// Complexity:
//   - Time O(d · cost(fn) + rows · d³), Space O(rows · d²).
func JacobianLogDet(fn RowMap, v *matrix.Dense, eps float64) ([]float64, error) {
	if eps <= 0 {
		return nil, ErrInvalidEps
	}
	if err := matrix.ValidateNotNil(v); err != nil {
		return nil, err
	}
	rows, d := v.Shape()
	jacs := make([]*matrix.Dense, rows)
	for i := range jacs {
		m, err := matrix.NewDense(d, d)
		if err != nil {
			return nil, err
		}
		jacs[i] = m
	}

	for j := 0; j < d; j++ {
		plus, minus := v.Clone(), v.Clone()
		for i := 0; i < rows; i++ {
			x, _ := v.At(i, j) // in range by construction
			if err := plus.Set(i, j, x+eps); err != nil {
				return nil, err
			}
			if err := minus.Set(i, j, x-eps); err != nil {
				return nil, err
			}
		}
		up, err := fn(plus)
		if err != nil {
			return nil, err
		}
		down, err := fn(minus)
		if err != nil {
			return nil, err
		}
		if err := matrix.ValidateSameShape(up, v); err != nil {
			return nil, fmt.Errorf("verify: map output: %w", err)
		}
		for i := 0; i < rows; i++ {
			a, b := up.RawRow(i), down.RawRow(i)
			for k := 0; k < d; k++ {
				_ = jacs[i].Set(k, j, (a[k]-b[k])/(2*eps))
			}
		}
	}

	out := make([]float64, rows)
	for i, jac := range jacs {
		ld, err := matrix.LogAbsDet(jac)
		if err != nil {
			return nil, fmt.Errorf("verify: row %d: %w", i, err)
		}
		out[i] = ld
	}

	return out, nil
}

// LogDetError returns max |ldij(v) − log|det ∂finv/∂v|| over the rows of v.
func LogDetError(reg *scm.Registry, theta params.Set, node string, v *matrix.Dense, parents scm.Values, eps float64) (float64, error) {
	got, err := reg.LogDet(node, v, theta, parents)
	if err != nil {
		return 0, err
	}
	want, err := JacobianLogDet(func(x *matrix.Dense) (*matrix.Dense, error) {
		return reg.Inverse(node, x, theta, parents)
	}, v, eps)
	if err != nil {
		return 0, err
	}
	if len(got) != len(want) {
		return 0, fmt.Errorf("verify: %d log-dets for %d rows: %w", len(got), len(want), matrix.ErrDimensionMismatch)
	}
	worst := 0.0
	for i := range got {
		worst = math.Max(worst, math.Abs(got[i]-want[i]))
	}

	return worst, nil
}

// DensityIntegral1D integrates p(v) = exp(lpu(finv(v)) + ldij(v)) over
// [lo, hi] with the trapezoid rule on n points. parents must be single rows.
// For a wide enough interval the result is ≈ 1.
func DensityIntegral1D(reg *scm.Registry, theta params.Set, node string, parents scm.Values, lo, hi float64, n int) (float64, error) {
	if n < 2 || !(hi > lo) {
		return 0, ErrInvalidGrid
	}
	eq, err := reg.Equation(node)
	if err != nil {
		return 0, err
	}
	if eq.Node().Dim != 1 {
		return 0, fmt.Errorf("%w: %q has dim %d", ErrNotScalar, node, eq.Node().Dim)
	}

	step := (hi - lo) / float64(n-1)
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = lo + float64(i)*step
	}
	v, err := matrix.NewFromSlice(n, 1, grid)
	if err != nil {
		return 0, err
	}
	u, err := reg.Inverse(node, v, theta, parents)
	if err != nil {
		return 0, err
	}
	lp, err := reg.LogDensity(node, u, theta)
	if err != nil {
		return 0, err
	}
	ld, err := reg.LogDet(node, v, theta, parents)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for i := range grid {
		w := step
		if i == 0 || i == n-1 {
			w = step / 2
		}
		total += w * math.Exp(lp[i]+ld[i])
	}

	return total, nil
}
