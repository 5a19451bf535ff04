// SPDX-License-Identifier: MIT
// Package matrix: element-wise kernels with single-row broadcasting.
//
// Broadcast rule (the only one supported):
//   - Operands must have the same number of columns.
//   - Row counts must be equal, or one of them must be 1; a single row is
//     replicated against every row of the other operand.
//
// This is what lets one fixed parent value drive a whole batch of noise
// draws (and vice versa) without materializing copies first.
//
// AI-Hints:
//   - Use BroadcastRows when an explicit replicated copy is needed (e.g. before
//     ConcatCols); binary kernels broadcast implicitly.

package matrix

import "math"

// binaryBroadcast applies op to a and b under the broadcast rule.
// Fixed i→j loop order; a single allocation for the result.
func binaryBroadcast(tag string, a, b *Dense, op func(x, y float64) float64) (*Dense, error) {
	rows, err := ValidateBroadcast(a, b)
	if err != nil {
		return nil, matrixErrorf(tag, err)
	}
	cols := a.c
	res := &Dense{r: rows, c: cols, data: make([]float64, rows*cols)}

	var i, j, ai, bi int
	for i = 0; i < rows; i++ {
		ai, bi = i, i
		if a.r == 1 {
			ai = 0
		}
		if b.r == 1 {
			bi = 0
		}
		for j = 0; j < cols; j++ {
			res.data[i*cols+j] = op(a.data[ai*cols+j], b.data[bi*cols+j])
		}
	}

	return res, nil
}

// Add returns a + b (broadcast over rows).
// Complexity: O(r*c).
func Add(a, b *Dense) (*Dense, error) {
	return binaryBroadcast(opAdd, a, b, func(x, y float64) float64 { return x + y })
}

// Sub returns a − b (broadcast over rows).
// Complexity: O(r*c).
func Sub(a, b *Dense) (*Dense, error) {
	return binaryBroadcast(opSub, a, b, func(x, y float64) float64 { return x - y })
}

// Hadamard returns the element-wise product a ⊙ b (broadcast over rows).
// Complexity: O(r*c).
func Hadamard(a, b *Dense) (*Dense, error) {
	return binaryBroadcast(opHadamard, a, b, func(x, y float64) float64 { return x * y })
}

// Apply returns a new matrix with f applied to every element.
// Complexity: O(r*c).
func Apply(m *Dense, f func(v float64) float64) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opApply, err)
	}
	res := &Dense{r: m.r, c: m.c, data: make([]float64, len(m.data))}
	for idx, v := range m.data {
		res.data[idx] = f(v)
	}

	return res, nil
}

// Scale returns alpha·m.
func Scale(m *Dense, alpha float64) (*Dense, error) {
	res, err := Apply(m, func(v float64) float64 { return alpha * v })
	if err != nil {
		return nil, matrixErrorf(opScale, err)
	}

	return res, nil
}

// Exp returns exp(m) element-wise.
func Exp(m *Dense) (*Dense, error) {
	res, err := Apply(m, math.Exp)
	if err != nil {
		return nil, matrixErrorf(opExp, err)
	}

	return res, nil
}

// RowSums returns s where s[i] = Σ_j m[i,j].
// Complexity: O(r*c).
func RowSums(m *Dense) ([]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opRowSums, err)
	}
	out := make([]float64, m.r)
	var i, j int
	for i = 0; i < m.r; i++ {
		acc := 0.0
		for j = 0; j < m.c; j++ {
			acc += m.data[i*m.c+j]
		}
		out[i] = acc
	}

	return out, nil
}

// AddVecs returns a + b for per-row vectors under the same broadcast rule
// (a length-1 vector is replicated).
func AddVecs(a, b []float64) ([]float64, error) {
	n, ok := BroadcastRowCount(len(a), len(b))
	if !ok || n == 0 {
		return nil, matrixErrorf(opAdd, ErrDimensionMismatch)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		ai, bi := i, i
		if len(a) == 1 {
			ai = 0
		}
		if len(b) == 1 {
			bi = 0
		}
		out[i] = a[ai] + b[bi]
	}

	return out, nil
}

// MaxAbsDiff returns max |a[i,j] − b[i,j]| over identically shaped operands.
func MaxAbsDiff(a, b *Dense) (float64, error) {
	if err := ValidateSameShape(a, b); err != nil {
		return 0, matrixErrorf(opMaxAbsDiff, err)
	}
	worst := 0.0
	for idx := range a.data {
		if d := math.Abs(a.data[idx] - b.data[idx]); d > worst || math.IsNaN(d) {
			worst = d
		}
	}

	return worst, nil
}

// AllClose reports whether |a−b| ≤ atol + rtol·|b| element-wise.
// NaN never compares close. Shapes must match exactly.
//
// AI-Hints:
//   - AllClose with small atol/rtol is the intended tool for invertibility tests.
func AllClose(a, b *Dense, rtol, atol float64) (bool, error) {
	if err := ValidateSameShape(a, b); err != nil {
		return false, matrixErrorf(opAllClose, err)
	}
	rtol, atol = math.Abs(rtol), math.Abs(atol)
	for idx := range a.data {
		x, y := a.data[idx], b.data[idx]
		if math.IsNaN(x) || math.IsNaN(y) {
			return false, nil
		}
		if math.Abs(x-y) > atol+rtol*math.Abs(y) {
			return false, nil
		}
	}

	return true, nil
}
