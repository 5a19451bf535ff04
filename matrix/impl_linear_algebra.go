// SPDX-License-Identifier: MIT
// Package matrix: linear-algebra kernels.
//
// Purpose:
//   - MatMul: batch × weights product used by every dense layer.
//   - LogAbsDet: log|det A| via LU with partial pivoting, used to check
//     analytic log-det-Jacobians against finite differences.
//
// Notes:
//   - All kernels validate through validators.go and wrap with matrixErrorf.

package matrix

import "math"

// ZeroPivot is the sentinel for detecting a zero pivot in LogAbsDet.
const ZeroPivot = 0.0

// MatMul returns the product a × b.
//
// Implementation:
//   - Stage 1: ValidateMulCompatible(a, b).
//   - Stage 2: row-major i→k→j loop into a fresh buffer, skipping zero a[i,k].
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (inner mismatch).
//
// Complexity:
//   - Time O(r*n*c), Space O(r*c).
func MatMul(a, b *Dense) (*Dense, error) {
	if err := ValidateMulCompatible(a, b); err != nil {
		return nil, matrixErrorf(opMatMul, err)
	}
	aRows, aCols, bCols := a.r, a.c, b.c
	res := &Dense{r: aRows, c: bCols, data: make([]float64, aRows*bCols)}

	var (
		i, j, k                            int
		av                                 float64
		rowOffsetA, rowOffsetB, rowOffsetR int
	)
	for i = 0; i < aRows; i++ {
		rowOffsetA = i * aCols
		rowOffsetR = i * bCols
		for k = 0; k < aCols; k++ {
			av = a.data[rowOffsetA+k]
			if av == 0 {
				continue // skip zero for performance
			}
			rowOffsetB = k * bCols
			for j = 0; j < bCols; j++ {
				res.data[rowOffsetR+j] += av * b.data[rowOffsetB+j]
			}
		}
	}

	return res, nil
}

// LogAbsDet returns log|det m| for a square matrix.
//
// Implementation:
//   - Stage 1: ValidateSquare(m); work on a private copy.
//   - Stage 2: Doolittle elimination with partial pivoting (largest |a[r,k]|).
//   - Stage 3: accumulate Σ log|u_kk|.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrSingular on an exactly zero pivot.
//
// Complexity:
//   - Time O(n^3), Space O(n^2).
func LogAbsDet(m *Dense) (float64, error) {
	if err := ValidateSquare(m); err != nil {
		return 0, matrixErrorf(opLogAbsDet, err)
	}
	n := m.r
	a := make([]float64, len(m.data))
	copy(a, m.data)

	logDet := 0.0
	var i, j, k, p int
	for k = 0; k < n; k++ {
		// pivot search in column k
		p = k
		for i = k + 1; i < n; i++ {
			if math.Abs(a[i*n+k]) > math.Abs(a[p*n+k]) {
				p = i
			}
		}
		if a[p*n+k] == ZeroPivot {
			return 0, matrixErrorf(opLogAbsDet, ErrSingular)
		}
		if p != k {
			for j = 0; j < n; j++ {
				a[k*n+j], a[p*n+j] = a[p*n+j], a[k*n+j]
			}
		}
		pivot := a[k*n+k]
		logDet += math.Log(math.Abs(pivot))
		for i = k + 1; i < n; i++ {
			f := a[i*n+k] / pivot
			if f == 0 {
				continue
			}
			for j = k; j < n; j++ {
				a[i*n+j] -= f * a[k*n+j]
			}
		}
	}

	return logDet, nil
}
