// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Column statistics of a batch: per-column means, centering and the
//     sample covariance. Rows are observations, columns are components.
//
// Exposed API:
//   - ColumnMeans(X)   -> means            // Σ_i X[i,j] / r
//   - CenterColumns(X) -> (Xc, means)      // subtract per-column mean
//   - Covariance(X)    -> (Cov, means)     // (Xcᵀ Xc)/(r-1)
//
// Determinism & Performance:
//   - Fixed i→j traversal over the flat row-major buffer.

package matrix

const (
	opColumnMeans   = "ColumnMeans"
	opCenterColumns = "CenterColumns"
	opCovariance    = "Covariance"
)

// ColumnMeans returns the mean of every column.
//
// Errors:
//   - ErrNilMatrix.
//
// Complexity:
//   - Time O(r*c), Space O(c).
func ColumnMeans(X *Dense) ([]float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, matrixErrorf(opColumnMeans, err)
	}
	means := make([]float64, X.c)
	var i, j int
	for i = 0; i < X.r; i++ {
		row := X.data[i*X.c : (i+1)*X.c]
		for j = 0; j < X.c; j++ {
			means[j] += row[j]
		}
	}
	inv := 1.0 / float64(X.r)
	for j = range means {
		means[j] *= inv
	}

	return means, nil
}

// CenterColumns subtracts the per-column mean from every element and
// returns the centered copy with the means.
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func CenterColumns(X *Dense) (*Dense, []float64, error) {
	means, err := ColumnMeans(X)
	if err != nil {
		return nil, nil, matrixErrorf(opCenterColumns, err)
	}
	out := X.Clone()
	var i, j int
	for i = 0; i < out.r; i++ {
		row := out.data[i*out.c : (i+1)*out.c]
		for j = 0; j < out.c; j++ {
			row[j] -= means[j]
		}
	}

	return out, means, nil
}

// Covariance returns the sample covariance of the columns of X,
// (Xcᵀ Xc)/(r-1), and the column means used for centering.
//
// Errors:
//   - ErrNilMatrix; ErrDimensionMismatch when r < 2.
//
// Determinism:
//   - Fixed k→i→j accumulation of outer products, symmetric fill.
//
// Complexity:
//   - Time O(r*c²), Space O(c²).
func Covariance(X *Dense) (*Dense, []float64, error) {
	if err := ValidateNotNil(X); err != nil {
		return nil, nil, matrixErrorf(opCovariance, err)
	}
	if X.r < 2 {
		return nil, nil, matrixErrorf(opCovariance, ErrDimensionMismatch)
	}
	Xc, means, err := CenterColumns(X)
	if err != nil {
		return nil, nil, matrixErrorf(opCovariance, err)
	}
	c := X.c
	cov := &Dense{r: c, c: c, data: make([]float64, c*c)}
	var k, i, j int
	for k = 0; k < Xc.r; k++ {
		row := Xc.data[k*c : (k+1)*c]
		for i = 0; i < c; i++ {
			for j = i; j < c; j++ {
				cov.data[i*c+j] += row[i] * row[j]
			}
		}
	}
	inv := 1.0 / float64(X.r-1)
	for i = 0; i < c; i++ {
		for j = i; j < c; j++ {
			v := cov.data[i*c+j] * inv
			cov.data[i*c+j] = v
			cov.data[j*c+i] = v
		}
	}

	return cov, means, nil
}
