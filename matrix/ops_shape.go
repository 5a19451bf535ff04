// SPDX-License-Identifier: MIT
// Package matrix: shape kernels (concatenation, splitting, row broadcasting).

package matrix

// ConcatCols joins matrices left to right along the column axis.
// All operands must have the same row count; use BroadcastRows first when a
// single-row operand has to be aligned with a batch.
//
// Errors:
//   - ErrNilMatrix on a nil operand, ErrDimensionMismatch on differing rows,
//     ErrInvalidDimensions when called with no operands.
//
// Complexity:
//   - Time O(r*Σc), Space O(r*Σc).
func ConcatCols(ms ...*Dense) (*Dense, error) {
	if len(ms) == 0 {
		return nil, matrixErrorf(opConcat, ErrInvalidDimensions)
	}
	rows, cols := -1, 0
	for _, m := range ms {
		if err := ValidateNotNil(m); err != nil {
			return nil, matrixErrorf(opConcat, err)
		}
		if rows >= 0 && m.r != rows {
			return nil, matrixErrorf(opConcat, ErrDimensionMismatch)
		}
		rows = m.r
		cols += m.c
	}

	res := &Dense{r: rows, c: cols, data: make([]float64, rows*cols)}
	offset := 0
	for _, m := range ms {
		for i := 0; i < rows; i++ {
			copy(res.data[i*cols+offset:i*cols+offset+m.c], m.data[i*m.c:(i+1)*m.c])
		}
		offset += m.c
	}

	return res, nil
}

// SplitCols cuts m into m[:, :at] and m[:, at:].
// Both halves must be non-empty.
//
// Complexity: O(r*c).
func SplitCols(m *Dense, at int) (left, right *Dense, err error) {
	if err = ValidateNotNil(m); err != nil {
		return nil, nil, matrixErrorf(opSplit, err)
	}
	if at <= 0 || at >= m.c {
		return nil, nil, matrixErrorf(opSplit, ErrOutOfRange)
	}
	lc, rc := at, m.c-at
	left = &Dense{r: m.r, c: lc, data: make([]float64, m.r*lc)}
	right = &Dense{r: m.r, c: rc, data: make([]float64, m.r*rc)}
	for i := 0; i < m.r; i++ {
		copy(left.data[i*lc:(i+1)*lc], m.data[i*m.c:i*m.c+lc])
		copy(right.data[i*rc:(i+1)*rc], m.data[i*m.c+lc:(i+1)*m.c])
	}

	return left, right, nil
}

// SplitHalf splits m into two equal column halves. Cols must be even.
func SplitHalf(m *Dense) (left, right *Dense, err error) {
	if err = ValidateNotNil(m); err != nil {
		return nil, nil, matrixErrorf(opSplit, err)
	}
	if m.c%2 != 0 {
		return nil, nil, matrixErrorf(opSplit, ErrDimensionMismatch)
	}

	return SplitCols(m, m.c/2)
}

// BroadcastRows returns an n-row copy of m. A single-row m is replicated
// n times; an m that already has n rows is copied unchanged.
//
// Errors:
//   - ErrDimensionMismatch if m has neither 1 nor n rows.
//   - ErrInvalidDimensions if n <= 0.
//
// Complexity: O(n*c).
func BroadcastRows(m *Dense, n int) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opBroadcast, err)
	}
	if n <= 0 {
		return nil, matrixErrorf(opBroadcast, ErrInvalidDimensions)
	}
	if m.r == n {
		return m.Clone(), nil
	}
	if m.r != 1 {
		return nil, matrixErrorf(opBroadcast, ErrDimensionMismatch)
	}
	res := &Dense{r: n, c: m.c, data: make([]float64, n*m.c)}
	for i := 0; i < n; i++ {
		copy(res.data[i*m.c:(i+1)*m.c], m.data)
	}

	return res, nil
}
