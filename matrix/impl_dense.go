// SPDX-License-Identifier: MIT

// Package matrix - Dense storage (row-major) & safe accessors.
//
// Purpose:
//   - Provide a cache-friendly row-major buffer with the index formula i*cols + j.
//   - Guarantee safety at the public surface: At/Set return errors instead of panicking.
//   - Keep determinism (fixed loop orders, no map iteration).
//
// Complexity quicksheet:
//   - NewDense: O(r*c) zero-init; At/Set: O(1); Clone: O(r*c); Row: O(c).

package matrix

import (
	"fmt"
	"math"
	"strings"
)

const (
	ctxAt  = "At"
	ctxSet = "Set"
)

const (
	_fmtRowOpen  = "["
	_fmtRowClose = "]\n"
	_fmtSep      = ", "
)

// Dense is a concrete row-major matrix.
//   - r,c hold dimensions (rows = batch size, cols = variable dimension).
//   - data is a flat buffer of length r*c in row-major order (offset = i*c + j).
type Dense struct {
	r, c int       // row and column counts (>0)
	data []float64 // contiguous row-major storage (len == r*c)
}

var _ fmt.Stringer = (*Dense)(nil)

// NewDense creates an r×c zero matrix.
//
// Errors:
//   - ErrInvalidDimensions if rows<=0 or cols<=0.
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	// make() zero-fills deterministically.
	return &Dense{r: rows, c: cols, data: make([]float64, rows*cols)}, nil
}

// NewFromRows copies a rectangular [][]float64 into a new Dense.
// Every row must have the same non-zero length.
//
// Errors:
//   - ErrInvalidDimensions on empty input, ErrDimensionMismatch on ragged rows.
//
// Complexity:
//   - Time O(r*c), Space O(r*c).
func NewFromRows(rows [][]float64) (*Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, matrixErrorf(opFromRows, ErrInvalidDimensions)
	}
	cols := len(rows[0])
	m := &Dense{r: len(rows), c: cols, data: make([]float64, len(rows)*cols)}
	for i, row := range rows {
		if len(row) != cols {
			return nil, matrixErrorf(opFromRows, ErrDimensionMismatch)
		}
		copy(m.data[i*cols:(i+1)*cols], row)
	}

	return m, nil
}

// NewFromSlice wraps a copy of data (row-major, len == rows*cols) as a Dense.
//
// Errors:
//   - ErrInvalidDimensions if rows<=0 or cols<=0.
//   - ErrDimensionMismatch if len(data) != rows*cols.
func NewFromSlice(rows, cols int, data []float64) (*Dense, error) {
	m, err := NewDense(rows, cols)
	if err != nil {
		return nil, matrixErrorf(opFromSlice, err)
	}
	if len(data) != rows*cols {
		return nil, matrixErrorf(opFromSlice, ErrDimensionMismatch)
	}
	copy(m.data, data)

	return m, nil
}

// Rows returns the number of rows (batch size).
func (m *Dense) Rows() int { return m.r }

// Cols returns the number of columns (variable dimension).
func (m *Dense) Cols() int { return m.c }

// Shape returns (rows, cols).
func (m *Dense) Shape() (rows, cols int) { return m.r, m.c }

// indexOf computes the flat offset for (row, col) or returns ErrOutOfRange.
func (m *Dense) indexOf(method string, row, col int) (int, error) {
	if row < 0 || row >= m.r || col < 0 || col >= m.c {
		return 0, denseErrorf(method, row, col, ErrOutOfRange)
	}

	return row*m.c + col, nil
}

// At retrieves the element at (row, col).
// Complexity: O(1).
func (m *Dense) At(row, col int) (float64, error) {
	idx, err := m.indexOf(ctxAt, row, col)
	if err != nil {
		return 0, err
	}

	return m.data[idx], nil
}

// Set assigns v at (row, col). NaN and ±Inf are rejected with ErrNaNInf.
// Complexity: O(1).
func (m *Dense) Set(row, col int, v float64) error {
	idx, err := m.indexOf(ctxSet, row, col)
	if err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return denseErrorf(ctxSet, row, col, ErrNaNInf)
	}
	m.data[idx] = v

	return nil
}

// Row returns a copy of row i as a 1×c matrix.
//
// Errors:
//   - ErrOutOfRange when i is outside [0, Rows()).
func (m *Dense) Row(i int) (*Dense, error) {
	if i < 0 || i >= m.r {
		return nil, matrixErrorf(opRow, ErrOutOfRange)
	}
	out := &Dense{r: 1, c: m.c, data: make([]float64, m.c)}
	copy(out.data, m.data[i*m.c:(i+1)*m.c])

	return out, nil
}

// RawRow returns a copy of row i as a plain slice; nil when i is out of range.
func (m *Dense) RawRow(i int) []float64 {
	if i < 0 || i >= m.r {
		return nil
	}
	out := make([]float64, m.c)
	copy(out, m.data[i*m.c:(i+1)*m.c])

	return out
}

// ToRows returns a deep copy of the contents as [][]float64.
func (m *Dense) ToRows() [][]float64 {
	out := make([][]float64, m.r)
	for i := 0; i < m.r; i++ {
		out[i] = m.RawRow(i)
	}

	return out
}

// Clone returns a deep copy of m.
// Complexity: O(r*c).
func (m *Dense) Clone() *Dense {
	buf := make([]float64, len(m.data))
	copy(buf, m.data)

	return &Dense{r: m.r, c: m.c, data: buf}
}

// String renders one bracketed line per row; intended for debugging.
func (m *Dense) String() string {
	var b strings.Builder
	for i := 0; i < m.r; i++ {
		b.WriteString(_fmtRowOpen)
		for j := 0; j < m.c; j++ {
			fmt.Fprintf(&b, "%g", m.data[i*m.c+j])
			if j < m.c-1 {
				b.WriteString(_fmtSep)
			}
		}
		b.WriteString(_fmtRowClose)
	}

	return b.String()
}
