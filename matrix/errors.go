// SPDX-License-Identifier: MIT
// Package matrix: sentinel error set.
// All kernels return these sentinels (optionally wrapped with an operation
// tag) and tests check them via errors.Is. No kernel panics on
// user-triggered error conditions.

package matrix

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimensions is returned when a requested shape has r<=0 or c<=0.
	ErrInvalidDimensions = errors.New("matrix: dimensions must be > 0")

	// ErrOutOfRange indicates that a row or column index is outside valid bounds.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch indicates incompatible operand shapes, e.g. rows
	// that cannot be broadcast or a MatMul with a.Cols != b.Rows.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNonSquare signals that a square matrix was required.
	ErrNonSquare = errors.New("matrix: matrix is not square")

	// ErrNilMatrix indicates that a nil *Dense was used as an operand.
	ErrNilMatrix = errors.New("matrix: nil matrix")

	// ErrNaNInf signals a NaN or ±Inf value where finite values are required.
	ErrNaNInf = errors.New("matrix: NaN or Inf encountered")

	// ErrSingular is returned by LogAbsDet when a zero pivot is met.
	ErrSingular = errors.New("matrix: singular matrix")
)

// Operation tags for uniform error wrapping.
const (
	opAdd        = "Add"
	opSub        = "Sub"
	opHadamard   = "Hadamard"
	opScale      = "Scale"
	opExp        = "Exp"
	opApply      = "Apply"
	opMatMul     = "MatMul"
	opRowSums    = "RowSums"
	opConcat     = "ConcatCols"
	opSplit      = "SplitCols"
	opBroadcast  = "BroadcastRows"
	opRow        = "Row"
	opLogAbsDet  = "LogAbsDet"
	opAllClose   = "AllClose"
	opFromRows   = "NewFromRows"
	opFromSlice  = "NewFromSlice"
	opUnmarshal  = "UnmarshalJSON"
	opMaxAbsDiff = "MaxAbsDiff"
)

// matrixErrorf wraps err with an operation tag, preserving the sentinel via %w.
// Call only with a non-nil err.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// denseErrorf wraps an error with Dense method context and coordinates.
func denseErrorf(method string, row, col int, err error) error {
	return fmt.Errorf("Dense.%s(%d,%d): %w", method, row, col, err)
}
