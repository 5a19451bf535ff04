// SPDX-License-Identifier: MIT
// Package matrix: central validators.
// Every kernel runs its shape checks through these helpers so that the
// returned sentinels are identical across the package.

package matrix

import "fmt"

// validatorErrorf wraps an underlying error with the given validator tag.
func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateNotNil returns ErrNilMatrix if m == nil.
func ValidateNotNil(m *Dense) error {
	if m == nil {
		return validatorErrorf("ValidateNotNil", ErrNilMatrix)
	}

	return nil
}

// ValidateSameShape checks that a and b are non-nil with identical shapes.
func ValidateSameShape(a, b *Dense) error {
	if a == nil || b == nil {
		return validatorErrorf("ValidateSameShape", ErrNilMatrix)
	}
	if a.r != b.r {
		return validatorErrorf("ValidateSameShape: Rows", ErrDimensionMismatch)
	}
	if a.c != b.c {
		return validatorErrorf("ValidateSameShape: Columns", ErrDimensionMismatch)
	}

	return nil
}

// ValidateBroadcast checks that a and b share a column count and that their
// row counts are equal or one of them is 1. It returns the broadcast row count.
//
// Complexity: O(1).
func ValidateBroadcast(a, b *Dense) (int, error) {
	if a == nil || b == nil {
		return 0, validatorErrorf("ValidateBroadcast", ErrNilMatrix)
	}
	if a.c != b.c {
		return 0, validatorErrorf("ValidateBroadcast: Columns", ErrDimensionMismatch)
	}
	rows, ok := BroadcastRowCount(a.r, b.r)
	if !ok {
		return 0, validatorErrorf("ValidateBroadcast: Rows", ErrDimensionMismatch)
	}

	return rows, nil
}

// BroadcastRowCount returns the common row count of two batches under the
// single-row broadcast rule, and false if they cannot be broadcast.
func BroadcastRowCount(r1, r2 int) (int, bool) {
	switch {
	case r1 == r2:
		return r1, true
	case r1 == 1:
		return r2, true
	case r2 == 1:
		return r1, true
	default:
		return 0, false
	}
}

// ValidateMulCompatible checks a.Cols == b.Rows for MatMul.
func ValidateMulCompatible(a, b *Dense) error {
	if a == nil || b == nil {
		return validatorErrorf("ValidateMulCompatible", ErrNilMatrix)
	}
	if a.c != b.r {
		return validatorErrorf("ValidateMulCompatible", ErrDimensionMismatch)
	}

	return nil
}

// ValidateSquare checks that m is non-nil and square.
func ValidateSquare(m *Dense) error {
	if m == nil {
		return validatorErrorf("ValidateSquare", ErrNilMatrix)
	}
	if m.r != m.c {
		return validatorErrorf("ValidateSquare", ErrNonSquare)
	}

	return nil
}

// ValidateCols checks that m is non-nil and has exactly cols columns.
// Used at every module boundary where a declared variable dimension is known.
func ValidateCols(m *Dense, cols int) error {
	if m == nil {
		return validatorErrorf("ValidateCols", ErrNilMatrix)
	}
	if m.c != cols {
		return validatorErrorf("ValidateCols", fmt.Errorf("%w: have %d columns, want %d", ErrDimensionMismatch, m.c, cols))
	}

	return nil
}
