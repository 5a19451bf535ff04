// Package matrix provides the dense numeric container used by every flow,
// conditioner and structural equation in this module.
//
// A *Dense is a row-major r×c buffer of float64. Throughout the module a
// matrix is read as a batch of row vectors: each row is one draw, each
// column one component of the variable. A single draw is a 1×dim matrix.
//
// The package provides:
//
//   - Safe accessors (At/Set return errors instead of panicking).
//   - Element-wise kernels (Add, Sub, Hadamard, Exp, ...) with a single
//     broadcast rule: an operand with one row is replicated to match the
//     other operand's row count.
//   - Shape kernels: ConcatCols, SplitCols, BroadcastRows, Row.
//   - Dense products (MatMul) for conditioner layers.
//   - LogAbsDet (LU with partial pivoting) for Jacobian checks.
//   - A JSON codec so parameter blobs can be persisted.
//
// Errors are package-level sentinels (ErrDimensionMismatch, ErrOutOfRange,
// ...) wrapped with an operation tag; match them with errors.Is.
package matrix
