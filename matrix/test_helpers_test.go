// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers.
//
// Purpose:
//   • Provide small, deterministic fixtures for kernels.
//   • Keep all data finite and well-formed.

package matrix_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jimimvp/CausalProb/matrix"
)

// mustRows builds a Dense from literal rows or fails the test.
func mustRows(t *testing.T, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewFromRows(rows)
	require.NoError(t, err)

	return m
}

// mustAt reads (i,j) or fails the test.
func mustAt(t *testing.T, m *matrix.Dense, i, j int) float64 {
	t.Helper()
	v, err := m.At(i, j)
	require.NoError(t, err)

	return v
}
