// SPDX-License-Identifier: MIT

package matrix_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimimvp/CausalProb/matrix"
)

func TestMatMul(t *testing.T) {
	a := mustRows(t, [][]float64{{1, 2, 3}, {4, 5, 6}})
	b := mustRows(t, [][]float64{{1, 0}, {0, 1}, {1, 1}})

	got, err := matrix.MatMul(a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{4, 5}, {10, 11}}, got.ToRows())

	_, err = matrix.MatMul(a, a)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestLogAbsDet(t *testing.T) {
	cases := []struct {
		name string
		rows [][]float64
		want float64
	}{
		{"identity", [][]float64{{1, 0}, {0, 1}}, 0},
		{"diag", [][]float64{{2, 0}, {0, 3}}, math.Log(6)},
		{"needs pivot", [][]float64{{0, 2}, {3, 1}}, math.Log(6)},
		{"negative det", [][]float64{{1, 2}, {3, 4}}, math.Log(2)},
		{"3x3", [][]float64{{2, -1, 0}, {-1, 2, -1}, {0, -1, 2}}, math.Log(4)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := matrix.LogAbsDet(mustRows(t, tc.rows))
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}
}

func TestLogAbsDet_Errors(t *testing.T) {
	_, err := matrix.LogAbsDet(mustRows(t, [][]float64{{1, 2}, {2, 4}}))
	require.ErrorIs(t, err, matrix.ErrSingular)

	_, err = matrix.LogAbsDet(mustRows(t, [][]float64{{1, 2}}))
	require.ErrorIs(t, err, matrix.ErrNonSquare)
}
