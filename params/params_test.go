package params_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimimvp/CausalProb/matrix"
	"github.com/jimimvp/CausalProb/params"
)

func dense(t *testing.T, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewFromRows(rows)
	require.NoError(t, err)

	return m
}

func TestSet_GetAndKeys(t *testing.T) {
	s := params.Set{
		"V1->X": params.Blob{dense(t, [][]float64{{1}})},
		"V1":    params.Blob{dense(t, [][]float64{{2, 3}})},
	}

	b, err := s.Get("V1")
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, []string{"V1", "V1->X"}, s.Keys())

	_, err = s.Get("nope")
	require.ErrorIs(t, err, params.ErrUnknownGroup)
}

func TestSet_CloneIsDeep(t *testing.T) {
	s := params.Set{"V1": params.Blob{dense(t, [][]float64{{1, 2}})}}
	c := s.Clone()
	require.NoError(t, c["V1"][0].Set(0, 0, 42))

	v, err := s["V1"][0].At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestBlob_Expect(t *testing.T) {
	b := params.Blob{dense(t, [][]float64{{1}}), nil}
	require.ErrorIs(t, b.Expect(3), params.ErrBadLayout)
	require.ErrorIs(t, b.Expect(2), params.ErrBadLayout)
	require.NoError(t, b[:1].Expect(1))
}
