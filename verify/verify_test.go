package verify_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimimvp/CausalProb/dag"
	"github.com/jimimvp/CausalProb/inference"
	"github.com/jimimvp/CausalProb/matrix"
	"github.com/jimimvp/CausalProb/scm"
	"github.com/jimimvp/CausalProb/verify"
)

func TestJacobianLogDet_Linear(t *testing.T) {
	// fn(v) = v·A row-wise, so ∂fn/∂v = Aᵀ and log|det| = log 6.
	a, err := matrix.NewFromRows([][]float64{{2, 1}, {0, 3}})
	require.NoError(t, err)
	v, err := matrix.NewFromRows([][]float64{{0.5, 1}, {-2, 4}})
	require.NoError(t, err)

	got, err := verify.JacobianLogDet(func(x *matrix.Dense) (*matrix.Dense, error) {
		return matrix.MatMul(x, a)
	}, v, 1e-4)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{math.Log(6), math.Log(6)}, got, 1e-9)

	_, err = verify.JacobianLogDet(nil, v, 0)
	assert.ErrorIs(t, err, verify.ErrInvalidEps)
}

func TestInvertibilityAndLogDet_AllNodes(t *testing.T) {
	for _, seed := range []int64{0, 1, 2} {
		reg, err := scm.BuildDefault(2, scm.WithInitStd(0.3, 0.1))
		require.NoError(t, err)
		theta, err := reg.InitAll(seed)
		require.NoError(t, err)
		tr, err := inference.Sample(reg, theta, 20, seed)
		require.NoError(t, err)

		for _, name := range reg.Order() {
			parents, err := reg.Parents(name, tr.V)
			require.NoError(t, err)

			inv, err := verify.Invertibility(reg, theta, name, tr.U[name], parents)
			require.NoError(t, err)
			assert.Less(t, inv, 1e-8, "seed %d node %s", seed, name)

			ld, err := verify.LogDetError(reg, theta, name, tr.V[name], parents, 1e-6)
			require.NoError(t, err)
			assert.Less(t, ld, 1e-5, "seed %d node %s", seed, name)
		}
	}
}

// TestDensityIntegral1D_Normalised is the change-of-variables check: the
// density implied by lpu + ldij integrates to one for every node.
func TestDensityIntegral1D_Normalised(t *testing.T) {
	reg, err := scm.BuildDefault(1, scm.WithInitStd(0.3, 0.1))
	require.NoError(t, err)
	theta, err := reg.InitAll(0)
	require.NoError(t, err)
	tr, err := inference.Sample(reg, theta, 1, 4)
	require.NoError(t, err)

	for _, name := range reg.Order() {
		parents, err := reg.Parents(name, tr.V)
		require.NoError(t, err)
		mass, err := verify.DensityIntegral1D(reg, theta, name, parents, -30, 30, 20001)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, mass, 1e-3, "node %s", name)
	}
}

func TestDensityIntegral1D_Errors(t *testing.T) {
	reg, err := scm.BuildDefault(2)
	require.NoError(t, err)
	theta, err := reg.InitAll(0)
	require.NoError(t, err)

	_, err = verify.DensityIntegral1D(reg, theta, dag.Confounder, nil, -1, 1, 100)
	assert.ErrorIs(t, err, verify.ErrNotScalar)
	_, err = verify.DensityIntegral1D(reg, theta, dag.Confounder, nil, 1, -1, 100)
	assert.ErrorIs(t, err, verify.ErrInvalidGrid)
	_, err = verify.DensityIntegral1D(reg, theta, "Z", nil, -1, 1, 100)
	assert.ErrorIs(t, err, scm.ErrUnknownNode)
}

func TestCheck_Report(t *testing.T) {
	reg, err := scm.BuildDefault(2)
	require.NoError(t, err)
	theta, err := reg.InitAll(0)
	require.NoError(t, err)

	rep, err := verify.Check(reg, theta, 16, 0)
	require.NoError(t, err)
	require.Len(t, rep.Results, 3)
	assert.Equal(t, "V1", rep.Results[0].Node)
	assert.True(t, rep.OK(), "%+v", rep)

	rep.Results[1].LogDetOK = false
	assert.False(t, rep.OK())
}
