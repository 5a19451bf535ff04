package inference_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimimvp/CausalProb/dag"
	"github.com/jimimvp/CausalProb/inference"
	"github.com/jimimvp/CausalProb/matrix"
	"github.com/jimimvp/CausalProb/params"
	"github.com/jimimvp/CausalProb/scm"
)

func setup(t *testing.T) (*scm.Registry, params.Set) {
	t.Helper()
	reg, err := scm.BuildDefault(2, scm.WithInitStd(0.3, 0.1))
	require.NoError(t, err)
	theta, err := reg.InitAll(0)
	require.NoError(t, err)

	return reg, theta
}

func assertClose(t *testing.T, want, got *matrix.Dense, tol float64, msg string) {
	t.Helper()
	d, err := matrix.MaxAbsDiff(want, got)
	require.NoError(t, err, msg)
	assert.Less(t, d, tol, msg)
}

func TestSample_ShapesAndDeterminism(t *testing.T) {
	reg, theta := setup(t)

	a, err := inference.Sample(reg, theta, 8, 3)
	require.NoError(t, err)
	b, err := inference.Sample(reg, theta, 8, 3)
	require.NoError(t, err)

	for _, name := range reg.Order() {
		r, c := a.V[name].Shape()
		assert.Equal(t, 8, r)
		assert.Equal(t, 2, c)
		assert.Equal(t, a.V[name].ToRows(), b.V[name].ToRows())
	}

	// node i draws with seed+i
	u, err := reg.Draw(dag.Mediator, 8, theta, 4)
	require.NoError(t, err)
	assert.Equal(t, u.ToRows(), a.U[dag.Mediator].ToRows())
}

func TestAbduct_RecoversSampledNoise(t *testing.T) {
	reg, theta := setup(t)
	tr, err := inference.Sample(reg, theta, 50, 1)
	require.NoError(t, err)

	us, err := inference.Abduct(reg, theta, tr.V)
	require.NoError(t, err)
	for _, name := range reg.Order() {
		assertClose(t, tr.U[name], us[name], 1e-9, name)
	}
}

func TestLogLikelihood_SumsNodeTerms(t *testing.T) {
	reg, theta := setup(t)
	tr, err := inference.Sample(reg, theta, 4, 9)
	require.NoError(t, err)

	got, err := inference.LogLikelihood(reg, theta, tr.V)
	require.NoError(t, err)
	require.Len(t, got, 4)

	want := make([]float64, 4)
	for _, name := range reg.Order() {
		parents, err := reg.Parents(name, tr.V)
		require.NoError(t, err)
		lp, err := reg.LPU[name](tr.U[name], theta)
		require.NoError(t, err)
		ld, err := reg.LDIJ[name](tr.V[name], theta, parents)
		require.NoError(t, err)
		for i := range want {
			want[i] += lp[i] + ld[i]
		}
	}
	assert.InDeltaSlice(t, want, got, 1e-9)
}

func TestIntervene_FixesTargetAndBroadcasts(t *testing.T) {
	reg, theta := setup(t)
	x, err := matrix.NewFromRows([][]float64{{1.5, -0.5}})
	require.NoError(t, err)

	tr, err := inference.Intervene(reg, theta, scm.Values{dag.Mediator: x}, 16, 2)
	require.NoError(t, err)
	assert.Same(t, x, tr.V[dag.Mediator])
	assert.NotContains(t, tr.U, dag.Mediator)
	assert.Equal(t, 16, tr.V[dag.Outcome].Rows())

	// Upstream of the target is untouched by the intervention.
	obs, err := inference.Sample(reg, theta, 16, 2)
	require.NoError(t, err)
	assert.Equal(t, obs.V[dag.Confounder].ToRows(), tr.V[dag.Confounder].ToRows())

	want, err := reg.Forward(dag.Outcome, tr.U[dag.Outcome], theta,
		scm.Values{dag.Confounder: tr.V[dag.Confounder], dag.Mediator: x})
	require.NoError(t, err)
	assertClose(t, want, tr.V[dag.Outcome], 1e-12, "Y")
}

func TestCounterfactual(t *testing.T) {
	reg, theta := setup(t)
	tr, err := inference.Sample(reg, theta, 5, 11)
	require.NoError(t, err)

	t.Run("empty do reproduces factual", func(t *testing.T) {
		cf, err := inference.Counterfactual(reg, theta, tr.V, nil)
		require.NoError(t, err)
		for _, name := range reg.Order() {
			assertClose(t, tr.V[name], cf[name], 1e-9, name)
		}
	})

	t.Run("do on mediator", func(t *testing.T) {
		x, err := matrix.NewFromRows([][]float64{{0, 0}})
		require.NoError(t, err)
		cf, err := inference.Counterfactual(reg, theta, tr.V, scm.Values{dag.Mediator: x})
		require.NoError(t, err)

		assertClose(t, tr.V[dag.Confounder], cf[dag.Confounder], 1e-9, "V1")
		want, err := reg.Forward(dag.Outcome, tr.U[dag.Outcome], theta,
			scm.Values{dag.Confounder: tr.V[dag.Confounder], dag.Mediator: x})
		require.NoError(t, err)
		assertClose(t, want, cf[dag.Outcome], 1e-9, "Y")
	})
}

func TestErrors(t *testing.T) {
	reg, theta := setup(t)
	tr, err := inference.Sample(reg, theta, 2, 0)
	require.NoError(t, err)
	partial := scm.Values{dag.Confounder: tr.V[dag.Confounder]}
	wide, err := matrix.NewFromRows([][]float64{{1, 2, 3}})
	require.NoError(t, err)

	_, err = inference.Sample(reg, theta, 0, 0)
	assert.ErrorIs(t, err, inference.ErrInvalidSize)
	_, err = inference.Abduct(reg, theta, partial)
	assert.ErrorIs(t, err, inference.ErrMissingValue)
	_, err = inference.LogLikelihood(reg, theta, partial)
	assert.ErrorIs(t, err, inference.ErrMissingValue)
	_, err = inference.Intervene(reg, theta, scm.Values{"Z": wide}, 2, 0)
	assert.ErrorIs(t, err, inference.ErrUnknownIntervention)
	_, err = inference.Counterfactual(reg, theta, tr.V, scm.Values{dag.Mediator: wide})
	assert.ErrorIs(t, err, scm.ErrShapeMismatch)
}

func ExampleSample() {
	reg, _ := scm.BuildDefault(2)
	theta, _ := reg.InitAll(0)
	tr, _ := inference.Sample(reg, theta, 3, 0)
	for _, name := range reg.Order() {
		r, c := tr.V[name].Shape()
		fmt.Printf("%s %dx%d\n", name, r, c)
	}
	// Output:
	// V1 3x2
	// X 3x2
	// Y 3x2
}
