package flow

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/jimimvp/CausalProb/matrix"
)

// ErrInvalidSize is returned when a non-positive sample size or dimension is requested.
var ErrInvalidSize = errors.New("flow: size must be > 0")

// log(2π), precomputed for the Gaussian log-density.
var log2Pi = math.Log(2 * math.Pi)

// Base is the exogenous noise distribution of a flow.
type Base interface {
	// Dim is the width of a single draw.
	Dim() int
	// LogPDF returns log p(u) per row.
	LogPDF(u *matrix.Dense) ([]float64, error)
	// Sample draws size rows from a source seeded with seed.
	Sample(size int, seed int64) (*matrix.Dense, error)
	// Score returns ∇_u log p(u) per row.
	Score(u *matrix.Dense) (*matrix.Dense, error)
}

// StandardNormal is N(0, I) over Dim components.
type StandardNormal struct {
	dim int
}

var _ Base = StandardNormal{}

// NewStandardNormal returns N(0, I_dim).
func NewStandardNormal(dim int) (StandardNormal, error) {
	if dim <= 0 {
		return StandardNormal{}, ErrInvalidSize
	}

	return StandardNormal{dim: dim}, nil
}

// Dim implements Base.
func (b StandardNormal) Dim() int { return b.dim }

// LogPDF returns −½ Σ_j (u_j² + log 2π) for every row.
func (b StandardNormal) LogPDF(u *matrix.Dense) ([]float64, error) {
	if err := matrix.ValidateCols(u, b.dim); err != nil {
		return nil, fmt.Errorf("flow: StandardNormal.LogPDF: %w", err)
	}
	sq, err := matrix.Apply(u, func(v float64) float64 { return -0.5 * (v*v + log2Pi) })
	if err != nil {
		return nil, err
	}

	return matrix.RowSums(sq)
}

// Sample draws size×Dim standard normal values.
func (b StandardNormal) Sample(size int, seed int64) (*matrix.Dense, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, size*b.dim)
	for i := range data {
		data[i] = rng.NormFloat64()
	}

	return matrix.NewFromSlice(size, b.dim, data)
}

// Score returns −u.
func (b StandardNormal) Score(u *matrix.Dense) (*matrix.Dense, error) {
	if err := matrix.ValidateCols(u, b.dim); err != nil {
		return nil, fmt.Errorf("flow: StandardNormal.Score: %w", err)
	}

	return matrix.Scale(u, -1)
}
