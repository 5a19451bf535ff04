package flow

import (
	"fmt"

	"github.com/jimimvp/CausalProb/matrix"
	"github.com/jimimvp/CausalProb/nn"
	"github.com/jimimvp/CausalProb/params"
)

// Flow is the five-operation contract every node-local base flow satisfies.
type Flow interface {
	Dim() int
	Forward(u *matrix.Dense, p params.Blob) (*matrix.Dense, error)
	Backward(v *matrix.Dense, p params.Blob) (*matrix.Dense, []float64, error)
	BaseLogPDF(u *matrix.Dense) ([]float64, error)
	SampleBase(size int, seed int64) (*matrix.Dense, error)
	InitParams(seed int64) (params.Blob, error)
}

// Scorer is implemented by flows whose base distribution exposes ∇ log p.
type Scorer interface {
	BaseScore(u *matrix.Dense) (*matrix.Dense, error)
}

// Defaults for RealNVP construction.
const (
	DefaultCouplingLayers = 4
	DefaultSeed           = 42
	layerSeedStride       = 7919
)

type realNVPConfig struct {
	layers int
	seed   int64
	base   Base
	nnOpts []nn.Option
}

// RealNVPOption customizes a RealNVP before construction.
type RealNVPOption func(*realNVPConfig)

// WithCouplingLayers sets the number of coupling layers. Panics on k <= 0.
func WithCouplingLayers(k int) RealNVPOption {
	if k <= 0 {
		panic("flow: WithCouplingLayers(k<=0)")
	}

	return func(c *realNVPConfig) { c.layers = k }
}

// WithSeed sets the flow's base seed; coupling layer k seeds its conditioner
// with seed + k·stride.
func WithSeed(seed int64) RealNVPOption {
	return func(c *realNVPConfig) { c.seed = seed }
}

// WithBase replaces the standard-normal base distribution. Panics on nil.
func WithBase(b Base) RealNVPOption {
	if b == nil {
		panic("flow: WithBase(nil)")
	}

	return func(c *realNVPConfig) { c.base = b }
}

// WithConditionerOptions forwards options to every coupling conditioner.
func WithConditionerOptions(opts ...nn.Option) RealNVPOption {
	cp := append([]nn.Option(nil), opts...)

	return func(c *realNVPConfig) { c.nnOpts = append(c.nnOpts, cp...) }
}

// coupling is one masked affine coupling layer.
type coupling struct {
	mask    *matrix.Dense // 1×dim, entries in {0,1}
	invMask *matrix.Dense // 1 − mask
	net     *nn.MLP       // dim → (dim, dim)
	nParams int           // tensors owned by this layer in the flow blob
}

// RealNVP is a stack of masked affine coupling layers over a Base.
type RealNVP struct {
	dim    int
	base   Base
	layers []coupling
}

var (
	_ Flow   = (*RealNVP)(nil)
	_ Scorer = (*RealNVP)(nil)
)

// NewRealNVP builds a RealNVP over dim components.
func NewRealNVP(dim int, opts ...RealNVPOption) (*RealNVP, error) {
	if dim <= 0 {
		return nil, ErrInvalidSize
	}
	cfg := realNVPConfig{layers: DefaultCouplingLayers, seed: DefaultSeed}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.base == nil {
		sn, err := NewStandardNormal(dim)
		if err != nil {
			return nil, err
		}
		cfg.base = sn
	}
	if cfg.base.Dim() != dim {
		return nil, fmt.Errorf("flow: base dim %d != flow dim %d: %w", cfg.base.Dim(), dim, matrix.ErrDimensionMismatch)
	}

	f := &RealNVP{dim: dim, base: cfg.base, layers: make([]coupling, cfg.layers)}
	for k := range f.layers {
		mask, err := matrix.NewDense(1, dim)
		if err != nil {
			return nil, err
		}
		inv, err := matrix.NewDense(1, dim)
		if err != nil {
			return nil, err
		}
		for i := 0; i < dim; i++ {
			bit := float64((i + k) % 2)
			_ = mask.Set(0, i, bit)  // in range by construction
			_ = inv.Set(0, i, 1-bit) // in range by construction
		}
		netOpts := append([]nn.Option{nn.WithBaseSeed(cfg.seed + int64(k)*layerSeedStride)}, cfg.nnOpts...)
		net, err := nn.NewMLP(dim, dim, netOpts...)
		if err != nil {
			return nil, err
		}
		f.layers[k] = coupling{mask: mask, invMask: inv, net: net, nParams: 2 * net.Layers()}
	}

	return f, nil
}

// Dim implements Flow.
func (f *RealNVP) Dim() int { return f.dim }

// Layers returns the number of coupling layers.
func (f *RealNVP) Layers() int { return len(f.layers) }

// InitParams concatenates the conditioner blobs of every coupling layer.
func (f *RealNVP) InitParams(seed int64) (params.Blob, error) {
	var blob params.Blob
	for k, l := range f.layers {
		b, err := l.net.Init(seed)
		if err != nil {
			return nil, fmt.Errorf("flow: layer %d init: %w", k, err)
		}
		blob = append(blob, b...)
	}

	return blob, nil
}

// split cuts a flow blob into per-layer conditioner blobs.
func (f *RealNVP) split(p params.Blob) ([]params.Blob, error) {
	total := 0
	for _, l := range f.layers {
		total += l.nParams
	}
	if err := p.Expect(total); err != nil {
		return nil, fmt.Errorf("flow: RealNVP: %w", err)
	}
	out := make([]params.Blob, len(f.layers))
	off := 0
	for k, l := range f.layers {
		out[k] = p[off : off+l.nParams]
		off += l.nParams
	}

	return out, nil
}

// Forward maps exogenous noise u to v through every coupling layer in order.
func (f *RealNVP) Forward(u *matrix.Dense, p params.Blob) (*matrix.Dense, error) {
	if err := matrix.ValidateCols(u, f.dim); err != nil {
		return nil, fmt.Errorf("flow: RealNVP.Forward: %w", err)
	}
	blobs, err := f.split(p)
	if err != nil {
		return nil, err
	}
	x := u
	for k, l := range f.layers {
		if x, err = l.forward(x, blobs[k]); err != nil {
			return nil, fmt.Errorf("flow: layer %d forward: %w", k, err)
		}
	}

	return x, nil
}

// Backward inverts Forward, returning u and log|det ∂u/∂v| per row.
func (f *RealNVP) Backward(v *matrix.Dense, p params.Blob) (*matrix.Dense, []float64, error) {
	if err := matrix.ValidateCols(v, f.dim); err != nil {
		return nil, nil, fmt.Errorf("flow: RealNVP.Backward: %w", err)
	}
	blobs, err := f.split(p)
	if err != nil {
		return nil, nil, err
	}
	y := v
	logDet := make([]float64, v.Rows())
	var ld []float64
	for k := len(f.layers) - 1; k >= 0; k-- {
		if y, ld, err = f.layers[k].backward(y, blobs[k]); err != nil {
			return nil, nil, fmt.Errorf("flow: layer %d backward: %w", k, err)
		}
		for i := range logDet {
			logDet[i] += ld[i]
		}
	}

	return y, logDet, nil
}

// BaseLogPDF implements Flow.
func (f *RealNVP) BaseLogPDF(u *matrix.Dense) ([]float64, error) { return f.base.LogPDF(u) }

// SampleBase implements Flow.
func (f *RealNVP) SampleBase(size int, seed int64) (*matrix.Dense, error) {
	return f.base.Sample(size, seed)
}

// BaseScore implements Scorer.
func (f *RealNVP) BaseScore(u *matrix.Dense) (*matrix.Dense, error) { return f.base.Score(u) }

// forward: y = b⊙x + (1−b)⊙(x·exp(s) + t).
func (l coupling) forward(x *matrix.Dense, p params.Blob) (*matrix.Dense, error) {
	masked, err := matrix.Hadamard(x, l.mask)
	if err != nil {
		return nil, err
	}
	t, s, err := l.net.Apply(masked, p)
	if err != nil {
		return nil, err
	}
	es, err := matrix.Exp(s)
	if err != nil {
		return nil, err
	}
	scaled, err := matrix.Hadamard(x, es)
	if err != nil {
		return nil, err
	}
	shifted, err := matrix.Add(scaled, t)
	if err != nil {
		return nil, err
	}
	moved, err := matrix.Hadamard(shifted, l.invMask)
	if err != nil {
		return nil, err
	}

	return matrix.Add(masked, moved)
}

// backward: x = b⊙y + (1−b)⊙((y − t)·exp(−s)), log-det = −Σ(1−b)⊙s.
func (l coupling) backward(y *matrix.Dense, p params.Blob) (*matrix.Dense, []float64, error) {
	masked, err := matrix.Hadamard(y, l.mask)
	if err != nil {
		return nil, nil, err
	}
	t, s, err := l.net.Apply(masked, p)
	if err != nil {
		return nil, nil, err
	}
	negS, err := matrix.Scale(s, -1)
	if err != nil {
		return nil, nil, err
	}
	ens, err := matrix.Exp(negS)
	if err != nil {
		return nil, nil, err
	}
	centered, err := matrix.Sub(y, t)
	if err != nil {
		return nil, nil, err
	}
	unscaled, err := matrix.Hadamard(centered, ens)
	if err != nil {
		return nil, nil, err
	}
	moved, err := matrix.Hadamard(unscaled, l.invMask)
	if err != nil {
		return nil, nil, err
	}
	x, err := matrix.Add(masked, moved)
	if err != nil {
		return nil, nil, err
	}
	activeNegS, err := matrix.Hadamard(negS, l.invMask)
	if err != nil {
		return nil, nil, err
	}
	logDet, err := matrix.RowSums(activeNegS)
	if err != nil {
		return nil, nil, err
	}

	return x, logDet, nil
}
