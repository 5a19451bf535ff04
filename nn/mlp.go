package nn

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/jimimvp/CausalProb/matrix"
	"github.com/jimimvp/CausalProb/params"
)

// ErrInvalidShape is returned by NewMLP for non-positive input or target dims.
var ErrInvalidShape = errors.New("nn: input and target dimensions must be > 0")

// Conditioner maps parent values to an affine shift and log-scale.
type Conditioner interface {
	// InputDim is the declared width of the parent vector (sum of parent dims).
	InputDim() int
	// TargetDim is the width of shift and log-scale.
	TargetDim() int
	// Init returns a fresh parameter blob, deterministic in seed.
	Init(seed int64) (params.Blob, error)
	// Apply evaluates the conditioner on a batch of inputs.
	Apply(in *matrix.Dense, p params.Blob) (shift, logScale *matrix.Dense, err error)
}

// MLP is a fully connected ReLU network whose output is split into
// (shift, logScale).
type MLP struct {
	inputDim  int
	targetDim int
	widths    []int // layer output widths, last == 2*targetDim
	cfg       mlpConfig
}

var _ Conditioner = (*MLP)(nil)

// NewMLP builds an MLP for inputDim → (targetDim, targetDim).
func NewMLP(inputDim, targetDim int, opts ...Option) (*MLP, error) {
	if inputDim <= 0 || targetDim <= 0 {
		return nil, ErrInvalidShape
	}
	cfg := defaultMLPConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	widths := append(append([]int(nil), cfg.hidden...), 2*targetDim)

	return &MLP{inputDim: inputDim, targetDim: targetDim, widths: widths, cfg: cfg}, nil
}

// InputDim implements Conditioner.
func (n *MLP) InputDim() int { return n.inputDim }

// TargetDim implements Conditioner.
func (n *MLP) TargetDim() int { return n.targetDim }

// Layers returns the number of dense layers (hidden + output).
func (n *MLP) Layers() int { return len(n.widths) }

// Init draws weights and biases from a source seeded with baseSeed + seed.
// Layers are initialised in order, weights before biases, so the stream
// consumption is fixed for a given architecture.
func (n *MLP) Init(seed int64) (params.Blob, error) {
	rng := rand.New(rand.NewSource(n.cfg.baseSeed + seed))
	blob := make(params.Blob, 0, 2*len(n.widths))

	in := n.inputDim
	for _, out := range n.widths {
		w, err := gaussian(rng, in, out, n.cfg.weightStd)
		if err != nil {
			return nil, err
		}
		b, err := gaussian(rng, 1, out, n.cfg.biasStd)
		if err != nil {
			return nil, err
		}
		blob = append(blob, w, b)
		in = out
	}

	return blob, nil
}

// Apply runs the forward pass and splits the output into (shift, logScale).
//
// Errors:
//   - matrix.ErrDimensionMismatch when in has the wrong width.
//   - params.ErrBadLayout when p does not match the architecture.
func (n *MLP) Apply(in *matrix.Dense, p params.Blob) (shift, logScale *matrix.Dense, err error) {
	if err = matrix.ValidateCols(in, n.inputDim); err != nil {
		return nil, nil, fmt.Errorf("nn: MLP.Apply: %w", err)
	}
	if err = p.Expect(2 * len(n.widths)); err != nil {
		return nil, nil, fmt.Errorf("nn: MLP.Apply: %w", err)
	}

	h := in
	last := len(n.widths) - 1
	for l := range n.widths {
		if h, err = matrix.MatMul(h, p[2*l]); err != nil {
			return nil, nil, fmt.Errorf("nn: layer %d: %w", l, err)
		}
		if h, err = matrix.Add(h, p[2*l+1]); err != nil {
			return nil, nil, fmt.Errorf("nn: layer %d bias: %w", l, err)
		}
		if l < last {
			if h, err = matrix.Apply(h, relu); err != nil {
				return nil, nil, fmt.Errorf("nn: layer %d: %w", l, err)
			}
		}
	}

	return matrix.SplitHalf(h)
}

func relu(v float64) float64 {
	if v < 0 {
		return 0
	}

	return v
}

// gaussian returns a rows×cols matrix with entries ~ N(0, std²).
func gaussian(rng *rand.Rand, rows, cols int, std float64) (*matrix.Dense, error) {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = std * rng.NormFloat64()
	}

	return matrix.NewFromSlice(rows, cols, data)
}
