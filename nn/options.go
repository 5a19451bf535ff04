// SPDX-License-Identifier: MIT
// options.go: functional options for MLP construction.
//
// Contract:
//   • Options are functional (type Option func(*mlpConfig)).
//   • Option constructors validate and PANIC on meaningless inputs;
//     Init/Apply themselves never panic.
//   • Seeding is explicit: WithBaseSeed plus the seed passed to Init.

package nn

// Defaults mirror the reference conditioner: two hidden layers of width 8,
// weights ~ N(0, 1e-2²), biases ~ N(0, 1e-6²).
const (
	DefaultHidden    = 8
	DefaultWeightStd = 1e-2
	DefaultBiasStd   = 1e-6
)

type mlpConfig struct {
	hidden    []int
	baseSeed  int64
	weightStd float64
	biasStd   float64
}

func defaultMLPConfig() mlpConfig {
	return mlpConfig{
		hidden:    []int{DefaultHidden, DefaultHidden},
		weightStd: DefaultWeightStd,
		biasStd:   DefaultBiasStd,
	}
}

// Option customizes an MLP before it is built.
type Option func(*mlpConfig)

// WithHidden sets the hidden layer widths. Panics on an empty list or a
// non-positive width.
func WithHidden(widths ...int) Option {
	if len(widths) == 0 {
		panic("nn: WithHidden()")
	}
	for _, w := range widths {
		if w <= 0 {
			panic("nn: WithHidden(width<=0)")
		}
	}
	cp := append([]int(nil), widths...)

	return func(c *mlpConfig) { c.hidden = cp }
}

// WithBaseSeed sets the seed offset added to every Init(seed) call.
func WithBaseSeed(seed int64) Option {
	return func(c *mlpConfig) { c.baseSeed = seed }
}

// WithInitStd sets the standard deviations used for weights and biases.
// Panics if either is negative.
func WithInitStd(weightStd, biasStd float64) Option {
	if weightStd < 0 || biasStd < 0 {
		panic("nn: WithInitStd(std<0)")
	}

	return func(c *mlpConfig) { c.weightStd, c.biasStd = weightStd, biasStd }
}
