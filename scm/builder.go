// SPDX-License-Identifier: MIT
// builder.go: turns a dag.Graph into a Registry of structural equations.
//
// Contract:
//   • Build walks the graph in topological order and creates exactly one
//     StructuralEquation per node; roots get a RootEquation, every other
//     node a ConditionedEquation whose conditioner reads the concatenated
//     parent vector.
//   • Options are functional and PANIC on meaningless inputs (nil logger,
//     empty widths); Build itself only returns errors.
//   • Seeds are explicit: flows use WithFlowSeed, conditioners use
//     WithConditionerSeed as their base seed.

package scm

import (
	"fmt"
	"log/slog"

	"github.com/jimimvp/CausalProb/dag"
	"github.com/jimimvp/CausalProb/flow"
	"github.com/jimimvp/CausalProb/nn"
)

// Defaults of the reference model.
const (
	DefaultFlowSeed        = flow.DefaultSeed
	DefaultConditionerSeed = 43
)

// FlowFactory builds the node-local base flow of n.
type FlowFactory func(n dag.Node) (flow.Flow, error)

// ConditionerFactory builds the conditioner of n for a parent vector of
// width inputDim.
type ConditionerFactory func(n dag.Node, inputDim int) (nn.Conditioner, error)

type buildConfig struct {
	logger      *slog.Logger
	flowSeed    int64
	condSeed    int64
	hidden      []int
	initStd     []nn.Option
	layers      int
	flowFactory FlowFactory
	condFactory ConditionerFactory
	scores      map[string]ScoreFunc
	policies    map[string]ScorePolicy
	cross       map[string]CrossScoreFunc
}

func defaultBuildConfig() buildConfig {
	return buildConfig{
		logger:   slog.New(slog.DiscardHandler),
		flowSeed: DefaultFlowSeed,
		condSeed: DefaultConditionerSeed,
		hidden:   []int{nn.DefaultHidden, nn.DefaultHidden},
		layers:   flow.DefaultCouplingLayers,
		scores:   map[string]ScoreFunc{},
		policies: map[string]ScorePolicy{},
		cross:    map[string]CrossScoreFunc{},
	}
}

// Option customizes Build.
type Option func(*buildConfig)

// WithLogger enables debug logging of graph construction. Panics on nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("scm: WithLogger(nil)")
	}

	return func(c *buildConfig) { c.logger = l }
}

// WithFlowSeed sets the seed of the default RealNVP flows.
func WithFlowSeed(seed int64) Option {
	return func(c *buildConfig) { c.flowSeed = seed }
}

// WithConditionerSeed sets the base seed of the default MLP conditioners.
func WithConditionerSeed(seed int64) Option {
	return func(c *buildConfig) { c.condSeed = seed }
}

// WithHidden sets the hidden widths of every default MLP (conditioners and
// coupling networks). Panics on an empty list or a non-positive width.
func WithHidden(widths ...int) Option {
	if len(widths) == 0 {
		panic("scm: WithHidden()")
	}
	for _, w := range widths {
		if w <= 0 {
			panic(fmt.Sprintf("scm: WithHidden(%d)", w))
		}
	}
	cp := append([]int(nil), widths...)

	return func(c *buildConfig) { c.hidden = cp }
}

// WithInitStd sets the init standard deviations of every default MLP.
// Panics on negative values.
func WithInitStd(weightStd, biasStd float64) Option {
	opt := nn.WithInitStd(weightStd, biasStd)

	return func(c *buildConfig) { c.initStd = []nn.Option{opt} }
}

// WithCouplingLayers sets the number of coupling layers of default flows.
// Panics on k <= 0.
func WithCouplingLayers(k int) Option {
	if k <= 0 {
		panic("scm: WithCouplingLayers(k<=0)")
	}

	return func(c *buildConfig) { c.layers = k }
}

// WithFlowFactory replaces the default RealNVP flows. Panics on nil.
func WithFlowFactory(f FlowFactory) Option {
	if f == nil {
		panic("scm: WithFlowFactory(nil)")
	}

	return func(c *buildConfig) { c.flowFactory = f }
}

// WithFlow shares one flow instance across every node. Its Dim must match
// each node's dimension.
func WithFlow(f flow.Flow) Option {
	if f == nil {
		panic("scm: WithFlow(nil)")
	}

	return WithFlowFactory(func(dag.Node) (flow.Flow, error) { return f, nil })
}

// WithConditionerFactory replaces the default MLP conditioners. Panics on nil.
func WithConditionerFactory(f ConditionerFactory) Option {
	if f == nil {
		panic("scm: WithConditionerFactory(nil)")
	}

	return func(c *buildConfig) { c.condFactory = f }
}

// WithScore overrides dlpu_du of node. Takes precedence over a policy.
// Panics on nil.
func WithScore(node string, fn ScoreFunc) Option {
	if fn == nil {
		panic("scm: WithScore(nil)")
	}

	return func(c *buildConfig) { c.scores[node] = fn }
}

// WithScorePolicy selects the score policy of node.
func WithScorePolicy(node string, p ScorePolicy) Option {
	return func(c *buildConfig) { c.policies[node] = p }
}

// WithCrossScore overrides dfy_du of a conditioned node. Panics on nil.
func WithCrossScore(node string, fn CrossScoreFunc) Option {
	if fn == nil {
		panic("scm: WithCrossScore(nil)")
	}

	return func(c *buildConfig) { c.cross[node] = fn }
}

// Build constructs the Registry for g.
//
// Implementation:
//   - Stage 1: resolve options; reject score/cross overrides for unknown nodes.
//   - Stage 2: for every node in topological order build its flow, and for
//     non-roots its conditioner over the summed parent width.
//   - Stage 3: wrap them in the node's equation and register it.
//
// Complexity:
//   - Time O(V + E) plus the cost of the factories.
func Build(g *dag.Graph, opts ...Option) (*Registry, error) {
	if g == nil {
		return nil, fmt.Errorf("scm: nil graph")
	}
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	for _, m := range []map[string]bool{keysOf(cfg.scores), keysOf(cfg.policies), keysOf(cfg.cross)} {
		for name := range m {
			if !g.Has(name) {
				return nil, fmt.Errorf("%w: %q", ErrUnknownNode, name)
			}
		}
	}

	reg := newRegistry(g)
	for _, name := range g.Order() {
		node, err := g.Node(name)
		if err != nil {
			return nil, err
		}
		f, err := cfg.newFlow(node)
		if err != nil {
			return nil, fmt.Errorf("scm: flow for %q: %w", name, err)
		}
		score := cfg.scoreFor(name, f)

		var (
			eq    StructuralEquation
			cross CrossScoreFunc
		)
		if node.IsRoot() {
			eq, err = NewRootEquation(node, f, score)
		} else {
			dims := make([]int, len(node.Parents))
			in := 0
			for i, p := range node.Parents {
				pn, _ := g.Node(p) // declared, validated by NewGraph
				dims[i] = pn.Dim
				in += pn.Dim
			}
			var c nn.Conditioner
			c, err = cfg.newConditioner(node, in)
			if err != nil {
				return nil, fmt.Errorf("scm: conditioner for %q: %w", name, err)
			}
			eq, err = NewConditionedEquation(node, dims, f, c, score)
			cross = ZeroCrossScore
			if fn, ok := cfg.cross[name]; ok {
				cross = fn
			}
		}
		if err != nil {
			return nil, err
		}
		if _, ok := cfg.cross[name]; ok && node.IsRoot() {
			return nil, fmt.Errorf("scm: cross score for root %q", name)
		}
		reg.register(eq, cross)

		cfg.logger.Debug("scm: equation built",
			"node", name,
			"dim", node.Dim,
			"parents", node.Parents,
			"params", eq.ParamKeys(),
		)
	}

	return reg, nil
}

// BuildDefault builds the confounded mediator model over dag.DefaultGraph
// with the outcome's exogenous score fixed at zero. opts are applied after
// that default, so WithScorePolicy(dag.Outcome, ScoreBase) restores it.
func BuildDefault(dim int, opts ...Option) (*Registry, error) {
	g, err := dag.DefaultGraph(dim)
	if err != nil {
		return nil, err
	}
	all := append([]Option{WithScorePolicy(dag.Outcome, ScoreZero)}, opts...)

	return Build(g, all...)
}

func (c *buildConfig) newFlow(n dag.Node) (flow.Flow, error) {
	if c.flowFactory != nil {
		return c.flowFactory(n)
	}

	return flow.NewRealNVP(n.Dim,
		flow.WithSeed(c.flowSeed),
		flow.WithCouplingLayers(c.layers),
		flow.WithConditionerOptions(c.mlpOptions()...),
	)
}

func (c *buildConfig) newConditioner(n dag.Node, inputDim int) (nn.Conditioner, error) {
	if c.condFactory != nil {
		return c.condFactory(n, inputDim)
	}

	return nn.NewMLP(inputDim, n.Dim, append(c.mlpOptions(), nn.WithBaseSeed(c.condSeed))...)
}

func (c *buildConfig) mlpOptions() []nn.Option {
	return append([]nn.Option{nn.WithHidden(c.hidden...)}, c.initStd...)
}

func (c *buildConfig) scoreFor(name string, f flow.Flow) ScoreFunc {
	if fn, ok := c.scores[name]; ok {
		return fn
	}

	return c.policies[name].scoreFunc(f)
}

func keysOf[V any](m map[string]V) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}

	return out
}
