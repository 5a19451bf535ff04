// Package config loads the model configuration of a causalprob registry
// from YAML and turns it into a dag.Graph plus scm build options.
//
// Unset fields keep the reference defaults (see Default), so an empty file
// describes the confounded mediator model with dim 2.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jimimvp/CausalProb/dag"
	"github.com/jimimvp/CausalProb/scm"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid model configuration")

// Model is the declarative model shape.
type Model struct {
	Dim             int               `yaml:"dim"`
	FlowSeed        int64             `yaml:"flow_seed"`
	ConditionerSeed int64             `yaml:"conditioner_seed"`
	Hidden          []int             `yaml:"hidden"`
	CouplingLayers  int               `yaml:"coupling_layers"`
	InitStd         *InitStd          `yaml:"init_std,omitempty"`
	Nodes           []Node            `yaml:"nodes,omitempty"`
	Scores          map[string]string `yaml:"scores,omitempty"`
}

// InitStd overrides the init standard deviations of every MLP.
type InitStd struct {
	Weight float64 `yaml:"weight"`
	Bias   float64 `yaml:"bias"`
}

// Node declares one graph node. Dim 0 means Model.Dim.
type Node struct {
	Name    string   `yaml:"name"`
	Dim     int      `yaml:"dim,omitempty"`
	Parents []string `yaml:"parents,omitempty"`
}

// Default returns the reference model: dim 2, flow seed 42, conditioner
// seed 43, two hidden layers of 8, 4 coupling layers and the default graph.
// With the default graph the outcome's score is zero unless Scores says
// otherwise.
func Default() Model {
	return Model{
		Dim:             2,
		FlowSeed:        scm.DefaultFlowSeed,
		ConditionerSeed: scm.DefaultConditionerSeed,
		Hidden:          []int{8, 8},
		CouplingLayers:  4,
	}
}

// Load reads and validates the YAML file at path. An empty path yields
// Default().
func Load(path string) (Model, error) {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return Default(), nil
	}
	// #nosec G304 -- path is an explicit user flag.
	data, err := os.ReadFile(clean)
	if err != nil {
		return Model{}, fmt.Errorf("reading model config %q: %w", clean, err)
	}
	m, err := Parse(data)
	if err != nil {
		return Model{}, fmt.Errorf("model config %q: %w", clean, err)
	}

	return m, nil
}

// Parse decodes YAML on top of Default() and validates the result.
func Parse(data []byte) (Model, error) {
	m := Default()
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Model{}, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Model{}, err
	}

	return m, nil
}

// Encode renders m as YAML.
func (m Model) Encode() ([]byte, error) {
	return yaml.Marshal(m)
}

// Validate checks field ranges; graph structure is checked by Graph.
func (m Model) Validate() error {
	if m.Dim <= 0 {
		return fmt.Errorf("%w: dim %d", ErrInvalidConfig, m.Dim)
	}
	if len(m.Hidden) == 0 {
		return fmt.Errorf("%w: hidden must list at least one width", ErrInvalidConfig)
	}
	for _, w := range m.Hidden {
		if w <= 0 {
			return fmt.Errorf("%w: hidden width %d", ErrInvalidConfig, w)
		}
	}
	if m.CouplingLayers <= 0 {
		return fmt.Errorf("%w: coupling_layers %d", ErrInvalidConfig, m.CouplingLayers)
	}
	if s := m.InitStd; s != nil && (s.Weight < 0 || s.Bias < 0) {
		return fmt.Errorf("%w: negative init_std", ErrInvalidConfig)
	}
	for i, n := range m.Nodes {
		if strings.TrimSpace(n.Name) == "" {
			return fmt.Errorf("%w: nodes[%d] has no name", ErrInvalidConfig, i)
		}
		if n.Dim < 0 {
			return fmt.Errorf("%w: node %q dim %d", ErrInvalidConfig, n.Name, n.Dim)
		}
	}
	for node, policy := range m.Scores {
		if _, err := scm.ParseScorePolicy(policy); err != nil {
			return fmt.Errorf("%w: scores[%s]: %w", ErrInvalidConfig, node, err)
		}
	}

	return nil
}

// Graph builds the declared graph, or dag.DefaultGraph(Dim) when no nodes
// are declared.
func (m Model) Graph() (*dag.Graph, error) {
	if len(m.Nodes) == 0 {
		return dag.DefaultGraph(m.Dim)
	}
	nodes := make([]dag.Node, len(m.Nodes))
	for i, n := range m.Nodes {
		dim := n.Dim
		if dim == 0 {
			dim = m.Dim
		}
		nodes[i] = dag.Node{Name: n.Name, Dim: dim, Parents: n.Parents}
	}
	g, err := dag.NewGraph(nodes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return g, nil
}

// Options translates m into scm build options.
func (m Model) Options() ([]scm.Option, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	opts := []scm.Option{
		scm.WithFlowSeed(m.FlowSeed),
		scm.WithConditionerSeed(m.ConditionerSeed),
		scm.WithHidden(m.Hidden...),
		scm.WithCouplingLayers(m.CouplingLayers),
	}
	if m.InitStd != nil {
		opts = append(opts, scm.WithInitStd(m.InitStd.Weight, m.InitStd.Bias))
	}
	for node, p := range m.policies() {
		opts = append(opts, scm.WithScorePolicy(node, p))
	}

	return opts, nil
}

// policies resolves Scores; the default graph gets a zero outcome score
// unless one is configured.
func (m Model) policies() map[string]scm.ScorePolicy {
	out := make(map[string]scm.ScorePolicy, len(m.Scores)+1)
	if len(m.Nodes) == 0 {
		out[dag.Outcome] = scm.ScoreZero
	}
	for node, policy := range m.Scores {
		p, _ := scm.ParseScorePolicy(policy) // checked by Validate
		out[node] = p
	}

	return out
}

// Build validates m and builds its registry. A nil logger disables logging.
func (m Model) Build(logger *slog.Logger) (*scm.Registry, error) {
	opts, err := m.Options()
	if err != nil {
		return nil, err
	}
	g, err := m.Graph()
	if err != nil {
		return nil, err
	}
	if logger != nil {
		opts = append(opts, scm.WithLogger(logger))
	}
	reg, err := scm.Build(g, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return reg, nil
}
