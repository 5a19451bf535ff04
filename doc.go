// Package causalprob builds structural causal models whose exogenous noise
// is pushed through invertible normalizing flows, and answers sampling,
// abduction and counterfactual queries against them.
//
// Every endogenous node v has a structural equation
//
//	root:        v = f(u)
//	conditioned: v = exp(s(pa))·f(u) + t(pa)
//
// where f is a RealNVP flow and (s, t) come from an MLP conditioner over the
// concatenated parent values. Both directions are exact, and the inverse
// log-determinant of the Jacobian is reported alongside so the likelihood of
// observed data is available in closed form.
//
// Under the hood, the module is organized into:
//
//	matrix/       batched dense float64 matrices with row broadcasting
//	nn/           seeded MLPs with a flat parameter layout
//	params/       named parameter groups (θ) with JSON round-trip
//	flow/         RealNVP affine coupling flows and the standard normal base
//	dag/          the causal graph, topological order and the default V1→X→Y model
//	scm/          structural equations and the function registry
//	inference/    ancestral sampling, do-interventions, abduction, counterfactuals
//	verify/       invertibility and finite-difference log-det checks
//	config/       YAML model description
//	paramstore/   SQLite snapshots of θ
//	cli/          the command-line front end (binary in cmd/causalprob)
//
// Quick example, the default model:
//
//	V1 ───► X ───► Y
//	 └─────────────┘  (V1 → Y)
//
//	reg, _ := scm.BuildDefault(2)
//	theta, _ := reg.InitAll(0)
//	tr, _ := inference.Sample(reg, theta, 16, 1)
//
//	go install github.com/jimimvp/CausalProb/cmd/causalprob@latest
package causalprob
