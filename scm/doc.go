// Package scm builds a structural causal model over a dag.Graph in which
// every structural assignment is an invertible, parameter-conditioned map.
//
// Each node gets one StructuralEquation:
//
//   - RootEquation (no parents): v = Flow.Forward(u, θ_own).
//   - ConditionedEquation: (shift, ls) = C(concat(parents), θ_C) and
//     v = exp(ls)·Flow.Forward(u, θ_base) + shift.
//
// Every equation offers the same operations, so likelihood evaluation,
// sampling, abduction and interventions never special-case nodes:
//
//	Forward                u → v
//	Inverse                v → u                (abduction)
//	LogDetJacobianInverse  log|det ∂u/∂v|       (always the inverse map)
//	BaseLogDensity         log p_U(u)
//	SampleBase             u ~ p_U              (seeded)
//	Score                  ∇_u log p_U(u)       (per-node policy)
//	InitParams             θ blob per parameter group (seeded)
//
// Build returns a Registry holding the equations plus the seven function
// maps F, Finv, LDIJ, LPU, DrawU, InitParams and DLPUDU keyed by node name
// (InitParams by parameter-group key).
//
// Parameter-group keys:
//
//	root node own flow        "V1"
//	conditioned node flow     "U_X->X"
//	conditioner               "V1->X", "V1--X->Y" (parents joined with "--")
//
// Broadcast rule: a parent value with a single row is replicated to the
// batch size of the other parents before concatenation, and a node's own
// single-row u or v broadcasts against a batched shift and log-scale. This
// is what lets one fixed upstream value drive many downstream noise draws.
// Any other row mismatch fails with ErrShapeMismatch.
//
// After Build nothing is mutated: every operation is a pure function of its
// arguments and a Registry is safe for concurrent use.
package scm
