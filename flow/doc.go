// Package flow defines the invertible base-flow contract consumed by the
// structural equations, together with a standard-normal base distribution
// and a RealNVP implementation built from masked affine coupling layers.
//
// Contract (Flow):
//
//	Forward(u, θ)      -> v
//	Backward(v, θ)     -> (u, log|det ∂u/∂v|)
//	BaseLogPDF(u)      -> log p_U(u)           (θ-independent)
//	SampleBase(n, s)   -> n draws from p_U     (seeded)
//	InitParams(s)      -> θ                    (seeded)
//
// Backward always reports the log-determinant of the inverse map, i.e. the
// term that is added to log p_U(u) to obtain log p_V(v).
//
// RealNVP coupling layer k with binary mask b_k (b_k[i] = (i+k) mod 2):
//
//	y = b⊙x + (1−b)⊙(x·exp(s(b⊙x)) + t(b⊙x))
//	x = b⊙y + (1−b)⊙((y − t(b⊙y))·exp(−s(b⊙y)))
//	log|det ∂x/∂y| = −Σ (1−b)⊙s
//
// The conditioner (s, t) sees the masked input at full width, so dim=1 is
// supported: every other layer is a learned elementwise affine map and the
// rest are identities.
package flow
