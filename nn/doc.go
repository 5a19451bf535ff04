// Package nn provides the Conditioner contract and a small multilayer
// perceptron that implements it.
//
// A Conditioner maps a batch of parent values (rows × InputDim) to a shift
// and a log-scale, each rows × TargetDim. The MLP produces a single
// rows × 2·TargetDim output and splits it in half along the last axis:
// the first half is the shift, the second the log-scale.
//
// Layout of an MLP parameter blob (params.Blob):
//
//	[W0, b0, W1, b1, ..., Wk, bk]
//
// with Wi of shape in_i × out_i and bi of shape 1 × out_i. Hidden layers use
// ReLU; the output layer is linear.
//
// Determinism: Init(seed) draws from a math/rand source seeded with
// baseSeed + seed, so the same (baseSeed, seed) pair always yields the same blob.
package nn
