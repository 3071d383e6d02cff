//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

// Package triple produces the correlated randomness consumed by the
// secure multiplication and AND protocols. Every party must consume
// triples in the same order as its peers; the streams are aligned by
// construction but a skipped or reordered request silently corrupts
// all subsequent results.
package triple

import (
	"github.com/privten/privten/ring"
)

// Triple holds one party's additive share of (a, b, c) with
// sum(a)*sum(b) = sum(c) mod 2^64. For matrix products a is [m,k], b
// is [k,n] and c is their [m,n] matrix product.
type Triple struct {
	A *ring.Tensor
	B *ring.Tensor
	C *ring.Tensor
}

// BitTriple holds one party's XOR share of (a, b, c) with
// xor(a) AND xor(b) = xor(c) on every bit lane.
type BitTriple struct {
	A *ring.Tensor
	B *ring.Tensor
	C *ring.Tensor
}

// TruncPair holds one party's additive shares of a random mask r and
// of its arithmetic shift r>>bits, used by the exact truncation
// protocol.
type TruncPair struct {
	R      *ring.Tensor
	RShift *ring.Tensor
}

// Provider generates correlated randomness. The two implementations
// (trusted first party and oblivious transfer) are interchangeable;
// the choice is a configuration-time decision.
type Provider interface {
	// Triple returns a fresh multiplication triple of the given
	// element-wise shape.
	Triple(shape ...int) (*Triple, error)

	// MatMulTriple returns a fresh triple for an [m,k] x [k,n]
	// matrix product.
	MatMulTriple(m, k, n int) (*Triple, error)

	// BitTriple returns a fresh AND triple of the given shape.
	BitTriple(shape ...int) (*BitTriple, error)

	// TruncPair returns a fresh truncation pair for the given shift.
	TruncPair(bits uint, shape ...int) (*TruncPair, error)
}
