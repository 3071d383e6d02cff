//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package mpc

import (
	"crypto/rand"

	"github.com/privten/privten/ring"
)

// BinTensor is one party's XOR share of a secret tensor of 64-bit
// words: the element-wise XOR of all parties' shares is the
// plaintext. Bitwise operations on it are either local (XOR, NOT,
// shifts, public masks) or consume AND triples.
type BinTensor struct {
	s     *Session
	share *ring.Tensor
}

func (s *Session) bin(t *ring.Tensor) *BinTensor {
	return &BinTensor{
		s:     s,
		share: t,
	}
}

// Shape returns the tensor shape.
func (t *BinTensor) Shape() []int {
	return t.share.Shape
}

// Numel returns the number of elements.
func (t *BinTensor) Numel() int {
	return t.share.Numel()
}

// ShareBits XOR-shares the source party's raw words. Only src supplies
// vals; every party must pass the same shape.
func ShareBits(s *Session, vals []uint64, shape []int, src int) (
	*BinTensor, error) {

	var pt *ring.Tensor
	if s.Rank() == src {
		var err error
		pt, err = ring.NewFromData(append([]uint64{}, vals...), shape...)
		if err != nil {
			return nil, err
		}
	}
	return ShareBitsRing(s, pt, shape, src)
}

// ShareBitsRing XOR-shares a raw ring tensor from the src party.
func ShareBitsRing(s *Session, pt *ring.Tensor, shape []int, src int) (
	*BinTensor, error) {

	if err := s.validateShape("share_bits", shape); err != nil {
		return nil, err
	}
	if s.Rank() == src {
		if pt == nil || !pt.SameShape(ring.New(shape...)) {
			return nil, &Error{
				Op:     "share_bits",
				Reason: "source plaintext does not match the given shape",
			}
		}
		parts := make([]*ring.Tensor, s.WorldSize())
		rest := pt.Clone()
		for peer := range parts {
			if peer == src {
				continue
			}
			mask, err := ring.Rand(rand.Reader, shape...)
			if err != nil {
				return nil, err
			}
			parts[peer] = mask
			rest = rest.Xor(mask)
		}
		parts[src] = rest
		share, err := s.Comm.Scatter(parts, src)
		if err != nil {
			return nil, err
		}
		return s.bin(share), nil
	}
	share, err := s.Comm.Scatter(nil, src)
	if err != nil {
		return nil, err
	}
	if !share.SameShape(ring.New(shape...)) {
		return nil, &Error{
			Op:     "share_bits",
			Reason: "received share does not match the given shape",
		}
	}
	return s.bin(share), nil
}

// NewPublicBits creates a sharing of public words: rank 0 holds the
// values, every other share is zero.
func NewPublicBits(s *Session, vals []uint64, shape ...int) (
	*BinTensor, error) {

	if s.Rank() != 0 {
		return s.bin(ring.New(shape...)), nil
	}
	pt, err := ring.NewFromData(append([]uint64{}, vals...), shape...)
	if err != nil {
		return nil, err
	}
	return s.bin(pt), nil
}

// RevealBits opens the raw words to all parties.
func (t *BinTensor) RevealBits() ([]uint64, error) {
	pt, err := t.s.Comm.AllReduceXor(t.share)
	if err != nil {
		return nil, err
	}
	return pt.Data, nil
}

// Xor returns t^o. Local on shares.
func (t *BinTensor) Xor(o *BinTensor) (*BinTensor, error) {
	if err := t.s.checkShapes("xor", t.share, o.share); err != nil {
		return nil, err
	}
	return t.s.bin(t.share.Xor(o.share)), nil
}

// XorWords xors the public word v into every element. Rank 0 applies
// the value.
func (t *BinTensor) XorWords(v uint64) *BinTensor {
	if t.s.Rank() != 0 {
		return t.s.bin(t.share.Clone())
	}
	return t.s.bin(t.share.XorScalar(v))
}

// Not complements every bit. Rank 0 applies the complement.
func (t *BinTensor) Not() *BinTensor {
	return t.XorWords(^uint64(0))
}

// AndWords masks every element with the public word v. AND with a
// public mask distributes over XOR, so every party masks its share.
func (t *BinTensor) AndWords(v uint64) *BinTensor {
	return t.s.bin(t.share.AndScalar(v))
}

// Lsh shifts every lane left by k bits; zeros fill the low bits.
func (t *BinTensor) Lsh(k uint) *BinTensor {
	return t.s.bin(t.share.Lsh(k))
}

// Rsh shifts every lane logically right by k bits.
func (t *BinTensor) Rsh(k uint) *BinTensor {
	return t.s.bin(t.share.Rsh(k))
}

// andTensors runs the Beaver AND on raw shares: the masked operands
// are opened in a single XOR collective round.
func (s *Session) andTensors(x, y *ring.Tensor) (*ring.Tensor, error) {
	tr, err := s.Prov.BitTriple(x.Shape...)
	if err != nil {
		return nil, err
	}
	eps := x.Xor(tr.A)
	del := y.Xor(tr.B)
	opened, err := s.Comm.AllReduceXor(ring.Stack(eps, del))
	if err != nil {
		return nil, err
	}
	parts := ring.Unstack(opened)
	e, d := parts[0], parts[1]
	z := tr.C.Xor(e.And(tr.B)).Xor(tr.A.And(d))
	if s.Rank() == 0 {
		z = z.Xor(e.And(d))
	}
	return z, nil
}

// And returns t&o. One AND-triple round.
func (t *BinTensor) And(o *BinTensor) (*BinTensor, error) {
	if err := t.s.checkShapes("and", t.share, o.share); err != nil {
		return nil, err
	}
	z, err := t.s.andTensors(t.share, o.share)
	if err != nil {
		return nil, err
	}
	return t.s.bin(z), nil
}

// Add returns the lane-wise sum t+o mod 2^64 with a Kogge-Stone
// carry-lookahead circuit. The generate and propagate updates of each
// of the six levels are batched into one AND round, so the adder costs
// seven AND rounds in total.
func (t *BinTensor) Add(o *BinTensor) (*BinTensor, error) {
	if err := t.s.checkShapes("add", t.share, o.share); err != nil {
		return nil, err
	}
	p := t.share.Xor(o.share)
	g, err := t.s.andTensors(t.share, o.share)
	if err != nil {
		return nil, err
	}
	for shift := uint(1); shift < 64; shift <<= 1 {
		r, err := t.s.andTensors(
			ring.Stack(p, p),
			ring.Stack(g.Lsh(shift), p.Lsh(shift)))
		if err != nil {
			return nil, err
		}
		parts := ring.Unstack(r)
		g = g.Xor(parts[0])
		p = parts[1]
	}
	sum := t.share.Xor(o.share).Xor(g.Lsh(1))
	return t.s.bin(sum), nil
}

// AddWords adds the public word v to every lane through the adder
// circuit.
func (t *BinTensor) AddWords(v uint64) (*BinTensor, error) {
	vals := make([]uint64, t.Numel())
	for i := range vals {
		vals[i] = v
	}
	pub, err := NewPublicBits(t.s, vals, t.share.Shape...)
	if err != nil {
		return nil, err
	}
	return t.Add(pub)
}

// subWords computes the lane-wise difference t-o as t + ^o + 1.
func (t *BinTensor) subWords(o *BinTensor) (*BinTensor, error) {
	s1, err := t.Add(o.Not())
	if err != nil {
		return nil, err
	}
	return s1.AddWords(1)
}

// LT returns the 0/1 lane indicator of the signed comparison t < o:
// the sign bit of t-o. The result stays a secret sharing.
func (t *BinTensor) LT(o *BinTensor) (*BinTensor, error) {
	d, err := t.subWords(o)
	if err != nil {
		return nil, err
	}
	return d.Rsh(63), nil
}

// GT returns the 0/1 lane indicator of t > o.
func (t *BinTensor) GT(o *BinTensor) (*BinTensor, error) {
	return o.LT(t)
}

// LE returns the 0/1 lane indicator of t <= o.
func (t *BinTensor) LE(o *BinTensor) (*BinTensor, error) {
	g, err := t.GT(o)
	if err != nil {
		return nil, err
	}
	return g.XorWords(1), nil
}

// GE returns the 0/1 lane indicator of t >= o.
func (t *BinTensor) GE(o *BinTensor) (*BinTensor, error) {
	l, err := t.LT(o)
	if err != nil {
		return nil, err
	}
	return l.XorWords(1), nil
}

// EQ returns the 0/1 lane indicator of t == o: the AND-fold of the
// complemented difference bits.
func (t *BinTensor) EQ(o *BinTensor) (*BinTensor, error) {
	d, err := t.Xor(o)
	if err != nil {
		return nil, err
	}
	return d.Not().foldAnd()
}

// NE returns the 0/1 lane indicator of t != o.
func (t *BinTensor) NE(o *BinTensor) (*BinTensor, error) {
	e, err := t.EQ(o)
	if err != nil {
		return nil, err
	}
	return e.XorWords(1), nil
}

// foldAnd reduces every lane to the AND of its 64 bits, leaving the
// result in bit 0. Six AND rounds.
func (t *BinTensor) foldAnd() (*BinTensor, error) {
	z := t.share
	for shift := uint(32); shift >= 1; shift >>= 1 {
		var err error
		z, err = t.s.andTensors(z, z.Rsh(shift))
		if err != nil {
			return nil, err
		}
	}
	return t.s.bin(z.AndScalar(1)), nil
}
