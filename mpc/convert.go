//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package mpc

import (
	"github.com/privten/privten/ring"
)

// A2B converts an additive sharing to an XOR sharing of the same ring
// words. Every party XOR-shares its own additive share and the
// sharings are summed with a tree of binary adders.
func (t *ArithTensor) A2B() (*BinTensor, error) {
	terms := make([]*BinTensor, t.s.WorldSize())
	for i := range terms {
		var pt *ring.Tensor
		if t.s.Rank() == i {
			pt = t.share
		}
		var err error
		terms[i], err = ShareBitsRing(t.s, pt, t.share.Shape, i)
		if err != nil {
			return nil, err
		}
	}
	for len(terms) > 1 {
		var next []*BinTensor
		for i := 0; i+1 < len(terms); i += 2 {
			sum, err := terms[i].Add(terms[i+1])
			if err != nil {
				return nil, err
			}
			next = append(next, sum)
		}
		if len(terms)%2 == 1 {
			next = append(next, terms[len(terms)-1])
		}
		terms = next
	}
	return terms[0], nil
}

// xorToArith arithmetically shares each party's local 0/1 tensor and
// folds the sharings with x XOR y = x + y - 2xy pairwise. The result
// is a raw arithmetic sharing of the XOR over all parties.
func xorToArith(s *Session, local *ring.Tensor, shape []int) (
	*ArithTensor, error) {

	terms := make([]*ArithTensor, s.WorldSize())
	for i := range terms {
		var pt *ring.Tensor
		if s.Rank() == i {
			pt = local
		}
		var err error
		terms[i], err = ShareRing(s, pt, shape, i)
		if err != nil {
			return nil, err
		}
	}
	for len(terms) > 1 {
		var next []*ArithTensor
		for i := 0; i+1 < len(terms); i += 2 {
			a, b := terms[i], terms[i+1]
			prod, err := a.mulRaw(b)
			if err != nil {
				return nil, err
			}
			c := a.share.Add(b.share).Sub(prod.share.MulScalar(2))
			next = append(next, s.arith(c))
		}
		if len(terms)%2 == 1 {
			next = append(next, terms[len(terms)-1])
		}
		terms = next
	}
	return terms[0], nil
}

// B2A converts an XOR sharing to an additive sharing of the same ring
// words. Every party's 64 bit planes are arithmetically shared and
// XOR-folded at once; the weighted recombination by powers of two is
// local.
func (t *BinTensor) B2A() (*ArithTensor, error) {
	numel := t.Numel()
	local := ring.New(64, numel)
	for j := uint(0); j < 64; j++ {
		for i, v := range t.share.Data {
			local.Data[int(j)*numel+i] = (v >> j) & 1
		}
	}
	planes, err := xorToArith(t.s, local, []int{64, numel})
	if err != nil {
		return nil, err
	}
	out := ring.New(t.share.Shape...)
	for j := uint(0); j < 64; j++ {
		for i := range out.Data {
			out.Data[i] += planes.share.Data[int(j)*numel+i] << j
		}
	}
	return t.s.arith(out), nil
}

// bitToArith converts bit j of every lane into a raw arithmetic 0/1
// sharing.
func (t *BinTensor) bitToArith(j uint) (*ArithTensor, error) {
	return xorToArith(t.s, t.share.Bit(j), t.share.Shape)
}

// msbBit returns the raw arithmetic sharing of the sign bit of every
// element.
func (t *ArithTensor) msbBit() (*ArithTensor, error) {
	b, err := t.A2B()
	if err != nil {
		return nil, err
	}
	return b.bitToArith(63)
}

// oneMinusRaw returns 1-t on raw integer shares: rank 0 applies the
// public one.
func (t *ArithTensor) oneMinusRaw() *ArithTensor {
	n := t.share.Neg()
	if t.s.Rank() == 0 {
		n = n.AddScalar(1)
	}
	return t.s.arith(n)
}

// rawToFixed rescales a raw 0/1 (or small integer) sharing to the
// fixed-point encoding. Local on shares.
func (t *ArithTensor) rawToFixed() *ArithTensor {
	return t.s.arith(t.share.Lsh(t.s.Enc.Precision))
}

// ltBit returns the raw 0/1 sharing of x < y via the sign bit of the
// difference.
func (x *ArithTensor) ltBit(y *ArithTensor) (*ArithTensor, error) {
	d, err := x.Sub(y)
	if err != nil {
		return nil, err
	}
	return d.msbBit()
}

// eqBit returns the raw 0/1 sharing of x == y: the difference is
// converted to bits and all complemented bits are AND-folded.
func (x *ArithTensor) eqBit(y *ArithTensor) (*ArithTensor, error) {
	d, err := x.Sub(y)
	if err != nil {
		return nil, err
	}
	b, err := d.A2B()
	if err != nil {
		return nil, err
	}
	z, err := b.Not().foldAnd()
	if err != nil {
		return nil, err
	}
	return z.bitToArith(0)
}

// LT returns the fixed-point 0/1 indicator of x < y.
func (x *ArithTensor) LT(y *ArithTensor) (*ArithTensor, error) {
	b, err := x.ltBit(y)
	if err != nil {
		return nil, err
	}
	return b.rawToFixed(), nil
}

// GT returns the fixed-point 0/1 indicator of x > y.
func (x *ArithTensor) GT(y *ArithTensor) (*ArithTensor, error) {
	return y.LT(x)
}

// LE returns the fixed-point 0/1 indicator of x <= y.
func (x *ArithTensor) LE(y *ArithTensor) (*ArithTensor, error) {
	b, err := y.ltBit(x)
	if err != nil {
		return nil, err
	}
	return b.oneMinusRaw().rawToFixed(), nil
}

// GE returns the fixed-point 0/1 indicator of x >= y.
func (x *ArithTensor) GE(y *ArithTensor) (*ArithTensor, error) {
	b, err := x.ltBit(y)
	if err != nil {
		return nil, err
	}
	return b.oneMinusRaw().rawToFixed(), nil
}

// EQ returns the fixed-point 0/1 indicator of x == y.
func (x *ArithTensor) EQ(y *ArithTensor) (*ArithTensor, error) {
	b, err := x.eqBit(y)
	if err != nil {
		return nil, err
	}
	return b.rawToFixed(), nil
}

// NE returns the fixed-point 0/1 indicator of x != y.
func (x *ArithTensor) NE(y *ArithTensor) (*ArithTensor, error) {
	b, err := x.eqBit(y)
	if err != nil {
		return nil, err
	}
	return b.oneMinusRaw().rawToFixed(), nil
}

// signRaw returns the raw integer sharing of sign(x) as 1-2*msb, so
// -1 for negative and +1 otherwise.
func (t *ArithTensor) signRaw() (*ArithTensor, error) {
	b, err := t.msbBit()
	if err != nil {
		return nil, err
	}
	sr := b.share.Lsh(1).Neg()
	if t.s.Rank() == 0 {
		sr = sr.AddScalar(1)
	}
	return t.s.arith(sr), nil
}

// Sign returns the fixed-point sign of every element: -1 for negative
// values, +1 otherwise.
func (t *ArithTensor) Sign() (*ArithTensor, error) {
	sr, err := t.signRaw()
	if err != nil {
		return nil, err
	}
	return sr.rawToFixed(), nil
}

// Abs returns the element-wise absolute value x*sign(x).
func (t *ArithTensor) Abs() (*ArithTensor, error) {
	sr, err := t.signRaw()
	if err != nil {
		return nil, err
	}
	return t.mulRaw(sr)
}

// ReLU returns x for non-negative elements and zero otherwise.
func (t *ArithTensor) ReLU() (*ArithTensor, error) {
	b, err := t.msbBit()
	if err != nil {
		return nil, err
	}
	return t.mulRaw(b.oneMinusRaw())
}

// Select returns b + (a-b)*c element-wise, so a where the fixed-point
// condition c is one and b where it is zero.
func Select(c, a, b *ArithTensor) (*ArithTensor, error) {
	d, err := a.Sub(b)
	if err != nil {
		return nil, err
	}
	p, err := d.Mul(c)
	if err != nil {
		return nil, err
	}
	return b.Add(p)
}
