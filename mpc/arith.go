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

// ArithTensor is one party's additive share of a secret fixed-point
// tensor: the element-wise sum of all parties' shares mod 2^64 is the
// encoded plaintext. The only way back to the plaintext is a reveal.
type ArithTensor struct {
	s     *Session
	share *ring.Tensor
}

func (s *Session) arith(t *ring.Tensor) *ArithTensor {
	return &ArithTensor{
		s:     s,
		share: t,
	}
}

// Shape returns the tensor shape.
func (t *ArithTensor) Shape() []int {
	return t.share.Shape
}

// Numel returns the number of elements.
func (t *ArithTensor) Numel() int {
	return t.share.Numel()
}

// Share secret-shares the source party's values. Only src supplies
// vals; every party must pass the same shape. Source identity of the
// plaintext does not leak into the shares.
func Share(s *Session, vals []float64, shape []int, src int) (
	*ArithTensor, error) {

	var pt *ring.Tensor
	if s.Rank() == src {
		var err error
		pt, err = s.Enc.EncodeTensor(vals, shape...)
		if err != nil {
			return nil, err
		}
	}
	return ShareRing(s, pt, shape, src)
}

// ShareRing secret-shares a raw ring tensor from the src party. The
// source masks its plaintext with uniform randomness per peer; every
// other party receives one mask as its share.
func ShareRing(s *Session, pt *ring.Tensor, shape []int, src int) (
	*ArithTensor, error) {

	if err := s.validateShape("share", shape); err != nil {
		return nil, err
	}
	if s.Rank() == src {
		if pt == nil || !pt.SameShape(ring.New(shape...)) {
			return nil, &Error{
				Op:     "share",
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
			rest = rest.Sub(mask)
		}
		parts[src] = rest
		share, err := s.Comm.Scatter(parts, src)
		if err != nil {
			return nil, err
		}
		return s.arith(share), nil
	}
	share, err := s.Comm.Scatter(nil, src)
	if err != nil {
		return nil, err
	}
	if !share.SameShape(ring.New(shape...)) {
		return nil, &Error{
			Op:     "share",
			Reason: "received share does not match the given shape",
		}
	}
	return s.arith(share), nil
}

// NewPublic creates a sharing of a public tensor: rank 0 holds the
// encoded values, every other share is zero. No communication.
func NewPublic(s *Session, vals []float64, shape ...int) (
	*ArithTensor, error) {

	if s.Rank() != 0 {
		return s.arith(ring.New(shape...)), nil
	}
	pt, err := s.Enc.EncodeTensor(vals, shape...)
	if err != nil {
		return nil, err
	}
	return s.arith(pt), nil
}

// constLike returns a public-constant sharing with the shape of t:
// rank 0 holds the encoded value, every other share is zero.
func (t *ArithTensor) constLike(v float64) *ArithTensor {
	r := ring.New(t.share.Shape...)
	if t.s.Rank() == 0 {
		c := t.s.Enc.Encode(v)
		for i := range r.Data {
			r.Data[i] = c
		}
	}
	return t.s.arith(r)
}

// RevealRing opens the raw ring plaintext to all parties.
func (t *ArithTensor) RevealRing() (*ring.Tensor, error) {
	return t.s.Comm.AllReduceSum(t.share)
}

// Reveal opens the plaintext to all parties and decodes it.
func (t *ArithTensor) Reveal() ([]float64, error) {
	pt, err := t.RevealRing()
	if err != nil {
		return nil, err
	}
	return t.s.Enc.DecodeTensor(pt), nil
}

// RevealTo opens the plaintext to the dst party only; all other
// parties return nil.
func (t *ArithTensor) RevealTo(dst int) ([]float64, error) {
	shares, err := t.s.Comm.Gather(t.share, dst)
	if err != nil {
		return nil, err
	}
	if t.s.Rank() != dst {
		return nil, nil
	}
	sum := shares[0].Clone()
	for _, sh := range shares[1:] {
		sum = sum.Add(sh)
	}
	return t.s.Enc.DecodeTensor(sum), nil
}

// Item would read the tensor as a plaintext scalar. Secret values
// cannot drive local control flow, so it always fails; it exists to
// turn that misuse into a well-defined error.
func (t *ArithTensor) Item() (float64, error) {
	return 0, &Error{
		Op:     "item",
		Reason: "value is secret; reveal it first",
	}
}

// Add returns t+o. Local on shares.
func (t *ArithTensor) Add(o *ArithTensor) (*ArithTensor, error) {
	if err := t.s.checkShapes("add", t.share, o.share); err != nil {
		return nil, err
	}
	return t.s.arith(t.share.Add(o.share)), nil
}

// Sub returns t-o. Local on shares.
func (t *ArithTensor) Sub(o *ArithTensor) (*ArithTensor, error) {
	if err := t.s.checkShapes("sub", t.share, o.share); err != nil {
		return nil, err
	}
	return t.s.arith(t.share.Sub(o.share)), nil
}

// Neg returns -t.
func (t *ArithTensor) Neg() *ArithTensor {
	return t.s.arith(t.share.Neg())
}

// AddScalar adds the public value v to every element. Rank 0 applies
// the value; the sharing stays balanced because the other shares are
// untouched.
func (t *ArithTensor) AddScalar(v float64) *ArithTensor {
	if t.s.Rank() != 0 {
		return t.s.arith(t.share.Clone())
	}
	return t.s.arith(t.share.AddScalar(t.s.Enc.Encode(v)))
}

// SubScalar subtracts the public value v from every element.
func (t *ArithTensor) SubScalar(v float64) *ArithTensor {
	return t.AddScalar(-v)
}

// AddPublic adds a public tensor element-wise. Every party must pass
// the same values; rank 0 applies them.
func (t *ArithTensor) AddPublic(vals []float64) (*ArithTensor, error) {
	if len(vals) != t.Numel() {
		return nil, &Error{
			Op:     "add_public",
			Reason: "public operand size mismatch",
		}
	}
	if t.s.Rank() != 0 {
		return t.s.arith(t.share.Clone()), nil
	}
	pt, err := t.s.Enc.EncodeTensor(vals, t.share.Shape...)
	if err != nil {
		return nil, err
	}
	return t.s.arith(t.share.Add(pt)), nil
}

// MulInt multiplies by a public integer. Local on shares, no
// truncation since the scale is unchanged.
func (t *ArithTensor) MulInt(v int64) *ArithTensor {
	return t.s.arith(t.share.MulScalar(uint64(v)))
}

// MulScalar multiplies by a public real value. The double-scale
// product is truncated with the configured product method.
func (t *ArithTensor) MulScalar(v float64) (*ArithTensor, error) {
	m := t.share.MulScalar(t.s.Enc.Encode(v))
	return t.s.truncProd(m)
}

// Div divides by a public real value.
func (t *ArithTensor) Div(v float64) (*ArithTensor, error) {
	return t.MulScalar(1 / v)
}

// beaverMul opens the masked operands epsilon = x-a and delta = y-b in
// a single collective round and assembles the product share
// c + eps*b + a*delta, with the public eps*delta applied by rank 0.
func (x *ArithTensor) beaverMul(y *ArithTensor) (*ring.Tensor, error) {
	tr, err := x.s.Prov.Triple(x.share.Shape...)
	if err != nil {
		return nil, err
	}
	eps := x.share.Sub(tr.A)
	del := y.share.Sub(tr.B)
	opened, err := x.s.Comm.AllReduceSum(ring.Stack(eps, del))
	if err != nil {
		return nil, err
	}
	parts := ring.Unstack(opened)
	e, d := parts[0], parts[1]
	z := tr.C.Add(e.Mul(tr.B)).Add(tr.A.Mul(d))
	if x.s.Rank() == 0 {
		z = z.Add(e.Mul(d))
	}
	return z, nil
}

// mulRaw multiplies without truncation. Used internally when one
// operand carries raw integer values (scale 1).
func (x *ArithTensor) mulRaw(y *ArithTensor) (*ArithTensor, error) {
	if err := x.s.checkShapes("mul", x.share, y.share); err != nil {
		return nil, err
	}
	z, err := x.beaverMul(y)
	if err != nil {
		return nil, err
	}
	return x.s.arith(z), nil
}

// Mul returns the element-wise secret product. One Beaver opening
// round plus the configured product truncation.
func (x *ArithTensor) Mul(y *ArithTensor) (*ArithTensor, error) {
	if err := x.s.checkShapes("mul", x.share, y.share); err != nil {
		return nil, err
	}
	z, err := x.beaverMul(y)
	if err != nil {
		return nil, err
	}
	return x.s.truncProd(z)
}

// Square returns the element-wise secret square.
func (x *ArithTensor) Square() (*ArithTensor, error) {
	return x.Mul(x)
}

// MatMul returns the secret matrix product of x [m,k] and y [k,n].
// Both masked operands are opened in a single collective round.
func (x *ArithTensor) MatMul(y *ArithTensor) (*ArithTensor, error) {
	if len(x.share.Shape) != 2 || len(y.share.Shape) != 2 ||
		x.share.Shape[1] != y.share.Shape[0] {
		return nil, &Error{
			Op:     "matmul",
			Reason: "operands are not compatible 2-D tensors",
		}
	}
	m, k := x.share.Shape[0], x.share.Shape[1]
	n := y.share.Shape[1]
	tr, err := x.s.Prov.MatMulTriple(m, k, n)
	if err != nil {
		return nil, err
	}
	eps := x.share.Sub(tr.A)
	del := y.share.Sub(tr.B)

	joint := ring.New(m*k + k*n)
	copy(joint.Data, eps.Data)
	copy(joint.Data[m*k:], del.Data)
	opened, err := x.s.Comm.AllReduceSum(joint)
	if err != nil {
		return nil, err
	}
	e, err := ring.NewFromData(opened.Data[:m*k], m, k)
	if err != nil {
		return nil, err
	}
	d, err := ring.NewFromData(opened.Data[m*k:], k, n)
	if err != nil {
		return nil, err
	}

	eb, err := e.MatMul(tr.B)
	if err != nil {
		return nil, err
	}
	ad, err := tr.A.MatMul(d)
	if err != nil {
		return nil, err
	}
	z := tr.C.Add(eb).Add(ad)
	if x.s.Rank() == 0 {
		ed, err := e.MatMul(d)
		if err != nil {
			return nil, err
		}
		z = z.Add(ed)
	}
	return x.s.truncProd(z)
}

// Sum returns the scalar sum of all elements as a [1] tensor. Local
// on shares.
func (t *ArithTensor) Sum() *ArithTensor {
	r := ring.New(1)
	r.Data[0] = t.share.Sum()
	return t.s.arith(r)
}

// flatten returns a [numel] view of the tensor.
func (t *ArithTensor) flatten() *ArithTensor {
	r, _ := ring.NewFromData(t.share.Data, t.share.Numel())
	return t.s.arith(r)
}

// narrow returns elements [start, start+count) of the flattened
// tensor. Local on shares.
func (t *ArithTensor) narrow(start, count int) *ArithTensor {
	r := ring.New(count)
	copy(r.Data, t.share.Data[start:start+count])
	return t.s.arith(r)
}

// concatArith concatenates flattened tensors.
func concatArith(ts ...*ArithTensor) *ArithTensor {
	n := 0
	for _, t := range ts {
		n += t.Numel()
	}
	r := ring.New(n)
	pos := 0
	for _, t := range ts {
		copy(r.Data[pos:], t.share.Data)
		pos += t.Numel()
	}
	return ts[0].s.arith(r)
}
