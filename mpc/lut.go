//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package mpc

import (
	"math"

	"github.com/privten/privten/config"
	"github.com/privten/privten/ring"
)

// Lookup-table evaluation. The index is a window of bits of the
// fixed-point representation, extracted through one A2B conversion. A
// one-hot selector over the 2^bits table rows is built with a pairwise
// secret product tree, and the public table is folded in with a local
// dot product. Haar tables hold piecewise-constant cell averages;
// biorthogonal tables add a slope term interpolated against the
// sub-cell residual.
//
// Inputs outside the table domain wrap around the index window and
// read an unrelated row. That is inherent to the construction and is
// never detected.

func lutUsable(l config.LUT) bool {
	return l.Bits <= l.MaxBits
}

// oneHot builds the [2^bits, numel] raw 0/1 selector over the index
// window [lowBit, lowBit+bits) of the binary sharing b. One secret
// product round per index bit after a single plane conversion.
func oneHot(b *BinTensor, lowBit uint, bits int) (*ArithTensor, error) {
	s := b.s
	numel := b.Numel()

	local := ring.New(bits, numel)
	for j := 0; j < bits; j++ {
		for i, v := range b.share.Data {
			local.Data[j*numel+i] = (v >> (lowBit + uint(j))) & 1
		}
	}
	idx, err := xorToArith(s, local, []int{bits, numel})
	if err != nil {
		return nil, err
	}

	bitRow := func(j int) *ring.Tensor {
		r := ring.New(numel)
		copy(r.Data, idx.share.Data[j*numel:(j+1)*numel])
		return r
	}
	notRow := func(r *ring.Tensor) *ring.Tensor {
		n := r.Neg()
		if s.Rank() == 0 {
			n = n.AddScalar(1)
		}
		return n
	}

	a0 := bitRow(0)
	oh := ring.New(2, numel)
	copy(oh.Data, notRow(a0).Data)
	copy(oh.Data[numel:], a0.Data)

	for j := 1; j < bits; j++ {
		rows := 1 << j
		aj := bitRow(j)
		naj := notRow(aj)

		// Selector for this level: the current rows against the
		// complemented bit, then against the bit itself.
		sel := ring.New(2*rows, numel)
		for r := 0; r < rows; r++ {
			copy(sel.Data[r*numel:], naj.Data)
			copy(sel.Data[(rows+r)*numel:], aj.Data)
		}
		left := ring.New(2*rows, numel)
		copy(left.Data, oh.Data)
		copy(left.Data[rows*numel:], oh.Data)

		prod, err := s.arith(left).mulRaw(s.arith(sel))
		if err != nil {
			return nil, err
		}
		oh = prod.share
	}
	return s.arith(oh), nil
}

// lutDot folds a public real-valued table into the raw one-hot
// selector. Local on shares; the result carries the fixed-point
// scale.
func lutDot(s *Session, oh *ArithTensor, table []float64,
	shape []int) *ArithTensor {

	numel := ring.Numel(shape)
	out := ring.New(shape...)
	for t, v := range table {
		c := s.Enc.Encode(v)
		if c == 0 {
			continue
		}
		for i := 0; i < numel; i++ {
			out.Data[i] += oh.share.Data[t*numel+i] * c
		}
	}
	return s.arith(out)
}

// residual converts the bits of b below lowBit into an arithmetic
// sharing. In fixed-point terms the result is the sub-cell offset of
// the input, already at the encoder scale.
func residual(b *BinTensor, lowBit uint) (*ArithTensor, error) {
	s := b.s
	numel := b.Numel()
	if lowBit == 0 {
		return s.arith(ring.New(b.share.Shape...)), nil
	}
	local := ring.New(int(lowBit), numel)
	for j := uint(0); j < lowBit; j++ {
		for i, v := range b.share.Data {
			local.Data[int(j)*numel+i] = (v >> j) & 1
		}
	}
	planes, err := xorToArith(s, local, []int{int(lowBit), numel})
	if err != nil {
		return nil, err
	}
	out := ring.New(b.share.Shape...)
	for j := uint(0); j < lowBit; j++ {
		for i := range out.Data {
			out.Data[i] += planes.share.Data[int(j)*numel+i] << j
		}
	}
	return s.arith(out), nil
}

// lutProbe evaluates fn over the index window [lowBit, lowBit+bits)
// of the binary sharing b. fn receives the window offset in real
// units; the haar kind reads the cell midpoint, the bior kind
// interpolates value plus slope against the sub-cell residual.
func (t *ArithTensor) lutProbe(b *BinTensor, lowBit uint, l config.LUT,
	fn func(float64) float64) (*ArithTensor, error) {

	s := t.s
	oh, err := oneHot(b, lowBit, l.Bits)
	if err != nil {
		return nil, err
	}
	rows := 1 << l.Bits
	step := math.Ldexp(1, int(lowBit)-int(s.Enc.Precision))

	switch l.Kind {
	case "haar":
		table := make([]float64, rows)
		for i := range table {
			table[i] = fn((float64(i) + 0.5) * step)
		}
		return lutDot(s, oh, table, t.share.Shape), nil

	case "bior":
		vals := make([]float64, rows)
		slopes := make([]float64, rows)
		for i := range vals {
			x0 := float64(i) * step
			vals[i] = fn(x0)
			slopes[i] = (fn(x0+step) - vals[i]) / step
		}
		base := lutDot(s, oh, vals, t.share.Shape)
		slope := lutDot(s, oh, slopes, t.share.Shape)
		res, err := residual(b, lowBit)
		if err != nil {
			return nil, err
		}
		prod, err := slope.beaverMul(res)
		if err != nil {
			return nil, err
		}
		corr, err := s.truncLUT(prod)
		if err != nil {
			return nil, err
		}
		return base.Add(corr)

	default:
		return nil, &Error{
			Op:     "lut",
			Reason: "unknown table kind " + l.Kind,
		}
	}
}

// lutAffine evaluates fn over the dyadic domain
// [lo, lo+2^widthLog) with one table probe: the input is shifted to
// the domain origin and the top index bits of the offset select the
// row.
func (t *ArithTensor) lutAffine(l config.LUT, lo float64, widthLog int,
	fn func(float64) float64) (*ArithTensor, error) {

	lowBit := int(t.s.Enc.Precision) + widthLog - l.Bits
	if lowBit < 0 || lowBit+l.Bits > 63 {
		return nil, &Error{
			Op:     "lut",
			Reason: "index window does not fit the representation",
		}
	}
	u := t.AddScalar(-lo)
	b, err := u.A2B()
	if err != nil {
		return nil, err
	}
	return u.lutProbe(b, uint(lowBit), l, func(v float64) float64 {
		return fn(v + lo)
	})
}
