//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package mpc

import (
	"math"
)

// Exp approximates e^x with the configured method.
//
// The limit method computes (1 + x/2^k)^(2^k) with k squarings. The
// lut method splits the representation at the binary point: one probe
// over the integer window, one over the top fraction bits, multiplied
// together; it covers non-negative inputs below 2^bits.
func (t *ArithTensor) Exp() (*ArithTensor, error) {
	fns := t.s.Cfg.Functions
	if fns.ExpMethod == "lut" && lutUsable(fns.ExpLUT) &&
		uint(fns.ExpLUT.Bits) <= t.s.Enc.Precision {
		return t.expLUT()
	}
	return t.expLimit(uint(fns.ExpIterations))
}

func (t *ArithTensor) expLimit(k uint) (*ArithTensor, error) {
	r, err := t.s.truncate(t.share, k, t.s.Cfg.Encoder.TruncMethod.Prod)
	if err != nil {
		return nil, err
	}
	r = r.AddScalar(1)
	for i := uint(0); i < k; i++ {
		r, err = r.Mul(r)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (t *ArithTensor) expLUT() (*ArithTensor, error) {
	l := t.s.Cfg.Functions.ExpLUT
	f := t.s.Enc.Precision
	b, err := t.A2B()
	if err != nil {
		return nil, err
	}

	// Integer window: the residual below it is handled by the second
	// probe, so the table holds exact edge values.
	oh, err := oneHot(b, f, l.Bits)
	if err != nil {
		return nil, err
	}
	table := make([]float64, 1<<l.Bits)
	for i := range table {
		table[i] = math.Exp(float64(i))
	}
	hi := lutDot(t.s, oh, table, t.share.Shape)

	lo, err := t.lutProbe(b, f-uint(l.Bits), l, math.Exp)
	if err != nil {
		return nil, err
	}
	return hi.Mul(lo)
}
