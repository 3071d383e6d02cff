//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package mpc

import (
	"math"

	"github.com/privten/privten/ring"
)

// Cos approximates the cosine with the configured trigonometry
// method: complex-exponential doubling or a table over [-4, 4).
func (t *ArithTensor) Cos() (*ArithTensor, error) {
	fns := t.s.Cfg.Functions
	if fns.TrigonometryMethod == "lut" && lutUsable(fns.TrigonometryLUT) {
		return t.lutAffine(fns.TrigonometryLUT, -4, 3, math.Cos)
	}
	c, _, err := t.cosSin(uint(fns.TrigonometryIterations))
	return c, err
}

// Sin approximates the sine.
func (t *ArithTensor) Sin() (*ArithTensor, error) {
	fns := t.s.Cfg.Functions
	if fns.TrigonometryMethod == "lut" && lutUsable(fns.TrigonometryLUT) {
		return t.lutAffine(fns.TrigonometryLUT, -4, 3, math.Sin)
	}
	_, s, err := t.cosSin(uint(fns.TrigonometryIterations))
	return s, err
}

// cosSin computes cos and sin together by squaring the complex
// exponential: the angle is divided by 2^k, approximated with the
// small-angle series, and doubled back k times with
// (c, s) <- (c^2 - s^2, 2cs). The three products of each doubling are
// batched into one Beaver round.
func (t *ArithTensor) cosSin(k uint) (*ArithTensor, *ArithTensor, error) {
	th, err := t.s.truncate(t.share, k, t.s.Cfg.Encoder.TruncMethod.Prod)
	if err != nil {
		return nil, nil, err
	}
	th2, err := th.Square()
	if err != nil {
		return nil, nil, err
	}
	half, err := th2.MulScalar(0.5)
	if err != nil {
		return nil, nil, err
	}
	c, err := t.constLike(1).Sub(half)
	if err != nil {
		return nil, nil, err
	}
	s := th

	for i := uint(0); i < k; i++ {
		left := t.s.arith(ring.Stack(c.share, s.share, c.share))
		right := t.s.arith(ring.Stack(c.share, s.share, s.share))
		prod, err := left.Mul(right)
		if err != nil {
			return nil, nil, err
		}
		parts := ring.Unstack(prod.share)
		c2, s2, cs := parts[0], parts[1], parts[2]
		c = t.s.arith(c2.Sub(s2))
		s = t.s.arith(cs).MulInt(2)
	}
	return c, s, nil
}
