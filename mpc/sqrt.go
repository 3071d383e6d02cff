//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package mpc

import (
	"math"
)

// InvSqrt approximates 1/sqrt(x) for positive x with the configured
// method: Newton iterations y <- y*(3 - x*y^2)/2 from a fitted
// exponential initial guess, or a table over (0, 4).
func (t *ArithTensor) InvSqrt() (*ArithTensor, error) {
	fns := t.s.Cfg.Functions
	if fns.InvSqrtMethod == "lut" && lutUsable(fns.SqrtLUT) {
		return t.lutAffine(fns.SqrtLUT, 0, 2, safeInvSqrt)
	}

	var y *ArithTensor
	if fns.SqrtInitial != 0 {
		y = t.constLike(fns.SqrtInitial)
	} else {
		// y0 = 2.2*exp(-(x/2 + 0.2)) + 0.2
		h, err := t.MulScalar(0.5)
		if err != nil {
			return nil, err
		}
		e, err := h.AddScalar(0.2).Neg().Exp()
		if err != nil {
			return nil, err
		}
		y, err = e.MulScalar(2.2)
		if err != nil {
			return nil, err
		}
		y = y.AddScalar(0.2)
	}
	for i := 0; i < fns.SqrtNRIters; i++ {
		y2, err := y.Square()
		if err != nil {
			return nil, err
		}
		xy2, err := t.Mul(y2)
		if err != nil {
			return nil, err
		}
		y, err = y.Mul(xy2.Neg().AddScalar(3))
		if err != nil {
			return nil, err
		}
		y, err = y.MulScalar(0.5)
		if err != nil {
			return nil, err
		}
	}
	return y, nil
}

// Sqrt approximates sqrt(x) for non-negative x: a table over (0, 4)
// or x*invsqrt(x).
func (t *ArithTensor) Sqrt() (*ArithTensor, error) {
	fns := t.s.Cfg.Functions
	if fns.SqrtMethod == "lut" && lutUsable(fns.SqrtLUT) {
		return t.lutAffine(fns.SqrtLUT, 0, 2, math.Sqrt)
	}
	is, err := t.InvSqrt()
	if err != nil {
		return nil, err
	}
	return t.Mul(is)
}

func safeInvSqrt(v float64) float64 {
	if v < 1e-8 {
		v = 1e-8
	}
	return 1 / math.Sqrt(v)
}
