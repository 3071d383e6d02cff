//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package mpc

import (
	"math"
)

// Log approximates the natural logarithm with the configured method.
//
// The iterative method runs higher-order Newton steps
// y <- y - sum_{j<=order} h^j/j with h = 1 - x*exp(-y) from a fitted
// initial guess; it converges on roughly [1e-4, 250]. The lut method
// tables log over (0, 16).
func (t *ArithTensor) Log() (*ArithTensor, error) {
	fns := t.s.Cfg.Functions
	if fns.LogMethod == "lut" && lutUsable(fns.LogLUT) {
		return t.lutAffine(fns.LogLUT, 0, 4, safeLog)
	}
	return t.logIter(fns.LogIterations, fns.LogOrder)
}

func safeLog(v float64) float64 {
	if v < 1e-8 {
		v = 1e-8
	}
	return math.Log(v)
}

func (t *ArithTensor) logIter(iters, order int) (*ArithTensor, error) {
	// y0 = x/120 - 20*exp(-2x - 1) + 3
	a, err := t.MulScalar(1.0 / 120)
	if err != nil {
		return nil, err
	}
	e, err := t.MulInt(-2).AddScalar(-1).Exp()
	if err != nil {
		return nil, err
	}
	em, err := e.MulScalar(-20)
	if err != nil {
		return nil, err
	}
	y, err := a.Add(em)
	if err != nil {
		return nil, err
	}
	y = y.AddScalar(3)

	for i := 0; i < iters; i++ {
		ey, err := y.Neg().Exp()
		if err != nil {
			return nil, err
		}
		xe, err := t.Mul(ey)
		if err != nil {
			return nil, err
		}
		h := xe.Neg().AddScalar(1)

		sum := h
		hp := h
		for j := 2; j <= order; j++ {
			hp, err = hp.Mul(h)
			if err != nil {
				return nil, err
			}
			term, err := hp.MulScalar(1 / float64(j))
			if err != nil {
				return nil, err
			}
			sum, err = sum.Add(term)
			if err != nil {
				return nil, err
			}
		}
		y, err = y.Sub(sum)
		if err != nil {
			return nil, err
		}
	}
	return y, nil
}
