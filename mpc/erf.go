//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package mpc

import (
	"math"
)

// Erf approximates the error function: a truncated Taylor series of
// erf_iterations terms, or a table over [-4, 4). The Taylor series
// diverges for |x| beyond roughly 3; tanh-like saturation is not
// enforced.
func (t *ArithTensor) Erf() (*ArithTensor, error) {
	fns := t.s.Cfg.Functions
	if fns.ErfMethod == "lut" && lutUsable(fns.ErfLUT) {
		return t.lutAffine(fns.ErfLUT, -4, 3, math.Erf)
	}

	x2, err := t.Square()
	if err != nil {
		return nil, err
	}
	c := 2 / math.Sqrt(math.Pi)
	res, err := t.MulScalar(c)
	if err != nil {
		return nil, err
	}
	term := t
	fact := 1.0
	for n := 1; n < fns.ErfIterations; n++ {
		term, err = term.Mul(x2)
		if err != nil {
			return nil, err
		}
		fact *= float64(n)
		sign := 1.0
		if n%2 == 1 {
			sign = -1
		}
		tt, err := term.MulScalar(sign * c / (fact * float64(2*n+1)))
		if err != nil {
			return nil, err
		}
		res, err = res.Add(tt)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Gelu approximates the Gaussian error linear unit
// x/2*(1 + erf(x/sqrt(2))), or a table over [-4, 4).
func (t *ArithTensor) Gelu() (*ArithTensor, error) {
	fns := t.s.Cfg.Functions
	if fns.GeluMethod == "lut" && lutUsable(fns.GeluLUT) {
		return t.lutAffine(fns.GeluLUT, -4, 3, func(v float64) float64 {
			return v / 2 * (1 + math.Erf(v/math.Sqrt2))
		})
	}
	e, err := t.MulScalar(1 / math.Sqrt2)
	if err != nil {
		return nil, err
	}
	e, err = e.Erf()
	if err != nil {
		return nil, err
	}
	h, err := t.MulScalar(0.5)
	if err != nil {
		return nil, err
	}
	return h.Mul(e.AddScalar(1))
}

// Silu approximates the sigmoid linear unit x*sigmoid(x), or a table
// over [-8, 8).
func (t *ArithTensor) Silu() (*ArithTensor, error) {
	fns := t.s.Cfg.Functions
	if fns.SiluMethod == "lut" && lutUsable(fns.SiluLUT) {
		return t.lutAffine(fns.SiluLUT, -8, 4, func(v float64) float64 {
			return v * logistic(v)
		})
	}
	sg, err := t.Sigmoid()
	if err != nil {
		return nil, err
	}
	return t.Mul(sg)
}
