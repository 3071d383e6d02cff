//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package mpc

import (
	"math"
)

// Sigmoid approximates the logistic function with the configured
// sigmoid_tanh method: the all-positive reciprocal of 1+e^-x, the
// Chebyshev tanh identity sigmoid(x) = (tanh(x/2)+1)/2, or a table
// over [-8, 8).
func (t *ArithTensor) Sigmoid() (*ArithTensor, error) {
	fns := t.s.Cfg.Functions
	switch {
	case fns.SigmoidTanhMethod == "lut" && lutUsable(fns.SigmoidTanhLUT):
		return t.lutAffine(fns.SigmoidTanhLUT, -8, 4, logistic)

	case fns.SigmoidTanhMethod == "chebyshev":
		h, err := t.MulScalar(0.5)
		if err != nil {
			return nil, err
		}
		th, err := h.chebyshevTanh(fns.SigmoidTanhTerms)
		if err != nil {
			return nil, err
		}
		return th.AddScalar(1).MulScalar(0.5)

	default:
		// 1/(1 + e^-x); the denominator is always positive, so the
		// sign split is skipped.
		e, err := t.Neg().Exp()
		if err != nil {
			return nil, err
		}
		return e.AddScalar(1).reciprocalPos()
	}
}

// Tanh approximates the hyperbolic tangent: 2*sigmoid(2x)-1, a
// Chebyshev series of sigmoid_tanh_terms coefficients, or a table over
// [-8, 8).
func (t *ArithTensor) Tanh() (*ArithTensor, error) {
	fns := t.s.Cfg.Functions
	switch {
	case fns.SigmoidTanhMethod == "lut" && lutUsable(fns.SigmoidTanhLUT):
		return t.lutAffine(fns.SigmoidTanhLUT, -8, 4, math.Tanh)

	case fns.SigmoidTanhMethod == "chebyshev":
		return t.chebyshevTanh(fns.SigmoidTanhTerms)

	default:
		s, err := t.MulInt(2).Sigmoid()
		if err != nil {
			return nil, err
		}
		return s.MulInt(2).AddScalar(-1), nil
	}
}

func logistic(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

// tanhInterval is the approximation interval [-L, L] of the Chebyshev
// series; tanh saturates outside it.
const tanhInterval = 4.0

// chebyshevTanh evaluates a Chebyshev series of tanh on the scaled
// input with the T_{k+1} = 2u*T_k - T_{k-1} recurrence, one secret
// product per term.
func (t *ArithTensor) chebyshevTanh(terms int) (*ArithTensor, error) {
	coeffs := chebyshevCoeffs(terms, func(v float64) float64 {
		return math.Tanh(v * tanhInterval)
	})

	u, err := t.MulScalar(1 / tanhInterval)
	if err != nil {
		return nil, err
	}
	res := t.constLike(coeffs[0] / 2)
	if terms == 1 {
		return res, nil
	}

	tPrev := t.constLike(1)
	tCur := u
	for k := 1; k < terms; k++ {
		if coeffs[k] != 0 {
			term, err := tCur.MulScalar(coeffs[k])
			if err != nil {
				return nil, err
			}
			res, err = res.Add(term)
			if err != nil {
				return nil, err
			}
		}
		if k+1 == terms {
			break
		}
		p, err := u.Mul(tCur)
		if err != nil {
			return nil, err
		}
		tNext, err := p.MulInt(2).Sub(tPrev)
		if err != nil {
			return nil, err
		}
		tPrev, tCur = tCur, tNext
	}
	return res, nil
}

// chebyshevCoeffs samples fn at the Chebyshev nodes of [-1, 1] and
// returns the first n series coefficients.
func chebyshevCoeffs(n int, fn func(float64) float64) []float64 {
	m := 4 * n
	if m < 64 {
		m = 64
	}
	samples := make([]float64, m)
	for i := 0; i < m; i++ {
		samples[i] = fn(math.Cos(math.Pi * (float64(i) + 0.5) / float64(m)))
	}
	coeffs := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i := 0; i < m; i++ {
			sum += samples[i] *
				math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/float64(m))
		}
		coeffs[k] = 2 * sum / float64(m)
	}
	return coeffs
}
