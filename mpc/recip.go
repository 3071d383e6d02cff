//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package mpc

// Reciprocal approximates 1/x with the configured method. When
// reciprocal_all_pos is false, the sign is split off and reapplied so
// negative inputs land in the convergence basin. Inputs outside the
// basin converge to a wrong value without any indication.
func (t *ArithTensor) Reciprocal() (*ArithTensor, error) {
	if t.s.Cfg.Functions.ReciprocalAllPos {
		return t.reciprocalPos()
	}
	sr, err := t.signRaw()
	if err != nil {
		return nil, err
	}
	ax, err := t.mulRaw(sr)
	if err != nil {
		return nil, err
	}
	r, err := ax.reciprocalPos()
	if err != nil {
		return nil, err
	}
	return r.mulRaw(sr)
}

// reciprocalPos approximates 1/x for positive x.
func (t *ArithTensor) reciprocalPos() (*ArithTensor, error) {
	fns := t.s.Cfg.Functions
	if fns.ReciprocalMethod == "log" {
		lg, err := t.logIter(fns.ReciprocalLogIters, fns.LogOrder)
		if err != nil {
			return nil, err
		}
		return lg.Neg().Exp()
	}

	// Newton-Raphson: y <- y*(2 - x*y).
	var y *ArithTensor
	if fns.ReciprocalInitial != 0 {
		y = t.constLike(fns.ReciprocalInitial)
	} else {
		// y0 = 3*exp(0.5 - x) + 0.003
		e, err := t.Neg().AddScalar(0.5).Exp()
		if err != nil {
			return nil, err
		}
		y, err = e.MulScalar(3)
		if err != nil {
			return nil, err
		}
		y = y.AddScalar(0.003)
	}
	for i := 0; i < fns.ReciprocalNRIters; i++ {
		d, err := t.Mul(y)
		if err != nil {
			return nil, err
		}
		y, err = y.Mul(d.Neg().AddScalar(2))
		if err != nil {
			return nil, err
		}
	}
	return y, nil
}

// DivTensor returns the element-wise secret quotient x/y via the
// reciprocal of y.
func (x *ArithTensor) DivTensor(y *ArithTensor) (*ArithTensor, error) {
	r, err := y.Reciprocal()
	if err != nil {
		return nil, err
	}
	return x.Mul(r)
}
