//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package mpc

import (
	"github.com/privten/privten/config"
	"github.com/privten/privten/ring"
)

// truncate divides the shared value by 2^bits with sign extension.
//
// The probabilistic method is local: rank 0 shifts its share
// arithmetically and every other party shifts the negation of its
// share. The carry bits lost between shares make the result off by at
// most one least-significant unit per party, and a value within 2^bits
// of the ring boundary wraps.
//
// The exact method consumes a truncation pair (r, r>>bits): the
// parties open z+r and take shares of (z+r)>>bits - r>>bits, rank 0
// applying the public shifted opening.
func (s *Session) truncate(z *ring.Tensor, bits uint, method string) (
	*ArithTensor, error) {

	switch method {
	case config.TruncProbabilistic:
		if s.Rank() == 0 {
			return s.arith(z.Ars(bits)), nil
		}
		return s.arith(z.Neg().Ars(bits).Neg()), nil

	case config.TruncExact:
		pair, err := s.Prov.TruncPair(bits, z.Shape...)
		if err != nil {
			return nil, err
		}
		opened, err := s.Comm.AllReduceSum(z.Add(pair.R))
		if err != nil {
			return nil, err
		}
		res := pair.RShift.Neg()
		if s.Rank() == 0 {
			res = res.Add(opened.Ars(bits))
		}
		return s.arith(res), nil

	default:
		return nil, &Error{
			Op:     "truncate",
			Reason: "unknown truncation method " + method,
		}
	}
}

// truncProd rescales a double-scale product share back to the encoder
// precision with the configured product truncation method.
func (s *Session) truncProd(z *ring.Tensor) (*ArithTensor, error) {
	return s.truncate(z, s.Enc.Precision, s.Cfg.Encoder.TruncMethod.Prod)
}

// truncLUT rescales with the table-evaluation truncation method.
func (s *Session) truncLUT(z *ring.Tensor) (*ArithTensor, error) {
	return s.truncate(z, s.Enc.Precision, s.Cfg.Encoder.TruncMethod.LUT)
}
