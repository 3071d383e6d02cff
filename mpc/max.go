//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package mpc

// Max returns the maximum over all elements as a [1] tensor. The
// log_reduction method halves the candidate vector per round; the
// pairwise method folds sequentially and is only sensible for short
// vectors.
func (t *ArithTensor) Max() (*ArithTensor, error) {
	if t.Numel() == 0 {
		return nil, &Error{
			Op:     "max",
			Reason: "empty tensor",
		}
	}
	cur := t.flatten()
	if t.s.Cfg.Functions.MaxMethod == "pairwise" {
		acc := cur.narrow(0, 1)
		for i := 1; i < cur.Numel(); i++ {
			var err error
			acc, err = maxPair(acc, cur.narrow(i, 1))
			if err != nil {
				return nil, err
			}
		}
		return acc, nil
	}

	for cur.Numel() > 1 {
		n := cur.Numel()
		h := n / 2
		m, err := maxPair(cur.narrow(0, h), cur.narrow(h, h))
		if err != nil {
			return nil, err
		}
		if n%2 == 1 {
			m = concatArith(m, cur.narrow(n-1, 1))
		}
		cur = m
	}
	return cur, nil
}

// maxPair returns the element-wise maximum a + (b-a)*[a<b].
func maxPair(a, b *ArithTensor) (*ArithTensor, error) {
	lt, err := a.ltBit(b)
	if err != nil {
		return nil, err
	}
	d, err := b.Sub(a)
	if err != nil {
		return nil, err
	}
	p, err := d.mulRaw(lt)
	if err != nil {
		return nil, err
	}
	return a.Add(p)
}
