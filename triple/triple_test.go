//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package triple

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/privten/privten/comm"
	"github.com/privten/privten/ring"
)

const testKeyBits = 512

// collect runs fn per rank and returns the per-rank results for
// cross-party verification.
func collect(t *testing.T, n int,
	fn func(c *comm.Communicator) (*Triple, error)) []*Triple {

	t.Helper()
	comms := comm.Local(n, zerolog.Nop())
	out := make([]*Triple, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i, c := range comms {
		wg.Add(1)
		go func(i int, c *comm.Communicator) {
			defer wg.Done()
			out[i], errs[i] = fn(c)
		}(i, c)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	for _, c := range comms {
		c.Close()
	}
	return out
}

func sumShares(ts []*Triple, get func(*Triple) *ring.Tensor) *ring.Tensor {
	acc := get(ts[0]).Clone()
	for _, tr := range ts[1:] {
		acc = acc.Add(get(tr))
	}
	return acc
}

func xorShares(ts []*Triple, get func(*Triple) *ring.Tensor) *ring.Tensor {
	acc := get(ts[0]).Clone()
	for _, tr := range ts[1:] {
		acc = acc.Xor(get(tr))
	}
	return acc
}

func TestTFPTriple(t *testing.T) {
	for _, n := range []int{2, 3} {
		shares := collect(t, n, func(c *comm.Communicator) (*Triple, error) {
			p, err := NewTFP(c)
			if err != nil {
				return nil, err
			}
			return p.Triple(2, 3)
		})
		a := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.A })
		b := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.B })
		c := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.C })
		require.Equal(t, a.Mul(b).Data, c.Data)
	}
}

func TestTFPMatMulTriple(t *testing.T) {
	shares := collect(t, 3, func(c *comm.Communicator) (*Triple, error) {
		p, err := NewTFP(c)
		if err != nil {
			return nil, err
		}
		return p.MatMulTriple(2, 3, 2)
	})
	a := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.A })
	b := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.B })
	c := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.C })
	ab, err := a.MatMul(b)
	require.NoError(t, err)
	require.Equal(t, ab.Data, c.Data)
}

func TestTFPBitTriple(t *testing.T) {
	shares := collect(t, 3, func(c *comm.Communicator) (*Triple, error) {
		p, err := NewTFP(c)
		if err != nil {
			return nil, err
		}
		bt, err := p.BitTriple(4)
		if err != nil {
			return nil, err
		}
		return &Triple{A: bt.A, B: bt.B, C: bt.C}, nil
	})
	a := xorShares(shares, func(tr *Triple) *ring.Tensor { return tr.A })
	b := xorShares(shares, func(tr *Triple) *ring.Tensor { return tr.B })
	c := xorShares(shares, func(tr *Triple) *ring.Tensor { return tr.C })
	require.Equal(t, a.And(b).Data, c.Data)
}

func TestTFPTruncPair(t *testing.T) {
	shares := collect(t, 2, func(c *comm.Communicator) (*Triple, error) {
		p, err := NewTFP(c)
		if err != nil {
			return nil, err
		}
		pair, err := p.TruncPair(16, 3)
		if err != nil {
			return nil, err
		}
		return &Triple{A: pair.R, B: pair.RShift}, nil
	})
	r := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.A })
	rs := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.B })
	require.Equal(t, r.Ars(16).Data, rs.Data)
}

func TestTFPStreamsStayAligned(t *testing.T) {
	// Consuming several correlations in sequence must keep the dealer
	// and party streams in lockstep.
	shares := collect(t, 2, func(c *comm.Communicator) (*Triple, error) {
		p, err := NewTFP(c)
		if err != nil {
			return nil, err
		}
		if _, err := p.Triple(2); err != nil {
			return nil, err
		}
		if _, err := p.BitTriple(5); err != nil {
			return nil, err
		}
		if _, err := p.TruncPair(8, 3); err != nil {
			return nil, err
		}
		return p.Triple(4)
	})
	a := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.A })
	b := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.B })
	c := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.C })
	require.Equal(t, a.Mul(b).Data, c.Data)
}

func TestOTTriple(t *testing.T) {
	shares := collect(t, 2, func(c *comm.Communicator) (*Triple, error) {
		p, err := NewOT(c, testKeyBits)
		if err != nil {
			return nil, err
		}
		return p.Triple(2)
	})
	a := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.A })
	b := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.B })
	c := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.C })
	require.Equal(t, a.Mul(b).Data, c.Data)
}

func TestOTMatMulTriple(t *testing.T) {
	shares := collect(t, 2, func(c *comm.Communicator) (*Triple, error) {
		p, err := NewOT(c, testKeyBits)
		if err != nil {
			return nil, err
		}
		return p.MatMulTriple(2, 2, 2)
	})
	a := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.A })
	b := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.B })
	c := sumShares(shares, func(tr *Triple) *ring.Tensor { return tr.C })
	ab, err := a.MatMul(b)
	require.NoError(t, err)
	require.Equal(t, ab.Data, c.Data)
}

func TestOTBitTriple(t *testing.T) {
	shares := collect(t, 2, func(c *comm.Communicator) (*Triple, error) {
		p, err := NewOT(c, testKeyBits)
		if err != nil {
			return nil, err
		}
		bt, err := p.BitTriple(2)
		if err != nil {
			return nil, err
		}
		return &Triple{A: bt.A, B: bt.B, C: bt.C}, nil
	})
	a := xorShares(shares, func(tr *Triple) *ring.Tensor { return tr.A })
	b := xorShares(shares, func(tr *Triple) *ring.Tensor { return tr.B })
	c := xorShares(shares, func(tr *Triple) *ring.Tensor { return tr.C })
	require.Equal(t, a.And(b).Data, c.Data)
}

func TestOTNeedsTwoParties(t *testing.T) {
	comms := comm.Local(3, zerolog.Nop())
	defer func() {
		for _, c := range comms {
			c.Close()
		}
	}()
	_, err := NewOT(comms[0], testKeyBits)
	require.Error(t, err)
}

func TestOTTruncPairUnsupported(t *testing.T) {
	collect(t, 2, func(c *comm.Communicator) (*Triple, error) {
		p, err := NewOT(c, testKeyBits)
		if err != nil {
			return nil, err
		}
		if _, err := p.TruncPair(16, 2); err == nil {
			return nil, fmt.Errorf("trunc pair unexpectedly succeeded")
		}
		return &Triple{}, nil
	})
}
