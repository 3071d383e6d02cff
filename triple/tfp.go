//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package triple

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/xerrors"

	"github.com/privten/privten/comm"
	"github.com/privten/privten/ring"
)

// TFP is the trusted-first-party provider: rank 0 deals the
// correlated randomness. At setup the dealer sends every other party
// a ChaCha20 seed; afterwards each party draws its shares from its
// local stream and the dealer, who replays every stream, keeps the
// correcting share. Generating a triple therefore costs no
// communication. The dealer sees all randomness, so this provider is
// only secure when rank 0 is trusted (simulation and semi-honest
// deployments).
type TFP struct {
	comm    *comm.Communicator
	streams []*prg
	self    *prg
}

var _ Provider = &TFP{}

// NewTFP creates the trusted-first-party provider and runs the seed
// exchange.
func NewTFP(c *comm.Communicator) (*TFP, error) {
	p := &TFP{
		comm: c,
	}
	if c.Rank() == 0 {
		p.streams = make([]*prg, c.WorldSize())
		parts := make([]*ring.Tensor, c.WorldSize())
		parts[0] = ring.New(0)
		for peer := 1; peer < c.WorldSize(); peer++ {
			seed := make([]byte, chacha20.KeySize)
			if _, err := rand.Read(seed); err != nil {
				return nil, err
			}
			parts[peer] = packSeed(seed)
			stream, err := newPRG(seed)
			if err != nil {
				return nil, err
			}
			p.streams[peer] = stream
		}
		if _, err := c.Scatter(parts, 0); err != nil {
			return nil, err
		}
		return p, nil
	}
	t, err := c.Scatter(nil, 0)
	if err != nil {
		return nil, err
	}
	seed, err := unpackSeed(t)
	if err != nil {
		return nil, err
	}
	p.self, err = newPRG(seed)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Triple returns a fresh multiplication triple.
func (p *TFP) Triple(shape ...int) (*Triple, error) {
	return p.deal(shape, shape, shape,
		func(a, b *ring.Tensor) (*ring.Tensor, error) {
			return a.Mul(b), nil
		})
}

// MatMulTriple returns a fresh matrix-product triple.
func (p *TFP) MatMulTriple(m, k, n int) (*Triple, error) {
	return p.deal([]int{m, k}, []int{k, n}, []int{m, n},
		func(a, b *ring.Tensor) (*ring.Tensor, error) {
			return a.MatMul(b)
		})
}

func (p *TFP) deal(shapeA, shapeB, shapeC []int,
	mul func(a, b *ring.Tensor) (*ring.Tensor, error)) (*Triple, error) {

	if p.comm.Rank() != 0 {
		a, err := ring.Rand(p.self, shapeA...)
		if err != nil {
			return nil, err
		}
		b, err := ring.Rand(p.self, shapeB...)
		if err != nil {
			return nil, err
		}
		c, err := ring.Rand(p.self, shapeC...)
		if err != nil {
			return nil, err
		}
		return &Triple{A: a, B: b, C: c}, nil
	}

	a, err := ring.Rand(rand.Reader, shapeA...)
	if err != nil {
		return nil, err
	}
	b, err := ring.Rand(rand.Reader, shapeB...)
	if err != nil {
		return nil, err
	}
	c, err := mul(a, b)
	if err != nil {
		return nil, err
	}
	// Subtract the shares the peers draw from their streams.
	sa, sb, sc := a, b, c
	for peer := 1; peer < p.comm.WorldSize(); peer++ {
		pa, err := ring.Rand(p.streams[peer], shapeA...)
		if err != nil {
			return nil, err
		}
		pb, err := ring.Rand(p.streams[peer], shapeB...)
		if err != nil {
			return nil, err
		}
		pc, err := ring.Rand(p.streams[peer], shapeC...)
		if err != nil {
			return nil, err
		}
		sa = sa.Sub(pa)
		sb = sb.Sub(pb)
		sc = sc.Sub(pc)
	}
	return &Triple{A: sa, B: sb, C: sc}, nil
}

// BitTriple returns a fresh AND triple.
func (p *TFP) BitTriple(shape ...int) (*BitTriple, error) {
	if p.comm.Rank() != 0 {
		a, err := ring.Rand(p.self, shape...)
		if err != nil {
			return nil, err
		}
		b, err := ring.Rand(p.self, shape...)
		if err != nil {
			return nil, err
		}
		c, err := ring.Rand(p.self, shape...)
		if err != nil {
			return nil, err
		}
		return &BitTriple{A: a, B: b, C: c}, nil
	}

	a, err := ring.Rand(rand.Reader, shape...)
	if err != nil {
		return nil, err
	}
	b, err := ring.Rand(rand.Reader, shape...)
	if err != nil {
		return nil, err
	}
	c := a.And(b)
	sa, sb, sc := a, b, c
	for peer := 1; peer < p.comm.WorldSize(); peer++ {
		pa, err := ring.Rand(p.streams[peer], shape...)
		if err != nil {
			return nil, err
		}
		pb, err := ring.Rand(p.streams[peer], shape...)
		if err != nil {
			return nil, err
		}
		pc, err := ring.Rand(p.streams[peer], shape...)
		if err != nil {
			return nil, err
		}
		sa = sa.Xor(pa)
		sb = sb.Xor(pb)
		sc = sc.Xor(pc)
	}
	return &BitTriple{A: sa, B: sb, C: sc}, nil
}

// TruncPair returns a fresh truncation pair for the given shift.
func (p *TFP) TruncPair(bits uint, shape ...int) (*TruncPair, error) {
	if p.comm.Rank() != 0 {
		r, err := ring.Rand(p.self, shape...)
		if err != nil {
			return nil, err
		}
		rs, err := ring.Rand(p.self, shape...)
		if err != nil {
			return nil, err
		}
		return &TruncPair{R: r, RShift: rs}, nil
	}

	r, err := ring.Rand(rand.Reader, shape...)
	if err != nil {
		return nil, err
	}
	rs := r.Ars(bits)
	sr, srs := r, rs
	for peer := 1; peer < p.comm.WorldSize(); peer++ {
		pr, err := ring.Rand(p.streams[peer], shape...)
		if err != nil {
			return nil, err
		}
		prs, err := ring.Rand(p.streams[peer], shape...)
		if err != nil {
			return nil, err
		}
		sr = sr.Sub(pr)
		srs = srs.Sub(prs)
	}
	return &TruncPair{R: sr, RShift: srs}, nil
}

// prg is a deterministic randomness stream shared between the dealer
// and one party.
type prg struct {
	cipher *chacha20.Cipher
}

func newPRG(seed []byte) (*prg, error) {
	cipher, err := chacha20.NewUnauthenticatedCipher(seed,
		make([]byte, chacha20.NonceSize))
	if err != nil {
		return nil, err
	}
	return &prg{
		cipher: cipher,
	}, nil
}

func (p *prg) Read(buf []byte) (int, error) {
	for i := range buf {
		buf[i] = 0
	}
	p.cipher.XORKeyStream(buf, buf)
	return len(buf), nil
}

var _ io.Reader = &prg{}

func packSeed(seed []byte) *ring.Tensor {
	t := ring.New(len(seed))
	for i, b := range seed {
		t.Data[i] = uint64(b)
	}
	return t
}

func unpackSeed(t *ring.Tensor) ([]byte, error) {
	if t.Numel() != chacha20.KeySize {
		return nil, xerrors.Errorf("triple: invalid seed size %d", t.Numel())
	}
	seed := make([]byte, t.Numel())
	for i, v := range t.Data {
		seed[i] = byte(v)
	}
	return seed, nil
}
