//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package triple

import (
	"crypto/rand"
	"encoding/binary"

	"golang.org/x/xerrors"

	"github.com/privten/privten/comm"
	"github.com/privten/privten/ot"
	"github.com/privten/privten/ring"
)

// OT is the oblivious-transfer provider for two parties. Both
// parties contribute randomness and the cross products are computed
// with Gilboa's bitwise OT multiplication, so no single party ever
// sees a whole triple. The interface is identical to TFP; the
// provider choice is a configuration decision.
type OT struct {
	comm *comm.Communicator
	snd  *ot.Sender
	rcv  *ot.Receiver
}

var _ Provider = &OT{}

// NewOT creates the oblivious-transfer provider and runs the OT key
// handshake. The provider supports exactly two parties.
func NewOT(c *comm.Communicator, keyBits int) (*OT, error) {
	if c.WorldSize() != 2 {
		return nil, xerrors.Errorf(
			"triple: OT provider needs exactly 2 parties, have %d",
			c.WorldSize())
	}
	conn, err := c.PeerConn(1 - c.Rank())
	if err != nil {
		return nil, err
	}
	p := &OT{
		comm: c,
		rcv:  ot.NewReceiver(),
	}
	p.snd, err = ot.NewSender(keyBits)
	if err != nil {
		return nil, err
	}
	// Rank 0 publishes its key first; rank 1 mirrors the order.
	if c.Rank() == 0 {
		if err := p.snd.Init(conn); err != nil {
			return nil, err
		}
		if err := p.rcv.Init(conn); err != nil {
			return nil, err
		}
	} else {
		if err := p.rcv.Init(conn); err != nil {
			return nil, err
		}
		if err := p.snd.Init(conn); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// gilboaRecv runs the receiver side of Gilboa multiplication: for
// every value v it obtains an additive share of v*w where w is the
// sender's corresponding value.
func (p *OT) gilboaRecv(vals []uint64) ([]uint64, error) {
	choices := make([]bool, len(vals)*64)
	for i, v := range vals {
		for j := uint(0); j < 64; j++ {
			choices[i*64+int(j)] = (v>>j)&1 == 1
		}
	}
	recvd, err := p.rcv.Receive(choices)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(vals))
	for i := range vals {
		for j := 0; j < 64; j++ {
			out[i] += recvd[i*64+j]
		}
	}
	return out, nil
}

// gilboaSend runs the sender side of Gilboa multiplication over the
// sender's values.
func (p *OT) gilboaSend(vals []uint64) ([]uint64, error) {
	count := len(vals) * 64
	masks, err := randUint64s(count)
	if err != nil {
		return nil, err
	}
	m0 := make([]uint64, count)
	m1 := make([]uint64, count)
	out := make([]uint64, len(vals))
	for i, v := range vals {
		for j := uint(0); j < 64; j++ {
			idx := i*64 + int(j)
			m0[idx] = masks[idx]
			m1[idx] = masks[idx] + v<<j
			out[i] -= masks[idx]
		}
	}
	if err := p.snd.Send(m0, m1); err != nil {
		return nil, err
	}
	return out, nil
}

// gilboaRecvXor and gilboaSendXor are the XOR-sharing analogue used
// for AND triples: the parties obtain XOR shares of v AND w per bit
// lane.
func (p *OT) gilboaRecvXor(vals []uint64) ([]uint64, error) {
	choices := make([]bool, len(vals)*64)
	for i, v := range vals {
		for j := uint(0); j < 64; j++ {
			choices[i*64+int(j)] = (v>>j)&1 == 1
		}
	}
	recvd, err := p.rcv.Receive(choices)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(vals))
	for i := range vals {
		for j := 0; j < 64; j++ {
			out[i] ^= recvd[i*64+j]
		}
	}
	return out, nil
}

func (p *OT) gilboaSendXor(vals []uint64) ([]uint64, error) {
	count := len(vals) * 64
	masks, err := randUint64s(count)
	if err != nil {
		return nil, err
	}
	m0 := make([]uint64, count)
	m1 := make([]uint64, count)
	out := make([]uint64, len(vals))
	for i, v := range vals {
		for j := uint(0); j < 64; j++ {
			idx := i*64 + int(j)
			m0[idx] = masks[idx]
			m1[idx] = masks[idx] ^ (v & (1 << j))
			out[i] ^= masks[idx]
		}
	}
	if err := p.snd.Send(m0, m1); err != nil {
		return nil, err
	}
	return out, nil
}

// Triple returns a fresh multiplication triple.
func (p *OT) Triple(shape ...int) (*Triple, error) {
	a, err := ring.Rand(rand.Reader, shape...)
	if err != nil {
		return nil, err
	}
	b, err := ring.Rand(rand.Reader, shape...)
	if err != nil {
		return nil, err
	}
	c := a.Mul(b)

	// Cross products a_0*b_1 and a_1*b_0, rank 0 receiving first.
	var t1, t2 []uint64
	if p.comm.Rank() == 0 {
		if t1, err = p.gilboaRecv(a.Data); err != nil {
			return nil, err
		}
		if t2, err = p.gilboaSend(b.Data); err != nil {
			return nil, err
		}
	} else {
		if t1, err = p.gilboaSend(b.Data); err != nil {
			return nil, err
		}
		if t2, err = p.gilboaRecv(a.Data); err != nil {
			return nil, err
		}
	}
	for i := range c.Data {
		c.Data[i] += t1[i] + t2[i]
	}
	return &Triple{A: a, B: b, C: c}, nil
}

// MatMulTriple returns a fresh matrix-product triple.
func (p *OT) MatMulTriple(m, k, n int) (*Triple, error) {
	a, err := ring.Rand(rand.Reader, m, k)
	if err != nil {
		return nil, err
	}
	b, err := ring.Rand(rand.Reader, k, n)
	if err != nil {
		return nil, err
	}
	c, err := a.MatMul(b)
	if err != nil {
		return nil, err
	}

	if p.comm.Rank() == 0 {
		if err := p.crossMatMul(a, b, c, true); err != nil {
			return nil, err
		}
		if err := p.crossMatMul(a, b, c, false); err != nil {
			return nil, err
		}
	} else {
		if err := p.crossMatMul(a, b, c, false); err != nil {
			return nil, err
		}
		if err := p.crossMatMul(a, b, c, true); err != nil {
			return nil, err
		}
	}
	return &Triple{A: a, B: b, C: c}, nil
}

// crossMatMul accumulates shares of the cross-term matrix product
// into c. The receiver contributes its a elements, the sender its b
// elements; both enumerate the scalar products (i, l, j) in the same
// order.
func (p *OT) crossMatMul(a, b, c *ring.Tensor, receiver bool) error {
	m, k := a.Shape[0], a.Shape[1]
	n := b.Shape[1]
	vals := make([]uint64, m*k*n)
	idx := 0
	for i := 0; i < m; i++ {
		for l := 0; l < k; l++ {
			for j := 0; j < n; j++ {
				if receiver {
					vals[idx] = a.Data[i*k+l]
				} else {
					vals[idx] = b.Data[l*n+j]
				}
				idx++
			}
		}
	}
	var prods []uint64
	var err error
	if receiver {
		prods, err = p.gilboaRecv(vals)
	} else {
		prods, err = p.gilboaSend(vals)
	}
	if err != nil {
		return err
	}
	idx = 0
	for i := 0; i < m; i++ {
		for l := 0; l < k; l++ {
			for j := 0; j < n; j++ {
				c.Data[i*n+j] += prods[idx]
				idx++
			}
		}
	}
	return nil
}

// BitTriple returns a fresh AND triple.
func (p *OT) BitTriple(shape ...int) (*BitTriple, error) {
	a, err := ring.Rand(rand.Reader, shape...)
	if err != nil {
		return nil, err
	}
	b, err := ring.Rand(rand.Reader, shape...)
	if err != nil {
		return nil, err
	}
	c := a.And(b)

	var t1, t2 []uint64
	if p.comm.Rank() == 0 {
		if t1, err = p.gilboaRecvXor(a.Data); err != nil {
			return nil, err
		}
		if t2, err = p.gilboaSendXor(b.Data); err != nil {
			return nil, err
		}
	} else {
		if t1, err = p.gilboaSendXor(b.Data); err != nil {
			return nil, err
		}
		if t2, err = p.gilboaRecvXor(a.Data); err != nil {
			return nil, err
		}
	}
	for i := range c.Data {
		c.Data[i] ^= t1[i] ^ t2[i]
	}
	return &BitTriple{A: a, B: b, C: c}, nil
}

// TruncPair is not available without a dealer; the configuration
// layer rejects the exact truncation method for this provider.
func (p *OT) TruncPair(bits uint, shape ...int) (*TruncPair, error) {
	return nil, xerrors.Errorf(
		"triple: exact truncation requires a dealer provider")
}

func randUint64s(count int) ([]uint64, error) {
	buf := make([]byte, count*8)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	out := make([]uint64, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return out, nil
}
