//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

// Package ot implements 1-out-of-2 oblivious transfer with the
// blinded-RSA protocol. The sender transfers pairs of 64-bit
// messages; the receiver learns exactly one message of each pair and
// the sender learns nothing about the choices.
package ot

import (
	"crypto/rand"
	"crypto/rsa"
	"math/big"

	"golang.org/x/xerrors"

	"github.com/privten/privten/comm"
)

// KeyBits is the default RSA modulus size.
const KeyBits = 2048

// Sender is the OT sender endpoint.
type Sender struct {
	key  *rsa.PrivateKey
	conn *comm.Conn
}

// NewSender creates an OT sender with a fresh RSA key of keyBits
// bits.
func NewSender(keyBits int) (*Sender, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, err
	}
	return &Sender{
		key: key,
	}, nil
}

// Init publishes the sender's public key to the receiver over the
// connection.
func (s *Sender) Init(conn *comm.Conn) error {
	s.conn = conn
	if err := conn.SendData(s.key.PublicKey.N.Bytes()); err != nil {
		return err
	}
	if err := conn.SendUint32(s.key.PublicKey.E); err != nil {
		return err
	}
	return conn.Flush()
}

// Receiver is the OT receiver endpoint.
type Receiver struct {
	pub  *rsa.PublicKey
	conn *comm.Conn
}

// NewReceiver creates an OT receiver.
func NewReceiver() *Receiver {
	return &Receiver{}
}

// Init reads the sender's public key from the connection.
func (r *Receiver) Init(conn *comm.Conn) error {
	r.conn = conn
	n, err := conn.ReceiveData()
	if err != nil {
		return err
	}
	e, err := conn.ReceiveUint32()
	if err != nil {
		return err
	}
	r.pub = &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: e,
	}
	return nil
}

// Send transfers the message pairs (m0[i], m1[i]) as one batch. The
// receiver's concurrent Receive call selects one message per pair.
func (s *Sender) Send(m0, m1 []uint64) error {
	if len(m0) != len(m1) {
		return xerrors.Errorf("ot: message count mismatch: %d != %d",
			len(m0), len(m1))
	}
	count := len(m0)
	n := s.key.PublicKey.N

	// Round 1: random pairs.
	x0 := make([]*big.Int, count)
	x1 := make([]*big.Int, count)
	for i := 0; i < count; i++ {
		var err error
		if x0[i], err = rand.Int(rand.Reader, n); err != nil {
			return err
		}
		if x1[i], err = rand.Int(rand.Reader, n); err != nil {
			return err
		}
		if err := s.conn.SendData(x0[i].Bytes()); err != nil {
			return err
		}
		if err := s.conn.SendData(x1[i].Bytes()); err != nil {
			return err
		}
	}
	if err := s.conn.Flush(); err != nil {
		return err
	}

	// Round 2: unblind both candidates and mask the messages.
	for i := 0; i < count; i++ {
		data, err := s.conn.ReceiveData()
		if err != nil {
			return err
		}
		v := new(big.Int).SetBytes(data)
		if v.Cmp(n) >= 0 {
			return xerrors.Errorf("ot: blinded value out of range")
		}
		k0 := new(big.Int).Sub(v, x0[i])
		k0.Mod(k0, n).Exp(k0, s.key.D, n)
		k1 := new(big.Int).Sub(v, x1[i])
		k1.Mod(k1, n).Exp(k1, s.key.D, n)

		k0.Add(k0, new(big.Int).SetUint64(m0[i])).Mod(k0, n)
		k1.Add(k1, new(big.Int).SetUint64(m1[i])).Mod(k1, n)

		if err := s.conn.SendData(k0.Bytes()); err != nil {
			return err
		}
		if err := s.conn.SendData(k1.Bytes()); err != nil {
			return err
		}
	}
	return s.conn.Flush()
}

// Receive selects one message per pair according to the choice bits
// of the concurrent Send call.
func (r *Receiver) Receive(choices []bool) ([]uint64, error) {
	count := len(choices)
	n := r.pub.N
	e := big.NewInt(int64(r.pub.E))

	// Round 1: blind the chosen random value.
	keys := make([]*big.Int, count)
	for i := 0; i < count; i++ {
		x0, err := r.conn.ReceiveData()
		if err != nil {
			return nil, err
		}
		x1, err := r.conn.ReceiveData()
		if err != nil {
			return nil, err
		}
		xb := x0
		if choices[i] {
			xb = x1
		}
		k, err := rand.Int(rand.Reader, n)
		if err != nil {
			return nil, err
		}
		keys[i] = k
		v := new(big.Int).Exp(k, e, n)
		v.Add(v, new(big.Int).SetBytes(xb)).Mod(v, n)
		if err := r.conn.SendData(v.Bytes()); err != nil {
			return nil, err
		}
	}
	if err := r.conn.Flush(); err != nil {
		return nil, err
	}

	// Round 2: unmask the chosen message.
	result := make([]uint64, count)
	for i := 0; i < count; i++ {
		m0, err := r.conn.ReceiveData()
		if err != nil {
			return nil, err
		}
		m1, err := r.conn.ReceiveData()
		if err != nil {
			return nil, err
		}
		mb := m0
		if choices[i] {
			mb = m1
		}
		m := new(big.Int).SetBytes(mb)
		m.Sub(m, keys[i]).Mod(m, n)
		if m.BitLen() > 64 {
			return nil, xerrors.Errorf("ot: message out of range")
		}
		result[i] = m.Uint64()
	}
	return result, nil
}
