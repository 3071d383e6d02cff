//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package comm

import (
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

const (
	dialRetries = 60
	dialDelay   = 500 * time.Millisecond
)

// Connect builds the fully connected mesh for the party with the
// given rank. The addrs slice lists every party's listen address
// indexed by rank; it is supplied by the external bootstrap. Lower
// ranks dial higher ranks, so every party first accepts connections
// from all lower ranks and then dials all higher ranks.
func Connect(rank int, addrs []string, log zerolog.Logger) (
	*Communicator, error) {

	if rank < 0 || rank >= len(addrs) {
		return nil, xerrors.Errorf("comm: rank %d outside [0,%d)",
			rank, len(addrs))
	}
	peers := make([]*Conn, len(addrs))

	var listener net.Listener
	var err error
	if rank > 0 {
		listener, err = net.Listen("tcp", addrs[rank])
		if err != nil {
			return nil, xerrors.Errorf("comm: listen %s: %w",
				addrs[rank], err)
		}
		defer listener.Close()

		for count := 0; count < rank; count++ {
			nc, err := listener.Accept()
			if err != nil {
				return nil, xerrors.Errorf("comm: accept: %w", err)
			}
			conn := NewConn(nc)
			peer, err := conn.ReceiveUint32()
			if err != nil {
				conn.Close()
				return nil, xerrors.Errorf("comm: peer handshake: %w", err)
			}
			if peer < 0 || peer >= rank || peers[peer] != nil {
				conn.Close()
				return nil, xerrors.Errorf("comm: invalid peer rank %d", peer)
			}
			peers[peer] = conn
			log.Debug().Int("rank", rank).Int("peer", peer).
				Msg("accepted peer")
		}
	}

	for peer := rank + 1; peer < len(addrs); peer++ {
		conn, err := dial(addrs[peer], rank)
		if err != nil {
			return nil, err
		}
		peers[peer] = conn
		log.Debug().Int("rank", rank).Int("peer", peer).
			Msg("connected to peer")
	}

	return New(rank, peers, log), nil
}

func dial(addr string, rank int) (*Conn, error) {
	var nc net.Conn
	var err error
	for i := 0; i < dialRetries; i++ {
		nc, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		<-time.After(dialDelay)
	}
	if err != nil {
		return nil, xerrors.Errorf("comm: dial %s: %w", addr, err)
	}
	conn := NewConn(nc)
	if err := conn.SendUint32(rank); err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Local creates n communicators connected with in-memory pipes, one
// per rank. It is used by tests and single-process simulations; each
// rank must run in its own goroutine.
func Local(n int, log zerolog.Logger) []*Communicator {
	conns := make([][]*Conn, n)
	for i := 0; i < n; i++ {
		conns[i] = make([]*Conn, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := Pipe()
			conns[i][j] = a
			conns[j][i] = b
		}
	}
	comms := make([]*Communicator, n)
	for i := 0; i < n; i++ {
		comms[i] = New(i, conns[i], log)
	}
	return comms
}
