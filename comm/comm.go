//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package comm

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/markkurossi/tabulate"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	"github.com/privten/privten/ring"
)

// Collective operation codes. Every message frames its payload with
// the operation code and the pairwise channel's message counter so
// that a call-order divergence between parties is detected instead of
// producing a silently wrong result.
const (
	opSend byte = iota + 1
	opBroadcast
	opReduce
	opGather
	opBarrier
	opInOrder
	opScatter
)

var opNames = map[byte]string{
	opSend:      "send",
	opBroadcast: "broadcast",
	opReduce:    "all_reduce",
	opGather:    "gather",
	opBarrier:   "barrier",
	opInOrder:   "in_order",
	opScatter:   "scatter",
}

// Error is a fatal communication failure: unreachable peer, framing
// or size mismatch, or a detected call-order desynchronization. An
// SPMD protocol has no safe partial-result recovery, so the session
// must abort.
type Error struct {
	Rank int
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("comm: rank %d: %s: %v", e.Rank, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Communicator implements the collective operations between the
// parties of a session. Every party must issue collectives in an
// identical call sequence.
type Communicator struct {
	rank   int
	peers  []*Conn
	seqs   []uint32
	rounds atomic.Uint64
	log    zerolog.Logger
}

// New creates a communicator for the given rank over the argument
// connections. The peers slice is indexed by rank and must hold nil
// at the communicator's own rank.
func New(rank int, peers []*Conn, log zerolog.Logger) *Communicator {
	return &Communicator{
		rank:  rank,
		peers: peers,
		seqs:  make([]uint32, len(peers)),
		log: log.With().
			Int("rank", rank).
			Logger(),
	}
}

// Rank returns the party's rank.
func (c *Communicator) Rank() int {
	return c.rank
}

// WorldSize returns the number of parties.
func (c *Communicator) WorldSize() int {
	return len(c.peers)
}

// Logger returns the communicator's logger.
func (c *Communicator) Logger() zerolog.Logger {
	return c.log
}

// Close closes all peer connections.
func (c *Communicator) Close() error {
	var err error
	for _, p := range c.peers {
		if p == nil {
			continue
		}
		if e := p.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// Stats returns the accumulated I/O statistics over all peer
// connections.
func (c *Communicator) Stats() IOStats {
	result := NewIOStats()
	for _, p := range c.peers {
		if p != nil {
			result = result.Add(p.Stats)
		}
	}
	return result
}

// Rounds returns the number of collective operations issued.
func (c *Communicator) Rounds() uint64 {
	return c.rounds.Load()
}

// StatsTable renders the communication statistics as a table.
func (c *Communicator) StatsTable() string {
	stats := c.Stats()
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Rank").SetAlign(tabulate.MR)
	tab.Header("Rounds").SetAlign(tabulate.MR)
	tab.Header("Sent").SetAlign(tabulate.MR)
	tab.Header("Recvd").SetAlign(tabulate.MR)
	row := tab.Row()
	row.Column(fmt.Sprintf("%d", c.rank))
	row.Column(fmt.Sprintf("%d", c.Rounds()))
	row.Column(fmt.Sprintf("%d", stats.Sent.Load()))
	row.Column(fmt.Sprintf("%d", stats.Recvd.Load()))
	var sb strings.Builder
	tab.Print(&sb)
	return sb.String()
}

func (c *Communicator) conn(peer int) (*Conn, error) {
	if peer < 0 || peer >= len(c.peers) || peer == c.rank {
		return nil, &Error{
			Rank: c.rank,
			Op:   "conn",
			Err:  xerrors.Errorf("invalid peer rank %d", peer),
		}
	}
	return c.peers[peer], nil
}

// PeerConn returns the raw connection to the peer for sub-protocols
// that frame their own traffic (e.g. oblivious transfer).
func (c *Communicator) PeerConn(peer int) (*Conn, error) {
	return c.conn(peer)
}

func (c *Communicator) sendHeader(conn *Conn, op byte, seq uint32) error {
	if err := conn.SendByte(op); err != nil {
		return err
	}
	return conn.SendUint32(int(seq))
}

func (c *Communicator) verifyHeader(conn *Conn, op byte, seq uint32) error {
	gotOp, err := conn.ReceiveByte()
	if err != nil {
		return err
	}
	gotSeq, err := conn.ReceiveUint32()
	if err != nil {
		return err
	}
	if gotOp != op || uint32(gotSeq) != seq {
		return xerrors.Errorf(
			"desynchronized: peer issued %s#%d, expected %s#%d",
			opNames[gotOp], gotSeq, opNames[op], seq)
	}
	return nil
}

// bump advances the message counter of the pairwise channel with the
// peer. Both endpoints advance it for every framed message, whichever
// direction the message travels, so the counters stay in lockstep and
// point-to-point traffic between two parties never skews a third
// party's state.
func (c *Communicator) bump(peer int) uint32 {
	c.seqs[peer]++
	return c.seqs[peer]
}

func (c *Communicator) round(op byte) {
	c.rounds.Add(1)
	c.log.Debug().
		Str("op", opNames[op]).
		Uint64("round", c.rounds.Load()).
		Msg("collective")
}

func (c *Communicator) sendTensor(peer int, op byte, t *ring.Tensor) error {
	conn, err := c.conn(peer)
	if err != nil {
		return err
	}
	if err := c.sendHeader(conn, op, c.bump(peer)); err != nil {
		return c.fail(op, err)
	}
	if err := conn.SendTensor(t); err != nil {
		return c.fail(op, err)
	}
	if err := conn.Flush(); err != nil {
		return c.fail(op, err)
	}
	return nil
}

func (c *Communicator) recvTensor(peer int, op byte) (*ring.Tensor, error) {
	conn, err := c.conn(peer)
	if err != nil {
		return nil, err
	}
	if err := c.verifyHeader(conn, op, c.bump(peer)); err != nil {
		return nil, c.fail(op, err)
	}
	t, err := conn.ReceiveTensor()
	if err != nil {
		return nil, c.fail(op, err)
	}
	return t, nil
}

func (c *Communicator) fail(op byte, err error) *Error {
	return &Error{
		Rank: c.rank,
		Op:   opNames[op],
		Err:  err,
	}
}

// exchange swaps tensors with the peer using the deterministic
// lower-rank-sends-first ordering.
func (c *Communicator) exchange(peer int, op byte, t *ring.Tensor) (
	*ring.Tensor, error) {

	if c.rank < peer {
		if err := c.sendTensor(peer, op, t); err != nil {
			return nil, err
		}
		return c.recvTensor(peer, op)
	}
	o, err := c.recvTensor(peer, op)
	if err != nil {
		return nil, err
	}
	if err := c.sendTensor(peer, op, t); err != nil {
		return nil, err
	}
	return o, nil
}

// Send sends the tensor to the peer.
func (c *Communicator) Send(t *ring.Tensor, peer int) error {
	c.round(opSend)
	return c.sendTensor(peer, opSend, t)
}

// Recv receives a tensor from the peer.
func (c *Communicator) Recv(peer int) (*ring.Tensor, error) {
	c.round(opSend)
	return c.recvTensor(peer, opSend)
}

// Broadcast sends the tensor from the src rank to all parties; every
// party returns the broadcast value.
func (c *Communicator) Broadcast(t *ring.Tensor, src int) (
	*ring.Tensor, error) {

	if c.WorldSize() < 2 {
		return t, nil
	}
	c.round(opBroadcast)
	if c.rank == src {
		for peer := range c.peers {
			if peer == c.rank {
				continue
			}
			if err := c.sendTensor(peer, opBroadcast, t); err != nil {
				return nil, err
			}
		}
		return t, nil
	}
	return c.recvTensor(src, opBroadcast)
}

// AllReduceSum sums the parties' tensors element-wise mod 2^64; every
// party gets the result.
func (c *Communicator) AllReduceSum(t *ring.Tensor) (*ring.Tensor, error) {
	return c.allReduce(t, func(a, b *ring.Tensor) *ring.Tensor {
		return a.Add(b)
	})
}

// AllReduceXor xors the parties' tensors element-wise; every party
// gets the result.
func (c *Communicator) AllReduceXor(t *ring.Tensor) (*ring.Tensor, error) {
	return c.allReduce(t, func(a, b *ring.Tensor) *ring.Tensor {
		return a.Xor(b)
	})
}

func (c *Communicator) allReduce(t *ring.Tensor,
	combine func(a, b *ring.Tensor) *ring.Tensor) (*ring.Tensor, error) {

	if c.WorldSize() < 2 {
		return t.Clone(), nil
	}
	c.round(opReduce)
	result := t.Clone()
	for peer := range c.peers {
		if peer == c.rank {
			continue
		}
		o, err := c.exchange(peer, opReduce, t)
		if err != nil {
			return nil, err
		}
		if !o.SameShape(t) {
			return nil, c.fail(opReduce, xerrors.Errorf(
				"shape mismatch: peer %d sent %v, expected %v",
				peer, o.Shape, t.Shape))
		}
		result = combine(result, o)
	}
	return result, nil
}

// Gather collects the parties' tensors at the dst rank, indexed by
// rank. All other parties return nil.
func (c *Communicator) Gather(t *ring.Tensor, dst int) ([]*ring.Tensor, error) {
	if c.WorldSize() < 2 {
		return []*ring.Tensor{t}, nil
	}
	c.round(opGather)
	if c.rank != dst {
		return nil, c.sendTensor(dst, opGather, t)
	}
	result := make([]*ring.Tensor, c.WorldSize())
	result[c.rank] = t
	for peer := range c.peers {
		if peer == c.rank {
			continue
		}
		o, err := c.recvTensor(peer, opGather)
		if err != nil {
			return nil, err
		}
		result[peer] = o
	}
	return result, nil
}

// Scatter distributes the per-rank tensors from the src rank; party i
// returns parts[i]. Only src supplies parts; all other ranks pass nil.
func (c *Communicator) Scatter(parts []*ring.Tensor, src int) (
	*ring.Tensor, error) {

	if c.WorldSize() < 2 {
		return parts[c.rank], nil
	}
	c.round(opScatter)
	if c.rank == src {
		if len(parts) != c.WorldSize() {
			return nil, c.fail(opScatter, xerrors.Errorf(
				"%d parts for %d parties", len(parts), c.WorldSize()))
		}
		for peer := range c.peers {
			if peer == c.rank {
				continue
			}
			if err := c.sendTensor(peer, opScatter,
				parts[peer]); err != nil {
				return nil, err
			}
		}
		return parts[c.rank], nil
	}
	return c.recvTensor(src, opScatter)
}

// Barrier blocks until all parties have entered the barrier.
func (c *Communicator) Barrier() error {
	if c.WorldSize() < 2 {
		return nil
	}
	c.round(opBarrier)
	empty := ring.New(0)
	for peer := range c.peers {
		if peer == c.rank {
			continue
		}
		if _, err := c.exchange(peer, opBarrier, empty); err != nil {
			return err
		}
	}
	return nil
}

// InOrder serializes a cross-party diagnostic message: all parties
// synchronize on a barrier, then rank 0 collects and logs the
// messages in rank order. Rank 0 returns the messages; all other
// ranks return nil.
func (c *Communicator) InOrder(msg string) ([]string, error) {
	if err := c.Barrier(); err != nil {
		return nil, err
	}
	if c.WorldSize() < 2 {
		c.log.Info().Msg(msg)
		return []string{msg}, nil
	}
	c.round(opInOrder)
	if c.rank != 0 {
		conn, err := c.conn(0)
		if err != nil {
			return nil, err
		}
		if err := c.sendHeader(conn, opInOrder, c.bump(0)); err != nil {
			return nil, c.fail(opInOrder, err)
		}
		if err := conn.SendString(msg); err != nil {
			return nil, c.fail(opInOrder, err)
		}
		return nil, c.fail0(conn.Flush(), opInOrder)
	}
	result := make([]string, c.WorldSize())
	result[0] = msg
	c.log.Info().Int("from", 0).Msg(msg)
	for peer := 1; peer < c.WorldSize(); peer++ {
		conn, err := c.conn(peer)
		if err != nil {
			return nil, err
		}
		if err := c.verifyHeader(conn, opInOrder, c.bump(peer)); err != nil {
			return nil, c.fail(opInOrder, err)
		}
		s, err := conn.ReceiveString()
		if err != nil {
			return nil, c.fail(opInOrder, err)
		}
		result[peer] = s
		c.log.Info().Int("from", peer).Msg(s)
	}
	return result, nil
}

func (c *Communicator) fail0(err error, op byte) error {
	if err == nil {
		return nil
	}
	return c.fail(op, err)
}
