//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package comm

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/privten/privten/ring"
)

// runLocal runs fn once per rank over an in-memory mesh and fails the
// test on the first error any party reports.
func runLocal(t *testing.T, n int, fn func(c *Communicator) error) {
	t.Helper()
	comms := Local(n, zerolog.Nop())
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for _, c := range comms {
		wg.Add(1)
		go func(c *Communicator) {
			defer wg.Done()
			errs <- fn(c)
		}(c)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	for _, c := range comms {
		c.Close()
	}
}

func TestConnProtocol(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	tensor, err := ring.NewFromData([]uint64{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)

	go func() {
		a.SendByte(42)
		a.SendUint32(100000)
		a.SendUint64(1 << 50)
		a.SendData([]byte("payload"))
		a.SendString("hello")
		a.SendTensor(tensor)
		a.Flush()
	}()

	bv, err := b.ReceiveByte()
	require.NoError(t, err)
	require.Equal(t, byte(42), bv)

	iv, err := b.ReceiveUint32()
	require.NoError(t, err)
	require.Equal(t, 100000, iv)

	uv, err := b.ReceiveUint64()
	require.NoError(t, err)
	require.Equal(t, uint64(1)<<50, uv)

	dv, err := b.ReceiveData()
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), dv)

	sv, err := b.ReceiveString()
	require.NoError(t, err)
	require.Equal(t, "hello", sv)

	tv, err := b.ReceiveTensor()
	require.NoError(t, err)
	require.True(t, tv.SameShape(tensor))
	require.Equal(t, tensor.Data, tv.Data)
}

func TestAllReduceSum(t *testing.T) {
	for _, n := range []int{2, 3, 4} {
		runLocal(t, n, func(c *Communicator) error {
			in, err := ring.NewFromData(
				[]uint64{uint64(c.Rank()), uint64(c.Rank() * 10)}, 2)
			if err != nil {
				return err
			}
			out, err := c.AllReduceSum(in)
			if err != nil {
				return err
			}
			want := uint64(n * (n - 1) / 2)
			if out.Data[0] != want || out.Data[1] != want*10 {
				return fmt.Errorf("rank %d: got %v", c.Rank(), out.Data)
			}
			return nil
		})
	}
}

func TestAllReduceXor(t *testing.T) {
	runLocal(t, 3, func(c *Communicator) error {
		in, err := ring.NewFromData([]uint64{1 << uint(c.Rank())}, 1)
		if err != nil {
			return err
		}
		out, err := c.AllReduceXor(in)
		if err != nil {
			return err
		}
		if out.Data[0] != 0b111 {
			return fmt.Errorf("got %b", out.Data[0])
		}
		return nil
	})
}

func TestBroadcast(t *testing.T) {
	runLocal(t, 3, func(c *Communicator) error {
		var in *ring.Tensor
		var err error
		if c.Rank() == 1 {
			in, err = ring.NewFromData([]uint64{7, 8}, 2)
		} else {
			in, err = ring.NewFromData([]uint64{0, 0}, 2)
		}
		if err != nil {
			return err
		}
		out, err := c.Broadcast(in, 1)
		if err != nil {
			return err
		}
		if out.Data[0] != 7 || out.Data[1] != 8 {
			return fmt.Errorf("rank %d: got %v", c.Rank(), out.Data)
		}
		return nil
	})
}

func TestGather(t *testing.T) {
	runLocal(t, 3, func(c *Communicator) error {
		in, err := ring.NewFromData([]uint64{uint64(c.Rank())}, 1)
		if err != nil {
			return err
		}
		out, err := c.Gather(in, 2)
		if err != nil {
			return err
		}
		if c.Rank() != 2 {
			if out != nil {
				return fmt.Errorf("rank %d: unexpected gather result",
					c.Rank())
			}
			return nil
		}
		for i, tensor := range out {
			if tensor.Data[0] != uint64(i) {
				return fmt.Errorf("slot %d: got %d", i, tensor.Data[0])
			}
		}
		return nil
	})
}

func TestScatter(t *testing.T) {
	runLocal(t, 3, func(c *Communicator) error {
		var parts []*ring.Tensor
		if c.Rank() == 0 {
			parts = make([]*ring.Tensor, 3)
			for i := range parts {
				var err error
				parts[i], err = ring.NewFromData([]uint64{uint64(i * 100)}, 1)
				if err != nil {
					return err
				}
			}
		}
		out, err := c.Scatter(parts, 0)
		if err != nil {
			return err
		}
		if out.Data[0] != uint64(c.Rank()*100) {
			return fmt.Errorf("rank %d: got %d", c.Rank(), out.Data[0])
		}
		return nil
	})
}

// TestSendRecvThenCollective interleaves rank-targeted traffic with a
// collective: parties that sat out the point-to-point exchange must
// still agree on the pairwise channel state afterwards.
func TestSendRecvThenCollective(t *testing.T) {
	runLocal(t, 3, func(c *Communicator) error {
		in, err := ring.NewFromData([]uint64{uint64(c.Rank() + 1)}, 1)
		if err != nil {
			return err
		}
		switch c.Rank() {
		case 0:
			if err := c.Send(in, 1); err != nil {
				return err
			}
		case 1:
			o, err := c.Recv(0)
			if err != nil {
				return err
			}
			if o.Data[0] != 1 {
				return fmt.Errorf("recv: got %d", o.Data[0])
			}
		}
		out, err := c.AllReduceSum(in)
		if err != nil {
			return err
		}
		if out.Data[0] != 6 {
			return fmt.Errorf("rank %d: got %d", c.Rank(), out.Data[0])
		}
		return nil
	})
}

func TestBarrierAndRounds(t *testing.T) {
	runLocal(t, 3, func(c *Communicator) error {
		if err := c.Barrier(); err != nil {
			return err
		}
		if c.Rounds() != 1 {
			return fmt.Errorf("rounds = %d", c.Rounds())
		}
		return nil
	})
}

func TestInOrder(t *testing.T) {
	runLocal(t, 3, func(c *Communicator) error {
		msgs, err := c.InOrder(fmt.Sprintf("party %d", c.Rank()))
		if err != nil {
			return err
		}
		if c.Rank() != 0 {
			if msgs != nil {
				return fmt.Errorf("rank %d: unexpected messages", c.Rank())
			}
			return nil
		}
		for i, m := range msgs {
			want := fmt.Sprintf("party %d", i)
			if m != want {
				return fmt.Errorf("slot %d: got %q", i, m)
			}
		}
		return nil
	})
}

// TestDesync diverges the collective call order between two parties:
// the mismatch must surface as a communication error, not as a wrong
// value.
func TestDesync(t *testing.T) {
	comms := Local(2, zerolog.Nop())
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		in, _ := ring.NewFromData([]uint64{1}, 1)
		comms[0].Broadcast(in, 0)
	}()

	var err1 error
	go func() {
		defer wg.Done()
		in, _ := ring.NewFromData([]uint64{1}, 1)
		_, err1 = comms[1].AllReduceSum(in)
	}()

	wg.Wait()
	require.Error(t, err1)
	var cerr *Error
	require.ErrorAs(t, err1, &cerr)

	for _, c := range comms {
		c.Close()
	}
}

func TestStats(t *testing.T) {
	runLocal(t, 2, func(c *Communicator) error {
		in, err := ring.NewFromData([]uint64{1, 2, 3}, 3)
		if err != nil {
			return err
		}
		if _, err := c.AllReduceSum(in); err != nil {
			return err
		}
		stats := c.Stats()
		if stats.Sent.Load() == 0 || stats.Recvd.Load() == 0 {
			return fmt.Errorf("rank %d: empty stats", c.Rank())
		}
		return nil
	})
}
