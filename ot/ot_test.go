//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package ot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/privten/privten/comm"
)

// Small test key; protocol correctness does not depend on the modulus
// size.
const testKeyBits = 512

func TestTransfer(t *testing.T) {
	a, b := comm.Pipe()
	defer a.Close()
	defer b.Close()

	snd, err := NewSender(testKeyBits)
	require.NoError(t, err)
	rcv := NewReceiver()

	initDone := make(chan error, 1)
	go func() {
		initDone <- snd.Init(a)
	}()
	require.NoError(t, rcv.Init(b))
	require.NoError(t, <-initDone)

	m0 := []uint64{10, 20, 30, 1 << 63}
	m1 := []uint64{11, 21, 31, ^uint64(0)}
	choices := []bool{false, true, false, true}

	sendDone := make(chan error, 1)
	go func() {
		sendDone <- snd.Send(m0, m1)
	}()
	got, err := rcv.Receive(choices)
	require.NoError(t, err)
	require.NoError(t, <-sendDone)

	for i, c := range choices {
		want := m0[i]
		if c {
			want = m1[i]
		}
		require.Equal(t, want, got[i], "pair %d", i)
	}
}

func TestSendCountMismatch(t *testing.T) {
	snd, err := NewSender(testKeyBits)
	require.NoError(t, err)
	a, b := comm.Pipe()
	defer a.Close()
	defer b.Close()
	snd.conn = a
	require.Error(t, snd.Send([]uint64{1}, []uint64{2, 3}))
}
