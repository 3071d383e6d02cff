//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package ring

import (
	"crypto/rand"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncoderRoundTrip(t *testing.T) {
	enc := Encoder{Precision: 16}
	for _, v := range []float64{0, 1, -1, 1.5, -2.25, 1000.125, -0.0625} {
		got := enc.Decode(enc.Encode(v))
		require.InDelta(t, v, got, 1.0/enc.Scale())
	}
}

func TestEncoderNegative(t *testing.T) {
	enc := Encoder{Precision: 16}
	v := enc.Encode(-1)
	require.Equal(t, uint64(0xFFFFFFFFFFFF0000), v)
	require.Equal(t, -1.0, enc.Decode(v))
}

func TestEncoderWraparound(t *testing.T) {
	enc := Encoder{Precision: 16}
	require.Equal(t, uint64(0), enc.Encode(math.Ldexp(1, 48)))
	require.Equal(t, uint64(0), enc.Encode(-math.Ldexp(1, 48)))
	require.Equal(t, uint64(1)<<63, enc.Encode(math.Ldexp(1, 47)))
}

func TestTensorArith(t *testing.T) {
	a, err := NewFromData([]uint64{1, 2, 3}, 3)
	require.NoError(t, err)
	b, err := NewFromData([]uint64{10, 20, 30}, 3)
	require.NoError(t, err)

	require.Equal(t, []uint64{11, 22, 33}, a.Add(b).Data)
	require.Equal(t, []uint64{9, 18, 27}, b.Sub(a).Data)
	require.Equal(t, []uint64{10, 40, 90}, a.Mul(b).Data)
	require.Equal(t, uint64(6), a.Sum())

	neg := a.Neg()
	require.Equal(t, []uint64{0, 0, 0}, a.Add(neg).Data)
}

func TestTensorBitwise(t *testing.T) {
	a, err := NewFromData([]uint64{0b1100, 0b1010}, 2)
	require.NoError(t, err)
	b, err := NewFromData([]uint64{0b1010, 0b0110}, 2)
	require.NoError(t, err)

	require.Equal(t, []uint64{0b0110, 0b1100}, a.Xor(b).Data)
	require.Equal(t, []uint64{0b1000, 0b0010}, a.And(b).Data)
	require.Equal(t, []uint64{0b11000, 0b10100}, a.Lsh(1).Data)
	require.Equal(t, []uint64{0b110, 0b101}, a.Rsh(1).Data)
}

func TestTensorArs(t *testing.T) {
	enc := Encoder{Precision: 16}
	a, err := NewFromData([]uint64{enc.Encode(-4), enc.Encode(4)}, 2)
	require.NoError(t, err)
	sh := a.Ars(1)
	require.Equal(t, -2.0, enc.Decode(sh.Data[0]))
	require.Equal(t, 2.0, enc.Decode(sh.Data[1]))
}

func TestMatMul(t *testing.T) {
	a, err := NewFromData([]uint64{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	b, err := NewFromData([]uint64{5, 6, 7, 8}, 2, 2)
	require.NoError(t, err)

	r, err := a.MatMul(b)
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, r.Shape)
	require.Equal(t, []uint64{19, 22, 43, 50}, r.Data)

	_, err = a.MatMul(New(3, 2))
	require.Error(t, err)
}

func TestStackUnstack(t *testing.T) {
	a, err := NewFromData([]uint64{1, 2}, 2)
	require.NoError(t, err)
	b, err := NewFromData([]uint64{3, 4}, 2)
	require.NoError(t, err)

	s := Stack(a, b)
	require.Equal(t, []int{2, 2}, s.Shape)
	parts := Unstack(s)
	require.Len(t, parts, 2)
	require.Equal(t, a.Data, parts[0].Data)
	require.Equal(t, b.Data, parts[1].Data)
}

func TestRand(t *testing.T) {
	a, err := Rand(rand.Reader, 4, 4)
	require.NoError(t, err)
	b, err := Rand(rand.Reader, 4, 4)
	require.NoError(t, err)
	require.NotEqual(t, a.Data, b.Data)
}

func TestNewFromDataShapeMismatch(t *testing.T) {
	_, err := NewFromData([]uint64{1, 2, 3}, 2, 2)
	require.Error(t, err)
}
