//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package ring

import (
	"math"
)

// Encoder converts real values to and from scaled ring elements:
// Encode(x) = round(x * 2^Precision) mod 2^64. Values that exceed the
// representable range wrap silently; secret data is never
// range-checked.
type Encoder struct {
	Precision uint
}

// Scale returns the fixed-point scale factor 2^Precision.
func (e Encoder) Scale() float64 {
	return math.Ldexp(1, int(e.Precision))
}

// Encode encodes the real value x as a ring element. The scaled value
// is reduced into [-2^63, 2^63) first: the float-to-integer
// conversion is only defined inside the int64 range, so the reduction
// makes out-of-range magnitudes wrap mod 2^64 on every platform.
func (e Encoder) Encode(x float64) uint64 {
	r := math.Round(x * e.Scale())
	const width = 1 << 64
	r = math.Mod(r, width)
	if r >= width/2 {
		r -= width
	} else if r < -width/2 {
		r += width
	}
	return uint64(int64(r))
}

// Decode decodes the ring element v into a real value using the
// two's complement interpretation.
func (e Encoder) Decode(v uint64) float64 {
	return float64(int64(v)) / e.Scale()
}

// EncodeTensor encodes the values into a tensor of the given shape.
func (e Encoder) EncodeTensor(vals []float64, shape ...int) (*Tensor, error) {
	data := make([]uint64, len(vals))
	for i, v := range vals {
		data[i] = e.Encode(v)
	}
	return NewFromData(data, shape...)
}

// DecodeTensor decodes all elements of the tensor.
func (e Encoder) DecodeTensor(t *Tensor) []float64 {
	vals := make([]float64, t.Numel())
	for i, v := range t.Data {
		vals[i] = e.Decode(v)
	}
	return vals
}
