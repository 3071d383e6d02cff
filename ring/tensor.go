//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

// Package ring implements plaintext tensors over the ring Z_2^64 and
// the fixed-point encoding used by the secret-sharing engine. All
// arithmetic wraps silently modulo 2^64; signed values use the two's
// complement interpretation of the lanes.
package ring

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Tensor is a dense tensor of 64-bit ring elements in row-major
// order.
type Tensor struct {
	Shape []int
	Data  []uint64
}

// Numel returns the number of elements the shape describes.
func Numel(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// New creates a zero tensor of the given shape.
func New(shape ...int) *Tensor {
	return &Tensor{
		Shape: append([]int{}, shape...),
		Data:  make([]uint64, Numel(shape)),
	}
}

// NewFromData creates a tensor wrapping the argument data.
func NewFromData(data []uint64, shape ...int) (*Tensor, error) {
	if len(data) != Numel(shape) {
		return nil, fmt.Errorf("ring: %d elements for shape %v", len(data),
			shape)
	}
	return &Tensor{
		Shape: append([]int{}, shape...),
		Data:  data,
	}, nil
}

// Rand creates a tensor with elements drawn from the reader r.
func Rand(r io.Reader, shape ...int) (*Tensor, error) {
	t := New(shape...)
	buf := make([]byte, 8)
	for i := range t.Data {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		t.Data[i] = binary.LittleEndian.Uint64(buf)
	}
	return t, nil
}

// Numel returns the number of elements in the tensor.
func (t *Tensor) Numel() int {
	return len(t.Data)
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := New(t.Shape...)
	copy(c.Data, t.Data)
	return c
}

// SameShape tests if the tensors t and o have the same shape.
func (t *Tensor) SameShape(o *Tensor) bool {
	if len(t.Shape) != len(o.Shape) {
		return false
	}
	for i, d := range t.Shape {
		if o.Shape[i] != d {
			return false
		}
	}
	return true
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%v", t.Shape)
}

func (t *Tensor) binop(o *Tensor, f func(a, b uint64) uint64) *Tensor {
	r := New(t.Shape...)
	for i, v := range t.Data {
		r.Data[i] = f(v, o.Data[i])
	}
	return r
}

func (t *Tensor) unop(f func(a uint64) uint64) *Tensor {
	r := New(t.Shape...)
	for i, v := range t.Data {
		r.Data[i] = f(v)
	}
	return r
}

// Add returns t+o element-wise.
func (t *Tensor) Add(o *Tensor) *Tensor {
	return t.binop(o, func(a, b uint64) uint64 { return a + b })
}

// Sub returns t-o element-wise.
func (t *Tensor) Sub(o *Tensor) *Tensor {
	return t.binop(o, func(a, b uint64) uint64 { return a - b })
}

// Mul returns t*o element-wise.
func (t *Tensor) Mul(o *Tensor) *Tensor {
	return t.binop(o, func(a, b uint64) uint64 { return a * b })
}

// Neg returns -t element-wise.
func (t *Tensor) Neg() *Tensor {
	return t.unop(func(a uint64) uint64 { return -a })
}

// AddScalar returns t+v element-wise.
func (t *Tensor) AddScalar(v uint64) *Tensor {
	return t.unop(func(a uint64) uint64 { return a + v })
}

// MulScalar returns t*v element-wise.
func (t *Tensor) MulScalar(v uint64) *Tensor {
	return t.unop(func(a uint64) uint64 { return a * v })
}

// Xor returns t^o element-wise.
func (t *Tensor) Xor(o *Tensor) *Tensor {
	return t.binop(o, func(a, b uint64) uint64 { return a ^ b })
}

// And returns t&o element-wise.
func (t *Tensor) And(o *Tensor) *Tensor {
	return t.binop(o, func(a, b uint64) uint64 { return a & b })
}

// Not returns ^t element-wise.
func (t *Tensor) Not() *Tensor {
	return t.unop(func(a uint64) uint64 { return ^a })
}

// XorScalar returns t^v element-wise.
func (t *Tensor) XorScalar(v uint64) *Tensor {
	return t.unop(func(a uint64) uint64 { return a ^ v })
}

// AndScalar returns t&v element-wise.
func (t *Tensor) AndScalar(v uint64) *Tensor {
	return t.unop(func(a uint64) uint64 { return a & v })
}

// Lsh returns t<<k element-wise.
func (t *Tensor) Lsh(k uint) *Tensor {
	return t.unop(func(a uint64) uint64 { return a << k })
}

// Rsh returns the logical shift t>>k element-wise.
func (t *Tensor) Rsh(k uint) *Tensor {
	return t.unop(func(a uint64) uint64 { return a >> k })
}

// Ars returns the arithmetic (sign preserving) shift t>>k
// element-wise.
func (t *Tensor) Ars(k uint) *Tensor {
	return t.unop(func(a uint64) uint64 { return uint64(int64(a) >> k) })
}

// Bit returns a tensor holding bit j of every element in its low bit.
func (t *Tensor) Bit(j uint) *Tensor {
	return t.unop(func(a uint64) uint64 { return (a >> j) & 1 })
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() uint64 {
	var sum uint64
	for _, v := range t.Data {
		sum += v
	}
	return sum
}

// MatMul returns the matrix product of the 2-D tensors t [m,k] and o
// [k,n].
func (t *Tensor) MatMul(o *Tensor) (*Tensor, error) {
	if len(t.Shape) != 2 || len(o.Shape) != 2 || t.Shape[1] != o.Shape[0] {
		return nil, fmt.Errorf("ring: matmul shape mismatch %v x %v",
			t.Shape, o.Shape)
	}
	m, k, n := t.Shape[0], t.Shape[1], o.Shape[1]
	r := New(m, n)
	for i := 0; i < m; i++ {
		for l := 0; l < k; l++ {
			v := t.Data[i*k+l]
			if v == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				r.Data[i*n+j] += v * o.Data[l*n+j]
			}
		}
	}
	return r, nil
}

// Stack concatenates the argument tensors of identical shape into one
// tensor with a new leading dimension.
func Stack(ts ...*Tensor) *Tensor {
	shape := append([]int{len(ts)}, ts[0].Shape...)
	r := New(shape...)
	n := ts[0].Numel()
	for i, t := range ts {
		copy(r.Data[i*n:], t.Data)
	}
	return r
}

// Unstack splits a stacked tensor along its leading dimension.
func Unstack(t *Tensor) []*Tensor {
	count := t.Shape[0]
	shape := t.Shape[1:]
	n := Numel(shape)
	r := make([]*Tensor, count)
	for i := 0; i < count; i++ {
		sub := New(shape...)
		copy(sub.Data, t.Data[i*n:(i+1)*n])
		r[i] = sub
	}
	return r
}
