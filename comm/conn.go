//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

// Package comm implements the point-to-point and collective message
// passing between the ranked parties of an MPC session. The transport
// below a connection is an externally supplied io.ReadWriter; the
// package assumes it is authenticated.
package comm

import (
	"io"
	"sync/atomic"

	"github.com/privten/privten/ring"
)

const (
	numBuffers   = 3
	writeBufSize = 64 * 1024
	readBufSize  = 1024 * 1024
)

// Conn implements a buffered, framed protocol connection.
type Conn struct {
	conn      io.ReadWriter
	writeBuf  []byte
	writePos  int
	readBuf   []byte
	readStart int
	readEnd   int
	Stats     IOStats

	fromWriter chan []byte
	toWriter   chan []byte
	writerErr  error
}

// IOStats implements I/O statistics.
type IOStats struct {
	Sent    *atomic.Uint64
	Recvd   *atomic.Uint64
	Flushed *atomic.Uint64
}

// NewIOStats creates a new I/O statistics object.
func NewIOStats() IOStats {
	return IOStats{
		Sent:    new(atomic.Uint64),
		Recvd:   new(atomic.Uint64),
		Flushed: new(atomic.Uint64),
	}
}

// Add adds the argument stats to this IOStats and returns the sum.
func (stats IOStats) Add(o IOStats) IOStats {
	sum := NewIOStats()
	sum.Sent.Store(stats.Sent.Load() + o.Sent.Load())
	sum.Recvd.Store(stats.Recvd.Load() + o.Recvd.Load())
	sum.Flushed.Store(stats.Flushed.Load() + o.Flushed.Load())
	return sum
}

// Sum returns the sum of sent and received bytes.
func (stats IOStats) Sum() uint64 {
	return stats.Sent.Load() + stats.Recvd.Load()
}

// NewConn creates a new connection around the argument transport.
func NewConn(conn io.ReadWriter) *Conn {
	c := &Conn{
		conn:       conn,
		readBuf:    make([]byte, readBufSize),
		fromWriter: make(chan []byte, numBuffers),
		toWriter:   make(chan []byte, numBuffers),
		Stats:      NewIOStats(),
	}

	go c.writer()

	c.writeBuf = <-c.fromWriter

	return c
}

func (c *Conn) writer() {
	for i := 0; i < numBuffers; i++ {
		c.fromWriter <- make([]byte, writeBufSize)
	}

	for buf := range c.toWriter {
		_, err := c.conn.Write(buf)
		if err != nil {
			c.writerErr = err
		}
		c.fromWriter <- buf[0:cap(buf)]
	}
	close(c.fromWriter)
}

// Flush flushes any pending data in the connection.
func (c *Conn) Flush() error {
	if c.writePos > 0 {
		c.Stats.Sent.Add(uint64(c.writePos))
		c.toWriter <- c.writeBuf[0:c.writePos]

		next := <-c.fromWriter
		if c.writerErr != nil {
			return c.writerErr
		}

		c.writeBuf = next
		c.writePos = 0
		c.Stats.Flushed.Add(1)
	}
	return nil
}

func (c *Conn) needSpace(count int) error {
	if c.writePos+count > len(c.writeBuf) {
		return c.Flush()
	}
	return nil
}

// fill fills the input buffer from the connection. Any unused data in
// the buffer is moved to the beginning of the buffer.
func (c *Conn) fill(n int) error {
	if c.readStart < c.readEnd {
		copy(c.readBuf[0:], c.readBuf[c.readStart:c.readEnd])
		c.readEnd -= c.readStart
		c.readStart = 0
	} else {
		c.readStart = 0
		c.readEnd = 0
	}
	for c.readStart+n > c.readEnd {
		got, err := c.conn.Read(c.readBuf[c.readEnd:])
		if err != nil {
			return err
		}
		c.Stats.Recvd.Add(uint64(got))
		c.readEnd += got
	}
	return nil
}

// Close flushes any pending data and closes the connection.
func (c *Conn) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	// Wait that flush completes.
	close(c.toWriter)
	for range <-c.fromWriter {
	}
	if c.writerErr != nil {
		return c.writerErr
	}
	closer, ok := c.conn.(io.Closer)
	if ok {
		return closer.Close()
	}
	return nil
}

// SendByte sends a byte value.
func (c *Conn) SendByte(val byte) error {
	if err := c.needSpace(1); err != nil {
		return err
	}
	c.writeBuf[c.writePos] = val
	c.writePos++
	return nil
}

// SendUint32 sends an uint32 value.
func (c *Conn) SendUint32(val int) error {
	if err := c.needSpace(4); err != nil {
		return err
	}
	c.writeBuf[c.writePos+0] = byte((uint32(val) >> 24) & 0xff)
	c.writeBuf[c.writePos+1] = byte((uint32(val) >> 16) & 0xff)
	c.writeBuf[c.writePos+2] = byte((uint32(val) >> 8) & 0xff)
	c.writeBuf[c.writePos+3] = byte(uint32(val) & 0xff)
	c.writePos += 4
	return nil
}

// SendUint64 sends an uint64 value.
func (c *Conn) SendUint64(val uint64) error {
	if err := c.needSpace(8); err != nil {
		return err
	}
	for i := 0; i < 8; i++ {
		c.writeBuf[c.writePos+i] = byte(val >> (56 - 8*i))
	}
	c.writePos += 8
	return nil
}

// SendData sends binary data.
func (c *Conn) SendData(val []byte) error {
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	for len(val) > 0 {
		if err := c.needSpace(1); err != nil {
			return err
		}
		n := copy(c.writeBuf[c.writePos:], val)
		c.writePos += n
		val = val[n:]
	}
	return nil
}

// SendString sends a string value.
func (c *Conn) SendString(val string) error {
	return c.SendData([]byte(val))
}

// SendTensor sends a ring tensor: shape header followed by the
// packed elements.
func (c *Conn) SendTensor(t *ring.Tensor) error {
	if err := c.SendUint32(len(t.Shape)); err != nil {
		return err
	}
	for _, d := range t.Shape {
		if err := c.SendUint32(d); err != nil {
			return err
		}
	}
	for _, v := range t.Data {
		if err := c.SendUint64(v); err != nil {
			return err
		}
	}
	return nil
}

// ReceiveByte receives a byte value.
func (c *Conn) ReceiveByte() (byte, error) {
	if c.readStart+1 > c.readEnd {
		if err := c.fill(1); err != nil {
			return 0, err
		}
	}
	val := c.readBuf[c.readStart]
	c.readStart++
	return val, nil
}

// ReceiveUint32 receives an uint32 value.
func (c *Conn) ReceiveUint32() (int, error) {
	if c.readStart+4 > c.readEnd {
		if err := c.fill(4); err != nil {
			return 0, err
		}
	}
	var val uint32
	for i := 0; i < 4; i++ {
		val <<= 8
		val |= uint32(c.readBuf[c.readStart+i])
	}
	c.readStart += 4

	return int(val), nil
}

// ReceiveUint64 receives an uint64 value.
func (c *Conn) ReceiveUint64() (uint64, error) {
	if c.readStart+8 > c.readEnd {
		if err := c.fill(8); err != nil {
			return 0, err
		}
	}
	var val uint64
	for i := 0; i < 8; i++ {
		val <<= 8
		val |= uint64(c.readBuf[c.readStart+i])
	}
	c.readStart += 8

	return val, nil
}

// ReceiveData receives binary data.
func (c *Conn) ReceiveData() ([]byte, error) {
	count, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	result := make([]byte, count)
	for ofs := 0; ofs < count; {
		if c.readStart >= c.readEnd {
			if err := c.fill(1); err != nil {
				return nil, err
			}
		}
		n := copy(result[ofs:], c.readBuf[c.readStart:c.readEnd])
		c.readStart += n
		ofs += n
	}
	return result, nil
}

// ReceiveString receives a string value.
func (c *Conn) ReceiveString() (string, error) {
	data, err := c.ReceiveData()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReceiveTensor receives a ring tensor.
func (c *Conn) ReceiveTensor() (*ring.Tensor, error) {
	rank, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	shape := make([]int, rank)
	for i := 0; i < rank; i++ {
		shape[i], err = c.ReceiveUint32()
		if err != nil {
			return nil, err
		}
	}
	t := ring.New(shape...)
	for i := range t.Data {
		t.Data[i], err = c.ReceiveUint64()
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}
