package sav

import (
	"io"
	"sync"
)

// ByteBuffer is a growable byte slice shared through a pool. Encoders
// lean on it for the patch-back style the wire format forces on them:
// every size field is written as a placeholder first, so the buffer
// exposes Window for in-place fixups alongside the usual appends.
type ByteBuffer struct {
	b []byte
}

var bbPool = sync.Pool{New: func() any { return &ByteBuffer{b: make([]byte, 0, 1024)} }}

// GetByteBuffer obtains an empty pooled buffer. Capacity from earlier
// uses is kept.
func GetByteBuffer() *ByteBuffer {
	bb := bbPool.Get().(*ByteBuffer)
	bb.Reset()
	return bb
}

// GetMinSize obtains an empty pooled buffer with room for at least
// size bytes.
func GetMinSize(size int) *ByteBuffer {
	bb := bbPool.Get().(*ByteBuffer)
	bb.Reset()
	if size > 0 {
		bb.Ensure(size)
	}
	return bb
}

// PutByteBuffer resets the buffer and returns it to the pool. The
// caller must not touch the buffer afterwards.
func PutByteBuffer(bb *ByteBuffer) { bb.Reset(); bbPool.Put(bb) }

// Bytes returns the accumulated bytes. The slice aliases the buffer
// and is invalidated by further writes.
func (bb *ByteBuffer) Bytes() []byte { return bb.b }

// Len returns the number of bytes written so far.
func (bb *ByteBuffer) Len() int { return len(bb.b) }

// Cap returns the current capacity.
func (bb *ByteBuffer) Cap() int { return cap(bb.b) }

// Reset drops the content, keeping capacity for reuse.
func (bb *ByteBuffer) Reset() { bb.b = bb.b[:0] }

// Ensure grows capacity so that n more bytes fit without another
// allocation.
func (bb *ByteBuffer) Ensure(n int) {
	need := len(bb.b) + n
	if need <= cap(bb.b) {
		return
	}
	c := cap(bb.b) * 2
	if c < 1024 {
		c = 1024
	}
	for c < need {
		c *= 2
	}
	grown := make([]byte, len(bb.b), c)
	copy(grown, bb.b)
	bb.b = grown
}

// Extend advances the length by n and returns the fresh tail for the
// caller to fill. The returned bytes are not zeroed.
func (bb *ByteBuffer) Extend(n int) []byte {
	off := len(bb.b)
	bb.Ensure(n)
	bb.b = bb.b[:off+n]
	return bb.b[off:]
}

// Window returns a writable view of [off, off+n), which must already
// be inside the buffer. Size slots reserved by the Writer are patched
// through it.
func (bb *ByteBuffer) Window(off, n int) []byte {
	return bb.b[off : off+n]
}

// Write implements io.Writer.
func (bb *ByteBuffer) Write(p []byte) (int, error) {
	bb.b = append(bb.b, p...)
	return len(p), nil
}

// WriteString appends s.
func (bb *ByteBuffer) WriteString(s string) (int, error) {
	bb.b = append(bb.b, s...)
	return len(s), nil
}

// WriteByte appends a single byte.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.b = append(bb.b, c)
	return nil
}

// ReadFrom implements io.ReaderFrom, draining r into the buffer.
func (bb *ByteBuffer) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		if cap(bb.b)-len(bb.b) < 32*1024 {
			bb.Ensure(32 * 1024)
		}
		n, err := r.Read(bb.b[len(bb.b):cap(bb.b)])
		if n > 0 {
			bb.b = bb.b[:len(bb.b)+n]
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}
