package sav

import (
	"encoding/binary"
	"math"
	"unicode/utf16"
)

// Writer is the append-side counterpart of Reader: little-endian primitives
// over a pooled ByteBuffer. Size prefixes whose value is only known after
// the payload is written are handled with Reserve*/Patch*: reserve a slot,
// write the payload, then patch the measured length in.
type Writer struct {
	bb *ByteBuffer
}

// NewWriter returns a Writer appending to bb.
func NewWriter(bb *ByteBuffer) *Writer { return &Writer{bb: bb} }

// Buffer returns the underlying ByteBuffer.
func (w *Writer) Buffer() *ByteBuffer { return w.bb }

// Bytes returns everything written so far.
func (w *Writer) Bytes() []byte { return w.bb.Bytes() }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.bb.Len() }

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.bb.Ensure(len(b))
	w.bb.b = append(w.bb.b, b...)
}

// WriteUint8 appends one byte.
func (w *Writer) WriteUint8(v uint8) {
	w.bb.Ensure(1)
	w.bb.b = append(w.bb.b, v)
}

// WriteInt8 appends one signed byte.
func (w *Writer) WriteInt8(v int8) { w.WriteUint8(uint8(v)) }

// WriteBool appends one byte, 1 for true and 0 for false.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

// WriteUint16 appends a little-endian uint16.
func (w *Writer) WriteUint16(v uint16) {
	binary.LittleEndian.PutUint16(w.bb.Extend(2), v)
}

// WriteInt16 appends a little-endian int16.
func (w *Writer) WriteInt16(v int16) { w.WriteUint16(uint16(v)) }

// WriteUint32 appends a little-endian uint32.
func (w *Writer) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.bb.Extend(4), v)
}

// WriteInt32 appends a little-endian int32.
func (w *Writer) WriteInt32(v int32) { w.WriteUint32(uint32(v)) }

// WriteUint64 appends a little-endian uint64.
func (w *Writer) WriteUint64(v uint64) {
	binary.LittleEndian.PutUint64(w.bb.Extend(8), v)
}

// WriteInt64 appends a little-endian int64.
func (w *Writer) WriteInt64(v int64) { w.WriteUint64(uint64(v)) }

// WriteFloat32 appends a little-endian IEEE 754 single.
func (w *Writer) WriteFloat32(v float32) { w.WriteUint32(math.Float32bits(v)) }

// WriteFloat64 appends a little-endian IEEE 754 double.
func (w *Writer) WriteFloat64(v float64) { w.WriteUint64(math.Float64bits(v)) }

// WriteString appends a length-prefixed string. The empty string is written
// as a zero prefix with no payload. When wide is false and every rune is
// ASCII the single-byte form is used; otherwise the string is written as
// UTF-16LE with a negative code-unit count. Both forms include a trailing
// NUL, matching what ReadString accepts.
func (w *Writer) WriteString(s string, wide bool) {
	if s == "" && !wide {
		w.WriteUint32(0)
		return
	}
	if !wide && isASCII(s) {
		w.WriteInt32(int32(len(s)) + 1)
		w.bb.Ensure(len(s) + 1)
		w.bb.b = append(w.bb.b, s...)
		w.bb.b = append(w.bb.b, 0)
		return
	}
	units := utf16.Encode([]rune(s))
	w.WriteInt32(-(int32(len(units)) + 1))
	out := w.bb.Extend(len(units)*2 + 2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[i*2:], u)
	}
	out[len(units)*2] = 0
	out[len(units)*2+1] = 0
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// Reserve32 reserves a 4-byte slot at the current position and returns its
// offset for a later Patch32.
func (w *Writer) Reserve32() int {
	off := w.bb.Len()
	w.bb.Extend(4)
	return off
}

// Patch32 writes v into a slot previously returned by Reserve32.
func (w *Writer) Patch32(off int, v uint32) {
	binary.LittleEndian.PutUint32(w.bb.Window(off, 4), v)
}

// Reserve64 reserves an 8-byte slot at the current position and returns its
// offset for a later Patch64.
func (w *Writer) Reserve64() int {
	off := w.bb.Len()
	w.bb.Extend(8)
	return off
}

// Patch64 writes v into a slot previously returned by Reserve64.
func (w *Writer) Patch64(off int, v uint64) {
	binary.LittleEndian.PutUint64(w.bb.Window(off, 8), v)
}
