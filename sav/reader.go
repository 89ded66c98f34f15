package sav

import (
	"encoding/binary"
	"math"
	"unicode/utf16"
)

// Reader is a little-endian cursor over an in-memory byte slice. Unlike a
// streaming reader it supports absolute seeks, which the archive layout
// relies on: the name table and object index live at file offsets recorded
// in the header, and persistence blobs address their actors by offset.
//
// All read methods return ErrUnexpectedEOF when fewer bytes remain than
// requested. Callers attach context with WrapError.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a Reader positioned at the start of b. The Reader does
// not copy b; the caller must not mutate it while decoding.
func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// Offset returns the current cursor position.
func (r *Reader) Offset() int { return r.off }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.buf) - r.off }

// Size returns the total length of the underlying slice.
func (r *Reader) Size() int { return len(r.buf) }

// Seek moves the cursor to an absolute offset. Seeking to len(buf) is
// allowed and leaves the cursor at end of input.
func (r *Reader) Seek(off int) error {
	if off < 0 || off > len(r.buf) {
		return ErrUnexpectedEOF
	}
	r.off = off
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.Len() < n {
		return ErrUnexpectedEOF
	}
	r.off += n
	return nil
}

// view returns the next n bytes without copying and advances the cursor.
func (r *Reader) view(n int) ([]byte, error) {
	if n < 0 || r.Len() < n {
		return nil, ErrUnexpectedEOF
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// ReadBytes reads n bytes into a fresh slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.view(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadUint8 reads one byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if r.Len() < 1 {
		return 0, ErrUnexpectedEOF
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

// ReadInt8 reads one signed byte.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

// ReadBool reads one byte and interprets any nonzero value as true.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUint8()
	return v != 0, err
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.view(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadInt16 reads a little-endian int16.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.view(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.view(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadInt64 reads a little-endian int64.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadFloat32 reads a little-endian IEEE 754 single.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads a little-endian IEEE 754 double.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadString reads a length-prefixed string. The prefix is a signed int32:
// positive means that many single-byte characters including a trailing NUL,
// negative means that many UTF-16LE code units including a trailing NUL, and
// zero means the empty string. wide reports which of the two encodings was
// present so re-encoding can reproduce it.
func (r *Reader) ReadString() (s string, wide bool, err error) {
	start := r.off
	n, err := r.ReadInt32()
	if err != nil {
		return "", false, err
	}
	switch {
	case n == 0:
		return "", false, nil
	case n > 0:
		b, err := r.view(int(n))
		if err != nil {
			return "", false, err
		}
		if b[n-1] != 0 {
			return "", false, ArchiveError{Offset: start, Reason: "string missing trailing NUL"}
		}
		return string(b[:n-1]), false, nil
	default:
		cu := -int64(n) // code units, including NUL
		if cu > int64(r.Len())/2 {
			return "", false, ErrUnexpectedEOF
		}
		b, err := r.view(int(cu) * 2)
		if err != nil {
			return "", false, err
		}
		units := make([]uint16, cu)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(b[i*2:])
		}
		if units[cu-1] != 0 {
			return "", true, ArchiveError{Offset: start, Reason: "string missing trailing NUL"}
		}
		return string(utf16.Decode(units[:cu-1])), true, nil
	}
}
