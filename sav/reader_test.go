package sav

import (
	"bytes"
	"errors"
	"testing"
)

// TestScalarWire writes one value of every fixed-width kind and checks
// both the little-endian wire image and the values read back.
func TestScalarWire(t *testing.T) {
	bb := &ByteBuffer{}
	w := NewWriter(bb)
	w.WriteUint8(0xAB)
	w.WriteInt8(-2)
	w.WriteBool(true)
	w.WriteBool(false)
	w.WriteUint16(0xBEEF)
	w.WriteInt16(-3)
	w.WriteUint32(0xDEADBEEF)
	w.WriteInt32(-4)
	w.WriteUint64(0x1122334455667788)
	w.WriteInt64(-5)
	w.WriteFloat32(1.5)
	w.WriteFloat64(-2.25)

	want := []byte{
		0xAB,
		0xFE,
		0x01,
		0x00,
		0xEF, 0xBE,
		0xFD, 0xFF,
		0xEF, 0xBE, 0xAD, 0xDE,
		0xFC, 0xFF, 0xFF, 0xFF,
		0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11,
		0xFB, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0x00, 0x00, 0xC0, 0x3F,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0xC0,
	}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("wire image mismatch:\n got %x\nwant %x", w.Bytes(), want)
	}

	r := NewReader(w.Bytes())
	if v, err := r.ReadUint8(); err != nil || v != 0xAB {
		t.Fatalf("ReadUint8 = %v, %v", v, err)
	}
	if v, err := r.ReadInt8(); err != nil || v != -2 {
		t.Fatalf("ReadInt8 = %v, %v", v, err)
	}
	if v, err := r.ReadBool(); err != nil || !v {
		t.Fatalf("ReadBool = %v, %v", v, err)
	}
	if v, err := r.ReadBool(); err != nil || v {
		t.Fatalf("ReadBool = %v, %v", v, err)
	}
	if v, err := r.ReadUint16(); err != nil || v != 0xBEEF {
		t.Fatalf("ReadUint16 = %#x, %v", v, err)
	}
	if v, err := r.ReadInt16(); err != nil || v != -3 {
		t.Fatalf("ReadInt16 = %v, %v", v, err)
	}
	if v, err := r.ReadUint32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("ReadUint32 = %#x, %v", v, err)
	}
	if v, err := r.ReadInt32(); err != nil || v != -4 {
		t.Fatalf("ReadInt32 = %v, %v", v, err)
	}
	if v, err := r.ReadUint64(); err != nil || v != 0x1122334455667788 {
		t.Fatalf("ReadUint64 = %#x, %v", v, err)
	}
	if v, err := r.ReadInt64(); err != nil || v != -5 {
		t.Fatalf("ReadInt64 = %v, %v", v, err)
	}
	if v, err := r.ReadFloat32(); err != nil || v != 1.5 {
		t.Fatalf("ReadFloat32 = %v, %v", v, err)
	}
	if v, err := r.ReadFloat64(); err != nil || v != -2.25 {
		t.Fatalf("ReadFloat64 = %v, %v", v, err)
	}
	if r.Len() != 0 {
		t.Fatalf("%d bytes left unread", r.Len())
	}
}

// TestStringForms covers the three prefix shapes: zero for empty,
// positive byte count for single-byte text, negative code-unit count
// for UTF-16LE. Each case checks the exact wire bytes, the decoded
// string, and the wide flag the writer needs to reproduce them.
func TestStringForms(t *testing.T) {
	cases := []struct {
		name string
		s    string
		wide bool
		wire []byte
	}{
		{
			name: "empty",
			s:    "",
			wide: false,
			wire: []byte{0x00, 0x00, 0x00, 0x00},
		},
		{
			name: "narrow",
			s:    "Level",
			wide: false,
			wire: []byte{0x06, 0x00, 0x00, 0x00, 'L', 'e', 'v', 'e', 'l', 0x00},
		},
		{
			name: "wide",
			s:    "Zoë",
			wide: true,
			wire: []byte{0xFC, 0xFF, 0xFF, 0xFF, 'Z', 0x00, 'o', 0x00, 0xEB, 0x00, 0x00, 0x00},
		},
		{
			name: "empty wide",
			s:    "",
			wide: true,
			wire: []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00},
		},
		{
			name: "surrogate pair",
			s:    "\U0001F600",
			wide: true,
			wire: []byte{0xFD, 0xFF, 0xFF, 0xFF, 0x3D, 0xD8, 0x00, 0xDE, 0x00, 0x00},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bb := &ByteBuffer{}
			w := NewWriter(bb)
			w.WriteString(tc.s, tc.wide)
			if !bytes.Equal(w.Bytes(), tc.wire) {
				t.Fatalf("wire mismatch:\n got %x\nwant %x", w.Bytes(), tc.wire)
			}

			r := NewReader(tc.wire)
			s, wide, err := r.ReadString()
			if err != nil {
				t.Fatalf("ReadString: %v", err)
			}
			if s != tc.s || wide != tc.wide {
				t.Fatalf("ReadString = %q wide=%v, want %q wide=%v", s, wide, tc.s, tc.wide)
			}
			if r.Len() != 0 {
				t.Fatalf("%d bytes left unread", r.Len())
			}
		})
	}
}

// Non-ASCII text must be promoted to the UTF-16 form even when the
// caller asks for the narrow one, since the narrow form holds single
// bytes only.
func TestStringPromotesNonASCII(t *testing.T) {
	bb := &ByteBuffer{}
	w := NewWriter(bb)
	w.WriteString("café", false)

	r := NewReader(w.Bytes())
	s, wide, err := r.ReadString()
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if s != "café" || !wide {
		t.Fatalf("ReadString = %q wide=%v, want wide form", s, wide)
	}
}

func TestStringErrors(t *testing.T) {
	cases := []struct {
		name string
		wire []byte
		eof  bool
	}{
		{name: "truncated prefix", wire: []byte{0x06, 0x00}, eof: true},
		{name: "truncated narrow body", wire: []byte{0x06, 0x00, 0x00, 0x00, 'L', 'e'}, eof: true},
		{name: "narrow missing NUL", wire: []byte{0x03, 0x00, 0x00, 0x00, 'a', 'b', 'c'}},
		{name: "wide missing NUL", wire: []byte{0xFE, 0xFF, 0xFF, 0xFF, 'A', 0x00, 'A', 0x00}},
		{name: "truncated wide body", wire: []byte{0xFC, 0xFF, 0xFF, 0xFF, 'Z', 0x00}, eof: true},
		// -2147483648 code units: the length guard must reject the
		// count before negating it can overflow or allocate.
		{name: "huge negative prefix", wire: []byte{0x00, 0x00, 0x00, 0x80}, eof: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := NewReader(tc.wire).ReadString()
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.eof {
				if !errors.Is(err, ErrUnexpectedEOF) {
					t.Fatalf("expected ErrUnexpectedEOF, got %v", err)
				}
				return
			}
			var ae ArchiveError
			if !errors.As(err, &ae) {
				t.Fatalf("expected ArchiveError, got %v", err)
			}
		})
	}
}

// TestCursorBounds exercises Seek and Skip at and past the edges of the
// window. Failed moves must not advance the cursor.
func TestCursorBounds(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4})

	if err := r.Seek(4); err != nil {
		t.Fatalf("Seek to end: %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("Len at end = %d", r.Len())
	}
	if err := r.Seek(5); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("Seek past end = %v", err)
	}
	if err := r.Seek(-1); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("Seek negative = %v", err)
	}

	if err := r.Seek(1); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if err := r.Skip(2); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if r.Offset() != 3 {
		t.Fatalf("Offset after skip = %d", r.Offset())
	}
	if err := r.Skip(2); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("Skip past end = %v", err)
	}
	if r.Offset() != 3 {
		t.Fatalf("failed Skip moved the cursor to %d", r.Offset())
	}
	if err := r.Skip(-1); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("Skip negative = %v", err)
	}

	if _, err := r.ReadBytes(-1); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("ReadBytes(-1) = %v", err)
	}
	if _, err := r.ReadBytes(2); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("ReadBytes past end = %v", err)
	}
	b, err := r.ReadBytes(1)
	if err != nil || !bytes.Equal(b, []byte{4}) {
		t.Fatalf("ReadBytes = %x, %v", b, err)
	}
	if _, err := r.ReadUint8(); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("ReadUint8 at end = %v", err)
	}
}

// TestReservePatch checks the reserve-then-patch pattern used for every
// size prefix in the format: the slot is written after the payload it
// measures.
func TestReservePatch(t *testing.T) {
	bb := &ByteBuffer{}
	w := NewWriter(bb)

	slot32 := w.Reserve32()
	w.WriteBytes([]byte{0xAA, 0xBB})
	w.Patch32(slot32, uint32(w.Len()-slot32-4))

	slot64 := w.Reserve64()
	w.WriteUint8(0xCC)
	w.Patch64(slot64, uint64(w.Len()-slot64-8))

	want := []byte{
		0x02, 0x00, 0x00, 0x00, 0xAA, 0xBB,
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xCC,
	}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("patched image mismatch:\n got %x\nwant %x", w.Bytes(), want)
	}
}

func TestByteBuffer(t *testing.T) {
	bb := &ByteBuffer{}
	if _, err := bb.Write([]byte("abc")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := bb.WriteString("def"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := bb.WriteByte('!'); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	if got := string(bb.Bytes()); got != "abcdef!" {
		t.Fatalf("Bytes = %q", got)
	}
	if bb.Len() != 7 {
		t.Fatalf("Len = %d", bb.Len())
	}

	ext := bb.Extend(2)
	ext[0], ext[1] = 'x', 'y'
	copy(bb.Window(0, 3), "ABC")
	if got := string(bb.Bytes()); got != "ABCdef!xy" {
		t.Fatalf("after Extend+Window = %q", got)
	}

	if _, err := bb.ReadFrom(bytes.NewReader([]byte("zz"))); err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if got := string(bb.Bytes()); got != "ABCdef!xyzz" {
		t.Fatalf("after ReadFrom = %q", got)
	}

	bb.Reset()
	if bb.Len() != 0 || bb.Cap() == 0 {
		t.Fatalf("Reset: len=%d cap=%d", bb.Len(), bb.Cap())
	}
}

func TestByteBufferPool(t *testing.T) {
	bb := GetMinSize(4096)
	if bb.Len() != 0 {
		t.Fatalf("pooled buffer not reset: len=%d", bb.Len())
	}
	if bb.Cap() < 4096 {
		t.Fatalf("GetMinSize capacity = %d", bb.Cap())
	}
	bb.WriteString("junk")
	PutByteBuffer(bb)

	bb = GetByteBuffer()
	defer PutByteBuffer(bb)
	if bb.Len() != 0 {
		t.Fatalf("reused buffer not reset: len=%d", bb.Len())
	}
}
