package benchmarks

import (
	"testing"

	msgp "github.com/tinylib/msgp/msgp"

	"github.com/savelab/sav.go/sav"
)

// Primitive write microbenchmarks comparing the save writer against
// tinylib/msgp's append helpers for similar operations. The save format
// writes fixed-width little-endian fields and length-prefixed strings,
// so msgp's varint-style appends are the closest off-the-shelf analog.

func BenchmarkSav_WriteUint64(b *testing.B) {
	bb := sav.GetByteBuffer()
	defer sav.PutByteBuffer(bb)
	w := sav.NewWriter(bb)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bb.Reset()
		w.WriteUint64(uint64(i))
	}
}

func BenchmarkMsgp_AppendUint64(b *testing.B) {
	var out []byte
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out = msgp.AppendUint64(out[:0], uint64(i))
	}
	_ = out
}

func BenchmarkSav_WriteString(b *testing.B) {
	bb := sav.GetByteBuffer()
	defer sav.PutByteBuffer(bb)
	w := sav.NewWriter(bb)
	s := "hello world"
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bb.Reset()
		w.WriteString(s, false)
	}
}

func BenchmarkMsgp_AppendString(b *testing.B) {
	var out []byte
	s := "hello world"
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out = msgp.AppendString(out[:0], s)
	}
	_ = out
}

func BenchmarkSav_WriteBytes(b *testing.B) {
	bb := sav.GetByteBuffer()
	defer sav.PutByteBuffer(bb)
	w := sav.NewWriter(bb)
	data := []byte("payload bytes")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bb.Reset()
		w.WriteBytes(data)
	}
}

func BenchmarkMsgp_AppendBytes(b *testing.B) {
	var out []byte
	data := []byte("payload bytes")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out = msgp.AppendBytes(out[:0], data)
	}
	_ = out
}

func BenchmarkSav_ReadString(b *testing.B) {
	bb := sav.GetByteBuffer()
	defer sav.PutByteBuffer(bb)
	w := sav.NewWriter(bb)
	w.WriteString("hello world", false)
	enc := bb.Bytes()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := sav.NewReader(enc)
		if _, _, err := r.ReadString(); err != nil {
			b.Fatalf("ReadString: %v", err)
		}
	}
}

func BenchmarkMsgp_ReadString(b *testing.B) {
	enc := msgp.AppendString(nil, "hello world")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := msgp.ReadStringBytes(enc); err != nil {
			b.Fatalf("ReadStringBytes: %v", err)
		}
	}
}
