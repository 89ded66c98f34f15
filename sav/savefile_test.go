package sav

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleSaveFile() *SaveFile {
	return &SaveFile{Version: 10, BuildNumber: 455558, Archive: sampleArchive()}
}

// TestSaveFileRoundTrip decodes an encoded save and re-encodes it to the
// same bytes. The zero Compression value selects zlib.
func TestSaveFileRoundTrip(t *testing.T) {
	in := sampleSaveFile()
	first, err := in.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	f, err := Decode(first, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Version != 10 {
		t.Fatalf("version = %d", f.Version)
	}
	if f.BuildNumber != 455558 {
		t.Fatalf("build number = %d", f.BuildNumber)
	}
	if f.Compression != CompressionZlib {
		t.Fatalf("compression = %v, want zlib", f.Compression)
	}
	if f.Archive == nil || len(f.Archive.Objects) != 3 {
		t.Fatalf("archive = %+v", f.Archive)
	}
	if p := Find(f.Archive.Objects[0].Properties, "Level"); p == nil || p.Value.(Int32Value) != 7 {
		t.Fatalf("Level = %+v", p)
	}

	second, err := f.Encode(nil)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("images differ: %d bytes vs %d bytes", len(first), len(second))
	}
}

// TestSaveFileCompressions re-encodes with the codec observed on decode,
// so a file saved with any supported codec keeps it across a round trip.
func TestSaveFileCompressions(t *testing.T) {
	for _, comp := range []Compression{CompressionNone, CompressionZlib, CompressionGzip, CompressionLZ4} {
		t.Run(comp.String(), func(t *testing.T) {
			in := sampleSaveFile()
			in.Compression = comp
			first, err := in.Encode(nil)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			f, err := Decode(first, nil)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if f.Compression != comp {
				t.Fatalf("compression = %v, want %v", f.Compression, comp)
			}
			second, err := f.Encode(nil)
			if err != nil {
				t.Fatalf("re-encode: %v", err)
			}
			if !bytes.Equal(first, second) {
				t.Fatal("round trip changed the image")
			}
		})
	}
}

// A custom compressor has no portable name to write back, so encoding
// falls back to zlib.
func TestSaveFileCustomFallsBackToZlib(t *testing.T) {
	in := sampleSaveFile()
	in.Compression = CompressionCustom
	data, err := in.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	f, err := Decode(data, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Compression != CompressionZlib {
		t.Fatalf("compression = %v, want zlib", f.Compression)
	}
}

func TestSaveFileNoArchive(t *testing.T) {
	_, err := (&SaveFile{Version: 10}).Encode(nil)
	var ae ArchiveError
	if !errors.As(err, &ae) || !strings.Contains(ae.Reason, "save file has no archive") {
		t.Fatalf("expected missing archive error, got %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(nil, nil); !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("empty input = %v", err)
	}

	_, err := Decode([]byte("this is not a save file, not even close"), nil)
	var ce *ChunkError
	if !errors.As(err, &ce) {
		t.Fatalf("garbage input = %v", err)
	}
}

func TestDecodeFile(t *testing.T) {
	data, err := sampleSaveFile().Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "profile.sav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := DecodeFile(path, nil)
	if err != nil {
		t.Fatalf("decode file: %v", err)
	}
	if f.BuildNumber != 455558 {
		t.Fatalf("build number = %d", f.BuildNumber)
	}

	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.sav"), nil); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing file = %v", err)
	}
}
