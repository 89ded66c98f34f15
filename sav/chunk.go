package sav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strconv"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
)

// packageFileTag opens every compressed chunk.
const packageFileTag uint64 = 0x22222222_9E2A83C1

// maxChunkSize is the uncompressed payload limit per chunk. It is also
// echoed into each chunk header, where readers ignore it.
const maxChunkSize = 0x20000

// Compression identifies the codec byte of a chunk.
type Compression uint8

const (
	CompressionCustom Compression = 0
	CompressionNone   Compression = 1
	CompressionOodle  Compression = 2
	CompressionZlib   Compression = 3
	CompressionGzip   Compression = 4
	CompressionLZ4    Compression = 5
)

var compressionNames = map[Compression]string{
	CompressionCustom: "custom",
	CompressionNone:   "none",
	CompressionOodle:  "oodle",
	CompressionZlib:   "zlib",
	CompressionGzip:   "gzip",
	CompressionLZ4:    "lz4",
}

func (c Compression) String() string {
	if s, ok := compressionNames[c]; ok {
		return s
	}
	return "compression(" + strconv.Itoa(int(c)) + ")"
}

// ParseCompression resolves a codec word as used on the command line.
func ParseCompression(s string) (Compression, error) {
	for c, name := range compressionNames {
		if name == s {
			return c, nil
		}
	}
	return CompressionZlib, fmt.Errorf("sav: unknown compression %q", s)
}

// readChunks unpacks the chunked container: it validates the header,
// inflates every chunk, rebuilds the content image, restores the version
// word the chunk layer stole, and verifies the checksum. The returned
// compression is the codec of the first chunk, zlib when there are none.
func readChunks(file []byte) (content []byte, version uint32, comp Compression, err error) {
	r := NewReader(file)

	crc, err := r.ReadUint32()
	if err != nil {
		return nil, 0, 0, WrapError(err, "header")
	}
	declaredSize, err := r.ReadUint32()
	if err != nil {
		return nil, 0, 0, WrapError(err, "header")
	}
	if version, err = r.ReadUint32(); err != nil {
		return nil, 0, 0, WrapError(err, "header")
	}

	// The content image opens with a copy of the header's checksum and
	// size words; the inflated chunks carry everything from offset 8 on.
	bb := &ByteBuffer{}
	bb.Ensure(int(declaredSize))
	w := NewWriter(bb)
	w.WriteUint32(crc)
	w.WriteUint32(declaredSize)

	comp = CompressionZlib
	first := true
	for r.Len() > 0 {
		c, err := readChunk(r, bb)
		if err != nil {
			return nil, 0, 0, err
		}
		if first {
			comp = c
			first = false
		}
	}

	content = bb.Bytes()
	if len(content) < 16 {
		return nil, 0, 0, &ChunkError{Offset: -1, Reason: fmt.Sprintf("content of %d bytes is too short for an archive header", len(content))}
	}
	if int(declaredSize) != len(content) {
		return nil, 0, 0, &ChunkError{Offset: -1, Reason: fmt.Sprintf("header declares %d content bytes, chunks inflate to %d", declaredSize, len(content))}
	}

	// The chunk layer reuses the version slot for a size word; put the
	// container version back before checking the checksum, which was
	// computed with the version in place.
	binary.LittleEndian.PutUint32(bb.Window(8, 4), version)

	if got := crc32.ChecksumIEEE(content[4:]); got != crc {
		return nil, 0, 0, &ChunkError{Offset: -1, Reason: fmt.Sprintf("checksum %08x does not match header %08x", got, crc)}
	}
	return content, version, comp, nil
}

// readChunk inflates one chunk onto bb and returns its codec.
func readChunk(r *Reader, bb *ByteBuffer) (Compression, error) {
	chunkOff := r.Offset()

	tag, err := r.ReadUint64()
	if err != nil {
		return 0, WrapError(err, "chunk")
	}
	if tag != packageFileTag {
		return 0, &ChunkError{Offset: chunkOff, Reason: fmt.Sprintf("bad package tag %016x", tag)}
	}
	if _, err = r.ReadUint64(); err != nil { // chunk size hint, unused
		return 0, WrapError(err, "chunk")
	}

	compByte, err := r.ReadUint8()
	if err != nil {
		return 0, WrapError(err, "chunk")
	}
	comp := Compression(compByte)
	if comp == CompressionCustom {
		name, _, err := r.ReadString()
		if err != nil {
			return 0, WrapError(err, "chunk")
		}
		return 0, &ChunkError{Offset: chunkOff, Reason: "unsupported custom compressor " + strconv.Quote(name)}
	}

	compressedSize, err := r.ReadUint64()
	if err != nil {
		return 0, WrapError(err, "chunk")
	}
	uncompressedSize, err := r.ReadUint64()
	if err != nil {
		return 0, WrapError(err, "chunk")
	}
	// The second info pair repeats the first and is ignored.
	if err := r.Skip(16); err != nil {
		return 0, WrapError(err, "chunk")
	}
	if compressedSize > uint64(r.Len()) {
		return 0, ErrUnexpectedEOF
	}
	data, err := r.view(int(compressedSize))
	if err != nil {
		return 0, err
	}

	before := bb.Len()
	switch comp {
	case CompressionNone:
		bb.Write(data)
	case CompressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return 0, &ChunkError{Offset: chunkOff, Reason: "zlib: " + err.Error()}
		}
		if _, err := bb.ReadFrom(zr); err != nil {
			return 0, &ChunkError{Offset: chunkOff, Reason: "zlib: " + err.Error()}
		}
		zr.Close()
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return 0, &ChunkError{Offset: chunkOff, Reason: "gzip: " + err.Error()}
		}
		if _, err := bb.ReadFrom(zr); err != nil {
			return 0, &ChunkError{Offset: chunkOff, Reason: "gzip: " + err.Error()}
		}
		zr.Close()
	case CompressionLZ4:
		if _, err := bb.ReadFrom(lz4.NewReader(bytes.NewReader(data))); err != nil {
			return 0, &ChunkError{Offset: chunkOff, Reason: "lz4: " + err.Error()}
		}
	default:
		return 0, &ChunkError{Offset: chunkOff, Reason: "unsupported compressor " + comp.String()}
	}

	if added := bb.Len() - before; uint64(added) != uncompressedSize {
		return 0, &ChunkError{Offset: chunkOff, Reason: fmt.Sprintf("chunk declares %d uncompressed bytes, inflated to %d", uncompressedSize, added)}
	}
	return comp, nil
}

// writeChunks splits payload into chunks of at most maxChunkSize and
// appends them compressed with comp.
func writeChunks(w *Writer, payload []byte, comp Compression) error {
	for len(payload) > 0 {
		n := len(payload)
		if n > maxChunkSize {
			n = maxChunkSize
		}
		if err := writeChunk(w, payload[:n], comp); err != nil {
			return err
		}
		payload = payload[n:]
	}
	return nil
}

func writeChunk(w *Writer, part []byte, comp Compression) error {
	w.WriteUint64(packageFileTag)
	w.WriteUint64(maxChunkSize)
	w.WriteUint8(uint8(comp))

	sizeSlot := w.Reserve64()
	w.WriteUint64(uint64(len(part)))
	sizeSlot2 := w.Reserve64()
	w.WriteUint64(uint64(len(part)))

	start := w.Len()
	switch comp {
	case CompressionNone:
		w.WriteBytes(part)
	case CompressionZlib:
		zw := zlib.NewWriter(w.Buffer())
		if _, err := zw.Write(part); err != nil {
			return &ChunkError{Offset: start, Reason: "zlib: " + err.Error()}
		}
		if err := zw.Close(); err != nil {
			return &ChunkError{Offset: start, Reason: "zlib: " + err.Error()}
		}
	case CompressionGzip:
		zw := gzip.NewWriter(w.Buffer())
		if _, err := zw.Write(part); err != nil {
			return &ChunkError{Offset: start, Reason: "gzip: " + err.Error()}
		}
		if err := zw.Close(); err != nil {
			return &ChunkError{Offset: start, Reason: "gzip: " + err.Error()}
		}
	case CompressionLZ4:
		zw := lz4.NewWriter(w.Buffer())
		if _, err := zw.Write(part); err != nil {
			return &ChunkError{Offset: start, Reason: "lz4: " + err.Error()}
		}
		if err := zw.Close(); err != nil {
			return &ChunkError{Offset: start, Reason: "lz4: " + err.Error()}
		}
	default:
		return &ChunkError{Offset: start, Reason: "cannot encode with compressor " + comp.String()}
	}

	compressed := uint64(w.Len() - start)
	w.Patch64(sizeSlot, compressed)
	w.Patch64(sizeSlot2, compressed)
	return nil
}
