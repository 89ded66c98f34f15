package sav

import (
	"encoding/binary"
	"hash/crc32"
	"os"
)

// SaveFile is a decoded save container: the outer header plus the
// top-level archive carried by its compressed chunks.
type SaveFile struct {
	Version     uint32
	BuildNumber uint32

	// Compression is the chunk codec observed on decode and used again
	// on encode. The zero value selects zlib.
	Compression Compression

	Archive *Archive
}

// Decode unpacks a complete save file image. A nil table selects
// DefaultTypeTable.
func Decode(data []byte, table *TypeTable) (*SaveFile, error) {
	if table == nil {
		table = DefaultTypeTable()
	}

	content, version, comp, err := readChunks(data)
	if err != nil {
		return nil, err
	}

	f := &SaveFile{Version: version, Compression: comp}

	// Offsets inside the archive count from the start of the content
	// image, so the reader keeps the 16 byte header in its window.
	r := NewReader(content)
	if err := r.Skip(12); err != nil {
		return nil, WrapError(err, "content")
	}
	if f.BuildNumber, err = r.ReadUint32(); err != nil {
		return nil, WrapError(err, "buildNumber")
	}
	if f.Archive, err = decodeArchiveContent(r, topLevelArchive, table); err != nil {
		return nil, err
	}
	return f, nil
}

// DecodeFile reads and decodes the save file at path.
func DecodeFile(path string, table *TypeTable) (*SaveFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, table)
}

// Encode produces a save file image that Decode reverses. A nil table
// selects DefaultTypeTable.
func (f *SaveFile) Encode(table *TypeTable) ([]byte, error) {
	if f.Archive == nil {
		return nil, ArchiveError{Reason: "save file has no archive"}
	}
	if table == nil {
		table = DefaultTypeTable()
	}

	content := GetByteBuffer()
	defer PutByteBuffer(content)
	w := NewWriter(content)

	crcSlot := w.Reserve32()
	sizeSlot := w.Reserve32()
	w.WriteUint32(f.Version)
	w.WriteUint32(f.BuildNumber)
	if err := encodeArchiveContent(w, f.Archive, topLevelArchive, table); err != nil {
		return nil, err
	}

	// The checksum covers everything past the checksum word itself, with
	// the version in the third slot. Only after that is the slot reused
	// for the chunked payload size.
	w.Patch32(sizeSlot, uint32(w.Len()))
	crc := crc32.ChecksumIEEE(content.Bytes()[4:])
	w.Patch32(crcSlot, crc)
	binary.LittleEndian.PutUint32(content.Window(8, 4), uint32(w.Len()-12))

	comp := f.Compression
	if comp == CompressionCustom {
		comp = CompressionZlib
	}

	out := GetByteBuffer()
	defer PutByteBuffer(out)
	fw := NewWriter(out)
	fw.WriteUint32(crc)
	fw.WriteUint32(uint32(content.Len()))
	fw.WriteUint32(f.Version)
	if err := writeChunks(fw, content.Bytes()[8:], comp); err != nil {
		return nil, err
	}
	return append([]byte(nil), out.Bytes()...), nil
}
