package sav

import "fmt"

// PackageVersion is the engine serialization version pair carried by top
// level archives and profile persistence blobs.
type PackageVersion struct {
	UE4 uint32
	UE5 uint32
}

// TopLevelAssetPath names the save game class of a top level archive, and
// the actor class of dynamically spawned persistence actors.
type TopLevelAssetPath struct {
	Path string
	Name string
}

// Archive is one decoded archive content: the name table, the object graph,
// and everything needed to write the same bytes back. Top level archives
// carry both PackageVersion and ClassPath; persistence blobs carry only
// PackageVersion; actor archives carry neither.
type Archive struct {
	PackageVersion *PackageVersion
	ClassPath      *TopLevelAssetPath

	// Version is the archive's own version word, distinct from the
	// container version in the file header.
	Version uint32

	// Names is the decoded name table in file order. Encoding seeds its
	// interning table from this slice so unchanged documents reproduce
	// their original name indexes.
	Names []NameEntry

	Objects []Object

	// DataOrder lists object ids in the order their data records appear
	// when that order differs from the object index order; nil otherwise.
	DataOrder []uint32

	// Trailing holds bytes past the last decoded section, preserved
	// verbatim.
	Trailing []byte
}

// archiveOpts selects the context-dependent parts of the archive layout.
type archiveOpts struct {
	packageVersion bool
	classPath      bool
	padding        uint32
}

var (
	topLevelArchive    = archiveOpts{packageVersion: true, classPath: true, padding: 4}
	persistenceArchive = archiveOpts{packageVersion: true, padding: 8}
	actorArchive       = archiveOpts{padding: 8}
)

// decodeArchiveContent reads one archive from r, whose origin must be the
// archive's offset coordinate space: section offsets in the stream are
// absolute positions in r.
func decodeArchiveContent(r *Reader, opts archiveOpts, table *TypeTable) (*Archive, error) {
	a := &Archive{}

	if opts.packageVersion {
		var pv PackageVersion
		var err error
		if pv.UE4, err = r.ReadUint32(); err != nil {
			return nil, WrapError(err, "packageVersion")
		}
		if pv.UE5, err = r.ReadUint32(); err != nil {
			return nil, WrapError(err, "packageVersion")
		}
		a.PackageVersion = &pv
	}
	if opts.classPath {
		tlap, err := readAssetPath(r)
		if err != nil {
			return nil, WrapError(err, "classPath")
		}
		a.ClassPath = &tlap
	}

	nameOff, err := r.ReadUint64()
	if err != nil {
		return nil, WrapError(err, "nameTableOffset")
	}

	// The name table is needed to decode everything else, so fetch it
	// before continuing with the sections in stream order.
	afterNames := r.Offset()
	if err := seekTo(r, nameOff, "name table"); err != nil {
		return nil, err
	}
	names, nameEnd, err := readNameTable(r)
	if err != nil {
		return nil, err
	}
	a.Names = names
	if err := r.Seek(afterNames); err != nil {
		return nil, ErrUnexpectedEOF
	}

	if a.Version, err = r.ReadUint32(); err != nil {
		return nil, WrapError(err, "version")
	}
	objOff, err := r.ReadUint64()
	if err != nil {
		return nil, WrapError(err, "objectIndexOffset")
	}

	d := &decoder{
		r:          r,
		names:      nameTableFrom(names),
		table:      table,
		objectRefs: true,
		padding:    opts.padding,
	}
	if a.ClassPath != nil {
		d.classPath = a.ClassPath.Path
	}

	dataStart := r.Offset()
	if err := seekTo(r, objOff, "object index"); err != nil {
		return nil, err
	}
	count, err := r.ReadUint32()
	if err != nil {
		return nil, WrapError(err, "objectCount")
	}
	for i := 0; i < int(count); i++ {
		obj, err := readObjectEntry(d, uint32(i), a.ClassPath)
		if err != nil {
			return nil, WrapError(err, "object", i)
		}
		a.Objects = append(a.Objects, obj)
	}
	indexEnd := r.Offset()

	if err := r.Seek(dataStart); err != nil {
		return nil, ErrUnexpectedEOF
	}
	order := make([]uint32, 0, len(a.Objects))
	seen := make(map[uint32]bool, len(a.Objects))
	for i := 0; i < int(count); i++ {
		idOff := r.Offset()
		id, err := r.ReadUint32()
		if err != nil {
			return nil, WrapError(err, "objectId")
		}
		if int(id) >= len(a.Objects) {
			return nil, ArchiveError{Offset: idOff, Reason: fmt.Sprintf("object id %d outside index of %d", id, len(a.Objects))}
		}
		if seen[id] {
			return nil, ArchiveError{Offset: idOff, Reason: fmt.Sprintf("duplicate data record for object %d", id)}
		}
		seen[id] = true
		order = append(order, id)
		if err := readObjectData(d, &a.Objects[id], id); err != nil {
			return nil, WrapError(err, "object", id)
		}
	}
	dataEnd := r.Offset()

	if !orderIsIdentity(order) {
		a.DataOrder = order
	}

	// Whatever lies past the known sections is preserved verbatim.
	end := dataEnd
	if indexEnd > end {
		end = indexEnd
	}
	if nameEnd > end {
		end = nameEnd
	}
	if end < r.Size() {
		if err := r.Seek(end); err != nil {
			return nil, ErrUnexpectedEOF
		}
		if a.Trailing, err = r.ReadBytes(r.Len()); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func readAssetPath(r *Reader) (TopLevelAssetPath, error) {
	var tlap TopLevelAssetPath
	var err error
	if tlap.Path, _, err = r.ReadString(); err != nil {
		return tlap, WrapError(err, "path")
	}
	if tlap.Name, _, err = r.ReadString(); err != nil {
		return tlap, WrapError(err, "name")
	}
	return tlap, nil
}

func writeAssetPath(w *Writer, tlap TopLevelAssetPath) {
	w.WriteString(tlap.Path, false)
	w.WriteString(tlap.Name, false)
}

func readNameTable(r *Reader) ([]NameEntry, int, error) {
	count, err := r.ReadUint32()
	if err != nil {
		return nil, 0, WrapError(err, "nameCount")
	}
	var names []NameEntry
	for i := 0; i < int(count); i++ {
		s, wide, err := r.ReadString()
		if err != nil {
			return nil, 0, WrapError(err, "nameTable", i)
		}
		names = append(names, NameEntry{Value: s, Wide: wide})
	}
	return names, r.Offset(), nil
}

// seekTo validates a stream offset before following it.
func seekTo(r *Reader, off uint64, what string) error {
	if off > uint64(r.Size()) {
		return ArchiveError{Offset: r.Offset(), Reason: fmt.Sprintf("%s offset %d outside content of %d bytes", what, off, r.Size())}
	}
	return r.Seek(int(off))
}

func orderIsIdentity(order []uint32) bool {
	for i, id := range order {
		if id != uint32(i) {
			return false
		}
	}
	return true
}

// encodeArchiveContent writes a back out in the layout the decoder accepts:
// data records first, then the object index, then the name table, with the
// two section offsets patched into the fixed header. w's origin must be the
// archive's offset coordinate space.
func encodeArchiveContent(w *Writer, a *Archive, opts archiveOpts, table *TypeTable) error {
	if opts.packageVersion {
		if a.PackageVersion == nil {
			return ArchiveError{Offset: w.Len(), Reason: "archive requires a package version here"}
		}
		w.WriteUint32(a.PackageVersion.UE4)
		w.WriteUint32(a.PackageVersion.UE5)
	}
	if opts.classPath {
		if a.ClassPath == nil {
			return ArchiveError{Offset: w.Len(), Reason: "archive requires a class path here"}
		}
		writeAssetPath(w, *a.ClassPath)
	}

	nameSlot := w.Reserve64()
	w.WriteUint32(a.Version)
	objSlot := w.Reserve64()

	names := nameTableFrom(a.Names)
	e := &encoder{
		w:          w,
		names:      names,
		table:      table,
		objectRefs: true,
		padding:    opts.padding,
	}
	if a.ClassPath != nil {
		e.classPath = a.ClassPath.Path
	}

	order := a.DataOrder
	if order == nil {
		order = make([]uint32, len(a.Objects))
		for i := range order {
			order[i] = uint32(i)
		}
	} else if len(order) != len(a.Objects) {
		return ArchiveError{Offset: w.Len(), Reason: fmt.Sprintf("data order lists %d records for %d objects", len(order), len(a.Objects))}
	}
	written := make(map[uint32]bool, len(order))
	for _, id := range order {
		if int(id) >= len(a.Objects) {
			return ArchiveError{Offset: w.Len(), Reason: fmt.Sprintf("data order id %d outside index of %d", id, len(a.Objects))}
		}
		if written[id] {
			return ArchiveError{Offset: w.Len(), Reason: fmt.Sprintf("data order repeats object %d", id)}
		}
		written[id] = true
		w.WriteUint32(id)
		if err := writeObjectData(e, &a.Objects[id], id); err != nil {
			return WrapError(err, "object", id)
		}
	}

	w.Patch64(objSlot, uint64(w.Len()))
	w.WriteUint32(uint32(len(a.Objects)))
	for i := range a.Objects {
		if err := writeObjectEntry(e, &a.Objects[i], uint32(i), a.ClassPath); err != nil {
			return WrapError(err, "object", i)
		}
	}

	w.Patch64(nameSlot, uint64(w.Len()))
	w.WriteUint32(uint32(len(names.entries)))
	for _, entry := range names.entries {
		w.WriteString(entry.Value, entry.Wide)
	}

	w.WriteBytes(a.Trailing)
	return nil
}
