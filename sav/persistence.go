package sav

import "fmt"

// Save game classes that decide the shape of persistence blob payloads.
// Profile saves nest a plain archive; world saves nest an actor container.
const (
	ProfileSaveClass = "/Game/_Core/Blueprints/Base/BP_RemnantSaveGameProfile"
	WorldSaveClass   = "/Game/_Core/Blueprints/Base/BP_RemnantSaveGame"
)

// Quat is a rotation stored as four doubles, w first.
type Quat struct {
	W, X, Y, Z float64
}

// Transform is the placement of a persisted actor.
type Transform struct {
	Rotation Quat
	Position VectorValue
	Scale    VectorValue
}

// PersistenceBlob is the payload of a PersistenceBlob struct property.
// Exactly one field is set: Archive for profile saves, Container for world
// saves, Raw when the enclosing archive's save game class is unknown and
// the bytes are preserved verbatim.
type PersistenceBlob struct {
	Archive   *Archive
	Container *PersistenceContainer
	Raw       []byte
}

// PersistenceContainer is the world-save form: offset-indexed actor blobs
// plus a destroyed-id list and a dynamically-spawned actor table.
type PersistenceContainer struct {
	Version   uint32
	Actors    []PersistenceActor
	Destroyed []uint64
}

// PersistenceActor is one persisted actor: an optional transform and a
// nested archive. Actors are kept in index order so re-encoding reproduces
// the original blob layout.
type PersistenceActor struct {
	ID        uint64
	Transform *Transform
	Archive   *Archive

	// Dynamic is present for actors that were spawned at runtime and must
	// be recreated from their class before loading.
	Dynamic *DynamicActor
}

// DynamicActor is the spawn record of a runtime-created actor.
type DynamicActor struct {
	Transform Transform
	ClassPath TopLevelAssetPath
}

// readPersistenceStruct decodes the length-prefixed blob. The sub-reader
// starts a fresh offset space: all offsets inside the blob are relative to
// its first byte.
func (d *decoder) readPersistenceStruct() (Value, error) {
	size, err := d.r.ReadUint32()
	if err != nil {
		return nil, WrapError(err, "size")
	}
	data, err := d.r.ReadBytes(int(size))
	if err != nil {
		return nil, err
	}
	blob, err := decodePersistenceBlob(data, d.classPath, d.table)
	if err != nil {
		return nil, err
	}
	return PersistenceValue{Blob: blob}, nil
}

func decodePersistenceBlob(data []byte, classPath string, table *TypeTable) (*PersistenceBlob, error) {
	switch classPath {
	case ProfileSaveClass:
		arch, err := decodeArchiveContent(NewReader(data), persistenceArchive, table)
		if err != nil {
			return nil, err
		}
		return &PersistenceBlob{Archive: arch}, nil
	case WorldSaveClass:
		c, err := decodePersistenceContainer(data, table)
		if err != nil {
			return nil, err
		}
		return &PersistenceBlob{Container: c}, nil
	default:
		// Unknown or absent save game class: keep the bytes so the
		// document still round-trips.
		return &PersistenceBlob{Raw: data}, nil
	}
}

func decodePersistenceContainer(data []byte, table *TypeTable) (*PersistenceContainer, error) {
	r := NewReader(data)
	c := &PersistenceContainer{}

	var err error
	if c.Version, err = r.ReadUint32(); err != nil {
		return nil, WrapError(err, "version")
	}
	indexOff, err := r.ReadUint32()
	if err != nil {
		return nil, WrapError(err, "indexOffset")
	}
	dynOff, err := r.ReadUint32()
	if err != nil {
		return nil, WrapError(err, "dynamicOffset")
	}

	if err := seekTo(r, uint64(indexOff), "actor index"); err != nil {
		return nil, err
	}
	count, err := r.ReadUint32()
	if err != nil {
		return nil, WrapError(err, "actorCount")
	}
	type info struct {
		id     uint64
		offset uint32
		size   uint32
	}
	var infos []info
	for i := 0; i < int(count); i++ {
		var in info
		if in.id, err = r.ReadUint64(); err != nil {
			return nil, WrapError(err, "actorIndex", i)
		}
		if in.offset, err = r.ReadUint32(); err != nil {
			return nil, WrapError(err, "actorIndex", i)
		}
		if in.size, err = r.ReadUint32(); err != nil {
			return nil, WrapError(err, "actorIndex", i)
		}
		infos = append(infos, in)
	}
	destroyedCount, err := r.ReadUint32()
	if err != nil {
		return nil, WrapError(err, "destroyedCount")
	}
	for i := 0; i < int(destroyedCount); i++ {
		id, err := r.ReadUint64()
		if err != nil {
			return nil, WrapError(err, "destroyed", i)
		}
		c.Destroyed = append(c.Destroyed, id)
	}

	for _, in := range infos {
		if err := seekTo(r, uint64(in.offset), "actor blob"); err != nil {
			return nil, err
		}
		blob, err := r.ReadBytes(int(in.size))
		if err != nil {
			return nil, WrapError(err, "actor", in.id)
		}
		actor, err := decodeActor(blob, table)
		if err != nil {
			return nil, WrapError(err, "actor", in.id)
		}
		actor.ID = in.id
		c.Actors = append(c.Actors, actor)
	}

	if err := seekTo(r, uint64(dynOff), "dynamic actors"); err != nil {
		return nil, err
	}
	dynCount, err := r.ReadUint32()
	if err != nil {
		return nil, WrapError(err, "dynamicCount")
	}
	for i := 0; i < int(dynCount); i++ {
		idOff := r.Offset()
		id, err := r.ReadUint64()
		if err != nil {
			return nil, WrapError(err, "dynamicActor", i)
		}
		var da DynamicActor
		if da.Transform, err = readTransform(r); err != nil {
			return nil, WrapError(err, "dynamicActor", i)
		}
		if da.ClassPath, err = readAssetPath(r); err != nil {
			return nil, WrapError(err, "dynamicActor", i)
		}
		actor := findActor(c.Actors, id)
		if actor == nil {
			return nil, ArchiveError{Offset: idOff, Reason: fmt.Sprintf("dynamic actor %d not in index", id)}
		}
		actor.Dynamic = &da
	}
	return c, nil
}

func findActor(actors []PersistenceActor, id uint64) *PersistenceActor {
	for i := range actors {
		if actors[i].ID == id {
			return &actors[i]
		}
	}
	return nil
}

// decodeActor reads one actor blob. The blob is its own offset space: the
// nested archive's section offsets count from the transform flag.
func decodeActor(blob []byte, table *TypeTable) (PersistenceActor, error) {
	var actor PersistenceActor
	r := NewReader(blob)

	hasTransform, err := r.ReadUint32()
	if err != nil {
		return actor, WrapError(err, "hasTransform")
	}
	if hasTransform != 0 {
		t, err := readTransform(r)
		if err != nil {
			return actor, err
		}
		actor.Transform = &t
	}
	if actor.Archive, err = decodeArchiveContent(r, actorArchive, table); err != nil {
		return actor, err
	}
	return actor, nil
}

func readTransform(r *Reader) (Transform, error) {
	var t Transform
	fields := []*float64{
		&t.Rotation.W, &t.Rotation.X, &t.Rotation.Y, &t.Rotation.Z,
		&t.Position.X, &t.Position.Y, &t.Position.Z,
		&t.Scale.X, &t.Scale.Y, &t.Scale.Z,
	}
	for _, f := range fields {
		v, err := r.ReadFloat64()
		if err != nil {
			return t, WrapError(err, "transform")
		}
		*f = v
	}
	return t, nil
}

func writeTransform(w *Writer, t Transform) {
	for _, f := range []float64{
		t.Rotation.W, t.Rotation.X, t.Rotation.Y, t.Rotation.Z,
		t.Position.X, t.Position.Y, t.Position.Z,
		t.Scale.X, t.Scale.Y, t.Scale.Z,
	} {
		w.WriteFloat64(f)
	}
}

// writePersistenceStruct encodes the blob into its own buffer first so the
// container's internal offsets stay blob-relative, then prefixes the size.
func (e *encoder) writePersistenceStruct(p PersistenceValue) error {
	if p.Blob == nil {
		return ArchiveError{Offset: e.w.Len(), Reason: "empty persistence blob"}
	}
	sub := GetByteBuffer()
	defer PutByteBuffer(sub)
	sw := NewWriter(sub)

	switch {
	case p.Blob.Raw != nil:
		sw.WriteBytes(p.Blob.Raw)
	case p.Blob.Archive != nil:
		if err := encodeArchiveContent(sw, p.Blob.Archive, persistenceArchive, e.table); err != nil {
			return err
		}
	case p.Blob.Container != nil:
		if err := encodePersistenceContainer(sw, p.Blob.Container, e.table); err != nil {
			return err
		}
	default:
		return ArchiveError{Offset: e.w.Len(), Reason: "empty persistence blob"}
	}

	e.w.WriteUint32(uint32(sub.Len()))
	e.w.WriteBytes(sub.Bytes())
	return nil
}

func encodePersistenceContainer(w *Writer, c *PersistenceContainer, table *TypeTable) error {
	w.WriteUint32(c.Version)
	indexSlot := w.Reserve32()
	dynSlot := w.Reserve32()

	type info struct {
		id     uint64
		offset uint32
		size   uint32
	}
	infos := make([]info, 0, len(c.Actors))
	for i := range c.Actors {
		actor := &c.Actors[i]
		off := w.Len()

		// Each actor blob is its own offset space and must be assembled
		// separately before being appended.
		sub := GetByteBuffer()
		sw := NewWriter(sub)
		err := encodeActor(sw, actor, table)
		if err == nil {
			w.WriteBytes(sub.Bytes())
		}
		PutByteBuffer(sub)
		if err != nil {
			return WrapError(err, "actor", actor.ID)
		}
		infos = append(infos, info{id: actor.ID, offset: uint32(off), size: uint32(w.Len() - off)})
	}

	w.Patch32(indexSlot, uint32(w.Len()))
	w.WriteUint32(uint32(len(infos)))
	for _, in := range infos {
		w.WriteUint64(in.id)
		w.WriteUint32(in.offset)
		w.WriteUint32(in.size)
	}
	w.WriteUint32(uint32(len(c.Destroyed)))
	for _, id := range c.Destroyed {
		w.WriteUint64(id)
	}

	w.Patch32(dynSlot, uint32(w.Len()))
	var dynCount uint32
	for i := range c.Actors {
		if c.Actors[i].Dynamic != nil {
			dynCount++
		}
	}
	w.WriteUint32(dynCount)
	for i := range c.Actors {
		actor := &c.Actors[i]
		if actor.Dynamic == nil {
			continue
		}
		w.WriteUint64(actor.ID)
		writeTransform(w, actor.Dynamic.Transform)
		writeAssetPath(w, actor.Dynamic.ClassPath)
	}
	return nil
}

func encodeActor(w *Writer, actor *PersistenceActor, table *TypeTable) error {
	if actor.Transform != nil {
		w.WriteUint32(1)
		writeTransform(w, *actor.Transform)
	} else {
		w.WriteUint32(0)
	}
	if actor.Archive == nil {
		return ArchiveError{Offset: w.Len(), Reason: "persisted actor missing archive"}
	}
	return encodeArchiveContent(w, actor.Archive, actorArchive, table)
}
