package sav

import "fmt"

// LoadedData is the extra index entry payload of objects that were not
// loaded from a package: a name and the id of the outer object.
type LoadedData struct {
	Name    FName
	OuterID uint32
}

// Object is one entry of the archive object graph. The object's id is its
// position in Archive.Objects.
type Object struct {
	WasLoaded bool

	// Path is the object's class or package path. For object 0 of an
	// archive with a class path it mirrors that class path and is not
	// stored separately on the wire.
	Path string

	// Loaded is present exactly when WasLoaded is false.
	Loaded *LoadedData

	// HasData distinguishes an absent property record from an empty one:
	// both decode to no properties, but they encode differently.
	HasData    bool
	Properties Bag

	// Trailing preserves undecoded bytes at the end of the data record.
	Trailing []byte

	// IsActor marks objects that carry a component list. Components may be
	// empty while IsActor is still set.
	IsActor    bool
	Components []Component
}

// readObjectEntry decodes one object index entry. Object 0 of an archive
// with a class path stores no path of its own; it reuses the class path.
func readObjectEntry(d *decoder, id uint32, classPath *TopLevelAssetPath) (Object, error) {
	var obj Object
	wasLoaded, err := d.r.ReadUint8()
	if err != nil {
		return obj, WrapError(err, "wasLoaded")
	}
	obj.WasLoaded = wasLoaded != 0

	if obj.WasLoaded && id == 0 && classPath != nil {
		obj.Path = classPath.Path
	} else {
		if obj.Path, _, err = d.r.ReadString(); err != nil {
			return obj, WrapError(err, "path")
		}
	}

	if !obj.WasLoaded {
		var ld LoadedData
		if ld.Name, err = d.names.readName(d.r); err != nil {
			return obj, WrapError(err, "name")
		}
		if ld.OuterID, err = d.r.ReadUint32(); err != nil {
			return obj, WrapError(err, "outerId")
		}
		obj.Loaded = &ld
	}
	return obj, nil
}

func writeObjectEntry(e *encoder, obj *Object, id uint32, classPath *TopLevelAssetPath) error {
	e.w.WriteBool(obj.WasLoaded)

	// Mirror the reader: object 0's path is implied by the class path.
	if !(obj.WasLoaded && id == 0 && classPath != nil) {
		e.w.WriteString(obj.Path, false)
	}

	if !obj.WasLoaded {
		if obj.Loaded == nil {
			return ArchiveError{Offset: e.w.Len(), Reason: "unloaded object missing loaded data"}
		}
		if err := e.names.writeName(e.w, obj.Loaded.Name); err != nil {
			return err
		}
		e.w.WriteUint32(obj.Loaded.OuterID)
	}
	return nil
}

// readObjectData decodes one data record into obj: the sized property bag
// with its zero pad, any trailing bytes, and the component list.
func readObjectData(d *decoder, obj *Object, id uint32) error {
	length, err := d.r.ReadUint32()
	if err != nil {
		return WrapError(err, "dataLength")
	}
	start := d.r.Offset()

	if length > 0 {
		obj.HasData = true
		if obj.Properties, err = d.readBag(); err != nil {
			return err
		}
		if err := readObjectPad(d, id); err != nil {
			return err
		}
	}

	consumed := d.r.Offset() - start
	if consumed > int(length) {
		return ArchiveError{Offset: start, Reason: fmt.Sprintf("data record of %d bytes decoded as %d", length, consumed)}
	}
	if rest := int(length) - consumed; rest > 0 {
		if obj.Trailing, err = d.r.ReadBytes(rest); err != nil {
			return err
		}
	}

	isActor, err := d.r.ReadUint8()
	if err != nil {
		return WrapError(err, "isActor")
	}
	if isActor != 0 {
		obj.IsActor = true
		if obj.Components, err = readComponents(d); err != nil {
			return err
		}
	}
	return nil
}

// readObjectPad consumes the zero pad that closes a non-empty property
// record. Object 0 pads to eight bytes inside persistence blobs.
func readObjectPad(d *decoder, id uint32) error {
	off := d.r.Offset()
	var pad uint64
	var err error
	if id == 0 && d.padding == 8 {
		pad, err = d.r.ReadUint64()
	} else {
		var v uint32
		v, err = d.r.ReadUint32()
		pad = uint64(v)
	}
	if err != nil {
		return WrapError(err, "pad")
	}
	if pad != 0 {
		return ArchiveError{Offset: off, Reason: fmt.Sprintf("nonzero pad %#x after property bag", pad)}
	}
	return nil
}

func writeObjectData(e *encoder, obj *Object, id uint32) error {
	slot := e.w.Reserve32()
	start := e.w.Len()

	if obj.HasData {
		if err := e.writeBag(obj.Properties); err != nil {
			return err
		}
		if id == 0 && e.padding == 8 {
			e.w.WriteUint64(0)
		} else {
			e.w.WriteUint32(0)
		}
	} else if len(obj.Properties) > 0 || len(obj.Trailing) > 0 {
		return ArchiveError{Offset: e.w.Len(), Reason: "object carries data but HasData is unset"}
	}
	e.w.WriteBytes(obj.Trailing)
	e.w.Patch32(slot, uint32(e.w.Len()-start))

	if !obj.IsActor {
		e.w.WriteBool(false)
		return nil
	}
	e.w.WriteBool(true)
	return writeComponents(e, obj.Components)
}
