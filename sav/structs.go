package sav

import "encoding/binary"

// Struct payloads have no self-describing shape: the bytes are interpreted
// by the struct type name through the type table. Unknown names fall back
// to the dynamic layout, a nested property bag, which is how the format
// encodes the vast majority of game structs.

func (d *decoder) readGuid() (Guid, error) {
	b, err := d.r.view(16)
	if err != nil {
		return Guid{}, err
	}
	return Guid{
		A: binary.LittleEndian.Uint32(b[0:]),
		B: binary.LittleEndian.Uint32(b[4:]),
		C: binary.LittleEndian.Uint32(b[8:]),
		D: binary.LittleEndian.Uint32(b[12:]),
	}, nil
}

func (e *encoder) writeGuid(g Guid) {
	e.w.WriteUint32(g.A)
	e.w.WriteUint32(g.B)
	e.w.WriteUint32(g.C)
	e.w.WriteUint32(g.D)
}

// readStructBody decodes one struct payload according to the table layout
// for its type name. blobSize is the declared property size when the struct
// is a property payload, or -1 in element context where no per-element size
// exists; only the opaque blob layout needs it.
func (d *decoder) readStructBody(structType FName, blobSize int) (Value, error) {
	switch d.table.layout(structType.Value) {
	case LayoutGuid:
		g, err := d.readGuid()
		if err != nil {
			return nil, WrapError(err, structType.Value)
		}
		return GuidValue(g), nil

	case LayoutDateTime:
		v, err := d.r.ReadUint64()
		if err != nil {
			return nil, WrapError(err, structType.Value)
		}
		return DateTimeValue(v), nil

	case LayoutTimespan:
		v, err := d.r.ReadUint64()
		if err != nil {
			return nil, WrapError(err, structType.Value)
		}
		return TimespanValue(v), nil

	case LayoutVector:
		var v VectorValue
		var err error
		if v.X, err = d.r.ReadFloat64(); err != nil {
			return nil, WrapError(err, structType.Value)
		}
		if v.Y, err = d.r.ReadFloat64(); err != nil {
			return nil, WrapError(err, structType.Value)
		}
		if v.Z, err = d.r.ReadFloat64(); err != nil {
			return nil, WrapError(err, structType.Value)
		}
		return v, nil

	case LayoutSoftPath:
		s, err := d.readStr()
		if err != nil {
			return nil, WrapError(err, structType.Value)
		}
		return s, nil

	case LayoutPersistence:
		v, err := d.readPersistenceStruct()
		if err != nil {
			return nil, WrapError(err, structType.Value)
		}
		return v, nil

	case LayoutBlob:
		if blobSize < 0 {
			return nil, ArchiveError{Offset: d.r.Offset(), Reason: "opaque struct " + quoteStr(structType.Value) + " inside a container element"}
		}
		b, err := d.r.ReadBytes(blobSize)
		if err != nil {
			return nil, WrapError(err, structType.Value)
		}
		return BlobValue(b), nil

	default:
		bag, err := d.readBag()
		if err != nil {
			return nil, WrapError(err, structType.Value)
		}
		return BagValue{Props: bag}, nil
	}
}

// writeStructBody encodes one struct payload. The value's concrete type
// must agree with the table layout for the struct name.
func (e *encoder) writeStructBody(structType FName, v Value) error {
	switch e.table.layout(structType.Value) {
	case LayoutGuid:
		g, ok := v.(GuidValue)
		if !ok {
			return structErr(structType, "Guid", v)
		}
		e.writeGuid(Guid(g))
		return nil

	case LayoutDateTime:
		t, ok := v.(DateTimeValue)
		if !ok {
			return structErr(structType, "DateTime", v)
		}
		e.w.WriteUint64(uint64(t))
		return nil

	case LayoutTimespan:
		t, ok := v.(TimespanValue)
		if !ok {
			return structErr(structType, "Timespan", v)
		}
		e.w.WriteUint64(uint64(t))
		return nil

	case LayoutVector:
		vec, ok := v.(VectorValue)
		if !ok {
			return structErr(structType, "Vector", v)
		}
		e.w.WriteFloat64(vec.X)
		e.w.WriteFloat64(vec.Y)
		e.w.WriteFloat64(vec.Z)
		return nil

	case LayoutSoftPath:
		s, ok := v.(StrValue)
		if !ok {
			return structErr(structType, "soft path", v)
		}
		e.w.WriteString(s.S, s.Wide)
		return nil

	case LayoutPersistence:
		p, ok := v.(PersistenceValue)
		if !ok {
			return structErr(structType, "PersistenceBlob", v)
		}
		return e.writePersistenceStruct(p)

	case LayoutBlob:
		b, ok := v.(BlobValue)
		if !ok {
			return structErr(structType, "blob", v)
		}
		e.w.WriteBytes(b)
		return nil

	default:
		bag, ok := v.(BagValue)
		if !ok {
			return structErr(structType, "property bag", v)
		}
		if err := e.writeBag(bag.Props); err != nil {
			return WrapError(err, structType.Value)
		}
		return nil
	}
}

func structErr(structType FName, want string, v Value) error {
	return ValueError{Property: structType.Value, Tag: "StructProperty (" + want + ")", Got: typeName(v)}
}

func typeName(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}
