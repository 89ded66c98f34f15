package sav

import "fmt"

// typeCodec binds one wire tag to its decode and encode halves. head and
// writeHead cover tag-specific fields that precede the header terminator;
// body and writeBody cover the sized payload; elem and writeElem cover the
// bare element form used inside arrays, sets, and map values; keyElem and
// writeKeyElem override the map key form where it differs from the element
// form. A nil elem means the tag cannot appear inside a container.
type typeCodec struct {
	kind Kind

	head    func(*decoder, *propHead) error
	body    func(*decoder, *propHead) (Value, error)
	elem    func(*decoder, FName) (Value, error)
	keyElem func(*decoder, FName) (Value, error)

	writeHead    func(*encoder, *Property) error
	writeBody    func(*encoder, *Property) error
	writeElem    func(*encoder, FName, Value) error
	writeKeyElem func(*encoder, FName, Value) error
}

// codecs is the type registry: every decodable wire tag and its handlers.
// Tags absent here fail with UnknownTypeError; a payload of unknown shape
// cannot be skipped because its size bookkeeping would be unverifiable.
// Populated in init rather than a composite literal: the container codecs
// reach readProperty, which consults the table, so a var initializer would
// be an initialization cycle.
var codecs map[string]*typeCodec

func init() {
	codecs = map[string]*typeCodec{
		"BoolProperty": {
			kind:      KindBool,
			head:      (*decoder).boolHead,
			body:      (*decoder).boolBody,
			elem:      (*decoder).boolElem,
			writeHead: (*encoder).boolHead,
			writeBody: (*encoder).boolBody,
			writeElem: (*encoder).boolElem,
		},
		"ByteProperty": {
			kind:      KindByte,
			head:      (*decoder).byteHead,
			body:      (*decoder).byteBody,
			elem:      (*decoder).byteElem,
			writeHead: (*encoder).byteHead,
			writeBody: (*encoder).byteBody,
			writeElem: (*encoder).byteElem,
		},
		"Int8Property": {
			kind:      KindInt8,
			body:      (*decoder).int8Body,
			elem:      (*decoder).int8Elem,
			writeBody: (*encoder).int8Body,
			writeElem: (*encoder).int8Elem,
		},
		"Int16Property": {
			kind:      KindInt16,
			body:      (*decoder).int16Body,
			elem:      (*decoder).int16Elem,
			writeBody: (*encoder).int16Body,
			writeElem: (*encoder).int16Elem,
		},
		"IntProperty": {
			kind:      KindInt32,
			body:      (*decoder).int32Body,
			elem:      (*decoder).int32Elem,
			writeBody: (*encoder).int32Body,
			writeElem: (*encoder).int32Elem,
		},
		"Int64Property": {
			kind:      KindInt64,
			body:      (*decoder).int64Body,
			elem:      (*decoder).int64Elem,
			writeBody: (*encoder).int64Body,
			writeElem: (*encoder).int64Elem,
		},
		"UInt16Property": {
			kind:      KindUInt16,
			body:      (*decoder).uint16Body,
			elem:      (*decoder).uint16Elem,
			writeBody: (*encoder).uint16Body,
			writeElem: (*encoder).uint16Elem,
		},
		"UInt32Property": {
			kind:      KindUInt32,
			body:      (*decoder).uint32Body,
			elem:      (*decoder).uint32Elem,
			writeBody: (*encoder).uint32Body,
			writeElem: (*encoder).uint32Elem,
		},
		"UInt64Property": {
			kind:      KindUInt64,
			body:      (*decoder).uint64Body,
			elem:      (*decoder).uint64Elem,
			writeBody: (*encoder).uint64Body,
			writeElem: (*encoder).uint64Elem,
		},
		"FloatProperty": {
			kind:      KindFloat,
			body:      (*decoder).floatBody,
			elem:      (*decoder).floatElem,
			writeBody: (*encoder).floatBody,
			writeElem: (*encoder).floatElem,
		},
		"DoubleProperty": {
			kind:      KindDouble,
			body:      (*decoder).doubleBody,
			elem:      (*decoder).doubleElem,
			writeBody: (*encoder).doubleBody,
			writeElem: (*encoder).doubleElem,
		},
		"StrProperty": {
			kind:      KindStr,
			body:      (*decoder).strBody,
			elem:      (*decoder).strElem,
			writeBody: (*encoder).strBody,
			writeElem: (*encoder).strElem,
		},
		"NameProperty": {
			kind:      KindName,
			body:      (*decoder).nameBody,
			elem:      (*decoder).nameElem,
			writeBody: (*encoder).nameBody,
			writeElem: (*encoder).nameElem,
		},
		"EnumProperty": {
			kind:      KindEnum,
			head:      (*decoder).enumHead,
			body:      (*decoder).enumBody,
			elem:      (*decoder).enumElem,
			writeHead: (*encoder).enumHead,
			writeBody: (*encoder).enumBody,
			writeElem: (*encoder).enumElem,
		},
		"ObjectProperty": {
			kind:      KindObject,
			body:      (*decoder).objectBody,
			elem:      (*decoder).objectElem,
			writeBody: (*encoder).objectBody,
			writeElem: (*encoder).objectElem,
		},
		"SoftObjectProperty": {
			kind:      KindSoftObject,
			body:      (*decoder).softObjectBody,
			elem:      (*decoder).softObjectElem,
			writeBody: (*encoder).softObjectBody,
			writeElem: (*encoder).softObjectElem,
		},
		"TextProperty": {
			kind:      KindText,
			body:      (*decoder).textBody,
			elem:      (*decoder).textElem,
			writeBody: (*encoder).textBody,
			writeElem: (*encoder).textElem,
		},
		"StructProperty": {
			kind:         KindStruct,
			head:         (*decoder).structHead,
			body:         (*decoder).structBody,
			elem:         (*decoder).structElem,
			keyElem:      (*decoder).structKeyElem,
			writeHead:    (*encoder).structHead,
			writeBody:    (*encoder).structBody,
			writeElem:    (*encoder).structElem,
			writeKeyElem: (*encoder).structKeyElem,
		},
		"ArrayProperty": {
			kind:      KindArray,
			head:      (*decoder).arrayHead,
			body:      (*decoder).arrayBody,
			writeHead: (*encoder).arrayHead,
			writeBody: (*encoder).arrayBody,
		},
		"MapProperty": {
			kind:      KindMap,
			head:      (*decoder).mapHead,
			body:      (*decoder).mapBody,
			writeHead: (*encoder).mapHead,
			writeBody: (*encoder).mapBody,
		},
		"SetProperty": {
			kind:      KindSet,
			head:      (*decoder).setHead,
			body:      (*decoder).setBody,
			writeHead: (*encoder).setHead,
			writeBody: (*encoder).setBody,
		},
	}
}

// --- bool ---

func (d *decoder) boolHead(h *propHead) error {
	b, err := d.r.ReadBool()
	if err != nil {
		return WrapError(err, "value")
	}
	h.boolVal = b
	return nil
}

// boolBody consumes nothing: the value lives in the header and the declared
// size is zero.
func (d *decoder) boolBody(h *propHead) (Value, error) {
	return BoolValue(h.boolVal), nil
}

func (d *decoder) boolElem(FName) (Value, error) {
	b, err := d.r.ReadBool()
	return BoolValue(b), err
}

func (e *encoder) boolHead(p *Property) error {
	v, ok := p.Value.(BoolValue)
	if !ok {
		return valueErr(p, "BoolProperty")
	}
	e.w.WriteBool(bool(v))
	return nil
}

func (e *encoder) boolBody(*Property) error { return nil }

func (e *encoder) boolElem(_ FName, v Value) error {
	b, ok := v.(BoolValue)
	if !ok {
		return elemErr("BoolProperty", v)
	}
	e.w.WriteBool(bool(b))
	return nil
}

// --- byte ---

func (d *decoder) byteHead(h *propHead) error {
	var err error
	if h.enumName, err = d.names.readName(d.r); err != nil {
		return WrapError(err, "enum")
	}
	return nil
}

func (d *decoder) byteBody(h *propHead) (Value, error) {
	if h.enumName.IsNone() {
		raw, err := d.r.ReadUint8()
		return ByteValue{Enum: h.enumName, Raw: raw}, err
	}
	member, err := d.names.readName(d.r)
	if err != nil {
		return nil, WrapError(err, "member")
	}
	return ByteValue{Enum: h.enumName, Member: member}, nil
}

func (d *decoder) byteElem(FName) (Value, error) {
	raw, err := d.r.ReadUint8()
	return ByteValue{Enum: Name("None"), Raw: raw}, err
}

// enumOrNone treats a zero FName as the None sentinel so hand-built values
// need not spell it out.
func enumOrNone(n FName) FName {
	if n.Value == "" {
		return Name("None")
	}
	return n
}

func (e *encoder) byteHead(p *Property) error {
	v, ok := p.Value.(ByteValue)
	if !ok {
		return valueErr(p, "ByteProperty")
	}
	return e.names.writeName(e.w, enumOrNone(v.Enum))
}

func (e *encoder) byteBody(p *Property) error {
	v := p.Value.(ByteValue)
	if enumOrNone(v.Enum).IsNone() {
		e.w.WriteUint8(v.Raw)
		return nil
	}
	return e.names.writeName(e.w, v.Member)
}

func (e *encoder) byteElem(_ FName, v Value) error {
	b, ok := v.(ByteValue)
	if !ok {
		return elemErr("ByteProperty", v)
	}
	e.w.WriteUint8(b.Raw)
	return nil
}

// --- fixed-width scalars ---

func (d *decoder) int8Body(*propHead) (Value, error) { return d.int8Elem(FName{}) }
func (d *decoder) int8Elem(FName) (Value, error) {
	v, err := d.r.ReadInt8()
	return Int8Value(v), err
}

func (d *decoder) int16Body(*propHead) (Value, error) { return d.int16Elem(FName{}) }
func (d *decoder) int16Elem(FName) (Value, error) {
	v, err := d.r.ReadInt16()
	return Int16Value(v), err
}

func (d *decoder) int32Body(*propHead) (Value, error) { return d.int32Elem(FName{}) }
func (d *decoder) int32Elem(FName) (Value, error) {
	v, err := d.r.ReadInt32()
	return Int32Value(v), err
}

func (d *decoder) int64Body(*propHead) (Value, error) { return d.int64Elem(FName{}) }
func (d *decoder) int64Elem(FName) (Value, error) {
	v, err := d.r.ReadInt64()
	return Int64Value(v), err
}

func (d *decoder) uint16Body(*propHead) (Value, error) { return d.uint16Elem(FName{}) }
func (d *decoder) uint16Elem(FName) (Value, error) {
	v, err := d.r.ReadUint16()
	return UInt16Value(v), err
}

func (d *decoder) uint32Body(*propHead) (Value, error) { return d.uint32Elem(FName{}) }
func (d *decoder) uint32Elem(FName) (Value, error) {
	v, err := d.r.ReadUint32()
	return UInt32Value(v), err
}

func (d *decoder) uint64Body(*propHead) (Value, error) { return d.uint64Elem(FName{}) }
func (d *decoder) uint64Elem(FName) (Value, error) {
	v, err := d.r.ReadUint64()
	return UInt64Value(v), err
}

func (d *decoder) floatBody(*propHead) (Value, error) { return d.floatElem(FName{}) }
func (d *decoder) floatElem(FName) (Value, error) {
	v, err := d.r.ReadFloat32()
	return FloatValue(v), err
}

func (d *decoder) doubleBody(*propHead) (Value, error) { return d.doubleElem(FName{}) }
func (d *decoder) doubleElem(FName) (Value, error) {
	v, err := d.r.ReadFloat64()
	return DoubleValue(v), err
}

func (e *encoder) int8Body(p *Property) error {
	v, ok := p.Value.(Int8Value)
	if !ok {
		return valueErr(p, "Int8Property")
	}
	e.w.WriteInt8(int8(v))
	return nil
}

func (e *encoder) int8Elem(_ FName, v Value) error {
	n, ok := v.(Int8Value)
	if !ok {
		return elemErr("Int8Property", v)
	}
	e.w.WriteInt8(int8(n))
	return nil
}

func (e *encoder) int16Body(p *Property) error {
	v, ok := p.Value.(Int16Value)
	if !ok {
		return valueErr(p, "Int16Property")
	}
	e.w.WriteInt16(int16(v))
	return nil
}

func (e *encoder) int16Elem(_ FName, v Value) error {
	n, ok := v.(Int16Value)
	if !ok {
		return elemErr("Int16Property", v)
	}
	e.w.WriteInt16(int16(n))
	return nil
}

func (e *encoder) int32Body(p *Property) error {
	v, ok := p.Value.(Int32Value)
	if !ok {
		return valueErr(p, "IntProperty")
	}
	e.w.WriteInt32(int32(v))
	return nil
}

func (e *encoder) int32Elem(_ FName, v Value) error {
	n, ok := v.(Int32Value)
	if !ok {
		return elemErr("IntProperty", v)
	}
	e.w.WriteInt32(int32(n))
	return nil
}

func (e *encoder) int64Body(p *Property) error {
	v, ok := p.Value.(Int64Value)
	if !ok {
		return valueErr(p, "Int64Property")
	}
	e.w.WriteInt64(int64(v))
	return nil
}

func (e *encoder) int64Elem(_ FName, v Value) error {
	n, ok := v.(Int64Value)
	if !ok {
		return elemErr("Int64Property", v)
	}
	e.w.WriteInt64(int64(n))
	return nil
}

func (e *encoder) uint16Body(p *Property) error {
	v, ok := p.Value.(UInt16Value)
	if !ok {
		return valueErr(p, "UInt16Property")
	}
	e.w.WriteUint16(uint16(v))
	return nil
}

func (e *encoder) uint16Elem(_ FName, v Value) error {
	n, ok := v.(UInt16Value)
	if !ok {
		return elemErr("UInt16Property", v)
	}
	e.w.WriteUint16(uint16(n))
	return nil
}

func (e *encoder) uint32Body(p *Property) error {
	v, ok := p.Value.(UInt32Value)
	if !ok {
		return valueErr(p, "UInt32Property")
	}
	e.w.WriteUint32(uint32(v))
	return nil
}

func (e *encoder) uint32Elem(_ FName, v Value) error {
	n, ok := v.(UInt32Value)
	if !ok {
		return elemErr("UInt32Property", v)
	}
	e.w.WriteUint32(uint32(n))
	return nil
}

func (e *encoder) uint64Body(p *Property) error {
	v, ok := p.Value.(UInt64Value)
	if !ok {
		return valueErr(p, "UInt64Property")
	}
	e.w.WriteUint64(uint64(v))
	return nil
}

func (e *encoder) uint64Elem(_ FName, v Value) error {
	n, ok := v.(UInt64Value)
	if !ok {
		return elemErr("UInt64Property", v)
	}
	e.w.WriteUint64(uint64(n))
	return nil
}

func (e *encoder) floatBody(p *Property) error {
	v, ok := p.Value.(FloatValue)
	if !ok {
		return valueErr(p, "FloatProperty")
	}
	e.w.WriteFloat32(float32(v))
	return nil
}

func (e *encoder) floatElem(_ FName, v Value) error {
	n, ok := v.(FloatValue)
	if !ok {
		return elemErr("FloatProperty", v)
	}
	e.w.WriteFloat32(float32(n))
	return nil
}

func (e *encoder) doubleBody(p *Property) error {
	v, ok := p.Value.(DoubleValue)
	if !ok {
		return valueErr(p, "DoubleProperty")
	}
	e.w.WriteFloat64(float64(v))
	return nil
}

func (e *encoder) doubleElem(_ FName, v Value) error {
	n, ok := v.(DoubleValue)
	if !ok {
		return elemErr("DoubleProperty", v)
	}
	e.w.WriteFloat64(float64(n))
	return nil
}

// --- strings and names ---

func (d *decoder) readStr() (StrValue, error) {
	s, wide, err := d.r.ReadString()
	return StrValue{S: s, Wide: wide}, err
}

func (d *decoder) strBody(*propHead) (Value, error) { return d.strElem(FName{}) }
func (d *decoder) strElem(FName) (Value, error)     { return d.readStr() }

func (e *encoder) strBody(p *Property) error {
	v, ok := p.Value.(StrValue)
	if !ok {
		return valueErr(p, "StrProperty")
	}
	e.w.WriteString(v.S, v.Wide)
	return nil
}

func (e *encoder) strElem(_ FName, v Value) error {
	s, ok := v.(StrValue)
	if !ok {
		return elemErr("StrProperty", v)
	}
	e.w.WriteString(s.S, s.Wide)
	return nil
}

func (d *decoder) nameBody(*propHead) (Value, error) { return d.nameElem(FName{}) }
func (d *decoder) nameElem(FName) (Value, error) {
	n, err := d.names.readName(d.r)
	return NameValue(n), err
}

func (e *encoder) nameBody(p *Property) error {
	v, ok := p.Value.(NameValue)
	if !ok {
		return valueErr(p, "NameProperty")
	}
	return e.names.writeName(e.w, FName(v))
}

func (e *encoder) nameElem(_ FName, v Value) error {
	n, ok := v.(NameValue)
	if !ok {
		return elemErr("NameProperty", v)
	}
	return e.names.writeName(e.w, FName(n))
}

// --- enum ---

func (d *decoder) enumHead(h *propHead) error {
	var err error
	if h.enumName, err = d.names.readName(d.r); err != nil {
		return WrapError(err, "enum")
	}
	return nil
}

func (d *decoder) enumBody(h *propHead) (Value, error) {
	member, err := d.names.readName(d.r)
	if err != nil {
		return nil, WrapError(err, "member")
	}
	return EnumValue{Enum: h.enumName, Member: member}, nil
}

// enumElem reads a bare member name; the enum type is not present in
// element form.
func (d *decoder) enumElem(FName) (Value, error) {
	member, err := d.names.readName(d.r)
	if err != nil {
		return nil, WrapError(err, "member")
	}
	return EnumValue{Member: member}, nil
}

func (e *encoder) enumHead(p *Property) error {
	v, ok := p.Value.(EnumValue)
	if !ok {
		return valueErr(p, "EnumProperty")
	}
	return e.names.writeName(e.w, enumOrNone(v.Enum))
}

func (e *encoder) enumBody(p *Property) error {
	return e.names.writeName(e.w, p.Value.(EnumValue).Member)
}

func (e *encoder) enumElem(_ FName, v Value) error {
	ev, ok := v.(EnumValue)
	if !ok {
		return elemErr("EnumProperty", v)
	}
	return e.names.writeName(e.w, ev.Member)
}

// --- object references ---

func (d *decoder) readObjectRef() (ObjectValue, error) {
	if d.objectRefs {
		idx, err := d.r.ReadInt32()
		return ObjectValue{Index: idx}, err
	}
	path, _, err := d.r.ReadString()
	return ObjectValue{Path: path, HasPath: true}, err
}

func (d *decoder) objectBody(*propHead) (Value, error) { return d.objectElem(FName{}) }
func (d *decoder) objectElem(FName) (Value, error)     { return d.readObjectRef() }

func (e *encoder) writeObjectRef(v ObjectValue) error {
	if e.objectRefs {
		if v.HasPath {
			return ArchiveError{Offset: e.w.Len(), Reason: "object reference by path inside an archive"}
		}
		e.w.WriteInt32(v.Index)
		return nil
	}
	if !v.HasPath {
		return ArchiveError{Offset: e.w.Len(), Reason: "object reference by index outside an archive"}
	}
	e.w.WriteString(v.Path, false)
	return nil
}

func (e *encoder) objectBody(p *Property) error {
	v, ok := p.Value.(ObjectValue)
	if !ok {
		return valueErr(p, "ObjectProperty")
	}
	return e.writeObjectRef(v)
}

func (e *encoder) objectElem(_ FName, v Value) error {
	o, ok := v.(ObjectValue)
	if !ok {
		return elemErr("ObjectProperty", v)
	}
	return e.writeObjectRef(o)
}

func (d *decoder) softObjectBody(*propHead) (Value, error) { return d.softObjectElem(FName{}) }
func (d *decoder) softObjectElem(FName) (Value, error) {
	s, err := d.readStr()
	return SoftObjectValue{Path: s}, err
}

func (e *encoder) softObjectBody(p *Property) error {
	v, ok := p.Value.(SoftObjectValue)
	if !ok {
		return valueErr(p, "SoftObjectProperty")
	}
	e.w.WriteString(v.Path.S, v.Path.Wide)
	return nil
}

func (e *encoder) softObjectElem(_ FName, v Value) error {
	s, ok := v.(SoftObjectValue)
	if !ok {
		return elemErr("SoftObjectProperty", v)
	}
	e.w.WriteString(s.Path.S, s.Path.Wide)
	return nil
}

// --- text ---

func (d *decoder) readText() (TextValue, error) {
	var t TextValue
	var err error
	if t.Flags, err = d.r.ReadUint32(); err != nil {
		return t, WrapError(err, "flags")
	}
	histOff := d.r.Offset()
	if t.History, err = d.r.ReadUint8(); err != nil {
		return t, WrapError(err, "history")
	}
	switch t.History {
	case textHistoryBase:
		if t.Namespace, err = d.readStr(); err != nil {
			return t, WrapError(err, "namespace")
		}
		if t.Key, err = d.readStr(); err != nil {
			return t, WrapError(err, "key")
		}
		if t.Source, err = d.readStr(); err != nil {
			return t, WrapError(err, "source")
		}
	case textHistoryNone:
		has, err := d.r.ReadUint32()
		if err != nil {
			return t, WrapError(err, "cultureInvariant")
		}
		if has != 0 {
			t.HasCultureInvariant = true
			if t.CultureInvariant, err = d.readStr(); err != nil {
				return t, WrapError(err, "cultureInvariant")
			}
		}
	default:
		return t, ArchiveError{Offset: histOff, Reason: fmt.Sprintf("unsupported text history %d", t.History)}
	}
	return t, nil
}

func (d *decoder) textBody(*propHead) (Value, error) { return d.textElem(FName{}) }
func (d *decoder) textElem(FName) (Value, error)     { return d.readText() }

func (e *encoder) writeText(t TextValue) error {
	e.w.WriteUint32(t.Flags)
	e.w.WriteUint8(t.History)
	switch t.History {
	case textHistoryBase:
		e.w.WriteString(t.Namespace.S, t.Namespace.Wide)
		e.w.WriteString(t.Key.S, t.Key.Wide)
		e.w.WriteString(t.Source.S, t.Source.Wide)
	case textHistoryNone:
		if t.HasCultureInvariant {
			e.w.WriteUint32(1)
			e.w.WriteString(t.CultureInvariant.S, t.CultureInvariant.Wide)
		} else {
			e.w.WriteUint32(0)
		}
	default:
		return ArchiveError{Offset: e.w.Len(), Reason: fmt.Sprintf("unsupported text history %d", t.History)}
	}
	return nil
}

func (e *encoder) textBody(p *Property) error {
	v, ok := p.Value.(TextValue)
	if !ok {
		return valueErr(p, "TextProperty")
	}
	return e.writeText(v)
}

func (e *encoder) textElem(_ FName, v Value) error {
	t, ok := v.(TextValue)
	if !ok {
		return elemErr("TextProperty", v)
	}
	return e.writeText(t)
}

// --- struct ---

func (d *decoder) structHead(h *propHead) error {
	var err error
	if h.structType, err = d.names.readName(d.r); err != nil {
		return WrapError(err, "structType")
	}
	if h.guid, err = d.readGuid(); err != nil {
		return WrapError(err, "guid")
	}
	return nil
}

func (d *decoder) structBody(h *propHead) (Value, error) {
	inner, err := d.readStructBody(h.structType, int(h.size))
	if err != nil {
		return nil, err
	}
	return StructValue{StructType: h.structType, GUID: h.guid, Inner: inner}, nil
}

// structElem decodes a bare struct body. The struct type comes from the
// array element header; map values and set elements have none and fall
// through to the dynamic layout.
func (d *decoder) structElem(st FName) (Value, error) {
	return d.readStructBody(st, -1)
}

// structKeyElem decodes a map key of struct type, which is always a bare
// 16-byte reference guid.
func (d *decoder) structKeyElem(FName) (Value, error) {
	g, err := d.readGuid()
	return GuidValue(g), err
}

func (e *encoder) structHead(p *Property) error {
	v, ok := p.Value.(StructValue)
	if !ok {
		return valueErr(p, "StructProperty")
	}
	if err := e.names.writeName(e.w, v.StructType); err != nil {
		return err
	}
	e.writeGuid(v.GUID)
	return nil
}

func (e *encoder) structBody(p *Property) error {
	v := p.Value.(StructValue)
	return e.writeStructBody(v.StructType, v.Inner)
}

func (e *encoder) structElem(st FName, v Value) error {
	return e.writeStructBody(st, v)
}

func (e *encoder) structKeyElem(_ FName, v Value) error {
	g, ok := v.(GuidValue)
	if !ok {
		return elemErr("StructProperty", v)
	}
	e.writeGuid(Guid(g))
	return nil
}

// --- array ---

func (d *decoder) arrayHead(h *propHead) error {
	var err error
	if h.innerType, err = d.names.readName(d.r); err != nil {
		return WrapError(err, "elemType")
	}
	return nil
}

// readStructArrayHead decodes the shared element header of a struct array:
// a full property header written once, whose size field covers the packed
// elements and is ignored in favor of counting.
func (d *decoder) readStructArrayHead() (StructHead, error) {
	var sh StructHead
	var err error
	if sh.Name, err = d.names.readName(d.r); err != nil {
		return sh, WrapError(err, "head/name")
	}
	tagOff := d.r.Offset()
	tag, err := d.names.readName(d.r)
	if err != nil {
		return sh, WrapError(err, "head/type")
	}
	if tag.Value != "StructProperty" {
		return sh, ArchiveError{Offset: tagOff, Reason: "struct array element header tagged " + quoteStr(tag.Value)}
	}
	if _, err = d.r.ReadUint32(); err != nil { // size of packed elements
		return sh, WrapError(err, "head/size")
	}
	if sh.Index, err = d.r.ReadUint32(); err != nil {
		return sh, WrapError(err, "head/index")
	}
	if sh.StructType, err = d.names.readName(d.r); err != nil {
		return sh, WrapError(err, "head/structType")
	}
	if sh.GUID, err = d.readGuid(); err != nil {
		return sh, WrapError(err, "head/guid")
	}
	if err = d.readTerminator(); err != nil {
		return sh, err
	}
	return sh, nil
}

func (d *decoder) arrayBody(h *propHead) (Value, error) {
	ec, ok := codecs[h.innerType.Value]
	if !ok {
		return nil, UnknownTypeError{Tag: h.innerType.Value, Offset: d.r.Offset()}
	}
	if ec.elem == nil {
		return nil, ArchiveError{Offset: d.r.Offset(), Reason: h.innerType.Value + " cannot be an array element"}
	}
	count, err := d.r.ReadUint32()
	if err != nil {
		return nil, WrapError(err, "count")
	}
	av := ArrayValue{ElemType: h.innerType}
	var st FName
	if h.innerType.Value == "StructProperty" {
		sh, err := d.readStructArrayHead()
		if err != nil {
			return nil, err
		}
		av.Head = &sh
		st = sh.StructType
	}
	for i := 0; i < int(count); i++ {
		v, err := ec.elem(d, st)
		if err != nil {
			return nil, WrapError(err, i)
		}
		av.Elems = append(av.Elems, v)
	}
	return av, nil
}

func (e *encoder) arrayHead(p *Property) error {
	v, ok := p.Value.(ArrayValue)
	if !ok {
		return valueErr(p, "ArrayProperty")
	}
	return e.names.writeName(e.w, v.ElemType)
}

func (e *encoder) arrayBody(p *Property) error {
	v := p.Value.(ArrayValue)
	ec, ok := codecs[v.ElemType.Value]
	if !ok {
		return UnknownTypeError{Tag: v.ElemType.Value, Offset: e.w.Len()}
	}
	if ec.writeElem == nil {
		return ArchiveError{Offset: e.w.Len(), Reason: v.ElemType.Value + " cannot be an array element"}
	}
	e.w.WriteUint32(uint32(len(v.Elems)))
	var st FName
	slot, start := -1, 0
	if v.ElemType.Value == "StructProperty" {
		if v.Head == nil {
			return ArchiveError{Offset: e.w.Len(), Reason: "struct array missing element header"}
		}
		if err := e.names.writeName(e.w, v.Head.Name); err != nil {
			return err
		}
		if err := e.names.writeName(e.w, Name("StructProperty")); err != nil {
			return err
		}
		slot = e.w.Reserve32()
		e.w.WriteUint32(v.Head.Index)
		if err := e.names.writeName(e.w, v.Head.StructType); err != nil {
			return err
		}
		e.writeGuid(v.Head.GUID)
		e.w.WriteUint8(0)
		st = v.Head.StructType
		start = e.w.Len()
	}
	for i, elem := range v.Elems {
		if err := ec.writeElem(e, st, elem); err != nil {
			return WrapError(err, i)
		}
	}
	if slot >= 0 {
		e.w.Patch32(slot, uint32(e.w.Len()-start))
	}
	return nil
}

// --- map ---

func (d *decoder) mapHead(h *propHead) error {
	var err error
	if h.keyType, err = d.names.readName(d.r); err != nil {
		return WrapError(err, "keyType")
	}
	if h.valueType, err = d.names.readName(d.r); err != nil {
		return WrapError(err, "valueType")
	}
	return nil
}

func (d *decoder) mapBody(h *propHead) (Value, error) {
	kc, ok := codecs[h.keyType.Value]
	if !ok {
		return nil, UnknownTypeError{Tag: h.keyType.Value, Offset: d.r.Offset()}
	}
	vc, ok := codecs[h.valueType.Value]
	if !ok {
		return nil, UnknownTypeError{Tag: h.valueType.Value, Offset: d.r.Offset()}
	}
	keyFn := kc.keyElem
	if keyFn == nil {
		keyFn = kc.elem
	}
	if keyFn == nil || vc.elem == nil {
		return nil, ArchiveError{Offset: d.r.Offset(), Reason: "map of " + h.keyType.Value + " to " + h.valueType.Value + " is not decodable"}
	}
	if err := d.readRemovedCount(); err != nil {
		return nil, err
	}
	count, err := d.r.ReadUint32()
	if err != nil {
		return nil, WrapError(err, "count")
	}
	mv := MapValue{KeyType: h.keyType, ValueType: h.valueType}
	for i := 0; i < int(count); i++ {
		k, err := keyFn(d, FName{})
		if err != nil {
			return nil, WrapError(err, i, "key")
		}
		v, err := vc.elem(d, FName{})
		if err != nil {
			return nil, WrapError(err, i, "value")
		}
		mv.Entries = append(mv.Entries, MapEntry{Key: k, Value: v})
	}
	return mv, nil
}

// readRemovedCount consumes the leading pre-removed entry count of maps and
// sets. Save files always hold zero; anything else would require replay
// semantics the format does not carry.
func (d *decoder) readRemovedCount() error {
	off := d.r.Offset()
	n, err := d.r.ReadUint32()
	if err != nil {
		return WrapError(err, "removed")
	}
	if n != 0 {
		return ArchiveError{Offset: off, Reason: fmt.Sprintf("%d removed entries", n)}
	}
	return nil
}

func (e *encoder) mapHead(p *Property) error {
	v, ok := p.Value.(MapValue)
	if !ok {
		return valueErr(p, "MapProperty")
	}
	if err := e.names.writeName(e.w, v.KeyType); err != nil {
		return err
	}
	return e.names.writeName(e.w, v.ValueType)
}

func (e *encoder) mapBody(p *Property) error {
	v := p.Value.(MapValue)
	kc, ok := codecs[v.KeyType.Value]
	if !ok {
		return UnknownTypeError{Tag: v.KeyType.Value, Offset: e.w.Len()}
	}
	vc, ok := codecs[v.ValueType.Value]
	if !ok {
		return UnknownTypeError{Tag: v.ValueType.Value, Offset: e.w.Len()}
	}
	keyFn := kc.writeKeyElem
	if keyFn == nil {
		keyFn = kc.writeElem
	}
	if keyFn == nil || vc.writeElem == nil {
		return ArchiveError{Offset: e.w.Len(), Reason: "map of " + v.KeyType.Value + " to " + v.ValueType.Value + " is not encodable"}
	}
	e.w.WriteUint32(0) // removed entries
	e.w.WriteUint32(uint32(len(v.Entries)))
	for i, ent := range v.Entries {
		if err := keyFn(e, FName{}, ent.Key); err != nil {
			return WrapError(err, i, "key")
		}
		if err := vc.writeElem(e, FName{}, ent.Value); err != nil {
			return WrapError(err, i, "value")
		}
	}
	return nil
}

// --- set ---

func (d *decoder) setHead(h *propHead) error {
	var err error
	if h.innerType, err = d.names.readName(d.r); err != nil {
		return WrapError(err, "elemType")
	}
	return nil
}

func (d *decoder) setBody(h *propHead) (Value, error) {
	ec, ok := codecs[h.innerType.Value]
	if !ok {
		return nil, UnknownTypeError{Tag: h.innerType.Value, Offset: d.r.Offset()}
	}
	if ec.elem == nil {
		return nil, ArchiveError{Offset: d.r.Offset(), Reason: h.innerType.Value + " cannot be a set element"}
	}
	if err := d.readRemovedCount(); err != nil {
		return nil, err
	}
	count, err := d.r.ReadUint32()
	if err != nil {
		return nil, WrapError(err, "count")
	}
	sv := SetValue{ElemType: h.innerType}
	for i := 0; i < int(count); i++ {
		v, err := ec.elem(d, FName{})
		if err != nil {
			return nil, WrapError(err, i)
		}
		sv.Elems = append(sv.Elems, v)
	}
	return sv, nil
}

func (e *encoder) setHead(p *Property) error {
	v, ok := p.Value.(SetValue)
	if !ok {
		return valueErr(p, "SetProperty")
	}
	return e.names.writeName(e.w, v.ElemType)
}

func (e *encoder) setBody(p *Property) error {
	v := p.Value.(SetValue)
	ec, ok := codecs[v.ElemType.Value]
	if !ok {
		return UnknownTypeError{Tag: v.ElemType.Value, Offset: e.w.Len()}
	}
	if ec.writeElem == nil {
		return ArchiveError{Offset: e.w.Len(), Reason: v.ElemType.Value + " cannot be a set element"}
	}
	e.w.WriteUint32(0) // removed entries
	e.w.WriteUint32(uint32(len(v.Elems)))
	for i, elem := range v.Elems {
		if err := ec.writeElem(e, FName{}, elem); err != nil {
			return WrapError(err, i)
		}
	}
	return nil
}
