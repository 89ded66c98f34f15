package sav

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"
	"unicode/utf8"
)

// ToJSON renders the document as type-annotated JSON that FromJSON turns
// back into an equivalent document. Property order, name numbers, wide
// string markers and undecoded trailing bytes all survive the trip, so a
// file can be decoded, edited as text and re-encoded. indent is the
// per-level indent string; empty means compact output.
func ToJSON(f *SaveFile, indent string) ([]byte, error) {
	if f == nil || f.Archive == nil {
		return nil, jsonErrf("save file has no archive")
	}

	bb := GetByteBuffer()
	defer PutByteBuffer(bb)
	e := &jsonEmitter{bb: bb, comma: make([]bool, 1, 8)}
	e.saveFile(f)
	if e.err != nil {
		return nil, e.err
	}
	if indent == "" {
		return append([]byte(nil), bb.Bytes()...), nil
	}
	var out bytes.Buffer
	out.Grow(bb.Len() * 2)
	if err := json.Indent(&out, bb.Bytes(), "", indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// jsonEmitter writes compact JSON onto a ByteBuffer. The first failure
// sticks; callers check err once at the end.
type jsonEmitter struct {
	bb    *ByteBuffer
	comma []bool
	err   error
}

func (e *jsonEmitter) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// elem separates values at the current nesting level.
func (e *jsonEmitter) elem() {
	if e.comma[len(e.comma)-1] {
		e.bb.WriteByte(',')
	}
	e.comma[len(e.comma)-1] = true
}

func (e *jsonEmitter) beginObject() {
	e.elem()
	e.bb.WriteByte('{')
	e.comma = append(e.comma, false)
}

func (e *jsonEmitter) endObject() {
	e.comma = e.comma[:len(e.comma)-1]
	e.bb.WriteByte('}')
}

func (e *jsonEmitter) beginArray() {
	e.elem()
	e.bb.WriteByte('[')
	e.comma = append(e.comma, false)
}

func (e *jsonEmitter) endArray() {
	e.comma = e.comma[:len(e.comma)-1]
	e.bb.WriteByte(']')
}

// field writes an object key; str handles the separating comma. The value
// written next sees a fresh comma flag so it does not separate itself from
// its own key.
func (e *jsonEmitter) field(name string) {
	e.str(name)
	e.bb.WriteByte(':')
	e.comma[len(e.comma)-1] = false
}

const hexDigits = "0123456789abcdef"

// str writes a JSON string. Strings in the document model come from the
// wire and are usually ASCII; anything that is not valid UTF-8 cannot be
// represented in JSON without loss, so it fails instead.
func (e *jsonEmitter) str(s string) {
	if !utf8.ValidString(s) {
		e.fail(jsonErrf("string %s is not valid UTF-8", quoteStr(s)))
		s = ""
	}
	e.elem()
	b := e.bb
	b.WriteByte('"')
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		b.WriteString(s[start:i])
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteString(`\u00`)
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0xf])
		}
		start = i + 1
	}
	b.WriteString(s[start:])
	b.WriteByte('"')
}

func (e *jsonEmitter) integer(v int64) {
	e.elem()
	e.bb.WriteString(strconv.FormatInt(v, 10))
}

func (e *jsonEmitter) unsigned(v uint64) {
	e.elem()
	e.bb.WriteString(strconv.FormatUint(v, 10))
}

func (e *jsonEmitter) boolean(v bool) {
	e.elem()
	if v {
		e.bb.WriteString("true")
	} else {
		e.bb.WriteString("false")
	}
}

func (e *jsonEmitter) float(v float64, bits int) {
	e.elem()
	e.bb.WriteString(strconv.FormatFloat(v, 'g', -1, bits))
}

// blob writes bytes as a base64 string.
func (e *jsonEmitter) blob(b []byte) {
	e.elem()
	e.bb.WriteByte('"')
	n := base64.StdEncoding.EncodedLen(len(b))
	base64.StdEncoding.Encode(e.bb.Extend(n), b)
	e.bb.WriteByte('"')
}

// name writes an FName: a bare string, or an object when it carries a
// number suffix.
func (e *jsonEmitter) name(n FName) {
	if !n.HasNumber {
		e.str(n.Value)
		return
	}
	e.beginObject()
	e.field("value")
	e.str(n.Value)
	e.field("number")
	e.unsigned(uint64(n.Number))
	e.endObject()
}

// strv writes a StrValue: a bare string, or an object when the value was
// stored as UTF-16 on the wire.
func (e *jsonEmitter) strv(s StrValue) {
	if !s.Wide {
		e.str(s.S)
		return
	}
	e.beginObject()
	e.field("value")
	e.str(s.S)
	e.field("wide")
	e.boolean(true)
	e.endObject()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// f32 writes a float element: a plain number, or a bits object for values
// JSON numbers cannot carry.
func (e *jsonEmitter) f32(v float32) {
	if finite(float64(v)) {
		e.float(float64(v), 32)
		return
	}
	e.beginObject()
	e.field("bits")
	e.unsigned(uint64(math.Float32bits(v)))
	e.endObject()
}

func (e *jsonEmitter) f64(v float64) {
	if finite(v) {
		e.float(v, 64)
		return
	}
	e.beginObject()
	e.field("bits")
	e.unsigned(math.Float64bits(v))
	e.endObject()
}

func (e *jsonEmitter) saveFile(f *SaveFile) {
	e.beginObject()
	e.field("version")
	e.unsigned(uint64(f.Version))
	e.field("buildNumber")
	e.unsigned(uint64(f.BuildNumber))
	// The unset and zlib cases both re-encode as zlib, so only other
	// codecs are worth recording.
	if f.Compression != CompressionZlib && f.Compression != CompressionCustom {
		e.field("compression")
		e.str(f.Compression.String())
	}
	e.archiveBody(f.Archive)
	e.endObject()
}

func (e *jsonEmitter) archive(a *Archive) {
	e.beginObject()
	e.archiveBody(a)
	e.endObject()
}

// archiveBody emits the archive fields into the currently open object, so
// the top-level document can flatten the archive alongside the container
// header.
func (e *jsonEmitter) archiveBody(a *Archive) {
	if e.err != nil {
		return
	}
	if a.PackageVersion != nil {
		e.field("packageVersion")
		e.beginObject()
		e.field("ue4")
		e.unsigned(uint64(a.PackageVersion.UE4))
		e.field("ue5")
		e.unsigned(uint64(a.PackageVersion.UE5))
		e.endObject()
	}
	if a.ClassPath != nil {
		e.field("saveGameClassPath")
		e.assetPath(*a.ClassPath)
	}
	e.field("archiveVersion")
	e.unsigned(uint64(a.Version))

	e.field("names")
	e.beginArray()
	for _, n := range a.Names {
		if !n.Wide {
			e.str(n.Value)
			continue
		}
		e.beginObject()
		e.field("value")
		e.str(n.Value)
		e.field("wide")
		e.boolean(true)
		e.endObject()
	}
	e.endArray()

	e.field("objects")
	e.beginArray()
	for i := range a.Objects {
		e.object(&a.Objects[i])
	}
	e.endArray()

	if a.DataOrder != nil {
		e.field("dataOrder")
		e.beginArray()
		for _, id := range a.DataOrder {
			e.unsigned(uint64(id))
		}
		e.endArray()
	}
	if len(a.Trailing) > 0 {
		e.field("trailing")
		e.blob(a.Trailing)
	}
}

func (e *jsonEmitter) assetPath(p TopLevelAssetPath) {
	e.beginObject()
	e.field("path")
	e.str(p.Path)
	e.field("name")
	e.str(p.Name)
	e.endObject()
}

func (e *jsonEmitter) object(o *Object) {
	e.beginObject()
	e.field("wasLoaded")
	e.boolean(o.WasLoaded)
	e.field("path")
	e.str(o.Path)
	if o.Loaded != nil {
		e.field("loadedData")
		e.beginObject()
		e.field("name")
		e.name(o.Loaded.Name)
		e.field("outerId")
		e.unsigned(uint64(o.Loaded.OuterID))
		e.endObject()
	}
	if o.HasData {
		e.field("properties")
		e.bag(o.Properties)
	}
	if len(o.Trailing) > 0 {
		e.field("trailing")
		e.blob(o.Trailing)
	}
	if o.IsActor {
		e.field("components")
		e.beginArray()
		for i := range o.Components {
			e.component(&o.Components[i])
		}
		e.endArray()
	}
	e.endObject()
}

func (e *jsonEmitter) component(c *Component) {
	if variableKeys[c.Key] != (c.Variables != nil) {
		e.fail(jsonErrf("component %q carries the wrong body", c.Key))
		return
	}
	e.beginObject()
	e.field("key")
	e.str(c.Key)
	if c.Variables != nil {
		e.field("variables")
		e.variableSet(c.Variables)
	} else {
		e.field("properties")
		e.bag(c.Props)
	}
	e.endObject()
}

func (e *jsonEmitter) variableSet(vs *VariableSet) {
	e.beginObject()
	e.field("name")
	e.name(vs.Name)
	e.field("vars")
	e.beginArray()
	for i := range vs.Vars {
		e.variable(&vs.Vars[i])
	}
	e.endArray()
	e.endObject()
}

func (e *jsonEmitter) variable(v *Variable) {
	e.beginObject()
	e.field("name")
	e.name(v.Name)
	e.field("type")
	e.str(v.Type.String())
	switch v.Type {
	case VarNone:
	case VarBool:
		e.field("value")
		e.boolean(v.Bool)
	case VarInt:
		e.field("value")
		e.integer(int64(v.Int))
	case VarFloat:
		e.field("value")
		e.f32(v.Float)
	case VarName:
		e.field("value")
		e.name(v.Ref)
	default:
		e.fail(jsonErrf("variable %s has unknown type %d", v.Name, uint8(v.Type)))
	}
	e.endObject()
}

// bag emits a property bag as an object keyed by property name, preserving
// order. Duplicate names produce duplicate keys, which FromJSON accepts.
func (e *jsonEmitter) bag(bag Bag) {
	e.beginObject()
	for i := range bag {
		if e.err != nil {
			break
		}
		p := &bag[i]
		e.field(p.Name.Value)
		e.property(p)
	}
	e.endObject()
}

// propertyKind resolves the wrapper kind from the wire tag, falling back
// to the value for documents built by hand.
func propertyKind(p *Property) (Kind, error) {
	if p.Tag.Value != "" {
		k, ok := tagKinds[p.Tag.Value]
		if !ok {
			return KindInvalid, jsonErrf("property %q has unknown tag %q", p.Name.Value, p.Tag.Value)
		}
		return k, nil
	}
	if p.Value == nil {
		return KindInvalid, jsonErrf("property %q has no value", p.Name.Value)
	}
	k := p.Value.Kind()
	if k.Tag() == "" {
		return KindInvalid, jsonErrf("property %q holds a bare %s", p.Name.Value, k)
	}
	return k, nil
}

func (e *jsonEmitter) property(p *Property) {
	k, err := propertyKind(p)
	if err != nil {
		e.fail(err)
		return
	}
	e.beginObject()
	e.field("type")
	e.str(k.String())
	if p.Index != 0 {
		e.field("index")
		e.unsigned(uint64(p.Index))
	}
	if p.Name.HasNumber {
		e.field("nameNumber")
		e.unsigned(uint64(p.Name.Number))
	}
	e.propertyValue(p, k)
	e.endObject()
}

func (e *jsonEmitter) mismatch(p *Property, k Kind) {
	e.fail(ValueError{Property: p.Name.Value, Tag: k.String(), Got: typeName(p.Value)})
}

// propertyValue emits the kind-specific fields into the open wrapper.
func (e *jsonEmitter) propertyValue(p *Property, k Kind) {
	switch k {
	case KindBool:
		v, ok := p.Value.(BoolValue)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.field("value")
		e.boolean(bool(v))
	case KindByte:
		v, ok := p.Value.(ByteValue)
		if !ok {
			e.mismatch(p, k)
			return
		}
		if enumOrNone(v.Enum).IsNone() {
			e.field("value")
			e.unsigned(uint64(v.Raw))
		} else {
			e.field("enumType")
			e.name(v.Enum)
			e.field("value")
			e.name(v.Member)
		}
	case KindInt8:
		v, ok := p.Value.(Int8Value)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.field("value")
		e.integer(int64(v))
	case KindInt16:
		v, ok := p.Value.(Int16Value)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.field("value")
		e.integer(int64(v))
	case KindInt32:
		v, ok := p.Value.(Int32Value)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.field("value")
		e.integer(int64(v))
	case KindInt64:
		v, ok := p.Value.(Int64Value)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.field("value")
		e.integer(int64(v))
	case KindUInt16:
		v, ok := p.Value.(UInt16Value)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.field("value")
		e.unsigned(uint64(v))
	case KindUInt32:
		v, ok := p.Value.(UInt32Value)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.field("value")
		e.unsigned(uint64(v))
	case KindUInt64:
		v, ok := p.Value.(UInt64Value)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.field("value")
		e.unsigned(uint64(v))
	case KindFloat:
		v, ok := p.Value.(FloatValue)
		if !ok {
			e.mismatch(p, k)
			return
		}
		if finite(float64(v)) {
			e.field("value")
			e.float(float64(v), 32)
		} else {
			e.field("bits")
			e.unsigned(uint64(math.Float32bits(float32(v))))
		}
	case KindDouble:
		v, ok := p.Value.(DoubleValue)
		if !ok {
			e.mismatch(p, k)
			return
		}
		if finite(float64(v)) {
			e.field("value")
			e.float(float64(v), 64)
		} else {
			e.field("bits")
			e.unsigned(math.Float64bits(float64(v)))
		}
	case KindStr:
		v, ok := p.Value.(StrValue)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.field("value")
		e.str(v.S)
		if v.Wide {
			e.field("wide")
			e.boolean(true)
		}
	case KindName:
		v, ok := p.Value.(NameValue)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.field("value")
		e.name(FName(v))
	case KindEnum:
		v, ok := p.Value.(EnumValue)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.field("enumType")
		e.name(enumOrNone(v.Enum))
		e.field("value")
		e.name(v.Member)
	case KindObject:
		v, ok := p.Value.(ObjectValue)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.field("value")
		if v.HasPath {
			e.str(v.Path)
		} else {
			e.integer(int64(v.Index))
		}
	case KindSoftObject:
		v, ok := p.Value.(SoftObjectValue)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.field("value")
		e.strv(v.Path)
	case KindText:
		v, ok := p.Value.(TextValue)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.textFields(v)
	case KindStruct:
		v, ok := p.Value.(StructValue)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.field("structType")
		e.name(v.StructType)
		if !v.GUID.IsZero() {
			e.field("guid")
			e.str(v.GUID.String())
		}
		e.field("value")
		e.structPayload(v.Inner)
	case KindArray:
		v, ok := p.Value.(ArrayValue)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.arrayFields(v)
	case KindMap:
		v, ok := p.Value.(MapValue)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.mapFields(v)
	case KindSet:
		v, ok := p.Value.(SetValue)
		if !ok {
			e.mismatch(p, k)
			return
		}
		e.setFields(v)
	default:
		e.fail(jsonErrf("property %q has unsupported kind %s", p.Name.Value, k))
	}
}

// textFields emits the flags, history kind and history payload into the
// open object.
func (e *jsonEmitter) textFields(v TextValue) {
	e.field("flags")
	e.unsigned(uint64(v.Flags))
	switch v.History {
	case textHistoryBase:
		e.field("history")
		e.str("base")
		e.field("namespace")
		e.strv(v.Namespace)
		e.field("key")
		e.strv(v.Key)
		e.field("source")
		e.strv(v.Source)
	case textHistoryNone:
		e.field("history")
		e.str("none")
		if v.HasCultureInvariant {
			e.field("cultureInvariant")
			e.strv(v.CultureInvariant)
		}
	default:
		e.fail(jsonErrf("text has unsupported history %d", v.History))
	}
}

func (e *jsonEmitter) textObject(v TextValue) {
	e.beginObject()
	e.textFields(v)
	e.endObject()
}

// elemKindName resolves an element type tag to its JSON type name.
func (e *jsonEmitter) elemKindName(tag FName, what string) (Kind, bool) {
	k, ok := tagKinds[tag.Value]
	if !ok {
		e.fail(jsonErrf("%s has unknown element type %q", what, tag.Value))
		return KindInvalid, false
	}
	return k, true
}

func (e *jsonEmitter) arrayFields(v ArrayValue) {
	k, ok := e.elemKindName(v.ElemType, "array")
	if !ok {
		return
	}
	e.field("elemType")
	e.str(k.String())
	if k == KindStruct {
		if v.Head == nil {
			e.fail(jsonErrf("struct array is missing its element header"))
			return
		}
		e.field("head")
		e.beginObject()
		e.field("name")
		e.name(v.Head.Name)
		if v.Head.Index != 0 {
			e.field("index")
			e.unsigned(uint64(v.Head.Index))
		}
		e.field("structType")
		e.name(v.Head.StructType)
		if !v.Head.GUID.IsZero() {
			e.field("guid")
			e.str(v.Head.GUID.String())
		}
		e.endObject()
	}
	e.field("value")
	e.beginArray()
	for _, el := range v.Elems {
		if e.err != nil {
			break
		}
		if k == KindStruct {
			e.structPayload(el)
		} else {
			e.element(k, el)
		}
	}
	e.endArray()
}

func (e *jsonEmitter) mapFields(v MapValue) {
	kk, ok := e.elemKindName(v.KeyType, "map")
	if !ok {
		return
	}
	vk, ok := e.elemKindName(v.ValueType, "map")
	if !ok {
		return
	}
	e.field("keyType")
	e.str(kk.String())
	e.field("valueType")
	e.str(vk.String())
	e.field("value")
	e.beginArray()
	for _, entry := range v.Entries {
		if e.err != nil {
			break
		}
		e.beginObject()
		e.field("key")
		e.keyElement(kk, entry.Key)
		e.field("value")
		e.valueElement(vk, entry.Value)
		e.endObject()
	}
	e.endArray()
}

func (e *jsonEmitter) setFields(v SetValue) {
	k, ok := e.elemKindName(v.ElemType, "set")
	if !ok {
		return
	}
	e.field("elemType")
	e.str(k.String())
	e.field("value")
	e.beginArray()
	for _, el := range v.Elems {
		if e.err != nil {
			break
		}
		e.valueElement(k, el)
	}
	e.endArray()
}

// keyElement emits a map key. Struct keys are bare reference guids.
func (e *jsonEmitter) keyElement(k Kind, v Value) {
	if k == KindStruct {
		g, ok := v.(GuidValue)
		if !ok {
			e.fail(jsonErrf("map key tagged struct holds %s", typeName(v)))
			return
		}
		e.str(Guid(g).String())
		return
	}
	e.element(k, v)
}

// valueElement emits a map value or set element. Struct payloads in this
// position are dynamic bags.
func (e *jsonEmitter) valueElement(k Kind, v Value) {
	if k == KindStruct {
		b, ok := v.(BagValue)
		if !ok {
			e.fail(jsonErrf("element tagged struct holds %s", typeName(v)))
			return
		}
		e.bag(b.Props)
		return
	}
	e.element(k, v)
}

func (e *jsonEmitter) badElement(k Kind, v Value) {
	e.fail(jsonErrf("element tagged %s holds %s", k, typeName(v)))
}

// element emits a container element without a wrapper object; the
// container's declared element type carries the type information.
func (e *jsonEmitter) element(k Kind, v Value) {
	switch k {
	case KindBool:
		b, ok := v.(BoolValue)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.boolean(bool(b))
	case KindByte:
		b, ok := v.(ByteValue)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.unsigned(uint64(b.Raw))
	case KindInt8:
		n, ok := v.(Int8Value)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.integer(int64(n))
	case KindInt16:
		n, ok := v.(Int16Value)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.integer(int64(n))
	case KindInt32:
		n, ok := v.(Int32Value)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.integer(int64(n))
	case KindInt64:
		n, ok := v.(Int64Value)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.integer(int64(n))
	case KindUInt16:
		n, ok := v.(UInt16Value)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.unsigned(uint64(n))
	case KindUInt32:
		n, ok := v.(UInt32Value)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.unsigned(uint64(n))
	case KindUInt64:
		n, ok := v.(UInt64Value)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.unsigned(uint64(n))
	case KindFloat:
		n, ok := v.(FloatValue)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.f32(float32(n))
	case KindDouble:
		n, ok := v.(DoubleValue)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.f64(float64(n))
	case KindStr:
		s, ok := v.(StrValue)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.strv(s)
	case KindName:
		n, ok := v.(NameValue)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.name(FName(n))
	case KindEnum:
		ev, ok := v.(EnumValue)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.name(ev.Member)
	case KindObject:
		o, ok := v.(ObjectValue)
		if !ok {
			e.badElement(k, v)
			return
		}
		if o.HasPath {
			e.str(o.Path)
		} else {
			e.integer(int64(o.Index))
		}
	case KindSoftObject:
		s, ok := v.(SoftObjectValue)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.strv(s.Path)
	case KindText:
		t, ok := v.(TextValue)
		if !ok {
			e.badElement(k, v)
			return
		}
		e.textObject(t)
	default:
		e.fail(jsonErrf("%s cannot be a container element", k))
	}
}

// structPayload emits a struct value body. The shape is decided by the
// concrete value, which the type table picked at decode time; FromJSON
// consults the same table to reverse it.
func (e *jsonEmitter) structPayload(v Value) {
	switch sv := v.(type) {
	case GuidValue:
		e.str(Guid(sv).String())
	case DateTimeValue:
		e.unsigned(uint64(sv))
	case TimespanValue:
		e.unsigned(uint64(sv))
	case VectorValue:
		e.vector(sv)
	case StrValue:
		e.strv(sv)
	case BagValue:
		e.bag(sv.Props)
	case BlobValue:
		e.blob(sv)
	case PersistenceValue:
		e.persistence(sv.Blob)
	default:
		e.fail(jsonErrf("unsupported struct payload %s", typeName(v)))
	}
}

func (e *jsonEmitter) vector(v VectorValue) {
	e.beginArray()
	e.f64(v.X)
	e.f64(v.Y)
	e.f64(v.Z)
	e.endArray()
}

func (e *jsonEmitter) persistence(b *PersistenceBlob) {
	if b == nil {
		e.fail(jsonErrf("persistence value has no blob"))
		return
	}
	e.beginObject()
	switch {
	case b.Archive != nil:
		e.field("archive")
		e.archive(b.Archive)
	case b.Container != nil:
		e.field("container")
		e.container(b.Container)
	default:
		e.field("raw")
		e.blob(b.Raw)
	}
	e.endObject()
}

func (e *jsonEmitter) container(c *PersistenceContainer) {
	e.beginObject()
	e.field("version")
	e.unsigned(uint64(c.Version))
	e.field("actors")
	e.beginArray()
	for i := range c.Actors {
		e.persistedActor(&c.Actors[i])
	}
	e.endArray()
	if len(c.Destroyed) > 0 {
		e.field("destroyed")
		e.beginArray()
		for _, id := range c.Destroyed {
			e.unsigned(id)
		}
		e.endArray()
	}
	e.endObject()
}

func (e *jsonEmitter) persistedActor(a *PersistenceActor) {
	if a.Archive == nil {
		e.fail(jsonErrf("persisted actor %d has no archive", a.ID))
		return
	}
	e.beginObject()
	e.field("id")
	e.unsigned(a.ID)
	if a.Transform != nil {
		e.field("transform")
		e.transform(a.Transform)
	}
	e.field("archive")
	e.archive(a.Archive)
	if a.Dynamic != nil {
		e.field("dynamic")
		e.beginObject()
		e.field("transform")
		e.transform(&a.Dynamic.Transform)
		e.field("classPath")
		e.assetPath(a.Dynamic.ClassPath)
		e.endObject()
	}
	e.endObject()
}

func (e *jsonEmitter) transform(t *Transform) {
	e.beginObject()
	e.field("rotation")
	e.beginObject()
	e.field("w")
	e.f64(t.Rotation.W)
	e.field("x")
	e.f64(t.Rotation.X)
	e.field("y")
	e.f64(t.Rotation.Y)
	e.field("z")
	e.f64(t.Rotation.Z)
	e.endObject()
	e.field("position")
	e.vector(t.Position)
	e.field("scale")
	e.vector(t.Scale)
	e.endObject()
}
