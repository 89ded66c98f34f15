package sav

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is one decoded property payload. Concrete types are small and
// directly inspectable; switch on Kind() or type-assert.
type Value interface {
	Kind() Kind
}

// Guid is a 16-byte identifier stored as four little-endian uint32 groups.
type Guid struct {
	A, B, C, D uint32
}

// IsZero reports whether all four groups are zero.
func (g Guid) IsZero() bool { return g == Guid{} }

// String renders the four groups as fixed-width uppercase hex.
func (g Guid) String() string {
	return fmt.Sprintf("%08X-%08X-%08X-%08X", g.A, g.B, g.C, g.D)
}

// ParseGuid parses the format produced by Guid.String.
func ParseGuid(s string) (Guid, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 4 {
		return Guid{}, fmt.Errorf("sav: malformed guid %q", s)
	}
	var out [4]uint32
	for i, p := range parts {
		if len(p) != 8 {
			return Guid{}, fmt.Errorf("sav: malformed guid %q", s)
		}
		v, err := strconv.ParseUint(p, 16, 32)
		if err != nil {
			return Guid{}, fmt.Errorf("sav: malformed guid %q", s)
		}
		out[i] = uint32(v)
	}
	return Guid{A: out[0], B: out[1], C: out[2], D: out[3]}, nil
}

type BoolValue bool

type ByteValue struct {
	// Enum names the enum type; when it is the None sentinel the payload is
	// the raw byte, otherwise it is the Member name.
	Enum   FName
	Member FName
	Raw    uint8
}

type Int8Value int8
type Int16Value int16
type Int32Value int32
type Int64Value int64
type UInt16Value uint16
type UInt32Value uint32
type UInt64Value uint64
type FloatValue float32
type DoubleValue float64

// StrValue carries the decoded text plus the encoding that was on the wire.
type StrValue struct {
	S    string
	Wide bool
}

type NameValue FName

type EnumValue struct {
	Enum   FName
	Member FName
}

// ObjectValue is a reference to another object. Inside an archive it is an
// index into the object table; in standalone streams it is a path string.
type ObjectValue struct {
	Index   int32
	Path    string
	HasPath bool
}

type SoftObjectValue struct {
	Path StrValue
}

// TextValue covers the two history kinds that occur in practice: Base
// (namespace/key/source) and None (optional culture-invariant string).
type TextValue struct {
	Flags   uint32
	History uint8

	Namespace StrValue
	Key       StrValue
	Source    StrValue

	HasCultureInvariant bool
	CultureInvariant    StrValue
}

// Text history kinds.
const (
	textHistoryBase uint8 = 0
	textHistoryNone uint8 = 255
)

// StructValue wraps a typed struct payload. Inner is one of GuidValue,
// DateTimeValue, TimespanValue, VectorValue, StrValue (soft paths),
// PersistenceValue, BlobValue, or BagValue for dynamic structs.
type StructValue struct {
	StructType FName
	GUID       Guid
	Inner      Value
}

// StructHead is the shared element header of a struct array: one property
// header written once and applied to every element.
type StructHead struct {
	Name       FName
	Index      uint32
	StructType FName
	GUID       Guid
}

type ArrayValue struct {
	ElemType FName
	// Head is present exactly when ElemType is StructProperty.
	Head  *StructHead
	Elems []Value
}

type MapEntry struct {
	Key   Value
	Value Value
}

type MapValue struct {
	KeyType   FName
	ValueType FName
	Entries   []MapEntry
}

type SetValue struct {
	ElemType FName
	Elems    []Value
}

type GuidValue Guid

// DateTimeValue and TimespanValue are raw tick counts.
type DateTimeValue uint64
type TimespanValue uint64

type VectorValue struct {
	X, Y, Z float64
}

// BagValue is a nested property bag: the payload of a dynamic struct.
type BagValue struct {
	Props []Property
}

// BlobValue is an opaque payload preserved verbatim.
type BlobValue []byte

// PersistenceValue is the decoded form of a persistence blob struct.
type PersistenceValue struct {
	Blob *PersistenceBlob
}

func (BoolValue) Kind() Kind        { return KindBool }
func (ByteValue) Kind() Kind        { return KindByte }
func (Int8Value) Kind() Kind        { return KindInt8 }
func (Int16Value) Kind() Kind       { return KindInt16 }
func (Int32Value) Kind() Kind       { return KindInt32 }
func (Int64Value) Kind() Kind       { return KindInt64 }
func (UInt16Value) Kind() Kind      { return KindUInt16 }
func (UInt32Value) Kind() Kind      { return KindUInt32 }
func (UInt64Value) Kind() Kind      { return KindUInt64 }
func (FloatValue) Kind() Kind       { return KindFloat }
func (DoubleValue) Kind() Kind      { return KindDouble }
func (StrValue) Kind() Kind         { return KindStr }
func (NameValue) Kind() Kind        { return KindName }
func (EnumValue) Kind() Kind        { return KindEnum }
func (ObjectValue) Kind() Kind      { return KindObject }
func (SoftObjectValue) Kind() Kind  { return KindSoftObject }
func (TextValue) Kind() Kind        { return KindText }
func (StructValue) Kind() Kind      { return KindStruct }
func (ArrayValue) Kind() Kind       { return KindArray }
func (MapValue) Kind() Kind         { return KindMap }
func (SetValue) Kind() Kind         { return KindSet }
func (GuidValue) Kind() Kind        { return KindGuid }
func (DateTimeValue) Kind() Kind    { return KindDateTime }
func (TimespanValue) Kind() Kind    { return KindTimespan }
func (VectorValue) Kind() Kind      { return KindVector }
func (BagValue) Kind() Kind         { return KindBag }
func (BlobValue) Kind() Kind        { return KindBlob }
func (PersistenceValue) Kind() Kind { return KindPersistence }

// Property is one entry of a property bag.
type Property struct {
	Name FName
	// Tag is the wire type tag, e.g. "IntProperty".
	Tag FName
	// Size is the declared payload length observed on decode. Encoding
	// measures the payload and writes the measured value, so documents
	// built by hand may leave it zero.
	Size  uint32
	Index uint32
	Value Value
}

// Bag is an ordered property list. Order is significant: re-encoding writes
// properties in slice order, and the JSON form preserves it.
type Bag = []Property

// Find returns the first property with the given name, or nil.
func Find(bag Bag, name string) *Property {
	for i := range bag {
		if bag[i].Name.Value == name {
			return &bag[i]
		}
	}
	return nil
}
