// Package sav decodes and re-encodes property-bag save archives.
//
// A save file is a small header followed by zlib-compressed chunks; the
// inflated content is an archive holding a name table, an object index, and
// per-object property bags. DecodeFile and (*SaveFile).Encode convert between
// the container bytes and an inspectable document model; ToJSON and FromJSON
// bridge that model to a type-annotated JSON form that survives a round trip
// back to the original bytes.
//
// The decoder is strict: unknown property type tags, declared sizes that do
// not match the bytes consumed, and truncated input all fail with typed
// errors rather than being skipped, since a single misread desynchronizes
// everything that follows.
package sav

// Kind identifies the decoded shape of a property value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindByte
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat
	KindDouble
	KindStr
	KindName
	KindEnum
	KindObject
	KindSoftObject
	KindText
	KindStruct
	KindArray
	KindMap
	KindSet

	// Struct payload kinds. These never appear as top-level property tags;
	// they classify the value inside a StructProperty.
	KindGuid
	KindDateTime
	KindTimespan
	KindVector
	KindBag
	KindPersistence
	KindBlob
)

var kindNames = [...]string{
	KindInvalid:     "invalid",
	KindBool:        "bool",
	KindByte:        "byte",
	KindInt8:        "int8",
	KindInt16:       "int16",
	KindInt32:       "int32",
	KindInt64:       "int64",
	KindUInt16:      "uint16",
	KindUInt32:      "uint32",
	KindUInt64:      "uint64",
	KindFloat:       "float",
	KindDouble:      "double",
	KindStr:         "str",
	KindName:        "name",
	KindEnum:        "enum",
	KindObject:      "object",
	KindSoftObject:  "softobject",
	KindText:        "text",
	KindStruct:      "struct",
	KindArray:       "array",
	KindMap:         "map",
	KindSet:         "set",
	KindGuid:        "guid",
	KindDateTime:    "datetime",
	KindTimespan:    "timespan",
	KindVector:      "vector",
	KindBag:         "bag",
	KindPersistence: "persistence",
	KindBlob:        "blob",
}

// String returns the short lowercase name of the kind, which is also the
// value of the "type" field in the JSON form.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Tag returns the wire type tag for property-level kinds ("IntProperty" for
// KindInt32) and the empty string for kinds that only occur inside structs.
func (k Kind) Tag() string {
	for tag, kk := range tagKinds {
		if kk == k {
			return tag
		}
	}
	return ""
}

// tagKinds maps wire type tags to kinds. Tags absent from this table are
// rejected by the decoder with an UnknownTypeError.
var tagKinds = map[string]Kind{
	"BoolProperty":       KindBool,
	"ByteProperty":       KindByte,
	"Int8Property":       KindInt8,
	"Int16Property":      KindInt16,
	"IntProperty":        KindInt32,
	"Int64Property":      KindInt64,
	"UInt16Property":     KindUInt16,
	"UInt32Property":     KindUInt32,
	"UInt64Property":     KindUInt64,
	"FloatProperty":      KindFloat,
	"DoubleProperty":     KindDouble,
	"StrProperty":        KindStr,
	"NameProperty":       KindName,
	"EnumProperty":       KindEnum,
	"ObjectProperty":     KindObject,
	"SoftObjectProperty": KindSoftObject,
	"TextProperty":       KindText,
	"StructProperty":     KindStruct,
	"ArrayProperty":      KindArray,
	"MapProperty":        KindMap,
	"SetProperty":        KindSet,
}

// kindByName resolves a JSON "type" string back to a kind.
func kindByName(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s && Kind(k) != KindInvalid {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}
