package sav

import "fmt"

// recursionLimit bounds property bag nesting. Real documents are a few
// levels deep; the limit exists so corrupt or adversarial input cannot
// exhaust the stack.
const recursionLimit = 1000

// decoder walks a property stream. The same machinery decodes top level
// bags, dynamic struct payloads, and container elements; only the name
// flavor and the object reference form differ between archive and
// standalone contexts.
type decoder struct {
	r     *Reader
	names nameReader
	table *TypeTable

	// classPath is the save game class of the enclosing archive. It picks
	// the decoding of persistence blobs, which differs between profile and
	// world saves.
	classPath string

	// objectRefs selects how ObjectProperty payloads are stored: archive
	// contexts use i32 indexes into the object table, standalone streams
	// use path strings.
	objectRefs bool

	// padding selects the trailing pad width after top level object bags.
	padding uint32

	depth int
}

// encoder mirrors decoder for the write direction.
type encoder struct {
	w     *Writer
	names nameWriter
	table *TypeTable

	classPath  string
	objectRefs bool
	padding    uint32

	depth int
}

// propHead is the decoded fixed header of one property: the common fields
// plus the tag-specific ones that precede the terminator byte.
type propHead struct {
	name  FName
	tag   FName
	size  uint32
	index uint32

	// BoolProperty stores its value in the header.
	boolVal bool
	// ByteProperty and EnumProperty name their enum type here.
	enumName FName
	// ArrayProperty and SetProperty element type.
	innerType FName
	// MapProperty key and value types.
	keyType   FName
	valueType FName
	// StructProperty type name and guid.
	structType FName
	guid       Guid
}

// readBag decodes properties until the None sentinel.
func (d *decoder) readBag() (Bag, error) {
	if d.depth++; d.depth > recursionLimit {
		return nil, ErrRecursion
	}
	defer func() { d.depth-- }()

	var bag Bag
	for {
		name, err := d.names.readName(d.r)
		if err != nil {
			return nil, WrapError(err, "name")
		}
		if name.IsNone() {
			return bag, nil
		}
		p, err := d.readProperty(name)
		if err != nil {
			return nil, WrapError(err, name.Value)
		}
		bag = append(bag, p)
	}
}

// readProperty decodes one property after its name has been read.
func (d *decoder) readProperty(name FName) (Property, error) {
	tagOff := d.r.Offset()
	tag, err := d.names.readName(d.r)
	if err != nil {
		return Property{}, WrapError(err, "type")
	}
	codec, ok := codecs[tag.Value]
	if !ok {
		return Property{}, UnknownTypeError{Tag: tag.Value, Offset: tagOff}
	}
	h := propHead{name: name, tag: tag}
	if h.size, err = d.r.ReadUint32(); err != nil {
		return Property{}, WrapError(err, "size")
	}
	if h.index, err = d.r.ReadUint32(); err != nil {
		return Property{}, WrapError(err, "index")
	}
	if codec.head != nil {
		if err := codec.head(d, &h); err != nil {
			return Property{}, err
		}
	}
	if err := d.readTerminator(); err != nil {
		return Property{}, err
	}
	start := d.r.Offset()
	v, err := codec.body(d, &h)
	if err != nil {
		return Property{}, err
	}
	if consumed := uint32(d.r.Offset() - start); consumed != h.size {
		return Property{}, SizeMismatchError{Property: name.String(), Declared: h.size, Actual: consumed}
	}
	return Property{Name: name, Tag: tag, Size: h.size, Index: h.index, Value: v}, nil
}

// readTerminator consumes the byte that closes every property header. A
// nonzero value would announce a per-property guid, which this format never
// carries; treat it as corruption rather than desynchronize.
func (d *decoder) readTerminator() error {
	off := d.r.Offset()
	b, err := d.r.ReadUint8()
	if err != nil {
		return WrapError(err, "terminator")
	}
	if b != 0 {
		return ArchiveError{Offset: off, Reason: "nonzero property header terminator"}
	}
	return nil
}

// writeBag encodes properties in order and closes with the None sentinel.
func (e *encoder) writeBag(bag Bag) error {
	if e.depth++; e.depth > recursionLimit {
		return ErrRecursion
	}
	defer func() { e.depth-- }()

	for i := range bag {
		if err := e.writeProperty(&bag[i]); err != nil {
			return WrapError(err, bag[i].Name.Value)
		}
	}
	return e.names.writeName(e.w, Name("None"))
}

// writeProperty encodes one property. The declared size is measured: a
// placeholder is reserved, the payload written, and the slot patched with
// the byte count that landed after the terminator.
func (e *encoder) writeProperty(p *Property) error {
	tag := p.Tag
	if tag.Value == "" {
		// Hand-built documents may omit the tag; derive it from the value.
		if p.Value == nil {
			return ValueError{Property: p.Name.String(), Tag: "(none)", Got: "nil"}
		}
		t := p.Value.Kind().Tag()
		if t == "" {
			return ValueError{Property: p.Name.String(), Tag: "(none)", Got: fmt.Sprintf("%T", p.Value)}
		}
		tag = Name(t)
	}
	codec, ok := codecs[tag.Value]
	if !ok {
		return UnknownTypeError{Tag: tag.Value, Offset: e.w.Len()}
	}
	if err := e.names.writeName(e.w, p.Name); err != nil {
		return err
	}
	if err := e.names.writeName(e.w, tag); err != nil {
		return err
	}
	slot := e.w.Reserve32()
	e.w.WriteUint32(p.Index)
	if codec.writeHead != nil {
		if err := codec.writeHead(e, p); err != nil {
			return err
		}
	}
	e.w.WriteUint8(0)
	start := e.w.Len()
	if err := codec.writeBody(e, p); err != nil {
		return err
	}
	e.w.Patch32(slot, uint32(e.w.Len()-start))
	return nil
}

// valueErr builds the mismatch error for a property whose document value
// does not fit its tag.
func valueErr(p *Property, tag string) ValueError {
	return ValueError{Property: p.Name.String(), Tag: tag, Got: fmt.Sprintf("%T", p.Value)}
}

// elemErr is the element-context variant of valueErr.
func elemErr(tag string, v Value) ValueError {
	return ValueError{Property: "(element)", Tag: tag, Got: fmt.Sprintf("%T", v)}
}

// DecodeProperties decodes a standalone property stream, the form used
// outside archives where names are inline strings and object references
// are path strings. A nil table means DefaultTypeTable.
func DecodeProperties(data []byte, table *TypeTable) (Bag, error) {
	if table == nil {
		table = DefaultTypeTable()
	}
	d := &decoder{r: NewReader(data), names: inlineNames{}, table: table}
	bag, err := d.readBag()
	if err != nil {
		return nil, err
	}
	if d.r.Len() != 0 {
		return nil, ArchiveError{Offset: d.r.Offset(), Reason: fmt.Sprintf("%d trailing bytes after final property", d.r.Len())}
	}
	return bag, nil
}

// AppendProperties encodes a standalone property stream onto buf and
// returns the extended slice. It is the inverse of DecodeProperties.
func AppendProperties(buf []byte, bag Bag, table *TypeTable) ([]byte, error) {
	if table == nil {
		table = DefaultTypeTable()
	}
	bb := GetByteBuffer()
	defer PutByteBuffer(bb)
	e := &encoder{w: NewWriter(bb), names: inlineNames{}, table: table}
	if err := e.writeBag(bag); err != nil {
		return nil, err
	}
	return append(buf, bb.Bytes()...), nil
}
