package sav

import "strconv"

// FName is an interned name: a string plus an optional numeric suffix.
// Inside an archive names are stored once in a table and referenced by
// index; in standalone property streams they are written inline as strings.
type FName struct {
	Value     string
	Number    uint32
	HasNumber bool
}

// Name returns an FName without a number suffix.
func Name(s string) FName { return FName{Value: s} }

// NameN returns an FName with a number suffix.
func NameN(s string, n uint32) FName { return FName{Value: s, Number: n, HasNumber: true} }

// IsNone reports whether the name is the bag terminator sentinel. Only the
// string part is consulted.
func (n FName) IsNone() bool { return n.Value == "None" }

// Equal compares both the string and the numeric suffix.
func (n FName) Equal(o FName) bool {
	return n.Value == o.Value && n.HasNumber == o.HasNumber && (!n.HasNumber || n.Number == o.Number)
}

func (n FName) String() string {
	if n.HasNumber {
		return n.Value + "_" + strconv.FormatUint(uint64(n.Number), 10)
	}
	return n.Value
}

// hasNumberBit flags a table reference whose index is followed by a numeric
// suffix.
const hasNumberBit = 1 << 15

type nameReader interface {
	readName(r *Reader) (FName, error)
}

type nameWriter interface {
	writeName(w *Writer, n FName) error
}

// NameEntry is one name table entry. Wide records the string encoding so
// re-encoding reproduces the original bytes.
type NameEntry struct {
	Value string
	Wide  bool
}

// nameTable is the archive flavor: names are u16 indexes into a shared
// table, with bit 15 marking a trailing u32 number. The encoder interns new
// names at the end of the table, so a table decoded from a file keeps its
// original order and indexes on the way back out.
type nameTable struct {
	entries []NameEntry
	byValue map[string]uint16
}

func newNameTable() *nameTable {
	return &nameTable{byValue: make(map[string]uint16)}
}

// nameTableFrom builds a table pre-seeded with entries in order.
func nameTableFrom(entries []NameEntry) *nameTable {
	t := newNameTable()
	for _, e := range entries {
		t.add(e)
	}
	return t
}

func (t *nameTable) add(e NameEntry) uint16 {
	idx := uint16(len(t.entries))
	t.entries = append(t.entries, e)
	if _, dup := t.byValue[e.Value]; !dup {
		t.byValue[e.Value] = idx
	}
	return idx
}

func (t *nameTable) readName(r *Reader) (FName, error) {
	raw, err := r.ReadUint16()
	if err != nil {
		return FName{}, err
	}
	idx := raw &^ hasNumberBit
	if int(idx) >= len(t.entries) {
		return FName{}, NameError{Index: idx, Count: len(t.entries)}
	}
	n := FName{Value: t.entries[idx].Value}
	if raw&hasNumberBit != 0 {
		n.Number, err = r.ReadUint32()
		if err != nil {
			return FName{}, err
		}
		n.HasNumber = true
	}
	return n, nil
}

func (t *nameTable) writeName(w *Writer, n FName) error {
	idx, ok := t.byValue[n.Value]
	if !ok {
		if len(t.entries) > hasNumberBit-1 {
			return ArchiveError{Offset: w.Len(), Reason: "name table full"}
		}
		idx = t.add(NameEntry{Value: n.Value, Wide: !isASCII(n.Value)})
	}
	if n.HasNumber {
		w.WriteUint16(idx | hasNumberBit)
		w.WriteUint32(n.Number)
		return nil
	}
	w.WriteUint16(idx)
	return nil
}

// inlineNames is the standalone flavor: each name is a length-prefixed
// string. Numbered names have no inline representation, so writing one is
// an error rather than a silent truncation.
type inlineNames struct{}

func (inlineNames) readName(r *Reader) (FName, error) {
	start := r.Offset()
	s, _, err := r.ReadString()
	if err != nil {
		return FName{}, WrapError(err, "name")
	}
	if s == "" {
		return FName{}, ArchiveError{Offset: start, Reason: "empty name"}
	}
	return FName{Value: s}, nil
}

func (inlineNames) writeName(w *Writer, n FName) error {
	if n.HasNumber {
		return ArchiveError{Offset: w.Len(), Reason: "numbered name " + strconv.Quote(n.String()) + " in inline stream"}
	}
	w.WriteString(n.Value, false)
	return nil
}
