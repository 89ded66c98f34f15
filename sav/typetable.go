package sav

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Layout selects how a struct payload is decoded.
type Layout uint8

const (
	// LayoutDynamic is a nested property bag terminated by the None
	// sentinel. It is the default for struct names not in the table.
	LayoutDynamic Layout = iota
	LayoutGuid
	LayoutDateTime
	LayoutTimespan
	LayoutVector
	LayoutSoftPath
	LayoutPersistence
	// LayoutBlob preserves the payload verbatim. It is never a default;
	// it exists so callers can pin down structs whose dynamic decoding
	// misbehaves without losing the bytes.
	LayoutBlob
)

var layoutNames = map[Layout]string{
	LayoutDynamic:     "dynamic",
	LayoutGuid:        "guid",
	LayoutDateTime:    "datetime",
	LayoutTimespan:    "timespan",
	LayoutVector:      "vector",
	LayoutSoftPath:    "softpath",
	LayoutPersistence: "persistence",
	LayoutBlob:        "blob",
}

func (l Layout) String() string {
	if s, ok := layoutNames[l]; ok {
		return s
	}
	return "dynamic"
}

// ParseLayout resolves a layout word as used in type table files.
func ParseLayout(s string) (Layout, error) {
	for l, name := range layoutNames {
		if name == s {
			return l, nil
		}
	}
	return LayoutDynamic, fmt.Errorf("sav: unknown struct layout %q", s)
}

// TypeTable maps struct type names to payload layouts. The zero value is
// not usable; construct with DefaultTypeTable or NewTypeTable.
type TypeTable struct {
	layouts map[string]Layout
}

// NewTypeTable returns an empty table where every struct decodes as a
// dynamic bag.
func NewTypeTable() *TypeTable {
	return &TypeTable{layouts: make(map[string]Layout)}
}

// DefaultTypeTable returns the built-in table covering the fixed-shape
// structs the format uses.
func DefaultTypeTable() *TypeTable {
	t := NewTypeTable()
	t.Set("Guid", LayoutGuid)
	t.Set("DateTime", LayoutDateTime)
	t.Set("Timespan", LayoutTimespan)
	t.Set("Vector", LayoutVector)
	t.Set("SoftClassPath", LayoutSoftPath)
	t.Set("SoftObjectPath", LayoutSoftPath)
	t.Set("PersistenceBlob", LayoutPersistence)
	return t
}

// Set registers or replaces the layout of one struct name.
func (t *TypeTable) Set(name string, l Layout) { t.layouts[name] = l }

// layout resolves a struct name, defaulting to dynamic.
func (t *TypeTable) layout(name string) Layout { return t.layouts[name] }

// Names returns the registered struct names in sorted order.
func (t *TypeTable) Names() []string {
	out := make([]string, 0, len(t.layouts))
	for name := range t.layouts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LoadTypeTable parses a YAML mapping of struct names to layout words and
// applies it on top of the defaults:
//
//	MySavedStruct: blob
//	BoxedVector: vector
//
// Entries replace any default for the same name.
func LoadTypeTable(data []byte) (*TypeTable, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("sav: type table: %w", err)
	}
	t := DefaultTypeTable()
	for name, word := range raw {
		l, err := ParseLayout(word)
		if err != nil {
			return nil, fmt.Errorf("sav: type table entry %q: %w", name, err)
		}
		t.Set(name, l)
	}
	return t, nil
}
