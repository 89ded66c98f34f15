package sav

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultTypeTable(t *testing.T) {
	table := DefaultTypeTable()
	want := []string{"DateTime", "Guid", "PersistenceBlob", "SoftClassPath", "SoftObjectPath", "Timespan", "Vector"}
	if got := table.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v", got)
	}
	if table.layout("Guid") != LayoutGuid || table.layout("SoftObjectPath") != LayoutSoftPath {
		t.Fatal("default layouts wrong")
	}
	if table.layout("SomeGameStruct") != LayoutDynamic {
		t.Fatal("unregistered names must default to dynamic")
	}
}

// TestLoadTypeTable applies a YAML mapping on top of the defaults:
// entries add new names and replace default layouts by name.
func TestLoadTypeTable(t *testing.T) {
	table, err := LoadTypeTable([]byte("RawStats: blob\nVector: dynamic\n"))
	if err != nil {
		t.Fatalf("LoadTypeTable: %v", err)
	}
	if table.layout("RawStats") != LayoutBlob {
		t.Fatalf("RawStats layout = %v", table.layout("RawStats"))
	}
	if table.layout("Vector") != LayoutDynamic {
		t.Fatalf("Vector override = %v", table.layout("Vector"))
	}
	if table.layout("Guid") != LayoutGuid {
		t.Fatal("defaults lost under overrides")
	}
}

func TestLoadTypeTableErrors(t *testing.T) {
	if _, err := LoadTypeTable([]byte("key: [unclosed")); err == nil {
		t.Fatal("malformed YAML accepted")
	}
	_, err := LoadTypeTable([]byte("RawStats: zipped\n"))
	if err == nil || !strings.Contains(err.Error(), `"RawStats"`) {
		t.Fatalf("unknown layout word = %v", err)
	}
}

func TestParseLayout(t *testing.T) {
	for l, name := range layoutNames {
		got, err := ParseLayout(name)
		if err != nil || got != l {
			t.Fatalf("ParseLayout(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseLayout("packed"); err == nil {
		t.Fatal("unknown layout word accepted")
	}
	if Layout(99).String() != "dynamic" {
		t.Fatalf("String = %q", Layout(99).String())
	}
}

// TestBlobLayout pins a struct name to the opaque layout: as a property
// payload the declared size bounds the bytes and they round trip
// verbatim; inside a container element there is no declared size, so
// decoding must refuse rather than guess.
func TestBlobLayout(t *testing.T) {
	table := DefaultTypeTable()
	table.Set("RawStats", LayoutBlob)

	prop := Property{Name: Name("Raw"), Value: StructValue{
		StructType: Name("RawStats"),
		Inner:      BlobValue([]byte{1, 2, 3, 4, 5}),
	}}
	wire, err := AppendProperties(nil, Bag{prop}, table)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	bag, err := DecodeProperties(wire, table)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	sv, ok := bag[0].Value.(StructValue)
	if !ok {
		t.Fatalf("value = %#v", bag[0].Value)
	}
	if blob, ok := sv.Inner.(BlobValue); !ok || !bytes.Equal(blob, []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("inner = %#v", sv.Inner)
	}
	out, err := AppendProperties(nil, bag, table)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(out, wire) {
		t.Fatalf("blob round trip differs:\n got %x\nwant %x", out, wire)
	}

	// Same blob as an array element: encodable, but not decodable.
	arr := Property{Name: Name("B"), Value: ArrayValue{
		ElemType: Name("StructProperty"),
		Head:     &StructHead{Name: Name("B"), StructType: Name("RawStats")},
		Elems:    []Value{BlobValue([]byte{9, 9})},
	}}
	wire, err = AppendProperties(nil, Bag{arr}, table)
	if err != nil {
		t.Fatalf("encode array: %v", err)
	}
	_, err = DecodeProperties(wire, table)
	var ae ArchiveError
	if !errors.As(err, &ae) || !strings.Contains(ae.Reason, "opaque struct") {
		t.Fatalf("expected opaque struct error, got %v", err)
	}
}

// Decoding with a nil table must behave exactly like the default table.
func TestNilTableDefaults(t *testing.T) {
	prop := Property{Name: Name("ID"), Value: StructValue{
		StructType: Name("Guid"),
		Inner:      GuidValue(Guid{A: 7}),
	}}
	wire, err := AppendProperties(nil, Bag{prop}, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	bag, err := DecodeProperties(wire, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := bag[0].Value.(StructValue).Inner.(GuidValue); !ok {
		t.Fatalf("Guid did not decode through the default table: %#v", bag[0].Value)
	}
}
