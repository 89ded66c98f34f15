package sav

import (
	"bytes"
	"testing"
)

// FuzzDecode throws arbitrary bytes at the container decoder. Inputs that
// decode must re-encode, and the re-encoded image must be a fixpoint:
// decoding it again and encoding once more reproduces the same bytes.
func FuzzDecode(f *testing.F) {
	plain := richSave()
	plain.Compression = CompressionNone
	for _, fix := range []*SaveFile{
		sampleSaveFile(),
		plain,
		persistenceSave(WorldSaveClass, "BP_RemnantSaveGame_C",
			persistenceProp("World", &PersistenceBlob{Container: worldContainer()})),
	} {
		data, err := fix.Encode(nil)
		if err != nil {
			f.Fatalf("seed encode: %v", err)
		}
		f.Add(data)
		f.Add(data[:40]) // truncated header
	}
	f.Add([]byte("not a save file, not even close"))

	f.Fuzz(func(t *testing.T, data []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("panic in Decode fuzz: %v", r)
			}
		}()

		m1, err := Decode(data, nil)
		if err != nil {
			return
		}

		// Anything the decoder accepted came off a wire image, so the
		// model must be encodable.
		b1, err := m1.Encode(nil)
		if err != nil {
			t.Fatalf("decoded save failed to re-encode: %v", err)
		}
		m2, err := Decode(b1, nil)
		if err != nil {
			t.Fatalf("re-encoded save failed to decode: %v", err)
		}
		b2, err := m2.Encode(nil)
		if err != nil {
			t.Fatalf("second re-encode failed: %v", err)
		}
		if !bytes.Equal(b1, b2) {
			t.Fatal("re-encoding is not a fixpoint")
		}
	})
}

// FuzzDecodeProperties fuzzes the standalone property stream, which skips
// the chunk and archive layers and exercises the codec registry directly.
func FuzzDecodeProperties(f *testing.F) {
	for _, bag := range []Bag{
		{},
		{
			{Name: Name("Level"), Value: Int32Value(7)},
			{Name: Name("Title"), Value: StrValue{S: "Ward 13"}},
			{Name: Name("Ratios"), Value: ArrayValue{
				ElemType: Name("FloatProperty"),
				Elems:    []Value{FloatValue(1.5), FloatValue(-0.25)},
			}},
		},
		{
			{Name: Name("Id"), Value: StructValue{
				StructType: Name("Guid"),
				Inner:      GuidValue(Guid{A: 7}),
			}},
			{Name: Name("Loadout"), Value: MapValue{
				KeyType:   Name("IntProperty"),
				ValueType: Name("StructProperty"),
				Entries: []MapEntry{
					{Key: Int32Value(1), Value: BagValue{Props: Bag{
						{Name: Name("Ratio"), Value: FloatValue(0.5)},
					}}},
				},
			}},
		},
	} {
		data, err := AppendProperties(nil, bag, nil)
		if err != nil {
			f.Fatalf("seed encode: %v", err)
		}
		f.Add(data)
	}
	f.Add([]byte{0x05, 0x00, 0x00, 0x00})

	f.Fuzz(func(t *testing.T, data []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("panic in DecodeProperties fuzz: %v", r)
			}
		}()

		bag1, err := DecodeProperties(data, nil)
		if err != nil {
			return
		}
		b1, err := AppendProperties(nil, bag1, nil)
		if err != nil {
			t.Fatalf("decoded bag failed to re-encode: %v", err)
		}
		bag2, err := DecodeProperties(b1, nil)
		if err != nil {
			t.Fatalf("re-encoded bag failed to decode: %v", err)
		}
		b2, err := AppendProperties(nil, bag2, nil)
		if err != nil {
			t.Fatalf("second re-encode failed: %v", err)
		}
		if !bytes.Equal(b1, b2) {
			t.Fatal("re-encoding is not a fixpoint")
		}
	})
}

// FuzzFromJSON fuzzes the JSON parser. Documents it accepts must render
// back to JSON, and that rendering must be stable under another trip.
func FuzzFromJSON(f *testing.F) {
	for _, fix := range []*SaveFile{
		richSave(),
		persistenceSave(WorldSaveClass, "BP_RemnantSaveGame_C",
			persistenceProp("World", &PersistenceBlob{Container: worldContainer()})),
	} {
		js, err := ToJSON(fix, "")
		if err != nil {
			f.Fatalf("seed render: %v", err)
		}
		f.Add(js)
	}
	f.Add([]byte(`{}`))
	f.Add([]byte(`{"version":1,"objects":[{"wasLoaded":true,"path":"/X","properties":{"Level":{"type":"int32","value":7}}}]}`))
	f.Add([]byte(`{"objects":[{}]}`))
	f.Add([]byte(`[1`))

	f.Fuzz(func(t *testing.T, data []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("panic in FromJSON fuzz: %v", r)
			}
		}()

		m1, err := FromJSON(data, nil)
		if err != nil {
			return
		}
		js1, err := ToJSON(m1, "")
		if err != nil {
			t.Fatalf("parsed document failed to render: %v", err)
		}
		m2, err := FromJSON(js1, nil)
		if err != nil {
			t.Fatalf("rendered json failed to parse: %v", err)
		}
		js2, err := ToJSON(m2, "")
		if err != nil {
			t.Fatalf("second render failed: %v", err)
		}
		if !bytes.Equal(js1, js2) {
			t.Fatal("json rendering is not a fixpoint")
		}
	})
}
