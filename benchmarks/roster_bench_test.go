package benchmarks

import (
	"reflect"
	"testing"

	json "encoding/json"

	fxcbor "github.com/fxamacker/cbor/v2"

	"github.com/savelab/sav.go/benchmarks/rostermsgp"
	"github.com/savelab/sav.go/benchmarks/savegen"
)

// The roster benchmarks put general-purpose codecs next to the save
// codec on the same logical payload. The save codec carries name tables,
// declared sizes and type tags the others do not, so these are context
// numbers rather than a like-for-like race.

func benchRoster() savegen.Roster {
	return savegen.BuildRosterFixture(
		savegen.DefaultNumCharacters,
		savegen.DefaultItemsPerCharacter,
	)
}

func BenchmarkFXCBOR_Roster_Encode(b *testing.B) {
	r := benchRoster()
	encMode, err := fxcbor.CanonicalEncOptions().EncMode()
	if err != nil {
		b.Fatalf("fxcbor EncMode: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	var out []byte
	for i := 0; i < b.N; i++ {
		out, err = encMode.Marshal(r)
		if err != nil {
			b.Fatalf("fxcbor Marshal: %v", err)
		}
	}
	_ = out
}

func BenchmarkFXCBOR_Roster_Decode(b *testing.B) {
	r := benchRoster()
	encMode, err := fxcbor.CanonicalEncOptions().EncMode()
	if err != nil {
		b.Fatalf("fxcbor EncMode: %v", err)
	}
	decMode, err := fxcbor.DecOptions{}.DecMode()
	if err != nil {
		b.Fatalf("fxcbor DecMode: %v", err)
	}
	enc, err := encMode.Marshal(r)
	if err != nil {
		b.Fatalf("fxcbor Marshal: %v", err)
	}
	b.SetBytes(int64(len(enc)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var out savegen.Roster
		if err := decMode.Unmarshal(enc, &out); err != nil {
			b.Fatalf("fxcbor Unmarshal: %v", err)
		}
	}
}

func BenchmarkJSONv1_Roster_Encode(b *testing.B) {
	r := benchRoster()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := json.Marshal(r); err != nil {
			b.Fatalf("json.Marshal: %v", err)
		}
	}
}

func BenchmarkJSONv1_Roster_Decode(b *testing.B) {
	r := benchRoster()
	enc, err := json.Marshal(r)
	if err != nil {
		b.Fatalf("json.Marshal: %v", err)
	}
	b.SetBytes(int64(len(enc)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var out savegen.Roster
		if err := json.Unmarshal(enc, &out); err != nil {
			b.Fatalf("json.Unmarshal: %v", err)
		}
	}
}

func BenchmarkMsgp_Roster_Encode(b *testing.B) {
	r := benchRoster()
	b.ReportAllocs()
	b.ResetTimer()
	var out []byte
	for i := 0; i < b.N; i++ {
		out = rostermsgp.AppendRoster(out[:0], r)
	}
	_ = out
}

func BenchmarkMsgp_Roster_Decode(b *testing.B) {
	enc := rostermsgp.AppendRoster(nil, benchRoster())
	b.SetBytes(int64(len(enc)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, rest, err := rostermsgp.ReadRoster(enc); err != nil || len(rest) != 0 {
			b.Fatalf("ReadRoster: %v (rest=%d)", err, len(rest))
		}
	}
}

// TestRosterCodecParity checks that every comparison codec reproduces
// the fixture it encoded, so the benchmarks above measure real work.
func TestRosterCodecParity(t *testing.T) {
	r := benchRoster()

	t.Run("msgp", func(t *testing.T) {
		enc := rostermsgp.AppendRoster(nil, r)
		out, rest, err := rostermsgp.ReadRoster(enc)
		if err != nil {
			t.Fatalf("ReadRoster: %v", err)
		}
		if len(rest) != 0 {
			t.Fatalf("ReadRoster left %d bytes", len(rest))
		}
		if !reflect.DeepEqual(out, r) {
			t.Fatal("msgp round trip changed the roster")
		}
	})

	t.Run("fxcbor", func(t *testing.T) {
		enc, err := fxcbor.Marshal(r)
		if err != nil {
			t.Fatalf("fxcbor Marshal: %v", err)
		}
		var out savegen.Roster
		if err := fxcbor.Unmarshal(enc, &out); err != nil {
			t.Fatalf("fxcbor Unmarshal: %v", err)
		}
		if !reflect.DeepEqual(out, r) {
			t.Fatal("fxcbor round trip changed the roster")
		}
	})

	t.Run("json", func(t *testing.T) {
		enc, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("json.Marshal: %v", err)
		}
		var out savegen.Roster
		if err := json.Unmarshal(enc, &out); err != nil {
			t.Fatalf("json.Unmarshal: %v", err)
		}
		if !reflect.DeepEqual(out, r) {
			t.Fatal("json round trip changed the roster")
		}
	})
}
