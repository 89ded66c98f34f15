package sav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

func persistenceProp(name string, blob *PersistenceBlob) Property {
	return Property{Name: Name(name), Value: StructValue{
		StructType: Name("PersistenceBlob"),
		Inner:      PersistenceValue{Blob: blob},
	}}
}

func persistenceSave(class, className string, prop Property) *SaveFile {
	return &SaveFile{
		Version:     9,
		BuildNumber: 365,
		Archive: &Archive{
			PackageVersion: &PackageVersion{UE4: 522, UE5: 1008},
			ClassPath:      &TopLevelAssetPath{Path: class, Name: className},
			Version:        4,
			Objects: []Object{{
				WasLoaded:  true,
				Path:       class,
				HasData:    true,
				Properties: Bag{prop},
			}},
		},
	}
}

func decodePersistenceProp(t *testing.T, f *SaveFile, name string) *PersistenceBlob {
	t.Helper()
	p := Find(f.Archive.Objects[0].Properties, name)
	if p == nil {
		t.Fatalf("property %q not decoded", name)
	}
	sv, ok := p.Value.(StructValue)
	if !ok {
		t.Fatalf("property %q = %T", name, p.Value)
	}
	pv, ok := sv.Inner.(PersistenceValue)
	if !ok || pv.Blob == nil {
		t.Fatalf("inner value = %T", sv.Inner)
	}
	return pv.Blob
}

// Profile saves nest a plain archive inside the blob. The nested archive
// carries its own name table and offset space.
func TestPersistenceProfileRoundTrip(t *testing.T) {
	inner := &Archive{
		PackageVersion: &PackageVersion{UE4: 522, UE5: 1008},
		Version:        4,
		Objects: []Object{{
			WasLoaded: true,
			Path:      "/Game/Characters/Hero",
			HasData:   true,
			Properties: Bag{
				{Name: Name("Scrap"), Value: Int32Value(1200)},
			},
		}},
	}
	in := persistenceSave(ProfileSaveClass, "BP_RemnantSaveGameProfile_C",
		persistenceProp("Profile", &PersistenceBlob{Archive: inner}))

	first, err := in.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	f, err := Decode(first, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	blob := decodePersistenceProp(t, f, "Profile")
	if blob.Archive == nil || blob.Container != nil || blob.Raw != nil {
		t.Fatalf("blob = %+v", blob)
	}
	if p := Find(blob.Archive.Objects[0].Properties, "Scrap"); p == nil || p.Value.(Int32Value) != 1200 {
		t.Fatalf("nested Scrap = %+v", p)
	}

	second, err := f.Encode(nil)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("profile save did not round trip")
	}
}

func worldContainer() *PersistenceContainer {
	return &PersistenceContainer{
		Version: 2,
		Actors: []PersistenceActor{
			{
				ID: 101,
				Transform: &Transform{
					Rotation: Quat{W: 1},
					Position: VectorValue{X: 10, Y: -2, Z: 0.5},
					Scale:    VectorValue{X: 1, Y: 1, Z: 1},
				},
				Archive: &Archive{
					Version: 4,
					Objects: []Object{{
						WasLoaded: true,
						Path:      "/Game/World/Turret",
						HasData:   true,
						Properties: Bag{
							{Name: Name("Ammo"), Value: Int32Value(40)},
						},
					}},
				},
				Dynamic: &DynamicActor{
					Transform: Transform{
						Rotation: Quat{W: 1},
						Position: VectorValue{X: 10, Y: -2, Z: 0.5},
						Scale:    VectorValue{X: 1, Y: 1, Z: 1},
					},
					ClassPath: TopLevelAssetPath{Path: "/Game/World", Name: "Turret_C"},
				},
			},
			{
				ID: 102,
				Archive: &Archive{
					Version: 4,
					Objects: []Object{{WasLoaded: true, Path: "/Game/World/Door"}},
				},
			},
		},
		Destroyed: []uint64{7777, 8888},
	}
}

// World saves nest an actor container: offset-indexed actor blobs, a
// destroyed-id list, and spawn records for dynamic actors.
func TestPersistenceWorldRoundTrip(t *testing.T) {
	in := persistenceSave(WorldSaveClass, "BP_RemnantSaveGame_C",
		persistenceProp("World", &PersistenceBlob{Container: worldContainer()}))

	first, err := in.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	f, err := Decode(first, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	blob := decodePersistenceProp(t, f, "World")
	if blob.Container == nil || blob.Archive != nil || blob.Raw != nil {
		t.Fatalf("blob = %+v", blob)
	}
	c := blob.Container
	if c.Version != 2 || len(c.Actors) != 2 {
		t.Fatalf("container = %+v", c)
	}

	turret := c.Actors[0]
	if turret.ID != 101 || turret.Transform == nil {
		t.Fatalf("turret = %+v", turret)
	}
	if turret.Transform.Position != (VectorValue{X: 10, Y: -2, Z: 0.5}) {
		t.Fatalf("turret position = %+v", turret.Transform.Position)
	}
	if turret.Dynamic == nil || turret.Dynamic.ClassPath.Name != "Turret_C" {
		t.Fatalf("turret spawn record = %+v", turret.Dynamic)
	}
	if p := Find(turret.Archive.Objects[0].Properties, "Ammo"); p == nil || p.Value.(Int32Value) != 40 {
		t.Fatalf("turret Ammo = %+v", p)
	}

	door := c.Actors[1]
	if door.ID != 102 || door.Transform != nil || door.Dynamic != nil {
		t.Fatalf("door = %+v", door)
	}
	if len(c.Destroyed) != 2 || c.Destroyed[0] != 7777 || c.Destroyed[1] != 8888 {
		t.Fatalf("destroyed = %v", c.Destroyed)
	}

	second, err := f.Encode(nil)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("world save did not round trip")
	}
}

// An unrecognized save game class leaves the blob bytes untouched so the
// document still re-encodes exactly.
func TestPersistenceUnknownClassKeepsRaw(t *testing.T) {
	raw := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	in := persistenceSave("/Game/Mods/BP_CustomSave", "BP_CustomSave_C",
		persistenceProp("State", &PersistenceBlob{Raw: raw}))

	first, err := in.Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	f, err := Decode(first, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	blob := decodePersistenceProp(t, f, "State")
	if blob.Raw == nil || blob.Archive != nil || blob.Container != nil {
		t.Fatalf("blob = %+v", blob)
	}
	if !bytes.Equal(blob.Raw, raw) {
		t.Fatalf("raw = %x", blob.Raw)
	}

	second, err := f.Encode(nil)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("raw blob did not round trip")
	}
}

func TestPersistenceEncodeErrors(t *testing.T) {
	cases := []struct {
		name string
		prop Property
		want string
	}{
		{
			name: "nil blob",
			prop: persistenceProp("State", nil),
			want: "empty persistence blob",
		},
		{
			name: "blob with no payload",
			prop: persistenceProp("State", &PersistenceBlob{}),
			want: "empty persistence blob",
		},
		{
			name: "actor without archive",
			prop: persistenceProp("World", &PersistenceBlob{Container: &PersistenceContainer{
				Actors: []PersistenceActor{{ID: 101}},
			}}),
			want: "persisted actor missing archive",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := persistenceSave(WorldSaveClass, "BP_RemnantSaveGame_C", tc.prop)
			_, err := in.Encode(nil)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

// A spawn record naming an actor the index does not list is corruption.
func TestDynamicActorNotInIndex(t *testing.T) {
	bb := &ByteBuffer{}
	if err := encodePersistenceContainer(NewWriter(bb), worldContainer(), DefaultTypeTable()); err != nil {
		t.Fatalf("encode container: %v", err)
	}
	data := append([]byte(nil), bb.Bytes()...)

	// Container header: version at 0, index offset at 4, dynamic actor
	// offset at 8. The section opens with a count, then the first id.
	dynOff := binary.LittleEndian.Uint32(data[8:])
	binary.LittleEndian.PutUint64(data[dynOff+4:], 999)

	_, err := decodePersistenceContainer(data, DefaultTypeTable())
	var ae ArchiveError
	if !errors.As(err, &ae) || !strings.Contains(ae.Reason, "dynamic actor 999 not in index") {
		t.Fatalf("expected index error, got %v", err)
	}
}

// Transforms are ten doubles: rotation w x y z, then position, then scale.
func TestTransformWire(t *testing.T) {
	tr := Transform{
		Rotation: Quat{W: 1, X: 2, Y: 3, Z: 4},
		Position: VectorValue{X: 5, Y: 6, Z: 7},
		Scale:    VectorValue{X: 8, Y: 9, Z: 10},
	}
	bb := &ByteBuffer{}
	writeTransform(NewWriter(bb), tr)
	if bb.Len() != 80 {
		t.Fatalf("transform is %d bytes, want 80", bb.Len())
	}

	r := NewReader(bb.Bytes())
	for i, want := range []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10} {
		got, err := r.ReadFloat64()
		if err != nil {
			t.Fatalf("field %d: %v", i, err)
		}
		if got != want {
			t.Fatalf("field %d = %v, want %v", i, got, want)
		}
	}

	got, err := readTransform(NewReader(bb.Bytes()))
	if err != nil {
		t.Fatalf("read transform: %v", err)
	}
	if got != tr {
		t.Fatalf("transform = %+v", got)
	}
}
