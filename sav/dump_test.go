package sav

import (
	"strings"
	"testing"
)

func dumpContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("dump does not contain %q", want)
		}
	}
	if t.Failed() {
		t.Logf("dump:\n%s", out)
	}
}

// TestDump renders a decoded save and spot-checks the tree: header line,
// object index entries, properties and both component flavors.
func TestDump(t *testing.T) {
	data, err := sampleSaveFile().Encode(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	f, err := Decode(data, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	dumpContains(t, Dump(f),
		"save version=10 build=455558 compression=zlib",
		"archive version=9 ue4=522 ue5=1008",
		`class="/Game/Blueprints/SaveGame"`,
		"[0] /Game/Blueprints/SaveGame",
		"Level (int32) = 7",
		"name=ZoneActor outer=0 actor",
		`component "GlobalVariables"`,
		"variables name=Globals",
		"Seen (bool) = true",
		"Kills (int) = 12",
		"Heat (float) = 0.5",
		"Zone (name) = Ward_13",
		"Marker (none)",
		`component "Inventory"`,
		"Count (int32) = 3",
		"[2] /Game/Meshes/Rock",
	)
}

// TestDumpValues covers the scalar and container renderings on a document
// built by hand, where the wire tag is derived from the value.
func TestDumpValues(t *testing.T) {
	f := &SaveFile{
		Version: 1,
		Archive: &Archive{
			Version: 1,
			Objects: []Object{{
				WasLoaded:  true,
				Path:       "/X",
				HasData:    true,
				Properties: richBag(),
			}},
			Trailing: []byte{1, 2, 3, 4},
		},
	}

	dumpContains(t, Dump(f),
		"[0] /X",
		"Grade (byte) = 250",
		"Color (byte) = EColor::EColor::Red",
		"Heat (float) = 1.5",
		"Silence (float) = NaN",
		`Title (str) = "Ward 13"`,
		"Zone (name) = Ward_13",
		"Stance (enum) = EStance::EStance::Crouch",
		"Owner (object) = object #0",
		`Sidearm (softobject) = soft "/Game/Items/Sword.Sword_C"`,
		`Caption (text) = text ""/"UI_Title" "Remnant"`,
		`Label (text) = text "Loot"`,
		"Id (struct) Guid = 00C0FFEE-00000005-00000000-00000000",
		"SavedAt (struct) DateTime = 638000000000000000",
		"Spawn (struct) Vector = (1.5, -2, 0.25)",
		"Stats (struct) CharacterData:",
		"HP (int32) = 50",
		"Ratios (array) x3:",
		"[0] = 1.5",
		"Points (array) x2:",
		"[0] = (1, 2, 3)",
		"Loadout (map) x2:",
		"[0] key = 1",
		"[0] value:",
		"Ratio (float) = 0.5",
		"Claims (map) x1:",
		"[0] key = 00000007-00000000-00000000-00000000",
		"Tags (set) x2:",
		"[0] = Alpha",
		"trailing 4 bytes",
	)
}

func TestDumpPersistence(t *testing.T) {
	decode := func(t *testing.T, f *SaveFile) *SaveFile {
		t.Helper()
		data, err := f.Encode(nil)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		out, err := Decode(data, nil)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		return out
	}

	t.Run("profile", func(t *testing.T) {
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
		f := decode(t, persistenceSave(ProfileSaveClass, "BP_RemnantSaveGameProfile_C",
			persistenceProp("Profile", &PersistenceBlob{Archive: inner})))
		dumpContains(t, Dump(f),
			"Profile (struct) PersistenceBlob = persistence archive:",
			"[0] /Game/Characters/Hero",
			"Scrap (int32) = 1200",
		)
	})

	t.Run("world", func(t *testing.T) {
		f := decode(t, persistenceSave(WorldSaveClass, "BP_RemnantSaveGame_C",
			persistenceProp("World", &PersistenceBlob{Container: worldContainer()})))
		dumpContains(t, Dump(f),
			"World (struct) PersistenceBlob = persistence container version=2 actors=2 destroyed=2:",
			`actor id=101 dynamic class="/Game/World"`,
			"Ammo (int32) = 40",
			"actor id=102",
		)
	})

	t.Run("raw", func(t *testing.T) {
		f := decode(t, persistenceSave("/Game/Mods/BP_CustomSave", "BP_CustomSave_C",
			persistenceProp("State", &PersistenceBlob{Raw: []byte{1, 2, 3, 4, 5, 6, 7, 8}})))
		dumpContains(t, Dump(f),
			"State (struct) PersistenceBlob = persistence 8 raw bytes",
		)
	})
}
