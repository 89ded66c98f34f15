// Package savegen builds synthetic save documents for benchmarks. The
// fixture mirrors the shape of a real character profile: a settings
// object, a roster of characters carrying the property kinds that
// dominate real files, one actor with components, and a persistence
// blob nesting a second archive.
package savegen

import (
	"fmt"

	"github.com/savelab/sav.go/sav"
)

// Default fixture sizes. Chosen so the encoded file lands in the same
// ballpark as a mid-game profile save.
const (
	DefaultNumCharacters     = 48
	DefaultItemsPerCharacter = 24
)

// Roster is a flattened mirror of the character data. It exists so
// general-purpose codecs can be benchmarked on the same logical payload
// as the save codec.
type Roster struct {
	Version    uint32      `json:"version" cbor:"version" msg:"version"`
	Characters []Character `json:"characters" cbor:"characters" msg:"characters"`
}

type Character struct {
	Name       string           `json:"name" cbor:"name" msg:"name"`
	Archetype  string           `json:"archetype" cbor:"archetype" msg:"archetype"`
	Level      int32            `json:"level" cbor:"level" msg:"level"`
	Experience int64            `json:"experience" cbor:"experience" msg:"experience"`
	Health     float32          `json:"health" cbor:"health" msg:"health"`
	Position   [3]float64       `json:"position" cbor:"position" msg:"position"`
	Items      []Item           `json:"items" cbor:"items" msg:"items"`
	Traits     map[string]int32 `json:"traits" cbor:"traits" msg:"traits"`
}

type Item struct {
	ID         string  `json:"id" cbor:"id" msg:"id"`
	Quantity   int32   `json:"quantity" cbor:"quantity" msg:"quantity"`
	Durability float32 `json:"durability" cbor:"durability" msg:"durability"`
}

// BuildRosterFixture constructs a deterministic roster of the given size.
func BuildRosterFixture(numCharacters, itemsPerCharacter int) Roster {
	if numCharacters <= 0 {
		numCharacters = DefaultNumCharacters
	}
	if itemsPerCharacter <= 0 {
		itemsPerCharacter = DefaultItemsPerCharacter
	}

	archetypes := []string{"Medic", "Hunter", "Challenger", "Handler", "Gunslinger"}

	r := Roster{Version: 9, Characters: make([]Character, 0, numCharacters)}
	for i := 0; i < numCharacters; i++ {
		c := Character{
			Name:       fmt.Sprintf("Traveler_%d", i),
			Archetype:  archetypes[i%len(archetypes)],
			Level:      int32(1 + i%20),
			Experience: int64(i) * 2350,
			Health:     100 + float32(i%10)*7.5,
			Position:   [3]float64{float64(i) * 128, float64(i%7) * 64, 90.25},
			Traits: map[string]int32{
				"Vigor":     int32(i % 11),
				"Endurance": int32(i % 7),
				"Expertise": int32(i % 5),
			},
		}
		for j := 0; j < itemsPerCharacter; j++ {
			c.Items = append(c.Items, Item{
				ID:         fmt.Sprintf("Item_Weapon_%02d", j),
				Quantity:   int32(1 + j%5),
				Durability: 100 - float32(j%40),
			})
		}
		r.Characters = append(r.Characters, c)
	}
	return r
}

// SaveFromRoster expresses the roster as a full save document: one
// settings object, one object per character, an actor carrying variable
// and bag components, and a persistence blob with a nested archive.
func SaveFromRoster(r Roster) *sav.SaveFile {
	a := &sav.Archive{
		PackageVersion: &sav.PackageVersion{UE4: 522, UE5: 1008},
		ClassPath: &sav.TopLevelAssetPath{
			Path: sav.ProfileSaveClass,
			Name: "BP_RemnantSaveGameProfile_C",
		},
		Version: r.Version,
	}

	a.Objects = append(a.Objects, sav.Object{
		WasLoaded: true,
		Path:      sav.ProfileSaveClass,
		HasData:   true,
		Properties: sav.Bag{
			intProp("ActiveCharacterIndex", 0),
			{Name: sav.Name("LastSavedTime"), Tag: sav.Name("StructProperty"), Value: sav.StructValue{
				StructType: sav.Name("DateTime"),
				Inner:      sav.DateTimeValue(638400000000000000),
			}},
		},
	})

	for i := range r.Characters {
		a.Objects = append(a.Objects, characterObject(&r.Characters[i], i))
	}

	a.Objects = append(a.Objects, actorObject(len(a.Objects)))
	a.Objects = append(a.Objects, persistenceObject(r.Version))

	return &sav.SaveFile{Version: 10, BuildNumber: 455558, Archive: a}
}

func characterObject(c *Character, i int) sav.Object {
	items := make([]sav.Value, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, sav.BagValue{Props: sav.Bag{
			{Name: sav.Name("ItemID"), Tag: sav.Name("NameProperty"), Value: sav.NameValue(sav.Name(it.ID))},
			intProp("Quantity", it.Quantity),
			{Name: sav.Name("Durability"), Tag: sav.Name("FloatProperty"), Value: sav.FloatValue(it.Durability)},
		}})
	}

	traits := sav.MapValue{KeyType: sav.Name("NameProperty"), ValueType: sav.Name("IntProperty")}
	for _, key := range []string{"Vigor", "Endurance", "Expertise"} {
		traits.Entries = append(traits.Entries, sav.MapEntry{
			Key:   sav.NameValue(sav.Name(key)),
			Value: sav.Int32Value(c.Traits[key]),
		})
	}

	return sav.Object{
		WasLoaded: true,
		Path:      fmt.Sprintf("/Game/Characters/Character_%d", i),
		HasData:   true,
		Properties: sav.Bag{
			{Name: sav.Name("CharacterName"), Tag: sav.Name("StrProperty"), Value: sav.StrValue{S: c.Name}},
			{Name: sav.Name("Archetype"), Tag: sav.Name("NameProperty"), Value: sav.NameValue(sav.Name(c.Archetype))},
			intProp("Level", c.Level),
			{Name: sav.Name("Experience"), Tag: sav.Name("Int64Property"), Value: sav.Int64Value(c.Experience)},
			{Name: sav.Name("Health"), Tag: sav.Name("FloatProperty"), Value: sav.FloatValue(c.Health)},
			{Name: sav.Name("Position"), Tag: sav.Name("StructProperty"), Value: sav.StructValue{
				StructType: sav.Name("Vector"),
				Inner:      sav.VectorValue{X: c.Position[0], Y: c.Position[1], Z: c.Position[2]},
			}},
			{Name: sav.Name("Inventory"), Tag: sav.Name("ArrayProperty"), Value: sav.ArrayValue{
				ElemType: sav.Name("StructProperty"),
				Head:     &sav.StructHead{Name: sav.Name("Inventory"), StructType: sav.Name("ItemData")},
				Elems:    items,
			}},
			{Name: sav.Name("Traits"), Tag: sav.Name("MapProperty"), Value: traits},
			{Name: sav.Name("Tags"), Tag: sav.Name("SetProperty"), Value: sav.SetValue{
				ElemType: sav.Name("NameProperty"),
				Elems: []sav.Value{
					sav.NameValue(sav.Name("Tag_Hardcore")),
					sav.NameValue(sav.NameN("Tag_Slot", uint32(i))),
				},
			}},
		},
	}
}

func actorObject(outer int) sav.Object {
	return sav.Object{
		WasLoaded: false,
		Path:      "/Game/World/PersistentLevel.ZoneActor",
		Loaded:    &sav.LoadedData{Name: sav.Name("ZoneActor"), OuterID: uint32(outer)},
		HasData:   true,
		Properties: sav.Bag{
			intProp("ZoneID", 14),
		},
		IsActor: true,
		Components: []sav.Component{
			{Key: "GlobalVariables", Variables: &sav.VariableSet{
				Name: sav.Name("GlobalVariables"),
				Vars: []sav.Variable{
					{Name: sav.Name("QuestComplete"), Type: sav.VarBool, Bool: true},
					{Name: sav.Name("KillCount"), Type: sav.VarInt, Int: 1337},
					{Name: sav.Name("PlayRatio"), Type: sav.VarFloat, Float: 0.75},
					{Name: sav.Name("LastZone"), Type: sav.VarName, Ref: sav.Name("Zone_Yaesha")},
				},
			}},
			{Key: "Stats", Props: sav.Bag{
				intProp("Deaths", 9),
				{Name: sav.Name("TimePlayed"), Tag: sav.Name("StructProperty"), Value: sav.StructValue{
					StructType: sav.Name("Timespan"),
					Inner:      sav.TimespanValue(72000000000),
				}},
			}},
		},
	}
}

// persistenceObject nests a minimal archive inside a PersistenceBlob
// struct, the way profile saves store per-character world state.
func persistenceObject(version uint32) sav.Object {
	inner := &sav.Archive{
		PackageVersion: &sav.PackageVersion{UE4: 522, UE5: 1008},
		Version:        version,
		Objects: []sav.Object{{
			WasLoaded: true,
			Path:      "/Game/World/SavedState",
			HasData:   true,
			Properties: sav.Bag{
				intProp("Difficulty", 2),
			},
		}},
	}
	return sav.Object{
		WasLoaded: true,
		Path:      "/Game/Characters/PersistenceContainer",
		HasData:   true,
		Properties: sav.Bag{
			{Name: sav.Name("PersistenceData"), Tag: sav.Name("StructProperty"), Value: sav.StructValue{
				StructType: sav.Name("PersistenceBlob"),
				Inner:      sav.PersistenceValue{Blob: &sav.PersistenceBlob{Archive: inner}},
			}},
		},
	}
}

func intProp(name string, v int32) sav.Property {
	return sav.Property{Name: sav.Name(name), Tag: sav.Name("IntProperty"), Value: sav.Int32Value(v)}
}
