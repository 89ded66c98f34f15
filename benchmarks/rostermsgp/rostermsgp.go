// Package rostermsgp hand-encodes the roster fixture with tinylib/msgp
// primitives so MessagePack can join the codec comparison without
// generated methods.
package rostermsgp

import (
	msgp "github.com/tinylib/msgp/msgp"

	"github.com/savelab/sav.go/benchmarks/savegen"
)

// AppendRoster appends the MessagePack encoding of r to buf.
func AppendRoster(buf []byte, r savegen.Roster) []byte {
	buf = msgp.AppendUint32(buf, r.Version)
	buf = msgp.AppendArrayHeader(buf, uint32(len(r.Characters)))
	for i := range r.Characters {
		buf = appendCharacter(buf, &r.Characters[i])
	}
	return buf
}

func appendCharacter(buf []byte, c *savegen.Character) []byte {
	buf = msgp.AppendString(buf, c.Name)
	buf = msgp.AppendString(buf, c.Archetype)
	buf = msgp.AppendInt32(buf, c.Level)
	buf = msgp.AppendInt64(buf, c.Experience)
	buf = msgp.AppendFloat32(buf, c.Health)
	for _, p := range c.Position {
		buf = msgp.AppendFloat64(buf, p)
	}
	buf = msgp.AppendArrayHeader(buf, uint32(len(c.Items)))
	for _, it := range c.Items {
		buf = msgp.AppendString(buf, it.ID)
		buf = msgp.AppendInt32(buf, it.Quantity)
		buf = msgp.AppendFloat32(buf, it.Durability)
	}
	buf = msgp.AppendMapHeader(buf, uint32(len(c.Traits)))
	for k, v := range c.Traits {
		buf = msgp.AppendString(buf, k)
		buf = msgp.AppendInt32(buf, v)
	}
	return buf
}

// ReadRoster decodes an AppendRoster encoding and returns the remaining
// bytes.
func ReadRoster(b []byte) (savegen.Roster, []byte, error) {
	var r savegen.Roster
	var err error

	if r.Version, b, err = msgp.ReadUint32Bytes(b); err != nil {
		return r, b, err
	}
	var count uint32
	if count, b, err = msgp.ReadArrayHeaderBytes(b); err != nil {
		return r, b, err
	}
	r.Characters = make([]savegen.Character, 0, count)
	for i := uint32(0); i < count; i++ {
		var c savegen.Character
		if c, b, err = readCharacter(b); err != nil {
			return r, b, err
		}
		r.Characters = append(r.Characters, c)
	}
	return r, b, nil
}

func readCharacter(b []byte) (savegen.Character, []byte, error) {
	var c savegen.Character
	var err error

	if c.Name, b, err = msgp.ReadStringBytes(b); err != nil {
		return c, b, err
	}
	if c.Archetype, b, err = msgp.ReadStringBytes(b); err != nil {
		return c, b, err
	}
	if c.Level, b, err = msgp.ReadInt32Bytes(b); err != nil {
		return c, b, err
	}
	if c.Experience, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return c, b, err
	}
	if c.Health, b, err = msgp.ReadFloat32Bytes(b); err != nil {
		return c, b, err
	}
	for i := range c.Position {
		if c.Position[i], b, err = msgp.ReadFloat64Bytes(b); err != nil {
			return c, b, err
		}
	}

	var items uint32
	if items, b, err = msgp.ReadArrayHeaderBytes(b); err != nil {
		return c, b, err
	}
	c.Items = make([]savegen.Item, 0, items)
	for i := uint32(0); i < items; i++ {
		var it savegen.Item
		if it.ID, b, err = msgp.ReadStringBytes(b); err != nil {
			return c, b, err
		}
		if it.Quantity, b, err = msgp.ReadInt32Bytes(b); err != nil {
			return c, b, err
		}
		if it.Durability, b, err = msgp.ReadFloat32Bytes(b); err != nil {
			return c, b, err
		}
		c.Items = append(c.Items, it)
	}

	var traits uint32
	if traits, b, err = msgp.ReadMapHeaderBytes(b); err != nil {
		return c, b, err
	}
	c.Traits = make(map[string]int32, traits)
	for i := uint32(0); i < traits; i++ {
		var k string
		var v int32
		if k, b, err = msgp.ReadStringBytes(b); err != nil {
			return c, b, err
		}
		if v, b, err = msgp.ReadInt32Bytes(b); err != nil {
			return c, b, err
		}
		c.Traits[k] = v
	}
	return c, b, nil
}
