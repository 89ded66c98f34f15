package sav

import "fmt"

// Component is one entry of an actor's component list. The key decides the
// body: a handful of well-known keys carry a variable set, everything else
// carries a property bag.
type Component struct {
	Key string

	// Variables is set for variable-set keys; Props for all others.
	Variables *VariableSet
	Props     Bag
}

// variableKeys are the component keys whose body is a VariableSet. The
// misspelled entry ships in real files.
var variableKeys = map[string]bool{
	"GlobalVariables":  true,
	"Variables":        true,
	"Variable":         true,
	"PersistenceKeys":  true,
	"PersistanceKeys1": true,
	"PersistenceKeys1": true,
}

// VariableSet is a named list of typed variables.
type VariableSet struct {
	Name FName
	Vars []Variable
}

// VarType tags a variable payload.
type VarType uint8

const (
	VarNone  VarType = 0
	VarBool  VarType = 1
	VarInt   VarType = 2
	VarFloat VarType = 3
	VarName  VarType = 4
)

func (t VarType) String() string {
	switch t {
	case VarNone:
		return "none"
	case VarBool:
		return "bool"
	case VarInt:
		return "int"
	case VarFloat:
		return "float"
	case VarName:
		return "name"
	}
	return "invalid"
}

func varTypeByName(s string) (VarType, bool) {
	for _, t := range []VarType{VarNone, VarBool, VarInt, VarFloat, VarName} {
		if t.String() == s {
			return t, true
		}
	}
	return VarNone, false
}

// Variable is one typed slot in a VariableSet. Only the field selected by
// Type is meaningful.
type Variable struct {
	Name FName
	Type VarType

	Bool  bool
	Int   int32
	Float float32
	Ref   FName
}

func readComponents(d *decoder) ([]Component, error) {
	count, err := d.r.ReadUint32()
	if err != nil {
		return nil, WrapError(err, "componentCount")
	}
	var out []Component
	for i := 0; i < int(count); i++ {
		c, err := readComponent(d)
		if err != nil {
			return nil, WrapError(err, "component", i)
		}
		out = append(out, c)
	}
	return out, nil
}

// readComponent decodes one keyed component and verifies the declared body
// length, which unlike property sizes covers the whole body.
func readComponent(d *decoder) (Component, error) {
	var c Component
	var err error
	if c.Key, _, err = d.r.ReadString(); err != nil {
		return c, WrapError(err, "key")
	}
	length, err := d.r.ReadUint32()
	if err != nil {
		return c, WrapError(err, c.Key, "length")
	}
	start := d.r.Offset()

	if variableKeys[c.Key] {
		vs, err := readVariableSet(d)
		if err != nil {
			return c, WrapError(err, c.Key)
		}
		c.Variables = &vs
	} else {
		bag, err := d.readBag()
		if err != nil {
			return c, WrapError(err, c.Key)
		}
		if err := readZero64(d); err != nil {
			return c, WrapError(err, c.Key)
		}
		c.Props = bag
	}

	if consumed := d.r.Offset() - start; consumed != int(length) {
		return c, ArchiveError{Offset: start, Reason: fmt.Sprintf("component %q declared %d bytes but decoding consumed %d", c.Key, length, consumed)}
	}
	return c, nil
}

func readVariableSet(d *decoder) (VariableSet, error) {
	var vs VariableSet
	var err error
	if vs.Name, err = d.names.readName(d.r); err != nil {
		return vs, WrapError(err, "name")
	}
	if err := readZero64(d); err != nil {
		return vs, err
	}
	count, err := d.r.ReadUint32()
	if err != nil {
		return vs, WrapError(err, "count")
	}
	for i := 0; i < int(count); i++ {
		v, err := readVariable(d)
		if err != nil {
			return vs, WrapError(err, i)
		}
		vs.Vars = append(vs.Vars, v)
	}
	return vs, nil
}

func readVariable(d *decoder) (Variable, error) {
	var v Variable
	var err error
	if v.Name, err = d.names.readName(d.r); err != nil {
		return v, WrapError(err, "name")
	}
	typeOff := d.r.Offset()
	t, err := d.r.ReadUint8()
	if err != nil {
		return v, WrapError(err, "type")
	}
	v.Type = VarType(t)
	switch v.Type {
	case VarNone:
	case VarBool:
		raw, err := d.r.ReadUint32()
		if err != nil {
			return v, err
		}
		v.Bool = raw != 0
	case VarInt:
		if v.Int, err = d.r.ReadInt32(); err != nil {
			return v, err
		}
	case VarFloat:
		if v.Float, err = d.r.ReadFloat32(); err != nil {
			return v, err
		}
	case VarName:
		if v.Ref, err = d.names.readName(d.r); err != nil {
			return v, err
		}
	default:
		return v, ArchiveError{Offset: typeOff, Reason: fmt.Sprintf("unknown variable type %d", t)}
	}
	return v, nil
}

// readZero64 consumes a u64 that the format always stores as zero.
func readZero64(d *decoder) error {
	off := d.r.Offset()
	v, err := d.r.ReadUint64()
	if err != nil {
		return err
	}
	if v != 0 {
		return ArchiveError{Offset: off, Reason: fmt.Sprintf("reserved word holds %#x", v)}
	}
	return nil
}

func writeComponents(e *encoder, comps []Component) error {
	e.w.WriteUint32(uint32(len(comps)))
	for i := range comps {
		if err := writeComponent(e, &comps[i]); err != nil {
			return WrapError(err, "component", i)
		}
	}
	return nil
}

func writeComponent(e *encoder, c *Component) error {
	e.w.WriteString(c.Key, false)
	slot := e.w.Reserve32()
	start := e.w.Len()

	if variableKeys[c.Key] {
		if c.Variables == nil {
			return ArchiveError{Offset: e.w.Len(), Reason: "component " + quoteStr(c.Key) + " needs a variable set"}
		}
		if err := writeVariableSet(e, c.Variables); err != nil {
			return WrapError(err, c.Key)
		}
	} else {
		if c.Variables != nil {
			return ArchiveError{Offset: e.w.Len(), Reason: "component " + quoteStr(c.Key) + " cannot hold a variable set"}
		}
		if err := e.writeBag(c.Props); err != nil {
			return WrapError(err, c.Key)
		}
		e.w.WriteUint64(0)
	}

	e.w.Patch32(slot, uint32(e.w.Len()-start))
	return nil
}

func writeVariableSet(e *encoder, vs *VariableSet) error {
	if err := e.names.writeName(e.w, vs.Name); err != nil {
		return err
	}
	e.w.WriteUint64(0)
	e.w.WriteUint32(uint32(len(vs.Vars)))
	for i := range vs.Vars {
		if err := writeVariable(e, &vs.Vars[i]); err != nil {
			return WrapError(err, i)
		}
	}
	return nil
}

func writeVariable(e *encoder, v *Variable) error {
	if err := e.names.writeName(e.w, v.Name); err != nil {
		return err
	}
	e.w.WriteUint8(uint8(v.Type))
	switch v.Type {
	case VarNone:
	case VarBool:
		if v.Bool {
			e.w.WriteUint32(1)
		} else {
			e.w.WriteUint32(0)
		}
	case VarInt:
		e.w.WriteInt32(v.Int)
	case VarFloat:
		e.w.WriteFloat32(v.Float)
	case VarName:
		return e.names.writeName(e.w, v.Ref)
	default:
		return ArchiveError{Offset: e.w.Len(), Reason: fmt.Sprintf("unknown variable type %d", v.Type)}
	}
	return nil
}
