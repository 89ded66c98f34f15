package sav

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"math"
	"strconv"
)

// FromJSON parses the document form produced by ToJSON. A nil table
// selects DefaultTypeTable; it must match the table the JSON was produced
// with, since struct payload shapes depend on it. Unknown keys are
// rejected so typos fail loudly instead of silently dropping data.
func FromJSON(data []byte, table *TypeTable) (*SaveFile, error) {
	if table == nil {
		table = DefaultTypeTable()
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	root, err := parseJSONTree(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, jsonErrf("trailing data after document")
	}
	obj, ok := root.(jsonObject)
	if !ok {
		return nil, jsonErrf("top level is not an object")
	}
	p := &jsonParser{table: table}
	return p.saveFile(obj)
}

// jsonValue is one node of the parsed tree: jsonObject, []jsonValue,
// string, json.Number, bool or nil.
type jsonValue any

// jsonMember is one key of a jsonObject. Objects keep their members in
// input order and may repeat keys, which plain maps cannot express; both
// matter for property bags.
type jsonMember struct {
	Key string
	Val jsonValue
}

type jsonObject []jsonMember

func (o jsonObject) get(key string) (jsonValue, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Val, true
		}
	}
	return nil, false
}

func parseJSONTree(dec *json.Decoder) (jsonValue, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, jsonErrf("unexpected end of input")
		}
		return nil, jsonErrf("%v", err)
	}
	return jsonTreeValue(dec, tok)
}

func jsonTreeValue(dec *json.Decoder, tok json.Token) (jsonValue, error) {
	delim, ok := tok.(json.Delim)
	if !ok {
		// string, json.Number, bool or nil
		return tok, nil
	}
	switch delim {
	case '{':
		obj := jsonObject{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, jsonErrf("%v", err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, jsonErrf("object key is not a string")
			}
			val, err := parseJSONTree(dec)
			if err != nil {
				return nil, err
			}
			obj = append(obj, jsonMember{Key: key, Val: val})
		}
		if _, err := dec.Token(); err != nil {
			return nil, jsonErrf("%v", err)
		}
		return obj, nil
	case '[':
		arr := []jsonValue{}
		for dec.More() {
			val, err := parseJSONTree(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, jsonErrf("%v", err)
		}
		return arr, nil
	}
	return nil, jsonErrf("unexpected %v", delim)
}

func jsonTypeName(v jsonValue) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a bool"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case []jsonValue:
		return "an array"
	case jsonObject:
		return "an object"
	}
	return "an unknown value"
}

// checkKeys rejects members outside the allowed set.
func checkKeys(o jsonObject, what string, allowed ...string) error {
next:
	for _, m := range o {
		for _, k := range allowed {
			if m.Key == k {
				continue next
			}
		}
		return jsonErrf("unknown key %q in %s", m.Key, what)
	}
	return nil
}

func requireKey(o jsonObject, what, key string) (jsonValue, error) {
	v, ok := o.get(key)
	if !ok {
		return nil, jsonErrf("%s is missing %q", what, key)
	}
	return v, nil
}

func jsonString(v jsonValue) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", jsonErrf("expected a string, got %s", jsonTypeName(v))
	}
	return s, nil
}

func jsonBool(v jsonValue) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, jsonErrf("expected a bool, got %s", jsonTypeName(v))
	}
	return b, nil
}

func jsonNumber(v jsonValue) (json.Number, error) {
	n, ok := v.(json.Number)
	if !ok {
		return "", jsonErrf("expected a number, got %s", jsonTypeName(v))
	}
	return n, nil
}

func jsonUint(v jsonValue, bits int) (uint64, error) {
	n, err := jsonNumber(v)
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(n.String(), 10, bits)
	if err != nil {
		return 0, jsonErrf("invalid %d-bit unsigned integer %q", bits, n.String())
	}
	return u, nil
}

func jsonInt(v jsonValue, bits int) (int64, error) {
	n, err := jsonNumber(v)
	if err != nil {
		return 0, err
	}
	i, err := strconv.ParseInt(n.String(), 10, bits)
	if err != nil {
		return 0, jsonErrf("invalid %d-bit integer %q", bits, n.String())
	}
	return i, nil
}

// jsonFloat accepts a plain number or the {"bits": n} form that carries
// NaN and infinity payloads exactly.
func jsonFloat(v jsonValue, bits int) (float64, error) {
	if o, ok := v.(jsonObject); ok {
		if err := checkKeys(o, "float value", "bits"); err != nil {
			return 0, err
		}
		bv, err := requireKey(o, "float value", "bits")
		if err != nil {
			return 0, err
		}
		u, err := jsonUint(bv, bits)
		if err != nil {
			return 0, err
		}
		if bits == 32 {
			return float64(math.Float32frombits(uint32(u))), nil
		}
		return math.Float64frombits(u), nil
	}
	n, err := jsonNumber(v)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(n.String(), bits)
	if err != nil {
		return 0, jsonErrf("invalid number %q", n.String())
	}
	return f, nil
}

func jsonBase64(v jsonValue) ([]byte, error) {
	s, err := jsonString(v)
	if err != nil {
		return nil, err
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, jsonErrf("invalid base64: %v", err)
	}
	return b, nil
}

// jsonFName accepts a bare string or the {"value", "number"} form.
func jsonFName(v jsonValue) (FName, error) {
	if s, ok := v.(string); ok {
		return Name(s), nil
	}
	o, ok := v.(jsonObject)
	if !ok {
		return FName{}, jsonErrf("expected a name, got %s", jsonTypeName(v))
	}
	if err := checkKeys(o, "name", "value", "number"); err != nil {
		return FName{}, err
	}
	sv, err := requireKey(o, "name", "value")
	if err != nil {
		return FName{}, err
	}
	s, err := jsonString(sv)
	if err != nil {
		return FName{}, err
	}
	nv, err := requireKey(o, "name", "number")
	if err != nil {
		return FName{}, err
	}
	n, err := jsonUint(nv, 32)
	if err != nil {
		return FName{}, err
	}
	return NameN(s, uint32(n)), nil
}

// jsonStrValue accepts a bare string or the {"value", "wide"} form.
func jsonStrValue(v jsonValue) (StrValue, error) {
	if s, ok := v.(string); ok {
		return StrValue{S: s}, nil
	}
	o, ok := v.(jsonObject)
	if !ok {
		return StrValue{}, jsonErrf("expected a string value, got %s", jsonTypeName(v))
	}
	if err := checkKeys(o, "string value", "value", "wide"); err != nil {
		return StrValue{}, err
	}
	sv, err := requireKey(o, "string value", "value")
	if err != nil {
		return StrValue{}, err
	}
	s, err := jsonString(sv)
	if err != nil {
		return StrValue{}, err
	}
	out := StrValue{S: s}
	if wv, ok := o.get("wide"); ok {
		if out.Wide, err = jsonBool(wv); err != nil {
			return StrValue{}, err
		}
	}
	return out, nil
}

func jsonGuid(v jsonValue) (Guid, error) {
	s, err := jsonString(v)
	if err != nil {
		return Guid{}, err
	}
	g, err := ParseGuid(s)
	if err != nil {
		return Guid{}, jsonErrf("%v", err)
	}
	return g, nil
}

// jsonParser interprets the parsed tree. Absent keys default to their
// zero values where that is unambiguous; keys whose absence would change
// the meaning of the data are required.
type jsonParser struct {
	table *TypeTable
}

func (p *jsonParser) saveFile(o jsonObject) (*SaveFile, error) {
	f := &SaveFile{Archive: &Archive{}}
	for _, m := range o {
		var err error
		switch m.Key {
		case "version":
			var u uint64
			if u, err = jsonUint(m.Val, 32); err == nil {
				f.Version = uint32(u)
			}
		case "buildNumber":
			var u uint64
			if u, err = jsonUint(m.Val, 32); err == nil {
				f.BuildNumber = uint32(u)
			}
		case "compression":
			var s string
			if s, err = jsonString(m.Val); err == nil {
				if f.Compression, err = ParseCompression(s); err != nil {
					err = jsonErrf("%v", err)
				}
			}
		default:
			var handled bool
			handled, err = p.archiveMember(f.Archive, m)
			if err == nil && !handled {
				err = jsonErrf("unknown key %q", m.Key)
			}
		}
		if err != nil {
			return nil, WrapError(err, m.Key)
		}
	}
	return f, nil
}

func (p *jsonParser) archive(v jsonValue) (*Archive, error) {
	o, ok := v.(jsonObject)
	if !ok {
		return nil, jsonErrf("archive is not an object")
	}
	a := &Archive{}
	for _, m := range o {
		handled, err := p.archiveMember(a, m)
		if err == nil && !handled {
			err = jsonErrf("unknown key %q", m.Key)
		}
		if err != nil {
			return nil, WrapError(err, m.Key)
		}
	}
	return a, nil
}

// archiveMember consumes one archive-level key, shared between standalone
// archive objects and the flattened top-level document.
func (p *jsonParser) archiveMember(a *Archive, m jsonMember) (bool, error) {
	switch m.Key {
	case "packageVersion":
		o, ok := m.Val.(jsonObject)
		if !ok {
			return true, jsonErrf("packageVersion is not an object")
		}
		if err := checkKeys(o, "packageVersion", "ue4", "ue5"); err != nil {
			return true, err
		}
		var pv PackageVersion
		if v, ok := o.get("ue4"); ok {
			u, err := jsonUint(v, 32)
			if err != nil {
				return true, err
			}
			pv.UE4 = uint32(u)
		}
		if v, ok := o.get("ue5"); ok {
			u, err := jsonUint(v, 32)
			if err != nil {
				return true, err
			}
			pv.UE5 = uint32(u)
		}
		a.PackageVersion = &pv
	case "saveGameClassPath":
		tlap, err := p.assetPath(m.Val)
		if err != nil {
			return true, err
		}
		a.ClassPath = &tlap
	case "archiveVersion":
		u, err := jsonUint(m.Val, 32)
		if err != nil {
			return true, err
		}
		a.Version = uint32(u)
	case "names":
		arr, ok := m.Val.([]jsonValue)
		if !ok {
			return true, jsonErrf("names is not an array")
		}
		a.Names = make([]NameEntry, 0, len(arr))
		for i, nv := range arr {
			entry, err := nameEntryFromJSON(nv)
			if err != nil {
				return true, WrapError(err, i)
			}
			a.Names = append(a.Names, entry)
		}
	case "objects":
		arr, ok := m.Val.([]jsonValue)
		if !ok {
			return true, jsonErrf("objects is not an array")
		}
		for i, ov := range arr {
			obj, err := p.object(ov)
			if err != nil {
				return true, WrapError(err, i)
			}
			a.Objects = append(a.Objects, obj)
		}
	case "dataOrder":
		arr, ok := m.Val.([]jsonValue)
		if !ok {
			return true, jsonErrf("dataOrder is not an array")
		}
		a.DataOrder = make([]uint32, 0, len(arr))
		for i, iv := range arr {
			u, err := jsonUint(iv, 32)
			if err != nil {
				return true, WrapError(err, i)
			}
			a.DataOrder = append(a.DataOrder, uint32(u))
		}
	case "trailing":
		b, err := jsonBase64(m.Val)
		if err != nil {
			return true, err
		}
		a.Trailing = b
	default:
		return false, nil
	}
	return true, nil
}

func nameEntryFromJSON(v jsonValue) (NameEntry, error) {
	if s, ok := v.(string); ok {
		return NameEntry{Value: s}, nil
	}
	o, ok := v.(jsonObject)
	if !ok {
		return NameEntry{}, jsonErrf("name entry is not a string or object")
	}
	if err := checkKeys(o, "name entry", "value", "wide"); err != nil {
		return NameEntry{}, err
	}
	sv, err := requireKey(o, "name entry", "value")
	if err != nil {
		return NameEntry{}, err
	}
	s, err := jsonString(sv)
	if err != nil {
		return NameEntry{}, err
	}
	entry := NameEntry{Value: s}
	if wv, ok := o.get("wide"); ok {
		if entry.Wide, err = jsonBool(wv); err != nil {
			return NameEntry{}, err
		}
	}
	return entry, nil
}

func (p *jsonParser) assetPath(v jsonValue) (TopLevelAssetPath, error) {
	var tlap TopLevelAssetPath
	o, ok := v.(jsonObject)
	if !ok {
		return tlap, jsonErrf("asset path is not an object")
	}
	if err := checkKeys(o, "asset path", "path", "name"); err != nil {
		return tlap, err
	}
	var err error
	if pv, ok := o.get("path"); ok {
		if tlap.Path, err = jsonString(pv); err != nil {
			return tlap, err
		}
	}
	if nv, ok := o.get("name"); ok {
		if tlap.Name, err = jsonString(nv); err != nil {
			return tlap, err
		}
	}
	return tlap, nil
}

func (p *jsonParser) object(v jsonValue) (Object, error) {
	var obj Object
	o, ok := v.(jsonObject)
	if !ok {
		return obj, jsonErrf("object is not an object")
	}
	for _, m := range o {
		var err error
		switch m.Key {
		case "wasLoaded":
			obj.WasLoaded, err = jsonBool(m.Val)
		case "path":
			obj.Path, err = jsonString(m.Val)
		case "loadedData":
			err = p.loadedData(m.Val, &obj)
		case "properties":
			obj.HasData = true
			obj.Properties, err = p.bag(m.Val)
		case "trailing":
			obj.Trailing, err = jsonBase64(m.Val)
		case "components":
			var arr []jsonValue
			if arr, ok = m.Val.([]jsonValue); !ok {
				err = jsonErrf("components is not an array")
				break
			}
			obj.IsActor = true
			for i, cv := range arr {
				var c Component
				if c, err = p.component(cv); err != nil {
					err = WrapError(err, i)
					break
				}
				obj.Components = append(obj.Components, c)
			}
		default:
			err = jsonErrf("unknown key %q in object", m.Key)
		}
		if err != nil {
			return obj, WrapError(err, m.Key)
		}
	}
	if !obj.WasLoaded && obj.Loaded == nil {
		return obj, jsonErrf("unloaded object is missing loadedData")
	}
	if obj.WasLoaded && obj.Loaded != nil {
		return obj, jsonErrf("loaded object cannot carry loadedData")
	}
	return obj, nil
}

func (p *jsonParser) loadedData(v jsonValue, obj *Object) error {
	o, ok := v.(jsonObject)
	if !ok {
		return jsonErrf("loadedData is not an object")
	}
	if err := checkKeys(o, "loadedData", "name", "outerId"); err != nil {
		return err
	}
	nv, err := requireKey(o, "loadedData", "name")
	if err != nil {
		return err
	}
	var ld LoadedData
	if ld.Name, err = jsonFName(nv); err != nil {
		return err
	}
	if ov, ok := o.get("outerId"); ok {
		u, err := jsonUint(ov, 32)
		if err != nil {
			return err
		}
		ld.OuterID = uint32(u)
	}
	obj.Loaded = &ld
	return nil
}

func (p *jsonParser) component(v jsonValue) (Component, error) {
	var c Component
	o, ok := v.(jsonObject)
	if !ok {
		return c, jsonErrf("component is not an object")
	}
	if err := checkKeys(o, "component", "key", "variables", "properties"); err != nil {
		return c, err
	}
	kv, err := requireKey(o, "component", "key")
	if err != nil {
		return c, err
	}
	if c.Key, err = jsonString(kv); err != nil {
		return c, err
	}

	_, hasVars := o.get("variables")
	_, hasProps := o.get("properties")
	if hasVars && hasProps {
		return c, jsonErrf("component %q carries both variables and properties", c.Key)
	}
	if variableKeys[c.Key] {
		if !hasVars {
			return c, jsonErrf("component %q needs a variables body", c.Key)
		}
	} else if hasVars {
		return c, jsonErrf("component %q cannot carry variables", c.Key)
	}

	if hasVars {
		vv, _ := o.get("variables")
		vs, err := p.variableSet(vv)
		if err != nil {
			return c, WrapError(err, "variables")
		}
		c.Variables = vs
	} else if hasProps {
		pv, _ := o.get("properties")
		if c.Props, err = p.bag(pv); err != nil {
			return c, WrapError(err, "properties")
		}
	}
	return c, nil
}

func (p *jsonParser) variableSet(v jsonValue) (*VariableSet, error) {
	o, ok := v.(jsonObject)
	if !ok {
		return nil, jsonErrf("variable set is not an object")
	}
	if err := checkKeys(o, "variable set", "name", "vars"); err != nil {
		return nil, err
	}
	vs := &VariableSet{}
	var err error
	if nv, ok := o.get("name"); ok {
		if vs.Name, err = jsonFName(nv); err != nil {
			return nil, err
		}
	}
	if av, ok := o.get("vars"); ok {
		arr, ok := av.([]jsonValue)
		if !ok {
			return nil, jsonErrf("vars is not an array")
		}
		for i, vv := range arr {
			va, err := p.variable(vv)
			if err != nil {
				return nil, WrapError(err, i)
			}
			vs.Vars = append(vs.Vars, va)
		}
	}
	return vs, nil
}

func (p *jsonParser) variable(v jsonValue) (Variable, error) {
	var va Variable
	o, ok := v.(jsonObject)
	if !ok {
		return va, jsonErrf("variable is not an object")
	}
	if err := checkKeys(o, "variable", "name", "type", "value"); err != nil {
		return va, err
	}
	nv, err := requireKey(o, "variable", "name")
	if err != nil {
		return va, err
	}
	if va.Name, err = jsonFName(nv); err != nil {
		return va, err
	}
	tv, err := requireKey(o, "variable", "type")
	if err != nil {
		return va, err
	}
	ts, err := jsonString(tv)
	if err != nil {
		return va, err
	}
	t, ok := varTypeByName(ts)
	if !ok {
		return va, jsonErrf("unknown variable type %q", ts)
	}
	va.Type = t

	val, hasVal := o.get("value")
	if t == VarNone {
		if hasVal {
			return va, jsonErrf("variable of type none cannot carry a value")
		}
		return va, nil
	}
	if !hasVal {
		return va, jsonErrf("variable of type %s is missing its value", ts)
	}
	switch t {
	case VarBool:
		va.Bool, err = jsonBool(val)
	case VarInt:
		var n int64
		if n, err = jsonInt(val, 32); err == nil {
			va.Int = int32(n)
		}
	case VarFloat:
		var f float64
		if f, err = jsonFloat(val, 32); err == nil {
			va.Float = float32(f)
		}
	case VarName:
		va.Ref, err = jsonFName(val)
	}
	return va, err
}

func (p *jsonParser) bag(v jsonValue) (Bag, error) {
	o, ok := v.(jsonObject)
	if !ok {
		return nil, jsonErrf("property bag is not an object")
	}
	bag := make(Bag, 0, len(o))
	for _, m := range o {
		prop, err := p.property(m.Key, m.Val)
		if err != nil {
			return nil, WrapError(err, m.Key)
		}
		bag = append(bag, prop)
	}
	return bag, nil
}

// wrapperKeys lists the kind-specific keys a property wrapper may carry,
// on top of the common type, index and nameNumber.
var wrapperKeys = map[Kind][]string{
	KindBool:       {"value"},
	KindByte:       {"value", "enumType"},
	KindInt8:       {"value"},
	KindInt16:      {"value"},
	KindInt32:      {"value"},
	KindInt64:      {"value"},
	KindUInt16:     {"value"},
	KindUInt32:     {"value"},
	KindUInt64:     {"value"},
	KindFloat:      {"value", "bits"},
	KindDouble:     {"value", "bits"},
	KindStr:        {"value", "wide"},
	KindName:       {"value"},
	KindEnum:       {"value", "enumType"},
	KindObject:     {"value"},
	KindSoftObject: {"value"},
	KindText:       {"flags", "history", "namespace", "key", "source", "cultureInvariant"},
	KindStruct:     {"value", "structType", "guid"},
	KindArray:      {"value", "elemType", "head"},
	KindMap:        {"value", "keyType", "valueType"},
	KindSet:        {"value", "elemType"},
}

func (p *jsonParser) property(name string, v jsonValue) (Property, error) {
	var prop Property
	o, ok := v.(jsonObject)
	if !ok {
		return prop, jsonErrf("property is not an object")
	}
	tv, err := requireKey(o, "property", "type")
	if err != nil {
		return prop, err
	}
	ts, err := jsonString(tv)
	if err != nil {
		return prop, err
	}
	k, ok := kindByName(ts)
	if !ok || k.Tag() == "" {
		return prop, jsonErrf("unknown property type %q", ts)
	}

	allowed := append([]string{"type", "index", "nameNumber"}, wrapperKeys[k]...)
	if err := checkKeys(o, ts+" property", allowed...); err != nil {
		return prop, err
	}

	prop.Name = Name(name)
	prop.Tag = Name(k.Tag())
	if iv, ok := o.get("index"); ok {
		u, err := jsonUint(iv, 32)
		if err != nil {
			return prop, err
		}
		prop.Index = uint32(u)
	}
	if nv, ok := o.get("nameNumber"); ok {
		u, err := jsonUint(nv, 32)
		if err != nil {
			return prop, err
		}
		prop.Name = NameN(name, uint32(u))
	}
	if prop.Value, err = p.wrapperValue(k, o); err != nil {
		return prop, err
	}
	return prop, nil
}

// wrapperValue builds the Value from the kind-specific wrapper fields.
func (p *jsonParser) wrapperValue(k Kind, o jsonObject) (Value, error) {
	switch k {
	case KindBool:
		v, err := requireKey(o, "bool property", "value")
		if err != nil {
			return nil, err
		}
		b, err := jsonBool(v)
		return BoolValue(b), err
	case KindByte:
		v, err := requireKey(o, "byte property", "value")
		if err != nil {
			return nil, err
		}
		et, hasEnum := o.get("enumType")
		if _, isNum := v.(json.Number); isNum {
			if hasEnum {
				return nil, jsonErrf("byte property with a raw value cannot carry enumType")
			}
			u, err := jsonUint(v, 8)
			return ByteValue{Enum: Name("None"), Raw: uint8(u)}, err
		}
		if !hasEnum {
			return nil, jsonErrf("byte property with a member value needs enumType")
		}
		enum, err := jsonFName(et)
		if err != nil {
			return nil, err
		}
		if enum.IsNone() {
			return nil, jsonErrf("byte property enumType cannot be None")
		}
		member, err := jsonFName(v)
		if err != nil {
			return nil, err
		}
		return ByteValue{Enum: enum, Member: member}, nil
	case KindInt8, KindInt16, KindInt32, KindInt64:
		v, err := requireKey(o, "integer property", "value")
		if err != nil {
			return nil, err
		}
		return intValueFromJSON(k, v)
	case KindUInt16, KindUInt32, KindUInt64:
		v, err := requireKey(o, "integer property", "value")
		if err != nil {
			return nil, err
		}
		return uintValueFromJSON(k, v)
	case KindFloat, KindDouble:
		return floatWrapperFromJSON(k, o)
	case KindStr:
		v, err := requireKey(o, "str property", "value")
		if err != nil {
			return nil, err
		}
		s, err := jsonString(v)
		if err != nil {
			return nil, err
		}
		out := StrValue{S: s}
		if wv, ok := o.get("wide"); ok {
			if out.Wide, err = jsonBool(wv); err != nil {
				return nil, err
			}
		}
		return out, nil
	case KindName:
		v, err := requireKey(o, "name property", "value")
		if err != nil {
			return nil, err
		}
		n, err := jsonFName(v)
		return NameValue(n), err
	case KindEnum:
		ev, err := requireKey(o, "enum property", "enumType")
		if err != nil {
			return nil, err
		}
		enum, err := jsonFName(ev)
		if err != nil {
			return nil, err
		}
		mv, err := requireKey(o, "enum property", "value")
		if err != nil {
			return nil, err
		}
		member, err := jsonFName(mv)
		if err != nil {
			return nil, err
		}
		return EnumValue{Enum: enum, Member: member}, nil
	case KindObject:
		v, err := requireKey(o, "object property", "value")
		if err != nil {
			return nil, err
		}
		return objectRefFromJSON(v)
	case KindSoftObject:
		v, err := requireKey(o, "softobject property", "value")
		if err != nil {
			return nil, err
		}
		sv, err := jsonStrValue(v)
		return SoftObjectValue{Path: sv}, err
	case KindText:
		return textFromJSON(o)
	case KindStruct:
		sv, err := requireKey(o, "struct property", "structType")
		if err != nil {
			return nil, err
		}
		st, err := jsonFName(sv)
		if err != nil {
			return nil, err
		}
		out := StructValue{StructType: st}
		if gv, ok := o.get("guid"); ok {
			if out.GUID, err = jsonGuid(gv); err != nil {
				return nil, err
			}
		}
		pv, err := requireKey(o, "struct property", "value")
		if err != nil {
			return nil, err
		}
		if out.Inner, err = p.structPayload(st, pv); err != nil {
			return nil, WrapError(err, st.Value)
		}
		return out, nil
	case KindArray:
		return p.arrayFromJSON(o)
	case KindMap:
		return p.mapFromJSON(o)
	case KindSet:
		return p.setFromJSON(o)
	}
	return nil, jsonErrf("unsupported property kind %s", k)
}

func intValueFromJSON(k Kind, v jsonValue) (Value, error) {
	switch k {
	case KindInt8:
		n, err := jsonInt(v, 8)
		return Int8Value(n), err
	case KindInt16:
		n, err := jsonInt(v, 16)
		return Int16Value(n), err
	case KindInt32:
		n, err := jsonInt(v, 32)
		return Int32Value(n), err
	default:
		n, err := jsonInt(v, 64)
		return Int64Value(n), err
	}
}

func uintValueFromJSON(k Kind, v jsonValue) (Value, error) {
	switch k {
	case KindUInt16:
		n, err := jsonUint(v, 16)
		return UInt16Value(n), err
	case KindUInt32:
		n, err := jsonUint(v, 32)
		return UInt32Value(n), err
	default:
		n, err := jsonUint(v, 64)
		return UInt64Value(n), err
	}
}

// floatWrapperFromJSON resolves the value/bits split of float wrappers:
// finite values travel as numbers, others as raw bit patterns.
func floatWrapperFromJSON(k Kind, o jsonObject) (Value, error) {
	bits := 32
	if k == KindDouble {
		bits = 64
	}
	bv, hasBits := o.get("bits")
	vv, hasValue := o.get("value")
	switch {
	case hasBits && hasValue:
		return nil, jsonErrf("float property cannot carry both value and bits")
	case hasBits:
		u, err := jsonUint(bv, bits)
		if err != nil {
			return nil, err
		}
		if k == KindFloat {
			return FloatValue(math.Float32frombits(uint32(u))), nil
		}
		return DoubleValue(math.Float64frombits(u)), nil
	case hasValue:
		f, err := jsonFloat(vv, bits)
		if err != nil {
			return nil, err
		}
		if k == KindFloat {
			return FloatValue(f), nil
		}
		return DoubleValue(f), nil
	}
	return nil, jsonErrf("float property is missing its value")
}

func objectRefFromJSON(v jsonValue) (Value, error) {
	switch rv := v.(type) {
	case json.Number:
		n, err := jsonInt(v, 32)
		return ObjectValue{Index: int32(n)}, err
	case string:
		return ObjectValue{Path: rv, HasPath: true}, nil
	}
	return nil, jsonErrf("object reference is not a number or string")
}

func textFromJSON(o jsonObject) (Value, error) {
	var out TextValue
	if fv, ok := o.get("flags"); ok {
		u, err := jsonUint(fv, 32)
		if err != nil {
			return nil, err
		}
		out.Flags = uint32(u)
	}
	hv, err := requireKey(o, "text property", "history")
	if err != nil {
		return nil, err
	}
	hs, err := jsonString(hv)
	if err != nil {
		return nil, err
	}
	switch hs {
	case "base":
		out.History = textHistoryBase
		for _, part := range []struct {
			key string
			dst *StrValue
		}{
			{"namespace", &out.Namespace},
			{"key", &out.Key},
			{"source", &out.Source},
		} {
			v, err := requireKey(o, "text property", part.key)
			if err != nil {
				return nil, err
			}
			if *part.dst, err = jsonStrValue(v); err != nil {
				return nil, WrapError(err, part.key)
			}
		}
		if _, ok := o.get("cultureInvariant"); ok {
			return nil, jsonErrf("text with base history cannot carry cultureInvariant")
		}
	case "none":
		out.History = textHistoryNone
		for _, key := range []string{"namespace", "key", "source"} {
			if _, ok := o.get(key); ok {
				return nil, jsonErrf("text with none history cannot carry %q", key)
			}
		}
		if cv, ok := o.get("cultureInvariant"); ok {
			out.HasCultureInvariant = true
			if out.CultureInvariant, err = jsonStrValue(cv); err != nil {
				return nil, WrapError(err, "cultureInvariant")
			}
		}
	default:
		return nil, jsonErrf("unknown text history %q", hs)
	}
	return out, nil
}

// elemTag resolves a JSON element type name to its kind and wire tag.
func elemTag(v jsonValue, what string) (Kind, FName, error) {
	s, err := jsonString(v)
	if err != nil {
		return KindInvalid, FName{}, err
	}
	k, ok := kindByName(s)
	if !ok || k.Tag() == "" {
		return KindInvalid, FName{}, jsonErrf("unknown %s element type %q", what, s)
	}
	return k, Name(k.Tag()), nil
}

func (p *jsonParser) arrayFromJSON(o jsonObject) (Value, error) {
	ev, err := requireKey(o, "array property", "elemType")
	if err != nil {
		return nil, err
	}
	k, tag, err := elemTag(ev, "array")
	if err != nil {
		return nil, err
	}
	out := ArrayValue{ElemType: tag}

	hv, hasHead := o.get("head")
	if k == KindStruct {
		if !hasHead {
			return nil, jsonErrf("struct array is missing its head")
		}
		head, err := p.structHeadFromJSON(hv)
		if err != nil {
			return nil, WrapError(err, "head")
		}
		out.Head = head
	} else if hasHead {
		return nil, jsonErrf("head only applies to struct arrays")
	}

	av, err := requireKey(o, "array property", "value")
	if err != nil {
		return nil, err
	}
	arr, ok := av.([]jsonValue)
	if !ok {
		return nil, jsonErrf("array value is not an array")
	}
	for i, el := range arr {
		var v Value
		if k == KindStruct {
			v, err = p.structPayload(out.Head.StructType, el)
		} else {
			v, err = p.elementValue(k, el)
		}
		if err != nil {
			return nil, WrapError(err, i)
		}
		out.Elems = append(out.Elems, v)
	}
	return out, nil
}

func (p *jsonParser) structHeadFromJSON(v jsonValue) (*StructHead, error) {
	o, ok := v.(jsonObject)
	if !ok {
		return nil, jsonErrf("head is not an object")
	}
	if err := checkKeys(o, "struct array head", "name", "index", "structType", "guid"); err != nil {
		return nil, err
	}
	var head StructHead
	nv, err := requireKey(o, "struct array head", "name")
	if err != nil {
		return nil, err
	}
	if head.Name, err = jsonFName(nv); err != nil {
		return nil, err
	}
	sv, err := requireKey(o, "struct array head", "structType")
	if err != nil {
		return nil, err
	}
	if head.StructType, err = jsonFName(sv); err != nil {
		return nil, err
	}
	if iv, ok := o.get("index"); ok {
		u, err := jsonUint(iv, 32)
		if err != nil {
			return nil, err
		}
		head.Index = uint32(u)
	}
	if gv, ok := o.get("guid"); ok {
		if head.GUID, err = jsonGuid(gv); err != nil {
			return nil, err
		}
	}
	return &head, nil
}

func (p *jsonParser) mapFromJSON(o jsonObject) (Value, error) {
	kv, err := requireKey(o, "map property", "keyType")
	if err != nil {
		return nil, err
	}
	kk, ktag, err := elemTag(kv, "map key")
	if err != nil {
		return nil, err
	}
	vv, err := requireKey(o, "map property", "valueType")
	if err != nil {
		return nil, err
	}
	vk, vtag, err := elemTag(vv, "map value")
	if err != nil {
		return nil, err
	}
	av, err := requireKey(o, "map property", "value")
	if err != nil {
		return nil, err
	}
	arr, ok := av.([]jsonValue)
	if !ok {
		return nil, jsonErrf("map value is not an array")
	}
	out := MapValue{KeyType: ktag, ValueType: vtag}
	for i, ev := range arr {
		eo, ok := ev.(jsonObject)
		if !ok {
			return nil, WrapError(jsonErrf("map entry is not an object"), i)
		}
		if err := checkKeys(eo, "map entry", "key", "value"); err != nil {
			return nil, WrapError(err, i)
		}
		ekv, err := requireKey(eo, "map entry", "key")
		if err != nil {
			return nil, WrapError(err, i)
		}
		key, err := p.keyElementValue(kk, ekv)
		if err != nil {
			return nil, WrapError(err, i, "key")
		}
		evv, err := requireKey(eo, "map entry", "value")
		if err != nil {
			return nil, WrapError(err, i)
		}
		val, err := p.valueElementValue(vk, evv)
		if err != nil {
			return nil, WrapError(err, i, "value")
		}
		out.Entries = append(out.Entries, MapEntry{Key: key, Value: val})
	}
	return out, nil
}

func (p *jsonParser) setFromJSON(o jsonObject) (Value, error) {
	ev, err := requireKey(o, "set property", "elemType")
	if err != nil {
		return nil, err
	}
	k, tag, err := elemTag(ev, "set")
	if err != nil {
		return nil, err
	}
	av, err := requireKey(o, "set property", "value")
	if err != nil {
		return nil, err
	}
	arr, ok := av.([]jsonValue)
	if !ok {
		return nil, jsonErrf("set value is not an array")
	}
	out := SetValue{ElemType: tag}
	for i, el := range arr {
		v, err := p.valueElementValue(k, el)
		if err != nil {
			return nil, WrapError(err, i)
		}
		out.Elems = append(out.Elems, v)
	}
	return out, nil
}

// keyElementValue parses a map key; struct keys are bare reference guids.
func (p *jsonParser) keyElementValue(k Kind, v jsonValue) (Value, error) {
	if k == KindStruct {
		g, err := jsonGuid(v)
		return GuidValue(g), err
	}
	return p.elementValue(k, v)
}

// valueElementValue parses a map value or set element; struct payloads in
// this position are dynamic bags.
func (p *jsonParser) valueElementValue(k Kind, v jsonValue) (Value, error) {
	if k == KindStruct {
		bag, err := p.bag(v)
		if err != nil {
			return nil, err
		}
		return BagValue{Props: bag}, nil
	}
	return p.elementValue(k, v)
}

// elementValue parses a container element in its wrapperless form.
func (p *jsonParser) elementValue(k Kind, v jsonValue) (Value, error) {
	switch k {
	case KindBool:
		b, err := jsonBool(v)
		return BoolValue(b), err
	case KindByte:
		u, err := jsonUint(v, 8)
		return ByteValue{Enum: Name("None"), Raw: uint8(u)}, err
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return intValueFromJSON(k, v)
	case KindUInt16, KindUInt32, KindUInt64:
		return uintValueFromJSON(k, v)
	case KindFloat:
		f, err := jsonFloat(v, 32)
		return FloatValue(f), err
	case KindDouble:
		f, err := jsonFloat(v, 64)
		return DoubleValue(f), err
	case KindStr:
		sv, err := jsonStrValue(v)
		return sv, err
	case KindName:
		n, err := jsonFName(v)
		return NameValue(n), err
	case KindEnum:
		n, err := jsonFName(v)
		return EnumValue{Member: n}, err
	case KindObject:
		return objectRefFromJSON(v)
	case KindSoftObject:
		sv, err := jsonStrValue(v)
		return SoftObjectValue{Path: sv}, err
	case KindText:
		o, ok := v.(jsonObject)
		if !ok {
			return nil, jsonErrf("text element is not an object")
		}
		return textFromJSON(o)
	}
	return nil, jsonErrf("%s cannot be a container element", k)
}

// structPayload parses a struct body; the layout registered for the struct
// type decides the JSON shape, mirroring the binary decoder.
func (p *jsonParser) structPayload(st FName, v jsonValue) (Value, error) {
	switch p.table.layout(st.Value) {
	case LayoutGuid:
		g, err := jsonGuid(v)
		return GuidValue(g), err
	case LayoutDateTime:
		u, err := jsonUint(v, 64)
		return DateTimeValue(u), err
	case LayoutTimespan:
		u, err := jsonUint(v, 64)
		return TimespanValue(u), err
	case LayoutVector:
		return p.vector(v)
	case LayoutSoftPath:
		sv, err := jsonStrValue(v)
		return sv, err
	case LayoutPersistence:
		b, err := p.persistence(v)
		if err != nil {
			return nil, err
		}
		return PersistenceValue{Blob: b}, nil
	case LayoutBlob:
		b, err := jsonBase64(v)
		return BlobValue(b), err
	}
	bag, err := p.bag(v)
	if err != nil {
		return nil, err
	}
	return BagValue{Props: bag}, nil
}

func (p *jsonParser) vector(v jsonValue) (Value, error) {
	arr, ok := v.([]jsonValue)
	if !ok || len(arr) != 3 {
		return nil, jsonErrf("vector is not a 3-element array")
	}
	var out VectorValue
	for i, dst := range []*float64{&out.X, &out.Y, &out.Z} {
		f, err := jsonFloat(arr[i], 64)
		if err != nil {
			return nil, WrapError(err, i)
		}
		*dst = f
	}
	return out, nil
}

func (p *jsonParser) persistence(v jsonValue) (*PersistenceBlob, error) {
	o, ok := v.(jsonObject)
	if !ok {
		return nil, jsonErrf("persistence blob is not an object")
	}
	if err := checkKeys(o, "persistence blob", "archive", "container", "raw"); err != nil {
		return nil, err
	}
	if len(o) != 1 {
		return nil, jsonErrf("persistence blob needs exactly one of archive, container or raw")
	}
	m := o[0]
	switch m.Key {
	case "archive":
		a, err := p.archive(m.Val)
		if err != nil {
			return nil, WrapError(err, "archive")
		}
		return &PersistenceBlob{Archive: a}, nil
	case "container":
		c, err := p.container(m.Val)
		if err != nil {
			return nil, WrapError(err, "container")
		}
		return &PersistenceBlob{Container: c}, nil
	default:
		raw, err := jsonBase64(m.Val)
		if err != nil {
			return nil, WrapError(err, "raw")
		}
		return &PersistenceBlob{Raw: raw}, nil
	}
}

func (p *jsonParser) container(v jsonValue) (*PersistenceContainer, error) {
	o, ok := v.(jsonObject)
	if !ok {
		return nil, jsonErrf("container is not an object")
	}
	if err := checkKeys(o, "container", "version", "actors", "destroyed"); err != nil {
		return nil, err
	}
	c := &PersistenceContainer{}
	if vv, ok := o.get("version"); ok {
		u, err := jsonUint(vv, 32)
		if err != nil {
			return nil, err
		}
		c.Version = uint32(u)
	}
	if av, ok := o.get("actors"); ok {
		arr, ok := av.([]jsonValue)
		if !ok {
			return nil, jsonErrf("actors is not an array")
		}
		for i, ev := range arr {
			a, err := p.persistedActor(ev)
			if err != nil {
				return nil, WrapError(err, "actor", i)
			}
			c.Actors = append(c.Actors, a)
		}
	}
	if dv, ok := o.get("destroyed"); ok {
		arr, ok := dv.([]jsonValue)
		if !ok {
			return nil, jsonErrf("destroyed is not an array")
		}
		for i, ev := range arr {
			u, err := jsonUint(ev, 64)
			if err != nil {
				return nil, WrapError(err, "destroyed", i)
			}
			c.Destroyed = append(c.Destroyed, u)
		}
	}
	return c, nil
}

func (p *jsonParser) persistedActor(v jsonValue) (PersistenceActor, error) {
	var a PersistenceActor
	o, ok := v.(jsonObject)
	if !ok {
		return a, jsonErrf("actor is not an object")
	}
	if err := checkKeys(o, "actor", "id", "transform", "archive", "dynamic"); err != nil {
		return a, err
	}
	iv, err := requireKey(o, "actor", "id")
	if err != nil {
		return a, err
	}
	if a.ID, err = jsonUint(iv, 64); err != nil {
		return a, err
	}
	if tv, ok := o.get("transform"); ok {
		t, err := p.transform(tv)
		if err != nil {
			return a, WrapError(err, "transform")
		}
		a.Transform = &t
	}
	av, err := requireKey(o, "actor", "archive")
	if err != nil {
		return a, err
	}
	if a.Archive, err = p.archive(av); err != nil {
		return a, WrapError(err, "archive")
	}
	if dv, ok := o.get("dynamic"); ok {
		d, err := p.dynamicActor(dv)
		if err != nil {
			return a, WrapError(err, "dynamic")
		}
		a.Dynamic = d
	}
	return a, nil
}

func (p *jsonParser) dynamicActor(v jsonValue) (*DynamicActor, error) {
	o, ok := v.(jsonObject)
	if !ok {
		return nil, jsonErrf("dynamic is not an object")
	}
	if err := checkKeys(o, "dynamic", "transform", "classPath"); err != nil {
		return nil, err
	}
	tv, err := requireKey(o, "dynamic", "transform")
	if err != nil {
		return nil, err
	}
	d := &DynamicActor{}
	if d.Transform, err = p.transform(tv); err != nil {
		return nil, WrapError(err, "transform")
	}
	cv, err := requireKey(o, "dynamic", "classPath")
	if err != nil {
		return nil, err
	}
	if d.ClassPath, err = p.assetPath(cv); err != nil {
		return nil, WrapError(err, "classPath")
	}
	return d, nil
}

func (p *jsonParser) transform(v jsonValue) (Transform, error) {
	var t Transform
	o, ok := v.(jsonObject)
	if !ok {
		return t, jsonErrf("transform is not an object")
	}
	if err := checkKeys(o, "transform", "rotation", "position", "scale"); err != nil {
		return t, err
	}
	rv, err := requireKey(o, "transform", "rotation")
	if err != nil {
		return t, err
	}
	ro, ok := rv.(jsonObject)
	if !ok {
		return t, jsonErrf("rotation is not an object")
	}
	if err := checkKeys(ro, "rotation", "w", "x", "y", "z"); err != nil {
		return t, err
	}
	for _, part := range []struct {
		key string
		dst *float64
	}{
		{"w", &t.Rotation.W},
		{"x", &t.Rotation.X},
		{"y", &t.Rotation.Y},
		{"z", &t.Rotation.Z},
	} {
		v, err := requireKey(ro, "rotation", part.key)
		if err != nil {
			return t, err
		}
		if *part.dst, err = jsonFloat(v, 64); err != nil {
			return t, WrapError(err, part.key)
		}
	}
	pv, err := requireKey(o, "transform", "position")
	if err != nil {
		return t, err
	}
	pos, err := p.vector(pv)
	if err != nil {
		return t, WrapError(err, "position")
	}
	t.Position = pos.(VectorValue)
	sv, err := requireKey(o, "transform", "scale")
	if err != nil {
		return t, err
	}
	sc, err := p.vector(sv)
	if err != nil {
		return t, WrapError(err, "scale")
	}
	t.Scale = sc.(VectorValue)
	return t, nil
}
