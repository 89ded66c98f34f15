package sav

import (
	"fmt"
	"strconv"
)

// Dump renders the document as an indented tree for quick inspection.
// The output is for humans; ToJSON is the form that parses back.
func Dump(f *SaveFile) string {
	bb := GetByteBuffer()
	defer PutByteBuffer(bb)
	d := &dumper{bb: bb}

	d.line(0, "save version=%d build=%d compression=%s", f.Version, f.BuildNumber, f.Compression)
	if f.Archive != nil {
		d.archive(0, f.Archive)
	}
	out := make([]byte, bb.Len())
	copy(out, bb.Bytes())
	return string(out)
}

type dumper struct {
	bb *ByteBuffer
}

func (d *dumper) line(depth int, format string, args ...any) {
	for i := 0; i < depth; i++ {
		d.bb.WriteString("  ")
	}
	fmt.Fprintf(d.bb, format, args...)
	d.bb.WriteByte('\n')
}

func (d *dumper) archive(depth int, a *Archive) {
	head := "archive version=" + strconv.FormatUint(uint64(a.Version), 10)
	if a.PackageVersion != nil {
		head += fmt.Sprintf(" ue4=%d ue5=%d", a.PackageVersion.UE4, a.PackageVersion.UE5)
	}
	if a.ClassPath != nil {
		head += " class=" + quoteStr(a.ClassPath.Path)
	}
	d.line(depth, "%s names=%d objects=%d", head, len(a.Names), len(a.Objects))
	for i := range a.Objects {
		d.object(depth+1, uint32(i), &a.Objects[i])
	}
	if len(a.Trailing) > 0 {
		d.line(depth+1, "trailing %d bytes", len(a.Trailing))
	}
}

func (d *dumper) object(depth int, id uint32, o *Object) {
	head := fmt.Sprintf("[%d] %s", id, o.Path)
	if o.Loaded != nil {
		head += fmt.Sprintf(" name=%s outer=%d", o.Loaded.Name, o.Loaded.OuterID)
	}
	if o.IsActor {
		head += " actor"
	}
	d.line(depth, "%s", head)
	for i := range o.Properties {
		d.property(depth+1, &o.Properties[i])
	}
	if len(o.Trailing) > 0 {
		d.line(depth+1, "trailing %d bytes", len(o.Trailing))
	}
	for i := range o.Components {
		d.component(depth+1, &o.Components[i])
	}
}

func (d *dumper) component(depth int, c *Component) {
	d.line(depth, "component %s", quoteStr(c.Key))
	if c.Variables != nil {
		d.line(depth+1, "variables name=%s", c.Variables.Name)
		for i := range c.Variables.Vars {
			v := &c.Variables.Vars[i]
			switch v.Type {
			case VarBool:
				d.line(depth+2, "%s (bool) = %t", v.Name, v.Bool)
			case VarInt:
				d.line(depth+2, "%s (int) = %d", v.Name, v.Int)
			case VarFloat:
				d.line(depth+2, "%s (float) = %s", v.Name, dumpFloat(float64(v.Float), 32))
			case VarName:
				d.line(depth+2, "%s (name) = %s", v.Name, v.Ref)
			default:
				d.line(depth+2, "%s (none)", v.Name)
			}
		}
		return
	}
	for i := range c.Props {
		d.property(depth+1, &c.Props[i])
	}
}

func (d *dumper) property(depth int, p *Property) {
	label := p.Name.String()
	tag := p.Tag.Value
	if tag == "" && p.Value != nil {
		tag = p.Value.Kind().Tag()
	}
	if k, ok := tagKinds[tag]; ok {
		label += " (" + k.String() + ")"
	} else {
		label += " (" + tag + ")"
	}
	if p.Index != 0 {
		label += "#" + strconv.FormatUint(uint64(p.Index), 10)
	}
	d.value(depth, label, p.Value)
}

// value writes "label = v" for scalars and opens an indented block for
// containers.
func (d *dumper) value(depth int, label string, v Value) {
	switch sv := v.(type) {
	case BoolValue:
		d.line(depth, "%s = %t", label, bool(sv))
	case ByteValue:
		if enumOrNone(sv.Enum).IsNone() {
			d.line(depth, "%s = %d", label, sv.Raw)
		} else {
			d.line(depth, "%s = %s::%s", label, sv.Enum, sv.Member)
		}
	case Int8Value:
		d.line(depth, "%s = %d", label, int8(sv))
	case Int16Value:
		d.line(depth, "%s = %d", label, int16(sv))
	case Int32Value:
		d.line(depth, "%s = %d", label, int32(sv))
	case Int64Value:
		d.line(depth, "%s = %d", label, int64(sv))
	case UInt16Value:
		d.line(depth, "%s = %d", label, uint16(sv))
	case UInt32Value:
		d.line(depth, "%s = %d", label, uint32(sv))
	case UInt64Value:
		d.line(depth, "%s = %d", label, uint64(sv))
	case FloatValue:
		d.line(depth, "%s = %s", label, dumpFloat(float64(sv), 32))
	case DoubleValue:
		d.line(depth, "%s = %s", label, dumpFloat(float64(sv), 64))
	case StrValue:
		d.line(depth, "%s = %s", label, quoteStr(sv.S))
	case NameValue:
		d.line(depth, "%s = %s", label, FName(sv))
	case EnumValue:
		d.line(depth, "%s = %s::%s", label, enumOrNone(sv.Enum), sv.Member)
	case ObjectValue:
		if sv.HasPath {
			d.line(depth, "%s = object %s", label, quoteStr(sv.Path))
		} else {
			d.line(depth, "%s = object #%d", label, sv.Index)
		}
	case SoftObjectValue:
		d.line(depth, "%s = soft %s", label, quoteStr(sv.Path.S))
	case TextValue:
		switch sv.History {
		case textHistoryBase:
			d.line(depth, "%s = text %s/%s %s", label, quoteStr(sv.Namespace.S), quoteStr(sv.Key.S), quoteStr(sv.Source.S))
		default:
			if sv.HasCultureInvariant {
				d.line(depth, "%s = text %s", label, quoteStr(sv.CultureInvariant.S))
			} else {
				d.line(depth, "%s = text (empty)", label)
			}
		}
	case StructValue:
		d.value(depth, label+" "+sv.StructType.Value, sv.Inner)
	case GuidValue:
		d.line(depth, "%s = %s", label, Guid(sv))
	case DateTimeValue:
		d.line(depth, "%s = %d", label, uint64(sv))
	case TimespanValue:
		d.line(depth, "%s = %d", label, uint64(sv))
	case VectorValue:
		d.line(depth, "%s = (%s, %s, %s)", label, dumpFloat(sv.X, 64), dumpFloat(sv.Y, 64), dumpFloat(sv.Z, 64))
	case BlobValue:
		d.line(depth, "%s = %d opaque bytes", label, len(sv))
	case BagValue:
		d.line(depth, "%s:", label)
		for i := range sv.Props {
			d.property(depth+1, &sv.Props[i])
		}
	case ArrayValue:
		d.line(depth, "%s x%d:", label, len(sv.Elems))
		for i, el := range sv.Elems {
			d.value(depth+1, "["+strconv.Itoa(i)+"]", el)
		}
	case SetValue:
		d.line(depth, "%s x%d:", label, len(sv.Elems))
		for i, el := range sv.Elems {
			d.value(depth+1, "["+strconv.Itoa(i)+"]", el)
		}
	case MapValue:
		d.line(depth, "%s x%d:", label, len(sv.Entries))
		for i, entry := range sv.Entries {
			d.value(depth+1, "["+strconv.Itoa(i)+"] key", entry.Key)
			d.value(depth+1, "["+strconv.Itoa(i)+"] value", entry.Value)
		}
	case PersistenceValue:
		d.persistence(depth, label, sv.Blob)
	case nil:
		d.line(depth, "%s = <nil>", label)
	default:
		d.line(depth, "%s = <%s>", label, typeName(v))
	}
}

func (d *dumper) persistence(depth int, label string, b *PersistenceBlob) {
	switch {
	case b == nil:
		d.line(depth, "%s = persistence <nil>", label)
	case b.Archive != nil:
		d.line(depth, "%s = persistence archive:", label)
		d.archive(depth+1, b.Archive)
	case b.Container != nil:
		d.line(depth, "%s = persistence container version=%d actors=%d destroyed=%d:",
			label, b.Container.Version, len(b.Container.Actors), len(b.Container.Destroyed))
		for i := range b.Container.Actors {
			a := &b.Container.Actors[i]
			head := fmt.Sprintf("actor id=%d", a.ID)
			if a.Dynamic != nil {
				head += " dynamic class=" + quoteStr(a.Dynamic.ClassPath.Path)
			}
			d.line(depth+1, "%s", head)
			if a.Archive != nil {
				d.archive(depth+2, a.Archive)
			}
		}
	default:
		d.line(depth, "%s = persistence %d raw bytes", label, len(b.Raw))
	}
}

func dumpFloat(f float64, bits int) string {
	return strconv.FormatFloat(f, 'g', -1, bits)
}
