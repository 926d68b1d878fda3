package valueconv

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/nativebridge/pkg/value"
)

// EnumDecoder is implemented by the pointer receiver of a Go enum type to
// accept the decoded variant name and payload back from a value.Value
// (the inverse of EnumValue).
type EnumDecoder interface {
	SetVariant(name string, payload value.Value) error
}

// Decode populates out (a non-nil pointer) from v by reflection (spec
// §6.3). Struct destinations are populated via mapstructure, configured
// to read the same `value:"name"` tag Encode writes, so round-tripping
// through a Converter with the same policy is name-for-name symmetric.
func (c *Converter) Decode(v value.Value, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("valueconv: Decode target must be a non-nil pointer")
	}
	return c.decodeInto(v, rv.Elem())
}

func (c *Converter) decodeInto(v value.Value, rv reflect.Value) error {
	if rv.CanAddr() {
		if dec, ok := rv.Addr().Interface().(EnumDecoder); ok {
			return c.decodeEnum(v, dec)
		}
	}

	rt := rv.Type()
	switch rt.Kind() {
	case reflect.Ptr:
		if v.Kind() == value.KindNull {
			rv.Set(reflect.Zero(rt))
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rt.Elem()))
		}
		return c.decodeInto(v, rv.Elem())

	case reflect.Bool:
		b, ok := v.Bool()
		if !ok {
			return fmt.Errorf("valueconv: expected bool, got %s", v.Kind())
		}
		rv.SetBool(b)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.Int()
		if !ok {
			return fmt.Errorf("valueconv: expected integer, got %s", v.Kind())
		}
		rv.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := v.Int()
		if !ok {
			return fmt.Errorf("valueconv: expected integer, got %s", v.Kind())
		}
		rv.SetUint(uint64(n))
		return nil

	case reflect.Float32, reflect.Float64:
		f, ok := v.Float()
		if !ok {
			return fmt.Errorf("valueconv: expected float, got %s", v.Kind())
		}
		rv.SetFloat(f)
		return nil

	case reflect.String:
		s, ok := v.StrVal()
		if !ok {
			return fmt.Errorf("valueconv: expected string, got %s", v.Kind())
		}
		rv.SetString(s)
		return nil

	case reflect.Slice:
		return c.decodeSlice(v, rv)

	case reflect.Map:
		return c.decodeMap(v, rv)

	case reflect.Struct:
		return c.decodeStruct(v, rv)

	default:
		return fmt.Errorf("valueconv: cannot decode into kind %s", rt.Kind())
	}
}

func (c *Converter) decodeSlice(v value.Value, rv reflect.Value) error {
	// A typed numeric buffer whose Go element type matches decodes by a
	// direct slice copy rather than element-by-element List walking.
	if s, ok := typedSliceFor(v, rv.Type()); ok {
		rv.Set(s)
		return nil
	}

	list, ok := v.List()
	if !ok {
		return fmt.Errorf("valueconv: expected list, got %s", v.Kind())
	}
	out := reflect.MakeSlice(rv.Type(), len(list), len(list))
	for i, e := range list {
		if err := c.decodeInto(e, out.Index(i)); err != nil {
			return fmt.Errorf("valueconv: element %d: %w", i, err)
		}
	}
	rv.Set(out)
	return nil
}

func typedSliceFor(v value.Value, rt reflect.Type) (reflect.Value, bool) {
	switch v.Kind() {
	case value.KindI8List:
		if rt.Elem().Kind() == reflect.Int8 {
			s, _ := v.I8List()
			return reflect.ValueOf(append([]int8(nil), s...)), true
		}
	case value.KindU8List:
		if rt.Elem().Kind() == reflect.Uint8 {
			s, _ := v.U8List()
			return reflect.ValueOf(append([]uint8(nil), s...)), true
		}
	case value.KindI16List:
		if rt.Elem().Kind() == reflect.Int16 {
			s, _ := v.I16List()
			return reflect.ValueOf(append([]int16(nil), s...)), true
		}
	case value.KindU16List:
		if rt.Elem().Kind() == reflect.Uint16 {
			s, _ := v.U16List()
			return reflect.ValueOf(append([]uint16(nil), s...)), true
		}
	case value.KindI32List:
		if rt.Elem().Kind() == reflect.Int32 {
			s, _ := v.I32List()
			return reflect.ValueOf(append([]int32(nil), s...)), true
		}
	case value.KindU32List:
		if rt.Elem().Kind() == reflect.Uint32 {
			s, _ := v.U32List()
			return reflect.ValueOf(append([]uint32(nil), s...)), true
		}
	case value.KindI64List:
		if rt.Elem().Kind() == reflect.Int64 {
			s, _ := v.I64List()
			return reflect.ValueOf(append([]int64(nil), s...)), true
		}
	case value.KindU64List:
		if rt.Elem().Kind() == reflect.Uint64 {
			s, _ := v.U64List()
			return reflect.ValueOf(append([]uint64(nil), s...)), true
		}
	case value.KindF32List:
		if rt.Elem().Kind() == reflect.Float32 {
			s, _ := v.F32List()
			return reflect.ValueOf(append([]float32(nil), s...)), true
		}
	case value.KindF64List:
		if rt.Elem().Kind() == reflect.Float64 {
			s, _ := v.F64List()
			return reflect.ValueOf(append([]float64(nil), s...)), true
		}
	}
	return reflect.Value{}, false
}

func (c *Converter) decodeMap(v value.Value, rv reflect.Value) error {
	if rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("valueconv: map key type %s is not string", rv.Type().Key())
	}
	pairs, ok := v.Pairs()
	if !ok {
		return fmt.Errorf("valueconv: expected map, got %s", v.Kind())
	}
	out := reflect.MakeMapWithSize(rv.Type(), len(pairs))
	for _, p := range pairs {
		k, ok := p.Key.StrVal()
		if !ok {
			continue
		}
		elem := reflect.New(rv.Type().Elem()).Elem()
		if err := c.decodeInto(p.Val, elem); err != nil {
			return fmt.Errorf("valueconv: map key %q: %w", k, err)
		}
		out.SetMapIndex(reflect.ValueOf(k), elem)
	}
	rv.Set(out)
	return nil
}

// decodeStruct flattens v to a native map[string]any and hands it to
// mapstructure, which walks out's fields under the same "value" struct
// tag Encode reads, coercing scalar mismatches (e.g. the wire I32/I64
// split collapsing into a single Go int field) along the way.
func (c *Converter) decodeStruct(v value.Value, rv reflect.Value) error {
	if v.Kind() != value.KindMap {
		return fmt.Errorf("valueconv: expected map for struct %s, got %s", rv.Type(), v.Kind())
	}
	native := toNative(v)

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "value",
		Result:           rv.Addr().Interface(),
		WeaklyTypedInput: true,
		// Encode writes an untagged field under the rename policy's key,
		// so accept that key as well as mapstructure's default
		// case-insensitive match on the field name.
		MatchName: func(mapKey, fieldName string) bool {
			return mapKey == c.rename(fieldName) || strings.EqualFold(mapKey, fieldName)
		},
	})
	if err != nil {
		return fmt.Errorf("valueconv: building decoder: %w", err)
	}
	if err := dec.Decode(native); err != nil {
		return fmt.Errorf("valueconv: decoding into %s: %w", rv.Type(), err)
	}
	return nil
}

func (c *Converter) decodeEnum(v value.Value, dec EnumDecoder) error {
	switch v.Kind() {
	case value.KindString:
		name, _ := v.StrVal()
		return dec.SetVariant(name, value.Null())
	case value.KindMap:
		pairs, _ := v.Pairs()
		if c.Tagged {
			var name string
			var content value.Value
			var rest []value.Pair
			for _, p := range pairs {
				k, _ := p.Key.StrVal()
				switch {
				case k == c.Tag.tagField():
					name, _ = p.Val.StrVal()
				case !c.Tag.Flatten && k == c.Tag.contentField():
					content = p.Val
				case c.Tag.Flatten:
					rest = append(rest, p)
				}
			}
			if name == "" {
				return fmt.Errorf("valueconv: tagged enum map missing %q", c.Tag.tagField())
			}
			if c.Tag.Flatten {
				content = value.NewMap(rest)
			}
			return dec.SetVariant(name, content)
		}
		if len(pairs) != 1 {
			return fmt.Errorf("valueconv: untagged enum map must have exactly one entry, got %d", len(pairs))
		}
		name, _ := pairs[0].Key.StrVal()
		return dec.SetVariant(name, pairs[0].Val)
	default:
		return fmt.Errorf("valueconv: cannot decode enum from %s", v.Kind())
	}
}
