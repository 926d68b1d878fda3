package valueconv

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/marmos91/nativebridge/pkg/value"
)

// Encode converts a Go value into value.Value by reflection (spec §6.3),
// so that ordinary application structs and enums never need a
// hand-written converter (pkg/methodchannel's MethodCall is the kind of
// exception spec §6.3 carves out — everything else goes through here).
func (c *Converter) Encode(v any) (value.Value, error) {
	return c.encodeValue(reflect.ValueOf(v))
}

func (c *Converter) encodeValue(rv reflect.Value) (value.Value, error) {
	if !rv.IsValid() {
		return value.Null(), nil
	}

	if ev, ok := rv.Interface().(EnumValue); ok {
		return c.encodeEnum(ev)
	}

	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return value.Null(), nil
		}
		return c.encodeValue(rv.Elem())
	case reflect.Bool:
		return value.NewBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return value.NewI32(int32(rv.Int())), nil
	case reflect.Int64:
		return value.NewI64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return value.NewI64(int64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return value.NewF64(rv.Float()), nil
	case reflect.String:
		return value.NewString(rv.String()), nil
	case reflect.Slice, reflect.Array:
		return c.encodeSequence(rv)
	case reflect.Map:
		return c.encodeMap(rv)
	case reflect.Struct:
		return c.encodeStruct(rv)
	default:
		return value.Value{}, fmt.Errorf("valueconv: cannot encode kind %s", rv.Kind())
	}
}

func (c *Converter) encodeSequence(rv reflect.Value) (value.Value, error) {
	elems := make([]value.Value, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		ev, err := c.encodeValue(rv.Index(i))
		if err != nil {
			return value.Value{}, err
		}
		elems[i] = ev
	}
	return value.NewList(elems), nil
}

func (c *Converter) encodeMap(rv reflect.Value) (value.Value, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return value.Value{}, fmt.Errorf("valueconv: map key type %s is not string", rv.Type().Key())
	}
	pairs := make([]value.Pair, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		ev, err := c.encodeValue(iter.Value())
		if err != nil {
			return value.Value{}, err
		}
		pairs = append(pairs, value.Pair{Key: value.NewString(iter.Key().String()), Val: ev})
	}
	sort.Slice(pairs, func(i, j int) bool {
		ki, _ := pairs[i].Key.StrVal()
		kj, _ := pairs[j].Key.StrVal()
		return ki < kj
	})
	return value.NewMap(pairs), nil
}

// encodeStruct handles both ordinary named-field structs (-> Map,
// lexicographically ordered by wire key per spec §6.3) and tuple structs
// (every kept field tagged "tuple" -> positional List, or the inner value
// directly when exactly one field survives).
func (c *Converter) encodeStruct(rv reflect.Value) (value.Value, error) {
	rt := rv.Type()

	type kept struct {
		wireName string
		tag      fieldTag
		val      reflect.Value
	}
	var fields []kept

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		tag := parseFieldTag(sf.Tag.Get("value"))
		if tag.skip {
			continue
		}
		fv := rv.Field(i)
		if tag.skipIfNull && isEmptyValue(fv) {
			continue
		}
		name := sf.Name
		if tag.hasName {
			name = tag.name
		} else {
			name = c.rename(sf.Name)
		}
		fields = append(fields, kept{wireName: name, tag: tag, val: fv})
	}

	allTuple := len(fields) > 0
	for _, f := range fields {
		if !f.tag.tuple {
			allTuple = false
			break
		}
	}

	if allTuple {
		elems := make([]value.Value, len(fields))
		for i, f := range fields {
			ev, err := c.encodeValue(f.val)
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = ev
		}
		if len(elems) == 1 {
			return elems[0], nil
		}
		return value.NewList(elems), nil
	}

	pairs := make([]value.Pair, len(fields))
	for i, f := range fields {
		ev, err := c.encodeValue(f.val)
		if err != nil {
			return value.Value{}, err
		}
		pairs[i] = value.Pair{Key: value.NewString(f.wireName), Val: ev}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ki, _ := pairs[i].Key.StrVal()
		kj, _ := pairs[j].Key.StrVal()
		return ki < kj
	})
	return value.NewMap(pairs), nil
}

func (c *Converter) encodeEnum(ev EnumValue) (value.Value, error) {
	name, payload := ev.Variant()
	if payload == nil {
		if !c.Tagged {
			return value.NewString(name), nil
		}
		return value.NewMap([]value.Pair{{Key: value.NewString(c.Tag.tagField()), Val: value.NewString(name)}}), nil
	}

	inner, err := c.encodeValue(reflect.ValueOf(payload))
	if err != nil {
		return value.Value{}, err
	}
	if !c.Tagged {
		return value.NewMap([]value.Pair{{Key: value.NewString(name), Val: inner}}), nil
	}
	tagPair := value.Pair{Key: value.NewString(c.Tag.tagField()), Val: value.NewString(name)}
	if !c.Tag.Flatten {
		return value.NewMap([]value.Pair{
			tagPair,
			{Key: value.NewString(c.Tag.contentField()), Val: inner},
		}), nil
	}

	innerPairs, ok := inner.Pairs()
	if !ok {
		return value.Value{}, fmt.Errorf("valueconv: flattened tagged enum %q payload must encode to a map, got %s", name, inner.Kind())
	}
	merged := make([]value.Pair, 0, len(innerPairs)+1)
	merged = append(merged, tagPair)
	merged = append(merged, innerPairs...)
	return value.NewMap(merged), nil
}

func isEmptyValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	default:
		return rv.IsZero()
	}
}
