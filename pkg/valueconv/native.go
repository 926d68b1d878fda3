package valueconv

import "github.com/marmos91/nativebridge/pkg/value"

// toNative flattens a value.Value into a plain Go tree of
// map[string]any / []any / scalars, the shape mapstructure.Decode
// expects as its source. Struct decoding (decode.go) builds this tree
// once per Map and hands it to mapstructure rather than walking pairs
// itself, so field population benefits from mapstructure's existing
// type-coercion rules instead of reimplementing them.
func toNative(v value.Value) any {
	switch v.Kind() {
	case value.KindNull, value.KindUnsupported:
		return nil
	case value.KindBool:
		b, _ := v.Bool()
		return b
	case value.KindI32, value.KindI64:
		n, _ := v.Int()
		return n
	case value.KindF64:
		f, _ := v.Float()
		return f
	case value.KindString:
		s, _ := v.StrVal()
		return s
	case value.KindList:
		list, _ := v.List()
		out := make([]any, len(list))
		for i, e := range list {
			out[i] = toNative(e)
		}
		return out
	case value.KindMap:
		pairs, _ := v.Pairs()
		out := make(map[string]any, len(pairs))
		for _, p := range pairs {
			if k, ok := p.Key.StrVal(); ok {
				out[k] = toNative(p.Val)
			}
		}
		return out
	case value.KindI8List:
		s, _ := v.I8List()
		return s
	case value.KindU8List:
		s, _ := v.U8List()
		return s
	case value.KindI16List:
		s, _ := v.I16List()
		return s
	case value.KindU16List:
		s, _ := v.U16List()
		return s
	case value.KindI32List:
		s, _ := v.I32List()
		return s
	case value.KindU32List:
		s, _ := v.U32List()
		return s
	case value.KindI64List:
		s, _ := v.I64List()
		return s
	case value.KindU64List:
		s, _ := v.U64List()
		return s
	case value.KindF32List:
		s, _ := v.F32List()
		return s
	case value.KindF64List:
		s, _ := v.F64List()
		return s
	case value.KindSendPort:
		sp, _ := v.SendPortVal()
		return sp
	case value.KindCapability:
		id, _ := v.CapabilityID()
		return id
	case value.KindNativePointer:
		np, _ := v.NativePointerVal()
		return np
	default:
		return nil
	}
}
