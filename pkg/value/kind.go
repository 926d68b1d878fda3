// Package value implements the dynamic tagged-sum type that crosses the
// native/isolate boundary: Value. A Value is always exactly one variant
// from Kind; constructors below are the only supported way to build one.
package value

// Kind discriminates the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindI32
	KindI64
	KindF64
	KindString
	KindList
	KindMap
	KindI8List
	KindU8List
	KindI16List
	KindU16List
	KindI32List
	KindU32List
	KindI64List
	KindU64List
	KindF32List
	KindF64List
	KindSendPort
	KindCapability
	KindNativePointer
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindI32:
		return "I32"
	case KindI64:
		return "I64"
	case KindF64:
		return "F64"
	case KindString:
		return "String"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindI8List:
		return "I8List"
	case KindU8List:
		return "U8List"
	case KindI16List:
		return "I16List"
	case KindU16List:
		return "U16List"
	case KindI32List:
		return "I32List"
	case KindU32List:
		return "U32List"
	case KindI64List:
		return "I64List"
	case KindU64List:
		return "U64List"
	case KindF32List:
		return "F32List"
	case KindF64List:
		return "F64List"
	case KindSendPort:
		return "SendPort"
	case KindCapability:
		return "Capability"
	case KindNativePointer:
		return "NativePointer"
	case KindUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// IsTypedList reports whether k is one of the numeric typed-buffer
// variants (I8List..F64List). These are semantically distinct from List
// even when their elements would compare equal one by one (invariant (b),
// spec §3.1).
func (k Kind) IsTypedList() bool {
	switch k {
	case KindI8List, KindU8List, KindI16List, KindU16List,
		KindI32List, KindU32List, KindI64List, KindU64List,
		KindF32List, KindF64List:
		return true
	default:
		return false
	}
}
