package value

import "fmt"

// SendPort is an opaque reference to a send-only port belonging to the
// isolate identified by OriginID (spec §3.1). It is only meaningful while
// that isolate is alive; the router does not resolve it.
type SendPort struct {
	ID       int64
	OriginID int64
}

// Finalizer is a caller-supplied native callback captured by a
// NativePointer or an external typed buffer. Callback is the address of a
// C function of the shape `void(*)(void* peer_data)`; PeerData is the
// opaque context pointer it must be invoked with. A zero Callback means
// "no finalizer". Invocation is the responsibility of pkg/nativeobj, which
// owns the purego call — this package only carries the raw addresses so
// that Value stays free of any FFI dependency.
type Finalizer struct {
	Callback uintptr
	PeerData uintptr
}

func (f Finalizer) IsSet() bool { return f.Callback != 0 }

// NativePointer is a native heap address plus its size and an optional
// finalizer, per spec §3.1. Invariant (c): the finalizer fires exactly
// once, either on successful hand-off to the peer or during refused-send
// cleanup (§5).
type NativePointer struct {
	Address   uintptr
	Size      uint64
	Finalizer Finalizer
}

// Pair is one (key, value) entry of a Map. Map is a sequence of pairs, not
// a hash table: order is preserved and duplicate keys are legal even if
// discouraged (spec §3.1 invariant (a)).
type Pair struct {
	Key Value
	Val Value
}

// Value is the dynamic tagged-sum type described in spec §3.1. The zero
// Value is KindNull. Values are safe to copy by assignment in the Go sense
// (struct copy), but see Clone for the deep-clone semantics the spec
// requires for List/Map/String payloads.
type Value struct {
	kind Kind

	b   bool
	i64 int64
	f64 float64
	str string

	list  []Value
	pairs []Pair

	i8s  []int8
	u8s  []uint8
	i16s []int16
	u16s []uint16
	i32s []int32
	u32s []uint32
	i64s []int64
	u64s []uint64
	f32s []float32
	f64s []float64

	sendPort SendPort
	natPtr   NativePointer
}

func (v Value) Kind() Kind { return v.kind }

func Null() Value { return Value{kind: KindNull} }

func Unsupported() Value { return Value{kind: KindUnsupported} }

func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

// NewI32 stores a 32-bit integer. The codec may promote this to I64 on the
// wire (spec §3.1 notes); the Go-side Kind stays I32 until re-decoded.
func NewI32(n int32) Value { return Value{kind: KindI32, i64: int64(n)} }

func NewI64(n int64) Value { return Value{kind: KindI64, i64: n} }

func NewF64(f float64) Value { return Value{kind: KindF64, f64: f} }

func NewString(s string) Value { return Value{kind: KindString, str: s} }

func NewList(elems []Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindList, list: cp}
}

func NewMap(pairs []Pair) Value {
	cp := make([]Pair, len(pairs))
	copy(cp, pairs)
	return Value{kind: KindMap, pairs: cp}
}

func NewI8List(v []int8) Value    { return Value{kind: KindI8List, i8s: append([]int8(nil), v...)} }
func NewU8List(v []uint8) Value   { return Value{kind: KindU8List, u8s: append([]uint8(nil), v...)} }
func NewI16List(v []int16) Value  { return Value{kind: KindI16List, i16s: append([]int16(nil), v...)} }
func NewU16List(v []uint16) Value { return Value{kind: KindU16List, u16s: append([]uint16(nil), v...)} }
func NewI32List(v []int32) Value  { return Value{kind: KindI32List, i32s: append([]int32(nil), v...)} }
func NewU32List(v []uint32) Value { return Value{kind: KindU32List, u32s: append([]uint32(nil), v...)} }
func NewI64List(v []int64) Value  { return Value{kind: KindI64List, i64s: append([]int64(nil), v...)} }
func NewU64List(v []uint64) Value { return Value{kind: KindU64List, u64s: append([]uint64(nil), v...)} }
func NewF32List(v []float32) Value {
	return Value{kind: KindF32List, f32s: append([]float32(nil), v...)}
}
func NewF64List(v []float64) Value {
	return Value{kind: KindF64List, f64s: append([]float64(nil), v...)}
}

func NewSendPort(id, originID int64) Value {
	return Value{kind: KindSendPort, sendPort: SendPort{ID: id, OriginID: originID}}
}

func NewCapability(id int64) Value { return Value{kind: KindCapability, i64: id} }

func NewNativePointer(address uintptr, size uint64, fin Finalizer) Value {
	return Value{kind: KindNativePointer, natPtr: NativePointer{Address: address, Size: size, Finalizer: fin}}
}

// Accessors. Each returns ok=false if the Value is not of the matching
// Kind, rather than panicking — callers that know the Kind from a type
// switch on Kind() can ignore the bool.

func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) Int() (int64, bool) {
	return v.i64, v.kind == KindI32 || v.kind == KindI64
}

func (v Value) Float() (float64, bool) { return v.f64, v.kind == KindF64 }

func (v Value) String() string {
	if v.kind == KindString {
		return v.str
	}
	return fmt.Sprintf("Value(%s)", v.kind)
}

func (v Value) StrVal() (string, bool) { return v.str, v.kind == KindString }

func (v Value) List() ([]Value, bool) { return v.list, v.kind == KindList }

func (v Value) Pairs() ([]Pair, bool) { return v.pairs, v.kind == KindMap }

// MapGet looks up the first pair whose key equals k (sequence semantics:
// scans in order, returns the first match per invariant (a)).
func (v Value) MapGet(k Value) (Value, bool) {
	for _, p := range v.pairs {
		if p.Key.Equal(k) {
			return p.Val, true
		}
	}
	return Value{}, false
}

func (v Value) I8List() ([]int8, bool)     { return v.i8s, v.kind == KindI8List }
func (v Value) U8List() ([]uint8, bool)    { return v.u8s, v.kind == KindU8List }
func (v Value) I16List() ([]int16, bool)   { return v.i16s, v.kind == KindI16List }
func (v Value) U16List() ([]uint16, bool)  { return v.u16s, v.kind == KindU16List }
func (v Value) I32List() ([]int32, bool)   { return v.i32s, v.kind == KindI32List }
func (v Value) U32List() ([]uint32, bool)  { return v.u32s, v.kind == KindU32List }
func (v Value) I64List() ([]int64, bool)   { return v.i64s, v.kind == KindI64List }
func (v Value) U64List() ([]uint64, bool)  { return v.u64s, v.kind == KindU64List }
func (v Value) F32List() ([]float32, bool) { return v.f32s, v.kind == KindF32List }
func (v Value) F64List() ([]float64, bool) { return v.f64s, v.kind == KindF64List }

func (v Value) SendPortVal() (SendPort, bool) { return v.sendPort, v.kind == KindSendPort }

func (v Value) CapabilityID() (int64, bool) { return v.i64, v.kind == KindCapability }

func (v Value) NativePointerVal() (NativePointer, bool) { return v.natPtr, v.kind == KindNativePointer }

// Clone returns a deep copy of v: List/Map contents and typed-buffer
// backing arrays are duplicated rather than shared. The spec permits
// typed buffers to share storage until mutated (§3.1); this implementation
// takes the simpler always-copy path documented as an Open Question
// decision in DESIGN.md, since the router never mutates a typed list in
// place once it has been handed to the codec.
func (v Value) Clone() Value {
	out := v
	if v.list != nil {
		out.list = make([]Value, len(v.list))
		for i, e := range v.list {
			out.list[i] = e.Clone()
		}
	}
	if v.pairs != nil {
		out.pairs = make([]Pair, len(v.pairs))
		for i, p := range v.pairs {
			out.pairs[i] = Pair{Key: p.Key.Clone(), Val: p.Val.Clone()}
		}
	}
	out.i8s = append([]int8(nil), v.i8s...)
	out.u8s = append([]uint8(nil), v.u8s...)
	out.i16s = append([]int16(nil), v.i16s...)
	out.u16s = append([]uint16(nil), v.u16s...)
	out.i32s = append([]int32(nil), v.i32s...)
	out.u32s = append([]uint32(nil), v.u32s...)
	out.i64s = append([]int64(nil), v.i64s...)
	out.u64s = append([]uint64(nil), v.u64s...)
	out.f32s = append([]float32(nil), v.f32s...)
	out.f64s = append([]float64(nil), v.f64s...)
	return out
}

// Equal performs a structural comparison respecting the invariant that
// typed numeric buffers are distinct from a List of integers even with
// equal elements (§3.1 invariant (b)): the Kind must match exactly.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull, KindUnsupported:
		return true
	case KindBool:
		return v.b == other.b
	case KindI32, KindI64, KindCapability:
		return v.i64 == other.i64
	case KindF64:
		return v.f64 == other.f64
	case KindString:
		return v.str == other.str
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.pairs) != len(other.pairs) {
			return false
		}
		for i := range v.pairs {
			if !v.pairs[i].Key.Equal(other.pairs[i].Key) || !v.pairs[i].Val.Equal(other.pairs[i].Val) {
				return false
			}
		}
		return true
	case KindI8List:
		return equalSlice(v.i8s, other.i8s)
	case KindU8List:
		return equalSlice(v.u8s, other.u8s)
	case KindI16List:
		return equalSlice(v.i16s, other.i16s)
	case KindU16List:
		return equalSlice(v.u16s, other.u16s)
	case KindI32List:
		return equalSlice(v.i32s, other.i32s)
	case KindU32List:
		return equalSlice(v.u32s, other.u32s)
	case KindI64List:
		return equalSlice(v.i64s, other.i64s)
	case KindU64List:
		return equalSlice(v.u64s, other.u64s)
	case KindF32List:
		return equalSlice(v.f32s, other.f32s)
	case KindF64List:
		return equalSlice(v.f64s, other.f64s)
	case KindSendPort:
		return v.sendPort == other.sendPort
	case KindNativePointer:
		return v.natPtr == other.natPtr
	default:
		return false
	}
}

func equalSlice[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
