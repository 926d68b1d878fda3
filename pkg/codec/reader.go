package codec

import (
	"encoding/binary"
	"math"

	"github.com/marmos91/nativebridge/pkg/nativeobj"
	"github.com/marmos91/nativebridge/pkg/value"
)

// Decode is the inverse of Encode: it reconstructs a Value from a Frame's
// buffer, resolving attachment-tagged payloads (long strings and typed
// lists) against frame.Attachments by position (spec §4.1.4). The byte
// NATIVE_POINTER shares with INT8LIST is always read as INT8LIST, so a
// NativePointer is never reconstructed.
// An unknown tag or truncated buffer returns a fatal-to-this-frame error
// (spec §7); it never panics and never corrupts router state.
func Decode(frame Frame) (value.Value, error) {
	r := &reader{cur: newCursor(frame.Buffer), attachments: frame.Attachments}
	return r.readValue()
}

type reader struct {
	cur         *cursor
	attachments []nativeobj.Object
}

func (r *reader) attachment(idx uint64) (nativeobj.Object, error) {
	if idx >= uint64(len(r.attachments)) {
		return nil, malformed("attachment index out of range")
	}
	return r.attachments[idx], nil
}

func (r *reader) readValue() (value.Value, error) {
	tag, err := r.cur.readByte()
	if err != nil {
		return value.Value{}, err
	}

	if tag < smallIntLimit {
		return value.NewI64(int64(tag)), nil
	}

	switch tag {
	case tagNull:
		return value.Null(), nil
	case tagTrue:
		return value.NewBool(true), nil
	case tagFalse:
		return value.NewBool(false), nil
	case tagInt64:
		raw, err := r.cur.readN(8)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewI64(int64(binary.LittleEndian.Uint64(raw))), nil
	case tagFloat64:
		r.align()
		raw, err := r.cur.readN(8)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewF64(math.Float64frombits(binary.LittleEndian.Uint64(raw))), nil
	case tagSmallString:
		n, err := readSize(r.cur)
		if err != nil {
			return value.Value{}, err
		}
		raw, err := r.cur.readN(int(n))
		if err != nil {
			return value.Value{}, err
		}
		return value.NewString(string(raw)), nil
	case tagString:
		idx, err := readSize(r.cur)
		if err != nil {
			return value.Value{}, err
		}
		att, err := r.attachment(idx)
		if err != nil {
			return value.Value{}, err
		}
		b, ok := nativeobj.AsBytes(att)
		if !ok {
			return value.Value{}, malformed("string attachment has wrong shape")
		}
		return value.NewString(string(b.Data)), nil
	case tagList:
		n, err := readSize(r.cur)
		if err != nil {
			return value.Value{}, err
		}
		elems := make([]value.Value, n)
		for i := range elems {
			v, err := r.readValue()
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = v
		}
		return value.NewList(elems), nil
	case tagMap:
		n, err := readSize(r.cur)
		if err != nil {
			return value.Value{}, err
		}
		pairs := make([]value.Pair, n)
		for i := range pairs {
			k, err := r.readValue()
			if err != nil {
				return value.Value{}, err
			}
			v, err := r.readValue()
			if err != nil {
				return value.Value{}, err
			}
			pairs[i] = value.Pair{Key: k, Val: v}
		}
		return value.NewMap(pairs), nil

	case tagInt8List, tagUint8List, tagInt16List, tagUint16List,
		tagInt32List, tagUint32List, tagInt64List, tagUint64List,
		tagFloat32List, tagFloat64List:
		return r.readTypedList(tag)

	case tagSendPort:
		id, err := r.cur.readN(8)
		if err != nil {
			return value.Value{}, err
		}
		origin, err := r.cur.readN(8)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewSendPort(int64(binary.LittleEndian.Uint64(id)), int64(binary.LittleEndian.Uint64(origin))), nil

	case tagCapability:
		raw, err := r.cur.readN(8)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewCapability(int64(binary.LittleEndian.Uint64(raw))), nil

	case tagUnsupported:
		return value.Unsupported(), nil

	default:
		return value.Value{}, &ErrUnknownTag{Tag: tag}
	}
}

// align skips the same padding the writer inserted to align an F64
// payload, computed identically from the cursor's consumed-byte count.
func (r *reader) align() {
	pad := (alignment - (r.cur.pos % alignment)) % alignment
	if pad > 0 {
		_ = r.cur.skip(pad)
	}
}

func (r *reader) readTypedList(tag byte) (value.Value, error) {
	idx, err := readSize(r.cur)
	if err != nil {
		return value.Value{}, err
	}
	att, err := r.attachment(idx)
	if err != nil {
		return value.Value{}, err
	}
	b, ok := nativeobj.AsBytes(att)
	if !ok {
		return value.Value{}, malformed("typed list attachment has wrong shape")
	}
	data := b.Data

	switch tag {
	case tagInt8List:
		out := make([]int8, len(data))
		for i, e := range data {
			out[i] = int8(e)
		}
		return value.NewI8List(out), nil
	case tagUint8List:
		return value.NewU8List(data), nil
	case tagInt16List:
		n := len(data) / 2
		out := make([]int16, n)
		for i := 0; i < n; i++ {
			out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
		}
		return value.NewI16List(out), nil
	case tagUint16List:
		n := len(data) / 2
		out := make([]uint16, n)
		for i := 0; i < n; i++ {
			out[i] = binary.LittleEndian.Uint16(data[i*2:])
		}
		return value.NewU16List(out), nil
	case tagInt32List:
		n := len(data) / 4
		out := make([]int32, n)
		for i := 0; i < n; i++ {
			out[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return value.NewI32List(out), nil
	case tagUint32List:
		n := len(data) / 4
		out := make([]uint32, n)
		for i := 0; i < n; i++ {
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
		return value.NewU32List(out), nil
	case tagInt64List:
		n := len(data) / 8
		out := make([]int64, n)
		for i := 0; i < n; i++ {
			out[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
		}
		return value.NewI64List(out), nil
	case tagUint64List:
		n := len(data) / 8
		out := make([]uint64, n)
		for i := 0; i < n; i++ {
			out[i] = binary.LittleEndian.Uint64(data[i*8:])
		}
		return value.NewU64List(out), nil
	case tagFloat32List:
		n := len(data) / 4
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return value.NewF32List(out), nil
	case tagFloat64List:
		n := len(data) / 8
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
		return value.NewF64List(out), nil
	default:
		return value.Value{}, &ErrUnknownTag{Tag: tag}
	}
}
