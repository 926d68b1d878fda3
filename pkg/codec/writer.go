package codec

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/marmos91/nativebridge/pkg/nativeobj"
	"github.com/marmos91/nativebridge/pkg/value"
)

// Frame is the result of encoding a Value: a byte buffer plus the ordered
// attachments list it references positionally (spec §4.1.1). The two are
// transmitted together — the buffer as the first port-message element,
// the attachments as the remaining elements in emission order (§6.2).
type Frame struct {
	Buffer      []byte
	Attachments []nativeobj.Object
}

// Encode serializes v into a Frame. The caller transmits the frame; once
// the transport accepts it, the peer owns the attachments and nothing
// further is called on them. On a refused send the caller must call
// CleanupRefused() on every attachment, exactly once each (spec §5).
func Encode(v value.Value) (Frame, error) {
	w := &writer{buf: &bytes.Buffer{}}
	if err := w.writeValue(v); err != nil {
		return Frame{}, err
	}
	return Frame{Buffer: w.buf.Bytes(), Attachments: w.attachments}, nil
}

type writer struct {
	buf         *bytes.Buffer
	attachments []nativeobj.Object
}

func (w *writer) pushAttachment(o nativeobj.Object) uint64 {
	w.attachments = append(w.attachments, o)
	return uint64(len(w.attachments) - 1)
}

func (w *writer) writeValue(v value.Value) error {
	switch v.Kind() {
	case value.KindNull:
		w.buf.WriteByte(tagNull)
		return nil

	case value.KindBool:
		b, _ := v.Bool()
		if b {
			w.buf.WriteByte(tagTrue)
		} else {
			w.buf.WriteByte(tagFalse)
		}
		return nil

	case value.KindI32, value.KindI64:
		n, _ := v.Int()
		return w.writeInt(n)

	case value.KindF64:
		f, _ := v.Float()
		return w.writeFloat(f)

	case value.KindString:
		s, _ := v.StrVal()
		return w.writeString(s)

	case value.KindList:
		list, _ := v.List()
		w.buf.WriteByte(tagList)
		if err := writeSize(w.buf, uint64(len(list))); err != nil {
			return err
		}
		for _, elem := range list {
			if err := w.writeValue(elem); err != nil {
				return err
			}
		}
		return nil

	case value.KindMap:
		pairs, _ := v.Pairs()
		w.buf.WriteByte(tagMap)
		if err := writeSize(w.buf, uint64(len(pairs))); err != nil {
			return err
		}
		for _, p := range pairs {
			if err := w.writeValue(p.Key); err != nil {
				return err
			}
			if err := w.writeValue(p.Val); err != nil {
				return err
			}
		}
		return nil

	case value.KindI8List:
		l, _ := v.I8List()
		return w.writeTypedList(tagInt8List, len(l), func(b *bytes.Buffer) {
			for _, e := range l {
				b.WriteByte(byte(e))
			}
		})
	case value.KindU8List:
		l, _ := v.U8List()
		return w.writeTypedList(tagUint8List, len(l), func(b *bytes.Buffer) { b.Write(l) })
	case value.KindI16List:
		l, _ := v.I16List()
		return w.writeTypedList(tagInt16List, len(l), func(b *bytes.Buffer) {
			writeLE(b, 2, len(l), func(i int, tmp []byte) { binary.LittleEndian.PutUint16(tmp, uint16(l[i])) })
		})
	case value.KindU16List:
		l, _ := v.U16List()
		return w.writeTypedList(tagUint16List, len(l), func(b *bytes.Buffer) {
			writeLE(b, 2, len(l), func(i int, tmp []byte) { binary.LittleEndian.PutUint16(tmp, l[i]) })
		})
	case value.KindI32List:
		l, _ := v.I32List()
		return w.writeTypedList(tagInt32List, len(l), func(b *bytes.Buffer) {
			writeLE(b, 4, len(l), func(i int, tmp []byte) { binary.LittleEndian.PutUint32(tmp, uint32(l[i])) })
		})
	case value.KindU32List:
		l, _ := v.U32List()
		return w.writeTypedList(tagUint32List, len(l), func(b *bytes.Buffer) {
			writeLE(b, 4, len(l), func(i int, tmp []byte) { binary.LittleEndian.PutUint32(tmp, l[i]) })
		})
	case value.KindI64List:
		l, _ := v.I64List()
		return w.writeTypedList(tagInt64List, len(l), func(b *bytes.Buffer) {
			writeLE(b, 8, len(l), func(i int, tmp []byte) { binary.LittleEndian.PutUint64(tmp, uint64(l[i])) })
		})
	case value.KindU64List:
		l, _ := v.U64List()
		return w.writeTypedList(tagUint64List, len(l), func(b *bytes.Buffer) {
			writeLE(b, 8, len(l), func(i int, tmp []byte) { binary.LittleEndian.PutUint64(tmp, l[i]) })
		})
	case value.KindF32List:
		l, _ := v.F32List()
		return w.writeTypedList(tagFloat32List, len(l), func(b *bytes.Buffer) {
			writeLE(b, 4, len(l), func(i int, tmp []byte) {
				binary.LittleEndian.PutUint32(tmp, math.Float32bits(l[i]))
			})
		})
	case value.KindF64List:
		l, _ := v.F64List()
		return w.writeTypedList(tagFloat64List, len(l), func(b *bytes.Buffer) {
			writeLE(b, 8, len(l), func(i int, tmp []byte) {
				binary.LittleEndian.PutUint64(tmp, math.Float64bits(l[i]))
			})
		})

	case value.KindSendPort:
		sp, _ := v.SendPortVal()
		w.buf.WriteByte(tagSendPort)
		if err := binary.Write(w.buf, binary.LittleEndian, sp.ID); err != nil {
			return err
		}
		return binary.Write(w.buf, binary.LittleEndian, sp.OriginID)

	case value.KindCapability:
		id, _ := v.CapabilityID()
		w.buf.WriteByte(tagCapability)
		return binary.Write(w.buf, binary.LittleEndian, id)

	case value.KindNativePointer:
		np, _ := v.NativePointerVal()
		w.buf.WriteByte(tagNativePointer)
		if err := binary.Write(w.buf, binary.LittleEndian, int64(np.Address)); err != nil {
			return err
		}
		idx := w.pushAttachment(nativeobj.NewExternal(np))
		return writeSize(w.buf, idx)

	case value.KindUnsupported:
		w.buf.WriteByte(tagUnsupported)
		return nil

	default:
		return malformed("writer: unknown value kind")
	}
}

// writeInt implements spec §4.1.5: "if n < MAP_tag emit single byte n;
// else INT64 + i64".
func (w *writer) writeInt(n int64) error {
	if n >= 0 && n < int64(smallIntLimit) {
		w.buf.WriteByte(byte(n))
		return nil
	}
	w.buf.WriteByte(tagInt64)
	return binary.Write(w.buf, binary.LittleEndian, n)
}

func (w *writer) writeFloat(f float64) error {
	w.buf.WriteByte(tagFloat64)
	alignWriter(w.buf)
	return binary.Write(w.buf, binary.LittleEndian, f)
}

func (w *writer) writeString(s string) error {
	if len(s) < maxSmallString {
		w.buf.WriteByte(tagSmallString)
		if err := writeSize(w.buf, uint64(len(s))); err != nil {
			return err
		}
		w.buf.WriteString(s)
		return nil
	}
	w.buf.WriteByte(tagString)
	idx := w.pushAttachment(nativeobj.NewBytes([]byte(s)))
	return writeSize(w.buf, idx)
}

func (w *writer) writeTypedList(tag byte, n int, encodeBody func(*bytes.Buffer)) error {
	var body bytes.Buffer
	encodeBody(&body)
	w.buf.WriteByte(tag)
	idx := w.pushAttachment(nativeobj.NewBytes(body.Bytes()))
	return writeSize(w.buf, idx)
}

// alignWriter pads buf with zero bytes so the next write (the F64 payload)
// begins on an 8-byte boundary, counting from the start of the frame
// (spec §4.1.3). Padding follows the tag byte that was just written, the
// same position the reader will compute from after consuming that tag.
func alignWriter(buf *bytes.Buffer) {
	pad := (alignment - (buf.Len() % alignment)) % alignment
	if pad == 0 {
		return
	}
	buf.Write(make([]byte, pad))
}

// writeLE writes n little-endian elements of the given width using fn to
// fill a reusable scratch buffer per element — avoids widening every
// typed-list encoder into its own bytes.Buffer loop.
func writeLE(buf *bytes.Buffer, width, n int, fn func(i int, tmp []byte)) {
	tmp := make([]byte, width)
	for i := 0; i < n; i++ {
		fn(i, tmp)
		buf.Write(tmp)
	}
}
