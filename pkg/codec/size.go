package codec

import (
	"bytes"
	"encoding/binary"
)

// writeSize encodes n using the three-tier scheme of spec §4.1.3:
// n<254 -> one byte; n<=65535 -> marker 254 + u16; else marker 255 + u32.
// Values above 2^32-1 are rejected, matching the spec's explicit bound.
func writeSize(buf *bytes.Buffer, n uint64) error {
	if n > 0xFFFFFFFF {
		return &ErrSizeTooLarge{Size: n}
	}
	switch {
	case n < 254:
		buf.WriteByte(byte(n))
	case n <= 0xFFFF:
		buf.WriteByte(254)
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(n))
		buf.Write(tmp[:])
	default:
		buf.WriteByte(255)
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], uint32(n))
		buf.Write(tmp[:])
	}
	return nil
}

// readSize decodes the inverse of writeSize.
func readSize(r *cursor) (uint64, error) {
	b, err := r.readByte()
	if err != nil {
		return 0, err
	}
	switch {
	case b < 254:
		return uint64(b), nil
	case b == 254:
		raw, err := r.readN(2)
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(raw)), nil
	default: // 255
		raw, err := r.readN(4)
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(raw)), nil
	}
}
