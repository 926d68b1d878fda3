package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/nativebridge/pkg/value"
)

func roundTrip(t *testing.T, v value.Value) value.Value {
	t.Helper()
	frame, err := Encode(v)
	require.NoError(t, err)
	decoded, err := Decode(frame)
	require.NoError(t, err)
	return decoded
}

// S1 — small int round trip.
func TestScenarioS1SmallInt(t *testing.T) {
	frame, err := Encode(value.NewI64(7))
	require.NoError(t, err)
	require.Equal(t, []byte{0x07}, frame.Buffer)
	require.Empty(t, frame.Attachments)

	decoded, err := Decode(frame)
	require.NoError(t, err)
	n, ok := decoded.Int()
	require.True(t, ok)
	require.Equal(t, int64(7), n)
}

// S2 — large int.
func TestScenarioS2LargeInt(t *testing.T) {
	frame, err := Encode(value.NewI64(10_000))
	require.NoError(t, err)
	require.Equal(t, byte(tagInt64), frame.Buffer[0])
	require.Len(t, frame.Buffer, 9)

	decoded := roundTrip(t, value.NewI64(10_000))
	n, _ := decoded.Int()
	require.Equal(t, int64(10_000), n)
}

// S3 — aligned double.
func TestScenarioS3AlignedDouble(t *testing.T) {
	v := value.NewList([]value.Value{value.NewI64(1), value.NewF64(2.5)})
	decoded := roundTrip(t, v)
	require.True(t, v.Equal(decoded))
}

// S4 — long string.
func TestScenarioS4LongString(t *testing.T) {
	s := ""
	for i := 0; i < 60; i++ {
		s += "x"
	}
	v := value.NewString(s)
	frame, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, byte(tagString), frame.Buffer[0])
	require.Len(t, frame.Attachments, 1)

	decoded, err := Decode(frame)
	require.NoError(t, err)
	require.True(t, v.Equal(decoded))
}

func TestRoundTripAllPlainVariants(t *testing.T) {
	values := []value.Value{
		value.Null(),
		value.NewBool(true),
		value.NewBool(false),
		value.NewI64(-42),
		value.NewI64(0),
		value.NewF64(3.14159),
		value.NewString("short"),
		value.NewList([]value.Value{value.NewI64(1), value.NewString("a")}),
		value.NewMap([]value.Pair{{Key: value.NewString("k"), Val: value.NewI64(1)}}),
		value.NewI8List([]int8{-1, 0, 1}),
		value.NewU8List([]uint8{1, 2, 3}),
		value.NewI16List([]int16{-100, 100}),
		value.NewU16List([]uint16{100, 200}),
		value.NewI32List([]int32{-1000, 1000}),
		value.NewU32List([]uint32{1000, 2000}),
		value.NewI64List([]int64{-1 << 40, 1 << 40}),
		value.NewU64List([]uint64{1 << 40}),
		value.NewF32List([]float32{1.5, -2.5}),
		value.NewF64List([]float64{1.5, -2.5}),
	}
	for _, v := range values {
		decoded := roundTrip(t, v)
		require.True(t, v.Equal(decoded), "round trip failed for kind %s", v.Kind())
	}
}

func TestListOrderAndMapPairOrderPreserved(t *testing.T) {
	v := value.NewMap([]value.Pair{
		{Key: value.NewString("z"), Val: value.NewI64(1)},
		{Key: value.NewString("a"), Val: value.NewI64(2)},
	})
	decoded := roundTrip(t, v)
	pairs, _ := decoded.Pairs()
	require.Len(t, pairs, 2)
	k0, _ := pairs[0].Key.StrVal()
	require.Equal(t, "z", k0, "map pair order must be preserved")
}

func TestAttachmentCountMatchesEmittedAndConsumed(t *testing.T) {
	v := value.NewList([]value.Value{
		value.NewString("this string is definitely sixty characters long!!!"),
		value.NewU8List([]uint8{1, 2, 3, 4}),
		value.NewF64List([]float64{1, 2}),
	})
	frame, err := Encode(v)
	require.NoError(t, err)
	require.Len(t, frame.Attachments, 3)

	decoded, err := Decode(frame)
	require.NoError(t, err)
	require.True(t, v.Equal(decoded))
}

func TestDecodeUnknownTagIsFatalButTyped(t *testing.T) {
	_, err := Decode(Frame{Buffer: []byte{233}})
	require.Error(t, err)
	var unknownTag *ErrUnknownTag
	require.ErrorAs(t, err, &unknownTag)
}

func TestDecodeTruncatedBufferIsMalformed(t *testing.T) {
	_, err := Decode(Frame{Buffer: []byte{tagInt64, 0x01, 0x02}})
	require.Error(t, err)
	var malformedErr *ErrMalformed
	require.ErrorAs(t, err, &malformedErr)
}
