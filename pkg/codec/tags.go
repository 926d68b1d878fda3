package codec

// Wire tag bytes, from the top of the single-byte range (spec §4.1.2).
// Any byte strictly below tagUnsupported is a small-integer literal whose
// value IS the tag byte (spec: "Any byte below MAP tag is a small-integer
// literal").
//
// The distilled spec's own tag table only allocates bytes down through
// INT8LIST (248) and stops at LIST(239)/MAP(238); it never assigns tags
// for SendPort, Capability, Unsupported, or UINT64LIST even though §3.1
// lists all four as variants and §8's round-trip invariant explicitly
// requires "all typed numeric lists" (which includes UINT64LIST) to
// survive encode/decode. Resolved here (see DESIGN.md) by continuing the
// same top-down numbering one step further: LIST and MAP shift down by
// one byte from the spec's literal table to make room, and three new
// tags are appended below MAP for SendPort/Capability/Unsupported. Every
// tag the spec DOES pin explicitly (NULL..INT8LIST) keeps its literal
// value unchanged.
const (
	tagNull    byte = 255
	tagTrue    byte = 254
	tagFalse   byte = 253
	tagInt64   byte = 252
	tagFloat64 byte = 251

	tagSmallString byte = 250
	// tagString is the attachment-carried long-string tag; the spec calls
	// this the VALUE_ATTACHMENT alias.
	tagString byte = 249

	// tagNativePointer reuses tagInt8List's byte value, exactly as the
	// spec's "(VALUE_NATIVE_POINTER = attachment - 1)" note and the
	// original nativeshell codec define it. This is safe because the two
	// are write/read-directional opposites in the real protocol: a
	// native-pointer tag is only ever *written* (outbound, native→peer)
	// and an INT8LIST tag is only ever *read* back (inbound, peer→native)
	// — the same process never decodes its own outbound native pointer.
	// The decoder below therefore only ever interprets this byte as
	// INT8LIST, matching spec §4.1.6's explicit exclusion of
	// NativePointer from the round-trip invariant.
	tagInt8List      byte = 248
	tagNativePointer byte = tagString - 1

	tagUint8List   byte = 247
	tagInt16List   byte = 246
	tagUint16List  byte = 245
	tagInt32List   byte = 244
	tagUint32List  byte = 243
	tagInt64List   byte = 242
	tagUint64List  byte = 241
	tagFloat32List byte = 240
	tagFloat64List byte = 239

	tagList byte = 238
	tagMap  byte = 237

	tagSendPort    byte = 236
	tagCapability  byte = 235
	tagUnsupported byte = 234
)

// smallIntLimit is the first tag byte that is NOT itself a literal value;
// bytes below it, read raw, are the encoded small integer (spec §4.1.2,
// §4.1.5: "if n < MAP_tag emit single byte n" — generalized here to "below
// the lowest allocated tag", see the note above).
const smallIntLimit = tagUnsupported

// maxSmallString is the inline-string length cutoff (spec §4.1.3):
// strings shorter than this are inlined as SMALL_STRING; longer strings
// are emitted as attachments under tagString.
const maxSmallString = 50

// alignment is the byte boundary F64 payloads must start on (spec §4.1.3).
const alignment = 8
