// Package nativeobj implements the Native Object Bridge (spec §3.5, §4.1,
// component C): owned wrappers for the codec's attachments — Bytes (typed
// buffers and long strings) and External (native pointers carrying a
// finalizer) — each with two disposal paths: Drop (normal release) and
// CleanupRefused (additionally fires the peer's finalizer, because on a
// refused send the peer never got the chance to take ownership). Ports
// and capabilities have no wrapper here; the codec writes them inline in
// the byte buffer.
package nativeobj

// Object is the uniform disposal contract every attachment-bound native
// container implements. At any instant it has exactly one owner (spec §5
// "Resource discipline"). The router calls CleanupRefused() on every
// attachment of a frame the transport refuses; a frame the transport
// accepts hands its attachments to the peer, and nothing in this module
// calls Drop() on them.
type Object interface {
	// Drop releases process-owned storage. For containers with no
	// caller-supplied finalizer this is the only disposal step.
	Drop()

	// CleanupRefused releases storage and, if a finalizer was captured,
	// invokes it exactly once. Called instead of Drop when the frame
	// carrying this object was never accepted by the transport.
	CleanupRefused()
}

// Bytes is the owned storage backing a typed numeric buffer or a long
// string emitted as an attachment (spec §4.1.4). It has no external
// finalizer: the process allocated the bytes and simply lets the Go
// garbage collector reclaim them on Drop.
type Bytes struct {
	Data []byte
}

func NewBytes(data []byte) *Bytes { return &Bytes{Data: data} }

func (b *Bytes) Drop() { b.Data = nil }

func (b *Bytes) CleanupRefused() { b.Drop() }

// AsBytes type-asserts o back to *Bytes, for decoders that need the raw
// payload of a string/typed-list attachment.
func AsBytes(o Object) (*Bytes, bool) {
	b, ok := o.(*Bytes)
	return b, ok
}

// AsExternal type-asserts o back to *External, for decoders reconstructing
// a NativePointer value from its attachment.
func AsExternal(o Object) (*External, bool) {
	e, ok := o.(*External)
	return e, ok
}
