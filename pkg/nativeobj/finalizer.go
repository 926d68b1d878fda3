package nativeobj

import (
	"sync"

	"github.com/ebitengine/purego"
	"github.com/marmos91/nativebridge/pkg/value"
)

// External wraps a native heap pointer whose ownership may transfer to the
// peer runtime: an ExternalTypedData buffer or a NativePointer (spec
// §3.1, §5). Its finalizer — a C function pointer supplied by the
// managed-runtime side when the buffer was created — must run exactly
// once (invariant (c)): either here, during CleanupRefused after a
// refused send, or later by the peer once it takes ownership and releases
// the buffer itself. This package never calls it twice; once is
// guaranteed by sync.Once regardless of which path fires first.
type External struct {
	Pointer   value.NativePointer
	once      sync.Once
	delivered bool
}

func NewExternal(ptr value.NativePointer) *External {
	return &External{Pointer: ptr}
}

// Drop marks the object as handed off to the peer: the peer now owns the
// obligation to invoke the finalizer, so this process must not call it.
func (e *External) Drop() {
	e.once.Do(func() { e.delivered = true })
}

// CleanupRefused invokes the captured finalizer exactly once, because the
// send that would have transferred ownership to the peer never landed.
// Failing to call this leaks native heap (spec §5).
func (e *External) CleanupRefused() {
	e.once.Do(func() {
		invokeFinalizer(e.Pointer.Finalizer)
	})
}

// callFinalizer is the actual native call, isolated behind a package
// variable so tests can substitute a stub instead of invoking an
// arbitrary function pointer (there is no real peer callback to target
// outside a linked managed runtime).
var callFinalizer = purego.SyscallN

// invokeFinalizer calls a peer-supplied C callback of shape
// void(*)(void* peer_data) via purego, without requiring cgo. A zero
// Callback means the buffer carries no finalizer (e.g. it originated on
// our side and the peer took ownership of plain malloc'd storage).
func invokeFinalizer(fin value.Finalizer) {
	if !fin.IsSet() {
		return
	}
	callFinalizer(fin.Callback, fin.PeerData)
}
