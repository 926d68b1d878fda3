// Command libbridge builds the cgo-based C ABI shared library a managed
// runtime loads to drive the bridge core (spec §6.1): register_isolate
// and post_message are the two exported entry points, plus a pair of
// setup calls a host uses once at startup to hand the core its router
// and the native post-message function pointer.
//
// This binary is the cgo counterpart to pkg/transport.Port's doc
// comment: purego can invoke a C function given a flat scalar/pointer
// argument list, which is exactly what post_message needs on the way
// out (the native post-message entry point takes a port id, a buffer
// pointer, and a length — nothing shaped like a C union by value), so
// the outbound call in nativePort below goes through purego.SyscallN
// rather than needing its own cgo wrapper.
package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/nativebridge/internal/logger"
	"github.com/marmos91/nativebridge/pkg/isolate"
	"github.com/marmos91/nativebridge/pkg/methodchannel"
	"github.com/marmos91/nativebridge/pkg/nativeobj"
	"github.com/marmos91/nativebridge/pkg/router"
	"github.com/marmos91/nativebridge/pkg/transport"
)

var (
	initOnce sync.Once

	mu            sync.Mutex
	coreRouter    *router.Router
	methodLayer   *methodchannel.Layer
	postMessageFn uintptr
)

func ensureInit() {
	initOnce.Do(func() {
		logger.Init(logger.Config{Level: "INFO", Format: "text"})
		mu.Lock()
		coreRouter = router.New(prometheus.DefaultRegisterer)
		methodLayer = methodchannel.New(coreRouter)
		mu.Unlock()
	})
}

// bridge_set_post_message_fn hands the core the native runtime's
// post-message entry point (conceptually `Dart_PostCObject_DL`-shaped:
// `bool(*)(int64_t port, const uint8_t *buf, uint64_t len)`), resolved
// by the host from its own dynamic symbol table before this is called.
//
//export bridge_set_post_message_fn
func bridge_set_post_message_fn(fnPtr C.uintptr_t) {
	mu.Lock()
	postMessageFn = uintptr(fnPtr)
	mu.Unlock()
}

// register_isolate implements spec §6.1's `register_isolate`: binds a
// fresh isolate.ID to a native send port and returns it, or -1
// (isolate.Uninitialized) if the core hasn't been initialized yet.
//
//export register_isolate
func register_isolate(port C.int64_t) C.int64_t {
	ensureInit()
	mu.Lock()
	r := coreRouter
	mu.Unlock()
	if r == nil {
		return C.int64_t(isolate.Uninitialized)
	}

	id := r.RegisterIsolate(nativePort(int64(port)))
	logger.Debug("isolate registered via FFI", logger.KeyIsolateID, int64(id))
	return C.int64_t(id)
}

// post_message implements spec §6.1's `post_message`: takes ownership
// of buf (the caller must not touch it again after this call returns)
// and hops it into the router's dispatch path.
//
//export post_message
func post_message(isolateID C.int64_t, buf *C.uint8_t, length C.uint64_t) {
	ensureInit()
	mu.Lock()
	r := coreRouter
	mu.Unlock()
	if r == nil || buf == nil {
		return
	}

	data := C.GoBytes(unsafe.Pointer(buf), C.int(length))
	r.Deliver(isolate.ID(int64(isolateID)), data, nil)
}

// attach_window / detach_window round out the method channel layer's
// FFI surface (spec §4.3), letting a host bind a window handle to the
// isolate that owns it. No method-invocation entry point is exported.
//
//export attach_window
func attach_window(windowHandle C.int64_t, isolateID C.int64_t) {
	ensureInit()
	mu.Lock()
	layer := methodLayer
	mu.Unlock()
	if layer == nil {
		return
	}
	layer.AttachWindow(methodchannel.WindowHandle(windowHandle), isolate.ID(isolateID))
}

//export detach_window
func detach_window(windowHandle C.int64_t) {
	ensureInit()
	mu.Lock()
	layer := methodLayer
	mu.Unlock()
	if layer == nil {
		return
	}
	layer.DetachWindow(methodchannel.WindowHandle(windowHandle))
}

// nativePort wraps the raw native port id in a transport.Port that
// calls back into the host through postMessageFn via purego — the
// flat-argument FFI call purego is built for (see the package doc
// comment above).
func nativePort(rawPort int64) transport.Port {
	return transport.New(func(frame []byte, attachments []nativeobj.Object) bool {
		mu.Lock()
		fn := postMessageFn
		mu.Unlock()
		if fn == 0 {
			return false
		}
		if len(frame) == 0 {
			return false
		}

		ret, _, _ := purego.SyscallN(fn, uintptr(rawPort), uintptr(unsafe.Pointer(&frame[0])), uintptr(len(frame)))

		// Attachments ride along inside the encoded frame's own
		// attachment table (spec §6.2's wire envelope); once the
		// native side has accepted the frame it owns their storage,
		// so nothing further is cleaned up here on success. A refused
		// send is the caller's (pkg/router's) responsibility to
		// clean up via nativeobj.Object.CleanupRefused.
		return ret != 0
	})
}

// main is required by `package main` but unused: this binary is built
// with `go build -buildmode=c-shared`, which never calls it — the host
// process loads the library and calls the exported symbols directly.
func main() {}
