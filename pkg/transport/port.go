// Package transport implements the Port Transport (spec §4, component D):
// a thin handle to a send-only peer port that attempts delivery of one
// encoded frame and reports whether the peer accepted it.
package transport

import "github.com/marmos91/nativebridge/pkg/nativeobj"

// Port is a send-only capability to enqueue one message on an isolate's
// inbound mailbox (GLOSSARY). It wraps whatever the host actually uses to
// reach the peer: in production, cmd/libbridge's nativePort, a closure
// that calls the peer runtime's native post-message entry point through
// purego, reading the function pointer the host registered with
// bridge_set_post_message_fn on every Post; in tests, an in-memory
// delivery function standing in for the peer.
type Port struct {
	deliver func(buf []byte, attachments []nativeobj.Object) bool
}

// New wraps a delivery function as a Port. deliver must return whether
// the transport accepted the frame (spec §4.2.2 step 5: "If the port
// refuses..."). It must not block.
func New(deliver func(buf []byte, attachments []nativeobj.Object) bool) Port {
	return Port{deliver: deliver}
}

// Post attempts delivery of one encoded frame (spec §4.1.1). The zero
// Port (no delivery function set) always refuses — this is what a
// just-registered-then-immediately-torn-down isolate's stale Port decays
// to.
func (p Port) Post(buf []byte, attachments []nativeobj.Object) bool {
	if p.deliver == nil {
		return false
	}
	return p.deliver(buf, attachments)
}
