package isolate

import "github.com/marmos91/nativebridge/pkg/transport"

// entry is one registered isolate's bookkeeping.
type entry struct {
	port transport.Port
}

// Registry maps isolate ids to their ports (spec §4.2.4, component E).
// Unlike a general-purpose named-resource registry, Registry is NOT
// internally synchronized: spec §5 ("Shared resources") makes the
// isolate registry router-thread exclusive by design — all registration,
// lookup, and teardown happens on the single router thread, so adding a
// mutex here would only hide a violation of that invariant rather than
// guard against real concurrent access. Callers reaching this type from
// any other goroutine are themselves the bug.
type Registry struct {
	next    ID
	entries map[ID]*entry

	exitPort     transport.Port
	exitPortOnce bool
}

// NewRegistry returns an empty registry. The exit-notification port is
// created lazily on first Register (spec §4.2.4 step 3: "Lazily create a
// single process-wide exit-notification port").
func NewRegistry() *Registry {
	return &Registry{entries: make(map[ID]*entry)}
}

// Register assigns a new id to port and returns it (spec §4.2.4 steps
// 1-2). Ids are monotonically increasing starting at 0 and are never
// reused, so a stale id from an exited isolate can never alias a live
// one.
func (r *Registry) Register(port transport.Port) ID {
	id := r.next
	r.next++
	r.entries[id] = &entry{port: port}
	return id
}

// Unregister removes id from the registry (spec §4.2.4 exit step 1).
// Unregistering an id that isn't present is a no-op: exit notifications
// can legitimately race a caller that already removed the isolate.
func (r *Registry) Unregister(id ID) {
	delete(r.entries, id)
}

// Lookup returns the port registered for id, or ok=false if id is not
// currently registered (spec §4.2.2 step 1: "Look up the isolate's
// port. Absent -> ...").
func (r *Registry) Lookup(id ID) (transport.Port, bool) {
	e, ok := r.entries[id]
	if !ok {
		return transport.Port{}, false
	}
	return e.port, true
}

// EnsureExitNotificationPort returns the process-wide exit-notification
// port, creating it via newPort on first use (spec §4.2.4 step 3). The
// same port is reused across every subsequent Register call.
func (r *Registry) EnsureExitNotificationPort(newPort func() transport.Port) transport.Port {
	if !r.exitPortOnce {
		r.exitPort = newPort()
		r.exitPortOnce = true
	}
	return r.exitPort
}

// Len reports the number of currently registered isolates.
func (r *Registry) Len() int { return len(r.entries) }
