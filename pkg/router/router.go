// Package router implements the Message Router (spec §4.2, component F):
// the process-wide switchboard that multiplexes request/reply traffic
// over per-isolate transport ports, tracks isolate lifecycle, and
// dispatches the reserved control verbs to registered delegates.
package router

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/nativebridge/internal/logger"
	"github.com/marmos91/nativebridge/pkg/codec"
	"github.com/marmos91/nativebridge/pkg/isolate"
	"github.com/marmos91/nativebridge/pkg/nativeobj"
	"github.com/marmos91/nativebridge/pkg/transport"
	"github.com/marmos91/nativebridge/pkg/value"
)

// Continuation resolves exactly one outstanding send (spec §3.3): err is
// nil on success, in which case v is the reply payload; otherwise v is
// the zero Value and err names one of the SendError variants.
type Continuation func(v value.Value, err *SendError)

type pendingReply struct {
	correlationID int64
	isolateID     isolate.ID
	k             Continuation
}

// Router is the process-wide message router. The spec models its state
// (isolate registry, delegate registry, pending-reply table,
// correlation counter) as exclusive to a single cooperative "router
// thread", reached from any other goroutine through a thread-safe hop
// (spec §5). Go has no inexpensive way to tell whether the calling
// goroutine already IS that thread, which matters here: a delegate's
// reply closure (below) is legitimately invoked either synchronously,
// from within its own OnMessage call stack — already serialized with
// everything else — or asynchronously, later, from an unrelated
// goroutine (spec §5 "Suspension"). A literal blocking hand-off queue
// deadlocks on the first case. A single mutex gives the same observable
// guarantee — all registry/delegate/pending-table/counter mutation is
// serialized, so the ordering properties in spec §8 hold exactly as
// written — without that hazard, provided the lock is never held across
// a call into caller-supplied code (port.Post, delegate callbacks).
// Every method below collects what it needs under the lock, releases
// it, then calls out.
type Router struct {
	mu              sync.Mutex
	registry        *isolate.Registry
	delegates       map[string]Delegate
	pending         map[int64]*pendingReply
	nextCorrelation int64

	metrics routerMetrics
}

// New constructs an empty Router. reg may be nil to skip Prometheus
// registration, e.g. when a test constructs more than one Router against
// the default registry.
func New(reg prometheus.Registerer) *Router {
	return &Router{
		registry:  isolate.NewRegistry(),
		delegates: make(map[string]Delegate),
		pending:   make(map[int64]*pendingReply),
		metrics:   newRouterMetrics(reg),
	}
}

// RegisterIsolate assigns port a new IsolateId and notifies every
// registered delegate (spec §4.2.4 steps 2 and 4). Unlike the FFI
// contract's literal "-1 if router uninitialized" case, a *Router is
// always initialized once constructed; the -1 sentinel (isolate.Uninitialized)
// is reserved for the FFI shim layer (cmd/libbridge) to return before a
// Router exists at all.
func (r *Router) RegisterIsolate(port transport.Port) isolate.ID {
	r.mu.Lock()
	id := r.registry.Register(port)
	delegates := r.snapshotDelegatesLocked()
	r.mu.Unlock()

	r.metrics.isolatesJoined.Inc()
	logger.Debug("isolate joined", logger.KeyIsolateID, int64(id))
	for _, d := range delegates {
		d.OnIsolateJoined(id)
	}
	return id
}

// ExitNotificationPort returns the process-wide exit-notification port
// (spec §4.2.4 step 3), constructing it via newPort on first use only.
// The caller hands the same Port to every isolate it registers.
func (r *Router) ExitNotificationPort(newPort func() transport.Port) transport.Port {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.EnsureExitNotificationPort(newPort)
}

// NotifyIsolateExit handles a decoded ["isolate_exit", id] frame (spec
// §4.2.4 "Exit"): unregisters the isolate, notifies delegates, and only
// then drains its pending replies with Err(IsolateShutDown). That order
// is load-bearing: "delegates observe departure before seeing the
// synthetic failures that might otherwise appear to originate from
// their own channel."
func (r *Router) NotifyIsolateExit(id isolate.ID) {
	r.mu.Lock()
	r.registry.Unregister(id)
	delegates := r.snapshotDelegatesLocked()
	r.mu.Unlock()

	r.metrics.isolatesExited.Inc()
	logger.Debug("isolate exited", logger.KeyIsolateID, int64(id))
	for _, d := range delegates {
		d.OnIsolateExited(id)
	}

	r.mu.Lock()
	var drained []*pendingReply
	for corrID, p := range r.pending {
		if p.isolateID == id {
			drained = append(drained, p)
			delete(r.pending, corrID)
		}
	}
	r.metrics.pendingReplies.Set(float64(len(r.pending)))
	r.mu.Unlock()

	for _, p := range drained {
		p.k(value.Value{}, errIsolateShutDown())
	}
}

func (r *Router) snapshotDelegatesLocked() []Delegate {
	out := make([]Delegate, 0, len(r.delegates))
	for _, d := range r.delegates {
		out = append(out, d)
	}
	return out
}

// RegisterDelegate binds d to channel (spec §4.2.5). A second call for
// the same channel replaces the first.
func (r *Router) RegisterDelegate(channel string, d Delegate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delegates[channel] = d
}

// UnregisterDelegate removes whatever delegate is bound to channel, if
// any. Registering then immediately unregistering leaves on_isolate_joined
// observed but no on_message delivered thereafter (spec §8 property 5).
func (r *Router) UnregisterDelegate(channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.delegates, channel)
}

// Send is the outbound half of the protocol (spec §4.2.2). k fires
// exactly once: synchronously for InvalidIsolate and (on an immediate
// refusal) MessageRefused, or later — via Deliver or NotifyIsolateExit —
// for every other outcome.
func (r *Router) Send(target isolate.ID, channel string, payload value.Value, k Continuation) {
	r.mu.Lock()
	port, ok := r.registry.Lookup(target)
	if !ok {
		r.mu.Unlock()
		r.metrics.sendOutcomes.WithLabelValues("invalid_isolate").Inc()
		k(value.Value{}, errInvalidIsolate())
		return
	}

	corrID := r.nextCorrelation
	r.nextCorrelation++
	r.pending[corrID] = &pendingReply{correlationID: corrID, isolateID: target, k: k}
	r.metrics.pendingReplies.Set(float64(len(r.pending)))
	r.mu.Unlock()

	// Field order here follows §4.2.1's payload schema for "message"
	// ([correlation_id, channel, payload]) rather than §4.2.2's looser
	// prose restatement ([channel, id, payload]); see DESIGN.md.
	frame, err := codec.Encode(value.NewList([]value.Value{
		value.NewString("message"),
		value.NewI64(corrID),
		value.NewString(channel),
		payload,
	}))
	if err != nil {
		r.failPending(corrID, errMessageRefused(), "encode_failed")
		return
	}

	if !port.Post(frame.Buffer, frame.Attachments) {
		cleanupAttachments(frame.Attachments)
		r.failPending(corrID, errMessageRefused(), "transport_refused")
	}
}

// failPending removes corrID from the pending table, if it's still
// there — a racing isolate exit may already have drained it — and
// invokes its continuation with err.
func (r *Router) failPending(corrID int64, err *SendError, outcome string) {
	r.mu.Lock()
	p, ok := r.pending[corrID]
	if ok {
		delete(r.pending, corrID)
		r.metrics.pendingReplies.Set(float64(len(r.pending)))
	}
	r.mu.Unlock()
	if ok {
		r.metrics.sendOutcomes.WithLabelValues(outcome).Inc()
		logger.Warn("send failed", logger.KeyCorrelationID, corrID, logger.KeyOutcome, outcome, logger.KeyError, err.Error())
		p.k(value.Value{}, err)
	}
}

func cleanupAttachments(attachments []nativeobj.Object) {
	for _, a := range attachments {
		a.CleanupRefused()
	}
}
