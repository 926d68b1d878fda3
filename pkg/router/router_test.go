package router_test

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nativebridge/pkg/codec"
	"github.com/marmos91/nativebridge/pkg/isolate"
	"github.com/marmos91/nativebridge/pkg/nativeobj"
	"github.com/marmos91/nativebridge/pkg/router"
	"github.com/marmos91/nativebridge/pkg/transport"
	"github.com/marmos91/nativebridge/pkg/value"
)

// capturingPort stands in for a peer isolate's inbound port: it decodes
// and records every frame posted to it so a test can act as the peer
// and hand a synthetic reply back through Router.Deliver.
type capturingPort struct {
	mu     sync.Mutex
	frames []value.Value
	accept bool
}

func newCapturingPort(accept bool) *capturingPort {
	return &capturingPort{accept: accept}
}

func (p *capturingPort) port() transport.Port {
	return transport.New(func(buf []byte, attachments []nativeobj.Object) bool {
		if !p.accept {
			return false
		}
		v, err := codec.Decode(codec.Frame{Buffer: buf, Attachments: attachments})
		if err != nil {
			return false
		}
		p.mu.Lock()
		p.frames = append(p.frames, v)
		p.mu.Unlock()
		return true
	})
}

func (p *capturingPort) last() value.Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames[len(p.frames)-1]
}

func (p *capturingPort) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

type fakeDelegate struct {
	mu       sync.Mutex
	joined   []isolate.ID
	exited   []isolate.ID
	messages int
	events   *[]string
}

func (d *fakeDelegate) OnIsolateJoined(id isolate.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.joined = append(d.joined, id)
}

func (d *fakeDelegate) OnIsolateExited(id isolate.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exited = append(d.exited, id)
	if d.events != nil {
		*d.events = append(*d.events, "delegate_exited")
	}
}

func (d *fakeDelegate) OnMessage(from isolate.ID, payload value.Value, reply *router.ReplyFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages++
}

func encodeControlFrame(t *testing.T, elems ...value.Value) codec.Frame {
	t.Helper()
	frame, err := codec.Encode(value.NewList(elems))
	require.NoError(t, err)
	return frame
}

// S5 — send with no handler.
func TestScenarioS5SendWithNoHandler(t *testing.T) {
	r := router.New(prometheus.NewRegistry())
	peer := newCapturingPort(true)
	id := r.RegisterIsolate(peer.port())

	var gotErr *router.SendError
	r.Send(id, "c", value.Null(), func(_ value.Value, err *router.SendError) {
		gotErr = err
	})

	sent := peer.last()
	elems, _ := sent.List()
	corrID, _ := elems[1].Int()

	noHandler := encodeControlFrame(t, value.NewString("no_handler"), value.NewI64(corrID), value.NewString("c"))
	r.Deliver(id, noHandler.Buffer, noHandler.Attachments)

	require.NotNil(t, gotErr)
	require.Equal(t, router.HandlerNotRegistered, gotErr.Kind)
	require.Equal(t, "c", gotErr.Channel)
}

// S6 — isolate exit with in-flight replies. Both continuations resolve
// with IsolateShutDown exactly once, and the exit notification reaches
// the delegate strictly before either continuation fires.
func TestScenarioS6IsolateExitWithInFlightReplies(t *testing.T) {
	r := router.New(prometheus.NewRegistry())
	peer := newCapturingPort(true)
	id := r.RegisterIsolate(peer.port())

	var mu sync.Mutex
	var events []string
	delegate := &fakeDelegate{events: &events}
	r.RegisterDelegate("c", delegate)

	var errs []*router.SendError
	k := func(_ value.Value, err *router.SendError) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
		events = append(events, "continuation")
	}
	r.Send(id, "c", value.Null(), k)
	r.Send(id, "c", value.Null(), k)

	r.NotifyIsolateExit(id)

	require.Len(t, errs, 2)
	for _, e := range errs {
		require.NotNil(t, e)
		require.Equal(t, router.IsolateShutDown, e.Kind)
	}
	require.Equal(t, []isolate.ID{id}, delegate.exited)
	require.Equal(t, []string{"delegate_exited", "continuation", "continuation"}, events)

	// The pending table is now empty: a stale reply for either
	// correlation id is silently dropped, not redelivered.
	stale := encodeControlFrame(t, value.NewString("reply"), value.NewI64(0), value.Null())
	require.NotPanics(t, func() { r.Deliver(id, stale.Buffer, stale.Attachments) })
}

// Property 4 — two concurrent sends from the same isolate receive
// distinct correlation ids; replies resolve the correct continuations
// irrespective of arrival order.
func TestDistinctCorrelationIdsResolveCorrectContinuationOutOfOrder(t *testing.T) {
	r := router.New(prometheus.NewRegistry())
	peer := newCapturingPort(true)
	id := r.RegisterIsolate(peer.port())

	var first, second value.Value
	var firstErr, secondErr *router.SendError
	r.Send(id, "c", value.NewString("a"), func(v value.Value, err *router.SendError) {
		first, firstErr = v, err
	})
	r.Send(id, "c", value.NewString("b"), func(v value.Value, err *router.SendError) {
		second, secondErr = v, err
	})

	require.Equal(t, 2, peer.count())
	firstSent, _ := peer.frames[0].List()
	secondSent, _ := peer.frames[1].List()
	firstCorr, _ := firstSent[1].Int()
	secondCorr, _ := secondSent[1].Int()
	require.NotEqual(t, firstCorr, secondCorr)

	// Reply to the second send before the first.
	replySecond := encodeControlFrame(t, value.NewString("reply"), value.NewI64(secondCorr), value.NewString("reply-b"))
	r.Deliver(id, replySecond.Buffer, replySecond.Attachments)
	replyFirst := encodeControlFrame(t, value.NewString("reply"), value.NewI64(firstCorr), value.NewString("reply-a"))
	r.Deliver(id, replyFirst.Buffer, replyFirst.Attachments)

	require.Nil(t, firstErr)
	require.Nil(t, secondErr)
	s1, _ := first.StrVal()
	s2, _ := second.StrVal()
	require.Equal(t, "reply-a", s1)
	require.Equal(t, "reply-b", s2)
}

// Property 5 — registering then immediately unregistering a delegate
// results in on_isolate_joined being seen but no on_message thereafter.
func TestDelegateSeesJoinButNoMessageAfterUnregister(t *testing.T) {
	r := router.New(prometheus.NewRegistry())
	delegate := &fakeDelegate{}
	r.RegisterDelegate("c", delegate)

	peer := newCapturingPort(true)
	id := r.RegisterIsolate(peer.port())
	require.Equal(t, []isolate.ID{id}, delegate.joined)

	r.UnregisterDelegate("c")

	msg := encodeControlFrame(t, value.NewString("message"), value.NewI64(0), value.NewString("c"), value.Null())
	r.Deliver(id, msg.Buffer, msg.Attachments)

	require.Equal(t, 0, delegate.messages)
	last, _ := peer.last().List()
	verb, _ := last[0].StrVal()
	require.Equal(t, "reply_no_channel", verb)
}

func TestSendToUnregisteredIsolateIsInvalidIsolate(t *testing.T) {
	r := router.New(prometheus.NewRegistry())
	var gotErr *router.SendError
	r.Send(isolate.ID(42), "c", value.Null(), func(_ value.Value, err *router.SendError) {
		gotErr = err
	})
	require.NotNil(t, gotErr)
	require.Equal(t, router.InvalidIsolate, gotErr.Kind)
}

func TestSendRefusedByTransport(t *testing.T) {
	r := router.New(prometheus.NewRegistry())
	peer := newCapturingPort(false)
	id := r.RegisterIsolate(peer.port())

	var gotErr *router.SendError
	r.Send(id, "c", value.Null(), func(_ value.Value, err *router.SendError) {
		gotErr = err
	})
	require.NotNil(t, gotErr)
	require.Equal(t, router.MessageRefused, gotErr.Kind)
}

func TestReplyClosureSecondInvocationPanics(t *testing.T) {
	r := router.New(prometheus.NewRegistry())
	peer := newCapturingPort(true)
	id := r.RegisterIsolate(peer.port())

	var captured *router.ReplyFunc
	delegate := &fakeDelegateCapture{capture: func(reply *router.ReplyFunc) { captured = reply }}
	r.RegisterDelegate("c", delegate)

	msg := encodeControlFrame(t, value.NewString("message"), value.NewI64(7), value.NewString("c"), value.Null())
	r.Deliver(id, msg.Buffer, msg.Attachments)

	require.NotNil(t, captured)
	captured.Reply(value.NewI64(1))
	require.Panics(t, func() { captured.Reply(value.NewI64(2)) })
}

type fakeDelegateCapture struct {
	capture func(*router.ReplyFunc)
}

func (d *fakeDelegateCapture) OnIsolateJoined(isolate.ID) {}
func (d *fakeDelegateCapture) OnIsolateExited(isolate.ID) {}
func (d *fakeDelegateCapture) OnMessage(_ isolate.ID, _ value.Value, reply *router.ReplyFunc) {
	d.capture(reply)
}
