package methodchannel_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nativebridge/pkg/isolate"
	"github.com/marmos91/nativebridge/pkg/methodchannel"
	"github.com/marmos91/nativebridge/pkg/nativeobj"
	"github.com/marmos91/nativebridge/pkg/router"
	"github.com/marmos91/nativebridge/pkg/transport"
	"github.com/marmos91/nativebridge/pkg/value"
)

func TestInvokeMethodAgainstUnattachedWindowFailsFast(t *testing.T) {
	r := router.New(prometheus.NewRegistry())
	layer := methodchannel.New(r)

	var got methodchannel.MethodResult
	layer.InvokeMethod(7, "c", "m", value.Null(), func(res methodchannel.MethodResult) {
		got = res
	})

	require.NotNil(t, got.Err)
	require.Equal(t, "no_window", got.Err.Code)
}

func TestHandleOnChannelServesLocalWindow(t *testing.T) {
	r := router.New(prometheus.NewRegistry())
	layer := methodchannel.New(r)

	var id isolate.ID
	port := transport.New(func(buf []byte, attachments []nativeobj.Object) bool {
		r.Deliver(id, buf, attachments)
		return true
	})
	id = r.RegisterIsolate(port)
	layer.AttachWindow(1, id)

	layer.HandleOnChannel("greet", func(call methodchannel.MethodCall, reply func(methodchannel.MethodResult), from isolate.ID) {
		require.Equal(t, "hello", call.Method)
		reply(methodchannel.MethodResult{Value: value.NewString("hi")})
	})

	var got methodchannel.MethodResult
	layer.InvokeMethod(1, "greet", "hello", value.Null(), func(res methodchannel.MethodResult) {
		got = res
	})

	require.Nil(t, got.Err)
	s, ok := got.Value.StrVal()
	require.True(t, ok)
	require.Equal(t, "hi", s)
}

func TestInvokeMethodNoHandlerRegistered(t *testing.T) {
	r := router.New(prometheus.NewRegistry())
	layer := methodchannel.New(r)

	var id isolate.ID
	port := transport.New(func(buf []byte, attachments []nativeobj.Object) bool {
		r.Deliver(id, buf, attachments)
		return true
	})
	id = r.RegisterIsolate(port)
	layer.AttachWindow(2, id)

	var got methodchannel.MethodResult
	layer.InvokeMethod(2, "missing", "m", value.Null(), func(res methodchannel.MethodResult) {
		got = res
	})

	require.NotNil(t, got.Err)
	require.Equal(t, "not_implemented", got.Err.Code)
}

// Forward: a call whose target window lives on a different isolate than
// the caller is re-routed to the correct window's dispatcher channel.
func TestForwardsCallToCorrectWindow(t *testing.T) {
	r := router.New(prometheus.NewRegistry())
	layer := methodchannel.New(r)

	var windowAID, windowBID isolate.ID
	portA := transport.New(func(buf []byte, attachments []nativeobj.Object) bool {
		r.Deliver(windowAID, buf, attachments)
		return true
	})
	portB := transport.New(func(buf []byte, attachments []nativeobj.Object) bool {
		r.Deliver(windowBID, buf, attachments)
		return true
	})
	windowAID = r.RegisterIsolate(portA)
	windowBID = r.RegisterIsolate(portB)
	layer.AttachWindow(10, windowAID)
	layer.AttachWindow(20, windowBID)

	layer.HandleOnChannel("ping", func(call methodchannel.MethodCall, reply func(methodchannel.MethodResult), from isolate.ID) {
		reply(methodchannel.MethodResult{Value: value.NewI64(int64(call.TargetWindowHandle))})
	})

	// Simulate window A's isolate sending a call addressed to window B
	// directly into the dispatcher channel (bypassing InvokeMethod,
	// since this models the peer side originating the call).
	call := value.NewMap([]value.Pair{
		{Key: value.NewString("targetWindowHandle"), Val: value.NewI64(20)},
		{Key: value.NewString("method"), Val: value.NewString("ping")},
		{Key: value.NewString("channel"), Val: value.NewString("ping")},
		{Key: value.NewString("arguments"), Val: value.Null()},
	})

	var replyErr *router.SendError
	var replyVal value.Value
	r.Send(windowAID, methodchannel.DispatcherChannel, call, func(v value.Value, err *router.SendError) {
		replyVal, replyErr = v, err
	})

	require.Nil(t, replyErr)
	pairs, ok := replyVal.Pairs()
	require.True(t, ok)
	require.Len(t, pairs, 1)
	key, _ := pairs[0].Key.StrVal()
	require.Equal(t, "result", key)
	n, _ := pairs[0].Val.Int()
	require.Equal(t, int64(20), n)
}

func TestBroadcastSkipsUninitializedWindows(t *testing.T) {
	r := router.New(prometheus.NewRegistry())
	layer := methodchannel.New(r)

	var received []value.Value
	delegate := recordingDelegate{onMessage: func(from isolate.ID, payload value.Value, reply *router.ReplyFunc) {
		received = append(received, payload)
	}}
	r.RegisterDelegate("events", &delegate)

	var attachedID isolate.ID
	port := transport.New(func(buf []byte, attachments []nativeobj.Object) bool {
		r.Deliver(attachedID, buf, attachments)
		return true
	})
	attachedID = r.RegisterIsolate(port)
	layer.AttachWindow(1, attachedID)
	// Window 2 is never attached: Broadcast must not error or hang on it.

	layer.Broadcast("events", value.NewString("tick"))

	require.Len(t, received, 1)
	s, _ := received[0].StrVal()
	require.Equal(t, "tick", s)
}

// recordingDelegate lets a test observe inbound "message" traffic sent
// to an isolate's own registered channel, standing in for that
// isolate's own delegate logic in these tests.
type recordingDelegate struct {
	onMessage func(from isolate.ID, payload value.Value, reply *router.ReplyFunc)
}

func (d *recordingDelegate) OnIsolateJoined(isolate.ID) {}
func (d *recordingDelegate) OnIsolateExited(isolate.ID) {}
func (d *recordingDelegate) OnMessage(from isolate.ID, payload value.Value, reply *router.ReplyFunc) {
	d.onMessage(from, payload, reply)
}
