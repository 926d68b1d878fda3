// Package methodchannel implements the Method Channel Layer (spec §4.3,
// component G): addressed method invocations between windows, built as
// a single router.Delegate bound to the reserved ":dispatcher" channel.
package methodchannel

import (
	"fmt"
	"sync"

	"github.com/marmos91/nativebridge/pkg/isolate"
	"github.com/marmos91/nativebridge/pkg/router"
	"github.com/marmos91/nativebridge/pkg/value"
)

// DispatcherChannel is the single reserved channel every window's
// isolate uses for method-channel traffic (spec §4.3.1).
const DispatcherChannel = ":dispatcher"

// WindowHandle identifies one window's isolate binding for the purposes
// of addressed method calls and broadcast (spec §4.3).
type WindowHandle int64

// MethodCall is the two-level-addressed invocation payload (spec §4.3):
// the Map `{targetWindowHandle, method, channel, arguments}`.
type MethodCall struct {
	TargetWindowHandle WindowHandle
	Method             string
	Channel            string
	Arguments          value.Value
}

// MethodCallError is the error half of a method result (spec §4.3: Map
// `{code, message?, details}`).
type MethodCallError struct {
	Code    string
	Message string
	Details value.Value
}

func (e *MethodCallError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// MethodResult is the outcome handed back from InvokeMethod and produced
// by a registered Handler: exactly one of Value or Err is meaningful.
type MethodResult struct {
	Value value.Value
	Err   *MethodCallError
}

// Handler serves calls on one registered channel name. reply is
// single-shot: call it exactly once with the call's outcome. from is the
// isolate the call originated from (spec §4.3.1: "handler receives
// (call, reply, originating_engine)").
type Handler func(call MethodCall, reply func(MethodResult), from isolate.ID)

// Layer is the process-wide method-channel switchboard: one
// router.Delegate registered on DispatcherChannel, fanning addressed
// calls out to per-channel Handlers and re-routing calls whose target
// window lives on a different isolate (spec §4.3.1 "Forward").
type Layer struct {
	mu       sync.Mutex
	r        *router.Router
	windows  map[WindowHandle]isolate.ID
	handlers map[string]Handler
}

// New constructs a Layer and registers it as r's delegate for
// DispatcherChannel.
func New(r *router.Router) *Layer {
	l := &Layer{
		r:        r,
		windows:  make(map[WindowHandle]isolate.ID),
		handlers: make(map[string]Handler),
	}
	r.RegisterDelegate(DispatcherChannel, l)
	return l
}

// AttachWindow marks window as initialized and bound to id: Broadcast
// will now reach it, and calls targeting it will be delivered or
// forwarded (spec §4.3.1 "Uninitialized windows are skipped").
func (l *Layer) AttachWindow(window WindowHandle, id isolate.ID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows[window] = id
}

// DetachWindow marks window uninitialized again (e.g. on window close).
func (l *Layer) DetachWindow(window WindowHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, window)
}

// HandleOnChannel registers h to serve calls addressed to channel on
// this window's isolate (spec §4.3.1 "Handle on channel"). A second
// registration for the same channel replaces the first.
func (l *Layer) HandleOnChannel(channel string, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[channel] = h
}

// StopHandling removes whatever handler is bound to channel, if any.
func (l *Layer) StopHandling(channel string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.handlers, channel)
}

// InvokeMethod encodes and sends a method call to window, decoding its
// reply into a MethodResult (spec §4.3.1 "Invoke on window"). k fires
// exactly once.
func (l *Layer) InvokeMethod(window WindowHandle, channel, method string, args value.Value, k func(MethodResult)) {
	l.mu.Lock()
	target, attached := l.windows[window]
	l.mu.Unlock()

	if !attached {
		k(MethodResult{Err: &MethodCallError{Code: "no_window", Message: "target window is not attached"}})
		return
	}

	call := MethodCall{TargetWindowHandle: window, Method: method, Channel: channel, Arguments: args}
	l.r.Send(target, DispatcherChannel, encodeMethodCall(call), func(v value.Value, sendErr *router.SendError) {
		if sendErr != nil {
			k(MethodResult{Err: sendErrorToMethodCallError(sendErr)})
			return
		}
		k(decodeMethodResult(v))
	})
}

// Broadcast sends payload on channel to every attached (initialized)
// window, ignoring replies (spec §4.3.1 "Broadcast"). Uninitialized
// windows are never in l.windows, so they're skipped for free.
func (l *Layer) Broadcast(channel string, payload value.Value) {
	l.mu.Lock()
	targets := make([]isolate.ID, 0, len(l.windows))
	for _, id := range l.windows {
		targets = append(targets, id)
	}
	l.mu.Unlock()

	for _, id := range targets {
		l.r.Send(id, channel, payload, func(value.Value, *router.SendError) {})
	}
}

// OnIsolateJoined implements router.Delegate. The method-channel layer
// doesn't attach windows on its own; AttachWindow is the caller's
// explicit signal once a window's isolate is ready to receive calls.
func (l *Layer) OnIsolateJoined(isolate.ID) {}

// OnIsolateExited implements router.Delegate: any window bound to the
// departed isolate reverts to uninitialized, matching Broadcast's
// skip-uninitialized-windows rule.
func (l *Layer) OnIsolateExited(id isolate.ID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for window, bound := range l.windows {
		if bound == id {
			delete(l.windows, window)
		}
	}
}

// OnMessage implements router.Delegate: the single entry point for
// every method call arriving on DispatcherChannel, from any isolate.
func (l *Layer) OnMessage(from isolate.ID, payload value.Value, reply *router.ReplyFunc) {
	call, err := decodeMethodCall(payload)
	if err != nil {
		reply.Reply(encodeError(&MethodCallError{Code: "bad_call", Message: err.Error()}))
		return
	}

	l.mu.Lock()
	target, attached := l.windows[call.TargetWindowHandle]
	l.mu.Unlock()

	if !attached {
		reply.Reply(encodeError(&MethodCallError{Code: "no_window", Message: "target window is not attached"}))
		return
	}

	if target == from {
		l.handleLocally(from, call, reply)
		return
	}

	// spec §4.3.1 "Forward": the call landed on the wrong isolate's
	// dispatcher channel; re-encode and re-route to the correct window.
	l.forward(target, call, reply)
}

func (l *Layer) handleLocally(from isolate.ID, call MethodCall, reply *router.ReplyFunc) {
	l.mu.Lock()
	h, ok := l.handlers[call.Channel]
	l.mu.Unlock()

	if !ok {
		reply.Reply(encodeError(&MethodCallError{Code: "not_implemented", Message: fmt.Sprintf("no handler for channel %q", call.Channel)}))
		return
	}

	h(call, func(res MethodResult) {
		if res.Err != nil {
			reply.Reply(encodeError(res.Err))
		} else {
			reply.Reply(encodeSuccess(res.Value))
		}
	}, from)
}

func (l *Layer) forward(to isolate.ID, call MethodCall, reply *router.ReplyFunc) {
	l.r.Send(to, DispatcherChannel, encodeMethodCall(call), func(v value.Value, sendErr *router.SendError) {
		if sendErr != nil {
			reply.Reply(encodeError(sendErrorToMethodCallError(sendErr)))
			return
		}
		reply.Reply(v)
	})
}

func sendErrorToMethodCallError(e *router.SendError) *MethodCallError {
	code := "send_failed"
	switch e.Kind {
	case router.InvalidIsolate:
		code = "invalid_isolate"
	case router.MessageRefused:
		code = "message_refused"
	case router.IsolateShutDown:
		code = "isolate_shut_down"
	case router.ChannelNotFound:
		code = "no_channel"
	case router.HandlerNotRegistered:
		code = "no_handler"
	}
	return &MethodCallError{Code: code, Message: e.Error()}
}
