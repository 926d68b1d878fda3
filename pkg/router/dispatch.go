package router

import (
	"github.com/marmos91/nativebridge/internal/logger"
	"github.com/marmos91/nativebridge/pkg/codec"
	"github.com/marmos91/nativebridge/pkg/isolate"
	"github.com/marmos91/nativebridge/pkg/nativeobj"
	"github.com/marmos91/nativebridge/pkg/value"
)

// Deliver handles one inbound frame arriving from isolate from's port
// (spec §4.2.3). It is the router-side counterpart of the post_message
// FFI entry point (spec §6.1): in production, the cgo shim decodes the
// isolate id from its own bookkeeping and calls this once per frame. A
// frame that fails to decode or doesn't match the expected
// [verb, ...] shape is dropped — malformed input is fatal to that one
// frame only and must never poison the router (spec §7).
func (r *Router) Deliver(from isolate.ID, buf []byte, attachments []nativeobj.Object) {
	v, err := codec.Decode(codec.Frame{Buffer: buf, Attachments: attachments})
	if err != nil {
		logger.Debug("dropping undecodable frame", logger.KeyIsolateID, int64(from), logger.KeyError, err.Error())
		return
	}
	elems, ok := v.List()
	if !ok || len(elems) == 0 {
		logger.Debug("dropping malformed frame", logger.KeyIsolateID, int64(from))
		return
	}
	verb, ok := elems[0].StrVal()
	if !ok {
		logger.Debug("dropping frame with non-string verb", logger.KeyIsolateID, int64(from))
		return
	}

	switch verb {
	case "message":
		r.dispatchMessage(from, elems)
	case "reply":
		r.dispatchReply(elems)
	case "no_channel", "reply_no_channel":
		r.dispatchNoChannel(elems)
	case "no_handler":
		r.dispatchNoHandler(elems)
	}
}

func (r *Router) dispatchMessage(from isolate.ID, elems []value.Value) {
	if len(elems) < 4 {
		return
	}
	corrID, ok := elems[1].Int()
	if !ok {
		return
	}
	channel, ok := elems[2].StrVal()
	if !ok {
		return
	}
	payload := elems[3]
	r.metrics.messagesDispatched.WithLabelValues("message").Inc()

	r.mu.Lock()
	delegate, found := r.delegates[channel]
	r.mu.Unlock()

	if !found {
		r.sendControlReply(from, "reply_no_channel", corrID, value.NewString(channel))
		return
	}

	reply := newReplyFunc(func(v value.Value) bool {
		return r.sendReply(from, corrID, v)
	})
	delegate.OnMessage(from, payload, reply)
}

func (r *Router) dispatchReply(elems []value.Value) {
	if len(elems) < 3 {
		return
	}
	corrID, ok := elems[1].Int()
	if !ok {
		return
	}
	payload := elems[2]
	r.metrics.messagesDispatched.WithLabelValues("reply").Inc()

	r.mu.Lock()
	p, found := r.pending[corrID]
	if found {
		delete(r.pending, corrID)
		r.metrics.pendingReplies.Set(float64(len(r.pending)))
	}
	r.mu.Unlock()
	if found {
		p.k(payload, nil)
	}
}

func (r *Router) dispatchNoChannel(elems []value.Value) {
	r.finishPendingWithChannelError(elems, "no_channel", errChannelNotFound)
}

func (r *Router) dispatchNoHandler(elems []value.Value) {
	r.finishPendingWithChannelError(elems, "no_handler", errHandlerNotRegistered)
}

func (r *Router) finishPendingWithChannelError(elems []value.Value, verbLabel string, mk func(string) *SendError) {
	if len(elems) < 3 {
		return
	}
	corrID, ok := elems[1].Int()
	if !ok {
		return
	}
	channel, ok := elems[2].StrVal()
	if !ok {
		return
	}
	r.metrics.messagesDispatched.WithLabelValues(verbLabel).Inc()
	r.failPending(corrID, mk(channel), verbLabel)
}

// sendControlReply encodes [verb, correlation_id, extra] and transmits
// it through to's port (used for "reply_no_channel").
func (r *Router) sendControlReply(to isolate.ID, verb string, corrID int64, extra value.Value) bool {
	r.mu.Lock()
	port, ok := r.registry.Lookup(to)
	r.mu.Unlock()
	if !ok {
		return false
	}
	frame, err := codec.Encode(value.NewList([]value.Value{
		value.NewString(verb), value.NewI64(corrID), extra,
	}))
	if err != nil {
		return false
	}
	accepted := port.Post(frame.Buffer, frame.Attachments)
	if !accepted {
		cleanupAttachments(frame.Attachments)
	}
	return accepted
}

// sendReply encodes ["reply", correlation_id, payload] and transmits it
// through to's port — the frame a delegate's reply closure produces
// (spec §4.2.3).
func (r *Router) sendReply(to isolate.ID, corrID int64, payload value.Value) bool {
	r.mu.Lock()
	port, ok := r.registry.Lookup(to)
	r.mu.Unlock()
	if !ok {
		return false
	}
	frame, err := codec.Encode(value.NewList([]value.Value{
		value.NewString("reply"), value.NewI64(corrID), payload,
	}))
	if err != nil {
		return false
	}
	accepted := port.Post(frame.Buffer, frame.Attachments)
	if !accepted {
		cleanupAttachments(frame.Attachments)
	}
	return accepted
}
