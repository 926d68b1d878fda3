package router

import (
	"sync"

	"github.com/marmos91/nativebridge/pkg/isolate"
	"github.com/marmos91/nativebridge/pkg/value"
)

// Delegate is a registered recipient for messages on a named channel,
// plus an observer of isolate lifecycle events (GLOSSARY, spec §4.2.5).
// Represented as a capability interface rather than a base class, per
// spec §9 ("avoid inheritance").
type Delegate interface {
	OnIsolateJoined(id isolate.ID)
	OnIsolateExited(id isolate.ID)
	OnMessage(from isolate.ID, payload value.Value, reply *ReplyFunc)
}

// ReplyFunc is the single-shot reply capability handed to a delegate's
// OnMessage (spec §4.2.3, §9: "a move-only capability that debits itself
// on first use"). Go has no move-only types, so the debit is enforced at
// runtime via sync.Once; a second call is a programmer error and panics,
// exactly as spec §4.2.5 allows ("re-invocation is a programmer error
// and MAY panic").
type ReplyFunc struct {
	once   sync.Once
	invoke func(value.Value) bool
}

func newReplyFunc(invoke func(value.Value) bool) *ReplyFunc {
	return &ReplyFunc{invoke: invoke}
}

// Reply invokes the capability exactly once and returns whether the
// transport accepted the resulting "reply" frame (spec §4.2.3: "The
// closure returns a boolean indicating whether transport accepted it").
func (r *ReplyFunc) Reply(v value.Value) bool {
	firedThisCall := false
	accepted := false
	r.once.Do(func() {
		firedThisCall = true
		accepted = r.invoke(v)
	})
	if !firedThisCall {
		panic("router: reply closure invoked more than once")
	}
	return accepted
}
