package logger

import "context"

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext carries the bridge-request-scoped fields a log line should
// always include when logged via the *Ctx functions: which isolate and
// channel the call concerns, and its correlation id if it's a
// request/reply exchange (spec §4.2's wire fields).
type LogContext struct {
	IsolateID     int64
	Channel       string
	CorrelationID int64
	WindowHandle  int64
}

func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

func (lc *LogContext) WithChannel(channel string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Channel = channel
	}
	return clone
}

func appendContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	ctxArgs := make([]any, 0, 8+len(args))
	if lc.IsolateID != 0 {
		ctxArgs = append(ctxArgs, KeyIsolateID, lc.IsolateID)
	}
	if lc.Channel != "" {
		ctxArgs = append(ctxArgs, KeyChannel, lc.Channel)
	}
	if lc.CorrelationID != 0 {
		ctxArgs = append(ctxArgs, KeyCorrelationID, lc.CorrelationID)
	}
	if lc.WindowHandle != 0 {
		ctxArgs = append(ctxArgs, KeyWindowHandle, lc.WindowHandle)
	}
	return append(ctxArgs, args...)
}
