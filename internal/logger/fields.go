package logger

import "log/slog"

// Standard field keys, kept consistent across every call site so logs
// can be filtered/aggregated the same way regardless of which
// component emitted them.
const (
	KeyIsolateID     = "isolate_id"
	KeyChannel       = "channel"
	KeyCorrelationID = "correlation_id"
	KeyWindowHandle  = "window_handle"
	KeyVerb          = "verb"
	KeyMethod        = "method"
	KeyDurationMs    = "duration_ms"
	KeyError         = "error"
	KeyOutcome       = "outcome"
	KeyBytes         = "bytes"
	KeyAttachments   = "attachments"
)

func IsolateID(id int64) slog.Attr     { return slog.Int64(KeyIsolateID, id) }
func Channel(name string) slog.Attr    { return slog.String(KeyChannel, name) }
func CorrelationID(id int64) slog.Attr { return slog.Int64(KeyCorrelationID, id) }
func WindowHandle(h int64) slog.Attr   { return slog.Int64(KeyWindowHandle, h) }
func Verb(v string) slog.Attr          { return slog.String(KeyVerb, v) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func DurationMs(ms float64) slog.Attr  { return slog.Float64(KeyDurationMs, ms) }
func Outcome(o string) slog.Attr       { return slog.String(KeyOutcome, o) }
func Bytes(n int) slog.Attr            { return slog.Int(KeyBytes, n) }
func Attachments(n int) slog.Attr      { return slog.Int(KeyAttachments, n) }

func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
