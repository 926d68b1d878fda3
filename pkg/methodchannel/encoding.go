package methodchannel

import (
	"fmt"

	"github.com/marmos91/nativebridge/pkg/value"
)

// Hand-written converters, per spec §6.3's carve-out: "Hand-written
// converters for the few manually-defined API types are acceptable" —
// MethodCall and its result shapes are exactly those few types; the
// generic reflect-based mapping lives in pkg/valueconv for everything
// else.

func encodeMethodCall(call MethodCall) value.Value {
	return value.NewMap([]value.Pair{
		{Key: value.NewString("targetWindowHandle"), Val: value.NewI64(int64(call.TargetWindowHandle))},
		{Key: value.NewString("method"), Val: value.NewString(call.Method)},
		{Key: value.NewString("channel"), Val: value.NewString(call.Channel)},
		{Key: value.NewString("arguments"), Val: call.Arguments},
	})
}

func decodeMethodCall(payload value.Value) (MethodCall, error) {
	pairs, ok := payload.Pairs()
	if !ok {
		return MethodCall{}, fmt.Errorf("method call payload is not a map")
	}

	var call MethodCall
	for _, p := range pairs {
		key, ok := p.Key.StrVal()
		if !ok {
			continue
		}
		switch key {
		case "targetWindowHandle":
			n, ok := p.Val.Int()
			if !ok {
				return MethodCall{}, fmt.Errorf("targetWindowHandle is not an integer")
			}
			call.TargetWindowHandle = WindowHandle(n)
		case "method":
			call.Method, _ = p.Val.StrVal()
		case "channel":
			call.Channel, _ = p.Val.StrVal()
		case "arguments":
			call.Arguments = p.Val
		}
	}
	return call, nil
}

func encodeSuccess(v value.Value) value.Value {
	return value.NewMap([]value.Pair{{Key: value.NewString("result"), Val: v}})
}

func encodeError(e *MethodCallError) value.Value {
	pairs := []value.Pair{
		{Key: value.NewString("code"), Val: value.NewString(e.Code)},
	}
	if e.Message != "" {
		pairs = append(pairs, value.Pair{Key: value.NewString("message"), Val: value.NewString(e.Message)})
	}
	pairs = append(pairs, value.Pair{Key: value.NewString("details"), Val: e.Details})
	return value.NewMap(pairs)
}

func decodeMethodResult(v value.Value) MethodResult {
	pairs, ok := v.Pairs()
	if !ok {
		return MethodResult{Err: &MethodCallError{Code: "malformed_reply", Message: "reply payload is not a map"}}
	}

	fields := make(map[string]value.Value, len(pairs))
	for _, p := range pairs {
		if k, ok := p.Key.StrVal(); ok {
			fields[k] = p.Val
		}
	}

	if result, ok := fields["result"]; ok {
		return MethodResult{Value: result}
	}

	code, _ := fields["code"].StrVal()
	message, _ := fields["message"].StrVal()
	return MethodResult{Err: &MethodCallError{
		Code:    code,
		Message: message,
		Details: fields["details"],
	}}
}
