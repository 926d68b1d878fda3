package nativeobj

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/nativebridge/pkg/value"
)

func withStubbedFinalizer(t *testing.T) *int {
	t.Helper()
	calls := 0
	prev := callFinalizer
	callFinalizer = func(fn uintptr, args ...uintptr) (uintptr, uintptr, syscall.Errno) {
		calls++
		return 0, 0, 0
	}
	t.Cleanup(func() { callFinalizer = prev })
	return &calls
}

func TestCleanupRefusedInvokesFinalizerExactlyOnce(t *testing.T) {
	calls := withStubbedFinalizer(t)
	e := NewExternal(value.NativePointer{
		Address:  0x1000,
		Size:     16,
		Finalizer: value.Finalizer{Callback: 0xdead, PeerData: 0xbeef},
	})

	e.CleanupRefused()
	e.CleanupRefused()

	require.Equal(t, 1, *calls)
}

func TestDropPreventsFinalizerInvocation(t *testing.T) {
	calls := withStubbedFinalizer(t)
	e := NewExternal(value.NativePointer{
		Address:  0x1000,
		Size:     16,
		Finalizer: value.Finalizer{Callback: 0xdead, PeerData: 0xbeef},
	})

	e.Drop()
	e.CleanupRefused()

	require.Equal(t, 0, *calls, "peer owns the finalizer obligation once Drop wins the race")
}

func TestCleanupRefusedNoopWithoutFinalizer(t *testing.T) {
	calls := withStubbedFinalizer(t)
	e := NewExternal(value.NativePointer{Address: 0x1000, Size: 16})

	e.CleanupRefused()

	require.Equal(t, 0, *calls)
}
