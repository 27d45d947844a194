package handle

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeResource struct{ id int }

func TestUseReturnsRaw(t *testing.T) {
	res := &fakeResource{id: 7}
	freed := 0
	h := New(res, func(*fakeResource) { freed++ })
	defer h.Dispose()

	got, err := h.Use()
	require.NoError(t, err)
	require.Same(t, res, got)
	require.Zero(t, freed)
	require.False(t, h.Disposed())
}

func TestDisposeInvokesDestructorOnce(t *testing.T) {
	freed := 0
	h := New(&fakeResource{}, func(*fakeResource) { freed++ })

	h.Dispose()
	require.Equal(t, 1, freed)
	require.True(t, h.Disposed())

	// Idempotent: repeated disposal has the same observable effect as one.
	h.Dispose()
	h.Dispose()
	require.Equal(t, 1, freed)
}

func TestUseAfterDispose(t *testing.T) {
	h := New(&fakeResource{}, func(*fakeResource) {})
	h.Dispose()

	got, err := h.Use()
	require.Nil(t, got)
	require.ErrorIs(t, err, ErrDisposed)
}

func TestNilHandle(t *testing.T) {
	var h *Handle[*fakeResource]
	_, err := h.Use()
	require.ErrorIs(t, err, ErrDisposed)
	require.True(t, h.Disposed())
	h.Dispose() // must not panic
}

func TestFinalizerBackstop(t *testing.T) {
	freed := make(chan struct{}, 2)

	func() {
		h := New(&fakeResource{}, func(*fakeResource) { freed <- struct{}{} })
		_, err := h.Use()
		require.NoError(t, err)
		// Drop the only reference without disposing.
	}()

	deadline := time.After(5 * time.Second)
	for {
		runtime.GC()
		select {
		case <-freed:
			// Exactly one destructor run: a second one would show up below.
			runtime.GC()
			runtime.GC()
			select {
			case <-freed:
				t.Fatal("destructor ran more than once")
			case <-time.After(50 * time.Millisecond):
			}
			return
		case <-deadline:
			t.Fatal("finalizer never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestExplicitDisposeDetachesFinalizer(t *testing.T) {
	freed := make(chan struct{}, 2)

	func() {
		h := New(&fakeResource{}, func(*fakeResource) { freed <- struct{}{} })
		h.Dispose()
	}()

	select {
	case <-freed:
	default:
		t.Fatal("explicit dispose did not run destructor")
	}

	// The backstop must not fire a second time after explicit disposal.
	for i := 0; i < 5; i++ {
		runtime.GC()
	}
	select {
	case <-freed:
		t.Fatal("finalizer fired after explicit dispose")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestErrDisposedIsStable(t *testing.T) {
	h := New(&fakeResource{}, nil)
	h.Dispose()
	_, err := h.Use()
	require.True(t, errors.Is(err, ErrDisposed))
}
