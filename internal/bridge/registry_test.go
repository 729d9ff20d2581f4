package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyModule struct {
	BaseModule
	calls  atomic.Int32
	handle func(action string, payload Value) (Value, error)
}

func newSpy(name string, actions ...string) *spyModule {
	return &spyModule{BaseModule: NewBaseModule(name, actions...)}
}

func (s *spyModule) Handle(_ context.Context, action string, payload Value, _ *CallContext) (Value, error) {
	s.calls.Add(1)
	if s.handle != nil {
		return s.handle(action, payload)
	}
	return payload, nil
}

func TestRegistryOverwriteSemantics(t *testing.T) {
	r := NewRegistry()
	first := newSpy("a", "x")
	second := newSpy("a", "x")

	require.True(t, r.Register(first))
	assert.False(t, r.Register(second, NoOverwrite()))

	got, ok := r.Module("a")
	require.True(t, ok)
	assert.Same(t, first, got)

	assert.True(t, r.Register(second))
	got, _ = r.Module("a")
	assert.Same(t, second, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRegisterIf(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.RegisterIf(false, newSpy("off")))
	assert.False(t, r.Has("off"))

	assert.True(t, r.RegisterIf(true, newSpy("on")))
	assert.True(t, r.Has("on"))

	r.Register(newSpy("taken"))
	assert.False(t, r.RegisterIf(true, newSpy("taken"), NoOverwrite()))
}

func TestRegistryListingIsSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"share", "app", "preferences", "biometrics"} {
		r.Register(newSpy(name))
	}

	assert.Equal(t, []string{"app", "biometrics", "preferences", "share"}, r.Names())

	assert.True(t, r.Unregister("app"))
	assert.False(t, r.Unregister("app"))
	assert.Equal(t, 3, r.Len())

	r.RemoveAll()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Names())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Go(func() {
			r.Register(newSpy(fmt.Sprintf("m%02d", i), "ping"))
		})
		wg.Go(func() {
			if m, ok := r.Module(fmt.Sprintf("m%02d", i)); ok {
				assert.True(t, Supports(m, "ping"))
			}
			_ = r.Names()
		})
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
}
