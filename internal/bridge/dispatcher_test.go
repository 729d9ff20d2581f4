package bridge

import (
	"context"
	"errors"
	"math"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(modules ...Module) *Dispatcher {
	r := NewRegistry()
	for _, m := range modules {
		r.Register(m)
	}
	return NewDispatcher(r, nil)
}

func TestDispatchUnknownModule(t *testing.T) {
	d := newTestDispatcher(newSpy("platform", "getInfo"))

	resp := d.Dispatch(context.Background(), []byte(`{"id":"x","module":"doesNotExist","action":"a"}`), nil)

	assert.Equal(t, "x", resp.ID)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Contains(t, *resp.Error, "Unknown module")
	assert.Nil(t, resp.Data)
}

func TestDispatchUnknownActionSkipsHandler(t *testing.T) {
	spy := newSpy("platform", "getInfo")
	d := newTestDispatcher(spy)

	resp := d.Dispatch(context.Background(), []byte(`{"id":"y","module":"platform","action":"reboot"}`), nil)

	assert.Equal(t, "y", resp.ID)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Contains(t, *resp.Error, "Unknown action")
	assert.Equal(t, int32(0), spy.calls.Load())
}

func TestDispatchSuccessEchoesID(t *testing.T) {
	spy := newSpy("echo", "say")
	d := newTestDispatcher(spy)

	resp := d.Dispatch(context.Background(), []byte(`{"id":"42","module":"echo","action":"say","payload":{"text":"hi"}}`), nil)

	require.True(t, resp.Success)
	assert.Equal(t, "42", resp.ID)
	require.NotNil(t, resp.Data)
	text, _ := resp.Data.Get("text").AsString()
	assert.Equal(t, "hi", text)
	assert.Nil(t, resp.Error)
	assert.Equal(t, int32(1), spy.calls.Load())
}

func TestDispatchNilResultIsNullData(t *testing.T) {
	spy := newSpy("void", "run")
	spy.handle = func(string, Value) (Value, error) { return Value{}, nil }
	d := newTestDispatcher(spy)

	resp := d.DispatchMessage(context.Background(), Message{ID: "1", Module: "void", Action: "run"}, nil)

	require.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.True(t, resp.Data.IsNull())
}

func TestDispatchMalformedInputUsesSentinel(t *testing.T) {
	d := newTestDispatcher()

	for _, raw := range []string{`not json`, `[1,2,3]`, `{"id":`, ``} {
		resp := d.Dispatch(context.Background(), []byte(raw), nil)
		assert.Equal(t, ParseErrorID, resp.ID, raw)
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
	}
}

func TestDispatchInvalidMessageEchoesRecoverableID(t *testing.T) {
	d := newTestDispatcher()

	resp := d.Dispatch(context.Background(), []byte(`{"id":"abc","action":"a"}`), nil)
	assert.Equal(t, "abc", resp.ID)
	assert.False(t, resp.Success)
	assert.Contains(t, *resp.Error, "missing module")

	resp = d.Dispatch(context.Background(), []byte(`{"id":7,"module":"m","action":"a"}`), nil)
	assert.Equal(t, ParseErrorID, resp.ID)
}

func TestDispatchMapsHandlerErrors(t *testing.T) {
	spy := newSpy("store", "get", "put", "explode")
	spy.handle = func(action string, _ Value) (Value, error) {
		switch action {
		case "get":
			return Value{}, InvalidPayload("missing %q", "key")
		case "put":
			return Value{}, errors.New("disk full")
		}
		panic("kaboom")
	}
	d := newTestDispatcher(spy)
	ctx := context.Background()

	resp := d.DispatchMessage(ctx, Message{ID: "1", Module: "store", Action: "get"}, nil)
	assert.False(t, resp.Success)
	assert.Equal(t, `Invalid payload: missing "key"`, *resp.Error)

	resp = d.DispatchMessage(ctx, Message{ID: "2", Module: "store", Action: "put"}, nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "Module error: disk full", *resp.Error)

	resp = d.DispatchMessage(ctx, Message{ID: "3", Module: "store", Action: "explode"}, nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "3", resp.ID)
	assert.Contains(t, *resp.Error, "panic: kaboom")
}

func TestDispatchPassesCallContextThrough(t *testing.T) {
	var seen *CallContext
	m := &contextProbe{BaseModule: NewBaseModule("probe", "look"), seen: &seen}
	d := newTestDispatcher(m)

	anchor := &UIAnchor{UI: titleRecorder{}}
	call := NewCallContext(nil, nil, anchor)
	d.DispatchMessage(context.Background(), Message{ID: "1", Module: "probe", Action: "look"}, call)

	assert.Same(t, call, seen)
	ui, ok := seen.UI()
	require.True(t, ok)
	assert.Equal(t, titleRecorder{}, ui)
	runtime.KeepAlive(anchor)
}

type contextProbe struct {
	BaseModule
	seen **CallContext
}

func (p *contextProbe) Handle(_ context.Context, _ string, _ Value, call *CallContext) (Value, error) {
	*p.seen = call
	return Null(), nil
}

type titleRecorder struct{}

func (titleRecorder) SetTitle(string) {}

func TestDispatchUnencodableResultBecomesModuleError(t *testing.T) {
	spy := newSpy("math", "inf", "nan")
	spy.handle = func(action string, _ Value) (Value, error) {
		if action == "inf" {
			return Object(map[string]Value{"x": Double(math.Inf(1))}), nil
		}
		return Double(math.NaN()), nil
	}
	d := newTestDispatcher(spy)

	for _, action := range []string{"inf", "nan"} {
		resp := d.DispatchMessage(context.Background(), Message{ID: action, Module: "math", Action: action}, nil)
		assert.False(t, resp.Success, action)
		require.NotNil(t, resp.Error)
		assert.Contains(t, *resp.Error, "Module error: result not encodable")

		out, err := resp.MarshalJSON()
		require.NoError(t, err)
		assert.Contains(t, string(out), `"id":"`+action+`"`)
	}
}
