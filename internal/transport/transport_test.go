package transport

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/config"
	"github.com/arko-chat/pwashell/internal/logger"
)

type recordingHost struct {
	mu      sync.Mutex
	scripts []string
}

func (h *recordingHost) Eval(js string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scripts = append(h.scripts, js)
}

func (h *recordingHost) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.scripts...)
}

// decodeScripts pulls the JSON argument back out of each delivered snippet.
func decodeScripts(t *testing.T, scripts []string, prefix string) []json.RawMessage {
	t.Helper()
	var out []json.RawMessage
	for _, js := range scripts {
		if !strings.HasPrefix(js, prefix) {
			continue
		}
		arg := strings.TrimSuffix(strings.TrimPrefix(js, prefix+"("), ");")
		var s string
		require.NoError(t, json.Unmarshal([]byte(arg), &s))
		out = append(out, json.RawMessage(s))
	}
	return out
}

type funcModule struct {
	bridge.BaseModule
	fn func(ctx context.Context, action string, payload bridge.Value, call *bridge.CallContext) (bridge.Value, error)
}

func (m *funcModule) Handle(ctx context.Context, action string, payload bridge.Value, call *bridge.CallContext) (bridge.Value, error) {
	return m.fn(ctx, action, payload, call)
}

func newAdapter(t *testing.T, host Host, modules ...bridge.Module) *Adapter {
	t.Helper()
	reg := bridge.NewRegistry()
	for _, m := range modules {
		reg.Register(m)
	}
	a := NewAdapter(bridge.NewDispatcher(reg, logger.Discard()), host, Options{
		Config: config.Default,
		Logger: logger.Discard(),
	})
	t.Cleanup(a.Close)
	return a
}

func TestAdapterDeliversResponses(t *testing.T) {
	host := &recordingHost{}
	echo := &funcModule{
		BaseModule: bridge.NewBaseModule("echo", "say"),
		fn: func(_ context.Context, _ string, p bridge.Value, call *bridge.CallContext) (bridge.Value, error) {
			assert.True(t, call.Feature("share"))
			return p, nil
		},
	}
	a := newAdapter(t, host, echo)

	a.Receive(`{"id":"1","module":"echo","action":"say","payload":"a b"}`)
	a.Receive([]byte(`{"id":"2","module":"nope","action":"x"}`))
	a.Receive(map[string]any{"id": "3", "module": "echo", "action": "say", "payload": map[string]any{"n": 1}})
	a.Receive(`garbage`)
	a.Wait()

	byID := map[string]bridge.Response{}
	for _, raw := range decodeScripts(t, host.snapshot(), receiveCallback) {
		var resp bridge.Response
		require.NoError(t, json.Unmarshal(raw, &resp))
		byID[resp.ID] = resp
	}
	require.Len(t, byID, 4)

	assert.True(t, byID["1"].Success)
	s, _ := byID["1"].Data.AsString()
	assert.Equal(t, "a b", s)

	assert.False(t, byID["2"].Success)
	assert.Contains(t, *byID["2"].Error, "Unknown module")

	n, _ := byID["3"].Data.Get("n").AsInt()
	assert.Equal(t, int64(1), n)

	assert.False(t, byID[bridge.ParseErrorID].Success)
	assert.Zero(t, a.InFlight())
}

func TestAdapterResponsesAreNotOrdered(t *testing.T) {
	host := &recordingHost{}
	release := make(chan struct{})
	slow := &funcModule{
		BaseModule: bridge.NewBaseModule("timer", "slow", "fast"),
		fn: func(_ context.Context, action string, _ bridge.Value, _ *bridge.CallContext) (bridge.Value, error) {
			if action == "slow" {
				<-release
			}
			return bridge.String(action), nil
		},
	}
	a := newAdapter(t, host, slow)

	a.Receive(`{"id":"s","module":"timer","action":"slow"}`)
	a.Receive(`{"id":"f","module":"timer","action":"fast"}`)

	require.Eventually(t, func() bool { return len(host.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, host.snapshot()[0], `\"id\":\"f\"`)

	close(release)
	a.Wait()
	assert.Len(t, host.snapshot(), 2)
}

func TestAdapterPageReloadDropsStaleResponses(t *testing.T) {
	host := &recordingHost{}
	started := make(chan struct{})
	blocking := &funcModule{
		BaseModule: bridge.NewBaseModule("long", "wait"),
		fn: func(ctx context.Context, _ string, _ bridge.Value, _ *bridge.CallContext) (bridge.Value, error) {
			close(started)
			<-ctx.Done()
			return bridge.Null(), ctx.Err()
		},
	}
	a := newAdapter(t, host, blocking)

	a.Receive(`{"id":"old","module":"long","action":"wait"}`)
	<-started
	assert.Equal(t, 1, a.InFlight())

	a.PageWillLoad()
	a.Wait()

	assert.Empty(t, host.snapshot())
	assert.Zero(t, a.InFlight())
}

func TestAdapterEmit(t *testing.T) {
	host := &recordingHost{}
	a := newAdapter(t, host)

	var sink bridge.EventSink = a
	require.NoError(t, sink.Emit(bridge.NewEvent("push", bridge.String("hello"))))

	events := decodeScripts(t, host.snapshot(), eventCallback)
	require.Len(t, events, 1)
	assert.JSONEq(t, `{"type":"push","data":"hello"}`, string(events[0]))
}

func TestAdapterDropsMessagesAfterClose(t *testing.T) {
	host := &recordingHost{}
	var mu sync.Mutex
	calls := 0
	counter := &funcModule{
		BaseModule: bridge.NewBaseModule("count", "hit"),
		fn: func(context.Context, string, bridge.Value, *bridge.CallContext) (bridge.Value, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return bridge.Null(), nil
		},
	}
	a := newAdapter(t, host, counter)

	var wg sync.WaitGroup
	for range 4 {
		wg.Go(func() {
			for range 50 {
				a.Receive(`{"id":"c","module":"count","action":"hit"}`)
			}
		})
	}
	a.Close()
	wg.Wait()

	mu.Lock()
	before := calls
	mu.Unlock()

	a.Receive(`{"id":"late","module":"count","action":"hit"}`)
	a.Wait()

	mu.Lock()
	assert.Equal(t, before, calls)
	mu.Unlock()
	for _, js := range host.snapshot() {
		assert.NotContains(t, js, `\"id\":\"late\"`)
	}
}
