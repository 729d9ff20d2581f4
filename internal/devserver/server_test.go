package devserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/config"
	"github.com/arko-chat/pwashell/internal/logger"
)

type echoModule struct {
	bridge.BaseModule
}

func (echoModule) Handle(_ context.Context, action string, payload bridge.Value, call *bridge.CallContext) (bridge.Value, error) {
	if action == "ping" {
		_ = call.Events.Emit(bridge.NewEvent("pinged", payload))
	}
	return payload, nil
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	cfg.App.Name = "Demo <App>"
	return newTestServerWith(t, cfg)
}

func newTestServerWith(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	keyring.MockInit()

	reg := bridge.NewRegistry()
	reg.Register(echoModule{bridge.NewBaseModule("echo", "say", "ping")})

	s, err := New(Options{
		Config:     config.NewStaticStore(cfg),
		Dispatcher: bridge.NewDispatcher(reg, logger.Discard()),
		Logger:     logger.Discard(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestIndexShowsPairingToLocalRequests(t *testing.T) {
	s, ts := newTestServer(t)

	resp, body := get(t, ts.Client(), ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, s.Pairing().Code())
	assert.Contains(t, body, "Demo &lt;App&gt;")
	assert.Contains(t, body, "data:image/png;base64,")
	assert.Contains(t, body, "<code>echo</code>")
}

func TestPairingGatesAPI(t *testing.T) {
	s, ts := newTestServer(t)

	resp, _ := get(t, ts.Client(), ts.URL+"/api/modules")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := get(t, ts.Client(), ts.URL+"/api/modules?code="+s.Pairing().Code())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"echo":["ping","say"]}`, body)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, _ = get(t, client, ts.URL+"/pair?code=000000x")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = get(t, client, ts.URL+"/pair?code="+s.Pairing().Code())
	assert.Equal(t, http.StatusOK, resp.StatusCode, "redirected back to index")

	resp, _ = get(t, client, ts.URL+"/api/modules")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "cookie pairs the device")
}

func TestResolveEndpoint(t *testing.T) {
	s, ts := newTestServer(t)

	_, body := get(t, ts.Client(), ts.URL+"/api/resolve?url=tel:123&code="+s.Pairing().Code())
	assert.JSONEq(t, `{"url":"tel:123","policy":"system"}`, body)
}

func TestShimPointsAtBridgeSocket(t *testing.T) {
	s, ts := newTestServer(t)

	resp, body := get(t, ts.Client(), ts.URL+"/shim.js?code="+s.Pairing().Code())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ws://"+strings.TrimPrefix(ts.URL, "http://")+"/bridge?code=")
	assert.Contains(t, body, "__pwashellPost")
}

func dial(t *testing.T, s *Server, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/bridge?code=" + s.Pairing().Code()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

func TestBridgeSocketDispatches(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, s, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"1","module":"echo","action":"say","payload":"hi"}`)))
	f := readFrame(t, conn)
	require.Equal(t, "response", f.Kind)
	require.NotNil(t, f.Response)
	assert.Equal(t, "1", f.Response.ID)
	assert.True(t, f.Response.Success)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"2","module":"nope","action":"x"}`)))
	f = readFrame(t, conn)
	assert.False(t, f.Response.Success)
	assert.Contains(t, *f.Response.Error, "Unknown module")
}

func TestBridgeSocketEventsGoToCaller(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, s, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"p","module":"echo","action":"ping","payload":{"n":1}}`)))

	kinds := map[string]frame{}
	for range 2 {
		f := readFrame(t, conn)
		kinds[f.Kind] = f
	}
	require.Contains(t, kinds, "event")
	require.Contains(t, kinds, "response")
	assert.Equal(t, "pinged", kinds["event"].Event.Type)
}

func TestPushBroadcastsToPages(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, s, ts)

	require.Eventually(t, func() bool { return s.Hub().Count() == 1 }, time.Second, 5*time.Millisecond)

	resp, err := ts.Client().Post(ts.URL+"/api/push?code="+s.Pairing().Code(), "application/json", strings.NewReader(`{"title":"hi"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	f := readFrame(t, conn)
	require.Equal(t, "event", f.Kind)
	assert.Equal(t, "push", f.Event.Type)
	title, _ := f.Event.Data.Get("title").AsString()
	assert.Equal(t, "hi", title)
}

func TestReloadWithStaticStore(t *testing.T) {
	s, ts := newTestServer(t)

	resp, err := ts.Client().Post(ts.URL+"/api/reload?code="+s.Pairing().Code(), "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBridgeSocketChecksOrigin(t *testing.T) {
	cfg := config.Default()
	cfg.App.StartURL = "http://localhost:5173/"
	cfg.Origins.Allowed = []string{"app.example.com"}
	s, ts := newTestServerWith(t, cfg)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/bridge?code=" + s.Pairing().Code()

	tests := []struct {
		origin string
		ok     bool
	}{
		{"", true},
		{ts.URL, true},
		{"https://app.example.com", true},
		{"http://localhost:5173", true},
		{"http://localhost:5174", false},
		{"http://127.0.0.1:9999", false},
		{"https://evil.example", false},
		{"null", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
			if tt.ok {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}
