package biometrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/bridge/bridgetest"
)

func authenticate(t *testing.T, m *Module, payload bridge.Value) (bool, string) {
	t.Helper()
	v, err := m.Handle(context.Background(), "authenticate", payload, nil)
	require.NoError(t, err)
	ok, _ := v.Get("authenticated").AsBool()
	reason, _ := v.Get("reason").AsString()
	return ok, reason
}

func TestAuthenticate(t *testing.T) {
	native := &bridgetest.Native{Biometry: true, Authenticates: true}
	m := New()
	m.native = native.Provider()

	ok, reason := authenticate(t, m, bridge.MustFrom(map[string]any{"reason": "Unlock vault"}))
	assert.True(t, ok)
	assert.Empty(t, reason)
	assert.Equal(t, []string{"Unlock vault"}, native.Prompts)

	native.Authenticates = false
	ok, reason = authenticate(t, m, bridge.Null())
	assert.False(t, ok)
	assert.Equal(t, "cancelled", reason)
	assert.Equal(t, defaultReason, native.Prompts[1])
}

func TestUnavailable(t *testing.T) {
	m := New()
	m.native = bridgetest.NoNative

	v, err := m.Handle(context.Background(), "isAvailable", bridge.Null(), nil)
	require.NoError(t, err)
	available, _ := v.Get("available").AsBool()
	assert.False(t, available)

	ok, reason := authenticate(t, m, bridge.Null())
	assert.False(t, ok)
	assert.Equal(t, "unavailable", reason)

	m.native = (&bridgetest.Native{Biometry: false}).Provider()
	_, reason = authenticate(t, m, bridge.Null())
	assert.Equal(t, "unavailable", reason)
}

func TestPromptFailureIsModuleError(t *testing.T) {
	native := &bridgetest.Native{Biometry: true, Err: errors.New("lockout")}
	m := New()
	m.native = native.Provider()

	_, err := m.Handle(context.Background(), "authenticate", bridge.Null(), nil)
	assert.ErrorContains(t, err, "lockout")
}
