package share

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/bridge/bridgetest"
)

func TestShareUsesNativeSheet(t *testing.T) {
	native := &bridgetest.Native{}
	m := New()
	m.native = native.Provider()

	v, err := m.Handle(context.Background(), "share", bridge.MustFrom(map[string]any{
		"title": "Look",
		"url":   "https://example.com/x",
	}), nil)
	require.NoError(t, err)

	shared, _ := v.Get("shared").AsBool()
	assert.True(t, shared)
	assert.Equal(t, []string{"Look\nhttps://example.com/x"}, native.Shared)
}

func TestShareWithoutNativeIsNegativeResult(t *testing.T) {
	m := New()
	m.native = bridgetest.NoNative

	v, err := m.Handle(context.Background(), "share", bridge.MustFrom(map[string]any{"text": "hi"}), nil)
	require.NoError(t, err)
	shared, _ := v.Get("shared").AsBool()
	reason, _ := v.Get("reason").AsString()
	assert.False(t, shared)
	assert.Equal(t, "unavailable", reason)
}

func TestShareNeedsContent(t *testing.T) {
	m := New()
	m.native = bridgetest.NoNative

	_, err := m.Handle(context.Background(), "share", bridge.MustFrom(map[string]any{"text": "  "}), nil)
	assert.ErrorIs(t, err, bridge.ErrInvalidPayload)
}

func TestQRCode(t *testing.T) {
	m := New()
	ctx := context.Background()

	v, err := m.Handle(ctx, "qrCode", bridge.MustFrom(map[string]any{"text": "https://example.com", "size": 64}), nil)
	require.NoError(t, err)
	uri, _ := v.Get("dataUri").AsString()
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	_, err = m.Handle(ctx, "qrCode", bridge.MustFrom(map[string]any{"text": "x", "size": 99999}), nil)
	assert.ErrorIs(t, err, bridge.ErrInvalidPayload)

	_, err = m.Handle(ctx, "qrCode", bridge.MustFrom(map[string]any{"text": "x", "size": 1.5}), nil)
	assert.ErrorIs(t, err, bridge.ErrInvalidPayload)
}
