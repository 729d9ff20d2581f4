package app

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/navigation"
)

type titleUI struct{ title string }

func (u *titleUI) SetTitle(t string) { u.title = t }

func TestSetTitle(t *testing.T) {
	m := New(nil)
	ui := &titleUI{}
	anchor := &bridge.UIAnchor{UI: ui}

	v, err := m.Handle(context.Background(), "setTitle", bridge.MustFrom(map[string]any{"title": "  Inbox "}), bridge.NewCallContext(nil, nil, anchor))
	require.NoError(t, err)
	applied, _ := v.Get("applied").AsBool()
	assert.True(t, applied)
	assert.Equal(t, "Inbox", ui.title)
	runtime.KeepAlive(anchor)
}

func TestSetTitleWithoutWindow(t *testing.T) {
	m := New(nil)
	v, err := m.Handle(context.Background(), "setTitle", bridge.MustFrom(map[string]any{"title": "x"}), bridge.NewCallContext(nil, nil, nil))
	require.NoError(t, err)
	applied, _ := v.Get("applied").AsBool()
	assert.False(t, applied)
}

func TestOpenExternal(t *testing.T) {
	var opened []string
	m := New(navigation.OpenerFunc(func(u string) error {
		opened = append(opened, u)
		return nil
	}))
	ctx := context.Background()

	_, err := m.Handle(ctx, "openExternal", bridge.MustFrom(map[string]any{"url": "https://example.org/a"}), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.org/a"}, opened)

	_, err = m.Handle(ctx, "openExternal", bridge.MustFrom(map[string]any{"url": "file:///etc/passwd"}), nil)
	assert.ErrorIs(t, err, bridge.ErrInvalidPayload)

	_, err = m.Handle(ctx, "openExternal", bridge.Null(), nil)
	assert.ErrorIs(t, err, bridge.ErrInvalidPayload)

	failing := New(navigation.OpenerFunc(func(string) error { return errors.New("no display") }))
	_, err = failing.Handle(ctx, "openExternal", bridge.MustFrom(map[string]any{"url": "https://example.org"}), nil)
	assert.ErrorContains(t, err, "no display")
}
