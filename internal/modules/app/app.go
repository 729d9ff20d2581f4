package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/navigation"
)

const Name = "app"

type Module struct {
	bridge.BaseModule
	browser navigation.Opener
}

func New(browser navigation.Opener) *Module {
	return &Module{
		BaseModule: bridge.NewBaseModule(Name, "setTitle", "openExternal"),
		browser:    browser,
	}
}

func (m *Module) Handle(_ context.Context, action string, payload bridge.Value, call *bridge.CallContext) (bridge.Value, error) {
	switch action {
	case "setTitle":
		return m.setTitle(payload, call)
	case "openExternal":
		return m.openExternal(payload)
	}
	return bridge.Value{}, bridge.UnknownAction(action)
}

func (m *Module) setTitle(payload bridge.Value, call *bridge.CallContext) (bridge.Value, error) {
	title, err := bridge.OptionalString(payload, "title", "")
	if err != nil {
		return bridge.Value{}, err
	}
	ui, ok := call.UI()
	if !ok {
		return bridge.Object(map[string]bridge.Value{"applied": bridge.Bool(false)}), nil
	}
	ui.SetTitle(strings.TrimSpace(title))
	return bridge.Object(map[string]bridge.Value{"applied": bridge.Bool(true)}), nil
}

func (m *Module) openExternal(payload bridge.Value) (bridge.Value, error) {
	raw, err := bridge.RequireString(payload, "url")
	if err != nil {
		return bridge.Value{}, err
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return bridge.Value{}, bridge.InvalidPayload("%q is not an absolute http(s) URL", raw)
	}
	if m.browser == nil {
		return bridge.Value{}, fmt.Errorf("no browser available")
	}
	if err := m.browser.Open(raw); err != nil {
		return bridge.Value{}, fmt.Errorf("open %s: %w", raw, err)
	}
	return bridge.Object(map[string]bridge.Value{"opened": bridge.Bool(true)}), nil
}
