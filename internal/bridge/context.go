package bridge

import (
	"weak"

	"github.com/arko-chat/pwashell/internal/config"
)

// HostUI is the window currently showing the web content.
type HostUI interface {
	SetTitle(title string)
}

// UIAnchor is owned by the host. The bridge only ever holds a weak pointer to
// it, so a destroyed window is never kept alive by an in-flight call.
type UIAnchor struct {
	UI HostUI
}

// CallContext is handed unchanged to every module invocation. It is built by
// the transport per call; the dispatcher never creates one.
type CallContext struct {
	Config *config.Config
	Events EventSink

	anchor weak.Pointer[UIAnchor]
}

func NewCallContext(cfg *config.Config, events EventSink, anchor *UIAnchor) *CallContext {
	cc := &CallContext{Config: cfg, Events: events}
	if anchor != nil {
		cc.anchor = weak.Make(anchor)
	}
	return cc
}

// UI returns the host window if it is still alive.
func (c *CallContext) UI() (HostUI, bool) {
	if c == nil {
		return nil, false
	}
	a := c.anchor.Value()
	if a == nil || a.UI == nil {
		return nil, false
	}
	return a.UI, true
}

// Feature reports whether a feature flag is enabled in the call's config.
func (c *CallContext) Feature(name string) bool {
	if c == nil || c.Config == nil {
		return false
	}
	return c.Config.Features.Enabled(name)
}
