package share

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/qr"
)

const Name = "share"

type Module struct {
	bridge.BaseModule
	native func() (bridge.NativeBridge, error)
}

func New() *Module {
	return &Module{
		BaseModule: bridge.NewBaseModule(Name, "share", "qrCode"),
		native:     bridge.Native,
	}
}

func (m *Module) Handle(_ context.Context, action string, payload bridge.Value, _ *bridge.CallContext) (bridge.Value, error) {
	switch action {
	case "share":
		return m.share(payload)
	case "qrCode":
		return qrCode(payload)
	}
	return bridge.Value{}, bridge.UnknownAction(action)
}

func (m *Module) share(payload bridge.Value) (bridge.Value, error) {
	title, err := bridge.OptionalString(payload, "title", "")
	if err != nil {
		return bridge.Value{}, err
	}
	text, err := bridge.OptionalString(payload, "text", "")
	if err != nil {
		return bridge.Value{}, err
	}
	link, err := bridge.OptionalString(payload, "url", "")
	if err != nil {
		return bridge.Value{}, err
	}

	body := composeText(title, text, link)
	if body == "" {
		return bridge.Value{}, bridge.InvalidPayload("nothing to share: need title, text or url")
	}

	n, err := m.native()
	if errors.Is(err, bridge.ErrNoNative) {
		return result(false, "unavailable"), nil
	}
	if err != nil {
		return bridge.Value{}, err
	}
	if err := n.ShareText(body); err != nil {
		return bridge.Value{}, fmt.Errorf("share sheet: %w", err)
	}
	return result(true, ""), nil
}

func composeText(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

func qrCode(payload bridge.Value) (bridge.Value, error) {
	text, err := bridge.RequireString(payload, "text")
	if err != nil {
		return bridge.Value{}, err
	}
	size, err := bridge.OptionalInt(payload, "size", qr.DefaultSize)
	if err != nil {
		return bridge.Value{}, err
	}
	if size <= 0 || size > qr.MaxSize {
		return bridge.Value{}, bridge.InvalidPayload("size must be between 1 and %d", qr.MaxSize)
	}

	uri, err := qr.DataURI(text, int(size))
	if err != nil {
		return bridge.Value{}, err
	}
	return bridge.Object(map[string]bridge.Value{
		"dataUri": bridge.String(uri),
		"size":    bridge.Int(size),
	}), nil
}

// result is the business-level outcome: a sheet that could not be shown is
// still a successful call.
func result(shared bool, reason string) bridge.Value {
	out := map[string]bridge.Value{"shared": bridge.Bool(shared)}
	if reason != "" {
		out["reason"] = bridge.String(reason)
	}
	return bridge.Object(out)
}
