package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/arko-chat/pwashell/internal/bridge"
)

const (
	Name = "notifications"

	// PushEvent is the event type push payloads arrive under.
	PushEvent = "push"
	// ShownEvent follows every notification the shell displayed.
	ShownEvent = "notificationShown"
)

type Module struct {
	bridge.BaseModule
	native func() (bridge.NativeBridge, error)
}

func New() *Module {
	return &Module{
		BaseModule: bridge.NewBaseModule(Name, "show"),
		native:     bridge.Native,
	}
}

func (m *Module) Handle(_ context.Context, action string, payload bridge.Value, call *bridge.CallContext) (bridge.Value, error) {
	if action != "show" {
		return bridge.Value{}, bridge.UnknownAction(action)
	}

	title, err := bridge.RequireString(payload, "title")
	if err != nil {
		return bridge.Value{}, err
	}
	body, err := bridge.OptionalString(payload, "body", "")
	if err != nil {
		return bridge.Value{}, err
	}

	n, err := m.native()
	if errors.Is(err, bridge.ErrNoNative) {
		return bridge.Object(map[string]bridge.Value{
			"shown":  bridge.Bool(false),
			"reason": bridge.String("unavailable"),
		}), nil
	}
	if err != nil {
		return bridge.Value{}, err
	}
	if err := n.ShowNotification(title, body); err != nil {
		return bridge.Value{}, fmt.Errorf("show notification: %w", err)
	}

	if call != nil && call.Events != nil {
		_ = call.Events.Emit(bridge.NewEvent(ShownEvent, bridge.Object(map[string]bridge.Value{
			"title": bridge.String(title),
			"body":  bridge.String(body),
		})))
	}
	return bridge.Object(map[string]bridge.Value{"shown": bridge.Bool(true)}), nil
}

// DeliverPush forwards a push payload that reached the native side to the
// page. The payload must be JSON; anything else is delivered as a string.
func DeliverPush(sink bridge.EventSink, payload []byte) error {
	if sink == nil {
		return errors.New("notifications: no event sink")
	}
	var data bridge.Value
	if err := data.UnmarshalJSON(payload); err != nil {
		data = bridge.String(string(payload))
	}
	return sink.Emit(bridge.NewEvent(PushEvent, data))
}
