package biometrics

import (
	"context"
	"errors"
	"fmt"

	"github.com/arko-chat/pwashell/internal/bridge"
)

const (
	Name = "biometrics"

	defaultReason = "Confirm your identity"
)

type Module struct {
	bridge.BaseModule
	native func() (bridge.NativeBridge, error)
}

func New() *Module {
	return &Module{
		BaseModule: bridge.NewBaseModule(Name, "isAvailable", "authenticate"),
		native:     bridge.Native,
	}
}

func (m *Module) Handle(_ context.Context, action string, payload bridge.Value, _ *bridge.CallContext) (bridge.Value, error) {
	n, err := m.native()
	if err != nil && !errors.Is(err, bridge.ErrNoNative) {
		return bridge.Value{}, err
	}
	available := n != nil && n.BiometryAvailable()

	switch action {
	case "isAvailable":
		return bridge.Object(map[string]bridge.Value{"available": bridge.Bool(available)}), nil

	case "authenticate":
		reason, err := bridge.OptionalString(payload, "reason", defaultReason)
		if err != nil {
			return bridge.Value{}, err
		}
		if !available {
			return outcome(false, "unavailable"), nil
		}
		ok, err := n.AuthenticateBiometric(reason)
		if err != nil {
			return bridge.Value{}, fmt.Errorf("biometric prompt: %w", err)
		}
		if !ok {
			return outcome(false, "cancelled"), nil
		}
		return outcome(true, ""), nil
	}
	return bridge.Value{}, bridge.UnknownAction(action)
}

// A declined or impossible prompt is a negative result, not a failed call.
func outcome(authenticated bool, reason string) bridge.Value {
	out := map[string]bridge.Value{"authenticated": bridge.Bool(authenticated)}
	if reason != "" {
		out["reason"] = bridge.String(reason)
	}
	return bridge.Object(out)
}
