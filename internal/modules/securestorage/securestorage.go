package securestorage

import (
	"context"
	"errors"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/credentials"
)

const (
	Name = "secureStorage"

	defaultNamespace = "default"
	maxValueLen      = 8 << 10
)

// Module keeps small secrets in the OS keyring, one namespace per app name.
type Module struct {
	bridge.BaseModule
}

func New() *Module {
	return &Module{
		BaseModule: bridge.NewBaseModule(Name, "set", "get", "delete", "keys"),
	}
}

func (m *Module) Handle(_ context.Context, action string, payload bridge.Value, call *bridge.CallContext) (bridge.Value, error) {
	ns := namespace(call)

	if action == "keys" {
		keys := credentials.KnownKeys(ns)
		out := make([]bridge.Value, len(keys))
		for i, k := range keys {
			out[i] = bridge.String(k)
		}
		return bridge.Array(out...), nil
	}

	key, err := bridge.RequireString(payload, "key")
	if err != nil {
		return bridge.Value{}, err
	}

	switch action {
	case "set":
		value, err := bridge.RequireString(payload, "value")
		if err != nil {
			return bridge.Value{}, err
		}
		if len(value) > maxValueLen {
			return bridge.Value{}, bridge.InvalidPayload("value exceeds %d bytes", maxValueLen)
		}
		if err := credentials.StoreItem(ns, key, value); err != nil {
			return bridge.Value{}, err
		}
		return bridge.Null(), nil

	case "get":
		value, err := credentials.LoadItem(ns, key)
		if errors.Is(err, credentials.ErrNotFound) {
			return bridge.Null(), nil
		}
		if err != nil {
			return bridge.Value{}, err
		}
		return bridge.String(value), nil

	case "delete":
		deleted, err := credentials.DeleteItem(ns, key)
		if err != nil {
			return bridge.Value{}, err
		}
		return bridge.Object(map[string]bridge.Value{"deleted": bridge.Bool(deleted)}), nil
	}
	return bridge.Value{}, bridge.UnknownAction(action)
}

func namespace(call *bridge.CallContext) string {
	if call != nil && call.Config != nil && call.Config.App.Name != "" {
		return call.Config.App.Name
	}
	return defaultNamespace
}
