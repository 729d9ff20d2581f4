package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/arko-chat/pwashell/internal/bridge"
)

const (
	Name = "preferences"

	defaultScope = "default"
	maxKeyLen    = 256
	maxValueLen  = 64 << 10
)

// Module exposes the Store to the page. Values are any JSON value and come
// back exactly as they were stored.
type Module struct {
	bridge.BaseModule
	store *Store
}

func New(store *Store) *Module {
	return &Module{
		BaseModule: bridge.NewBaseModule(Name, "get", "set", "remove", "keys", "clear"),
		store:      store,
	}
}

func (m *Module) Handle(_ context.Context, action string, payload bridge.Value, call *bridge.CallContext) (bridge.Value, error) {
	scope := scopeOf(call)

	switch action {
	case "keys":
		names, err := m.store.Keys(scope)
		if err != nil {
			return bridge.Value{}, err
		}
		out := make([]bridge.Value, len(names))
		for i, n := range names {
			out[i] = bridge.String(n)
		}
		return bridge.Array(out...), nil

	case "clear":
		n, err := m.store.Clear(scope)
		if err != nil {
			return bridge.Value{}, err
		}
		return bridge.Object(map[string]bridge.Value{"removed": bridge.Int(int64(n))}), nil
	}

	name, err := bridge.RequireString(payload, "key")
	if err != nil {
		return bridge.Value{}, err
	}
	if len(name) > maxKeyLen {
		return bridge.Value{}, bridge.InvalidPayload("key exceeds %d bytes", maxKeyLen)
	}

	switch action {
	case "get":
		raw, err := m.store.Get(scope, name)
		if errors.Is(err, ErrNotFound) {
			return bridge.Null(), nil
		}
		if err != nil {
			return bridge.Value{}, err
		}
		var v bridge.Value
		if err := json.Unmarshal(raw, &v); err != nil {
			return bridge.Value{}, fmt.Errorf("decode %q: %w", name, err)
		}
		return v, nil

	case "set":
		value, ok := payload.Lookup("value")
		if !ok {
			return bridge.Value{}, bridge.InvalidPayload("missing %q", "value")
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return bridge.Value{}, err
		}
		if len(raw) > maxValueLen {
			return bridge.Value{}, bridge.InvalidPayload("value exceeds %d bytes", maxValueLen)
		}
		return bridge.Null(), m.store.Set(scope, name, raw)

	case "remove":
		existed, err := m.store.Remove(scope, name)
		if err != nil {
			return bridge.Value{}, err
		}
		return bridge.Object(map[string]bridge.Value{"removed": bridge.Bool(existed)}), nil
	}
	return bridge.Value{}, bridge.UnknownAction(action)
}

func scopeOf(call *bridge.CallContext) string {
	if call != nil && call.Config != nil && call.Config.App.Name != "" {
		return call.Config.App.Name
	}
	return defaultScope
}
