package bridge

import (
	"context"
	"maps"
	"slices"
)

// Module is a named capability reachable from the web content. Name is the
// registry key and must be unique among the modules of one process. Actions is
// a closed set: the dispatcher rejects anything outside it before Handle runs.
type Module interface {
	Name() string
	Actions() ActionSet
	Handle(ctx context.Context, action string, payload Value, call *CallContext) (Value, error)
}

type ActionSet map[string]struct{}

func NewActionSet(actions ...string) ActionSet {
	set := make(ActionSet, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

func (s ActionSet) Has(action string) bool {
	_, ok := s[action]
	return ok
}

// Sorted lists the actions in lexical order.
func (s ActionSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

func Supports(m Module, action string) bool {
	return m.Actions().Has(action)
}

func ValidateAction(m Module, action string) error {
	if !Supports(m, action) {
		return UnknownAction(action)
	}
	return nil
}

// BaseModule carries the static name and action set of a module. Embed it
// and implement Handle.
type BaseModule struct {
	name    string
	actions ActionSet
}

func NewBaseModule(name string, actions ...string) BaseModule {
	return BaseModule{name: name, actions: NewActionSet(actions...)}
}

func (b BaseModule) Name() string { return b.name }

func (b BaseModule) Actions() ActionSet { return b.actions }

func (b BaseModule) Supports(action string) bool { return b.actions.Has(action) }

func (b BaseModule) ValidateAction(action string) error {
	if !b.Supports(action) {
		return UnknownAction(action)
	}
	return nil
}

// RequireString reads a non-empty string field from an object payload.
func RequireString(payload Value, key string) (string, error) {
	v, ok := payload.Lookup(key)
	if !ok {
		return "", InvalidPayload("missing %q", key)
	}
	s, ok := v.AsString()
	if !ok {
		return "", InvalidPayload("%q must be a string", key)
	}
	if s == "" {
		return "", InvalidPayload("%q must not be empty", key)
	}
	return s, nil
}

func OptionalString(payload Value, key, fallback string) (string, error) {
	v, ok := payload.Lookup(key)
	if !ok || v.IsNull() {
		return fallback, nil
	}
	s, ok := v.AsString()
	if !ok {
		return "", InvalidPayload("%q must be a string", key)
	}
	return s, nil
}

func OptionalInt(payload Value, key string, fallback int64) (int64, error) {
	v, ok := payload.Lookup(key)
	if !ok || v.IsNull() {
		return fallback, nil
	}
	i, ok := v.AsInt()
	if !ok {
		return 0, InvalidPayload("%q must be an integer", key)
	}
	return i, nil
}

func OptionalBool(payload Value, key string, fallback bool) (bool, error) {
	v, ok := payload.Lookup(key)
	if !ok || v.IsNull() {
		return fallback, nil
	}
	b, ok := v.AsBool()
	if !ok {
		return false, InvalidPayload("%q must be a boolean", key)
	}
	return b, nil
}
