package platform

import (
	"context"
	"maps"
	"runtime"
	"slices"
	"time"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/cache"
)

const Name = "platform"

// Info describes the host the page is running in.
type Info struct {
	Shell   string
	Version string
}

type Module struct {
	bridge.BaseModule
	info     Info
	registry *bridge.Registry
	native   func() (bridge.NativeBridge, error)
	devices  *cache.TTL[string]
}

func New(info Info, registry *bridge.Registry) *Module {
	return &Module{
		BaseModule: bridge.NewBaseModule(Name, "getInfo", "getFeatures"),
		info:       info,
		registry:   registry,
		native:     bridge.Native,
		devices:    cache.NewTTL[string](10 * time.Minute),
	}
}

func (m *Module) Handle(_ context.Context, action string, _ bridge.Value, call *bridge.CallContext) (bridge.Value, error) {
	switch action {
	case "getInfo":
		return m.getInfo(call), nil
	case "getFeatures":
		return m.getFeatures(call), nil
	}
	return bridge.Value{}, bridge.UnknownAction(action)
}

func (m *Module) getInfo(call *bridge.CallContext) bridge.Value {
	info := map[string]bridge.Value{
		"os":      bridge.String(runtime.GOOS),
		"arch":    bridge.String(runtime.GOARCH),
		"shell":   bridge.String(m.info.Shell),
		"version": bridge.String(m.info.Version),
	}
	if call != nil && call.Config != nil {
		info["appName"] = bridge.String(call.Config.App.Name)
		info["startUrl"] = bridge.String(call.Config.App.StartURL)
	}
	if id, err := m.deviceID(); err == nil {
		info["deviceId"] = bridge.String(id)
	}
	return bridge.Object(info)
}

// deviceID is cached; the native side is asked at most once per TTL.
func (m *Module) deviceID() (string, error) {
	return m.devices.Get("device", func() (string, error) {
		n, err := m.native()
		if err != nil {
			return "", err
		}
		return n.GetDeviceID()
	})
}

func (m *Module) getFeatures(call *bridge.CallContext) bridge.Value {
	flags := map[string]bridge.Value{}
	if call != nil && call.Config != nil {
		for _, name := range slices.Sorted(maps.Keys(call.Config.Features)) {
			flags[name] = bridge.Bool(call.Config.Features[name])
		}
	}

	var names []bridge.Value
	if m.registry != nil {
		for _, name := range m.registry.Names() {
			names = append(names, bridge.String(name))
		}
	}
	return bridge.Object(map[string]bridge.Value{
		"flags":   bridge.Object(flags),
		"modules": bridge.Array(names...),
	})
}
