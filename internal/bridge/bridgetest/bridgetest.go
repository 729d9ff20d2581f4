// Package bridgetest has fakes for exercising modules without a device.
package bridgetest

import (
	"sync"

	"github.com/arko-chat/pwashell/internal/bridge"
)

// Native is a scriptable bridge.NativeBridge that records what it was asked
// to do.
type Native struct {
	mu sync.Mutex

	DeviceID      string
	Biometry      bool
	Authenticates bool
	Err           error

	Scripts       []string
	Notifications [][2]string
	Shared        []string
	Opened        []string
	SystemOpened  []string
	Toolbar       []bool
	Prompts       []string
}

var _ bridge.NativeBridge = (*Native)(nil)

func (n *Native) record(fn func()) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	fn()
	return nil
}

func (n *Native) GetDeviceID() (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.DeviceID, n.Err
}

func (n *Native) EvaluateJavaScript(js string) error {
	return n.record(func() { n.Scripts = append(n.Scripts, js) })
}

func (n *Native) ShowNotification(title, body string) error {
	return n.record(func() { n.Notifications = append(n.Notifications, [2]string{title, body}) })
}

func (n *Native) BiometryAvailable() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.Biometry
}

func (n *Native) AuthenticateBiometric(reason string) (bool, error) {
	var ok bool
	err := n.record(func() {
		n.Prompts = append(n.Prompts, reason)
		ok = n.Authenticates
	})
	return ok, err
}

func (n *Native) ShareText(text string) error {
	return n.record(func() { n.Shared = append(n.Shared, text) })
}

func (n *Native) OpenURL(url string) error {
	return n.record(func() { n.Opened = append(n.Opened, url) })
}

func (n *Native) OpenSystemURL(url string) error {
	return n.record(func() { n.SystemOpened = append(n.SystemOpened, url) })
}

func (n *Native) SetToolbarVisible(visible bool) error {
	return n.record(func() { n.Toolbar = append(n.Toolbar, visible) })
}

func (n *Native) ScriptCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Scripts)
}

// Provider adapts n to the lookup function modules use to find the native
// side.
func (n *Native) Provider() func() (bridge.NativeBridge, error) {
	return func() (bridge.NativeBridge, error) { return n, nil }
}

// NoNative is the desktop lookup: nothing registered.
func NoNative() (bridge.NativeBridge, error) {
	return nil, bridge.ErrNoNative
}

// Sink collects emitted events.
type Sink struct {
	mu     sync.Mutex
	Events []bridge.Event
}

func (s *Sink) Emit(ev bridge.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, ev)
	return nil
}

func (s *Sink) Snapshot() []bridge.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bridge.Event(nil), s.Events...)
}
