package bridge

import (
	"errors"
	"sync"
)

// NativeBridge is implemented by the native side (Swift/Kotlin).
// gomobile exposes this as an interface that native code can satisfy.
//
// Rules for gomobile compatibility:
//   - methods may only use primitive types, strings, []byte, or other
//     gomobile-bound types as parameters and return values
//   - no variadic parameters
//   - errors are returned as a second return value
type NativeBridge interface {
	// GetDeviceID returns a stable unique device identifier.
	GetDeviceID() (string, error)

	// EvaluateJavaScript runs js in the web view on the main thread.
	EvaluateJavaScript(js string) error

	// ShowNotification fires a local notification.
	ShowNotification(title string, body string) error

	// BiometryAvailable reports whether Face ID / fingerprint can be used.
	BiometryAvailable() bool

	// AuthenticateBiometric prompts Face ID / fingerprint.
	// Returns true if the user authenticated successfully.
	AuthenticateBiometric(reason string) (bool, error)

	// ShareText opens the native share sheet with the given text.
	ShareText(text string) error

	// OpenURL opens a URL in the system browser (not the WebView).
	OpenURL(url string) error

	// OpenSystemURL hands tel:, mailto:, maps: and similar URLs to the OS.
	OpenSystemURL(url string) error

	// SetToolbarVisible shows or hides the "Done" bar used on auth origins.
	SetToolbarVisible(visible bool) error
}

var ErrNoNative = errors.New("bridge: no NativeBridge registered")

var (
	nativeMu sync.RWMutex
	native   NativeBridge
)

// RegisterNative is called once from native (Swift/Kotlin) before Start().
func RegisterNative(b NativeBridge) {
	nativeMu.Lock()
	native = b
	nativeMu.Unlock()
}

// Native returns the registered bridge, or ErrNoNative on desktop.
func Native() (NativeBridge, error) {
	nativeMu.RLock()
	defer nativeMu.RUnlock()
	if native == nil {
		return nil, ErrNoNative
	}
	return native, nil
}
