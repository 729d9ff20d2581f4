package navigation

import (
	"errors"
	"os/exec"
	"runtime"

	"github.com/toqueteos/webbrowser"
)

var ErrNoOpener = errors.New("navigation: no opener configured")

// Opener hands a URL to something outside the web view.
type Opener interface {
	Open(rawURL string) error
}

type OpenerFunc func(rawURL string) error

func (f OpenerFunc) Open(rawURL string) error { return f(rawURL) }

// BrowserOpener opens URLs in the user's default browser.
type BrowserOpener struct{}

func (BrowserOpener) Open(rawURL string) error {
	return webbrowser.Open(rawURL)
}

// SystemOpener passes URLs (tel:, mailto:, ...) to the OS handler registered
// for their scheme.
type SystemOpener struct{}

func (SystemOpener) Open(rawURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	case "darwin":
		cmd = exec.Command("open", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	return cmd.Start()
}

func open(o Opener, rawURL string) error {
	if o == nil {
		return ErrNoOpener
	}
	return o.Open(rawURL)
}
