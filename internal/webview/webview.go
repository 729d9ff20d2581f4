package webview

import (
	webview "github.com/webview/webview_go"
)

type WebView = webview.WebView

type Hint = webview.Hint

const (
	// HintNone specifies that width and height are default size
	HintNone = webview.HintNone

	// HintFixed specifies that window size can not be changed by a user
	HintFixed = webview.HintFixed

	// HintMin specifies that width and height are minimum bounds
	HintMin = webview.HintMin

	// HintMax specifies that width and height are maximum bounds
	HintMax = webview.HintMax
)

// Window is the part of a native web view the shell drives. WebView
// satisfies it; tests substitute a fake.
type Window interface {
	Run()
	Terminate()
	Dispatch(f func())
	Destroy()
	SetTitle(title string)
	SetSize(w int, h int, hint Hint)
	Navigate(url string)
	Init(js string)
	Eval(js string)
	Bind(name string, f interface{}) error
}

var _ Window = (WebView)(nil)

// Factory creates windows. debug enables the inspector.
type Factory func(debug bool) Window

// New creates a new webview in a new window.
func New(debug bool) Window {
	return webview.New(debug)
}
