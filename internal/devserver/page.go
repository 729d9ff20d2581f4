package devserver

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/arko-chat/pwashell/internal/transport"
)

type indexData struct {
	AppName   string
	StartURL  string
	Code      string
	PairURL   string
	QRDataURI string
	ShimURL   string
	Modules   []string
	Clients   int
}

func indexPage(d indexData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		fmt.Fprintf(&b, `<title>%s · pwashell dev bridge</title>`, templ.EscapeString(d.AppName))
		b.WriteString(`<style>body{font-family:system-ui,sans-serif;max-width:40rem;margin:2rem auto;padding:0 1rem;color:#1f2328}` +
			`code{background:#f3f4f6;padding:.1rem .3rem;border-radius:4px}.code{font-size:2rem;letter-spacing:.3rem}</style>`)
		b.WriteString(`</head><body>`)

		fmt.Fprintf(&b, `<h1>%s</h1>`, templ.EscapeString(d.AppName))
		fmt.Fprintf(&b, `<p>Start URL: <a href="%s">%s</a></p>`, templ.EscapeString(d.StartURL), templ.EscapeString(d.StartURL))

		b.WriteString(`<h2>Pair a device</h2>`)
		fmt.Fprintf(&b, `<p class="code">%s</p>`, templ.EscapeString(d.Code))
		if d.QRDataURI != "" {
			fmt.Fprintf(&b, `<img src="%s" width="192" height="192" alt="Pairing QR code">`, templ.EscapeString(d.QRDataURI))
		}
		if d.PairURL != "" {
			fmt.Fprintf(&b, `<p>or open <a href="%s">%s</a></p>`, templ.EscapeString(d.PairURL), templ.EscapeString(d.PairURL))
		}
		if d.ShimURL != "" {
			b.WriteString(`<h2>Use from a page</h2>`)
			fmt.Fprintf(&b, `<p><code>&lt;script src="%s"&gt;&lt;/script&gt;</code></p>`, templ.EscapeString(d.ShimURL))
		}

		fmt.Fprintf(&b, `<h2>Modules (%d)</h2><ul>`, len(d.Modules))
		for _, m := range d.Modules {
			fmt.Fprintf(&b, `<li><code>%s</code></li>`, templ.EscapeString(m))
		}
		b.WriteString(`</ul>`)
		fmt.Fprintf(&b, `<p>%d page(s) connected.</p>`, d.Clients)
		b.WriteString(`</body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// connectorScript points window.__pwashellPost at the bridge socket and
// feeds frames back into the shim. It reconnects after a drop and queues
// calls made while disconnected.
func connectorScript(socketURL string) string {
	return `(function (url) {
  var root = typeof window !== "undefined" ? window : globalThis;
  var sock = null;
  var queue = [];
  function open() {
    sock = new WebSocket(url);
    sock.onopen = function () {
      while (queue.length) sock.send(queue.shift());
    };
    sock.onmessage = function (e) {
      var f = JSON.parse(e.data);
      if (f.kind === "response") root.__pwashell.receive(f.response);
      else if (f.kind === "event") root.__pwashell.dispatchEvent(f.event);
    };
    sock.onclose = function () {
      sock = null;
      setTimeout(open, 1000);
    };
  }
  root.__pwashellPost = function (json) {
    if (sock && sock.readyState === 1) sock.send(json);
    else queue.push(json);
  };
  open();
})("` + transport.EscapeJS(socketURL) + `");
` + transport.InitScript()
}
