package transport

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arko-chat/pwashell/internal/bridge"
)

const (
	receiveCallback = "window.__pwashell && window.__pwashell.receive"
	eventCallback   = "window.__pwashell && window.__pwashell.dispatchEvent"
)

var jsEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// EscapeJS makes s safe to place between double quotes in a JS string
// literal. U+2028 and U+2029 are line terminators in older engines.
func EscapeJS(s string) string {
	return jsEscaper.Replace(s)
}

// FormatResponse builds the snippet that hands resp to the page.
func FormatResponse(resp bridge.Response) (string, error) {
	return format(receiveCallback, resp)
}

// FormatEvent builds the snippet that delivers ev to the page's listeners.
func FormatEvent(ev bridge.Event) (string, error) {
	return format(eventCallback, ev)
}

func format(callback string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`%s("%s");`, callback, EscapeJS(string(data))), nil
}
