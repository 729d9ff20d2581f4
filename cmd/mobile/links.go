package mobile

type linkKind int

const (
	universalLink linkKind = iota
	schemeLink
	shortcutLink
)

type earlyLink struct {
	kind linkKind
	url  string
}

// early holds links that arrived before Start (a cold launch from a link).
// Guarded by mu.
var early []earlyLink

func handleLink(kind linkKind, url string) error {
	mu.Lock()
	defer mu.Unlock()

	if current == nil {
		early = append(early, earlyLink{kind: kind, url: url})
		return nil
	}
	return current.handleLink(kind, url)
}

func (s *session) handleLink(kind linkKind, url string) error {
	switch kind {
	case schemeLink:
		return s.links.HandleCustomScheme(url)
	case shortcutLink:
		return s.links.HandleShortcut(url)
	}
	return s.links.HandleUniversalLink(url)
}

func HandleUniversalLink(url string) error {
	return handleLink(universalLink, url)
}

func HandleCustomSchemeURL(url string) error {
	return handleLink(schemeLink, url)
}

func HandleShortcut(shortcutType string) error {
	return handleLink(shortcutLink, shortcutType)
}

// TakePendingURL returns the newest pending link and clears it. It returns
// "" when nothing is pending.
func TakePendingURL() string {
	s, err := active()
	if err != nil {
		return ""
	}
	url, _ := s.links.Drain()
	return url
}

// drainPending replays links that arrived before Start, in arrival order,
// and returns the newest one that was accepted. Called with mu held.
func drainPending() (string, bool) {
	for _, l := range early {
		if err := current.handleLink(l.kind, l.url); err != nil {
			current.logger.Warn("dropping link received before start", "url", l.url, "err", err)
		}
	}
	early = nil
	return current.links.Drain()
}
