package deeplink

import (
	"fmt"
	"net/url"

	"github.com/arko-chat/pwashell/internal/navigation"
)

// UniversalLinks accepts https links the OS routed to the app. Links the
// resolver would not keep in the web view are rejected so the OS can fall
// back to the browser.
type UniversalLinks struct {
	Slot
	resolver *navigation.Resolver
}

func NewUniversalLinks(resolver *navigation.Resolver) *UniversalLinks {
	return &UniversalLinks{resolver: resolver}
}

func (l *UniversalLinks) Handle(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("universal link: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("universal link: unsupported scheme %q", u.Scheme)
	}
	if l.resolver != nil {
		if p := l.resolver.Resolve(rawURL); !p.InApp() {
			return fmt.Errorf("universal link: %s resolves to %s", rawURL, p)
		}
	}
	l.Set(rawURL)
	return nil
}
