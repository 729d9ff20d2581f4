package deeplink

import (
	"fmt"
	"net/url"

	"github.com/arko-chat/pwashell/internal/config"
)

// Shortcuts maps home-screen shortcut types to URLs resolved against the
// start URL.
type Shortcuts struct {
	Slot
	urls map[string]string
}

func NewShortcuts(start *url.URL, shortcuts []config.Shortcut) (*Shortcuts, error) {
	s := &Shortcuts{urls: make(map[string]string, len(shortcuts))}
	for _, sc := range shortcuts {
		ref, err := url.Parse(sc.URL)
		if err != nil {
			return nil, fmt.Errorf("shortcut %q: %w", sc.Type, err)
		}
		if start != nil {
			ref = start.ResolveReference(ref)
		}
		s.urls[sc.Type] = ref.String()
	}
	return s, nil
}

func (s *Shortcuts) URL(shortcutType string) (string, bool) {
	u, ok := s.urls[shortcutType]
	return u, ok
}

func (s *Shortcuts) Handle(shortcutType string) error {
	u, ok := s.urls[shortcutType]
	if !ok {
		return fmt.Errorf("unknown shortcut %q", shortcutType)
	}
	s.Set(u)
	return nil
}
