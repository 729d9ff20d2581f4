package deeplink

import (
	"log/slog"

	"github.com/arko-chat/pwashell/internal/config"
	"github.com/arko-chat/pwashell/internal/navigation"
)

// Router owns one slot per link source. The host calls Drain once the web
// view can navigate.
type Router struct {
	Universal *UniversalLinks
	Scheme    *CustomScheme
	Shortcuts *Shortcuts

	logger *slog.Logger
}

func NewRouter(cfg *config.Config, resolver *navigation.Resolver, logger *slog.Logger) (*Router, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start, err := cfg.ParsedStartURL()
	if err != nil {
		return nil, err
	}
	shortcuts, err := NewShortcuts(start, cfg.Shortcuts)
	if err != nil {
		return nil, err
	}
	return &Router{
		Universal: NewUniversalLinks(resolver),
		Scheme:    NewCustomScheme(cfg.App.CustomScheme, start.Host),
		Shortcuts: shortcuts,
		logger:    logger,
	}, nil
}

func (r *Router) HandleUniversalLink(rawURL string) error {
	err := r.Universal.Handle(rawURL)
	r.log("universal", rawURL, err)
	return err
}

func (r *Router) HandleCustomScheme(rawURL string) error {
	err := r.Scheme.Handle(rawURL)
	r.log("scheme", rawURL, err)
	return err
}

func (r *Router) HandleShortcut(shortcutType string) error {
	err := r.Shortcuts.Handle(shortcutType)
	r.log("shortcut", shortcutType, err)
	return err
}

// Drain empties every slot and returns the link that arrived last. Older
// links are dropped.
func (r *Router) Drain() (string, bool) {
	var (
		best    string
		bestSeq uint64
	)
	for _, s := range []*Slot{&r.Universal.Slot, &r.Scheme.Slot, &r.Shortcuts.Slot} {
		u, seq := s.take()
		if seq > bestSeq {
			best, bestSeq = u, seq
		}
	}
	return best, bestSeq != 0
}

func (r *Router) log(source, link string, err error) {
	if err != nil {
		r.logger.Warn("deep link rejected", "source", source, "link", link, "err", err)
		return
	}
	r.logger.Info("deep link pending", "source", source, "link", link)
}
