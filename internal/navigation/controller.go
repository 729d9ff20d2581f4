package navigation

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/arko-chat/pwashell/internal/config"
)

// State is where the controller ended up after the latest navigation.
type State int

const (
	Idle State = iota
	Allowed
	ToolbarVisible
	ExternalHandoff
	SystemHandoff
	Blocked
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Allowed:
		return "allowed"
	case ToolbarVisible:
		return "toolbarVisible"
	case ExternalHandoff:
		return "externalHandoff"
	case SystemHandoff:
		return "systemHandoff"
	case Blocked:
		return "blocked"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type ControllerOptions struct {
	Resolver *Resolver
	// StartURL is where Done returns to.
	StartURL string
	// Browser receives External URLs, System receives System URLs. A nil
	// opener makes that handoff fail, which blocks the navigation.
	Browser Opener
	System  Opener
	// OnToolbarChange is called with the controller lock held whenever the
	// escape hatch visibility flips. It must not call back into the
	// Controller.
	OnToolbarChange func(visible bool)
	Logger          *slog.Logger
}

// Controller applies resolver decisions as navigations happen: it hands URLs
// off to the browser or OS and keeps the escape-hatch toolbar in sync.
type Controller struct {
	resolver *Resolver
	startURL string
	browser  Opener
	system   Opener
	onBar    func(bool)
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	toolbar   bool
	lastInApp string
}

func NewController(opts ControllerOptions) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolver := opts.Resolver
	if resolver == nil {
		var origins config.Origins
		if u, err := url.Parse(opts.StartURL); err == nil && u.Host != "" {
			origins.Allowed = []string{u.Host}
		}
		resolver = NewResolver(origins)
	}
	return &Controller{
		resolver: resolver,
		startURL: opts.StartURL,
		browser:  opts.Browser,
		system:   opts.System,
		onBar:    opts.OnToolbarChange,
		logger:   logger,
	}
}

// Decide handles a navigation the host is about to perform. The host loads
// the URL itself only when the returned policy is InApp.
func (c *Controller) Decide(rawURL string) Policy {
	return c.apply(rawURL, "navigate")
}

// DidRedirect re-runs resolution for a server redirect. A redirect can move
// from an auth origin to an allowed one or off the app entirely, so the
// toolbar state from the original request is not trusted.
func (c *Controller) DidRedirect(rawURL string) Policy {
	return c.apply(rawURL, "redirect")
}

// DidCommit is for hosts that cannot intercept navigations up front and only
// learn about a page once it loads. When the page must not stay in the web
// view, the returned fallback is the URL to navigate back to.
func (c *Controller) DidCommit(rawURL string) (Policy, string) {
	c.mu.Lock()
	fallback := c.lastInApp
	c.mu.Unlock()

	p := c.apply(rawURL, "commit")
	if p.InApp() {
		return p, ""
	}
	if fallback == "" {
		fallback = c.startURL
	}
	return p, fallback
}

// Done is the user tapping the escape hatch: the toolbar hides and the host
// should load the returned start URL.
func (c *Controller) Done() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setToolbarLocked(false)
	c.state = Allowed
	c.lastInApp = c.startURL
	c.logger.Debug("navigation done", "url", c.startURL)
	return c.startURL
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) ToolbarVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.toolbar
}

func (c *Controller) StartURL() string {
	return c.startURL
}

func (c *Controller) Resolver() *Resolver {
	return c.resolver
}

func (c *Controller) apply(rawURL, reason string) Policy {
	p := c.resolver.Resolve(rawURL)

	c.mu.Lock()
	c.setToolbarLocked(p == AllowWithToolbar)
	switch p {
	case Allow:
		c.state = Allowed
		c.lastInApp = rawURL
	case AllowWithToolbar:
		c.state = ToolbarVisible
		c.lastInApp = rawURL
	case External:
		c.state = ExternalHandoff
	case System:
		c.state = SystemHandoff
	default:
		c.state = Blocked
	}
	c.mu.Unlock()

	c.logger.Debug("navigation resolved", "url", rawURL, "policy", p, "reason", reason)

	var err error
	switch p {
	case External:
		err = open(c.browser, rawURL)
	case System:
		err = open(c.system, rawURL)
	}
	if err != nil {
		c.logger.Warn("navigation handoff failed", "url", rawURL, "policy", p, "err", err)
		c.mu.Lock()
		c.state = Blocked
		c.mu.Unlock()
	}
	return p
}

func (c *Controller) setToolbarLocked(visible bool) {
	if c.toolbar == visible {
		return
	}
	c.toolbar = visible
	if c.onBar != nil {
		c.onBar(visible)
	}
}
