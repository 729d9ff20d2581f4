package shell

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/config"
	"github.com/arko-chat/pwashell/internal/deeplink"
	"github.com/arko-chat/pwashell/internal/navigation"
	"github.com/arko-chat/pwashell/internal/transport"
	"github.com/arko-chat/pwashell/internal/webview"
)

const (
	childWidth  = 520
	childHeight = 680
)

type Options struct {
	Config     *config.Store
	Dispatcher *bridge.Dispatcher
	Browser    navigation.Opener
	System     navigation.Opener
	// NewWindow defaults to a native webview.
	NewWindow webview.Factory
	Logger    *slog.Logger
}

// Shell is the desktop host: one webview window showing the PWA, with the
// bridge shim injected and every navigation routed through the controller.
type Shell struct {
	cfg        *config.Config
	dispatcher *bridge.Dispatcher
	controller *navigation.Controller
	links      *deeplink.Router
	newWindow  webview.Factory
	logger     *slog.Logger

	anchor  *bridge.UIAnchor
	adapter *transport.Adapter

	mu           sync.Mutex
	mainWindow   webview.Window
	title        string
	firstLoad    bool
	childWindows *xsync.Map[string, webview.Window]
}

func New(opts Options) (*Shell, error) {
	if opts.Config == nil || opts.Dispatcher == nil {
		return nil, errors.New("shell: config and dispatcher are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newWindow := opts.NewWindow
	if newWindow == nil {
		newWindow = webview.New
	}
	browser := opts.Browser
	if browser == nil {
		browser = navigation.BrowserOpener{}
	}
	system := opts.System
	if system == nil {
		system = navigation.SystemOpener{}
	}

	cfg := opts.Config.Snapshot()
	resolver := navigation.NewResolver(cfg.Origins, navigation.WithCache(512))
	links, err := deeplink.NewRouter(cfg, resolver, logger)
	if err != nil {
		return nil, err
	}

	s := &Shell{
		cfg:          cfg,
		dispatcher:   opts.Dispatcher,
		links:        links,
		newWindow:    newWindow,
		logger:       logger,
		title:        cfg.App.Name,
		firstLoad:    true,
		childWindows: xsync.NewMap[string, webview.Window](),
	}
	s.controller = navigation.NewController(navigation.ControllerOptions{
		Resolver:        resolver,
		StartURL:        cfg.App.StartURL,
		Browser:         browser,
		System:          system,
		OnToolbarChange: s.showToolbar,
		Logger:          logger,
	})
	s.anchor = &bridge.UIAnchor{UI: s}
	s.adapter = transport.NewAdapter(opts.Dispatcher, transport.HostFunc(s.eval), transport.Options{
		Config: opts.Config.Snapshot,
		Anchor: s.anchor,
		Logger: logger,
	})
	return s, nil
}

func (s *Shell) Controller() *navigation.Controller {
	return s.controller
}

func (s *Shell) Links() *deeplink.Router {
	return s.links
}

// Open queues a link handed to the app on the command line: a custom-scheme
// link, or an http(s) link treated as a universal link.
func (s *Shell) Open(link string) error {
	if s.cfg.App.CustomScheme != "" && strings.HasPrefix(strings.ToLower(link), s.cfg.App.CustomScheme+":") {
		return s.links.HandleCustomScheme(link)
	}
	return s.links.HandleUniversalLink(link)
}

// Run opens the main window and blocks until it is closed.
func (s *Shell) Run() error {
	w := s.newWindow(s.cfg.Window.Debug)
	w.SetTitle(s.cfg.App.Name)
	w.SetSize(s.cfg.Window.Width, s.cfg.Window.Height, webview.HintNone)

	if err := s.bind(w); err != nil {
		w.Destroy()
		return err
	}
	w.Init(pageStartScript)
	w.Init(transport.InitScript())
	w.Init(navigationScript)

	s.mu.Lock()
	s.mainWindow = w
	s.mu.Unlock()

	w.Navigate(s.cfg.App.StartURL)
	s.logger.Info("shell window opened", "url", s.cfg.App.StartURL)
	w.Run()

	s.logger.Info("window closed, shutting down")
	s.shutdown()
	return nil
}

func (s *Shell) bind(w webview.Window) error {
	bindings := map[string]any{
		"__pwashellPost": func(msg string) {
			s.adapter.Receive(msg)
		},
		"__pwashellPageStart": func() {
			s.adapter.PageWillLoad()
		},
		"__pwashellNavigate":   s.navigate,
		"__pwashellPageLoaded": s.pageLoaded,
		"__pwashellDone": func() {
			s.navigateMain(s.controller.Done())
		},
	}
	for name, fn := range bindings {
		if err := w.Bind(name, fn); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return nil
}

// navigate is asked by the page before following a link. It reports whether
// the page should load the URL itself.
func (s *Shell) navigate(rawURL, kind string) bool {
	p := s.controller.Decide(rawURL)
	if kind == "popup" && p.InApp() {
		s.OpenChildWindow(uuid.NewString(), s.cfg.App.Name, rawURL, childWidth, childHeight)
		return false
	}
	return p.InApp()
}

// pageLoaded runs once the document is parsed and returns whether the Done
// bar should be shown on it. Bridge calls the page made before this point
// belong to the same document and are still delivered.
func (s *Shell) pageLoaded(rawURL string) bool {
	p, fallback := s.controller.DidCommit(rawURL)
	if !p.InApp() {
		s.logger.Info("left the app, returning", "url", rawURL, "policy", p, "to", fallback)
		s.navigateMain(fallback)
		return false
	}

	s.mu.Lock()
	first := s.firstLoad
	s.firstLoad = false
	s.mu.Unlock()

	if first {
		if link, ok := s.links.Drain(); ok {
			s.logger.Info("opening pending link", "url", link)
			if s.controller.Decide(link).InApp() {
				s.navigateMain(link)
			}
		}
	}
	return s.controller.ToolbarVisible()
}

func (s *Shell) eval(js string) {
	s.mu.Lock()
	w := s.mainWindow
	s.mu.Unlock()
	if w == nil {
		return
	}
	w.Dispatch(func() {
		w.Eval(js)
	})
}

func (s *Shell) navigateMain(url string) {
	s.mu.Lock()
	w := s.mainWindow
	s.mu.Unlock()
	if w == nil || url == "" {
		return
	}
	w.Dispatch(func() {
		w.Navigate(url)
	})
}

func (s *Shell) showToolbar(visible bool) {
	s.eval(fmt.Sprintf("window.__pwashellToolbar && window.__pwashellToolbar(%t);", visible))
}

// Emit pushes an event to the page.
func (s *Shell) Emit(ev bridge.Event) error {
	return s.adapter.Emit(ev)
}

func (s *Shell) GetTitle() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.title
}

func (s *Shell) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		s.title = s.cfg.App.Name
	} else {
		s.title = fmt.Sprintf("%s | %s", s.cfg.App.Name, trimmed)
	}

	if s.mainWindow != nil {
		w, newTitle := s.mainWindow, s.title
		w.Dispatch(func() {
			w.SetTitle(newTitle)
		})
	}
}

func (s *Shell) OpenChildWindow(id, title, url string, width, height int) {
	if _, exists := s.childWindows.Load(id); exists {
		return
	}

	go func() {
		w := s.newWindow(false)
		w.SetTitle(title)
		w.SetSize(width, height, webview.HintNone)
		w.Navigate(url)

		s.childWindows.Store(id, w)
		w.Run()

		s.childWindows.Delete(id)
	}()
}

func (s *Shell) CloseChildWindow(id string) {
	w, exists := s.childWindows.Load(id)

	if !exists {
		return
	}

	w.Dispatch(func() {
		w.Destroy()
	})
}

func (s *Shell) ChildWindows() int {
	return s.childWindows.Size()
}

func (s *Shell) CloseMainWindow() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mainWindow == nil {
		return
	}

	w := s.mainWindow
	w.Dispatch(func() {
		w.Terminate()
	})
}

func (s *Shell) shutdown() {
	s.adapter.Close()
	s.childWindows.Range(func(id string, _ webview.Window) bool {
		s.CloseChildWindow(id)
		return true
	})

	s.mu.Lock()
	w := s.mainWindow
	s.mainWindow = nil
	s.mu.Unlock()
	if w != nil {
		w.Destroy()
	}
}
