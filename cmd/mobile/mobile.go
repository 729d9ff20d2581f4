// Package mobile is the gomobile entry point. Native code registers its
// NativeBridge, calls Start, and then forwards page messages, navigation
// decisions, deep links and pushes through the exported functions.
package mobile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/config"
	"github.com/arko-chat/pwashell/internal/deeplink"
	"github.com/arko-chat/pwashell/internal/logger"
	"github.com/arko-chat/pwashell/internal/modules"
	"github.com/arko-chat/pwashell/internal/modules/notifications"
	"github.com/arko-chat/pwashell/internal/modules/platform"
	"github.com/arko-chat/pwashell/internal/modules/preferences"
	"github.com/arko-chat/pwashell/internal/navigation"
	"github.com/arko-chat/pwashell/internal/transport"
)

// Version is reported to the page by platform.getInfo.
const Version = "1.0.0"

var errNotStarted = errors.New("mobile: Start has not been called")

type session struct {
	logger     *slog.Logger
	native     bridge.NativeBridge
	adapter    *transport.Adapter
	controller *navigation.Controller
	links      *deeplink.Router
	prefs      *preferences.Store
	anchor     *bridge.UIAnchor
	ui         *nativeUI
}

// nativeUI records the page title; the native side reads it with Title.
type nativeUI struct {
	mu    sync.Mutex
	title string
}

func (u *nativeUI) SetTitle(title string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.title = title
}

var (
	mu       sync.Mutex
	current  *session
	logLevel = "info"
)

func RegisterBridge(b bridge.NativeBridge) {
	bridge.RegisterNative(b)
}

// SetLogLevel sets the level of sessions started afterwards: debug, info,
// warn or error.
func SetLogLevel(level string) error {
	if _, err := logger.ParseLevel(level); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	logLevel = level
	return nil
}

// Start loads the config at configPath, opens the data stores under dataDir
// and returns the URL the web view should load first: a link that arrived
// before Start, or the start URL.
func Start(configPath, dataDir string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	if current != nil {
		return "", fmt.Errorf("shell already running")
	}

	native, err := bridge.Native()
	if err != nil {
		return "", fmt.Errorf("call RegisterBridge before Start: %w", err)
	}

	slogger, err := logger.New(logger.Options{Level: logLevel, Out: os.Stdout})
	if err != nil {
		return "", err
	}

	store, err := config.NewStore(configPath, slogger)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	cfg := store.Snapshot()

	s := &session{logger: slogger, native: native, ui: &nativeUI{title: cfg.App.Name}}
	s.anchor = &bridge.UIAnchor{UI: s.ui}

	if cfg.Features.Enabled(preferences.Name) {
		dir := filepath.Join(dataDir, "preferences")
		if err := os.MkdirAll(dir, 0700); err != nil {
			return "", fmt.Errorf("failed to create preferences directory: %w", err)
		}
		if s.prefs, err = preferences.Open(dir, slogger); err != nil {
			return "", fmt.Errorf("failed to open preferences: %w", err)
		}
	}

	browser := navigation.OpenerFunc(native.OpenURL)
	resolver := navigation.NewResolver(cfg.Origins, navigation.WithCache(512))
	s.controller = navigation.NewController(navigation.ControllerOptions{
		Resolver: resolver,
		StartURL: cfg.App.StartURL,
		Browser:  browser,
		System:   navigation.OpenerFunc(native.OpenSystemURL),
		OnToolbarChange: func(visible bool) {
			if err := native.SetToolbarVisible(visible); err != nil {
				slogger.Warn("toolbar update failed", "visible", visible, "err", err)
			}
		},
		Logger: slogger,
	})

	if s.links, err = deeplink.NewRouter(cfg, resolver, slogger); err != nil {
		s.close()
		return "", err
	}

	reg := bridge.NewRegistry()
	modules.RegisterAll(reg, modules.Deps{
		Config:      cfg,
		Info:        platform.Info{Shell: "mobile", Version: Version},
		Browser:     browser,
		Preferences: s.prefs,
		Logger:      slogger,
	})
	host := transport.HostFunc(func(js string) {
		if err := native.EvaluateJavaScript(js); err != nil {
			slogger.Warn("evaluate javascript failed", "err", err)
		}
	})
	s.adapter = transport.NewAdapter(bridge.NewDispatcher(reg, slogger), host, transport.Options{
		Config: store.Snapshot,
		Anchor: s.anchor,
		Logger: slogger,
	})

	current = s
	slogger.Info("mobile shell started", "startUrl", cfg.App.StartURL, "modules", reg.Names())

	if link, ok := drainPending(); ok {
		return link, nil
	}
	return cfg.App.StartURL, nil
}

func Stop() {
	mu.Lock()
	defer mu.Unlock()

	if current != nil {
		current.close()
		current = nil
	}
}

func (s *session) close() {
	if s.adapter != nil {
		s.adapter.Close()
	}
	if s.prefs != nil {
		if err := s.prefs.Close(); err != nil {
			s.logger.Warn("failed to close preferences", "err", err)
		}
	}
}

func active() (*session, error) {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return nil, errNotStarted
	}
	return current, nil
}

// InitScript is the JavaScript the web view must inject at document start.
func InitScript() string {
	return transport.InitScript()
}

// PostMessage takes one message posted by the page.
func PostMessage(message string) error {
	s, err := active()
	if err != nil {
		return err
	}
	s.adapter.Receive(message)
	return nil
}

// PageWillLoad is called when the web view starts a new document. Responses
// for calls made by the old document are dropped.
func PageWillLoad() {
	if s, err := active(); err == nil {
		s.adapter.PageWillLoad()
	}
}

// ResolveNavigation decides a navigation before the web view performs it and
// returns the policy name. The web view loads the URL only for "allow" and
// "allowWithToolbar"; handoffs to the browser or OS have already happened.
func ResolveNavigation(url string) (string, error) {
	s, err := active()
	if err != nil {
		return "", err
	}
	return s.controller.Decide(url).String(), nil
}

func DidRedirect(url string) (string, error) {
	s, err := active()
	if err != nil {
		return "", err
	}
	return s.controller.DidRedirect(url).String(), nil
}

// Done is the toolbar button. It returns the URL to load.
func Done() (string, error) {
	s, err := active()
	if err != nil {
		return "", err
	}
	return s.controller.Done(), nil
}

// Title is the page title last set through app.setTitle.
func Title() string {
	s, err := active()
	if err != nil {
		return ""
	}
	s.ui.mu.Lock()
	defer s.ui.mu.Unlock()
	return s.ui.title
}

// DeliverPush forwards a push notification payload to the page.
func DeliverPush(payload string) error {
	s, err := active()
	if err != nil {
		return err
	}
	return notifications.DeliverPush(s.adapter, []byte(payload))
}
