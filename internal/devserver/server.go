package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/config"
	"github.com/arko-chat/pwashell/internal/modules/notifications"
	"github.com/arko-chat/pwashell/internal/navigation"
	"github.com/arko-chat/pwashell/internal/qr"
)

type Options struct {
	Config     *config.Store
	Dispatcher *bridge.Dispatcher
	Pairing    *Pairing
	Logger     *slog.Logger
}

// Server exposes the bridge over a websocket so a PWA running in an ordinary
// browser can call native modules during development.
type Server struct {
	config     *config.Store
	dispatcher *bridge.Dispatcher
	pairing    *Pairing
	hub        *Hub
	logger     *slog.Logger
	router     *chi.Mux
	upgrader   websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
}

func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pairing := opts.Pairing
	if pairing == nil {
		p, err := NewPairing(logger)
		if err != nil {
			return nil, err
		}
		pairing = p
	}

	s := &Server{
		config:     opts.Config,
		dispatcher: opts.Dispatcher,
		pairing:    pairing,
		hub:        NewHub(logger),
		logger:     logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/pair", s.handlePair)

	r.Group(func(r chi.Router) {
		r.Use(s.requirePairing)

		r.Get("/shim.js", s.handleShim)
		r.Get("/bridge", s.handleBridge)
		r.Get("/api/modules", s.handleModules)
		r.Get("/api/resolve", s.handleResolve)
		r.Post("/api/push", s.handlePush)
		r.Post("/api/reload", s.handleReload)
	})

	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) Pairing() *Pairing {
	return s.pairing
}

// Serve runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("dev bridge listening", "addr", "http://"+ln.Addr().String(), "code", s.pairing.Code())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.cancel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) snapshot() *config.Config {
	if s.config == nil {
		return config.Default()
	}
	return s.config.Snapshot()
}

func (s *Server) requirePairing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.pairing.Authorized(r) {
			http.Error(w, "not paired", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// isLocal reports whether r came from this machine. The pairing code is
// only ever shown to local requests.
func isLocal(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// checkOrigin admits socket handshakes from this server's own pages, the
// start URL's origin and the app's allowed origins. Requests without an Origin header come from
// native clients and are let through; the pairing gate still applies.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	cfg := s.snapshot()
	if start, err := url.Parse(cfg.App.StartURL); err == nil && strings.EqualFold(u.Scheme+"://"+u.Host, start.Scheme+"://"+start.Host) {
		return true
	}
	return navigation.NewResolver(cfg.Origins).Resolve(origin) == navigation.Allow
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cfg := s.snapshot()
	base := baseURL(r)

	data := indexData{
		AppName:  cfg.App.Name,
		StartURL: cfg.App.StartURL,
		Code:     "open this page on the host to pair",
		Modules:  s.dispatcher.Registry().Names(),
		Clients:  s.hub.Count(),
	}
	if isLocal(r) {
		code := url.QueryEscape(s.pairing.Code())
		data.Code = s.pairing.Code()
		data.PairURL = base + "/pair?code=" + code
		data.ShimURL = base + "/shim.js?code=" + code

		qrURI, err := qr.DataURI(data.PairURL, 192)
		if err != nil {
			s.logger.Warn("pairing QR failed", "err", err)
		}
		data.QRDataURI = qrURI
	}

	page := indexPage(data)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		s.logger.Error("render index", "err", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "clients": s.hub.Count()})
}

func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	if !s.pairing.CheckCode(r.URL.Query().Get("code")) {
		http.Error(w, "wrong pairing code", http.StatusForbidden)
		return
	}
	if err := s.pairing.Issue(w, uuid.NewString()); err != nil {
		s.logger.Error("issue pairing cookie", "err", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleShim(w http.ResponseWriter, r *http.Request) {
	socket := "ws://" + r.Host + "/bridge"
	if r.TLS != nil {
		socket = "wss://" + r.Host + "/bridge"
	}
	if code := r.URL.Query().Get("code"); code != "" {
		socket += "?code=" + url.QueryEscape(code)
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	io.WriteString(w, connectorScript(socket))
}

func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "err", err)
		return
	}

	client := NewClient(s.hub, conn)
	s.hub.Register(client)
	go client.WritePump()

	// Calls belong to the connection: a closed page cancels them.
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	client.ReadPump(func(raw []byte) {
		call := bridge.NewCallContext(s.snapshot(), client, nil)
		go func() {
			resp := s.dispatcher.Dispatch(ctx, raw, call)
			if ctx.Err() != nil {
				return
			}
			data, err := responseFrame(resp)
			if err != nil {
				s.logger.Error("encode response frame", "id", resp.ID, "err", err)
				if data, err = responseFrame(bridge.Failure(resp.ID, bridge.ModuleError(err))); err != nil {
					return
				}
			}
			s.hub.SendTo(client, data)
		}()
	})
}

func (s *Server) handleModules(w http.ResponseWriter, _ *http.Request) {
	reg := s.dispatcher.Registry()
	out := map[string][]string{}
	for _, name := range reg.Names() {
		if m, ok := reg.Module(name); ok {
			out[name] = m.Actions().Sorted()
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}
	policy := navigation.NewResolver(s.snapshot().Origins).Resolve(target)
	writeJSON(w, http.StatusOK, map[string]any{"url": target, "policy": policy})
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxMessageSize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := notifications.DeliverPush(s.hub, body); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"clients": s.hub.Count()})
}

func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	if s.config == nil {
		http.Error(w, "no config store", http.StatusConflict)
		return
	}
	cfg, err := s.config.Reload()
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"startUrl": cfg.App.StartURL})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
