package config

import (
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Store hands out the current config snapshot. Reload swaps the snapshot
// atomically; concurrent Reload calls share one read of the file.
type Store struct {
	path    string
	static  bool
	current atomic.Pointer[Config]
	group   singleflight.Group
	logger  *slog.Logger
}

func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, logger: logger}
	s.current.Store(cfg)
	return s, nil
}

// NewStaticStore wraps an already built config. Reload keeps returning it.
func NewStaticStore(cfg *Config) *Store {
	s := &Store{static: true, logger: slog.Default()}
	s.current.Store(cfg)
	return s
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Snapshot() *Config {
	return s.current.Load()
}

func (s *Store) Reload() (*Config, error) {
	if s.static {
		return s.current.Load(), nil
	}

	v, err, shared := s.group.Do("reload", func() (any, error) {
		cfg, err := Load(s.path)
		if err != nil {
			return nil, err
		}
		s.current.Store(cfg)
		return cfg, nil
	})
	if err != nil {
		s.logger.Warn("config reload failed, keeping previous snapshot", "path", s.path, "err", err)
		return s.current.Load(), err
	}

	s.logger.Info("config reloaded", "path", s.path, "shared", shared)
	return v.(*Config), nil
}
