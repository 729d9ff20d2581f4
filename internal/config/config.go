package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/tailscale/hujson"
)

const (
	appName    = "pwashell"
	configFile = "pwa-config.json"
	envPrefix  = "PWASHELL"
)

var ErrInvalid = errors.New("config: invalid")

// Config is one immutable snapshot of the shell configuration. Readers must
// not modify a Config they did not create; reloads swap in a new value.
type Config struct {
	App       AppConfig       `json:"app"`
	Origins   Origins         `json:"origins"`
	Features  Features        `json:"features"`
	Shortcuts []Shortcut      `json:"shortcuts,omitempty"`
	Window    WindowConfig    `json:"window"`
	DataDir   string          `json:"dataDir"`
	DevServer DevServerConfig `json:"devServer"`
}

type AppConfig struct {
	Name         string `json:"name"`
	StartURL     string `json:"startUrl"`
	CustomScheme string `json:"customScheme,omitempty"`
}

// Origins are the pattern lists consumed by the navigation resolver.
type Origins struct {
	Allowed  []string `json:"allowed"`
	Auth     []string `json:"auth"`
	External []string `json:"external"`
}

type Features map[string]bool

func (f Features) Enabled(name string) bool {
	return f[name]
}

type Shortcut struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type WindowConfig struct {
	Width  int  `json:"width"`
	Height int  `json:"height"`
	Debug  bool `json:"debug"`
}

type DevServerConfig struct {
	Addr string `json:"addr"`
}

type envOverrides struct {
	StartURL string   `envconfig:"START_URL"`
	Allowed  []string `envconfig:"ALLOWED_ORIGINS"`
	Auth     []string `envconfig:"AUTH_ORIGINS"`
	External []string `envconfig:"EXTERNAL_ORIGINS"`
	DataDir  string   `envconfig:"DATA_DIR"`
	DevAddr  string   `envconfig:"DEV_ADDR"`
}

func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:     "PWA Shell",
			StartURL: "https://example.com/",
		},
		Features: Features{
			"preferences":   true,
			"secureStorage": true,
			"share":         true,
			"notifications": true,
			"biometrics":    true,
		},
		Window: WindowConfig{
			Width:  1040,
			Height: 768,
		},
		DevServer: DevServerConfig{
			Addr: "127.0.0.1:7420",
		},
	}
}

// Dir is the per-user directory holding the config file and data.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config at path (the default location when empty), writing
// a default file first if none exists, then applies PWASHELL_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	var cfg *Config
	switch {
	case err == nil:
		cfg, err = decode(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		cfg = Default()
		if err := writeDefault(path, cfg); err != nil {
			return nil, err
		}
		log.Printf("Generated new config at: %s", path)
	default:
		return nil, err
	}

	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(filepath.Dir(path), "data")
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a config document (JSON with comments and trailing commas
// allowed) over the defaults and validates it. Environment overrides are not
// applied.
func Parse(data []byte) (*Config, error) {
	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte) (*Config, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := json.Unmarshal(std, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeDefault(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0600)
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	if env.StartURL != "" {
		cfg.App.StartURL = env.StartURL
	}
	if len(env.Allowed) > 0 {
		cfg.Origins.Allowed = env.Allowed
	}
	if len(env.Auth) > 0 {
		cfg.Origins.Auth = env.Auth
	}
	if len(env.External) > 0 {
		cfg.Origins.External = env.External
	}
	if env.DataDir != "" {
		cfg.DataDir = env.DataDir
	}
	if env.DevAddr != "" {
		cfg.DevServer.Addr = env.DevAddr
	}
	return nil
}

// normalize validates cfg and fills derived defaults: with no allowed origins
// the start URL's host is the only in-app origin.
func (c *Config) normalize() error {
	start, err := c.ParsedStartURL()
	if err != nil {
		return err
	}

	if len(c.Origins.Allowed) == 0 {
		c.Origins.Allowed = []string{start.Hostname()}
	}
	for _, list := range [][]string{c.Origins.Allowed, c.Origins.Auth, c.Origins.External} {
		for _, pattern := range list {
			if strings.TrimSpace(pattern) == "" {
				return fmt.Errorf("%w: empty origin pattern", ErrInvalid)
			}
		}
	}

	if s := c.App.CustomScheme; s != "" {
		if strings.Contains(s, ":") || strings.Contains(s, "/") {
			return fmt.Errorf("%w: customScheme %q must be a bare scheme name", ErrInvalid, s)
		}
		c.App.CustomScheme = strings.ToLower(s)
	}

	for _, sc := range c.Shortcuts {
		if sc.Type == "" || sc.URL == "" {
			return fmt.Errorf("%w: shortcut needs both type and url", ErrInvalid)
		}
	}

	if c.Features == nil {
		c.Features = Features{}
	}
	return nil
}

// ParsedStartURL returns the start URL, which must be absolute http(s).
func (c *Config) ParsedStartURL() (*url.URL, error) {
	u, err := url.Parse(c.App.StartURL)
	if err != nil {
		return nil, fmt.Errorf("%w: startUrl: %v", ErrInvalid, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, fmt.Errorf("%w: startUrl %q must be an absolute http(s) URL", ErrInvalid, c.App.StartURL)
	}
	return u, nil
}

// TargetHost is the host custom-scheme links are rewritten onto.
func (c *Config) TargetHost() string {
	u, err := c.ParsedStartURL()
	if err != nil {
		return ""
	}
	return u.Host
}
