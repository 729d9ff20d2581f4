package navigation

import (
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arko-chat/pwashell/internal/config"
)

var systemSchemes = map[string]struct{}{
	"tel":            {},
	"mailto":         {},
	"sms":            {},
	"facetime":       {},
	"facetime-audio": {},
	"maps":           {},
	"itms-apps":      {},
	"itms-appss":     {},
}

// Resolver classifies URLs against the three origin lists. It is immutable;
// build a new one to pick up configuration changes.
type Resolver struct {
	allowed  []Pattern
	auth     []Pattern
	external []Pattern
	cache    *lru.Cache[string, Policy]
}

type Option func(*Resolver)

// WithCache memoises up to size resolutions.
func WithCache(size int) Option {
	return func(r *Resolver) {
		if size <= 0 {
			return
		}
		c, err := lru.New[string, Policy](size)
		if err == nil {
			r.cache = c
		}
	}
}

func NewResolver(origins config.Origins, opts ...Option) *Resolver {
	r := &Resolver{
		allowed:  parsePatterns(origins.Allowed),
		auth:     parsePatterns(origins.Auth),
		external: parsePatterns(origins.External),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve is a one-shot resolution without building a Resolver.
func Resolve(rawURL string, allowed, auth, external []string) Policy {
	return NewResolver(config.Origins{
		Allowed:  allowed,
		Auth:     auth,
		External: external,
	}).Resolve(rawURL)
}

// Resolve applies, first match wins:
//
//  1. system scheme                → System
//  2. scheme other than http(s)    → External
//  3. external origin              → External
//  4. auth origin                  → AllowWithToolbar
//  5. allowed origin               → Allow
//  6. anything else                → External
//
// Input with no scheme falls through to External. Input that cannot be
// parsed, or is http(s) without a host, resolves to Cancel.
func (r *Resolver) Resolve(rawURL string) Policy {
	if r.cache != nil {
		if p, ok := r.cache.Get(rawURL); ok {
			return p
		}
	}

	p := r.resolve(rawURL)
	if r.cache != nil {
		r.cache.Add(rawURL, p)
	}
	return p
}

func (r *Resolver) resolve(rawURL string) Policy {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Cancel
	}
	if u.Scheme == "" {
		return External
	}

	scheme := strings.ToLower(u.Scheme)
	if _, ok := systemSchemes[scheme]; ok {
		return System
	}
	if scheme != "http" && scheme != "https" {
		return External
	}
	if u.Host == "" {
		return Cancel
	}

	switch {
	case matchAny(r.external, u):
		return External
	case matchAny(r.auth, u):
		return AllowWithToolbar
	case matchAny(r.allowed, u):
		return Allow
	}
	return External
}
