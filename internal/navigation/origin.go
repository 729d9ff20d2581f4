package navigation

import (
	"net/url"
	"strings"
)

// Pattern is one entry of an origin list. Supported forms:
//
//	example.com           exact host
//	*.example.com         example.com and any subdomain of it
//	example.com/docs/*    host plus /docs or anything below it
//	example.com/docs      host plus exactly /docs
//	*                     any host
//
// Hosts compare case-insensitively. A leading http:// or https:// on the
// pattern is ignored. A pattern carrying a port only matches that port.
type Pattern struct {
	raw      string
	host     string
	any      bool
	wildcard bool
	path     string
	subtree  bool
}

func ParsePattern(s string) Pattern {
	p := Pattern{raw: s}

	rest := strings.TrimSpace(s)
	if i := strings.Index(rest, "://"); i >= 0 {
		if scheme := strings.ToLower(rest[:i]); scheme == "http" || scheme == "https" {
			rest = rest[i+3:]
		}
	}

	host, path, hasPath := strings.Cut(rest, "/")
	host = strings.ToLower(host)
	if hasPath {
		path = "/" + path
		if trimmed, ok := strings.CutSuffix(path, "/*"); ok {
			path = trimmed
			p.subtree = true
		}
		p.path = strings.TrimSuffix(path, "/")
	}

	switch {
	case host == "*":
		p.any = true
	case strings.HasPrefix(host, "*."):
		p.wildcard = true
		host = strings.TrimPrefix(host, "*.")
	}
	p.host = strings.TrimSuffix(host, ".")
	return p
}

func (p Pattern) String() string { return p.raw }

// Match reports whether u falls under the pattern.
func (p Pattern) Match(u *url.URL) bool {
	return p.matchHost(u) && p.matchPath(u.EscapedPath())
}

func (p Pattern) matchHost(u *url.URL) bool {
	if p.any {
		return true
	}

	host := u.Hostname()
	if strings.Contains(p.host, ":") {
		host = u.Host
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" || p.host == "" {
		return false
	}

	if host == p.host {
		return true
	}
	// Anchored on the dot: *.example.com never matches example.com.attacker.net
	// or notexample.com.
	return p.wildcard && strings.HasSuffix(host, "."+p.host)
}

func (p Pattern) matchPath(path string) bool {
	if p.path == "" && !p.subtree {
		return true
	}
	if path == "" {
		path = "/"
	}
	if path == p.path || path == p.path+"/" {
		return true
	}
	if p.path == "" {
		return p.subtree
	}
	return p.subtree && strings.HasPrefix(path, p.path+"/")
}

func parsePatterns(list []string) []Pattern {
	out := make([]Pattern, 0, len(list))
	for _, s := range list {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, ParsePattern(s))
	}
	return out
}

func matchAny(patterns []Pattern, u *url.URL) bool {
	for _, p := range patterns {
		if p.Match(u) {
			return true
		}
	}
	return false
}
