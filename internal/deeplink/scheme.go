package deeplink

import (
	"fmt"
	"net/url"
	"strings"
)

// CustomScheme turns app-scheme links into https URLs on the target host and
// parks them in its slot.
type CustomScheme struct {
	Slot
	scheme     string
	targetHost string
}

func NewCustomScheme(scheme, targetHost string) *CustomScheme {
	return &CustomScheme{
		scheme:     strings.ToLower(scheme),
		targetHost: targetHost,
	}
}

func (c *CustomScheme) Scheme() string {
	return c.scheme
}

// Rewrite maps scheme://first/rest?q#f to https://<target>/first/rest?q#f.
// The link's host becomes the first path segment; everything after it is
// carried over byte for byte.
func (c *CustomScheme) Rewrite(rawURL string) (string, error) {
	if c.scheme == "" || c.targetHost == "" {
		return "", fmt.Errorf("custom scheme: not configured")
	}

	scheme, rest, ok := strings.Cut(rawURL, ":")
	if !ok || !strings.EqualFold(scheme, c.scheme) {
		return "", fmt.Errorf("custom scheme: %q is not a %s: link", rawURL, c.scheme)
	}
	rest = strings.TrimLeft(rest, "/")

	out := "https://" + c.targetHost + "/" + rest
	if _, err := url.Parse(out); err != nil {
		return "", fmt.Errorf("custom scheme: %w", err)
	}
	return out, nil
}

func (c *CustomScheme) Handle(rawURL string) error {
	out, err := c.Rewrite(rawURL)
	if err != nil {
		return err
	}
	c.Set(out)
	return nil
}
