package navigation

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arko-chat/pwashell/internal/config"
)

func TestResolve(t *testing.T) {
	allowed := []string{"*.example.com", "docs.partner.io/app/*"}
	auth := []string{"accounts.google.com", "login.microsoftonline.com"}
	external := []string{"example.com/blog/*"}

	cases := []struct {
		url  string
		want Policy
	}{
		{"tel:+15551234567", System},
		{"mailto:someone@example.com", System},
		{"SMS:12345", System},
		{"https://app.example.com/dashboard", Allow},
		{"https://example.com/", Allow},
		{"https://APP.Example.COM/x", Allow},
		{"http://deep.nested.example.com", Allow},
		{"https://accounts.google.com/o/oauth2/auth", AllowWithToolbar},
		{"https://random.org", External},
		{"https://evil.example.com.attacker.net", External},
		{"https://notexample.com", External},
		{"https://example.com/blog/post-1", External},
		{"https://example.com/blog", External},
		{"https://example.com/blogroll", Allow},
		{"https://docs.partner.io/app", Allow},
		{"https://docs.partner.io/app/settings", Allow},
		{"https://docs.partner.io/application", External},
		{"https://docs.partner.io/", External},
		{"slack://open", External},
		{"intent://scan/#Intent;scheme=zxing;end", External},
		{"not a url", External},
		{"", External},
		{"//app.example.com/inbox", External},
		{"/relative/path", External},
		{"https://", Cancel},
		{"https:///path-only", Cancel},
		{"://missing-scheme", Cancel},
	}
	for _, tc := range cases {
		t.Run(tc.url, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.url, allowed, auth, external))
		})
	}
}

func TestResolveEmptyListsSendEverythingOut(t *testing.T) {
	assert.Equal(t, External, Resolve("https://example.com", nil, nil, nil))
	assert.Equal(t, System, Resolve("tel:1", nil, nil, nil))
}

func TestResolveExternalBeatsAuthBeatsAllowed(t *testing.T) {
	u := "https://id.example.com/login"
	assert.Equal(t, External, Resolve(u, []string{"*.example.com"}, []string{"id.example.com"}, []string{"id.example.com"}))
	assert.Equal(t, AllowWithToolbar, Resolve(u, []string{"*.example.com"}, []string{"id.example.com"}, nil))
	assert.Equal(t, Allow, Resolve(u, []string{"*.example.com"}, nil, nil))
}

func TestResolverCache(t *testing.T) {
	r := NewResolver(config.Origins{Allowed: []string{"example.com"}}, WithCache(4))
	require.NotNil(t, r.cache)

	for range 3 {
		assert.Equal(t, Allow, r.Resolve("https://example.com/a"))
	}
	assert.Equal(t, 1, r.cache.Len())

	p, ok := r.cache.Get("https://example.com/a")
	require.True(t, ok)
	assert.Equal(t, Allow, p)

	for i := range 10 {
		r.Resolve("https://other.test/" + string(rune('a'+i)))
	}
	assert.Equal(t, 4, r.cache.Len())
}

func TestPatternMatch(t *testing.T) {
	cases := []struct {
		pattern string
		url     string
		want    bool
	}{
		{"example.com", "https://example.com/anything", true},
		{"example.com", "https://sub.example.com", false},
		{"*.example.com", "https://a.b.example.com", true},
		{"*.example.com", "https://example.com.evil.net", false},
		{"https://Example.com", "http://example.com", true},
		{"localhost:8080", "http://localhost:8080/", true},
		{"localhost:8080", "http://localhost:9090/", false},
		{"example.com.", "https://example.com", true},
		{"*", "https://anything.test", true},
		{"example.com/Docs", "https://example.com/Docs", true},
		{"example.com/Docs", "https://example.com/docs", false},
		{"example.com/*", "https://example.com/", true},
	}
	for _, tc := range cases {
		u, err := url.Parse(tc.url)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ParsePattern(tc.pattern).Match(u), "%s vs %s", tc.pattern, tc.url)
	}
}

func TestPolicyText(t *testing.T) {
	for _, p := range []Policy{Allow, AllowWithToolbar, External, System, Cancel} {
		text, err := p.MarshalText()
		require.NoError(t, err)

		var back Policy
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, p, back)
	}
	_, err := ParsePolicy("teleport")
	assert.Error(t, err)
	assert.True(t, AllowWithToolbar.InApp())
	assert.False(t, External.InApp())
}
