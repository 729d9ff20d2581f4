package deeplink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arko-chat/pwashell/internal/config"
	"github.com/arko-chat/pwashell/internal/logger"
	"github.com/arko-chat/pwashell/internal/navigation"
)

func TestCustomSchemeRewrite(t *testing.T) {
	c := NewCustomScheme("myapp", "app.example.com")

	cases := map[string]string{
		"myapp://dashboard/page":             "https://app.example.com/dashboard/page",
		"myapp://dashboard/page?x=1&y=%20#f": "https://app.example.com/dashboard/page?x=1&y=%20#f",
		"MYAPP://Inbox":                      "https://app.example.com/Inbox",
		"myapp://":                           "https://app.example.com/",
		"myapp:settings":                     "https://app.example.com/settings",
		"myapp://?ref=push":                  "https://app.example.com/?ref=push",
	}
	for in, want := range cases {
		got, err := c.Rewrite(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := c.Rewrite("https://dashboard/page")
	assert.Error(t, err)
	_, err = c.Rewrite("nocolon")
	assert.Error(t, err)
	_, err = NewCustomScheme("", "app.example.com").Rewrite("myapp://x")
	assert.Error(t, err)
}

func TestCustomSchemeHandleParksRewrittenURL(t *testing.T) {
	c := NewCustomScheme("myapp", "app.example.com")
	require.NoError(t, c.Handle("myapp://a/b#top"))

	u, ok := c.Consume()
	assert.True(t, ok)
	assert.Equal(t, "https://app.example.com/a/b#top", u)
}

func TestUniversalLinksRejectOffAppURLs(t *testing.T) {
	l := NewUniversalLinks(navigation.NewResolver(config.Origins{Allowed: []string{"app.example.com"}}))

	assert.NoError(t, l.Handle("https://app.example.com/item/7"))
	assert.Error(t, l.Handle("https://elsewhere.test/item/7"))
	assert.Error(t, l.Handle("myapp://item/7"))

	u, ok := l.Consume()
	assert.True(t, ok)
	assert.Equal(t, "https://app.example.com/item/7", u)
}

func TestShortcutsResolveAgainstStartURL(t *testing.T) {
	cfg, err := config.Parse([]byte(`{
		"app": {"startUrl": "https://app.example.com/home/"},
		"shortcuts": [
			{"type": "compose", "url": "/compose"},
			{"type": "inbox", "url": "inbox?filter=unread"},
			{"type": "help", "url": "https://help.example.com/"}
		]
	}`))
	require.NoError(t, err)
	start, err := cfg.ParsedStartURL()
	require.NoError(t, err)

	s, err := NewShortcuts(start, cfg.Shortcuts)
	require.NoError(t, err)

	u, _ := s.URL("compose")
	assert.Equal(t, "https://app.example.com/compose", u)
	u, _ = s.URL("inbox")
	assert.Equal(t, "https://app.example.com/home/inbox?filter=unread", u)
	u, _ = s.URL("help")
	assert.Equal(t, "https://help.example.com/", u)

	assert.Error(t, s.Handle("missing"))
}

func TestRouterDrainReturnsNewestLink(t *testing.T) {
	cfg, err := config.Parse([]byte(`{
		"app": {"startUrl": "https://app.example.com/", "customScheme": "myapp"},
		"shortcuts": [{"type": "compose", "url": "/compose"}]
	}`))
	require.NoError(t, err)

	r, err := NewRouter(cfg, navigation.NewResolver(cfg.Origins), logger.Discard())
	require.NoError(t, err)

	_, ok := r.Drain()
	assert.False(t, ok)

	require.NoError(t, r.HandleShortcut("compose"))
	require.NoError(t, r.HandleUniversalLink("https://app.example.com/from-mail"))
	require.NoError(t, r.HandleCustomScheme("myapp://from/push"))

	u, ok := r.Drain()
	assert.True(t, ok)
	assert.Equal(t, "https://app.example.com/from/push", u)

	_, ok = r.Drain()
	assert.False(t, ok, "drain empties every slot")

	require.NoError(t, r.HandleCustomScheme("myapp://old"))
	require.NoError(t, r.HandleUniversalLink("https://app.example.com/new"))
	u, _ = r.Drain()
	assert.Equal(t, "https://app.example.com/new", u)
}
