package modules

import (
	"log/slog"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/config"
	"github.com/arko-chat/pwashell/internal/modules/app"
	"github.com/arko-chat/pwashell/internal/modules/biometrics"
	"github.com/arko-chat/pwashell/internal/modules/notifications"
	"github.com/arko-chat/pwashell/internal/modules/platform"
	"github.com/arko-chat/pwashell/internal/modules/preferences"
	"github.com/arko-chat/pwashell/internal/modules/securestorage"
	"github.com/arko-chat/pwashell/internal/modules/share"
	"github.com/arko-chat/pwashell/internal/navigation"
)

// Deps are the host pieces capability modules are built from.
type Deps struct {
	Config  *config.Config
	Info    platform.Info
	Browser navigation.Opener
	// Preferences may be nil, in which case the preferences module is not
	// registered.
	Preferences *preferences.Store
	Logger      *slog.Logger
}

// RegisterAll installs the built-in modules. platform and app are always on;
// the rest follow their feature flags.
func RegisterAll(reg *bridge.Registry, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	feature := func(name string) bool {
		return deps.Config != nil && deps.Config.Features.Enabled(name)
	}

	reg.Register(platform.New(deps.Info, reg))
	reg.Register(app.New(deps.Browser))
	reg.RegisterIf(feature(securestorage.Name), securestorage.New())
	reg.RegisterIf(feature(preferences.Name) && deps.Preferences != nil, preferences.New(deps.Preferences))
	reg.RegisterIf(feature(share.Name), share.New())
	reg.RegisterIf(feature(biometrics.Name), biometrics.New())
	reg.RegisterIf(feature(notifications.Name), notifications.New())

	logger.Info("bridge modules registered", "modules", reg.Names())
}
