package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arko-chat/pwashell/internal/bridge"
	"github.com/arko-chat/pwashell/internal/config"
	"github.com/arko-chat/pwashell/internal/logger"
	"github.com/arko-chat/pwashell/internal/modules"
	"github.com/arko-chat/pwashell/internal/modules/platform"
	"github.com/arko-chat/pwashell/internal/modules/preferences"
	"github.com/arko-chat/pwashell/internal/navigation"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type globalFlags struct {
	configPath string
	logLevel   string
	logJSON    bool
}

// env is what every command starts from: the process logger and the loaded
// config.
type env struct {
	logger *slog.Logger
	store  *config.Store
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "pwashell",
		Short: "Native shell for progressive web apps",
		Long: `pwashell wraps a PWA in a native window, exposes device capabilities to
the page through a message bridge, and keeps navigation inside the app's
origins.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to pwa-config.json (default: user config dir)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&flags.logJSON, "log-json", false, "Log JSON lines instead of text")

	root.AddCommand(
		newRunCommand(flags),
		newServeCommand(flags),
		newResolveCommand(flags),
		newCallCommand(flags),
		newModulesCommand(flags),
		newScriptCommand(flags),
	)
	return root
}

func setup(cmd *cobra.Command, flags *globalFlags) (*env, error) {
	slogger, err := logger.New(logger.Options{
		Level: flags.logLevel,
		JSON:  flags.logJSON,
		Out:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slogger)

	store, err := config.NewStore(flags.configPath, slogger)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &env{logger: slogger, store: store}, nil
}

// openPreferences opens the on-disk preferences store. A store that cannot be
// opened (another process holding it, say) only disables the module.
func (e *env) openPreferences() *preferences.Store {
	cfg := e.store.Snapshot()
	if !cfg.Features.Enabled(preferences.Name) {
		return nil
	}
	dir := filepath.Join(cfg.DataDir, "preferences")
	if err := os.MkdirAll(dir, 0700); err != nil {
		e.logger.Warn("preferences disabled", "dir", dir, "err", err)
		return nil
	}
	prefs, err := preferences.Open(dir, e.logger)
	if err != nil {
		e.logger.Warn("preferences disabled", "dir", dir, "err", err)
		return nil
	}
	return prefs
}

// dispatcher builds the registry for this host and the dispatcher over it.
func (e *env) dispatcher(shell string, browser navigation.Opener, prefs *preferences.Store) (*bridge.Dispatcher, *bridge.Registry) {
	reg := bridge.NewRegistry()
	modules.RegisterAll(reg, modules.Deps{
		Config:      e.store.Snapshot(),
		Info:        platform.Info{Shell: shell, Version: version},
		Browser:     browser,
		Preferences: prefs,
		Logger:      e.logger,
	})
	return bridge.NewDispatcher(reg, e.logger), reg
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		slog.Error("pwashell failed", "err", err)
		os.Exit(1)
	}
}
