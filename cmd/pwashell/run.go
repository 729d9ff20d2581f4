package main

import (
	"github.com/spf13/cobra"

	"github.com/arko-chat/pwashell/internal/navigation"
	"github.com/arko-chat/pwashell/internal/shell"
)

func newRunCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run [link]",
		Short: "Open the app in a native window",
		Long: `Open the configured start URL in a native web view. An optional link
(a custom-scheme URL or an in-app https URL) is opened once the first page
has loaded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, flags)
			if err != nil {
				return err
			}

			prefs := e.openPreferences()
			if prefs != nil {
				defer prefs.Close()
			}

			browser := navigation.BrowserOpener{}
			dispatcher, _ := e.dispatcher("desktop", browser, prefs)

			sh, err := shell.New(shell.Options{
				Config:     e.store,
				Dispatcher: dispatcher,
				Browser:    browser,
				System:     navigation.SystemOpener{},
				Logger:     e.logger,
			})
			if err != nil {
				return err
			}

			if len(args) == 1 {
				if err := sh.Open(args[0]); err != nil {
					e.logger.Warn("ignoring launch link", "url", args[0], "err", err)
				}
			}
			return sh.Run()
		},
	}
}
