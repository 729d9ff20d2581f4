package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arko-chat/pwashell/internal/jshost"
	"github.com/arko-chat/pwashell/internal/navigation"
)

func newScriptCommand(flags *globalFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "script <file|->",
		Short: "Run JavaScript against the bridge in a headless runtime",
		Long: `Run a script with window.pwashell installed, as a page would see it. When
the script evaluates to a promise the command waits for it and prints the
settled value as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, flags)
			if err != nil {
				return err
			}

			var src []byte
			if args[0] == "-" {
				src, err = io.ReadAll(cmd.InOrStdin())
			} else {
				src, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}

			prefs := e.openPreferences()
			if prefs != nil {
				defer prefs.Close()
			}
			dispatcher, _ := e.dispatcher("headless", navigation.BrowserOpener{}, prefs)

			rt, err := jshost.New(jshost.Options{
				Dispatcher: dispatcher,
				Config:     e.store.Snapshot,
				Logger:     e.logger,
			})
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := rt.Await(ctx, string(src))
			if err != nil {
				return err
			}
			if result == nil {
				return nil
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "How long to wait for the script to settle")
	return cmd
}
