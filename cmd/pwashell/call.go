package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/arko-chat/pwashell/internal/jshost"
	"github.com/arko-chat/pwashell/internal/navigation"
)

func newCallCommand(flags *globalFlags) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "call <module> <action> [payload-json]",
		Short: "Invoke a bridge module the way a page would",
		Long: `Invoke a bridge module through the JavaScript SDK running in a headless
runtime and print the result.

Example:
  pwashell call preferences set '{"key":"theme","value":"dark"}'`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, flags)
			if err != nil {
				return err
			}

			var payload any
			if len(args) == 3 {
				if err := json.Unmarshal([]byte(args[2]), &payload); err != nil {
					return fmt.Errorf("payload is not valid JSON: %w", err)
				}
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

			result, err := rt.Call(ctx, args[0], args[1], payload)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", args[0], args[1], err)
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "How long to wait for the module")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
