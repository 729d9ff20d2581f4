package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arko-chat/pwashell/internal/navigation"
)

func newModulesCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List the bridge modules enabled by the config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			prefs := e.openPreferences()
			if prefs != nil {
				defer prefs.Close()
			}
			_, reg := e.dispatcher("desktop", navigation.BrowserOpener{}, prefs)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODULE\tACTIONS")
			for _, name := range reg.Names() {
				m, ok := reg.Module(name)
				if !ok {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(m.Actions().Sorted(), ", "))
			}
			return w.Flush()
		},
	}
}
