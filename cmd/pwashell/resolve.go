package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arko-chat/pwashell/internal/navigation"
)

func newResolveCommand(flags *globalFlags) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "resolve <url>...",
		Short: "Show the navigation policy for URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			resolver := navigation.NewResolver(e.store.Snapshot().Origins)

			type row struct {
				URL    string            `json:"url"`
				Policy navigation.Policy `json:"policy"`
			}
			rows := make([]row, 0, len(args))
			for _, u := range args {
				rows = append(rows, row{URL: u, Policy: resolver.Resolve(u)})
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "POLICY\tURL")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\n", r.Policy, r.URL)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	return cmd
}
