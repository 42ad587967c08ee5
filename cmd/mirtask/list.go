package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"facette.io/natsort"
	"github.com/mir-robotics/actionstates/actionstate"
	"github.com/mir-robotics/actionstates/scenarios"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var showScenarios bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the built-in action states or scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showScenarios {
				for _, name := range scenarios.NewLoader().ListAvailable() {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
				}

				return nil
			}

			kinds := actionstate.Kinds()
			natsort.Sort(kinds)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0) //nolint:mnd
			_, _ = fmt.Fprintln(w, "KIND\tENDPOINT\tTIMEOUT\tARGS")

			for _, kind := range kinds {
				p, _ := actionstate.LookupPreset(kind)

				args := strings.Join(p.Args, ",")
				if args == "" {
					args = "-"
				}

				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Kind, p.Endpoint, p.Timeout, args)
			}

			return w.Flush()
		},
	}

	cmd.Flags().BoolVarP(&showScenarios, "scenarios", "s", false, "list built-in scenarios instead")

	return cmd
}
