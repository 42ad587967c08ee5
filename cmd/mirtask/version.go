package main

import (
	"encoding/json"
	"fmt"

	"github.com/mir-robotics/actionstates/build"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := build.Current()
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")

				return enc.Encode(info)
			}

			_, _ = fmt.Fprintf(out, "mirtask %s\n", info.Version)

			if info.GitCommit != "" {
				dirty := ""
				if info.Modified {
					dirty = " (modified)"
				}

				_, _ = fmt.Fprintf(out, "commit  %s%s %s\n", info.GitCommit, dirty, info.GitDate)
			}

			_, _ = fmt.Fprintf(out, "go      %s\n", info.GoVersion)

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON including dependency versions")

	return cmd
}
