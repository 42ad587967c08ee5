package main

import (
	"fmt"

	"github.com/mir-robotics/actionstates/statemachine"
	"github.com/mir-robotics/actionstates/statemachine/visualizer"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	var (
		direction string
		fenced    bool
	)

	cmd := &cobra.Command{
		Use:   "graph <scenario.yaml | name>",
		Short: "Print a scenario as a Mermaid state diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := statemachine.LoadConfig(args[0])
			if err != nil {
				return err
			}

			opts := visualizer.DefaultOptions().
				WithDirection(direction).
				WithFenced(fenced)

			diagram, err := visualizer.GenerateMermaidWithOptions(config, opts)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), diagram)

			return nil
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "TD", "diagram direction (TD or LR)")
	cmd.Flags().BoolVar(&fenced, "fenced", false, "wrap the diagram in a markdown code fence")

	return cmd
}
