package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/mir-robotics/actionstates/actionstate"
	"github.com/spf13/cobra"
)

var errActionFailed = errors.New("action failed")

type callFlags struct {
	args    []string
	runtime []string
	goal    []string
	timeout time.Duration
}

func newCallCmd(a *app) *cobra.Command {
	flags := &callFlags{}

	cmd := &cobra.Command{
		Use:   "call <kind>",
		Short: "Activate a single action state once",
		Long: `Call binds one built-in action state and activates it with the given
goal parameters. Construction arguments (--arg) configure the state,
activation arguments (--runtime) are handed to this one activation, and goal
parameters (--goal) play the role of the shared context.`,
		Example: `  mirtask call move_base --goal location=wp3
  mirtask call move_base --runtime destination_location=ws02 --goal location=wp3
  mirtask call place_object --arg platform=shelf`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.call(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringArrayVarP(&flags.args, "arg", "a", nil, "construction argument (key=value, repeatable)")
	cmd.Flags().StringArrayVarP(&flags.runtime, "runtime", "r", nil, "activation argument (key=value, repeatable)")
	cmd.Flags().StringArrayVarP(&flags.goal, "goal", "g", nil, "goal parameter (key=value, repeatable)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "override the action's wait timeout")

	return cmd
}

func (a *app) call(cmd *cobra.Command, kind string, flags *callFlags) error {
	args, err := parsePairs(flags.args)
	if err != nil {
		return err
	}

	runtime, err := parsePairs(flags.runtime)
	if err != nil {
		return err
	}

	goal, err := parsePairs(flags.goal)
	if err != nil {
		return err
	}

	dialer, err := a.dialer(cmd)
	if err != nil {
		return err
	}

	opts := a.adapterOptions()
	if flags.timeout > 0 {
		opts = append(opts, actionstate.WithTimeout(flags.timeout))
	}

	adapter, err := actionstate.NewPreset(cmd.Context(), dialer, kind, args, opts...)
	if err != nil {
		return err
	}

	result := adapter.Run(cmd.Context(), goal, runtime)

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "action:     %s (%s)\n", adapter.Name(), adapter.Endpoint())
	_, _ = fmt.Fprintf(out, "parameters: %s\n", result.Parameters.String())
	_, _ = fmt.Fprintf(out, "status:     %s\n", statusText(result))
	_, _ = fmt.Fprintf(out, "outcome:    %s\n", result.Outcome)
	_, _ = fmt.Fprintf(out, "duration:   %s\n", result.Duration.Round(time.Millisecond))

	if result.Outcome != actionstate.Success {
		if result.Err != nil {
			return fmt.Errorf("%w: %w", errActionFailed, result.Err)
		}

		return errActionFailed
	}

	return nil
}

func statusText(r actionstate.Result) string {
	switch {
	case !r.Called:
		return "not sent"
	case r.TimedOut && r.Cancelled:
		return r.Status.String() + " (timed out, cancelled)"
	case r.TimedOut:
		return r.Status.String() + " (timed out)"
	default:
		return r.Status.String()
	}
}

func completeKinds(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	return actionstate.Kinds(), cobra.ShellCompDirectiveNoFileComp
}
