package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mir-robotics/actionstates/actionstate"
	"github.com/mir-robotics/actionstates/cli"
	"github.com/mir-robotics/actionstates/logger"
	"github.com/mir-robotics/actionstates/scenarios"
	"github.com/mir-robotics/actionstates/statemachine"
	"github.com/spf13/cobra"
)

var errDeclined = errors.New("run declined by operator")

type runFlags struct {
	goal     []string
	yes      bool
	maxSteps int
}

func newRunCmd(a *app) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [scenario.yaml | name]",
		Short: "Run a scenario until it reaches a final state",
		Long: `Run loads a scenario from a YAML file or by the name of a built-in
scenario, binds every action state to its action server and executes it.
Without an argument the scenario is chosen interactively.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args, flags)
		},
	}

	cmd.Flags().StringArrayVarP(&flags.goal, "goal", "g", nil, "override a goal parameter (key=value, repeatable)")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "do not ask for confirmation before moving the robot")
	cmd.Flags().IntVar(&flags.maxSteps, "max-steps", 0, "abort after this many state activations (0 for the default)")

	return cmd
}

func (a *app) run(cmd *cobra.Command, args []string, flags *runFlags) error {
	ctx := cmd.Context()

	overrides, err := parsePairs(flags.goal)
	if err != nil {
		return err
	}

	var source string
	if len(args) == 1 {
		source = args[0]
	} else {
		source, err = cli.Select("Scenario", scenarios.NewLoader().ListAvailable(), os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
	}

	config, err := statemachine.LoadConfig(source)
	if err != nil {
		return err
	}

	if !flags.yes {
		ok, err := cli.Confirm(fmt.Sprintf("Run %s against %s", config.Name, a.runtime.Config.Actions.BaseURL),
			os.Stdin, os.Stdout)
		if err != nil {
			return err
		}

		if !ok {
			return errDeclined
		}
	}

	dialer, err := a.dialer(cmd)
	if err != nil {
		return err
	}

	factory := statemachine.NewStateFactory()
	actionstate.RegisterPresets(factory, dialer, a.adapterOptions()...)

	logger.Get(ctx).InfoContext(ctx, "binding action servers", "scenario", config.Name)

	engine, err := statemachine.NewEngine(ctx, config, factory)
	if err != nil {
		return err
	}

	if flags.maxSteps > 0 {
		engine.SetMaxSteps(flags.maxSteps)
	}

	smCtx := engine.NewContext()
	for _, kv := range overrides.Pairs() {
		smCtx.SetGoal(kv.Key, kv.Value)
	}

	runErr := engine.Execute(ctx, smCtx)

	_, _ = fmt.Fprint(cmd.OutOrStdout(), cli.FormatReport(report(smCtx, runErr), cli.DefaultWidth))

	return runErr
}

// report collects each visited action state's outcome, status and duration
// from the run's history and data.
func report(smCtx *statemachine.Context, err error) cli.Report {
	r := cli.Report{
		Scenario:   smCtx.Scenario,
		RunID:      smCtx.RunID,
		FinalState: smCtx.CurrentState,
		Err:        err,
	}

	for _, tr := range smCtx.History {
		step := cli.Step{State: tr.From, Outcome: tr.Outcome, Status: "-", Duration: "-"}

		if status, ok := tr.Data[tr.From+".status"].(string); ok {
			step.Status = status
		}

		if ms, ok := tr.Data[tr.From+".duration_ms"].(int64); ok {
			step.Duration = (time.Duration(ms) * time.Millisecond).String()
		}

		r.Steps = append(r.Steps, step)
	}

	return r
}
