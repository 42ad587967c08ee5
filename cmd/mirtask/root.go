package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mir-robotics/actionstates/actionlib/httpaction"
	"github.com/mir-robotics/actionstates/actionstate"
	"github.com/mir-robotics/actionstates/cli"
	"github.com/mir-robotics/actionstates/params"
	"github.com/mir-robotics/actionstates/scenarios"
	"github.com/spf13/cobra"
)

const subsystem = "mirtask"

var errInvalidPair = errors.New("expected key=value")

// app carries state from the root command's pre-run into subcommands.
type app struct {
	configPath string
	runtime    *cli.Runtime
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "mirtask",
		Short:         "Run robot task scenarios built from action states",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx, rt, err := cli.Bootstrap(cmd.Context(), a.configPath, subsystem, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			a.runtime = rt
			cmd.SetContext(ctx)

			scenarios.Register()

			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		newRunCmd(a),
		newCallCmd(a),
		newListCmd(),
		newGraphCmd(),
		newVersionCmd(),
	)

	return root, a
}

// execute runs the command line and always runs the shutdown hooks, which
// cobra's post-run would skip on error.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	defer func() { a.runtime.Close() }()

	return root.ExecuteContext(ctx)
}

// dialer builds the HTTP action dialer from configuration and keeps its DNS
// cache fresh for the lifetime of the command.
func (a *app) dialer(cmd *cobra.Command) (*httpaction.Dialer, error) {
	cfg := a.runtime.Config.Actions

	d, err := httpaction.NewDialer(cfg.DialerOptions())
	if err != nil {
		return nil, err
	}

	if cfg.CacheDNS {
		go httpaction.RefreshDNS(cmd.Context())
	}

	return d, nil
}

func (a *app) adapterOptions() []actionstate.Option {
	return []actionstate.Option{
		actionstate.WithCancelOnTimeout(a.runtime.Config.Actions.CancelOnTimeout),
	}
}

// parsePairs turns repeated key=value flags into ordered parameters.
func parsePairs(pairs []string) (params.Params, error) {
	var p params.Params

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return params.Params{}, fmt.Errorf("%w, got %q", errInvalidPair, pair)
		}

		p.Add(key, value)
	}

	return p, nil
}
