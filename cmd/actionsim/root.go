package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mir-robotics/actionstates/actionlib/simserver"
	"github.com/mir-robotics/actionstates/cli"
	"github.com/mir-robotics/actionstates/logger"
	"github.com/spf13/cobra"
)

const (
	subsystem         = "actionsim"
	readHeaderTimeout = 5 * time.Second
)

type app struct {
	configPath string
	runtime    *cli.Runtime
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:          "actionsim",
		Short:        "Simulated robot action servers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx, rt, err := cli.Bootstrap(cmd.Context(), a.configPath, subsystem, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			a.runtime = rt
			cmd.SetContext(ctx)

			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	root.AddCommand(newServeCmd(a))

	return root, a
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	defer func() { a.runtime.Close() }()

	return root.ExecuteContext(ctx)
}

type serveFlags struct {
	addr    string
	script  string
	workers int
	// ready is closed with the bound address once the listener is up.
	ready chan<- string
}

func newServeCmd(a *app) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP action protocol until interrupted",
		Example: `  actionsim serve --addr :8080
  actionsim serve --script testdata/flaky.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (defaults to simulator.addr)")
	cmd.Flags().StringVar(&flags.script, "script", "", "behavior script (defaults to simulator.script)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "concurrent goals (defaults to simulator.workers)")

	return cmd
}

func (a *app) serve(ctx context.Context, flags *serveFlags) error {
	cfg := a.runtime.Config.Simulator

	addr := firstNonEmpty(flags.addr, cfg.Addr)
	scriptPath := firstNonEmpty(flags.script, cfg.Script)

	workers := flags.workers
	if workers == 0 {
		workers = cfg.Workers
	}

	script := simserver.DefaultScript()

	if scriptPath != "" {
		var err error

		script, err = simserver.LoadScript(scriptPath)
		if err != nil {
			return err
		}
	}

	gin.SetMode(gin.ReleaseMode)

	sim, err := simserver.New(ctx, script, simserver.Options{Workers: workers, Retention: cfg.Retention})
	if err != nil {
		return err
	}

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		sim.Close()

		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           sim.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	// Registered last so it runs first: stop taking requests, then drain goals.
	a.runtime.BeforeShutdown("simserver", func(context.Context) error {
		sim.Close()

		return nil
	})
	a.runtime.BeforeShutdown("http", server.Shutdown)

	logger.Get(ctx).InfoContext(ctx, "serving simulated action servers", "addr", listener.Addr().String())

	if flags.ready != nil {
		flags.ready <- listener.Addr().String()
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
		// Shutdown hooks closed the server before ctx ended.
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
