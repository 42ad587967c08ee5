package cli

import (
	"context"
	"io"
	"time"

	"github.com/mir-robotics/actionstates/build"
	"github.com/mir-robotics/actionstates/config"
	"github.com/mir-robotics/actionstates/logger"
	"github.com/mir-robotics/actionstates/shutdown"
	"github.com/mir-robotics/actionstates/telemetry"
)

const hookTimeout = 10 * time.Second

// Runtime is the process-wide setup shared by the command line tools.
type Runtime struct {
	Config    *config.Config
	Telemetry *telemetry.Providers

	shutdown *shutdown.Handler
}

// Bootstrap loads configuration, sets up logging and telemetry, and installs
// the signal handler. The returned context ends on SIGINT/SIGTERM or Close.
func Bootstrap(ctx context.Context, configPath, subsystem string, logOutput io.Writer) (context.Context, *Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return ctx, nil, err
	}

	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = subsystem
	}

	providers, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: build.Current().Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return ctx, nil, err
	}

	opts := cfg.Log.LoggerOptions(subsystem)
	opts.Output = logOutput

	if h := providers.LogHandler(subsystem); h != nil {
		opts.Extra = append(opts.Extra, h)
	}

	logger.ConfigureLoggingWithOptions(opts)

	handler := shutdown.NewHandler(hookTimeout)
	handler.BeforeShutdown("telemetry", providers.Shutdown)

	rt := &Runtime{Config: cfg, Telemetry: providers, shutdown: handler}

	return handler.Listen(ctx), rt, nil
}

// BeforeShutdown registers a hook run when the process stops.
func (r *Runtime) BeforeShutdown(name string, fn func(ctx context.Context) error) {
	r.shutdown.BeforeShutdown(name, fn)
}

// Close runs the shutdown hooks and waits for them.
func (r *Runtime) Close() {
	if r == nil {
		return
	}

	r.shutdown.Trigger()
	<-r.shutdown.Done()
}
