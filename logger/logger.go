// Package logger configures slog for the task runner and hands out loggers
// decorated with whatever action context the caller has attached.
package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Used when no subsystem override was put on the context.
var subsystem atomic.Value //nolint:gochecknoglobals

// configMutex serializes ConfigureLoggingWithOptions, which swaps global state.
var configMutex sync.Mutex //nolint:gochecknoglobals

type contextKey string

const (
	keySubsystem contextKey = "subsystem"
	keyMuted     contextKey = "mute"
	keyValues    contextKey = "loggerValues"
	keyAction    contextKey = "action"
	keyGoalID    contextKey = "goal_id"
)

// Options is used to configure logging.
type Options struct {
	Subsystem   string
	JSON        bool
	MinLevel    slog.Level
	LegacyLevel slog.Level
	Output      io.Writer

	// Extra handlers receive every record as well, e.g. an OpenTelemetry bridge.
	Extra []slog.Handler
}

// ConfigureLoggingWithOptions installs the default slog logger and redirects
// the legacy log package into it. It returns the new default logger.
func ConfigureLoggingWithOptions(opts Options) *slog.Logger {
	configMutex.Lock()
	defer configMutex.Unlock()

	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.MinLevel}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	}

	if len(opts.Extra) > 0 {
		handler = newFanout(append([]slog.Handler{handler}, opts.Extra...)...)
	}

	handler = &annotatingHandler{inner: handler}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	def := log.Default()
	*def = *slog.NewLogLogger(handler, opts.LegacyLevel)

	subsystem.Store(opts.Subsystem)

	return logger
}

// ParseLevel converts "debug", "info", "warn" or "error" into a slog level.
// Unknown names fall back to info.
func ParseLevel(name string) slog.Level {
	var level slog.Level

	err := level.UnmarshalText([]byte(strings.TrimSpace(name)))
	if err != nil {
		return slog.LevelInfo
	}

	return level
}

// WithMuted returns a context on which every logger returned by Get discards output.
func WithMuted(ctx context.Context, muted bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, keyMuted, muted)
}

func isMuted(ctx context.Context) bool {
	muted, ok := ctx.Value(keyMuted).(bool)

	return ok && muted
}

// WithSubsystem overrides the subsystem reported on logs from this context.
func WithSubsystem(ctx context.Context, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, keySubsystem, name)
}

// GetSubsystem returns the subsystem for ctx, falling back to the configured default.
func GetSubsystem(ctx context.Context) string {
	if ctx != nil {
		if sub, ok := ctx.Value(keySubsystem).(string); ok {
			return sub
		}
	}

	if def, ok := subsystem.Load().(string); ok {
		return def
	}

	return ""
}

// WithAction tags logs from this context with the action state being executed.
func WithAction(ctx context.Context, action string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, keyAction, action)
}

// GetAction returns the action name attached with WithAction.
func GetAction(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	action, ok := ctx.Value(keyAction).(string)

	return action, ok
}

// WithGoalID tags logs from this context with the remote goal identifier.
func WithGoalID(ctx context.Context, goalID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, keyGoalID, goalID)
}

// GetGoalID returns the goal identifier attached with WithGoalID.
func GetGoalID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	goalID, ok := ctx.Value(keyGoalID).(string)

	return goalID, ok
}

// With returns a context whose loggers carry the given key/value pairs.
func With(ctx context.Context, values ...any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	if len(values) == 0 {
		return ctx
	}

	existing := getValues(ctx)
	vals := make([]any, 0, len(existing)+len(values))
	vals = append(vals, existing...)
	vals = append(vals, values...)

	return context.WithValue(ctx, keyValues, vals)
}

func getValues(ctx context.Context) []any {
	vals, _ := ctx.Value(keyValues).([]any)

	return vals
}

var hostname = sync.OnceValue(func() string { //nolint:gochecknoglobals
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}

	return h
})

// Get returns a logger carrying the subsystem, host and any action context
// found on the first non-nil ctx.
func Get(ctx ...context.Context) *slog.Logger {
	var realCtx context.Context

	for _, c := range ctx {
		if c != nil {
			realCtx = c

			break
		}
	}

	if realCtx == nil {
		realCtx = context.Background()
	}

	if isMuted(realCtx) {
		return nullLogger
	}

	logger := slog.Default().With(
		"subsystem", GetSubsystem(realCtx),
		"host", hostname())

	if action, ok := GetAction(realCtx); ok {
		logger = logger.With("action", action)
	}

	if goalID, ok := GetGoalID(realCtx); ok {
		logger = logger.With("goal_id", goalID)
	}

	if vals := getValues(realCtx); vals != nil {
		logger = logger.With(vals...)
	}

	return logger
}

type nullHandler struct{}

func (nullHandler) Enabled(context.Context, slog.Level) bool { return false }

func (nullHandler) Handle(context.Context, slog.Record) error { return nil }

func (n nullHandler) WithAttrs([]slog.Attr) slog.Handler { return n }

func (n nullHandler) WithGroup(string) slog.Handler { return n }

var nullLogger = slog.New(nullHandler{}) //nolint:gochecknoglobals
