// Package httpaction implements actionlib.Client over the HTTP/JSON action
// protocol served by simserver or a robot-side bridge.
package httpaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/mir-robotics/actionstates/actionlib"
	"github.com/mir-robotics/actionstates/logger"
)

const (
	defaultPollInterval   = 100 * time.Millisecond
	defaultInitialBackoff = 200 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
)

// ErrInvalidOptions is returned by NewDialer when Options don't validate.
var ErrInvalidOptions = errors.New("invalid http action options")

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals

// Options configures a Dialer.
type Options struct {
	// BaseURL is the root of the action API, e.g. http://robot:8080.
	BaseURL string `validate:"required,http_url"`
	// PollInterval is how often WaitForResult asks for the goal status.
	PollInterval time.Duration
	// RequestTimeout bounds each HTTP round trip.
	RequestTimeout time.Duration
	// InitialBackoff and MaxBackoff shape the WaitForServer retry schedule.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// CacheDNS resolves action hosts through a shared DNS cache.
	CacheDNS bool
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}

	if o.RequestTimeout <= 0 {
		o.RequestTimeout = defaultRequestTimeout
	}

	if o.InitialBackoff <= 0 {
		o.InitialBackoff = defaultInitialBackoff
	}

	if o.MaxBackoff < o.InitialBackoff {
		o.MaxBackoff = max(defaultMaxBackoff, o.InitialBackoff)
	}

	return o
}

// Dialer creates HTTP action clients sharing one connection pool.
type Dialer struct {
	http *resty.Client
	opts Options
}

var _ actionlib.Dialer = (*Dialer)(nil)

// NewDialer creates a dialer for the action API at opts.BaseURL.
func NewDialer(opts Options) (*Dialer, error) {
	opts = opts.withDefaults()

	err := validate.Struct(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	client := resty.New().
		SetTransport(newTransport(opts.CacheDNS)).
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetTimeout(opts.RequestTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		OnAfterResponse(logResponse)

	return &Dialer{http: client, opts: opts}, nil
}

// Dial returns a client bound to endpoint. It does not contact the server;
// WaitForServer does.
func (d *Dialer) Dial(endpoint string) (actionlib.Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: empty endpoint name", actionlib.ErrServerUnavailable)
	}

	return &Client{
		http:     d.http,
		endpoint: endpoint,
		opts:     d.opts,
		status:   actionlib.StatusLost,
	}, nil
}

func logResponse(_ *resty.Client, resp *resty.Response) error {
	ctx := resp.Request.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Get(ctx).Log(ctx, slog.LevelDebug-1, "action api call",
		"method", resp.Request.Method,
		"url", resp.Request.URL,
		"status", resp.StatusCode(),
		"duration_ms", resp.Time().Milliseconds())

	return nil
}
