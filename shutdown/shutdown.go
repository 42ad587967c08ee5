// Package shutdown turns SIGINT/SIGTERM into an orderly stop: registered hooks
// run while the root context is still alive, then the context is cancelled.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mir-robotics/actionstates/logger"
)

const defaultHookTimeout = 10 * time.Second

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

// Handler coordinates one process shutdown.
type Handler struct {
	hookTimeout time.Duration
	trigger     chan os.Signal
	done        chan struct{}
	once        sync.Once

	mu    sync.Mutex
	hooks []hook
}

// NewHandler creates a handler giving each hook up to hookTimeout.
func NewHandler(hookTimeout time.Duration) *Handler {
	if hookTimeout <= 0 {
		hookTimeout = defaultHookTimeout
	}

	return &Handler{
		hookTimeout: hookTimeout,
		trigger:     make(chan os.Signal, 1),
		done:        make(chan struct{}),
	}
}

// BeforeShutdown registers fn. Hooks run in reverse registration order, so a
// server registered after its worker pool is stopped first.
func (h *Handler) BeforeShutdown(name string, fn func(ctx context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hooks = append(h.hooks, hook{name: name, fn: fn})
}

// Listen starts waiting for a signal or Trigger and returns the root context
// that is cancelled once all hooks have run.
func (h *Handler) Listen(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	signal.Notify(h.trigger, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(h.done)
		defer cancel()
		defer signal.Stop(h.trigger)

		select {
		case sig := <-h.trigger:
			logger.Get(ctx).WarnContext(ctx, "received "+sig.String()+", shutting down")
		case <-parent.Done():
		}

		h.run(ctx)
	}()

	return ctx
}

// Trigger starts the shutdown as if a signal had arrived.
func (h *Handler) Trigger() {
	h.once.Do(func() {
		h.trigger <- os.Interrupt
	})
}

// Done is closed after hooks ran and the root context was cancelled.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

func (h *Handler) run(ctx context.Context) {
	h.mu.Lock()
	hooks := h.hooks
	h.hooks = nil
	h.mu.Unlock()

	// The parent may already be gone; hooks still get their own budget.
	base := context.WithoutCancel(ctx)

	for i := len(hooks) - 1; i >= 0; i-- {
		hk := hooks[i]

		hookCtx, cancel := context.WithTimeout(base, h.hookTimeout)
		err := hk.fn(hookCtx)

		cancel()

		if err != nil {
			logger.Get(ctx).ErrorContext(ctx, "shutdown hook failed", "hook", hk.name, "error", err)
		} else {
			logger.Get(ctx).DebugContext(ctx, "shutdown hook finished", "hook", hk.name)
		}
	}
}
