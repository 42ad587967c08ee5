// Package simserver is an in-process simulation of robot action servers. It
// speaks the HTTP action protocol and runs each goal on a worker pool,
// finishing it the way the endpoint's scripted Behavior says.
package simserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/mir-robotics/actionstates/actionlib"
	"github.com/mir-robotics/actionstates/logger"
	"github.com/mir-robotics/actionstates/params"
	"go.uber.org/atomic"
)

const (
	defaultWorkers   = 32
	defaultRetention = 10 * time.Minute
)

var (
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	ErrGoalNotFound    = errors.New("goal not found")
	ErrDuplicateGoal   = errors.New("goal already exists")
	ErrNotReady        = errors.New("endpoint not ready")
	ErrStopped         = errors.New("server stopped")
)

type goal struct {
	id         string
	endpoint   string
	parameters params.Params
	status     actionlib.GoalStatus
	cancel     chan struct{}
	finishedAt time.Time
}

// setStatus records status and, for terminal ones, when the goal finished.
// Callers hold Server.mu.
func (g *goal) setStatus(status actionlib.GoalStatus, now time.Time) {
	g.status = status

	if status.IsTerminal() {
		g.finishedAt = now
	}
}

func (g *goal) state() actionlib.GoalState {
	return actionlib.GoalState{
		GoalID:     g.id,
		Status:     g.status,
		Parameters: g.parameters.Clone(),
	}
}

// Server holds the goals of every simulated endpoint.
type Server struct {
	script    Script
	pool      pond.Pool
	started   time.Time
	retention time.Duration
	stop    chan struct{}
	stopped sync.Once

	ready    atomic.Bool
	accepted atomic.Int64

	mu        sync.Mutex
	goals     map[string]*goal
	lastSweep time.Time
}

// Options configures a Server.
type Options struct {
	// Workers bounds how many goals execute concurrently.
	Workers int
	// Retention is how long finished goals stay queryable before they are
	// evicted. Defaults to 10 minutes.
	Retention time.Duration
}

// New creates a ready server running script.
func New(ctx context.Context, script Script, opts Options) (*Server, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	retention := opts.Retention
	if retention <= 0 {
		retention = defaultRetention
	}

	now := time.Now()

	srv := &Server{
		script:    script,
		pool:      pond.NewPool(workers, pond.WithContext(ctx)),
		started:   now,
		retention: retention,
		stop:      make(chan struct{}),
		goals:     make(map[string]*goal),
		lastSweep: now,
	}

	srv.ready.Store(true)

	logger.Get(ctx).InfoContext(ctx, "simulated action server created",
		"workers", workers,
		"retention", retention.String(),
		"scripted", script.Endpoints())

	return srv, nil
}

// SetReady toggles readiness of every endpoint, simulating an outage.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Accepted returns how many goals have been accepted.
func (s *Server) Accepted() int64 {
	return s.accepted.Load()
}

// Close aborts running goals and waits for the worker pool to drain.
func (s *Server) Close() {
	s.stopped.Do(func() {
		close(s.stop)
		s.pool.StopAndWait()
	})
}

// Ready reports whether endpoint accepts goals.
func (s *Server) Ready(endpoint string) (bool, error) {
	b, ok := s.script.Lookup(endpoint)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}

	return s.ready.Load() && time.Since(s.started) >= b.ReadyAfter, nil
}

// Submit accepts a goal for endpoint and schedules it.
func (s *Server) Submit(ctx context.Context, endpoint, id string, p params.Params) (actionlib.GoalState, error) {
	b, ok := s.script.Lookup(endpoint)
	if !ok {
		return actionlib.GoalState{}, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}

	if ready, _ := s.Ready(endpoint); !ready {
		return actionlib.GoalState{}, fmt.Errorf("%w: %s", ErrNotReady, endpoint)
	}

	now := time.Now()

	g := &goal{
		id:         id,
		endpoint:   endpoint,
		parameters: p.Clone(),
		cancel:     make(chan struct{}),
	}

	if b.Reject {
		g.setStatus(actionlib.StatusRejected, now)
	} else {
		g.setStatus(actionlib.StatusPending, now)
	}

	s.mu.Lock()

	if now.Sub(s.lastSweep) >= s.retention/2 {
		s.sweep(now)
	}

	key := goalKey(endpoint, id)
	if _, exists := s.goals[key]; exists {
		s.mu.Unlock()

		return actionlib.GoalState{}, fmt.Errorf("%w: %s", ErrDuplicateGoal, id)
	}

	s.goals[key] = g
	state := g.state()
	s.mu.Unlock()

	s.accepted.Inc()
	goalsTotal.WithLabelValues(endpoint).Inc()

	log := logger.Get(ctx).With("endpoint", endpoint, "goal_id", id)
	log.InfoContext(ctx, "goal received", "parameters", p.String())

	if b.Reject {
		finishedTotal.WithLabelValues(endpoint, actionlib.StatusRejected.String()).Inc()

		return state, nil
	}

	if err := s.pool.Go(func() { s.execute(g, b) }); err != nil {
		s.finish(g, actionlib.StatusAborted)

		return actionlib.GoalState{}, fmt.Errorf("%w: %w", ErrStopped, err)
	}

	return state, nil
}

func (s *Server) execute(g *goal, b Behavior) {
	s.mu.Lock()
	if g.status != actionlib.StatusPending {
		s.mu.Unlock()

		return
	}

	g.setStatus(actionlib.StatusActive, time.Now())
	s.mu.Unlock()

	var finished <-chan time.Time

	if !b.Never {
		timer := time.NewTimer(b.Delay)
		defer timer.Stop()

		finished = timer.C
	}

	select {
	case <-finished:
		s.finish(g, b.result())
	case <-g.cancel:
	case <-s.stop:
		s.finish(g, actionlib.StatusAborted)
	}
}

// finish moves g to a terminal status unless it already has one.
func (s *Server) finish(g *goal, status actionlib.GoalStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.status.IsTerminal() {
		return
	}

	g.setStatus(status, time.Now())
	finishedTotal.WithLabelValues(g.endpoint, status.String()).Inc()
}

// Goal returns the current state of a goal.
func (s *Server) Goal(endpoint, id string) (actionlib.GoalState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[goalKey(endpoint, id)]
	if !ok {
		return actionlib.GoalState{}, fmt.Errorf("%w: %s/%s", ErrGoalNotFound, endpoint, id)
	}

	return g.state(), nil
}

// Cancel stops a goal. A pending goal is recalled, an active one preempted;
// finished goals are left as they are.
func (s *Server) Cancel(endpoint, id string) (actionlib.GoalState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[goalKey(endpoint, id)]
	if !ok {
		return actionlib.GoalState{}, fmt.Errorf("%w: %s/%s", ErrGoalNotFound, endpoint, id)
	}

	switch g.status { //nolint:exhaustive
	case actionlib.StatusPending:
		g.setStatus(actionlib.StatusRecalled, time.Now())
	case actionlib.StatusActive:
		g.setStatus(actionlib.StatusPreempted, time.Now())
	default:
		return g.state(), nil
	}

	close(g.cancel)
	cancelledTotal.WithLabelValues(endpoint).Inc()
	finishedTotal.WithLabelValues(endpoint, g.status.String()).Inc()

	return g.state(), nil
}

// Goals returns how many goals the server currently holds.
func (s *Server) Goals() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.goals)
}

// sweep evicts goals that finished more than retention before now.
// Callers hold s.mu.
func (s *Server) sweep(now time.Time) int {
	s.lastSweep = now
	evicted := 0

	for key, g := range s.goals {
		if g.status.IsTerminal() && now.Sub(g.finishedAt) > s.retention {
			delete(s.goals, key)

			evicted++
		}
	}

	if evicted > 0 {
		evictedTotal.Add(float64(evicted))
	}

	return evicted
}

func goalKey(endpoint, id string) string {
	return endpoint + "/" + id
}
