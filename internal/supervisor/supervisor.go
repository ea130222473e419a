// internal/supervisor/supervisor.go

// Package supervisor runs a fallible setup/loop/teardown cycle forever.
//
// A Supervisor starts in INIT and calls Setup until it succeeds. It then
// stays RUNNING, calling Loop back to back, until a Loop call fails. The
// failure moves it to TEARDOWN, where Teardown is called exactly once with
// the state Setup produced, and the cycle starts over. Every error is
// logged and absorbed. Run only returns when its context is cancelled.
package supervisor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tamzrod/modbus-regpoll/internal/logger"
)

// State is the phase a Supervisor is in.
type State int32

const (
	StateInit State = iota
	StateRunning
	StateTeardown
	// StateStopped is stored once Run has returned.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateTeardown:
		return "teardown"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Funcs are the three operations a Supervisor drives. S is owned by the
// Supervisor for one setup-to-teardown cycle and never reused.
type Funcs[S any] struct {
	Setup    func(ctx context.Context) (S, error)
	Loop     func(ctx context.Context, state S) error
	Teardown func(ctx context.Context, state S) error
}

// Stats counts what happened so far. Values are a point-in-time copy.
type Stats struct {
	SetupAttempts    uint64
	SetupFailures    uint64
	LoopIterations   uint64
	LoopFailures     uint64
	Teardowns        uint64
	TeardownFailures uint64
}

// Supervisor drives Funcs through INIT -> RUNNING -> TEARDOWN -> INIT.
type Supervisor[S any] struct {
	name  string
	funcs Funcs[S]
	log   logger.Logger

	initialBackoff time.Duration
	maxBackoff     time.Duration

	state atomic.Int32

	setupAttempts    atomic.Uint64
	setupFailures    atomic.Uint64
	loopIterations   atomic.Uint64
	loopFailures     atomic.Uint64
	teardowns        atomic.Uint64
	teardownFailures atomic.Uint64
}

// Option configures a Supervisor.
type Option func(*options)

type options struct {
	log            logger.Logger
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// WithLogger sets the logger absorbed errors are reported to.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithSetupBackoff delays consecutive failed setups, starting at initial and
// doubling up to maxDelay. A zero initial keeps the default: retry immediately.
func WithSetupBackoff(initial, maxDelay time.Duration) Option {
	return func(o *options) {
		o.initialBackoff = initial
		o.maxBackoff = maxDelay
	}
}

// New creates a Supervisor. Setup, Loop and Teardown must all be non-nil.
func New[S any](name string, funcs Funcs[S], opts ...Option) *Supervisor[S] {
	if funcs.Setup == nil || funcs.Loop == nil || funcs.Teardown == nil {
		panic("supervisor: setup, loop and teardown are required")
	}

	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxBackoff < o.initialBackoff {
		o.maxBackoff = o.initialBackoff
	}

	return &Supervisor[S]{
		name:           name,
		funcs:          funcs,
		log:            o.log.With("supervisor", name),
		initialBackoff: o.initialBackoff,
		maxBackoff:     o.maxBackoff,
	}
}

// Name returns the supervisor's name.
func (s *Supervisor[S]) Name() string { return s.name }

// State returns the current phase.
func (s *Supervisor[S]) State() State { return State(s.state.Load()) }

// Stats returns a copy of the counters.
func (s *Supervisor[S]) Stats() Stats {
	return Stats{
		SetupAttempts:    s.setupAttempts.Load(),
		SetupFailures:    s.setupFailures.Load(),
		LoopIterations:   s.loopIterations.Load(),
		LoopFailures:     s.loopFailures.Load(),
		Teardowns:        s.teardowns.Load(),
		TeardownFailures: s.teardownFailures.Load(),
	}
}

// Run cycles until ctx is cancelled and then returns ctx.Err().
// At most one of Setup, Loop and Teardown runs at any time.
func (s *Supervisor[S]) Run(ctx context.Context) error {
	defer s.state.Store(int32(StateStopped))

	var cycle uint64

	for {
		cycle++

		st, err := s.setup(ctx, cycle)
		if err != nil {
			return err
		}

		s.running(ctx, cycle, st)

		s.teardown(ctx, cycle, st)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// setup retries Setup until it succeeds or ctx is done.
func (s *Supervisor[S]) setup(ctx context.Context, cycle uint64) (S, error) {
	s.state.Store(int32(StateInit))
	delay := s.initialBackoff

	for {
		if err := ctx.Err(); err != nil {
			var zero S
			return zero, err
		}

		s.setupAttempts.Add(1)
		st, err := s.funcs.Setup(ctx)
		if err == nil {
			return st, nil
		}

		s.setupFailures.Add(1)
		s.log.Error("error in setup", "cycle", cycle, "error", err)

		if delay <= 0 {
			continue
		}

		s.log.Debug("setup retry scheduled", "cycle", cycle, "delay", delay)
		if !sleep(ctx, delay) {
			var zero S
			return zero, ctx.Err()
		}
		delay = nextBackoff(delay, s.maxBackoff)
	}
}

func nextBackoff(cur, maxDelay time.Duration) time.Duration {
	next := cur * 2
	if next > maxDelay || next <= 0 {
		return maxDelay
	}
	return next
}

// running calls Loop until it fails or ctx is done.
func (s *Supervisor[S]) running(ctx context.Context, cycle uint64, st S) {
	s.state.Store(int32(StateRunning))
	s.log.Debug("setup complete", "cycle", cycle)

	for ctx.Err() == nil {
		s.loopIterations.Add(1)
		if err := s.funcs.Loop(ctx, st); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.loopFailures.Add(1)
			s.log.Error("error in loop", "cycle", cycle, "error", err)
			return
		}
	}
}

// teardown calls Teardown once. A teardown failure is logged and the
// supervisor still returns to INIT.
func (s *Supervisor[S]) teardown(ctx context.Context, cycle uint64, st S) {
	s.state.Store(int32(StateTeardown))
	s.teardowns.Add(1)

	// Teardown still runs after cancellation so resources are released.
	if err := s.funcs.Teardown(context.WithoutCancel(ctx), st); err != nil {
		s.teardownFailures.Add(1)
		s.log.Error("error in teardown", "cycle", cycle, "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
