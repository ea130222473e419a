// internal/supervisor/supervisor_test.go
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-regpoll/internal/logger"
)

type conn struct{ id int }

func TestRun_SetupRetriedUntilSuccess(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupCalls := 0
	loopCalls := 0
	firstLoopAfterSetup := 0
	teardowns := 0

	s := New("dev", Funcs[*conn]{
		Setup: func(context.Context) (*conn, error) {
			setupCalls++
			if setupCalls <= 2 {
				return nil, fmt.Errorf("dial attempt %d", setupCalls)
			}
			return &conn{id: setupCalls}, nil
		},
		Loop: func(_ context.Context, c *conn) error {
			loopCalls++
			if loopCalls == 1 {
				firstLoopAfterSetup = setupCalls
			}
			require.Equal(3, c.id)
			if loopCalls == 100 {
				cancel()
			}
			return nil
		},
		Teardown: func(context.Context, *conn) error {
			teardowns++
			return nil
		},
	})

	require.ErrorIs(s.Run(ctx), context.Canceled)
	require.Equal(3, firstLoopAfterSetup)
	require.Equal(3, setupCalls)
	require.Equal(100, loopCalls)
	require.Equal(1, teardowns)

	st := s.Stats()
	require.EqualValues(3, st.SetupAttempts)
	require.EqualValues(2, st.SetupFailures)
	require.EqualValues(100, st.LoopIterations)
	require.Zero(st.LoopFailures)
}

func TestRun_LoopFailureTearsDownOnce(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events []string
	loopCalls := 0
	teardowns := 0

	s := New("dev", Funcs[int]{
		Setup: func(context.Context) (int, error) {
			events = append(events, "setup")
			return len(events), nil
		},
		Loop: func(context.Context, int) error {
			loopCalls++
			events = append(events, "loop")
			if loopCalls%5 == 0 {
				return errors.New("poll timeout")
			}
			return nil
		},
		Teardown: func(context.Context, int) error {
			teardowns++
			events = append(events, "teardown")
			if teardowns == 3 {
				cancel()
			}
			return nil
		},
	})

	require.ErrorIs(s.Run(ctx), context.Canceled)

	var want []string
	for i := 0; i < 3; i++ {
		want = append(want, "setup", "loop", "loop", "loop", "loop", "loop", "teardown")
	}
	require.Equal(want, events)

	st := s.Stats()
	require.EqualValues(3, st.LoopFailures)
	require.EqualValues(3, st.Teardowns)
	require.EqualValues(3, st.SetupAttempts)
}

func TestRun_TeardownReceivesSetupState(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	next := 0
	var tornDown []int

	s := New("dev", Funcs[int]{
		Setup: func(context.Context) (int, error) {
			next++
			return next, nil
		},
		Loop: func(context.Context, int) error {
			return errors.New("fail")
		},
		Teardown: func(_ context.Context, st int) error {
			tornDown = append(tornDown, st)
			if len(tornDown) == 4 {
				cancel()
			}
			return nil
		},
	})

	require.ErrorIs(s.Run(ctx), context.Canceled)
	require.Equal([]int{1, 2, 3, 4}, tornDown)
}

func TestRun_TeardownFailureAbsorbed(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setups := 0
	s := New("dev", Funcs[struct{}]{
		Setup: func(context.Context) (struct{}, error) {
			setups++
			if setups == 3 {
				cancel()
			}
			return struct{}{}, nil
		},
		Loop: func(context.Context, struct{}) error {
			return errors.New("loop broke")
		},
		Teardown: func(context.Context, struct{}) error {
			return errors.New("close failed")
		},
	})

	require.ErrorIs(s.Run(ctx), context.Canceled)
	require.Equal(3, setups)

	st := s.Stats()
	require.EqualValues(3, st.Teardowns)
	require.EqualValues(3, st.TeardownFailures)
	require.EqualValues(2, st.LoopFailures)
}

func TestRun_TeardownOnCancelWhileRunning(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var teardownCtxErr error
	teardowns := 0

	s := New("dev", Funcs[int]{
		Setup: func(context.Context) (int, error) { return 1, nil },
		Loop: func(ctx context.Context, _ int) error {
			cancel()
			return ctx.Err()
		},
		Teardown: func(ctx context.Context, _ int) error {
			teardowns++
			teardownCtxErr = ctx.Err()
			return nil
		},
	})

	require.ErrorIs(s.Run(ctx), context.Canceled)
	require.Equal(1, teardowns)
	require.NoError(teardownCtxErr)
	require.Zero(s.Stats().LoopFailures)
	require.Equal(StateStopped, s.State())
	require.Equal("stopped", s.State().String())
}

func TestRun_CancelledDuringSetupBackoff(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	setups := 0
	s := New("dev", Funcs[int]{
		Setup: func(context.Context) (int, error) {
			setups++
			return 0, errors.New("refused")
		},
		Loop:     func(context.Context, int) error { return nil },
		Teardown: func(context.Context, int) error { return nil },
	}, WithSetupBackoff(time.Hour, time.Hour))

	start := time.Now()
	require.ErrorIs(s.Run(ctx), context.DeadlineExceeded)
	require.Less(time.Since(start), 10*time.Second)
	require.Equal(1, setups)
	require.Zero(s.Stats().Teardowns)
	require.Equal(StateStopped, s.State())
}

func TestRun_StateAfterReturn(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	running := make(chan struct{}, 1)
	s := New("dev", Funcs[int]{
		Setup: func(context.Context) (int, error) { return 1, nil },
		Loop: func(ctx context.Context, _ int) error {
			select {
			case running <- struct{}{}:
			default:
			}
			<-ctx.Done()
			return ctx.Err()
		},
		Teardown: func(context.Context, int) error { return nil },
	})
	require.Equal(StateInit, s.State())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	<-running
	require.Equal(StateRunning, s.State())

	cancel()
	require.ErrorIs(<-done, context.Canceled)
	require.Equal(StateStopped, s.State())

	// already cancelled: Run returns before any setup
	s2 := New("dev", Funcs[int]{
		Setup:    func(context.Context) (int, error) { return 1, nil },
		Loop:     func(context.Context, int) error { return nil },
		Teardown: func(context.Context, int) error { return nil },
	})
	require.ErrorIs(s2.Run(ctx), context.Canceled)
	require.Equal(StateStopped, s2.State())
}

func TestNextBackoff(t *testing.T) {
	require := require.New(t)

	d := 10 * time.Millisecond
	var got []time.Duration
	for i := 0; i < 6; i++ {
		got = append(got, d)
		d = nextBackoff(d, 100*time.Millisecond)
	}
	require.Equal([]time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		80 * time.Millisecond,
		100 * time.Millisecond,
		100 * time.Millisecond,
	}, got)
}

func TestRun_LogsAbsorbedErrors(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.NewMockLogger()
	log.On("With", mock.Anything).Return(log)
	log.On("Debug", mock.Anything, mock.Anything).Maybe()
	log.On("Error", "error in setup", mock.Anything).Once()
	log.On("Error", "error in loop", mock.Anything).Once()
	log.On("Error", "error in teardown", mock.Anything).Once()

	setups := 0
	s := New("meter-1", Funcs[int]{
		Setup: func(context.Context) (int, error) {
			setups++
			switch setups {
			case 1:
				return 0, errors.New("dial")
			case 3:
				cancel()
			}
			return setups, nil
		},
		Loop: func(ctx context.Context, _ int) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.New("read")
		},
		Teardown: func(_ context.Context, st int) error {
			if st == 2 {
				return errors.New("close")
			}
			return nil
		},
	}, WithLogger(log))

	require.ErrorIs(s.Run(ctx), context.Canceled)
	log.AssertExpectations(t)
	log.AssertCalled(t, "With", []any{"supervisor", "meter-1"})
}

func TestNew_RequiresFuncs(t *testing.T) {
	require.Panics(t, func() {
		New("x", Funcs[int]{Setup: func(context.Context) (int, error) { return 0, nil }})
	})
}
