// internal/poller/runner_test.go
package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSupervise_ReconnectsAfterReadFailure(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := New(testConfig())
	require.NoError(err)

	var (
		mu    sync.Mutex
		conns []*fakeConn
	)
	dials := 0
	connect := func(context.Context) (Conn, error) {
		dials++
		if dials == 1 {
			return nil, errors.New("connection refused")
		}
		// each connection fails on its 5th read: two good polls, then a failure
		c := &fakeConn{regs: testRegs(), failAt: 5}
		mu.Lock()
		conns = append(conns, c)
		mu.Unlock()
		return c, nil
	}

	out := make(chan Reading)
	sup := p.Supervise(connect, out)

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	for i := 0; i < 6; i++ {
		select {
		case r := <-out:
			require.Equal("u1", r.UnitID)
			require.Equal(int64(42), r.Values["count"])
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for reading %d", i)
		}
	}

	cancel()
	require.ErrorIs(<-done, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(len(conns), 3)
	for _, c := range conns {
		require.True(c.closed)
	}

	st := sup.Stats()
	require.EqualValues(1, st.SetupFailures)
	require.GreaterOrEqual(st.LoopFailures, uint64(2))
	require.Equal(st.SetupAttempts-st.SetupFailures, st.Teardowns)
}
