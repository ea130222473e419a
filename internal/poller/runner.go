// internal/poller/runner.go
package poller

import (
	"context"
	"time"

	"github.com/tamzrod/modbus-regpoll/internal/registers"
	"github.com/tamzrod/modbus-regpoll/internal/supervisor"
)

// Conn is a transport the poller owns for one supervisor cycle.
type Conn interface {
	registers.Transport
	Close() error
}

// Supervise builds the supervisor that keeps this poller running:
// setup connects, each loop iteration polls once, emits the reading on out
// and waits one interval, teardown closes the connection.
func (p *Poller) Supervise(connect func(ctx context.Context) (Conn, error), out chan<- Reading, opts ...supervisor.Option) *supervisor.Supervisor[Conn] {
	return supervisor.New(p.cfg.UnitID, supervisor.Funcs[Conn]{
		Setup: connect,
		Loop: func(ctx context.Context, c Conn) error {
			res, err := p.PollOnce(ctx, c)
			if err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- res:
			}

			return wait(ctx, p.cfg.Interval)
		},
		Teardown: func(_ context.Context, c Conn) error {
			return c.Close()
		},
	}, opts...)
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
