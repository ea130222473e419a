// internal/supervisor/group.go
package supervisor

import (
	"context"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// Runner is what a Group runs. *Supervisor[S] satisfies it for any S.
type Runner interface {
	Name() string
	State() State
	Stats() Stats
	Run(ctx context.Context) error
}

// Group runs independent supervisors concurrently, one goroutine each.
// The only thing they share is the Group's name registry.
type Group struct {
	runners *xsync.MapOf[string, Runner]
	wg      sync.WaitGroup
}

func NewGroup() *Group {
	return &Group{runners: xsync.NewMapOf[string, Runner]()}
}

// Go starts r under ctx. Names must be unique within the group.
func (g *Group) Go(ctx context.Context, r Runner) error {
	if _, loaded := g.runners.LoadOrStore(r.Name(), r); loaded {
		return fmt.Errorf("supervisor: duplicate name %q", r.Name())
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		_ = r.Run(ctx)
	}()
	return nil
}

// Wait blocks until every started runner has returned.
func (g *Group) Wait() {
	g.wg.Wait()
}

// Snapshot reports the state and counters of every runner by name.
func (g *Group) Snapshot() map[string]Status {
	out := make(map[string]Status, g.runners.Size())
	g.runners.Range(func(name string, r Runner) bool {
		out[name] = Status{State: r.State(), Stats: r.Stats()}
		return true
	})
	return out
}

// Status is one runner's entry in a Group snapshot.
type Status struct {
	State State
	Stats Stats
}
