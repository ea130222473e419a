// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/modbus-regpoll/internal/registers"
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	UnitID   string
	SlaveID  uint8
	Interval time.Duration
	Windows  []Window
}

// Poller decodes a fixed set of windows from one unit.
type Poller struct {
	cfg Config
	now func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config) (*Poller, error) {
	if cfg.UnitID == "" {
		return nil, errors.New("poller: unit id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Windows) == 0 {
		return nil, errors.New("poller: at least one window required")
	}
	return &Poller{cfg: cfg, now: time.Now}, nil
}

// UnitID returns the configured unit id.
func (p *Poller) UnitID() string { return p.cfg.UnitID }

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
func (p *Poller) PollOnce(ctx context.Context, tr registers.Transport) (Reading, error) {
	values := make(map[string]any)

	for _, w := range p.cfg.Windows {
		_, err := registers.Query(ctx, tr, p.cfg.SlaveID, w.Start, w.End,
			func(_ context.Context, win *registers.Window) (struct{}, error) {
				return struct{}{}, decodeFields(win, w.Fields, values)
			})
		if err != nil {
			return Reading{}, fmt.Errorf("poller: unit %s window %d-%d: %w", p.cfg.UnitID, w.Start, w.End, err)
		}
	}

	return Reading{
		UnitID: p.cfg.UnitID,
		At:     p.now(),
		Values: values,
	}, nil
}

func decodeFields(win *registers.Window, fields []Field, into map[string]any) error {
	for _, f := range fields {
		if f.IsASCII() {
			s, err := win.ASCII(int(f.Register), int(f.Length))
			if err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
			into[f.Name] = s
			continue
		}

		v, err := win.Number(int(f.Register), f.Format)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		into[f.Name] = v
	}
	return nil
}
