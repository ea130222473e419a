// internal/poller/builder.go
package poller

import (
	"context"
	"time"

	cfg "github.com/tamzrod/modbus-regpoll/internal/config"
	"github.com/tamzrod/modbus-regpoll/internal/logger"
	"github.com/tamzrod/modbus-regpoll/internal/registers"
	"github.com/tamzrod/modbus-regpoll/internal/supervisor"
	tmodbus "github.com/tamzrod/modbus-regpoll/internal/transport/modbus"
)

// Build turns one validated, normalized unit config into a supervised poller.
// The connection is opened by the supervisor's setup, not here, so a device
// that is down at startup does not stop the daemon.
func Build(u cfg.UnitConfig, log logger.Logger, out chan<- Reading) (*supervisor.Supervisor[Conn], error) {
	windows := make([]Window, 0, len(u.Windows))
	for _, w := range u.Windows {
		win := Window{Start: w.Start, End: w.End}
		for _, f := range w.Fields {
			fld := Field{Name: f.Name, Register: f.Register}
			if f.Type == cfg.FieldTypeASCII {
				fld.Length = f.Length
			} else {
				format, err := registers.ParseFormat(f.Type)
				if err != nil {
					return nil, err
				}
				fld.Format = format
			}
			win.Fields = append(win.Fields, fld)
		}
		windows = append(windows, win)
	}

	p, err := New(Config{
		UnitID:   u.ID,
		SlaveID:  u.Source.UnitID,
		Interval: time.Duration(u.Poll.IntervalMs) * time.Millisecond,
		Windows:  windows,
	})
	if err != nil {
		return nil, err
	}

	tc := tmodbus.Config{
		Endpoint: u.Source.Endpoint,
		UnitID:   u.Source.UnitID,
		Timeout:  time.Duration(u.Source.TimeoutMs) * time.Millisecond,
	}
	if s := u.Source.Serial; s != nil {
		tc.Serial = &tmodbus.SerialConfig{
			Device:   s.Device,
			BaudRate: s.BaudRate,
			DataBits: s.DataBits,
			Parity:   s.Parity,
			StopBits: s.StopBits,
		}
	}

	// client factory: ONE attempt per call
	connect := func(context.Context) (Conn, error) {
		c, err := tmodbus.Connect(tc)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	return p.Supervise(connect, out,
		supervisor.WithLogger(log),
		supervisor.WithSetupBackoff(
			time.Duration(u.Retry.InitialBackoffMs)*time.Millisecond,
			time.Duration(u.Retry.MaxBackoffMs)*time.Millisecond,
		),
	), nil
}
