// internal/config/normalize.go
package config

const (
	DefaultTimeoutMs  = 1000
	DefaultIntervalMs = 1000
	DefaultBaudRate   = 9600
	DefaultDataBits   = 8
	DefaultStopBits   = 1
	DefaultParity     = "N"
)

// Normalize fills defaults.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Regpoll.LogLevel == "" {
		cfg.Regpoll.LogLevel = "info"
	}

	for ui := range cfg.Regpoll.Units {
		u := &cfg.Regpoll.Units[ui]

		if u.Source.TimeoutMs == 0 {
			u.Source.TimeoutMs = DefaultTimeoutMs
		}
		if u.Poll.IntervalMs == 0 {
			u.Poll.IntervalMs = DefaultIntervalMs
		}
		if u.Retry.MaxBackoffMs < u.Retry.InitialBackoffMs {
			u.Retry.MaxBackoffMs = u.Retry.InitialBackoffMs
		}

		if s := u.Source.Serial; s != nil {
			if s.BaudRate == 0 {
				s.BaudRate = DefaultBaudRate
			}
			if s.DataBits == 0 {
				s.DataBits = DefaultDataBits
			}
			if s.StopBits == 0 {
				s.StopBits = DefaultStopBits
			}
			if s.Parity == "" {
				s.Parity = DefaultParity
			}
		}
	}
}
