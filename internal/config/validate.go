// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/tamzrod/modbus-regpoll/internal/registers"
)

// MaxWindowRegisters is the FC 3 per-request limit.
const MaxWindowRegisters = 125

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if len(cfg.Regpoll.Units) == 0 {
		return fmt.Errorf("at least one unit is required")
	}

	seen := make(map[string]struct{})

	for _, u := range cfg.Regpoll.Units {
		if u.ID == "" {
			return fmt.Errorf("unit id is required")
		}
		if _, dup := seen[u.ID]; dup {
			return fmt.Errorf("unit %q: duplicate id", u.ID)
		}
		seen[u.ID] = struct{}{}

		if err := validateSource(u); err != nil {
			return err
		}

		if u.Poll.IntervalMs < 0 {
			return fmt.Errorf("unit %q: poll.interval_ms must be >= 0", u.ID)
		}
		if u.Retry.InitialBackoffMs < 0 || u.Retry.MaxBackoffMs < 0 {
			return fmt.Errorf("unit %q: retry backoff must be >= 0", u.ID)
		}

		if len(u.Windows) == 0 {
			return fmt.Errorf("unit %q: at least one window is required", u.ID)
		}

		names := make(map[string]struct{})
		for wi, w := range u.Windows {
			if err := validateWindow(u.ID, wi, w, names); err != nil {
				return err
			}
		}
	}

	return nil
}

func validateSource(u UnitConfig) error {
	s := u.Source

	switch {
	case s.Endpoint == "" && s.Serial == nil:
		return fmt.Errorf("unit %q: source.endpoint or source.serial is required", u.ID)
	case s.Endpoint != "" && s.Serial != nil:
		return fmt.Errorf("unit %q: source.endpoint and source.serial are mutually exclusive", u.ID)
	}

	if s.Serial != nil {
		if s.Serial.Device == "" {
			return fmt.Errorf("unit %q: source.serial.device is required", u.ID)
		}
		switch s.Serial.Parity {
		case "", "N", "E", "O":
		default:
			return fmt.Errorf("unit %q: source.serial.parity must be N, E or O", u.ID)
		}
	}

	if s.TimeoutMs < 0 {
		return fmt.Errorf("unit %q: source.timeout_ms must be >= 0", u.ID)
	}
	return nil
}

func validateWindow(unitID string, wi int, w WindowConfig, names map[string]struct{}) error {
	if w.End <= w.Start {
		return fmt.Errorf("unit %q window %d: end (%d) must be > start (%d)", unitID, wi, w.End, w.Start)
	}
	if w.End-w.Start > MaxWindowRegisters {
		return fmt.Errorf("unit %q window %d: %d registers exceeds limit %d",
			unitID, wi, w.End-w.Start, MaxWindowRegisters)
	}
	if len(w.Fields) == 0 {
		return fmt.Errorf("unit %q window %d: at least one field is required", unitID, wi)
	}

	for _, f := range w.Fields {
		if f.Name == "" {
			return fmt.Errorf("unit %q window %d: field name is required", unitID, wi)
		}
		if _, dup := names[f.Name]; dup {
			return fmt.Errorf("unit %q: duplicate field %q", unitID, f.Name)
		}
		names[f.Name] = struct{}{}

		width, err := FieldWidth(f)
		if err != nil {
			return fmt.Errorf("unit %q field %q: %w", unitID, f.Name, err)
		}

		// inclusive start, exclusive end
		end := int(f.Register) + width
		if f.Register < w.Start || end > int(w.End) {
			return fmt.Errorf("unit %q field %q: registers %d-%d outside window %d-%d",
				unitID, f.Name, f.Register, end, w.Start, w.End)
		}
	}
	return nil
}

// FieldWidth returns the number of registers a field occupies.
func FieldWidth(f FieldConfig) (int, error) {
	if f.Type == FieldTypeASCII {
		if f.Length == 0 {
			return 0, fmt.Errorf("ascii field requires length > 0")
		}
		return int(f.Length), nil
	}

	format, err := registers.ParseFormat(f.Type)
	if err != nil {
		return 0, err
	}
	if f.Length != 0 {
		return 0, fmt.Errorf("length is only valid for ascii fields")
	}
	return format.Width(), nil
}
