// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/modbus-regpoll/internal/registers"
)

// Field is one value decoded out of a window.
// ASCII fields have Length > 0 and ignore Format.
type Field struct {
	Name     string
	Register uint16
	Format   registers.Format
	Length   uint16
}

// IsASCII reports whether the field is a string field.
func (f Field) IsASCII() bool { return f.Length > 0 }

// Window is one bulk holding-register read, [Start, End).
type Window struct {
	Start  uint16
	End    uint16
	Fields []Field
}

// Reading is the decoded result of one poll cycle.
// Values holds int64 for numeric fields and string for ASCII fields.
type Reading struct {
	UnitID string
	At     time.Time
	Values map[string]any
}
