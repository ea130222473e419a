// internal/registers/format.go
package registers

import "fmt"

// Format is a numeric field layout: width {16, 32} x signedness.
type Format uint8

const (
	Uint16 Format = iota + 1
	Int16
	Uint32
	Int32
)

// Width returns the number of registers the format occupies.
func (f Format) Width() int {
	switch f {
	case Uint16, Int16:
		return 1
	case Uint32, Int32:
		return 2
	default:
		panic(fmt.Sprintf("registers: invalid format %d", uint8(f)))
	}
}

// Signed reports whether the format is two's complement.
func (f Format) Signed() bool {
	switch f {
	case Int16, Int32:
		return true
	case Uint16, Uint32:
		return false
	default:
		panic(fmt.Sprintf("registers: invalid format %d", uint8(f)))
	}
}

func (f Format) String() string {
	switch f {
	case Uint16:
		return "u16"
	case Int16:
		return "s16"
	case Uint32:
		return "u32"
	case Int32:
		return "s32"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// ParseFormat is the inverse of String.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "u16":
		return Uint16, nil
	case "s16":
		return Int16, nil
	case "u32":
		return Uint32, nil
	case "s32":
		return Int32, nil
	default:
		return 0, fmt.Errorf("registers: unknown format %q", s)
	}
}
