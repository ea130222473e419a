// internal/registers/window.go

// Package registers decodes one bulk holding-register read into typed,
// register-addressed values.
package registers

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Window is a read-only view over the bytes of a contiguous register span
// [start, end). Each register is two bytes, big-endian.
type Window struct {
	start int
	end   int
	raw   []byte
}

// NewWindow wraps raw. The caller guarantees len(raw) == 2*(end-start);
// reads that fall outside raw fail with ErrBufferOverrun regardless.
func NewWindow(start, end int, raw []byte) *Window {
	return &Window{start: start, end: end, raw: raw}
}

// Start returns the first register of the window.
func (w *Window) Start() int { return w.start }

// End returns the register one past the last register of the window.
func (w *Window) End() int { return w.end }

// Offset returns the byte offset of register inside the window.
func (w *Window) Offset(register int) (int, error) {
	d, err := w.distance(register)
	if err != nil {
		return 0, err
	}
	if d > math.MaxInt/2 {
		return 0, fmt.Errorf("register %d: offset overflows: %w", register, ErrBufferOverrun)
	}
	return int(d) * 2, nil
}

// distance returns register-start in registers.
func (w *Window) distance(register int) (uint64, error) {
	if register < w.start {
		return 0, fmt.Errorf("register %d (window %d-%d): %w", register, w.start, w.end, ErrOutOfRange)
	}
	// register >= start, so the wrapped difference is exact
	return uint64(register) - uint64(w.start), nil
}

// slice returns count registers at register. Bounds are compared in registers
// before any multiplication.
func (w *Window) slice(register, count int) ([]byte, error) {
	d, err := w.distance(register)
	if err != nil {
		return nil, err
	}

	size := uint64(len(w.raw))
	if d > size || uint64(count) > size || (d+uint64(count))*2 > size {
		return nil, fmt.Errorf("register %d needs %d registers, window holds %d bytes: %w",
			register, count, len(w.raw), ErrBufferOverrun)
	}

	off := int(d) * 2
	return w.raw[off : off+count*2], nil
}

// Number reads the field at register in format f and widens it to int64.
// An invalid Format panics.
func (w *Window) Number(register int, f Format) (int64, error) {
	b, err := w.slice(register, f.Width())
	if err != nil {
		return 0, err
	}

	switch f {
	case Uint16:
		return int64(binary.BigEndian.Uint16(b)), nil
	case Int16:
		return int64(int16(binary.BigEndian.Uint16(b))), nil
	case Uint32:
		return int64(binary.BigEndian.Uint32(b)), nil
	case Int32:
		return int64(int32(binary.BigEndian.Uint32(b))), nil
	default:
		panic(fmt.Sprintf("registers: invalid format %d", uint8(f)))
	}
}

// Uint16 reads an unsigned 16-bit field at register.
func (w *Window) Uint16(register int) (uint16, error) {
	v, err := w.Number(register, Uint16)
	return uint16(v), err
}

// Int16 reads a signed 16-bit field at register.
func (w *Window) Int16(register int) (int16, error) {
	v, err := w.Number(register, Int16)
	return int16(v), err
}

// Uint32 reads an unsigned 32-bit field spanning register and register+1.
func (w *Window) Uint32(register int) (uint32, error) {
	v, err := w.Number(register, Uint32)
	return uint32(v), err
}

// Int32 reads a signed 32-bit field spanning register and register+1.
func (w *Window) Int32(register int) (int32, error) {
	v, err := w.Number(register, Int32)
	return int32(v), err
}

// ASCII reads length registers at register as single-byte text and drops
// the trailing run of NUL bytes. Leading and interior NULs are kept.
func (w *Window) ASCII(register, length int) (string, error) {
	if length < 0 {
		return "", fmt.Errorf("register %d: negative length %d: %w", register, length, ErrBufferOverrun)
	}
	b, err := w.slice(register, length)
	if err != nil {
		return "", err
	}
	return trimNUL(b), nil
}

func trimNUL(b []byte) string {
	return string(bytes.TrimRight(b, "\x00"))
}
