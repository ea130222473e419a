// internal/registers/errors.go
package registers

import "errors"

var (
	// ErrOutOfRange is returned when a register precedes the window start.
	ErrOutOfRange = errors.New("register before window start")

	// ErrBufferOverrun is returned when a read extends past the window end.
	ErrBufferOverrun = errors.New("read past window end")

	// ErrWindowSize is returned by Query when the transport returns a byte
	// count that does not match the requested register span.
	ErrWindowSize = errors.New("window size mismatch")
)
