// internal/registers/query.go
package registers

import (
	"context"
	"fmt"
)

// Transport is the register-read capability a Query runs against.
// Implementations address one unit at a time; SetTarget selects it.
type Transport interface {
	SetTarget(unitID uint8)
	ReadHoldingRegisters(ctx context.Context, start, count uint16) ([]byte, error)
}

// Query fetches holding registers [start, end) from unitID and hands the
// decoded window to fn. Transport errors are returned as is.
func Query[T any](
	ctx context.Context,
	tr Transport,
	unitID uint8,
	start, end uint16,
	fn func(ctx context.Context, w *Window) (T, error),
) (T, error) {
	var zero T

	if end <= start {
		return zero, fmt.Errorf("registers: empty window %d-%d", start, end)
	}

	tr.SetTarget(unitID)

	count := end - start
	raw, err := tr.ReadHoldingRegisters(ctx, start, count)
	if err != nil {
		return zero, err
	}
	if len(raw) != int(count)*2 {
		return zero, fmt.Errorf("unit %d window %d-%d: got %d bytes, want %d: %w",
			unitID, start, end, len(raw), int(count)*2, ErrWindowSize)
	}

	return fn(ctx, NewWindow(int(start), int(end), raw))
}
