package catalog

import (
	"context"
	"errors"
)

// ErrSlotEmpty is returned by Slot.Read when nothing has been written yet.
var ErrSlotEmpty = errors.New("slot empty")

// Slot is one named value in a key-value store holding the serialized
// collection. Writes are whole-value replacements.
type Slot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Ping(ctx context.Context) error
}
