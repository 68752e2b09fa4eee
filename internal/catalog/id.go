package catalog

import "github.com/google/uuid"

// NewID returns a record id. UUIDv7 leads with a millisecond timestamp and
// fills the rest with random bits.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "b_" + uuid.NewString()
	}
	return "b_" + id.String()
}
