package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("book not found")
	ErrPersist        = errors.New("snapshot write failed")
	ErrSnapshotDecode = errors.New("snapshot unreadable")

	ErrSearchFailed = errors.New("search failed")
	ErrStaleSearch  = errors.New("search superseded by a newer query")
)

func validationErr(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
