package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup by key resolves nothing.
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err is a missing-record error from any
// repository implementation, including raw gorm errors.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
