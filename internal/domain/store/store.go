package store

import (
	"context"
	"errors"
)

// ErrConflict reports a write rejected by a uniqueness or conditional-write
// guard. Callers may retry the whole unit of work.
var ErrConflict = errors.New("store: write conflict")

// Transactor runs fn as one unit of work. Repository calls made with the
// context passed to fn join that unit; nested calls reuse the outer one.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
