package check

import (
	"context"
	"database/sql"
)

// Checked carries a value together with a capability for exactly its type.
// The concrete type stays hidden: the only way back out is Verify, which
// hands value and capability to the probe jointly. There is no accessor for
// one half without the other.
type Checked interface {
	verify(ctx context.Context, db *sql.DB) error
}

type checked[T any] struct {
	value T
	cap   Capability[T]
}

func (c checked[T]) verify(ctx context.Context, db *sql.DB) error {
	if c.cap.Probe == nil {
		return nil
	}
	return c.cap.Probe(ctx, db, c.value)
}

// Wrap pairs v with a capability for its exact type. Generated descriptor
// tables call this once per checkable member; the type parameter is what
// makes a mismatched pairing a compile error.
func Wrap[T any](v T, c Capability[T]) Checked {
	return checked[T]{value: v, cap: c}
}

// Verify runs the probe of the pair held by c.
func Verify(ctx context.Context, db *sql.DB, c Checked) error {
	return c.verify(ctx, db)
}
