// Package check pairs query values with verification capabilities of
// matching type and carries the pairs through generated descriptor tables.
//
// The pairing happens in generated code, where Wrap's type parameter makes
// the compiler reject a capability for the wrong value type. At test time a
// database handle is the external checker: each descriptor hands its value
// and capability to the probe together.
package check

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/querycheck/querycheck/pkg/query"
)

// Capability is verification evidence for values of type T. Kind tags the
// capability for diagnostics; Probe validates a value against db. A nil
// Probe accepts every value.
type Capability[T any] struct {
	Kind  string
	Probe func(ctx context.Context, db *sql.DB, v T) error
}

// Rows is the standard capability for read queries over E: the statement
// text must compile against the target schema.
func Rows[E any]() Capability[query.Read[E]] {
	return Capability[query.Read[E]]{
		Kind: "read",
		Probe: func(ctx context.Context, db *sql.DB, q query.Read[E]) error {
			return explain(ctx, db, q.SQL, q.Args)
		},
	}
}

// Statement is the standard capability for bound mutation statements: the
// statement must execute against the target schema. The probe runs it with
// its bound arguments inside a transaction that is always rolled back.
func Statement() Capability[query.Exec] {
	return Capability[query.Exec]{
		Kind: "exec",
		Probe: func(ctx context.Context, db *sql.DB, e query.Exec) error {
			return execRollback(ctx, db, e.SQL, e.Args)
		},
	}
}

// explain forces text through the sql compiler without running it.
// Preparing is not enough: the sqlite driver compiles lazily, so
// PrepareContext reports nothing about unknown tables or columns.
func explain(ctx context.Context, db *sql.DB, text string, args []any) error {
	rows, err := db.QueryContext(ctx, "EXPLAIN "+text, args...)
	if err != nil {
		return fmt.Errorf("explain: %w", err)
	}
	return rows.Close()
}

func execRollback(ctx context.Context, db *sql.DB, text string, args []any) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, text, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}
