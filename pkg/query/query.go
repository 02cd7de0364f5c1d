// Package query defines the result shapes querycheck recognizes when it
// scans a data-access module, together with just enough runtime to execute
// them against database/sql.
//
// A member qualifies for checking when its final result type is one of
// Read[E], Exec, or ExecOf[E]. Anything else, including defined wrapper
// types around these, is left alone.
package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoRows is returned by One when the query matches nothing.
var ErrNoRows = errors.New("query: no rows")

// Read is a read query producing rows of E. All placeholder values are
// already bound in Args.
type Read[E any] struct {
	// SQL is the statement text with driver placeholders.
	SQL string
	// Args holds the placeholder values in order.
	Args []any
	// Scan decodes the current row into an E.
	Scan func(rows *sql.Rows) (E, error)
}

// All executes the query and decodes every row.
func (q Read[E]) All(ctx context.Context, db *sql.DB) ([]E, error) {
	rows, err := db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []E
	for rows.Next() {
		v, err := q.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("query: scan row %d: %w", len(out), err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return out, nil
}

// One executes the query and decodes exactly one row. It returns ErrNoRows
// when the result set is empty; extra rows beyond the first are discarded.
func (q Read[E]) One(ctx context.Context, db *sql.DB) (E, error) {
	var zero E
	rows, err := db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return zero, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, fmt.Errorf("query: %w", err)
		}
		return zero, ErrNoRows
	}
	v, err := q.Scan(rows)
	if err != nil {
		return zero, fmt.Errorf("query: scan row 0: %w", err)
	}
	return v, nil
}

// Exec is a mutation statement with every placeholder value already bound.
type Exec struct {
	SQL  string
	Args []any
}

// Run executes the statement and reports the number of affected rows.
func (e Exec) Run(ctx context.Context, db *sql.DB) (int64, error) {
	res, err := db.ExecContext(ctx, e.SQL, e.Args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("exec: rows affected: %w", err)
	}
	return n, nil
}

// ExecOf is a mutation parameterized by a value of E. Binding an E yields
// the runnable zero-argument form.
type ExecOf[E any] struct {
	// SQL is the statement text with driver placeholders.
	SQL string
	// Encode turns an E into the placeholder values for SQL.
	Encode func(v E) []any
}

// Bind fixes the parameter and converts the mutation to its Exec form.
// A nil Encode binds no placeholder values.
func (m ExecOf[E]) Bind(v E) Exec {
	var args []any
	if m.Encode != nil {
		args = m.Encode(v)
	}
	return Exec{SQL: m.SQL, Args: args}
}

// Zero returns the zero value of T.
func Zero[T any]() T {
	var z T
	return z
}
