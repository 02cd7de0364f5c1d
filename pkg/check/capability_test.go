package check

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/querycheck/querycheck/pkg/query"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// In-memory sqlite is per-connection; keep the pool at one.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec("CREATE TABLE pets (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func TestRows_AcceptsValidQuery(t *testing.T) {
	db := openDB(t)
	c := Rows[string]()
	if c.Kind != "read" {
		t.Errorf("Kind = %q, want read", c.Kind)
	}

	q := query.Read[string]{
		SQL:  "SELECT name FROM pets WHERE id = ?",
		Args: []any{int64(1)},
	}
	if err := c.Probe(context.Background(), db, q); err != nil {
		t.Fatalf("probe: %v", err)
	}
}

func TestRows_RejectsUnknownColumn(t *testing.T) {
	db := openDB(t)
	c := Rows[string]()

	q := query.Read[string]{SQL: "SELECT species FROM pets"}
	if err := c.Probe(context.Background(), db, q); err == nil {
		t.Fatal("probe accepted a query over a missing column")
	}
}

func TestStatement_AcceptsValidExec(t *testing.T) {
	db := openDB(t)
	c := Statement()
	if c.Kind != "exec" {
		t.Errorf("Kind = %q, want exec", c.Kind)
	}

	e := query.Exec{
		SQL:  "DELETE FROM pets WHERE id = ?",
		Args: []any{int64(1)},
	}
	if err := c.Probe(context.Background(), db, e); err != nil {
		t.Fatalf("probe: %v", err)
	}
}

func TestStatement_RejectsUnknownTable(t *testing.T) {
	db := openDB(t)
	c := Statement()

	e := query.Exec{SQL: "DELETE FROM cattle"}
	if err := c.Probe(context.Background(), db, e); err == nil {
		t.Fatal("probe accepted a statement over a missing table")
	}
}

func TestStatement_RollsBack(t *testing.T) {
	db := openDB(t)
	c := Statement()

	e := query.Exec{
		SQL:  "INSERT INTO pets (id, name) VALUES (?, ?)",
		Args: []any{int64(1), "rex"},
	}
	if err := c.Probe(context.Background(), db, e); err != nil {
		t.Fatalf("probe: %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM pets").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("rows after probe = %d, want 0", n)
	}
}
