package query

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

type row struct {
	ID   int64
	Name string
}

func scanRow(rows *sql.Rows) (row, error) {
	var r row
	err := rows.Scan(&r.ID, &r.Name)
	return r, err
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// In-memory sqlite is per-connection; keep the pool at one.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	init := []string{
		"CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL)",
		"INSERT INTO items VALUES (1, 'ant'), (2, 'bee'), (3, 'cat')",
	}
	for _, s := range init {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return db
}

func TestReadAll(t *testing.T) {
	db := openDB(t)
	q := Read[row]{
		SQL:  "SELECT id, name FROM items WHERE id > ? ORDER BY id",
		Args: []any{1},
		Scan: scanRow,
	}

	got, err := q.All(context.Background(), db)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	want := []row{{2, "bee"}, {3, "cat"}}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestReadAll_Empty(t *testing.T) {
	db := openDB(t)
	q := Read[row]{SQL: "SELECT id, name FROM items WHERE id > 99", Scan: scanRow}

	got, err := q.All(context.Background(), db)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestReadOne(t *testing.T) {
	db := openDB(t)
	q := Read[row]{SQL: "SELECT id, name FROM items WHERE id = ?", Args: []any{2}, Scan: scanRow}

	got, err := q.One(context.Background(), db)
	if err != nil {
		t.Fatalf("One: %v", err)
	}
	if got.Name != "bee" {
		t.Errorf("name = %q, want bee", got.Name)
	}
}

func TestReadOne_NoRows(t *testing.T) {
	db := openDB(t)
	q := Read[row]{SQL: "SELECT id, name FROM items WHERE id = 99", Scan: scanRow}

	_, err := q.One(context.Background(), db)
	if !errors.Is(err, ErrNoRows) {
		t.Fatalf("err = %v, want ErrNoRows", err)
	}
}

func TestReadOne_WrapsScanError(t *testing.T) {
	db := openDB(t)
	boom := errors.New("boom")
	q := Read[row]{
		SQL:  "SELECT id, name FROM items WHERE id = 1",
		Scan: func(*sql.Rows) (row, error) { return row{}, boom },
	}

	_, err := q.One(context.Background(), db)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want it to wrap the scan error", err)
	}
	if !strings.Contains(err.Error(), "query: scan row 0") {
		t.Errorf("err = %q, want the scan row prefix", err)
	}
}

func TestExecRun(t *testing.T) {
	db := openDB(t)
	e := Exec{SQL: "DELETE FROM items WHERE id > ?", Args: []any{1}}

	n, err := e.Run(context.Background(), db)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 2 {
		t.Errorf("affected = %d, want 2", n)
	}
}

func TestExecOfBind(t *testing.T) {
	m := ExecOf[row]{
		SQL:    "UPDATE items SET name = ? WHERE id = ?",
		Encode: func(r row) []any { return []any{r.Name, r.ID} },
	}

	e := m.Bind(row{ID: 3, Name: "cow"})
	if e.SQL != m.SQL {
		t.Errorf("SQL = %q, want %q", e.SQL, m.SQL)
	}
	if len(e.Args) != 2 || e.Args[0] != "cow" || e.Args[1] != int64(3) {
		t.Errorf("Args = %v, want [cow 3]", e.Args)
	}

	db := openDB(t)
	if _, err := e.Run(context.Background(), db); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, err := Read[row]{SQL: "SELECT id, name FROM items WHERE id = 3", Scan: scanRow}.One(context.Background(), db)
	if err != nil {
		t.Fatalf("One: %v", err)
	}
	if got.Name != "cow" {
		t.Errorf("name = %q, want cow", got.Name)
	}
}

func TestExecOfBind_NilEncode(t *testing.T) {
	m := ExecOf[row]{SQL: "DELETE FROM items"}

	e := m.Bind(row{ID: 1})
	if e.Args != nil {
		t.Errorf("Args = %v, want nil", e.Args)
	}
}

func TestZero(t *testing.T) {
	if z := Zero[int64](); z != 0 {
		t.Errorf("Zero[int64] = %d, want 0", z)
	}
	if z := Zero[row](); z != (row{}) {
		t.Errorf("Zero[row] = %+v, want zero struct", z)
	}
}
