package check

import (
	"context"
	"database/sql"
	"testing"
)

// Descriptor is one emitted check: a display name unique within its
// generated sequence, the member name as declared, and the wrapped
// value-capability pair.
type Descriptor struct {
	Name    string
	RawName string
	Checked Checked
}

// Outcome is the verification result for one descriptor.
type Outcome struct {
	Name string
	Err  error
}

// VerifyAll verifies every descriptor in order and reports one outcome per
// descriptor. It never stops early; a failed probe is an outcome, not an
// abort.
func VerifyAll(ctx context.Context, db *sql.DB, ds []Descriptor) []Outcome {
	out := make([]Outcome, 0, len(ds))
	for _, d := range ds {
		out = append(out, Outcome{Name: d.Name, Err: Verify(ctx, db, d.Checked)})
	}
	return out
}

// RunAll runs one subtest per descriptor, named by the descriptor's display
// name. Intended for a checked-in test over a generated descriptor table.
func RunAll(t *testing.T, ctx context.Context, db *sql.DB, ds []Descriptor) {
	t.Helper()
	for _, d := range ds {
		t.Run(d.Name, func(t *testing.T) {
			if err := Verify(ctx, db, d.Checked); err != nil {
				t.Errorf("verify %s: %v", d.RawName, err)
			}
		})
	}
}
