package check

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/querycheck/querycheck/pkg/query"
)

func staticCap(err error) Capability[query.Exec] {
	return Capability[query.Exec]{
		Kind: "exec",
		Probe: func(ctx context.Context, db *sql.DB, e query.Exec) error {
			return err
		},
	}
}

func TestVerifyAll_ReportsEveryOutcomeInOrder(t *testing.T) {
	boom := errors.New("boom")
	ds := []Descriptor{
		{Name: "M.A", RawName: "A", Checked: Wrap(query.Exec{}, staticCap(nil))},
		{Name: "M.B", RawName: "B", Checked: Wrap(query.Exec{}, staticCap(boom))},
		{Name: "M.C", RawName: "C", Checked: Wrap(query.Exec{}, staticCap(nil))},
	}

	outcomes := VerifyAll(context.Background(), nil, ds)
	if len(outcomes) != 3 {
		t.Fatalf("len = %d, want 3", len(outcomes))
	}
	wantNames := []string{"M.A", "M.B", "M.C"}
	for i, o := range outcomes {
		if o.Name != wantNames[i] {
			t.Errorf("outcome %d name = %q, want %q", i, o.Name, wantNames[i])
		}
	}
	if outcomes[0].Err != nil || outcomes[2].Err != nil {
		t.Errorf("passing descriptors reported errors: %v, %v", outcomes[0].Err, outcomes[2].Err)
	}
	if !errors.Is(outcomes[1].Err, boom) {
		t.Errorf("outcomes[1].Err = %v, want boom", outcomes[1].Err)
	}
}

func TestRunAll_RunsOneSubtestPerDescriptor(t *testing.T) {
	ds := []Descriptor{
		{Name: "M.A", RawName: "A", Checked: Wrap(query.Exec{}, staticCap(nil))},
		{Name: "M.B", RawName: "B", Checked: Wrap(query.Exec{}, staticCap(nil))},
	}
	RunAll(t, context.Background(), nil, ds)
}
