package jobs

import (
	"encoding/json"
	"testing"
)

func TestSummaryRecord(t *testing.T) {
	sum := NewSummary()
	sum.Record("bookings", 5)
	sum.Record("invoices", 2)
	sum.Record("payments", 0)

	if got := sum.TotalDeleted; got != 7 {
		t.Fatalf("TotalDeleted = %d, want 7", got)
	}
	if got, ok := sum.DeletedTables["payments"]; !ok || got != 0 {
		t.Fatalf("zero count not recorded: %v (present %v)", got, ok)
	}
	if sum.Failed() {
		t.Fatal("summary without errors reported Failed")
	}
	if got := sum.ErrorMessage(); got != "" {
		t.Fatalf("ErrorMessage = %q, want empty", got)
	}
}

func TestSummaryErrors(t *testing.T) {
	sum := NewSummary()
	sum.AddError("first thing broke")
	sum.AddErrorf("then %s broke", "another")

	if !sum.Failed() {
		t.Fatal("summary with errors did not report Failed")
	}
	if got, want := sum.ErrorMessage(), "first thing broke; then another broke"; got != want {
		t.Fatalf("ErrorMessage = %q, want %q", got, want)
	}
}

func TestSummaryJSONShape(t *testing.T) {
	sum := NewSummary()
	sum.Record("tenant", 1)

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(sum.JSON(), &decoded); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"deletedTables", "totalDeleted", "errors"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing %q in %s", key, sum.JSON())
		}
	}
	// an empty error list must serialize as [], not null
	if string(decoded["errors"]) != "[]" {
		t.Fatalf("errors = %s, want []", decoded["errors"])
	}
}
