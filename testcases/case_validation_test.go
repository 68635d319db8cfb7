package testcases

import (
	"testing"

	"github.com/tbxark/charterflow/guided"
)

// TestValidation gives an unusable date and then a good one.
func TestValidation(t *testing.T) {
	t.Parallel()
	o := NewTestOrchestrator(t)
	startSession(t, o, "validation")
	send(t, o, "validation", "Mobile App Refresh")

	resp := send(t, o, "validation", "sometime after the reorg, no idea when")
	f := resp.State.Fields["start_date"]
	if f.Status == guided.FieldConfirmed {
		t.Fatalf("a vague date should not be confirmed, got %q", f.ConfirmedValue.String())
	}
	if resp.State.ActiveFieldID != "start_date" {
		t.Errorf("start_date should stay active, got %q", resp.State.ActiveFieldID)
	}

	resp = send(t, o, "validation", "2025-06-02")
	if got := resp.State.Fields["start_date"].Status; got != guided.FieldConfirmed {
		t.Errorf("expected start_date confirmed, got %s", got)
	}
}
