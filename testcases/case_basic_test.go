package testcases

import (
	"testing"

	"github.com/tbxark/charterflow/guided"
)

// TestBasicUsage walks the whole charter with plain answers.
func TestBasicUsage(t *testing.T) {
	t.Parallel()
	o := NewTestOrchestrator(t)
	startSession(t, o, "basic")

	resp := send(t, o, "basic", "We are calling it the Customer Portal Relaunch")
	if got := resp.State.Fields["project_title"]; got.Status != guided.FieldConfirmed {
		t.Fatalf("expected project_title confirmed, got %s (%v)", got.Status, got.Issues)
	}
	if resp.State.ActiveFieldID != "start_date" {
		t.Errorf("expected start_date to be active, got %q", resp.State.ActiveFieldID)
	}

	resp = send(t, o, "basic", "We kick off on March 3rd, 2025")
	if got := resp.State.Fields["start_date"].ConfirmedValue.Text(); got != "2025-03-03" {
		t.Errorf("expected start date 2025-03-03, got %q", got)
	}

	resp = send(t, o, "basic", "Cut page load time in half and move billing into the portal")
	if n := len(resp.State.Fields["objectives"].ConfirmedValue.List()); n != 2 {
		t.Errorf("expected 2 objectives, got %d", n)
	}

	resp = send(t, o, "basic", "Dana Whitfield is the sponsor and Raj Patel is the tech lead")
	if !resp.Completed {
		if resp.State.Pending != nil {
			resp = send(t, o, "basic", "yes")
		}
	}
	if !resp.Completed {
		t.Fatalf("expected the charter to be complete, status %s", resp.State.Status)
	}
}
