package guided

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/charterflow/types"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func started(order ...string) State {
	return Reduce(New(order), Start{At: t0})
}

func TestNewIsIdle(t *testing.T) {
	s := New([]string{"a", "b"})
	assert.Equal(t, StatusIdle, s.Status)
	assert.Empty(t, s.ActiveFieldID)
	for _, id := range s.Order {
		assert.Equal(t, FieldPending, s.Fields[id].Status)
	}
}

func TestStartActivatesFirstField(t *testing.T) {
	s := started("name", "date")
	assert.Equal(t, StatusAsking, s.Status)
	assert.Equal(t, "name", s.ActiveFieldID)
	assert.Equal(t, FieldAsking, s.Fields["name"].Status)
	assert.Equal(t, t0, s.Fields["name"].LastAskedAt)
	assert.Equal(t, Waiting{User: true}, s.Waiting)
	assert.Equal(t, uint64(1), s.Revision)
}

func TestStartWithEmptyOrderCompletes(t *testing.T) {
	s := started()
	assert.True(t, s.Complete())
	assert.Empty(t, s.ActiveFieldID)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := started("name", "date")
	before := s.Clone()
	_ = Reduce(s, Capture{FieldID: "name", Value: types.Text("Acme")})
	assert.Equal(t, before, s)
}

func TestCaptureValidateConfirmScenario(t *testing.T) {
	s := started("name", "date")

	s = Reduce(s, Capture{FieldID: "name", Value: types.Text("")})
	assert.Equal(t, FieldCaptured, s.Fields["name"].Status)
	assert.Equal(t, StatusCapturing, s.Status)
	assert.True(t, s.Waiting.Validation)

	s = Reduce(s, Validate{FieldID: "name", Valid: false, Issues: []string{"Name is required."}})
	assert.Equal(t, FieldRejected, s.Fields["name"].Status)
	assert.Equal(t, []string{"Name is required."}, s.Fields["name"].Issues)
	assert.Equal(t, "name", s.ActiveFieldID)

	s = Reduce(s, Capture{FieldID: "name", Value: types.Text("Acme")})
	assert.Empty(t, s.Fields["name"].Issues)

	s = Reduce(s, Validate{FieldID: "name", Valid: true})
	assert.Equal(t, FieldConfirmed, s.Fields["name"].Status)
	assert.Equal(t, "name", s.ActiveFieldID)

	s = Reduce(s, Confirm{FieldID: "name"})
	assert.Equal(t, "date", s.ActiveFieldID)
	assert.Equal(t, FieldConfirmed, s.Fields["name"].Status)
	assert.Equal(t, types.Text("Acme"), s.Fields["name"].ConfirmedValue)
	assert.Equal(t, FieldAsking, s.Fields["date"].Status)
}

func TestValidateUsesNormalizedValue(t *testing.T) {
	s := started("name")
	s = Reduce(s, Capture{FieldID: "name", Value: types.Text(" acme ")})
	s = Reduce(s, Validate{FieldID: "name", Valid: true, NormalizedValue: types.Text("Acme")})
	f := s.Fields["name"]
	assert.Equal(t, types.Text("Acme"), f.Value)
	assert.Equal(t, f.Value, f.ConfirmedValue)
}

func TestRejectedWithoutIssuesCarriesEmptyList(t *testing.T) {
	s := started("name")
	s = Reduce(s, Reject{FieldID: "name"})
	require.NotNil(t, s.Fields["name"].Issues)
	assert.Empty(t, s.Fields["name"].Issues)
	assert.Equal(t, "name", s.ActiveFieldID)
}

func TestConfirmRequiresCapturedValue(t *testing.T) {
	s := started("name", "date")

	// asking, nothing captured
	next := Reduce(s, Confirm{FieldID: "name"})
	assert.Equal(t, s, next)

	s = Reduce(s, Reject{FieldID: "name", Issues: []string{"bad"}})
	next = Reduce(s, Confirm{})
	assert.Equal(t, s, next)

	s = Reduce(s, Capture{FieldID: "name", Value: types.Text("Acme")})
	require.Equal(t, FieldCaptured, s.Fields["name"].Status)
	s = Reduce(s, Confirm{})
	f := s.Fields["name"]
	assert.Equal(t, FieldConfirmed, f.Status)
	assert.Equal(t, f.Value, f.ConfirmedValue)
}

func TestConfirmLastFieldCompletes(t *testing.T) {
	s := started("name")
	s = Reduce(s, Capture{FieldID: "name", Value: types.Text("Acme")})
	s = Reduce(s, Confirm{})
	assert.True(t, s.Complete())
	assert.Empty(t, s.ActiveFieldID)
	assert.Nil(t, s.Pending)
}

func TestSkipClearsValueAndAdvances(t *testing.T) {
	s := started("name", "date")
	s = Reduce(s, Capture{FieldID: "name", Value: types.Text("Acme")})
	s = Reduce(s, Skip{Reason: "not known yet"})
	f := s.Fields["name"]
	assert.Equal(t, FieldSkipped, f.Status)
	assert.Equal(t, "not known yet", f.SkipReason)
	assert.True(t, f.Value.IsZero())
	assert.True(t, f.ConfirmedValue.IsZero())
	assert.Equal(t, "date", s.ActiveFieldID)

	s = Reduce(s, Skip{})
	assert.True(t, s.Complete())
}

func TestAdvanceSkipsTerminalFieldsAndWraps(t *testing.T) {
	s := started("a", "b", "c")
	s = Reduce(s, Skip{FieldID: "a"})
	s = Reduce(s, Propose{FieldID: "b", Value: types.Text("B")})
	s = Reduce(s, Confirm{FieldID: "b"})
	assert.Equal(t, "c", s.ActiveFieldID)

	// revisit a, answer it, and the session completes only once c is done
	s = Reduce(s, Ask{FieldID: "a"})
	assert.Equal(t, FieldPending, s.Fields["c"].Status)
	s = Reduce(s, Capture{FieldID: "a", Value: types.Text("A")})
	s = Reduce(s, Confirm{})
	assert.Equal(t, "c", s.ActiveFieldID)
}

func TestBackPreservesConfirmedValue(t *testing.T) {
	s := started("name", "date")
	s = Reduce(s, Capture{FieldID: "name", Value: types.Text("Acme")})
	s = Reduce(s, Confirm{})
	require.Equal(t, "date", s.ActiveFieldID)

	s = Reduce(s, Back{At: t0.Add(time.Minute)})
	assert.Equal(t, "name", s.ActiveFieldID)
	assert.Equal(t, FieldAsking, s.Fields["name"].Status)
	assert.Equal(t, types.Text("Acme"), s.Fields["name"].ConfirmedValue)
	assert.Equal(t, types.Text("Acme"), s.Fields["name"].Value)
	assert.Equal(t, FieldPending, s.Fields["date"].Status)
	assert.Equal(t, t0.Add(time.Minute), s.Fields["name"].LastAskedAt)
}

func TestBackAtFirstFieldReasks(t *testing.T) {
	s := started("name", "date")
	s = Reduce(s, Back{})
	assert.Equal(t, "name", s.ActiveFieldID)
	assert.Equal(t, FieldAsking, s.Fields["name"].Status)
}

func TestBackFromCompleteGoesToLastField(t *testing.T) {
	s := started("name", "date")
	s = Reduce(s, Complete{})
	require.True(t, s.Complete())
	s = Reduce(s, Back{})
	assert.Equal(t, "date", s.ActiveFieldID)
	assert.Equal(t, StatusAsking, s.Status)
}

func TestProposeAwaitingConfirmation(t *testing.T) {
	s := started("milestones", "risks")
	value := types.Records(types.Record{"title": "Beta"})
	s = Reduce(s, Propose{FieldID: "milestones", Value: value, Warnings: []string{"bad date"}, AwaitingConfirmation: true})

	require.NotNil(t, s.Pending)
	assert.Equal(t, "milestones", s.Pending.FieldID)
	assert.True(t, s.Pending.AwaitingConfirmation)
	assert.Equal(t, []string{"bad date"}, s.Pending.Warnings)
	f := s.Fields["milestones"]
	assert.Equal(t, FieldCaptured, f.Status)
	assert.Equal(t, value, f.Value)
	assert.True(t, f.ConfirmedValue.IsZero())
	assert.Equal(t, StatusConfirming, s.Status)

	s = Reduce(s, ConfirmPending{})
	assert.Nil(t, s.Pending)
	f = s.Fields["milestones"]
	assert.Equal(t, FieldConfirmed, f.Status)
	assert.Equal(t, value, f.ConfirmedValue)
	assert.Equal(t, "risks", s.ActiveFieldID)
}

func TestProposeWithoutConfirmationPromotes(t *testing.T) {
	s := started("name", "date")
	s = Reduce(s, Propose{FieldID: "name", Value: types.Text("Acme")})
	assert.Nil(t, s.Pending)
	assert.Equal(t, FieldConfirmed, s.Fields["name"].Status)
	assert.Equal(t, types.Text("Acme"), s.Fields["name"].ConfirmedValue)
	assert.Equal(t, "name", s.ActiveFieldID)

	s = Reduce(s, Confirm{FieldID: "name"})
	assert.Equal(t, "date", s.ActiveFieldID)
}

func TestRejectPendingIsCleanRetry(t *testing.T) {
	s := started("name", "date")
	s = Reduce(s, Propose{FieldID: "name", Value: types.Text("Acme?"), Warnings: []string{"odd"}, AwaitingConfirmation: true})
	s = Reduce(s, RejectPending{})
	assert.Nil(t, s.Pending)
	f := s.Fields["name"]
	assert.Equal(t, FieldAsking, f.Status)
	assert.NotNil(t, f.Issues)
	assert.Empty(t, f.Issues)
	assert.True(t, f.Value.IsZero())
	assert.Equal(t, "name", s.ActiveFieldID)
	assert.Equal(t, StatusAsking, s.Status)
}

func TestPendingEventsIgnoredWithoutProposal(t *testing.T) {
	s := started("name")
	assert.Equal(t, s, Reduce(s, ConfirmPending{}))
	assert.Equal(t, s, Reduce(s, RejectPending{}))
}

func TestAskClearsPendingAndKeepsValues(t *testing.T) {
	s := started("name", "date")
	s = Reduce(s, Propose{FieldID: "name", Value: types.Text("Acme")})
	s = Reduce(s, Confirm{})
	s = Reduce(s, Propose{FieldID: "date", Value: types.Text("2024-01-01"), Warnings: []string{"w"}, AwaitingConfirmation: true})
	require.NotNil(t, s.Pending)

	s = Reduce(s, Ask{FieldID: "name"})
	assert.Nil(t, s.Pending)
	assert.Equal(t, "name", s.ActiveFieldID)
	assert.Equal(t, types.Text("Acme"), s.Fields["name"].ConfirmedValue)
}

func TestLeavingProposalRestoresConfirmedValue(t *testing.T) {
	proposal := Propose{FieldID: "name", Value: types.Text("Acme?"), Warnings: []string{"odd"}, AwaitingConfirmation: true}

	s := started("name", "date")
	s = Reduce(s, proposal)
	s = Reduce(s, Ask{FieldID: "date"})
	assert.Nil(t, s.Pending)
	f := s.Fields["name"]
	assert.Equal(t, FieldPending, f.Status)
	assert.True(t, f.Value.IsZero())
	assert.Empty(t, f.Issues)

	s = started("name", "date")
	s = Reduce(s, Propose{FieldID: "name", Value: types.Text("Acme")})
	s = Reduce(s, Confirm{})
	s = Reduce(s, Ask{FieldID: "name"})
	s = Reduce(s, proposal)
	s = Reduce(s, Ask{FieldID: "date"})
	f = s.Fields["name"]
	assert.Equal(t, FieldConfirmed, f.Status)
	assert.Equal(t, types.Text("Acme"), f.Value)
	assert.Equal(t, types.Text("Acme"), f.ConfirmedValue)
	assert.Empty(t, f.Issues)
	assert.Equal(t, FieldAsking, s.Fields["date"].Status)
}

func TestCompleteDropsProposal(t *testing.T) {
	s := started("name")
	s = Reduce(s, Propose{FieldID: "name", Value: types.Text("Acme?"), Warnings: []string{"odd"}, AwaitingConfirmation: true})
	s = Reduce(s, Complete{})
	assert.True(t, s.Complete())
	assert.Nil(t, s.Pending)
	assert.Equal(t, FieldPending, s.Fields["name"].Status)
	assert.True(t, s.Fields["name"].Value.IsZero())
}

func TestUnknownFieldEventsAreIgnored(t *testing.T) {
	s := started("name")
	for _, ev := range []Event{
		Ask{FieldID: "nope"},
		Capture{FieldID: "nope", Value: types.Text("x")},
		Validate{FieldID: "nope", Valid: true},
		Confirm{FieldID: "nope"},
		Reject{FieldID: "nope"},
		Skip{FieldID: "nope"},
		Propose{FieldID: "nope", Value: types.Text("x")},
	} {
		assert.Equal(t, s, Reduce(s, ev), ev.Type())
	}
}

func TestRestartFromCompleteReinitializes(t *testing.T) {
	s := started("name", "date")
	s = Reduce(s, Propose{FieldID: "name", Value: types.Text("Acme")})
	s = Reduce(s, Confirm{})
	s = Reduce(s, Skip{})
	require.True(t, s.Complete())

	s = Reduce(s, Start{})
	assert.Equal(t, "name", s.ActiveFieldID)
	assert.Equal(t, FieldAsking, s.Fields["name"].Status)
	assert.True(t, s.Fields["name"].ConfirmedValue.IsZero())
	assert.Equal(t, FieldPending, s.Fields["date"].Status)
	assert.Empty(t, s.Fields["date"].SkipReason)
}

func TestRevisionAdvancesOnlyOnAppliedEvents(t *testing.T) {
	s := started("name")
	rev := s.Revision
	s = Reduce(s, ConfirmPending{})
	assert.Equal(t, rev, s.Revision)
	s = Reduce(s, Capture{FieldID: "name", Value: types.Text("x")})
	assert.Equal(t, rev+1, s.Revision)
}

func TestOnlyActiveFieldIsAsking(t *testing.T) {
	s := started("a", "b", "c")
	s = Reduce(s, Ask{FieldID: "c"})
	s = Reduce(s, Ask{FieldID: "b"})
	asking := 0
	for _, f := range s.Fields {
		if f.Status == FieldAsking {
			asking++
		}
	}
	assert.Equal(t, 1, asking)
	assert.Equal(t, "b", s.ActiveFieldID)
}
