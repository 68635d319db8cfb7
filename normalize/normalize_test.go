package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/charterflow/catalog"
	"github.com/tbxark/charterflow/types"
)

func TestValidDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2024-02-29", true},
		{"2024-03-01", true},
		{"2024-02-30", false},
		{"2024-13-01", false},
		{"2023-02-29", false},
		{"2024-3-1", false},
		{"03/01/2024", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidDate(tt.in))
		})
	}
}

func TestSanitizeScalar(t *testing.T) {
	required := types.Field{ID: "name", Label: "Name", Kind: types.KindScalar, Required: true, MaxLength: 10}
	optional := types.Field{ID: "note", Label: "Note", Kind: types.KindScalar}

	res := Sanitize(required, "  Acme  ")
	assert.Equal(t, types.Text("Acme"), res.Value)
	assert.Empty(t, res.Issues)

	res = Sanitize(required, []any{" First ", "Second"})
	assert.Equal(t, "First", res.Value.Text())

	res = Sanitize(required, "   ")
	assert.True(t, res.Value.IsZero())
	require.Len(t, res.Issues, 1)
	assert.Equal(t, types.IssueMissingRequired, res.Issues[0].Code)
	assert.Equal(t, types.SeverityError, res.Issues[0].Severity)

	res = Sanitize(optional, "")
	assert.True(t, res.Value.IsZero())
	assert.Empty(t, res.Issues)

	res = Sanitize(required, "a name that is too long")
	assert.True(t, res.Value.IsZero())
	require.Len(t, res.Issues, 1)
	assert.Equal(t, types.IssueValidationFailed, res.Issues[0].Code)

	res = Sanitize(optional, 42.0)
	assert.Equal(t, "42", res.Value.Text())

	res = Sanitize(optional, map[string]any{"value": " boxed "})
	assert.Equal(t, "boxed", res.Value.Text())
}

func TestSanitizeDate(t *testing.T) {
	required := types.Field{ID: "start", Label: "Start", Kind: types.KindDate, Required: true}
	optional := types.Field{ID: "end", Label: "End", Kind: types.KindDate}

	for _, in := range []string{"2024-02-29", "2024-03-01"} {
		res := Sanitize(required, in)
		assert.Equal(t, in, res.Value.Text())
		assert.Empty(t, res.Issues)
	}
	for _, in := range []string{"2024-02-30", "2024-13-01"} {
		res := Sanitize(required, in)
		assert.True(t, res.Value.IsZero(), in)
		require.Len(t, res.Issues, 1, in)
		assert.Equal(t, types.IssueValidationFailed, res.Issues[0].Code)
		assert.Equal(t, types.SeverityError, res.Issues[0].Severity)

		res = Sanitize(optional, in)
		require.Len(t, res.Issues, 1, in)
		assert.Equal(t, types.SeverityWarning, res.Issues[0].Severity)
	}
}

func TestSanitizeStringList(t *testing.T) {
	field := types.Field{ID: "tags", Label: "Tags", Kind: types.KindStringList, MaxLength: 5}

	res := Sanitize(field, []any{" Alpha ", "Alpha", "Longer"})
	assert.Equal(t, types.List("Alpha"), res.Value)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, types.SeverityWarning, res.Issues[0].Severity)
	assert.Contains(t, res.Issues[0].Message, "Longer")
	assert.Equal(t, "Longer", res.Issues[0].Details["value"])
}

func TestSanitizeStringListFromText(t *testing.T) {
	field := types.Field{ID: "goals", Label: "Goals", Kind: types.KindStringList, Required: true}

	res := Sanitize(field, "- Ship beta\n- Hire two engineers\n\n* Ship beta\n1. Train support")
	assert.Equal(t, []string{"Ship beta", "Hire two engineers", "Train support"}, res.Value.List())
	assert.Empty(t, res.Issues)

	res = Sanitize(field, []any{"", "  "})
	assert.True(t, res.Value.IsZero())
	require.Len(t, res.Issues, 1)
	assert.Equal(t, types.IssueMissingRequired, res.Issues[0].Code)
	assert.Equal(t, types.SeverityError, res.Issues[0].Severity)
}

func milestonesField(required bool) types.Field {
	return types.Field{
		ID:       "milestones",
		Label:    "Milestones",
		Kind:     types.KindObjectList,
		Required: required,
		Children: []types.Field{
			{ID: "title", Label: "Title", Kind: types.KindScalar, Aliases: []string{"name"}},
			{ID: "due_date", Label: "Due date", Kind: types.KindDate, Aliases: []string{"date", "deadline"}},
		},
	}
}

func TestSanitizeObjectList(t *testing.T) {
	field := milestonesField(true)

	res := Sanitize(field, []any{
		map[string]any{"Name": " Beta ", "Deadline": "2024-04-01", "owner": "ignored"},
		map[string]any{"title": "Launch", "date": "2024-02-30"},
		map[string]any{"due date": "not a date"},
		"Retro",
	})
	require.Equal(t, types.ShapeRecords, res.Value.Shape())
	assert.Equal(t, []types.Record{
		{"title": "Beta", "due_date": "2024-04-01"},
		{"title": "Launch"},
		{"title": "Retro"},
	}, res.Value.Records())

	require.Len(t, res.Issues, 2)
	for _, is := range res.Issues {
		assert.Equal(t, types.SeverityWarning, is.Severity)
		assert.Equal(t, "due_date", is.Details["child"])
		assert.Contains(t, is.Message, "Due date")
	}
}

func TestSanitizeObjectListRequiredEmpty(t *testing.T) {
	res := Sanitize(milestonesField(true), []any{map[string]any{"date": "bogus"}})
	assert.True(t, res.Value.IsZero())
	require.Len(t, res.Issues, 2)
	assert.Equal(t, types.SeverityWarning, res.Issues[0].Severity)
	assert.Equal(t, types.IssueMissingRequired, res.Issues[1].Code)

	res = Sanitize(milestonesField(false), []any{})
	assert.True(t, res.Value.IsZero())
	assert.Empty(t, res.Issues)
}

func TestSanitizeObjectListSingleObject(t *testing.T) {
	res := Sanitize(milestonesField(false), map[string]any{"title": "Kickoff", "due_date": "2024-01-10"})
	assert.Equal(t, []types.Record{{"title": "Kickoff", "due_date": "2024-01-10"}}, res.Value.Records())
}

func TestNormalizeExtractedFields(t *testing.T) {
	cat := catalog.MustNew(
		types.Field{ID: "name", Label: "Name", Kind: types.KindScalar, Required: true},
		types.Field{ID: "date", Label: "Date", Kind: types.KindDate, Required: true},
		types.Field{ID: "note", Label: "Note", Kind: types.KindScalar},
		types.Field{ID: "tags", Label: "Tags", Kind: types.KindStringList, MaxLength: 5},
	)

	res := NormalizeExtractedFields(cat, []string{"name", "note", "tags"}, map[string]any{
		"name": " Acme ",
		"tags": []any{"ok", "too long"},
	})
	assert.True(t, res.OK())
	assert.Equal(t, types.Text("Acme"), res.Values["name"])
	assert.Equal(t, types.List("ok"), res.Values["tags"])
	_, hasNote := res.Values["note"]
	assert.False(t, hasNote)
	require.Len(t, res.Warnings, 1)

	res = NormalizeExtractedFields(cat, []string{"name", "date"}, map[string]any{
		"name": "Acme",
		"date": "2024-02-30",
	})
	assert.False(t, res.OK())
	assert.Equal(t, types.Text("Acme"), res.Values["name"])
	require.Len(t, res.Errors, 1)
	assert.Equal(t, types.IssueValidationFailed, res.Errors[0].Code)
	assert.Equal(t, []string{"date"}, res.ErrorFieldIDs())

	res = NormalizeExtractedFields(cat, []string{"date", "nope"}, map[string]any{})
	require.Len(t, res.Errors, 2)
	assert.Equal(t, types.IssueMissingRequired, res.Errors[0].Code)
	assert.Equal(t, types.IssueUnknownField, res.Errors[1].Code)
}
