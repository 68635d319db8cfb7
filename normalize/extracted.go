package normalize

import (
	"fmt"

	"github.com/tbxark/charterflow/catalog"
	"github.com/tbxark/charterflow/types"
)

type FieldsResult struct {
	Values   map[string]types.Value
	Warnings []types.Issue
	Errors   []types.Issue
}

// OK reports whether no blocking issue was found.
func (r FieldsResult) OK() bool {
	return len(r.Errors) == 0
}

// ErrorFieldIDs lists the distinct field ids that carry an error, in the
// order they were reported.
func (r FieldsResult) ErrorFieldIDs() []string {
	seen := make(map[string]bool, len(r.Errors))
	var out []string
	for _, is := range r.Errors {
		if seen[is.FieldID] {
			continue
		}
		seen[is.FieldID] = true
		out = append(out, is.FieldID)
	}
	return out
}

// NormalizeExtractedFields sanitizes every requested field found in payload.
// A requested field absent from the payload is an error only when required.
// Any error fails the whole result even if other fields normalized cleanly.
func NormalizeExtractedFields(cat *catalog.Catalog, requested []string, payload map[string]any) FieldsResult {
	res := FieldsResult{Values: make(map[string]types.Value, len(requested))}
	for _, id := range requested {
		field, ok := cat.Field(id)
		if !ok {
			res.Errors = append(res.Errors, types.Issue{
				Code:     types.IssueUnknownField,
				Severity: types.SeverityError,
				FieldID:  id,
				Message:  fmt.Sprintf("Unknown field %q.", id),
			})
			continue
		}
		value, present := payload[id]
		if !present || value == nil {
			if field.Required {
				res.Errors = append(res.Errors, missing(field))
			}
			continue
		}
		out := Sanitize(field, value)
		for _, is := range out.Issues {
			if is.IsError() {
				res.Errors = append(res.Errors, is)
			} else {
				res.Warnings = append(res.Warnings, is)
			}
		}
		if !out.Value.IsZero() {
			res.Values[id] = out.Value
		}
	}
	return res
}
