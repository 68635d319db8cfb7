package types

type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type IssueCode string

const (
	IssueMissingRequired  IssueCode = "missing_required"
	IssueValidationFailed IssueCode = "validation_failed"
	IssueUnknownField     IssueCode = "unknown_field"
)

// Issue is a single normalization finding. Warnings never block a value from
// being proposed; errors do.
type Issue struct {
	Code     IssueCode      `json:"code"`
	Severity Severity       `json:"severity"`
	FieldID  string         `json:"field_id"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
}

func (i Issue) IsError() bool {
	return i.Severity == SeverityError
}

func (i Issue) Clone() Issue {
	out := i
	if i.Details != nil {
		out.Details = make(map[string]any, len(i.Details))
		for k, v := range i.Details {
			out.Details[k] = v
		}
	}
	return out
}

func CloneIssues(issues []Issue) []Issue {
	if issues == nil {
		return nil
	}
	out := make([]Issue, len(issues))
	for i, is := range issues {
		out[i] = is.Clone()
	}
	return out
}

// IssueMessages flattens issues into their messages.
func IssueMessages(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Message)
	}
	return out
}
