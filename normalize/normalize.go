// Package normalize turns raw tool-call payloads into vetted field values.
// Every function here is pure.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tbxark/charterflow/catalog"
	"github.com/tbxark/charterflow/types"
)

const DateLayout = "2006-01-02"

var (
	datePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	bulletPattern = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
)

// ValidDate reports whether s is a real calendar date written as YYYY-MM-DD.
func ValidDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

type Result struct {
	Value  types.Value
	Issues []types.Issue
}

// Sanitize normalizes a single raw value for field.
func Sanitize(field types.Field, value any) Result {
	r := decode(value)
	switch field.Kind {
	case types.KindScalar, types.KindDate:
		s, issues := sanitizeScalar(field, r, field.Required)
		if s == "" {
			return Result{Issues: issues}
		}
		return Result{Value: types.Text(s), Issues: issues}
	case types.KindStringList:
		return sanitizeStringList(field, r)
	case types.KindObjectList:
		return sanitizeObjectList(field, r)
	default:
		return Result{Issues: []types.Issue{{
			Code:     types.IssueUnknownField,
			Severity: types.SeverityError,
			FieldID:  field.ID,
			Message:  fmt.Sprintf("%s has unsupported kind %q.", field.DisplayName(), field.Kind),
		}}}
	}
}

func severity(required bool) types.Severity {
	if required {
		return types.SeverityError
	}
	return types.SeverityWarning
}

func missing(field types.Field) types.Issue {
	return types.Issue{
		Code:     types.IssueMissingRequired,
		Severity: types.SeverityError,
		FieldID:  field.ID,
		Message:  fmt.Sprintf("%s is required.", field.DisplayName()),
	}
}

// sanitizeScalar handles scalar and date values. An empty string return means
// no value survived.
func sanitizeScalar(field types.Field, r raw, required bool) (string, []types.Issue) {
	s, ok := scalarText(r)
	if !ok {
		return "", []types.Issue{{
			Code:     types.IssueValidationFailed,
			Severity: severity(required),
			FieldID:  field.ID,
			Message:  fmt.Sprintf("%s must be a single text value.", field.DisplayName()),
		}}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		if required {
			return "", []types.Issue{missing(field)}
		}
		return "", nil
	}
	if field.Kind == types.KindDate && !ValidDate(s) {
		return "", []types.Issue{{
			Code:     types.IssueValidationFailed,
			Severity: severity(required),
			FieldID:  field.ID,
			Message:  fmt.Sprintf("%s %q is not a valid date (expected YYYY-MM-DD).", field.DisplayName(), s),
			Details:  map[string]any{"value": s},
		}}
	}
	if field.MaxLength > 0 && utf8.RuneCountInString(s) > field.MaxLength {
		return "", []types.Issue{{
			Code:     types.IssueValidationFailed,
			Severity: severity(required),
			FieldID:  field.ID,
			Message:  fmt.Sprintf("%s must be at most %d characters.", field.DisplayName(), field.MaxLength),
			Details:  map[string]any{"value": s, "max_length": field.MaxLength},
		}}
	}
	return s, nil
}

func sanitizeStringList(field types.Field, r raw) Result {
	var (
		candidates []string
		issues     []types.Issue
	)
	collect := func(item raw) {
		switch item.shape {
		case shapeNone:
		case shapeText:
			candidates = append(candidates, item.text)
		case shapeObject:
			if s, ok := scalarText(item); ok {
				candidates = append(candidates, s)
				return
			}
			issues = append(issues, types.Issue{
				Code:     types.IssueValidationFailed,
				Severity: types.SeverityWarning,
				FieldID:  field.ID,
				Message:  fmt.Sprintf("Dropped an entry from %s that was not text.", field.DisplayName()),
			})
		case shapeList:
			issues = append(issues, types.Issue{
				Code:     types.IssueValidationFailed,
				Severity: types.SeverityWarning,
				FieldID:  field.ID,
				Message:  fmt.Sprintf("Dropped a nested list from %s.", field.DisplayName()),
			})
		}
	}
	switch r.shape {
	case shapeNone:
	case shapeText:
		candidates = splitEntries(r.text)
	case shapeList:
		for _, item := range r.list {
			collect(decode(item))
		}
	case shapeObject:
		collect(r)
	}

	seen := make(map[string]bool, len(candidates))
	items := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		if field.MaxLength > 0 && utf8.RuneCountInString(c) > field.MaxLength {
			issues = append(issues, types.Issue{
				Code:     types.IssueValidationFailed,
				Severity: types.SeverityWarning,
				FieldID:  field.ID,
				Message:  fmt.Sprintf("Dropped %q from %s: entries must be at most %d characters.", c, field.DisplayName(), field.MaxLength),
				Details:  map[string]any{"value": c, "max_length": field.MaxLength},
			})
			continue
		}
		items = append(items, c)
	}
	if len(items) == 0 {
		if field.Required {
			issues = append(issues, missing(field))
		}
		return Result{Issues: issues}
	}
	return Result{Value: types.List(items...), Issues: issues}
}

func sanitizeObjectList(field types.Field, r raw) Result {
	var entries []raw
	switch r.shape {
	case shapeNone:
	case shapeText:
		for _, line := range splitEntries(r.text) {
			entries = append(entries, raw{shape: shapeText, text: line})
		}
	case shapeList:
		for _, item := range r.list {
			entries = append(entries, decode(item))
		}
	case shapeObject:
		entries = append(entries, r)
	}

	var (
		records []types.Record
		issues  []types.Issue
	)
	for i, entry := range entries {
		rec, entryIssues := sanitizeRecord(field, i+1, entry)
		issues = append(issues, entryIssues...)
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		if field.Required {
			issues = append(issues, missing(field))
		}
		return Result{Issues: issues}
	}
	return Result{Value: types.Records(records...), Issues: issues}
}

func sanitizeRecord(field types.Field, n int, entry raw) (types.Record, []types.Issue) {
	values := make(map[string]raw, len(field.Children))
	switch entry.shape {
	case shapeNone:
		return nil, nil
	case shapeText:
		if strings.TrimSpace(entry.text) == "" {
			return nil, nil
		}
		values[field.Children[0].ID] = entry
	case shapeObject:
		for _, key := range sortedKeys(entry.object) {
			child, ok := resolveChild(field, key)
			if !ok {
				continue
			}
			if _, taken := values[child.ID]; taken {
				continue
			}
			values[child.ID] = decode(entry.object[key])
		}
	case shapeList:
		return nil, []types.Issue{{
			Code:     types.IssueValidationFailed,
			Severity: types.SeverityWarning,
			FieldID:  field.ID,
			Message:  fmt.Sprintf("Dropped %s entry %d: expected an object.", field.DisplayName(), n),
			Details:  map[string]any{"index": n},
		}}
	}

	rec := make(types.Record, len(values))
	var issues []types.Issue
	for _, child := range field.Children {
		v, ok := values[child.ID]
		if !ok {
			continue
		}
		s, childIssues := sanitizeScalar(child, v, false)
		for _, is := range childIssues {
			is.FieldID = field.ID
			is.Message = fmt.Sprintf("%s entry %d: %s", field.DisplayName(), n, is.Message)
			if is.Details == nil {
				is.Details = map[string]any{}
			}
			is.Details["child"] = child.ID
			is.Details["index"] = n
			issues = append(issues, is)
		}
		if s != "" {
			rec[child.ID] = s
		}
	}
	return rec, issues
}

// resolveChild maps an incoming key to a canonical child via its id, label or
// declared aliases.
func resolveChild(field types.Field, key string) (types.Field, bool) {
	k := catalog.Fold(key)
	if k == "" {
		return types.Field{}, false
	}
	for _, child := range field.Children {
		if catalog.Fold(child.ID) == k || catalog.Fold(child.Label) == k {
			return child, true
		}
		for _, alias := range child.Aliases {
			if catalog.Fold(alias) == k {
				return child, true
			}
		}
	}
	return types.Field{}, false
}
