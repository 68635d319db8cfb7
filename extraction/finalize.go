package extraction

import (
	"github.com/tbxark/charterflow/catalog"
	"github.com/tbxark/charterflow/normalize"
	"github.com/tbxark/charterflow/types"
)

// Finalize normalizes a raw tool payload for the requested fields. Any
// blocking issue fails the whole call; the first error decides the code and
// message.
func Finalize(cat *catalog.Catalog, fieldIDs []string, raw map[string]any) (*Response, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	res := normalize.NormalizeExtractedFields(cat, fieldIDs, raw)
	if !res.OK() {
		first := res.Errors[0]
		code := CodeValidationFailed
		if first.Code == types.IssueMissingRequired {
			code = CodeMissingRequired
		}
		return nil, &Error{
			Code:     code,
			Message:  first.Message,
			FieldIDs: res.ErrorFieldIDs(),
			Issues:   types.CloneIssues(res.Errors),
		}
	}
	return &Response{Raw: raw, Values: res.Values, Warnings: res.Warnings}, nil
}

func checkRequest(cat *catalog.Catalog, req Request) error {
	if cat == nil {
		return &Error{Code: CodeConfiguration, Message: "No field catalog is configured."}
	}
	if len(req.FieldIDs) == 0 {
		return &Error{Code: CodeNoFieldsRequested, Message: "No fields were requested."}
	}
	return nil
}
