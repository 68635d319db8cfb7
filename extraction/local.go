package extraction

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/charterflow/catalog"
	"github.com/tbxark/charterflow/normalize"
	"github.com/tbxark/charterflow/types"
)

var dateLayouts = []string{
	normalize.DateLayout,
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

var embeddedDate = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)

// LocalClient reads values straight from the latest user message with a few
// deterministic rules. It needs no model and is used offline or as the last
// resort behind a ToolClient.
type LocalClient struct {
	catalog *catalog.Catalog
}

func NewLocalClient(cat *catalog.Catalog) *LocalClient {
	return &LocalClient{catalog: cat}
}

func (c *LocalClient) Extract(ctx context.Context, req Request) (*Response, error) {
	if err := checkRequest(c.catalog, req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Code: CodeOpenAIError, Message: "The extraction was cancelled.", Err: err}
	}
	text := latestUserText(req)
	raw := make(map[string]any, len(req.FieldIDs))
	if text != "" {
		for _, id := range req.FieldIDs {
			field, ok := c.catalog.Field(id)
			if !ok {
				continue
			}
			raw[id] = guess(field, text)
		}
	}
	return Finalize(c.catalog, req.FieldIDs, raw)
}

func latestUserText(req Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		m := req.Messages[i]
		if m != nil && m.Role == schema.User {
			if text := strings.TrimSpace(m.Content); text != "" {
				return text
			}
		}
	}
	parts := make([]string, 0, len(req.Transcript))
	for _, ev := range req.Transcript {
		if t := strings.TrimSpace(ev.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func guess(field types.Field, text string) any {
	switch field.Kind {
	case types.KindDate:
		return guessDate(text)
	case types.KindStringList:
		items := splitItems(text)
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = item
		}
		return out
	case types.KindObjectList:
		return guessRecords(field, text)
	default:
		return text
	}
}

// guessDate rewrites the first recognizable date to YYYY-MM-DD. Text with no
// recognizable date is returned unchanged for the normalizer to reject.
func guessDate(text string) string {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "."))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(normalize.DateLayout)
		}
	}
	if m := embeddedDate.FindString(s); m != "" {
		return m
	}
	return s
}

// splitItems prefers line breaks, then semicolons, then commas.
func splitItems(text string) []string {
	var parts []string
	switch {
	case strings.Contains(text, "\n"):
		parts = strings.Split(text, "\n")
	case strings.Contains(text, ";"):
		parts = strings.Split(text, ";")
	default:
		parts = strings.Split(text, ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(p), "-*•"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var recordSeparators = []string{"|", " - ", " – ", ":", ","}

func guessRecords(field types.Field, text string) []any {
	var lines []string
	if strings.Contains(text, "\n") {
		lines = strings.Split(text, "\n")
	} else {
		lines = strings.Split(text, ";")
	}
	out := make([]any, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if line == "" || len(field.Children) == 0 {
			continue
		}
		parts := []string{line}
		for _, sep := range recordSeparators {
			if strings.Contains(line, sep) {
				parts = strings.SplitN(line, sep, len(field.Children))
				break
			}
		}
		record := make(map[string]any, len(parts))
		for i, part := range parts {
			child := field.Children[i]
			part = strings.TrimSpace(part)
			if child.Kind == types.KindDate {
				part = guessDate(part)
			}
			record[child.ID] = part
		}
		out = append(out, record)
	}
	return out
}
