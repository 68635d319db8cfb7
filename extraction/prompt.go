package extraction

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"

	"github.com/tbxark/charterflow/catalog"
	"github.com/tbxark/charterflow/normalize"
	"github.com/tbxark/charterflow/types"
)

const DefaultToolName = "record_charter_fields"

const DefaultSystemPrompt = `You extract project charter field values from a conversation.

Rules:
- Call the provided tool exactly once.
- Only fill the requested fields. Omit a field when the user has not given a value for it.
- Use the user's words. Do not invent names, dates or numbers.
- Dates must be written as YYYY-MM-DD.
- For list fields return one entry per item; for structured lists return one object per entry.`

// buildToolInfo describes exactly the requested fields. Unknown ids are left
// out of the schema and reported by normalization.
func buildToolInfo(cat *catalog.Catalog, name string, fieldIDs []string) *schema.ToolInfo {
	params := make(map[string]*schema.ParameterInfo, len(fieldIDs))
	for _, id := range fieldIDs {
		field, ok := cat.Field(id)
		if !ok {
			continue
		}
		params[id] = fieldParam(field)
	}
	return &schema.ToolInfo{
		Name:        name,
		Desc:        "Record the values the user gave for the requested charter fields.",
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

func fieldParam(field types.Field) *schema.ParameterInfo {
	desc := describe(field)
	switch field.Kind {
	case types.KindStringList:
		return &schema.ParameterInfo{
			Type:     schema.Array,
			Desc:     desc,
			ElemInfo: &schema.ParameterInfo{Type: schema.String},
		}
	case types.KindObjectList:
		sub := make(map[string]*schema.ParameterInfo, len(field.Children))
		for _, child := range field.Children {
			sub[child.ID] = &schema.ParameterInfo{Type: schema.String, Desc: describe(child)}
		}
		return &schema.ParameterInfo{
			Type: schema.Array,
			Desc: desc,
			ElemInfo: &schema.ParameterInfo{
				Type:      schema.Object,
				SubParams: sub,
			},
		}
	default:
		return &schema.ParameterInfo{Type: schema.String, Desc: desc}
	}
}

func describe(field types.Field) string {
	parts := []string{field.DisplayName()}
	if field.Kind == types.KindDate {
		parts = append(parts, "format "+normalize.DateLayout)
	}
	if field.Help != "" {
		parts = append(parts, field.Help)
	}
	if field.MaxLength > 0 {
		parts = append(parts, fmt.Sprintf("at most %d characters", field.MaxLength))
	}
	return strings.Join(parts, ". ")
}

func formatFieldTable(cat *catalog.Catalog, fieldIDs []string) string {
	var buf strings.Builder
	buf.WriteString("# Requested fields:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Field", "Label", "Kind", "Required", "Guidance")
	for _, id := range fieldIDs {
		field, ok := cat.Field(id)
		if !ok {
			continue
		}
		required := "no"
		if field.Required {
			required = "yes"
		}
		guidance := field.Help
		if field.Example != "" {
			guidance = strings.TrimSpace(guidance + " Example: " + field.Example)
		}
		_ = table.Append(field.ID, field.DisplayName(), string(field.Kind), required, guidance)
	}
	_ = table.Render()
	return buf.String()
}

// FormatRequest renders the non-conversational context of req as a single
// prompt section.
func FormatRequest(cat *catalog.Catalog, req Request, now time.Time) (string, error) {
	sections := []string{
		fmt.Sprintf("# Current Date:\n%s", now.Format(normalize.DateLayout)),
		formatFieldTable(cat, req.FieldIDs),
	}
	if len(req.Seed) > 0 {
		seed, err := sonic.ConfigStd.MarshalToString(req.Seed)
		if err != nil {
			return "", err
		}
		sections = append(sections, fmt.Sprintf("# Known values JSON:\n```json\n%s\n```", seed))
	}
	if len(req.Attachments) > 0 {
		var sb strings.Builder
		sb.WriteString("# Attachments:")
		for _, a := range req.Attachments {
			fmt.Fprintf(&sb, "\n## %s (%s)\n%s", a.Name, a.MimeType, a.Text)
		}
		sections = append(sections, sb.String())
	}
	if len(req.Transcript) > 0 {
		var sb strings.Builder
		sb.WriteString("# Voice transcript:")
		for _, ev := range req.Transcript {
			fmt.Fprintf(&sb, "\n[%s] %s", ev.At.Format(time.TimeOnly), ev.Text)
		}
		sections = append(sections, sb.String())
	}
	return strings.Join(sections, "\n\n"), nil
}
