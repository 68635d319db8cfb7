package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rotisserie/eris"

	"github.com/tbxark/charterflow/types"
)

// LocalDialogueGenerator renders a fixed template and never fails for a
// request with a field.
type LocalDialogueGenerator struct {
	ShowProgress bool
}

func (g *LocalDialogueGenerator) GenerateDialogue(_ context.Context, req *Request) (string, error) {
	if req == nil || req.Field.ID == "" {
		return "", eris.New("dialogue: no field to ask about")
	}
	return FieldPrompt(req, g.ShowProgress), nil
}

func (g *LocalDialogueGenerator) GenerateDialogueStream(ctx context.Context, req *Request) (*schema.StreamReader[string], error) {
	message, err := g.GenerateDialogue(ctx, req)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]string{message}), nil
}

// FieldPrompt is the deterministic question for req.Field.
func FieldPrompt(req *Request, progress bool) string {
	f := req.Field
	head := f.DisplayName()
	if !f.Required {
		head += " (optional)"
	}
	if progress && req.Total > 0 {
		head = fmt.Sprintf("[%d/%d] %s", req.Position, req.Total, head)
	}
	lines := []string{head}
	if f.Help != "" {
		lines = append(lines, f.Help)
	}
	switch f.Kind {
	case types.KindDate:
		lines = append(lines, "Please use the format YYYY-MM-DD.")
	case types.KindStringList:
		lines = append(lines, "List one item per line.")
	case types.KindObjectList:
		names := make([]string, len(f.Children))
		for i, c := range f.Children {
			names[i] = c.DisplayName()
		}
		lines = append(lines, fmt.Sprintf("List one entry per line as %s.", strings.Join(names, " | ")))
	}
	if f.Example != "" {
		lines = append(lines, "Example: "+f.Example)
	}
	if !req.Current.IsEmpty() {
		lines = append(lines, "Current answer: "+req.Current.String())
	}
	return strings.Join(lines, "\n")
}

type FailbackDialogueGenerator struct {
	generators []Generator
}

func NewFailbackDialogueGenerator(generators ...Generator) *FailbackDialogueGenerator {
	return &FailbackDialogueGenerator{generators: generators}
}

func (g *FailbackDialogueGenerator) GenerateDialogue(ctx context.Context, req *Request) (string, error) {
	var lastErr error
	for _, generator := range g.generators {
		text, err := generator.GenerateDialogue(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", eris.Wrap(lastErr, "dialogue: all generators failed")
}

func (g *FailbackDialogueGenerator) GenerateDialogueStream(ctx context.Context, req *Request) (*schema.StreamReader[string], error) {
	var lastErr error
	for _, generator := range g.generators {
		stream, err := generator.GenerateDialogueStream(ctx, req)
		if err == nil {
			return stream, nil
		}
		lastErr = err
	}
	return nil, eris.Wrap(lastErr, "dialogue: all generators failed")
}
