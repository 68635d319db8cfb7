// Package dialogue phrases the question asked for the active field.
package dialogue

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/charterflow/types"
)

type Request struct {
	Field types.Field
	// Current is the last confirmed value, shown back when a field is
	// revisited.
	Current  types.Value
	Position int
	Total    int
	// Recent holds the last few conversation messages for tone.
	Recent []*schema.Message
}

type Generator interface {
	GenerateDialogue(ctx context.Context, req *Request) (string, error)
	GenerateDialogueStream(ctx context.Context, req *Request) (*schema.StreamReader[string], error)
}
