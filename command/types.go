// Package command recognizes the small command vocabulary of a guided
// session and classifies replies to a pending confirmation.
package command

import "context"

type Kind string

const (
	None   Kind = "none"
	Skip   Kind = "skip"
	Back   Kind = "back"
	Review Kind = "review"
	Edit   Kind = "edit"
)

// Command is a recognized instruction. Target is the raw field reference of
// an edit and is resolved against the catalog by the caller.
type Command struct {
	Kind   Kind   `json:"kind"`
	Target string `json:"target,omitempty"`
}

func (c Command) IsNone() bool {
	return c.Kind == "" || c.Kind == None
}

type Parser interface {
	ParseCommand(ctx context.Context, input string) (Command, error)
}

type Reply string

const (
	ReplyOther       Reply = "other"
	ReplyAffirmative Reply = "affirmative"
	ReplyNegative    Reply = "negative"
)
