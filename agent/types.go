package agent

import (
	"github.com/tbxark/charterflow/extraction"
	"github.com/tbxark/charterflow/guided"
)

type MessageKind string

const (
	KindPrompt   MessageKind = "prompt"
	KindSaved    MessageKind = "saved"
	KindProposal MessageKind = "proposal"
	KindWarning  MessageKind = "warning"
	KindError    MessageKind = "error"
	KindReview   MessageKind = "review"
	KindInfo     MessageKind = "info"
	KindComplete MessageKind = "complete"
)

type AssistantMessage struct {
	Kind    MessageKind `json:"kind"`
	Text    string      `json:"text"`
	FieldID string      `json:"field_id,omitempty"`
}

// TurnResult is everything one call produced. Discarded is set when an
// extraction finished after the session had moved on and its result was
// dropped.
type TurnResult struct {
	ConversationID    string             `json:"conversation_id"`
	AssistantMessages []AssistantMessage `json:"assistant_messages"`
	State             guided.State       `json:"state"`
	Idempotent        bool               `json:"idempotent"`
	Completed         bool               `json:"completed"`
	Discarded         bool               `json:"discarded,omitempty"`
}

func (r *TurnResult) Clone() *TurnResult {
	if r == nil {
		return nil
	}
	out := *r
	out.AssistantMessages = append([]AssistantMessage{}, r.AssistantMessages...)
	out.State = r.State.Clone()
	return &out
}

type StartOptions struct {
	ConversationID string
	// Draft is a previously saved partial document keyed by field id. It is
	// offered to extraction as context and never confirmed automatically.
	Draft         map[string]any
	CorrelationID string
}

type UserMessage struct {
	ConversationID string
	Text           string
	CorrelationID  string
	Attachments    []extraction.Attachment
	Transcript     []extraction.TranscriptEvent
}
