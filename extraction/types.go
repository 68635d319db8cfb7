// Package extraction turns a conversation into normalized values for the
// fields requested in a turn.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/charterflow/types"
)

type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Text     string `json:"text"`
}

// TranscriptEvent is one recognized span of a voice transcript.
type TranscriptEvent struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type Request struct {
	Messages    []*schema.Message `json:"messages"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	Transcript  []TranscriptEvent `json:"transcript,omitempty"`
	// Seed holds values already known for the document, keyed by field id.
	Seed     map[string]any `json:"seed,omitempty"`
	FieldIDs []string       `json:"field_ids"`
}

// Response carries the model payload as returned and the normalized values
// for every requested field that produced one.
type Response struct {
	Raw      map[string]any         `json:"raw"`
	Values   map[string]types.Value `json:"values"`
	Warnings []types.Issue          `json:"warnings,omitempty"`
}

// Client extracts values for Request.FieldIDs. Failures are returned as
// *Error.
type Client interface {
	Extract(ctx context.Context, req Request) (*Response, error)
}

type ClientFunc func(ctx context.Context, req Request) (*Response, error)

func (f ClientFunc) Extract(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

type Code string

const (
	CodeConfiguration      Code = "configuration"
	CodeNoFieldsRequested  Code = "no_fields_requested"
	CodeMissingToolCall    Code = "missing_tool_call"
	CodeInvalidToolPayload Code = "invalid_tool_payload"
	CodeOpenAIError        Code = "openai_error"
	CodeMissingRequired    Code = "missing_required"
	CodeValidationFailed   Code = "validation_failed"
)

// Error is the typed extraction failure. Message is safe to show to a user;
// FieldIDs lists offending fields for validation failures.
type Error struct {
	Code     Code
	Message  string
	FieldIDs []string
	Issues   []types.Issue
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("extraction: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another client might succeed where this one
// failed.
func (e *Error) Retryable() bool {
	return e.Code == CodeOpenAIError || e.Code == CodeConfiguration
}

// AsError extracts the typed failure from err. Untyped errors are reported as
// transport failures.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}
	return &Error{Code: CodeOpenAIError, Message: "The extraction service failed.", Err: err}
}
