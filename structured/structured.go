// Package structured forces a chat model to answer through a single tool call
// and decodes the call arguments into a Go value.
package structured

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"github.com/rotisserie/eris"
)

var (
	ErrBuildPrompt      = errors.New("build prompt failed")
	ErrBuildTool        = errors.New("build tool failed")
	ErrModelCall        = errors.New("call model failed")
	ErrMissingToolCall  = errors.New("no tool call in model response")
	ErrInvalidArguments = errors.New("invalid tool call arguments")
)

// Error classifies a chain failure. Kind is one of the Err* sentinels and Err
// the underlying cause, if any; both match errors.Is.
type Error struct {
	Kind    error
	Content string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	case e.Content != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Content)
	default:
		return e.Kind.Error()
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

// ToolBuilder returns the tool schema for one invocation.
type ToolBuilder[TInput any] func(ctx context.Context, input TInput) (*schema.ToolInfo, error)

type Chain[TInput, TOutput any] struct {
	PromptBuilder PromptBuilder[TInput]
	ToolBuilder   ToolBuilder[TInput]
	ChatModel     model.ToolCallingChatModel
}

// NewChain derives a fixed tool schema from TOutput.
func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolName string,
	toolDesc string,
) (*Chain[TInput, TOutput], error) {
	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, eris.Wrap(err, "structured: convert tool info")
	}
	return NewDynamicChain[TInput, TOutput](chatModel, promptBuilder, StaticTool[TInput](toolInfo)), nil
}

// NewDynamicChain builds the tool schema per call, for payloads whose shape
// depends on the input.
func NewDynamicChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolBuilder ToolBuilder[TInput],
) *Chain[TInput, TOutput] {
	return &Chain[TInput, TOutput]{
		PromptBuilder: promptBuilder,
		ToolBuilder:   toolBuilder,
		ChatModel:     chatModel,
	}
}

func StaticTool[TInput any](info *schema.ToolInfo) ToolBuilder[TInput] {
	return func(context.Context, TInput) (*schema.ToolInfo, error) {
		return info, nil
	}
}

func (s *Chain[TInput, TOutput]) prepare(ctx context.Context, input TInput) ([]*schema.Message, *schema.ToolInfo, error) {
	if s.ChatModel == nil {
		return nil, nil, &Error{Kind: ErrModelCall, Content: "chat model is not configured"}
	}
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return nil, nil, &Error{Kind: ErrBuildPrompt, Err: err}
	}
	toolInfo, err := s.ToolBuilder(ctx, input)
	if err != nil {
		return nil, nil, &Error{Kind: ErrBuildTool, Err: err}
	}
	if toolInfo == nil {
		return nil, nil, &Error{Kind: ErrBuildTool, Content: "nil tool info"}
	}
	return messages, toolInfo, nil
}

func (s *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	messages, toolInfo, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	response, err := s.ChatModel.Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{toolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, toolInfo.Name),
	)
	if err != nil {
		return nil, &Error{Kind: ErrModelCall, Err: err}
	}
	return decodeToolCall[TOutput](response, toolInfo.Name)
}

func (s *Chain[TInput, TOutput]) Stream(ctx context.Context, input TInput) (*schema.StreamReader[*TOutput], error) {
	messages, toolInfo, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	streamReader, err := s.ChatModel.Stream(ctx, messages,
		model.WithTools([]*schema.ToolInfo{toolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, toolInfo.Name),
	)
	if err != nil {
		return nil, &Error{Kind: ErrModelCall, Err: err}
	}
	return schema.StreamReaderWithConvert(streamReader, func(msg *schema.Message) (*TOutput, error) {
		return decodeToolCall[TOutput](msg, toolInfo.Name)
	}), nil
}

// decodeToolCall prefers a call to the named tool and otherwise takes the
// first one.
func decodeToolCall[TOutput any](msg *schema.Message, name string) (*TOutput, error) {
	if msg == nil || len(msg.ToolCalls) == 0 {
		content := ""
		if msg != nil {
			content = msg.Content
		}
		return nil, &Error{Kind: ErrMissingToolCall, Content: content}
	}
	call := msg.ToolCalls[0]
	for _, c := range msg.ToolCalls {
		if c.Function.Name == name {
			call = c
			break
		}
	}
	var result TOutput
	if err := sonic.UnmarshalString(call.Function.Arguments, &result); err != nil {
		return nil, &Error{Kind: ErrInvalidArguments, Content: call.Function.Arguments, Err: err}
	}
	return &result, nil
}
