// Package fakemodel provides a scripted tool-calling chat model for tests.
package fakemodel

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Reply produces the model answer for one Generate call.
type Reply func(ctx context.Context, input []*schema.Message, opts *model.Options) (*schema.Message, error)

type Call struct {
	Input []*schema.Message
	Tools []*schema.ToolInfo
}

// Model replays Replies in order; the last one repeats once exhausted.
type Model struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call
}

func New(replies ...Reply) *Model {
	return &Model{replies: replies}
}

// ToolCall answers with a single call to name carrying args.
func ToolCall(name, args string) Reply {
	return func(context.Context, []*schema.Message, *model.Options) (*schema.Message, error) {
		return &schema.Message{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				ID:       "call_1",
				Type:     "function",
				Function: schema.FunctionCall{Name: name, Arguments: args},
			}},
		}, nil
	}
}

// Text answers with plain content and no tool call.
func Text(content string) Reply {
	return func(context.Context, []*schema.Message, *model.Options) (*schema.Message, error) {
		return schema.AssistantMessage(content, nil), nil
	}
}

func Fail(err error) Reply {
	return func(context.Context, []*schema.Message, *model.Options) (*schema.Message, error) {
		return nil, err
	}
}

func (m *Model) next(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{}, opts...)
	m.mu.Lock()
	m.calls = append(m.calls, Call{Input: input, Tools: options.Tools})
	idx := len(m.calls) - 1
	var reply Reply
	switch {
	case len(m.replies) == 0:
		reply = Text("")
	case idx < len(m.replies):
		reply = m.replies[idx]
	default:
		reply = m.replies[len(m.replies)-1]
	}
	m.mu.Unlock()
	return reply(ctx, input, options)
}

func (m *Model) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return m.next(ctx, input, opts...)
}

func (m *Model) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.next(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *Model) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func (m *Model) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call{}, m.calls...)
}

var _ model.ToolCallingChatModel = (*Model)(nil)
