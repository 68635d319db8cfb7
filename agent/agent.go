package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
)

var _ adk.Agent = (*Agent)(nil)

const defaultConversationID = "default"

// Agent exposes an Orchestrator as an adk.Agent. The conversation is taken
// from WithConversationID and falls back to a single shared one.
type Agent struct {
	name         string
	description  string
	orchestrator *Orchestrator
}

func NewAgent(name, description string, orchestrator *Orchestrator) *Agent {
	return &Agent{
		name:         name,
		description:  description,
		orchestrator: orchestrator,
	}
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			if e := recover(); e != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("recover from panic: %v", e),
				})
			}
			gen.Close()
		}()
		if input == nil || len(input.Messages) == 0 {
			gen.Send(&adk.AgentEvent{Err: fmt.Errorf("no messages in input")})
			return
		}
		id, ok := ConversationIDFromContext(ctx)
		if !ok {
			id = defaultConversationID
		}
		res, err := a.orchestrator.HandleUserMessage(ctx, UserMessage{
			ConversationID: id,
			Text:           input.Messages[len(input.Messages)-1].Content,
		})
		if err != nil {
			gen.Send(&adk.AgentEvent{Err: fmt.Errorf("handle user message: %w", err)})
			return
		}
		gen.Send(&adk.AgentEvent{
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					IsStreaming: false,
					Message:     schema.AssistantMessage(Transcript(res), nil),
					Role:        schema.Assistant,
				},
			},
		})
	}()
	return iter
}

// Transcript joins the assistant messages of a turn into one reply.
func Transcript(res *TurnResult) string {
	parts := make([]string, 0, len(res.AssistantMessages))
	for _, m := range res.AssistantMessages {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n\n")
}
