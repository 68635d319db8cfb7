package testcases

import (
	"context"
	"os"
	"testing"

	"github.com/cloudwego/eino/components/model"

	"github.com/tbxark/charterflow"
	"github.com/tbxark/charterflow/agent"
	"github.com/tbxark/charterflow/config"
	"github.com/tbxark/charterflow/extraction"
)

type agentOptions struct {
	orchestratorOptions []agent.Option
}

type AgentOption func(*agentOptions)

func WithOrchestratorOptions(opts ...agent.Option) AgentOption {
	return func(o *agentOptions) {
		o.orchestratorOptions = append(o.orchestratorOptions, opts...)
	}
}

// InitChatModel skips the test unless live LLM tests are enabled and an API
// key is available through CHARTER_LLM_* variables.
func InitChatModel(t *testing.T) model.ToolCallingChatModel {
	t.Helper()
	if os.Getenv("CHARTER_RUN_LIVE_TESTS") != "1" {
		t.Skip("set CHARTER_RUN_LIVE_TESTS=1 to run live LLM tests")
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		t.Skipf("failed to load config: %v", err)
		return nil
	}
	if !cfg.LLM.Enabled() {
		t.Skip("CHARTER_LLM_API_KEY is empty")
		return nil
	}
	cm, err := charterflow.NewChatModel(context.Background(), cfg.LLM)
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
		return nil
	}
	return cm
}

// NewTestOrchestrator runs extraction through the model only, so a failing
// model call fails the turn instead of falling back to local heuristics.
func NewTestOrchestrator(t *testing.T, opts ...AgentOption) *agent.Orchestrator {
	t.Helper()
	chatModel := InitChatModel(t)
	o := &agentOptions{}
	for _, opt := range opts {
		opt(o)
	}
	cat := kickoffCatalog()
	client, err := extraction.NewToolClient(chatModel, cat)
	if err != nil {
		t.Fatalf("failed to create extraction client: %v", err)
	}
	orchestrator, err := agent.NewOrchestrator(cat, client, o.orchestratorOptions...)
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	return orchestrator
}

func startSession(t *testing.T, o *agent.Orchestrator, id string) *agent.TurnResult {
	t.Helper()
	res, err := o.StartSession(context.Background(), agent.StartOptions{ConversationID: id})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return res
}

func send(t *testing.T, o *agent.Orchestrator, id, text string) *agent.TurnResult {
	t.Helper()
	res, err := o.HandleUserMessage(context.Background(), agent.UserMessage{ConversationID: id, Text: text})
	if err != nil {
		t.Fatalf("handle %q: %v", text, err)
	}
	t.Logf("user: %s\nassistant: %s", text, agent.Transcript(res))
	return res
}
