package charterflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tbxark/charterflow/agent"
	"github.com/tbxark/charterflow/command"
	"github.com/tbxark/charterflow/config"
	"github.com/tbxark/charterflow/dialogue"
	"github.com/tbxark/charterflow/extraction"
	"github.com/tbxark/charterflow/internal/fakemodel"
	"github.com/tbxark/charterflow/types"
)

func offlineConfig() *config.Config {
	return &config.Config{
		LLM:     config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini"},
		Session: config.SessionConfig{IdempotencyTTLSecs: 60, HistoryWindow: 40, ShowProgress: true},
	}
}

func TestNewChatModelWithoutKey(t *testing.T) {
	cm, err := NewChatModel(context.Background(), config.LLMConfig{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Nil(t, cm)
}

func TestNewChatModelUnsupportedProvider(t *testing.T) {
	_, err := NewChatModel(context.Background(), config.LLMConfig{Provider: "carrier-pigeon", APIKey: "k"})
	assert.Error(t, err)
}

func TestOfflineOrchestrator(t *testing.T) {
	o, err := New(context.Background(), offlineConfig(), zap.NewNop())
	require.NoError(t, err)

	res, err := o.StartSession(context.Background(), agent.StartOptions{ConversationID: "c1"})
	require.NoError(t, err)
	require.Len(t, res.AssistantMessages, 1)
	assert.Contains(t, res.AssistantMessages[0].Text, "Project title")
	assert.Contains(t, res.AssistantMessages[0].Text, "[1/")

	res, err = o.HandleUserMessage(context.Background(), agent.UserMessage{ConversationID: "c1", Text: "Customer Portal Relaunch"})
	require.NoError(t, err)
	assert.Equal(t, "sponsor", res.State.ActiveFieldID)
}

func TestLoadCatalog(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, "project_title", cat.Order()[0])

	path := filepath.Join(t.TempDir(), "vendor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fields:\n  - id: vendor\n    label: Vendor\n    kind: scalar\n"), 0o644))
	cat, err = LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor"}, cat.Order())

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExtractionFailsOverToLocal(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	m := fakemodel.New(fakemodel.Fail(errors.New("upstream unavailable")))
	client, err := NewExtractionClient(cat, m, config.LLMConfig{}, zap.NewNop())
	require.NoError(t, err)

	res, err := client.Extract(context.Background(), extraction.Request{
		Messages: []*schema.Message{schema.UserMessage("Apollo")},
		FieldIDs: []string{"project_title"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.Text("Apollo"), res.Values["project_title"])
	assert.Len(t, m.Calls(), 1)
}

func TestComponentSelection(t *testing.T) {
	m := fakemodel.New(fakemodel.Text("What is the project called?"))

	assert.IsType(t, &dialogue.LocalDialogueGenerator{}, NewDialogueGenerator(nil, config.LLMConfig{RephrasePrompts: true}, false))
	assert.IsType(t, &dialogue.LocalDialogueGenerator{}, NewDialogueGenerator(m, config.LLMConfig{}, false))
	assert.IsType(t, &dialogue.FailbackDialogueGenerator{}, NewDialogueGenerator(m, config.LLMConfig{RephrasePrompts: true}, false))

	p, err := NewCommandParser(m, config.LLMConfig{})
	require.NoError(t, err)
	assert.IsType(t, &command.LocalCommandParser{}, p)
	p, err = NewCommandParser(m, config.LLMConfig{ParseCommands: true})
	require.NoError(t, err)
	assert.IsType(t, &command.FailbackCommandParser{}, p)
}
