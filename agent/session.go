package agent

import (
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/charterflow/guided"
	"github.com/tbxark/charterflow/types"
)

// Session is the mutable bookkeeping around one guided state. The lock is
// held for every state change and released while extraction runs.
type Session struct {
	ID string

	mu                  sync.Mutex
	state               guided.State
	completionAnnounced bool
	pendingTool         *toolResult
	history             []*schema.Message
	draft               map[string]any
	createdAt           time.Time
	updatedAt           time.Time
}

// toolResult is the extraction payload behind the pending proposal. It lives
// only until the proposal is resolved.
type toolResult struct {
	FieldID  string
	Raw      map[string]any
	Warnings []types.Issue
}

func newSession(id string, order []string, draft map[string]any, now time.Time) *Session {
	return &Session{
		ID:        id,
		state:     guided.New(order),
		draft:     draft,
		createdAt: now,
		updatedAt: now,
	}
}

// State returns a snapshot of the guided state.
func (s *Session) State() guided.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Session) dispatch(ev guided.Event, now time.Time) {
	wasComplete := s.state.Complete()
	s.state = guided.Reduce(s.state, ev)
	s.updatedAt = now
	if wasComplete && !s.state.Complete() {
		s.completionAnnounced = false
	}
	if s.pendingTool != nil && (s.state.Pending == nil || s.state.Pending.FieldID != s.pendingTool.FieldID) {
		s.pendingTool = nil
	}
}

// turn collects the assistant messages produced by one call.
type turn struct {
	session  *Session
	messages []AssistantMessage
}

func (t *turn) say(kind MessageKind, text, fieldID string) {
	t.messages = append(t.messages, AssistantMessage{Kind: kind, Text: text, FieldID: fieldID})
}

func (t *turn) result() *TurnResult {
	s := t.session
	for _, m := range t.messages {
		s.history = appendHistory(s.history, schema.AssistantMessage(m.Text, nil))
	}
	return &TurnResult{
		ConversationID:    s.ID,
		AssistantMessages: append([]AssistantMessage{}, t.messages...),
		State:             s.state.Clone(),
		Completed:         s.state.Complete(),
	}
}
