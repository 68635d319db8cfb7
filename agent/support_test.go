package agent

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/charterflow/guided"
	"github.com/tbxark/charterflow/types"
)

func TestMemoryCacheExpires(t *testing.T) {
	c := newClock()
	cache := NewMemoryCache[int](time.Minute, c.Now)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", 1))
	c.Advance(30 * time.Second)
	require.NoError(t, cache.Set(ctx, "b", 2))

	v, ok, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Advance(30 * time.Second)
	_, ok, _ = cache.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())

	require.NoError(t, cache.Del(ctx, "b"))
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryCacheWithoutTTL(t *testing.T) {
	c := newClock()
	cache := NewMemoryCache[string](0, c.Now)
	require.NoError(t, cache.Set(context.Background(), "k", "v"))
	c.Advance(24 * time.Hour)
	v, ok, _ := cache.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestKeepSystemLastNTrimmer(t *testing.T) {
	history := []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("u1"),
		schema.AssistantMessage("a1", nil),
		nil,
		schema.UserMessage("u2"),
		schema.AssistantMessage("a2", nil),
	}
	tests := []struct {
		name string
		n    int
		want []string
	}{
		{name: "keeps last two", n: 2, want: []string{"sys", "u2", "a2"}},
		{name: "window larger than history", n: 10, want: []string{"sys", "u1", "a1", "u2", "a2"}},
		{name: "zero keeps system only", n: 0, want: []string{"sys"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeepSystemLastNTrimmer{N: tt.n}.Trim(history)
			contents := make([]string, len(got))
			for i, m := range got {
				contents[i] = m.Content
			}
			assert.Equal(t, tt.want, contents)
		})
	}
}

func TestAppendHistoryDropsRepeats(t *testing.T) {
	var h []*schema.Message
	h = appendHistory(h, schema.UserMessage("hi"), schema.UserMessage("hi"), nil)
	h = appendHistory(h, schema.AssistantMessage("hi", nil), schema.UserMessage("hi"))
	require.Len(t, h, 3)
	assert.Equal(t, schema.Assistant, h[1].Role)
}

func confirmed(v types.Value) guided.FieldState {
	return guided.FieldState{Status: guided.FieldConfirmed, Value: v, ConfirmedValue: v}
}

func TestToDocumentDTO(t *testing.T) {
	state := guided.State{
		Status: guided.StatusAsking,
		Order:  []string{"a", "b", "c", "d"},
		Fields: map[string]guided.FieldState{
			"a": confirmed(types.Text("alpha")),
			"b": {Status: guided.FieldSkipped},
			"c": {Status: guided.FieldCaptured, Value: types.Text("pending")},
			"d": confirmed(types.Records(types.Record{"title": "Kickoff"})),
		},
	}
	assert.Equal(t, map[string]any{
		"a": "alpha",
		"d": []map[string]string{{"title": "Kickoff"}},
	}, ToDocumentDTO(state))
}

func TestMergeSeedConfirmedWins(t *testing.T) {
	state := guided.State{
		Order:  []string{"name", "tags"},
		Fields: map[string]guided.FieldState{"name": confirmed(types.Text("Apollo")), "tags": {Status: guided.FieldAsking}},
	}
	seed, err := mergeSeed(map[string]any{"name": "Draft", "tags": []any{"x"}}, state)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Apollo", "tags": []any{"x"}}, seed)

	seed, err = mergeSeed(nil, state)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Apollo"}, seed)
}

func TestJoinOxford(t *testing.T) {
	assert.Equal(t, "", joinOxford(nil))
	assert.Equal(t, "A", joinOxford([]string{"A"}))
	assert.Equal(t, "A and B", joinOxford([]string{"A", "B"}))
	assert.Equal(t, "A, B, and C", joinOxford([]string{"A", "B", "C"}))
}

func TestReviewOmitsInProgressWhenComplete(t *testing.T) {
	cat := testCatalog()
	state := guided.State{
		Status: guided.StatusComplete,
		Order:  cat.Order(),
		Fields: map[string]guided.FieldState{
			"name":       confirmed(types.Text("Apollo")),
			"date":       {Status: guided.FieldSkipped},
			"milestones": {Status: guided.FieldSkipped},
		},
	}
	assert.Equal(t, "Confirmed: Project name.\nSkipped: Start date and Milestones.", reviewSummary(cat, state))
}

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	s := newSession("c1", []string{"name"}, nil, time.Now())
	require.NoError(t, store.Save(ctx, s))
	got, ok, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, store.Len())

	ok, err = store.Delete(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = store.Delete(ctx, "c1")
	assert.False(t, ok)
}

func TestAgentRun(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	a := NewAgent("charter", "collects a project charter", o)
	assert.Equal(t, "charter", a.Name(context.Background()))

	ctx := WithConversationID(context.Background(), "adk")
	run := func(text string) *adk.AgentEvent {
		iter := a.Run(ctx, &adk.AgentInput{Messages: []adk.Message{schema.UserMessage(text)}})
		ev, ok := iter.Next()
		require.True(t, ok)
		_, more := iter.Next()
		assert.False(t, more)
		return ev
	}

	ev := run("hello")
	require.NoError(t, ev.Err)
	assert.Contains(t, ev.Output.MessageOutput.Message.Content, "Project name")

	ev = run("Apollo")
	require.NoError(t, ev.Err)
	assert.Contains(t, ev.Output.MessageOutput.Message.Content, "Saved Project name: Apollo\n\n")

	state, err := o.GetState(context.Background(), "adk")
	require.NoError(t, err)
	assert.Equal(t, "date", state.ActiveFieldID)
}

func TestAgentRunWithoutMessages(t *testing.T) {
	a := NewAgent("charter", "", newTestOrchestrator(t, nil))
	ev, ok := a.Run(context.Background(), &adk.AgentInput{}).Next()
	require.True(t, ok)
	assert.Error(t, ev.Err)
}
