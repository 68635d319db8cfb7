// Package agent runs guided sessions: it maps user input onto the guided
// state machine, calls extraction and reports assistant messages.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/tbxark/charterflow/catalog"
	"github.com/tbxark/charterflow/command"
	"github.com/tbxark/charterflow/dialogue"
	"github.com/tbxark/charterflow/extraction"
	"github.com/tbxark/charterflow/guided"
	"github.com/tbxark/charterflow/types"
)

const (
	DefaultIdempotencyTTL = 60 * time.Second
	DefaultHistoryWindow  = 40
)

type Orchestrator struct {
	catalog  *catalog.Catalog
	client   extraction.Client
	store    SessionStore
	parser   command.Parser
	dialogue dialogue.Generator
	trimmer  Trimmer
	results  Cache[*TurnResult]
	flight   singleflight.Group
	now      func() time.Time
	logger   *zap.Logger
}

type options struct {
	store          SessionStore
	parser         command.Parser
	dialogue       dialogue.Generator
	historyWindow  int
	idempotencyTTL time.Duration
	now            func() time.Time
	logger         *zap.Logger
}

type Option func(*options)

func WithSessionStore(store SessionStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithCommandParser replaces the fixed-vocabulary parser.
func WithCommandParser(parser command.Parser) Option {
	return func(o *options) {
		o.parser = parser
	}
}

func WithDialogueGenerator(g dialogue.Generator) Option {
	return func(o *options) {
		o.dialogue = g
	}
}

func WithHistoryWindow(n int) Option {
	return func(o *options) {
		o.historyWindow = n
	}
}

func WithIdempotencyTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.idempotencyTTL = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func NewOrchestrator(cat *catalog.Catalog, client extraction.Client, opts ...Option) (*Orchestrator, error) {
	if cat == nil {
		return nil, eris.New("agent: catalog is required")
	}
	if client == nil {
		return nil, eris.New("agent: extraction client is required")
	}
	options := options{
		historyWindow:  DefaultHistoryWindow,
		idempotencyTTL: DefaultIdempotencyTTL,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.store == nil {
		options.store = NewMemorySessionStore()
	}
	if options.parser == nil {
		options.parser = command.NewLocalCommandParser()
	}
	if options.dialogue == nil {
		options.dialogue = &dialogue.LocalDialogueGenerator{}
	}
	if options.logger == nil {
		options.logger = zap.L()
	}
	return &Orchestrator{
		catalog:  cat,
		client:   client,
		store:    options.store,
		parser:   options.parser,
		dialogue: options.dialogue,
		trimmer:  KeepSystemLastNTrimmer{N: options.historyWindow},
		results:  NewMemoryCache[*TurnResult](options.idempotencyTTL, options.now),
		now:      options.now,
		logger:   options.logger.Named("agent"),
	}, nil
}

func (o *Orchestrator) Catalog() *catalog.Catalog { return o.catalog }

func (o *Orchestrator) load(ctx context.Context, id string) (*Session, error) {
	s, ok, err := o.store.Load(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "agent: load session %s", id)
	}
	if !ok {
		return nil, eris.Wrapf(ErrSessionNotFound, "agent: conversation %s", id)
	}
	return s, nil
}

// idempotent runs fn at most once per (conversation, correlation) key within
// the cache ttl. Replays and concurrent duplicates get a copy flagged
// Idempotent. Failed calls are not cached.
func (o *Orchestrator) idempotent(ctx context.Context, conversationID, correlationID string, fn func() (*TurnResult, error)) (*TurnResult, error) {
	if correlationID == "" {
		return fn()
	}
	key := conversationID + "\x00" + correlationID
	if cached, ok, _ := o.results.Get(ctx, key); ok {
		o.logger.Debug("idempotent replay",
			zap.String("conversation_id", conversationID),
			zap.String("correlation_id", correlationID))
		return replay(cached), nil
	}
	executed := false
	v, err, _ := o.flight.Do(key, func() (any, error) {
		executed = true
		res, err := fn()
		if err != nil {
			return nil, err
		}
		_ = o.results.Set(ctx, key, res.Clone())
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	res := v.(*TurnResult)
	if !executed {
		return replay(res), nil
	}
	return res, nil
}

func replay(res *TurnResult) *TurnResult {
	out := res.Clone()
	out.Idempotent = true
	return out
}

// StartSession creates a session, replacing any live one under the same id,
// and asks the first field. Without a conversation id the correlation id alone
// keys the call, so a retried start replays the session it created.
func (o *Orchestrator) StartSession(ctx context.Context, opts StartOptions) (*TurnResult, error) {
	return o.idempotent(ctx, opts.ConversationID, opts.CorrelationID, func() (*TurnResult, error) {
		id := opts.ConversationID
		if id == "" {
			id = uuid.NewString()
		}
		return o.start(ctx, id, opts.Draft)
	})
}

func (o *Orchestrator) start(ctx context.Context, id string, draft map[string]any) (*TurnResult, error) {
	now := o.now()
	s := newSession(id, o.catalog.Order(), draft, now)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := o.store.Save(ctx, s); err != nil {
		return nil, eris.Wrapf(err, "agent: save session %s", id)
	}
	t := &turn{session: s}
	s.dispatch(guided.Start{At: now}, now)
	o.logger.Info("session started", zap.String("conversation_id", id), zap.Int("fields", len(s.state.Order)))
	o.next(ctx, t)
	return o.finish(t), nil
}

// ResetSession starts the conversation over, keeping its draft. Extractions
// still running for the old session are discarded.
func (o *Orchestrator) ResetSession(ctx context.Context, id string) (*TurnResult, error) {
	s, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	draft := s.draft
	s.mu.Unlock()
	return o.start(ctx, id, draft)
}

func (o *Orchestrator) DeleteSession(ctx context.Context, id string) error {
	ok, err := o.store.Delete(ctx, id)
	if err != nil {
		return eris.Wrapf(err, "agent: delete session %s", id)
	}
	if !ok {
		return eris.Wrapf(ErrSessionNotFound, "agent: conversation %s", id)
	}
	o.logger.Info("session deleted", zap.String("conversation_id", id))
	return nil
}

func (o *Orchestrator) GetState(ctx context.Context, id string) (guided.State, error) {
	s, err := o.load(ctx, id)
	if err != nil {
		return guided.State{}, err
	}
	return s.State(), nil
}

// PromptCurrentField repeats the question for the active field without
// changing state.
func (o *Orchestrator) PromptCurrentField(ctx context.Context, id string) (*TurnResult, error) {
	s, err := o.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &turn{session: s}
	switch {
	case s.state.Complete():
		t.say(KindInfo, completeReminder, "")
	case s.state.ActiveFieldID == "":
		t.say(KindInfo, "The session has not started yet.", "")
	default:
		o.prompt(ctx, t)
	}
	return o.finish(t), nil
}

// HandleCommand applies an already recognized command.
func (o *Orchestrator) HandleCommand(ctx context.Context, id string, cmd command.Command, correlationID string) (*TurnResult, error) {
	if cmd.IsNone() {
		return nil, eris.New("agent: empty command")
	}
	return o.idempotent(ctx, id, correlationID, func() (*TurnResult, error) {
		s, err := o.load(ctx, id)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		t := &turn{session: s}
		o.applyCommand(ctx, t, cmd)
		return o.finish(t), nil
	})
}

// HandleUserMessage runs one user turn. An unknown conversation id starts a
// new session and asks its first field.
func (o *Orchestrator) HandleUserMessage(ctx context.Context, in UserMessage) (res *TurnResult, err error) {
	ctx = callbacks.EnsureRunInfo(ctx, "Orchestrator", "Agent")
	ctx = callbacks.OnStart(ctx, map[string]any{
		"conversation_id": in.ConversationID,
		"input":           in.Text,
	})
	defer func() {
		if r := recover(); r != nil {
			callbacks.OnError(ctx, fmt.Errorf("panic in Orchestrator.HandleUserMessage: %v", r))
			panic(r)
		}
	}()
	res, err = o.idempotent(ctx, in.ConversationID, in.CorrelationID, func() (*TurnResult, error) {
		return o.handleUserMessage(ctx, in)
	})
	if err != nil {
		callbacks.OnError(ctx, err)
		return nil, err
	}
	callbacks.OnEnd(ctx, map[string]any{
		"messages":  len(res.AssistantMessages),
		"status":    string(res.State.Status),
		"completed": res.Completed,
	})
	return res, nil
}

func (o *Orchestrator) finish(t *turn) *TurnResult {
	res := t.result()
	t.session.history = o.trimmer.Trim(t.session.history)
	return res
}

func (o *Orchestrator) label(id string) string {
	return o.catalog.Label(id)
}

func (o *Orchestrator) handleUserMessage(ctx context.Context, in UserMessage) (*TurnResult, error) {
	if in.ConversationID == "" {
		return nil, eris.New("agent: conversation id is required")
	}
	s, ok, err := o.store.Load(ctx, in.ConversationID)
	if err != nil {
		return nil, eris.Wrapf(err, "agent: load session %s", in.ConversationID)
	}
	if !ok {
		return o.start(ctx, in.ConversationID, nil)
	}

	s.mu.Lock()
	locked := true
	defer func() {
		if locked {
			s.mu.Unlock()
		}
	}()
	t := &turn{session: s}
	text := strings.TrimSpace(in.Text)
	s.history = appendHistory(s.history, schema.UserMessage(text))

	cmd, err := o.parser.ParseCommand(ctx, text)
	if err != nil {
		o.logger.Warn("command parser failed", zap.String("conversation_id", s.ID), zap.Error(err))
		cmd = command.Recognize(text)
	}
	if !cmd.IsNone() {
		o.applyCommand(ctx, t, cmd)
		return o.finish(t), nil
	}

	now := o.now()
	switch {
	case s.state.Status == guided.StatusIdle:
		s.dispatch(guided.Start{At: now}, now)
		o.next(ctx, t)
		return o.finish(t), nil
	case s.state.Complete():
		if !s.completionAnnounced {
			o.announceCompletion(t)
		} else {
			t.say(KindInfo, completeReminder, "")
		}
		return o.finish(t), nil
	case text == "":
		t.say(KindInfo, "I didn't catch an answer.", s.state.ActiveFieldID)
		o.prompt(ctx, t)
		return o.finish(t), nil
	}

	if p := s.state.Pending; p != nil && p.AwaitingConfirmation {
		switch command.ClassifyReply(text) {
		case command.ReplyAffirmative:
			fieldID := p.FieldID
			value := p.Value
			s.dispatch(guided.ConfirmPending{At: now}, now)
			t.say(KindSaved, saved(o.label(fieldID), value.String()), fieldID)
			o.next(ctx, t)
			return o.finish(t), nil
		case command.ReplyNegative:
			s.dispatch(guided.RejectPending{At: now}, now)
			t.say(KindInfo, "No problem, let's try that again.", p.FieldID)
			o.prompt(ctx, t)
			return o.finish(t), nil
		default:
			// Neither yes nor no: drop the proposal and treat the reply as a
			// new answer for the same field.
			s.dispatch(guided.RejectPending{At: now}, now)
		}
	}

	fieldID := s.state.ActiveFieldID
	s.dispatch(guided.Capture{FieldID: fieldID, Value: types.Text(text), At: now}, now)
	revision := s.state.Revision
	req, err := o.extractionRequest(s, fieldID, in)
	if err != nil {
		return nil, err
	}
	s.mu.Unlock()
	locked = false

	log := o.logger.With(
		zap.String("conversation_id", s.ID),
		zap.String("field_id", fieldID),
		zap.Uint64("revision", revision))
	log.Debug("extracting")
	resp, extractErr := o.client.Extract(ctx, req)

	s.mu.Lock()
	locked = true
	if o.stale(ctx, s, fieldID, revision) {
		log.Info("discarding stale extraction", zap.Uint64("current_revision", s.state.Revision))
		res := o.finish(t)
		res.Discarded = true
		return res, nil
	}
	if extractErr != nil {
		o.rejectExtraction(t, fieldID, extractErr, log)
		return o.finish(t), nil
	}
	o.applyExtraction(ctx, t, fieldID, resp)
	return o.finish(t), nil
}

// stale reports whether the session moved on while extraction was running.
// Any applied event bumps the revision, so a matching revision means the
// field and its captured value are untouched.
func (o *Orchestrator) stale(ctx context.Context, s *Session, fieldID string, revision uint64) bool {
	if s.state.Revision != revision || s.state.ActiveFieldID != fieldID {
		return true
	}
	current, ok, err := o.store.Load(ctx, s.ID)
	return err != nil || !ok || current != s
}

func (o *Orchestrator) extractionRequest(s *Session, fieldID string, in UserMessage) (extraction.Request, error) {
	seed, err := mergeSeed(s.draft, s.state)
	if err != nil {
		return extraction.Request{}, err
	}
	return extraction.Request{
		Messages:    append([]*schema.Message{}, o.trimmer.Trim(s.history)...),
		Attachments: in.Attachments,
		Transcript:  in.Transcript,
		Seed:        seed,
		FieldIDs:    []string{fieldID},
	}, nil
}

func (o *Orchestrator) rejectExtraction(t *turn, fieldID string, err error, log *zap.Logger) {
	s := t.session
	ee := extraction.AsError(err)
	var issues []string
	for _, is := range ee.Issues {
		if is.FieldID == fieldID {
			issues = append(issues, is.Message)
		}
	}
	if len(issues) == 0 {
		issues = []string{ee.Message}
	}
	log.Warn("extraction failed", zap.String("code", string(ee.Code)), zap.Error(err))
	now := o.now()
	s.dispatch(guided.Reject{FieldID: fieldID, Issues: issues, At: now}, now)
	t.say(KindError, strings.Join(issues, " ")+` Please try again, or say "skip" to leave it blank.`, fieldID)
}

func (o *Orchestrator) applyExtraction(ctx context.Context, t *turn, fieldID string, resp *extraction.Response) {
	s := t.session
	now := o.now()
	value, ok := resp.Values[fieldID]
	if !ok || value.IsEmpty() {
		msg := fmt.Sprintf("I couldn't find a value for %s in that.", o.label(fieldID))
		s.dispatch(guided.Reject{FieldID: fieldID, Issues: []string{msg}, At: now}, now)
		t.say(KindError, msg+` Please try again, or say "skip" to leave it blank.`, fieldID)
		return
	}
	var warnings []string
	for _, w := range resp.Warnings {
		if w.FieldID == fieldID {
			warnings = append(warnings, w.Message)
		}
	}
	label := o.label(fieldID)
	if len(warnings) == 0 {
		s.dispatch(guided.Propose{FieldID: fieldID, Value: value, At: now}, now)
		s.dispatch(guided.Confirm{FieldID: fieldID, At: now}, now)
		t.say(KindSaved, saved(label, value.String()), fieldID)
		o.next(ctx, t)
		return
	}
	s.dispatch(guided.Propose{
		FieldID:              fieldID,
		Value:                value,
		Warnings:             warnings,
		AwaitingConfirmation: true,
		At:                   now,
	}, now)
	s.pendingTool = &toolResult{FieldID: fieldID, Raw: resp.Raw, Warnings: resp.Warnings}
	t.say(KindProposal, fmt.Sprintf("Here's what I captured for %s: %s. Is that right? (yes/no)", label, value.String()), fieldID)
	t.say(KindWarning, "Heads up: "+strings.Join(warnings, " "), fieldID)
}

func (o *Orchestrator) applyCommand(ctx context.Context, t *turn, cmd command.Command) {
	s := t.session
	now := o.now()
	if s.state.Status == guided.StatusIdle && cmd.Kind != command.Review {
		s.dispatch(guided.Start{At: now}, now)
	}
	switch cmd.Kind {
	case command.Review:
		t.say(KindReview, reviewSummary(o.catalog, s.state), "")
	case command.Skip:
		if s.state.Complete() {
			t.say(KindInfo, "There is nothing left to skip.", "")
			return
		}
		fieldID := s.state.ActiveFieldID
		f, _ := o.catalog.Field(fieldID)
		s.dispatch(guided.Skip{FieldID: fieldID, Reason: "skipped by user", At: now}, now)
		msg := fmt.Sprintf("Skipped %s.", f.DisplayName())
		if f.Required {
			msg += fmt.Sprintf(` It is required, so say "edit %s" when you are ready to fill it in.`, f.DisplayName())
		}
		t.say(KindInfo, msg, fieldID)
		o.next(ctx, t)
	case command.Back:
		before := s.state.ActiveFieldID
		s.dispatch(guided.Back{At: now}, now)
		if before != "" && before == s.state.ActiveFieldID {
			t.say(KindInfo, "This is the first field.", before)
		}
		o.prompt(ctx, t)
	case command.Edit:
		if cmd.Target == "" {
			t.say(KindError, `Which field would you like to edit? Say "edit" followed by its name.`, "")
			return
		}
		f, ok := o.catalog.Find(cmd.Target)
		if !ok {
			t.say(KindError, fmt.Sprintf("I couldn't find a field called %q.", cmd.Target), "")
			return
		}
		s.dispatch(guided.Ask{FieldID: f.ID, At: now}, now)
		o.prompt(ctx, t)
	}
}

// next prompts the active field or announces completion once.
func (o *Orchestrator) next(ctx context.Context, t *turn) {
	if t.session.state.Complete() {
		if !t.session.completionAnnounced {
			o.announceCompletion(t)
		}
		return
	}
	o.prompt(ctx, t)
}

const completeReminder = `The charter is complete. Say "review" for a summary or "edit" followed by a field name to change an answer.`

func (o *Orchestrator) announceCompletion(t *turn) {
	t.session.completionAnnounced = true
	t.say(KindComplete, "All done, the project charter is complete.\n"+reviewSummary(o.catalog, t.session.state), "")
	o.logger.Info("session complete", zap.String("conversation_id", t.session.ID))
}

func (o *Orchestrator) prompt(ctx context.Context, t *turn) {
	s := t.session
	id, fs, ok := s.state.Active()
	if !ok {
		return
	}
	field, _ := o.catalog.Field(id)
	req := &dialogue.Request{
		Field:    field,
		Current:  fs.ConfirmedValue,
		Position: indexOf(s.state.Order, id) + 1,
		Total:    len(s.state.Order),
		Recent:   lastMessages(s.history, 4),
	}
	text, err := o.dialogue.GenerateDialogue(ctx, req)
	if err != nil {
		o.logger.Warn("dialogue generation failed", zap.String("field_id", id), zap.Error(err))
		text = dialogue.FieldPrompt(req, false)
	}
	t.say(KindPrompt, text, id)
}

func saved(label, value string) string {
	return fmt.Sprintf("Saved %s: %s", label, value)
}

func indexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

func lastMessages(history []*schema.Message, n int) []*schema.Message {
	if len(history) <= n {
		return append([]*schema.Message{}, history...)
	}
	return append([]*schema.Message{}, history[len(history)-n:]...)
}
