// Package guided is the pure state machine of a guided session. Reduce never
// mutates its input and never reads a clock; every event carries its own
// timestamp.
package guided

import (
	"time"

	"github.com/tbxark/charterflow/types"
)

type FieldStatus string

const (
	FieldPending   FieldStatus = "pending"
	FieldAsking    FieldStatus = "asking"
	FieldCaptured  FieldStatus = "captured"
	FieldConfirmed FieldStatus = "confirmed"
	FieldRejected  FieldStatus = "rejected"
	FieldSkipped   FieldStatus = "skipped"
)

// Terminal reports whether advancing should pass over the field.
func (s FieldStatus) Terminal() bool {
	return s == FieldConfirmed || s == FieldSkipped
}

type Status string

const (
	StatusIdle       Status = "idle"
	StatusAsking     Status = "asking"
	StatusCapturing  Status = "capturing"
	StatusValidating Status = "validating"
	StatusConfirming Status = "confirming"
	StatusComplete   Status = "complete"
)

type FieldState struct {
	Status         FieldStatus `json:"status"`
	Value          types.Value `json:"value"`
	ConfirmedValue types.Value `json:"confirmed_value"`
	Issues         []string    `json:"issues"`
	SkipReason     string      `json:"skip_reason,omitempty"`
	LastAskedAt    time.Time   `json:"last_asked_at,omitzero"`
	UpdatedAt      time.Time   `json:"updated_at,omitzero"`
}

func (f FieldState) Clone() FieldState {
	out := f
	out.Value = f.Value.Clone()
	out.ConfirmedValue = f.ConfirmedValue.Clone()
	if f.Issues != nil {
		out.Issues = append([]string{}, f.Issues...)
	}
	return out
}

// Waiting records which party owns the current turn.
type Waiting struct {
	Assistant  bool `json:"assistant"`
	User       bool `json:"user"`
	Validation bool `json:"validation"`
}

// Proposal is an extracted value waiting for the user to accept it.
type Proposal struct {
	FieldID              string      `json:"field_id"`
	Value                types.Value `json:"value"`
	Warnings             []string    `json:"warnings"`
	AwaitingConfirmation bool        `json:"awaiting_confirmation"`
}

func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	out := *p
	out.Value = p.Value.Clone()
	out.Warnings = append([]string{}, p.Warnings...)
	return &out
}

// State is an immutable snapshot of one guided session. Order is fixed at
// creation; ActiveFieldID is empty only when Status is complete or idle.
type State struct {
	Status        Status                `json:"status"`
	Order         []string              `json:"order"`
	Fields        map[string]FieldState `json:"fields"`
	ActiveFieldID string                `json:"active_field_id,omitempty"`
	Waiting       Waiting               `json:"waiting"`
	Pending       *Proposal             `json:"pending,omitempty"`
	// Revision increases by one for every applied event and serves as the
	// session generation when reconciling asynchronous results.
	Revision uint64 `json:"revision"`
}

// New returns an idle state with every field pending.
func New(order []string) State {
	s := State{
		Status: StatusIdle,
		Order:  append([]string{}, order...),
		Fields: make(map[string]FieldState, len(order)),
	}
	for _, id := range order {
		s.Fields[id] = FieldState{Status: FieldPending}
	}
	return s
}

func (s State) Clone() State {
	out := s
	out.Order = append([]string{}, s.Order...)
	out.Fields = make(map[string]FieldState, len(s.Fields))
	for id, f := range s.Fields {
		out.Fields[id] = f.Clone()
	}
	out.Pending = s.Pending.Clone()
	return out
}

func (s State) Field(id string) (FieldState, bool) {
	f, ok := s.Fields[id]
	return f, ok
}

// Active returns the active field state, if any.
func (s State) Active() (string, FieldState, bool) {
	if s.ActiveFieldID == "" {
		return "", FieldState{}, false
	}
	f, ok := s.Fields[s.ActiveFieldID]
	return s.ActiveFieldID, f, ok
}

func (s State) Complete() bool {
	return s.Status == StatusComplete
}

func (s State) indexOf(id string) int {
	for i, v := range s.Order {
		if v == id {
			return i
		}
	}
	return -1
}

func (s State) has(id string) bool {
	_, ok := s.Fields[id]
	return ok
}
