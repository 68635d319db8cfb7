package guided

import (
	"time"

	"github.com/tbxark/charterflow/types"
)

// Reduce applies ev to s and returns the resulting state. Events that do not
// apply (unknown field, nothing pending, ...) return s unchanged, including
// its Revision.
func Reduce(s State, ev Event) State {
	if ev == nil {
		return s
	}
	n := s.Clone()
	var applied bool
	switch e := ev.(type) {
	case Start:
		n, applied = reduceStart(s, e.At)
	case Ask:
		applied = n.ask(e)
	case Capture:
		applied = n.capture(e)
	case Validate:
		applied = n.validate(e)
	case Confirm:
		applied = n.confirm(e)
	case Reject:
		applied = n.reject(e)
	case Skip:
		applied = n.skip(e)
	case Back:
		applied = n.back(e.At)
	case Propose:
		applied = n.propose(e)
	case ConfirmPending:
		applied = n.confirmPending(e.At)
	case RejectPending:
		applied = n.rejectPending(e.At)
	case Complete:
		if n.Status == StatusComplete {
			return s
		}
		n.dropPending(e.At)
		n.complete()
		applied = true
	}
	if !applied {
		return s
	}
	n.Revision = s.Revision + 1
	return n
}

// reduceStart fully re-initializes the session, even from complete.
func reduceStart(s State, at time.Time) (State, bool) {
	n := New(s.Order)
	if len(n.Order) == 0 {
		n.complete()
		return n, true
	}
	n.activate(n.Order[0], at)
	return n, true
}

func (n *State) resolve(id string) (string, bool) {
	if id == "" {
		id = n.ActiveFieldID
	}
	if id == "" || !n.has(id) {
		return "", false
	}
	return id, true
}

// activate makes id the single asking field. A previously active field that
// was still asking falls back to pending, and an unanswered proposal is dropped.
func (n *State) activate(id string, at time.Time) {
	n.dropPending(at)
	n.leave(id)
	f := n.Fields[id]
	f.Status = FieldAsking
	f.Issues = nil
	f.SkipReason = ""
	f.LastAskedAt = at
	n.Fields[id] = f
	n.ActiveFieldID = id
	n.Status = StatusAsking
	n.Waiting = Waiting{User: true}
}

// dropPending abandons a proposal nobody answered. Its field goes back to the
// last confirmed value, or to pending when there is none.
func (n *State) dropPending(at time.Time) {
	p := n.Pending
	n.Pending = nil
	if p == nil || !n.has(p.FieldID) {
		return
	}
	f := n.Fields[p.FieldID]
	if f.Status != FieldCaptured {
		return
	}
	f.Value = f.ConfirmedValue.Clone()
	f.Issues = nil
	f.UpdatedAt = at
	f.Status = FieldPending
	if !f.ConfirmedValue.IsZero() {
		f.Status = FieldConfirmed
	}
	n.Fields[p.FieldID] = f
}

// focus moves the active pointer to id without changing its status.
func (n *State) focus(id string) {
	n.leave(id)
	n.ActiveFieldID = id
}

func (n *State) leave(next string) {
	prev := n.ActiveFieldID
	if prev == "" || prev == next {
		return
	}
	if f, ok := n.Fields[prev]; ok && f.Status == FieldAsking {
		f.Status = FieldPending
		n.Fields[prev] = f
	}
}

// advanceFrom activates the next field after id that is neither confirmed nor
// skipped, wrapping to the start of the order. With none left the session
// completes. Nothing moves when id is not the active field.
func (n *State) advanceFrom(id string, at time.Time) {
	if n.ActiveFieldID != "" && n.ActiveFieldID != id {
		return
	}
	idx := n.indexOf(id)
	count := len(n.Order)
	for step := 1; step < count; step++ {
		next := n.Order[(idx+step)%count]
		if !n.Fields[next].Status.Terminal() {
			n.activate(next, at)
			return
		}
	}
	if !n.Fields[id].Status.Terminal() {
		n.activate(id, at)
		return
	}
	n.complete()
}

func (n *State) complete() {
	n.leave("")
	n.ActiveFieldID = ""
	n.Status = StatusComplete
	n.Waiting = Waiting{}
	n.Pending = nil
}

func (n *State) ask(e Ask) bool {
	if len(n.Order) == 0 {
		return false
	}
	id := e.FieldID
	if id == "" {
		id = n.ActiveFieldID
	}
	if id == "" {
		id = n.Order[0]
	}
	if !n.has(id) {
		return false
	}
	n.activate(id, e.At)
	return true
}

func (n *State) capture(e Capture) bool {
	if !n.has(e.FieldID) {
		return false
	}
	n.focus(e.FieldID)
	f := n.Fields[e.FieldID]
	f.Status = FieldCaptured
	f.Value = e.Value.Clone()
	f.Issues = nil
	f.UpdatedAt = e.At
	n.Fields[e.FieldID] = f
	n.Status = StatusCapturing
	n.Waiting = Waiting{Validation: true}
	n.Pending = nil
	return true
}

func (n *State) validate(e Validate) bool {
	if !n.has(e.FieldID) {
		return false
	}
	n.focus(e.FieldID)
	f := n.Fields[e.FieldID]
	f.UpdatedAt = e.At
	n.Pending = nil
	if e.Valid {
		v := f.Value
		switch {
		case !e.NormalizedValue.IsZero():
			v = e.NormalizedValue
		case !e.Value.IsZero():
			v = e.Value
		}
		f.Status = FieldConfirmed
		f.Value = v.Clone()
		f.ConfirmedValue = v.Clone()
		f.Issues = nil
		n.Fields[e.FieldID] = f
		n.Status = StatusValidating
		n.Waiting = Waiting{Assistant: true}
		return true
	}
	f.Status = FieldRejected
	f.Issues = issueList(e.Issues)
	if !e.Value.IsZero() {
		f.Value = e.Value.Clone()
	}
	n.Fields[e.FieldID] = f
	n.Status = StatusAsking
	n.Waiting = Waiting{User: true}
	return true
}

func (n *State) confirm(e Confirm) bool {
	id, ok := n.resolve(e.FieldID)
	if !ok {
		return false
	}
	f := n.Fields[id]
	switch f.Status {
	case FieldCaptured:
		f.ConfirmedValue = f.Value.Clone()
		f.Status = FieldConfirmed
	case FieldConfirmed:
	default:
		return false
	}
	f.Issues = nil
	f.UpdatedAt = e.At
	n.Fields[id] = f
	if n.Pending != nil && n.Pending.FieldID == id {
		n.Pending = nil
	}
	n.advanceFrom(id, e.At)
	return true
}

func (n *State) reject(e Reject) bool {
	id, ok := n.resolve(e.FieldID)
	if !ok {
		return false
	}
	n.focus(id)
	f := n.Fields[id]
	f.Status = FieldRejected
	f.Issues = issueList(e.Issues)
	f.UpdatedAt = e.At
	n.Fields[id] = f
	n.Status = StatusAsking
	n.Waiting = Waiting{User: true}
	n.Pending = nil
	return true
}

func (n *State) skip(e Skip) bool {
	id, ok := n.resolve(e.FieldID)
	if !ok {
		return false
	}
	f := n.Fields[id]
	f.Status = FieldSkipped
	f.SkipReason = e.Reason
	f.Value = types.Value{}
	f.ConfirmedValue = types.Value{}
	f.Issues = nil
	f.UpdatedAt = e.At
	n.Fields[id] = f
	if n.Pending != nil && n.Pending.FieldID == id {
		n.Pending = nil
	}
	n.advanceFrom(id, e.At)
	return true
}

func (n *State) back(at time.Time) bool {
	if len(n.Order) == 0 {
		return false
	}
	var target string
	switch {
	case n.ActiveFieldID != "":
		idx := n.indexOf(n.ActiveFieldID)
		target = n.ActiveFieldID
		if idx > 0 {
			target = n.Order[idx-1]
		}
	case n.Status == StatusComplete:
		target = n.Order[len(n.Order)-1]
	default:
		return false
	}
	n.activate(target, at)
	return true
}

func (n *State) propose(e Propose) bool {
	if !n.has(e.FieldID) {
		return false
	}
	n.focus(e.FieldID)
	f := n.Fields[e.FieldID]
	f.Value = e.Value.Clone()
	f.UpdatedAt = e.At
	if e.AwaitingConfirmation {
		f.Status = FieldCaptured
		f.Issues = append([]string{}, e.Warnings...)
		n.Fields[e.FieldID] = f
		n.Pending = &Proposal{
			FieldID:              e.FieldID,
			Value:                e.Value.Clone(),
			Warnings:             append([]string{}, e.Warnings...),
			AwaitingConfirmation: true,
		}
		n.Status = StatusConfirming
		n.Waiting = Waiting{User: true}
		return true
	}
	f.Status = FieldConfirmed
	f.ConfirmedValue = e.Value.Clone()
	f.Issues = nil
	n.Fields[e.FieldID] = f
	n.Pending = nil
	n.Status = StatusValidating
	n.Waiting = Waiting{Assistant: true}
	return true
}

func (n *State) confirmPending(at time.Time) bool {
	p := n.Pending
	if p == nil || !p.AwaitingConfirmation || !n.has(p.FieldID) {
		return false
	}
	f := n.Fields[p.FieldID]
	f.Status = FieldConfirmed
	f.Value = p.Value.Clone()
	f.ConfirmedValue = p.Value.Clone()
	f.Issues = nil
	f.UpdatedAt = at
	n.Fields[p.FieldID] = f
	n.Pending = nil
	n.advanceFrom(p.FieldID, at)
	return true
}

func (n *State) rejectPending(at time.Time) bool {
	p := n.Pending
	if p == nil || !n.has(p.FieldID) {
		return false
	}
	f := n.Fields[p.FieldID]
	f.Value = f.ConfirmedValue.Clone()
	f.UpdatedAt = at
	n.Fields[p.FieldID] = f
	n.activate(p.FieldID, at)
	f = n.Fields[p.FieldID]
	f.Issues = []string{}
	n.Fields[p.FieldID] = f
	return true
}

func issueList(issues []string) []string {
	if issues == nil {
		return []string{}
	}
	return append([]string{}, issues...)
}
