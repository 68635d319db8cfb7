package guided

import (
	"time"

	"github.com/tbxark/charterflow/types"
)

type EventType string

const (
	EventStart          EventType = "START"
	EventAsk            EventType = "ASK"
	EventCapture        EventType = "CAPTURE"
	EventValidate       EventType = "VALIDATE"
	EventConfirm        EventType = "CONFIRM"
	EventReject         EventType = "REJECT"
	EventSkip           EventType = "SKIP"
	EventBack           EventType = "BACK"
	EventPropose        EventType = "PROPOSE"
	EventConfirmPending EventType = "CONFIRM_PENDING"
	EventRejectPending  EventType = "REJECT_PENDING"
	EventComplete       EventType = "COMPLETE"
)

// Event is the closed set of inputs accepted by Reduce.
type Event interface {
	Type() EventType
	at() time.Time
}

type Start struct {
	At time.Time
}

// Ask re-enters asking on FieldID, or on the active (then first) field when
// FieldID is empty.
type Ask struct {
	FieldID string
	At      time.Time
}

type Capture struct {
	FieldID string
	Value   types.Value
	At      time.Time
}

type Validate struct {
	FieldID         string
	Valid           bool
	Issues          []string
	Value           types.Value
	NormalizedValue types.Value
	At              time.Time
}

type Confirm struct {
	FieldID string
	At      time.Time
}

type Reject struct {
	FieldID string
	Issues  []string
	At      time.Time
}

type Skip struct {
	FieldID string
	Reason  string
	At      time.Time
}

type Back struct {
	At time.Time
}

type Propose struct {
	FieldID              string
	Value                types.Value
	Warnings             []string
	AwaitingConfirmation bool
	At                   time.Time
}

type ConfirmPending struct {
	At time.Time
}

type RejectPending struct {
	At time.Time
}

type Complete struct {
	At time.Time
}

func (Start) Type() EventType          { return EventStart }
func (Ask) Type() EventType            { return EventAsk }
func (Capture) Type() EventType        { return EventCapture }
func (Validate) Type() EventType       { return EventValidate }
func (Confirm) Type() EventType        { return EventConfirm }
func (Reject) Type() EventType         { return EventReject }
func (Skip) Type() EventType           { return EventSkip }
func (Back) Type() EventType           { return EventBack }
func (Propose) Type() EventType        { return EventPropose }
func (ConfirmPending) Type() EventType { return EventConfirmPending }
func (RejectPending) Type() EventType  { return EventRejectPending }
func (Complete) Type() EventType       { return EventComplete }

func (e Start) at() time.Time          { return e.At }
func (e Ask) at() time.Time            { return e.At }
func (e Capture) at() time.Time        { return e.At }
func (e Validate) at() time.Time       { return e.At }
func (e Confirm) at() time.Time        { return e.At }
func (e Reject) at() time.Time         { return e.At }
func (e Skip) at() time.Time           { return e.At }
func (e Back) at() time.Time           { return e.At }
func (e Propose) at() time.Time        { return e.At }
func (e ConfirmPending) at() time.Time { return e.At }
func (e RejectPending) at() time.Time  { return e.At }
func (e Complete) at() time.Time       { return e.At }
