package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"daan/internal/core"
)

// EventType names a ledger change.
type EventType string

const (
	DonationSaved       EventType = "donation.saved"
	DonationDeleted     EventType = "donation.deleted"
	InstallmentRecorded EventType = "installment.recorded"
	ExpenseSaved        EventType = "expense.saved"
	ExpenseDeleted      EventType = "expense.deleted"
)

// LedgerEvent is published after a ledger change commits. It carries a
// snapshot of the affected record so consumers never read the database.
type LedgerEvent struct {
	ID          string            `json:"id"`
	Type        EventType         `json:"type"`
	Timestamp   time.Time         `json:"timestamp"`
	Donation    *core.Donation    `json:"donation,omitempty"`
	Installment *core.Installment `json:"installment,omitempty"`
	Expense     *core.Expense     `json:"expense,omitempty"`
}

func newEvent(t EventType) *LedgerEvent {
	return &LedgerEvent{ID: uuid.NewString(), Type: t, Timestamp: time.Now().UTC()}
}

func NewDonationEvent(t EventType, d core.Donation) *LedgerEvent {
	e := newEvent(t)
	e.Donation = &d
	return e
}

func NewInstallmentEvent(i core.Installment) *LedgerEvent {
	e := newEvent(InstallmentRecorded)
	e.Installment = &i
	return e
}

func NewExpenseEvent(t EventType, x core.Expense) *LedgerEvent {
	e := newEvent(t)
	e.Expense = &x
	return e
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and checks that its payload matches
// its type.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (e *LedgerEvent) validate() error {
	var ok bool
	switch e.Type {
	case DonationSaved, DonationDeleted:
		ok = e.Donation != nil
	case InstallmentRecorded:
		ok = e.Installment != nil
	case ExpenseSaved, ExpenseDeleted:
		ok = e.Expense != nil
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if !ok {
		return fmt.Errorf("event %s missing payload", e.Type)
	}
	return nil
}
