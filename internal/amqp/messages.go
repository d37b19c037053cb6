package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Op names the ledger mutation that produced an event.
type Op string

const (
	OpCreate   Op = "create"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
	OpToggle   Op = "toggle"
	OpClear    Op = "clear"
	OpBalance  Op = "balance"
	OpCurrency Op = "currency"
)

func (o Op) Valid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete, OpToggle, OpClear, OpBalance, OpCurrency:
		return true
	}
	return false
}

// LedgerChangedMessage tells consumers the ledger moved to a new revision.
// It carries no movement data; consumers reload the ledger themselves.
type LedgerChangedMessage struct {
	EventID    string    `json:"event_id"`
	Op         Op        `json:"op"`
	MovementID int64     `json:"movement_id,omitempty"`
	Revision   uint64    `json:"revision"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(op Op, movementID int64, revision uint64) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		EventID:    uuid.NewString(),
		Op:         op,
		MovementID: movementID,
		Revision:   revision,
		Timestamp:  time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes and checks a message body.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(msg.EventID); err != nil {
		return nil, fmt.Errorf("invalid event id %q: %w", msg.EventID, err)
	}
	if !msg.Op.Valid() {
		return nil, fmt.Errorf("unknown op %q", msg.Op)
	}
	return &msg, nil
}
