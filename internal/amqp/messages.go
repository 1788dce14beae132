package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseEventMessage is the wire form of an expense change event. It
// carries only identifiers; consumers fetch the full row from storage when
// they need it.
type ExpenseEventMessage struct {
	Event     string    `json:"event"`
	ExpenseID int64     `json:"expense_id"`
	AccountID int64     `json:"account_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEventMessage(event string, expenseID, accountID int64) *ExpenseEventMessage {
	return &ExpenseEventMessage{
		Event:     event,
		ExpenseID: expenseID,
		AccountID: accountID,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseEventMessageFromJSON(data []byte) (*ExpenseEventMessage, error) {
	var msg ExpenseEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
