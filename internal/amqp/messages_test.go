package amqp

import (
	"testing"
	"time"
)

func TestExpenseEventMessageRoundTrip(t *testing.T) {
	msg := NewExpenseEventMessage("expense.created", 42, 7)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := ExpenseEventMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	if got.Event != "expense.created" || got.ExpenseID != 42 || got.AccountID != 7 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
	if time.Since(got.Timestamp) > time.Minute {
		t.Errorf("timestamp too old: %v", got.Timestamp)
	}
}

func TestExpenseEventMessageFromJSONInvalid(t *testing.T) {
	if _, err := ExpenseEventMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
