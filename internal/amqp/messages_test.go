package amqp

import (
	"testing"
	"time"
)

func TestRolloverRequestMessageJSON(t *testing.T) {
	msg := NewRolloverRequestMessage("2025-09")
	if msg.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := RolloverRequestMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.PeriodKey != "2025-09" {
		t.Errorf("period key = %q, want 2025-09", got.PeriodKey)
	}
}

func TestBatchAppliedMessageJSON(t *testing.T) {
	msg := NewBatchAppliedMessage("2025-10", 3, 1, 2)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	got, err := BatchAppliedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.PeriodKey != "2025-10" || got.Created != 3 || got.Updated != 1 || got.Deleted != 2 {
		t.Errorf("round trip = %+v", got)
	}
	if got.Timestamp.Sub(msg.Timestamp) > time.Second {
		t.Errorf("timestamp drifted: %v vs %v", got.Timestamp, msg.Timestamp)
	}
}

func TestMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := RolloverRequestMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected unmarshal error")
	}
	if _, err := BatchAppliedMessageFromJSON([]byte("")); err == nil {
		t.Error("expected unmarshal error")
	}
}
