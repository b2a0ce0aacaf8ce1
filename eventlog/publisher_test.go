package eventlog

import (
	"context"
	"encoding/json"
	"testing"
)

func TestEventJSONShape(t *testing.T) {
	ev := Event{Response: "OK", Timestamp: "12:00:00", Message: "", Device: "10.0.0.5", Phase: "Committed"}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, field := range []string{"response", "timestamp", "message", "device", "phase"} {
		if _, ok := decoded[field]; !ok {
			t.Errorf("missing field %q in marshaled event", field)
		}
	}
}

func TestNilPublisherIsAlwaysValid(t *testing.T) {
	var p *Publisher

	if err := p.Connect(); err != nil {
		t.Fatalf("Connect on nil publisher: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close on nil publisher: %v", err)
	}
	if err := p.Publish(context.Background(), "10.0.0.5", "Committed", "OK", "12:00:00", ""); err != nil {
		t.Fatalf("Publish on nil publisher: %v", err)
	}
}

func TestUnconnectedPublisherIsNoOp(t *testing.T) {
	p := New([]string{"127.0.0.1:0"}, "events")
	if err := p.Publish(context.Background(), "10.0.0.5", "Committed", "OK", "12:00:00", ""); err != nil {
		t.Fatalf("Publish on unconnected publisher: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close on unconnected publisher: %v", err)
	}
}
