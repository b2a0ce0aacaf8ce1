// Package eventlog mirrors an orchestrator's structured output log to a
// Kafka topic, one JSON event per log row, so external tooling can watch
// configure/validate/clear runs without polling pplctl's stdout. Grounded
// on the teacher's kafka.Producer: lazily-created per-topic writers behind
// a connect/disconnect pair, with every publish path a no-op when
// disconnected rather than an error.
package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event is one row of an orchestrator's output log, enriched with the
// device address and phase name the row occurred in.
type Event struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Device    string `json:"device"`
	Phase     string `json:"phase"`
}

// Publisher mirrors orchestrator log rows to a Kafka topic. A nil
// *Publisher, or one that never connected, makes Publish a silent no-op --
// callers never need to check whether an eventlog sink was configured.
type Publisher struct {
	brokers []string
	topic   string

	mu      sync.RWMutex
	writer  *kafka.Writer
	running bool
}

// New creates a Publisher that will write to topic on brokers once
// connected.
func New(brokers []string, topic string) *Publisher {
	return &Publisher{brokers: brokers, topic: topic}
}

// Connect dials the Kafka cluster, matching kafka.Producer.Connect's
// dial-and-verify sequence before committing a writer.
func (p *Publisher) Connect() error {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	if p.running {
		p.mu.RUnlock()
		return nil
	}
	p.mu.RUnlock()

	dialer := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, err := dialer.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("eventlog: connect to %v: %w", p.brokers, err)
	}
	conn.Close()

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  p.topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		writer.Close()
		return nil
	}
	p.writer = writer
	p.running = true
	return nil
}

// Close stops the publisher. Safe to call on a nil or never-connected
// Publisher.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return nil
	}
	p.running = false
	writer := p.writer
	p.writer = nil
	if writer != nil {
		return writer.Close()
	}
	return nil
}

// Publish mirrors one orchestrator log row. A nil or disconnected
// Publisher silently drops the event -- eventlog is a side channel the
// orchestrator's control flow never depends on.
func (p *Publisher) Publish(ctx context.Context, device, phase, response, timestamp, message string) error {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	writer := p.writer
	running := p.running
	p.mu.RUnlock()
	if !running || writer == nil {
		return nil
	}

	ev := Event{Response: response, Timestamp: timestamp, Message: message, Device: device, Phase: phase}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("eventlog: marshal event: %w", err)
	}
	if err := writer.WriteMessages(ctx, kafka.Message{Key: []byte(device), Value: payload, Time: time.Now()}); err != nil {
		return fmt.Errorf("eventlog: produce: %w", err)
	}
	return nil
}
