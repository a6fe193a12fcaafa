package events

import (
	"context"
	"sync"
)

// MockEventPublisher records published events in memory. Used in tests
// and when no broker is configured.
type MockEventPublisher struct {
	mu     sync.Mutex
	events map[string][]*Event
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		events: make(map[string][]*Event),
	}
}

func (m *MockEventPublisher) Publish(_ context.Context, topic string, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[topic] = append(m.events[topic], event)
	return nil
}

func (m *MockEventPublisher) Close() error {
	return nil
}

// Published returns events recorded for a topic.
func (m *MockEventPublisher) Published(topic string) []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Event(nil), m.events[topic]...)
}
