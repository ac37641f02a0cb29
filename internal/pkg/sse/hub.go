package sse

import (
	"log/slog"
	"sync"
)

const (
	// TopicAll receives every attendance change.
	TopicAll = "attendance"

	// EventAttendanceChanged tells clients to re-fetch records.
	EventAttendanceChanged = "attendance_changed"

	subscriberBuffer = 10
)

// EmployeeTopic is the topic carrying changes for a single employee.
func EmployeeTopic(employeeID string) string {
	return TopicAll + ":" + employeeID
}

// Event is one message delivered to stream subscribers
type Event struct {
	Topic string
	Event string
	Data  interface{}
}

// Hub fans events out to subscribers grouped by topic
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a subscriber on a topic and returns its channel with a
// cleanup function that must be called once.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)

	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[chan Event]struct{})
	}
	h.subscribers[topic][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[topic], ch)
			close(ch)
			if len(h.subscribers[topic]) == 0 {
				delete(h.subscribers, topic)
			}
		})
	}

	return ch, cleanup
}

// Publish sends an event to every subscriber of its topic. Slow subscribers
// whose buffer is full miss the event.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[event.Topic] {
		select {
		case ch <- event:
		default:
			slog.Debug("Dropping stream event for slow subscriber", "topic", event.Topic, "event", event.Event)
		}
	}
}

// PublishAttendanceChange notifies the all-attendance topic and, when known,
// the employee's own topic.
func (h *Hub) PublishAttendanceChange(employeeID string, name string, data interface{}) {
	h.Publish(Event{Topic: TopicAll, Event: name, Data: data})
	if employeeID != "" {
		h.Publish(Event{Topic: EmployeeTopic(employeeID), Event: name, Data: data})
	}
}

// SubscriberCount returns the number of active subscribers for a topic
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[topic])
}

// TotalSubscribers returns the total number of active subscribers across all topics
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}
