package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/facilitator/internal/logging"
	"github.com/aretw0/facilitator/pkg/domain"
)

// allTopics receives every event regardless of plan execution.
const allTopics = ""

// Message is one event ready to be written to a stream.
type Message struct {
	Type domain.EventType
	Data string
}

// StreamManager fans engine events out to SSE subscribers, keyed by plan
// execution id.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Message]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Message]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a channel for topic. An empty topic receives everything.
func (sm *StreamManager) Subscribe(topic string) (chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 10)
	if _, ok := sm.subscribers[topic]; !ok {
		sm.subscribers[topic] = make(map[chan<- Message]struct{})
	}
	sm.subscribers[topic][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[topic]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, topic)
			}
		}
	}
}

// Broadcast delivers msg to subscribers of topic and of every topic.
func (sm *StreamManager) Broadcast(topic string, msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.deliver(topic, msg)
	if topic != allTopics {
		sm.deliver(allTopics, msg)
	}
}

func (sm *StreamManager) deliver(topic string, msg Message) {
	for ch := range sm.subscribers[topic] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: client buffer full, dropping message", "topic", topic)
		}
	}
}

// Hooks returns lifecycle hooks that broadcast node and error events.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeStart: func(_ context.Context, e *domain.NodeEvent) {
			sm.publish(e.EventBase, e)
		},
		OnNodeFinish: func(_ context.Context, e *domain.NodeEvent) {
			sm.publish(e.EventBase, e)
		},
		OnError: func(_ context.Context, e *domain.ErrorEvent) {
			msg := ""
			if e.Err != nil {
				msg = e.Err.Error()
			}
			sm.publish(e.EventBase, struct {
				domain.EventBase
				Error string `json:"error"`
			}{e.EventBase, msg})
		},
	}
}

func (sm *StreamManager) publish(base domain.EventBase, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		sm.logger.Error("SSE: event encode failed", "err", err)
		return
	}
	sm.Broadcast(base.PlanExecutionID, Message{Type: base.Type, Data: string(data)})
}
