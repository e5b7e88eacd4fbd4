package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

// EventBus fans notification payloads out to in-process subscribers, one
// channel set per user. The SSE endpoint subscribes here; the notifier
// publishes through the Pusher interface.
type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[domain.UserID][]chan []byte
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[domain.UserID][]chan []byte),
	}
}

// Subscribe returns a channel receiving pushes for one user plus an
// unsubscribe func that closes it.
func (b *EventBus) Subscribe(userID domain.UserID) (<-chan []byte, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan []byte, 100) // buffer so a slow reader cannot block a publisher
	b.subs[userID] = append(b.subs[userID], ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subs[userID]
		for i, sub := range subscribers {
			if sub == ch {
				close(ch)
				b.subs[userID] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(b.subs[userID]) == 0 {
			delete(b.subs, userID)
		}
	}

	return ch, unsub
}

// Push implements ports.Pusher. Full channels drop the payload rather than
// blocking the workflow transition that produced it.
func (b *EventBus) Push(_ context.Context, userID domain.UserID, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[userID] {
		select {
		case ch <- payload:
		default:
			b.logger.Warn("event bus channel full, dropping push", "user", userID)
		}
	}
	return nil
}
