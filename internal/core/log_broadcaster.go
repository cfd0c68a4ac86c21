package core

import (
	"TradeTechCircuit/internal/model"
	"context"
	"log/slog"
	"sync"
)

const (
	defaultBufferSize     = 256
	defaultSubscriberSize = 32
)

// LogBroadcaster receives activity log entries from a channel and fans them out to live subscribers
type LogBroadcaster struct {
	entryChan   chan model.LogEntry
	subscribers map[int]chan model.LogEntry
	nextID      int
	stopped     bool
	mu          sync.RWMutex
	logger      *slog.Logger
}

// NewLogBroadcaster creates a new broadcaster
func NewLogBroadcaster(logger *slog.Logger) *LogBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogBroadcaster{
		entryChan:   make(chan model.LogEntry, defaultBufferSize),
		subscribers: make(map[int]chan model.LogEntry),
		logger:      logger,
	}
}

// Start begins forwarding entries until ctx is cancelled
func (lb *LogBroadcaster) Start(ctx context.Context) {
	lb.logger.Info("starting activity log broadcaster")

	go func() {
		defer lb.logger.Info("activity log broadcaster stopped")

		for {
			select {
			case entry := <-lb.entryChan:
				lb.publish(entry)

			case <-ctx.Done():
				lb.mu.Lock()
				lb.stopped = true
				for id, ch := range lb.subscribers {
					close(ch)
					delete(lb.subscribers, id)
				}
				lb.mu.Unlock()

				return
			}
		}
	}()
}

// publish hands entry to every subscriber. Slow subscribers miss entries instead of stalling the loop.
func (lb *LogBroadcaster) publish(entry model.LogEntry) {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	for id, ch := range lb.subscribers {
		select {
		case ch <- entry:
		default:
			lb.logger.Debug("dropping live log entry for slow subscriber", "subscriber", id)
		}
	}
}

// Subscribe registers a new listener. The returned func removes it and closes its channel.
func (lb *LogBroadcaster) Subscribe() (<-chan model.LogEntry, func()) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	ch := make(chan model.LogEntry, defaultSubscriberSize)
	if lb.stopped {
		close(ch)
		return ch, func() {}
	}

	id := lb.nextID
	lb.nextID++
	lb.subscribers[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			lb.mu.Lock()
			defer lb.mu.Unlock()

			if sub, ok := lb.subscribers[id]; ok {
				close(sub)
				delete(lb.subscribers, id)
			}
		})
	}

	return ch, unsubscribe
}

// SubscriberCount returns the number of active subscribers
func (lb *LogBroadcaster) SubscriberCount() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return len(lb.subscribers)
}

// GetEntryChannel returns the channel the activity log publishes to
func (lb *LogBroadcaster) GetEntryChannel() chan<- model.LogEntry {
	return lb.entryChan
}
