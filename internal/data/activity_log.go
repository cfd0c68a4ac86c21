package data

import (
	"TradeTechCircuit/internal/model"
	"sync"
	"time"
)

// EntryTimeLayout is the display format of activity log timestamps (gap between date and time)
const EntryTimeLayout = "2006-01-02 | 15:04:05"

// ActivityLogConfig holds configuration for the activity log
type ActivityLogConfig struct {
	Capacity int
}

// DefaultActivityLogConfig returns the session log defaults
func DefaultActivityLogConfig() ActivityLogConfig {
	return ActivityLogConfig{
		Capacity: 50,
	}
}

// InMemoryActivityLog is a bounded FIFO of human readable trading events shared by all requests.
// A new instance is an empty session log; there is no way to clear an existing one.
type InMemoryActivityLog struct {
	entries []model.LogEntry
	config  ActivityLogConfig
	sink    chan<- model.LogEntry
	now     func() time.Time
	mu      sync.RWMutex
}

// NewInMemoryActivityLog creates an activity log with default config
func NewInMemoryActivityLog() *InMemoryActivityLog {
	return NewInMemoryActivityLogWithConfig(DefaultActivityLogConfig())
}

// NewInMemoryActivityLogWithConfig creates an activity log with custom config
func NewInMemoryActivityLogWithConfig(config ActivityLogConfig) *InMemoryActivityLog {
	if config.Capacity <= 0 {
		config.Capacity = DefaultActivityLogConfig().Capacity
	}

	return &InMemoryActivityLog{
		entries: make([]model.LogEntry, 0, config.Capacity),
		config:  config,
		now:     time.Now,
	}
}

// WithSink forwards every appended entry to ch. Sends never block; entries are dropped when ch is full.
func (l *InMemoryActivityLog) WithSink(ch chan<- model.LogEntry) *InMemoryActivityLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = ch
	return l
}

// WithClock replaces the time source used to stamp entries
func (l *InMemoryActivityLog) WithClock(now func() time.Time) *InMemoryActivityLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	return l
}

// Append stamps message with the current time and stores it, evicting the oldest entry when full
func (l *InMemoryActivityLog) Append(message string) model.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := model.LogEntry{
		Timestamp: l.now().Format(EntryTimeLayout),
		Message:   message,
	}

	if len(l.entries) >= l.config.Capacity {
		// Shift in place so the backing array never grows past capacity
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, entry)

	if l.sink != nil {
		select {
		case l.sink <- entry:
		default:
		}
	}

	return entry
}

// Recent returns up to n of the newest entries, most recent last. n <= 0 returns everything.
func (l *InMemoryActivityLog) Recent(n int) []model.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := l.entries
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}

	// Return a copy to prevent external modification
	result := make([]model.LogEntry, len(entries))
	copy(result, entries)
	return result
}

// All returns every entry currently held, oldest first
func (l *InMemoryActivityLog) All() []model.LogEntry {
	return l.Recent(0)
}

// Len returns the number of entries currently held
func (l *InMemoryActivityLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Capacity returns the configured maximum number of entries
func (l *InMemoryActivityLog) Capacity() int {
	return l.config.Capacity
}
