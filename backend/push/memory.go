package push

import (
	"context"
	"sync"
)

// Sent records one delivered event.
type Sent struct {
	RecipientID uint
	Event       Event
}

// MemoryChannel keeps events in memory. Used in tests and when no Redis
// address is configured.
type MemoryChannel struct {
	mu   sync.Mutex
	sent []Sent

	// FailWith, when set, makes every Send return this error.
	FailWith error
}

func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{}
}

func (m *MemoryChannel) Send(_ context.Context, recipientID uint, event Event) error {
	if m.FailWith != nil {
		return m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Sent{RecipientID: recipientID, Event: event})
	return nil
}

func (m *MemoryChannel) Close() error { return nil }

// Events returns a copy of everything sent so far.
func (m *MemoryChannel) Events() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sent, len(m.sent))
	copy(out, m.sent)
	return out
}
