package push

import (
	"context"
	"time"
)

// Event is the payload delivered to a recipient over the real-time channel.
type Event struct {
	Type     string    `json:"type"`
	CourseID uint      `json:"course_id"`
	RiskTier string    `json:"risk_tier,omitempty"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}

// Channel delivers real-time events. Delivery is best-effort: no retries,
// no durability. Persisted notifications are the source of truth.
type Channel interface {
	Send(ctx context.Context, recipientID uint, event Event) error
	Close() error
}
