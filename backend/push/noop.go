package push

import "context"

// NoopChannel drops every event. Used when no Redis address is configured;
// persisted notifications still reach users through the API.
type NoopChannel struct{}

func NewNoopChannel() NoopChannel { return NoopChannel{} }

func (NoopChannel) Send(context.Context, uint, Event) error { return nil }

func (NoopChannel) Close() error { return nil }
