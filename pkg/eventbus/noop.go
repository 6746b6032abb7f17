package eventbus

import (
	"context"

	"github.com/google/uuid"
	"github.com/n8njson/directory/pkg/events"
)

// Noop discards every event. It backs deployments with notifications disabled.
type Noop struct{}

func (Noop) Publish(context.Context, string, events.Event) error { return nil }
func (Noop) Handle(events.EventType, EventHandler) error         { return nil }
func (Noop) Subscribe(context.Context) error                     { return nil }
func (Noop) Close() error                                        { return nil }
func (Noop) GenerateID() string                                  { return uuid.NewString() }
