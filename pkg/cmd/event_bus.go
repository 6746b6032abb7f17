package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/n8njson/directory/pkg/channels/gochannel"
	"github.com/n8njson/directory/pkg/channels/kafka"
	"github.com/n8njson/directory/pkg/eventbus"
)

const serviceName = "directory"

// NewEventBus creates the lifecycle event bus. Provider is "kafka",
// "gochannel" or "none"; an empty provider disables events.
//
// nolint:ireturn // callers pick the transport at runtime
func NewEventBus(provider string, brokers string, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, splitList(brokers), serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "gochannel":
		pub, sub := gochannel.CreateChannel(wmLogger)

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "", "none":
		return eventbus.Noop{}, nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider %q", provider)
	}
}

func splitList(value string) []string {
	var items []string

	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}
