package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/channels/gochannel"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/channels/kafka"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/eventbus"
)

// EventBusConfig selects the transport of workflow lifecycle events.
type EventBusConfig struct {
	Provider    string // "memory" (default) or "kafka"
	Brokers     string // comma separated, kafka only
	ServiceName string
	OTELEnabled bool
}

func NewEventBus(config EventBusConfig, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch config.Provider {
	case "", "memory":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, kafka.Config{
			Brokers:     kafka.ParseBrokers(config.Brokers),
			ServiceName: config.ServiceName,
			OTELEnabled: config.OTELEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", config.Provider)
	}
}
