package events

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/codeninja-coin/admin-service/internal/config"
)

// Bus bundles the publisher and subscribers of the service.
// Shared delivers each message to one instance of the service, Broadcast to
// every instance.
type Bus struct {
	Publisher message.Publisher
	Shared    message.Subscriber
	Broadcast message.Subscriber

	DomainTopic  string
	SessionTopic string

	Logger  watermill.LoggerAdapter
	closers []func() error
}

// NewBus uses Kafka when brokers are configured and an in-process channel otherwise
func NewBus(cfg config.KafkaConfig, logger *slog.Logger) (*Bus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	bus := &Bus{
		DomainTopic:  cfg.Topic,
		SessionTopic: cfg.SessionTopic,
		Logger:       wmLogger,
	}

	if len(cfg.Brokers) == 0 {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
		bus.Publisher = ch
		bus.Shared = ch
		bus.Broadcast = ch
		bus.closers = []func() error{ch.Close}
		return bus, nil
	}

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	shared, err := newKafkaSubscriber(cfg.Brokers, cfg.ConsumerGroup, wmLogger)
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}

	// a unique group per process so every instance sees every session event
	broadcast, err := newKafkaSubscriber(cfg.Brokers, cfg.ConsumerGroup+"-"+uuid.NewString(), wmLogger)
	if err != nil {
		_ = publisher.Close()
		_ = shared.Close()
		return nil, err
	}

	bus.Publisher = publisher
	bus.Shared = shared
	bus.Broadcast = broadcast
	bus.closers = []func() error{publisher.Close, shared.Close, broadcast.Close}
	return bus, nil
}

func newKafkaSubscriber(brokers []string, group string, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               brokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
		ConsumerGroup:         group,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}
	return subscriber, nil
}

// Close shuts down every publisher and subscriber of the bus
func (b *Bus) Close() error {
	var errs []error
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
