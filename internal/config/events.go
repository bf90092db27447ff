package config

import (
	"fmt"
	"log/slog"

	"virtuallab-quiz-service/internal/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventConfig selects where quiz completion events go.
type EventConfig struct {
	Publisher string   `yaml:"publisher" validate:"omitempty,oneof=none gochannel kafka"`
	Brokers   []string `yaml:"brokers" validate:"required_if=Publisher kafka"`
	Topic     string   `yaml:"topic"`
}

// QuizPublisher is the closable publisher the server wires into the service.
type QuizPublisher interface {
	events.QuizCompletedPublisher
	Close() error
}

// CreateEventPublisher builds the configured publisher. The subscriber is
// non-nil only for the in-process gochannel transport.
func (c EventConfig) CreateEventPublisher(logger *slog.Logger) (QuizPublisher, message.Subscriber, error) {
	switch c.Publisher {
	case "kafka":
		logger.Info("creating kafka event publisher", "brokers", c.Brokers, "topic", c.Topic)
		pub, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: c.Brokers,
			Topic:   c.Topic,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return pub, nil, nil
	case "gochannel":
		logger.Info("using in-process event publisher", "topic", c.Topic)
		pubsub := events.NewGoChannel(logger)
		return events.NewPublisher(pubsub, c.Topic, logger), pubsub, nil
	case "", "none":
		return events.Nop{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown events publisher %q", c.Publisher)
	}
}
