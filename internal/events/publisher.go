// Package events announces finished quiz runs over Watermill.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"virtuallab-quiz-service/internal/domain"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const EventQuizCompleted = "quiz.completed"

// QuizCompletedEvent is the message payload.
type QuizCompletedEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	UserID       string    `json:"user_id,omitempty"`
	Topic        int       `json:"topic"`
	TopicName    string    `json:"topic_name"`
	ScorePercent int       `json:"score"`
	CorrectCount int       `json:"correct_count"`
	TotalCount   int       `json:"total_count"`
	Saved        bool      `json:"saved"`
	CompletedAt  time.Time `json:"completed_at"`
}

// QuizCompletedPublisher is implemented by every publisher in this package.
type QuizCompletedPublisher interface {
	PublishQuizCompleted(ctx context.Context, event domain.QuizCompleted) error
}

// Publisher writes quiz events to a Watermill topic.
type Publisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Logger  *slog.Logger
}

func NewKafkaPublisher(cfg KafkaConfig) (*Publisher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	return &Publisher{publisher: pub, topic: cfg.Topic, logger: logger}, nil
}

// NewGoChannel returns an in-process pub/sub. It serves as both the
// publisher's transport and the subscriber for local consumers.
func NewGoChannel(logger *slog.Logger) *gochannel.GoChannel {
	if logger == nil {
		logger = slog.Default()
	}
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewSlogLogger(logger))
}

func NewPublisher(pub message.Publisher, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{publisher: pub, topic: topic, logger: logger}
}

func (p *Publisher) PublishQuizCompleted(ctx context.Context, event domain.QuizCompleted) error {
	payload := QuizCompletedEvent{
		ID:           uuid.NewString(),
		Type:         EventQuizCompleted,
		UserID:       event.UserID,
		Topic:        event.Topic,
		TopicName:    domain.TopicName(event.Topic),
		ScorePercent: event.Result.ScorePercent,
		CorrectCount: event.Result.CorrectCount,
		TotalCount:   event.Result.TotalCount,
		Saved:        event.Saved,
		CompletedAt:  event.CompletedAt.UTC(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal quiz completed event: %w", err)
	}

	msg := message.NewMessage(payload.ID, data)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", EventQuizCompleted)
	msg.Metadata.Set("user_id", event.UserID)
	msg.Metadata.Set("topic", strconv.Itoa(event.Topic))

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.logger.ErrorContext(ctx, "publish quiz completed event failed",
			"event_id", payload.ID,
			"error", err)
		return fmt.Errorf("publish quiz completed event: %w", err)
	}
	p.logger.DebugContext(ctx, "published quiz completed event",
		"event_id", payload.ID,
		"topic", p.topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.publisher.Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishQuizCompleted(context.Context, domain.QuizCompleted) error { return nil }

func (Nop) Close() error { return nil }

// Consume decodes quiz events from sub until ctx ends. Every message is
// acked; undecodable ones are logged and skipped.
func Consume(ctx context.Context, sub message.Subscriber, topic string, logger *slog.Logger, handle func(QuizCompletedEvent)) error {
	msgs, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	go func() {
		for msg := range msgs {
			var ev QuizCompletedEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				logger.Warn("skipping undecodable quiz event", "message_uuid", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			handle(ev)
			msg.Ack()
		}
	}()
	return nil
}
