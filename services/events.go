package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dododo1295/studyroute/utils"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventUserRegistered  = "user.registered"
	EventRouteCreated    = "route.created"
	EventActivityToggled = "activity.toggled"
	EventNoteSaved       = "note.saved"
)

// Event is a progress notification keyed by the user it concerns.
type Event struct {
	Type       string      `json:"type"`
	Email      string      `json:"email"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload,omitempty"`
}

func NewEvent(eventType, email string, payload interface{}) Event {
	return Event{Type: eventType, Email: email, OccurredAt: time.Now().UTC(), Payload: payload}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NewPublisher returns a Kafka publisher when brokers are configured.
func NewPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return NoopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}

// PublishTimeout caps how long PublishQuietly waits on a publisher.
const PublishTimeout = 500 * time.Millisecond

// PublishQuietly sends event and only logs failures; callers never fail on
// events. The publish gets its own deadline so a slow broker cannot hold the
// caller past PublishTimeout, and a cancelled request does not drop the event.
func PublishQuietly(ctx context.Context, p Publisher, event Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()

	if err := p.Publish(ctx, event); err != nil {
		utils.TrackError("event_publish")
		utils.Logger().Warn("event publish failed",
			zap.String("type", event.Type),
			zap.String("email", event.Email),
			zap.Error(err))
	}
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }

// KafkaPublisher lazily creates its writer on the first publish. The writer is
// async: Publish only enqueues, and delivery failures surface in logCompletion.
type KafkaPublisher struct {
	brokers []string
	topic   string

	mu     sync.Mutex
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{brokers: brokers, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(event.Email),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}
	return p.writerForTopic().WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) writerForTopic() *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		p.writer = &kafka.Writer{
			Addr:                   kafka.TCP(p.brokers...),
			Topic:                  p.topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			Compression:            kafka.Snappy,
			AllowAutoTopicCreation: true,
			Async:                  true,
			BatchTimeout:           10 * time.Millisecond,
			MaxAttempts:            3,
			WriteTimeout:           5 * time.Second,
			Completion:             logCompletion,
		}
	}
	return p.writer
}

func logCompletion(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	utils.TrackError("event_publish")
	utils.Logger().Warn("event delivery failed",
		zap.Int("messages", len(messages)),
		zap.Error(err))
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		return nil
	}
	err := p.writer.Close()
	p.writer = nil
	return err
}
