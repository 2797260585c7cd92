package eventing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher forwards bus events to a kafka topic for downstream
// consumers (status trackers, notification services). Optional: wired only
// when a broker is configured.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher constructs a publisher for the given broker and topic.
func NewKafkaPublisher(brokerAddr, topic string) (*KafkaPublisher, error) {
	if brokerAddr == "" {
		return nil, errors.New("eventing: empty kafka broker address")
	}
	if topic == "" {
		return nil, errors.New("eventing: empty kafka topic")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokerAddr),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}, nil
}

// Publish writes the event as a JSON message keyed by its type.
func (p *KafkaPublisher) Publish(ctx context.Context, event any) error {
	if p == nil || p.writer == nil {
		return errors.New("eventing: nil kafka publisher")
	}
	if event == nil {
		return ErrNilEvent
	}
	eventType := EventType(event)
	if eventType == "" {
		return ErrInvalidEventType
	}
	payload, err := json.Marshal(map[string]any{
		"type":  eventType,
		"event": event,
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(eventType),
		Value: payload,
	})
}

// Handler adapts the publisher into a bus EventHandler.
func (p *KafkaPublisher) Handler() EventHandler {
	return func(ctx context.Context, event any) error {
		return p.Publish(ctx, event)
	}
}

// Close shuts down the kafka writer.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
