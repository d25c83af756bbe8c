package producer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"attest-ledger/internal/telemetry/domain"
)

const writeTimeout = 5 * time.Second

// KafkaProducer writes attestation events to a Kafka topic.
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaProducer returns a producer for the given brokers and topic, or
// (nil, nil) when either is unset so callers can treat Kafka as optional.
func NewKafkaProducer(brokers []string, topic string) (*KafkaProducer, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, nil
	}
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
		},
		topic: topic,
	}, nil
}

// Emit writes the event as JSON, keyed by audit id so all events for one
// audit land on the same partition in order. Bounded by writeTimeout so a
// slow broker cannot stall the caller.
func (p *KafkaProducer) Emit(ctx context.Context, event *domain.Event) error {
	if p == nil || p.writer == nil || event == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{Value: payload}
	if event.AuditID != "" {
		msg.Key = []byte(event.AuditID)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		log.Printf("telemetry: kafka emit failed: %v", err)
		return err
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
