package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

const topicTransactionCompleted = "transaction_completed"

// KafkaPublisher writes transaction events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher builds a publisher for the transaction_completed topic.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topicTransactionCompleted,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish JSON-encodes the event and writes it keyed by account id so all
// events for one account land on the same partition, in order.
func (p *KafkaPublisher) Publish(ctx context.Context, event TransactionCompleted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.AccountID),
		Value: data,
	})
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
