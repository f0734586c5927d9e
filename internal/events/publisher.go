package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"thriftshop/internal/domain"
)

// Publisher emits storefront events. Delivery is best effort; failures are
// logged, never propagated into the request path.
type Publisher interface {
	OrderCreated(ctx context.Context, order *domain.Order)
}

// Kafka publishes order events with franz-go.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *log.Logger
}

func NewKafka(brokers []string, topic string, logger *log.Logger) (*Kafka, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProducerLinger(10*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

func (k *Kafka) OrderCreated(ctx context.Context, order *domain.Order) {
	data, err := json.Marshal(order)
	if err != nil {
		k.logger.Printf("events: marshal order %s: %v", order.ID, err)
		return
	}

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(order.ID),
		Value: data,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte("order.created")},
		},
		Timestamp: time.Now(),
	}

	k.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			k.logger.Printf("events: produce order %s: %v", order.ID, err)
			return
		}
		k.logger.Printf("events: order %s produced to partition %d offset %d", order.ID, r.Partition, r.Offset)
	})
}

func (k *Kafka) Close() {
	k.client.Close()
}
