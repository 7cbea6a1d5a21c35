package storage

import (
	"context"
	"encoding/json"

	"tableorder/order-svc/internal/domain"
	"tableorder/order-svc/internal/service"

	"github.com/segmentio/kafka-go"
)

// OrdersTopic carries order lifecycle events for agg-svc.
const OrdersTopic = "orders"

type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: writer}
}

// PublishOrderEvent keys messages by restaurant so one restaurant's events
// stay ordered on a single partition.
func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RestaurantID),
		Value: payload,
	})
}

var _ service.OrderPublisher = (*KafkaPublisher)(nil)
