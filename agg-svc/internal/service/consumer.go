package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tableorder/agg-svc/internal/domain"

	"github.com/sirupsen/logrus"
)

var ErrInvalidEvent = errors.New("invalid order event")

// readBackoff throttles the loop while the broker is unreachable.
const readBackoff = time.Second

type Consumer struct {
	Reader MessageReader
	Store  StoreInterface
	Log    *logrus.Entry
}

func NewConsumer(reader MessageReader, store StoreInterface, log *logrus.Entry) *Consumer {
	return &Consumer{
		Reader: reader,
		Store:  store,
		Log:    log,
	}
}

// Start reads the orders topic until ctx is cancelled. Messages that fail to
// decode or apply are logged and skipped.
func (c *Consumer) Start(ctx context.Context) {
	c.Log.Info("starting order stats consumer")
	for {
		message, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.Log.Info("order stats consumer stopped")
				return
			}
			c.Log.WithError(err).Error("error reading message")
			select {
			case <-ctx.Done():
				return
			case <-time.After(readBackoff):
			}
			continue
		}

		var event domain.OrderEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			c.Log.WithError(err).WithField("offset", message.Offset).Warn("error unmarshaling message")
			continue
		}
		if err := c.ProcessEvent(ctx, event); err != nil {
			c.Log.WithError(err).WithFields(logrus.Fields{
				"order_id": event.OrderID,
				"type":     event.Type,
			}).Error("error processing order event")
		}
	}
}

func (c *Consumer) ProcessEvent(ctx context.Context, event domain.OrderEvent) error {
	if event.RestaurantID == "" || event.Status == "" {
		return fmt.Errorf("%w: missing restaurant or status", ErrInvalidEvent)
	}

	switch event.Type {
	case domain.EventOrderCreated:
		return c.Store.RecordOrderCreated(ctx, event)
	case domain.EventOrderStatusChanged:
		if event.PreviousStatus == event.Status {
			return nil
		}
		return c.Store.RecordStatusChange(ctx, event)
	default:
		c.Log.WithField("type", event.Type).Debug("ignoring order event")
		return nil
	}
}
