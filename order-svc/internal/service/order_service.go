package service

import (
	"context"
	"fmt"
	"time"

	"tableorder/order-svc/internal/cart"
	"tableorder/order-svc/internal/domain"

	"github.com/sirupsen/logrus"
)

type OrderService struct {
	repo      OrderRepository
	publisher OrderPublisher
	metrics   OrderMetrics
	log       *logrus.Entry
	now       func() time.Time
}

func NewOrderService(repo OrderRepository, publisher OrderPublisher, metrics OrderMetrics, log *logrus.Entry) *OrderService {
	return &OrderService{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// Submit turns a cart into an order. The restaurant copy is written first;
// the customer copy only when that succeeded. Neither failure touches the
// cart, and there is no rollback of the restaurant copy.
func (s *OrderService) Submit(ctx context.Context, c *cart.Cart, customer domain.Customer, restaurantID, restaurantName, notes string) (*domain.Order, error) {
	if c == nil || c.IsEmpty() {
		return nil, fmt.Errorf("%w: %w", ErrValidation, cart.ErrEmpty)
	}
	if customer.ID == "" || restaurantID == "" {
		return nil, fmt.Errorf("%w: customer and restaurant are required", ErrValidation)
	}

	order := &domain.Order{
		Customer:       customer,
		Items:          c.Items(),
		Total:          c.Total(),
		Status:         domain.StatusPending,
		TableNumber:    c.TableNumber,
		Notes:          notes,
		RestaurantID:   restaurantID,
		RestaurantName: restaurantName,
	}
	if err := s.repo.CreateRestaurantOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	customerCopy := *order
	customerCopy.RestaurantOrderID = order.ID
	if err := s.repo.CreateCustomerOrder(ctx, &customerCopy); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"order_id":    order.ID,
			"customer_id": customer.ID,
		}).Error("customer copy of order was not written")
		if s.metrics != nil {
			s.metrics.CustomerCopyFailed("create")
		}
		return nil, fmt.Errorf("failed to record order for customer: %w", err)
	}

	c.Clear()
	if s.metrics != nil {
		s.metrics.OrderSubmitted()
	}
	s.publish(ctx, domain.EventOrderCreated, order, "")
	return order, nil
}

// UpdateStatus writes the restaurant copy and then mirrors the status to
// the customer copy. Only the first write decides the result.
func (s *OrderService) UpdateStatus(ctx context.Context, restaurantID, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if _, err := domain.ParseOrderStatus(string(status)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	order, err := s.repo.GetRestaurantOrder(ctx, restaurantID, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRestaurantOrderStatus(ctx, restaurantID, orderID, status); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	previous := order.Status
	order.Status = status

	logger := s.log.WithFields(logrus.Fields{"order_id": orderID, "restaurant_id": restaurantID})
	if order.Customer.ID == "" {
		logger.Warn("order has no customer; customer copy not updated")
		if s.metrics != nil {
			s.metrics.CustomerCopyFailed("status")
		}
	} else if err := s.repo.UpdateCustomerOrderStatus(ctx, order.Customer.ID, orderID, status); err != nil {
		logger.WithError(err).Warn("customer copy of order not updated")
		if s.metrics != nil {
			s.metrics.CustomerCopyFailed("status")
		}
	}

	if s.metrics != nil {
		s.metrics.StatusUpdated(status)
	}
	s.publish(ctx, domain.EventOrderStatusChanged, order, previous)
	return order, nil
}

func (s *OrderService) List(ctx context.Context, scope domain.Scope) ([]domain.Order, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("%w: exactly one of restaurant or customer", ErrValidation)
	}
	orders, err := s.repo.ListOrders(ctx, scope)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *domain.Order, previous domain.OrderStatus) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishOrderEvent(ctx, domain.OrderEvent{
		Type:           eventType,
		OrderID:        order.ID,
		RestaurantID:   order.RestaurantID,
		Status:         order.Status,
		PreviousStatus: previous,
		Total:          order.Total,
		CreatedAt:      order.CreatedAt.UTC(),
		Timestamp:      s.now().UTC(),
	})
	if err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order event")
	}
}
