package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tableorder/order-svc/internal/docstore"
	"tableorder/order-svc/internal/domain"
	"tableorder/order-svc/internal/service"
)

// Every order lives twice: under the restaurant and under the customer,
// with the same document id.
func restaurantOrders(restaurantID string) string {
	return "restaurants/" + restaurantID + "/orders"
}

func customerOrders(customerID string) string {
	return "users/" + customerID + "/orders"
}

func ordersCollection(scope domain.Scope) string {
	if scope.RestaurantID != "" {
		return restaurantOrders(scope.RestaurantID)
	}
	return customerOrders(scope.CustomerID)
}

var newestFirst = docstore.Query{OrderBy: docstore.CreatedAt, Descending: true}

type OrderStore struct {
	Docs docstore.Store
	now  func() time.Time
}

func NewOrderStore(docs docstore.Store) *OrderStore {
	return &OrderStore{Docs: docs, now: time.Now}
}

func (s *OrderStore) CreateRestaurantOrder(ctx context.Context, order *domain.Order) error {
	data, err := encodeOrder(order)
	if err != nil {
		return err
	}
	id, err := s.Docs.Add(ctx, restaurantOrders(order.RestaurantID), data)
	if err != nil {
		return err
	}
	order.ID = id
	order.CreatedAt = s.now().UTC()
	// The stored timestamp buckets the order in daily stats.
	if doc, err := s.Docs.Get(ctx, restaurantOrders(order.RestaurantID), id); err == nil {
		order.CreatedAt = doc.CreatedAt.UTC()
	}
	return nil
}

func (s *OrderStore) CreateCustomerOrder(ctx context.Context, order *domain.Order) error {
	data, err := encodeOrder(order)
	if err != nil {
		return err
	}
	return s.Docs.Set(ctx, customerOrders(order.Customer.ID), order.ID, data)
}

func (s *OrderStore) GetRestaurantOrder(ctx context.Context, restaurantID, orderID string) (*domain.Order, error) {
	doc, err := s.Docs.Get(ctx, restaurantOrders(restaurantID), orderID)
	if err != nil {
		return nil, notFound(err)
	}
	return decodeOrder(doc)
}

func (s *OrderStore) UpdateRestaurantOrderStatus(ctx context.Context, restaurantID, orderID string, status domain.OrderStatus) error {
	return notFound(s.Docs.Update(ctx, restaurantOrders(restaurantID), orderID, map[string]any{"status": status}))
}

func (s *OrderStore) UpdateCustomerOrderStatus(ctx context.Context, customerID, orderID string, status domain.OrderStatus) error {
	return notFound(s.Docs.Update(ctx, customerOrders(customerID), orderID, map[string]any{"status": status}))
}

func (s *OrderStore) ListOrders(ctx context.Context, scope domain.Scope) ([]domain.Order, error) {
	docs, err := s.Docs.Query(ctx, ordersCollection(scope), newestFirst)
	if err != nil {
		return nil, err
	}
	return decodeOrders(docs)
}

func (s *OrderStore) WatchOrders(ctx context.Context, scope domain.Scope) (service.OrderStream, error) {
	sub, err := s.Docs.Subscribe(ctx, ordersCollection(scope), newestFirst)
	if err != nil {
		return nil, err
	}
	return newOrderStream(sub), nil
}

func encodeOrder(order *domain.Order) (map[string]any, error) {
	return docstore.Encode(order, "id", "createdAt")
}

func decodeOrder(doc docstore.Document) (*domain.Order, error) {
	var order domain.Order
	if err := docstore.Decode(doc, &order); err != nil {
		return nil, fmt.Errorf("failed to decode order %s: %w", doc.ID, err)
	}
	order.ID = doc.ID
	order.CreatedAt = doc.CreatedAt
	return &order, nil
}

func decodeOrders(docs []docstore.Document) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := decodeOrder(doc)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// orderStream decodes document snapshots into orders. A document that does
// not decode ends the stream.
type orderStream struct {
	sub  *docstore.Subscription
	out  chan []domain.Order
	done chan struct{}

	mu  sync.Mutex
	err error
}

func newOrderStream(sub *docstore.Subscription) *orderStream {
	s := &orderStream{
		sub:  sub,
		out:  make(chan []domain.Order, 1),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *orderStream) run() {
	defer close(s.done)
	defer close(s.out)

	for docs := range s.sub.Updates() {
		orders, err := decodeOrders(docs)
		if err != nil {
			s.setErr(err)
			s.sub.Close()
			return
		}
		select {
		case s.out <- orders:
		default:
			select {
			case <-s.out:
			default:
			}
			s.out <- orders
		}
	}
	s.setErr(s.sub.Err())
}

func (s *orderStream) setErr(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

func (s *orderStream) Snapshots() <-chan []domain.Order {
	return s.out
}

func (s *orderStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *orderStream) Close() error {
	err := s.sub.Close()
	<-s.done
	return err
}

var (
	_ service.OrderRepository = (*OrderStore)(nil)
	_ service.OrderWatcher    = (*OrderStore)(nil)
)
