package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"tableorder/logging"
	"tableorder/order-svc/internal/cart"
	"tableorder/order-svc/internal/docstore"
	"tableorder/order-svc/internal/domain"
	"tableorder/order-svc/internal/mocks"
	"tableorder/order-svc/internal/service"
	"tableorder/order-svc/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type cartFixture struct {
	redis     *miniredis.Miniredis
	docs      *docstore.MemoryStore
	carts     *storage.RedisCartStore
	menu      *storage.MenuStore
	burgerID  string
	unavailID string
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	docs := docstore.NewMemoryStore()
	require.NoError(t, docs.Set(ctx, "restaurants", "r1", map[string]any{"name": "Luigi's"}))

	menu := storage.NewMenuStore(docs)
	burger := &domain.MenuItem{Name: "Burger", Category: "Mains", Price: 9.00, Available: true, RestaurantID: "r1"}
	require.NoError(t, menu.CreateMenuItem(ctx, burger))
	soldOut := &domain.MenuItem{Name: "Fries", Category: "Sides", Price: 3.50, Available: false, RestaurantID: "r1"}
	require.NoError(t, menu.CreateMenuItem(ctx, soldOut))

	return &cartFixture{
		redis:     mr,
		docs:      docs,
		carts:     storage.NewRedisCartStore(client, 2*time.Hour),
		menu:      menu,
		burgerID:  burger.ID,
		unavailID: soldOut.ID,
	}
}

func (f *cartFixture) service(orders service.OrderServiceInterface) *service.CartService {
	return service.NewCartService(f.carts, f.menu, storage.NewRestaurantStore(f.docs), orders, logging.Discard())
}

func TestCartService_CheckoutPlacesOrder(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	orderStore := storage.NewOrderStore(f.docs)
	svc := f.service(service.NewOrderService(orderStore, nil, nil, logging.Discard()))
	customer := domain.Customer{ID: "c1", Name: "Ada"}

	_, err := svc.AddItem(ctx, "c1", "s1", "r1", f.burgerID)
	require.NoError(t, err)
	c, err := svc.AddItem(ctx, "c1", "s1", "r1", f.burgerID)
	require.NoError(t, err)
	assert.InDelta(t, 18.00, c.Total(), 1e-9)

	_, err = svc.SetNotes(ctx, "c1", "s1", " extra napkins ", "12")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, f.redis.TTL(f.carts.CartKey("c1", "s1")))

	order, err := svc.Checkout(ctx, customer, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Luigi's", order.RestaurantName)
	assert.Equal(t, "extra napkins", order.Notes)
	assert.Equal(t, "12", order.TableNumber)
	assert.InDelta(t, 18.00, order.Total, 1e-9)

	restaurantCopy, err := orderStore.GetRestaurantOrder(ctx, "r1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, restaurantCopy.Status)

	customerOrders, err := orderStore.ListOrders(ctx, domain.Scope{CustomerID: "c1"})
	require.NoError(t, err)
	require.Len(t, customerOrders, 1)
	assert.Equal(t, order.ID, customerOrders[0].RestaurantOrderID)

	assert.False(t, f.redis.Exists(f.carts.CartKey("c1", "s1")))
	c, err = svc.Get(ctx, "c1", "s1")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestCartService_CheckoutFailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	repository := mocks.NewOrderRepository(t)
	repository.On("CreateRestaurantOrder", ctx, mock.Anything).Return(errors.New("store unavailable")).Once()
	svc := f.service(service.NewOrderService(repository, nil, nil, logging.Discard()))

	_, err := svc.AddItem(ctx, "c1", "s1", "r1", f.burgerID)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, domain.Customer{ID: "c1"}, "s1")
	require.Error(t, err)

	c, err := svc.Get(ctx, "c1", "s1")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "Burger", c.Lines[0].Name)
}

// failingSaveStore passes the first n saves through and fails the rest.
type failingSaveStore struct {
	*storage.RedisCartStore
	allowed int
	saves   int
}

func (s *failingSaveStore) SaveCart(ctx context.Context, customerID, session string, c *cart.Cart) error {
	s.saves++
	if s.saves > s.allowed {
		return errors.New("redis down")
	}
	return s.RedisCartStore.SaveCart(ctx, customerID, session, c)
}

func TestCartService_CheckoutSucceedsWhenCartClearFails(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	orderStore := storage.NewOrderStore(f.docs)
	carts := &failingSaveStore{RedisCartStore: f.carts, allowed: 1}
	svc := service.NewCartService(carts, f.menu, storage.NewRestaurantStore(f.docs),
		service.NewOrderService(orderStore, nil, nil, logging.Discard()), logging.Discard())

	_, err := svc.AddItem(ctx, "c1", "s1", "r1", f.burgerID)
	require.NoError(t, err)

	order, err := svc.Checkout(ctx, domain.Customer{ID: "c1", Name: "Ada"}, "s1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, 2, carts.saves)

	placed, err := orderStore.ListOrders(ctx, domain.Scope{RestaurantID: "r1"})
	require.NoError(t, err)
	require.Len(t, placed, 1)
	assert.Equal(t, order.ID, placed[0].ID)
}

func TestCartService_Errors(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	svc := f.service(nil)

	_, err := svc.Checkout(ctx, domain.Customer{ID: "c1"}, "empty")
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.ErrorIs(t, err, cart.ErrEmpty)

	_, err = svc.AddItem(ctx, "c1", "s1", "r1", f.unavailID)
	assert.ErrorIs(t, err, cart.ErrItemUnavailable)

	_, err = svc.AddItem(ctx, "c1", "s1", "r2", f.burgerID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.ChangeQuantity(ctx, "c1", "s1", "missing", 1)
	assert.ErrorIs(t, err, cart.ErrLineNotFound)

	_, err = svc.Get(ctx, "c1", " ")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestCartService_SessionsAreScopedToCustomer(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	svc := f.service(nil)

	_, err := svc.AddItem(ctx, "c1", "shared", "r1", f.burgerID)
	require.NoError(t, err)

	other, err := svc.Get(ctx, "c2", "shared")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())

	c, err := svc.ChangeQuantity(ctx, "c1", "shared", f.burgerID, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Lines[0].Quantity)

	c, err = svc.RemoveItem(ctx, "c1", "shared", f.burgerID)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestStatsService_Today(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	key := storage.DailyStatsKey(time.Now().UTC().Format("2006-01-02"), "r1")
	mr.HSet(key, "orders", "3", "revenue", "42.5", "status:pending", "2", "status:completed", "1")

	stats, err := service.NewStatsService(storage.NewRedisStatsReader(client)).Today(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Orders)
	assert.InDelta(t, 42.5, stats.Revenue, 1e-9)
	assert.Equal(t, map[string]int{"pending": 2, "completed": 1}, stats.ByStatus)

	empty, err := service.NewStatsService(storage.NewRedisStatsReader(client)).Today(ctx, "r2")
	require.NoError(t, err)
	assert.Zero(t, empty.Orders)
	assert.Empty(t, empty.ByStatus)
}
