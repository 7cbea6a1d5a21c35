package service

import (
	"context"
	"errors"
	"io"

	"tableorder/order-svc/internal/cart"
	"tableorder/order-svc/internal/domain"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrCategoryInUse     = errors.New("category is still used by menu items")
)

type RestaurantRepository interface {
	ListRestaurants(ctx context.Context) ([]domain.Restaurant, error)
	GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error)
	UpdateRestaurant(ctx context.Context, rest *domain.Restaurant) error
	UpdateRestaurantImage(ctx context.Context, id, imageURL string) error
}

type MenuRepository interface {
	CreateMenuItem(ctx context.Context, item *domain.MenuItem) error
	ListMenuItems(ctx context.Context, restaurantID string) ([]domain.MenuItem, error)
	GetMenuItem(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *domain.MenuItem) error
	DeleteMenuItem(ctx context.Context, restaurantID, itemID string) error
	CountItemsInCategory(ctx context.Context, restaurantID, category string) (int, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
	ListCategories(ctx context.Context, restaurantID string) ([]domain.Category, error)
	GetCategory(ctx context.Context, restaurantID, categoryID string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, restaurantID, categoryID string) error
}

type OrderRepository interface {
	CreateRestaurantOrder(ctx context.Context, order *domain.Order) error
	CreateCustomerOrder(ctx context.Context, order *domain.Order) error
	GetRestaurantOrder(ctx context.Context, restaurantID, orderID string) (*domain.Order, error)
	UpdateRestaurantOrderStatus(ctx context.Context, restaurantID, orderID string, status domain.OrderStatus) error
	UpdateCustomerOrderStatus(ctx context.Context, customerID, orderID string, status domain.OrderStatus) error
	ListOrders(ctx context.Context, scope domain.Scope) ([]domain.Order, error)
}

// OrderStream is one live query over an order collection.
type OrderStream interface {
	Snapshots() <-chan []domain.Order
	Err() error
	Close() error
}

type OrderWatcher interface {
	WatchOrders(ctx context.Context, scope domain.Scope) (OrderStream, error)
}

type OrderPublisher interface {
	PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error
}

type OrderMetrics interface {
	OrderSubmitted()
	StatusUpdated(status domain.OrderStatus)
	CustomerCopyFailed(operation string)
}

type CartStore interface {
	GetCart(ctx context.Context, customerID, session string) (*cart.Cart, error)
	SaveCart(ctx context.Context, customerID, session string, c *cart.Cart) error
}

type StatsReader interface {
	DailyStats(ctx context.Context, restaurantID, date string) (*domain.DailyStats, error)
}

type ImageStore interface {
	Upload(ctx context.Context, path string, r io.Reader) (string, error)
	URL(handle string) string
	Delete(ctx context.Context, handle string) error
}

type RestaurantServiceInterface interface {
	List(ctx context.Context) ([]domain.Restaurant, error)
	Get(ctx context.Context, id string) (*domain.Restaurant, error)
	UpdateProfile(ctx context.Context, rest *domain.Restaurant) (*domain.Restaurant, error)
	UploadImage(ctx context.Context, id string, image io.Reader) (string, error)
	DeleteImage(ctx context.Context, id string) error
	QRCode(ctx context.Context, id string) ([]byte, error)
}

type MenuServiceInterface interface {
	CreateItem(ctx context.Context, item *domain.MenuItem) error
	ListItems(ctx context.Context, restaurantID string) ([]domain.MenuItem, error)
	GetItem(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error)
	UpdateItem(ctx context.Context, item *domain.MenuItem) error
	DeleteItem(ctx context.Context, restaurantID, itemID string) error
	CreateCategory(ctx context.Context, category *domain.Category) error
	ListCategories(ctx context.Context, restaurantID string) ([]domain.Category, error)
	DeleteCategory(ctx context.Context, restaurantID, categoryID string) error
}

type OrderServiceInterface interface {
	Submit(ctx context.Context, c *cart.Cart, customer domain.Customer, restaurantID, restaurantName, notes string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, restaurantID, orderID string, status domain.OrderStatus) (*domain.Order, error)
	List(ctx context.Context, scope domain.Scope) ([]domain.Order, error)
}

type FeedServiceInterface interface {
	Subscribe(ctx context.Context, scope domain.Scope) (*Feed, error)
}

type CartServiceInterface interface {
	Get(ctx context.Context, customerID, session string) (*cart.Cart, error)
	AddItem(ctx context.Context, customerID, session, restaurantID, itemID string) (*cart.Cart, error)
	ChangeQuantity(ctx context.Context, customerID, session, itemID string, delta int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, customerID, session, itemID string) (*cart.Cart, error)
	SetNotes(ctx context.Context, customerID, session, notes, tableNumber string) (*cart.Cart, error)
	Checkout(ctx context.Context, customer domain.Customer, session string) (*domain.Order, error)
}

type StatsServiceInterface interface {
	Today(ctx context.Context, restaurantID string) (*domain.DailyStats, error)
}

var (
	_ RestaurantServiceInterface = (*RestaurantService)(nil)
	_ MenuServiceInterface       = (*MenuService)(nil)
	_ OrderServiceInterface      = (*OrderService)(nil)
	_ FeedServiceInterface       = (*FeedService)(nil)
	_ CartServiceInterface       = (*CartService)(nil)
	_ StatsServiceInterface      = (*StatsService)(nil)
)
