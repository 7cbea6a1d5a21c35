package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tableorder/order-svc/internal/auth"
	"tableorder/order-svc/internal/domain"
	"tableorder/order-svc/internal/metrics"
	"tableorder/order-svc/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type AuthGateway interface {
	SignUp(ctx context.Context, in auth.SignUpInput) (*auth.Session, error)
	SignIn(ctx context.Context, email, password string, role domain.Role) (*auth.Session, error)
	SignOut(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (auth.Identity, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, identity auth.Identity, displayName string) (*domain.User, error)
	OnIdentityChange(fn func(auth.IdentityEvent)) func()
}

type Services struct {
	Restaurants service.RestaurantServiceInterface
	Menu        service.MenuServiceInterface
	Orders      service.OrderServiceInterface
	Feeds       service.FeedServiceInterface
	Carts       service.CartServiceInterface
	Stats       service.StatsServiceInterface
}

type Handler struct {
	Auth        AuthGateway
	Restaurants service.RestaurantServiceInterface
	Menu        service.MenuServiceInterface
	Orders      service.OrderServiceInterface
	Feeds       service.FeedServiceInterface
	Carts       service.CartServiceInterface
	Stats       service.StatsServiceInterface
	Metrics     *metrics.Metrics
	Log         *logrus.Entry
	UploadDir   string

	signInLimiter *RateLimiter
}

func NewHandler(gateway AuthGateway, services Services, m *metrics.Metrics, log *logrus.Entry, uploadDir string) *Handler {
	return &Handler{
		Auth:          gateway,
		Restaurants:   services.Restaurants,
		Menu:          services.Menu,
		Orders:        services.Orders,
		Feeds:         services.Feeds,
		Carts:         services.Carts,
		Stats:         services.Stats,
		Metrics:       m,
		Log:           log,
		UploadDir:     uploadDir,
		signInLimiter: NewRateLimiter(1, 5),
	}
}

// TrustProxies lets sign-in rate limiting key on X-Forwarded-For for
// requests arriving through the given proxies.
func (h *Handler) TrustProxies(proxies []string) error {
	return h.signInLimiter.TrustProxies(proxies)
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")
	r.Handle("/metrics", h.Metrics.Handler()).Methods("GET")

	r.HandleFunc("/api/auth/signup", h.signUp).Methods("POST")
	r.Handle("/api/auth/signin", h.signInLimiter.Handler(http.HandlerFunc(h.signIn))).Methods("POST")
	r.Handle("/api/auth/signout", h.authenticated(h.signOut)).Methods("POST")
	r.Handle("/api/me", h.authenticated(h.getMe)).Methods("GET")
	r.Handle("/api/me", h.authenticated(h.updateMe)).Methods("PUT")

	r.HandleFunc("/api/restaurants", h.getRestaurants).Methods("GET")
	r.HandleFunc("/api/restaurants/{id}", h.getRestaurant).Methods("GET")
	r.Handle("/api/restaurants/{id}", h.owner(h.updateRestaurant)).Methods("PUT")
	r.Handle("/api/restaurants/{id}/image", h.owner(h.uploadRestaurantImage)).Methods("POST")
	r.Handle("/api/restaurants/{id}/image", h.owner(h.deleteRestaurantImage)).Methods("DELETE")
	r.HandleFunc("/api/restaurants/{id}/qrcode", h.getRestaurantQRCode).Methods("GET")

	r.HandleFunc("/api/restaurants/{id}/menu-items", h.getMenuItems).Methods("GET")
	r.Handle("/api/restaurants/{id}/menu-items", h.owner(h.createMenuItem)).Methods("POST")
	r.HandleFunc("/api/restaurants/{id}/menu-items/{itemId}", h.getMenuItem).Methods("GET")
	r.Handle("/api/restaurants/{id}/menu-items/{itemId}", h.owner(h.updateMenuItem)).Methods("PUT")
	r.Handle("/api/restaurants/{id}/menu-items/{itemId}", h.owner(h.deleteMenuItem)).Methods("DELETE")

	r.HandleFunc("/api/restaurants/{id}/categories", h.getCategories).Methods("GET")
	r.Handle("/api/restaurants/{id}/categories", h.owner(h.createCategory)).Methods("POST")
	r.Handle("/api/restaurants/{id}/categories/{categoryId}", h.owner(h.deleteCategory)).Methods("DELETE")

	r.Handle("/api/restaurants/{id}/orders", h.owner(h.getRestaurantOrders)).Methods("GET")
	r.Handle("/api/restaurants/{id}/orders/feed", h.ownerStream(h.restaurantOrderFeed)).Methods("GET")
	r.Handle("/api/restaurants/{id}/orders/{orderId}/status", h.owner(h.updateOrderStatus)).Methods("PATCH")
	r.Handle("/api/restaurants/{id}/stats", h.owner(h.getStats)).Methods("GET")

	r.Handle("/api/me/orders", h.client(h.getMyOrders)).Methods("GET")
	r.Handle("/api/me/orders/feed", h.clientStream(h.myOrderFeed)).Methods("GET")

	r.Handle("/api/carts/{session}", h.client(h.getCart)).Methods("GET")
	r.Handle("/api/carts/{session}/items", h.client(h.addCartItem)).Methods("POST")
	r.Handle("/api/carts/{session}/items/{itemId}", h.client(h.changeCartItem)).Methods("PATCH")
	r.Handle("/api/carts/{session}/items/{itemId}", h.client(h.removeCartItem)).Methods("DELETE")
	r.Handle("/api/carts/{session}/notes", h.client(h.setCartNotes)).Methods("PUT")
	r.Handle("/api/carts/{session}/checkout", h.client(h.checkout)).Methods("POST")

	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.UploadDir)))).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "order-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequest(err)
	}
	return nil
}
