package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tableorder/config"
	"tableorder/logging"
	httpapi "tableorder/order-svc/internal/api/http"
	"tableorder/order-svc/internal/auth"
	"tableorder/order-svc/internal/blob"
	"tableorder/order-svc/internal/docstore"
	"tableorder/order-svc/internal/metrics"
	"tableorder/order-svc/internal/service"
	"tableorder/order-svc/internal/storage"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnv()
	log := logging.New("order-svc")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs := mustOpenDocstore(ctx, log)

	rdb := config.MustInitRedis()
	defer rdb.Close()

	writer := config.NewKafkaWriter(storage.OrdersTopic)
	defer writer.Close()

	m := metrics.New()

	baseURL := config.GetEnv("PUBLIC_BASE_URL", "http://localhost:8080")
	uploadDir := config.GetEnv("UPLOAD_DIR", "./uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.WithError(err).Fatal("failed to create upload directory")
	}

	restaurantStore := storage.NewRestaurantStore(docs)
	menuStore := storage.NewMenuStore(docs)
	orderStore := storage.NewOrderStore(docs)

	gateway := auth.NewGateway(
		docs,
		storage.NewRedisRevocations(rdb),
		config.MustGetEnv("JWT_SECRET"),
		config.GetDuration("SESSION_TTL", 24*time.Hour),
	)

	orders := service.NewOrderService(orderStore, storage.NewKafkaPublisher(writer), m, log)
	retry := service.RetryPolicy{
		MaxAttempts: config.GetInt("FEED_RETRY_ATTEMPTS", 3),
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}

	handler := httpapi.NewHandler(gateway, httpapi.Services{
		Restaurants: service.NewRestaurantService(
			restaurantStore,
			blob.NewFileStore(uploadDir, baseURL),
			service.DefaultQRGenerator{BaseURL: baseURL},
		),
		Menu:   service.NewMenuService(menuStore),
		Orders: orders,
		Feeds:  service.NewFeedService(orderStore, retry, log),
		Carts: service.NewCartService(
			storage.NewRedisCartStore(rdb, config.GetDuration("CART_TTL", 2*time.Hour)),
			menuStore,
			restaurantStore,
			orders,
			log,
		),
		Stats: service.NewStatsService(storage.NewRedisStatsReader(rdb)),
	}, m, log, uploadDir)
	if err := handler.TrustProxies(config.GetList("TRUSTED_PROXIES")); err != nil {
		log.WithError(err).Fatal("invalid TRUSTED_PROXIES")
	}

	addr := ":" + config.GetEnv("PORT", "8080")
	if err := httpapi.StartServer(ctx, addr, httpapi.NewRouter(handler), log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func mustOpenDocstore(ctx context.Context, log *logrus.Entry) docstore.Store {
	driver := config.GetEnv("DOCSTORE_DRIVER", "postgres")
	log = log.WithField("docstore", driver)

	switch driver {
	case "memory":
		log.Warn("using in-memory document store, data is lost on restart")
		return docstore.NewMemoryStore()
	case "mongo":
		return docstore.NewMongoStore(config.MustInitMongo())
	case "postgres":
		store := docstore.NewPostgresStore(config.MustInitPostgres(), log)
		if err := store.EnsureSchema(ctx); err != nil {
			log.WithError(err).Fatal("failed to ensure document schema")
		}
		listener, err := docstore.NewListener(config.PostgresDSN(), func(event pq.ListenerEventType, err error) {
			if err != nil {
				log.WithError(err).WithField("event", event).Warn("postgres listener event")
			}
		})
		if err != nil {
			log.WithError(err).Fatal("failed to listen for document changes")
		}
		go func() {
			defer listener.Close()
			store.Listen(ctx, listener)
		}()
		return store
	default:
		log.Fatal("unknown DOCSTORE_DRIVER")
		return nil
	}
}
