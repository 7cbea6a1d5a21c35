package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tableorder/agg-svc/internal/service"
	"tableorder/agg-svc/internal/storage"
	"tableorder/config"
	"tableorder/logging"
)

func main() {
	config.LoadEnv()
	log := logging.New("agg-svc")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.MustInitRedis()
	defer rdb.Close()

	reader := config.NewKafkaReader(config.GetEnv("ORDERS_TOPIC", "orders"), "agg-svc-consumer")
	defer reader.Close()

	consumer := service.NewConsumer(reader, storage.NewStore(rdb), log)
	consumer.Start(ctx)
}
