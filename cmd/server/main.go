package main

import (
	"net/http"

	"vallet-go/internal/config"
	"vallet-go/internal/db"
	"vallet-go/internal/logger"
	"vallet-go/internal/metrics"
	"vallet-go/internal/middleware"
	"vallet-go/internal/order"
	"vallet-go/internal/storage"
	"vallet-go/internal/vallet"
	"vallet-go/internal/webhook"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database, err := db.Open(cfg)
	if err != nil {
		log.Fatal("failed to connect db", zap.Error(err))
	}
	defer database.Close()

	client := vallet.New(&cfg.Merchant, vallet.Options{
		Persistence: storage.NewPostgresStore(database),
		Metrics:     metrics.New(),
	})

	client.Orders.OnAdd(func(o *order.Order) {
		log.Info("order added", zap.String("order_id", o.OrderID))
	})
	client.Callbacks.OnPaymentOk(func(ev webhook.Event) {
		if ev.Order == nil || !ev.Callback.CheckHash() {
			return
		}
		log.Info("payment confirmed",
			zap.String("order_id", ev.Callback.OrderID),
			zap.String("vallet_order_id", ev.Callback.ValletOrderID),
			zap.String("amount", ev.Callback.PaymentAmount.String()),
		)
	})
	client.Callbacks.OnPaymentNotPaid(func(ev webhook.Event) {
		log.Warn("payment failed", zap.String("order_id", ev.Callback.OrderID))
	})

	mux := http.NewServeMux()
	client.Bind(mux, cfg.WebhookPath)
	mux.Handle("/metrics", promhttp.Handler())

	handler := logger.RequestIDMiddleware(
		logger.LoggingMiddleware(
			middleware.RateLimitMiddleware(cfg.WebhookPath, mux),
		),
	)

	<-client.Orders.Ready()
	log.Info("vallet server running",
		zap.String("port", cfg.AppPort),
		zap.String("webhook_path", cfg.WebhookPath),
		zap.Int("orders_loaded", client.Orders.Len()),
	)
	log.Fatal("server stopped", zap.Error(http.ListenAndServe(":"+cfg.AppPort, handler)))
}
