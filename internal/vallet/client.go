package vallet

import (
	"context"
	"net/http"

	"vallet-go/internal/config"
	"vallet-go/internal/events"
	"vallet-go/internal/gateway"
	"vallet-go/internal/metrics"
	"vallet-go/internal/order"
	"vallet-go/internal/webhook"
)

// Client bundles the gateway client, the order store and the callback
// dispatcher around one merchant identity.
type Client struct {
	Merchant  *config.Merchant
	Bus       *events.Bus
	Gateway   gateway.Client
	Orders    *order.Store
	Callbacks *webhook.Dispatcher
}

type Options struct {
	// Persistence backs the order store; nil keeps the store in memory only.
	Persistence order.Persistence
	// Metrics enables Prometheus instrumentation; nil disables it.
	Metrics *metrics.Metrics
}

func New(m *config.Merchant, opts Options) *Client {
	bus := events.NewBus()
	gw := gateway.NewClient(m, opts.Metrics)
	store := order.NewStore(m, gw, bus, opts.Persistence)

	return &Client{
		Merchant:  m,
		Bus:       bus,
		Gateway:   gw,
		Orders:    store,
		Callbacks: webhook.NewDispatcher(m, store, bus, opts.Metrics),
	}
}

// CreateOrder constructs and registers an order, then immediately issues
// the signed creation call.
func (c *Client) CreateOrder(ctx context.Context, p order.Params) (*order.Order, error) {
	o, err := c.Orders.NewOrder(p)
	if err != nil {
		return nil, err
	}
	if err := o.Create(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// Bind registers the callback handler for inbound POSTs at the given path.
func (c *Client) Bind(mux *http.ServeMux, path string) {
	mux.Handle("POST "+path, c.Callbacks.Handler())
}
