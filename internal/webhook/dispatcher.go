package webhook

import (
	"context"
	"net/url"
	"time"

	"vallet-go/internal/config"
	"vallet-go/internal/events"
	"vallet-go/internal/logger"
	"vallet-go/internal/metrics"
	"vallet-go/internal/order"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// The gateway emits offset-naive local timestamps; they are interpreted in
// a fixed UTC+3 zone.
var gatewayZone = time.FixedZone("UTC+3", 3*60*60)

const paymentTimeLayout = "2006-01-02 15:04:05"

// Event is the payload published on the four payment-status channels.
// Order may be nil when the referenced order is unknown to this store,
// e.g. a callback arriving after a restart before rehydration completed.
type Event struct {
	Status   Status
	Order    *order.Order
	Callback *Callback
}

// Dispatcher turns an untrusted inbound callback into a verified-on-demand
// domain event routed to subscribers.
type Dispatcher struct {
	merchant *config.Merchant
	store    *order.Store
	bus      *events.Bus
	metrics  *metrics.Metrics
}

func NewDispatcher(m *config.Merchant, store *order.Store, bus *events.Bus, mt *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		merchant: m,
		store:    store,
		bus:      bus,
		metrics:  mt,
	}
}

// Parse processes one inbound callback: it publishes the unmodified form
// on the raw channel, builds the typed payload, resolves the referenced
// order and publishes the event on the status channel. It never fails;
// trust evaluation is left to subscribers via Callback.CheckHash.
func (d *Dispatcher) Parse(ctx context.Context, form url.Values) (Status, *order.Order, *Callback) {
	log := logger.FromCtx(ctx)
	d.metrics.RecordCallbackReceived()

	// Audit subscribers see the payload before any processing.
	d.bus.Publish(events.ChannelRaw, cloneValues(form))

	status := Status(form.Get("paymentStatus"))

	cb := &Callback{
		Hash:               form.Get("hash"),
		PaymentAmount:      parseAmount(log, form, "paymentAmount"),
		OrderPrice:         parseAmount(log, form, "orderPrice"),
		ProductsTotalPrice: parseAmount(log, form, "productsTotalPrice"),

		rawPaymentAmount:      form.Get("paymentAmount"),
		rawOrderPrice:         form.Get("orderPrice"),
		rawProductsTotalPrice: form.Get("productsTotalPrice"),

		Currency:           form.Get("currency"),
		PaymentType:        form.Get("paymentType"),
		ProductType:        form.Get("productType"),
		PaymentTime:        parsePaymentTime(log, form.Get("paymentTime")),
		ConversationID:     form.Get("conversationId"),
		OrderID:            form.Get("orderId"),
		ShopCode:           form.Get("shopCode"),
		ValletOrderID:      form.Get("valletOrderId"),
		ValletOrderNumber:  form.Get("valletOrderNumber"),
		apiHash:            d.merchant.APIHash,
	}

	o := d.store.Resolve(cb.OrderID)
	if o == nil {
		log.Warn("callback references unknown order", zap.String("order_id", cb.OrderID))
	}

	if !cb.CheckHash() {
		d.metrics.RecordHashMismatch()
		log.Warn("callback hash mismatch",
			zap.String("order_id", cb.OrderID),
			zap.String("status", string(status)),
		)
	}

	d.bus.Publish(events.Channel(status), Event{Status: status, Order: o, Callback: cb})
	d.metrics.RecordCallbackDispatched(string(status))

	log.Info("callback dispatched",
		zap.String("order_id", cb.OrderID),
		zap.String("status", string(status)),
		zap.Bool("order_resolved", o != nil),
	)

	return status, o, cb
}

func cloneValues(form url.Values) url.Values {
	clone := make(url.Values, len(form))
	for key, values := range form {
		clone[key] = append([]string(nil), values...)
	}
	return clone
}

func parseAmount(log *zap.Logger, form url.Values, field string) decimal.Decimal {
	raw := form.Get(field)
	if raw == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		log.Warn("unparseable callback amount", zap.String("field", field), zap.String("value", raw))
		return decimal.Zero
	}
	return amount
}

func parsePaymentTime(log *zap.Logger, raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.ParseInLocation(paymentTimeLayout, raw, gatewayZone)
	if err != nil {
		log.Warn("unparseable payment time", zap.String("value", raw))
		return time.Time{}
	}
	return ts
}

// OnRaw subscribes to unmodified inbound payloads, published before any
// parsing or verification.
func (d *Dispatcher) OnRaw(fn func(url.Values)) {
	d.bus.Subscribe(events.ChannelRaw, func(p any) {
		if form, ok := p.(url.Values); ok {
			fn(form)
		}
	})
}

func (d *Dispatcher) OnPaymentWait(fn func(Event)) {
	d.subscribe(events.ChannelPaymentWait, fn)
}

func (d *Dispatcher) OnPaymentVerification(fn func(Event)) {
	d.subscribe(events.ChannelPaymentVerification, fn)
}

func (d *Dispatcher) OnPaymentOk(fn func(Event)) {
	d.subscribe(events.ChannelPaymentOk, fn)
}

func (d *Dispatcher) OnPaymentNotPaid(fn func(Event)) {
	d.subscribe(events.ChannelPaymentNotPaid, fn)
}

func (d *Dispatcher) subscribe(ch events.Channel, fn func(Event)) {
	d.bus.Subscribe(ch, func(p any) {
		if ev, ok := p.(Event); ok {
			fn(ev)
		}
	})
}
