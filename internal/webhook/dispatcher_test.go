package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"vallet-go/internal/config"
	"vallet-go/internal/events"
	"vallet-go/internal/order"
	"vallet-go/internal/signature"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMerchant() *config.Merchant {
	return &config.Merchant{
		Username:        "merchant",
		Password:        "password",
		ShopCode:        "SHOP01",
		APIHash:         "apihash",
		CallbackOkURL:   "https://shop.example.com/ok",
		CallbackFailURL: "https://shop.example.com/fail",
	}
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *order.Store, *events.Bus) {
	t.Helper()
	merchant := testMerchant()
	bus := events.NewBus()
	store := order.NewStore(merchant, nil, bus, nil)
	return NewDispatcher(merchant, store, bus, nil), store, bus
}

func addOrder(t *testing.T, store *order.Store, orderID string) *order.Order {
	t.Helper()
	o, err := store.NewOrder(order.Params{
		OrderID:  orderID,
		Products: []order.Product{{Name: "Pen", Price: decimal.NewFromInt(10)}},
		Buyer:    order.Buyer{Name: "Ayşe", Email: "ayse@example.com"},
	})
	require.NoError(t, err)
	return o
}

func callbackForm(secret string) url.Values {
	hash := signature.Sign("A1", "TRY", "10", "10", "10", "DIJITAL_URUN", "SHOP01", secret)

	form := url.Values{}
	form.Set("paymentStatus", "paymentOk")
	form.Set("hash", hash)
	form.Set("paymentAmount", "10")
	form.Set("orderPrice", "10")
	form.Set("productsTotalPrice", "10")
	form.Set("currency", "TRY")
	form.Set("paymentType", PaymentTypeCard)
	form.Set("productType", "DIJITAL_URUN")
	form.Set("paymentTime", "2024-05-01 17:30:00")
	form.Set("orderId", "A1")
	form.Set("shopCode", "SHOP01")
	form.Set("valletOrderId", "99")
	form.Set("valletOrderNumber", "V-99")
	return form
}

func TestDispatcher_Parse_VerifiedPayload(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	o := addOrder(t, store, "A1")

	var got []Event
	d.OnPaymentOk(func(ev Event) { got = append(got, ev) })

	status, resolved, cb := d.Parse(context.Background(), callbackForm("apihash"))

	assert.Equal(t, StatusPaymentOk, status)
	assert.Same(t, o, resolved)
	require.NotNil(t, cb)
	assert.True(t, cb.CheckHash())
	assert.True(t, cb.PaymentAmount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "A1", cb.OrderID)

	require.Len(t, got, 1)
	assert.Same(t, o, got[0].Order)
	assert.Same(t, cb, got[0].Callback)
	assert.Equal(t, StatusPaymentOk, got[0].Status)
}

func TestDispatcher_Parse_AmountsSignedAsTransmitted(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	addOrder(t, store, "A1")

	// "10.50" parses to the same decimal as "10.5" but the gateway signs
	// the wire string, so verification must too.
	form := callbackForm("apihash")
	form.Set("paymentAmount", "10.50")
	form.Set("orderPrice", "10.50")
	form.Set("productsTotalPrice", "10.50")
	form.Set("hash", signature.Sign("A1", "TRY", "10.50", "10.50", "10.50", "DIJITAL_URUN", "SHOP01", "apihash"))

	_, _, cb := d.Parse(context.Background(), form)

	assert.True(t, cb.CheckHash())
	assert.True(t, cb.PaymentAmount.Equal(decimal.RequireFromString("10.5")))
}

func TestDispatcher_Parse_WrongSecret(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	o := addOrder(t, store, "A1")

	var got []Event
	d.OnPaymentOk(func(ev Event) { got = append(got, ev) })

	_, resolved, cb := d.Parse(context.Background(), callbackForm("wrong-secret"))

	// The event is still dispatched and the order still resolved; only the
	// verification result differs.
	assert.Same(t, o, resolved)
	assert.False(t, cb.CheckHash())
	require.Len(t, got, 1)
	assert.Same(t, o, got[0].Order)
}

func TestDispatcher_Parse_UnknownOrder(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	var got []Event
	d.OnPaymentOk(func(ev Event) { got = append(got, ev) })

	status, resolved, cb := d.Parse(context.Background(), callbackForm("apihash"))

	assert.Equal(t, StatusPaymentOk, status)
	assert.Nil(t, resolved)
	assert.NotNil(t, cb)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Order)
	assert.Equal(t, "A1", got[0].Callback.OrderID)
}

func TestDispatcher_Parse_RawChannelFirst(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	addOrder(t, store, "A1")

	var sequence []string
	d.OnRaw(func(form url.Values) {
		sequence = append(sequence, "raw")
		// The raw payload still carries the transport-only discriminator.
		assert.Equal(t, "paymentOk", form.Get("paymentStatus"))
	})
	d.OnPaymentOk(func(Event) { sequence = append(sequence, "typed") })

	form := callbackForm("apihash")
	d.Parse(context.Background(), form)

	assert.Equal(t, []string{"raw", "typed"}, sequence)
}

func TestDispatcher_Parse_RawCopyIsDetached(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	var captured url.Values
	d.OnRaw(func(form url.Values) { captured = form })

	form := callbackForm("apihash")
	d.Parse(context.Background(), form)

	form.Set("orderId", "tampered")
	assert.Equal(t, "A1", captured.Get("orderId"))
}

func TestDispatcher_Parse_PaymentTimeNormalized(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	_, _, cb := d.Parse(context.Background(), callbackForm("apihash"))

	// 17:30 local (UTC+3) is 14:30 UTC.
	assert.Equal(t, time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC), cb.PaymentTime.UTC())
}

func TestDispatcher_Parse_StatusChannels(t *testing.T) {
	statuses := []Status{StatusPaymentWait, StatusPaymentVerification, StatusPaymentOk, StatusPaymentNotPaid}

	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			d, _, _ := newTestDispatcher(t)

			counts := map[Status]int{}
			d.OnPaymentWait(func(ev Event) { counts[ev.Status]++ })
			d.OnPaymentVerification(func(ev Event) { counts[ev.Status]++ })
			d.OnPaymentOk(func(ev Event) { counts[ev.Status]++ })
			d.OnPaymentNotPaid(func(ev Event) { counts[ev.Status]++ })

			form := callbackForm("apihash")
			form.Set("paymentStatus", string(status))
			d.Parse(context.Background(), form)

			assert.Equal(t, map[Status]int{status: 1}, counts)
		})
	}
}

func TestDispatcher_Parse_BadAmountsAndTime(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	form := callbackForm("apihash")
	form.Set("paymentAmount", "not-a-number")
	form.Set("paymentTime", "yesterday")

	_, _, cb := d.Parse(context.Background(), form)

	assert.True(t, cb.PaymentAmount.IsZero())
	assert.True(t, cb.PaymentTime.IsZero())
}

func TestHandler_AlwaysAcknowledges(t *testing.T) {
	d, store, _ := newTestDispatcher(t)
	addOrder(t, store, "A1")

	var got []Event
	d.OnPaymentOk(func(ev Event) { got = append(got, ev) })

	t.Run("ValidCallback", func(t *testing.T) {
		body := callbackForm("apihash").Encode()
		req := httptest.NewRequest("POST", "/webhook/payment", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		d.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
		assert.Len(t, got, 1)
	})

	t.Run("UnverifiedCallbackStillAcknowledged", func(t *testing.T) {
		body := callbackForm("wrong-secret").Encode()
		req := httptest.NewRequest("POST", "/webhook/payment", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		d.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	})

	t.Run("UnreadableBodyStillAcknowledged", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/webhook/payment", strings.NewReader("%zz"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		d.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	})
}
