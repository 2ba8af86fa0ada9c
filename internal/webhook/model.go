package webhook

import (
	"crypto/hmac"
	"time"

	"vallet-go/internal/signature"

	"github.com/shopspring/decimal"
)

// Status is the payment-status discriminator carried by an inbound
// callback. Each status maps 1:1 to an event channel of the same name.
type Status string

const (
	StatusPaymentWait         Status = "paymentWait"
	StatusPaymentVerification Status = "paymentVerification"
	StatusPaymentOk           Status = "paymentOk"
	StatusPaymentNotPaid      Status = "paymentNotPaid"
)

// Payment type values reported by the gateway.
const (
	PaymentTypeCard         = "KART"
	PaymentTypeBankTransfer = "BANKA_HAVALE"
	PaymentTypeAbroad       = "YURT_DISI"
)

// Callback is the typed payload of one inbound payment notification, with
// the transport-only status discriminator already stripped. The referenced
// order is a non-owning reference resolved separately.
type Callback struct {
	Hash               string
	PaymentAmount      decimal.Decimal
	OrderPrice         decimal.Decimal
	ProductsTotalPrice decimal.Decimal
	Currency           string
	PaymentType        string
	ProductType        string
	PaymentTime        time.Time
	ConversationID     string
	OrderID            string
	ShopCode           string
	ValletOrderID      string
	ValletOrderNumber  string

	// The gateway signs the amount fields exactly as transmitted, so the
	// raw wire strings are kept alongside the parsed decimals.
	rawPaymentAmount      string
	rawOrderPrice         string
	rawProductsTotalPrice string

	apiHash string
}

// ExpectedHash recomputes the callback signature over the protocol-defined
// field sequence with the shared secret. The amount fields are signed as
// transmitted, not re-normalized: "10.50" and "10.5" parse to the same
// decimal but hash differently.
func (c *Callback) ExpectedHash() string {
	return signature.Sign(
		c.OrderID,
		c.Currency,
		c.rawPaymentAmount,
		c.rawOrderPrice,
		c.rawProductsTotalPrice,
		c.ProductType,
		c.ShopCode,
		c.apiHash,
	)
}

// CheckHash reports whether the declared hash matches the recomputed one.
// Verification is opt-in: the dispatcher forwards unverified callbacks and
// leaves the trust decision to the subscriber.
func (c *Callback) CheckHash() bool {
	return hmac.Equal([]byte(c.Hash), []byte(c.ExpectedHash()))
}
