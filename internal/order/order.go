package order

import (
	"context"
	"encoding/json"
	"fmt"

	"vallet-go/internal/config"
	"vallet-go/internal/gateway"
	"vallet-go/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Order is one checkout transaction. Its lifecycle runs Draft -> Created
// (successful payment-link call) -> Refunded (successful refund call);
// every other transition is rejected with a named error.
//
// Lifecycle operations are not serialized by the entity itself; callers
// must not issue overlapping Create/Refund calls on the same Order.
type Order struct {
	OrderID        string
	ProductName    string
	Products       []Product
	ProductType    ProductType
	Currency       string
	Locale         string
	ConversationID string
	Buyer          Buyer

	Created  bool
	Refunded bool

	// Assigned by a successful Create only.
	PaymentURL    string
	ValletOrderID int64

	merchant *config.Merchant
	gw       gateway.Client
}

// buildOrder validates the params, fills unset optional fields from the
// merchant defaults and returns an unregistered Draft order.
func buildOrder(m *config.Merchant, gw gateway.Client, p Params) (*Order, error) {
	if p.OrderID == "" {
		return nil, ErrMissingOrderID
	}
	if len(p.Products) == 0 {
		return nil, ErrNoProducts
	}
	if p.Buyer.Name == "" || p.Buyer.Email == "" {
		return nil, ErrMissingBuyer
	}

	o := &Order{
		OrderID:        p.OrderID,
		ProductName:    pick(p.ProductName, m.Defaults.ProductName, fallbackProductName),
		Products:       append([]Product(nil), p.Products...),
		ProductType:    ProductType(pick(string(p.ProductType), m.Defaults.ProductType, string(fallbackProductType))),
		Currency:       pick(p.Currency, m.Defaults.Currency, fallbackCurrency),
		Locale:         pick(p.Locale, m.Defaults.Locale, fallbackLocale),
		ConversationID: p.ConversationID,
		Buyer:          p.Buyer,
		merchant:       m,
		gw:             gw,
	}

	if len(o.ProductName) > maxNameLength {
		return nil, fmt.Errorf("productName %w", ErrNameTooLong)
	}
	if len(o.ConversationID) > maxNameLength {
		return nil, fmt.Errorf("conversationId %w", ErrNameTooLong)
	}
	for i := range o.Products {
		if len(o.Products[i].Name) > maxNameLength {
			return nil, fmt.Errorf("products[%d].productName %w", i, ErrNameTooLong)
		}
		if o.Products[i].Type == "" {
			o.Products[i].Type = o.ProductType
		}
	}

	return o, nil
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Total recomputes the order total as the sum of product prices. It is
// never cached.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range o.Products {
		total = total.Add(p.Price)
	}
	return total
}

// Create issues the signed payment-link request. On a gateway error the
// order stays in Draft, so the call is safely retryable.
func (o *Order) Create(ctx context.Context) error {
	if o.Created {
		return ErrAlreadyCreated
	}

	log := logger.FromCtx(ctx).With(zap.String("order_id", o.OrderID))

	productData, err := json.Marshal(o.Products)
	if err != nil {
		return err
	}
	total := o.Total()

	resp, err := o.gw.CreatePayment(ctx, gateway.CreatePaymentRequest{
		OrderID:            o.OrderID,
		ConversationID:     o.ConversationID,
		Currency:           o.Currency,
		Locale:             o.Locale,
		OrderPrice:         total,
		ProductsTotalPrice: total,
		ProductType:        string(o.ProductType),
		ProductData:        string(productData),
		Buyer: gateway.BuyerInfo{
			Name:      o.Buyer.Name,
			Surname:   o.Buyer.Surname,
			GsmNumber: o.Buyer.GsmNumber,
			Email:     o.Buyer.Email,
			Address:   o.Buyer.Address,
			Country:   o.Buyer.Country,
			City:      o.Buyer.City,
			District:  o.Buyer.District,
		},
	})
	if err != nil {
		return err
	}

	o.PaymentURL = resp.PaymentPageURL
	o.ValletOrderID = resp.ValletOrderID
	o.Created = true

	log.Info("order created", zap.String("payment_url", o.PaymentURL), zap.Int64("vallet_order_id", o.ValletOrderID))
	return nil
}

// Refund issues the signed refund request. A zero amount refunds the full
// order total. On a gateway error the order stays Created.
func (o *Order) Refund(ctx context.Context, amount decimal.Decimal) error {
	if !o.Created {
		return ErrNotCreated
	}
	if o.Refunded {
		return ErrAlreadyRefunded
	}

	if amount.IsZero() {
		amount = o.Total()
	}

	_, err := o.gw.CreateRefund(ctx, gateway.CreateRefundRequest{
		OrderID:       o.OrderID,
		ValletOrderID: o.ValletOrderID,
		Amount:        amount,
	})
	if err != nil {
		return err
	}

	o.Refunded = true

	logger.FromCtx(ctx).Info("order refunded",
		zap.String("order_id", o.OrderID),
		zap.String("amount", amount.String()),
	)
	return nil
}
