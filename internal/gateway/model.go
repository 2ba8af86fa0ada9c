package gateway

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// BuyerInfo is the buyer record sent with a payment-link request.
type BuyerInfo struct {
	Name      string
	Surname   string
	GsmNumber string
	Email     string
	Address   string
	Country   string
	City      string
	District  string
}

// CreatePaymentRequest carries the signed fields of a create-payment-link
// call. ProductData is the JSON-encoded product list as the API expects it.
type CreatePaymentRequest struct {
	OrderID            string
	ConversationID     string
	Currency           string
	Locale             string
	OrderPrice         decimal.Decimal
	ProductsTotalPrice decimal.Decimal
	ProductType        string
	ProductData        string
	Buyer              BuyerInfo
}

type CreatePaymentResponse struct {
	PaymentPageURL string
	ValletOrderID  int64
}

type CreateRefundRequest struct {
	OrderID       string
	ValletOrderID int64
	Amount        decimal.Decimal
}

type CreateRefundResponse struct {
	Status string
}

// Wire shapes of the gateway's JSON responses.
type createPaymentResult struct {
	Status         string      `json:"status"`
	PaymentPageURL string      `json:"payment_page_url"`
	ValletOrderID  json.Number `json:"ValletOrderId"`
	ErrorMessage   string      `json:"errorMessage"`
}

type createRefundResult struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage"`
}
