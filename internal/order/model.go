package order

import (
	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductTypeDigital  ProductType = "DIJITAL_URUN"
	ProductTypePhysical ProductType = "FIZIKSEL_URUN"
)

// Fallbacks used when neither the caller nor the merchant defaults set a
// value.
const (
	fallbackProductName = "Ödeme"
	fallbackProductType = ProductTypeDigital
	fallbackLocale      = "tr"
	fallbackCurrency    = "TRY"
)

const maxNameLength = 200

type Product struct {
	Name  string          `json:"productName"`
	Price decimal.Decimal `json:"productPrice"`
	Type  ProductType     `json:"productType,omitempty"`
}

type Buyer struct {
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	GsmNumber string `json:"gsmNumber"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Country   string `json:"country"`
	City      string `json:"city"`
	District  string `json:"district"`
}

// Params is the caller-supplied construction input for an Order. Optional
// fields left empty are filled from the merchant defaults.
type Params struct {
	OrderID        string
	ProductName    string
	Products       []Product
	ProductType    ProductType
	Currency       string
	Locale         string
	ConversationID string
	Buyer          Buyer
}
