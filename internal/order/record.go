package order

import "context"

// Record is the lossless serialized form of an Order, used exclusively by
// the persistence hook. Restoring a Record goes through Store.Hydrate,
// which neither re-triggers persistence nor announces individual adds.
type Record struct {
	OrderID        string      `json:"orderId"`
	ProductName    string      `json:"productName,omitempty"`
	Products       []Product   `json:"products"`
	ProductType    ProductType `json:"productType,omitempty"`
	Currency       string      `json:"currency,omitempty"`
	Locale         string      `json:"locale,omitempty"`
	ConversationID string      `json:"conversationId,omitempty"`
	Buyer          Buyer       `json:"buyer"`
	Created        bool        `json:"created"`
	Refunded       bool        `json:"refunded"`
	PaymentURL     string      `json:"paymentUrl,omitempty"`
	ValletOrderID  int64       `json:"valletOrderId,omitempty"`
}

func (o *Order) Record() Record {
	return Record{
		OrderID:        o.OrderID,
		ProductName:    o.ProductName,
		Products:       append([]Product(nil), o.Products...),
		ProductType:    o.ProductType,
		Currency:       o.Currency,
		Locale:         o.Locale,
		ConversationID: o.ConversationID,
		Buyer:          o.Buyer,
		Created:        o.Created,
		Refunded:       o.Refunded,
		PaymentURL:     o.PaymentURL,
		ValletOrderID:  o.ValletOrderID,
	}
}

// Persistence is the external load/save capability backing a Store. Load
// runs once at store construction; Save runs fire-and-forget after every
// mutating store operation with the full snapshot plus the touched record.
type Persistence interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, snapshot []Record, added, removed *Record) error
}
