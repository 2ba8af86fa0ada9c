package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vallet-go/internal/config"
	"vallet-go/internal/logger"
	"vallet-go/internal/metrics"
	"vallet-go/internal/signature"

	"go.uber.org/zap"
)

const valletBaseURL = "https://www.vallet.com.tr/api/v1"

// Client is the outbound surface of the Vallet API: two signed,
// form-encoded POST operations returning JSON.
type Client interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error)
	CreateRefund(ctx context.Context, req CreateRefundRequest) (*CreateRefundResponse, error)
}

type valletClient struct {
	merchant   *config.Merchant
	httpClient *http.Client
	baseURL    string
	referer    string
	metrics    *metrics.Metrics
}

func NewClient(m *config.Merchant, mt *metrics.Metrics) Client {
	if m.Username == "" || m.APIHash == "" {
		logger.L().Warn("Vallet merchant credentials are incomplete")
	}

	referer := ""
	if u, err := url.Parse(m.CallbackOkURL); err == nil {
		referer = u.Host
	}

	return &valletClient{
		merchant: m,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: valletBaseURL,
		referer: referer,
		metrics: mt,
	}
}

func (c *valletClient) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", req.OrderID),
		zap.String("currency", req.Currency),
		zap.String("order_price", req.OrderPrice.String()),
	)

	orderPrice := req.OrderPrice.String()
	productsTotal := req.ProductsTotalPrice.String()

	// Protocol-defined signing order for create-payment-link.
	hash := signature.Sign(
		c.merchant.Username,
		c.merchant.Password,
		c.merchant.ShopCode,
		req.OrderID,
		req.Currency,
		orderPrice,
		productsTotal,
		req.ProductType,
		c.merchant.CallbackOkURL,
		c.merchant.CallbackFailURL,
		c.merchant.APIHash,
	)

	body := url.Values{}
	body.Set("userName", c.merchant.Username)
	body.Set("password", c.merchant.Password)
	body.Set("shopCode", c.merchant.ShopCode)
	body.Set("productData", req.ProductData)
	body.Set("productsTotalPrice", productsTotal)
	body.Set("orderPrice", orderPrice)
	body.Set("currency", req.Currency)
	body.Set("orderId", req.OrderID)
	body.Set("locale", req.Locale)
	if req.ConversationID != "" {
		body.Set("conversationId", req.ConversationID)
	}
	body.Set("productType", req.ProductType)
	body.Set("buyerName", req.Buyer.Name)
	body.Set("buyerSurName", req.Buyer.Surname)
	body.Set("buyerGsmNo", req.Buyer.GsmNumber)
	body.Set("buyerEmail", req.Buyer.Email)
	body.Set("buyerAdress", req.Buyer.Address)
	body.Set("buyerCountry", req.Buyer.Country)
	body.Set("buyerCity", req.Buyer.City)
	body.Set("buyerDistrict", req.Buyer.District)
	body.Set("callbackOkUrl", c.merchant.CallbackOkURL)
	body.Set("callbackFailUrl", c.merchant.CallbackFailURL)
	body.Set("hash", hash)

	log.Info("Sending create-payment-link request to Vallet")

	var res createPaymentResult
	if err := c.postForm(ctx, "/create-payment-link", body, &res); err != nil {
		c.metrics.RecordGatewayError()
		log.Error("Vallet create-payment-link failed", zap.Error(err))
		return nil, err
	}

	if res.Status != "success" {
		c.metrics.RecordGatewayError()
		log.Error("Vallet returned error status", zap.String("error_message", res.ErrorMessage))
		return nil, fmt.Errorf("vallet error: %s", res.ErrorMessage)
	}

	valletOrderID, _ := res.ValletOrderID.Int64()

	c.metrics.RecordPaymentCreated()
	log.Info("Vallet payment link created",
		zap.String("payment_page_url", res.PaymentPageURL),
		zap.Int64("vallet_order_id", valletOrderID),
	)

	return &CreatePaymentResponse{
		PaymentPageURL: res.PaymentPageURL,
		ValletOrderID:  valletOrderID,
	}, nil
}

func (c *valletClient) CreateRefund(ctx context.Context, req CreateRefundRequest) (*CreateRefundResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_id", req.OrderID),
		zap.Int64("vallet_order_id", req.ValletOrderID),
		zap.String("amount", req.Amount.String()),
	)

	valletOrderID := strconv.FormatInt(req.ValletOrderID, 10)
	amount := req.Amount.String()

	// Refunds sign a different field sequence, including the gateway's
	// own order id.
	hash := signature.Sign(
		c.merchant.Username,
		c.merchant.Password,
		c.merchant.ShopCode,
		valletOrderID,
		req.OrderID,
		amount,
		c.merchant.APIHash,
	)

	body := url.Values{}
	body.Set("userName", c.merchant.Username)
	body.Set("password", c.merchant.Password)
	body.Set("shopCode", c.merchant.ShopCode)
	body.Set("valletOrderId", valletOrderID)
	body.Set("orderId", req.OrderID)
	body.Set("amount", amount)
	body.Set("hash", hash)

	log.Info("Sending create-refund request to Vallet")

	var res createRefundResult
	if err := c.postForm(ctx, "/create-refund", body, &res); err != nil {
		c.metrics.RecordGatewayError()
		log.Error("Vallet create-refund failed", zap.Error(err))
		return nil, err
	}

	if res.Status != "success" {
		c.metrics.RecordGatewayError()
		log.Error("Vallet refund returned error status", zap.String("error_message", res.ErrorMessage))
		return nil, fmt.Errorf("vallet refund error: %s", res.ErrorMessage)
	}

	c.metrics.RecordRefundCreated()
	log.Info("Vallet refund created")

	return &CreateRefundResponse{Status: res.Status}, nil
}

func (c *valletClient) postForm(ctx context.Context, path string, body url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, strings.NewReader(body.Encode()))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read vallet response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vallet error: %s", string(bodyBytes))
	}

	return json.Unmarshal(bodyBytes, out)
}
