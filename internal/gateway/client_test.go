package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"vallet-go/internal/config"
	"vallet-go/internal/signature"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRoundTripper allows us to mock the HTTP response
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

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

func TestClient_CreatePayment(t *testing.T) {
	merchant := testMerchant()
	c := NewClient(merchant, nil).(*valletClient)

	req := CreatePaymentRequest{
		OrderID:            "A1",
		Currency:           "TRY",
		Locale:             "tr",
		OrderPrice:         decimal.NewFromInt(10),
		ProductsTotalPrice: decimal.NewFromInt(10),
		ProductType:        "DIJITAL_URUN",
		ProductData:        `[{"productName":"Pen","productPrice":"10"}]`,
		Buyer: BuyerInfo{
			Name:      "Ayşe",
			Surname:   "Yılmaz",
			GsmNumber: "05551234567",
			Email:     "ayse@example.com",
			Address:   "Some Street 1",
			Country:   "Türkiye",
			City:      "İstanbul",
			District:  "Kadıköy",
		},
	}

	t.Run("Success", func(t *testing.T) {
		respBody := `{
			"status": "success",
			"payment_page_url": "https://pay/x",
			"ValletOrderId": "99"
		}`

		c.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "https://www.vallet.com.tr/api/v1/create-payment-link", r.URL.String())
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			assert.Equal(t, "shop.example.com", r.Header.Get("Referer"))

			require.NoError(t, r.ParseForm())
			assert.Equal(t, "merchant", r.PostForm.Get("userName"))
			assert.Equal(t, "A1", r.PostForm.Get("orderId"))
			assert.Equal(t, "10", r.PostForm.Get("orderPrice"))

			wantHash := signature.Sign(
				"merchant", "password", "SHOP01",
				"A1", "TRY", "10", "10", "DIJITAL_URUN",
				"https://shop.example.com/ok", "https://shop.example.com/fail",
				"apihash",
			)
			assert.Equal(t, wantHash, r.PostForm.Get("hash"))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(respBody)),
				Header:     make(http.Header),
			}
		})

		resp, err := c.CreatePayment(context.Background(), req)
		assert.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "https://pay/x", resp.PaymentPageURL)
		assert.Equal(t, int64(99), resp.ValletOrderID)
	})

	t.Run("NumericValletOrderId", func(t *testing.T) {
		respBody := `{
			"status": "success",
			"payment_page_url": "https://pay/y",
			"ValletOrderId": 123
		}`

		c.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(respBody)),
				Header:     make(http.Header),
			}
		})

		resp, err := c.CreatePayment(context.Background(), req)
		assert.NoError(t, err)
		assert.Equal(t, int64(123), resp.ValletOrderID)
	})

	t.Run("GatewayError", func(t *testing.T) {
		c.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`{"status":"error","errorMessage":"invalid shop code"}`)),
				Header:     make(http.Header),
			}
		})

		_, err := c.CreatePayment(context.Background(), req)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid shop code")
	})

	t.Run("HTTPError", func(t *testing.T) {
		c.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			return &http.Response{
				StatusCode: http.StatusBadGateway,
				Body:       io.NopCloser(bytes.NewBufferString(`bad gateway`)),
				Header:     make(http.Header),
			}
		})

		_, err := c.CreatePayment(context.Background(), req)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "vallet error")
	})

	t.Run("NetworkError", func(t *testing.T) {
		c.httpClient.Transport = MockRoundTripperWithError(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})

		_, err := c.CreatePayment(context.Background(), req)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("InvalidJSONResponse", func(t *testing.T) {
		c.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`{invalid-json`)),
				Header:     make(http.Header),
			}
		})

		_, err := c.CreatePayment(context.Background(), req)
		assert.Error(t, err)
	})
}

func TestClient_CreateRefund(t *testing.T) {
	merchant := testMerchant()
	c := NewClient(merchant, nil).(*valletClient)

	req := CreateRefundRequest{
		OrderID:       "A1",
		ValletOrderID: 99,
		Amount:        decimal.NewFromInt(10),
	}

	t.Run("Success", func(t *testing.T) {
		c.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			assert.Equal(t, "https://www.vallet.com.tr/api/v1/create-refund", r.URL.String())

			require.NoError(t, r.ParseForm())
			assert.Equal(t, "99", r.PostForm.Get("valletOrderId"))
			assert.Equal(t, "10", r.PostForm.Get("amount"))

			wantHash := signature.Sign(
				"merchant", "password", "SHOP01",
				"99", "A1", "10",
				"apihash",
			)
			assert.Equal(t, wantHash, r.PostForm.Get("hash"))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`{"status":"success"}`)),
				Header:     make(http.Header),
			}
		})

		resp, err := c.CreateRefund(context.Background(), req)
		assert.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "success", resp.Status)
	})

	t.Run("GatewayError", func(t *testing.T) {
		c.httpClient.Transport = MockRoundTripper(func(r *http.Request) *http.Response {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`{"status":"error","errorMessage":"refund window closed"}`)),
				Header:     make(http.Header),
			}
		})

		_, err := c.CreateRefund(context.Background(), req)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "refund window closed")
	})

	t.Run("NetworkError", func(t *testing.T) {
		c.httpClient.Transport = MockRoundTripperWithError(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("net error")
		})

		_, err := c.CreateRefund(context.Background(), req)
		assert.Error(t, err)
	})
}

func TestNewClient(t *testing.T) {
	t.Run("EmptyCredentials", func(t *testing.T) {
		c := NewClient(&config.Merchant{}, nil)
		assert.NotNil(t, c)
	})

	t.Run("BadCallbackURL", func(t *testing.T) {
		c := NewClient(&config.Merchant{
			Username:      "merchant",
			APIHash:       "apihash",
			CallbackOkURL: "://not-a-url",
		}, nil).(*valletClient)
		assert.Equal(t, "", c.referer)
	})
}
