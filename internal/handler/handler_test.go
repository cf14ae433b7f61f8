package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"orderpay/internal/config"
	"orderpay/internal/gateway"
	"orderpay/internal/infrastructure/lock"
	"orderpay/internal/model"
	"orderpay/internal/repository"
	"orderpay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req *service.CreateOrderRequest) (*service.CreateOrderResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*service.CreateOrderResult)
	return result, args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	args := m.Called(ctx, orderID)
	order, _ := args.Get(0).(*model.Order)
	return order, args.Error(1)
}

func (m *MockOrderService) AddItems(ctx context.Context, orderID string, items []service.OrderItemInput) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID, items)
	result, _ := args.Get(0).([]model.OrderItem)
	return result, args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) VerifyPayment(ctx context.Context, req *service.VerifyPaymentRequest) (*service.VerifyPaymentResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*service.VerifyPaymentResult)
	return result, args.Error(1)
}

func newTestRouter(rl config.RateLimitConfig) (*gin.Engine, *MockOrderService, *MockPaymentService) {
	orders := new(MockOrderService)
	payments := new(MockPaymentService)
	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		RateLimit: rl,
	}
	return SetupRouter(NewHandler(orders, payments), cfg), orders, payments
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateOrderHandler_Success(t *testing.T) {
	r, orders, _ := newTestRouter(config.RateLimitConfig{})

	orders.On("CreateOrder", mock.Anything, &service.CreateOrderRequest{
		Amount: 500, Name: "Asha", Address: "12 MG Road", Pincode: "560001",
	}).Return(&service.CreateOrderResult{RazorpayOrderID: "order_abc", Amount: 50000}, nil)

	w := doRequest(r, http.MethodPost, "/api/create-order/",
		`{"amount":500,"name":"Asha","address":"12 MG Road","pincode":"560001"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"razorpay_order_id":"order_abc","amount":50000}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	orders.AssertExpectations(t)
}

func TestCreateOrderHandler_BadInput(t *testing.T) {
	bodies := map[string]string{
		"not json":       `amount=500`,
		"missing amount": `{"name":"Asha","address":"Road","pincode":"560001"}`,
		"string amount":  `{"amount":"lots","name":"Asha","address":"Road","pincode":"560001"}`,
		"fractional":     `{"amount":10.5,"name":"Asha","address":"Road","pincode":"560001"}`,
		"missing name":   `{"amount":500,"address":"Road","pincode":"560001"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			r, orders, _ := newTestRouter(config.RateLimitConfig{})

			w := doRequest(r, http.MethodPost, "/api/create-order/", body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeBody(t, w), "error")
			orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateOrderHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid", service.ErrInvalidInput, http.StatusBadRequest},
		{"gateway timeout", gateway.ErrTimeout, http.StatusGatewayTimeout},
		{"gateway rejected", &gateway.APIError{StatusCode: 400}, http.StatusBadGateway},
		{"gateway down", service.ErrGatewayUnavailable, http.StatusBadGateway},
		{"store", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, orders, _ := newTestRouter(config.RateLimitConfig{})
			orders.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := doRequest(r, http.MethodPost, "/api/create-order/",
				`{"amount":500,"name":"Asha","address":"Road","pincode":"560001"}`)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestWrongMethod(t *testing.T) {
	r, orders, payments := newTestRouter(config.RateLimitConfig{})

	w := doRequest(r, http.MethodGet, "/api/create-order/", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"POST required"}`, w.Body.String())

	w = doRequest(r, http.MethodPut, "/api/verify-payment/", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"POST required"}`, w.Body.String())

	w = doRequest(r, http.MethodPost, "/api/orders/order_abc/", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"GET required"}`, w.Body.String())

	orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	payments.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything)
}

func TestVerifyPaymentHandler(t *testing.T) {
	body := `{"razorpay_order_id":"order_abc","razorpay_payment_id":"pay_123","razorpay_signature":"sig"}`
	want := &service.VerifyPaymentRequest{
		RazorpayOrderID: "order_abc", RazorpayPaymentID: "pay_123", RazorpaySignature: "sig",
	}

	t.Run("paid", func(t *testing.T) {
		r, _, payments := newTestRouter(config.RateLimitConfig{})
		payments.On("VerifyPayment", mock.Anything, want).
			Return(&service.VerifyPaymentResult{Status: model.OrderStatusPaid, OrderID: "order_abc"}, nil)

		w := doRequest(r, http.MethodPost, "/api/verify-payment/", body)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"PAID","order_id":"order_abc"}`, w.Body.String())
	})

	t.Run("bad signature", func(t *testing.T) {
		r, _, payments := newTestRouter(config.RateLimitConfig{})
		payments.On("VerifyPayment", mock.Anything, want).
			Return(&service.VerifyPaymentResult{Status: model.OrderStatusFailed}, nil)

		w := doRequest(r, http.MethodPost, "/api/verify-payment/", body)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"FAILED"}`, w.Body.String())
	})

	t.Run("unknown order", func(t *testing.T) {
		r, _, payments := newTestRouter(config.RateLimitConfig{})
		payments.On("VerifyPayment", mock.Anything, want).Return(nil, repository.ErrOrderNotFound)

		w := doRequest(r, http.MethodPost, "/api/verify-payment/", body)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("locked", func(t *testing.T) {
		r, _, payments := newTestRouter(config.RateLimitConfig{})
		payments.On("VerifyPayment", mock.Anything, want).Return(nil, lock.ErrLockFailed)

		w := doRequest(r, http.MethodPost, "/api/verify-payment/", body)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing field", func(t *testing.T) {
		r, _, payments := newTestRouter(config.RateLimitConfig{})

		w := doRequest(r, http.MethodPost, "/api/verify-payment/", `{"razorpay_order_id":"order_abc"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		payments.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything)
	})
}

func TestGetOrderHandler(t *testing.T) {
	r, orders, _ := newTestRouter(config.RateLimitConfig{})

	orders.On("GetOrder", mock.Anything, "order_abc").Return(&model.Order{
		OrderID:     "order_abc",
		TotalAmount: decimal.NewFromInt(500),
		Status:      model.OrderStatusPending,
	}, nil)
	orders.On("GetOrder", mock.Anything, "order_nope").Return(nil, repository.ErrOrderNotFound)

	w := doRequest(r, http.MethodGet, "/api/orders/order_abc/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "order_abc", body["order_id"])
	assert.Equal(t, "PENDING", body["status"])

	w = doRequest(r, http.MethodGet, "/api/orders/order_nope/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"order not found"}`, w.Body.String())
}

func TestAddItemsHandler(t *testing.T) {
	r, orders, _ := newTestRouter(config.RateLimitConfig{})

	orders.On("AddItems", mock.Anything, "order_abc", mock.MatchedBy(func(in []service.OrderItemInput) bool {
		return len(in) == 1 && in[0].ProductName == "Tea" && in[0].Quantity == 2 &&
			in[0].Price.Equal(decimal.RequireFromString("12.5"))
	})).Return([]model.OrderItem{{ID: 1, ProductName: "Tea", Quantity: 2}}, nil)

	w := doRequest(r, http.MethodPost, "/api/orders/order_abc/items/",
		`{"items":[{"product_name":"Tea","price":"12.5","quantity":2}]}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodPost, "/api/orders/order_abc/items/",
		`{"items":[{"product_name":"Tea","price":"12.5","quantity":0}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/api/orders/order_abc/items/", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	orders.AssertNumberOfCalls(t, "AddItems", 1)
}

func TestHealthAndMetrics(t *testing.T) {
	r, _, _ := newTestRouter(config.RateLimitConfig{})

	w := doRequest(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = doRequest(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "orderpay_http_requests_total")
}

func TestRequestIDEchoed(t *testing.T) {
	r, _, _ := newTestRouter(config.RateLimitConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
}

func TestRecoveryMiddleware(t *testing.T) {
	r, orders, _ := newTestRouter(config.RateLimitConfig{})
	orders.On("GetOrder", mock.Anything, "boom").Run(func(mock.Arguments) { panic("boom") })

	w := doRequest(r, http.MethodGet, "/api/orders/boom/", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestRateLimitMiddleware(t *testing.T) {
	r, _, _ := newTestRouter(config.RateLimitConfig{RPS: 0.001, Burst: 2})

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(r, http.MethodGet, "/health", "").Code)
}

func TestIPRateLimiter_SeparateBuckets(t *testing.T) {
	l := NewIPRateLimiter(0.001, 1)

	assert.True(t, l.Allow("ip:1.1.1.1"))
	assert.False(t, l.Allow("ip:1.1.1.1"))
	assert.True(t, l.Allow("ip:2.2.2.2"))
}
