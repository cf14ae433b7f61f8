package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"orderpay/internal/config"
	"orderpay/internal/logger"
	"orderpay/internal/metrics"

	"github.com/razorpay/razorpay-go/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.razorpay.com"

var tracer = otel.Tracer("orderpay/internal/gateway")

type razorpayGateway struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

func NewRazorpayGateway(cfg config.RazorpayConfig) Gateway {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		logger.L().Warn("razorpay credentials are empty")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &razorpayGateway{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type createOrderBody struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Receipt        string            `json:"receipt,omitempty"`
	PaymentCapture int               `json:"payment_capture"`
	Notes          map[string]string `json:"notes,omitempty"`
}

type errorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// ----------------- CreateOrder -----------------

func (g *razorpayGateway) CreateOrder(ctx context.Context, req CreateOrderRequest) (order *RemoteOrder, err error) {
	ctx, span := tracer.Start(ctx, "razorpay.CreateOrder", trace.WithAttributes(
		attribute.Int64("payment.amount_minor", req.AmountMinor),
		attribute.String("payment.currency", req.Currency),
	))
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
			if errors.Is(err, ErrTimeout) {
				outcome = metrics.OutcomeTimeout
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.GatewayRequestDuration.WithLabelValues(metrics.OperationCreate, outcome).Observe(time.Since(start).Seconds())
		span.End()
	}()

	log := logger.FromCtx(ctx).With(
		zap.Int64("amount", req.AmountMinor),
		zap.String("currency", req.Currency),
		zap.String("receipt", req.Receipt),
	)

	capture := 0
	if req.AutoCapture {
		capture = 1
	}
	jsonBody, err := json.Marshal(createOrderBody{
		Amount:         req.AmountMinor,
		Currency:       req.Currency,
		Receipt:        req.Receipt,
		PaymentCapture: capture,
		Notes:          req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal razorpay order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("build razorpay request: %w", err)
	}
	httpReq.SetBasicAuth(g.keyID, g.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			log.Warn("razorpay create order timed out", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		log.Error("razorpay request failed", zap.Error(err))
		return nil, fmt.Errorf("razorpay request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("read razorpay response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(bodyBytes, &eb) == nil {
			apiErr.Code = eb.Error.Code
			apiErr.Description = eb.Error.Description
		}
		log.Error("razorpay returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("code", apiErr.Code),
		)
		return nil, apiErr
	}

	var remote RemoteOrder
	if err := json.Unmarshal(bodyBytes, &remote); err != nil {
		return nil, fmt.Errorf("decode razorpay order: %w", err)
	}
	if remote.ID == "" {
		return nil, errors.New("razorpay: order response without id")
	}

	span.SetAttributes(attribute.String("payment.gateway_order_id", remote.ID))
	log.Info("razorpay order created", zap.String("order_id", remote.ID))
	return &remote, nil
}

// ----------------- Verify Signature -----------------

func (g *razorpayGateway) VerifyPaymentSignature(p SignaturePayload) error {
	start := time.Now()
	err := verifySignature(g.keySecret, p)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.GatewayRequestDuration.WithLabelValues(metrics.OperationVerifySign, outcome).Observe(time.Since(start).Seconds())
	return err
}

func verifySignature(secret string, p SignaturePayload) error {
	if secret == "" || p.OrderID == "" || p.PaymentID == "" || p.Signature == "" {
		return ErrSignatureMismatch
	}
	params := map[string]interface{}{
		"razorpay_order_id":   p.OrderID,
		"razorpay_payment_id": p.PaymentID,
	}
	if !utils.VerifyPaymentSignature(params, p.Signature, secret) {
		return ErrSignatureMismatch
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
